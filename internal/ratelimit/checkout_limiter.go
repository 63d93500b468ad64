package ratelimit

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/carecheckout/internal/apperr"
	"github.com/smallbiznis/carecheckout/internal/config"
	"github.com/smallbiznis/carecheckout/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/carecheckout/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrRateLimited = apperr.RateLimited("checkout_rate_limited")

type bucket interface {
	Allow(ctx context.Context, key string, rate float64, burst int) (Decision, error)
}

type CheckoutLimiterParams struct {
	fx.In

	AppConfig  config.Config
	Config     *config.CheckoutConfigHolder
	Bucket     *TokenBucket        `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

// CheckoutLimiter throttles checkout submissions per tenant and client
// address. A nil limiter allows everything.
type CheckoutLimiter struct {
	bucket     bucket
	cfg        *config.CheckoutConfigHolder
	obsMetrics *obsmetrics.Metrics
}

func NewCheckoutLimiter(p CheckoutLimiterParams) *CheckoutLimiter {
	if !p.AppConfig.RateLimitEnabled || p.Bucket == nil {
		return nil
	}
	return &CheckoutLimiter{bucket: p.Bucket, cfg: p.Config, obsMetrics: p.ObsMetrics}
}

func (l *CheckoutLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.bucket == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		limits := l.cfg.Get().RateLimit
		decision, err := l.bucket.Allow(ctx, checkoutKey(c), limits.Rate, limits.Burst)
		if err != nil {
			// Redis trouble must not block checkout.
			logger.FromContext(ctx).Warn("checkout rate limit check failed", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			seconds := int(decision.RetryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			l.obsMetrics.RecordRateLimited(ctx, c.FullPath())
			logger.FromContext(ctx).Warn("checkout rate limit exceeded", zap.String("route", c.FullPath()))
			_ = c.Error(ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}

func checkoutKey(c *gin.Context) string {
	tenant := strings.TrimSpace(c.GetHeader("X-Tenant-ID"))
	if tenant == "" {
		tenant = "anonymous"
	}
	return "checkout:" + tenant + ":" + c.ClientIP()
}
