package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	checkoutdomain "github.com/smallbiznis/carecheckout/internal/checkout/domain"
	"github.com/smallbiznis/carecheckout/internal/config"
	"github.com/smallbiznis/carecheckout/internal/observability"
	obsmiddleware "github.com/smallbiznis/carecheckout/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/carecheckout/internal/observability/metrics"
	obstracing "github.com/smallbiznis/carecheckout/internal/observability/tracing"
	orderdomain "github.com/smallbiznis/carecheckout/internal/order/domain"
	paymentdomain "github.com/smallbiznis/carecheckout/internal/payment/domain"
	"github.com/smallbiznis/carecheckout/internal/ratelimit"
	subscriptiondomain "github.com/smallbiznis/carecheckout/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const HeaderAdminKey = "X-Admin-Key"

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if obsCfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware(obsCfg.Production()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	checkoutSvc     checkoutdomain.Service
	subscriptionSvc subscriptiondomain.Service
	webhookSvc      paymentdomain.WebhookService
	limiter         *ratelimit.CheckoutLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	CheckoutSvc     checkoutdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	WebhookSvc      paymentdomain.WebhookService
	Limiter         *ratelimit.CheckoutLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		checkoutSvc:     p.CheckoutSvc,
		subscriptionSvc: p.SubscriptionSvc,
		webhookSvc:      p.WebhookSvc,
		limiter:         p.Limiter,
	}

	svc.registerCheckoutRoutes()
	svc.registerBrandRoutes()
	svc.registerAdminRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerCheckoutRoutes() {
	payments := s.engine.Group("/payments")

	payments.POST("/product/sub", s.checkoutRateLimit(), s.HandleCheckout(orderdomain.KindProduct))
	payments.POST("/program/sub", s.checkoutRateLimit(), s.HandleCheckout(orderdomain.KindProgram))
	payments.POST("/treatment/sub", s.checkoutRateLimit(), s.HandleCheckout(orderdomain.KindTreatment))

	payments.POST("/webhooks/:provider", s.HandlePaymentWebhook)
}

func (s *Server) registerBrandRoutes() {
	brand := s.engine.Group("/brand-subscriptions")

	brand.POST("/create-payment-intent", s.CreateBrandPaymentIntent)
	brand.POST("/activate-schedule", s.ActivateBrandSchedule)
	brand.GET("/:id", s.GetBrandSubscription)
	brand.POST("/:id/cancel", s.CancelBrandSubscription)
}

func (s *Server) registerAdminRoutes() {
	if strings.TrimSpace(s.cfg.AdminAPIKey) == "" {
		return
	}

	admin := s.engine.Group("/admin", s.AdminKeyRequired())
	admin.GET("/orders/unpaid", s.ListUnpaidOrders)
	admin.POST("/orders/:id/cancel", s.CancelOrder)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}

func (s *Server) checkoutRateLimit() gin.HandlerFunc {
	if s.limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return s.limiter.Middleware()
}

// AdminKeyRequired admits operator requests carrying the configured key.
func (s *Server) AdminKeyRequired() gin.HandlerFunc {
	expected := []byte(strings.TrimSpace(s.cfg.AdminAPIKey))
	return func(c *gin.Context) {
		provided := []byte(strings.TrimSpace(c.GetHeader(HeaderAdminKey)))
		if len(provided) == 0 || subtle.ConstantTimeCompare(provided, expected) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}
