package payment

import (
	"github.com/smallbiznis/carecheckout/internal/config"
	"github.com/smallbiznis/carecheckout/internal/payment/adapters"
	"github.com/smallbiznis/carecheckout/internal/payment/adapters/stripe"
	"github.com/smallbiznis/carecheckout/internal/payment/domain"
	"github.com/smallbiznis/carecheckout/internal/payment/repository"
	paymentservice "github.com/smallbiznis/carecheckout/internal/payment/service"
	"github.com/smallbiznis/carecheckout/internal/payment/webhook"
	"github.com/smallbiznis/carecheckout/internal/ratelimit"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func() *adapters.Registry {
		return adapters.NewRegistry(stripe.NewFactory())
	}),
	fx.Provide(newProcessor),
	fx.Provide(newAuthorizationLocker),
	fx.Provide(paymentservice.NewService),
	fx.Provide(webhook.NewService),
)

func newProcessor(registry *adapters.Registry, cfg config.Config) (domain.Processor, error) {
	return registry.NewProcessor(cfg.Payment.Processor, domain.AdapterConfig{
		SecretKey:     cfg.Payment.StripeSecretKey,
		WebhookSecret: cfg.Payment.StripeWebhookSecret,
	})
}

// newAuthorizationLocker returns nil without redis, which leaves
// authorization unlocked.
func newAuthorizationLocker(locker *ratelimit.Locker) domain.AuthorizationLocker {
	if locker == nil {
		return nil
	}
	return locker
}
