package adapters

import (
	"strings"

	"github.com/smallbiznis/carecheckout/internal/payment/domain"
)

// Registry resolves processor adapters by provider name.
type Registry struct {
	factories map[string]domain.AdapterFactory
}

func NewRegistry(factories ...domain.AdapterFactory) *Registry {
	registry := &Registry{factories: map[string]domain.AdapterFactory{}}
	for _, factory := range factories {
		if factory == nil {
			continue
		}
		provider := normalize(factory.Provider())
		if provider == "" {
			continue
		}
		registry.factories[provider] = factory
	}
	return registry
}

func (r *Registry) ProviderExists(provider string) bool {
	if r == nil {
		return false
	}
	_, ok := r.factories[normalize(provider)]
	return ok
}

func (r *Registry) NewProcessor(provider string, cfg domain.AdapterConfig) (domain.Processor, error) {
	if r == nil {
		return nil, domain.ErrProviderNotFound
	}
	factory, ok := r.factories[normalize(provider)]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return factory.NewProcessor(cfg)
}

// Parser returns the webhook parser of a processor when the adapter can
// verify deliveries.
func Parser(processor domain.Processor) (domain.WebhookParser, bool) {
	parser, ok := processor.(domain.WebhookParser)
	return parser, ok
}

func normalize(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
