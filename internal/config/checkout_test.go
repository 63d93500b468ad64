package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCheckoutConfigIsValid(t *testing.T) {
	require.NoError(t, validateCheckoutConfig(DefaultCheckoutConfig()))
}

func TestValidateCheckoutConfigRejectsBadValues(t *testing.T) {
	cases := map[string]func(*CheckoutConfig){
		"empty prefix":   func(c *CheckoutConfig) { c.OrderNumberPrefix = " " },
		"zero attempts":  func(c *CheckoutConfig) { c.OrderNumberMaxAttempts = 0 },
		"zero timeout":   func(c *CheckoutConfig) { c.ProcessorTimeout = 0 },
		"zero lock ttl":  func(c *CheckoutConfig) { c.AuthorizationLockTTL = 0 },
		"zero rate":      func(c *CheckoutConfig) { c.RateLimit.Rate = 0 },
		"negative burst": func(c *CheckoutConfig) { c.RateLimit.Burst = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultCheckoutConfig()
			mutate(&cfg)
			assert.Error(t, validateCheckoutConfig(cfg))
		})
	}
}

func TestStaticHolderReturnsStoredConfig(t *testing.T) {
	cfg := DefaultCheckoutConfig()
	cfg.ProcessorTimeout = 3 * time.Second
	holder := NewStaticCheckoutConfigHolder(cfg)
	assert.Equal(t, 3*time.Second, holder.Get().ProcessorTimeout)

	var nilHolder *CheckoutConfigHolder
	assert.Equal(t, DefaultCheckoutConfig(), nilHolder.Get())
}

func TestStatementSourcePrefersStatementName(t *testing.T) {
	p := PlatformConfig{Name: "CareCheckout"}
	assert.Equal(t, "CareCheckout", p.StatementSource())
	p.StatementName = "CARECO"
	assert.Equal(t, "CARECO", p.StatementSource())
}
