package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// CheckoutConfig holds runtime-tunable checkout settings loaded from checkout.yml.
type CheckoutConfig struct {
	OrderNumberPrefix      string            `mapstructure:"orderNumberPrefix"`
	OrderNumberMaxAttempts int               `mapstructure:"orderNumberMaxAttempts"`
	ProcessorTimeout       time.Duration     `mapstructure:"processorTimeout"`
	AuthorizationLockTTL   time.Duration     `mapstructure:"authorizationLockTTL"`
	UnpaidOrderGrace       time.Duration     `mapstructure:"unpaidOrderGrace"`
	RateLimit              CheckoutRateLimit `mapstructure:"rateLimit"`
}

type CheckoutRateLimit struct {
	Rate  float64 `mapstructure:"rate"`
	Burst int     `mapstructure:"burst"`
}

func DefaultCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{
		OrderNumberPrefix:      "ORD",
		OrderNumberMaxAttempts: 5,
		ProcessorTimeout:       15 * time.Second,
		AuthorizationLockTTL:   30 * time.Second,
		UnpaidOrderGrace:       15 * time.Minute,
		RateLimit: CheckoutRateLimit{
			Rate:  2,
			Burst: 10,
		},
	}
}

type CheckoutConfigHolder struct {
	current atomic.Value // holds CheckoutConfig
}

// NewStaticCheckoutConfigHolder returns a holder that never reloads.
func NewStaticCheckoutConfigHolder(cfg CheckoutConfig) *CheckoutConfigHolder {
	holder := &CheckoutConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewCheckoutConfigHolder() (*CheckoutConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("checkout")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/carecheckout/config")
	v.AddConfigPath("/etc/carecheckout")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CARECHECKOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultCheckoutConfig()
	v.SetDefault("checkout.orderNumberPrefix", defaults.OrderNumberPrefix)
	v.SetDefault("checkout.orderNumberMaxAttempts", defaults.OrderNumberMaxAttempts)
	v.SetDefault("checkout.processorTimeout", defaults.ProcessorTimeout)
	v.SetDefault("checkout.authorizationLockTTL", defaults.AuthorizationLockTTL)
	v.SetDefault("checkout.unpaidOrderGrace", defaults.UnpaidOrderGrace)
	v.SetDefault("checkout.rateLimit.rate", defaults.RateLimit.Rate)
	v.SetDefault("checkout.rateLimit.burst", defaults.RateLimit.Burst)

	configFileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		configFileFound = false
	}

	var cfg CheckoutConfig
	if err := v.UnmarshalKey("checkout", &cfg); err != nil {
		return nil, err
	}
	if err := validateCheckoutConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticCheckoutConfigHolder(cfg)
	if !configFileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated CheckoutConfig
		if err := v.UnmarshalKey("checkout", &updated); err != nil {
			log.Printf("[checkout-config] reload failed: %v", err)
			return
		}
		if err := validateCheckoutConfig(updated); err != nil {
			log.Printf("[checkout-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[checkout-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *CheckoutConfigHolder) Get() CheckoutConfig {
	if h == nil {
		return DefaultCheckoutConfig()
	}
	return h.current.Load().(CheckoutConfig)
}

func validateCheckoutConfig(cfg CheckoutConfig) error {
	if strings.TrimSpace(cfg.OrderNumberPrefix) == "" {
		return errors.New("checkout.orderNumberPrefix cannot be empty")
	}
	if cfg.OrderNumberMaxAttempts < 1 {
		return errors.New("checkout.orderNumberMaxAttempts must be at least 1")
	}
	if cfg.ProcessorTimeout <= 0 {
		return errors.New("checkout.processorTimeout must be positive")
	}
	if cfg.AuthorizationLockTTL <= 0 {
		return errors.New("checkout.authorizationLockTTL must be positive")
	}
	if cfg.RateLimit.Rate <= 0 || cfg.RateLimit.Burst <= 0 {
		return errors.New("checkout.rateLimit rate and burst must be positive")
	}
	return nil
}
