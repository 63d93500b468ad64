package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/smallbiznis/carecheckout/internal/apperr"
	"gorm.io/gorm"
)

var (
	ErrConfigurationMissing = apperr.Configuration("fee_configuration_missing")
	ErrInvalidTotal         = apperr.Validation("invalid_total")
	ErrInvalidAmount        = apperr.Validation("invalid_amount")
)

type Repository interface {
	FindActiveConfiguration(ctx context.Context, db *gorm.DB) (*FeeConfiguration, error)
	FindTierOverride(ctx context.Context, db *gorm.DB, tier string) (*TierFeeOverride, error)
}

type Service interface {
	// ResolveRates loads the global configuration and applies the tenant's
	// overrides. It fails with ErrConfigurationMissing when no active global
	// row exists.
	ResolveRates(ctx context.Context, profile TenantProfile) (Rates, error)
	// ComputeSplit resolves rates for the tenant and computes the split.
	ComputeSplit(ctx context.Context, tenantID uuid.UUID, input SplitInput) (Split, error)
}
