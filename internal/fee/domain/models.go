// Package domain defines fee configuration and the per-transaction revenue split.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeConfiguration is the platform-wide fee row. Only the most recent active
// row is used.
type FeeConfiguration struct {
	ID                      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PlatformFeePercent      decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	ClinicianFlatFee        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	NonMedicalProfitPercent decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	Active                  bool            `gorm:"not null;default:true"`
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func (FeeConfiguration) TableName() string { return "fee_configurations" }

// TierFeeOverride replaces the platform fee percent for tenants on a tier.
type TierFeeOverride struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Tier               string          `gorm:"type:text;not null;uniqueIndex"`
	PlatformFeePercent decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (TierFeeOverride) TableName() string { return "tier_fee_overrides" }

// TenantProfile carries the tenant attributes that influence the split.
type TenantProfile struct {
	TenantID                uuid.UUID
	Tier                    string
	NonMedicalProfitPercent decimal.NullDecimal
}

// Rates are the resolved percentages and flat fees for one tenant.
type Rates struct {
	PlatformFeePercent      decimal.Decimal
	ClinicianFlatFee        decimal.Decimal
	NonMedicalProfitPercent decimal.Decimal
	TierOverridden          bool
}

// SplitLine is one order line as seen by the fee calculator.
type SplitLine struct {
	WholesaleCost decimal.Decimal
	Quantity      int
}

// SplitInput is everything the calculator needs for one transaction.
type SplitInput struct {
	Total                 decimal.Decimal
	ProductsSubtotal      decimal.Decimal
	NonMedicalServicesFee decimal.Decimal
	Lines                 []SplitLine
}
