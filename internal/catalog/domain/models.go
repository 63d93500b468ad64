// Package domain holds the read models checkout resolves its inputs from:
// tenants, sellable items, questionnaires and providers of record.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Tenant is a clinic selling under its own brand.
type Tenant struct {
	ID                   uuid.UUID           `gorm:"type:uuid;primaryKey"`
	Name                 string              `gorm:"type:text;not null"`
	DisplayName          string              `gorm:"type:text"`
	Domain               string              `gorm:"type:text;index"`
	Tier                 string              `gorm:"type:text;not null;default:'standard'"`
	ConnectedAccountID   *string             `gorm:"type:text"`
	ProviderOfRecordID   *uuid.UUID          `gorm:"type:uuid"`
	SynchronousVisitFee  decimal.Decimal     `gorm:"type:numeric(12,2);not null;default:0"`
	AsynchronousVisitFee decimal.Decimal     `gorm:"type:numeric(12,2);not null;default:0"`
	NonMedicalProfitPct  decimal.NullDecimal `gorm:"column:non_medical_profit_percent;type:numeric(5,2)"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (Tenant) TableName() string { return "tenants" }

// StatementName is the name shown to payers when the tenant is merchant of record.
func (t Tenant) StatementName() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.Name
}

func (t Tenant) HasConnectedAccount() bool {
	return t.ConnectedAccountID != nil && *t.ConnectedAccountID != ""
}

// MedicalProvider is the clinician group of record for a tenant.
type MedicalProvider struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name                 string          `gorm:"type:text;not null"`
	SynchronousVisitFee  decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	AsynchronousVisitFee decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (MedicalProvider) TableName() string { return "medical_providers" }

// Questionnaire is the clinical intake form attached to a sellable item.
// VisitTypeByState maps two-letter state codes to a visit type.
type Questionnaire struct {
	ID               uuid.UUID                             `gorm:"type:uuid;primaryKey"`
	TenantID         uuid.UUID                             `gorm:"type:uuid;not null;index"`
	Title            string                                `gorm:"type:text"`
	VisitTypeByState datatypes.JSONType[map[string]string] `gorm:"type:jsonb"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Questionnaire) TableName() string { return "questionnaires" }

// Product is a pharmacy-fulfilled item.
type Product struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name                  string          `gorm:"type:text;not null"`
	Price                 decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	PharmacyWholesaleCost decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	LabelText             string          `gorm:"type:text"`
	QuestionnaireID       *uuid.UUID      `gorm:"type:uuid"`
	Active                bool            `gorm:"not null;default:true"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (Product) TableName() string { return "products" }

// TenantProduct is a tenant's listing of a catalog product, optionally repriced.
type TenantProduct struct {
	ID              uuid.UUID           `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID           `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID           `gorm:"type:uuid;not null"`
	PriceOverride   decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	QuestionnaireID *uuid.UUID          `gorm:"type:uuid"`
	Active          bool                `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (TenantProduct) TableName() string { return "tenant_products" }

// Program bundles several products with a non-medical services charge
// (coaching, nutrition) that the platform takes a profit share of.
type Program struct {
	ID                    uuid.UUID        `gorm:"type:uuid;primaryKey"`
	TenantID              uuid.UUID        `gorm:"type:uuid;not null;index"`
	Name                  string           `gorm:"type:text;not null"`
	NonMedicalServicesFee decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0"`
	QuestionnaireID       *uuid.UUID       `gorm:"type:uuid"`
	Active                bool             `gorm:"not null;default:true"`
	Products              []ProgramProduct `gorm:"foreignKey:ProgramID"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (Program) TableName() string { return "programs" }

type ProgramProduct struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProgramID uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"`
	Quantity  int       `gorm:"not null;default:1"`
}

func (ProgramProduct) TableName() string { return "program_products" }

// Treatment is a recurring prescription of one product.
type Treatment struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null"`
	Name              string          `gorm:"type:text;not null"`
	Price             decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	RecurringPriceRef *string         `gorm:"type:text"`
	PlanType          string          `gorm:"type:text"`
	QuestionnaireID   *uuid.UUID      `gorm:"type:uuid"`
	Active            bool            `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Treatment) TableName() string { return "treatments" }

// IsRecurring reports whether a subscription must be opened alongside the order.
func (t Treatment) IsRecurring() bool {
	return t.RecurringPriceRef != nil && *t.RecurringPriceRef != ""
}
