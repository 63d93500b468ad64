// Package domain contains subscription records, tier plans and the recurring
// schedule they are billed on.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Status represents lifecycle states for a subscription.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusPastDue   Status = "past_due"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending: {StatusActive, StatusCancelled},
	StatusActive:  {StatusPastDue, StatusCancelled},
	StatusPastDue: {StatusActive, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Scope tells who is billed: a tenant on a platform tier plan, or a patient
// for a recurring treatment bought at checkout.
type Scope string

const (
	ScopeBrand Scope = "brand"
	ScopeOrder Scope = "order"
)

// Subscription is the local mirror of a processor-side recurring object.
type Subscription struct {
	ID                      uuid.UUID                              `gorm:"type:uuid;primaryKey"`
	TenantID                uuid.UUID                              `gorm:"type:uuid;not null;index"`
	UserID                  uuid.UUID                              `gorm:"type:uuid;not null"`
	OrderID                 *uuid.UUID                             `gorm:"type:uuid;uniqueIndex:ux_subscriptions_order"`
	Scope                   Scope                                  `gorm:"type:text;not null"`
	PlanType                string                                 `gorm:"type:text"`
	PriceRef                string                                 `gorm:"type:text;not null"`
	Status                  Status                                 `gorm:"type:text;not null;default:'pending';index"`
	ProcessorCustomerID     string                                 `gorm:"type:text"`
	ProcessorSubscriptionID *string                                `gorm:"type:text;uniqueIndex:ux_subscriptions_processor_handle"`
	ProcessorScheduleID     *string                                `gorm:"type:text"`
	SetupIntentID           *string                                `gorm:"type:text"`
	Schedule                datatypes.JSONType[ScheduleDescriptor] `gorm:"type:jsonb"`
	CurrentPeriodStart      *time.Time
	CurrentPeriodEnd        *time.Time
	ActivatedAt             *time.Time
	CancelledAt             *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func (Subscription) TableName() string { return "subscriptions" }

// ScheduleDescriptor records the phases the processor was asked to bill. The
// introductory and next fields are only set for plans with intro pricing.
type ScheduleDescriptor struct {
	ScheduleID           string            `json:"schedule_id,omitempty"`
	IntroductoryPlanType string            `json:"introductory_plan_type,omitempty"`
	IntroductoryPriceRef string            `json:"introductory_price_ref,omitempty"`
	NextPlanType         string            `json:"next_plan_type,omitempty"`
	NextPriceRef         string            `json:"next_price_ref,omitempty"`
	Phases               []PhaseDescriptor `json:"phases"`
}

type PhaseDescriptor struct {
	PriceRef   string `json:"price_ref"`
	Amount     string `json:"amount"`
	Iterations *int64 `json:"iterations,omitempty"`
}

// BrandPlan is a platform tier a tenant can subscribe to. A plan has intro
// pricing when IntroPriceRef is set to a price other than PriceRef for a
// positive number of months. NextPlanType names the tier billed once the
// intro phase ends; empty means the plan itself.
type BrandPlan struct {
	ID                  uuid.UUID           `gorm:"type:uuid;primaryKey"`
	PlanType            string              `gorm:"type:text;not null;uniqueIndex"`
	Name                string              `gorm:"type:text;not null"`
	PriceRef            string              `gorm:"type:text;not null"`
	Amount              decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	Currency            string              `gorm:"type:varchar(3);not null;default:'usd'"`
	IntroPriceRef       *string             `gorm:"type:text"`
	IntroAmount         decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	IntroDurationMonths int                 `gorm:"not null;default:0"`
	NextPlanType        string              `gorm:"type:text"`
	Active              bool                `gorm:"not null;default:true"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (BrandPlan) TableName() string { return "brand_plans" }

func (p BrandPlan) HasIntro() bool {
	return p.IntroPriceRef != nil &&
		*p.IntroPriceRef != "" &&
		*p.IntroPriceRef != p.PriceRef &&
		p.IntroDurationMonths > 0
}

// AfterIntroPlanType is the tier the subscription rolls into after the intro
// phase.
func (p BrandPlan) AfterIntroPlanType() string {
	if p.NextPlanType != "" {
		return p.NextPlanType
	}
	return p.PlanType
}

// FirstCharge is what the payer is billed when the subscription starts.
func (p BrandPlan) FirstCharge() decimal.Decimal {
	if p.HasIntro() && p.IntroAmount.Valid {
		return p.IntroAmount.Decimal
	}
	return p.Amount
}
