package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/carecheckout/internal/apperr"
)

var (
	ErrSubscriptionNotFound = apperr.NotFound("subscription_not_found")
	ErrPlanNotFound         = apperr.NotFound("plan_not_found")
	ErrInvalidTransition    = apperr.Conflict("invalid_subscription_transition")
	ErrAlreadySubscribed    = apperr.Conflict("subscription_already_active")
	ErrPaymentNotConfirmed  = apperr.Conflict("subscription_payment_not_confirmed")
	ErrInvalidPlan          = apperr.Validation("invalid_plan_type")
	ErrInvalidPaymentMethod = apperr.Validation("invalid_payment_method")
	ErrInvalidTenant        = apperr.Validation("invalid_tenant")
	ErrScheduleFailed       = apperr.Processor("subscription_schedule_failed")
	ErrIntentFailed         = apperr.Processor("subscription_intent_failed")
)

type IntentMode string

const (
	// IntentSetup collects a payment method without charging.
	IntentSetup IntentMode = "setup"
	// IntentPayment charges the first period immediately.
	IntentPayment IntentMode = "payment"
)

type CreateIntentRequest struct {
	TenantID uuid.UUID `json:"-"`
	UserID   uuid.UUID `json:"-"`
	PlanType string    `json:"plan_type" validate:"required,max=64"`
}

type IntentResult struct {
	Subscription *Subscription
	Mode         IntentMode
	IntentID     string
	ClientSecret string
	Amount       decimal.Decimal
	Currency     string
}

type ActivateRequest struct {
	TenantID        uuid.UUID `json:"-"`
	SubscriptionID  uuid.UUID `json:"subscription_id" validate:"required"`
	PaymentMethodID string    `json:"payment_method_id" validate:"required,max=255"`
}

// OrderSubscriptionInput opens the recurring side of a checkout.
type OrderSubscriptionInput struct {
	OrderID  uuid.UUID
	TenantID uuid.UUID
	UserID   uuid.UUID
	PriceRef string
	PlanType string
}

type Service interface {
	// CreatePaymentIntent opens a pending tier subscription. Plans with intro
	// pricing get a setup intent; other plans are charged directly.
	CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (*IntentResult, error)
	// ActivateSchedule attaches the confirmed payment method, creates the
	// processor-side schedule and marks the subscription active once its
	// handle is stored. A plan charged directly must have a succeeded
	// payment first.
	ActivateSchedule(ctx context.Context, req ActivateRequest) (*Subscription, error)
	// Cancel cancels at the processor first. A processor failure is logged
	// and the local record is cancelled regardless.
	Cancel(ctx context.Context, tenantID, id uuid.UUID) (*Subscription, error)
	Get(ctx context.Context, id uuid.UUID) (*Subscription, error)

	CreateForOrder(ctx context.Context, in OrderSubscriptionInput) (*Subscription, error)
	// ActivateForOrder starts billing an order's pending subscription with the
	// method the checkout authorization was paid with.
	ActivateForOrder(ctx context.Context, orderID uuid.UUID, customerID, paymentMethodID string) (*Subscription, error)

	// ApplyProcessorStatus mirrors a processor lifecycle change onto the
	// subscription holding handle.
	ApplyProcessorStatus(ctx context.Context, handle string, to Status) error
	MarkPastDue(ctx context.Context, handle string) error
}
