package domain

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	catalogdomain "github.com/smallbiznis/carecheckout/internal/catalog/domain"
	feedomain "github.com/smallbiznis/carecheckout/internal/fee/domain"
	orderdomain "github.com/smallbiznis/carecheckout/internal/order/domain"
	patientdomain "github.com/smallbiznis/carecheckout/internal/patient/domain"
)

type AuthorizeInput struct {
	Order         *orderdomain.Order
	Split         feedomain.Split
	Tenant        *catalogdomain.Tenant
	Patient       *patientdomain.User
	UseOnBehalfOf bool
}

type AuthorizeResult struct {
	Payment      *Payment
	ClientSecret string
	// Reused is set when an active payment already existed for the order.
	Reused bool
}

type Service interface {
	// Authorize creates the processor authorization for an order and
	// persists exactly one pending Payment. An existing active payment is
	// returned instead of creating another.
	Authorize(ctx context.Context, in AuthorizeInput) (*AuthorizeResult, error)
	// EnsureCustomer returns the patient's processor customer, creating it
	// on first use.
	EnsureCustomer(ctx context.Context, patient *patientdomain.User) (string, error)
	// Record persists a payment created outside Authorize, such as a
	// brand-subscription charge.
	Record(ctx context.Context, payment *Payment) error
	// FindByHandle loads a payment by its processor handle.
	FindByHandle(ctx context.Context, handle string) (*Payment, error)
	ActiveForOrder(ctx context.Context, orderID uuid.UUID) (*Payment, error)
	// LatestForSubscription returns the most recent charge recorded for a
	// brand subscription, or nil when none was recorded.
	LatestForSubscription(ctx context.Context, subscriptionID uuid.UUID) (*Payment, error)
	// Transition applies a status change. Moving to the current status is a
	// no-op; illegal moves return ErrInvalidTransition.
	Transition(ctx context.Context, payment *Payment, to Status) error
	// Void releases an uncaptured authorization at the processor and marks
	// the payment cancelled.
	Void(ctx context.Context, payment *Payment) error
	Processor() Processor
}

// WebhookService ingests processor webhooks.
type WebhookService interface {
	IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error
}
