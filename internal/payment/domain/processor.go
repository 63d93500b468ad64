package domain

import (
	"context"
	"net/http"
	"time"
)

type CaptureMethod string

const (
	CaptureManual    CaptureMethod = "manual"
	CaptureAutomatic CaptureMethod = "automatic"
)

const (
	AllowRedirectsNever   = "never"
	FutureUsageOffSession = "off_session"
)

type AutomaticPaymentMethods struct {
	Enabled        bool
	AllowRedirects string
}

// TransferInstruction routes part of a captured payment to a connected account.
type TransferInstruction struct {
	Destination string
	Amount      int64
}

// AuthorizationRequest is the processor-facing shape of a checkout charge.
// Amounts are in minor units.
type AuthorizationRequest struct {
	Amount                  int64
	Currency                string
	CaptureMethod           CaptureMethod
	AutomaticPaymentMethods AutomaticPaymentMethods
	SetupFutureUsage        string
	Metadata                map[string]string
	Transfer                *TransferInstruction
	OnBehalfOf              string
	StatementSuffix         string
	CustomerID              string
	Description             string
	IdempotencyKey          string
}

type AuthorizationHandle struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
}

type CustomerRequest struct {
	Email          string
	Name           string
	Phone          string
	Metadata       map[string]string
	IdempotencyKey string
}

type SetupRequest struct {
	CustomerID     string
	Metadata       map[string]string
	IdempotencyKey string
}

type SetupHandle struct {
	ID           string
	ClientSecret string
}

// Phase is one step of a billing schedule. Iterations nil means open-ended.
type Phase struct {
	PriceRef   string
	Iterations *int64
}

type ScheduleRequest struct {
	CustomerID      string
	PaymentMethodID string
	Phases          []Phase
	Metadata        map[string]string
	IdempotencyKey  string
}

type SubscriptionRequest struct {
	CustomerID      string
	PaymentMethodID string
	PriceRef        string
	TrialEnd        *time.Time
	Metadata        map[string]string
	IdempotencyKey  string
}

// ScheduleResult describes the recurring object the processor created.
// ScheduleID is empty for plain subscriptions.
type ScheduleResult struct {
	ScheduleID         string
	SubscriptionID     string
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
}

// Processor is the capability contract checkout depends on. Any processor
// offering these operations is substitutable.
type Processor interface {
	Name() string
	CreateCustomer(ctx context.Context, req CustomerRequest) (string, error)
	CreateAuthorization(ctx context.Context, req AuthorizationRequest) (*AuthorizationHandle, error)
	GetAuthorization(ctx context.Context, id string) (*AuthorizationHandle, error)
	CancelAuthorization(ctx context.Context, id string) error
	CreateSetupIntent(ctx context.Context, req SetupRequest) (*SetupHandle, error)
	AttachPaymentMethod(ctx context.Context, customerID, methodID string) error
	SetDefaultPaymentMethod(ctx context.Context, customerID, methodID string) error
	CreateBillingSchedule(ctx context.Context, req ScheduleRequest) (*ScheduleResult, error)
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (*ScheduleResult, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
}

// WebhookParser verifies and normalises processor webhook deliveries.
type WebhookParser interface {
	ParseWebhook(ctx context.Context, payload []byte, headers http.Header) (*PaymentEvent, error)
}

// AdapterConfig carries the credentials an adapter is built with.
type AdapterConfig struct {
	SecretKey     string
	WebhookSecret string
}

type AdapterFactory interface {
	Provider() string
	NewProcessor(cfg AdapterConfig) (Processor, error)
}

// EventHandler applies a deduplicated processor event to local state.
type EventHandler interface {
	HandlePaymentEvent(ctx context.Context, event *PaymentEvent) error
}

// AuthorizationLocker serialises authorization attempts for one order across
// replicas.
type AuthorizationLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}
