// Package domain defines local payment records, processor events and the
// capability contract every payment processor adapter implements.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending Status = "pending"
	// StatusRequiresPaymentMethod follows a declined confirmation. The payer
	// can retry on the same client secret, so the payment stays live.
	StatusRequiresPaymentMethod Status = "requires_payment_method"
	StatusRequiresCapture       Status = "requires_capture"
	StatusSucceeded             Status = "succeeded"
	StatusFailed                Status = "failed"
	StatusCancelled             Status = "cancelled"
)

// Active payments count toward the one-per-order limit.
func (s Status) Active() bool {
	return s != StatusFailed && s != StatusCancelled
}

var transitions = map[Status][]Status{
	StatusPending:               {StatusRequiresPaymentMethod, StatusRequiresCapture, StatusSucceeded, StatusFailed, StatusCancelled},
	StatusRequiresPaymentMethod: {StatusRequiresCapture, StatusSucceeded, StatusFailed, StatusCancelled},
	StatusRequiresCapture:       {StatusSucceeded, StatusFailed, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Kind string

const (
	KindAuthorization Kind = "authorization"
	KindSetup         Kind = "setup"
)

// Payment is one authorization attempt against the processor. OrderID is nil
// for standalone brand-subscription charges.
type Payment struct {
	ID                uuid.UUID                             `gorm:"type:uuid;primaryKey"`
	OrderID           *uuid.UUID                            `gorm:"type:uuid;index"`
	SubscriptionID    *uuid.UUID                            `gorm:"type:uuid;index"`
	TenantID          uuid.UUID                             `gorm:"type:uuid;not null;index"`
	UserID            uuid.UUID                             `gorm:"type:uuid;not null"`
	Provider          string                                `gorm:"type:text;not null"`
	ProviderPaymentID string                                `gorm:"type:text;not null;uniqueIndex:ux_payments_provider_handle"`
	Kind              Kind                                  `gorm:"type:text;not null;default:'authorization'"`
	Status            Status                                `gorm:"type:text;not null;default:'pending'"`
	PaymentMethodKind string                                `gorm:"type:text"`
	Amount            decimal.Decimal                       `gorm:"type:numeric(12,2);not null"`
	Currency          string                                `gorm:"type:varchar(3);not null"`
	IdempotencyKey    string                                `gorm:"type:text"`
	Metadata          datatypes.JSONType[map[string]string] `gorm:"type:jsonb"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Payment) TableName() string { return "payments" }

// EventRecord deduplicates processor webhook deliveries.
type EventRecord struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Provider        string         `gorm:"type:text;not null;uniqueIndex:ux_processor_events_provider_event,priority:1"`
	ProviderEventID string         `gorm:"type:text;not null;uniqueIndex:ux_processor_events_provider_event,priority:2"`
	EventType       string         `gorm:"type:text;not null"`
	ObjectID        string         `gorm:"type:text"`
	Payload         datatypes.JSON `gorm:"type:jsonb;not null"`
	ReceivedAt      time.Time      `gorm:"not null"`
	ProcessedAt     *time.Time
}

func (EventRecord) TableName() string { return "processor_events" }

const (
	EventAuthorizationCapturable = "authorization_capturable"
	EventPaymentSucceeded        = "payment_succeeded"
	EventPaymentFailed           = "payment_failed"
	EventPaymentCancelled        = "payment_cancelled"
	EventSetupSucceeded          = "setup_succeeded"
	EventSubscriptionActive      = "subscription_active"
	EventSubscriptionPastDue     = "subscription_past_due"
	EventSubscriptionCancelled   = "subscription_cancelled"
)

// PaymentEvent is a processor webhook normalised by an adapter.
type PaymentEvent struct {
	Provider        string
	ProviderEventID string
	// RawType is the processor's own event name.
	RawType  string
	Type     string
	ObjectID string
	// CustomerID and PaymentMethodID are set for setup confirmations.
	CustomerID      string
	PaymentMethodID string
	Amount          int64
	Currency        string
	Metadata        map[string]string
	OccurredAt      time.Time
	RawPayload      []byte
}
