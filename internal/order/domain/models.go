// Package domain defines the order aggregate: Order, its line items and the
// optional shipping address.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusAuthorized Status = "authorized"
	StatusPaid       Status = "paid"
	StatusPaymentDue Status = "payment_due"
	StatusCancelled  Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusAuthorized, StatusPaid, StatusPaymentDue, StatusCancelled},
	StatusAuthorized: {StatusPaid, StatusPaymentDue, StatusCancelled},
	StatusPaymentDue: {StatusAuthorized, StatusPaid, StatusCancelled},
}

// CanTransition reports whether an order may move from one status to another.
// Paid and cancelled orders are terminal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SourcesFor lists the statuses an order may be in to move to target.
func SourcesFor(target Status) []Status {
	var out []Status
	for from, nexts := range transitions {
		for _, next := range nexts {
			if next == target {
				out = append(out, from)
			}
		}
	}
	return out
}

type Kind string

const (
	KindProduct   Kind = "product"
	KindProgram   Kind = "program"
	KindTreatment Kind = "treatment"
)

// Order is one purchase attempt. Orders are never deleted.
type Order struct {
	ID                      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderNumber             string          `gorm:"type:text;not null;uniqueIndex:ux_orders_order_number"`
	TenantID                uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID                  uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:ux_orders_user_idempotency,priority:1"`
	Kind                    Kind            `gorm:"type:text;not null"`
	TenantProductID         *uuid.UUID      `gorm:"type:uuid"`
	ProgramID               *uuid.UUID      `gorm:"type:uuid"`
	TreatmentID             *uuid.UUID      `gorm:"type:uuid"`
	Status                  Status          `gorm:"type:text;not null;default:'pending';index"`
	Currency                string          `gorm:"type:varchar(3);not null"`
	ProductsSubtotal        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	NonMedicalServicesFee   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Subtotal                decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Discount                decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Tax                     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Shipping                decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	VisitType               *string         `gorm:"type:text"`
	VisitFeeAmount          decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Total                   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	PlatformFeePercent      decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	PlatformFeeAmount       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	NonMedicalProfitShare   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	DoctorAmount            decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	PharmacyWholesaleAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	BrandAmount             decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	AffiliateID             *uuid.UUID      `gorm:"type:uuid"`
	ShippingAddressID       *uuid.UUID      `gorm:"type:uuid"`
	QuestionnaireAnswers    datatypes.JSON  `gorm:"type:jsonb"`
	IdempotencyKey          *string         `gorm:"type:text;uniqueIndex:ux_orders_user_idempotency,priority:2"`
	Items                   []OrderItem     `gorm:"foreignKey:OrderID"`
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func (Order) TableName() string { return "orders" }

// ComputedTotal applies subtotal - discount + tax + shipping + visit fee.
func (o Order) ComputedTotal() decimal.Decimal {
	return o.Subtotal.Sub(o.Discount).Add(o.Tax).Add(o.Shipping).Add(o.VisitFeeAmount)
}

// OrderItem is immutable once written.
type OrderItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null"`
	Name          string          `gorm:"type:text;not null"`
	Quantity      int             `gorm:"not null"`
	UnitPrice     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	LineTotal     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	WholesaleCost decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	LabelText     string          `gorm:"type:text"`
	CreatedAt     time.Time
}

func (OrderItem) TableName() string { return "order_items" }

type ShippingAddress struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Name       string    `gorm:"type:text;not null"`
	Line1      string    `gorm:"type:text;not null"`
	Line2      string    `gorm:"type:text"`
	City       string    `gorm:"type:text;not null"`
	State      string    `gorm:"type:varchar(2);not null"`
	PostalCode string    `gorm:"type:text;not null"`
	Country    string    `gorm:"type:varchar(2);not null;default:'US'"`
	Phone      string    `gorm:"type:text"`
	CreatedAt  time.Time
}

func (ShippingAddress) TableName() string { return "shipping_addresses" }
