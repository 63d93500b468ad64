// Package domain defines the checkout entry point that ties order assembly,
// fee splitting and payment authorization together.
package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/carecheckout/internal/apperr"
	feedomain "github.com/smallbiznis/carecheckout/internal/fee/domain"
	orderdomain "github.com/smallbiznis/carecheckout/internal/order/domain"
	visitfeedomain "github.com/smallbiznis/carecheckout/internal/visitfee/domain"
)

var (
	ErrOrderNotCancellable = apperr.Conflict("order_not_cancellable")
)

// Result is returned to the storefront after a successful checkout.
type Result struct {
	ClientSecret string
	OrderID      uuid.UUID
	OrderNumber  string
	PaymentID    *uuid.UUID
	Split        feedomain.Split
	VisitType    *visitfeedomain.VisitType
	VisitFee     decimal.Decimal
	Total        decimal.Decimal
	// SubscriptionID is set when the purchased item bills monthly.
	SubscriptionID *uuid.UUID
	// Reused is set when the idempotency key matched an earlier attempt.
	Reused bool
}

type Service interface {
	// Checkout prices the request, persists the order and opens a manual
	// capture authorization for its total.
	Checkout(ctx context.Context, req orderdomain.CheckoutRequest) (*Result, error)
	// CancelOrder voids any uncaptured authorization and cancels the order.
	CancelOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*orderdomain.Order, error)
	// ListUnpaid returns orders stuck without a payment past the configured
	// grace period.
	ListUnpaid(ctx context.Context, limit int) ([]orderdomain.Order, error)
}
