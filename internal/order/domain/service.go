package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/carecheckout/internal/apperr"
)

var (
	ErrInvalidTarget          = apperr.Validation("invalid_target")
	ErrInvalidTenant          = apperr.Validation("invalid_tenant_id")
	ErrInvalidShipping        = apperr.Validation("invalid_shipping_info")
	ErrEmptyOrder             = apperr.Validation("invalid_items")
	ErrOrderNotFound          = apperr.NotFound("order_not_found")
	ErrTargetNotInTenant      = apperr.NotFound("checkout_item_not_found")
	ErrInvalidTransition      = apperr.Conflict("invalid_order_transition")
	ErrOrderNumberCollision   = apperr.Conflict("order_number_collision")
	ErrOrderNumberUnavailable = apperr.Internal("order_number_unavailable")
	ErrTotalMismatch          = apperr.Internal("order_total_mismatch")
)

// NumberGenerator yields candidate order numbers. Candidates may collide;
// the assembler retries on a unique violation.
type NumberGenerator interface {
	Next() string
}

type Service interface {
	// Prepare validates req and resolves its items, prices and questionnaire
	// from the catalog. It has no side effects.
	Prepare(ctx context.Context, req CheckoutRequest) (*Draft, error)
	// Assemble persists the order, its items and the optional shipping
	// address in one transaction. When the request carries an idempotency key
	// already used by the same patient, the existing order is returned with
	// reused set.
	Assemble(ctx context.Context, in AssembleInput) (order *Order, reused bool, err error)
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	// Transition moves the order to status "to" if the state machine allows it.
	// Moving to the current status is a no-op.
	Transition(ctx context.Context, id uuid.UUID, to Status) error
	// ListUnpaidOrders returns orders left pending without a payment.
	ListUnpaidOrders(ctx context.Context, olderThan time.Duration, limit int) ([]Order, error)
}
