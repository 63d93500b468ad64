package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	InsertItems(ctx context.Context, db *gorm.DB, items []OrderItem) error
	InsertShippingAddress(ctx context.Context, db *gorm.DB, address *ShippingAddress) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Order, error)
	FindByIdempotencyKey(ctx context.Context, db *gorm.DB, userID uuid.UUID, key string) (*Order, error)
	// UpdateStatus moves the order to "to" only when it is currently in one of
	// from, returning the number of rows changed.
	UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, to Status, from []Status) (int64, error)
	// ListUnpaid returns pending orders with a positive total, created before
	// olderThan, that have no payment row.
	ListUnpaid(ctx context.Context, db *gorm.DB, olderThan time.Time, limit int) ([]Order, error)
}
