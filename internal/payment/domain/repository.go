package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindActiveForOrder(ctx context.Context, db *gorm.DB, orderID uuid.UUID) (*Payment, error)
	CountForOrder(ctx context.Context, db *gorm.DB, orderID uuid.UUID) (int64, error)
	FindByHandle(ctx context.Context, db *gorm.DB, provider, handle string) (*Payment, error)
	FindLatestForSubscription(ctx context.Context, db *gorm.DB, subscriptionID uuid.UUID) (*Payment, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, to Status, from []Status) (int64, error)

	InsertEvent(ctx context.Context, db *gorm.DB, event *EventRecord) (bool, error)
	FindEvent(ctx context.Context, db *gorm.DB, provider, providerEventID string) (*EventRecord, error)
	MarkEventProcessed(ctx context.Context, db *gorm.DB, id uuid.UUID, processedAt time.Time) error
}
