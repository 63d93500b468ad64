package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Subscription, error)
	FindByOrderID(ctx context.Context, db *gorm.DB, orderID uuid.UUID) (*Subscription, error)
	FindByProcessorHandle(ctx context.Context, db *gorm.DB, handle string) (*Subscription, error)
	FindLiveBrand(ctx context.Context, db *gorm.DB, tenantID uuid.UUID) (*Subscription, error)
	// UpdateProcessorRefs writes the processor handles, periods and schedule
	// descriptor without touching status.
	UpdateProcessorRefs(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	// UpdateStatus moves the row to "to" only while it is still in "from".
	UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, from, to Status, at time.Time) (int64, error)

	FindPlan(ctx context.Context, db *gorm.DB, planType string) (*BrandPlan, error)
}
