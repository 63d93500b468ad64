package domain

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, email string) (*User, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*User, error)
	Insert(ctx context.Context, db *gorm.DB, user *User) error
	SetProcessorCustomerID(ctx context.Context, db *gorm.DB, id uuid.UUID, customerID string) error
}
