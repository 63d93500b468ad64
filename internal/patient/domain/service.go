package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/smallbiznis/carecheckout/internal/apperr"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound  = apperr.NotFound("user_not_found")
	ErrInvalidEmail  = apperr.Validation("invalid_email")
	ErrInvalidTenant = apperr.Validation("invalid_tenant")
)

type Service interface {
	// Get loads an existing account.
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	// FindOrCreatePlaceholder returns the tenant's account for details.Email,
	// creating an unverified placeholder when none exists. db may be a
	// transaction.
	FindOrCreatePlaceholder(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, details Details) (*User, error)
	// ResolveAffiliate returns the account behind slug when it holds the
	// affiliate capability, or nil.
	ResolveAffiliate(ctx context.Context, db *gorm.DB, slug string) (*User, error)
	// SetProcessorCustomerID records the payer profile created at the processor.
	SetProcessorCustomerID(ctx context.Context, id uuid.UUID, customerID string) error
}
