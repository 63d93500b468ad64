package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/smallbiznis/carecheckout/internal/patient/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*domain.User, error) {
	return first(db.WithContext(ctx).Where("id = ?", id))
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, email string) (*domain.User, error) {
	return first(db.WithContext(ctx).
		Where("tenant_id = ? AND email = ?", tenantID, strings.ToLower(strings.TrimSpace(email))))
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.User, error) {
	return first(db.WithContext(ctx).Where("affiliate_slug = ?", slug))
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).Create(user).Error
}

func (r *repo) SetProcessorCustomerID(ctx context.Context, db *gorm.DB, id uuid.UUID, customerID string) error {
	return db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("processor_customer_id", customerID).Error
}

func first(q *gorm.DB) (*domain.User, error) {
	var user domain.User
	if err := q.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
