package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository is a generic read-mostly store over a single gorm model.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	FindByID(ctx context.Context, id any) (*T, error)
	FindOne(ctx context.Context, query *T, opts ...QueryOption) (*T, error)
	Find(ctx context.Context, query *T, opts ...QueryOption) ([]*T, error)
	Create(ctx context.Context, resource *T) error
	Count(ctx context.Context, query *T) (int64, error)
}

// QueryOption adjusts a query before it is executed.
type QueryOption func(*gorm.DB) *gorm.DB

func WithOrder(order string) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(order)
	}
}

func WithLimit(limit int) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	}
}

func WithWhere(query any, args ...any) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

func WithPreload(association string) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Preload(association)
	}
}
