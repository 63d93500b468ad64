package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/carecheckout/internal/order/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) InsertShippingAddress(ctx context.Context, db *gorm.DB, address *domain.ShippingAddress) error {
	return db.WithContext(ctx).Create(address).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*domain.Order, error) {
	return first(db.WithContext(ctx).Preload("Items").Where("id = ?", id))
}

func (r *repo) FindByIdempotencyKey(ctx context.Context, db *gorm.DB, userID uuid.UUID, key string) (*domain.Order, error) {
	return first(db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND idempotency_key = ?", userID, key))
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, to domain.Status, from []domain.Status) (int64, error) {
	if len(from) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repo) ListUnpaid(ctx context.Context, db *gorm.DB, olderThan time.Time, limit int) ([]domain.Order, error) {
	var orders []domain.Order
	err := db.WithContext(ctx).
		Where("status = ? AND total > 0 AND created_at < ?", domain.StatusPending, olderThan).
		Where("NOT EXISTS (SELECT 1 FROM payments p WHERE p.order_id = orders.id)").
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func first(q *gorm.DB) (*domain.Order, error) {
	var order domain.Order
	if err := q.First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}
