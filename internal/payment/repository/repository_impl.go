package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/carecheckout/internal/payment/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) FindActiveForOrder(ctx context.Context, db *gorm.DB, orderID uuid.UUID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).
		Where("order_id = ? AND status NOT IN ?", orderID, []domain.Status{domain.StatusFailed, domain.StatusCancelled}).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repo) CountForOrder(ctx context.Context, db *gorm.DB, orderID uuid.UUID) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Payment{}).Where("order_id = ?", orderID).Count(&n).Error
	return n, err
}

func (r *repo) FindByHandle(ctx context.Context, db *gorm.DB, provider, handle string) (*domain.Payment, error) {
	var payment domain.Payment
	q := db.WithContext(ctx).Where("provider_payment_id = ?", handle)
	if provider != "" {
		q = q.Where("provider = ?", provider)
	}
	if err := q.First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repo) FindLatestForSubscription(ctx context.Context, db *gorm.DB, subscriptionID uuid.UUID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, to domain.Status, from []domain.Status) (int64, error) {
	if len(from) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.EventRecord) (bool, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
			DoNothing: true,
		}).
		Create(event)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindEvent(ctx context.Context, db *gorm.DB, provider, providerEventID string) (*domain.EventRecord, error) {
	var item domain.EventRecord
	err := db.WithContext(ctx).
		Where("provider = ? AND provider_event_id = ?", provider, providerEventID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repo) MarkEventProcessed(ctx context.Context, db *gorm.DB, id uuid.UUID, processedAt time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.EventRecord{}).
		Where("id = ?", id).
		Update("processed_at", processedAt).Error
}
