package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	subscriptiondomain "github.com/smallbiznis/carecheckout/internal/subscription/domain"
	"gorm.io/gorm"
)

const subscriptionColumns = `id, tenant_id, user_id, order_id, scope, plan_type, price_ref, status,
	processor_customer_id, processor_subscription_id, processor_schedule_id, setup_intent_id,
	schedule, current_period_start, current_period_end, activated_at, cancelled_at,
	created_at, updated_at`

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Create(subscription).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*subscriptiondomain.Subscription, error) {
	return r.findOne(ctx, db, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`, id)
}

func (r *repo) FindByOrderID(ctx context.Context, db *gorm.DB, orderID uuid.UUID) (*subscriptiondomain.Subscription, error) {
	return r.findOne(ctx, db, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE order_id = ?`, orderID)
}

func (r *repo) FindByProcessorHandle(ctx context.Context, db *gorm.DB, handle string) (*subscriptiondomain.Subscription, error) {
	return r.findOne(ctx, db, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE processor_subscription_id = ?`, handle)
}

func (r *repo) FindLiveBrand(ctx context.Context, db *gorm.DB, tenantID uuid.UUID) (*subscriptiondomain.Subscription, error) {
	return r.findOne(ctx, db,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE tenant_id = ? AND scope = ? AND status IN (?, ?)
		 ORDER BY created_at DESC LIMIT 1`,
		tenantID,
		subscriptiondomain.ScopeBrand,
		subscriptiondomain.StatusActive,
		subscriptiondomain.StatusPastDue,
	)
}

func (r *repo) UpdateProcessorRefs(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).
		Model(&subscriptiondomain.Subscription{}).
		Where("id = ?", subscription.ID).
		Updates(map[string]any{
			"processor_customer_id":     subscription.ProcessorCustomerID,
			"processor_subscription_id": subscription.ProcessorSubscriptionID,
			"processor_schedule_id":     subscription.ProcessorScheduleID,
			"setup_intent_id":           subscription.SetupIntentID,
			"schedule":                  subscription.Schedule,
			"current_period_start":      subscription.CurrentPeriodStart,
			"current_period_end":        subscription.CurrentPeriodEnd,
			"updated_at":                subscription.UpdatedAt,
		}).Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, from, to subscriptiondomain.Status, at time.Time) (int64, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": at,
	}
	switch to {
	case subscriptiondomain.StatusActive:
		updates["activated_at"] = gorm.Expr("COALESCE(activated_at, ?)", at)
	case subscriptiondomain.StatusCancelled:
		updates["cancelled_at"] = at
	}

	res := db.WithContext(ctx).
		Model(&subscriptiondomain.Subscription{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repo) FindPlan(ctx context.Context, db *gorm.DB, planType string) (*subscriptiondomain.BrandPlan, error) {
	var plan subscriptiondomain.BrandPlan
	err := db.WithContext(ctx).
		Where("plan_type = ? AND active = ?", planType, true).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, query string, args ...any) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&subscription).Error; err != nil {
		return nil, err
	}
	if subscription.ID == uuid.Nil {
		return nil, nil
	}
	return &subscription, nil
}
