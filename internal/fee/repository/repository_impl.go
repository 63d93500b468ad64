package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/carecheckout/internal/fee/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindActiveConfiguration(ctx context.Context, db *gorm.DB) (*domain.FeeConfiguration, error) {
	var cfg domain.FeeConfiguration
	err := db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *repo) FindTierOverride(ctx context.Context, db *gorm.DB, tier string) (*domain.TierFeeOverride, error) {
	var override domain.TierFeeOverride
	err := db.WithContext(ctx).Where("tier = ?", tier).First(&override).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &override, nil
}
