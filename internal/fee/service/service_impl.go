package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	catalogdomain "github.com/smallbiznis/carecheckout/internal/catalog/domain"
	"github.com/smallbiznis/carecheckout/internal/fee/domain"
	obsmetrics "github.com/smallbiznis/carecheckout/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       domain.Repository
	Catalog    catalogdomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       domain.Repository
	catalog    catalogdomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("fee.service"),
		repo:       p.Repo,
		catalog:    p.Catalog,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) ResolveRates(ctx context.Context, profile domain.TenantProfile) (domain.Rates, error) {
	cfg, err := s.repo.FindActiveConfiguration(ctx, s.db)
	if err != nil {
		return domain.Rates{}, err
	}
	if cfg == nil {
		s.log.Error("no active fee configuration; checkout is disabled")
		return domain.Rates{}, domain.ErrConfigurationMissing
	}

	rates := domain.Rates{
		PlatformFeePercent:      cfg.PlatformFeePercent,
		ClinicianFlatFee:        cfg.ClinicianFlatFee,
		NonMedicalProfitPercent: cfg.NonMedicalProfitPercent,
	}

	if profile.Tier != "" {
		override, err := s.repo.FindTierOverride(ctx, s.db, profile.Tier)
		if err != nil {
			return domain.Rates{}, err
		}
		if override != nil {
			rates.PlatformFeePercent = override.PlatformFeePercent
			rates.TierOverridden = true
		}
	}
	if profile.NonMedicalProfitPercent.Valid {
		rates.NonMedicalProfitPercent = profile.NonMedicalProfitPercent.Decimal
	}

	return rates, nil
}

func (s *Service) ComputeSplit(ctx context.Context, tenantID uuid.UUID, input domain.SplitInput) (domain.Split, error) {
	tenant, err := s.catalog.GetTenant(ctx, tenantID)
	if err != nil {
		return domain.Split{}, err
	}
	profile := domain.TenantProfile{
		TenantID:                tenant.ID,
		Tier:                    tenant.Tier,
		NonMedicalProfitPercent: tenant.NonMedicalProfitPct,
	}

	rates, err := s.ResolveRates(ctx, profile)
	if err != nil {
		return domain.Split{}, err
	}

	split, err := Calculate(rates, input)
	if err != nil {
		return domain.Split{}, err
	}

	if shortfall := split.Shortfall(); shortfall.IsPositive() {
		s.log.Warn("fees exceed order total; brand residual clamped",
			zap.String("tenant_id", tenantID.String()),
			zap.String("tenant_tier", tenant.Tier),
			zap.String("total", split.Total.StringFixed(2)),
			zap.String("shortfall", shortfall.StringFixed(2)),
		)
		s.obsMetrics.RecordSplitShortfall(ctx, tenant.Tier)
	}

	return split, nil
}

// IsConfigurationError reports whether err means checkout cannot proceed for anyone.
func IsConfigurationError(err error) bool {
	return errors.Is(err, domain.ErrConfigurationMissing)
}
