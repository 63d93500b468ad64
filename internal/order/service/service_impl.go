package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	catalogdomain "github.com/smallbiznis/carecheckout/internal/catalog/domain"
	"github.com/smallbiznis/carecheckout/internal/clock"
	"github.com/smallbiznis/carecheckout/internal/config"
	obsmetrics "github.com/smallbiznis/carecheckout/internal/observability/metrics"
	"github.com/smallbiznis/carecheckout/internal/order/domain"
	patientdomain "github.com/smallbiznis/carecheckout/internal/patient/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultUnpaidLimit = 100

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       domain.Repository
	Catalog    catalogdomain.Repository
	Patients   patientdomain.Service
	Numbers    domain.NumberGenerator
	Config     *config.CheckoutConfigHolder
	Clock      clock.Clock
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       domain.Repository
	catalog    catalogdomain.Repository
	patients   patientdomain.Service
	numbers    domain.NumberGenerator
	cfg        *config.CheckoutConfigHolder
	clock      clock.Clock
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	svc := &Service{
		db:         p.DB,
		log:        p.Log.Named("order.service"),
		repo:       p.Repo,
		catalog:    p.Catalog,
		patients:   p.Patients,
		numbers:    p.Numbers,
		cfg:        p.Config,
		clock:      p.Clock,
		obsMetrics: p.ObsMetrics,
	}
	if svc.clock == nil {
		svc.clock = clock.SystemClock{}
	}
	return svc
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) Transition(ctx context.Context, id uuid.UUID, to domain.Status) error {
	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if order.Status == to {
		return nil
	}
	if !domain.CanTransition(order.Status, to) {
		return domain.ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, s.db, id, to, domain.SourcesFor(to))
	if err != nil {
		return err
	}
	if updated == 0 {
		return domain.ErrInvalidTransition
	}

	s.log.Info("order status changed",
		zap.String("order_id", id.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("from_status", string(order.Status)),
		zap.String("to_status", string(to)),
	)
	return nil
}

func (s *Service) ListUnpaidOrders(ctx context.Context, olderThan time.Duration, limit int) ([]domain.Order, error) {
	if olderThan <= 0 {
		olderThan = s.cfg.Get().UnpaidOrderGrace
	}
	if limit <= 0 {
		limit = defaultUnpaidLimit
	}
	return s.repo.ListUnpaid(ctx, s.db, s.clock.Now().Add(-olderThan), limit)
}
