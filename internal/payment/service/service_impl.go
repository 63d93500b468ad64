package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/smallbiznis/carecheckout/internal/config"
	obsmetrics "github.com/smallbiznis/carecheckout/internal/observability/metrics"
	patientdomain "github.com/smallbiznis/carecheckout/internal/patient/domain"
	"github.com/smallbiznis/carecheckout/internal/payment/domain"
	dbpkg "github.com/smallbiznis/carecheckout/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const processorCanceled = "canceled"

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       domain.Repository
	Processor  domain.Processor
	Patients   patientdomain.Service
	Locker     domain.AuthorizationLocker `optional:"true"`
	Config     *config.CheckoutConfigHolder
	AppConfig  config.Config
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       domain.Repository
	processor  domain.Processor
	patients   patientdomain.Service
	locker     domain.AuthorizationLocker
	cfg        *config.CheckoutConfigHolder
	platform   config.PlatformConfig
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.service"),
		repo:       p.Repo,
		processor:  p.Processor,
		patients:   p.Patients,
		locker:     p.Locker,
		cfg:        p.Config,
		platform:   p.AppConfig.Platform,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Processor() domain.Processor {
	return s.processor
}

func (s *Service) Authorize(ctx context.Context, in domain.AuthorizeInput) (*domain.AuthorizeResult, error) {
	if in.Order == nil || in.Tenant == nil || in.Patient == nil {
		return nil, errors.New("authorize: order, tenant and patient are required")
	}
	if !in.Order.Total.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	if res, err := s.reuseActive(ctx, in); err != nil || res != nil {
		return res, err
	}

	cfg := s.cfg.Get()
	if s.locker != nil {
		key := "payment:authorize:" + in.Order.ID.String()
		token, ok, err := s.locker.TryLock(ctx, key, cfg.AuthorizationLockTTL)
		switch {
		case err != nil:
			s.log.Warn("authorization lock unavailable, continuing unlocked",
				zap.String("order_id", in.Order.ID.String()),
				zap.Error(err),
			)
		case !ok:
			return nil, domain.ErrAuthorizationBusy
		default:
			defer func() {
				if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
					s.log.Warn("release authorization lock", zap.String("order_id", in.Order.ID.String()), zap.Error(err))
				}
			}()
			if res, err := s.reuseActive(ctx, in); err != nil || res != nil {
				return res, err
			}
		}
	}

	customerID, err := s.EnsureCustomer(ctx, in.Patient)
	if err != nil {
		return nil, err
	}

	attempts, err := s.repo.CountForOrder(ctx, s.db, in.Order.ID)
	if err != nil {
		return nil, err
	}

	req, merchant, err := BuildAuthorizationRequest(BuildInput{
		AuthorizeInput: in,
		Platform:       s.platform,
		CustomerID:     customerID,
		IdempotencyKey: fmt.Sprintf("order:%s:authorization:%d", in.Order.ID, attempts+1),
	})
	if err != nil {
		return nil, err
	}
	if merchant.Downgraded {
		s.log.Warn("tenant requested merchant of record without a connected account, platform remains merchant",
			zap.String("order_id", in.Order.ID.String()),
			zap.String("tenant_id", in.Tenant.ID.String()),
		)
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.ProcessorTimeout)
	handle, err := s.processor.CreateAuthorization(callCtx, req)
	cancel()
	if err != nil {
		s.obsMetrics.RecordAuthorization(ctx, s.processor.Name(), "failed")
		s.log.Warn("processor rejected authorization",
			zap.String("order_id", in.Order.ID.String()),
			zap.String("order_number", in.Order.OrderNumber),
			zap.Error(err),
		)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.ErrProcessorUnavailable.Wrap(err)
		}
		return nil, domain.ErrAuthorizationFailed.Wrap(err)
	}

	orderID := in.Order.ID
	payment := &domain.Payment{
		ID:                uuid.New(),
		OrderID:           &orderID,
		TenantID:          in.Order.TenantID,
		UserID:            in.Order.UserID,
		Provider:          s.processor.Name(),
		ProviderPaymentID: handle.ID,
		Kind:              domain.KindAuthorization,
		Status:            domain.StatusPending,
		Amount:            in.Order.Total,
		Currency:          req.Currency,
		IdempotencyKey:    req.IdempotencyKey,
		Metadata:          datatypes.NewJSONType(req.Metadata),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, payment)
	})
	if err != nil {
		if dbpkg.IsDuplicateKeyErr(err) {
			existing, findErr := s.repo.FindByHandle(ctx, s.db, payment.Provider, handle.ID)
			if findErr == nil && existing != nil {
				return &domain.AuthorizeResult{Payment: existing, ClientSecret: handle.ClientSecret, Reused: true}, nil
			}
			// A concurrent attempt won the one-live-payment-per-order slot.
			if winner, _ := s.repo.FindActiveForOrder(ctx, s.db, in.Order.ID); winner != nil {
				if res, reuseErr := s.reuse(ctx, winner); reuseErr == nil && res != nil {
					s.releaseOrphan(ctx, handle.ID)
					return res, nil
				}
			}
		}
		// The processor handle is kept: a retry sends the same idempotency
		// key and receives this authorization back.
		s.log.Error("persist payment after authorization",
			zap.String("order_id", in.Order.ID.String()),
			zap.String("provider_payment_id", handle.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.obsMetrics.RecordAuthorization(ctx, payment.Provider, "ok")
	s.log.Info("payment authorized",
		zap.String("order_id", in.Order.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("merchant_of_record", merchant.Label()),
		zap.Bool("transfer", req.Transfer != nil),
	)

	return &domain.AuthorizeResult{Payment: payment, ClientSecret: handle.ClientSecret}, nil
}

// reuseActive returns the order's live payment with a fresh client secret.
func (s *Service) reuseActive(ctx context.Context, in domain.AuthorizeInput) (*domain.AuthorizeResult, error) {
	existing, err := s.repo.FindActiveForOrder(ctx, s.db, in.Order.ID)
	if err != nil || existing == nil {
		return nil, err
	}
	return s.reuse(ctx, existing)
}

// reuse returns existing when its authorization is still open at the
// processor. A processor-cancelled authorization is retired locally and nil
// is returned.
func (s *Service) reuse(ctx context.Context, existing *domain.Payment) (*domain.AuthorizeResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Get().ProcessorTimeout)
	handle, err := s.processor.GetAuthorization(callCtx, existing.ProviderPaymentID)
	cancel()
	if err != nil {
		return nil, domain.ErrProcessorUnavailable.Wrap(err)
	}
	if handle.Status == processorCanceled {
		if err := s.Transition(ctx, existing, domain.StatusCancelled); err != nil {
			return nil, err
		}
		return nil, nil
	}

	s.obsMetrics.RecordAuthorization(ctx, existing.Provider, "reused")
	return &domain.AuthorizeResult{Payment: existing, ClientSecret: handle.ClientSecret, Reused: true}, nil
}

func (s *Service) releaseOrphan(ctx context.Context, handleID string) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Get().ProcessorTimeout)
	defer cancel()
	if err := s.processor.CancelAuthorization(callCtx, handleID); err != nil {
		s.log.Warn("release duplicate authorization", zap.String("provider_payment_id", handleID), zap.Error(err))
	}
}

func (s *Service) EnsureCustomer(ctx context.Context, patient *patientdomain.User) (string, error) {
	if patient == nil {
		return "", patientdomain.ErrUserNotFound
	}
	if patient.ProcessorCustomerID != nil && *patient.ProcessorCustomerID != "" {
		return *patient.ProcessorCustomerID, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Get().ProcessorTimeout)
	customerID, err := s.processor.CreateCustomer(callCtx, domain.CustomerRequest{
		Email: patient.Email,
		Name:  patient.FullName(),
		Phone: patient.Phone,
		Metadata: map[string]string{
			"user_id":   patient.ID.String(),
			"tenant_id": patient.TenantID.String(),
		},
		IdempotencyKey: "customer:" + patient.ID.String(),
	})
	cancel()
	if err != nil {
		s.log.Warn("create processor customer", zap.String("user_id", patient.ID.String()), zap.Error(err))
		return "", domain.ErrCustomerFailed.Wrap(err)
	}

	if err := s.patients.SetProcessorCustomerID(ctx, patient.ID, customerID); err != nil {
		return "", err
	}
	patient.ProcessorCustomerID = &customerID
	return customerID, nil
}

func (s *Service) Record(ctx context.Context, payment *domain.Payment) error {
	if payment == nil || payment.ProviderPaymentID == "" {
		return domain.ErrInvalidAmount
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.Provider == "" {
		payment.Provider = s.processor.Name()
	}
	if payment.Status == "" {
		payment.Status = domain.StatusPending
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, payment)
	})
}

func (s *Service) FindByHandle(ctx context.Context, handle string) (*domain.Payment, error) {
	payment, err := s.repo.FindByHandle(ctx, s.db, s.processor.Name(), handle)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrPaymentNotFound
	}
	return payment, nil
}

// ActiveForOrder returns the order's live payment, or nil when it has none.
func (s *Service) ActiveForOrder(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	return s.repo.FindActiveForOrder(ctx, s.db, orderID)
}

func (s *Service) LatestForSubscription(ctx context.Context, subscriptionID uuid.UUID) (*domain.Payment, error) {
	return s.repo.FindLatestForSubscription(ctx, s.db, subscriptionID)
}

func (s *Service) Transition(ctx context.Context, payment *domain.Payment, to domain.Status) error {
	if payment == nil {
		return domain.ErrPaymentNotFound
	}
	if payment.Status == to {
		return nil
	}
	if !domain.CanTransition(payment.Status, to) {
		return domain.ErrInvalidTransition
	}

	affected, err := s.repo.UpdateStatus(ctx, s.db, payment.ID, to, []domain.Status{payment.Status})
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrInvalidTransition
	}

	s.log.Info("payment status changed",
		zap.String("payment_id", payment.ID.String()),
		zap.String("from_status", string(payment.Status)),
		zap.String("to_status", string(to)),
	)
	payment.Status = to
	return nil
}

func (s *Service) Void(ctx context.Context, payment *domain.Payment) error {
	if payment == nil {
		return domain.ErrPaymentNotFound
	}
	if !payment.Status.Active() {
		return nil
	}
	if !domain.CanTransition(payment.Status, domain.StatusCancelled) {
		return domain.ErrInvalidTransition
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Get().ProcessorTimeout)
	err := s.processor.CancelAuthorization(callCtx, payment.ProviderPaymentID)
	cancel()
	if err != nil {
		s.log.Warn("cancel authorization", zap.String("payment_id", payment.ID.String()), zap.Error(err))
		return domain.ErrProcessorUnavailable.Wrap(err)
	}
	return s.Transition(ctx, payment, domain.StatusCancelled)
}
