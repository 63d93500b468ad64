package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/smallbiznis/carecheckout/internal/clock"
	"github.com/smallbiznis/carecheckout/internal/config"
	obsmetrics "github.com/smallbiznis/carecheckout/internal/observability/metrics"
	patientdomain "github.com/smallbiznis/carecheckout/internal/patient/domain"
	paymentdomain "github.com/smallbiznis/carecheckout/internal/payment/domain"
	paymentservice "github.com/smallbiznis/carecheckout/internal/payment/service"
	subscriptiondomain "github.com/smallbiznis/carecheckout/internal/subscription/domain"
	"github.com/smallbiznis/carecheckout/internal/validation"
	dbpkg "github.com/smallbiznis/carecheckout/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       subscriptiondomain.Repository
	Payments   paymentdomain.Service
	Patients   patientdomain.Service
	Config     *config.CheckoutConfigHolder
	Clock      clock.Clock
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       subscriptiondomain.Repository
	payments   paymentdomain.Service
	patients   patientdomain.Service
	cfg        *config.CheckoutConfigHolder
	clock      clock.Clock
	obsMetrics *obsmetrics.Metrics
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	svc := &Service{
		db:         p.DB,
		log:        p.Log.Named("subscription.service"),
		repo:       p.Repo,
		payments:   p.Payments,
		patients:   p.Patients,
		cfg:        p.Config,
		clock:      p.Clock,
		obsMetrics: p.ObsMetrics,
	}
	if svc.clock == nil {
		svc.clock = clock.SystemClock{}
	}
	return svc
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*subscriptiondomain.Subscription, error) {
	subscription, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if subscription == nil {
		return nil, subscriptiondomain.ErrSubscriptionNotFound
	}
	return subscription, nil
}

func (s *Service) CreatePaymentIntent(ctx context.Context, req subscriptiondomain.CreateIntentRequest) (*subscriptiondomain.IntentResult, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if req.TenantID == uuid.Nil || req.UserID == uuid.Nil {
		return nil, subscriptiondomain.ErrInvalidTenant
	}

	plan, err := s.repo.FindPlan(ctx, s.db, req.PlanType)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, subscriptiondomain.ErrPlanNotFound
	}

	live, err := s.repo.FindLiveBrand(ctx, s.db, req.TenantID)
	if err != nil {
		return nil, err
	}
	if live != nil {
		return nil, subscriptiondomain.ErrAlreadySubscribed
	}

	payer, err := s.patients.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if payer.TenantID != req.TenantID {
		return nil, subscriptiondomain.ErrInvalidTenant
	}
	customerID, err := s.payments.EnsureCustomer(ctx, payer)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	phases := subscriptiondomain.BuildPhases(*plan)
	subscription := &subscriptiondomain.Subscription{
		ID:                  uuid.New(),
		TenantID:            req.TenantID,
		UserID:              req.UserID,
		Scope:               subscriptiondomain.ScopeBrand,
		PlanType:            plan.PlanType,
		PriceRef:            plan.PriceRef,
		Status:              subscriptiondomain.StatusPending,
		ProcessorCustomerID: customerID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	subscription.Schedule = datatypes.NewJSONType(subscriptiondomain.Describe(*plan, phases))

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, subscription)
	}); err != nil {
		return nil, err
	}

	metadata := map[string]string{
		"subscription_id": subscription.ID.String(),
		"tenant_id":       req.TenantID.String(),
		"plan_type":       plan.PlanType,
	}
	result := &subscriptiondomain.IntentResult{
		Subscription: subscription,
		Amount:       plan.FirstCharge(),
		Currency:     plan.Currency,
	}

	processor := s.payments.Processor()
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Get().ProcessorTimeout)
	defer cancel()

	if plan.HasIntro() {
		handle, err := processor.CreateSetupIntent(callCtx, paymentdomain.SetupRequest{
			CustomerID:     customerID,
			Metadata:       metadata,
			IdempotencyKey: "subscription:" + subscription.ID.String() + ":setup",
		})
		if err != nil {
			return nil, s.abandon(ctx, subscription, err)
		}
		subscription.SetupIntentID = &handle.ID
		subscription.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateProcessorRefs(ctx, s.db, subscription); err != nil {
			return nil, err
		}
		result.Mode = subscriptiondomain.IntentSetup
		result.IntentID = handle.ID
		result.ClientSecret = handle.ClientSecret
		return result, nil
	}

	handle, err := processor.CreateAuthorization(callCtx, paymentdomain.AuthorizationRequest{
		Amount:        paymentservice.MinorUnits(plan.Amount),
		Currency:      plan.Currency,
		CaptureMethod: paymentdomain.CaptureAutomatic,
		AutomaticPaymentMethods: paymentdomain.AutomaticPaymentMethods{
			Enabled:        true,
			AllowRedirects: paymentdomain.AllowRedirectsNever,
		},
		SetupFutureUsage: paymentdomain.FutureUsageOffSession,
		CustomerID:       customerID,
		Description:      plan.Name,
		Metadata:         metadata,
		IdempotencyKey:   "subscription:" + subscription.ID.String() + ":charge",
	})
	if err != nil {
		return nil, s.abandon(ctx, subscription, err)
	}

	subscriptionID := subscription.ID
	if err := s.payments.Record(ctx, &paymentdomain.Payment{
		SubscriptionID:    &subscriptionID,
		TenantID:          req.TenantID,
		UserID:            req.UserID,
		ProviderPaymentID: handle.ID,
		Kind:              paymentdomain.KindAuthorization,
		Amount:            plan.Amount,
		Currency:          plan.Currency,
		IdempotencyKey:    "subscription:" + subscription.ID.String() + ":charge",
	}); err != nil {
		return nil, err
	}

	result.Mode = subscriptiondomain.IntentPayment
	result.IntentID = handle.ID
	result.ClientSecret = handle.ClientSecret
	return result, nil
}

// abandon cancels a pending subscription whose processor intent could not be
// created and returns the classified processor error.
func (s *Service) abandon(ctx context.Context, subscription *subscriptiondomain.Subscription, cause error) error {
	s.log.Warn("subscription intent failed",
		zap.String("subscription_id", subscription.ID.String()),
		zap.String("plan_type", subscription.PlanType),
		zap.Error(cause),
	)
	if err := s.transition(ctx, subscription, subscriptiondomain.StatusCancelled); err != nil {
		s.log.Error("cancel abandoned subscription", zap.String("subscription_id", subscription.ID.String()), zap.Error(err))
	}
	return subscriptiondomain.ErrIntentFailed.Wrap(cause)
}

func (s *Service) ActivateSchedule(ctx context.Context, req subscriptiondomain.ActivateRequest) (*subscriptiondomain.Subscription, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	subscription, err := s.Get(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if subscription.TenantID != req.TenantID || subscription.Scope != subscriptiondomain.ScopeBrand {
		return nil, subscriptiondomain.ErrSubscriptionNotFound
	}
	if subscription.Status == subscriptiondomain.StatusActive {
		return subscription, nil
	}
	if subscription.Status != subscriptiondomain.StatusPending {
		return nil, subscriptiondomain.ErrInvalidTransition
	}

	plan, err := s.repo.FindPlan(ctx, s.db, subscription.PlanType)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, subscriptiondomain.ErrPlanNotFound
	}

	live, err := s.repo.FindLiveBrand(ctx, s.db, subscription.TenantID)
	if err != nil {
		return nil, err
	}
	if live != nil && live.ID != subscription.ID {
		return nil, subscriptiondomain.ErrAlreadySubscribed
	}
	if !plan.HasIntro() {
		if err := s.requirePaidCharge(ctx, subscription); err != nil {
			return nil, err
		}
	}

	if err := s.attachMethod(ctx, subscription.ProcessorCustomerID, req.PaymentMethodID); err != nil {
		return nil, err
	}

	processor := s.payments.Processor()
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Get().ProcessorTimeout)
	defer cancel()

	var result *paymentdomain.ScheduleResult
	metadata := map[string]string{
		"subscription_id": subscription.ID.String(),
		"tenant_id":       subscription.TenantID.String(),
		"plan_type":       subscription.PlanType,
	}
	if plan.HasIntro() {
		phases := subscriptiondomain.BuildPhases(*plan)
		result, err = processor.CreateBillingSchedule(callCtx, paymentdomain.ScheduleRequest{
			CustomerID:      subscription.ProcessorCustomerID,
			PaymentMethodID: req.PaymentMethodID,
			Phases:          phases,
			Metadata:        metadata,
			IdempotencyKey:  "subscription:" + subscription.ID.String() + ":schedule",
		})
	} else {
		// The first period was charged when the intent was created.
		trialEnd := s.clock.Now().AddDate(0, 1, 0)
		result, err = processor.CreateSubscription(callCtx, paymentdomain.SubscriptionRequest{
			CustomerID:      subscription.ProcessorCustomerID,
			PaymentMethodID: req.PaymentMethodID,
			PriceRef:        plan.PriceRef,
			TrialEnd:        &trialEnd,
			Metadata:        metadata,
			IdempotencyKey:  "subscription:" + subscription.ID.String() + ":subscription",
		})
	}
	if err != nil {
		s.log.Warn("create processor schedule", zap.String("subscription_id", subscription.ID.String()), zap.Error(err))
		return nil, subscriptiondomain.ErrScheduleFailed.Wrap(err)
	}
	if result != nil {
		descriptor := subscriptiondomain.Describe(*plan, subscriptiondomain.BuildPhases(*plan))
		descriptor.ScheduleID = result.ScheduleID
		subscription.Schedule = datatypes.NewJSONType(descriptor)
	}

	if err := s.activate(ctx, subscription, result); err != nil {
		return nil, err
	}
	return subscription, nil
}

// requirePaidCharge checks that the first period charged at intent creation
// went through at the processor.
func (s *Service) requirePaidCharge(ctx context.Context, subscription *subscriptiondomain.Subscription) error {
	payment, err := s.payments.LatestForSubscription(ctx, subscription.ID)
	if err != nil {
		return err
	}
	if payment == nil || payment.Status != paymentdomain.StatusSucceeded {
		status := ""
		if payment != nil {
			status = string(payment.Status)
		}
		s.log.Warn("activation before first charge succeeded",
			zap.String("subscription_id", subscription.ID.String()),
			zap.String("payment_status", status),
		)
		return subscriptiondomain.ErrPaymentNotConfirmed
	}
	return nil
}

func (s *Service) attachMethod(ctx context.Context, customerID, methodID string) error {
	if customerID == "" || methodID == "" {
		return subscriptiondomain.ErrInvalidPaymentMethod
	}
	processor := s.payments.Processor()
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Get().ProcessorTimeout)
	defer cancel()

	if err := processor.AttachPaymentMethod(callCtx, customerID, methodID); err != nil {
		return subscriptiondomain.ErrScheduleFailed.Wrap(err)
	}
	if err := processor.SetDefaultPaymentMethod(callCtx, customerID, methodID); err != nil {
		return subscriptiondomain.ErrScheduleFailed.Wrap(err)
	}
	return nil
}

// activate stores the processor handles first and only then marks the
// subscription active.
func (s *Service) activate(ctx context.Context, subscription *subscriptiondomain.Subscription, result *paymentdomain.ScheduleResult) error {
	if result == nil || result.SubscriptionID == "" {
		return subscriptiondomain.ErrScheduleFailed
	}

	handle := result.SubscriptionID
	subscription.ProcessorSubscriptionID = &handle
	if result.ScheduleID != "" {
		scheduleID := result.ScheduleID
		subscription.ProcessorScheduleID = &scheduleID
	}
	if !result.CurrentPeriodStart.IsZero() {
		start := result.CurrentPeriodStart
		subscription.CurrentPeriodStart = &start
	}
	if !result.CurrentPeriodEnd.IsZero() {
		end := result.CurrentPeriodEnd
		subscription.CurrentPeriodEnd = &end
	}
	subscription.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateProcessorRefs(ctx, s.db, subscription); err != nil {
		return err
	}
	return s.transition(ctx, subscription, subscriptiondomain.StatusActive)
}

func (s *Service) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*subscriptiondomain.Subscription, error) {
	subscription, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if subscription.TenantID != tenantID {
		return nil, subscriptiondomain.ErrSubscriptionNotFound
	}
	if subscription.Status == subscriptiondomain.StatusCancelled {
		return subscription, nil
	}
	if !subscriptiondomain.CanTransition(subscription.Status, subscriptiondomain.StatusCancelled) {
		return nil, subscriptiondomain.ErrInvalidTransition
	}

	if subscription.ProcessorSubscriptionID != nil {
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.Get().ProcessorTimeout)
		err := s.payments.Processor().CancelSubscription(callCtx, *subscription.ProcessorSubscriptionID)
		cancel()
		if err != nil {
			s.log.Warn("processor cancellation failed, cancelling locally",
				zap.String("subscription_id", subscription.ID.String()),
				zap.String("processor_subscription_id", *subscription.ProcessorSubscriptionID),
				zap.Error(err),
			)
		}
	}

	if err := s.transition(ctx, subscription, subscriptiondomain.StatusCancelled); err != nil {
		return nil, err
	}
	return subscription, nil
}

func (s *Service) CreateForOrder(ctx context.Context, in subscriptiondomain.OrderSubscriptionInput) (*subscriptiondomain.Subscription, error) {
	existing, err := s.repo.FindByOrderID(ctx, s.db, in.OrderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := s.clock.Now()
	orderID := in.OrderID
	subscription := &subscriptiondomain.Subscription{
		ID:        uuid.New(),
		TenantID:  in.TenantID,
		UserID:    in.UserID,
		OrderID:   &orderID,
		Scope:     subscriptiondomain.ScopeOrder,
		PlanType:  in.PlanType,
		PriceRef:  in.PriceRef,
		Status:    subscriptiondomain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	subscription.Schedule = datatypes.NewJSONType(subscriptiondomain.ScheduleDescriptor{
		Phases: []subscriptiondomain.PhaseDescriptor{{PriceRef: in.PriceRef}},
	})

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, subscription)
	}); err != nil {
		return nil, err
	}
	return subscription, nil
}

func (s *Service) ActivateForOrder(ctx context.Context, orderID uuid.UUID, customerID, paymentMethodID string) (*subscriptiondomain.Subscription, error) {
	subscription, err := s.repo.FindByOrderID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if subscription == nil {
		return nil, nil
	}
	if subscription.Status != subscriptiondomain.StatusPending {
		return subscription, nil
	}
	if customerID == "" || paymentMethodID == "" {
		return nil, subscriptiondomain.ErrInvalidPaymentMethod
	}

	subscription.ProcessorCustomerID = customerID
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Get().ProcessorTimeout)
	defer cancel()

	// The order's authorization pays for the first period.
	trialEnd := s.clock.Now().AddDate(0, 1, 0)
	result, err := s.payments.Processor().CreateSubscription(callCtx, paymentdomain.SubscriptionRequest{
		CustomerID:      customerID,
		PaymentMethodID: paymentMethodID,
		PriceRef:        subscription.PriceRef,
		TrialEnd:        &trialEnd,
		Metadata: map[string]string{
			"subscription_id": subscription.ID.String(),
			"order_id":        orderID.String(),
			"tenant_id":       subscription.TenantID.String(),
		},
		IdempotencyKey: "subscription:" + subscription.ID.String() + ":subscription",
	})
	if err != nil {
		s.log.Warn("create order subscription", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, subscriptiondomain.ErrScheduleFailed.Wrap(err)
	}

	if err := s.activate(ctx, subscription, result); err != nil {
		return nil, err
	}
	return subscription, nil
}

func (s *Service) ApplyProcessorStatus(ctx context.Context, handle string, to subscriptiondomain.Status) error {
	subscription, err := s.repo.FindByProcessorHandle(ctx, s.db, handle)
	if err != nil {
		return err
	}
	if subscription == nil {
		return subscriptiondomain.ErrSubscriptionNotFound
	}
	return s.transition(ctx, subscription, to)
}

func (s *Service) MarkPastDue(ctx context.Context, handle string) error {
	return s.ApplyProcessorStatus(ctx, handle, subscriptiondomain.StatusPastDue)
}

func (s *Service) transition(ctx context.Context, subscription *subscriptiondomain.Subscription, to subscriptiondomain.Status) error {
	if subscription.Status == to {
		return nil
	}
	if !subscriptiondomain.CanTransition(subscription.Status, to) {
		return subscriptiondomain.ErrInvalidTransition
	}

	now := s.clock.Now()
	affected, err := s.repo.UpdateStatus(ctx, s.db, subscription.ID, subscription.Status, to, now)
	if err != nil {
		if dbpkg.IsUniqueViolationOn(err, "live_brand") {
			return subscriptiondomain.ErrAlreadySubscribed
		}
		return err
	}
	if affected == 0 {
		return subscriptiondomain.ErrInvalidTransition
	}

	from := subscription.Status
	subscription.Status = to
	subscription.UpdatedAt = now
	switch to {
	case subscriptiondomain.StatusActive:
		if subscription.ActivatedAt == nil {
			subscription.ActivatedAt = &now
		}
	case subscriptiondomain.StatusCancelled:
		subscription.CancelledAt = &now
	}

	s.obsMetrics.RecordSubscriptionTransition(ctx, string(from), string(to))
	s.log.Info("subscription status changed",
		zap.String("subscription_id", subscription.ID.String()),
		zap.String("from_status", string(from)),
		zap.String("to_status", string(to)),
	)
	return nil
}
