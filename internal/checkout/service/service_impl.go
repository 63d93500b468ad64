package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/smallbiznis/carecheckout/internal/checkout/domain"
	"github.com/smallbiznis/carecheckout/internal/config"
	feedomain "github.com/smallbiznis/carecheckout/internal/fee/domain"
	obsmetrics "github.com/smallbiznis/carecheckout/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/carecheckout/internal/order/domain"
	patientdomain "github.com/smallbiznis/carecheckout/internal/patient/domain"
	paymentdomain "github.com/smallbiznis/carecheckout/internal/payment/domain"
	subscriptiondomain "github.com/smallbiznis/carecheckout/internal/subscription/domain"
	visitfeedomain "github.com/smallbiznis/carecheckout/internal/visitfee/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log           *zap.Logger
	Orders        orderdomain.Service
	Fees          feedomain.Service
	VisitFees     visitfeedomain.Service
	Payments      paymentdomain.Service
	Patients      patientdomain.Service
	Subscriptions subscriptiondomain.Service
	Config        *config.CheckoutConfigHolder
	AppConfig     config.Config
	ObsMetrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log           *zap.Logger
	orders        orderdomain.Service
	fees          feedomain.Service
	visitFees     visitfeedomain.Service
	payments      paymentdomain.Service
	patients      patientdomain.Service
	subscriptions subscriptiondomain.Service
	cfg           *config.CheckoutConfigHolder
	currency      string
	obsMetrics    *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	currency := strings.ToUpper(strings.TrimSpace(p.AppConfig.Platform.Currency))
	if currency == "" {
		currency = "USD"
	}
	return &Service{
		log:           p.Log.Named("checkout.service"),
		orders:        p.Orders,
		fees:          p.Fees,
		visitFees:     p.VisitFees,
		payments:      p.Payments,
		patients:      p.Patients,
		subscriptions: p.Subscriptions,
		cfg:           p.Config,
		currency:      currency,
		obsMetrics:    p.ObsMetrics,
	}
}

func (s *Service) Checkout(ctx context.Context, req orderdomain.CheckoutRequest) (*domain.Result, error) {
	res, err := s.checkout(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.obsMetrics.RecordCheckout(ctx, string(req.Kind), outcome)
	return res, err
}

func (s *Service) checkout(ctx context.Context, req orderdomain.CheckoutRequest) (*domain.Result, error) {
	draft, err := s.orders.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	visit := s.visitFees.Resolve(ctx, visitfeedomain.ResolveRequest{
		State:           draft.PatientState,
		QuestionnaireID: draft.QuestionnaireID,
		TenantID:        draft.Tenant.ID,
	})

	// Fee configuration is checked here so a missing row fails before any
	// write.
	split, err := s.fees.ComputeSplit(ctx, draft.Tenant.ID, draft.SplitInput(visit.Amount))
	if err != nil {
		return nil, err
	}

	order, reused, err := s.orders.Assemble(ctx, orderdomain.AssembleInput{
		Draft:    draft,
		Visit:    visit,
		Split:    split,
		Currency: s.currency,
	})
	if err != nil {
		return nil, err
	}
	if reused {
		// A retried checkout is charged and reported at the prices the order
		// was written with.
		split = order.PersistedSplit()
		visit = order.Visit()
	}

	result := &domain.Result{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Split:       split,
		VisitType:   visit.VisitType,
		VisitFee:    visit.Amount,
		Total:       order.Total,
		Reused:      reused,
	}

	if order.Total.IsPositive() {
		patient, err := s.patients.Get(ctx, order.UserID)
		if err != nil {
			return nil, err
		}
		auth, err := s.payments.Authorize(ctx, paymentdomain.AuthorizeInput{
			Order:         order,
			Split:         split,
			Tenant:        draft.Tenant,
			Patient:       patient,
			UseOnBehalfOf: req.UseOnBehalfOf,
		})
		if err != nil {
			s.log.Warn("checkout authorization failed, order left pending",
				zap.String("order_id", order.ID.String()),
				zap.String("order_number", order.OrderNumber),
				zap.Error(err),
			)
			return nil, err
		}
		paymentID := auth.Payment.ID
		result.PaymentID = &paymentID
		result.ClientSecret = auth.ClientSecret
		result.Reused = result.Reused || auth.Reused
	} else if order.Status == orderdomain.StatusPending {
		if err := s.orders.Transition(ctx, order.ID, orderdomain.StatusPaid); err != nil {
			return nil, err
		}
	}

	if draft.RecurringPriceRef != nil && *draft.RecurringPriceRef != "" {
		subscription, err := s.subscriptions.CreateForOrder(ctx, subscriptiondomain.OrderSubscriptionInput{
			OrderID:  order.ID,
			TenantID: order.TenantID,
			UserID:   order.UserID,
			PriceRef: *draft.RecurringPriceRef,
			PlanType: draft.PlanType,
		})
		if err != nil {
			return nil, err
		}
		subscriptionID := subscription.ID
		result.SubscriptionID = &subscriptionID
	}

	s.log.Info("checkout completed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("kind", string(order.Kind)),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Bool("reused", result.Reused),
	)
	return result, nil
}

func (s *Service) CancelOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*orderdomain.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.TenantID != tenantID {
		return nil, orderdomain.ErrOrderNotFound
	}
	if order.Status == orderdomain.StatusCancelled {
		return order, nil
	}
	if !orderdomain.CanTransition(order.Status, orderdomain.StatusCancelled) {
		return nil, domain.ErrOrderNotCancellable
	}

	payment, err := s.payments.ActiveForOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if payment != nil {
		if payment.Status == paymentdomain.StatusSucceeded {
			return nil, domain.ErrOrderNotCancellable
		}
		if err := s.payments.Void(ctx, payment); err != nil {
			return nil, err
		}
	}

	if err := s.orders.Transition(ctx, order.ID, orderdomain.StatusCancelled); err != nil {
		return nil, err
	}
	order.Status = orderdomain.StatusCancelled
	return order, nil
}

func (s *Service) ListUnpaid(ctx context.Context, limit int) ([]orderdomain.Order, error) {
	return s.orders.ListUnpaidOrders(ctx, s.cfg.Get().UnpaidOrderGrace, limit)
}
