// Package stripe implements the processor contract on Stripe's Payment
// Intents, Setup Intents and Subscription Schedules APIs.
package stripe

import (
	"context"
	"errors"
	"strings"
	"time"

	stripeapi "github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/customer"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/paymentmethod"
	"github.com/stripe/stripe-go/v83/setupintent"
	"github.com/stripe/stripe-go/v83/subscription"
	"github.com/stripe/stripe-go/v83/subscriptionschedule"

	paymentdomain "github.com/smallbiznis/carecheckout/internal/payment/domain"
)

const providerName = "stripe"

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return providerName
}

func (f *Factory) NewProcessor(cfg paymentdomain.AdapterConfig) (paymentdomain.Processor, error) {
	key := strings.TrimSpace(cfg.SecretKey)
	if key == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}
	stripeapi.Key = key

	return &Adapter{webhookSecret: strings.TrimSpace(cfg.WebhookSecret)}, nil
}

type Adapter struct {
	webhookSecret string
}

func (a *Adapter) Name() string {
	return providerName
}

func (a *Adapter) CreateCustomer(ctx context.Context, req paymentdomain.CustomerRequest) (string, error) {
	params := customerParams(req)
	params.Context = ctx
	c, err := customer.New(params)
	if err != nil {
		return "", classify(err)
	}
	return c.ID, nil
}

func (a *Adapter) CreateAuthorization(ctx context.Context, req paymentdomain.AuthorizationRequest) (*paymentdomain.AuthorizationHandle, error) {
	params := authorizationParams(req)
	params.Context = ctx
	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, classify(err)
	}
	return toHandle(pi), nil
}

func (a *Adapter) GetAuthorization(ctx context.Context, id string) (*paymentdomain.AuthorizationHandle, error) {
	params := &stripeapi.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(id, params)
	if err != nil {
		return nil, classify(err)
	}
	return toHandle(pi), nil
}

func (a *Adapter) CancelAuthorization(ctx context.Context, id string) error {
	params := &stripeapi.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := paymentintent.Cancel(id, params); err != nil {
		var stripeErr *stripeapi.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripeapi.ErrorCodePaymentIntentUnexpectedState {
			// Already captured or cancelled.
			return nil
		}
		return classify(err)
	}
	return nil
}

func (a *Adapter) CreateSetupIntent(ctx context.Context, req paymentdomain.SetupRequest) (*paymentdomain.SetupHandle, error) {
	params := setupParams(req)
	params.Context = ctx
	si, err := setupintent.New(params)
	if err != nil {
		return nil, classify(err)
	}
	return &paymentdomain.SetupHandle{ID: si.ID, ClientSecret: si.ClientSecret}, nil
}

func (a *Adapter) AttachPaymentMethod(ctx context.Context, customerID, methodID string) error {
	params := &stripeapi.PaymentMethodAttachParams{Customer: stripeapi.String(customerID)}
	params.Context = ctx
	if _, err := paymentmethod.Attach(methodID, params); err != nil {
		var stripeErr *stripeapi.Error
		if errors.As(err, &stripeErr) && strings.Contains(stripeErr.Msg, "already been attached") {
			return nil
		}
		return classify(err)
	}
	return nil
}

func (a *Adapter) SetDefaultPaymentMethod(ctx context.Context, customerID, methodID string) error {
	params := &stripeapi.CustomerParams{
		InvoiceSettings: &stripeapi.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripeapi.String(methodID),
		},
	}
	params.Context = ctx
	if _, err := customer.Update(customerID, params); err != nil {
		return classify(err)
	}
	return nil
}

func (a *Adapter) CreateBillingSchedule(ctx context.Context, req paymentdomain.ScheduleRequest) (*paymentdomain.ScheduleResult, error) {
	params, err := scheduleParams(req)
	if err != nil {
		return nil, err
	}
	params.Context = ctx
	sched, err := subscriptionschedule.New(params)
	if err != nil {
		return nil, classify(err)
	}

	result := &paymentdomain.ScheduleResult{
		ScheduleID: sched.ID,
		Status:     string(sched.Status),
	}
	if sched.Subscription != nil {
		result.SubscriptionID = sched.Subscription.ID
	}
	if sched.CurrentPhase != nil {
		result.CurrentPeriodStart = unix(sched.CurrentPhase.StartDate)
		result.CurrentPeriodEnd = unix(sched.CurrentPhase.EndDate)
	}
	return result, nil
}

func (a *Adapter) CreateSubscription(ctx context.Context, req paymentdomain.SubscriptionRequest) (*paymentdomain.ScheduleResult, error) {
	params := subscriptionParams(req)
	params.Context = ctx
	sub, err := subscription.New(params)
	if err != nil {
		return nil, classify(err)
	}
	return &paymentdomain.ScheduleResult{
		SubscriptionID:     sub.ID,
		Status:             string(sub.Status),
		CurrentPeriodStart: unix(sub.StartDate),
	}, nil
}

func (a *Adapter) CancelSubscription(ctx context.Context, subscriptionID string) error {
	params := &stripeapi.SubscriptionCancelParams{}
	params.Context = ctx
	if _, err := subscription.Cancel(subscriptionID, params); err != nil {
		var stripeErr *stripeapi.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripeapi.ErrorCodeResourceMissing {
			return nil
		}
		return classify(err)
	}
	return nil
}

func toHandle(pi *stripeapi.PaymentIntent) *paymentdomain.AuthorizationHandle {
	return &paymentdomain.AuthorizationHandle{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}
}

// classify keeps the Stripe message on the error chain for logs while the
// caller only ever surfaces the domain code.
func classify(err error) error {
	var stripeErr *stripeapi.Error
	if !errors.As(err, &stripeErr) {
		return paymentdomain.ErrProcessorUnavailable.Wrap(err)
	}
	if stripeErr.HTTPStatusCode >= 500 || stripeErr.Type == stripeapi.ErrorTypeAPI {
		return paymentdomain.ErrProcessorUnavailable.Wrap(err)
	}
	return paymentdomain.ErrAuthorizationFailed.Wrap(err)
}

func unix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
