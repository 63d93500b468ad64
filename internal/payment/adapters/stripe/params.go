package stripe

import (
	"fmt"
	"strconv"

	stripeapi "github.com/stripe/stripe-go/v83"

	paymentdomain "github.com/smallbiznis/carecheckout/internal/payment/domain"
)

func authorizationParams(req paymentdomain.AuthorizationRequest) *stripeapi.PaymentIntentParams {
	params := &stripeapi.PaymentIntentParams{
		Amount:        stripeapi.Int64(req.Amount),
		Currency:      stripeapi.String(req.Currency),
		CaptureMethod: stripeapi.String(string(req.CaptureMethod)),
		AutomaticPaymentMethods: &stripeapi.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripeapi.Bool(req.AutomaticPaymentMethods.Enabled),
			AllowRedirects: stripeapi.String(req.AutomaticPaymentMethods.AllowRedirects),
		},
	}
	if req.SetupFutureUsage != "" {
		params.SetupFutureUsage = stripeapi.String(req.SetupFutureUsage)
	}
	if req.CustomerID != "" {
		params.Customer = stripeapi.String(req.CustomerID)
	}
	if req.Description != "" {
		params.Description = stripeapi.String(req.Description)
	}
	if req.Transfer != nil {
		params.TransferData = &stripeapi.PaymentIntentTransferDataParams{
			Destination: stripeapi.String(req.Transfer.Destination),
			Amount:      stripeapi.Int64(req.Transfer.Amount),
		}
	}
	if req.OnBehalfOf != "" {
		params.OnBehalfOf = stripeapi.String(req.OnBehalfOf)
	}
	if req.StatementSuffix != "" {
		params.StatementDescriptorSuffix = stripeapi.String(req.StatementSuffix)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	return params
}

func customerParams(req paymentdomain.CustomerRequest) *stripeapi.CustomerParams {
	params := &stripeapi.CustomerParams{
		Email: stripeapi.String(req.Email),
	}
	if req.Name != "" {
		params.Name = stripeapi.String(req.Name)
	}
	if req.Phone != "" {
		params.Phone = stripeapi.String(req.Phone)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	return params
}

func setupParams(req paymentdomain.SetupRequest) *stripeapi.SetupIntentParams {
	params := &stripeapi.SetupIntentParams{
		Customer: stripeapi.String(req.CustomerID),
		Usage:    stripeapi.String(paymentdomain.FutureUsageOffSession),
		AutomaticPaymentMethods: &stripeapi.SetupIntentAutomaticPaymentMethodsParams{
			Enabled:        stripeapi.Bool(true),
			AllowRedirects: stripeapi.String(paymentdomain.AllowRedirectsNever),
		},
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	return params
}

// scheduleParams builds a schedule that starts now and releases into a plain
// subscription after its last phase. A phase's iterations are written as the
// phases[i][iterations] form value of that phase.
func scheduleParams(req paymentdomain.ScheduleRequest) (*stripeapi.SubscriptionScheduleParams, error) {
	if len(req.Phases) == 0 {
		return nil, paymentdomain.ErrInvalidConfig.Wrap(fmt.Errorf("schedule has no phases"))
	}

	params := &stripeapi.SubscriptionScheduleParams{
		Customer:    stripeapi.String(req.CustomerID),
		EndBehavior: stripeapi.String("release"),
	}
	params.AddExtra("start_date", "now")
	if req.PaymentMethodID != "" {
		params.AddExtra("default_settings[default_payment_method]", req.PaymentMethodID)
	}
	for i, phase := range req.Phases {
		params.Phases = append(params.Phases, &stripeapi.SubscriptionSchedulePhaseParams{
			Items: []*stripeapi.SubscriptionSchedulePhaseItemParams{{
				Price:    stripeapi.String(phase.PriceRef),
				Quantity: stripeapi.Int64(1),
			}},
		})
		if phase.Iterations != nil {
			params.AddExtra(fmt.Sprintf("phases[%d][iterations]", i), strconv.FormatInt(*phase.Iterations, 10))
		}
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	return params, nil
}

func subscriptionParams(req paymentdomain.SubscriptionRequest) *stripeapi.SubscriptionParams {
	params := &stripeapi.SubscriptionParams{
		Customer: stripeapi.String(req.CustomerID),
		Items: []*stripeapi.SubscriptionItemsParams{{
			Price: stripeapi.String(req.PriceRef),
		}},
	}
	if req.PaymentMethodID != "" {
		params.DefaultPaymentMethod = stripeapi.String(req.PaymentMethodID)
	}
	if req.TrialEnd != nil {
		params.TrialEnd = stripeapi.Int64(req.TrialEnd.Unix())
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	return params
}
