package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v83/webhook"

	paymentdomain "github.com/smallbiznis/carecheckout/internal/payment/domain"
)

const signatureHeader = "Stripe-Signature"

type intentObject struct {
	ID               string            `json:"id"`
	Amount           int64             `json:"amount"`
	AmountCapturable int64             `json:"amount_capturable"`
	AmountReceived   int64             `json:"amount_received"`
	Currency         string            `json:"currency"`
	Status           string            `json:"status"`
	Customer         string            `json:"customer"`
	PaymentMethod    string            `json:"payment_method"`
	Metadata         map[string]string `json:"metadata"`
}

type subscriptionObject struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

type invoiceObject struct {
	ID           string `json:"id"`
	Subscription string `json:"subscription"`
	Parent       struct {
		SubscriptionDetails struct {
			Subscription string `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
	AmountDue int64             `json:"amount_due"`
	Currency  string            `json:"currency"`
	Metadata  map[string]string `json:"metadata"`
}

// ParseWebhook verifies the Stripe-Signature header and normalises the
// events checkout reconciles. Other event types return ErrEventIgnored.
func (a *Adapter) ParseWebhook(ctx context.Context, payload []byte, headers http.Header) (*paymentdomain.PaymentEvent, error) {
	if a.webhookSecret == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}
	sig := strings.TrimSpace(headers.Get(signatureHeader))
	if sig == "" {
		return nil, paymentdomain.ErrInvalidSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, sig, a.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, paymentdomain.ErrInvalidSignature.Wrap(err)
	}
	if strings.TrimSpace(event.ID) == "" || event.Data == nil {
		return nil, paymentdomain.ErrInvalidEvent
	}

	out := &paymentdomain.PaymentEvent{
		Provider:        providerName,
		ProviderEventID: event.ID,
		RawType:         string(event.Type),
		OccurredAt:      timestamp(event.Created),
		RawPayload:      payload,
	}
	raw := event.Data.Raw

	switch string(event.Type) {
	case "payment_intent.amount_capturable_updated":
		return parseIntent(out, raw, paymentdomain.EventAuthorizationCapturable)
	case "payment_intent.succeeded":
		return parseIntent(out, raw, paymentdomain.EventPaymentSucceeded)
	case "payment_intent.payment_failed":
		return parseIntent(out, raw, paymentdomain.EventPaymentFailed)
	case "payment_intent.canceled":
		return parseIntent(out, raw, paymentdomain.EventPaymentCancelled)
	case "setup_intent.succeeded":
		return parseIntent(out, raw, paymentdomain.EventSetupSucceeded)
	case "customer.subscription.updated":
		return parseSubscription(out, raw, "")
	case "customer.subscription.deleted":
		return parseSubscription(out, raw, paymentdomain.EventSubscriptionCancelled)
	case "invoice.payment_failed":
		return parseInvoice(out, raw)
	default:
		return nil, paymentdomain.ErrEventIgnored
	}
}

func parseIntent(out *paymentdomain.PaymentEvent, raw json.RawMessage, eventType string) (*paymentdomain.PaymentEvent, error) {
	var obj intentObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if obj.ID == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	amount := obj.Amount
	switch eventType {
	case paymentdomain.EventAuthorizationCapturable:
		if obj.AmountCapturable > 0 {
			amount = obj.AmountCapturable
		}
	case paymentdomain.EventPaymentSucceeded:
		if obj.AmountReceived > 0 {
			amount = obj.AmountReceived
		}
	}

	out.Type = eventType
	out.ObjectID = obj.ID
	out.Amount = amount
	out.Currency = strings.ToUpper(obj.Currency)
	out.CustomerID = obj.Customer
	out.PaymentMethodID = obj.PaymentMethod
	out.Metadata = obj.Metadata
	return out, nil
}

func parseSubscription(out *paymentdomain.PaymentEvent, raw json.RawMessage, eventType string) (*paymentdomain.PaymentEvent, error) {
	var obj subscriptionObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if obj.ID == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	if eventType == "" {
		switch obj.Status {
		case "active", "trialing":
			eventType = paymentdomain.EventSubscriptionActive
		case "past_due", "unpaid":
			eventType = paymentdomain.EventSubscriptionPastDue
		case "canceled", "incomplete_expired":
			eventType = paymentdomain.EventSubscriptionCancelled
		default:
			return nil, paymentdomain.ErrEventIgnored
		}
	}

	out.Type = eventType
	out.ObjectID = obj.ID
	out.Metadata = obj.Metadata
	return out, nil
}

func parseInvoice(out *paymentdomain.PaymentEvent, raw json.RawMessage) (*paymentdomain.PaymentEvent, error) {
	var obj invoiceObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	subscriptionID := obj.Subscription
	if subscriptionID == "" {
		subscriptionID = obj.Parent.SubscriptionDetails.Subscription
	}
	if subscriptionID == "" {
		// One-off invoices are not ours.
		return nil, paymentdomain.ErrEventIgnored
	}

	out.Type = paymentdomain.EventSubscriptionPastDue
	out.ObjectID = subscriptionID
	out.Amount = obj.AmountDue
	out.Currency = strings.ToUpper(obj.Currency)
	out.Metadata = obj.Metadata
	return out, nil
}

func timestamp(sec int64) time.Time {
	if sec == 0 {
		return time.Now().UTC()
	}
	return time.Unix(sec, 0).UTC()
}
