package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paymentdomain "github.com/smallbiznis/carecheckout/internal/payment/domain"
)

const testSecret = "whsec_test"

func TestFactoryRequiresSecretKey(t *testing.T) {
	_, err := NewFactory().NewProcessor(paymentdomain.AdapterConfig{})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidConfig)
}

func TestAuthorizationParams(t *testing.T) {
	params := authorizationParams(paymentdomain.AuthorizationRequest{
		Amount:        10000,
		Currency:      "usd",
		CaptureMethod: paymentdomain.CaptureManual,
		AutomaticPaymentMethods: paymentdomain.AutomaticPaymentMethods{
			Enabled:        true,
			AllowRedirects: paymentdomain.AllowRedirectsNever,
		},
		SetupFutureUsage: paymentdomain.FutureUsageOffSession,
		Transfer:         &paymentdomain.TransferInstruction{Destination: "acct_1", Amount: 7700},
		OnBehalfOf:       "acct_1",
		StatementSuffix:  "GLOW CLINIC",
		Metadata:         map[string]string{"order_id": "o-1"},
		IdempotencyKey:   "order:o-1:authorization:1",
	})

	assert.Equal(t, int64(10000), *params.Amount)
	assert.Equal(t, "manual", *params.CaptureMethod)
	assert.True(t, *params.AutomaticPaymentMethods.Enabled)
	assert.Equal(t, "never", *params.AutomaticPaymentMethods.AllowRedirects)
	assert.Equal(t, "off_session", *params.SetupFutureUsage)
	assert.Equal(t, "acct_1", *params.TransferData.Destination)
	assert.Equal(t, int64(7700), *params.TransferData.Amount)
	assert.Equal(t, "acct_1", *params.OnBehalfOf)
	assert.Equal(t, "GLOW CLINIC", *params.StatementDescriptorSuffix)
	assert.Equal(t, "o-1", params.Metadata["order_id"])
	assert.Equal(t, "order:o-1:authorization:1", *params.IdempotencyKey)
}

func TestAuthorizationParamsWithoutTransfer(t *testing.T) {
	params := authorizationParams(paymentdomain.AuthorizationRequest{Amount: 500, Currency: "usd"})
	assert.Nil(t, params.TransferData)
	assert.Nil(t, params.OnBehalfOf)
	assert.Nil(t, params.StatementDescriptorSuffix)
}

func TestScheduleParamsPutsIterationsOnIntroPhase(t *testing.T) {
	three := int64(3)
	params, err := scheduleParams(paymentdomain.ScheduleRequest{
		CustomerID:      "cus_1",
		PaymentMethodID: "pm_1",
		Phases: []paymentdomain.Phase{
			{PriceRef: "price_intro", Iterations: &three},
			{PriceRef: "price_regular"},
		},
	})
	require.NoError(t, err)
	require.Len(t, params.Phases, 2)

	assert.Equal(t, "price_intro", *params.Phases[0].Items[0].Price)
	assert.Equal(t, "price_regular", *params.Phases[1].Items[0].Price)
	assert.Equal(t, "3", params.Extra.Get("phases[0][iterations]"))
	assert.Empty(t, params.Extra.Get("phases[1][iterations]"))
	assert.Equal(t, "now", params.Extra.Get("start_date"))
	assert.Equal(t, "pm_1", params.Extra.Get("default_settings[default_payment_method]"))
}

func TestScheduleParamsRejectsEmptyPhases(t *testing.T) {
	_, err := scheduleParams(paymentdomain.ScheduleRequest{CustomerID: "cus_1"})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidConfig)
}

func TestParseWebhookVerifiesSignature(t *testing.T) {
	adapter := &Adapter{webhookSecret: testSecret}
	payload := eventPayload(t, "payment_intent.succeeded", map[string]any{"id": "pi_1", "amount": 2500, "currency": "usd"})

	headers := http.Header{}
	headers.Set(signatureHeader, buildStripeSignatureHeader("wrong", payload, time.Now().Unix()))
	_, err := adapter.ParseWebhook(context.Background(), payload, headers)
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidSignature)

	_, err = adapter.ParseWebhook(context.Background(), payload, http.Header{})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidSignature)
}

func TestParseWebhookEvents(t *testing.T) {
	tests := []struct {
		name     string
		rawType  string
		object   map[string]any
		wantType string
		objectID string
		amount   int64
	}{{
		name:     "capturable",
		rawType:  "payment_intent.amount_capturable_updated",
		object:   map[string]any{"id": "pi_1", "amount": 10000, "amount_capturable": 10000, "currency": "usd", "metadata": map[string]any{"order_id": "o-1"}},
		wantType: paymentdomain.EventAuthorizationCapturable,
		objectID: "pi_1",
		amount:   10000,
	}, {
		name:     "succeeded",
		rawType:  "payment_intent.succeeded",
		object:   map[string]any{"id": "pi_2", "amount": 10000, "amount_received": 9000, "currency": "usd"},
		wantType: paymentdomain.EventPaymentSucceeded,
		objectID: "pi_2",
		amount:   9000,
	}, {
		name:     "failed",
		rawType:  "payment_intent.payment_failed",
		object:   map[string]any{"id": "pi_3", "amount": 500, "currency": "usd"},
		wantType: paymentdomain.EventPaymentFailed,
		objectID: "pi_3",
		amount:   500,
	}, {
		name:     "setup",
		rawType:  "setup_intent.succeeded",
		object:   map[string]any{"id": "seti_1", "customer": "cus_1", "payment_method": "pm_1"},
		wantType: paymentdomain.EventSetupSucceeded,
		objectID: "seti_1",
	}, {
		name:     "subscription past due",
		rawType:  "customer.subscription.updated",
		object:   map[string]any{"id": "sub_1", "status": "past_due"},
		wantType: paymentdomain.EventSubscriptionPastDue,
		objectID: "sub_1",
	}, {
		name:     "subscription deleted",
		rawType:  "customer.subscription.deleted",
		object:   map[string]any{"id": "sub_2", "status": "canceled"},
		wantType: paymentdomain.EventSubscriptionCancelled,
		objectID: "sub_2",
	}, {
		name:     "invoice failed",
		rawType:  "invoice.payment_failed",
		object:   map[string]any{"id": "in_1", "amount_due": 4900, "currency": "usd", "parent": map[string]any{"subscription_details": map[string]any{"subscription": "sub_3"}}},
		wantType: paymentdomain.EventSubscriptionPastDue,
		objectID: "sub_3",
		amount:   4900,
	}}

	adapter := &Adapter{webhookSecret: testSecret}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := eventPayload(t, tt.rawType, tt.object)
			event, err := adapter.ParseWebhook(context.Background(), payload, signed(payload))
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, event.Type)
			assert.Equal(t, tt.rawType, event.RawType)
			assert.Equal(t, tt.objectID, event.ObjectID)
			assert.Equal(t, tt.amount, event.Amount)
			assert.Equal(t, "stripe", event.Provider)
		})
	}
}

func TestParseWebhookSetupCarriesPaymentMethod(t *testing.T) {
	adapter := &Adapter{webhookSecret: testSecret}
	payload := eventPayload(t, "setup_intent.succeeded", map[string]any{"id": "seti_1", "customer": "cus_1", "payment_method": "pm_1"})

	event, err := adapter.ParseWebhook(context.Background(), payload, signed(payload))
	require.NoError(t, err)
	assert.Equal(t, "cus_1", event.CustomerID)
	assert.Equal(t, "pm_1", event.PaymentMethodID)
}

func TestParseWebhookIgnoresUnknownTypes(t *testing.T) {
	adapter := &Adapter{webhookSecret: testSecret}
	payload := eventPayload(t, "charge.refunded", map[string]any{"id": "ch_1"})

	_, err := adapter.ParseWebhook(context.Background(), payload, signed(payload))
	assert.ErrorIs(t, err, paymentdomain.ErrEventIgnored)
}

func eventPayload(t *testing.T, eventType string, object map[string]any) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          "evt_" + eventType,
		"object":      "event",
		"type":        eventType,
		"created":     time.Now().Unix(),
		"api_version": "2025-09-30.clover",
		"data":        map[string]any{"object": object},
	})
	require.NoError(t, err)
	return payload
}

func signed(payload []byte) http.Header {
	headers := http.Header{}
	headers.Set(signatureHeader, buildStripeSignatureHeader(testSecret, payload, time.Now().Unix()))
	return headers
}

func buildStripeSignatureHeader(secret string, payload []byte, timestamp int64) string {
	signedPayload := fmt.Sprintf("%d.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(signedPayload))
	signature := hex.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, signature)
}
