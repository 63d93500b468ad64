package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/carecheckout/internal/apperr"
	checkoutdomain "github.com/smallbiznis/carecheckout/internal/checkout/domain"
	"github.com/smallbiznis/carecheckout/internal/config"
	feedomain "github.com/smallbiznis/carecheckout/internal/fee/domain"
	orderdomain "github.com/smallbiznis/carecheckout/internal/order/domain"
	paymentdomain "github.com/smallbiznis/carecheckout/internal/payment/domain"
	subscriptiondomain "github.com/smallbiznis/carecheckout/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCheckout struct {
	lastReq   orderdomain.CheckoutRequest
	result    *checkoutdomain.Result
	err       error
	unpaid    []orderdomain.Order
	cancelled *orderdomain.Order
}

func (f *fakeCheckout) Checkout(ctx context.Context, req orderdomain.CheckoutRequest) (*checkoutdomain.Result, error) {
	f.lastReq = req
	return f.result, f.err
}

func (f *fakeCheckout) CancelOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*orderdomain.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cancelled, nil
}

func (f *fakeCheckout) ListUnpaid(ctx context.Context, limit int) ([]orderdomain.Order, error) {
	return f.unpaid, f.err
}

type fakeSubscriptions struct {
	subscriptiondomain.Service
	intentReq subscriptiondomain.CreateIntentRequest
	sub       *subscriptiondomain.Subscription
}

func (f *fakeSubscriptions) CreatePaymentIntent(ctx context.Context, req subscriptiondomain.CreateIntentRequest) (*subscriptiondomain.IntentResult, error) {
	f.intentReq = req
	return &subscriptiondomain.IntentResult{
		Subscription: f.sub,
		Mode:         subscriptiondomain.IntentSetup,
		IntentID:     "seti_1",
		ClientSecret: "seti_1_secret",
		Amount:       decimal.RequireFromString("29"),
		Currency:     "usd",
	}, nil
}

func (f *fakeSubscriptions) Get(ctx context.Context, id uuid.UUID) (*subscriptiondomain.Subscription, error) {
	if f.sub == nil || f.sub.ID != id {
		return nil, subscriptiondomain.ErrSubscriptionNotFound
	}
	return f.sub, nil
}

type fakeWebhooks struct {
	err      error
	provider string
	payload  []byte
}

func (f *fakeWebhooks) IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	f.provider = provider
	f.payload = payload
	return f.err
}

type testServer struct {
	engine   *gin.Engine
	checkout *fakeCheckout
	subs     *fakeSubscriptions
	webhooks *fakeWebhooks
}

func newTestServer(t *testing.T, cfg config.Config) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware(true))

	ts := &testServer{
		engine:   engine,
		checkout: &fakeCheckout{},
		subs:     &fakeSubscriptions{},
		webhooks: &fakeWebhooks{},
	}
	NewServer(ServerParams{
		Gin:             engine,
		Cfg:             cfg,
		CheckoutSvc:     ts.checkout,
		SubscriptionSvc: ts.subs,
		WebhookSvc:      ts.webhooks,
	})
	return ts
}

func (ts *testServer) do(method, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCheckoutRouteSetsKindAndTenant(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	tenant := uuid.New()
	product := uuid.New()
	paymentID := uuid.New()
	ts.checkout.result = &checkoutdomain.Result{
		ClientSecret: "pi_1_secret",
		OrderID:      uuid.New(),
		OrderNumber:  "ORD-000001",
		PaymentID:    &paymentID,
		Split: feedomain.Split{
			PlatformFeePercent: decimal.RequireFromString("10"),
			PlatformFeeAmount:  decimal.RequireFromString("10"),
			BrandAmount:        decimal.RequireFromString("70"),
		},
		Total: decimal.RequireFromString("100"),
	}

	body := `{"product_id":"` + product.String() + `","user_details":{"email":"pat@example.com","first_name":"Pat","last_name":"Lee"}}`
	rec := ts.do(http.MethodPost, "/payments/product/sub", body, map[string]string{HeaderTenantID: tenant.String()})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, orderdomain.KindProduct, ts.checkout.lastReq.Kind)
	assert.Equal(t, tenant, ts.checkout.lastReq.TenantID)
	assert.Equal(t, &product, ts.checkout.lastReq.ProductID)
	assert.Nil(t, ts.checkout.lastReq.UserID)

	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "pi_1_secret", data["client_secret"])
	assert.Equal(t, "100.00", data["total"])
	split := data["split"].(map[string]any)
	assert.Equal(t, "70.00", split["brand_amount"])
}

func TestCheckoutRejectsUnknownFields(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	rec := ts.do(http.MethodPost, "/payments/program/sub", `{"program_id":"`+uuid.NewString()+`","price":1}`,
		map[string]string{HeaderTenantID: uuid.NewString()})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeBody(t, rec)["error"].(map[string]any)
	assert.Equal(t, string(apperr.KindValidation), payload["type"])
	errs := payload["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "price", errs[0].(map[string]any)["field"])
}

func TestCheckoutRejectsMistypedField(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	rec := ts.do(http.MethodPost, "/payments/product/sub", `{"product_id":"`+uuid.NewString()+`","quantity":"two"}`,
		map[string]string{HeaderTenantID: uuid.NewString()})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decodeBody(t, rec)["error"].(map[string]any)["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "quantity", errs[0].(map[string]any)["field"])
	assert.Equal(t, "invalid_quantity", errs[0].(map[string]any)["code"])
}

func TestCheckoutRejectsOversizedBody(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	body := `{"product_id":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	rec := ts.do(http.MethodPost, "/payments/product/sub", body, map[string]string{HeaderTenantID: uuid.NewString()})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(apperr.KindValidation), decodeBody(t, rec)["error"].(map[string]any)["type"])
	assert.Empty(t, ts.checkout.lastReq.Kind)
}

func TestCheckoutRequiresTenantHeader(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	rec := ts.do(http.MethodPost, "/payments/treatment/sub", `{}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessorErrorHidesCode(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	ts.checkout.err = paymentdomain.ErrAuthorizationFailed

	rec := ts.do(http.MethodPost, "/payments/product/sub", `{"product_id":"`+uuid.NewString()+`"}`,
		map[string]string{HeaderTenantID: uuid.NewString(), HeaderUserID: uuid.NewString()})

	require.Equal(t, http.StatusBadGateway, rec.Code)
	payload := decodeBody(t, rec)["error"].(map[string]any)
	assert.Nil(t, payload["code"])
}

func TestBrandIntentRequiresUser(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	rec := ts.do(http.MethodPost, "/brand-subscriptions/create-payment-intent", `{"plan_type":"growth"}`,
		map[string]string{HeaderTenantID: uuid.NewString()})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBrandIntentReturnsSetupSecret(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	tenant := uuid.New()
	user := uuid.New()
	ts.subs.sub = &subscriptiondomain.Subscription{ID: uuid.New(), TenantID: tenant, PlanType: "growth"}

	rec := ts.do(http.MethodPost, "/brand-subscriptions/create-payment-intent", `{"plan_type":" growth "}`,
		map[string]string{HeaderTenantID: tenant.String(), HeaderUserID: user.String()})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "growth", ts.subs.intentReq.PlanType)
	assert.Equal(t, user, ts.subs.intentReq.UserID)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "setup", data["mode"])
	assert.Equal(t, "29.00", data["amount"])
}

func TestBrandSubscriptionOfOtherTenantIsHidden(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	ts.subs.sub = &subscriptiondomain.Subscription{ID: uuid.New(), TenantID: uuid.New()}

	rec := ts.do(http.MethodGet, "/brand-subscriptions/"+ts.subs.sub.ID.String(), "",
		map[string]string{HeaderTenantID: uuid.NewString()})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookDuplicateIsAcknowledged(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	ts.webhooks.err = paymentdomain.ErrEventAlreadyProcessed

	rec := ts.do(http.MethodPost, "/payments/webhooks/stripe", `{"id":"evt_1"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true,"duplicate":true}`, rec.Body.String())
	assert.Equal(t, "stripe", ts.webhooks.provider)
	assert.JSONEq(t, `{"id":"evt_1"}`, string(ts.webhooks.payload))
}

func TestWebhookRejectedSignatureIsClientError(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	ts.webhooks.err = paymentdomain.ErrInvalidSignature

	rec := ts.do(http.MethodPost, "/payments/webhooks/Stripe", `{"id":"evt_2"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "stripe", ts.webhooks.provider)
}

func TestWebhookEmptyBodyNeverReachesService(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	rec := ts.do(http.MethodPost, "/payments/webhooks/stripe", "  ", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ts.webhooks.provider)
}

func TestAdminRoutesNeedConfiguredKey(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	rec := ts.do(http.MethodGet, "/admin/orders/unpaid", "", map[string]string{HeaderAdminKey: "anything"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ts = newTestServer(t, config.Config{AdminAPIKey: "s3cret"})
	rec = ts.do(http.MethodGet, "/admin/orders/unpaid", "", map[string]string{HeaderAdminKey: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ts.checkout.unpaid = []orderdomain.Order{{ID: uuid.New(), OrderNumber: "ORD-1", Status: orderdomain.StatusPending, Total: decimal.RequireFromString("12.5")}}
	rec = ts.do(http.MethodGet, "/admin/orders/unpaid?limit=10", "", map[string]string{HeaderAdminKey: "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "12.50", data[0].(map[string]any)["total"])
}

func TestAdminCancelMapsConflict(t *testing.T) {
	ts := newTestServer(t, config.Config{AdminAPIKey: "s3cret"})
	ts.checkout.err = checkoutdomain.ErrOrderNotCancellable

	rec := ts.do(http.MethodPost, "/admin/orders/"+uuid.NewString()+"/cancel", "",
		map[string]string{HeaderAdminKey: "s3cret", HeaderTenantID: uuid.NewString()})

	require.Equal(t, http.StatusConflict, rec.Code)
	payload := decodeBody(t, rec)["error"].(map[string]any)
	assert.Equal(t, "order_not_cancellable", payload["code"])
}
