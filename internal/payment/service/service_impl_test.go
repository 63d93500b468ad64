package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/carecheckout/internal/catalog/domain"
	"github.com/smallbiznis/carecheckout/internal/config"
	feedomain "github.com/smallbiznis/carecheckout/internal/fee/domain"
	orderdomain "github.com/smallbiznis/carecheckout/internal/order/domain"
	patientdomain "github.com/smallbiznis/carecheckout/internal/patient/domain"
	"github.com/smallbiznis/carecheckout/internal/payment/domain"
	"github.com/smallbiznis/carecheckout/internal/payment/domain/mocks"
	"github.com/smallbiznis/carecheckout/internal/payment/repository"
	paymentservice "github.com/smallbiznis/carecheckout/internal/payment/service"
	dbpkg "github.com/smallbiznis/carecheckout/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakePatients struct {
	patientdomain.Service
	customers map[uuid.UUID]string
}

func (f *fakePatients) SetProcessorCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	f.customers[id] = customerID
	return nil
}

type busyLocker struct{}

func (busyLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	return "", false, nil
}

func (busyLocker) Release(ctx context.Context, key, token string) error { return nil }

type harness struct {
	db        *gorm.DB
	processor *mocks.MockProcessor
	patients  *fakePatients
	svc       domain.Service
}

func newHarness(t *testing.T, locker domain.AuthorizationLocker) *harness {
	t.Helper()
	db, err := dbpkg.NewTest(&domain.Payment{}, &domain.EventRecord{})
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	processor := mocks.NewMockProcessor(ctrl)
	processor.EXPECT().Name().Return("stripe").AnyTimes()

	patients := &fakePatients{customers: map[uuid.UUID]string{}}
	svc := paymentservice.NewService(paymentservice.Params{
		DB:        db,
		Log:       zap.NewNop(),
		Repo:      repository.Provide(),
		Processor: processor,
		Patients:  patients,
		Locker:    locker,
		Config:    config.NewStaticCheckoutConfigHolder(config.DefaultCheckoutConfig()),
		AppConfig: config.Config{Platform: config.PlatformConfig{Name: "CareCheckout", Currency: "usd"}},
	})
	return &harness{db: db, processor: processor, patients: patients, svc: svc}
}

func authorizeInput() domain.AuthorizeInput {
	account := "acct_glow"
	tenantID := uuid.New()
	patient := &patientdomain.User{ID: uuid.New(), TenantID: tenantID, Email: "pat@example.com", FirstName: "Pat", LastName: "Doe"}
	return domain.AuthorizeInput{
		Order: &orderdomain.Order{
			ID:          uuid.New(),
			OrderNumber: "ORD-ABC123",
			TenantID:    tenantID,
			UserID:      patient.ID,
			Kind:        orderdomain.KindProduct,
			Currency:    "USD",
			Total:       decimal.RequireFromString("100.00"),
		},
		Split: feedomain.Split{
			Total:                   decimal.RequireFromString("100.00"),
			PlatformFeeAmount:       decimal.RequireFromString("10.00"),
			DoctorAmount:            decimal.RequireFromString("5.00"),
			PharmacyWholesaleAmount: decimal.RequireFromString("8.00"),
			BrandAmount:             decimal.RequireFromString("77.00"),
		},
		Tenant:        &catalogdomain.Tenant{ID: tenantID, Name: "Glow Clinic", ConnectedAccountID: &account},
		Patient:       patient,
		UseOnBehalfOf: true,
	}
}

func countPayments(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&domain.Payment{}).Count(&n).Error)
	return n
}

func TestAuthorizePersistsOnePendingPayment(t *testing.T) {
	h := newHarness(t, nil)
	in := authorizeInput()
	ctx := context.Background()

	h.processor.EXPECT().CreateCustomer(gomock.Any(), gomock.Any()).Return("cus_1", nil)
	h.processor.EXPECT().CreateAuthorization(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req domain.AuthorizationRequest) (*domain.AuthorizationHandle, error) {
			assert.Equal(t, int64(10000), req.Amount)
			assert.Equal(t, "cus_1", req.CustomerID)
			assert.Equal(t, "acct_glow", req.OnBehalfOf)
			assert.Equal(t, "GLOW CLINIC", req.StatementSuffix)
			assert.Equal(t, "order:"+in.Order.ID.String()+":authorization:1", req.IdempotencyKey)
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return &domain.AuthorizationHandle{ID: "pi_1", ClientSecret: "pi_1_secret", Status: "requires_payment_method"}, nil
		})

	res, err := h.svc.Authorize(ctx, in)
	require.NoError(t, err)
	assert.False(t, res.Reused)
	assert.Equal(t, "pi_1_secret", res.ClientSecret)
	assert.Equal(t, domain.StatusPending, res.Payment.Status)
	assert.Equal(t, "pi_1", res.Payment.ProviderPaymentID)
	assert.Equal(t, "77.00", res.Payment.Metadata.Data()["brand_amount"])
	assert.Equal(t, "cus_1", h.patients.customers[in.Patient.ID])
	assert.Equal(t, int64(1), countPayments(t, h.db))
}

func TestAuthorizeRetryReusesActivePayment(t *testing.T) {
	h := newHarness(t, nil)
	in := authorizeInput()
	ctx := context.Background()

	h.processor.EXPECT().CreateCustomer(gomock.Any(), gomock.Any()).Return("cus_1", nil)
	h.processor.EXPECT().CreateAuthorization(gomock.Any(), gomock.Any()).
		Return(&domain.AuthorizationHandle{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil).Times(1)
	h.processor.EXPECT().GetAuthorization(gomock.Any(), "pi_1").
		Return(&domain.AuthorizationHandle{ID: "pi_1", ClientSecret: "pi_1_secret", Status: "requires_capture"}, nil)

	first, err := h.svc.Authorize(ctx, in)
	require.NoError(t, err)
	second, err := h.svc.Authorize(ctx, in)
	require.NoError(t, err)

	assert.True(t, second.Reused)
	assert.Equal(t, first.Payment.ID, second.Payment.ID)
	assert.Equal(t, "pi_1_secret", second.ClientSecret)
	assert.Equal(t, int64(1), countPayments(t, h.db))
}

func TestAuthorizeAfterDeclinedAttemptReusesIntent(t *testing.T) {
	h := newHarness(t, nil)
	in := authorizeInput()
	ctx := context.Background()

	h.processor.EXPECT().CreateCustomer(gomock.Any(), gomock.Any()).Return("cus_1", nil)
	h.processor.EXPECT().CreateAuthorization(gomock.Any(), gomock.Any()).
		Return(&domain.AuthorizationHandle{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil).Times(1)
	h.processor.EXPECT().GetAuthorization(gomock.Any(), "pi_1").
		Return(&domain.AuthorizationHandle{ID: "pi_1", ClientSecret: "pi_1_secret", Status: "requires_payment_method"}, nil)

	first, err := h.svc.Authorize(ctx, in)
	require.NoError(t, err)
	require.NoError(t, h.svc.Transition(ctx, first.Payment, domain.StatusRequiresPaymentMethod))

	second, err := h.svc.Authorize(ctx, in)
	require.NoError(t, err)
	assert.True(t, second.Reused)
	assert.Equal(t, first.Payment.ID, second.Payment.ID)
	assert.Equal(t, int64(1), countPayments(t, h.db))

	require.NoError(t, h.svc.Transition(ctx, second.Payment, domain.StatusRequiresCapture))
	stored, err := h.svc.FindByHandle(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRequiresCapture, stored.Status)
}

func TestLatestForSubscription(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	subscriptionID := uuid.New()

	none, err := h.svc.LatestForSubscription(ctx, subscriptionID)
	require.NoError(t, err)
	assert.Nil(t, none)

	charge := &domain.Payment{
		SubscriptionID:    &subscriptionID,
		ProviderPaymentID: "pi_sub",
		TenantID:          uuid.New(),
		UserID:            uuid.New(),
		Amount:            decimal.RequireFromString("19.00"),
		Currency:          "usd",
	}
	require.NoError(t, h.svc.Record(ctx, charge))
	require.NoError(t, h.svc.Transition(ctx, charge, domain.StatusSucceeded))

	latest, err := h.svc.LatestForSubscription(ctx, subscriptionID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, charge.ID, latest.ID)
	assert.Equal(t, domain.StatusSucceeded, latest.Status)
}

func TestAuthorizeProcessorFailureLeavesNoPayment(t *testing.T) {
	h := newHarness(t, nil)
	in := authorizeInput()

	h.processor.EXPECT().CreateCustomer(gomock.Any(), gomock.Any()).Return("cus_1", nil)
	h.processor.EXPECT().CreateAuthorization(gomock.Any(), gomock.Any()).Return(nil, errors.New("card_declined"))

	_, err := h.svc.Authorize(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthorizationFailed)
	assert.Equal(t, int64(0), countPayments(t, h.db))
}

func TestAuthorizeAfterCancelledAuthorizationStartsNewAttempt(t *testing.T) {
	h := newHarness(t, nil)
	in := authorizeInput()
	ctx := context.Background()

	h.processor.EXPECT().CreateCustomer(gomock.Any(), gomock.Any()).Return("cus_1", nil)
	gomock.InOrder(
		h.processor.EXPECT().CreateAuthorization(gomock.Any(), gomock.Any()).
			Return(&domain.AuthorizationHandle{ID: "pi_1", ClientSecret: "s1"}, nil),
		h.processor.EXPECT().GetAuthorization(gomock.Any(), "pi_1").
			Return(&domain.AuthorizationHandle{ID: "pi_1", Status: "canceled"}, nil),
		h.processor.EXPECT().CreateAuthorization(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, req domain.AuthorizationRequest) (*domain.AuthorizationHandle, error) {
				assert.Equal(t, "order:"+in.Order.ID.String()+":authorization:2", req.IdempotencyKey)
				return &domain.AuthorizationHandle{ID: "pi_2", ClientSecret: "s2"}, nil
			}),
	)

	_, err := h.svc.Authorize(ctx, in)
	require.NoError(t, err)
	res, err := h.svc.Authorize(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "pi_2", res.Payment.ProviderPaymentID)
	old, err := h.svc.FindByHandle(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, old.Status)
}

func TestAuthorizeBusyLock(t *testing.T) {
	h := newHarness(t, busyLocker{})

	_, err := h.svc.Authorize(context.Background(), authorizeInput())
	assert.ErrorIs(t, err, domain.ErrAuthorizationBusy)
}

func TestAuthorizeSkipsCustomerCreationWhenKnown(t *testing.T) {
	h := newHarness(t, nil)
	in := authorizeInput()
	existing := "cus_existing"
	in.Patient.ProcessorCustomerID = &existing

	h.processor.EXPECT().CreateAuthorization(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req domain.AuthorizationRequest) (*domain.AuthorizationHandle, error) {
			assert.Equal(t, "cus_existing", req.CustomerID)
			return &domain.AuthorizationHandle{ID: "pi_9"}, nil
		})

	_, err := h.svc.Authorize(context.Background(), in)
	require.NoError(t, err)
}

func TestTransitionRules(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	payment := &domain.Payment{
		ProviderPaymentID: "pi_t",
		TenantID:          uuid.New(),
		UserID:            uuid.New(),
		Amount:            decimal.RequireFromString("10.00"),
		Currency:          "usd",
	}
	require.NoError(t, h.svc.Record(ctx, payment))
	assert.Equal(t, domain.StatusPending, payment.Status)

	require.NoError(t, h.svc.Transition(ctx, payment, domain.StatusRequiresPaymentMethod))
	assert.True(t, payment.Status.Active())
	require.NoError(t, h.svc.Transition(ctx, payment, domain.StatusRequiresCapture))
	require.NoError(t, h.svc.Transition(ctx, payment, domain.StatusRequiresCapture))
	require.NoError(t, h.svc.Transition(ctx, payment, domain.StatusSucceeded))
	assert.ErrorIs(t, h.svc.Transition(ctx, payment, domain.StatusPending), domain.ErrInvalidTransition)

	stored, err := h.svc.FindByHandle(ctx, "pi_t")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSucceeded, stored.Status)

	_, err = h.svc.FindByHandle(ctx, "pi_missing")
	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
}

func TestVoidCancelsAtProcessorFirst(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	payment := &domain.Payment{
		ProviderPaymentID: "pi_v",
		TenantID:          uuid.New(),
		UserID:            uuid.New(),
		Amount:            decimal.RequireFromString("10.00"),
		Currency:          "usd",
		Status:            domain.StatusRequiresCapture,
	}
	require.NoError(t, h.svc.Record(ctx, payment))

	h.processor.EXPECT().CancelAuthorization(gomock.Any(), "pi_v").Return(errors.New("timeout"))
	require.ErrorIs(t, h.svc.Void(ctx, payment), domain.ErrProcessorUnavailable)
	assert.Equal(t, domain.StatusRequiresCapture, payment.Status)

	h.processor.EXPECT().CancelAuthorization(gomock.Any(), "pi_v").Return(nil)
	require.NoError(t, h.svc.Void(ctx, payment))
	assert.Equal(t, domain.StatusCancelled, payment.Status)
}
