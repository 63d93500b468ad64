package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/carecheckout/internal/catalog/domain"
	"github.com/smallbiznis/carecheckout/internal/config"
	feedomain "github.com/smallbiznis/carecheckout/internal/fee/domain"
	orderdomain "github.com/smallbiznis/carecheckout/internal/order/domain"
	"github.com/smallbiznis/carecheckout/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var platform = config.PlatformConfig{Name: "CareCheckout Health", Currency: "usd"}

func buildInput(useOnBehalfOf bool, account *string) BuildInput {
	visit := "asynchronous"
	return BuildInput{
		AuthorizeInput: domain.AuthorizeInput{
			Order: &orderdomain.Order{
				ID:             uuid.New(),
				OrderNumber:    "ORD-7K2QX",
				TenantID:       uuid.New(),
				UserID:         uuid.New(),
				Kind:           orderdomain.KindProduct,
				Currency:       "USD",
				Total:          decimal.RequireFromString("125.00"),
				VisitType:      &visit,
				VisitFeeAmount: decimal.RequireFromString("25.00"),
			},
			Split: feedomain.Split{
				Total:                   decimal.RequireFromString("125.00"),
				PlatformFeeAmount:       decimal.RequireFromString("12.50"),
				DoctorAmount:            decimal.RequireFromString("5.00"),
				PharmacyWholesaleAmount: decimal.RequireFromString("8.00"),
				BrandAmount:             decimal.RequireFromString("99.50"),
			},
			Tenant:        &catalogdomain.Tenant{ID: uuid.New(), Name: "glow", DisplayName: "Glow Clinic", ConnectedAccountID: account},
			UseOnBehalfOf: useOnBehalfOf,
		},
		Platform:       platform,
		CustomerID:     "cus_1",
		IdempotencyKey: "order:x:authorization:1",
	}
}

func TestBuildAuthorizationRequestShape(t *testing.T) {
	account := "acct_glow"
	req, merchant, err := BuildAuthorizationRequest(buildInput(false, &account))
	require.NoError(t, err)

	assert.Equal(t, int64(12500), req.Amount)
	assert.Equal(t, "usd", req.Currency)
	assert.Equal(t, domain.CaptureManual, req.CaptureMethod)
	assert.True(t, req.AutomaticPaymentMethods.Enabled)
	assert.Equal(t, "never", req.AutomaticPaymentMethods.AllowRedirects)
	assert.Equal(t, "off_session", req.SetupFutureUsage)
	require.NotNil(t, req.Transfer)
	assert.Equal(t, "acct_glow", req.Transfer.Destination)
	assert.Equal(t, int64(9950), req.Transfer.Amount)

	assert.False(t, merchant.TenantIsMOR)
	assert.Empty(t, req.OnBehalfOf)
	assert.Equal(t, "CARECHECKOUT HEALTH", req.StatementSuffix)

	assert.Equal(t, "99.50", req.Metadata["brand_amount"])
	assert.Equal(t, "ORD-7K2QX", req.Metadata["order_number"])
	assert.Equal(t, "asynchronous", req.Metadata["visit_type"])
	assert.Equal(t, "25.00", req.Metadata["visit_fee"])
	assert.Equal(t, "platform", req.Metadata["merchant_of_record"])
}

func TestBuildAuthorizationRequestTenantAsMerchant(t *testing.T) {
	account := "acct_glow"
	req, merchant, err := BuildAuthorizationRequest(buildInput(true, &account))
	require.NoError(t, err)

	assert.True(t, merchant.TenantIsMOR)
	assert.Equal(t, "acct_glow", req.OnBehalfOf)
	assert.Equal(t, "GLOW CLINIC", req.StatementSuffix)
	assert.Equal(t, "tenant", req.Metadata["merchant_of_record"])
}

func TestBuildAuthorizationRequestDowngradesWithoutAccount(t *testing.T) {
	req, merchant, err := BuildAuthorizationRequest(buildInput(true, nil))
	require.NoError(t, err)

	assert.False(t, merchant.TenantIsMOR)
	assert.True(t, merchant.Downgraded)
	assert.Empty(t, req.OnBehalfOf)
	assert.Nil(t, req.Transfer)
	assert.Equal(t, "CARECHECKOUT HEALTH", req.StatementSuffix)
}

func TestBuildAuthorizationRequestSkipsTransferWhenBrandGetsNothing(t *testing.T) {
	account := "acct_glow"
	in := buildInput(false, &account)
	in.Split.BrandAmount = decimal.Zero

	req, _, err := BuildAuthorizationRequest(in)
	require.NoError(t, err)
	assert.Nil(t, req.Transfer)
}

func TestBuildAuthorizationRequestRejectsZeroTotal(t *testing.T) {
	in := buildInput(false, nil)
	in.Order.Total = decimal.Zero

	_, _, err := BuildAuthorizationRequest(in)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestStatementSuffix(t *testing.T) {
	cases := map[string]string{
		"Glow Clinic":                         "GLOW CLINIC",
		"Glow & Co.":                          "GLOW AND CO",
		"a very long clinic name for a brand": "A VERY LONG CLINIC NAM",
	}
	for in, want := range cases {
		got := StatementSuffix(in)
		assert.Equal(t, want, got, in)
		assert.LessOrEqual(t, len(got), 22)
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1999), MinorUnits(decimal.RequireFromString("19.99")))
	assert.Equal(t, int64(1000), MinorUnits(decimal.RequireFromString("9.995")))
}
