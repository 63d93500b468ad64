package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusAuthorized))
	assert.True(t, CanTransition(StatusPaymentDue, StatusPaid))
	assert.False(t, CanTransition(StatusPaid, StatusCancelled))
	assert.False(t, CanTransition(StatusCancelled, StatusPending))
	assert.ElementsMatch(t, []Status{StatusPending, StatusAuthorized, StatusPaymentDue}, SourcesFor(StatusCancelled))
}

func TestTargetMustMatchKind(t *testing.T) {
	id := uuid.New()

	got, err := CheckoutRequest{Kind: KindProgram, ProgramID: &id}.Target()
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = CheckoutRequest{Kind: KindProduct, ProgramID: &id}.Target()
	assert.ErrorIs(t, err, ErrInvalidTarget)

	other := uuid.New()
	_, err = CheckoutRequest{Kind: KindProduct, ProductID: &id, ProgramID: &other}.Target()
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestPersistedSplitReadsOrderColumns(t *testing.T) {
	vt := "asynchronous"
	order := Order{
		Total:                   decimal.RequireFromString("130.00"),
		ProductsSubtotal:        decimal.RequireFromString("100.00"),
		NonMedicalServicesFee:   decimal.RequireFromString("20.00"),
		VisitType:               &vt,
		VisitFeeAmount:          decimal.RequireFromString("10.00"),
		PlatformFeePercent:      decimal.RequireFromString("10.00"),
		PlatformFeeAmount:       decimal.RequireFromString("13.00"),
		NonMedicalProfitShare:   decimal.RequireFromString("4.00"),
		DoctorAmount:            decimal.RequireFromString("15.00"),
		PharmacyWholesaleAmount: decimal.RequireFromString("8.00"),
		BrandAmount:             decimal.RequireFromString("90.00"),
	}

	split := order.PersistedSplit()
	assert.True(t, split.Total.Equal(order.Total))
	assert.Equal(t, "20.00", split.NonMedicalServicesFee.StringFixed(2))
	assert.Equal(t, "90.00", split.BrandAmount.StringFixed(2))
	assert.True(t, split.Balanced())

	visit := order.Visit()
	require.NotNil(t, visit.VisitType)
	assert.Equal(t, "asynchronous", string(*visit.VisitType))
	assert.Equal(t, "10.00", visit.Amount.StringFixed(2))
}
