package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/smallbiznis/carecheckout/internal/patient/domain"
	"github.com/smallbiznis/carecheckout/internal/patient/repository"
	dbpkg "github.com/smallbiznis/carecheckout/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupPatientService(t *testing.T) (*gorm.DB, domain.Service) {
	t.Helper()
	db, err := dbpkg.NewTest(&domain.User{})
	require.NoError(t, err)
	return db, NewService(Params{DB: db, Log: zap.NewNop(), Repo: repository.Provide()})
}

func TestFindOrCreatePlaceholderCreatesOnce(t *testing.T) {
	_, svc := setupPatientService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	first, err := svc.FindOrCreatePlaceholder(ctx, nil, tenantID, domain.Details{
		Email:     " Pat@Example.com ",
		FirstName: "Pat",
		LastName:  "Doe",
		State:     "ca",
	})
	require.NoError(t, err)
	assert.True(t, first.Placeholder)
	assert.Equal(t, "pat@example.com", first.Email)
	assert.Equal(t, "CA", first.State)
	require.NotNil(t, first.PasswordHash)

	second, err := svc.FindOrCreatePlaceholder(ctx, nil, tenantID, domain.Details{Email: "pat@example.com"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := svc.FindOrCreatePlaceholder(ctx, nil, uuid.New(), domain.Details{Email: "pat@example.com"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestFindOrCreatePlaceholderRejectsBadEmail(t *testing.T) {
	_, svc := setupPatientService(t)

	_, err := svc.FindOrCreatePlaceholder(context.Background(), nil, uuid.New(), domain.Details{Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestResolveAffiliateRequiresCapability(t *testing.T) {
	db, svc := setupPatientService(t)
	ctx := context.Background()

	affiliateSlug := "jane-fit"
	plainSlug := "john-doe"
	require.NoError(t, db.Create(&domain.User{
		ID: uuid.New(), TenantID: uuid.New(), Email: "jane@example.com",
		IsAffiliate: true, AffiliateSlug: &affiliateSlug,
	}).Error)
	require.NoError(t, db.Create(&domain.User{
		ID: uuid.New(), TenantID: uuid.New(), Email: "john@example.com",
		AffiliateSlug: &plainSlug,
	}).Error)

	got, err := svc.ResolveAffiliate(ctx, nil, "Jane Fit")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "jane@example.com", got.Email)

	got, err = svc.ResolveAffiliate(ctx, nil, "john-doe")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.ResolveAffiliate(ctx, nil, "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSetProcessorCustomerID(t *testing.T) {
	_, svc := setupPatientService(t)
	ctx := context.Background()

	user, err := svc.FindOrCreatePlaceholder(ctx, nil, uuid.New(), domain.Details{Email: "a@example.com"})
	require.NoError(t, err)
	require.NoError(t, svc.SetProcessorCustomerID(ctx, user.ID, "cus_123"))

	reloaded, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.ProcessorCustomerID)
	assert.Equal(t, "cus_123", *reloaded.ProcessorCustomerID)

	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
