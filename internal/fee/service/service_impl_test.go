package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/carecheckout/internal/catalog/domain"
	catalogrepo "github.com/smallbiznis/carecheckout/internal/catalog/repository"
	"github.com/smallbiznis/carecheckout/internal/fee/domain"
	"github.com/smallbiznis/carecheckout/internal/fee/repository"
	dbpkg "github.com/smallbiznis/carecheckout/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupFeeService(t *testing.T) (*gorm.DB, domain.Service) {
	t.Helper()
	db, err := dbpkg.NewTest(
		&domain.FeeConfiguration{},
		&domain.TierFeeOverride{},
		&catalogdomain.Tenant{},
	)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:      db,
		Log:     zap.NewNop(),
		Repo:    repository.Provide(),
		Catalog: catalogrepo.Provide(db),
	})
	return db, svc
}

func seedConfiguration(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&domain.FeeConfiguration{
		ID:                      uuid.New(),
		PlatformFeePercent:      d("10"),
		ClinicianFlatFee:        d("5"),
		NonMedicalProfitPercent: d("20"),
		Active:                  true,
	}).Error)
}

func seedTenant(t *testing.T, db *gorm.DB, tier string) catalogdomain.Tenant {
	t.Helper()
	tenant := catalogdomain.Tenant{
		ID:   uuid.New(),
		Name: "Glow Clinic",
		Tier: tier,
	}
	require.NoError(t, db.Create(&tenant).Error)
	return tenant
}

func TestComputeSplitWithoutConfigurationFails(t *testing.T) {
	db, svc := setupFeeService(t)
	tenant := seedTenant(t, db, "standard")

	_, err := svc.ComputeSplit(context.Background(), tenant.ID, domain.SplitInput{Total: d("100")})
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
	assert.True(t, IsConfigurationError(err))
}

func TestComputeSplitUsesActiveConfiguration(t *testing.T) {
	db, svc := setupFeeService(t)
	seedConfiguration(t, db)
	tenant := seedTenant(t, db, "standard")

	split, err := svc.ComputeSplit(context.Background(), tenant.ID, domain.SplitInput{
		Total:            d("100"),
		ProductsSubtotal: d("100"),
		Lines:            []domain.SplitLine{{WholesaleCost: d("8"), Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "77.00", split.BrandAmount.StringFixed(2))
}

func TestResolveRatesAppliesTierAndTenantOverrides(t *testing.T) {
	db, svc := setupFeeService(t)
	seedConfiguration(t, db)
	require.NoError(t, db.Create(&domain.TierFeeOverride{
		ID:                 uuid.New(),
		Tier:               "enterprise",
		PlatformFeePercent: d("6"),
	}).Error)

	rates, err := svc.ResolveRates(context.Background(), domain.TenantProfile{
		Tier:                    "enterprise",
		NonMedicalProfitPercent: decimal.NewNullDecimal(d("35")),
	})
	require.NoError(t, err)
	assert.True(t, rates.TierOverridden)
	assert.True(t, rates.PlatformFeePercent.Equal(d("6")))
	assert.True(t, rates.NonMedicalProfitPercent.Equal(d("35")))
	assert.True(t, rates.ClinicianFlatFee.Equal(d("5")))

	rates, err = svc.ResolveRates(context.Background(), domain.TenantProfile{Tier: "standard"})
	require.NoError(t, err)
	assert.False(t, rates.TierOverridden)
	assert.True(t, rates.PlatformFeePercent.Equal(d("10")))
}

func TestComputeSplitUnknownTenant(t *testing.T) {
	db, svc := setupFeeService(t)
	seedConfiguration(t, db)

	_, err := svc.ComputeSplit(context.Background(), uuid.New(), domain.SplitInput{Total: d("100")})
	assert.ErrorIs(t, err, catalogdomain.ErrTenantNotFound)
}
