package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/carecheckout/internal/catalog/domain"
	catalogrepo "github.com/smallbiznis/carecheckout/internal/catalog/repository"
	"github.com/smallbiznis/carecheckout/internal/clock"
	"github.com/smallbiznis/carecheckout/internal/config"
	feedomain "github.com/smallbiznis/carecheckout/internal/fee/domain"
	"github.com/smallbiznis/carecheckout/internal/order/domain"
	"github.com/smallbiznis/carecheckout/internal/order/repository"
	patientdomain "github.com/smallbiznis/carecheckout/internal/patient/domain"
	patientrepo "github.com/smallbiznis/carecheckout/internal/patient/repository"
	patientservice "github.com/smallbiznis/carecheckout/internal/patient/service"
	visitfeedomain "github.com/smallbiznis/carecheckout/internal/visitfee/domain"
	dbpkg "github.com/smallbiznis/carecheckout/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// scriptedNumbers replays a fixed sequence, repeating the last entry.
type scriptedNumbers struct {
	mu    sync.Mutex
	seq   []string
	calls int
}

func (n *scriptedNumbers) Next() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	idx := n.calls
	if idx >= len(n.seq) {
		idx = len(n.seq) - 1
	}
	n.calls++
	return n.seq[idx]
}

// pairedNumbers hands out every number twice so concurrent callers collide.
type pairedNumbers struct {
	mu    sync.Mutex
	calls int
}

func (n *pairedNumbers) Next() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	number := fmt.Sprintf("ORD-P%d", n.calls/2)
	n.calls++
	return number
}

// failingAddressRepo fails the last write of the order transaction.
type failingAddressRepo struct {
	domain.Repository
}

func (failingAddressRepo) InsertShippingAddress(context.Context, *gorm.DB, *domain.ShippingAddress) error {
	return errors.New("disk full")
}

type fixture struct {
	db        *gorm.DB
	clock     *clock.FakeClock
	numbers   *scriptedNumbers
	tenant    catalogdomain.Tenant
	listing   catalogdomain.TenantProduct
	product   catalogdomain.Product
	program   catalogdomain.Program
	treatment catalogdomain.Treatment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := dbpkg.NewTest(
		&catalogdomain.Tenant{},
		&catalogdomain.Product{},
		&catalogdomain.TenantProduct{},
		&catalogdomain.Program{},
		&catalogdomain.ProgramProduct{},
		&catalogdomain.Treatment{},
		&patientdomain.User{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.ShippingAddress{},
	)
	require.NoError(t, err)

	f := &fixture{
		db:      db,
		clock:   clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		numbers: &scriptedNumbers{seq: []string{"ORD-A1"}},
	}

	f.tenant = catalogdomain.Tenant{ID: uuid.New(), Name: "Glow Clinic", Domain: "glowclinic.com", Tier: "standard"}
	require.NoError(t, db.Create(&f.tenant).Error)

	f.product = catalogdomain.Product{
		ID: uuid.New(), Name: "Semaglutide 2.5mg", Price: d("100"),
		PharmacyWholesaleCost: d("8"), LabelText: "Inject weekly", Active: true,
	}
	second := catalogdomain.Product{ID: uuid.New(), Name: "B12", Price: d("20"), PharmacyWholesaleCost: d("2"), Active: true}
	require.NoError(t, db.Create(&f.product).Error)
	require.NoError(t, db.Create(&second).Error)

	f.listing = catalogdomain.TenantProduct{
		ID: uuid.New(), TenantID: f.tenant.ID, ProductID: f.product.ID,
		PriceOverride: decimal.NewNullDecimal(d("120")), Active: true,
	}
	require.NoError(t, db.Create(&f.listing).Error)

	f.program = catalogdomain.Program{
		ID: uuid.New(), TenantID: f.tenant.ID, Name: "Metabolic reset",
		NonMedicalServicesFee: d("50"), Active: true,
		Products: []catalogdomain.ProgramProduct{
			{ID: uuid.New(), ProductID: f.product.ID, Quantity: 1},
			{ID: uuid.New(), ProductID: second.ID, Quantity: 2},
		},
	}
	require.NoError(t, db.Create(&f.program).Error)

	ref := "price_monthly"
	f.treatment = catalogdomain.Treatment{
		ID: uuid.New(), TenantID: f.tenant.ID, ProductID: f.product.ID,
		Name: "Monthly GLP-1", Price: d("199"), RecurringPriceRef: &ref, PlanType: "monthly", Active: true,
	}
	require.NoError(t, db.Create(&f.treatment).Error)

	return f
}

func (f *fixture) service(t *testing.T, repo domain.Repository, maxAttempts int) *Service {
	t.Helper()
	cfg := config.DefaultCheckoutConfig()
	cfg.OrderNumberMaxAttempts = maxAttempts
	if repo == nil {
		repo = repository.Provide()
	}
	patients := patientservice.NewService(patientservice.Params{DB: f.db, Log: zap.NewNop(), Repo: patientrepo.Provide()})
	return NewService(Params{
		DB:       f.db,
		Log:      zap.NewNop(),
		Repo:     repo,
		Catalog:  catalogrepo.Provide(f.db),
		Patients: patients,
		Numbers:  f.numbers,
		Config:   config.NewStaticCheckoutConfigHolder(cfg),
		Clock:    f.clock,
	}).(*Service)
}

func (f *fixture) productRequest() domain.CheckoutRequest {
	return domain.CheckoutRequest{
		Kind:      domain.KindProduct,
		TenantID:  f.tenant.ID,
		ProductID: &f.listing.ID,
		UserDetails: &domain.PatientDetails{
			Email: "pat@example.com", FirstName: "Pat", LastName: "Doe",
		},
		Shipping: &domain.ShippingInfo{
			Name: "Pat Doe", Line1: "1 Market St", City: "San Francisco", State: "CA", PostalCode: "94105",
		},
	}
}

// assembleInput prices the draft the way checkout does, with a fixed split.
func assembleInput(draft *domain.Draft) domain.AssembleInput {
	total := draft.Total(decimal.Zero)
	return domain.AssembleInput{
		Draft:    draft,
		Visit:    visitfeedomain.None(),
		Split:    feedomain.Split{Total: total, BrandAmount: total},
		Currency: "usd",
	}
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
