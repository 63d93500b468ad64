package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/carecheckout/internal/catalog/domain"
	feedomain "github.com/smallbiznis/carecheckout/internal/fee/domain"
	orderdomain "github.com/smallbiznis/carecheckout/internal/order/domain"
	patientdomain "github.com/smallbiznis/carecheckout/internal/patient/domain"
	paymentdomain "github.com/smallbiznis/carecheckout/internal/payment/domain"
	subscriptiondomain "github.com/smallbiznis/carecheckout/internal/subscription/domain"
	visitfeedomain "github.com/smallbiznis/carecheckout/internal/visitfee/domain"
)

type fakeOrders struct {
	orderdomain.Service
	draft       *orderdomain.Draft
	prepareErr  error
	orders      map[uuid.UUID]*orderdomain.Order
	assembled   int
	transitions []orderdomain.Status
}

func newFakeOrders(draft *orderdomain.Draft) *fakeOrders {
	return &fakeOrders{draft: draft, orders: map[uuid.UUID]*orderdomain.Order{}}
}

func (f *fakeOrders) Prepare(ctx context.Context, req orderdomain.CheckoutRequest) (*orderdomain.Draft, error) {
	if f.prepareErr != nil {
		return nil, f.prepareErr
	}
	return f.draft, nil
}

func (f *fakeOrders) Assemble(ctx context.Context, in orderdomain.AssembleInput) (*orderdomain.Order, bool, error) {
	f.assembled++
	if key := in.Draft.Request.IdempotencyKey; key != "" {
		for _, o := range f.orders {
			if o.IdempotencyKey != nil && *o.IdempotencyKey == key {
				copied := *o
				return &copied, true, nil
			}
		}
	}
	order := &orderdomain.Order{
		ID:                      uuid.New(),
		OrderNumber:             "ORD-TEST01",
		TenantID:                in.Draft.Tenant.ID,
		UserID:                  in.Draft.Patient.ID,
		Kind:                    in.Draft.Request.Kind,
		Status:                  orderdomain.StatusPending,
		Currency:                in.Currency,
		Total:                   in.Split.Total,
		ProductsSubtotal:        in.Split.ProductsSubtotal,
		VisitFeeAmount:          in.Visit.Amount,
		PlatformFeeAmount:       in.Split.PlatformFeeAmount,
		DoctorAmount:            in.Split.DoctorAmount,
		PharmacyWholesaleAmount: in.Split.PharmacyWholesaleAmount,
		BrandAmount:             in.Split.BrandAmount,
	}
	if in.Visit.VisitType != nil {
		vt := string(*in.Visit.VisitType)
		order.VisitType = &vt
	}
	if key := in.Draft.Request.IdempotencyKey; key != "" {
		order.IdempotencyKey = &key
	}
	f.orders[order.ID] = order
	return order, false, nil
}

func (f *fakeOrders) Get(ctx context.Context, id uuid.UUID) (*orderdomain.Order, error) {
	if o, ok := f.orders[id]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, orderdomain.ErrOrderNotFound
}

func (f *fakeOrders) Transition(ctx context.Context, id uuid.UUID, to orderdomain.Status) error {
	o, ok := f.orders[id]
	if !ok {
		return orderdomain.ErrOrderNotFound
	}
	if o.Status == to {
		return nil
	}
	if !orderdomain.CanTransition(o.Status, to) {
		return orderdomain.ErrInvalidTransition
	}
	o.Status = to
	f.transitions = append(f.transitions, to)
	return nil
}

func (f *fakeOrders) ListUnpaidOrders(ctx context.Context, olderThan time.Duration, limit int) ([]orderdomain.Order, error) {
	var out []orderdomain.Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

type fakeFees struct {
	feedomain.Service
	err error
}

func (f *fakeFees) ComputeSplit(ctx context.Context, tenantID uuid.UUID, input feedomain.SplitInput) (feedomain.Split, error) {
	if f.err != nil {
		return feedomain.Split{}, f.err
	}
	platform := input.Total.Mul(decimal.RequireFromString("0.10")).Round(2)
	return feedomain.Split{
		Total:             input.Total,
		PlatformFeeAmount: platform,
		BrandAmount:       input.Total.Sub(platform),
	}, nil
}

type fakeVisitFees struct {
	resolution visitfeedomain.Resolution
}

func (f fakeVisitFees) Resolve(ctx context.Context, req visitfeedomain.ResolveRequest) visitfeedomain.Resolution {
	return f.resolution
}

type fakePatients struct {
	patientdomain.Service
	user *patientdomain.User
}

func (f *fakePatients) Get(ctx context.Context, id uuid.UUID) (*patientdomain.User, error) {
	return f.user, nil
}

type fakePayments struct {
	paymentdomain.Service
	authorizeErr error
	authorized   []paymentdomain.AuthorizeInput
	byHandle     map[string]*paymentdomain.Payment
	voided       []uuid.UUID
}

func newFakePayments() *fakePayments {
	return &fakePayments{byHandle: map[string]*paymentdomain.Payment{}}
}

func (f *fakePayments) Authorize(ctx context.Context, in paymentdomain.AuthorizeInput) (*paymentdomain.AuthorizeResult, error) {
	f.authorized = append(f.authorized, in)
	if f.authorizeErr != nil {
		err := f.authorizeErr
		f.authorizeErr = nil
		return nil, err
	}
	orderID := in.Order.ID
	payment := &paymentdomain.Payment{
		ID:                uuid.New(),
		OrderID:           &orderID,
		ProviderPaymentID: "pi_" + in.Order.OrderNumber,
		Status:            paymentdomain.StatusPending,
		Amount:            in.Order.Total,
	}
	f.byHandle[payment.ProviderPaymentID] = payment
	return &paymentdomain.AuthorizeResult{Payment: payment, ClientSecret: payment.ProviderPaymentID + "_secret"}, nil
}

func (f *fakePayments) FindByHandle(ctx context.Context, handle string) (*paymentdomain.Payment, error) {
	if p, ok := f.byHandle[handle]; ok {
		return p, nil
	}
	return nil, paymentdomain.ErrPaymentNotFound
}

func (f *fakePayments) ActiveForOrder(ctx context.Context, orderID uuid.UUID) (*paymentdomain.Payment, error) {
	for _, p := range f.byHandle {
		if p.OrderID != nil && *p.OrderID == orderID && p.Status.Active() {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePayments) Transition(ctx context.Context, payment *paymentdomain.Payment, to paymentdomain.Status) error {
	if payment.Status == to {
		return nil
	}
	if !paymentdomain.CanTransition(payment.Status, to) {
		return paymentdomain.ErrInvalidTransition
	}
	payment.Status = to
	return nil
}

func (f *fakePayments) Void(ctx context.Context, payment *paymentdomain.Payment) error {
	f.voided = append(f.voided, payment.ID)
	payment.Status = paymentdomain.StatusCancelled
	return nil
}

type fakeSubscriptions struct {
	subscriptiondomain.Service
	created   []subscriptiondomain.OrderSubscriptionInput
	activated []string
	applied   map[string]subscriptiondomain.Status
	applyErr  error
}

func newFakeSubscriptions() *fakeSubscriptions {
	return &fakeSubscriptions{applied: map[string]subscriptiondomain.Status{}}
}

func (f *fakeSubscriptions) CreateForOrder(ctx context.Context, in subscriptiondomain.OrderSubscriptionInput) (*subscriptiondomain.Subscription, error) {
	f.created = append(f.created, in)
	return &subscriptiondomain.Subscription{ID: uuid.New(), OrderID: &in.OrderID, Status: subscriptiondomain.StatusPending}, nil
}

func (f *fakeSubscriptions) ActivateForOrder(ctx context.Context, orderID uuid.UUID, customerID, paymentMethodID string) (*subscriptiondomain.Subscription, error) {
	f.activated = append(f.activated, customerID+"/"+paymentMethodID)
	return nil, nil
}

func (f *fakeSubscriptions) ApplyProcessorStatus(ctx context.Context, handle string, to subscriptiondomain.Status) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied[handle] = to
	return nil
}

func productDraft(price string) *orderdomain.Draft {
	tenant := &catalogdomain.Tenant{ID: uuid.New(), Name: "Glow Clinic"}
	patient := &patientdomain.User{ID: uuid.New(), TenantID: tenant.ID, Email: "pat@example.com"}
	productID := uuid.New()
	return &orderdomain.Draft{
		Request: orderdomain.CheckoutRequest{Kind: orderdomain.KindProduct, TenantID: tenant.ID, ProductID: &productID},
		Tenant:  tenant,
		Lines: []orderdomain.DraftLine{{
			ProductID: productID, Name: "Serum", Quantity: 1,
			UnitPrice: decimal.RequireFromString(price), WholesaleCost: decimal.RequireFromString("10.00"),
		}},
		Patient:      patient,
		PatientState: "CA",
	}
}
