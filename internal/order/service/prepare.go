package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/carecheckout/internal/catalog/domain"
	"github.com/smallbiznis/carecheckout/internal/order/domain"
	patientdomain "github.com/smallbiznis/carecheckout/internal/patient/domain"
	"github.com/smallbiznis/carecheckout/internal/validation"
)

func (s *Service) Prepare(ctx context.Context, req domain.CheckoutRequest) (*domain.Draft, error) {
	if req.Shipping.Empty() {
		req.Shipping = nil
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if req.TenantID == uuid.Nil {
		return nil, domain.ErrInvalidTenant
	}
	targetID, err := req.Target()
	if err != nil {
		return nil, err
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	tenant, err := s.catalog.GetTenant(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}

	draft := &domain.Draft{Request: req, Tenant: tenant, TargetID: targetID}
	switch req.Kind {
	case domain.KindProduct:
		err = s.draftProduct(ctx, draft)
	case domain.KindProgram:
		err = s.draftProgram(ctx, draft)
	case domain.KindTreatment:
		err = s.draftTreatment(ctx, draft)
	default:
		err = domain.ErrInvalidTarget
	}
	if err != nil {
		return nil, err
	}
	if len(draft.Lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	if req.UserID != nil {
		patient, err := s.patients.Get(ctx, *req.UserID)
		if err != nil {
			return nil, err
		}
		if patient.TenantID != req.TenantID {
			return nil, patientdomain.ErrUserNotFound
		}
		draft.Patient = patient
	}
	draft.PatientState = patientState(draft)

	return draft, nil
}

func (s *Service) draftProduct(ctx context.Context, d *domain.Draft) error {
	listing, err := s.catalog.GetTenantProduct(ctx, d.TargetID)
	if err != nil {
		return err
	}
	if listing.TenantID != d.Request.TenantID {
		return domain.ErrTargetNotInTenant
	}
	product, err := s.catalog.GetProduct(ctx, listing.ProductID)
	if err != nil {
		return err
	}

	price := product.Price
	if listing.PriceOverride.Valid {
		price = listing.PriceOverride.Decimal
	}
	d.Lines = []domain.DraftLine{lineFor(product, d.Request.Quantity, price)}
	d.QuestionnaireID = firstID(listing.QuestionnaireID, product.QuestionnaireID)
	return nil
}

func (s *Service) draftProgram(ctx context.Context, d *domain.Draft) error {
	program, err := s.catalog.GetProgram(ctx, d.TargetID)
	if err != nil {
		return err
	}
	if program.TenantID != d.Request.TenantID {
		return domain.ErrTargetNotInTenant
	}

	ids := make([]uuid.UUID, 0, len(program.Products))
	for _, pp := range program.Products {
		ids = append(ids, pp.ProductID)
	}
	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return err
	}

	for _, pp := range program.Products {
		product := products[pp.ProductID]
		qty := pp.Quantity
		if qty <= 0 {
			qty = 1
		}
		d.Lines = append(d.Lines, lineFor(product, qty, product.Price))
	}
	d.NonMedicalFee = program.NonMedicalServicesFee
	d.QuestionnaireID = program.QuestionnaireID
	return nil
}

func (s *Service) draftTreatment(ctx context.Context, d *domain.Draft) error {
	treatment, err := s.catalog.GetTreatment(ctx, d.TargetID)
	if err != nil {
		return err
	}
	if treatment.TenantID != d.Request.TenantID {
		return domain.ErrTargetNotInTenant
	}
	product, err := s.catalog.GetProduct(ctx, treatment.ProductID)
	if err != nil {
		if errors.Is(err, catalogdomain.ErrProductNotFound) {
			return catalogdomain.ErrTreatmentNotFound.Wrap(err)
		}
		return err
	}

	line := lineFor(product, 1, treatment.Price)
	line.Name = treatment.Name
	d.Lines = []domain.DraftLine{line}
	d.QuestionnaireID = firstID(treatment.QuestionnaireID, product.QuestionnaireID)
	d.RecurringPriceRef = treatment.RecurringPriceRef
	d.PlanType = treatment.PlanType
	return nil
}

func lineFor(product *catalogdomain.Product, qty int, price decimal.Decimal) domain.DraftLine {
	return domain.DraftLine{
		ProductID:     product.ID,
		Name:          product.Name,
		Quantity:      qty,
		UnitPrice:     price,
		WholesaleCost: product.PharmacyWholesaleCost,
		LabelText:     product.LabelText,
	}
}

func firstID(ids ...*uuid.UUID) *uuid.UUID {
	for _, id := range ids {
		if id != nil && *id != uuid.Nil {
			return id
		}
	}
	return nil
}

// patientState picks the state used for visit-type rules: shipping address,
// then supplied details, then the stored account.
func patientState(d *domain.Draft) string {
	candidates := []string{}
	if d.Request.Shipping != nil {
		candidates = append(candidates, d.Request.Shipping.State)
	}
	if d.Request.UserDetails != nil {
		candidates = append(candidates, d.Request.UserDetails.State)
	}
	if d.Patient != nil {
		candidates = append(candidates, d.Patient.State)
	}
	for _, c := range candidates {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			return c
		}
	}
	return ""
}
