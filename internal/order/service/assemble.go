package service

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/carecheckout/internal/order/domain"
	patientdomain "github.com/smallbiznis/carecheckout/internal/patient/domain"
	dbpkg "github.com/smallbiznis/carecheckout/pkg/db"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var reservedSubdomains = map[string]struct{}{
	"www": {}, "app": {}, "api": {}, "shop": {},
}

func (s *Service) Assemble(ctx context.Context, in domain.AssembleInput) (*domain.Order, bool, error) {
	d := in.Draft
	if d == nil || d.Tenant == nil {
		return nil, false, domain.ErrInvalidTarget
	}
	if d.Patient == nil && d.Request.UserDetails == nil {
		return nil, false, patientdomain.ErrUserNotFound
	}

	key := strings.TrimSpace(d.Request.IdempotencyKey)
	if key != "" && d.Patient != nil {
		existing, err := s.repo.FindByIdempotencyKey(ctx, s.db, d.Patient.ID, key)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			s.logReuse(existing)
			return existing, true, nil
		}
	}

	affiliateID, err := s.resolveAffiliate(ctx, d)
	if err != nil {
		return nil, false, err
	}

	order, items, address := s.build(d, in, affiliateID)
	if key != "" {
		order.IdempotencyKey = &key
	}
	if !order.ComputedTotal().Equal(order.Total) || !order.Total.Equal(in.Split.Total) {
		s.log.Error("order totals do not reconcile",
			zap.String("total", order.Total.StringFixed(2)),
			zap.String("computed_total", order.ComputedTotal().StringFixed(2)),
			zap.String("split_total", in.Split.Total.StringFixed(2)),
		)
		return nil, false, domain.ErrTotalMismatch
	}

	maxAttempts := s.cfg.Get().OrderNumberMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		order.OrderNumber = s.numbers.Next()
		var existing *domain.Order
		var patientErr error
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			patient, err := s.resolvePatient(ctx, tx, d)
			if err != nil {
				patientErr = err
				return err
			}
			order.UserID = patient.ID
			if key != "" && d.Patient == nil {
				existing, err = s.repo.FindByIdempotencyKey(ctx, tx, patient.ID, key)
				if err != nil || existing != nil {
					return err
				}
			}

			if err := s.repo.Insert(ctx, tx, order); err != nil {
				return err
			}
			if err := s.repo.InsertItems(ctx, tx, items); err != nil {
				return err
			}
			if address != nil {
				if err := s.repo.InsertShippingAddress(ctx, tx, address); err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil && existing != nil {
			s.logReuse(existing)
			return existing, true, nil
		}
		if err == nil {
			break
		}
		if patientErr != nil {
			return nil, false, patientErr
		}

		if dbpkg.IsUniqueViolationOn(err, "order_number") {
			s.obsMetrics.RecordOrderNumberCollision(ctx)
			s.log.Warn("order number collision",
				zap.String("order_number", order.OrderNumber),
				zap.Int("attempt", attempt),
			)
			if attempt >= maxAttempts {
				return nil, false, domain.ErrOrderNumberUnavailable.Wrap(
					fmt.Errorf("%d attempts: %w", attempt, domain.ErrOrderNumberCollision.Wrap(err)))
			}
			continue
		}
		if key != "" && dbpkg.IsUniqueViolationOn(err, "idempotency") && order.UserID != uuid.Nil {
			existing, findErr := s.repo.FindByIdempotencyKey(ctx, s.db, order.UserID, key)
			if findErr != nil {
				return nil, false, findErr
			}
			if existing != nil {
				return existing, true, nil
			}
		}
		return nil, false, fmt.Errorf("insert order: %w", err)
	}

	order.Items = items
	s.log.Info("order assembled",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("tenant_id", order.TenantID.String()),
		zap.String("kind", string(order.Kind)),
		zap.String("total", order.Total.StringFixed(2)),
	)
	return order, false, nil
}

func (s *Service) logReuse(existing *domain.Order) {
	s.log.Info("reusing order for idempotency key",
		zap.String("order_id", existing.ID.String()),
		zap.String("order_number", existing.OrderNumber),
	)
}

// resolvePatient returns the signed-in patient, or finds or creates the guest
// placeholder account on db.
func (s *Service) resolvePatient(ctx context.Context, db *gorm.DB, d *domain.Draft) (*patientdomain.User, error) {
	if d.Patient != nil {
		return d.Patient, nil
	}
	details := d.Request.UserDetails
	if details == nil {
		return nil, patientdomain.ErrUserNotFound
	}
	return s.patients.FindOrCreatePlaceholder(ctx, db, d.Request.TenantID, patientdomain.Details{
		Email:     details.Email,
		FirstName: details.FirstName,
		LastName:  details.LastName,
		Phone:     details.Phone,
		State:     firstNonEmpty(details.State, d.PatientState),
	})
}

// resolveAffiliate tries the slug in the body, then the leftmost label of an
// affiliate.brand.domain host. Either candidate is only attached when the
// account holds the affiliate capability.
func (s *Service) resolveAffiliate(ctx context.Context, d *domain.Draft) (*uuid.UUID, error) {
	candidates := []string{
		strings.TrimSpace(d.Request.AffiliateSlug),
		affiliateFromHost(d.Request.Host, d.Tenant.Domain),
	}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		affiliate, err := s.patients.ResolveAffiliate(ctx, s.db, candidate)
		if err != nil {
			return nil, err
		}
		if affiliate != nil {
			return &affiliate.ID, nil
		}
		s.log.Debug("affiliate candidate rejected", zap.String("slug", candidate))
	}
	return nil, nil
}

func affiliateFromHost(host, tenantDomain string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" || net.ParseIP(host) != nil {
		return ""
	}

	var label string
	tenantDomain = strings.ToLower(strings.TrimSpace(tenantDomain))
	if tenantDomain != "" {
		prefix, ok := strings.CutSuffix(host, "."+tenantDomain)
		if !ok || strings.Contains(prefix, ".") {
			return ""
		}
		label = prefix
	} else {
		parts := strings.Split(host, ".")
		if len(parts) < 3 {
			return ""
		}
		label = parts[0]
	}

	if _, reserved := reservedSubdomains[label]; reserved {
		return ""
	}
	return label
}

func (s *Service) build(d *domain.Draft, in domain.AssembleInput, affiliateID *uuid.UUID) (*domain.Order, []domain.OrderItem, *domain.ShippingAddress) {
	req := d.Request
	split := in.Split
	orderID := uuid.New()

	order := &domain.Order{
		ID:                      orderID,
		TenantID:                req.TenantID,
		Kind:                    req.Kind,
		Status:                  domain.StatusPending,
		Currency:                strings.ToLower(in.Currency),
		ProductsSubtotal:        d.ProductsSubtotal(),
		NonMedicalServicesFee:   d.NonMedicalFee.Round(2),
		Subtotal:                d.Subtotal().Round(2),
		Discount:                decimal.Zero,
		Tax:                     decimal.Zero,
		Shipping:                decimal.Zero,
		VisitFeeAmount:          in.Visit.Amount.Round(2),
		Total:                   d.Total(in.Visit.Amount),
		PlatformFeePercent:      split.PlatformFeePercent,
		PlatformFeeAmount:       split.PlatformFeeAmount,
		NonMedicalProfitShare:   split.NonMedicalProfitShare,
		DoctorAmount:            split.DoctorAmount,
		PharmacyWholesaleAmount: split.PharmacyWholesaleAmount,
		BrandAmount:             split.BrandAmount,
		AffiliateID:             affiliateID,
	}
	if in.Visit.VisitType != nil {
		vt := string(*in.Visit.VisitType)
		order.VisitType = &vt
	}
	switch req.Kind {
	case domain.KindProduct:
		order.TenantProductID = &d.TargetID
	case domain.KindProgram:
		order.ProgramID = &d.TargetID
	case domain.KindTreatment:
		order.TreatmentID = &d.TargetID
	}
	if len(req.QuestionnaireAnswers) > 0 {
		order.QuestionnaireAnswers = datatypes.JSON(req.QuestionnaireAnswers)
	}

	items := make([]domain.OrderItem, 0, len(d.Lines))
	for _, line := range d.Lines {
		items = append(items, domain.OrderItem{
			ID:            uuid.New(),
			OrderID:       orderID,
			ProductID:     line.ProductID,
			Name:          line.Name,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice.Round(2),
			LineTotal:     line.LineTotal(),
			WholesaleCost: line.WholesaleCost.Round(2),
			LabelText:     line.LabelText,
		})
	}

	var address *domain.ShippingAddress
	if ship := req.Shipping; ship != nil {
		country := strings.ToUpper(strings.TrimSpace(ship.Country))
		if country == "" {
			country = "US"
		}
		address = &domain.ShippingAddress{
			ID:         uuid.New(),
			OrderID:    orderID,
			Name:       strings.TrimSpace(ship.Name),
			Line1:      strings.TrimSpace(ship.Line1),
			Line2:      strings.TrimSpace(ship.Line2),
			City:       strings.TrimSpace(ship.City),
			State:      strings.ToUpper(strings.TrimSpace(ship.State)),
			PostalCode: strings.TrimSpace(ship.PostalCode),
			Country:    country,
			Phone:      strings.TrimSpace(ship.Phone),
		}
		order.ShippingAddressID = &address.ID
	}

	return order, items, address
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
