package domain

import (
	"github.com/shopspring/decimal"
)

// RoundingTolerance is the cent the allocated parties may exceed the total by
// after each figure is rounded independently.
var RoundingTolerance = decimal.New(1, -2)

// Split is the four-party allocation of one order total. Every amount is
// rounded to two decimal places on its own; BrandAmount is the residual and
// is never negative.
type Split struct {
	Total                   decimal.Decimal
	ProductsSubtotal        decimal.Decimal
	NonMedicalServicesFee   decimal.Decimal
	PlatformFeePercent      decimal.Decimal
	PlatformFeeAmount       decimal.Decimal
	NonMedicalProfitShare   decimal.Decimal
	DoctorAmount            decimal.Decimal
	PharmacyWholesaleAmount decimal.Decimal
	BrandAmount             decimal.Decimal
}

// PlatformTake is the platform's percentage fee plus its non-medical share.
func (s Split) PlatformTake() decimal.Decimal {
	return s.PlatformFeeAmount.Add(s.NonMedicalProfitShare)
}

// Allocated sums every party's amount.
func (s Split) Allocated() decimal.Decimal {
	return s.PlatformTake().
		Add(s.DoctorAmount).
		Add(s.PharmacyWholesaleAmount).
		Add(s.BrandAmount)
}

// Shortfall is how far fixed fees overran the total once the brand residual
// was clamped at zero. Nothing is rebalanced; the figure is reported so the
// shortfall is visible to reconciliation.
func (s Split) Shortfall() decimal.Decimal {
	over := s.Allocated().Sub(s.Total)
	if over.LessThanOrEqual(RoundingTolerance) {
		return decimal.Zero
	}
	return over
}

// Balanced reports whether the allocation fits the total within one cent.
func (s Split) Balanced() bool {
	return s.Allocated().LessThanOrEqual(s.Total.Add(RoundingTolerance))
}

// Metadata renders the breakdown as processor metadata values.
func (s Split) Metadata() map[string]string {
	return map[string]string{
		"total":                     s.Total.StringFixed(2),
		"products_subtotal":         s.ProductsSubtotal.StringFixed(2),
		"platform_fee_percent":      s.PlatformFeePercent.StringFixed(2),
		"platform_fee_amount":       s.PlatformFeeAmount.StringFixed(2),
		"non_medical_profit_share":  s.NonMedicalProfitShare.StringFixed(2),
		"doctor_amount":             s.DoctorAmount.StringFixed(2),
		"pharmacy_wholesale_amount": s.PharmacyWholesaleAmount.StringFixed(2),
		"brand_amount":              s.BrandAmount.StringFixed(2),
	}
}
