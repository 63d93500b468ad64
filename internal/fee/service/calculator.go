package service

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/carecheckout/internal/fee/domain"
)

var hundred = decimal.NewFromInt(100)

// Calculate splits input.Total between the platform, the prescribing
// clinician, the pharmacy and the brand. It performs no I/O.
//
// The platform takes a percentage of the total and, for programs, a share of
// the non-medical services fee. The clinician takes a flat fee regardless of
// order size, the pharmacy is passed its wholesale cost, and the brand keeps
// the residual. When fees exceed the total the brand residual is clamped at
// zero and the overrun is left on the split as Shortfall.
func Calculate(rates domain.Rates, input domain.SplitInput) (domain.Split, error) {
	if input.Total.IsNegative() {
		return domain.Split{}, domain.ErrInvalidTotal
	}
	if input.ProductsSubtotal.IsNegative() || input.NonMedicalServicesFee.IsNegative() {
		return domain.Split{}, domain.ErrInvalidAmount
	}

	total := input.Total.Round(2)
	platformFee := nonNegative(rates.PlatformFeePercent.Div(hundred).Mul(input.Total)).Round(2)

	nonMedicalShare := decimal.Zero
	if input.NonMedicalServicesFee.IsPositive() {
		nonMedicalShare = nonNegative(rates.NonMedicalProfitPercent.Div(hundred).Mul(input.NonMedicalServicesFee)).Round(2)
	}

	doctor := nonNegative(rates.ClinicianFlatFee).Round(2)

	wholesale := decimal.Zero
	for _, line := range input.Lines {
		if line.WholesaleCost.IsNegative() || line.Quantity < 0 {
			return domain.Split{}, domain.ErrInvalidAmount
		}
		wholesale = wholesale.Add(line.WholesaleCost.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	wholesale = wholesale.Round(2)

	brand := nonNegative(total.
		Sub(platformFee).
		Sub(nonMedicalShare).
		Sub(doctor).
		Sub(wholesale))

	return domain.Split{
		Total:                   total,
		ProductsSubtotal:        input.ProductsSubtotal.Round(2),
		NonMedicalServicesFee:   input.NonMedicalServicesFee.Round(2),
		PlatformFeePercent:      rates.PlatformFeePercent,
		PlatformFeeAmount:       platformFee,
		NonMedicalProfitShare:   nonMedicalShare,
		DoctorAmount:            doctor,
		PharmacyWholesaleAmount: wholesale,
		BrandAmount:             brand,
	}, nil
}

func nonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
