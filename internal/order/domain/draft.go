package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/carecheckout/internal/catalog/domain"
	feedomain "github.com/smallbiznis/carecheckout/internal/fee/domain"
	patientdomain "github.com/smallbiznis/carecheckout/internal/patient/domain"
	visitfeedomain "github.com/smallbiznis/carecheckout/internal/visitfee/domain"
)

// DraftLine is one priced line resolved from the catalog.
type DraftLine struct {
	ProductID     uuid.UUID
	Name          string
	Quantity      int
	UnitPrice     decimal.Decimal
	WholesaleCost decimal.Decimal
	LabelText     string
}

func (l DraftLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
}

// Draft is a validated checkout resolved against the catalog but not yet
// persisted.
type Draft struct {
	Request           CheckoutRequest
	Tenant            *catalogdomain.Tenant
	TargetID          uuid.UUID
	Lines             []DraftLine
	NonMedicalFee     decimal.Decimal
	QuestionnaireID   *uuid.UUID
	RecurringPriceRef *string
	PlanType          string
	// Patient is set when the caller is authenticated.
	Patient      *patientdomain.User
	PatientState string
}

// ProductsSubtotal sums the line totals.
func (d Draft) ProductsSubtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range d.Lines {
		sum = sum.Add(line.LineTotal())
	}
	return sum
}

// Subtotal is the products subtotal plus any non-medical services fee.
func (d Draft) Subtotal() decimal.Decimal {
	return d.ProductsSubtotal().Add(d.NonMedicalFee)
}

// Total adds the visit fee to the subtotal. Discount, tax and shipping are
// not charged at checkout.
func (d Draft) Total(visitFee decimal.Decimal) decimal.Decimal {
	return d.Subtotal().Add(visitFee).Round(2)
}

// SplitInput is what the fee calculator needs for this draft.
func (d Draft) SplitInput(visitFee decimal.Decimal) feedomain.SplitInput {
	lines := make([]feedomain.SplitLine, 0, len(d.Lines))
	for _, line := range d.Lines {
		lines = append(lines, feedomain.SplitLine{WholesaleCost: line.WholesaleCost, Quantity: line.Quantity})
	}
	return feedomain.SplitInput{
		Total:                 d.Total(visitFee),
		ProductsSubtotal:      d.ProductsSubtotal(),
		NonMedicalServicesFee: d.NonMedicalFee,
		Lines:                 lines,
	}
}

// AssembleInput carries everything needed to persist the order aggregate.
type AssembleInput struct {
	Draft    *Draft
	Visit    visitfeedomain.Resolution
	Split    feedomain.Split
	Currency string
}

// PersistedSplit rebuilds the fee split stored on the order row.
func (o Order) PersistedSplit() feedomain.Split {
	return feedomain.Split{
		Total:                   o.Total,
		ProductsSubtotal:        o.ProductsSubtotal,
		NonMedicalServicesFee:   o.NonMedicalServicesFee,
		PlatformFeePercent:      o.PlatformFeePercent,
		PlatformFeeAmount:       o.PlatformFeeAmount,
		NonMedicalProfitShare:   o.NonMedicalProfitShare,
		DoctorAmount:            o.DoctorAmount,
		PharmacyWholesaleAmount: o.PharmacyWholesaleAmount,
		BrandAmount:             o.BrandAmount,
	}
}

// Visit returns the visit fee resolution the order was priced with.
func (o Order) Visit() visitfeedomain.Resolution {
	res := visitfeedomain.Resolution{Amount: o.VisitFeeAmount}
	if o.VisitType != nil {
		vt := visitfeedomain.VisitType(*o.VisitType)
		res.VisitType = &vt
	}
	return res
}
