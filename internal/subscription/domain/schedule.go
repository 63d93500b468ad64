package domain

import (
	paymentdomain "github.com/smallbiznis/carecheckout/internal/payment/domain"
)

// BuildPhases returns the billing phases for plan: the intro price for
// IntroDurationMonths iterations, then the ongoing price with no limit. A plan
// without intro pricing has the single open-ended phase.
func BuildPhases(plan BrandPlan) []paymentdomain.Phase {
	regular := paymentdomain.Phase{PriceRef: plan.PriceRef}
	if !plan.HasIntro() {
		return []paymentdomain.Phase{regular}
	}
	months := int64(plan.IntroDurationMonths)
	return []paymentdomain.Phase{
		{PriceRef: *plan.IntroPriceRef, Iterations: &months},
		regular,
	}
}

// Describe renders phases for storage alongside the subscription.
func Describe(plan BrandPlan, phases []paymentdomain.Phase) ScheduleDescriptor {
	out := ScheduleDescriptor{Phases: make([]PhaseDescriptor, 0, len(phases))}
	if plan.HasIntro() {
		out.IntroductoryPlanType = plan.PlanType
		out.IntroductoryPriceRef = *plan.IntroPriceRef
		out.NextPlanType = plan.AfterIntroPlanType()
		out.NextPriceRef = plan.PriceRef
	}
	for i, phase := range phases {
		amount := plan.Amount
		if i == 0 && len(phases) > 1 && plan.IntroAmount.Valid {
			amount = plan.IntroAmount.Decimal
		}
		out.Phases = append(out.Phases, PhaseDescriptor{
			PriceRef:   phase.PriceRef,
			Amount:     amount.StringFixed(2),
			Iterations: phase.Iterations,
		})
	}
	return out
}
