package engine

import (
	"github.com/shopspring/decimal"

	"github.com/iho/precatorio/internal/domain"
)

// Apportion withholds each percentage from the same gross value.
//
// Deductions do not cascade. Income tax is zero when the credit is exempt.
// Net is floored at zero. Clamped is set when deductions exceed gross or when
// the effective percentages sum to more than 100, even on a zero gross.
func Apportion(gross decimal.Decimal, params domain.WithholdingParams) (domain.ApportionmentResult, error) {
	if err := domain.ValidateNonNegative("gross", gross); err != nil {
		return domain.ApportionmentResult{}, err
	}
	if err := params.Validate(); err != nil {
		return domain.ApportionmentResult{}, err
	}

	result := domain.ApportionmentResult{
		GrossTotal:              gross,
		SocialContributionValue: percentOf(gross, params.SocialContributionPct),
		IncomeTaxValue:          decimal.Zero,
		AttorneyFeeValue:        percentOf(gross, params.AttorneyFeePct),
		AdvanceValue:            percentOf(gross, params.AdvancePct),
	}
	if !params.IncomeTaxExempt {
		result.IncomeTaxValue = percentOf(gross, params.IncomeTaxPct)
	}

	net := gross.Sub(result.TotalDeductions())
	if net.IsNegative() {
		net = decimal.Zero
		result.Clamped = true
	}
	if params.TotalPct().GreaterThan(hundred) {
		result.Clamped = true
	}
	result.NetValue = net

	return result, nil
}

var hundred = decimal.NewFromInt(100)

// percentOf returns amount × pct / 100 without division rounding.
func percentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Shift(-2)
}
