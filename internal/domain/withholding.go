package domain

import "github.com/shopspring/decimal"

// WithholdingParams are the percentages withheld from a gross payout.
type WithholdingParams struct {
	SocialContributionPct decimal.Decimal
	IncomeTaxPct          decimal.Decimal
	IncomeTaxExempt       bool
	AttorneyFeePct        decimal.Decimal
	AdvancePct            decimal.Decimal
}

// Validate checks that every percentage lies in [0, 100].
func (p WithholdingParams) Validate() error {
	checks := []struct {
		field string
		value decimal.Decimal
	}{
		{"social_contribution_pct", p.SocialContributionPct},
		{"income_tax_pct", p.IncomeTaxPct},
		{"attorney_fee_pct", p.AttorneyFeePct},
		{"advance_pct", p.AdvancePct},
	}

	for _, c := range checks {
		if err := ValidatePercentage(c.field, c.value); err != nil {
			return err
		}
	}

	return nil
}

// TotalPct returns the sum of the effective percentages.
func (p WithholdingParams) TotalPct() decimal.Decimal {
	total := p.SocialContributionPct.Add(p.AttorneyFeePct).Add(p.AdvancePct)
	if !p.IncomeTaxExempt {
		total = total.Add(p.IncomeTaxPct)
	}
	return total
}

// Deduction is one named withholding amount.
type Deduction struct {
	Name  string
	Value decimal.Decimal
}

// Deduction names, in reporting order.
const (
	DeductionSocialContribution = "social_contribution"
	DeductionIncomeTax          = "income_tax"
	DeductionAttorneyFee        = "attorney_fee"
	DeductionAdvance            = "advance"
)

// ApportionmentResult is the split of a gross value into deductions and net.
type ApportionmentResult struct {
	GrossTotal              decimal.Decimal
	SocialContributionValue decimal.Decimal
	IncomeTaxValue          decimal.Decimal
	AttorneyFeeValue        decimal.Decimal
	AdvanceValue            decimal.Decimal
	NetValue                decimal.Decimal
	// Clamped is set when deductions exceeded gross and NetValue was floored at zero.
	Clamped bool
}

// Deductions returns the deductions in their fixed reporting order.
func (r ApportionmentResult) Deductions() []Deduction {
	return []Deduction{
		{Name: DeductionSocialContribution, Value: r.SocialContributionValue},
		{Name: DeductionIncomeTax, Value: r.IncomeTaxValue},
		{Name: DeductionAttorneyFee, Value: r.AttorneyFeeValue},
		{Name: DeductionAdvance, Value: r.AdvanceValue},
	}
}

// TotalDeductions sums all deductions.
func (r ApportionmentResult) TotalDeductions() decimal.Decimal {
	return r.SocialContributionValue.
		Add(r.IncomeTaxValue).
		Add(r.AttorneyFeeValue).
		Add(r.AdvanceValue)
}
