package engine

import (
	"github.com/shopspring/decimal"

	"github.com/iho/precatorio/internal/domain"
)

// MoneyPlaces is the number of decimal places of a rounded monetary value.
const MoneyPlaces = 2

var one = decimal.NewFromInt(1)

// RoundMoney rounds half-up to cents. Inputs are non-negative, where
// shopspring's half-away-from-zero rounding is half-up.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Correct applies the principal table's factor over [BaseDate, TargetDate].
//
// Interest and penalty pass through unchanged unless interestTable is given,
// in which case their subtotal is corrected by that table over the same window.
// Only Total is rounded.
func Correct(input domain.CorrectionInput, principalTable, interestTable *domain.IndexTable) (domain.CorrectionResult, error) {
	if err := input.Validate(); err != nil {
		return domain.CorrectionResult{}, err
	}

	principalFactor, err := ResolveFactor(principalTable, input.BaseDate, input.TargetDate)
	if err != nil {
		return domain.CorrectionResult{}, err
	}

	result := domain.CorrectionResult{
		PrincipalComponent:  input.Principal,
		CorrectionComponent: input.Principal.Mul(principalFactor.Factor.Sub(one)),
		InterestComponent:   input.Interest.Add(input.Penalty),
		PrincipalFactor:     principalFactor,
	}

	if interestTable != nil {
		interestFactor, err := ResolveFactor(interestTable, input.BaseDate, input.TargetDate)
		if err != nil {
			return domain.CorrectionResult{}, err
		}
		result.InterestComponent = result.InterestComponent.Mul(interestFactor.Factor)
		result.InterestFactor = &interestFactor
	}

	result.Total = RoundMoney(result.PrincipalComponent.
		Add(result.InterestComponent).
		Add(result.CorrectionComponent))

	return result, nil
}
