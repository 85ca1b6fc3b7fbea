package engine

import (
	"github.com/shopspring/decimal"

	"github.com/iho/precatorio/internal/domain"
)

// UnitPrecision is the number of decimal places kept by ToUnits.
const UnitPrecision = 16

// ToUnits converts sourceValue into a count of units worth unitValue each.
// The count is not rounded for display.
func ToUnits(sourceValue, unitValue decimal.Decimal) (domain.UnitEquivalenceResult, error) {
	if err := domain.ValidateUnitValue("unit_value", unitValue); err != nil {
		return domain.UnitEquivalenceResult{}, err
	}

	return domain.UnitEquivalenceResult{
		SourceValue: sourceValue,
		UnitValue:   unitValue,
		UnitCount:   sourceValue.DivRound(unitValue, UnitPrecision),
	}, nil
}
