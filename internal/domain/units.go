package domain

import "github.com/shopspring/decimal"

// UnitEquivalenceResult expresses a monetary amount as a count of reference units
// (e.g. minimum wages).
type UnitEquivalenceResult struct {
	SourceValue decimal.Decimal
	UnitValue   decimal.Decimal
	UnitCount   decimal.Decimal
}
