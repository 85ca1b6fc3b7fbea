// Package engine implements the monetary correction and withholding calculators.
// Every function is pure: results depend only on the arguments, and index tables
// are read, never modified.
package engine

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/iho/precatorio/internal/domain"
)

// ResolveFactor compounds the table entries effective in the closed window [start, end].
//
// Factor tables multiply their values; rate tables return 1 + Σ(rate)/100.
// A window with no entries yields the neutral factor 1 with EntriesMatched == 0.
func ResolveFactor(table *domain.IndexTable, start, end civil.Date) (domain.FactorResolution, error) {
	if start.After(end) {
		return domain.FactorResolution{}, &domain.FieldError{
			Field: "start",
			Value: fmt.Sprintf("%s > %s", start, end),
			Err:   domain.ErrInvalidRange,
		}
	}

	if table.Len() == 0 {
		name := ""
		if table != nil {
			name = table.Name
		}
		return domain.FactorResolution{}, &domain.FieldError{Field: "table", Value: name, Err: domain.ErrEmptyTable}
	}

	window := table.Window(start, end)

	var factor decimal.Decimal
	switch table.Kind {
	case domain.KindFactor:
		factor = decimal.NewFromInt(1)
		for _, e := range window {
			factor = factor.Mul(e.Value)
		}
	case domain.KindRate:
		sum := decimal.Zero
		for _, e := range window {
			sum = sum.Add(e.Value)
		}
		factor = decimal.NewFromInt(1).Add(sum.Shift(-2))
	default:
		return domain.FactorResolution{}, &domain.FieldError{
			Field: "table.kind",
			Value: string(table.Kind),
			Err:   domain.ErrUnsupportedTableKind,
		}
	}

	return domain.FactorResolution{
		Table:          table.Name,
		Kind:           table.Kind,
		Start:          start,
		End:            end,
		Factor:         factor,
		EntriesMatched: len(window),
	}, nil
}
