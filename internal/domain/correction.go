package domain

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// FactorResolution is the compounded factor of a table over a closed date window.
type FactorResolution struct {
	Table          string
	Kind           TableKind
	Start          civil.Date
	End            civil.Date
	Factor         decimal.Decimal
	EntriesMatched int
}

// Neutral reports whether no entry fell inside the window.
func (r FactorResolution) Neutral() bool {
	return r.EntriesMatched == 0
}

// CorrectionInput holds the raw amounts of a credit and the correction window.
type CorrectionInput struct {
	Principal  decimal.Decimal
	Interest   decimal.Decimal
	Penalty    decimal.Decimal
	BaseDate   civil.Date
	TargetDate civil.Date
}

// Validate checks amounts and dates.
func (in CorrectionInput) Validate() error {
	if err := ValidateNonNegative("principal", in.Principal); err != nil {
		return err
	}
	if err := ValidateNonNegative("interest", in.Interest); err != nil {
		return err
	}
	if err := ValidateNonNegative("penalty", in.Penalty); err != nil {
		return err
	}
	if in.TargetDate.Before(in.BaseDate) {
		return fieldError(ErrInvalidDateRange, "target_date", in.TargetDate)
	}
	return nil
}

// CorrectionResult is the corrected value of a credit.
// Components keep full precision; only Total is rounded to cents.
type CorrectionResult struct {
	PrincipalComponent  decimal.Decimal
	InterestComponent   decimal.Decimal
	CorrectionComponent decimal.Decimal
	Total               decimal.Decimal

	PrincipalFactor FactorResolution
	// InterestFactor is nil when interest passed through uncorrected.
	InterestFactor *FactorResolution
}
