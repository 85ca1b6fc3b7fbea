package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Proposal is a purchase offer for the net credit at a discount.
type Proposal struct {
	DiscountPct   decimal.Decimal
	DiscountValue decimal.Decimal
	Value         decimal.Decimal
}

// CaseCalculation is the full result of one credit: correction, withholdings,
// optional unit equivalence of the interest portion and optional proposal.
type CaseCalculation struct {
	ID              string
	Reference       string
	SnapshotVersion string
	CalculatedAt    time.Time

	Correction    CorrectionResult
	Apportionment ApportionmentResult
	Units         *UnitEquivalenceResult
	Proposal      *Proposal
}
