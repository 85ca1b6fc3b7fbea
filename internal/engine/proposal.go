package engine

import (
	"github.com/shopspring/decimal"

	"github.com/iho/precatorio/internal/domain"
)

// Propose prices a purchase of net at discountPct percent below face value.
// The offer is rounded to cents.
func Propose(net, discountPct decimal.Decimal) (domain.Proposal, error) {
	if err := domain.ValidateNonNegative("net", net); err != nil {
		return domain.Proposal{}, err
	}
	if err := domain.ValidatePercentage("discount_pct", discountPct); err != nil {
		return domain.Proposal{}, err
	}

	value := RoundMoney(net.Mul(one.Sub(discountPct.Shift(-2))))

	return domain.Proposal{
		DiscountPct:   discountPct,
		DiscountValue: net.Sub(value),
		Value:         value,
	}, nil
}
