package domain

import (
	"fmt"
	"regexp"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxTableNameLength = 64
)

var (
	hundred        = decimal.NewFromInt(100)
	tableNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]*$`)
)

// ValidateNonNegative rejects negative monetary amounts.
func ValidateNonNegative(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fieldError(ErrNegativeAmount, field, amount)
	}
	return nil
}

// ValidatePercentage rejects percentages outside [0, 100].
func ValidatePercentage(field string, pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return fieldError(ErrInvalidPercentage, field, pct)
	}
	return nil
}

// ValidateUnitValue rejects non-positive unit values.
func ValidateUnitValue(field string, unit decimal.Decimal) error {
	if unit.LessThanOrEqual(decimal.Zero) {
		return fieldError(ErrInvalidUnitValue, field, unit)
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// ValidateTableName validates an index table name.
func ValidateTableName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidTableName)
	}

	if len(name) > MaxTableNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidTableName, MaxTableNameLength)
	}

	if !tableNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q must be lowercase letters, digits, '_' or '-'", ErrInvalidTableName, name)
	}

	return nil
}
