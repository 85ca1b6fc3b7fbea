package domain

import (
	"errors"
	"fmt"
)

var (
	// Resolver errors
	ErrInvalidRange         = errors.New("range start is after range end")
	ErrEmptyTable           = errors.New("index table has no entries")
	ErrUnsupportedTableKind = errors.New("index table kind cannot be compounded")

	// Calculator errors
	ErrNegativeAmount    = errors.New("amount must not be negative")
	ErrInvalidDateRange  = errors.New("target date is before base date")
	ErrInvalidPercentage = errors.New("percentage must be between 0 and 100")
	ErrInvalidUnitValue  = errors.New("unit value must be positive")
	ErrNoReferenceValue  = errors.New("no reference value effective at date")
	ErrInvalidDate       = errors.New("invalid date, expected YYYY-MM-DD")

	// Index table errors
	ErrInvalidTableKind  = errors.New("invalid index table kind")
	ErrDuplicateEntry    = errors.New("duplicate effective date in index table")
	ErrInvalidTableName  = errors.New("invalid index table name")
	ErrInvalidEntryValue = errors.New("invalid index entry value")
	ErrInvalidEntryDate  = errors.New("invalid index entry date")

	// Reference store errors
	ErrTableNotFound = errors.New("index table not found")
	ErrNoSnapshot    = errors.New("no index snapshot published")
)

// FieldError carries the offending field and value of a failed validation.
// errors.Is matches the wrapped sentinel.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s=%s", e.Err.Error(), e.Field, e.Value)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldError(err error, field string, value fmt.Stringer) error {
	return &FieldError{Field: field, Value: value.String(), Err: err}
}
