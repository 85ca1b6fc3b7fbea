package dto

import (
	"errors"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/iho/precatorio/internal/domain"
	"github.com/iho/precatorio/internal/usecase"
)

// ErrMissingField is returned when a required request field is absent.
var ErrMissingField = errors.New("missing required field")

// Decimal fields accept JSON strings ("1000.00") or numbers. Dates are YYYY-MM-DD.

// CorrectionRequest represents a request to correct a credit.
type CorrectionRequest struct {
	Principal      decimal.Decimal `json:"principal"`
	Interest       decimal.Decimal `json:"interest"`
	Penalty        decimal.Decimal `json:"penalty"`
	BaseDate       civil.Date      `json:"base_date"`
	TargetDate     civil.Date      `json:"target_date"`
	PrincipalTable string          `json:"principal_table"`
	InterestTable  string          `json:"interest_table,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CorrectionRequest) ToUseCaseInput() (usecase.CorrectInput, error) {
	if r.PrincipalTable == "" {
		return usecase.CorrectInput{}, missing("principal_table")
	}
	if err := requireDate("base_date", r.BaseDate); err != nil {
		return usecase.CorrectInput{}, err
	}
	if err := requireDate("target_date", r.TargetDate); err != nil {
		return usecase.CorrectInput{}, err
	}

	return usecase.CorrectInput{
		Correction: domain.CorrectionInput{
			Principal:  r.Principal,
			Interest:   r.Interest,
			Penalty:    r.Penalty,
			BaseDate:   r.BaseDate,
			TargetDate: r.TargetDate,
		},
		PrincipalTable: r.PrincipalTable,
		InterestTable:  r.InterestTable,
	}, nil
}

// WithholdingRequest holds withholding percentages.
type WithholdingRequest struct {
	SocialContributionPct decimal.Decimal `json:"social_contribution_pct"`
	IncomeTaxPct          decimal.Decimal `json:"income_tax_pct"`
	IncomeTaxExempt       bool            `json:"income_tax_exempt"`
	AttorneyFeePct        decimal.Decimal `json:"attorney_fee_pct"`
	AdvancePct            decimal.Decimal `json:"advance_pct"`
}

// ToDomain converts to domain withholding params.
func (r WithholdingRequest) ToDomain() domain.WithholdingParams {
	return domain.WithholdingParams{
		SocialContributionPct: r.SocialContributionPct,
		IncomeTaxPct:          r.IncomeTaxPct,
		IncomeTaxExempt:       r.IncomeTaxExempt,
		AttorneyFeePct:        r.AttorneyFeePct,
		AdvancePct:            r.AdvancePct,
	}
}

// ApportionmentRequest represents a request to apportion a gross value.
type ApportionmentRequest struct {
	Gross       decimal.Decimal    `json:"gross"`
	Withholding WithholdingRequest `json:"withholding"`
}

// ToUseCaseInput converts to use case input.
func (r *ApportionmentRequest) ToUseCaseInput() usecase.ApportionInput {
	return usecase.ApportionInput{
		Gross:  r.Gross,
		Params: r.Withholding.ToDomain(),
	}
}

// UnitEquivalenceRequest represents a request to express an amount in units.
// Without unit_value, date selects the minimum wage in force.
type UnitEquivalenceRequest struct {
	SourceValue decimal.Decimal  `json:"source_value"`
	UnitValue   *decimal.Decimal `json:"unit_value,omitempty"`
	Date        civil.Date       `json:"date"`
}

// ToUseCaseInput converts to use case input.
func (r *UnitEquivalenceRequest) ToUseCaseInput() (usecase.ToUnitsInput, error) {
	if r.UnitValue == nil {
		if err := requireDate("date", r.Date); err != nil {
			return usecase.ToUnitsInput{}, err
		}
	}

	return usecase.ToUnitsInput{
		SourceValue: r.SourceValue,
		UnitValue:   r.UnitValue,
		Date:        r.Date,
	}, nil
}

// CalculationRequest represents a request to run the full case calculation.
type CalculationRequest struct {
	Reference           string             `json:"reference,omitempty"`
	Correction          CorrectionRequest  `json:"correction"`
	Withholding         WithholdingRequest `json:"withholding"`
	UnitValue           *decimal.Decimal   `json:"unit_value,omitempty"`
	UnitsSource         string             `json:"units_source,omitempty"`
	ProposalDiscountPct *decimal.Decimal   `json:"proposal_discount_pct,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CalculationRequest) ToUseCaseInput() (usecase.CalculateInput, error) {
	correction, err := r.Correction.ToUseCaseInput()
	if err != nil {
		return usecase.CalculateInput{}, err
	}

	return usecase.CalculateInput{
		Reference:           r.Reference,
		Correction:          correction.Correction,
		PrincipalTable:      correction.PrincipalTable,
		InterestTable:       correction.InterestTable,
		Withholding:         r.Withholding.ToDomain(),
		UnitValue:           r.UnitValue,
		UnitsSource:         usecase.UnitsSource(r.UnitsSource),
		ProposalDiscountPct: r.ProposalDiscountPct,
	}, nil
}

// BatchCalculationRequest represents a request to calculate many credits.
type BatchCalculationRequest struct {
	Items []CalculationRequest `json:"items"`
}

// ToUseCaseInput converts to use case input. The first malformed item fails
// the whole request.
func (r *BatchCalculationRequest) ToUseCaseInput() ([]usecase.CalculateInput, error) {
	inputs := make([]usecase.CalculateInput, len(r.Items))
	for i := range r.Items {
		input, err := r.Items[i].ToUseCaseInput()
		if err != nil {
			var fe *domain.FieldError
			if errors.As(err, &fe) {
				fe.Field = "items[" + strconv.Itoa(i) + "]." + fe.Field
			}
			return nil, err
		}
		inputs[i] = input
	}
	return inputs, nil
}

// FactorQuery holds the parsed query of a factor request.
type FactorQuery struct {
	Start civil.Date
	End   civil.Date
}

// ParseFactorQuery parses start and end, both YYYY-MM-DD.
func ParseFactorQuery(start, end string) (FactorQuery, error) {
	if start == "" {
		return FactorQuery{}, missing("start")
	}
	if end == "" {
		return FactorQuery{}, missing("end")
	}

	s, err := domain.ParseDate(start)
	if err != nil {
		return FactorQuery{}, &domain.FieldError{Field: "start", Value: start, Err: domain.ErrInvalidDate}
	}
	e, err := domain.ParseDate(end)
	if err != nil {
		return FactorQuery{}, &domain.FieldError{Field: "end", Value: end, Err: domain.ErrInvalidDate}
	}

	return FactorQuery{Start: s, End: e}, nil
}

func missing(field string) error {
	return &domain.FieldError{Field: field, Value: "", Err: ErrMissingField}
}

func requireDate(field string, d civil.Date) error {
	if d == (civil.Date{}) {
		return missing(field)
	}
	if !d.IsValid() {
		return &domain.FieldError{Field: field, Value: d.String(), Err: domain.ErrInvalidDate}
	}
	return nil
}
