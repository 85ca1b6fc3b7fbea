package dto

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/iho/precatorio/internal/domain"
	"github.com/iho/precatorio/internal/usecase"
)

// Decimals marshal as JSON strings.

// FactorResponse represents a factor resolution in API responses.
type FactorResponse struct {
	Table          string          `json:"table"`
	Kind           string          `json:"kind"`
	Start          civil.Date      `json:"start"`
	End            civil.Date      `json:"end"`
	Factor         decimal.Decimal `json:"factor"`
	EntriesMatched int             `json:"entries_matched"`
}

// FactorFromDomain converts a domain factor resolution to response.
func FactorFromDomain(r domain.FactorResolution) *FactorResponse {
	return &FactorResponse{
		Table:          r.Table,
		Kind:           string(r.Kind),
		Start:          r.Start,
		End:            r.End,
		Factor:         r.Factor,
		EntriesMatched: r.EntriesMatched,
	}
}

// CorrectionResponse represents a correction result in API responses.
type CorrectionResponse struct {
	PrincipalComponent  decimal.Decimal `json:"principal_component"`
	InterestComponent   decimal.Decimal `json:"interest_component"`
	CorrectionComponent decimal.Decimal `json:"correction_component"`
	Total               decimal.Decimal `json:"total"`
	PrincipalFactor     *FactorResponse `json:"principal_factor"`
	InterestFactor      *FactorResponse `json:"interest_factor,omitempty"`
}

// CorrectionFromDomain converts a domain correction result to response.
func CorrectionFromDomain(r domain.CorrectionResult) *CorrectionResponse {
	resp := &CorrectionResponse{
		PrincipalComponent:  r.PrincipalComponent,
		InterestComponent:   r.InterestComponent,
		CorrectionComponent: r.CorrectionComponent,
		Total:               r.Total,
		PrincipalFactor:     FactorFromDomain(r.PrincipalFactor),
	}
	if r.InterestFactor != nil {
		resp.InterestFactor = FactorFromDomain(*r.InterestFactor)
	}
	return resp
}

// DeductionResponse is one named withholding.
type DeductionResponse struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// ApportionmentResponse represents an apportionment in API responses.
type ApportionmentResponse struct {
	GrossTotal      decimal.Decimal     `json:"gross_total"`
	Deductions      []DeductionResponse `json:"deductions"`
	TotalDeductions decimal.Decimal     `json:"total_deductions"`
	NetValue        decimal.Decimal     `json:"net_value"`
	Clamped         bool                `json:"clamped"`
}

// ApportionmentFromDomain converts a domain apportionment to response.
func ApportionmentFromDomain(r domain.ApportionmentResult) *ApportionmentResponse {
	deductions := r.Deductions()
	items := make([]DeductionResponse, len(deductions))
	for i, d := range deductions {
		items[i] = DeductionResponse{Name: d.Name, Value: d.Value}
	}

	return &ApportionmentResponse{
		GrossTotal:      r.GrossTotal,
		Deductions:      items,
		TotalDeductions: r.TotalDeductions(),
		NetValue:        r.NetValue,
		Clamped:         r.Clamped,
	}
}

// UnitEquivalenceResponse represents a unit equivalence in API responses.
type UnitEquivalenceResponse struct {
	SourceValue decimal.Decimal `json:"source_value"`
	UnitValue   decimal.Decimal `json:"unit_value"`
	UnitCount   decimal.Decimal `json:"unit_count"`
}

// UnitEquivalenceFromDomain converts a domain unit equivalence to response.
func UnitEquivalenceFromDomain(r domain.UnitEquivalenceResult) *UnitEquivalenceResponse {
	return &UnitEquivalenceResponse{
		SourceValue: r.SourceValue,
		UnitValue:   r.UnitValue,
		UnitCount:   r.UnitCount,
	}
}

// ProposalResponse represents a purchase proposal in API responses.
type ProposalResponse struct {
	DiscountPct   decimal.Decimal `json:"discount_pct"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	Value         decimal.Decimal `json:"value"`
}

// CalculationResponse represents a full case calculation in API responses.
type CalculationResponse struct {
	ID              string                   `json:"id"`
	Reference       string                   `json:"reference,omitempty"`
	SnapshotVersion string                   `json:"snapshot_version"`
	CalculatedAt    time.Time                `json:"calculated_at"`
	Correction      *CorrectionResponse      `json:"correction"`
	Apportionment   *ApportionmentResponse   `json:"apportionment"`
	Units           *UnitEquivalenceResponse `json:"units,omitempty"`
	Proposal        *ProposalResponse        `json:"proposal,omitempty"`
}

// CalculationFromDomain converts a domain case calculation to response.
func CalculationFromDomain(c *domain.CaseCalculation) *CalculationResponse {
	resp := &CalculationResponse{
		ID:              c.ID,
		Reference:       c.Reference,
		SnapshotVersion: c.SnapshotVersion,
		CalculatedAt:    c.CalculatedAt,
		Correction:      CorrectionFromDomain(c.Correction),
		Apportionment:   ApportionmentFromDomain(c.Apportionment),
	}
	if c.Units != nil {
		resp.Units = UnitEquivalenceFromDomain(*c.Units)
	}
	if c.Proposal != nil {
		resp.Proposal = &ProposalResponse{
			DiscountPct:   c.Proposal.DiscountPct,
			DiscountValue: c.Proposal.DiscountValue,
			Value:         c.Proposal.Value,
		}
	}
	return resp
}

// BatchItemResponse is the outcome of one batch item.
type BatchItemResponse struct {
	Index       int                  `json:"index"`
	Reference   string               `json:"reference,omitempty"`
	Calculation *CalculationResponse `json:"calculation,omitempty"`
	Error       *ErrorResponse       `json:"error,omitempty"`
}

// BatchCalculationResponse represents a batch calculation in API responses.
type BatchCalculationResponse struct {
	Items     []BatchItemResponse `json:"items"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

// BatchFromUseCase converts batch results to response.
func BatchFromUseCase(results []usecase.BatchItemResult) *BatchCalculationResponse {
	resp := &BatchCalculationResponse{Items: make([]BatchItemResponse, len(results))}
	for i, r := range results {
		item := BatchItemResponse{Index: r.Index, Reference: r.Reference}
		if r.Err != nil {
			item.Error = &ErrorResponse{Error: "calculation failed", Message: r.Err.Error()}
			resp.Failed++
		} else {
			item.Calculation = CalculationFromDomain(r.Calculation)
			resp.Succeeded++
		}
		resp.Items[i] = item
	}
	return resp
}

// IndexSummaryResponse describes one table without its entries.
type IndexSummaryResponse struct {
	Name        string      `json:"name"`
	Kind        string      `json:"kind"`
	Description string      `json:"description,omitempty"`
	Entries     int         `json:"entries"`
	FirstDate   *civil.Date `json:"first_date,omitempty"`
	LastDate    *civil.Date `json:"last_date,omitempty"`
}

// IndexEntryResponse is one dated table value.
type IndexEntryResponse struct {
	Date  civil.Date      `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// IndexTableResponse is a full table.
type IndexTableResponse struct {
	IndexSummaryResponse
	SnapshotVersion string               `json:"snapshot_version"`
	Values          []IndexEntryResponse `json:"values"`
}

// IndexListResponse lists the tables of the published snapshot.
type IndexListResponse struct {
	Version  string                 `json:"version"`
	LoadedAt time.Time              `json:"loaded_at"`
	Tables   []IndexSummaryResponse `json:"tables"`
}

// IndexSummaryFromDomain converts a domain table to a summary.
func IndexSummaryFromDomain(t *domain.IndexTable) IndexSummaryResponse {
	resp := IndexSummaryResponse{
		Name:        t.Name,
		Kind:        string(t.Kind),
		Description: t.Description,
		Entries:     t.Len(),
	}
	if t.Len() > 0 {
		first, last := t.FirstDate(), t.LastDate()
		resp.FirstDate = &first
		resp.LastDate = &last
	}
	return resp
}

// IndexTableFromDomain converts a domain table to a full response.
func IndexTableFromDomain(version string, t *domain.IndexTable) *IndexTableResponse {
	entries := t.Entries()
	values := make([]IndexEntryResponse, len(entries))
	for i, e := range entries {
		values[i] = IndexEntryResponse{Date: e.EffectiveDate, Value: e.Value}
	}

	return &IndexTableResponse{
		IndexSummaryResponse: IndexSummaryFromDomain(t),
		SnapshotVersion:      version,
		Values:               values,
	}
}

// IndexListFromDomain converts a snapshot to a table listing.
func IndexListFromDomain(s *domain.IndexSnapshot) *IndexListResponse {
	tables := s.Tables()
	summaries := make([]IndexSummaryResponse, len(tables))
	for i, t := range tables {
		summaries[i] = IndexSummaryFromDomain(t)
	}

	return &IndexListResponse{
		Version:  s.Version,
		LoadedAt: s.LoadedAt,
		Tables:   summaries,
	}
}

// RefreshResponse describes a completed refresh.
type RefreshResponse struct {
	Version  string    `json:"version"`
	LoadedAt time.Time `json:"loaded_at"`
	Source   string    `json:"source"`
	Tables   int       `json:"tables"`
	Entries  int       `json:"entries"`
	Warning  string    `json:"warning,omitempty"`
}

// RefreshFromUseCase converts a refresh result to response. warning carries a
// non-fatal refresh error.
func RefreshFromUseCase(r *usecase.RefreshResult, warning error) *RefreshResponse {
	resp := &RefreshResponse{
		Version:  r.Snapshot.Version,
		LoadedAt: r.Snapshot.LoadedAt,
		Source:   r.Source,
		Tables:   len(r.Snapshot.Tables()),
		Entries:  r.Snapshot.EntryCount(),
	}
	switch {
	case warning != nil:
		resp.Warning = warning.Error()
	case r.SourceErr != nil:
		resp.Warning = r.SourceErr.Error()
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}
