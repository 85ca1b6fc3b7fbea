package dto

import (
	"errors"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/iho/precatorio/internal/domain"
	"github.com/iho/precatorio/internal/usecase"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculationFromDomain(t *testing.T) {
	interest := domain.FactorResolution{Table: "selic", Kind: domain.KindRate, Factor: d("1.0204"), EntriesMatched: 2}
	calc := &domain.CaseCalculation{
		ID:              "01J0000000000000000000000",
		Reference:       "case-1",
		SnapshotVersion: "snap-1",
		CalculatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Correction: domain.CorrectionResult{
			PrincipalComponent:  d("1000"),
			InterestComponent:   d("200"),
			CorrectionComponent: d("50"),
			Total:               d("1250.00"),
			PrincipalFactor:     domain.FactorResolution{Table: "ipca-e", Kind: domain.KindFactor, Factor: d("1.05"), EntriesMatched: 1},
			InterestFactor:      &interest,
		},
		Apportionment: domain.ApportionmentResult{
			GrossTotal:              d("1250.00"),
			SocialContributionValue: d("137.5"),
			IncomeTaxValue:          d("37.5"),
			AttorneyFeeValue:        d("250"),
			AdvanceValue:            decimal.Zero,
			NetValue:                d("825"),
		},
		Proposal: &domain.Proposal{DiscountPct: d("30"), DiscountValue: d("247.50"), Value: d("577.50")},
	}

	resp := CalculationFromDomain(calc)

	if resp.Units != nil {
		t.Fatalf("expected units to be omitted")
	}
	if resp.Correction.InterestFactor == nil || resp.Correction.InterestFactor.Table != "selic" {
		t.Fatalf("expected interest factor")
	}
	if len(resp.Apportionment.Deductions) != 4 || resp.Apportionment.Deductions[0].Name != domain.DeductionSocialContribution {
		t.Fatalf("unexpected deductions %+v", resp.Apportionment.Deductions)
	}
	if !resp.Apportionment.TotalDeductions.Equal(d("425")) {
		t.Fatalf("unexpected total deductions %s", resp.Apportionment.TotalDeductions)
	}

	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for _, want := range []string{`"total":"1250"`, `"net_value":"825"`, `"value":"577.5"`, `"snapshot_version":"snap-1"`} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("expected %s in %s", want, body)
		}
	}
	if strings.Contains(string(body), `"units"`) {
		t.Fatalf("expected units to be omitted from %s", body)
	}
}

func TestBatchFromUseCase(t *testing.T) {
	results := []usecase.BatchItemResult{
		{Index: 0, Reference: "a", Calculation: &domain.CaseCalculation{ID: "1"}},
		{Index: 1, Reference: "b", Err: errors.New("index table not found: tr")},
	}

	resp := BatchFromUseCase(results)

	if resp.Succeeded != 1 || resp.Failed != 1 {
		t.Fatalf("unexpected counts %d/%d", resp.Succeeded, resp.Failed)
	}
	if resp.Items[0].Calculation == nil || resp.Items[0].Error != nil {
		t.Fatalf("expected first item to succeed")
	}
	if resp.Items[1].Error == nil || resp.Items[1].Error.Message != "index table not found: tr" {
		t.Fatalf("expected second item error, got %+v", resp.Items[1])
	}
}

func TestIndexTableFromDomain(t *testing.T) {
	table, err := domain.NewIndexTable("minimum_wage", domain.KindValue, "Salário mínimo", []domain.IndexEntry{
		{EffectiveDate: civil.Date{Year: 2024, Month: 1, Day: 1}, Value: d("1412.00")},
		{EffectiveDate: civil.Date{Year: 2023, Month: 1, Day: 1}, Value: d("1320.00")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp := IndexTableFromDomain("snap-1", table)

	if resp.Entries != 2 || len(resp.Values) != 2 {
		t.Fatalf("unexpected entries %d", resp.Entries)
	}
	if resp.FirstDate == nil || *resp.FirstDate != (civil.Date{Year: 2023, Month: 1, Day: 1}) {
		t.Fatalf("unexpected first date %v", resp.FirstDate)
	}

	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(body), `"date":"2023-01-01","value":"1320"`) {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestIndexSummaryFromDomain_EmptyTable(t *testing.T) {
	table, err := domain.NewIndexTable("tr", domain.KindRate, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp := IndexSummaryFromDomain(table)
	if resp.FirstDate != nil || resp.LastDate != nil {
		t.Fatalf("expected no dates for empty table")
	}
}
