package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/iho/precatorio/internal/adapter/http/dto"
	"github.com/iho/precatorio/internal/domain"
)

const indexYAML = `tables:
  - name: ipca-e
    kind: factor
    description: IPCA-E
    entries:
      - {date: "2023-01-01", value: "1.05"}
  - name: minimum_wage
    kind: value
    entries:
      - {date: "2023-01-01", value: "1320.00"}
      - {date: "2024-01-01", value: "1412.00"}
`

func writeIndexFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "indices.yaml")
	if err := os.WriteFile(path, []byte(indexYAML), 0o600); err != nil {
		t.Fatalf("failed to write index file: %v", err)
	}
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestFactorCmd(t *testing.T) {
	out, err := execute(t, "", "--index-file", writeIndexFile(t), "factor", "--table", "ipca-e", "--start", "2023-01-01", "--end", "2023-12-31")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	var resp dto.FactorResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid output %q: %v", out, err)
	}
	if resp.Factor.String() != "1.05" || resp.EntriesMatched != 1 {
		t.Fatalf("unexpected factor %+v", resp)
	}
}

func TestCorrectCmd(t *testing.T) {
	out, err := execute(t, "", "--index-file", writeIndexFile(t), "correct",
		"--principal", "1000", "--interest", "200",
		"--base-date", "2023-01-01", "--target-date", "2023-12-31", "--table", "ipca-e")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	var resp dto.CorrectionResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid output %q: %v", out, err)
	}
	if resp.Total.String() != "1250" {
		t.Fatalf("unexpected total %s", resp.Total)
	}
}

func TestCorrectCmd_InvalidInput(t *testing.T) {
	path := writeIndexFile(t)

	if _, err := execute(t, "", "--index-file", path, "correct", "--principal", "abc", "--base-date", "2023-01-01", "--target-date", "2023-12-31", "--table", "ipca-e"); err == nil {
		t.Fatalf("expected error for invalid principal")
	}
	if _, err := execute(t, "", "--index-file", path, "correct", "--principal", "1", "--base-date", "01/01/2023", "--target-date", "2023-12-31", "--table", "ipca-e"); !errors.Is(err, domain.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := execute(t, "", "--index-file", path, "correct", "--principal", "1", "--base-date", "2023-01-01", "--target-date", "2023-12-31", "--table", "tr"); !errors.Is(err, domain.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
}

func TestApportionCmd(t *testing.T) {
	out, err := execute(t, "", "apportion", "--gross", "1250", "--social-contribution", "11", "--income-tax", "3", "--attorney-fee", "20")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	var resp dto.ApportionmentResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid output %q: %v", out, err)
	}
	if resp.NetValue.String() != "825" {
		t.Fatalf("unexpected net %s", resp.NetValue)
	}
}

func TestUnitsCmd(t *testing.T) {
	out, err := execute(t, "", "units", "--value", "2824", "--unit-value", "1412")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, `"unit_count": "2"`) {
		t.Fatalf("unexpected output %s", out)
	}

	out, err = execute(t, "", "--index-file", writeIndexFile(t), "units", "--value", "2824", "--date", "2024-06-30")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, `"unit_value": "1412"`) {
		t.Fatalf("expected minimum wage from index file, got %s", out)
	}
}

func TestCalcCmd_Flags(t *testing.T) {
	out, err := execute(t, "", "--index-file", writeIndexFile(t), "calc",
		"--reference", "case-1",
		"--principal", "1000", "--interest", "200",
		"--base-date", "2023-01-01", "--target-date", "2023-12-31", "--table", "ipca-e",
		"--social-contribution", "11", "--income-tax", "3", "--attorney-fee", "20",
		"--proposal-discount", "30")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	var resp dto.CalculationResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid output %q: %v", out, err)
	}
	if resp.Reference != "case-1" || resp.Proposal == nil || resp.Proposal.Value.String() != "577.5" {
		t.Fatalf("unexpected calculation %+v", resp)
	}
	if resp.Units == nil || resp.Units.UnitValue.String() != "1320" {
		t.Fatalf("expected units against the 2023 minimum wage, got %+v", resp.Units)
	}
}

func TestCalcCmd_BatchRequestFromStdin(t *testing.T) {
	item := `{"reference":"%s","correction":{"principal":"1000","base_date":"2023-01-01","target_date":"2023-12-31","principal_table":"%s"}}`
	body := `{"items":[` + strings.Replace(strings.Replace(item, "%s", "a", 1), "%s", "ipca-e", 1) + `,` +
		strings.Replace(strings.Replace(item, "%s", "b", 1), "%s", "tr", 1) + `]}`

	out, err := execute(t, body, "--index-file", writeIndexFile(t), "calc", "--request", "-")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	var resp dto.BatchCalculationResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid output %q: %v", out, err)
	}
	if resp.Succeeded != 1 || resp.Failed != 1 || resp.Items[1].Reference != "b" {
		t.Fatalf("unexpected batch %+v", resp)
	}
}

func TestTablesListAndExport(t *testing.T) {
	path := writeIndexFile(t)

	out, err := execute(t, "", "--index-file", path, "tables", "list")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	var list dto.IndexListResponse
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("invalid output %q: %v", out, err)
	}
	if len(list.Tables) != 2 || list.Tables[1].Entries != 2 {
		t.Fatalf("unexpected tables %+v", list.Tables)
	}

	xlsx := filepath.Join(t.TempDir(), "indices.xlsx")
	if _, err := execute(t, "", "--index-file", path, "tables", "export", "--out", xlsx); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	out, err = execute(t, "", "--index-file", xlsx, "factor", "--table", "ipca-e", "--start", "2023-01-01", "--end", "2023-12-31")
	if err != nil {
		t.Fatalf("factor over exported workbook failed: %v", err)
	}
	if !strings.Contains(out, `"factor": "1.05"`) {
		t.Fatalf("unexpected output %s", out)
	}
}

func TestFileRepository_UnsupportedExtension(t *testing.T) {
	if _, err := fileRepository("indices.csv"); err == nil {
		t.Fatalf("expected error for csv file")
	}
	if _, err := fileRepository(""); err == nil {
		t.Fatalf("expected error without index file")
	}
}

type recordingWriter struct {
	names  []string
	failOn string
}

func (w *recordingWriter) ReplaceTable(ctx context.Context, table *domain.IndexTable) error {
	if table.Name == w.failOn {
		return errors.New("connection reset")
	}
	w.names = append(w.names, table.Name)
	return nil
}

type countingRetrier struct {
	calls int
}

func (r *countingRetrier) Retry(ctx context.Context, op func() error) error {
	r.calls++
	return op()
}

func TestImportTables(t *testing.T) {
	a, _ := domain.NewIndexTable("a", domain.KindRate, "", nil)
	b, _ := domain.NewIndexTable("b", domain.KindRate, "", nil)

	w := &recordingWriter{}
	retrier := &countingRetrier{}
	n, err := importTables(context.Background(), w, retrier, []*domain.IndexTable{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 || retrier.calls != 2 || strings.Join(w.names, ",") != "a,b" {
		t.Fatalf("unexpected import n=%d calls=%d names=%v", n, retrier.calls, w.names)
	}

	w = &recordingWriter{failOn: "b"}
	n, err = importTables(context.Background(), w, nil, []*domain.IndexTable{a, b})
	if err == nil || n != 1 {
		t.Fatalf("expected failure after first table, got n=%d err=%v", n, err)
	}
}

func TestHealthCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ready" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}))
	defer srv.Close()

	out, err := execute(t, "", "--url", srv.URL, "health")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "ready") {
		t.Fatalf("unexpected output %s", out)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	if _, err := execute(t, "", "--url", down.URL, "health"); err == nil {
		t.Fatalf("expected error for unready server")
	}
}

func TestMigrateCmd_MissingMigrations(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "absent")

	for _, sub := range []string{"up", "down"} {
		if _, err := execute(t, "", "migrate", sub, "--migrations", dir, "--database-url", "postgres://localhost:1/none"); err == nil {
			t.Fatalf("expected migrate %s to fail without a migrations directory", sub)
		}
	}
}
