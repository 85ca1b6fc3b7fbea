package metrics

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/iho/precatorio/internal/domain"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	if m.Calculations == nil || m.HTTPRequests == nil || m.IndexRefreshes == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.ObserveClampedApportionment()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestObserveCalculation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveCalculation("correct", nil, time.Millisecond)
	m.ObserveCalculation("correct", domain.ErrNegativeAmount, time.Millisecond)
	m.ObserveCalculation("correct", domain.ErrTableNotFound, time.Millisecond)
	m.ObserveCalculation("correct", domain.ErrTableNotFound, time.Millisecond)

	if got := testutil.ToFloat64(m.Calculations.WithLabelValues("correct", "success")); got != 1 {
		t.Fatalf("success = %v", got)
	}
	if got := testutil.ToFloat64(m.Calculations.WithLabelValues("correct", "invalid_input")); got != 1 {
		t.Fatalf("invalid_input = %v", got)
	}
	if got := testutil.ToFloat64(m.Calculations.WithLabelValues("correct", "reference_error")); got != 2 {
		t.Fatalf("reference_error = %v", got)
	}
}

func TestObserveRefresh(t *testing.T) {
	m := New(prometheus.NewRegistry())

	table, err := domain.NewIndexTable("ipca-e", domain.KindFactor, "", []domain.IndexEntry{
		{EffectiveDate: civil.Date{Year: 2023, Month: 1, Day: 1}, Value: decimal.RequireFromString("1.0053")},
		{EffectiveDate: civil.Date{Year: 2023, Month: 2, Day: 1}, Value: decimal.RequireFromString("1.0084")},
	})
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}
	loadedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	snap, err := domain.NewIndexSnapshot("v1", loadedAt, []*domain.IndexTable{table})
	if err != nil {
		t.Fatalf("failed to build snapshot: %v", err)
	}

	m.ObserveRefresh(snap, nil)
	m.ObserveRefresh(nil, errors.New("db down"))

	if got := testutil.ToFloat64(m.IndexRefreshes.WithLabelValues("success")); got != 1 {
		t.Fatalf("success refreshes = %v", got)
	}
	if got := testutil.ToFloat64(m.IndexRefreshes.WithLabelValues("error")); got != 1 {
		t.Fatalf("failed refreshes = %v", got)
	}
	if got := testutil.ToFloat64(m.SnapshotEntries.WithLabelValues("ipca-e")); got != 2 {
		t.Fatalf("snapshot entries = %v", got)
	}
	if got := testutil.ToFloat64(m.SnapshotLoadedAtUnix); got != float64(loadedAt.Unix()) {
		t.Fatalf("loaded at = %v", got)
	}
}

func TestObserveUnmatchedWindow(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveUnmatchedWindow("selic")
	m.ObserveUnmatchedWindow("selic")

	if got := testutil.ToFloat64(m.UnmatchedWindows.WithLabelValues("selic")); got != 2 {
		t.Fatalf("unmatched = %v", got)
	}
}
