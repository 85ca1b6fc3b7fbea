package domain

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

func mustDate(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestParseTableKind(t *testing.T) {
	tests := []struct {
		input   string
		want    TableKind
		wantErr bool
	}{
		{"factor", KindFactor, false},
		{" Rate ", KindRate, false},
		{"VALUE", KindValue, false},
		{"percent", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseTableKind(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidTableKind) {
				t.Fatalf("ParseTableKind(%q): expected ErrInvalidTableKind, got %v", tt.input, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseTableKind(%q) = %q, %v; want %q", tt.input, got, err, tt.want)
		}
	}
}

func TestNewIndexTable_SortsAndCopies(t *testing.T) {
	entries := []IndexEntry{
		{EffectiveDate: mustDate(t, "2023-03-01"), Value: decimal.RequireFromString("1.03")},
		{EffectiveDate: mustDate(t, "2023-01-01"), Value: decimal.RequireFromString("1.01")},
		{EffectiveDate: mustDate(t, "2023-02-01"), Value: decimal.RequireFromString("1.02")},
	}

	table, err := NewIndexTable("ipca-e", KindFactor, "IPCA-E monthly", entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries[0].Value = decimal.NewFromInt(99)

	got := table.Entries()
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, want := range []string{"2023-01-01", "2023-02-01", "2023-03-01"} {
		if got[i].EffectiveDate.String() != want {
			t.Fatalf("entry %d: expected %s, got %s", i, want, got[i].EffectiveDate)
		}
	}
	if !got[2].Value.Equal(decimal.RequireFromString("1.03")) {
		t.Fatalf("table must not alias caller slice, got %s", got[2].Value)
	}

	got[0].Value = decimal.NewFromInt(42)
	if table.Entries()[0].Value.Equal(decimal.NewFromInt(42)) {
		t.Fatalf("Entries must return a copy")
	}

	if table.FirstDate().String() != "2023-01-01" || table.LastDate().String() != "2023-03-01" {
		t.Fatalf("unexpected bounds %s..%s", table.FirstDate(), table.LastDate())
	}
}

func TestNewIndexTable_Rejects(t *testing.T) {
	d := mustDate(t, "2023-01-01")

	tests := []struct {
		name    string
		table   string
		kind    TableKind
		entries []IndexEntry
		want    error
		field   string
	}{
		{
			name:  "duplicate dates",
			table: "ipca-e",
			kind:  KindFactor,
			entries: []IndexEntry{
				{EffectiveDate: d, Value: decimal.NewFromInt(1)},
				{EffectiveDate: d, Value: decimal.NewFromInt(2)},
			},
			want:  ErrDuplicateEntry,
			field: "entries[1].date",
		},
		{name: "unknown kind", table: "ipca-e", kind: "compound", want: ErrInvalidTableKind},
		{name: "empty name", table: "  ", kind: KindFactor, want: ErrInvalidTableName},
		{name: "uppercase name", table: "IPCA", kind: KindFactor, want: ErrInvalidTableName},
		{
			name:    "invalid date",
			table:   "ipca-e",
			kind:    KindFactor,
			entries: []IndexEntry{{EffectiveDate: civil.Date{Year: 2023, Month: 2, Day: 30}, Value: decimal.NewFromInt(1)}},
			want:    ErrInvalidEntryDate,
			field:   "entries[0].date",
		},
		{
			name:    "non-positive reference value",
			table:   "minimum_wage",
			kind:    KindValue,
			entries: []IndexEntry{{EffectiveDate: d, Value: decimal.Zero}},
			want:    ErrInvalidEntryValue,
			field:   "entries[0].value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIndexTable(tt.table, tt.kind, "", tt.entries)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if tt.field == "" {
				return
			}
			var fieldErr *FieldError
			if !errors.As(err, &fieldErr) || fieldErr.Field != tt.field {
				t.Fatalf("expected field %s, got %v", tt.field, err)
			}
		})
	}
}

func TestIndexTable_Window(t *testing.T) {
	table, err := NewIndexTable("selic", KindRate, "", []IndexEntry{
		{EffectiveDate: mustDate(t, "2023-01-01"), Value: decimal.RequireFromString("1.12")},
		{EffectiveDate: mustDate(t, "2023-02-01"), Value: decimal.RequireFromString("0.92")},
		{EffectiveDate: mustDate(t, "2023-03-01"), Value: decimal.RequireFromString("1.17")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		start, end string
		want       int
	}{
		{"2023-01-01", "2023-03-01", 3},
		{"2023-01-01", "2023-01-01", 1},
		{"2023-03-01", "2023-12-31", 1},
		{"2023-01-02", "2023-02-28", 1},
		{"2023-01-02", "2023-01-31", 0},
		{"2022-01-01", "2022-12-31", 0},
	}

	for _, tt := range tests {
		got := table.Window(mustDate(t, tt.start), mustDate(t, tt.end))
		if len(got) != tt.want {
			t.Fatalf("Window(%s, %s): expected %d entries, got %d", tt.start, tt.end, tt.want, len(got))
		}
	}
}

func TestIndexTable_ValueAt(t *testing.T) {
	table, err := NewIndexTable("minimum_wage", KindValue, "", []IndexEntry{
		{EffectiveDate: mustDate(t, "2023-05-01"), Value: decimal.RequireFromString("1320.00")},
		{EffectiveDate: mustDate(t, "2024-01-01"), Value: decimal.RequireFromString("1412.00")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := table.ValueAt(mustDate(t, "2023-12-31"))
	if err != nil || !got.Value.Equal(decimal.RequireFromString("1320")) {
		t.Fatalf("expected 1320, got %s (%v)", got.Value, err)
	}

	got, err = table.ValueAt(mustDate(t, "2024-01-01"))
	if err != nil || !got.Value.Equal(decimal.RequireFromString("1412")) {
		t.Fatalf("expected 1412 on the effective date, got %s (%v)", got.Value, err)
	}

	_, err = table.ValueAt(mustDate(t, "2023-04-30"))
	if !errors.Is(err, ErrNoReferenceValue) {
		t.Fatalf("expected ErrNoReferenceValue, got %v", err)
	}
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "date" || fieldErr.Value != "2023-04-30" {
		t.Fatalf("expected date field error, got %v", err)
	}
}

func TestIndexSnapshot(t *testing.T) {
	a, _ := NewIndexTable("ipca-e", KindFactor, "", []IndexEntry{
		{EffectiveDate: mustDate(t, "2023-01-01"), Value: decimal.RequireFromString("1.01")},
	})
	b, _ := NewIndexTable("selic", KindRate, "", []IndexEntry{
		{EffectiveDate: mustDate(t, "2023-01-01"), Value: decimal.RequireFromString("1.12")},
		{EffectiveDate: mustDate(t, "2023-02-01"), Value: decimal.RequireFromString("0.92")},
	})

	snap, err := NewIndexSnapshot("v1", time.Now(), []*IndexTable{b, a, nil})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tables := snap.Tables()
	if len(tables) != 2 || tables[0].Name != "ipca-e" || tables[1].Name != "selic" {
		t.Fatalf("expected tables sorted by name, got %v", tables)
	}
	if snap.EntryCount() != 3 {
		t.Fatalf("expected 3 entries, got %d", snap.EntryCount())
	}
	if _, err := snap.Table("tr"); !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}

	if _, err := NewIndexSnapshot("v2", time.Now(), []*IndexTable{a, a}); !errors.Is(err, ErrInvalidTableName) {
		t.Fatalf("expected duplicate table to be rejected, got %v", err)
	}
}

func civilDate(year int, month time.Month, day int) civil.Date {
	return civil.Date{Year: year, Month: month, Day: day}
}
