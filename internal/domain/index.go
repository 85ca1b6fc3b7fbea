package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// TableKind declares how the values of an index table are combined over a period.
type TableKind string

const (
	// KindFactor tables hold multiplicative factors (e.g. 1.0042 for a 0.42% month).
	KindFactor TableKind = "factor"
	// KindRate tables hold periodic percentage rates that are summed (e.g. monthly SELIC).
	KindRate TableKind = "rate"
	// KindValue tables hold reference values effective from a date (e.g. the minimum wage).
	KindValue TableKind = "value"
)

// ParseTableKind parses a declared table kind.
func ParseTableKind(s string) (TableKind, error) {
	switch kind := TableKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case KindFactor, KindRate, KindValue:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTableKind, s)
	}
}

// IndexEntry is one dated value of an index table.
type IndexEntry struct {
	EffectiveDate civil.Date
	Value         decimal.Decimal
}

// IndexTable is an immutable, date-ordered index table.
// Build it with NewIndexTable; never mutate Entries after construction.
type IndexTable struct {
	Name        string
	Kind        TableKind
	Description string
	entries     []IndexEntry
}

// NewIndexTable copies entries, sorts them by date and rejects duplicates.
func NewIndexTable(name string, kind TableKind, description string, entries []IndexEntry) (*IndexTable, error) {
	name = strings.TrimSpace(name)
	if err := ValidateTableName(name); err != nil {
		return nil, err
	}

	if _, err := ParseTableKind(string(kind)); err != nil {
		return nil, err
	}

	sorted := make([]IndexEntry, len(entries))
	copy(sorted, entries)

	for i, e := range sorted {
		if !e.EffectiveDate.IsValid() {
			return nil, tableError(name, entryField(i, "date"), e.EffectiveDate, ErrInvalidEntryDate)
		}
		if kind == KindValue && e.Value.LessThanOrEqual(decimal.Zero) {
			return nil, tableError(name, entryField(i, "value"), e.Value, ErrInvalidEntryValue)
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectiveDate.Before(sorted[j].EffectiveDate)
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].EffectiveDate == sorted[i-1].EffectiveDate {
			return nil, tableError(name, entryField(i, "date"), sorted[i].EffectiveDate, ErrDuplicateEntry)
		}
	}

	return &IndexTable{
		Name:        name,
		Kind:        kind,
		Description: description,
		entries:     sorted,
	}, nil
}

// tableError wraps a FieldError with the table it was found in.
func tableError(table, field string, value fmt.Stringer, err error) error {
	return fmt.Errorf("table %s: %w", table, fieldError(err, field, value))
}

func entryField(i int, name string) string {
	return fmt.Sprintf("entries[%d].%s", i, name)
}

// Len returns the number of entries.
func (t *IndexTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of the entries in ascending date order.
func (t *IndexTable) Entries() []IndexEntry {
	out := make([]IndexEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Window returns the entries whose effective date lies in [start, end].
// The returned slice aliases the table and must not be modified.
func (t *IndexTable) Window(start, end civil.Date) []IndexEntry {
	lo := sort.Search(len(t.entries), func(i int) bool {
		return !t.entries[i].EffectiveDate.Before(start)
	})
	hi := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].EffectiveDate.After(end)
	})
	if lo >= hi {
		return nil
	}
	return t.entries[lo:hi]
}

// ValueAt returns the value of the last entry effective on or before date.
func (t *IndexTable) ValueAt(date civil.Date) (IndexEntry, error) {
	i := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].EffectiveDate.After(date)
	})
	if i == 0 {
		return IndexEntry{}, tableError(t.Name, "date", date, ErrNoReferenceValue)
	}
	return t.entries[i-1], nil
}

// FirstDate returns the earliest effective date, or the zero date for an empty table.
func (t *IndexTable) FirstDate() civil.Date {
	if len(t.entries) == 0 {
		return civil.Date{}
	}
	return t.entries[0].EffectiveDate
}

// LastDate returns the latest effective date, or the zero date for an empty table.
func (t *IndexTable) LastDate() civil.Date {
	if len(t.entries) == 0 {
		return civil.Date{}
	}
	return t.entries[len(t.entries)-1].EffectiveDate
}

// IndexSnapshot is a versioned, read-only set of index tables.
// A refresh publishes a new snapshot; a published snapshot is never modified.
type IndexSnapshot struct {
	Version  string
	LoadedAt time.Time
	tables   map[string]*IndexTable
}

// NewIndexSnapshot builds a snapshot. Table names must be unique.
func NewIndexSnapshot(version string, loadedAt time.Time, tables []*IndexTable) (*IndexSnapshot, error) {
	byName := make(map[string]*IndexTable, len(tables))
	for _, t := range tables {
		if t == nil {
			continue
		}
		if _, ok := byName[t.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate table %s", ErrInvalidTableName, t.Name)
		}
		byName[t.Name] = t
	}

	return &IndexSnapshot{
		Version:  version,
		LoadedAt: loadedAt,
		tables:   byName,
	}, nil
}

// Table returns the named table.
func (s *IndexSnapshot) Table(name string) (*IndexTable, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return t, nil
}

// Tables returns all tables sorted by name.
func (s *IndexSnapshot) Tables() []*IndexTable {
	out := make([]*IndexTable, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// EntryCount returns the total number of entries across all tables.
func (s *IndexSnapshot) EntryCount() int {
	n := 0
	for _, t := range s.tables {
		n += t.Len()
	}
	return n
}
