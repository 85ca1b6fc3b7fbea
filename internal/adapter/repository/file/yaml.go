// Package file loads index tables from files published by the courts and
// statistics offices, as YAML documents or XLSX workbooks.
package file

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/iho/precatorio/internal/domain"
)

// YAMLRepository implements usecase.IndexRepository over a YAML file.
type YAMLRepository struct {
	path string
}

// NewYAMLRepository creates a new YAMLRepository. The file is read on every load.
func NewYAMLRepository(path string) *YAMLRepository {
	return &YAMLRepository{path: path}
}

type yamlDocument struct {
	Tables []yamlTable `yaml:"tables"`
}

type yamlTable struct {
	Name        string      `yaml:"name"`
	Kind        string      `yaml:"kind"`
	Description string      `yaml:"description"`
	Entries     []yamlEntry `yaml:"entries"`
}

type yamlEntry struct {
	Date  string `yaml:"date"`
	Value string `yaml:"value"`
}

// LoadTables reads and validates all tables of the file.
func (r *YAMLRepository) LoadTables(ctx context.Context) ([]*domain.IndexTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	return ParseYAML(data)
}

// ParseYAML decodes index tables from a YAML document.
func ParseYAML(data []byte) ([]*domain.IndexTable, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse index file: %w", err)
	}

	tables := make([]*domain.IndexTable, 0, len(doc.Tables))
	for _, yt := range doc.Tables {
		kind, err := domain.ParseTableKind(yt.Kind)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", yt.Name, err)
		}

		entries := make([]domain.IndexEntry, 0, len(yt.Entries))
		for i, ye := range yt.Entries {
			e, err := parseEntry(ye.Date, ye.Value)
			if err != nil {
				return nil, fmt.Errorf("table %s, entry %d: %w", yt.Name, i+1, err)
			}
			entries = append(entries, e)
		}

		table, err := domain.NewIndexTable(yt.Name, kind, yt.Description, entries)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}

	return tables, nil
}

// MarshalYAML encodes tables in the format read by ParseYAML.
func MarshalYAML(tables []*domain.IndexTable) ([]byte, error) {
	doc := yamlDocument{Tables: make([]yamlTable, 0, len(tables))}
	for _, t := range tables {
		yt := yamlTable{Name: t.Name, Kind: string(t.Kind), Description: t.Description}
		for _, e := range t.Entries() {
			yt.Entries = append(yt.Entries, yamlEntry{Date: e.EffectiveDate.String(), Value: e.Value.String()})
		}
		doc.Tables = append(doc.Tables, yt)
	}
	return yaml.Marshal(doc)
}

func parseEntry(date, value string) (domain.IndexEntry, error) {
	d, err := domain.ParseDate(date)
	if err != nil {
		return domain.IndexEntry{}, err
	}

	v, err := decimal.NewFromString(value)
	if err != nil {
		return domain.IndexEntry{}, fmt.Errorf("%w: %q", domain.ErrInvalidEntryValue, value)
	}

	return domain.IndexEntry{EffectiveDate: d, Value: v}, nil
}
