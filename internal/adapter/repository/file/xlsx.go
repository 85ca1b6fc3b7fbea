package file

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"

	"github.com/iho/precatorio/internal/domain"
)

// XLSXRepository implements usecase.IndexRepository over an XLSX workbook.
//
// Every sheet is one table named after the sheet. A1 holds the kind and B1 an
// optional description; rows from 2 hold date and value in columns A and B.
type XLSXRepository struct {
	path string
}

// NewXLSXRepository creates a new XLSXRepository. The workbook is read on every load.
func NewXLSXRepository(path string) *XLSXRepository {
	return &XLSXRepository{path: path}
}

// LoadTables reads and validates all sheets of the workbook.
func (r *XLSXRepository) LoadTables(ctx context.Context) ([]*domain.IndexTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index workbook: %w", err)
	}
	defer f.Close()

	return readWorkbook(f)
}

// ReadXLSX decodes index tables from a workbook stream.
func ReadXLSX(rd io.Reader) ([]*domain.IndexTable, error) {
	f, err := excelize.OpenReader(rd)
	if err != nil {
		return nil, fmt.Errorf("failed to open index workbook: %w", err)
	}
	defer f.Close()

	return readWorkbook(f)
}

func readWorkbook(f *excelize.File) ([]*domain.IndexTable, error) {
	sheets := f.GetSheetList()
	tables := make([]*domain.IndexTable, 0, len(sheets))

	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		if len(rows) == 0 || len(rows[0]) == 0 {
			return nil, fmt.Errorf("sheet %s: %w: A1 is empty", sheet, domain.ErrInvalidTableKind)
		}

		kind, err := domain.ParseTableKind(rows[0][0])
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}

		var description string
		if len(rows[0]) > 1 {
			description = strings.TrimSpace(rows[0][1])
		}

		entries := make([]domain.IndexEntry, 0, len(rows)-1)
		for i, row := range rows[1:] {
			if isBlank(row) {
				continue
			}
			if len(row) < 2 {
				return nil, fmt.Errorf("sheet %s, row %d: %w: missing value", sheet, i+2, domain.ErrInvalidEntryValue)
			}

			date, err := cellDate(row[0])
			if err != nil {
				return nil, fmt.Errorf("sheet %s, row %d: %w", sheet, i+2, err)
			}

			e, err := parseEntry(date.String(), strings.TrimSpace(row[1]))
			if err != nil {
				return nil, fmt.Errorf("sheet %s, row %d: %w", sheet, i+2, err)
			}
			entries = append(entries, e)
		}

		table, err := domain.NewIndexTable(sheet, kind, description, entries)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}

	return tables, nil
}

// cellDate accepts YYYY-MM-DD text or an Excel date serial.
func cellDate(raw string) (civil.Date, error) {
	raw = strings.TrimSpace(raw)
	if d, err := domain.ParseDate(raw); err == nil {
		return d, nil
	}

	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: %q", domain.ErrInvalidDate, raw)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: %q", domain.ErrInvalidDate, raw)
	}
	return civil.DateOf(t), nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// WriteXLSX writes tables as a workbook in the layout read by XLSXRepository.
func WriteXLSX(w io.Writer, tables []*domain.IndexTable) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.Name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return err
		}

		if err := f.SetSheetRow(t.Name, "A1", &[]any{string(t.Kind), t.Description}); err != nil {
			return err
		}
		for j, e := range t.Entries() {
			cell, err := excelize.CoordinatesToCellName(1, j+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(t.Name, cell, &[]any{e.EffectiveDate.String(), e.Value.String()}); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}
