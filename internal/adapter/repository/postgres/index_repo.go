package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/precatorio/internal/domain"
	"github.com/iho/precatorio/internal/infrastructure/postgres/generated"
)

type pgxDB interface {
	generated.DBTX
	Begin(context.Context) (pgx.Tx, error)
}

// IndexRepository implements usecase.IndexRepository and usecase.IndexWriter.
type IndexRepository struct {
	queries *generated.Queries
	tx      *TxManager
	now     func() time.Time
}

// NewIndexRepository creates a new IndexRepository.
func NewIndexRepository(pool *pgxpool.Pool) *IndexRepository {
	return newIndexRepository(pool)
}

func newIndexRepository(db pgxDB) *IndexRepository {
	return &IndexRepository{
		queries: generated.New(db),
		tx:      newTxManager(db),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// LoadTables loads every index table with its entries.
func (r *IndexRepository) LoadTables(ctx context.Context) ([]*domain.IndexTable, error) {
	tableRows, err := r.queries.ListIndexTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list index tables: %w", err)
	}

	entryRows, err := r.queries.ListIndexEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list index entries: %w", err)
	}

	entries := make(map[string][]domain.IndexEntry, len(tableRows))
	for _, row := range entryRows {
		e, err := rowToEntry(row)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", row.TableName, err)
		}
		entries[row.TableName] = append(entries[row.TableName], e)
	}

	tables := make([]*domain.IndexTable, 0, len(tableRows))
	for _, row := range tableRows {
		kind, err := domain.ParseTableKind(row.Kind)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", row.Name, err)
		}

		table, err := domain.NewIndexTable(row.Name, kind, row.Description, entries[row.Name])
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}

	return tables, nil
}

// ReplaceTable stores table, replacing all entries of a table with the same name.
func (r *IndexRepository) ReplaceTable(ctx context.Context, table *domain.IndexTable) error {
	return r.tx.WithinTx(ctx, func(q *generated.Queries) error {
		err := q.UpsertIndexTable(ctx, generated.UpsertIndexTableParams{
			Name:        table.Name,
			Kind:        string(table.Kind),
			Description: table.Description,
			UpdatedAt:   timeToPgTimestamptz(r.now()),
		})
		if err != nil {
			return fmt.Errorf("failed to upsert table %s: %w", table.Name, err)
		}

		if err := q.DeleteIndexEntries(ctx, table.Name); err != nil {
			return fmt.Errorf("failed to clear entries of %s: %w", table.Name, err)
		}

		for _, e := range table.Entries() {
			err := q.InsertIndexEntry(ctx, generated.InsertIndexEntryParams{
				TableName:     table.Name,
				EffectiveDate: civilToPgDate(e.EffectiveDate),
				Value:         decimalToNumeric(e.Value),
			})
			if err != nil {
				return fmt.Errorf("failed to insert %s entry %s: %w", table.Name, e.EffectiveDate, err)
			}
		}

		return nil
	})
}

func rowToEntry(row generated.IndexEntry) (domain.IndexEntry, error) {
	date, err := pgDateToCivil(row.EffectiveDate)
	if err != nil {
		return domain.IndexEntry{}, fmt.Errorf("%w: %v", domain.ErrInvalidEntryDate, err)
	}

	value, err := numericToDecimal(row.Value)
	if err != nil {
		return domain.IndexEntry{}, fmt.Errorf("%w at %s: %v", domain.ErrInvalidEntryValue, date, err)
	}

	return domain.IndexEntry{EffectiveDate: date, Value: value}, nil
}
