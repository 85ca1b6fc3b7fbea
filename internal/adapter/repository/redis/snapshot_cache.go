package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/iho/precatorio/internal/domain"
	"github.com/iho/precatorio/internal/usecase"
)

const snapshotKey = "current"

// SnapshotCache implements usecase.SnapshotCache using Redis.
type SnapshotCache struct {
	client *redis.Client
	prefix string
}

// NewSnapshotCache creates a new SnapshotCache.
func NewSnapshotCache(client *redis.Client) *SnapshotCache {
	return &SnapshotCache{
		client: client,
		prefix: "precatorio:snapshot:",
	}
}

type snapshotDoc struct {
	Version  string     `json:"version"`
	LoadedAt time.Time  `json:"loaded_at"`
	Tables   []tableDoc `json:"tables"`
}

type tableDoc struct {
	Name        string     `json:"name"`
	Kind        string     `json:"kind"`
	Description string     `json:"description,omitempty"`
	Entries     []entryDoc `json:"entries"`
}

type entryDoc struct {
	Date  civil.Date      `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// Save stores the snapshot, replacing any cached one.
func (c *SnapshotCache) Save(ctx context.Context, snapshot *domain.IndexSnapshot, ttl time.Duration) error {
	doc := snapshotDoc{
		Version:  snapshot.Version,
		LoadedAt: snapshot.LoadedAt,
	}
	for _, t := range snapshot.Tables() {
		td := tableDoc{Name: t.Name, Kind: string(t.Kind), Description: t.Description}
		for _, e := range t.Entries() {
			td.Entries = append(td.Entries, entryDoc{Date: e.EffectiveDate, Value: e.Value})
		}
		doc.Tables = append(doc.Tables, td)
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	return c.client.Set(ctx, c.prefix+snapshotKey, payload, ttl).Err()
}

// Load returns the cached snapshot or usecase.ErrCacheMiss.
func (c *SnapshotCache) Load(ctx context.Context) (*domain.IndexSnapshot, error) {
	payload, err := c.client.Get(ctx, c.prefix+snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, usecase.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var doc snapshotDoc
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode cached snapshot: %w", err)
	}

	tables := make([]*domain.IndexTable, 0, len(doc.Tables))
	for _, td := range doc.Tables {
		kind, err := domain.ParseTableKind(td.Kind)
		if err != nil {
			return nil, err
		}

		entries := make([]domain.IndexEntry, 0, len(td.Entries))
		for _, e := range td.Entries {
			entries = append(entries, domain.IndexEntry{EffectiveDate: e.Date, Value: e.Value})
		}

		table, err := domain.NewIndexTable(td.Name, kind, td.Description, entries)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}

	return domain.NewIndexSnapshot(doc.Version, doc.LoadedAt, tables)
}
