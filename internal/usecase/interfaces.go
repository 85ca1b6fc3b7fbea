package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/precatorio/internal/domain"
)

// ErrCacheMiss is returned by a SnapshotCache holding no snapshot.
var ErrCacheMiss = errors.New("snapshot cache miss")

// IndexRepository loads the reference index tables from their source.
type IndexRepository interface {
	LoadTables(ctx context.Context) ([]*domain.IndexTable, error)
}

// IndexWriter replaces whole index tables in a writable source.
type IndexWriter interface {
	ReplaceTable(ctx context.Context, table *domain.IndexTable) error
}

// SnapshotCache keeps the last published snapshot for warm starts.
type SnapshotCache interface {
	Save(ctx context.Context, snapshot *domain.IndexSnapshot, ttl time.Duration) error
	// Load returns ErrCacheMiss when nothing is cached.
	Load(ctx context.Context) (*domain.IndexSnapshot, error)
}

// SnapshotProvider hands out the currently published snapshot.
type SnapshotProvider interface {
	Current() (*domain.IndexSnapshot, error)
}

// Retrier retries an operation on transient failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Recorder receives calculation and refresh measurements.
type Recorder interface {
	ObserveCalculation(operation string, err error, duration time.Duration)
	ObserveUnmatchedWindow(table string)
	ObserveClampedApportionment()
	ObserveRefresh(snapshot *domain.IndexSnapshot, err error)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

type nopRecorder struct{}

func (nopRecorder) ObserveCalculation(string, error, time.Duration) {}
func (nopRecorder) ObserveUnmatchedWindow(string) {}
func (nopRecorder) ObserveClampedApportionment() {}
func (nopRecorder) ObserveRefresh(*domain.IndexSnapshot, error) {}
