package usecase

import "time"

const (
	// DefaultRefreshTimeout bounds one load of the reference tables from their source.
	DefaultRefreshTimeout = 30 * time.Second

	// DefaultSnapshotCacheTTL is how long a published snapshot stays in the cache.
	DefaultSnapshotCacheTTL = 7 * 24 * time.Hour

	// DefaultMinimumWageTable is the reference-value table used for unit equivalence.
	DefaultMinimumWageTable = "minimum_wage"

	// DefaultBatchWorkers caps concurrent calculations of one batch.
	DefaultBatchWorkers = 8

	// DefaultBatchMaxItems caps the size of one batch.
	DefaultBatchMaxItems = 1000

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)
