package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iho/precatorio/internal/domain"
)

// Snapshot sources reported by Refresh.
const (
	SourceRepository = "repository"
	SourceCache      = "cache"
)

// IndexStore publishes immutable index snapshots.
//
// Readers call Current and keep the returned snapshot for the whole calculation.
// Refresh builds a new snapshot and swaps it in; a published snapshot is never modified.
type IndexStore struct {
	repo     IndexRepository
	cache    SnapshotCache
	retrier  Retrier
	idGen    IDGenerator
	recorder Recorder
	cacheTTL time.Duration
	now      func() time.Time

	current atomic.Pointer[domain.IndexSnapshot]
	mu      sync.Mutex // serializes Refresh
}

// IndexStoreConfig holds IndexStore dependencies. Cache and Retrier are optional.
type IndexStoreConfig struct {
	Repository  IndexRepository
	Cache       SnapshotCache
	Retrier     Retrier
	IDGenerator IDGenerator
	Recorder    Recorder
	CacheTTL    time.Duration
}

// NewIndexStore creates a new IndexStore.
func NewIndexStore(cfg IndexStoreConfig) *IndexStore {
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultSnapshotCacheTTL
	}

	return &IndexStore{
		repo:     cfg.Repository,
		cache:    cfg.Cache,
		retrier:  cfg.Retrier,
		idGen:    cfg.IDGenerator,
		recorder: cfg.Recorder,
		cacheTTL: cfg.CacheTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RefreshResult describes a completed refresh.
type RefreshResult struct {
	Snapshot *domain.IndexSnapshot
	Source   string
	// SourceErr is the repository failure when the snapshot came from the cache.
	SourceErr error
}

// Current returns the published snapshot.
func (s *IndexStore) Current() (*domain.IndexSnapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, domain.ErrNoSnapshot
	}
	return snap, nil
}

// Publish builds a new versioned snapshot from tables and swaps it in.
func (s *IndexStore) Publish(tables []*domain.IndexTable) (*domain.IndexSnapshot, error) {
	snap, err := domain.NewIndexSnapshot(s.idGen.Generate(), s.now(), tables)
	if err != nil {
		return nil, err
	}
	s.current.Store(snap)
	return snap, nil
}

// Refresh reloads the tables from the repository and publishes them.
//
// If the repository fails before anything was published, the cached snapshot is
// published instead. If a snapshot is already published, it stays in place and
// the error is returned.
func (s *IndexStore) Refresh(ctx context.Context) (*RefreshResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, DefaultRefreshTimeout)
	defer cancel()

	tables, loadErr := s.load(ctx)
	if loadErr == nil {
		snap, err := s.Publish(tables)
		if err != nil {
			s.recorder.ObserveRefresh(nil, err)
			return nil, fmt.Errorf("failed to publish index snapshot: %w", err)
		}
		s.recorder.ObserveRefresh(snap, nil)

		if s.cache != nil {
			if err := s.cache.Save(ctx, snap, s.cacheTTL); err != nil {
				return &RefreshResult{Snapshot: snap, Source: SourceRepository}, fmt.Errorf("snapshot published but not cached: %w", err)
			}
		}

		return &RefreshResult{Snapshot: snap, Source: SourceRepository}, nil
	}

	s.recorder.ObserveRefresh(nil, loadErr)

	if s.current.Load() != nil || s.cache == nil {
		return nil, fmt.Errorf("failed to load index tables: %w", loadErr)
	}

	cached, err := s.cache.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, fmt.Errorf("failed to load index tables: %w", loadErr)
		}
		return nil, fmt.Errorf("failed to load index tables: %w", errors.Join(loadErr, err))
	}

	s.current.Store(cached)

	return &RefreshResult{Snapshot: cached, Source: SourceCache, SourceErr: loadErr}, nil
}

func (s *IndexStore) load(ctx context.Context) ([]*domain.IndexTable, error) {
	var tables []*domain.IndexTable
	op := func() error {
		var err error
		tables, err = s.repo.LoadTables(ctx)
		return err
	}

	var err error
	if s.retrier == nil {
		err = op()
	} else {
		err = s.retrier.Retry(ctx, op)
	}
	return tables, err
}
