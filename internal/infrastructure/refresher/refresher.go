package refresher

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/precatorio/internal/usecase"
)

// Refresher reloads the index snapshot on a fixed interval.
type Refresher struct {
	store    Store
	logger   zerolog.Logger
	interval time.Duration

	failures atomic.Int64
}

// Store is the snapshot store being refreshed.
type Store interface {
	Refresh(ctx context.Context) (*usecase.RefreshResult, error)
}

// Config for Refresher.
type Config struct {
	Store    Store
	Logger   zerolog.Logger
	Interval time.Duration
}

// New creates a new Refresher.
func New(cfg Config) *Refresher {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}

	return &Refresher{
		store:    cfg.Store,
		logger:   cfg.Logger,
		interval: cfg.Interval,
	}
}

// Start refreshes on every tick until ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) error {
	r.logger.Info().Dur("interval", r.interval).Msg("index refresher started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("index refresher shutting down")
			return ctx.Err()
		case <-ticker.C:
			r.RefreshOnce(ctx)
		}
	}
}

// RefreshOnce runs one refresh and logs its outcome. The previous snapshot
// stays published when it fails.
func (r *Refresher) RefreshOnce(ctx context.Context) {
	res, err := r.store.Refresh(ctx)
	if err != nil && res == nil {
		n := r.failures.Add(1)
		r.logger.Error().Err(err).Int64("consecutive_failures", n).Msg("index refresh failed, keeping current snapshot")
		return
	}
	r.failures.Store(0)

	event := r.logger.Info()
	if err != nil {
		event = r.logger.Warn().Err(err)
	}
	if res.SourceErr != nil {
		event = r.logger.Warn().AnErr("source_error", res.SourceErr)
	}

	event.
		Str("version", res.Snapshot.Version).
		Str("source", res.Source).
		Int("tables", len(res.Snapshot.Tables())).
		Int("entries", res.Snapshot.EntryCount()).
		Msg("index snapshot published")
}

// ConsecutiveFailures returns the number of failed refreshes since the last success.
func (r *Refresher) ConsecutiveFailures() int64 {
	return r.failures.Load()
}
