package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/iho/precatorio/internal/usecase"
)

// HealthHandler handles health check requests.
// pool and redisClient are nil when the deployment does not use them.
type HealthHandler struct {
	pool        *pgxpool.Pool
	redisClient *redis.Client
	snapshots   usecase.SnapshotProvider
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(pool *pgxpool.Pool, redisClient *redis.Client, snapshots usecase.SnapshotProvider) *HealthHandler {
	return &HealthHandler{
		pool:        pool,
		redisClient: redisClient,
		snapshots:   snapshots,
	}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 once a snapshot is published and every configured
// backend answers.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]string{"status": "ready"}

	if h.snapshots != nil {
		snap, err := h.snapshots.Current()
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "index snapshot unavailable", err.Error())
			return
		}
		status["snapshot_version"] = snap.Version
	}

	if h.pool != nil {
		if err := h.pool.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "postgres unhealthy", err.Error())
			return
		}
		status["postgres"] = "ok"
	}

	if h.redisClient != nil {
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			writeError(w, http.StatusServiceUnavailable, "redis unhealthy", err.Error())
			return
		}
		status["redis"] = "ok"
	}

	writeJSON(w, http.StatusOK, status)
}
