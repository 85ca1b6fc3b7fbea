package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/precatorio/internal/adapter/http/dto"
	"github.com/iho/precatorio/internal/domain"
	"github.com/iho/precatorio/internal/usecase"
)

// IndexService defines the behavior needed by IndexHandler.
type IndexService interface {
	Current() (*domain.IndexSnapshot, error)
	Refresh(ctx context.Context) (*usecase.RefreshResult, error)
}

// FactorService resolves table factors.
type FactorService interface {
	ResolveFactor(ctx context.Context, input usecase.ResolveFactorInput) (domain.FactorResolution, error)
}

// IndexHandler handles index table HTTP requests.
type IndexHandler struct {
	indexes IndexService
	factors FactorService
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(indexes IndexService, factors FactorService) *IndexHandler {
	return &IndexHandler{indexes: indexes, factors: factors}
}

// List lists the tables of the published snapshot.
func (h *IndexHandler) List(w http.ResponseWriter, r *http.Request) {
	snap, err := h.indexes.Current()
	if err != nil {
		writeDomainError(w, "failed to list indices", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.IndexListFromDomain(snap))
}

// Get returns one table with all its entries.
func (h *IndexHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing index name", "")
		return
	}

	snap, err := h.indexes.Current()
	if err != nil {
		writeDomainError(w, "failed to get index", err)
		return
	}

	table, err := snap.Table(name)
	if err != nil {
		writeDomainError(w, "failed to get index", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.IndexTableFromDomain(snap.Version, table))
}

// Factor resolves the table factor over the start and end query dates.
func (h *IndexHandler) Factor(w http.ResponseWriter, r *http.Request) {
	q, err := dto.ParseFactorQuery(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		writeDomainError(w, "invalid query", err)
		return
	}

	res, err := h.factors.ResolveFactor(r.Context(), usecase.ResolveFactorInput{
		Table: chi.URLParam(r, "name"),
		Start: q.Start,
		End:   q.End,
	})
	if err != nil {
		writeDomainError(w, "failed to resolve factor", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.FactorFromDomain(res))
}

// Refresh reloads the tables from their source and publishes a new snapshot.
func (h *IndexHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.indexes.Refresh(r.Context())
	if res == nil {
		writeError(w, http.StatusBadGateway, "failed to refresh indices", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RefreshFromUseCase(res, err))
}
