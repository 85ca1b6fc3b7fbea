package handler

import (
	"context"
	"net/http"

	"github.com/iho/precatorio/internal/adapter/http/dto"
	"github.com/iho/precatorio/internal/domain"
	"github.com/iho/precatorio/internal/usecase"
)

// CalculationService defines the behavior needed by CalculationHandler.
type CalculationService interface {
	Correct(ctx context.Context, input usecase.CorrectInput) (domain.CorrectionResult, error)
	Apportion(ctx context.Context, input usecase.ApportionInput) (domain.ApportionmentResult, error)
	ToUnits(ctx context.Context, input usecase.ToUnitsInput) (domain.UnitEquivalenceResult, error)
	Calculate(ctx context.Context, input usecase.CalculateInput) (*domain.CaseCalculation, error)
	CalculateBatch(ctx context.Context, inputs []usecase.CalculateInput) ([]usecase.BatchItemResult, error)
}

// CalculationHandler handles calculation HTTP requests.
type CalculationHandler struct {
	calcUC CalculationService
}

// NewCalculationHandler creates a new CalculationHandler.
func NewCalculationHandler(calcUC CalculationService) *CalculationHandler {
	return &CalculationHandler{calcUC: calcUC}
}

// Correct corrects a credit.
func (h *CalculationHandler) Correct(w http.ResponseWriter, r *http.Request) {
	var req dto.CorrectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	res, err := h.calcUC.Correct(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to correct credit", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CorrectionFromDomain(res))
}

// Apportion splits a gross value into withholdings and net.
func (h *CalculationHandler) Apportion(w http.ResponseWriter, r *http.Request) {
	var req dto.ApportionmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	res, err := h.calcUC.Apportion(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to apportion", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ApportionmentFromDomain(res))
}

// UnitEquivalence expresses an amount in reference units.
func (h *CalculationHandler) UnitEquivalence(w http.ResponseWriter, r *http.Request) {
	var req dto.UnitEquivalenceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	res, err := h.calcUC.ToUnits(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to convert to units", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UnitEquivalenceFromDomain(res))
}

// Calculate runs the full calculation of one credit.
func (h *CalculationHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req dto.CalculationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	calc, err := h.calcUC.Calculate(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to calculate", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CalculationFromDomain(calc))
}

// CalculateBatch calculates many credits. Item failures are reported per item.
func (h *CalculationHandler) CalculateBatch(w http.ResponseWriter, r *http.Request) {
	var req dto.BatchCalculationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	inputs, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	results, err := h.calcUC.CalculateBatch(r.Context(), inputs)
	if err != nil {
		writeDomainError(w, "failed to calculate batch", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BatchFromUseCase(results))
}
