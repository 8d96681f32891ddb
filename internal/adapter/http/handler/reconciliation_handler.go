package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	ReconcileWallet(ctx context.Context, actor domain.Actor, walletID string) (*usecase.ReconciliationResult, error)
	GenerateReport(ctx context.Context, actor domain.Actor) (*usecase.ReconciliationReport, error)
}

// ReconciliationHandler exposes balance reconciliation.
type ReconciliationHandler struct {
	reconUC ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconUC ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconUC: reconUC}
}

// Wallet reconciles a single wallet.
func (h *ReconciliationHandler) Wallet(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	result, err := h.reconUC.ReconcileWallet(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to reconcile wallet", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(result))
}

// Report reconciles every wallet.
func (h *ReconciliationHandler) Report(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	report, err := h.reconUC.GenerateReport(r.Context(), actor)
	if err != nil {
		writeDomainError(w, r, "failed to generate report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReportFromUseCase(report))
}
