package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// HoldService defines the behavior needed by HoldHandler.
type HoldService interface {
	PlaceHold(ctx context.Context, actor domain.Actor, input usecase.PlaceHoldInput) (*domain.Hold, error)
	GetHold(ctx context.Context, actor domain.Actor, id string) (*domain.Hold, error)
	Release(ctx context.Context, actor domain.Actor, holdID string) (*domain.Hold, error)
	Cancel(ctx context.Context, actor domain.Actor, holdID string) (*domain.Hold, error)
	Capture(ctx context.Context, actor domain.Actor, input usecase.CaptureHoldInput) (*usecase.CaptureResult, error)
	ListHoldsByWallet(ctx context.Context, actor domain.Actor, input usecase.ListHoldsByWalletInput) ([]*domain.Hold, error)
}

// HoldHandler handles hold-related HTTP requests.
type HoldHandler struct {
	holdUC HoldService
}

// NewHoldHandler creates a new HoldHandler.
func NewHoldHandler(holdUC HoldService) *HoldHandler {
	return &HoldHandler{holdUC: holdUC}
}

// Place reserves funds for a claim, plan or identity.
func (h *HoldHandler) Place(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.PlaceHoldRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, r, "invalid hold target", err)
		return
	}

	hold, err := h.holdUC.PlaceHold(r.Context(), actor, input)
	if err != nil {
		writeDomainError(w, r, "failed to place hold", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.HoldFromDomain(hold))
}

// Get retrieves a hold by ID.
func (h *HoldHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	hold, err := h.holdUC.GetHold(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get hold", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HoldFromDomain(hold))
}

// Release returns a pending hold's funds to the available balance.
func (h *HoldHandler) Release(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	hold, err := h.holdUC.Release(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to release hold", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HoldFromDomain(hold))
}

// Cancel voids a pending hold.
func (h *HoldHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	hold, err := h.holdUC.Cancel(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to cancel hold", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HoldFromDomain(hold))
}

// Capture pays a hold out to the payee wallet.
func (h *HoldHandler) Capture(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.CaptureHoldRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.holdUC.Capture(r.Context(), actor, usecase.CaptureHoldInput{
		HoldID:        chi.URLParam(r, "id"),
		PayeeWalletID: req.PayeeWalletID,
		Description:   req.Description,
	})
	if err != nil {
		writeDomainError(w, r, "failed to capture hold", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CaptureFromUseCase(result))
}

// ListByWallet lists holds on the wallet in the URL.
func (h *HoldHandler) ListByWallet(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	holds, err := h.holdUC.ListHoldsByWallet(r.Context(), actor, usecase.ListHoldsByWalletInput{
		WalletID: chi.URLParam(r, "id"),
		Limit:    parseIntQuery(r, "limit", domain.DefaultPageSize),
		Offset:   parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, r, "failed to list holds", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HoldsFromDomain(holds))
}
