package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// EntryService defines the write behavior needed by EntryHandler.
type EntryService interface {
	ApplyLedgerEntry(ctx context.Context, actor domain.Actor, input usecase.ApplyLedgerEntryInput) (*domain.LedgerEntry, error)
	SettleEntry(ctx context.Context, actor domain.Actor, entryID string, status domain.EntryStatus) (*domain.LedgerEntry, error)
}

// EntryQuery lists ledger entries.
type EntryQuery interface {
	ListEntries(ctx context.Context, actor domain.Actor, filter domain.EntryFilter) ([]*domain.LedgerEntry, error)
}

// EntryHandler handles ledger entry HTTP requests.
type EntryHandler struct {
	entryUC EntryService
	queryUC EntryQuery
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC EntryService, queryUC EntryQuery) *EntryHandler {
	return &EntryHandler{entryUC: entryUC, queryUC: queryUC}
}

// Apply writes a signed ledger entry.
func (h *EntryHandler) Apply(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.ApplyEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.entryUC.ApplyLedgerEntry(r.Context(), actor, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to apply entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Settle completes or fails a pending entry.
func (h *EntryHandler) Settle(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.SettleEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	status := domain.EntryStatus(strings.ToUpper(req.Status))
	entry, err := h.entryUC.SettleEntry(r.Context(), actor, chi.URLParam(r, "id"), status)
	if err != nil {
		writeDomainError(w, r, "failed to settle entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// List lists entries, optionally for the wallet in the URL.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	from, err := parseTimeQuery(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from timestamp", err.Error())
		return
	}
	to, err := parseTimeQuery(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to timestamp", err.Error())
		return
	}

	q := r.URL.Query()
	walletID := chi.URLParam(r, "id")
	if walletID == "" {
		walletID = q.Get("wallet_id")
	}

	entries, err := h.queryUC.ListEntries(r.Context(), actor, domain.EntryFilter{
		WalletID: walletID,
		OwnerID:  q.Get("owner_id"),
		Type:     domain.EntryType(strings.ToUpper(q.Get("type"))),
		Status:   domain.EntryStatus(strings.ToUpper(q.Get("status"))),
		From:     from,
		To:       to,
		Limit:    parseIntQuery(r, "limit", domain.DefaultPageSize),
		Offset:   parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, r, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.EntriesFromDomain(entries),
		Total:   int64(len(entries)),
	})
}
