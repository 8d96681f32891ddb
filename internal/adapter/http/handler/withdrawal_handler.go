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

// WithdrawalService defines the behavior needed by WithdrawalHandler.
type WithdrawalService interface {
	RequestWithdrawal(ctx context.Context, actor domain.Actor, input usecase.RequestWithdrawalInput) (*domain.Withdrawal, error)
	GetWithdrawal(ctx context.Context, actor domain.Actor, id string) (*domain.Withdrawal, error)
	Complete(ctx context.Context, actor domain.Actor, id string, input usecase.ResolveWithdrawalInput) (*domain.Withdrawal, error)
	Reject(ctx context.Context, actor domain.Actor, id string, input usecase.ResolveWithdrawalInput) (*domain.Withdrawal, error)
}

// WithdrawalQuery lists withdrawals.
type WithdrawalQuery interface {
	ListWithdrawals(ctx context.Context, actor domain.Actor, filter domain.WithdrawalFilter) ([]*domain.Withdrawal, error)
}

// WithdrawalHandler handles withdrawal HTTP requests.
type WithdrawalHandler struct {
	withdrawalUC WithdrawalService
	queryUC      WithdrawalQuery
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(withdrawalUC WithdrawalService, queryUC WithdrawalQuery) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalUC: withdrawalUC, queryUC: queryUC}
}

// Request debits the wallet and opens a withdrawal for review.
func (h *WithdrawalHandler) Request(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.RequestWithdrawalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	withdrawal, err := h.withdrawalUC.RequestWithdrawal(r.Context(), actor, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to request withdrawal", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.WithdrawalFromDomain(withdrawal))
}

// Get retrieves a withdrawal by ID.
func (h *WithdrawalHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	withdrawal, err := h.withdrawalUC.GetWithdrawal(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get withdrawal", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WithdrawalFromDomain(withdrawal))
}

// List lists withdrawals, optionally for the wallet in the URL.
func (h *WithdrawalHandler) List(w http.ResponseWriter, r *http.Request) {
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

	withdrawals, err := h.queryUC.ListWithdrawals(r.Context(), actor, domain.WithdrawalFilter{
		WalletID: walletID,
		OwnerID:  q.Get("owner_id"),
		Status:   domain.WithdrawalStatus(strings.ToUpper(q.Get("status"))),
		From:     from,
		To:       to,
		Limit:    parseIntQuery(r, "limit", domain.DefaultPageSize),
		Offset:   parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, r, "failed to list withdrawals", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListWithdrawalsResponse{
		Withdrawals: dto.WithdrawalsFromDomain(withdrawals),
		Total:       int64(len(withdrawals)),
	})
}

// Complete marks a pending withdrawal as paid.
func (h *WithdrawalHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.withdrawalUC.Complete, "failed to complete withdrawal")
}

// Reject declines a pending withdrawal and refunds it.
func (h *WithdrawalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.withdrawalUC.Reject, "failed to reject withdrawal")
}

type resolveFunc func(ctx context.Context, actor domain.Actor, id string, input usecase.ResolveWithdrawalInput) (*domain.Withdrawal, error)

func (h *WithdrawalHandler) resolve(w http.ResponseWriter, r *http.Request, fn resolveFunc, message string) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.ResolveWithdrawalRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	withdrawal, err := fn(r.Context(), actor, chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, message, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WithdrawalFromDomain(withdrawal))
}
