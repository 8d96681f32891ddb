package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// WalletService defines the behavior needed by WalletHandler.
type WalletService interface {
	CreateWallet(ctx context.Context, actor domain.Actor, input usecase.CreateWalletInput) (*domain.Wallet, error)
	GetWallet(ctx context.Context, actor domain.Actor, id string) (*domain.Wallet, error)
	GetWalletByOwner(ctx context.Context, actor domain.Actor, ownerID, currency string) (*domain.Wallet, error)
	ListWallets(ctx context.Context, actor domain.Actor, limit, offset int) ([]*domain.Wallet, error)
	SetActive(ctx context.Context, actor domain.Actor, id string, active bool) (*domain.Wallet, error)
	GetAvailableBalance(ctx context.Context, actor domain.Actor, walletID string) (decimal.Decimal, error)
	CanWithdraw(ctx context.Context, actor domain.Actor, walletID string, amount decimal.Decimal) (bool, error)
}

// BalanceHistory reconstructs historical balances.
type BalanceHistory interface {
	BalanceAt(ctx context.Context, actor domain.Actor, walletID string, at time.Time) (decimal.Decimal, error)
}

// WalletHandler handles wallet-related HTTP requests.
type WalletHandler struct {
	walletUC WalletService
	history  BalanceHistory
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletUC WalletService, history BalanceHistory) *WalletHandler {
	return &WalletHandler{walletUC: walletUC, history: history}
}

// Create opens a wallet.
func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.CreateWalletRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	wallet, err := h.walletUC.CreateWallet(r.Context(), actor, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create wallet", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.WalletFromDomain(wallet))
}

// Get retrieves a wallet by ID.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	wallet, err := h.walletUC.GetWallet(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get wallet", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// GetByOwner resolves an owner's wallet for a currency.
func (h *WalletHandler) GetByOwner(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	currency := r.URL.Query().Get("currency")
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	wallet, err := h.walletUC.GetWalletByOwner(r.Context(), actor, chi.URLParam(r, "ownerID"), currency)
	if err != nil {
		writeDomainError(w, r, "failed to get wallet", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// List lists wallets.
func (h *WalletHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	wallets, err := h.walletUC.ListWallets(r.Context(), actor,
		parseIntQuery(r, "limit", domain.DefaultPageSize),
		parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, r, "failed to list wallets", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListWalletsResponse{
		Wallets: dto.WalletsFromDomain(wallets),
		Total:   int64(len(wallets)),
	})
}

// SetActive activates or deactivates a wallet.
func (h *WalletHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.SetActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	wallet, err := h.walletUC.SetActive(r.Context(), actor, chi.URLParam(r, "id"), req.Active)
	if err != nil {
		writeDomainError(w, r, "failed to update wallet", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// Balance reports settled and available balance.
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	wallet, err := h.walletUC.GetWallet(r.Context(), actor, id)
	if err != nil {
		writeDomainError(w, r, "failed to get balance", err)
		return
	}

	available, err := h.walletUC.GetAvailableBalance(r.Context(), actor, id)
	if err != nil {
		writeDomainError(w, r, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		WalletID:  wallet.ID,
		Currency:  wallet.Currency,
		Balance:   wallet.Balance,
		Available: available,
	})
}

// CanWithdraw answers whether an amount fits the available balance.
func (h *WalletHandler) CanWithdraw(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	allowed, err := h.walletUC.CanWithdraw(r.Context(), actor, id, amount)
	if err != nil {
		writeDomainError(w, r, "failed to check withdrawal", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CanWithdrawResponse{
		WalletID:    id,
		Amount:      amount,
		CanWithdraw: allowed,
	})
}

// BalanceAt reports the settled balance at the time given by the "at" query
// parameter.
func (h *WalletHandler) BalanceAt(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	at, err := parseTimeQuery(r, "at")
	if err != nil || at == nil {
		writeError(w, http.StatusBadRequest, "invalid timestamp", "at must be RFC 3339")
		return
	}

	balance, err := h.history.BalanceAt(r.Context(), actor, id, *at)
	if err != nil {
		writeDomainError(w, r, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceAtResponse{
		WalletID: id,
		At:       *at,
		Balance:  balance,
	})
}
