package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// WalletResponse represents a wallet in API responses.
type WalletResponse struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// WalletFromDomain converts domain wallet to response.
func WalletFromDomain(w *domain.Wallet) *WalletResponse {
	return &WalletResponse{
		ID:        w.ID,
		OwnerID:   w.OwnerID,
		Currency:  w.Currency,
		Balance:   w.Balance,
		Active:    w.Active,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// WalletsFromDomain converts domain wallets to responses.
func WalletsFromDomain(wallets []*domain.Wallet) []*WalletResponse {
	result := make([]*WalletResponse, len(wallets))
	for i, w := range wallets {
		result[i] = WalletFromDomain(w)
	}
	return result
}

// ListWalletsResponse represents a page of wallets.
type ListWalletsResponse struct {
	Wallets []*WalletResponse `json:"wallets"`
	Total   int64             `json:"total"`
}

// BalanceResponse reports settled and available balance.
type BalanceResponse struct {
	WalletID  string          `json:"wallet_id"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Available decimal.Decimal `json:"available"`
}

// BalanceAtResponse reports the settled balance at a point in time.
type BalanceAtResponse struct {
	WalletID string          `json:"wallet_id"`
	At       time.Time       `json:"at"`
	Balance  decimal.Decimal `json:"balance"`
}

// CanWithdrawResponse answers a withdrawal pre-check.
type CanWithdrawResponse struct {
	WalletID    string          `json:"wallet_id"`
	Amount      decimal.Decimal `json:"amount"`
	CanWithdraw bool            `json:"can_withdraw"`
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID          string          `json:"id"`
	WalletID    string          `json:"wallet_id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	Reference   string          `json:"reference"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	return &EntryResponse{
		ID:          e.ID,
		WalletID:    e.WalletID,
		Type:        string(e.Type),
		Amount:      e.Amount,
		Currency:    e.Currency,
		Status:      string(e.Status),
		Reference:   e.Reference,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ListEntriesResponse represents a page of entries.
type ListEntriesResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Total   int64            `json:"total"`
}

// HoldResponse represents a hold in API responses.
type HoldResponse struct {
	ID         string          `json:"id"`
	WalletID   string          `json:"wallet_id"`
	TargetKind string          `json:"target_kind"`
	TargetID   string          `json:"target_id"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// HoldFromDomain converts domain hold to response.
func HoldFromDomain(h *domain.Hold) *HoldResponse {
	resp := &HoldResponse{
		ID:        h.ID,
		WalletID:  h.WalletID,
		Amount:    h.Amount,
		Status:    string(h.Status),
		ExpiresAt: h.ExpiresAt,
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt,
	}
	if h.Target != nil {
		resp.TargetKind = string(h.Target.Kind())
		resp.TargetID = h.Target.TargetID()
	}
	return resp
}

// HoldsFromDomain converts domain holds to responses.
func HoldsFromDomain(holds []*domain.Hold) []*HoldResponse {
	result := make([]*HoldResponse, len(holds))
	for i, h := range holds {
		result[i] = HoldFromDomain(h)
	}
	return result
}

// CaptureResponse reports a captured hold and its transfer entries.
type CaptureResponse struct {
	Hold   *HoldResponse  `json:"hold"`
	Debit  *EntryResponse `json:"debit"`
	Credit *EntryResponse `json:"credit"`
}

// CaptureFromUseCase converts a capture result to response.
func CaptureFromUseCase(r *usecase.CaptureResult) *CaptureResponse {
	return &CaptureResponse{
		Hold:   HoldFromDomain(r.Hold),
		Debit:  EntryFromDomain(r.Debit),
		Credit: EntryFromDomain(r.Credit),
	}
}

// WithdrawalResponse represents a withdrawal in API responses.
type WithdrawalResponse struct {
	ID            string          `json:"id"`
	WalletID      string          `json:"wallet_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	Reference     string          `json:"reference"`
	Card          string          `json:"card,omitempty"`
	Sheba         string          `json:"sheba,omitempty"`
	Description   string          `json:"description,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	Image         string          `json:"image,omitempty"`
	DebitEntryID  string          `json:"debit_entry_id"`
	RefundEntryID string          `json:"refund_entry_id,omitempty"`
	ResolvedBy    string          `json:"resolved_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// WithdrawalFromDomain converts domain withdrawal to response.
func WithdrawalFromDomain(w *domain.Withdrawal) *WithdrawalResponse {
	return &WithdrawalResponse{
		ID:            w.ID,
		WalletID:      w.WalletID,
		Amount:        w.Amount,
		Currency:      w.Currency,
		Status:        string(w.Status),
		Reference:     w.Reference,
		Card:          w.Card,
		Sheba:         w.Sheba,
		Description:   w.Description,
		Reason:        w.Reason,
		Image:         w.Image,
		DebitEntryID:  w.DebitEntryID,
		RefundEntryID: w.RefundEntryID,
		ResolvedBy:    w.ResolvedBy,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
}

// WithdrawalsFromDomain converts domain withdrawals to responses.
func WithdrawalsFromDomain(withdrawals []*domain.Withdrawal) []*WithdrawalResponse {
	result := make([]*WithdrawalResponse, len(withdrawals))
	for i, w := range withdrawals {
		result[i] = WithdrawalFromDomain(w)
	}
	return result
}

// ListWithdrawalsResponse represents a page of withdrawals.
type ListWithdrawalsResponse struct {
	Withdrawals []*WithdrawalResponse `json:"withdrawals"`
	Total       int64                 `json:"total"`
}

// ReconciliationResponse reports one wallet's reconciliation.
type ReconciliationResponse struct {
	WalletID          string          `json:"wallet_id"`
	Currency          string          `json:"currency"`
	RecordedBalance   decimal.Decimal `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
	IsReconciled      bool            `json:"is_reconciled"`
	LastChecked       time.Time       `json:"last_checked"`
}

// ReconciliationFromUseCase converts a reconciliation result to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		WalletID:          r.WalletID,
		Currency:          r.Currency,
		RecordedBalance:   r.RecordedBalance,
		CalculatedBalance: r.CalculatedBalance,
		Difference:        r.Difference,
		IsReconciled:      r.IsReconciled,
		LastChecked:       r.LastChecked,
	}
}

// ReconciliationReportResponse summarizes a full reconciliation run.
type ReconciliationReportResponse struct {
	TotalWallets      int                       `json:"total_wallets"`
	ReconciledWallets int                       `json:"reconciled_wallets"`
	Discrepancies     []*ReconciliationResponse `json:"discrepancies"`
	CheckedAt         time.Time                 `json:"checked_at"`
}

// ReportFromUseCase converts a reconciliation report to response.
func ReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	resp := &ReconciliationReportResponse{
		TotalWallets:      r.TotalWallets,
		ReconciledWallets: r.ReconciledWallets,
		Discrepancies:     make([]*ReconciliationResponse, len(r.Discrepancies)),
		CheckedAt:         r.CheckedAt,
	}
	for i, d := range r.Discrepancies {
		resp.Discrepancies[i] = ReconciliationFromUseCase(d)
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
