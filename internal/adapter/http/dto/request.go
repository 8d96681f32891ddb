package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// CreateWalletRequest represents a request to open a wallet.
type CreateWalletRequest struct {
	OwnerID  string `json:"owner_id"`
	Currency string `json:"currency"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateWalletRequest) ToUseCaseInput() usecase.CreateWalletInput {
	return usecase.CreateWalletInput{
		OwnerID:  r.OwnerID,
		Currency: r.Currency,
	}
}

// SetActiveRequest toggles a wallet's active flag.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// ApplyEntryRequest represents a signed ledger entry.
type ApplyEntryRequest struct {
	WalletID       string          `json:"wallet_id"`
	Amount         decimal.Decimal `json:"amount"`
	Type           string          `json:"type"`
	Status         string          `json:"status,omitempty"`
	Description    string          `json:"description"`
	AllowOverdraft bool            `json:"allow_overdraft,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ApplyEntryRequest) ToUseCaseInput() usecase.ApplyLedgerEntryInput {
	return usecase.ApplyLedgerEntryInput{
		WalletID:       r.WalletID,
		Amount:         r.Amount,
		Type:           domain.EntryType(r.Type),
		Status:         domain.EntryStatus(r.Status),
		Description:    r.Description,
		AllowOverdraft: r.AllowOverdraft,
	}
}

// SettleEntryRequest moves a pending entry to a final status.
type SettleEntryRequest struct {
	Status string `json:"status"`
}

// PlaceHoldRequest represents a request to reserve funds.
type PlaceHoldRequest struct {
	WalletID   string          `json:"wallet_id"`
	TargetKind string          `json:"target_kind"`
	TargetID   string          `json:"target_id"`
	Amount     decimal.Decimal `json:"amount"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *PlaceHoldRequest) ToUseCaseInput() (usecase.PlaceHoldInput, error) {
	target, err := domain.NewHoldTarget(domain.TargetKind(r.TargetKind), r.TargetID)
	if err != nil {
		return usecase.PlaceHoldInput{}, err
	}
	return usecase.PlaceHoldInput{
		WalletID:  r.WalletID,
		Target:    target,
		Amount:    r.Amount,
		ExpiresAt: r.ExpiresAt,
	}, nil
}

// CaptureHoldRequest pays a hold out to another wallet.
type CaptureHoldRequest struct {
	PayeeWalletID string `json:"payee_wallet_id"`
	Description   string `json:"description,omitempty"`
}

// RequestWithdrawalRequest represents a withdrawal request.
type RequestWithdrawalRequest struct {
	WalletID    string          `json:"wallet_id"`
	Amount      decimal.Decimal `json:"amount"`
	Card        string          `json:"card,omitempty"`
	Sheba       string          `json:"sheba,omitempty"`
	Description string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *RequestWithdrawalRequest) ToUseCaseInput() usecase.RequestWithdrawalInput {
	return usecase.RequestWithdrawalInput{
		WalletID:    r.WalletID,
		Amount:      r.Amount,
		Card:        r.Card,
		Sheba:       r.Sheba,
		Description: r.Description,
	}
}

// ResolveWithdrawalRequest carries an admin's decision details.
type ResolveWithdrawalRequest struct {
	Reason string `json:"reason,omitempty"`
	Image  string `json:"image,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ResolveWithdrawalRequest) ToUseCaseInput() usecase.ResolveWithdrawalInput {
	return usecase.ResolveWithdrawalInput{
		Reason: r.Reason,
		Image:  r.Image,
	}
}
