package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType classifies a ledger entry.
type EntryType string

const (
	EntryTypeDeposit    EntryType = "DEPOSIT"
	EntryTypeWithdrawal EntryType = "WITHDRAWAL"
	EntryTypeTransfer   EntryType = "TRANSFER"
	EntryTypePurchase   EntryType = "PURCHASE"
	EntryTypeRefund     EntryType = "REFUND"
)

// IsValid reports whether t is a known entry type.
func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypeDeposit, EntryTypeWithdrawal, EntryTypeTransfer, EntryTypePurchase, EntryTypeRefund:
		return true
	}
	return false
}

// EntryStatus is the settlement state of a ledger entry.
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "PENDING"
	EntryStatusCompleted EntryStatus = "COMPLETED"
	EntryStatusFailed    EntryStatus = "FAILED"
)

// IsValid reports whether s is a known entry status.
func (s EntryStatus) IsValid() bool {
	switch s {
	case EntryStatusPending, EntryStatusCompleted, EntryStatusFailed:
		return true
	}
	return false
}

// LedgerEntry is an immutable signed movement against a wallet.
// Positive amounts credit the wallet, negative amounts debit it.
type LedgerEntry struct {
	ID          string
	WalletID    string
	Type        EntryType
	Amount      decimal.Decimal
	Currency    string
	Status      EntryStatus
	Reference   string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsDebit reports whether the entry reduces the wallet balance.
func (e *LedgerEntry) IsDebit() bool {
	return e.Amount.IsNegative()
}

// Validate checks the entry's static fields.
func (e *LedgerEntry) Validate() error {
	if e.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if !e.Type.IsValid() {
		return ErrInvalidEntryType
	}
	if !e.Status.IsValid() {
		return ErrInvalidStatus
	}
	return ValidateDescription(e.Description)
}

// Settle moves a pending entry to COMPLETED or FAILED.
func (e *LedgerEntry) Settle(to EntryStatus, at time.Time) error {
	if e.Status != EntryStatusPending {
		return ErrInvalidStateTransition
	}
	if to != EntryStatusCompleted && to != EntryStatusFailed {
		return ErrInvalidStateTransition
	}
	e.Status = to
	e.UpdatedAt = at
	return nil
}
