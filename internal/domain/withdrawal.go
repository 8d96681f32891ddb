package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus is the admin review state of a withdrawal.
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "PENDING"
	WithdrawalStatusCompleted WithdrawalStatus = "COMPLETED"
	WithdrawalStatusRejected  WithdrawalStatus = "REJECT"
)

// IsValid reports whether s is a known withdrawal status.
func (s WithdrawalStatus) IsValid() bool {
	switch s {
	case WithdrawalStatusPending, WithdrawalStatusCompleted, WithdrawalStatusRejected:
		return true
	}
	return false
}

// Withdrawal is a user's request to move funds out to a bank card or
// account. The wallet is debited when the request is created.
type Withdrawal struct {
	ID            string
	WalletID      string
	Amount        decimal.Decimal
	Currency      string
	Status        WithdrawalStatus
	Reference     string
	Card          string
	Sheba         string
	Description   string
	Reason        string
	Image         string
	DebitEntryID  string
	RefundEntryID string
	ResolvedBy    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks if withdrawal is valid.
func (w *Withdrawal) Validate() error {
	if w.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}

// Resolve moves a pending withdrawal to COMPLETED or REJECT.
func (w *Withdrawal) Resolve(to WithdrawalStatus, by, reason, image string, at time.Time) error {
	if w.Status != WithdrawalStatusPending {
		return ErrInvalidStateTransition
	}
	if to != WithdrawalStatusCompleted && to != WithdrawalStatusRejected {
		return ErrInvalidStateTransition
	}
	w.Status = to
	w.ResolvedBy = by
	w.Reason = reason
	w.Image = image
	w.UpdatedAt = at
	return nil
}
