package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a user's settled balance in a single currency.
type Wallet struct {
	ID        string
	OwnerID   string
	Currency  string
	Balance   decimal.Decimal
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AvailableBalance returns the settled balance minus funds reserved by pending holds.
func (w *Wallet) AvailableBalance(pendingHolds decimal.Decimal) decimal.Decimal {
	return w.Balance.Sub(pendingHolds)
}

// ValidateDebit checks that amount can be taken from the wallet given the
// currently reserved funds. amount is the absolute size of the debit.
func (w *Wallet) ValidateDebit(amount, pendingHolds decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if w.AvailableBalance(pendingHolds).LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// EnsureActive returns ErrWalletInactive for deactivated wallets.
func (w *Wallet) EnsureActive() error {
	if !w.Active {
		return ErrWalletInactive
	}
	return nil
}
