package domain

import "errors"

var (
	// Core errors
	ErrInvalidAmount          = errors.New("amount must be non-zero and correctly signed")
	ErrInsufficientFunds      = errors.New("insufficient available balance")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrTransactionFailed      = errors.New("transaction failed")
	ErrDuplicateReference     = errors.New("could not allocate unique reference")

	// Wallet errors
	ErrWalletNotFound = errors.New("wallet not found")
	ErrWalletExists   = errors.New("wallet already exists for owner and currency")
	ErrWalletInactive = errors.New("wallet is not active")
	ErrInvalidOwner   = errors.New("owner id is required")
	ErrSameWallet     = errors.New("payer and payee wallets must differ")

	// Entry errors
	ErrEntryNotFound      = errors.New("ledger entry not found")
	ErrInvalidEntryType   = errors.New("invalid ledger entry type")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidDescription = errors.New("description must be non-empty and at most 500 characters")
	ErrCurrencyMismatch   = errors.New("currency mismatch")
	ErrInvalidReference   = errors.New("reference must be a 10-digit number")

	// Withdrawal errors
	ErrWithdrawalNotFound = errors.New("withdrawal not found")

	// Access errors
	ErrForbidden    = errors.New("actor is not allowed to perform this operation")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// IsBusinessError reports whether err is a domain outcome rather than an
// infrastructure failure.
func IsBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var businessErrors = []error{
	ErrInvalidAmount,
	ErrInsufficientFunds,
	ErrInvalidStateTransition,
	ErrTransactionFailed,
	ErrDuplicateReference,
	ErrWalletNotFound,
	ErrWalletExists,
	ErrWalletInactive,
	ErrInvalidOwner,
	ErrSameWallet,
	ErrEntryNotFound,
	ErrInvalidEntryType,
	ErrInvalidStatus,
	ErrInvalidDescription,
	ErrCurrencyMismatch,
	ErrInvalidReference,
	ErrWithdrawalNotFound,
	ErrHoldNotFound,
	ErrInvalidTarget,
	ErrInvalidExpiry,
	ErrInvalidCurrency,
	ErrAmountTooLarge,
	ErrForbidden,
}
