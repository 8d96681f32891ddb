package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// MaxReferenceAttempts bounds reference generation before ErrDuplicateReference.
	MaxReferenceAttempts = 5

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// WalletCacheTTL is how long owner to wallet id lookups are cached
	WalletCacheTTL = 24 * time.Hour

	// DefaultExpiryBatch is how many expired holds one sweep cancels
	DefaultExpiryBatch = 100
)
