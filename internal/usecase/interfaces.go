package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// WalletRepository defines data access for wallets.
type WalletRepository interface {
	Create(ctx context.Context, tx Transaction, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)
	GetByOwner(ctx context.Context, ownerID, currency string) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Wallet, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Wallet, error)
	// IncrementBalance applies balance = balance + delta and returns the new balance.
	IncrementBalance(ctx context.Context, tx Transaction, id string, delta decimal.Decimal, updatedAt time.Time) (decimal.Decimal, error)
	SetActive(ctx context.Context, tx Transaction, id string, active bool, updatedAt time.Time) error
	// AvailableBalance returns balance minus pending holds as one consistent read.
	AvailableBalance(ctx context.Context, id string) (decimal.Decimal, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error)
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.LedgerEntry, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.EntryStatus, updatedAt time.Time) error
	ReferenceExists(ctx context.Context, tx Transaction, reference string) (bool, error)
	List(ctx context.Context, filter domain.EntryFilter) ([]*domain.LedgerEntry, error)
	// SumCompleted sums completed entries for a wallet, optionally up to and including at.
	SumCompleted(ctx context.Context, walletID string, at *time.Time) (decimal.Decimal, error)
}

// HoldRepository defines data access for holds.
type HoldRepository interface {
	Create(ctx context.Context, tx Transaction, hold *domain.Hold) error
	GetByID(ctx context.Context, id string) (*domain.Hold, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Hold, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.HoldStatus, updatedAt time.Time) error
	SumPending(ctx context.Context, tx Transaction, walletID string) (decimal.Decimal, error)
	ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Hold, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Hold, error)
}

// WithdrawalRepository defines data access for withdrawal requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, tx Transaction, withdrawal *domain.Withdrawal) error
	GetByID(ctx context.Context, id string) (*domain.Withdrawal, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Withdrawal, error)
	// Update persists the resolution fields of a withdrawal.
	Update(ctx context.Context, tx Transaction, withdrawal *domain.Withdrawal) error
	ReferenceExists(ctx context.Context, tx Transaction, reference string) (bool, error)
	List(ctx context.Context, filter domain.WithdrawalFilter) ([]*domain.Withdrawal, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Insert(ctx context.Context, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	ListByResource(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation when it fails with a transient storage error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// ReferenceGenerator produces candidate 10-digit references.
type ReferenceGenerator interface {
	Generate() (string, error)
}

// Notifier delivers user notifications. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, notification domain.Notification) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
