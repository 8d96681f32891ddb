package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

// Deps holds the ports shared by the wallet use cases.
type Deps struct {
	TxManager   TransactionManager
	Retrier     Retrier
	Wallets     WalletRepository
	Entries     EntryRepository
	Holds       HoldRepository
	Withdrawals WithdrawalRepository
	Audit       AuditRepository
	IDGen       IDGenerator
	RefGen      ReferenceGenerator
	Notifier    Notifier
	Cache       Cache
	Metrics     *metrics.Metrics
	Logger      *zerolog.Logger
	Now         func() time.Time
}

type core struct {
	Deps
	logger zerolog.Logger
}

func newCore(deps Deps) core {
	logger := log.Logger
	if deps.Logger != nil {
		logger = *deps.Logger
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return core{Deps: deps, logger: logger}
}

// inTx runs fn in a transaction bounded by DefaultTransactionTimeout. The
// whole attempt is re-run when the retrier classifies the failure as transient.
// Infrastructure failures surface wrapped in ErrTransactionFailed.
func (c *core) inTx(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error {
	attempt := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := c.TxManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	var err error
	if c.Retrier != nil {
		err = c.Retrier.Retry(ctx, attempt)
	} else {
		err = attempt()
	}

	if err == nil || domain.IsBusinessError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrTransactionFailed, err)
}

// allocateReference draws references until one is used by neither a ledger
// entry nor a withdrawal. Claimed holds references already taken earlier in
// the same transaction but not yet inserted.
func (c *core) allocateReference(ctx context.Context, tx Transaction, claimed ...string) (string, error) {
	for range MaxReferenceAttempts {
		ref, err := c.RefGen.Generate()
		if err != nil {
			return "", err
		}

		taken, err := c.referenceTaken(ctx, tx, ref, claimed)
		if err != nil {
			return "", err
		}
		if !taken {
			return ref, nil
		}
	}

	return "", domain.ErrDuplicateReference
}

func (c *core) referenceTaken(ctx context.Context, tx Transaction, ref string, claimed []string) (bool, error) {
	if slices.Contains(claimed, ref) {
		return true, nil
	}
	if taken, err := c.Entries.ReferenceExists(ctx, tx, ref); err != nil || taken {
		return taken, err
	}
	return c.Withdrawals.ReferenceExists(ctx, tx, ref)
}

// postInput describes a ledger entry to write against a locked wallet.
type postInput struct {
	Amount           decimal.Decimal
	Type             domain.EntryType
	Status           domain.EntryStatus
	Description      string
	AllowOverdraft   bool
	// ClaimedReference is a reference the caller allocated in the same
	// transaction and has not inserted yet.
	ClaimedReference string
}

// post writes one ledger entry for a wallet the caller has already locked
// in tx. Completed entries move the balance with an atomic increment.
// Debits must fit the available balance unless AllowOverdraft is set.
func (c *core) post(ctx context.Context, tx Transaction, wallet *domain.Wallet, in postInput) (*domain.LedgerEntry, error) {
	if in.Status == "" {
		in.Status = domain.EntryStatusCompleted
	}
	if in.Status == domain.EntryStatusFailed {
		return nil, domain.ErrInvalidStatus
	}

	now := c.Now()
	entry := &domain.LedgerEntry{
		ID:          c.IDGen.Generate(),
		WalletID:    wallet.ID,
		Type:        in.Type,
		Amount:      in.Amount,
		Currency:    wallet.Currency,
		Status:      in.Status,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := domain.ValidateSignedAmount(in.Amount); err != nil {
		return nil, err
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if entry.IsDebit() && !in.AllowOverdraft {
		if err := c.ensureFunds(ctx, tx, wallet, in.Amount.Abs()); err != nil {
			return nil, err
		}
	}

	var claimed []string
	if in.ClaimedReference != "" {
		claimed = append(claimed, in.ClaimedReference)
	}
	ref, err := c.allocateReference(ctx, tx, claimed...)
	if err != nil {
		return nil, err
	}
	entry.Reference = ref

	if err := c.Entries.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if entry.Status == domain.EntryStatusCompleted {
		balance, err := c.Wallets.IncrementBalance(ctx, tx, wallet.ID, entry.Amount, now)
		if err != nil {
			return nil, err
		}
		wallet.Balance = balance
		wallet.UpdatedAt = now
	}

	if c.Metrics != nil {
		c.Metrics.EntriesApplied.WithLabelValues(string(entry.Type), string(entry.Status)).Inc()
		c.Metrics.EntryAmount.Observe(entry.Amount.Abs().InexactFloat64())
	}

	return entry, nil
}

// ensureFunds checks amount against balance minus pending holds under the wallet lock.
func (c *core) ensureFunds(ctx context.Context, tx Transaction, wallet *domain.Wallet, amount decimal.Decimal) error {
	held, err := c.Holds.SumPending(ctx, tx, wallet.ID)
	if err != nil {
		return err
	}
	return wallet.ValidateDebit(amount, held)
}

// lockWallet locks the wallet row and checks that actor may act on it.
func (c *core) lockWallet(ctx context.Context, tx Transaction, actor domain.Actor, walletID string) (*domain.Wallet, error) {
	wallet, err := c.Wallets.GetByIDForUpdate(ctx, tx, walletID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(wallet) {
		return nil, domain.ErrForbidden
	}
	return wallet, nil
}

// readableWallet loads a wallet outside a transaction and checks read access.
func (c *core) readableWallet(ctx context.Context, actor domain.Actor, walletID string) (*domain.Wallet, error) {
	wallet, err := c.Wallets.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(wallet) {
		return nil, domain.ErrForbidden
	}
	return wallet, nil
}

func (c *core) audit(ctx context.Context, tx Transaction, actor domain.Actor, action domain.AuditAction, resourceType, resourceID string, before, after any) error {
	if c.Audit == nil {
		return nil
	}

	entry := &domain.AuditLog{
		ID:           c.IDGen.Generate(),
		UserID:       actor.UserID,
		Action:       string(action),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		BeforeState:  domain.MarshalState(before),
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    c.Now(),
	}

	return c.Audit.CreateTx(ctx, tx, entry)
}

// notify dispatches after commit. Failures are logged and never returned.
func (c *core) notify(ctx context.Context, n domain.Notification) {
	if c.Notifier == nil || n.UserID == "" {
		return
	}

	if err := c.Notifier.Notify(ctx, n); err != nil {
		c.logger.Warn().
			Err(err).
			Str("user_id", n.UserID).
			Str("category", n.Category).
			Msg("notification dispatch failed")

		if c.Metrics != nil {
			c.Metrics.NotificationFailures.Inc()
		}
	}
}

// observe records duration and error kind for an operation.
func (c *core) observe(operation string, start time.Time, err error) {
	if c.Metrics == nil {
		return
	}

	c.Metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		c.Metrics.OperationErrors.WithLabelValues(operation, errorKind(err)).Inc()
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return "invalid_state_transition"
	case errors.Is(err, domain.ErrDuplicateReference):
		return "duplicate_reference"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrTransactionFailed):
		return "transaction_failed"
	case domain.IsBusinessError(err):
		return "validation"
	default:
		return "internal"
	}
}
