package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// WalletUseCase owns wallets and the ledger entry primitive.
type WalletUseCase struct {
	core
}

// NewWalletUseCase creates a new WalletUseCase.
func NewWalletUseCase(deps Deps) *WalletUseCase {
	return &WalletUseCase{core: newCore(deps)}
}

// CreateWalletInput represents input for creating a wallet.
type CreateWalletInput struct {
	OwnerID  string
	Currency string
}

// CreateWallet opens a wallet for an owner and currency.
// Users may only open their own wallet.
func (uc *WalletUseCase) CreateWallet(ctx context.Context, actor domain.Actor, input CreateWalletInput) (*domain.Wallet, error) {
	ownerID := strings.TrimSpace(input.OwnerID)
	if ownerID == "" {
		return nil, domain.ErrInvalidOwner
	}
	if !actor.IsElevated() && actor.UserID != ownerID {
		return nil, domain.ErrForbidden
	}
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}

	now := uc.Now()
	wallet := &domain.Wallet{
		ID:        uc.IDGen.Generate(),
		OwnerID:   ownerID,
		Currency:  domain.NormalizeCurrency(input.Currency),
		Balance:   decimal.Zero,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		if err := uc.Wallets.Create(ctx, tx, wallet); err != nil {
			return err
		}
		return uc.audit(ctx, tx, actor, domain.AuditActionWalletCreate, domain.ResourceTypeWallet, wallet.ID, nil, wallet)
	})
	if err != nil {
		return nil, err
	}

	if uc.Metrics != nil {
		uc.Metrics.WalletsCreated.Inc()
	}

	return wallet, nil
}

// GetWallet retrieves a wallet by ID.
func (uc *WalletUseCase) GetWallet(ctx context.Context, actor domain.Actor, id string) (*domain.Wallet, error) {
	return uc.readableWallet(ctx, actor, id)
}

// GetWalletByOwner resolves an owner's wallet in a currency. The wallet id
// for an owner never changes, so the lookup is cached.
func (uc *WalletUseCase) GetWalletByOwner(ctx context.Context, actor domain.Actor, ownerID, currency string) (*domain.Wallet, error) {
	currency = domain.NormalizeCurrency(currency)
	if !actor.IsElevated() && actor.UserID != ownerID {
		return nil, domain.ErrForbidden
	}

	key := walletOwnerCacheKey(ownerID, currency)
	if uc.Cache != nil {
		if cached, err := uc.Cache.Get(ctx, key); err == nil && len(cached) > 0 {
			wallet, err := uc.Wallets.GetByID(ctx, string(cached))
			if err == nil {
				return wallet, nil
			}
			_ = uc.Cache.Delete(ctx, key)
		}
	}

	wallet, err := uc.Wallets.GetByOwner(ctx, ownerID, currency)
	if err != nil {
		return nil, err
	}

	if uc.Cache != nil {
		if err := uc.Cache.Set(ctx, key, []byte(wallet.ID), WalletCacheTTL); err != nil {
			uc.logger.Debug().Err(err).Str("owner_id", ownerID).Msg("wallet cache write failed")
		}
	}

	return wallet, nil
}

func walletOwnerCacheKey(ownerID, currency string) string {
	return "wallet:owner:" + ownerID + ":" + currency
}

// ListWallets lists wallets with pagination. Admin and system only.
func (uc *WalletUseCase) ListWallets(ctx context.Context, actor domain.Actor, limit, offset int) ([]*domain.Wallet, error) {
	if err := actor.RequireElevated(); err != nil {
		return nil, err
	}
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.Wallets.List(ctx, limit, offset)
}

// SetActive toggles whether a wallet accepts user-initiated debits.
func (uc *WalletUseCase) SetActive(ctx context.Context, actor domain.Actor, id string, active bool) (*domain.Wallet, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	var wallet *domain.Wallet
	err := uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		w, err := uc.Wallets.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		before := *w

		now := uc.Now()
		if err := uc.Wallets.SetActive(ctx, tx, id, active, now); err != nil {
			return err
		}
		w.Active = active
		w.UpdatedAt = now

		action := domain.AuditActionWalletDeactivate
		if active {
			action = domain.AuditActionWalletActivate
		}
		if err := uc.audit(ctx, tx, actor, action, domain.ResourceTypeWallet, id, before, w); err != nil {
			return err
		}

		wallet = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	return wallet, nil
}

// ApplyLedgerEntryInput represents input for writing a ledger entry.
type ApplyLedgerEntryInput struct {
	WalletID    string
	Amount      decimal.Decimal
	Type        domain.EntryType
	Description string
	// Status defaults to COMPLETED. PENDING entries move no balance until settled.
	Status domain.EntryStatus
	// AllowOverdraft skips the available balance check for debits.
	AllowOverdraft bool
}

// ApplyLedgerEntry writes a signed entry and, when completed, moves the
// wallet balance by the same amount in one transaction.
func (uc *WalletUseCase) ApplyLedgerEntry(ctx context.Context, actor domain.Actor, input ApplyLedgerEntryInput) (*domain.LedgerEntry, error) {
	start := time.Now()
	entry, wallet, err := uc.applyLedgerEntry(ctx, actor, input)
	uc.observe("apply_entry", start, err)
	if err != nil {
		return nil, err
	}

	if entry.Status == domain.EntryStatusCompleted {
		uc.notify(ctx, balanceNotification(wallet, entry))
	}

	return entry, nil
}

func (uc *WalletUseCase) applyLedgerEntry(ctx context.Context, actor domain.Actor, input ApplyLedgerEntryInput) (*domain.LedgerEntry, *domain.Wallet, error) {
	if err := actor.RequireElevated(); err != nil {
		return nil, nil, err
	}
	if err := domain.ValidateSignedAmount(input.Amount); err != nil {
		return nil, nil, err
	}
	if !input.Type.IsValid() {
		return nil, nil, domain.ErrInvalidEntryType
	}
	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, nil, err
	}

	var (
		entry  *domain.LedgerEntry
		wallet *domain.Wallet
	)
	err := uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		w, err := uc.lockWallet(ctx, tx, actor, input.WalletID)
		if err != nil {
			return err
		}

		e, err := uc.post(ctx, tx, w, postInput{
			Amount:         input.Amount,
			Type:           input.Type,
			Status:         input.Status,
			Description:    input.Description,
			AllowOverdraft: input.AllowOverdraft,
		})
		if err != nil {
			return err
		}

		if err := uc.audit(ctx, tx, actor, domain.AuditActionEntryApply, domain.ResourceTypeEntry, e.ID, nil, e); err != nil {
			return err
		}

		entry, wallet = e, w
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return entry, wallet, nil
}

// SettleEntry moves a pending entry to COMPLETED or FAILED. Completing it
// applies the amount to the wallet balance.
func (uc *WalletUseCase) SettleEntry(ctx context.Context, actor domain.Actor, entryID string, status domain.EntryStatus) (*domain.LedgerEntry, error) {
	if err := actor.RequireElevated(); err != nil {
		return nil, err
	}

	start := time.Now()
	current, err := uc.Entries.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	var (
		entry  *domain.LedgerEntry
		wallet *domain.Wallet
	)
	err = uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		w, err := uc.lockWallet(ctx, tx, actor, current.WalletID)
		if err != nil {
			return err
		}

		e, err := uc.Entries.GetByIDForUpdate(ctx, tx, entryID)
		if err != nil {
			return err
		}
		before := *e

		now := uc.Now()
		if err := e.Settle(status, now); err != nil {
			return err
		}

		if e.Status == domain.EntryStatusCompleted {
			if e.IsDebit() {
				if err := uc.ensureFunds(ctx, tx, w, e.Amount.Abs()); err != nil {
					return err
				}
			}
			balance, err := uc.Wallets.IncrementBalance(ctx, tx, w.ID, e.Amount, now)
			if err != nil {
				return err
			}
			w.Balance = balance
		}

		if err := uc.Entries.UpdateStatus(ctx, tx, e.ID, e.Status, now); err != nil {
			return err
		}

		if err := uc.audit(ctx, tx, actor, domain.AuditActionEntrySettle, domain.ResourceTypeEntry, e.ID, before, e); err != nil {
			return err
		}

		entry, wallet = e, w
		return nil
	})
	uc.observe("settle_entry", start, err)
	if err != nil {
		return nil, err
	}

	if entry.Status == domain.EntryStatusCompleted {
		uc.notify(ctx, balanceNotification(wallet, entry))
	}

	return entry, nil
}

// GetAvailableBalance returns balance minus pending holds.
func (uc *WalletUseCase) GetAvailableBalance(ctx context.Context, actor domain.Actor, walletID string) (decimal.Decimal, error) {
	if _, err := uc.readableWallet(ctx, actor, walletID); err != nil {
		return decimal.Zero, err
	}
	return uc.Wallets.AvailableBalance(ctx, walletID)
}

// CanWithdraw reports whether amount currently fits the available balance.
// Debit paths repeat this check under the wallet lock.
func (uc *WalletUseCase) CanWithdraw(ctx context.Context, actor domain.Actor, walletID string, amount decimal.Decimal) (bool, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return false, err
	}

	available, err := uc.GetAvailableBalance(ctx, actor, walletID)
	if err != nil {
		return false, err
	}

	return available.GreaterThanOrEqual(amount), nil
}

func balanceNotification(wallet *domain.Wallet, entry *domain.LedgerEntry) domain.Notification {
	title := "Wallet credited"
	if entry.IsDebit() {
		title = "Wallet debited"
	}

	return domain.Notification{
		Title: title,
		Body: fmt.Sprintf("%s %s %s (ref %s). Balance: %s %s",
			entry.Type, entry.Amount.String(), entry.Currency, entry.Reference,
			wallet.Balance.String(), wallet.Currency),
		UserID:   wallet.OwnerID,
		Category: domain.NotificationCategoryWallet,
	}
}
