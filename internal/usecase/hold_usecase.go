package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// HoldUseCase manages payment holds on wallets.
type HoldUseCase struct {
	core
}

// NewHoldUseCase creates a new HoldUseCase.
func NewHoldUseCase(deps Deps) *HoldUseCase {
	return &HoldUseCase{core: newCore(deps)}
}

// PlaceHoldInput represents input for reserving funds.
type PlaceHoldInput struct {
	WalletID  string
	Target    domain.HoldTarget
	Amount    decimal.Decimal
	ExpiresAt *time.Time
}

// PlaceHold reserves amount on a wallet for a claim, plan or identity.
// The settled balance is untouched and no ledger entry is written.
func (uc *HoldUseCase) PlaceHold(ctx context.Context, actor domain.Actor, input PlaceHoldInput) (*domain.Hold, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if input.Target == nil || input.Target.TargetID() == "" {
		return nil, domain.ErrInvalidTarget
	}

	start := time.Now()
	var hold *domain.Hold
	err := uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		wallet, err := uc.lockWallet(ctx, tx, actor, input.WalletID)
		if err != nil {
			return err
		}
		if err := wallet.EnsureActive(); err != nil {
			return err
		}
		if err := uc.ensureFunds(ctx, tx, wallet, input.Amount); err != nil {
			return err
		}

		now := uc.Now()
		h := &domain.Hold{
			ID:        uc.IDGen.Generate(),
			WalletID:  wallet.ID,
			Target:    input.Target,
			Amount:    input.Amount,
			Status:    domain.HoldStatusPending,
			ExpiresAt: input.ExpiresAt,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := h.Validate(); err != nil {
			return err
		}

		if err := uc.Holds.Create(ctx, tx, h); err != nil {
			return err
		}

		if err := uc.audit(ctx, tx, actor, domain.AuditActionHoldPlace, domain.ResourceTypeHold, h.ID, nil, h); err != nil {
			return err
		}

		hold = h
		return nil
	})
	uc.observe("place_hold", start, err)
	if err != nil {
		return nil, err
	}

	if uc.Metrics != nil {
		uc.Metrics.HoldsPlaced.Inc()
	}

	return hold, nil
}

// Release ends a pending hold and returns its funds to the available balance.
func (uc *HoldUseCase) Release(ctx context.Context, actor domain.Actor, holdID string) (*domain.Hold, error) {
	hold, err := uc.transition(ctx, actor, holdID, domain.HoldStatusReleased, domain.AuditActionHoldRelease)
	if err != nil {
		return nil, err
	}

	if uc.Metrics != nil {
		uc.Metrics.HoldsReleased.Inc()
	}

	return hold, nil
}

// Cancel voids a pending hold. Balance effects are the same as Release.
func (uc *HoldUseCase) Cancel(ctx context.Context, actor domain.Actor, holdID string) (*domain.Hold, error) {
	hold, err := uc.transition(ctx, actor, holdID, domain.HoldStatusCancelled, domain.AuditActionHoldCancel)
	if err != nil {
		return nil, err
	}

	if uc.Metrics != nil {
		uc.Metrics.HoldsCancelled.Inc()
	}

	return hold, nil
}

func (uc *HoldUseCase) transition(ctx context.Context, actor domain.Actor, holdID string, to domain.HoldStatus, action domain.AuditAction) (*domain.Hold, error) {
	if err := actor.RequireElevated(); err != nil {
		return nil, err
	}

	start := time.Now()
	current, err := uc.Holds.GetByID(ctx, holdID)
	if err != nil {
		return nil, err
	}

	var hold *domain.Hold
	err = uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		// Wallet first, then hold: the lock order every debit path uses.
		if _, err := uc.lockWallet(ctx, tx, actor, current.WalletID); err != nil {
			return err
		}

		h, err := uc.Holds.GetByIDForUpdate(ctx, tx, holdID)
		if err != nil {
			return err
		}
		before := *h

		if err := h.Transition(to, uc.Now()); err != nil {
			return err
		}
		if err := uc.Holds.UpdateStatus(ctx, tx, h.ID, h.Status, h.UpdatedAt); err != nil {
			return err
		}

		if err := uc.audit(ctx, tx, actor, action, domain.ResourceTypeHold, h.ID, before, h); err != nil {
			return err
		}

		hold = h
		return nil
	})
	uc.observe(strings.ToLower(string(to))+"_hold", start, err)
	if err != nil {
		return nil, err
	}

	return hold, nil
}

// CaptureHoldInput represents input for turning a hold into a payment.
type CaptureHoldInput struct {
	HoldID        string
	PayeeWalletID string
	Description   string
}

// CaptureResult is the outcome of a capture: the released hold and the two
// transfer entries that moved the funds.
type CaptureResult struct {
	Hold   *domain.Hold
	Debit  *domain.LedgerEntry
	Credit *domain.LedgerEntry
}

// Capture releases a hold and pays its amount from the holder's wallet to
// the payee in the same transaction.
func (uc *HoldUseCase) Capture(ctx context.Context, actor domain.Actor, input CaptureHoldInput) (*CaptureResult, error) {
	if err := actor.RequireElevated(); err != nil {
		return nil, err
	}

	start := time.Now()
	current, err := uc.Holds.GetByID(ctx, input.HoldID)
	if err != nil {
		return nil, err
	}
	if current.WalletID == input.PayeeWalletID {
		return nil, domain.ErrSameWallet
	}

	description := input.Description
	if strings.TrimSpace(description) == "" {
		description = fmt.Sprintf("hold capture: %s %s", current.Target.Kind(), current.Target.TargetID())
	}

	var (
		result       *CaptureResult
		payer, payee *domain.Wallet
	)
	err = uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		ids := []string{current.WalletID, input.PayeeWalletID}
		sort.Strings(ids)

		wallets, err := uc.Wallets.GetByIDsForUpdate(ctx, tx, ids)
		if err != nil {
			return err
		}
		byID := make(map[string]*domain.Wallet, len(wallets))
		for _, w := range wallets {
			byID[w.ID] = w
		}
		payer, payee = byID[current.WalletID], byID[input.PayeeWalletID]
		if payer == nil || payee == nil {
			return domain.ErrWalletNotFound
		}
		if payer.Currency != payee.Currency {
			return domain.ErrCurrencyMismatch
		}

		h, err := uc.Holds.GetByIDForUpdate(ctx, tx, input.HoldID)
		if err != nil {
			return err
		}
		if err := h.Transition(domain.HoldStatusReleased, uc.Now()); err != nil {
			return err
		}
		if err := uc.Holds.UpdateStatus(ctx, tx, h.ID, h.Status, h.UpdatedAt); err != nil {
			return err
		}

		debit, err := uc.post(ctx, tx, payer, postInput{
			Amount:      h.Amount.Neg(),
			Type:        domain.EntryTypeTransfer,
			Description: description,
		})
		if err != nil {
			return err
		}

		credit, err := uc.post(ctx, tx, payee, postInput{
			Amount:      h.Amount,
			Type:        domain.EntryTypeTransfer,
			Description: description,
		})
		if err != nil {
			return err
		}

		res := &CaptureResult{Hold: h, Debit: debit, Credit: credit}
		if err := uc.audit(ctx, tx, actor, domain.AuditActionHoldCapture, domain.ResourceTypeHold, h.ID, current, res); err != nil {
			return err
		}

		result = res
		return nil
	})
	uc.observe("capture_hold", start, err)
	if err != nil {
		return nil, err
	}

	if uc.Metrics != nil {
		uc.Metrics.HoldsCaptured.Inc()
	}

	uc.notify(ctx, balanceNotification(payer, result.Debit))
	uc.notify(ctx, balanceNotification(payee, result.Credit))

	return result, nil
}

// ExpireHolds cancels pending holds whose expiry has passed and returns how
// many were cancelled. Holds resolved concurrently are skipped.
func (uc *HoldUseCase) ExpireHolds(ctx context.Context, now time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultExpiryBatch
	}

	expired, err := uc.Holds.ListExpired(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, h := range expired {
		if _, err := uc.transition(ctx, domain.SystemActor(), h.ID, domain.HoldStatusCancelled, domain.AuditActionHoldCancel); err != nil {
			if errors.Is(err, domain.ErrInvalidStateTransition) {
				continue
			}
			return cancelled, err
		}
		cancelled++
	}

	if uc.Metrics != nil {
		uc.Metrics.HoldsExpired.Add(float64(cancelled))
	}

	return cancelled, nil
}

// GetHold retrieves a hold by ID.
func (uc *HoldUseCase) GetHold(ctx context.Context, actor domain.Actor, id string) (*domain.Hold, error) {
	hold, err := uc.Holds.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := uc.readableWallet(ctx, actor, hold.WalletID); err != nil {
		return nil, err
	}
	return hold, nil
}

// ListHoldsByWalletInput represents input for listing holds by wallet
type ListHoldsByWalletInput struct {
	WalletID string
	Limit    int
	Offset   int
}

// ListHoldsByWallet retrieves holds for a given wallet, newest first.
func (uc *HoldUseCase) ListHoldsByWallet(ctx context.Context, actor domain.Actor, input ListHoldsByWalletInput) ([]*domain.Hold, error) {
	if _, err := uc.readableWallet(ctx, actor, input.WalletID); err != nil {
		return nil, err
	}
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.Holds.ListByWallet(ctx, input.WalletID, limit, offset)
}
