package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// WithdrawalUseCase handles withdrawal requests and their admin review.
type WithdrawalUseCase struct {
	core
}

// NewWithdrawalUseCase creates a new WithdrawalUseCase.
func NewWithdrawalUseCase(deps Deps) *WithdrawalUseCase {
	return &WithdrawalUseCase{core: newCore(deps)}
}

// RequestWithdrawalInput represents input for a withdrawal request.
type RequestWithdrawalInput struct {
	WalletID    string
	Amount      decimal.Decimal
	Card        string
	Sheba       string
	Description string
}

// ResolveWithdrawalInput carries the admin's decision details.
type ResolveWithdrawalInput struct {
	Reason string
	Image  string
}

// RequestWithdrawal debits the wallet immediately and records a pending
// withdrawal for admin review. A later rejection refunds the debit.
func (uc *WithdrawalUseCase) RequestWithdrawal(ctx context.Context, actor domain.Actor, input RequestWithdrawalInput) (*domain.Withdrawal, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	start := time.Now()
	var (
		withdrawal *domain.Withdrawal
		wallet     *domain.Wallet
	)
	err := uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		w, err := uc.lockWallet(ctx, tx, actor, input.WalletID)
		if err != nil {
			return err
		}
		if err := w.EnsureActive(); err != nil {
			return err
		}

		ref, err := uc.allocateReference(ctx, tx)
		if err != nil {
			return err
		}

		debit, err := uc.post(ctx, tx, w, postInput{
			Amount:           input.Amount.Neg(),
			Type:             domain.EntryTypeWithdrawal,
			Description:      "withdrawal request: ref " + ref,
			ClaimedReference: ref,
		})
		if err != nil {
			return err
		}

		now := uc.Now()
		wd := &domain.Withdrawal{
			ID:           uc.IDGen.Generate(),
			WalletID:     w.ID,
			Amount:       input.Amount,
			Currency:     w.Currency,
			Status:       domain.WithdrawalStatusPending,
			Reference:    ref,
			Card:         strings.TrimSpace(input.Card),
			Sheba:        strings.TrimSpace(input.Sheba),
			Description:  strings.TrimSpace(input.Description),
			DebitEntryID: debit.ID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := uc.Withdrawals.Create(ctx, tx, wd); err != nil {
			return err
		}

		if err := uc.audit(ctx, tx, actor, domain.AuditActionWithdrawalRequest, domain.ResourceTypeWithdrawal, wd.ID, nil, wd); err != nil {
			return err
		}

		withdrawal, wallet = wd, w
		return nil
	})
	uc.observe("request_withdrawal", start, err)
	if err != nil {
		return nil, err
	}

	if uc.Metrics != nil {
		uc.Metrics.WithdrawalsRequested.Inc()
	}

	uc.notify(ctx, domain.Notification{
		Title:    "Withdrawal requested",
		Body:     fmt.Sprintf("Your withdrawal of %s %s (ref %s) is awaiting review.", withdrawal.Amount, withdrawal.Currency, withdrawal.Reference),
		UserID:   wallet.OwnerID,
		Category: domain.NotificationCategoryWithdrawal,
	})

	return withdrawal, nil
}

// Complete marks a pending withdrawal as paid out. The funds already left
// the wallet at request time, so no entry is written.
func (uc *WithdrawalUseCase) Complete(ctx context.Context, actor domain.Actor, id string, input ResolveWithdrawalInput) (*domain.Withdrawal, error) {
	withdrawal, wallet, err := uc.resolve(ctx, actor, id, domain.WithdrawalStatusCompleted, input)
	if err != nil {
		return nil, err
	}

	if uc.Metrics != nil {
		uc.Metrics.WithdrawalsCompleted.Inc()
	}

	uc.notify(ctx, domain.Notification{
		Title:    "Withdrawal completed",
		Body:     fmt.Sprintf("Your withdrawal of %s %s (ref %s) has been paid.", withdrawal.Amount, withdrawal.Currency, withdrawal.Reference),
		UserID:   wallet.OwnerID,
		Category: domain.NotificationCategoryWithdrawal,
	})

	return withdrawal, nil
}

// Reject declines a pending withdrawal and refunds its amount with a
// compensating REFUND entry.
func (uc *WithdrawalUseCase) Reject(ctx context.Context, actor domain.Actor, id string, input ResolveWithdrawalInput) (*domain.Withdrawal, error) {
	withdrawal, wallet, err := uc.resolve(ctx, actor, id, domain.WithdrawalStatusRejected, input)
	if err != nil {
		return nil, err
	}

	if uc.Metrics != nil {
		uc.Metrics.WithdrawalsRejected.Inc()
	}

	body := fmt.Sprintf("Your withdrawal of %s %s (ref %s) was rejected and refunded.", withdrawal.Amount, withdrawal.Currency, withdrawal.Reference)
	if withdrawal.Reason != "" {
		body += " Reason: " + withdrawal.Reason
	}
	uc.notify(ctx, domain.Notification{
		Title:    "Withdrawal rejected",
		Body:     body,
		UserID:   wallet.OwnerID,
		Category: domain.NotificationCategoryWithdrawal,
	})

	return withdrawal, nil
}

func (uc *WithdrawalUseCase) resolve(ctx context.Context, actor domain.Actor, id string, to domain.WithdrawalStatus, input ResolveWithdrawalInput) (*domain.Withdrawal, *domain.Wallet, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	current, err := uc.Withdrawals.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	var (
		withdrawal *domain.Withdrawal
		wallet     *domain.Wallet
	)
	err = uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		w, err := uc.lockWallet(ctx, tx, actor, current.WalletID)
		if err != nil {
			return err
		}

		wd, err := uc.Withdrawals.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		before := *wd

		if err := wd.Resolve(to, actor.UserID, strings.TrimSpace(input.Reason), strings.TrimSpace(input.Image), uc.Now()); err != nil {
			return err
		}

		action := domain.AuditActionWithdrawalComplete
		if to == domain.WithdrawalStatusRejected {
			action = domain.AuditActionWithdrawalReject

			refund, err := uc.post(ctx, tx, w, postInput{
				Amount:      wd.Amount,
				Type:        domain.EntryTypeRefund,
				Description: "withdrawal rejected: ref " + wd.Reference,
			})
			if err != nil {
				return err
			}
			wd.RefundEntryID = refund.ID
		}

		if err := uc.Withdrawals.Update(ctx, tx, wd); err != nil {
			return err
		}

		if err := uc.audit(ctx, tx, actor, action, domain.ResourceTypeWithdrawal, wd.ID, before, wd); err != nil {
			return err
		}

		withdrawal, wallet = wd, w
		return nil
	})
	uc.observe(strings.ToLower(string(to))+"_withdrawal", start, err)
	if err != nil {
		return nil, nil, err
	}

	return withdrawal, wallet, nil
}

// GetWithdrawal retrieves a withdrawal by ID.
func (uc *WithdrawalUseCase) GetWithdrawal(ctx context.Context, actor domain.Actor, id string) (*domain.Withdrawal, error) {
	withdrawal, err := uc.Withdrawals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := uc.readableWallet(ctx, actor, withdrawal.WalletID); err != nil {
		return nil, err
	}
	return withdrawal, nil
}
