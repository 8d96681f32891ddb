package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// QueryUseCase serves read-only views over the ledger and withdrawals.
type QueryUseCase struct {
	core
}

// NewQueryUseCase creates a new QueryUseCase.
func NewQueryUseCase(deps Deps) *QueryUseCase {
	return &QueryUseCase{core: newCore(deps)}
}

// ListEntries returns entries newest first. Users only see entries of
// wallets they own; admins and system may query any wallet.
func (uc *QueryUseCase) ListEntries(ctx context.Context, actor domain.Actor, filter domain.EntryFilter) ([]*domain.LedgerEntry, error) {
	if err := uc.scope(ctx, actor, filter.WalletID, &filter.OwnerID); err != nil {
		return nil, err
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, domain.ErrInvalidEntryType
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)

	return uc.Entries.List(ctx, filter)
}

// ListWithdrawals returns withdrawals newest first, scoped like ListEntries.
func (uc *QueryUseCase) ListWithdrawals(ctx context.Context, actor domain.Actor, filter domain.WithdrawalFilter) ([]*domain.Withdrawal, error) {
	if err := uc.scope(ctx, actor, filter.WalletID, &filter.OwnerID); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)

	return uc.Withdrawals.List(ctx, filter)
}

// BalanceAt reconstructs a wallet's settled balance at a point in time from
// its completed entries.
func (uc *QueryUseCase) BalanceAt(ctx context.Context, actor domain.Actor, walletID string, at time.Time) (decimal.Decimal, error) {
	if _, err := uc.readableWallet(ctx, actor, walletID); err != nil {
		return decimal.Zero, err
	}
	return uc.Entries.SumCompleted(ctx, walletID, &at)
}

// scope restricts non-elevated actors to their own wallets.
func (uc *QueryUseCase) scope(ctx context.Context, actor domain.Actor, walletID string, ownerID *string) error {
	if walletID != "" {
		_, err := uc.readableWallet(ctx, actor, walletID)
		return err
	}
	if actor.IsElevated() {
		return nil
	}
	if actor.UserID == "" {
		return domain.ErrForbidden
	}
	*ownerID = actor.UserID
	return nil
}
