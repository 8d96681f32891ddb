package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// reconcilePageSize is how many wallets one reconciliation pass loads at a time.
const reconcilePageSize = domain.MaxPageSize

// ReconciliationUseCase checks cached wallet balances against the ledger.
type ReconciliationUseCase struct {
	core
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(deps Deps) *ReconciliationUseCase {
	return &ReconciliationUseCase{core: newCore(deps)}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	WalletID          string
	Currency          string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalWallets      int
	ReconciledWallets int
	Discrepancies     []*ReconciliationResult
	CheckedAt         time.Time
}

// ReconcileWallet compares a wallet's balance with the sum of its completed entries.
func (uc *ReconciliationUseCase) ReconcileWallet(ctx context.Context, actor domain.Actor, walletID string) (*ReconciliationResult, error) {
	if err := actor.RequireElevated(); err != nil {
		return nil, err
	}

	wallet, err := uc.Wallets.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}

	return uc.reconcile(ctx, wallet)
}

func (uc *ReconciliationUseCase) reconcile(ctx context.Context, wallet *domain.Wallet) (*ReconciliationResult, error) {
	sum, err := uc.Entries.SumCompleted(ctx, wallet.ID, nil)
	if err != nil {
		return nil, err
	}

	diff := wallet.Balance.Sub(sum)
	return &ReconciliationResult{
		WalletID:          wallet.ID,
		Currency:          wallet.Currency,
		RecordedBalance:   wallet.Balance,
		CalculatedBalance: sum,
		Difference:        diff,
		IsReconciled:      diff.IsZero(),
		LastChecked:       uc.Now(),
	}, nil
}

// GenerateReport reconciles every wallet and collects the discrepancies.
func (uc *ReconciliationUseCase) GenerateReport(ctx context.Context, actor domain.Actor) (*ReconciliationReport, error) {
	if err := actor.RequireElevated(); err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		Discrepancies: make([]*ReconciliationResult, 0),
	}

	for offset := 0; ; offset += reconcilePageSize {
		wallets, err := uc.Wallets.List(ctx, reconcilePageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, wallet := range wallets {
			result, err := uc.reconcile(ctx, wallet)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile wallet %s: %w", wallet.ID, err)
			}

			report.TotalWallets++
			if result.IsReconciled {
				report.ReconciledWallets++
				continue
			}

			uc.logger.Error().
				Str("wallet_id", wallet.ID).
				Str("recorded", result.RecordedBalance.String()).
				Str("calculated", result.CalculatedBalance.String()).
				Msg("wallet balance does not match ledger")
			report.Discrepancies = append(report.Discrepancies, result)
		}

		if len(wallets) < reconcilePageSize {
			break
		}
	}

	report.CheckedAt = uc.Now()
	if uc.Metrics != nil {
		uc.Metrics.ReconciliationMismatches.Set(float64(len(report.Discrepancies)))
	}

	return report, nil
}
