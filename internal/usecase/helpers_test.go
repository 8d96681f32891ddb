package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/adapter/repository/memory"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
	"github.com/iho/walletledger/internal/usecase"
)

var (
	admin  = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
	system = domain.SystemActor()
)

func user(id string) domain.Actor {
	return domain.Actor{UserID: id, Role: domain.RoleUser}
}

type seqIDs struct{ n atomic.Int64 }

func (g *seqIDs) Generate() string {
	return fmt.Sprintf("id-%08d", g.n.Add(1))
}

type seqRefs struct{ n atomic.Int64 }

func (g *seqRefs) Generate() (string, error) {
	return fmt.Sprintf("%010d", g.n.Add(1)), nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, notification domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return n.err
}

func (n *recordingNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	titles := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		titles = append(titles, s.Title)
	}
	return titles
}

type testEnv struct {
	deps        usecase.Deps
	store       *memory.Store
	audit       *memory.AuditRepository
	notifier    *recordingNotifier
	metrics     *metrics.Metrics
	wallets     *usecase.WalletUseCase
	holds       *usecase.HoldUseCase
	withdrawals *usecase.WithdrawalUseCase
	queries     *usecase.QueryUseCase
	recon       *usecase.ReconciliationUseCase
}

func newTestEnv(t *testing.T, opts ...func(*usecase.Deps)) *testEnv {
	t.Helper()

	store := memory.NewStore()
	audit := memory.NewAuditRepository(store)
	notifier := &recordingNotifier{}
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	logger := zerolog.Nop()

	deps := usecase.Deps{
		TxManager:   store,
		Wallets:     memory.NewWalletRepository(store),
		Entries:     memory.NewEntryRepository(store),
		Holds:       memory.NewHoldRepository(store),
		Withdrawals: memory.NewWithdrawalRepository(store),
		Audit:       audit,
		IDGen:       &seqIDs{},
		RefGen:      &seqRefs{},
		Notifier:    notifier,
		Metrics:     m,
		Logger:      &logger,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &testEnv{
		deps:        deps,
		store:       store,
		audit:       audit,
		notifier:    notifier,
		metrics:     m,
		wallets:     usecase.NewWalletUseCase(deps),
		holds:       usecase.NewHoldUseCase(deps),
		withdrawals: usecase.NewWithdrawalUseCase(deps),
		queries:     usecase.NewQueryUseCase(deps),
		recon:       usecase.NewReconciliationUseCase(deps),
	}
}

// newFundedWallet opens an IRR wallet for owner and deposits amount.
func (e *testEnv) newFundedWallet(t *testing.T, owner string, amount int64) *domain.Wallet {
	t.Helper()

	ctx := context.Background()
	wallet, err := e.wallets.CreateWallet(ctx, admin, usecase.CreateWalletInput{OwnerID: owner, Currency: "IRR"})
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if amount > 0 {
		e.deposit(t, wallet.ID, amount)
	}
	return wallet
}

func (e *testEnv) deposit(t *testing.T, walletID string, amount int64) *domain.LedgerEntry {
	t.Helper()

	entry, err := e.wallets.ApplyLedgerEntry(context.Background(), system, usecase.ApplyLedgerEntryInput{
		WalletID:    walletID,
		Amount:      decimal.NewFromInt(amount),
		Type:        domain.EntryTypeDeposit,
		Description: "top up",
	})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	return entry
}

func (e *testEnv) balance(t *testing.T, walletID string) decimal.Decimal {
	t.Helper()

	wallet, err := e.wallets.GetWallet(context.Background(), system, walletID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	return wallet.Balance
}

func (e *testEnv) available(t *testing.T, walletID string) decimal.Decimal {
	t.Helper()

	available, err := e.wallets.GetAvailableBalance(context.Background(), system, walletID)
	if err != nil {
		t.Fatalf("available balance: %v", err)
	}
	return available
}

// assertReconciled checks that the wallet balance equals the sum of its completed entries.
func (e *testEnv) assertReconciled(t *testing.T, walletID string) {
	t.Helper()

	result, err := e.recon.ReconcileWallet(context.Background(), system, walletID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !result.IsReconciled {
		t.Fatalf("wallet %s out of balance: recorded %s, ledger %s", walletID, result.RecordedBalance, result.CalculatedBalance)
	}
}

func expectErr(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func amt(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
