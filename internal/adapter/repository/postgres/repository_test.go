package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

var walletRowColumns = []string{"id", "owner_id", "currency", "balance", "active", "created_at", "updated_at"}

func TestWalletRepositoryCreateMapsOwnerConflict(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)
	repo := NewWalletRepository(pool)
	now := time.Now().UTC()

	pool.ExpectExec(regexp.QuoteMeta("INSERT INTO wallets")).
		WithArgs("w1", "u1", "IRR", pgxmock.AnyArg(), true, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: constraintWalletOwnerCurrency})

	err := repo.Create(context.Background(), tx, &domain.Wallet{ID: "w1", OwnerID: "u1", Currency: "IRR", Active: true, CreatedAt: now, UpdatedAt: now})
	if !errors.Is(err, domain.ErrWalletExists) {
		t.Fatalf("expected ErrWalletExists, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestWalletRepositoryGetByIDForUpdate(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)
	repo := NewWalletRepository(pool)
	now := time.Now().UTC()

	pool.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE id = $1 FOR UPDATE")).
		WithArgs("w1").
		WillReturnRows(pool.NewRows(walletRowColumns).AddRow("w1", "u1", "IRR", "1250.5", true, now, now))

	wallet, err := repo.GetByIDForUpdate(context.Background(), tx, "w1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !wallet.Balance.Equal(decimal.RequireFromString("1250.5")) {
		t.Fatalf("expected balance 1250.5, got %s", wallet.Balance)
	}
	if wallet.OwnerID != "u1" || !wallet.Active {
		t.Fatalf("unexpected wallet %+v", wallet)
	}

	assertExpectations(t, pool)
}

func TestWalletRepositoryGetByIDNotFound(t *testing.T) {
	pool := newMockPool(t)
	repo := NewWalletRepository(pool)

	pool.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestWalletRepositoryIncrementBalance(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)
	repo := NewWalletRepository(pool)

	pool.ExpectQuery(regexp.QuoteMeta("UPDATE wallets SET balance = balance + $2")).
		WithArgs("w1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pool.NewRows([]string{"balance"}).AddRow("70000"))

	balance, err := repo.IncrementBalance(context.Background(), tx, "w1", decimal.NewFromInt(-30000), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(70000)) {
		t.Fatalf("expected 70000, got %s", balance)
	}

	assertExpectations(t, pool)
}

func TestWalletRepositorySetActiveMissing(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)
	repo := NewWalletRepository(pool)

	pool.ExpectExec(regexp.QuoteMeta("UPDATE wallets SET active")).
		WithArgs("w1", false, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.SetActive(context.Background(), tx, "w1", false, time.Now()); !errors.Is(err, domain.ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestWalletRepositoryAvailableBalance(t *testing.T) {
	pool := newMockPool(t)
	repo := NewWalletRepository(pool)

	pool.ExpectQuery(regexp.QuoteMeta("FROM payment_secures h")).
		WithArgs("w1").
		WillReturnRows(pool.NewRows([]string{"available"}).AddRow("40"))

	available, err := repo.AvailableBalance(context.Background(), "w1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !available.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected 40, got %s", available)
	}

	assertExpectations(t, pool)
}

func TestEntryRepositoryCreateMapsReferenceConflict(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)
	repo := NewEntryRepository(pool)
	now := time.Now().UTC()

	pool.ExpectExec(regexp.QuoteMeta("INSERT INTO wallet_ledger_entries")).
		WithArgs("e1", "w1", "DEPOSIT", pgxmock.AnyArg(), "IRR", "COMPLETED", "0123456789", "top up", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: constraintEntryReference})

	err := repo.Create(context.Background(), tx, &domain.LedgerEntry{
		ID: "e1", WalletID: "w1", Type: domain.EntryTypeDeposit, Amount: decimal.NewFromInt(10), Currency: "IRR",
		Status: domain.EntryStatusCompleted, Reference: "0123456789", Description: "top up", CreatedAt: now, UpdatedAt: now,
	})
	if !errors.Is(err, domain.ErrDuplicateReference) {
		t.Fatalf("expected ErrDuplicateReference, got %v", err)
	}
	if !isRetryableError(err) {
		t.Fatal("expected reference conflict to stay retryable")
	}

	assertExpectations(t, pool)
}

func TestEntryRepositoryReferenceExists(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)
	repo := NewEntryRepository(pool)

	pool.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM wallet_ledger_entries WHERE reference = $1)")).
		WithArgs("0000000001").
		WillReturnRows(pool.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ReferenceExists(context.Background(), tx, "0000000001")
	if err != nil || !exists {
		t.Fatalf("expected reference to exist, got %v %v", exists, err)
	}

	assertExpectations(t, pool)
}

func TestEntryRepositoryListBuildsFilter(t *testing.T) {
	pool := newMockPool(t)
	repo := NewEntryRepository(pool)
	now := time.Now().UTC()
	from := now.Add(-time.Hour)

	pool.ExpectQuery(regexp.QuoteMeta("AND wallet_id IN (SELECT id FROM wallets WHERE owner_id = $1) AND type = $2 AND created_at >= $3 ORDER BY created_at DESC, id DESC LIMIT $4 OFFSET $5")).
		WithArgs("u1", "REFUND", pgxmock.AnyArg(), 20, 0).
		WillReturnRows(pool.NewRows([]string{"id", "wallet_id", "type", "amount", "currency", "status", "reference", "description", "created_at", "updated_at"}).
			AddRow("e1", "w1", "REFUND", "30000", "IRR", "COMPLETED", "0000000009", "withdrawal rejected: ref 0000000008", now, now))

	entries, err := repo.List(context.Background(), domain.EntryFilter{OwnerID: "u1", Type: domain.EntryTypeRefund, From: &from, Limit: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Type != domain.EntryTypeRefund || !entries[0].Amount.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("unexpected entries %+v", entries)
	}

	assertExpectations(t, pool)
}

func TestEntryRepositorySumCompleted(t *testing.T) {
	pool := newMockPool(t)
	repo := NewEntryRepository(pool)

	pool.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(amount), 0)")).
		WithArgs("w1", pgxmock.AnyArg()).
		WillReturnRows(pool.NewRows([]string{"sum"}).AddRow("100000"))

	sum, err := repo.SumCompleted(context.Background(), "w1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("expected 100000, got %s", sum)
	}

	assertExpectations(t, pool)
}

func TestHoldRepositoryRoundTripsTarget(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)
	repo := NewHoldRepository(pool)
	now := time.Now().UTC()

	pool.ExpectExec(regexp.QuoteMeta("INSERT INTO payment_secures")).
		WithArgs("h1", "w1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "PENDING", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), tx, &domain.Hold{
		ID: "h1", WalletID: "w1", Target: domain.IdentityTarget{IdentityID: "id-7"}, Amount: decimal.NewFromInt(5),
		Status: domain.HoldStatusPending, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	pool.ExpectQuery(regexp.QuoteMeta("FROM payment_secures WHERE id = $1 FOR UPDATE")).
		WithArgs("h1").
		WillReturnRows(pool.NewRows([]string{"id", "wallet_id", "claim_id", "plan_id", "identity_id", "amount", "status", "expires_at", "created_at", "updated_at"}).
			AddRow("h1", "w1", nil, nil, "id-7", "5", "PENDING", nil, now, now))

	hold, err := repo.GetByIDForUpdate(context.Background(), tx, "h1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if hold.Target.Kind() != domain.TargetKindIdentity || hold.Target.TargetID() != "id-7" {
		t.Fatalf("unexpected target %+v", hold.Target)
	}
	if hold.ExpiresAt != nil {
		t.Fatalf("expected no expiry, got %v", hold.ExpiresAt)
	}

	assertExpectations(t, pool)
}

func TestTargetColumns(t *testing.T) {
	claim, plan, identity := targetColumns(domain.PlanTarget{PlanID: "p1"})
	if claim.Valid || identity.Valid || !plan.Valid || plan.String != "p1" {
		t.Fatalf("expected only plan_id set, got %+v %+v %+v", claim, plan, identity)
	}

	if _, err := targetFromColumns(claim, plan, identity); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	none, _, _ := targetColumns(nil)
	if _, err := targetFromColumns(none, none, none); !errors.Is(err, domain.ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
}

func TestHoldRepositorySumPending(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)
	repo := NewHoldRepository(pool)

	pool.ExpectQuery(regexp.QuoteMeta("WHERE wallet_id = $1 AND status = 'PENDING'")).
		WithArgs("w1").
		WillReturnRows(pool.NewRows([]string{"sum"}).AddRow("60"))

	sum, err := repo.SumPending(context.Background(), tx, "w1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected 60, got %s", sum)
	}

	assertExpectations(t, pool)
}

func TestWithdrawalRepositoryUpdate(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)
	repo := NewWithdrawalRepository(pool)

	pool.ExpectExec(regexp.QuoteMeta("UPDATE withdrawal_transactions")).
		WithArgs("wd1", "REJECT", "card blocked", "", pgxmock.AnyArg(), "admin-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Update(context.Background(), tx, &domain.Withdrawal{
		ID: "wd1", Status: domain.WithdrawalStatusRejected, Reason: "card blocked", RefundEntryID: "e9", ResolvedBy: "admin-1", UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pool.ExpectExec(regexp.QuoteMeta("UPDATE withdrawal_transactions")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	if err := repo.Update(context.Background(), tx, &domain.Withdrawal{ID: "missing"}); !errors.Is(err, domain.ErrWithdrawalNotFound) {
		t.Fatalf("expected ErrWithdrawalNotFound, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestWithdrawalRepositoryGetByID(t *testing.T) {
	pool := newMockPool(t)
	repo := NewWithdrawalRepository(pool)
	now := time.Now().UTC()

	pool.ExpectQuery(regexp.QuoteMeta("FROM withdrawal_transactions WHERE id = $1")).
		WithArgs("wd1").
		WillReturnRows(pool.NewRows([]string{
			"id", "wallet_id", "amount", "currency", "status", "reference", "card", "sheba", "description",
			"reason", "image", "debit_entry_id", "refund_entry_id", "resolved_by", "created_at", "updated_at",
		}).AddRow("wd1", "w1", "30000", "IRR", "PENDING", "0000000042", "6037", "IR82", "", "", "", "e1", nil, "", now, now))

	w, err := repo.GetByID(context.Background(), "wd1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Status != domain.WithdrawalStatusPending || w.RefundEntryID != "" || !w.Amount.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("unexpected withdrawal %+v", w)
	}

	assertExpectations(t, pool)
}

func TestOutboxRepositoryInsert(t *testing.T) {
	pool := newMockPool(t)
	repo := NewOutboxRepository(pool)

	event := domain.NotificationEvent("ev1", domain.Notification{Title: "t", Body: "b", UserID: "u1"}, time.Now())
	pool.ExpectExec(regexp.QuoteMeta("INSERT INTO outbox_events")).
		WithArgs("ev1", "u1", domain.AggregateTypeUser, domain.EventTypeNotificationCreated, pgxmock.AnyArg(), pgxmock.AnyArg(), false, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Insert(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, pool)
}

func TestOutboxRepositoryGetUnpublished(t *testing.T) {
	pool := newMockPool(t)
	repo := NewOutboxRepository(pool)
	now := time.Now().UTC()

	pool.ExpectQuery(regexp.QuoteMeta("WHERE published = FALSE")).
		WithArgs(10).
		WillReturnRows(pool.NewRows([]string{"id", "aggregate_id", "aggregate_type", "event_type", "payload", "created_at", "published", "published_at"}).
			AddRow("ev1", "u1", "user", "notification.created", []byte(`{"title":"hi"}`), now, false, nil))

	events, err := repo.GetUnpublished(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Payload["title"] != "hi" || events[0].PublishedAt != nil {
		t.Fatalf("unexpected events %+v", events)
	}

	assertExpectations(t, pool)
}

func TestAuditRepositoryCreateTx(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)
	repo := NewAuditRepository(pool)

	pool.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WithArgs("a1", "admin-1", "withdrawal.reject", "withdrawal", "wd1", pgxmock.AnyArg(), []byte(`{"Status":"REJECT"}`), "success", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.CreateTx(context.Background(), tx, &domain.AuditLog{
		ID: "a1", UserID: "admin-1", Action: "withdrawal.reject", ResourceType: "withdrawal", ResourceID: "wd1",
		AfterState: domain.JSON{"Status": "REJECT"}, Status: "success", CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, pool)
}

func TestReferenceGenerator(t *testing.T) {
	gen := NewReferenceGenerator()
	for range 100 {
		ref, err := gen.Generate()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := domain.ValidateReference(ref); err != nil {
			t.Fatalf("invalid reference %q: %v", ref, err)
		}
	}
}
