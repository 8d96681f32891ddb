package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func txConn(tx usecase.Transaction) DBTX {
	return tx.(*Tx).PgxTx()
}

// Unique constraints declared by the schema migrations.
const (
	constraintWalletOwnerCurrency = "wallets_owner_currency_key"
	constraintEntryReference      = "wallet_ledger_entries_reference_key"
	constraintWithdrawalReference = "withdrawal_transactions_reference_key"
)

func isReferenceViolation(pgErr *pgconn.PgError) bool {
	if pgErr.Code != pgErrUniqueViolation {
		return false
	}
	return pgErr.ConstraintName == constraintEntryReference || pgErr.ConstraintName == constraintWithdrawalReference
}

// mapUniqueViolation turns unique violations on known constraints into
// domain errors. The driver error stays in the chain for the retrier.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgErrUniqueViolation {
		return err
	}

	switch {
	case isReferenceViolation(pgErr):
		return fmt.Errorf("%w: %w", domain.ErrDuplicateReference, err)
	case pgErr.ConstraintName == constraintWalletOwnerCurrency:
		return fmt.Errorf("%w: %w", domain.ErrWalletExists, err)
	}
	return err
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func optionalTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return timeToPgTimestamptz(*t)
}

func timestamptzPtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

func optionalText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
