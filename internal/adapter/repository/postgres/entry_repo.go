package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

const entryColumns = `id, wallet_id, type, amount, currency, status, reference, description, created_at, updated_at`

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db DBTX
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db DBTX) *EntryRepository {
	return &EntryRepository{db: db}
}

// Create creates a new ledger entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	_, err := txConn(tx).Exec(ctx, `
		INSERT INTO wallet_ledger_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID,
		entry.WalletID,
		string(entry.Type),
		decimalToNumeric(entry.Amount),
		entry.Currency,
		string(entry.Status),
		entry.Reference,
		entry.Description,
		timeToPgTimestamptz(entry.CreatedAt),
		timeToPgTimestamptz(entry.UpdatedAt),
	)

	return mapUniqueViolation(err)
}

// GetByID retrieves a ledger entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM wallet_ledger_entries WHERE id = $1`, id))
}

// GetByIDForUpdate retrieves a ledger entry by ID with a FOR UPDATE lock.
func (r *EntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerEntry, error) {
	return scanEntry(txConn(tx).QueryRow(ctx, `SELECT `+entryColumns+` FROM wallet_ledger_entries WHERE id = $1 FOR UPDATE`, id))
}

// UpdateStatus updates the status of a ledger entry.
func (r *EntryRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.EntryStatus, updatedAt time.Time) error {
	tag, err := txConn(tx).Exec(ctx, `UPDATE wallet_ledger_entries SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// ReferenceExists reports whether a ledger entry already uses reference.
func (r *EntryRepository) ReferenceExists(ctx context.Context, tx usecase.Transaction, reference string) (bool, error) {
	var exists bool
	err := txConn(tx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM wallet_ledger_entries WHERE reference = $1)`, reference).Scan(&exists)
	return exists, err
}

// List returns entries matching filter, newest first.
func (r *EntryRepository) List(ctx context.Context, filter domain.EntryFilter) ([]*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM wallet_ledger_entries WHERE 1=1`
	args := []any{}
	argPos := 1

	if filter.WalletID != "" {
		query += fmt.Sprintf(" AND wallet_id = $%d", argPos)
		args = append(args, filter.WalletID)
		argPos++
	}
	if filter.OwnerID != "" {
		query += fmt.Sprintf(" AND wallet_id IN (SELECT id FROM wallets WHERE owner_id = $%d)", argPos)
		args = append(args, filter.OwnerID)
		argPos++
	}
	if filter.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", argPos)
		args = append(args, string(filter.Type))
		argPos++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, string(filter.Status))
		argPos++
	}
	query, args, argPos = appendRange(query, args, argPos, filter.From, filter.To)

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.LedgerEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// SumCompleted sums completed entries for a wallet, up to at when given.
func (r *EntryRepository) SumCompleted(ctx context.Context, walletID string, at *time.Time) (decimal.Decimal, error) {
	var sum pgtype.Numeric
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM wallet_ledger_entries
		WHERE wallet_id = $1 AND status = 'COMPLETED'
		  AND ($2::timestamptz IS NULL OR created_at <= $2)`,
		walletID, optionalTimestamptz(at),
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// appendRange adds created_at bounds to a query built with positional args.
func appendRange(query string, args []any, argPos int, from, to *time.Time) (string, []any, int) {
	var b strings.Builder
	b.WriteString(query)
	if from != nil {
		fmt.Fprintf(&b, " AND created_at >= $%d", argPos)
		args = append(args, timeToPgTimestamptz(*from))
		argPos++
	}
	if to != nil {
		fmt.Fprintf(&b, " AND created_at <= $%d", argPos)
		args = append(args, timeToPgTimestamptz(*to))
		argPos++
	}
	return b.String(), args, argPos
}

func scanEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		e         domain.LedgerEntry
		entryType string
		status    string
		amount    pgtype.Numeric
	)
	err := row.Scan(&e.ID, &e.WalletID, &entryType, &amount, &e.Currency, &status, &e.Reference, &e.Description, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	e.Type = domain.EntryType(entryType)
	e.Status = domain.EntryStatus(status)
	e.Amount = numericToDecimal(amount)

	return &e, nil
}
