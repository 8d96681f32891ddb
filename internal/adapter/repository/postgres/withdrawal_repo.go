package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

const withdrawalColumns = `id, wallet_id, amount, currency, status, reference, card, sheba, description,
	reason, image, debit_entry_id, refund_entry_id, resolved_by, created_at, updated_at`

// WithdrawalRepository implements usecase.WithdrawalRepository over withdrawal_transactions.
type WithdrawalRepository struct {
	db DBTX
}

// NewWithdrawalRepository creates a new WithdrawalRepository.
func NewWithdrawalRepository(db DBTX) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// Create creates a new withdrawal.
func (r *WithdrawalRepository) Create(ctx context.Context, tx usecase.Transaction, w *domain.Withdrawal) error {
	_, err := txConn(tx).Exec(ctx, `
		INSERT INTO withdrawal_transactions (`+withdrawalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		w.ID,
		w.WalletID,
		decimalToNumeric(w.Amount),
		w.Currency,
		string(w.Status),
		w.Reference,
		w.Card,
		w.Sheba,
		w.Description,
		w.Reason,
		w.Image,
		w.DebitEntryID,
		optionalText(w.RefundEntryID),
		w.ResolvedBy,
		timeToPgTimestamptz(w.CreatedAt),
		timeToPgTimestamptz(w.UpdatedAt),
	)

	return mapUniqueViolation(err)
}

// GetByID retrieves a withdrawal by ID.
func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*domain.Withdrawal, error) {
	return scanWithdrawal(r.db.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawal_transactions WHERE id = $1`, id))
}

// GetByIDForUpdate retrieves a withdrawal by ID with a FOR UPDATE lock.
func (r *WithdrawalRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Withdrawal, error) {
	return scanWithdrawal(txConn(tx).QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawal_transactions WHERE id = $1 FOR UPDATE`, id))
}

// Update stores the resolution of a withdrawal.
func (r *WithdrawalRepository) Update(ctx context.Context, tx usecase.Transaction, w *domain.Withdrawal) error {
	tag, err := txConn(tx).Exec(ctx, `
		UPDATE withdrawal_transactions
		SET status = $2, reason = $3, image = $4, refund_entry_id = $5, resolved_by = $6, updated_at = $7
		WHERE id = $1`,
		w.ID,
		string(w.Status),
		w.Reason,
		w.Image,
		optionalText(w.RefundEntryID),
		w.ResolvedBy,
		timeToPgTimestamptz(w.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWithdrawalNotFound
	}
	return nil
}

// ReferenceExists reports whether a withdrawal already uses reference.
func (r *WithdrawalRepository) ReferenceExists(ctx context.Context, tx usecase.Transaction, reference string) (bool, error) {
	var exists bool
	err := txConn(tx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM withdrawal_transactions WHERE reference = $1)`, reference).Scan(&exists)
	return exists, err
}

// List returns withdrawals matching filter, newest first.
func (r *WithdrawalRepository) List(ctx context.Context, filter domain.WithdrawalFilter) ([]*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_transactions WHERE 1=1`
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

	withdrawals := make([]*domain.Withdrawal, 0)
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}

	return withdrawals, rows.Err()
}

func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var (
		w        domain.Withdrawal
		amount   pgtype.Numeric
		status   string
		refundID pgtype.Text
	)
	err := row.Scan(
		&w.ID, &w.WalletID, &amount, &w.Currency, &status, &w.Reference, &w.Card, &w.Sheba, &w.Description,
		&w.Reason, &w.Image, &w.DebitEntryID, &refundID, &w.ResolvedBy, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWithdrawalNotFound
		}
		return nil, err
	}
	w.Amount = numericToDecimal(amount)
	w.Status = domain.WithdrawalStatus(status)
	w.RefundEntryID = refundID.String

	return &w, nil
}
