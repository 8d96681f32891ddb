package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

const holdColumns = `id, wallet_id, claim_id, plan_id, identity_id, amount, status, expires_at, created_at, updated_at`

// HoldRepository implements usecase.HoldRepository over payment_secures.
type HoldRepository struct {
	db DBTX
}

// NewHoldRepository creates a new HoldRepository.
func NewHoldRepository(db DBTX) *HoldRepository {
	return &HoldRepository{db: db}
}

// Create creates a new hold.
func (r *HoldRepository) Create(ctx context.Context, tx usecase.Transaction, hold *domain.Hold) error {
	claimID, planID, identityID := targetColumns(hold.Target)

	_, err := txConn(tx).Exec(ctx, `
		INSERT INTO payment_secures (`+holdColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		hold.ID,
		hold.WalletID,
		claimID,
		planID,
		identityID,
		decimalToNumeric(hold.Amount),
		string(hold.Status),
		optionalTimestamptz(hold.ExpiresAt),
		timeToPgTimestamptz(hold.CreatedAt),
		timeToPgTimestamptz(hold.UpdatedAt),
	)

	return err
}

// GetByID retrieves a hold by ID.
func (r *HoldRepository) GetByID(ctx context.Context, id string) (*domain.Hold, error) {
	return scanHold(r.db.QueryRow(ctx, `SELECT `+holdColumns+` FROM payment_secures WHERE id = $1`, id))
}

// GetByIDForUpdate retrieves a hold by ID with a FOR UPDATE lock.
func (r *HoldRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Hold, error) {
	return scanHold(txConn(tx).QueryRow(ctx, `SELECT `+holdColumns+` FROM payment_secures WHERE id = $1 FOR UPDATE`, id))
}

// UpdateStatus updates the status of a hold.
func (r *HoldRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.HoldStatus, updatedAt time.Time) error {
	tag, err := txConn(tx).Exec(ctx, `UPDATE payment_secures SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrHoldNotFound
	}
	return nil
}

// SumPending sums the pending holds of a wallet inside tx.
func (r *HoldRepository) SumPending(ctx context.Context, tx usecase.Transaction, walletID string) (decimal.Decimal, error) {
	var sum pgtype.Numeric
	err := txConn(tx).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM payment_secures
		WHERE wallet_id = $1 AND status = 'PENDING'`, walletID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// ListByWallet lists holds for a wallet, newest first.
func (r *HoldRepository) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Hold, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+holdColumns+` FROM payment_secures
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, walletID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectHolds(rows)
}

// ListExpired lists pending holds past their expiry, oldest expiry first.
func (r *HoldRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Hold, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+holdColumns+` FROM payment_secures
		WHERE status = 'PENDING' AND expires_at IS NOT NULL AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2`, timeToPgTimestamptz(now), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectHolds(rows)
}

// targetColumns spreads a target over the three mutually exclusive id columns.
func targetColumns(target domain.HoldTarget) (claimID, planID, identityID pgtype.Text) {
	if target == nil {
		return
	}
	switch target.Kind() {
	case domain.TargetKindClaim:
		claimID = optionalText(target.TargetID())
	case domain.TargetKindPlan:
		planID = optionalText(target.TargetID())
	case domain.TargetKindIdentity:
		identityID = optionalText(target.TargetID())
	}
	return
}

func targetFromColumns(claimID, planID, identityID pgtype.Text) (domain.HoldTarget, error) {
	switch {
	case claimID.Valid:
		return domain.NewHoldTarget(domain.TargetKindClaim, claimID.String)
	case planID.Valid:
		return domain.NewHoldTarget(domain.TargetKindPlan, planID.String)
	case identityID.Valid:
		return domain.NewHoldTarget(domain.TargetKindIdentity, identityID.String)
	}
	return nil, domain.ErrInvalidTarget
}

func scanHold(row pgx.Row) (*domain.Hold, error) {
	var (
		h                           domain.Hold
		claimID, planID, identityID pgtype.Text
		amount                      pgtype.Numeric
		status                      string
		expiresAt                   pgtype.Timestamptz
	)
	err := row.Scan(&h.ID, &h.WalletID, &claimID, &planID, &identityID, &amount, &status, &expiresAt, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrHoldNotFound
		}
		return nil, err
	}

	target, err := targetFromColumns(claimID, planID, identityID)
	if err != nil {
		return nil, err
	}
	h.Target = target
	h.Amount = numericToDecimal(amount)
	h.Status = domain.HoldStatus(status)
	h.ExpiresAt = timestamptzPtr(expiresAt)

	return &h, nil
}

func collectHolds(rows pgx.Rows) ([]*domain.Hold, error) {
	holds := make([]*domain.Hold, 0)
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}

	return holds, rows.Err()
}
