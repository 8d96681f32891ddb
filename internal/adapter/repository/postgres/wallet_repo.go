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

const walletColumns = `id, owner_id, currency, balance, active, created_at, updated_at`

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	db DBTX
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(db DBTX) *WalletRepository {
	return &WalletRepository{db: db}
}

// Create creates a new wallet.
func (r *WalletRepository) Create(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	_, err := txConn(tx).Exec(ctx, `
		INSERT INTO wallets (id, owner_id, currency, balance, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		wallet.ID,
		wallet.OwnerID,
		wallet.Currency,
		decimalToNumeric(wallet.Balance),
		wallet.Active,
		timeToPgTimestamptz(wallet.CreatedAt),
		timeToPgTimestamptz(wallet.UpdatedAt),
	)

	return mapUniqueViolation(err)
}

// GetByID retrieves a wallet by ID.
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	row := r.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id)
	return scanWallet(row)
}

// GetByOwner retrieves an owner's wallet in a currency.
func (r *WalletRepository) GetByOwner(ctx context.Context, ownerID, currency string) (*domain.Wallet, error) {
	row := r.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE owner_id = $1 AND currency = $2`, ownerID, currency)
	return scanWallet(row)
}

// GetByIDForUpdate retrieves a wallet by ID with a FOR UPDATE lock.
func (r *WalletRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	row := txConn(tx).QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, id)
	return scanWallet(row)
}

// GetByIDsForUpdate locks several wallets in ID order.
func (r *WalletRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Wallet, error) {
	rows, err := txConn(tx).Query(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectWallets(rows)
}

// IncrementBalance adds delta to the balance in place and returns the result.
func (r *WalletRepository) IncrementBalance(ctx context.Context, tx usecase.Transaction, id string, delta decimal.Decimal, updatedAt time.Time) (decimal.Decimal, error) {
	var balance pgtype.Numeric
	err := txConn(tx).QueryRow(ctx, `
		UPDATE wallets SET balance = balance + $2, updated_at = $3
		WHERE id = $1
		RETURNING balance`,
		id, decimalToNumeric(delta), timeToPgTimestamptz(updatedAt),
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrWalletNotFound
		}
		return decimal.Zero, err
	}

	return numericToDecimal(balance), nil
}

// SetActive toggles the wallet's active flag.
func (r *WalletRepository) SetActive(ctx context.Context, tx usecase.Transaction, id string, active bool, updatedAt time.Time) error {
	tag, err := txConn(tx).Exec(ctx, `UPDATE wallets SET active = $2, updated_at = $3 WHERE id = $1`,
		id, active, timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWalletNotFound
	}
	return nil
}

// AvailableBalance returns balance minus pending holds in a single statement.
func (r *WalletRepository) AvailableBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	var available pgtype.Numeric
	err := r.db.QueryRow(ctx, `
		SELECT w.balance - COALESCE((
			SELECT SUM(h.amount) FROM payment_secures h
			WHERE h.wallet_id = w.id AND h.status = 'PENDING'
		), 0)
		FROM wallets w
		WHERE w.id = $1`, id,
	).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrWalletNotFound
		}
		return decimal.Zero, err
	}

	return numericToDecimal(available), nil
}

// List lists wallets with pagination.
func (r *WalletRepository) List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error) {
	rows, err := r.db.Query(ctx, `SELECT `+walletColumns+` FROM wallets ORDER BY created_at, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectWallets(rows)
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var (
		w       domain.Wallet
		balance pgtype.Numeric
	)
	if err := row.Scan(&w.ID, &w.OwnerID, &w.Currency, &balance, &w.Active, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, err
	}
	w.Balance = numericToDecimal(balance)

	return &w, nil
}

func collectWallets(rows pgx.Rows) ([]*domain.Wallet, error) {
	wallets := make([]*domain.Wallet, 0)
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}

	return wallets, rows.Err()
}
