package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// HoldRepository implements usecase.HoldRepository.
type HoldRepository struct {
	store *Store
}

// NewHoldRepository creates a new HoldRepository.
func NewHoldRepository(store *Store) *HoldRepository {
	return &HoldRepository{store: store}
}

// Create creates a new hold.
func (r *HoldRepository) Create(ctx context.Context, tx usecase.Transaction, hold *domain.Hold) error {
	h := *hold
	txState(tx).holds[h.ID] = &h
	return nil
}

// GetByID retrieves a hold by ID.
func (r *HoldRepository) GetByID(ctx context.Context, id string) (*domain.Hold, error) {
	var (
		hold *domain.Hold
		err  error
	)
	r.store.read(func(st *state) {
		hold, err = getHold(st, id)
	})
	return hold, err
}

// GetByIDForUpdate retrieves a hold inside a transaction.
func (r *HoldRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Hold, error) {
	return getHold(txState(tx), id)
}

// UpdateStatus updates the status of a hold.
func (r *HoldRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.HoldStatus, updatedAt time.Time) error {
	st := txState(tx)
	h, ok := st.holds[id]
	if !ok {
		return domain.ErrHoldNotFound
	}

	updated := *h
	updated.Status = status
	updated.UpdatedAt = updatedAt
	st.holds[id] = &updated
	return nil
}

// SumPending sums pending holds of a wallet inside a transaction.
func (r *HoldRepository) SumPending(ctx context.Context, tx usecase.Transaction, walletID string) (decimal.Decimal, error) {
	return sumPending(txState(tx), walletID), nil
}

// ListByWallet lists holds for a wallet, newest first.
func (r *HoldRepository) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Hold, error) {
	var holds []*domain.Hold
	r.store.read(func(st *state) {
		for _, h := range st.holds {
			if h.WalletID == walletID {
				c := *h
				holds = append(holds, &c)
			}
		}
	})

	sort.Slice(holds, func(i, j int) bool {
		if holds[i].CreatedAt.Equal(holds[j].CreatedAt) {
			return holds[i].ID > holds[j].ID
		}
		return holds[i].CreatedAt.After(holds[j].CreatedAt)
	})
	return paginate(holds, limit, offset), nil
}

// ListExpired lists pending holds whose expiry is at or before now, oldest expiry first.
func (r *HoldRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Hold, error) {
	var holds []*domain.Hold
	r.store.read(func(st *state) {
		for _, h := range st.holds {
			if h.IsExpired(now) {
				c := *h
				holds = append(holds, &c)
			}
		}
	})

	sort.Slice(holds, func(i, j int) bool { return holds[i].ExpiresAt.Before(*holds[j].ExpiresAt) })
	return paginate(holds, limit, 0), nil
}

func sumPending(st *state, walletID string) decimal.Decimal {
	sum := decimal.Zero
	for _, h := range st.holds {
		if h.WalletID == walletID && h.Status == domain.HoldStatusPending {
			sum = sum.Add(h.Amount)
		}
	}
	return sum
}

func getHold(st *state, id string) (*domain.Hold, error) {
	h, ok := st.holds[id]
	if !ok {
		return nil, domain.ErrHoldNotFound
	}
	c := *h
	return &c, nil
}
