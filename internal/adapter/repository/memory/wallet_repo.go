package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	store *Store
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(store *Store) *WalletRepository {
	return &WalletRepository{store: store}
}

// Create creates a new wallet.
func (r *WalletRepository) Create(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	st := txState(tx)
	for _, w := range st.wallets {
		if w.OwnerID == wallet.OwnerID && w.Currency == wallet.Currency {
			return domain.ErrWalletExists
		}
	}

	w := *wallet
	st.wallets[w.ID] = &w
	return nil
}

// GetByID retrieves a wallet by ID.
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	var (
		wallet *domain.Wallet
		err    error
	)
	r.store.read(func(st *state) {
		wallet, err = getWallet(st, id)
	})
	return wallet, err
}

// GetByOwner retrieves an owner's wallet in a currency.
func (r *WalletRepository) GetByOwner(ctx context.Context, ownerID, currency string) (*domain.Wallet, error) {
	var wallet *domain.Wallet
	r.store.read(func(st *state) {
		for _, w := range st.wallets {
			if w.OwnerID == ownerID && w.Currency == currency {
				c := *w
				wallet = &c
				return
			}
		}
	})
	if wallet == nil {
		return nil, domain.ErrWalletNotFound
	}
	return wallet, nil
}

// GetByIDForUpdate retrieves a wallet inside a transaction.
func (r *WalletRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	return getWallet(txState(tx), id)
}

// GetByIDsForUpdate retrieves wallets inside a transaction ordered by ID.
func (r *WalletRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Wallet, error) {
	st := txState(tx)
	wallets := make([]*domain.Wallet, 0, len(ids))
	for _, id := range ids {
		if w, ok := st.wallets[id]; ok {
			c := *w
			wallets = append(wallets, &c)
		}
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].ID < wallets[j].ID })
	return wallets, nil
}

// IncrementBalance adds delta to the wallet balance.
func (r *WalletRepository) IncrementBalance(ctx context.Context, tx usecase.Transaction, id string, delta decimal.Decimal, updatedAt time.Time) (decimal.Decimal, error) {
	st := txState(tx)
	w, ok := st.wallets[id]
	if !ok {
		return decimal.Zero, domain.ErrWalletNotFound
	}

	updated := *w
	updated.Balance = updated.Balance.Add(delta)
	updated.UpdatedAt = updatedAt
	st.wallets[id] = &updated
	return updated.Balance, nil
}

// SetActive toggles the wallet's active flag.
func (r *WalletRepository) SetActive(ctx context.Context, tx usecase.Transaction, id string, active bool, updatedAt time.Time) error {
	st := txState(tx)
	w, ok := st.wallets[id]
	if !ok {
		return domain.ErrWalletNotFound
	}

	updated := *w
	updated.Active = active
	updated.UpdatedAt = updatedAt
	st.wallets[id] = &updated
	return nil
}

// AvailableBalance returns balance minus pending holds from one snapshot.
func (r *WalletRepository) AvailableBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	var (
		available decimal.Decimal
		err       error
	)
	r.store.read(func(st *state) {
		w, ok := st.wallets[id]
		if !ok {
			err = domain.ErrWalletNotFound
			return
		}
		available = w.Balance.Sub(sumPending(st, id))
	})
	return available, err
}

// List lists wallets ordered by creation time.
func (r *WalletRepository) List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error) {
	var wallets []*domain.Wallet
	r.store.read(func(st *state) {
		wallets = make([]*domain.Wallet, 0, len(st.wallets))
		for _, w := range st.wallets {
			c := *w
			wallets = append(wallets, &c)
		}
	})

	sort.Slice(wallets, func(i, j int) bool {
		if wallets[i].CreatedAt.Equal(wallets[j].CreatedAt) {
			return wallets[i].ID < wallets[j].ID
		}
		return wallets[i].CreatedAt.Before(wallets[j].CreatedAt)
	})
	return paginate(wallets, limit, offset), nil
}

func getWallet(st *state, id string) (*domain.Wallet, error) {
	w, ok := st.wallets[id]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	c := *w
	return &c, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
