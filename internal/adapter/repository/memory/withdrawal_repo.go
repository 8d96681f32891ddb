package memory

import (
	"context"
	"sort"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// WithdrawalRepository implements usecase.WithdrawalRepository.
type WithdrawalRepository struct {
	store *Store
}

// NewWithdrawalRepository creates a new WithdrawalRepository.
func NewWithdrawalRepository(store *Store) *WithdrawalRepository {
	return &WithdrawalRepository{store: store}
}

// Create creates a new withdrawal.
func (r *WithdrawalRepository) Create(ctx context.Context, tx usecase.Transaction, withdrawal *domain.Withdrawal) error {
	st := txState(tx)
	if withdrawalReferenceTaken(st, withdrawal.Reference) {
		return domain.ErrDuplicateReference
	}

	w := *withdrawal
	st.withdrawals[w.ID] = &w
	return nil
}

// GetByID retrieves a withdrawal by ID.
func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*domain.Withdrawal, error) {
	var (
		withdrawal *domain.Withdrawal
		err        error
	)
	r.store.read(func(st *state) {
		withdrawal, err = getWithdrawal(st, id)
	})
	return withdrawal, err
}

// GetByIDForUpdate retrieves a withdrawal inside a transaction.
func (r *WithdrawalRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Withdrawal, error) {
	return getWithdrawal(txState(tx), id)
}

// Update stores the resolution of a withdrawal.
func (r *WithdrawalRepository) Update(ctx context.Context, tx usecase.Transaction, withdrawal *domain.Withdrawal) error {
	st := txState(tx)
	if _, ok := st.withdrawals[withdrawal.ID]; !ok {
		return domain.ErrWithdrawalNotFound
	}

	w := *withdrawal
	st.withdrawals[w.ID] = &w
	return nil
}

// ReferenceExists reports whether a withdrawal already uses reference.
func (r *WithdrawalRepository) ReferenceExists(ctx context.Context, tx usecase.Transaction, reference string) (bool, error) {
	return withdrawalReferenceTaken(txState(tx), reference), nil
}

// List returns withdrawals matching filter, newest first.
func (r *WithdrawalRepository) List(ctx context.Context, filter domain.WithdrawalFilter) ([]*domain.Withdrawal, error) {
	var withdrawals []*domain.Withdrawal
	r.store.read(func(st *state) {
		for _, w := range st.withdrawals {
			if !withdrawalMatches(st, w, filter) {
				continue
			}
			c := *w
			withdrawals = append(withdrawals, &c)
		}
	})

	sort.Slice(withdrawals, func(i, j int) bool {
		if withdrawals[i].CreatedAt.Equal(withdrawals[j].CreatedAt) {
			return withdrawals[i].ID > withdrawals[j].ID
		}
		return withdrawals[i].CreatedAt.After(withdrawals[j].CreatedAt)
	})
	return paginate(withdrawals, filter.Limit, filter.Offset), nil
}

func withdrawalMatches(st *state, w *domain.Withdrawal, f domain.WithdrawalFilter) bool {
	if f.WalletID != "" && w.WalletID != f.WalletID {
		return false
	}
	if f.OwnerID != "" {
		wallet, ok := st.wallets[w.WalletID]
		if !ok || wallet.OwnerID != f.OwnerID {
			return false
		}
	}
	if f.Status != "" && w.Status != f.Status {
		return false
	}
	return inRange(w.CreatedAt, f.From, f.To)
}

func withdrawalReferenceTaken(st *state, reference string) bool {
	for _, w := range st.withdrawals {
		if w.Reference == reference {
			return true
		}
	}
	return false
}

func getWithdrawal(st *state, id string) (*domain.Withdrawal, error) {
	w, ok := st.withdrawals[id]
	if !ok {
		return nil, domain.ErrWithdrawalNotFound
	}
	c := *w
	return &c, nil
}
