package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	store *Store
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

// Create creates a new ledger entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	st := txState(tx)
	if entryReferenceTaken(st, entry.Reference) {
		return domain.ErrDuplicateReference
	}

	e := *entry
	st.entries[e.ID] = &e
	return nil
}

// GetByID retrieves a ledger entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	var (
		entry *domain.LedgerEntry
		err   error
	)
	r.store.read(func(st *state) {
		entry, err = getEntry(st, id)
	})
	return entry, err
}

// GetByIDForUpdate retrieves a ledger entry inside a transaction.
func (r *EntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerEntry, error) {
	return getEntry(txState(tx), id)
}

// UpdateStatus updates the status of a ledger entry.
func (r *EntryRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.EntryStatus, updatedAt time.Time) error {
	st := txState(tx)
	e, ok := st.entries[id]
	if !ok {
		return domain.ErrEntryNotFound
	}

	updated := *e
	updated.Status = status
	updated.UpdatedAt = updatedAt
	st.entries[id] = &updated
	return nil
}

// ReferenceExists reports whether a ledger entry already uses reference.
func (r *EntryRepository) ReferenceExists(ctx context.Context, tx usecase.Transaction, reference string) (bool, error) {
	return entryReferenceTaken(txState(tx), reference), nil
}

// List returns entries matching filter, newest first.
func (r *EntryRepository) List(ctx context.Context, filter domain.EntryFilter) ([]*domain.LedgerEntry, error) {
	var entries []*domain.LedgerEntry
	r.store.read(func(st *state) {
		for _, e := range st.entries {
			if !entryMatches(st, e, filter) {
				continue
			}
			c := *e
			entries = append(entries, &c)
		}
	})

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return paginate(entries, filter.Limit, filter.Offset), nil
}

// SumCompleted sums completed entries for a wallet, up to at when given.
func (r *EntryRepository) SumCompleted(ctx context.Context, walletID string, at *time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	r.store.read(func(st *state) {
		for _, e := range st.entries {
			if e.WalletID != walletID || e.Status != domain.EntryStatusCompleted {
				continue
			}
			if at != nil && e.CreatedAt.After(*at) {
				continue
			}
			sum = sum.Add(e.Amount)
		}
	})
	return sum, nil
}

func entryMatches(st *state, e *domain.LedgerEntry, f domain.EntryFilter) bool {
	if f.WalletID != "" && e.WalletID != f.WalletID {
		return false
	}
	if f.OwnerID != "" {
		w, ok := st.wallets[e.WalletID]
		if !ok || w.OwnerID != f.OwnerID {
			return false
		}
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	return inRange(e.CreatedAt, f.From, f.To)
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

func entryReferenceTaken(st *state, reference string) bool {
	for _, e := range st.entries {
		if e.Reference == reference {
			return true
		}
	}
	return false
}

func getEntry(st *state, id string) (*domain.LedgerEntry, error) {
	e, ok := st.entries[id]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	c := *e
	return &c, nil
}
