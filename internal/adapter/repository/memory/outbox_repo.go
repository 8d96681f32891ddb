package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

// Insert stores an outbox event.
func (r *OutboxRepository) Insert(ctx context.Context, event *domain.OutboxEvent) error {
	return r.store.write(ctx, func(st *state) error {
		e := *event
		st.outbox[e.ID] = &e
		return nil
	})
}

// GetUnpublished retrieves unpublished events, oldest first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	var events []*domain.OutboxEvent
	r.store.read(func(st *state) {
		for _, e := range st.outbox {
			if !e.Published {
				c := *e
				events = append(events, &c)
			}
		}
	})

	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].ID < events[j].ID
		}
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	return paginate(events, limit, 0), nil
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	return r.store.write(ctx, func(st *state) error {
		e, ok := st.outbox[id]
		if !ok {
			return nil
		}
		updated := *e
		updated.Published = true
		updated.PublishedAt = &publishedAt
		st.outbox[id] = &updated
		return nil
	})
}

// DeletePublished deletes published events older than before.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return r.store.write(ctx, func(st *state) error {
		for id, e := range st.outbox {
			if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
				delete(st.outbox, id)
			}
		}
		return nil
	})
}

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	store *Store
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(store *Store) *AuditRepository {
	return &AuditRepository{store: store}
}

// CreateTx appends an audit log inside a transaction.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	st := txState(tx)
	l := *log
	st.audit = append(st.audit, &l)
	return nil
}

// ListByResource lists audit logs of one resource, oldest first.
func (r *AuditRepository) ListByResource(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	var logs []*domain.AuditLog
	r.store.read(func(st *state) {
		for _, l := range st.audit {
			if l.ResourceType == resourceType && l.ResourceID == resourceID {
				c := *l
				logs = append(logs, &c)
			}
		}
	})
	return logs, nil
}

var (
	_ usecase.TransactionManager   = (*Store)(nil)
	_ usecase.WalletRepository     = (*WalletRepository)(nil)
	_ usecase.EntryRepository      = (*EntryRepository)(nil)
	_ usecase.HoldRepository       = (*HoldRepository)(nil)
	_ usecase.WithdrawalRepository = (*WithdrawalRepository)(nil)
	_ usecase.OutboxRepository     = (*OutboxRepository)(nil)
	_ usecase.AuditRepository      = (*AuditRepository)(nil)
)
