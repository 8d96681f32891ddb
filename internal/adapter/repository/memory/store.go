// Package memory is an in-process storage backend. Transactions are
// serialized and work on a private copy of the data that replaces the
// shared copy on commit, so readers never see uncommitted writes.
package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

var errTxClosed = errors.New("memory: transaction already closed")

type state struct {
	wallets     map[string]*domain.Wallet
	entries     map[string]*domain.LedgerEntry
	holds       map[string]*domain.Hold
	withdrawals map[string]*domain.Withdrawal
	outbox      map[string]*domain.OutboxEvent
	audit       []*domain.AuditLog
}

func newState() *state {
	return &state{
		wallets:     make(map[string]*domain.Wallet),
		entries:     make(map[string]*domain.LedgerEntry),
		holds:       make(map[string]*domain.Hold),
		withdrawals: make(map[string]*domain.Withdrawal),
		outbox:      make(map[string]*domain.OutboxEvent),
	}
}

// clone copies the maps. Records are replaced, never mutated, so sharing
// the pointers is safe.
func (s *state) clone() *state {
	return &state{
		wallets:     maps.Clone(s.wallets),
		entries:     maps.Clone(s.entries),
		holds:       maps.Clone(s.holds),
		withdrawals: maps.Clone(s.withdrawals),
		outbox:      maps.Clone(s.outbox),
		audit:       slices.Clone(s.audit),
	}
}

// Store holds all tables and implements usecase.TransactionManager.
type Store struct {
	writer chan struct{}
	mu     sync.RWMutex
	state  *state
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		writer: make(chan struct{}, 1),
		state:  newState(),
	}
}

// Begin starts a new transaction. It blocks while another transaction is open.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	return &Tx{store: s, state: snapshot}, nil
}

// Ping reports whether the store is usable.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.writer <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.writer
}

// read runs fn against the committed state.
func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

// write applies fn to the committed state outside any transaction.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// Tx is a transaction over a private copy of the store.
type Tx struct {
	store  *Store
	state  *state
	closed bool
}

// Commit publishes the transaction's copy as the committed state.
func (t *Tx) Commit(ctx context.Context) error {
	if t.closed {
		return errTxClosed
	}
	t.closed = true

	t.store.mu.Lock()
	t.store.state = t.state
	t.store.mu.Unlock()
	t.store.release()

	return nil
}

// Rollback discards the transaction's copy.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.store.release()

	return nil
}

func txState(tx usecase.Transaction) *state {
	return tx.(*Tx).state
}
