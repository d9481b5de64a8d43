// Package memory is the in-process document store backend. It keeps every
// collection in insertion order, pushes change notifications through the
// shared hub, and doubles as the fake event stream for tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dompet/internal/core"
	"dompet/internal/store"
)

type Store struct {
	mu     sync.Mutex
	seq    int64
	clock  int64 // drives strictly monotonic creation timestamps
	txs    map[string][]core.Transaction
	goals  map[string][]core.Goal
	debts  map[string][]core.Debt
	hub    *store.Hub
	closed bool
}

func New() *Store {
	return &Store{
		txs:   make(map[string][]core.Transaction),
		goals: make(map[string][]core.Goal),
		debts: make(map[string][]core.Debt),
		hub:   store.NewHub(),
	}
}

func (s *Store) nextID() string {
	s.seq++
	return fmt.Sprintf("mem-%d", s.seq)
}

// now returns a timestamp that is strictly increasing per write, so
// creation order is recoverable even for writes within one tick.
func (s *Store) now() time.Time {
	s.clock++
	return time.Now().UTC().Add(time.Duration(s.clock) * time.Nanosecond)
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Transaction{}, store.ErrClosed
	}
	tx.ID = s.nextID()
	tx.CreatedAt = s.now()
	s.txs[tx.UserID] = append(s.txs[tx.UserID], tx)
	s.hub.Publish(tx.UserID, store.Transactions)
	return tx, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	list := s.txs[userID]
	for i, tx := range list {
		if tx.ID == id {
			s.txs[userID] = append(list[:i:i], list[i+1:]...)
			s.hub.Publish(userID, store.Transactions)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	return append([]core.Transaction(nil), s.txs[userID]...), nil
}

func (s *Store) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Goal{}, store.ErrClosed
	}
	g.ID = s.nextID()
	g.CreatedAt = s.now()
	s.goals[g.UserID] = append(s.goals[g.UserID], g)
	s.hub.Publish(g.UserID, store.Goals)
	return g, nil
}

func (s *Store) GetGoal(_ context.Context, userID, id string) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Goal{}, store.ErrClosed
	}
	if g := s.findGoal(userID, id); g != nil {
		return *g, nil
	}
	return core.Goal{}, store.ErrNotFound
}

func (s *Store) UpdateGoal(_ context.Context, userID, id string, p store.GoalPatch) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Goal{}, store.ErrClosed
	}
	g := s.findGoal(userID, id)
	if g == nil {
		return core.Goal{}, store.ErrNotFound
	}
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.Target != nil {
		g.Target = *p.Target
	}
	s.hub.Publish(userID, store.Goals)
	return *g, nil
}

func (s *Store) DeleteGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	list := s.goals[userID]
	for i, g := range list {
		if g.ID == id {
			// Linked transactions stay in the ledger.
			s.goals[userID] = append(list[:i:i], list[i+1:]...)
			s.hub.Publish(userID, store.Goals)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	return append([]core.Goal(nil), s.goals[userID]...), nil
}

func (s *Store) CreateDebt(_ context.Context, d core.Debt) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Debt{}, store.ErrClosed
	}
	d.ID = s.nextID()
	d.CreatedAt = s.now()
	s.debts[d.UserID] = append(s.debts[d.UserID], d)
	s.hub.Publish(d.UserID, store.Debts)
	return d, nil
}

func (s *Store) GetDebt(_ context.Context, userID, id string) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Debt{}, store.ErrClosed
	}
	if d := s.findDebt(userID, id); d != nil {
		return *d, nil
	}
	return core.Debt{}, store.ErrNotFound
}

func (s *Store) UpdateDebt(_ context.Context, userID, id string, p store.DebtPatch) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Debt{}, store.ErrClosed
	}
	d := s.findDebt(userID, id)
	if d == nil {
		return core.Debt{}, store.ErrNotFound
	}
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Type != nil {
		d.Type = *p.Type
	}
	if p.Total != nil {
		d.Total = *p.Total
		d.IsPaid = d.Paid.Rupiah >= d.Total.Rupiah
	}
	if p.DueDate != nil {
		d.DueDate = *p.DueDate
	}
	s.hub.Publish(userID, store.Debts)
	return *d, nil
}

func (s *Store) DeleteDebt(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	list := s.debts[userID]
	for i, d := range list {
		if d.ID == id {
			s.debts[userID] = append(list[:i:i], list[i+1:]...)
			s.hub.Publish(userID, store.Debts)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListDebts(_ context.Context, userID string) ([]core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	return append([]core.Debt(nil), s.debts[userID]...), nil
}

// AdjustGoal applies the balance move and the ledger append under one
// lock, so a partial write can never be observed.
func (s *Store) AdjustGoal(_ context.Context, userID, goalID string, delta int64, entry core.Transaction) (core.Goal, core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Goal{}, core.Transaction{}, store.ErrClosed
	}
	g := s.findGoal(userID, goalID)
	if g == nil {
		return core.Goal{}, core.Transaction{}, store.ErrNotFound
	}
	if g.Current.Rupiah+delta < 0 {
		return core.Goal{}, core.Transaction{}, core.ErrInsufficientFunds
	}

	g.Current.Rupiah += delta
	entry.ID = s.nextID()
	entry.CreatedAt = s.now()
	s.txs[userID] = append(s.txs[userID], entry)

	s.hub.Publish(userID, store.Goals)
	s.hub.Publish(userID, store.Transactions)
	return *g, entry, nil
}

// PayDebt advances the paid balance and appends the ledger entry under
// one lock. Over-payment is rejected before anything changes.
func (s *Store) PayDebt(_ context.Context, userID, debtID string, entry core.Transaction) (core.Debt, core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Debt{}, core.Transaction{}, store.ErrClosed
	}
	d := s.findDebt(userID, debtID)
	if d == nil {
		return core.Debt{}, core.Transaction{}, store.ErrNotFound
	}
	if d.Paid.Rupiah+entry.Amount.Rupiah > d.Total.Rupiah {
		return core.Debt{}, core.Transaction{}, core.ErrOverpayment
	}

	d.Paid.Rupiah += entry.Amount.Rupiah
	d.IsPaid = d.Paid.Rupiah >= d.Total.Rupiah
	entry.ID = s.nextID()
	entry.CreatedAt = s.now()
	s.txs[userID] = append(s.txs[userID], entry)

	s.hub.Publish(userID, store.Debts)
	s.hub.Publish(userID, store.Transactions)
	return *d, entry, nil
}

func (s *Store) Watch(userID string, c store.Collection) (<-chan store.Event, func()) {
	return s.hub.Subscribe(userID, c)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.hub.Close()
	return nil
}

func (s *Store) findGoal(userID, id string) *core.Goal {
	list := s.goals[userID]
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}

func (s *Store) findDebt(userID, id string) *core.Debt {
	list := s.debts[userID]
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}

var _ store.Store = (*Store)(nil)
