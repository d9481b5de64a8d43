// Package mirror keeps a per-user in-memory mirror of the remote store
// current. One manager owns the snapshot; consumers read through
// Snapshot() instead of sharing mutable state.
package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"dompet/internal/core"
	applog "dompet/internal/log"
	"dompet/internal/store"
)

// Snapshot is the full mirrored state as last received from the store.
// Collections are in insertion order; callers sort if they need to.
type Snapshot struct {
	Transactions []core.Transaction
	Goals        []core.Goal
	Debts        []core.Debt
}

// Manager subscribes to one user's three collections and replaces the
// matching snapshot slice whenever a change notification arrives. A store
// error is terminal for the subscription: loading stops reading true, Err
// reports the cause, and the caller must Subscribe again.
type Manager struct {
	store store.Store

	mu         sync.RWMutex
	userID     string
	subscribed bool
	loaded     map[store.Collection]bool
	snap       Snapshot
	err        error
	version    uint64
	cancel     func()
}

func NewManager(st store.Store) *Manager {
	return &Manager{store: st}
}

// Subscribe tears down any previous subscription, loads all three
// collections, and starts watching for changes. The returned cancel func
// stops all three watchers and waits for them to exit.
func (m *Manager) Subscribe(ctx context.Context, userID string) (func(), error) {
	m.Unsubscribe()

	watchCtx, cancelWatch := context.WithCancel(ctx)

	// Watchers are registered before the initial load so a write that
	// lands in between still triggers a refresh.
	type watcher struct {
		collection store.Collection
		ch         <-chan store.Event
		stop       func()
	}
	watchers := make([]watcher, 0, len(store.Collections))
	for _, c := range store.Collections {
		ch, stop := m.store.Watch(userID, c)
		watchers = append(watchers, watcher{collection: c, ch: ch, stop: stop})
	}
	stopAll := func() {
		for _, w := range watchers {
			w.stop()
		}
	}

	m.mu.Lock()
	m.userID = userID
	m.subscribed = true
	m.loaded = make(map[store.Collection]bool, len(store.Collections))
	m.snap = Snapshot{}
	m.err = nil
	m.version++
	m.mu.Unlock()

	// Initial load of the three collections, concurrently. There is no
	// ordering guarantee between them; loading stays true until all
	// three have reported.
	g, loadCtx := errgroup.WithContext(watchCtx)
	for _, w := range watchers {
		w := w
		g.Go(func() error {
			return m.refresh(loadCtx, userID, w.collection)
		})
	}
	if err := g.Wait(); err != nil {
		m.setErr(err)
		stopAll()
		cancelWatch()
		return nil, fmt.Errorf("subscribe %s: %w", userID, err)
	}

	var wg sync.WaitGroup
	for _, w := range watchers {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer w.stop()
			for {
				select {
				case <-watchCtx.Done():
					return
				case _, ok := <-w.ch:
					if !ok {
						return
					}
					if err := m.refresh(watchCtx, userID, w.collection); err != nil {
						if watchCtx.Err() == nil {
							m.setErr(err)
						}
						return
					}
				}
			}
		}()
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			cancelWatch()
			stopAll()
			wg.Wait()
		})
	}

	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	slog.InfoContext(ctx, "Subscribed to user collections",
		applog.FieldComponent, applog.ComponentMirror,
		applog.FieldUserID, userID)
	return cancel, nil
}

// Unsubscribe cancels the current subscription, if any, and waits for its
// watchers to stop.
func (m *Manager) Unsubscribe() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.subscribed = false
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// refresh replaces one collection's snapshot slice with the store's
// current contents.
func (m *Manager) refresh(ctx context.Context, userID string, c store.Collection) error {
	switch c {
	case store.Transactions:
		txs, err := m.store.ListTransactions(ctx, userID)
		if err != nil {
			return fmt.Errorf("refresh transactions: %w", err)
		}
		m.apply(userID, c, func(s *Snapshot) { s.Transactions = txs })
	case store.Goals:
		goals, err := m.store.ListGoals(ctx, userID)
		if err != nil {
			return fmt.Errorf("refresh goals: %w", err)
		}
		m.apply(userID, c, func(s *Snapshot) { s.Goals = goals })
	case store.Debts:
		debts, err := m.store.ListDebts(ctx, userID)
		if err != nil {
			return fmt.Errorf("refresh debts: %w", err)
		}
		m.apply(userID, c, func(s *Snapshot) { s.Debts = debts })
	}
	return nil
}

func (m *Manager) apply(userID string, c store.Collection, set func(*Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// A refresh that raced a user switch must not leak into the new
	// subscription's snapshot.
	if m.userID != userID {
		return
	}
	set(&m.snap)
	m.loaded[c] = true
	m.version++
}

func (m *Manager) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err == nil {
		m.err = err
	}
	slog.Error("Mirror subscription failed",
		applog.FieldComponent, applog.ComponentMirror,
		applog.FieldUserID, m.userID,
		applog.FieldError, err)
}

// Snapshot returns a copy of the current mirrored state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Transactions: append([]core.Transaction(nil), m.snap.Transactions...),
		Goals:        append([]core.Goal(nil), m.snap.Goals...),
		Debts:        append([]core.Debt(nil), m.snap.Debts...),
	}
}

// Loading reports whether the subscription is still waiting for any of
// the three collections to report its first snapshot. False once all
// three have reported, and false after an error so consumers never spin.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.subscribed || m.err != nil {
		return false
	}
	return len(m.loaded) < len(store.Collections)
}

// Err returns the terminal subscription error, if any.
func (m *Manager) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// Version increments with every applied snapshot; cache keys built from
// it go stale the moment fresher data lands.
func (m *Manager) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// UserID returns the currently subscribed user, empty when unsubscribed.
func (m *Manager) UserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.subscribed {
		return ""
	}
	return m.userID
}
