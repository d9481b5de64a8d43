// Package store defines the document-store port the ledger core is built
// against, plus the change-notification contract shared by its backends.
package store

import (
	"context"
	"errors"

	"dompet/internal/core"
)

type Collection string

const (
	Transactions Collection = "transactions"
	Goals        Collection = "goals"
	Debts        Collection = "debts"
)

// Collections lists every per-user sub-collection, in subscription order.
var Collections = []Collection{Transactions, Goals, Debts}

var (
	ErrNotFound = errors.New("record not found")
	ErrClosed   = errors.New("store closed")
)

// Event is a push-style change notification. It carries no payload:
// consumers re-read the whole collection and replace their snapshot.
type Event struct {
	UserID     string
	Collection Collection
}

type (
	// GoalPatch holds the independently editable goal fields. Nil fields
	// are left untouched; Current is deliberately absent (AdjustGoal is
	// the only write path for it).
	GoalPatch struct {
		Name   *string
		Target *core.Money
	}

	// DebtPatch holds the user-editable debt fields. Paid and IsPaid are
	// absent; PayDebt is the only write path for them.
	DebtPatch struct {
		Name    *string
		Type    *core.DebtType
		Total   *core.Money
		DueDate *core.Date
	}
)

// Store is the per-user document store. Create operations assign the
// identifier and creation timestamp server-side and return the stored
// record once the write is acknowledged. Update and delete of an unknown
// id fail with ErrNotFound. Lists return records in insertion order.
//
// AdjustGoal and PayDebt are atomic: the summary-field update and the
// appended ledger entry commit or fail together.
type Store interface {
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error
	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)

	CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
	GetGoal(ctx context.Context, userID, id string) (core.Goal, error)
	UpdateGoal(ctx context.Context, userID, id string, p GoalPatch) (core.Goal, error)
	DeleteGoal(ctx context.Context, userID, id string) error
	ListGoals(ctx context.Context, userID string) ([]core.Goal, error)

	CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error)
	GetDebt(ctx context.Context, userID, id string) (core.Debt, error)
	UpdateDebt(ctx context.Context, userID, id string, p DebtPatch) (core.Debt, error)
	DeleteDebt(ctx context.Context, userID, id string) error
	ListDebts(ctx context.Context, userID string) ([]core.Debt, error)

	// AdjustGoal moves the goal's current amount by delta (negative for a
	// withdrawal) and appends entry in the same write. The goal balance
	// may not go negative.
	AdjustGoal(ctx context.Context, userID, goalID string, delta int64, entry core.Transaction) (core.Goal, core.Transaction, error)

	// PayDebt advances the debt's paid amount by entry.Amount, recomputes
	// IsPaid, and appends entry in the same write. Over-payment is
	// rejected with core.ErrOverpayment.
	PayDebt(ctx context.Context, userID, debtID string, entry core.Transaction) (core.Debt, core.Transaction, error)

	// Watch returns a coalescing change-notification channel for one
	// user's collection and a cancel func that releases it. Events are
	// delivered after the originating write is acknowledged.
	Watch(userID string, c Collection) (<-chan Event, func())

	Close() error
}
