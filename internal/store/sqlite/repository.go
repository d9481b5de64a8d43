// Package sqlite is the durable document-store backend. Every acknowledged
// write pushes a change notification to in-process watchers through the
// shared hub and, when a notifier is attached, to other processes over the
// message broker.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"dompet/internal/core"
	applog "dompet/internal/log"
	"dompet/internal/store"
)

const (
	timeLayout = time.RFC3339Nano
	dateLayout = "2006-01-02"
)

// Notifier publishes a change event for other processes. The AMQP client
// implements it.
type Notifier interface {
	PublishChange(ctx context.Context, userID string, collection store.Collection) error
}

type Repository struct {
	db       *sql.DB
	hub      *store.Hub
	notifier Notifier
}

func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, hub: store.NewHub()}, nil
}

// SetNotifier attaches the cross-process change publisher.
func (r *Repository) SetNotifier(n Notifier) {
	r.notifier = n
}

func (r *Repository) Close() error {
	r.hub.Close()
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Watch(userID string, c store.Collection) (<-chan store.Event, func()) {
	return r.hub.Subscribe(userID, c)
}

// Broadcast feeds an externally received change event into the local hub.
// The worker calls this for events consumed from the broker.
func (r *Repository) Broadcast(userID string, c store.Collection) {
	r.hub.Publish(userID, c)
}

// publish notifies local watchers and, best effort, other processes.
// Notifier failures are logged, never surfaced: the write is already
// acknowledged and local state is correct.
func (r *Repository) publish(ctx context.Context, userID string, collections ...store.Collection) {
	for _, c := range collections {
		r.hub.Publish(userID, c)
		if r.notifier == nil {
			continue
		}
		if err := r.notifier.PublishChange(ctx, userID, c); err != nil {
			slog.WarnContext(ctx, "Failed to publish change event",
				applog.NewFields().
					WithComponent(applog.ComponentStore).
					WithUser(userID).
					WithCollection(string(c)).
					WithError(err).
					ToSlice()...)
		}
	}
}

func (r *Repository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.ID = uuid.NewString()
	tx.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, description, amount, category, occurred_on, created_at, linked_id, linked_kind)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, string(tx.Type), tx.Description, tx.Amount.Rupiah, tx.Category,
		tx.Date.Format(dateLayout), tx.CreatedAt.Format(timeLayout), tx.LinkedID, string(tx.LinkedKind))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		applog.FieldComponent, applog.ComponentStore,
		applog.FieldTransactionID, tx.ID,
		applog.FieldUserID, tx.UserID,
		"type", string(tx.Type),
		applog.FieldAmountRupiah, tx.Amount.Rupiah)

	r.publish(ctx, tx.UserID, store.Transactions)
	return tx, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	r.publish(ctx, userID, store.Transactions)
	return nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, description, amount, category, occurred_on, created_at, linked_id, linked_kind
		FROM transactions WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *Repository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.ID = uuid.NewString()
	g.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, name, target, current, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.Target.Rupiah, g.Current.Rupiah, g.CreatedAt.Format(timeLayout))
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}

	r.publish(ctx, g.UserID, store.Goals)
	return g, nil
}

func (r *Repository) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, target, current, created_at
		FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	return scanGoal(row)
}

func (r *Repository) UpdateGoal(ctx context.Context, userID, id string, p store.GoalPatch) (core.Goal, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Goal{}, fmt.Errorf("begin update goal: %w", err)
	}
	defer dbTx.Rollback()

	g, err := scanGoal(dbTx.QueryRowContext(ctx, `
		SELECT id, user_id, name, target, current, created_at
		FROM goals WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return core.Goal{}, err
	}
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.Target != nil {
		g.Target = *p.Target
	}

	if _, err := dbTx.ExecContext(ctx,
		`UPDATE goals SET name = ?, target = ? WHERE id = ?`, g.Name, g.Target.Rupiah, id); err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	if err := dbTx.Commit(); err != nil {
		return core.Goal{}, fmt.Errorf("commit update goal: %w", err)
	}

	r.publish(ctx, userID, store.Goals)
	return g, nil
}

func (r *Repository) DeleteGoal(ctx context.Context, userID, id string) error {
	// Linked transactions stay in the ledger.
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	r.publish(ctx, userID, store.Goals)
	return nil
}

func (r *Repository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, target, current, created_at
		FROM goals WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repository) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	d.ID = uuid.NewString()
	d.CreatedAt = time.Now().UTC()
	d.IsPaid = d.Paid.Rupiah >= d.Total.Rupiah

	dueOn := ""
	if !d.DueDate.IsZero() {
		dueOn = d.DueDate.Format(dateLayout)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO debts (id, user_id, name, type, total, paid, is_paid, due_on, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.Name, string(d.Type), d.Total.Rupiah, d.Paid.Rupiah, boolToInt(d.IsPaid),
		dueOn, d.CreatedAt.Format(timeLayout))
	if err != nil {
		return core.Debt{}, fmt.Errorf("insert debt: %w", err)
	}

	r.publish(ctx, d.UserID, store.Debts)
	return d, nil
}

func (r *Repository) GetDebt(ctx context.Context, userID, id string) (core.Debt, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, total, paid, is_paid, due_on, created_at
		FROM debts WHERE id = ? AND user_id = ?`, id, userID)
	return scanDebt(row)
}

func (r *Repository) UpdateDebt(ctx context.Context, userID, id string, p store.DebtPatch) (core.Debt, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Debt{}, fmt.Errorf("begin update debt: %w", err)
	}
	defer dbTx.Rollback()

	d, err := scanDebt(dbTx.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, total, paid, is_paid, due_on, created_at
		FROM debts WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return core.Debt{}, err
	}
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Type != nil {
		d.Type = *p.Type
	}
	if p.Total != nil {
		d.Total = *p.Total
	}
	if p.DueDate != nil {
		d.DueDate = *p.DueDate
	}
	d.IsPaid = d.Paid.Rupiah >= d.Total.Rupiah

	dueOn := ""
	if !d.DueDate.IsZero() {
		dueOn = d.DueDate.Format(dateLayout)
	}
	if _, err := dbTx.ExecContext(ctx, `
		UPDATE debts SET name = ?, type = ?, total = ?, is_paid = ?, due_on = ? WHERE id = ?`,
		d.Name, string(d.Type), d.Total.Rupiah, boolToInt(d.IsPaid), dueOn, id); err != nil {
		return core.Debt{}, fmt.Errorf("update debt: %w", err)
	}
	if err := dbTx.Commit(); err != nil {
		return core.Debt{}, fmt.Errorf("commit update debt: %w", err)
	}

	r.publish(ctx, userID, store.Debts)
	return d, nil
}

func (r *Repository) DeleteDebt(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM debts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	r.publish(ctx, userID, store.Debts)
	return nil
}

func (r *Repository) ListDebts(ctx context.Context, userID string) ([]core.Debt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, type, total, paid, is_paid, due_on, created_at
		FROM debts WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var out []core.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// AdjustGoal runs the balance move and the ledger append in one SQL
// transaction, so a crash between the two writes cannot leave them
// inconsistent.
func (r *Repository) AdjustGoal(ctx context.Context, userID, goalID string, delta int64, entry core.Transaction) (core.Goal, core.Transaction, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Goal{}, core.Transaction{}, fmt.Errorf("begin adjust goal: %w", err)
	}
	defer dbTx.Rollback()

	g, err := scanGoal(dbTx.QueryRowContext(ctx, `
		SELECT id, user_id, name, target, current, created_at
		FROM goals WHERE id = ? AND user_id = ?`, goalID, userID))
	if err != nil {
		return core.Goal{}, core.Transaction{}, err
	}
	if g.Current.Rupiah+delta < 0 {
		return core.Goal{}, core.Transaction{}, core.ErrInsufficientFunds
	}
	g.Current.Rupiah += delta

	if _, err := dbTx.ExecContext(ctx,
		`UPDATE goals SET current = ? WHERE id = ?`, g.Current.Rupiah, goalID); err != nil {
		return core.Goal{}, core.Transaction{}, fmt.Errorf("update goal balance: %w", err)
	}

	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()
	if _, err := dbTx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, description, amount, category, occurred_on, created_at, linked_id, linked_kind)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, string(entry.Type), entry.Description, entry.Amount.Rupiah, entry.Category,
		entry.Date.Format(dateLayout), entry.CreatedAt.Format(timeLayout), entry.LinkedID, string(entry.LinkedKind)); err != nil {
		return core.Goal{}, core.Transaction{}, fmt.Errorf("insert goal adjustment entry: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return core.Goal{}, core.Transaction{}, fmt.Errorf("commit adjust goal: %w", err)
	}

	slog.InfoContext(ctx, "Goal adjusted",
		applog.FieldComponent, applog.ComponentStore,
		applog.FieldGoalID, goalID,
		applog.FieldUserID, userID,
		"delta", delta,
		"current_rupiah", g.Current.Rupiah)

	r.publish(ctx, userID, store.Goals, store.Transactions)
	return g, entry, nil
}

// PayDebt advances the paid balance and appends the ledger entry in one
// SQL transaction. Over-payment rolls back with core.ErrOverpayment.
func (r *Repository) PayDebt(ctx context.Context, userID, debtID string, entry core.Transaction) (core.Debt, core.Transaction, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Debt{}, core.Transaction{}, fmt.Errorf("begin pay debt: %w", err)
	}
	defer dbTx.Rollback()

	d, err := scanDebt(dbTx.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, total, paid, is_paid, due_on, created_at
		FROM debts WHERE id = ? AND user_id = ?`, debtID, userID))
	if err != nil {
		return core.Debt{}, core.Transaction{}, err
	}
	if d.Paid.Rupiah+entry.Amount.Rupiah > d.Total.Rupiah {
		return core.Debt{}, core.Transaction{}, core.ErrOverpayment
	}
	d.Paid.Rupiah += entry.Amount.Rupiah
	d.IsPaid = d.Paid.Rupiah >= d.Total.Rupiah

	if _, err := dbTx.ExecContext(ctx,
		`UPDATE debts SET paid = ?, is_paid = ? WHERE id = ?`,
		d.Paid.Rupiah, boolToInt(d.IsPaid), debtID); err != nil {
		return core.Debt{}, core.Transaction{}, fmt.Errorf("update debt balance: %w", err)
	}

	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()
	if _, err := dbTx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, description, amount, category, occurred_on, created_at, linked_id, linked_kind)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, string(entry.Type), entry.Description, entry.Amount.Rupiah, entry.Category,
		entry.Date.Format(dateLayout), entry.CreatedAt.Format(timeLayout), entry.LinkedID, string(entry.LinkedKind)); err != nil {
		return core.Debt{}, core.Transaction{}, fmt.Errorf("insert debt payment entry: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return core.Debt{}, core.Transaction{}, fmt.Errorf("commit pay debt: %w", err)
	}

	slog.InfoContext(ctx, "Debt payment recorded",
		applog.FieldComponent, applog.ComponentStore,
		applog.FieldDebtID, debtID,
		applog.FieldUserID, userID,
		applog.FieldAmountRupiah, entry.Amount.Rupiah,
		"is_paid", d.IsPaid)

	r.publish(ctx, userID, store.Debts, store.Transactions)
	return d, entry, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx                            core.Transaction
		typ, occurredOn, createdAt    string
		linkedKind                    string
	)
	err := row.Scan(&tx.ID, &tx.UserID, &typ, &tx.Description, &tx.Amount.Rupiah, &tx.Category,
		&occurredOn, &createdAt, &tx.LinkedID, &linkedKind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	tx.Type = core.TransactionType(typ)
	tx.LinkedKind = core.LinkedKind(linkedKind)
	if tx.Date, err = parseDate(occurredOn); err != nil {
		return core.Transaction{}, err
	}
	if tx.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func scanGoal(row rowScanner) (core.Goal, error) {
	var (
		g         core.Goal
		createdAt string
	)
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.Target.Rupiah, &g.Current.Rupiah, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, store.ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("scan goal: %w", err)
	}
	if g.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

func scanDebt(row rowScanner) (core.Debt, error) {
	var (
		d                 core.Debt
		typ, dueOn        string
		isPaid            int
		createdAt         string
	)
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &typ, &d.Total.Rupiah, &d.Paid.Rupiah, &isPaid, &dueOn, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Debt{}, store.ErrNotFound
	}
	if err != nil {
		return core.Debt{}, fmt.Errorf("scan debt: %w", err)
	}
	d.Type = core.DebtType(typ)
	d.IsPaid = isPaid != 0
	if dueOn != "" {
		if d.DueDate, err = parseDate(dueOn); err != nil {
			return core.Debt{}, err
		}
	}
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Debt{}, err
	}
	return d, nil
}

func parseDate(s string) (core.Date, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse stored date %q: %w", s, err)
	}
	return core.Date{Time: t}, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ store.Store = (*Repository)(nil)
