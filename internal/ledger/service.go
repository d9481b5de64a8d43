// Package ledger is the write path. It validates before any store call
// and composes the compound balance-adjustment operations, whose two
// writes the store applies atomically.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"dompet/internal/core"
	applog "dompet/internal/log"
	"dompet/internal/store"
)

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// CreateTransaction records a manual ledger entry. Linkage fields are
// reserved for the compound operations and always cleared here.
func (s *Service) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.LinkedID = ""
	tx.LinkedKind = ""
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}
	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return created, nil
}

func (s *Service) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// CreateGoal starts a savings goal at zero. The balance only moves
// through AdjustGoalAmount.
func (s *Service) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.Current = core.Money{}
	if err := g.Validate(); err != nil {
		return core.Goal{}, fmt.Errorf("validate goal: %w", err)
	}
	created, err := s.store.CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	return created, nil
}

func (s *Service) UpdateGoal(ctx context.Context, userID, id string, p store.GoalPatch) (core.Goal, error) {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return core.Goal{}, core.ErrEmptyName
	}
	if p.Target != nil {
		if err := p.Target.Validate(); err != nil {
			return core.Goal{}, fmt.Errorf("validate target: %w", err)
		}
	}
	updated, err := s.store.UpdateGoal(ctx, userID, id, p)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	return updated, nil
}

// DeleteGoal removes the goal. Its linked transactions stay in the
// ledger as history.
func (s *Service) DeleteGoal(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteGoal(ctx, userID, id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

func (s *Service) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	d.Paid = core.Money{}
	d.IsPaid = false
	if err := d.Validate(); err != nil {
		return core.Debt{}, fmt.Errorf("validate debt: %w", err)
	}
	created, err := s.store.CreateDebt(ctx, d)
	if err != nil {
		return core.Debt{}, fmt.Errorf("create debt: %w", err)
	}
	return created, nil
}

func (s *Service) UpdateDebt(ctx context.Context, userID, id string, p store.DebtPatch) (core.Debt, error) {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return core.Debt{}, core.ErrEmptyName
	}
	if p.Type != nil && !p.Type.Valid() {
		return core.Debt{}, core.ErrInvalidDebtType
	}
	if p.Total != nil {
		if err := p.Total.Validate(); err != nil {
			return core.Debt{}, fmt.Errorf("validate total: %w", err)
		}
	}
	updated, err := s.store.UpdateDebt(ctx, userID, id, p)
	if err != nil {
		return core.Debt{}, fmt.Errorf("update debt: %w", err)
	}
	return updated, nil
}

func (s *Service) DeleteDebt(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteDebt(ctx, userID, id); err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	return nil
}

// AdjustGoalAmount moves a goal balance by delta and appends the linked
// ledger entry in one atomic store write. A positive delta is money
// leaving general funds into savings (an expense); a negative delta is a
// withdrawal (an income).
func (s *Service) AdjustGoalAmount(ctx context.Context, userID, goalID string, delta int64) (core.Goal, core.Transaction, error) {
	if delta == 0 {
		return core.Goal{}, core.Transaction{}, core.ErrInvalidAmount
	}
	goal, err := s.store.GetGoal(ctx, userID, goalID)
	if err != nil {
		return core.Goal{}, core.Transaction{}, fmt.Errorf("load goal: %w", err)
	}

	entry := core.Transaction{
		UserID:     userID,
		Date:       core.Today(),
		LinkedID:   goalID,
		LinkedKind: core.LinkedGoal,
	}
	if delta > 0 {
		entry.Type = core.Expense
		entry.Category = core.CategorySaving
		entry.Description = "Menabung: " + goal.Name
		entry.Amount = core.Money{Rupiah: delta}
	} else {
		entry.Type = core.Income
		entry.Category = core.CategoryGoalWithdrawal
		entry.Description = "Penarikan: " + goal.Name
		entry.Amount = core.Money{Rupiah: -delta}
	}
	if err := entry.Validate(); err != nil {
		return core.Goal{}, core.Transaction{}, fmt.Errorf("validate goal adjustment: %w", err)
	}

	updated, created, err := s.store.AdjustGoal(ctx, userID, goalID, delta, entry)
	if err != nil {
		return core.Goal{}, core.Transaction{}, fmt.Errorf("adjust goal: %w", err)
	}

	fields := applog.NewFields().
		WithComponent(applog.ComponentLedger).
		WithUser(userID).
		WithTransaction(created.ID, created.Category, created.Amount.Rupiah)
	fields[applog.FieldGoalID] = goalID
	fields["current_rupiah"] = updated.Current.Rupiah
	slog.InfoContext(ctx, "Goal amount adjusted", fields.ToSlice()...)
	return updated, created, nil
}

// RecordDebtPayment advances a debt's paid amount and appends the linked
// ledger entry in one atomic store write. Paying down a debt is an
// expense; collecting a receivable is an income.
func (s *Service) RecordDebtPayment(ctx context.Context, userID, debtID string, amount core.Money) (core.Debt, core.Transaction, error) {
	if err := amount.Validate(); err != nil {
		return core.Debt{}, core.Transaction{}, err
	}
	debt, err := s.store.GetDebt(ctx, userID, debtID)
	if err != nil {
		return core.Debt{}, core.Transaction{}, fmt.Errorf("load debt: %w", err)
	}

	entry := core.Transaction{
		UserID:      userID,
		Description: "Pembayaran: " + debt.Name,
		Amount:      amount,
		Date:        core.Today(),
		LinkedID:    debtID,
		LinkedKind:  core.LinkedDebt,
	}
	switch debt.Type {
	case core.Receivable:
		entry.Type = core.Income
		entry.Category = core.CategoryReceivablePayment
	default:
		entry.Type = core.Expense
		entry.Category = core.CategoryDebtPayment
	}
	if err := entry.Validate(); err != nil {
		return core.Debt{}, core.Transaction{}, fmt.Errorf("validate debt payment: %w", err)
	}

	updated, created, err := s.store.PayDebt(ctx, userID, debtID, entry)
	if err != nil {
		return core.Debt{}, core.Transaction{}, fmt.Errorf("pay debt: %w", err)
	}

	fields := applog.NewFields().
		WithComponent(applog.ComponentLedger).
		WithUser(userID).
		WithTransaction(created.ID, created.Category, created.Amount.Rupiah)
	fields[applog.FieldDebtID] = debtID
	fields["paid_rupiah"] = updated.Paid.Rupiah
	fields["is_paid"] = updated.IsPaid
	slog.InfoContext(ctx, "Debt payment recorded", fields.ToSlice()...)
	return updated, created, nil
}
