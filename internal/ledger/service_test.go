package ledger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"dompet/internal/core"
	applog "dompet/internal/log"
	"dompet/internal/store"
	"dompet/internal/store/memory"
)

func newService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	s := memory.New()
	t.Cleanup(func() { s.Close() })
	return NewService(s), s
}

func TestCreateTransactionValidatesBeforeWrite(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	cases := []core.Transaction{
		{UserID: "u1", Type: core.Expense, Description: "x", Amount: core.Money{Rupiah: 0}, Category: "Belanja", Date: core.NewDate(2024, 1, 1)},
		{UserID: "u1", Type: core.Expense, Description: "x", Amount: core.Money{Rupiah: -500}, Category: "Belanja", Date: core.NewDate(2024, 1, 1)},
		{UserID: "u1", Type: core.Income, Description: "x", Amount: core.Money{Rupiah: 100}, Category: "Belanja", Date: core.NewDate(2024, 1, 1)},
		{UserID: "u1", Type: core.Expense, Description: "", Amount: core.Money{Rupiah: 100}, Category: "Belanja", Date: core.NewDate(2024, 1, 1)},
	}
	for i, tx := range cases {
		if _, err := svc.CreateTransaction(ctx, tx); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}

	// Nothing reached the store.
	txs, err := st.ListTransactions(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 0 {
		t.Fatalf("expected no stored transactions, got %d", len(txs))
	}
}

func TestCreateTransactionClearsLinkage(t *testing.T) {
	svc, _ := newService(t)

	created, err := svc.CreateTransaction(context.Background(), core.Transaction{
		UserID:      "u1",
		Type:        core.Income,
		Description: "gaji",
		Amount:      core.Money{Rupiah: 1000000},
		Category:    "Gaji",
		Date:        core.NewDate(2024, 1, 5),
		LinkedID:    "sneaky",
		LinkedKind:  core.LinkedGoal,
	})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if created.LinkedID != "" || created.LinkedKind != "" {
		t.Fatal("manual entries must not carry linkage fields")
	}
}

func TestAdjustGoalAmountContribution(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	g, err := svc.CreateGoal(ctx, core.Goal{UserID: "u1", Name: "Liburan", Target: core.Money{Rupiah: 1000000}})
	if err != nil {
		t.Fatal(err)
	}

	updated, entry, err := svc.AdjustGoalAmount(ctx, "u1", g.ID, 200000)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Current.Rupiah != 200000 {
		t.Fatalf("expected current 200000, got %d", updated.Current.Rupiah)
	}
	if got := updated.Progress(); got != 20.0 {
		t.Fatalf("expected 20.0%% progress, got %v", got)
	}
	if entry.Type != core.Expense {
		t.Fatalf("a contribution is money leaving general funds, expected expense, got %s", entry.Type)
	}
	if entry.Amount.Rupiah != 200000 {
		t.Fatalf("expected entry amount 200000, got %d", entry.Amount.Rupiah)
	}
	if entry.Description != "Menabung: Liburan" {
		t.Fatalf("unexpected description %q", entry.Description)
	}
	if entry.LinkedID != g.ID || entry.LinkedKind != core.LinkedGoal {
		t.Fatal("entry must be linked to its goal")
	}

	txs, _ := st.ListTransactions(ctx, "u1")
	if len(txs) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(txs))
	}
}

func TestAdjustGoalAmountWithdrawal(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	g, err := svc.CreateGoal(ctx, core.Goal{UserID: "u1", Name: "Dana Darurat", Target: core.Money{Rupiah: 500000}})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.AdjustGoalAmount(ctx, "u1", g.ID, 300000); err != nil {
		t.Fatal(err)
	}

	updated, entry, err := svc.AdjustGoalAmount(ctx, "u1", g.ID, -100000)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Current.Rupiah != 200000 {
		t.Fatalf("expected current 200000, got %d", updated.Current.Rupiah)
	}
	if entry.Type != core.Income {
		t.Fatalf("a withdrawal returns money to general funds, expected income, got %s", entry.Type)
	}
	if entry.Amount.Rupiah != 100000 {
		t.Fatalf("expected entry amount 100000, got %d", entry.Amount.Rupiah)
	}
	if entry.Description != "Penarikan: Dana Darurat" {
		t.Fatalf("unexpected description %q", entry.Description)
	}
}

func TestAdjustGoalAmountZeroDelta(t *testing.T) {
	svc, _ := newService(t)
	if _, _, err := svc.AdjustGoalAmount(context.Background(), "u1", "g1", 0); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestRecordDebtPaymentFull(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	d, err := svc.CreateDebt(ctx, core.Debt{UserID: "u1", Name: "Toko A", Type: core.DebtOwed, Total: core.Money{Rupiah: 500000}})
	if err != nil {
		t.Fatal(err)
	}

	updated, entry, err := svc.RecordDebtPayment(ctx, "u1", d.ID, core.Money{Rupiah: 500000})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Paid.Rupiah != 500000 {
		t.Fatalf("expected paid 500000, got %d", updated.Paid.Rupiah)
	}
	if !updated.IsPaid {
		t.Fatal("expected is_paid true after full payment")
	}
	if updated.Remaining().Rupiah != 0 {
		t.Fatalf("expected remaining 0, got %d", updated.Remaining().Rupiah)
	}
	if entry.Type != core.Expense || entry.Amount.Rupiah != 500000 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Description != "Pembayaran: Toko A" {
		t.Fatalf("unexpected description %q", entry.Description)
	}
}

func TestRecordReceivablePaymentIsIncome(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	d, err := svc.CreateDebt(ctx, core.Debt{UserID: "u1", Name: "Budi", Type: core.Receivable, Total: core.Money{Rupiah: 300000}})
	if err != nil {
		t.Fatal(err)
	}

	_, entry, err := svc.RecordDebtPayment(ctx, "u1", d.ID, core.Money{Rupiah: 100000})
	if err != nil {
		t.Fatal(err)
	}
	if entry.Type != core.Income {
		t.Fatalf("collecting a receivable is income, got %s", entry.Type)
	}
	if entry.Category != core.CategoryReceivablePayment {
		t.Fatalf("unexpected category %q", entry.Category)
	}
}

func TestLinkedEntriesSumToPaidAmount(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	d, err := svc.CreateDebt(ctx, core.Debt{UserID: "u1", Name: "Toko A", Type: core.DebtOwed, Total: core.Money{Rupiah: 500000}})
	if err != nil {
		t.Fatal(err)
	}
	for _, amount := range []int64{100000, 150000, 250000} {
		if _, _, err := svc.RecordDebtPayment(ctx, "u1", d.ID, core.Money{Rupiah: amount}); err != nil {
			t.Fatal(err)
		}
	}

	debt, err := st.GetDebt(ctx, "u1", d.ID)
	if err != nil {
		t.Fatal(err)
	}
	txs, err := st.ListTransactions(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	var linked int64
	for _, tx := range txs {
		if tx.LinkedID == d.ID && tx.LinkedKind == core.LinkedDebt {
			linked += tx.Amount.Rupiah
		}
	}
	if linked != debt.Paid.Rupiah {
		t.Fatalf("linked entries sum %d != paid amount %d", linked, debt.Paid.Rupiah)
	}
	if !debt.IsPaid {
		t.Fatal("expected debt settled")
	}
}

func TestRecordDebtPaymentRejectsOverpayment(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	d, err := svc.CreateDebt(ctx, core.Debt{UserID: "u1", Name: "Toko A", Type: core.DebtOwed, Total: core.Money{Rupiah: 500000}})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.RecordDebtPayment(ctx, "u1", d.ID, core.Money{Rupiah: 600000}); !errors.Is(err, core.ErrOverpayment) {
		t.Fatalf("expected ErrOverpayment, got %v", err)
	}

	// Rejection left both records untouched.
	debt, _ := st.GetDebt(ctx, "u1", d.ID)
	if debt.Paid.Rupiah != 0 {
		t.Fatalf("expected paid 0, got %d", debt.Paid.Rupiah)
	}
	txs, _ := st.ListTransactions(ctx, "u1")
	if len(txs) != 0 {
		t.Fatalf("expected no ledger entries, got %d", len(txs))
	}
}

func TestRecordDebtPaymentUnknownDebt(t *testing.T) {
	svc, _ := newService(t)
	_, _, err := svc.RecordDebtPayment(context.Background(), "u1", "missing", core.Money{Rupiah: 100})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateGoalPatchValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	g, err := svc.CreateGoal(ctx, core.Goal{UserID: "u1", Name: "Liburan", Target: core.Money{Rupiah: 1000000}})
	if err != nil {
		t.Fatal(err)
	}

	empty := "  "
	if _, err := svc.UpdateGoal(ctx, "u1", g.ID, store.GoalPatch{Name: &empty}); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	bad := core.Money{Rupiah: 0}
	if _, err := svc.UpdateGoal(ctx, "u1", g.ID, store.GoalPatch{Target: &bad}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestCompoundOperationsLogStandardFields(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	g, err := svc.CreateGoal(ctx, core.Goal{UserID: "u1", Name: "Liburan", Target: core.Money{Rupiah: 1000000}})
	if err != nil {
		t.Fatal(err)
	}
	d, err := svc.CreateDebt(ctx, core.Debt{UserID: "u1", Name: "Toko A", Type: core.DebtOwed, Total: core.Money{Rupiah: 500000}})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.AdjustGoalAmount(ctx, "u1", g.ID, 200000); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.RecordDebtPayment(ctx, "u1", d.ID, core.Money{Rupiah: 100000}); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, key := range []string{
		applog.FieldComponent, applog.FieldUserID, applog.FieldTransactionID,
		applog.FieldAmountRupiah, applog.FieldCategory,
		applog.FieldGoalID, applog.FieldDebtID,
	} {
		if !strings.Contains(out, `"`+key+`"`) {
			t.Errorf("log output missing field %q:\n%s", key, out)
		}
	}
}
