package core

import (
	"errors"
	"testing"
	"time"
)

func validTransaction() Transaction {
	return Transaction{
		UserID:      "u1",
		Type:        Expense,
		Description: "nasi goreng",
		Amount:      Money{Rupiah: 25000},
		Category:    "Makanan & Minuman",
		Date:        NewDate(2024, 1, 10),
	}
}

func TestTransactionValidate(t *testing.T) {
	if err := validTransaction().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"empty user", func(tx *Transaction) { tx.UserID = " " }, ErrEmptyUser},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"empty description", func(tx *Transaction) { tx.Description = "  " }, ErrEmptyDescription},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = Money{Rupiah: -100} }, ErrInvalidAmount},
		{"category from wrong set", func(tx *Transaction) { tx.Category = "Gaji" }, ErrInvalidCategory},
		{"unknown category", func(tx *Transaction) { tx.Category = "Misc" }, ErrInvalidCategory},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := validTransaction()
			tc.mutate(&tx)
			if err := tx.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestValidCategory(t *testing.T) {
	if !ValidCategory(Income, "Gaji") {
		t.Fatal("Gaji should be a valid income category")
	}
	if ValidCategory(Expense, "Gaji") {
		t.Fatal("Gaji should not be a valid expense category")
	}
	if !ValidCategory(Expense, CategoryDebtPayment) {
		t.Fatal("debt payment should be a valid expense category")
	}
	if ValidCategory("transfer", "Gaji") {
		t.Fatal("invalid type should match nothing")
	}
}

func TestGoalValidate(t *testing.T) {
	good := Goal{UserID: "u1", Name: "Liburan", Target: Money{Rupiah: 1000000}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Goal{
		{UserID: "", Name: "x", Target: Money{Rupiah: 1}},
		{UserID: "u1", Name: " ", Target: Money{Rupiah: 1}},
		{UserID: "u1", Name: "x", Target: Money{Rupiah: 0}},
		{UserID: "u1", Name: "x", Target: Money{Rupiah: 1}, Current: Money{Rupiah: -1}},
	}
	for i, g := range bads {
		if err := g.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestGoalProgress(t *testing.T) {
	g := Goal{Target: Money{Rupiah: 1000000}, Current: Money{Rupiah: 200000}}
	if got := g.Progress(); got != 20.0 {
		t.Fatalf("expected 20.0, got %v", got)
	}
	// Past the target is legitimate and not clamped
	g.Current = Money{Rupiah: 1500000}
	if got := g.Progress(); got != 150.0 {
		t.Fatalf("expected 150.0, got %v", got)
	}
	if got := (Goal{}).Progress(); got != 0 {
		t.Fatalf("expected 0 for zero target, got %v", got)
	}
}

func TestDebtValidate(t *testing.T) {
	good := Debt{UserID: "u1", Name: "Toko A", Type: DebtOwed, Total: Money{Rupiah: 500000}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	over := good
	over.Paid = Money{Rupiah: 600000}
	if err := over.Validate(); !errors.Is(err, ErrOverpayment) {
		t.Fatalf("expected ErrOverpayment, got %v", err)
	}

	badType := good
	badType.Type = "loan"
	if err := badType.Validate(); !errors.Is(err, ErrInvalidDebtType) {
		t.Fatalf("expected ErrInvalidDebtType, got %v", err)
	}
}

func TestDebtRemaining(t *testing.T) {
	d := Debt{Total: Money{Rupiah: 500000}, Paid: Money{Rupiah: 200000}}
	if got := d.Remaining(); got.Rupiah != 300000 {
		t.Fatalf("expected 300000, got %d", got.Rupiah)
	}
}

func TestDateMonthKey(t *testing.T) {
	if got := NewDate(2024, 1, 5).MonthKey(); got != "2024-01" {
		t.Fatalf("expected 2024-01, got %s", got)
	}
	if got := NewDate(2024, 12, 31).MonthKey(); got != "2024-12" {
		t.Fatalf("expected 2024-12, got %s", got)
	}
}

func TestDateOf(t *testing.T) {
	ts := time.Date(2024, 3, 7, 15, 42, 1, 0, time.UTC)
	d := DateOf(ts)
	if d.ISO() != "2024-03-07" {
		t.Fatalf("expected 2024-03-07, got %s", d.ISO())
	}
	if d.Hour() != 0 || d.Minute() != 0 {
		t.Fatal("occurrence dates must be normalized to midnight")
	}
}
