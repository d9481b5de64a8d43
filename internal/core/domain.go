package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	DebtOwed   DebtType = "debt"
	Receivable DebtType = "receivable"

	LinkedGoal LinkedKind = "goal"
	LinkedDebt LinkedKind = "debt"
)

// Categories written by the balance-adjustment operations.
const (
	CategorySaving            = "Tabungan"
	CategoryGoalWithdrawal    = "Penarikan Tabungan"
	CategoryDebtPayment       = "Pembayaran Hutang"
	CategoryReceivablePayment = "Penerimaan Piutang"
)

type (
	TransactionType string

	DebtType string

	// LinkedKind identifies the record a transaction was generated by.
	// Empty for manually entered transactions.
	LinkedKind string

	Date struct {
		time.Time
	}

	// Transaction is an immutable-once-created financial event. Amount is
	// always positive; Type decides whether it counts as inflow or outflow.
	Transaction struct {
		ID          string
		UserID      string
		Type        TransactionType
		Description string
		Amount      Money
		Category    string
		Date        Date      // occurrence date, distinct from CreatedAt
		CreatedAt   time.Time // store-assigned
		LinkedID    string
		LinkedKind  LinkedKind
	}

	// Goal is a savings target. Current only ever changes through an
	// AdjustGoal operation, which also appends the linked transaction.
	Goal struct {
		ID        string
		UserID    string
		Name      string
		Target    Money
		Current   Money // >= 0, may exceed Target
		CreatedAt time.Time
	}

	// Debt is a liability (DebtOwed) or a receivable. Paid only ever
	// changes through a PayDebt operation.
	Debt struct {
		ID        string
		UserID    string
		Name      string
		Type      DebtType
		Total     Money
		Paid      Money // 0 <= Paid <= Total
		IsPaid    bool
		DueDate   Date // optional, zero when unset
		CreatedAt time.Time
	}
)

// IncomeCategories and ExpenseCategories are the fixed category sets.
// A transaction's category must belong to the set matching its type.
var (
	IncomeCategories = []string{
		"Gaji",
		"Bonus",
		"Usaha",
		"Investasi",
		"Hadiah",
		CategoryGoalWithdrawal,
		CategoryReceivablePayment,
		"Lainnya",
	}

	ExpenseCategories = []string{
		"Makanan & Minuman",
		"Transportasi",
		"Belanja",
		"Tagihan",
		"Hiburan",
		"Kesehatan",
		"Pendidikan",
		CategorySaving,
		CategoryDebtPayment,
		"Lainnya",
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidCategory   = errors.New("category does not match transaction type")
	ErrInvalidDate       = errors.New("invalid date")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyName         = errors.New("empty name")
	ErrEmptyUser         = errors.New("empty user id")
	ErrInvalidDebtType   = errors.New("invalid debt type")
	ErrOverpayment       = errors.New("payment exceeds remaining debt")
	ErrInsufficientFunds = errors.New("withdrawal exceeds goal balance")
)

// NewDate creates a Date normalized to midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Today returns the current calendar date in UTC.
func Today() Date {
	return DateOf(time.Now().UTC())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MonthKey returns the zero-padded YYYY-MM bucket key, which sorts
// lexicographically in chronological order.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// ISO returns the date as an ISO-8601 calendar date string.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t DebtType) Valid() bool {
	return t == DebtOwed || t == Receivable
}

// ValidCategory reports whether category belongs to the set for typ.
func ValidCategory(typ TransactionType, category string) bool {
	var set []string
	switch typ {
	case Income:
		set = IncomeCategories
	case Expense:
		set = ExpenseCategories
	default:
		return false
	}
	for _, c := range set {
		if c == category {
			return true
		}
	}
	return false
}

func (tx Transaction) Validate() error {
	if strings.TrimSpace(tx.UserID) == "" {
		return ErrEmptyUser
	}
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	if len(strings.TrimSpace(tx.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(tx.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if !ValidCategory(tx.Type, tx.Category) {
		return ErrInvalidCategory
	}
	return tx.Date.Validate()
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Current.Rupiah < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Progress returns the saved share of the target as a percentage.
// Not clamped: a goal past its target reports more than 100.
func (g Goal) Progress() float64 {
	if g.Target.Rupiah <= 0 {
		return 0
	}
	return float64(g.Current.Rupiah) / float64(g.Target.Rupiah) * 100
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if !d.Type.Valid() {
		return ErrInvalidDebtType
	}
	if err := d.Total.Validate(); err != nil {
		return err
	}
	if d.Paid.Rupiah < 0 {
		return ErrInvalidAmount
	}
	if d.Paid.Rupiah > d.Total.Rupiah {
		return ErrOverpayment
	}
	return nil
}

// Remaining returns the unpaid balance.
func (d Debt) Remaining() Money {
	return Money{Rupiah: d.Total.Rupiah - d.Paid.Rupiah}
}
