package core

import "sort"

type (
	// DateRange filters transactions by occurrence date. Either bound may
	// be zero for an open end. Both bounds are inclusive: From from the
	// start of its day, To through the end of its day.
	DateRange struct {
		From Date
		To   Date
	}

	CategoryTotal struct {
		Category string
		Total    Money
	}

	// MonthlyFlow is one YYYY-MM bucket of the monthly summary series.
	MonthlyFlow struct {
		Month   string
		Income  Money
		Expense Money
	}
)

// Contains reports whether d falls inside the range, boundary-inclusive.
func (r DateRange) Contains(d Date) bool {
	if !r.From.IsZero() && d.Before(r.From.Time) {
		return false
	}
	if !r.To.IsZero() && d.After(endOfDay(r.To).Time) {
		return false
	}
	return true
}

func endOfDay(d Date) Date {
	return Date{Time: d.AddDate(0, 0, 1).Add(-1)}
}

// CategoryBreakdown sums expense amounts within the range grouped by
// category, sorted descending by total for chart legibility. Categories
// with no spending are absent.
func CategoryBreakdown(txs []Transaction, r DateRange) []CategoryTotal {
	totals := make(map[string]int64)
	for _, tx := range txs {
		if tx.Type != Expense || !r.Contains(tx.Date) {
			continue
		}
		totals[tx.Category] += tx.Amount.Rupiah
	}

	out := make([]CategoryTotal, 0, len(totals))
	for cat, total := range totals {
		if total <= 0 {
			continue
		}
		out = append(out, CategoryTotal{Category: cat, Total: Money{Rupiah: total}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Rupiah != out[j].Total.Rupiah {
			return out[i].Total.Rupiah > out[j].Total.Rupiah
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MonthlySummary buckets transactions within the range by calendar month,
// summing income and expense separately. Buckets are sorted ascending by
// key; zero-padded YYYY-MM keys make that chronological.
func MonthlySummary(txs []Transaction, r DateRange) []MonthlyFlow {
	buckets := make(map[string]*MonthlyFlow)
	for _, tx := range txs {
		if !r.Contains(tx.Date) {
			continue
		}
		key := tx.Date.MonthKey()
		b, ok := buckets[key]
		if !ok {
			b = &MonthlyFlow{Month: key}
			buckets[key] = b
		}
		switch tx.Type {
		case Income:
			b.Income.Rupiah += tx.Amount.Rupiah
		case Expense:
			b.Expense.Rupiah += tx.Amount.Rupiah
		}
	}

	out := make([]MonthlyFlow, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// NetFlow returns total income minus total expense within the range.
// May be negative.
func NetFlow(txs []Transaction, r DateRange) Money {
	var net int64
	for _, tx := range txs {
		if !r.Contains(tx.Date) {
			continue
		}
		switch tx.Type {
		case Income:
			net += tx.Amount.Rupiah
		case Expense:
			net -= tx.Amount.Rupiah
		}
	}
	return Money{Rupiah: net}
}

// TotalByType sums amounts of the given type within the range.
func TotalByType(txs []Transaction, typ TransactionType, r DateRange) Money {
	var total int64
	for _, tx := range txs {
		if tx.Type == typ && r.Contains(tx.Date) {
			total += tx.Amount.Rupiah
		}
	}
	return Money{Rupiah: total}
}
