// Package reports assembles dashboard overviews from the mirrored
// snapshot. Results are cached per user, range, and snapshot version;
// a newer snapshot version simply stops matching the old key.
package reports

import (
	"fmt"
	"time"

	"dompet/internal/cache"
	"dompet/internal/core"
	"dompet/internal/mirror"
)

type (
	GoalStatus struct {
		Goal     core.Goal
		Progress float64 // percent, not clamped
	}

	DebtStatus struct {
		Debt      core.Debt
		Remaining core.Money
	}

	// Overview is the full dashboard payload for one date range.
	Overview struct {
		Monthly    []core.MonthlyFlow
		ByCategory []core.CategoryTotal
		Income     core.Money
		Expense    core.Money
		Net        core.Money
		Goals      []GoalStatus
		Debts      []DebtStatus
	}
)

type Service struct {
	mirror *mirror.Manager
	cache  *cache.Cache[Overview]
}

func NewService(m *mirror.Manager) *Service {
	return &Service{
		mirror: m,
		cache:  cache.New[Overview](64, 30*time.Second),
	}
}

// Overview computes (or serves from cache) the dashboard overview for the
// subscribed user and the given range.
func (s *Service) Overview(r core.DateRange) Overview {
	key := s.cacheKey(r)
	if cached, ok := s.cache.Get(key); ok {
		return cached
	}

	snap := s.mirror.Snapshot()
	o := Build(snap, r)
	s.cache.Set(key, o)
	return o
}

func (s *Service) cacheKey(r core.DateRange) string {
	from, to := "", ""
	if !r.From.IsZero() {
		from = r.From.ISO()
	}
	if !r.To.IsZero() {
		to = r.To.ISO()
	}
	return fmt.Sprintf("%s|%d|%s|%s", s.mirror.UserID(), s.mirror.Version(), from, to)
}

// Build folds a snapshot into an Overview. Pure; exported for callers
// that hold their own snapshot.
func Build(snap mirror.Snapshot, r core.DateRange) Overview {
	o := Overview{
		Monthly:    core.MonthlySummary(snap.Transactions, r),
		ByCategory: core.CategoryBreakdown(snap.Transactions, r),
		Income:     core.TotalByType(snap.Transactions, core.Income, r),
		Expense:    core.TotalByType(snap.Transactions, core.Expense, r),
		Net:        core.NetFlow(snap.Transactions, r),
	}
	for _, g := range snap.Goals {
		o.Goals = append(o.Goals, GoalStatus{Goal: g, Progress: g.Progress()})
	}
	for _, d := range snap.Debts {
		o.Debts = append(o.Debts, DebtStatus{Debt: d, Remaining: d.Remaining()})
	}
	return o
}
