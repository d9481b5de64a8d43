package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"dompet/internal/aicontext"
	"dompet/internal/core"
	"dompet/internal/ledger"
	"dompet/internal/mirror"
	"dompet/internal/reports"
)

type txAddCmd struct {
	Type        string `required enum:"income,expense" help:"Transaction type [income|expense]."`
	Description string `required help:"What the money was for."`
	Amount      string `required help:"Amount in rupiah, e.g. 250000 or 1.500.000."`
	Category    string `required help:"Category from the fixed set for the type."`
	Date        string `help:"Occurrence date as YYYY-MM-DD, defaults to today."`
}

type txListCmd struct {
	From string `help:"Start date YYYY-MM-DD (inclusive)."`
	To   string `help:"End date YYYY-MM-DD (inclusive)."`
}

type txRmCmd struct {
	ID string `arg required help:"Transaction id."`
}

type goalAddCmd struct {
	Name   string `required help:"Goal name."`
	Target string `required help:"Target amount in rupiah."`
}

type goalAdjustCmd struct {
	ID     string `arg required help:"Goal id."`
	Amount string `required help:"Signed amount: positive saves into the goal, negative withdraws."`
}

type goalListCmd struct{}

type goalRmCmd struct {
	ID string `arg required help:"Goal id."`
}

type debtAddCmd struct {
	Name  string `required help:"Counterparty or debt name."`
	Type  string `required enum:"debt,receivable" help:"Debt type [debt|receivable]."`
	Total string `required help:"Total amount in rupiah."`
	Due   string `help:"Optional due date YYYY-MM-DD."`
}

type debtPayCmd struct {
	ID     string `arg required help:"Debt id."`
	Amount string `required help:"Payment amount in rupiah."`
}

type debtListCmd struct{}

type debtRmCmd struct {
	ID string `arg required help:"Debt id."`
}

type summaryCmd struct {
	From string `help:"Start date YYYY-MM-DD (inclusive)."`
	To   string `help:"End date YYYY-MM-DD (inclusive)."`
}

type contextCmd struct{}

func (a *appContext) ledger() *ledger.Service {
	return ledger.NewService(a.result.Store)
}

func parseDateFlag(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return core.DateOf(t), nil
}

func parseRange(from, to string) (core.DateRange, error) {
	f, err := parseDateFlag(from)
	if err != nil {
		return core.DateRange{}, err
	}
	t, err := parseDateFlag(to)
	if err != nil {
		return core.DateRange{}, err
	}
	return core.DateRange{From: f, To: t}, nil
}

func parseMoney(s string) (core.Money, error) {
	rupiah, err := core.ParseAmount(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Rupiah: rupiah}, nil
}

func (c *txAddCmd) Run(a *appContext) error {
	amount, err := parseMoney(c.Amount)
	if err != nil {
		return err
	}
	date := core.Today()
	if c.Date != "" {
		if date, err = parseDateFlag(c.Date); err != nil {
			return err
		}
	}

	tx, err := a.ledger().CreateTransaction(context.Background(), core.Transaction{
		UserID:      a.User,
		Type:        core.TransactionType(c.Type),
		Description: c.Description,
		Amount:      amount,
		Category:    c.Category,
		Date:        date,
	})
	if err != nil {
		return err
	}
	fmt.Printf("recorded %s %s (%s) as %s\n", tx.Type, tx.Amount, tx.Category, tx.ID)
	return nil
}

func (c *txListCmd) Run(a *appContext) error {
	r, err := parseRange(c.From, c.To)
	if err != nil {
		return err
	}
	txs, err := a.result.Store.ListTransactions(context.Background(), a.User)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, tx := range txs {
		if !r.Contains(tx.Date) {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Date.ISO(), tx.Type, tx.Category, tx.Amount, tx.Description)
	}
	return w.Flush()
}

func (c *txRmCmd) Run(a *appContext) error {
	return a.ledger().DeleteTransaction(context.Background(), a.User, c.ID)
}

func (c *goalAddCmd) Run(a *appContext) error {
	target, err := parseMoney(c.Target)
	if err != nil {
		return err
	}
	g, err := a.ledger().CreateGoal(context.Background(), core.Goal{
		UserID: a.User,
		Name:   c.Name,
		Target: target,
	})
	if err != nil {
		return err
	}
	fmt.Printf("created goal %q with target %s as %s\n", g.Name, g.Target, g.ID)
	return nil
}

func (c *goalAdjustCmd) Run(a *appContext) error {
	delta, err := core.ParseAmount(c.Amount)
	if err != nil {
		// Allow a leading minus for withdrawals.
		if len(c.Amount) > 1 && c.Amount[0] == '-' {
			abs, absErr := core.ParseAmount(c.Amount[1:])
			if absErr != nil {
				return absErr
			}
			delta = -abs
		} else {
			return err
		}
	}

	g, tx, err := a.ledger().AdjustGoalAmount(context.Background(), a.User, c.ID, delta)
	if err != nil {
		return err
	}
	fmt.Printf("goal %q now at %s of %s (%.1f%%), ledger entry %s\n",
		g.Name, g.Current, g.Target, g.Progress(), tx.ID)
	return nil
}

func (c *goalListCmd) Run(a *appContext) error {
	goals, err := a.result.Store.ListGoals(context.Background(), a.User)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCURRENT\tTARGET\tPROGRESS")
	for _, g := range goals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f%%\n", g.ID, g.Name, g.Current, g.Target, g.Progress())
	}
	return w.Flush()
}

func (c *goalRmCmd) Run(a *appContext) error {
	return a.ledger().DeleteGoal(context.Background(), a.User, c.ID)
}

func (c *debtAddCmd) Run(a *appContext) error {
	total, err := parseMoney(c.Total)
	if err != nil {
		return err
	}
	due, err := parseDateFlag(c.Due)
	if err != nil {
		return err
	}
	d, err := a.ledger().CreateDebt(context.Background(), core.Debt{
		UserID:  a.User,
		Name:    c.Name,
		Type:    core.DebtType(c.Type),
		Total:   total,
		DueDate: due,
	})
	if err != nil {
		return err
	}
	fmt.Printf("registered %s %q of %s as %s\n", d.Type, d.Name, d.Total, d.ID)
	return nil
}

func (c *debtPayCmd) Run(a *appContext) error {
	amount, err := parseMoney(c.Amount)
	if err != nil {
		return err
	}
	d, tx, err := a.ledger().RecordDebtPayment(context.Background(), a.User, c.ID, amount)
	if err != nil {
		return err
	}
	status := "open"
	if d.IsPaid {
		status = "paid off"
	}
	fmt.Printf("debt %q: paid %s of %s (%s), ledger entry %s\n",
		d.Name, d.Paid, d.Total, status, tx.ID)
	return nil
}

func (c *debtListCmd) Run(a *appContext) error {
	debts, err := a.result.Store.ListDebts(context.Background(), a.User)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tPAID\tTOTAL\tREMAINING\tDUE")
	for _, d := range debts {
		due := "-"
		if !d.DueDate.IsZero() {
			due = d.DueDate.ISO()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.Name, d.Type, d.Paid, d.Total, d.Remaining(), due)
	}
	return w.Flush()
}

func (c *debtRmCmd) Run(a *appContext) error {
	return a.ledger().DeleteDebt(context.Background(), a.User, c.ID)
}

func (c *summaryCmd) Run(a *appContext) error {
	r, err := parseRange(c.From, c.To)
	if err != nil {
		return err
	}

	snap, cancel, err := loadSnapshot(a)
	if err != nil {
		return err
	}
	defer cancel()

	o := reports.Build(snap, r)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MONTH\tINCOME\tEXPENSE")
	for _, m := range o.Monthly {
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.Month, m.Income, m.Expense)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nincome %s, expense %s, net %s\n", o.Income, o.Expense, o.Net)

	if len(o.ByCategory) > 0 {
		fmt.Println("\nspending by category:")
		for _, ct := range o.ByCategory {
			fmt.Printf("  %s\t%s\n", ct.Category, ct.Total)
		}
	}
	return nil
}

func (c *contextCmd) Run(a *appContext) error {
	snap, cancel, err := loadSnapshot(a)
	if err != nil {
		return err
	}
	defer cancel()

	b, err := aicontext.JSON(snap)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

// loadSnapshot subscribes a one-shot mirror for the CLI user and
// returns the loaded snapshot.
func loadSnapshot(a *appContext) (mirror.Snapshot, func(), error) {
	manager := mirror.NewManager(a.result.Store)
	cancel, err := manager.Subscribe(context.Background(), a.User)
	if err != nil {
		return mirror.Snapshot{}, nil, fmt.Errorf("subscribe %s: %w", a.User, err)
	}
	return manager.Snapshot(), cancel, nil
}
