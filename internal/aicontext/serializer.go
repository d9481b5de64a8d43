// Package aicontext flattens a mirrored snapshot into the JSON payload
// handed to an external natural-language summarization service. The
// payload is a privacy boundary: it never carries the owning user's id
// or store-internal fields, and every date becomes a plain ISO-8601
// string.
package aicontext

import (
	"encoding/json"
	"fmt"

	"dompet/internal/mirror"
)

type (
	TransactionContext struct {
		Type        string `json:"type"`
		Description string `json:"description"`
		Amount      int64  `json:"amount"`
		Category    string `json:"category"`
		Date        string `json:"date"`
	}

	GoalContext struct {
		Name     string  `json:"name"`
		Target   int64   `json:"target_amount"`
		Current  int64   `json:"current_amount"`
		Progress float64 `json:"progress_percent"`
	}

	DebtContext struct {
		Name      string `json:"name"`
		Type      string `json:"type"`
		Total     int64  `json:"total_amount"`
		Paid      int64  `json:"paid_amount"`
		Remaining int64  `json:"remaining_amount"`
		IsPaid    bool   `json:"is_paid"`
		DueDate   string `json:"due_date,omitempty"`
	}

	// Payload is the complete financial context for one user, minus
	// anything that identifies the user.
	Payload struct {
		Transactions []TransactionContext `json:"transactions"`
		Goals        []GoalContext        `json:"goals"`
		Debts        []DebtContext        `json:"debts"`
	}
)

// Build flattens snap into a Payload.
func Build(snap mirror.Snapshot) Payload {
	p := Payload{
		Transactions: make([]TransactionContext, 0, len(snap.Transactions)),
		Goals:        make([]GoalContext, 0, len(snap.Goals)),
		Debts:        make([]DebtContext, 0, len(snap.Debts)),
	}
	for _, tx := range snap.Transactions {
		p.Transactions = append(p.Transactions, TransactionContext{
			Type:        string(tx.Type),
			Description: tx.Description,
			Amount:      tx.Amount.Rupiah,
			Category:    tx.Category,
			Date:        tx.Date.ISO(),
		})
	}
	for _, g := range snap.Goals {
		p.Goals = append(p.Goals, GoalContext{
			Name:     g.Name,
			Target:   g.Target.Rupiah,
			Current:  g.Current.Rupiah,
			Progress: g.Progress(),
		})
	}
	for _, d := range snap.Debts {
		dc := DebtContext{
			Name:      d.Name,
			Type:      string(d.Type),
			Total:     d.Total.Rupiah,
			Paid:      d.Paid.Rupiah,
			Remaining: d.Remaining().Rupiah,
			IsPaid:    d.IsPaid,
		}
		if !d.DueDate.IsZero() {
			dc.DueDate = d.DueDate.ISO()
		}
		p.Debts = append(p.Debts, dc)
	}
	return p
}

// JSON renders the snapshot as the serialized context document.
func JSON(snap mirror.Snapshot) ([]byte, error) {
	b, err := json.MarshalIndent(Build(snap), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal context: %w", err)
	}
	return b, nil
}
