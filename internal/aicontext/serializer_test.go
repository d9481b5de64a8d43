package aicontext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dompet/internal/core"
	"dompet/internal/mirror"
)

func sampleSnapshot() mirror.Snapshot {
	return mirror.Snapshot{
		Transactions: []core.Transaction{
			{
				ID: "tx-1", UserID: "user-secret", Type: core.Income,
				Description: "gaji bulanan", Amount: core.Money{Rupiah: 1000000},
				Category: "Gaji", Date: core.NewDate(2024, 1, 5),
			},
		},
		Goals: []core.Goal{
			{
				ID: "g-1", UserID: "user-secret", Name: "Liburan",
				Target: core.Money{Rupiah: 1000000}, Current: core.Money{Rupiah: 200000},
			},
		},
		Debts: []core.Debt{
			{
				ID: "d-1", UserID: "user-secret", Name: "Toko A",
				Type: core.DebtOwed, Total: core.Money{Rupiah: 500000},
				Paid: core.Money{Rupiah: 100000}, DueDate: core.NewDate(2024, 6, 1),
			},
		},
	}
}

func TestBuildFlattensSnapshot(t *testing.T) {
	p := Build(sampleSnapshot())

	require.Len(t, p.Transactions, 1)
	assert.Equal(t, "income", p.Transactions[0].Type)
	assert.Equal(t, "2024-01-05", p.Transactions[0].Date)
	assert.Equal(t, int64(1000000), p.Transactions[0].Amount)

	require.Len(t, p.Goals, 1)
	assert.Equal(t, 20.0, p.Goals[0].Progress)

	require.Len(t, p.Debts, 1)
	assert.Equal(t, int64(400000), p.Debts[0].Remaining)
	assert.Equal(t, "2024-06-01", p.Debts[0].DueDate)
}

func TestJSONOmitsUserAndInternalFields(t *testing.T) {
	b, err := JSON(sampleSnapshot())
	require.NoError(t, err)

	s := string(b)
	assert.NotContains(t, s, "user-secret")
	assert.NotContains(t, s, "user_id")
	assert.NotContains(t, s, "tx-1")
	assert.NotContains(t, s, "created_at")
}

func TestJSONEmptySnapshot(t *testing.T) {
	b, err := JSON(mirror.Snapshot{})
	require.NoError(t, err)
	// Empty collections stay arrays, not nulls; the summarizer should
	// never have to null-check.
	assert.False(t, strings.Contains(string(b), "null"))
}

func TestDebtWithoutDueDate(t *testing.T) {
	snap := mirror.Snapshot{Debts: []core.Debt{{
		Name: "Budi", Type: core.Receivable,
		Total: core.Money{Rupiah: 50000},
	}}}
	b, err := JSON(snap)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "due_date")
}
