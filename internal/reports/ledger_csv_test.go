package reports

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tlaloc-sg/tlaloc-erp/internal/costing"
)

func TestLedgerCSV(t *testing.T) {
	avg := decimal.NewFromInt(5)
	rows := []costing.Row{
		{
			Date:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			QtyIn:        decimal.NewFromInt(10),
			OnHand:       decimal.NewFromInt(10),
			UnitCost:     decimal.NewFromInt(5),
			AvgCost:      &avg,
			Debit:        decimal.NewFromInt(50),
			BalanceValue: decimal.NewFromInt(50),
		},
		{
			Date:         time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
			QtyOut:       decimal.NewFromInt(4),
			OnHand:       decimal.NewFromInt(6),
			UnitCost:     decimal.NewFromInt(5),
			Credit:       decimal.NewFromInt(20),
			BalanceValue: decimal.NewFromInt(30),
		},
	}

	out, err := LedgerCSV(rows)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "date,qty_in,qty_out,on_hand,unit_cost,avg_cost,debit,credit,balance_value", lines[0])
	require.Equal(t, "2025-01-01,10,0,10,5.00,5.0000,50.00,0.00,50.00", lines[1])
	// consumption rows leave avg_cost blank
	require.Equal(t, "2025-01-03,0,4,6,5.00,,0.00,20.00,30.00", lines[2])
}

func TestLedgerCSVEmpty(t *testing.T) {
	out, err := LedgerCSV(nil)
	require.NoError(t, err)
	require.Equal(t, "date,qty_in,qty_out,on_hand,unit_cost,avg_cost,debit,credit,balance_value\n", string(out))
}
