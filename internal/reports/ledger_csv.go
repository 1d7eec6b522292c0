package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/tlaloc-sg/tlaloc-erp/internal/costing"
)

// LedgerCSV renders a material cost ledger as CSV. The average cost column
// is blank on consumption rows, matching the ledger itself.
func LedgerCSV(rows []costing.Row) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"date", "qty_in", "qty_out", "on_hand", "unit_cost", "avg_cost", "debit", "credit", "balance_value"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("reports: write csv header: %w", err)
	}

	for _, r := range rows {
		avg := ""
		if r.AvgCost != nil {
			avg = r.AvgCost.StringFixed(4)
		}
		record := []string{
			r.Date.Format("2006-01-02"),
			r.QtyIn.String(),
			r.QtyOut.String(),
			r.OnHand.String(),
			r.UnitCost.StringFixed(2),
			avg,
			r.Debit.StringFixed(2),
			r.Credit.StringFixed(2),
			r.BalanceValue.StringFixed(2),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("reports: write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("reports: flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
