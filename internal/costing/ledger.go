// Package costing computes moving-average inventory cost ledgers for
// materials. Purchases feed the IN stream; sales orders expanded through
// the product bill of materials feed the OUT stream.
package costing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// EventKind tags a ledger event as stock-in or stock-out.
type EventKind string

const (
	// EventIn is a purchase receipt carrying a unit cost.
	EventIn EventKind = "IN"
	// EventOut is a consumption derived from a sales order.
	EventOut EventKind = "OUT"
)

// Event is one stock movement for a single material. UnitCost is only
// meaningful on IN events; OUT events are costed at the running average.
type Event struct {
	Date     time.Time
	Kind     EventKind
	Qty      decimal.Decimal
	UnitCost decimal.Decimal
}

// Row is one line of the computed ledger.
type Row struct {
	Date   time.Time       `json:"date"`
	QtyIn  decimal.Decimal `json:"qty_in"`
	QtyOut decimal.Decimal `json:"qty_out"`
	OnHand decimal.Decimal `json:"on_hand"`
	// UnitCost is the purchase cost on IN rows and the imputed cost of the
	// most recent purchase on OUT rows.
	UnitCost decimal.Decimal `json:"unit_cost"`
	// AvgCost is populated on IN rows only; OUT rows leave it null.
	AvgCost      *decimal.Decimal `json:"avg_cost,omitempty"`
	Debit        decimal.Decimal  `json:"debit"`
	Credit       decimal.Decimal  `json:"credit"`
	BalanceValue decimal.Decimal  `json:"balance_value"`
}

// ComputeLedger runs the moving-average valuation over the merged event
// stream. Events are sorted by date with a stable sort, so passing all IN
// events ahead of all OUT events fixes the same-day tie order to IN first.
//
// The average-cost policy matches the historical report: the average resets
// to the latest purchase price whenever it changes, rather than blending
// open lots by weight. On-hand may go negative when consumption outruns
// recorded purchases; that is surfaced, not rejected.
func ComputeLedger(events []Event) []Row {
	merged := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Kind == EventIn {
			merged = append(merged, e)
		}
	}
	for _, e := range events {
		if e.Kind == EventOut {
			merged = append(merged, e)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})

	onHand := decimal.Zero
	avgCost := decimal.Zero
	balance := decimal.Zero
	var lastInCost *decimal.Decimal

	rows := make([]Row, 0, len(merged))
	for _, e := range merged {
		row := Row{Date: e.Date}
		switch e.Kind {
		case EventIn:
			onHand = onHand.Add(e.Qty)
			debit := e.Qty.Mul(e.UnitCost)
			balance = balance.Add(debit)
			if lastInCost == nil || !lastInCost.Equal(e.UnitCost) {
				avgCost = e.UnitCost
				cost := e.UnitCost
				lastInCost = &cost
			}
			avg := avgCost
			row.QtyIn = e.Qty
			row.QtyOut = decimal.Zero
			row.UnitCost = e.UnitCost
			row.AvgCost = &avg
			row.Debit = debit
			row.Credit = decimal.Zero
		case EventOut:
			onHand = onHand.Sub(e.Qty)
			credit := e.Qty.Mul(avgCost)
			balance = balance.Sub(credit)
			row.QtyIn = decimal.Zero
			row.QtyOut = e.Qty
			if lastInCost != nil {
				row.UnitCost = *lastInCost
			} else {
				row.UnitCost = decimal.Zero
			}
			row.Debit = decimal.Zero
			row.Credit = credit
		default:
			continue
		}
		row.OnHand = onHand
		row.BalanceValue = balance
		rows = append(rows, row)
	}
	return rows
}
