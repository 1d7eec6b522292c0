package costing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tlaloc-sg/tlaloc-erp/internal/shared"
)

type memoryRepo struct {
	materials map[int64]bool
	ins       []Event
	outs      []Event
}

func (m *memoryRepo) MaterialExists(_ context.Context, id int64) (bool, error) {
	return m.materials[id], nil
}

func (m *memoryRepo) PurchaseEvents(_ context.Context, _ int64, from, to time.Time) ([]Event, error) {
	return filterEvents(m.ins, from, to), nil
}

func (m *memoryRepo) ConsumptionEvents(_ context.Context, _ int64, from, to time.Time) ([]Event, error) {
	return filterEvents(m.outs, from, to), nil
}

func filterEvents(events []Event, from, to time.Time) []Event {
	var out []Event
	for _, e := range events {
		if !from.IsZero() && e.Date.Before(from) {
			continue
		}
		if !to.IsZero() && e.Date.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func TestLedgerMergesStreams(t *testing.T) {
	repo := &memoryRepo{
		materials: map[int64]bool{1: true},
		ins: []Event{
			{Date: day(1), Kind: EventIn, Qty: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(5)},
			{Date: day(5), Kind: EventIn, Qty: decimal.NewFromInt(5), UnitCost: decimal.NewFromInt(8)},
		},
		outs: []Event{
			{Date: day(3), Kind: EventOut, Qty: decimal.NewFromInt(4)},
		},
	}
	svc := NewService(repo)

	rows, err := svc.Ledger(context.Background(), 1, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "10", rows[0].OnHand.String())
	require.Equal(t, "6", rows[1].OnHand.String())
	require.Equal(t, "11", rows[2].OnHand.String())
}

func TestLedgerRespectsRange(t *testing.T) {
	repo := &memoryRepo{
		materials: map[int64]bool{1: true},
		ins: []Event{
			{Date: day(1), Kind: EventIn, Qty: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(5)},
			{Date: day(20), Kind: EventIn, Qty: decimal.NewFromInt(2), UnitCost: decimal.NewFromInt(9)},
		},
	}
	svc := NewService(repo)

	rows, err := svc.Ledger(context.Background(), 1, day(15), time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, day(20), rows[0].Date)
}

func TestLedgerUnknownMaterial(t *testing.T) {
	svc := NewService(&memoryRepo{materials: map[int64]bool{}})

	_, err := svc.Ledger(context.Background(), 42, time.Time{}, time.Time{})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestLedgerInvalidRange(t *testing.T) {
	svc := NewService(&memoryRepo{materials: map[int64]bool{1: true}})

	_, err := svc.Ledger(context.Background(), 1, day(10), day(5))
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestLedgerInvalidMaterialID(t *testing.T) {
	svc := NewService(&memoryRepo{materials: map[int64]bool{}})

	_, err := svc.Ledger(context.Background(), 0, time.Time{}, time.Time{})
	require.Error(t, err)
}
