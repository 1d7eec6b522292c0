package orders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tlaloc-sg/tlaloc-erp/internal/quotes"
	"github.com/tlaloc-sg/tlaloc-erp/internal/shared"
)

type memoryRepo struct {
	nextID int64
	orders map[int64]*Order
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, orders: map[int64]*Order{}}
}

func (m *memoryRepo) Create(_ context.Context, o Order) (int64, error) {
	o.ID = m.nextID
	m.nextID++
	m.orders[o.ID] = &o
	return o.ID, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *o
	return &copied, nil
}

func (m *memoryRepo) List(_ context.Context, customerID int64, status *OrderStatus, _, _ int) ([]Order, int, error) {
	var out []Order
	for _, o := range m.orders {
		if customerID != 0 && o.CustomerID != customerID {
			continue
		}
		if status != nil && o.Status != *status {
			continue
		}
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (m *memoryRepo) UpdateStatus(_ context.Context, id int64, status OrderStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return shared.ErrNotFound
	}
	o.Status = status
	return nil
}

type stubQuotes struct {
	quote *quotes.Quote
}

func (s stubQuotes) Get(_ context.Context, id int64) (*quotes.Quote, error) {
	if s.quote == nil || s.quote.ID != id {
		return nil, shared.ErrNotFound
	}
	copied := *s.quote
	return &copied, nil
}

func approvedQuote(validUntil time.Time) *quotes.Quote {
	return &quotes.Quote{
		ID:         3,
		CustomerID: 7,
		Status:     quotes.QuoteStatusApproved,
		ValidUntil: &validUntil,
		GrandTotal: decimal.RequireFromString("11771.00"),
		Lines: []quotes.QuoteLine{
			{ProductID: 1, Quantity: decimal.NewFromInt(4), UnitPrice: decimal.NewFromInt(1200)},
			{ProductID: 2, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("85.50")},
		},
	}
}

func newTestService(q *quotes.Quote) (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	svc := NewService(repo, stubQuotes{quote: q})
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestCreateFromQuoteCarriesFrozenPrices(t *testing.T) {
	svc, _ := newTestService(approvedQuote(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))

	order, err := svc.CreateFromQuote(context.Background(), 7, 3)
	require.NoError(t, err)
	require.Equal(t, OrderStatusPending, order.Status)
	require.Equal(t, "11771", order.Total.String())
	require.Len(t, order.Lines, 2)
	require.Equal(t, "1200", order.Lines[0].UnitPrice.String())
	require.NotNil(t, order.QuoteID)
	require.Equal(t, int64(3), *order.QuoteID)
}

func TestCreateFromQuoteRejectsForeignQuote(t *testing.T) {
	svc, _ := newTestService(approvedQuote(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))

	_, err := svc.CreateFromQuote(context.Background(), 99, 3)
	require.ErrorIs(t, err, ErrInvalidOrder)
}

func TestCreateFromQuoteRejectsDraft(t *testing.T) {
	q := approvedQuote(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	q.Status = quotes.QuoteStatusDraft
	svc, _ := newTestService(q)

	_, err := svc.CreateFromQuote(context.Background(), 7, 3)
	require.ErrorIs(t, err, ErrQuoteNotApproved)
}

func TestCreateFromQuoteRejectsExpired(t *testing.T) {
	svc, _ := newTestService(approvedQuote(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)))

	_, err := svc.CreateFromQuote(context.Background(), 7, 3)
	require.ErrorIs(t, err, ErrQuoteNotApproved)
}

func TestTransitionLifecycle(t *testing.T) {
	svc, _ := newTestService(approvedQuote(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))

	order, err := svc.CreateFromQuote(context.Background(), 7, 3)
	require.NoError(t, err)

	for _, next := range []OrderStatus{OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered} {
		order, err = svc.Transition(context.Background(), order.ID, next)
		require.NoError(t, err)
		require.Equal(t, next, order.Status)
	}

	_, err = svc.Transition(context.Background(), order.ID, OrderStatusCancelled)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelAfterShipForbidden(t *testing.T) {
	svc, _ := newTestService(approvedQuote(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))

	order, err := svc.CreateFromQuote(context.Background(), 7, 3)
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), order.ID, OrderStatusPaid)
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), order.ID, OrderStatusShipped)
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), order.ID, OrderStatusCancelled)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDirectOrderDerivesTotal(t *testing.T) {
	svc, _ := newTestService(nil)

	order, err := svc.Create(context.Background(), 7, []OrderLine{
		{ProductID: 1, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("10.555")},
	})
	require.NoError(t, err)
	require.Equal(t, "21.11", order.Total.String())
}

func TestTransitionSkipForbidden(t *testing.T) {
	svc, _ := newTestService(approvedQuote(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))

	order, err := svc.CreateFromQuote(context.Background(), 7, 3)
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), order.ID, OrderStatusDelivered)
	require.ErrorIs(t, err, ErrInvalidTransition)
}
