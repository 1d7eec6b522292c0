package quotes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tlaloc-sg/tlaloc-erp/internal/pricing"
	"github.com/tlaloc-sg/tlaloc-erp/internal/shared"
)

type memoryRepo struct {
	nextID int64
	quotes map[int64]*Quote
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, quotes: map[int64]*Quote{}}
}

func (m *memoryRepo) Create(_ context.Context, quote Quote) (int64, error) {
	id := m.nextID
	m.nextID++
	quote.ID = id
	for i := range quote.Lines {
		quote.Lines[i].QuoteID = id
	}
	m.quotes[id] = &quote
	return id, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (*Quote, error) {
	quote, ok := m.quotes[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *quote
	copied.Lines = append([]QuoteLine(nil), quote.Lines...)
	return &copied, nil
}

func (m *memoryRepo) List(_ context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	var out []Quote
	for _, q := range m.quotes {
		if req.CustomerID != 0 && q.CustomerID != req.CustomerID {
			continue
		}
		if req.Status != nil && q.Status != *req.Status {
			continue
		}
		out = append(out, *q)
	}
	return out, len(out), nil
}

func (m *memoryRepo) SaveOptions(_ context.Context, id int64, opts pricing.Options, b pricing.Breakdown) error {
	quote, ok := m.quotes[id]
	if !ok {
		return shared.ErrNotFound
	}
	f := opts.Fulfillment
	quote.Fulfillment = &f
	quote.RegionCode = nil
	if opts.RegionCode != "" {
		region := opts.RegionCode
		quote.RegionCode = &region
	}
	quote.ManualDistanceKm = opts.ManualDistanceKm
	applyBreakdown(quote, b)
	return nil
}

func (m *memoryRepo) Approve(_ context.Context, id int64, validUntil time.Time, linePrices map[int64]decimal.Decimal, b pricing.Breakdown) error {
	quote, ok := m.quotes[id]
	if !ok {
		return shared.ErrNotFound
	}
	quote.Status = QuoteStatusApproved
	quote.ValidUntil = &validUntil
	for i := range quote.Lines {
		quote.Lines[i].UnitPrice = linePrices[quote.Lines[i].ProductID]
	}
	applyBreakdown(quote, b)
	return nil
}

func (m *memoryRepo) UpdateStatus(_ context.Context, id int64, status QuoteStatus) error {
	quote, ok := m.quotes[id]
	if !ok {
		return shared.ErrNotFound
	}
	quote.Status = status
	return nil
}

func applyBreakdown(q *Quote, b pricing.Breakdown) {
	q.ProductsSubtotal = b.Products
	q.InstallBase = b.InstallBase
	q.TransportCost = b.Transport
	q.ShippingCost = b.Shipping
	q.GrandTotal = b.GrandTotal
}

type memoryCatalog struct {
	prices map[int64]decimal.Decimal
}

func (m *memoryCatalog) BasePrices(_ context.Context, ids []int64) (map[int64]decimal.Decimal, error) {
	out := make(map[int64]decimal.Decimal, len(ids))
	for _, id := range ids {
		if price, ok := m.prices[id]; ok {
			out[id] = price
		}
	}
	return out, nil
}

type memoryRates struct {
	table pricing.RateTable
}

func (m *memoryRates) Snapshot(context.Context) (pricing.RateTable, error) {
	return m.table, nil
}

func openMax() *int64 { return nil }

func testRateTable() pricing.RateTable {
	five := int64(5)
	return pricing.RateTable{
		HomeRegion: "GTO",
		Regions: map[string]pricing.RegionRate{
			"GTO": {Code: "GTO"},
			"QRO": {
				Code:           "QRO",
				DistanceKm:     decimal.NewFromInt(130),
				ShipPerKm:      decimal.RequireFromString("3.5"),
				TransportPerKm: decimal.NewFromInt(10),
			},
		},
		Tiers: []pricing.InstallTier{
			{MinQty: 1, MaxQty: &five, BaseCost: decimal.NewFromInt(3000)},
			{MinQty: 6, MaxQty: openMax(), BaseCost: decimal.NewFromInt(5500)},
		},
	}
}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	catalog := &memoryCatalog{prices: map[int64]decimal.Decimal{
		1: decimal.RequireFromString("1200.00"),
		2: decimal.RequireFromString("85.50"),
	}}
	svc := NewService(repo, catalog, &memoryRates{table: testRateTable()})
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func createDraft(t *testing.T, svc *Service) *Quote {
	t.Helper()
	quote, err := svc.Create(context.Background(), 7, CreateQuoteRequest{
		Lines: []CreateQuoteLine{
			{ProductID: 1, Quantity: decimal.NewFromInt(4)},
			{ProductID: 2, Quantity: decimal.NewFromInt(2)},
		},
	})
	require.NoError(t, err)
	return quote
}

func TestCreateDraftLeavesPricesUnstamped(t *testing.T) {
	svc, _ := newTestService()
	quote := createDraft(t, svc)

	require.Equal(t, QuoteStatusDraft, quote.Status)
	require.Len(t, quote.Lines, 2)
	for _, line := range quote.Lines {
		require.True(t, line.UnitPrice.IsZero())
	}
}

func TestCreateRejectsUnknownProduct(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), 7, CreateQuoteRequest{
		Lines: []CreateQuoteLine{{ProductID: 99, Quantity: decimal.NewFromInt(1)}},
	})
	require.ErrorIs(t, err, ErrUnknownProduct)
}

func TestSetOptionsCachesBreakdown(t *testing.T) {
	svc, repo := newTestService()
	quote := createDraft(t, svc)

	breakdown, err := svc.SetOptions(context.Background(), quote.ID, pricing.Options{
		Fulfillment: pricing.FulfillmentInstallation,
		RegionCode:  "QRO",
	})
	require.NoError(t, err)

	// 4*1200 + 2*85.50 = 4971, tier for 6 units = 5500, 130km * 10 = 1300
	require.Equal(t, "4971", breakdown.Products.String())
	require.Equal(t, "5500", breakdown.InstallBase.String())
	require.Equal(t, "1300", breakdown.Transport.String())
	require.Equal(t, "11771", breakdown.GrandTotal.String())

	stored, err := repo.Get(context.Background(), quote.ID)
	require.NoError(t, err)
	require.Equal(t, "11771", stored.GrandTotal.String())
	require.NotNil(t, stored.Fulfillment)
	require.Equal(t, pricing.FulfillmentInstallation, *stored.Fulfillment)
}

func TestSetOptionsStoresCanonicalRegionCode(t *testing.T) {
	svc, repo := newTestService()
	quote := createDraft(t, svc)

	breakdown, err := svc.SetOptions(context.Background(), quote.ID, pricing.Options{
		Fulfillment: pricing.FulfillmentInstallation,
		RegionCode:  " qro ",
	})
	require.NoError(t, err)
	require.Equal(t, "11771", breakdown.GrandTotal.String())

	stored, err := repo.Get(context.Background(), quote.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RegionCode)
	require.Equal(t, "QRO", *stored.RegionCode)
}

func TestSetOptionsLastWriteWins(t *testing.T) {
	svc, repo := newTestService()
	quote := createDraft(t, svc)

	_, err := svc.SetOptions(context.Background(), quote.ID, pricing.Options{
		Fulfillment: pricing.FulfillmentInstallation,
		RegionCode:  "QRO",
	})
	require.NoError(t, err)

	breakdown, err := svc.SetOptions(context.Background(), quote.ID, pricing.Options{
		Fulfillment: pricing.FulfillmentDevicesOnly,
	})
	require.NoError(t, err)
	require.True(t, breakdown.InstallBase.IsZero())
	require.True(t, breakdown.Transport.IsZero())

	stored, err := repo.Get(context.Background(), quote.ID)
	require.NoError(t, err)
	require.Equal(t, "4971", stored.GrandTotal.String())
	require.Equal(t, pricing.FulfillmentDevicesOnly, *stored.Fulfillment)
}

func TestPreviewDoesNotPersist(t *testing.T) {
	svc, repo := newTestService()
	quote := createDraft(t, svc)

	_, err := svc.Preview(context.Background(), quote.ID, pricing.Options{
		Fulfillment: pricing.FulfillmentShipping,
		RegionCode:  "QRO",
	})
	require.NoError(t, err)

	stored, err := repo.Get(context.Background(), quote.ID)
	require.NoError(t, err)
	require.Nil(t, stored.Fulfillment)
	require.True(t, stored.GrandTotal.IsZero())
}

func TestApproveStampsPricesAndFreezes(t *testing.T) {
	svc, _ := newTestService()
	quote := createDraft(t, svc)

	_, err := svc.SetOptions(context.Background(), quote.ID, pricing.Options{
		Fulfillment: pricing.FulfillmentInstallation,
		RegionCode:  "QRO",
	})
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), quote.ID, ApproveRequest{})
	require.NoError(t, err)
	require.Equal(t, QuoteStatusApproved, approved.Status)
	require.NotNil(t, approved.ValidUntil)
	require.Equal(t, time.Date(2025, 4, 9, 12, 0, 0, 0, time.UTC), *approved.ValidUntil)

	byProduct := map[int64]string{}
	for _, line := range approved.Lines {
		byProduct[line.ProductID] = line.UnitPrice.String()
	}
	require.Equal(t, "1200", byProduct[1])
	require.Equal(t, "85.5", byProduct[2])
}

func TestApproveWithoutOptions(t *testing.T) {
	svc, _ := newTestService()
	quote := createDraft(t, svc)

	_, err := svc.Approve(context.Background(), quote.ID, ApproveRequest{})
	require.ErrorIs(t, err, ErrMissingOptions)
}

func TestApproveRecomputesWithCurrentRates(t *testing.T) {
	svc, _ := newTestService()
	rates := &memoryRates{table: testRateTable()}
	svc.rates = rates
	quote := createDraft(t, svc)

	_, err := svc.SetOptions(context.Background(), quote.ID, pricing.Options{
		Fulfillment: pricing.FulfillmentInstallation,
		RegionCode:  "QRO",
	})
	require.NoError(t, err)

	// Transport rate changes between set-options and approval.
	table := testRateTable()
	region := table.Regions["QRO"]
	region.TransportPerKm = decimal.NewFromInt(12)
	table.Regions["QRO"] = region
	rates.table = table

	approved, err := svc.Approve(context.Background(), quote.ID, ApproveRequest{})
	require.NoError(t, err)
	require.Equal(t, "1560", approved.TransportCost.String())
}

func TestApproveTwiceConflicts(t *testing.T) {
	svc, _ := newTestService()
	quote := createDraft(t, svc)

	_, err := svc.SetOptions(context.Background(), quote.ID, pricing.Options{
		Fulfillment: pricing.FulfillmentDevicesOnly,
	})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), quote.ID, ApproveRequest{})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), quote.ID, ApproveRequest{})
	require.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestRejectDraft(t *testing.T) {
	svc, _ := newTestService()
	quote := createDraft(t, svc)

	rejected, err := svc.Reject(context.Background(), quote.ID)
	require.NoError(t, err)
	require.Equal(t, QuoteStatusRejected, rejected.Status)

	_, err = svc.Approve(context.Background(), quote.ID, ApproveRequest{})
	require.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestSetOptionsOnApprovedQuote(t *testing.T) {
	svc, _ := newTestService()
	quote := createDraft(t, svc)

	_, err := svc.SetOptions(context.Background(), quote.ID, pricing.Options{
		Fulfillment: pricing.FulfillmentDevicesOnly,
	})
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), quote.ID, ApproveRequest{})
	require.NoError(t, err)

	_, err = svc.SetOptions(context.Background(), quote.ID, pricing.Options{
		Fulfillment: pricing.FulfillmentShipping,
		RegionCode:  "QRO",
	})
	require.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestGetMissingQuote(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Get(context.Background(), 42)
	require.True(t, errors.Is(err, shared.ErrNotFound))
}
