package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tlaloc-sg/tlaloc-erp/internal/app"
	"github.com/tlaloc-sg/tlaloc-erp/internal/auth"
	"github.com/tlaloc-sg/tlaloc-erp/internal/orders"
	"github.com/tlaloc-sg/tlaloc-erp/internal/pricing"
	"github.com/tlaloc-sg/tlaloc-erp/internal/quotes"
	"github.com/tlaloc-sg/tlaloc-erp/internal/shared"
	_ "github.com/tlaloc-sg/tlaloc-erp/internal/testing/guard"
)

// testClient drives the HTTP API carrying a session cookie and CSRF token
// the way a browser client would.
type testClient struct {
	t      *testing.T
	server *httptest.Server
	cookie *http.Cookie
	csrf   string
}

func (c *testClient) do(method, path string, body any) *http.Response {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.server.URL+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	if c.csrf != "" {
		req.Header.Set(shared.CSRFHeader, c.csrf)
	}
	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	return resp
}

func (c *testClient) decode(resp *http.Response, out any) {
	c.t.Helper()
	defer resp.Body.Close()
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
}

func (c *testClient) login(email, password string) {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(c.t, http.StatusOK, resp.StatusCode)

	for _, cookie := range resp.Cookies() {
		if cookie.Value != "" {
			c.cookie = cookie
		}
	}
	require.NotNil(c.t, c.cookie, "login must issue a session cookie")

	var body struct {
		CSRFToken string `json:"csrf_token"`
	}
	c.decode(resp, &body)
	require.NotEmpty(c.t, body.CSRFToken)
	c.csrf = body.CSRFToken
}

type memoryAuthRepo struct {
	nextID int64
	users  map[int64]*auth.User
}

func (m *memoryAuthRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryAuthRepo) FindByID(_ context.Context, id int64) (*auth.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *memoryAuthRepo) Create(_ context.Context, user auth.User) (int64, error) {
	id := m.nextID
	m.nextID++
	user.ID = id
	m.users[id] = &user
	return id, nil
}

func (m *memoryAuthRepo) CreateSession(context.Context, string, int64, time.Time, string, string) error {
	return nil
}

func (m *memoryAuthRepo) DeleteSession(context.Context, string) error { return nil }

type memoryQuoteRepo struct {
	nextID int64
	quotes map[int64]*quotes.Quote
}

func (m *memoryQuoteRepo) Create(_ context.Context, quote quotes.Quote) (int64, error) {
	id := m.nextID
	m.nextID++
	quote.ID = id
	for i := range quote.Lines {
		quote.Lines[i].QuoteID = id
	}
	m.quotes[id] = &quote
	return id, nil
}

func (m *memoryQuoteRepo) Get(_ context.Context, id int64) (*quotes.Quote, error) {
	quote, ok := m.quotes[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *quote
	copied.Lines = append([]quotes.QuoteLine(nil), quote.Lines...)
	return &copied, nil
}

func (m *memoryQuoteRepo) List(_ context.Context, req quotes.ListQuotesRequest) ([]quotes.Quote, int, error) {
	var out []quotes.Quote
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

func (m *memoryQuoteRepo) SaveOptions(_ context.Context, id int64, opts pricing.Options, b pricing.Breakdown) error {
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
	m.applyBreakdown(quote, b)
	return nil
}

func (m *memoryQuoteRepo) Approve(_ context.Context, id int64, validUntil time.Time, linePrices map[int64]decimal.Decimal, b pricing.Breakdown) error {
	quote, ok := m.quotes[id]
	if !ok {
		return shared.ErrNotFound
	}
	quote.Status = quotes.QuoteStatusApproved
	quote.ValidUntil = &validUntil
	for i := range quote.Lines {
		quote.Lines[i].UnitPrice = linePrices[quote.Lines[i].ProductID]
	}
	m.applyBreakdown(quote, b)
	return nil
}

func (m *memoryQuoteRepo) UpdateStatus(_ context.Context, id int64, status quotes.QuoteStatus) error {
	quote, ok := m.quotes[id]
	if !ok {
		return shared.ErrNotFound
	}
	quote.Status = status
	return nil
}

func (m *memoryQuoteRepo) applyBreakdown(q *quotes.Quote, b pricing.Breakdown) {
	q.ProductsSubtotal = b.Products
	q.InstallBase = b.InstallBase
	q.TransportCost = b.Transport
	q.ShippingCost = b.Shipping
	q.GrandTotal = b.GrandTotal
}

type memoryOrderRepo struct {
	nextID int64
	orders map[int64]*orders.Order
}

func (m *memoryOrderRepo) Create(_ context.Context, o orders.Order) (int64, error) {
	id := m.nextID
	m.nextID++
	o.ID = id
	for i := range o.Lines {
		o.Lines[i].OrderID = id
	}
	m.orders[id] = &o
	return id, nil
}

func (m *memoryOrderRepo) Get(_ context.Context, id int64) (*orders.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *o
	copied.Lines = append([]orders.OrderLine(nil), o.Lines...)
	return &copied, nil
}

func (m *memoryOrderRepo) List(_ context.Context, customerID int64, status *orders.OrderStatus, page, perPage int) ([]orders.Order, int, error) {
	var out []orders.Order
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

func (m *memoryOrderRepo) UpdateStatus(_ context.Context, id int64, status orders.OrderStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return shared.ErrNotFound
	}
	o.Status = status
	return nil
}

type staticCatalog struct {
	prices map[int64]decimal.Decimal
}

func (c *staticCatalog) BasePrices(_ context.Context, ids []int64) (map[int64]decimal.Decimal, error) {
	out := make(map[int64]decimal.Decimal, len(ids))
	for _, id := range ids {
		if price, ok := c.prices[id]; ok {
			out[id] = price
		}
	}
	return out, nil
}

type staticRates struct {
	table pricing.RateTable
}

func (r *staticRates) Snapshot(context.Context) (pricing.RateTable, error) {
	return r.table, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mini := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	logger := slog.Default()
	sessions := shared.NewSessionManager(redisClient, "tlaloc_session", time.Hour, false)
	csrf := shared.NewCSRFManager("e2e-csrf-secret")

	adminHash, err := bcrypt.GenerateFromPassword([]byte("riego-admin-1"), bcrypt.MinCost)
	require.NoError(t, err)
	authRepo := &memoryAuthRepo{nextID: 2, users: map[int64]*auth.User{
		1: {
			ID:           1,
			Email:        "admin@tlaloc.mx",
			FullName:     "Admin TLALOC",
			PasswordHash: string(adminHash),
			Role:         auth.RoleAdmin,
			IsActive:     true,
		},
	}}
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessions, csrf)

	maxFive := int64(5)
	rateTable := pricing.RateTable{
		HomeRegion: "GTO",
		Regions: map[string]pricing.RegionRate{
			"QRO": {
				Code:           "QRO",
				DistanceKm:     decimal.NewFromInt(130),
				ShipPerKm:      decimal.RequireFromString("3.5"),
				TransportPerKm: decimal.NewFromInt(10),
			},
		},
		Tiers: []pricing.InstallTier{
			{MinQty: 1, MaxQty: &maxFive, BaseCost: decimal.NewFromInt(3000)},
			{MinQty: 6, BaseCost: decimal.NewFromInt(5500)},
		},
	}
	catalog := &staticCatalog{prices: map[int64]decimal.Decimal{
		1: decimal.NewFromInt(1200),
		2: decimal.RequireFromString("85.5"),
	}}

	quoteRepo := &memoryQuoteRepo{nextID: 1, quotes: map[int64]*quotes.Quote{}}
	quoteService := quotes.NewService(quoteRepo, catalog, &staticRates{table: rateTable})
	quoteHandler := quotes.NewHandler(logger, quoteService)

	orderRepo := &memoryOrderRepo{nextID: 1, orders: map[int64]*orders.Order{}}
	orderService := orders.NewService(orderRepo, quoteService)
	orderHandler := orders.NewHandler(logger, orderService)

	r := chi.NewRouter()
	for _, mw := range app.MiddlewareStack(app.MiddlewareConfig{
		Logger:         logger,
		Config:         &app.Config{},
		SessionManager: sessions,
		CSRFManager:    csrf,
	}) {
		r.Use(mw)
	}
	r.Route("/auth", authHandler.MountRoutes)
	r.Route("/quotes", quoteHandler.MountRoutes)
	r.Route("/orders", orderHandler.MountRoutes)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func TestQuoteToOrderFlow(t *testing.T) {
	server := newTestServer(t)

	client := &testClient{t: t, server: server}
	resp := client.do(http.MethodPost, "/auth/register", map[string]string{
		"email":     "cliente@example.com",
		"full_name": "Cliente de Prueba",
		"password":  "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	client.login("cliente@example.com", "hunter2hunter2")

	resp = client.do(http.MethodPost, "/quotes", map[string]any{
		"lines": []map[string]any{
			{"product_id": 1, "quantity": "4"},
			{"product_id": 2, "quantity": "2"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var quote quotes.Quote
	client.decode(resp, &quote)
	require.Equal(t, quotes.QuoteStatusDraft, quote.Status)

	resp = client.do(http.MethodPut, fmt.Sprintf("/quotes/%d/options", quote.ID), map[string]any{
		"fulfillment": "Installation",
		"region_code": "QRO",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var breakdown pricing.Breakdown
	client.decode(resp, &breakdown)
	require.Equal(t, "4971", breakdown.Products.String())
	require.Equal(t, "5500", breakdown.InstallBase.String())
	require.Equal(t, "1300", breakdown.Transport.String())
	require.Equal(t, "11771", breakdown.GrandTotal.String())

	admin := &testClient{t: t, server: server}
	admin.login("admin@tlaloc.mx", "riego-admin-1")

	resp = admin.do(http.MethodPost, fmt.Sprintf("/quotes/%d/approve", quote.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var approved quotes.Quote
	admin.decode(resp, &approved)
	require.Equal(t, quotes.QuoteStatusApproved, approved.Status)
	require.NotNil(t, approved.ValidUntil)
	require.Equal(t, "11771", approved.GrandTotal.String())

	resp = client.do(http.MethodPost, "/orders", map[string]any{"quote_id": quote.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order orders.Order
	client.decode(resp, &order)
	require.Equal(t, orders.OrderStatusPending, order.Status)
	require.Equal(t, "11771", order.Total.String())
	require.Len(t, order.Lines, 2)

	resp = admin.do(http.MethodPost, fmt.Sprintf("/orders/%d/status", order.ID), map[string]string{
		"status": "PAID",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var paid orders.Order
	admin.decode(resp, &paid)
	require.Equal(t, orders.OrderStatusPaid, paid.Status)
}

func TestMutationsRejectedWithoutCSRFToken(t *testing.T) {
	server := newTestServer(t)

	client := &testClient{t: t, server: server}
	resp := client.do(http.MethodPost, "/auth/register", map[string]string{
		"email":     "cliente2@example.com",
		"full_name": "Cliente Dos",
		"password":  "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	client.login("cliente2@example.com", "hunter2hunter2")
	client.csrf = ""

	resp = client.do(http.MethodPost, "/quotes", map[string]any{
		"lines": []map[string]any{{"product_id": 1, "quantity": "1"}},
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminRoutesRejectClients(t *testing.T) {
	server := newTestServer(t)

	client := &testClient{t: t, server: server}
	resp := client.do(http.MethodPost, "/auth/register", map[string]string{
		"email":     "cliente3@example.com",
		"full_name": "Cliente Tres",
		"password":  "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	client.login("cliente3@example.com", "hunter2hunter2")

	resp = client.do(http.MethodPost, "/quotes/1/approve", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}
