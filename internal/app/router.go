package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tlaloc-sg/tlaloc-erp/internal/auth"
	"github.com/tlaloc-sg/tlaloc-erp/internal/catalog"
	"github.com/tlaloc-sg/tlaloc-erp/internal/costing"
	"github.com/tlaloc-sg/tlaloc-erp/internal/materials"
	"github.com/tlaloc-sg/tlaloc-erp/internal/observability"
	"github.com/tlaloc-sg/tlaloc-erp/internal/orders"
	"github.com/tlaloc-sg/tlaloc-erp/internal/procurement"
	"github.com/tlaloc-sg/tlaloc-erp/internal/quotes"
	"github.com/tlaloc-sg/tlaloc-erp/internal/rates"
	"github.com/tlaloc-sg/tlaloc-erp/internal/reports"
	"github.com/tlaloc-sg/tlaloc-erp/internal/shared"
	"github.com/tlaloc-sg/tlaloc-erp/internal/suppliers"
	"github.com/tlaloc-sg/tlaloc-erp/internal/support"
	"github.com/tlaloc-sg/tlaloc-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	AuthHandler        *auth.Handler
	CatalogHandler     *catalog.Handler
	MaterialsHandler   *materials.Handler
	SuppliersHandler   *suppliers.Handler
	RatesHandler       *rates.Handler
	QuotesHandler      *quotes.Handler
	OrdersHandler      *orders.Handler
	ProcurementHandler *procurement.Handler
	CostingHandler     *costing.Handler
	SupportHandler     *support.Handler
	ReportsHandler     *reports.Handler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/products", params.CatalogHandler.MountRoutes)
	r.Route("/materials", params.MaterialsHandler.MountRoutes)
	r.Route("/suppliers", params.SuppliersHandler.MountRoutes)
	r.Route("/rates", params.RatesHandler.MountRoutes)
	r.Route("/quotes", params.QuotesHandler.MountRoutes)
	r.Route("/orders", params.OrdersHandler.MountRoutes)
	r.Route("/purchases", params.ProcurementHandler.MountRoutes)
	r.Route("/costing", params.CostingHandler.MountRoutes)
	r.Route("/support", params.SupportHandler.MountRoutes)
	r.Route("/reports", params.ReportsHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
