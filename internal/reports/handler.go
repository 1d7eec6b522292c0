package reports

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tlaloc-sg/tlaloc-erp/internal/auth"
	"github.com/tlaloc-sg/tlaloc-erp/internal/costing"
	"github.com/tlaloc-sg/tlaloc-erp/internal/platform/httpx"
	"github.com/tlaloc-sg/tlaloc-erp/internal/quotes"
)

// Handler serves document downloads.
type Handler struct {
	logger  *slog.Logger
	quotes  *quotes.Service
	costing *costing.Service
}

// NewHandler constructs the reports handler.
func NewHandler(logger *slog.Logger, quotesSvc *quotes.Service, costingSvc *costing.Service) *Handler {
	return &Handler{logger: logger, quotes: quotesSvc, costing: costingSvc}
}

// MountRoutes registers the report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Get("/quotes/{id}/pdf", h.quotePDF)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleAdmin))
		r.Get("/costing/{materialID}/csv", h.ledgerCSV)
	})
}

func (h *Handler) quotePDF(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quote id")
		return
	}
	quote, err := h.quotes.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !auth.IsAdmin(r) && quote.CustomerID != auth.CurrentUserID(r) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "quote not found")
		return
	}

	pdf, err := QuotePDF(quote)
	if err != nil {
		h.logger.Error("quote pdf", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="quote-`+strconv.FormatInt(id, 10)+`.pdf"`)
	_, _ = w.Write(pdf)
}

func (h *Handler) ledgerCSV(w http.ResponseWriter, r *http.Request) {
	materialID, err := strconv.ParseInt(chi.URLParam(r, "materialID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid material id")
		return
	}

	from, ok := parseDate(w, r.URL.Query().Get("from"))
	if !ok {
		return
	}
	to, ok := parseDate(w, r.URL.Query().Get("to"))
	if !ok {
		return
	}

	rows, err := h.costing.Ledger(r.Context(), materialID, from, to)
	if err != nil {
		if errors.Is(err, costing.ErrInvalidRange) {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		h.logger.Error("ledger csv", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	csvBytes, err := LedgerCSV(rows)
	if err != nil {
		h.logger.Error("ledger csv", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger-`+strconv.FormatInt(materialID, 10)+`.csv"`)
	_, _ = w.Write(csvBytes)
}

func parseDate(w http.ResponseWriter, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid date: "+raw)
	return time.Time{}, false
}
