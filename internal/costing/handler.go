package costing

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tlaloc-sg/tlaloc-erp/internal/auth"
	"github.com/tlaloc-sg/tlaloc-erp/internal/platform/httpx"
)

// Handler exposes the cost ledger. Admin-only; costs are internal data.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the costing handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the ledger route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleAdmin))
		r.Get("/ledger/{materialID}", h.ledger)
	})
}

func (h *Handler) ledger(w http.ResponseWriter, r *http.Request) {
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

	rows, err := h.service.Ledger(r.Context(), materialID, from, to)
	if err != nil {
		if errors.Is(err, ErrInvalidRange) {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		h.logger.Error("cost ledger", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"material_id": materialID,
		"rows":        rows,
	})
}

// parseDate accepts RFC3339 timestamps or plain dates. Empty means open.
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
