package quotes

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tlaloc-sg/tlaloc-erp/internal/auth"
	"github.com/tlaloc-sg/tlaloc-erp/internal/platform/httpx"
	"github.com/tlaloc-sg/tlaloc-erp/internal/pricing"
	"github.com/tlaloc-sg/tlaloc-erp/internal/shared"
)

// Handler exposes the quote lifecycle endpoints. Clients work their own
// quotes; approval and rejection are admin operations.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the quotes handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers the quote routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/{id}/preview", h.preview)
		r.Put("/{id}/options", h.setOptions)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleAdmin))
		r.Post("/{id}/approve", h.approve)
		r.Post("/{id}/reject", h.reject)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	quote, err := h.service.Create(r.Context(), auth.CurrentUserID(r), req)
	if err != nil {
		h.respondQuoteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, quote)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListQuotesRequest{
		Page:    parseIntDefault(r.URL.Query().Get("page"), 1),
		PerPage: parseIntDefault(r.URL.Query().Get("per_page"), 20),
	}
	if !auth.IsAdmin(r) {
		req.CustomerID = auth.CurrentUserID(r)
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := QuoteStatus(raw)
		req.Status = &status
	}

	quotes, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list quotes", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"quotes":     quotes,
		"pagination": shared.NewPagination(req.Page, req.PerPage, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	quote, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	quote, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	opts, ok := h.decodeOptions(w, r)
	if !ok {
		return
	}

	breakdown, err := h.service.Preview(r.Context(), quote.ID, opts)
	if err != nil {
		h.respondQuoteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, breakdown)
}

func (h *Handler) setOptions(w http.ResponseWriter, r *http.Request) {
	quote, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	opts, ok := h.decodeOptions(w, r)
	if !ok {
		return
	}

	breakdown, err := h.service.SetOptions(r.Context(), quote.ID, opts)
	if err != nil {
		h.respondQuoteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, breakdown)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, err := quoteID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quote id")
		return
	}
	// The body is optional; an empty request uses the default validity.
	var req ApproveRequest
	_ = httpx.DecodeJSON(r, &req)

	quote, err := h.service.Approve(r.Context(), id, req)
	if err != nil {
		h.respondQuoteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	id, err := quoteID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quote id")
		return
	}

	quote, err := h.service.Reject(r.Context(), id)
	if err != nil {
		h.respondQuoteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

// loadOwned fetches the quote and enforces that non-admin callers only see
// their own quotes. Foreign quotes read as not found to avoid leaking IDs.
func (h *Handler) loadOwned(w http.ResponseWriter, r *http.Request) (*Quote, bool) {
	id, err := quoteID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quote id")
		return nil, false
	}
	quote, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return nil, false
	}
	if !auth.IsAdmin(r) && quote.CustomerID != auth.CurrentUserID(r) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "quote not found")
		return nil, false
	}
	return quote, true
}

func (h *Handler) decodeOptions(w http.ResponseWriter, r *http.Request) (pricing.Options, bool) {
	var req OptionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return pricing.Options{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return pricing.Options{}, false
	}
	return pricing.Options{
		Fulfillment:      pricing.Fulfillment(req.Fulfillment),
		RegionCode:       req.RegionCode,
		ManualDistanceKm: req.ManualDistanceKm,
	}, true
}

// respondQuoteError maps domain errors: malformed choices are 400,
// reference data problems are 422 and lifecycle conflicts are 409.
func (h *Handler) respondQuoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pricing.ErrInvalidFulfillment),
		errors.Is(err, pricing.ErrRegionRequired),
		errors.Is(err, ErrInvalidQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Options", err.Error())
	case errors.Is(err, pricing.ErrUnknownRegion),
		errors.Is(err, pricing.ErrNoTierForQuantity),
		errors.Is(err, ErrUnknownProduct),
		errors.Is(err, ErrMissingOptions):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unprocessable Quote", err.Error())
	case errors.Is(err, ErrInvalidStateTransition):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error("quote operation", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func quoteID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func parseIntDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
