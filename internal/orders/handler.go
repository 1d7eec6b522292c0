package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tlaloc-sg/tlaloc-erp/internal/auth"
	"github.com/tlaloc-sg/tlaloc-erp/internal/platform/httpx"
	"github.com/tlaloc-sg/tlaloc-erp/internal/shared"
)

// Handler exposes the order lifecycle. Clients place and track their own
// orders; status transitions are admin operations except cancellation.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the orders handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers the order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Post("/", h.createFromQuote)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/{id}/cancel", h.cancel)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleAdmin))
		r.Post("/{id}/status", h.transition)
	})
}

type createOrderRequest struct {
	QuoteID int64 `json:"quote_id" validate:"required,min=1"`
}

type transitionRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) createFromQuote(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	order, err := h.service.CreateFromQuote(r.Context(), auth.CurrentUserID(r), req.QuoteID)
	if err != nil {
		h.respondOrderError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parseIntDefault(q.Get("page"), 1)
	perPage := parseIntDefault(q.Get("per_page"), 20)

	customerID := int64(0)
	if !auth.IsAdmin(r) {
		customerID = auth.CurrentUserID(r)
	}
	var status *OrderStatus
	if raw := q.Get("status"); raw != "" {
		s := OrderStatus(raw)
		status = &s
	}

	orders, total, err := h.service.List(r.Context(), customerID, status, page, perPage)
	if err != nil {
		h.logger.Error("list orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"orders":     orders,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// cancel lets the owning customer cancel while the lifecycle still allows it.
func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	updated, err := h.service.Transition(r.Context(), order.ID, OrderStatusCancelled)
	if err != nil {
		h.respondOrderError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid order id")
		return
	}
	var req transitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	order, err := h.service.Transition(r.Context(), id, OrderStatus(req.Status))
	if err != nil {
		h.respondOrderError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) loadOwned(w http.ResponseWriter, r *http.Request) (*Order, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid order id")
		return nil, false
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return nil, false
	}
	if !auth.IsAdmin(r) && order.CustomerID != auth.CurrentUserID(r) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "order not found")
		return nil, false
	}
	return order, true
}

func (h *Handler) respondOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidOrder), errors.Is(err, ErrQuoteNotApproved):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Order", err.Error())
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error("order operation", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
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
