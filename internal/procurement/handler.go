package procurement

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/tlaloc-sg/tlaloc-erp/internal/auth"
	"github.com/tlaloc-sg/tlaloc-erp/internal/platform/httpx"
	"github.com/tlaloc-sg/tlaloc-erp/internal/shared"
)

// Handler exposes purchase administration. All routes are admin-only.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the procurement handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers the purchase routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleAdmin))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Post("/{id}/receive", h.receive)
	})
}

type purchaseLineRequest struct {
	MaterialID int64           `json:"material_id" validate:"required,min=1"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
}

type createPurchaseRequest struct {
	SupplierID   int64                 `json:"supplier_id" validate:"required,min=1"`
	PurchaseDate *time.Time            `json:"purchase_date,omitempty"`
	Lines        []purchaseLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	supplierID, _ := strconv.ParseInt(q.Get("supplier_id"), 10, 64)
	page := parseIntDefault(q.Get("page"), 1)
	perPage := parseIntDefault(q.Get("per_page"), 20)

	purchases, total, err := h.service.List(r.Context(), supplierID, page, perPage)
	if err != nil {
		h.logger.Error("list purchases", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"purchases":  purchases,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid purchase id")
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPurchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	purchase := Purchase{SupplierID: req.SupplierID}
	if req.PurchaseDate != nil {
		purchase.PurchaseDate = req.PurchaseDate.UTC()
	}
	for _, l := range req.Lines {
		purchase.Lines = append(purchase.Lines, PurchaseLine{
			MaterialID: l.MaterialID,
			Quantity:   l.Quantity,
			UnitCost:   l.UnitCost,
		})
	}

	created, err := h.service.Create(r.Context(), purchase)
	if err != nil {
		h.respondPurchaseError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid purchase id")
		return
	}
	p, err := h.service.Receive(r.Context(), id)
	if err != nil {
		h.respondPurchaseError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) respondPurchaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidPurchase):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Purchase", err.Error())
	case errors.Is(err, ErrAlreadyReceived):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error("purchase operation", slog.Any("error", err))
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
