package rates

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/tlaloc-sg/tlaloc-erp/internal/auth"
	"github.com/tlaloc-sg/tlaloc-erp/internal/platform/httpx"
)

// Handler exposes admin endpoints for the pricing reference tables.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the rates handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers rate administration routes; all are admin-only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleAdmin))
		r.Get("/tiers", h.listTiers)
		r.Put("/tiers", h.replaceTiers)
		r.Get("/regions", h.listRegions)
		r.Get("/regions/{code}", h.getRegion)
		r.Put("/regions/{code}", h.upsertRegion)
		r.Delete("/regions/{code}", h.deleteRegion)
	})
}

type tierRequest struct {
	MinQty   int64           `json:"min_qty" validate:"required,min=1"`
	MaxQty   *int64          `json:"max_qty"`
	BaseCost decimal.Decimal `json:"base_cost"`
}

type replaceTiersRequest struct {
	Tiers []tierRequest `json:"tiers" validate:"required,min=1,dive"`
}

type regionRequest struct {
	Name           string          `json:"name" validate:"required"`
	DistanceKm     decimal.Decimal `json:"distance_km"`
	ShipPerKm      decimal.Decimal `json:"ship_per_km"`
	TransportPerKm decimal.Decimal `json:"transport_per_km"`
	IsHome         bool            `json:"is_home"`
}

func (h *Handler) listTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.service.ListTiers(r.Context())
	if err != nil {
		h.logger.Error("list tiers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tiers)
}

func (h *Handler) replaceTiers(w http.ResponseWriter, r *http.Request) {
	var req replaceTiersRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	tiers := make([]InstallTier, 0, len(req.Tiers))
	for _, t := range req.Tiers {
		tiers = append(tiers, InstallTier{MinQty: t.MinQty, MaxQty: t.MaxQty, BaseCost: t.BaseCost})
	}
	if err := h.service.ReplaceTiers(r.Context(), tiers); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Tier Table", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.service.ListRegions(r.Context())
	if err != nil {
		h.logger.Error("list regions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, regions)
}

func (h *Handler) getRegion(w http.ResponseWriter, r *http.Request) {
	region, err := h.service.GetRegion(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, region)
}

func (h *Handler) upsertRegion(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	var req regionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	rate := RegionRate{
		Code:           code,
		Name:           req.Name,
		DistanceKm:     req.DistanceKm,
		ShipPerKm:      req.ShipPerKm,
		TransportPerKm: req.TransportPerKm,
		IsHome:         req.IsHome,
	}
	if err := h.service.UpsertRegion(r.Context(), rate); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Region Rate", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteRegion(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRegion(r.Context(), chi.URLParam(r, "code")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
