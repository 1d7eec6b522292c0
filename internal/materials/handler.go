package materials

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/tlaloc-sg/tlaloc-erp/internal/auth"
	"github.com/tlaloc-sg/tlaloc-erp/internal/platform/httpx"
)

// Handler exposes material and BOM administration. All routes are admin-only.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the materials handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers the material routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleAdmin))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Get("/bom/{productID}", h.productBOM)
		r.Put("/bom/{productID}", h.replaceProductBOM)
	})
}

type materialRequest struct {
	Code     string `json:"code" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Unit     string `json:"unit"`
	IsActive bool   `json:"is_active"`
}

type bomLineRequest struct {
	MaterialID int64           `json:"material_id" validate:"required,min=1"`
	QtyPerUnit decimal.Decimal `json:"qty_per_unit"`
}

type replaceBOMRequest struct {
	Lines []bomLineRequest `json:"lines" validate:"dive"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list materials", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid material id")
		return
	}
	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeMaterial(w, r)
	if !ok {
		return
	}
	m, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondMaterialError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid material id")
		return
	}
	req, ok := h.decodeMaterial(w, r)
	if !ok {
		return
	}
	if err := h.service.Update(r.Context(), id, req); err != nil {
		h.respondMaterialError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) productBOM(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return
	}
	lines, err := h.service.ProductBOM(r.Context(), productID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lines)
}

func (h *Handler) replaceProductBOM(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return
	}
	var req replaceBOMRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	lines := make([]BOMLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, BOMLine{ProductID: productID, MaterialID: l.MaterialID, QtyPerUnit: l.QtyPerUnit})
	}
	if err := h.service.ReplaceProductBOM(r.Context(), productID, lines); err != nil {
		h.respondMaterialError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeMaterial(w http.ResponseWriter, r *http.Request) (Material, bool) {
	var req materialRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return Material{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return Material{}, false
	}
	return Material{Code: req.Code, Name: req.Name, Unit: req.Unit, IsActive: req.IsActive}, true
}

func (h *Handler) respondMaterialError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalidMaterial) {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Material", err.Error())
		return
	}
	h.logger.Error("material operation", slog.Any("error", err))
	httpx.RespondError(w, err)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
