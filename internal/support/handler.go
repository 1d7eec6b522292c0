package support

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tlaloc-sg/tlaloc-erp/internal/auth"
	"github.com/tlaloc-sg/tlaloc-erp/internal/platform/httpx"
)

// Handler exposes the contact form and ticket threads.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the support handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers the support routes. The contact form is public.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/contact", h.submitContact)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleAdmin))
		r.Get("/contact", h.listContacts)
		r.Post("/contact/{id}/read", h.markContactRead)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Post("/tickets", h.openTicket)
		r.Get("/tickets", h.listTickets)
		r.Get("/tickets/{id}", h.getTicket)
		r.Post("/tickets/{id}/reply", h.reply)
		r.Post("/tickets/{id}/close", h.closeTicket)
		r.Post("/tickets/{id}/reopen", h.reopenTicket)
	})
}

type contactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

type openTicketRequest struct {
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

type replyRequest struct {
	Body string `json:"body" validate:"required"`
}

func (h *Handler) submitContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	id, err := h.service.SubmitContact(r.Context(), ContactMessage{
		Name: req.Name, Email: req.Email, Subject: req.Subject, Body: req.Body,
	})
	if err != nil {
		h.logger.Error("submit contact", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *Handler) listContacts(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread") == "true"
	out, err := h.service.ListContacts(r.Context(), unreadOnly)
	if err != nil {
		h.logger.Error("list contacts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) markContactRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid message id")
		return
	}
	if err := h.service.MarkContactRead(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) openTicket(w http.ResponseWriter, r *http.Request) {
	var req openTicketRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ticket, err := h.service.OpenTicket(r.Context(), auth.CurrentUserID(r), req.Subject, req.Body)
	if err != nil {
		h.logger.Error("open ticket", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ticket)
}

func (h *Handler) listTickets(w http.ResponseWriter, r *http.Request) {
	customerID := int64(0)
	if !auth.IsAdmin(r) {
		customerID = auth.CurrentUserID(r)
	}
	out, err := h.service.ListTickets(r.Context(), customerID)
	if err != nil {
		h.logger.Error("list tickets", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getTicket(w http.ResponseWriter, r *http.Request) {
	ticket, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, ticket)
}

func (h *Handler) reply(w http.ResponseWriter, r *http.Request) {
	ticket, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	var req replyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	updated, err := h.service.Reply(r.Context(), ticket.ID, auth.CurrentUserID(r), auth.IsAdmin(r), req.Body)
	if err != nil {
		if errors.Is(err, ErrTicketClosed) {
			httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
			return
		}
		h.logger.Error("ticket reply", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) closeTicket(w http.ResponseWriter, r *http.Request) {
	ticket, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	if err := h.service.Close(r.Context(), ticket.ID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reopenTicket(w http.ResponseWriter, r *http.Request) {
	ticket, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	if err := h.service.Reopen(r.Context(), ticket.ID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) loadOwned(w http.ResponseWriter, r *http.Request) (*Ticket, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid ticket id")
		return nil, false
	}
	ticket, err := h.service.GetTicket(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return nil, false
	}
	if !auth.IsAdmin(r) && ticket.CustomerID != auth.CurrentUserID(r) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "ticket not found")
		return nil, false
	}
	return ticket, true
}
