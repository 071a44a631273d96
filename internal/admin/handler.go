package admin

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mehmetcc/agora/internal/guard"
	"github.com/mehmetcc/agora/internal/httpx"
	"github.com/mehmetcc/agora/internal/upstream"
	"go.uber.org/zap"
)

// AdminHandler exposes the container and service administration endpoints.
// Every operation re-derives identity from the cookie and requires the role
// flag; it never trusts the edge gate alone.
type AdminHandler interface {
	Containers(w http.ResponseWriter, r *http.Request)
	Services(w http.ResponseWriter, r *http.Request)
	AddService(w http.ResponseWriter, r *http.Request)
	Routes() chi.Router
}

type adminHandler struct {
	logger  *zap.Logger
	guard   guard.Guard
	courses upstream.Courses
}

func NewAdminHandler(courses upstream.Courses, g guard.Guard, l *zap.Logger) AdminHandler {
	return &adminHandler{
		logger:  l,
		guard:   g,
		courses: courses,
	}
}

func (h *adminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/containers", h.Containers)
	r.Get("/services", h.Services)
	r.Post("/services", h.AddService)
	return r
}

func (h *adminHandler) Containers(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	containers, err := h.courses.Containers(r.Context(), h.guard.RawToken(r))
	if err != nil {
		h.logger.Warn("container listing failed", zap.Error(err))
		upstream.WriteError(w, err, "error fetching containers")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, containers)
}

func (h *adminHandler) Services(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	services, err := h.courses.Services(r.Context(), h.guard.RawToken(r))
	if err != nil {
		h.logger.Warn("service listing failed", zap.Error(err))
		upstream.WriteError(w, err, "failed to fetch services")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, services)
}

func (h *adminHandler) AddService(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	body, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(body) {
		httpx.WriteError(w, http.StatusBadRequest, httpx.ErrorResponse[any]{
			Code:    httpx.ErrInvalidJSON,
			Message: "invalid request body",
		})
		return
	}

	created, err := h.courses.AddService(r.Context(), json.RawMessage(body), h.guard.RawToken(r))
	if err != nil {
		h.logger.Warn("service creation failed", zap.Error(err))
		upstream.WriteError(w, err, "failed to add instance")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, created)
}

// authorize performs the presence, decode and role checks in order; the
// upstream call must never be issued when any of them fails.
func (h *adminHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	claims, err := h.guard.Identity(r)
	if err != nil {
		guard.WriteError(w, err)
		return false
	}
	if err := h.guard.RequireAdmin(claims); err != nil {
		guard.WriteError(w, err)
		return false
	}
	return true
}
