package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kidolearn/kidolearn-api/internal/domain"
	"github.com/kidolearn/kidolearn-api/internal/service"
)

type ChildHandler struct {
	authService    *service.AuthService
	childService   *service.ChildService
	sessionService *service.SessionService
}

func NewChildHandler(authService *service.AuthService, childService *service.ChildService, sessionService *service.SessionService) *ChildHandler {
	return &ChildHandler{
		authService:    authService,
		childService:   childService,
		sessionService: sessionService,
	}
}

type ChildRequest struct {
	Name string `json:"name"`
}

func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	parent, ok := resolveParent(w, r, h.authService)
	if !ok {
		return
	}

	var req ChildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	child, err := h.childService.CreateChild(r.Context(), parent.ID, req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrNameRequired) || errors.Is(err, domain.ErrNameTooLong) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("failed to create child")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, child)
}

func (h *ChildHandler) List(w http.ResponseWriter, r *http.Request) {
	parent, ok := resolveParent(w, r, h.authService)
	if !ok {
		return
	}

	children, err := h.childService.ListChildren(r.Context(), parent.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to list children")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if children == nil {
		children = []*domain.Child{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"children": children})
}

func (h *ChildHandler) Get(w http.ResponseWriter, r *http.Request) {
	parent, ok := resolveParent(w, r, h.authService)
	if !ok {
		return
	}

	childID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid child ID")
		return
	}

	child, err := h.childService.GetChild(r.Context(), childID, parent.ID)
	if err != nil {
		if errors.Is(err, domain.ErrChildNotFound) {
			writeError(w, http.StatusNotFound, "Child not found")
			return
		}
		log.Error().Err(err).Msg("failed to get child")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, child)
}

func (h *ChildHandler) Update(w http.ResponseWriter, r *http.Request) {
	parent, ok := resolveParent(w, r, h.authService)
	if !ok {
		return
	}

	childID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid child ID")
		return
	}

	var req ChildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	child, err := h.childService.RenameChild(r.Context(), childID, parent.ID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrChildNotFound):
			writeError(w, http.StatusNotFound, "Child not found")
		case errors.Is(err, domain.ErrNameRequired), errors.Is(err, domain.ErrNameTooLong):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Error().Err(err).Msg("failed to update child")
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, child)
}

func (h *ChildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	parent, ok := resolveParent(w, r, h.authService)
	if !ok {
		return
	}

	childID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid child ID")
		return
	}

	if err := h.childService.DeleteChild(r.Context(), childID, parent.ID); err != nil {
		if errors.Is(err, domain.ErrChildNotFound) {
			writeError(w, http.StatusNotFound, "Child not found")
			return
		}
		log.Error().Err(err).Msg("failed to delete child")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Child deleted",
	})
}

// Usage returns the child's per-day closed-session totals for the last
// N days (default 7, capped at 30).
func (h *ChildHandler) Usage(w http.ResponseWriter, r *http.Request) {
	parent, ok := resolveParent(w, r, h.authService)
	if !ok {
		return
	}

	childID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid child ID")
		return
	}

	days := queryInt(r, "days", 7)
	if days < 1 {
		writeError(w, http.StatusBadRequest, "days must be positive")
		return
	}
	if days > 30 {
		days = 30
	}

	summary, err := h.sessionService.Usage(r.Context(), parent.ID, childID, days)
	if err != nil {
		if errors.Is(err, domain.ErrChildNotFound) {
			writeError(w, http.StatusNotFound, "Child not found")
			return
		}
		log.Error().Err(err).Msg("failed to compute usage")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
