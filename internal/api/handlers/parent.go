package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kidolearn/kidolearn-api/internal/domain"
	"github.com/kidolearn/kidolearn-api/internal/service"
)

type ParentHandler struct {
	authService *service.AuthService
}

func NewParentHandler(authService *service.AuthService) *ParentHandler {
	return &ParentHandler{authService: authService}
}

type ParentResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	HasPIN    bool      `json:"hasPin"`
	CreatedAt time.Time `json:"createdAt"`
}

type PINRequest struct {
	PIN string `json:"pin"`
}

// Me returns the caller's parent profile, creating the record from the
// token claims on first access.
func (h *ParentHandler) Me(w http.ResponseWriter, r *http.Request) {
	parent, ok := bootstrapParent(w, r, h.authService)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, ParentResponse{
		ID:        parent.ID.String(),
		Email:     parent.Email,
		Name:      parent.Name,
		HasPIN:    parent.HasPIN(),
		CreatedAt: parent.CreatedAt,
	})
}

// SetPIN stores the parent's exit PIN as a bcrypt hash.
func (h *ParentHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	parent, ok := bootstrapParent(w, r, h.authService)
	if !ok {
		return
	}

	var req PINRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.authService.SetPIN(r.Context(), parent, req.PIN); err != nil {
		if errors.Is(err, domain.ErrInvalidPIN) {
			writeError(w, http.StatusBadRequest, "PIN must be 4 to 8 digits")
			return
		}
		log.Error().Err(err).Msg("failed to set PIN")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "PIN updated",
	})
}

// VerifyPIN checks a candidate PIN against the stored hash.
func (h *ParentHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	parent, ok := bootstrapParent(w, r, h.authService)
	if !ok {
		return
	}

	var req PINRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	valid, err := h.authService.VerifyPIN(parent, req.PIN)
	if err != nil {
		if errors.Is(err, domain.ErrPINNotSet) {
			writeError(w, http.StatusBadRequest, "No PIN has been set")
			return
		}
		log.Error().Err(err).Msg("failed to verify PIN")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}
