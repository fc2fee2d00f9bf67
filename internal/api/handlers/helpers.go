package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/kidolearn/kidolearn-api/internal/api/middleware"
	"github.com/kidolearn/kidolearn-api/internal/domain"
	"github.com/kidolearn/kidolearn-api/internal/service"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

// pageParams clamps limit and offset to the shared pagination scheme:
// limit defaults to 20 and is capped at 100, offset is never negative.
func pageParams(r *http.Request) (limit, offset int) {
	limit = queryInt(r, "limit", 20)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset = queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// requireIdentity pulls the verified identity out of the request
// context. Absence means the auth middleware did not run.
func requireIdentity(w http.ResponseWriter, r *http.Request) (*service.Identity, bool) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return identity, true
}

// resolveParent maps the request identity to its Parent record. A missing
// record answers 404: outside the bootstrap surface a parent that never
// called /api/me is indistinguishable from any other absent resource.
func resolveParent(w http.ResponseWriter, r *http.Request, auth *service.AuthService) (*domain.Parent, bool) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return nil, false
	}

	parent, err := auth.GetParent(r.Context(), identity.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrParentNotFound) {
			writeError(w, http.StatusNotFound, "Parent account not found")
			return nil, false
		}
		log.Error().Err(err).Msg("failed to resolve parent")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	return parent, true
}

// bootstrapParent resolves the caller's Parent record, creating it from
// the token claims on first contact. Used by the identity surface
// (/api/me, PIN, push subscriptions), which never answers 404 for its
// own caller.
func bootstrapParent(w http.ResponseWriter, r *http.Request, auth *service.AuthService) (*domain.Parent, bool) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return nil, false
	}

	parent, err := auth.EnsureParent(r.Context(), identity)
	if err != nil {
		log.Error().Err(err).Msg("failed to bootstrap parent")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	return parent, true
}
