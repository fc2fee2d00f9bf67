package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"github.com/kidolearn/kidolearn-api/internal/domain"
	"github.com/kidolearn/kidolearn-api/internal/service"
	"github.com/kidolearn/kidolearn-api/internal/websocket"
)

type SessionHandler struct {
	authService    *service.AuthService
	sessionService *service.SessionService
	notifyService  *service.NotifyService
	hub            *websocket.Hub
}

func NewSessionHandler(authService *service.AuthService, sessionService *service.SessionService, notifyService *service.NotifyService, hub *websocket.Hub) *SessionHandler {
	return &SessionHandler{
		authService:    authService,
		sessionService: sessionService,
		notifyService:  notifyService,
		hub:            hub,
	}
}

type OpenSessionRequest struct {
	ChildID    string          `json:"childId"`
	DeviceInfo json.RawMessage `json:"deviceInfo"`
	AppVersion string          `json:"appVersion"`
	Platform   string          `json:"platform"`
}

type CloseSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// SessionItem is one session in a listing, with the minimal child
// identity embedded.
type SessionItem struct {
	SessionID  string          `json:"sessionId"`
	ChildID    uuid.UUID       `json:"childId"`
	Child      domain.ChildRef `json:"child"`
	DeviceInfo datatypes.JSON  `json:"deviceInfo,omitempty"`
	AppVersion string          `json:"appVersion,omitempty"`
	Platform   string          `json:"platform,omitempty"`
	StartTime  time.Time       `json:"startTime"`
	EndTime    *time.Time      `json:"endTime"`
	Duration   *int64          `json:"duration"`
}

type SessionPage struct {
	Sessions   []SessionItem `json:"sessions"`
	TotalCount int64         `json:"totalCount"`
	Limit      int           `json:"limit"`
	Offset     int           `json:"offset"`
	HasMore    bool          `json:"hasMore"`
}

// Open starts an app-usage session for one of the caller's children and
// hands the generated session id back to the device.
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	parent, ok := resolveParent(w, r, h.authService)
	if !ok {
		return
	}

	var req OpenSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ChildID == "" {
		writeError(w, http.StatusBadRequest, "childId is required")
		return
	}
	childID, err := uuid.Parse(req.ChildID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid child ID")
		return
	}

	session, err := h.sessionService.Open(r.Context(), parent.ID, service.OpenSessionInput{
		ChildID:    childID,
		DeviceInfo: req.DeviceInfo,
		AppVersion: req.AppVersion,
		Platform:   req.Platform,
	})
	if err != nil {
		if errors.Is(err, domain.ErrChildNotFound) {
			writeError(w, http.StatusNotFound, "Child not found")
			return
		}
		log.Error().Err(err).Msg("failed to open session")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if session.Child != nil {
		h.hub.BroadcastSessionStarted(parent.ID, session, session.Child)
		h.notifyService.SessionStarted(parent.ID, session.Child, session.SessionID)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"sessionId": session.SessionID,
		"message":   "Session started",
	})
}

// Close ends an open session. The duration is computed server-side; a
// second close for the same session answers 404.
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	parent, ok := resolveParent(w, r, h.authService)
	if !ok {
		return
	}

	var req CloseSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	session, err := h.sessionService.Close(r.Context(), parent.ID, req.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		log.Error().Err(err).Msg("failed to close session")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var duration int64
	if session.Duration != nil {
		duration = *session.Duration
	}

	if session.Child != nil {
		h.hub.BroadcastSessionEnded(parent.ID, session, session.Child)
		h.notifyService.SessionEnded(parent.ID, session.Child, session.SessionID, duration)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"sessionId": session.SessionID,
		"duration":  duration,
		"message":   "Session ended",
	})
}

// List returns the caller's sessions, newest first. A childId filter
// narrows the same ownership-scoped query; ids that are malformed or
// belong to someone else match nothing rather than erroring.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)

	empty := func() {
		writeJSON(w, http.StatusOK, SessionPage{
			Sessions:   []SessionItem{},
			TotalCount: 0,
			Limit:      limit,
			Offset:     offset,
			HasMore:    false,
		})
	}

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	parent, err := h.authService.GetParent(r.Context(), identity.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrParentNotFound) {
			empty()
			return
		}
		log.Error().Err(err).Msg("failed to resolve parent")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var childID *uuid.UUID
	if s := r.URL.Query().Get("childId"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			empty()
			return
		}
		childID = &id
	}

	sessions, total, err := h.sessionService.List(r.Context(), parent.ID, childID, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list sessions")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	items := make([]SessionItem, 0, len(sessions))
	for _, s := range sessions {
		item := SessionItem{
			SessionID:  s.SessionID,
			ChildID:    s.ChildID,
			DeviceInfo: s.DeviceInfo,
			AppVersion: s.AppVersion,
			Platform:   s.Platform,
			StartTime:  s.StartTime,
			EndTime:    s.EndTime,
			Duration:   s.Duration,
		}
		if s.Child != nil {
			item.Child = domain.ChildRef{ID: s.Child.ID, Name: s.Child.Name}
		}
		items = append(items, item)
	}

	writeJSON(w, http.StatusOK, SessionPage{
		Sessions:   items,
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
		HasMore:    int64(offset+limit) < total,
	})
}
