package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/kidolearn/kidolearn-api/internal/domain"
	"github.com/kidolearn/kidolearn-api/internal/service"
)

type NotificationHandler struct {
	authService   *service.AuthService
	notifyService *service.NotifyService
}

func NewNotificationHandler(authService *service.AuthService, notifyService *service.NotifyService) *NotificationHandler {
	return &NotificationHandler{
		authService:   authService,
		notifyService: notifyService,
	}
}

type SubscriptionRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// VAPIDKey hands out the public key browsers need to subscribe.
func (h *NotificationHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}

	if !h.notifyService.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "Push notifications are not configured")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"publicKey": h.notifyService.PublicKey()})
}

// Subscribe stores or refreshes a push subscription for the caller.
func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	parent, ok := bootstrapParent(w, r, h.authService)
	if !ok {
		return
	}

	var req SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.notifyService.Subscribe(r.Context(), parent.ID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEndpointRequired):
			writeError(w, http.StatusBadRequest, "endpoint is required")
		case errors.Is(err, domain.ErrSubscriptionKeys):
			writeError(w, http.StatusBadRequest, "keys.p256dh and keys.auth are required")
		default:
			log.Error().Err(err).Msg("failed to store push subscription")
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Subscription saved",
	})
}

// Unsubscribe removes the subscription matching the given endpoint.
func (h *NotificationHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	parent, ok := bootstrapParent(w, r, h.authService)
	if !ok {
		return
	}

	var req UnsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "endpoint is required")
		return
	}

	if err := h.notifyService.Unsubscribe(r.Context(), parent.ID, req.Endpoint); err != nil {
		if errors.Is(err, domain.ErrSubscriptionNotFound) {
			writeError(w, http.StatusNotFound, "Subscription not found")
			return
		}
		log.Error().Err(err).Msg("failed to remove push subscription")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Subscription removed",
	})
}
