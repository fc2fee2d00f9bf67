package handlers

import (
	"errors"
	"net/http"

	ws "github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/kidolearn/kidolearn-api/internal/domain"
	"github.com/kidolearn/kidolearn-api/internal/service"
	"github.com/kidolearn/kidolearn-api/internal/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The token query parameter is the auth gate; origins are
		// not restricted.
		return true
	},
}

type WebSocketHandler struct {
	hub         *websocket.Hub
	authService *service.AuthService
}

func NewWebSocketHandler(hub *websocket.Hub, authService *service.AuthService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		authService: authService,
	}
}

// Handle upgrades the connection to a WebSocket after verifying the
// token from the query string. Browser WebSocket clients cannot set an
// Authorization header, so the bearer token travels as ?token=.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Token required")
		return
	}

	identity, err := h.authService.ValidateToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	parent, err := h.authService.GetParent(r.Context(), identity.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrParentNotFound) {
			writeError(w, http.StatusUnauthorized, "Parent account not found")
			return
		}
		log.Error().Err(err).Msg("failed to resolve parent for websocket")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn, parent.ID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
