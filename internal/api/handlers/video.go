package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kidolearn/kidolearn-api/internal/domain"
	"github.com/kidolearn/kidolearn-api/internal/service"
	"github.com/kidolearn/kidolearn-api/internal/youtube"
)

type VideoHandler struct {
	authService  *service.AuthService
	videoService *service.VideoService
}

func NewVideoHandler(authService *service.AuthService, videoService *service.VideoService) *VideoHandler {
	return &VideoHandler{
		authService:  authService,
		videoService: videoService,
	}
}

type ScheduleVideoRequest struct {
	ChildID     string    `json:"childId"`
	VideoRef    string    `json:"videoRef"`
	Title       string    `json:"title"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

type ScheduledVideoPage struct {
	ScheduledVideos []*domain.ScheduledVideo `json:"scheduledVideos"`
	TotalCount      int64                    `json:"totalCount"`
	Limit           int                      `json:"limit"`
	Offset          int                      `json:"offset"`
	HasMore         bool                     `json:"hasMore"`
}

type VideoURLResponse struct {
	youtube.Links
	Success bool `json:"success"`
}

func (h *VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	parent, ok := resolveParent(w, r, h.authService)
	if !ok {
		return
	}

	var req ScheduleVideoRequest
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

	video, err := h.videoService.ScheduleVideo(r.Context(), parent.ID, service.ScheduleVideoInput{
		ChildID:     childID,
		VideoRef:    req.VideoRef,
		Title:       req.Title,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrChildNotFound):
			writeError(w, http.StatusNotFound, "Child not found")
		case errors.Is(err, domain.ErrInvalidVideoID):
			writeError(w, http.StatusBadRequest, "Invalid YouTube video ID")
		case errors.Is(err, domain.ErrScheduledAtZero):
			writeError(w, http.StatusBadRequest, "scheduledAt is required")
		default:
			log.Error().Err(err).Msg("failed to schedule video")
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, video)
}

func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	parent, ok := resolveParent(w, r, h.authService)
	if !ok {
		return
	}

	childIDStr := r.URL.Query().Get("childId")
	if childIDStr == "" {
		writeError(w, http.StatusBadRequest, "childId is required")
		return
	}
	childID, err := uuid.Parse(childIDStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid child ID")
		return
	}

	var from, to *time.Time
	if s := r.URL.Query().Get("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from timestamp")
			return
		}
		from = &t
	}
	if s := r.URL.Query().Get("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to timestamp")
			return
		}
		to = &t
	}

	limit, offset := pageParams(r)

	videos, total, err := h.videoService.ListScheduled(r.Context(), parent.ID, childID, from, to, limit, offset)
	if err != nil {
		if errors.Is(err, domain.ErrChildNotFound) {
			writeError(w, http.StatusNotFound, "Child not found")
			return
		}
		log.Error().Err(err).Msg("failed to list scheduled videos")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if videos == nil {
		videos = []*domain.ScheduledVideo{}
	}

	writeJSON(w, http.StatusOK, ScheduledVideoPage{
		ScheduledVideos: videos,
		TotalCount:      total,
		Limit:           limit,
		Offset:          offset,
		HasMore:         int64(offset+limit) < total,
	})
}

func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	parent, ok := resolveParent(w, r, h.authService)
	if !ok {
		return
	}

	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scheduled video ID")
		return
	}

	if err := h.videoService.DeleteScheduled(r.Context(), parent.ID, videoID); err != nil {
		if errors.Is(err, domain.ErrScheduledVideoNotFound) {
			writeError(w, http.StatusNotFound, "Scheduled video not found")
			return
		}
		log.Error().Err(err).Msg("failed to delete scheduled video")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Scheduled video deleted",
	})
}

// GetVideoURL maps a YouTube video id to its playback URLs. Pure
// computation; the only failure mode is a malformed id.
func (h *VideoHandler) GetVideoURL(w http.ResponseWriter, r *http.Request) {
	links, err := h.videoService.ResolveLinks(r.URL.Query().Get("youtubeId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Invalid YouTube video ID",
			Details: "youtubeId must be 1-64 characters from [A-Za-z0-9_-]",
		})
		return
	}

	writeJSON(w, http.StatusOK, VideoURLResponse{Links: links, Success: true})
}
