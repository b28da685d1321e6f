package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vidstash/internal/common"
	"vidstash/internal/server/videos"
)

// Fixed error sentinels callers pattern-match on. Anything else in the error
// field is free text to be treated as generic.
const (
	errUnsupportedPlatform = "UNSUPPORTED_PLATFORM"
	errDuplicateVideo      = "DUPLICATE_VIDEO"
)

type saveVideoRequest struct {
	URL        string  `json:"url"`
	CategoryID string  `json:"categoryId"`
	Note       *string `json:"note,omitempty"`
	ReminderAt *string `json:"reminderAt,omitempty"`
}

type saveVideoResponse struct {
	Success  bool   `json:"success"`
	VideoID  string `json:"videoId,omitempty"`
	Platform string `json:"platform,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) handleSaveVideo(w http.ResponseWriter, r *http.Request) {
	var req saveVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, saveVideoResponse{Success: false, Error: "invalid request body"})
		return
	}
	if req.URL == "" || req.CategoryID == "" {
		writeJSON(w, http.StatusBadRequest, saveVideoResponse{Success: false, Error: "url and categoryId are required"})
		return
	}

	var reminderAt *time.Time
	if req.ReminderAt != nil && *req.ReminderAt != "" {
		t, err := time.Parse(time.RFC3339, *req.ReminderAt)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, saveVideoResponse{Success: false, Error: "reminderAt must be RFC3339"})
			return
		}
		reminderAt = &t
	}

	result, err := s.service.SaveVideoLink(r.Context(), videos.SaveRequest{
		URL:        req.URL,
		UserID:     userIDFrom(r.Context()),
		CategoryID: req.CategoryID,
		Note:       req.Note,
		ReminderAt: reminderAt,
	})
	if err != nil {
		status, msg := saveErrorResponse(err)
		writeJSON(w, status, saveVideoResponse{Success: false, Error: msg})
		return
	}

	writeJSON(w, http.StatusCreated, saveVideoResponse{
		Success:  true,
		VideoID:  result.VideoID,
		Platform: string(result.Platform),
	})
}

func saveErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrUnsupportedPlatform):
		return http.StatusUnprocessableEntity, errUnsupportedPlatform
	case errors.Is(err, common.ErrDuplicateVideo):
		return http.StatusConflict, errDuplicateVideo
	case errors.Is(err, common.ErrCannotParseURL), errors.Is(err, common.ErrNoProvider):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "could not save video"
	}
}

type videoResponse struct {
	ID              string     `json:"id"`
	CategoryID      string     `json:"categoryId"`
	URL             string     `json:"url"`
	Platform        string     `json:"platform"`
	Title           string     `json:"title"`
	Creator         *string    `json:"creator,omitempty"`
	Description     *string    `json:"description,omitempty"`
	DurationSeconds *int       `json:"durationSeconds,omitempty"`
	PublishedAt     *time.Time `json:"publishedAt,omitempty"`
	ThumbnailURL    *string    `json:"thumbnailUrl,omitempty"`
	ThumbnailSource string     `json:"thumbnailSource"`
	MetaStatus      string     `json:"metaStatus"`
	MetaError       *string    `json:"metaError,omitempty"`
	Note            *string    `json:"note,omitempty"`
	ReminderAt      *time.Time `json:"reminderAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	v, err := s.service.GetVideo(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "video not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not load video")
		return
	}
	if v.UserID != userIDFrom(r.Context()) {
		// Records are private; do not reveal whether the id exists.
		writeError(w, http.StatusNotFound, "video not found")
		return
	}

	writeJSON(w, http.StatusOK, videoResponse{
		ID:              v.ID,
		CategoryID:      v.CategoryID,
		URL:             v.URL,
		Platform:        string(v.Platform),
		Title:           v.Title,
		Creator:         v.Creator,
		Description:     v.Description,
		DurationSeconds: v.DurationSeconds,
		PublishedAt:     v.PublishedAt,
		ThumbnailURL:    v.ThumbnailURL,
		ThumbnailSource: string(v.ThumbnailSource),
		MetaStatus:      string(v.MetaStatus),
		MetaError:       v.MetaError,
		Note:            v.Note,
		ReminderAt:      v.ReminderAt,
		CreatedAt:       v.CreatedAt,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, saveVideoResponse{Success: false, Error: msg})
}
