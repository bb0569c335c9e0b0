package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/mindmirror/mindmirror/internal/api/respond"
	"github.com/mindmirror/mindmirror/internal/api/validate"
	"github.com/mindmirror/mindmirror/internal/model"
	"github.com/mindmirror/mindmirror/internal/services"
)

// maxUploadBytes matches the transcription service's upload limit.
const maxUploadBytes = 25 << 20

type JournalHandler struct {
	svc *services.JournalService
	log zerolog.Logger
}

func NewJournalHandler(svc *services.JournalService, log zerolog.Logger) *JournalHandler {
	return &JournalHandler{svc: svc, log: log}
}

// Analyze handles POST /api/analyze (multipart: audio_file, user_id).
func (h *JournalHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respond.WriteBadRequest(w, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("audio_file")
	if err != nil {
		respond.WriteBadRequest(w, "audio_file is required")
		return
	}
	defer file.Close()

	userID := r.FormValue("user_id")
	if userID == "" {
		userID = model.DefaultUserID
	}
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if !services.ValidAudioFilename(header.Filename) {
		respond.WriteBadRequest(w, "Invalid audio format")
		return
	}

	res, err := h.svc.Analyze(r.Context(), userID, header.Filename, file)
	if err != nil {
		if errors.Is(err, model.ErrInvalidAudio) {
			respond.WriteBadRequest(w, "Invalid audio format")
			return
		}
		h.log.Error().Stack().Err(err).Str("user_id", userID).Msg("voice analysis failed")
		respond.WriteInternalError(w, "Analysis failed: "+err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

// History handles GET /api/history/{userId}?days=7.
func (h *JournalHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, days, ok := userAndDays(w, r, services.DefaultHistoryDays)
	if !ok {
		return
	}
	respond.WriteJSON(w, http.StatusOK, h.svc.History(r.Context(), userID, days))
}

// Trends handles GET /api/trends/{userId}?days=30.
func (h *JournalHandler) Trends(w http.ResponseWriter, r *http.Request) {
	userID, days, ok := userAndDays(w, r, services.DefaultTrendDays)
	if !ok {
		return
	}
	respond.WriteJSON(w, http.StatusOK, h.svc.Trends(r.Context(), userID, days))
}

// Stats handles GET /api/stats/{userId}?days=30.
func (h *JournalHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, days, ok := userAndDays(w, r, services.DefaultTrendDays)
	if !ok {
		return
	}
	respond.WriteJSON(w, http.StatusOK, h.svc.MoodStatistics(r.Context(), userID, days))
}

// Similar handles GET /api/similar/{userId}?q=&limit=.
func (h *JournalHandler) Similar(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	q := r.URL.Query().Get("q")
	if err := validate.SimilarQuery(q); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	limit, err := validate.Limit(r.URL.Query().Get("limit"), services.DefaultSimilarTopK, services.MaxSimilarTopK)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	hits := h.svc.Similar(r.Context(), userID, q, limit)
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"query":   q,
		"entries": hits,
		"count":   len(hits),
	})
}

// Reflection handles POST /api/reflection.
func (h *JournalHandler) Reflection(w http.ResponseWriter, r *http.Request) {
	var req model.ReflectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.ReflectionRequest(req); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, h.svc.Reflection(r.Context(), req))
}

// DeleteEntries handles DELETE /api/users/{userId}/entries.
func (h *JournalHandler) DeleteEntries(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if !h.svc.DeleteUserData(r.Context(), userID) {
		respond.WriteError(w, http.StatusServiceUnavailable, "entry store unavailable")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user_id": userID})
}

func userAndDays(w http.ResponseWriter, r *http.Request, def int) (string, int, bool) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return "", 0, false
	}
	days, err := validate.Days(r.URL.Query().Get("days"), def)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return "", 0, false
	}
	return userID, days, true
}
