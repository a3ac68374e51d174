package voice

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skanda444/VoiceGenie-AI/internal/model/voice"
)

// Handler serves the narration profile catalog.
type Handler struct {
	voices voice.Store
}

// New creates a voice handler.
func New(voices voice.Store) *Handler {
	return &Handler{
		voices: voices,
	}
}

// RegisterRoutes registers catalog routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/voices", h.handleListVoices)
}

// handleListVoices lists the narration profiles a session can bind to.
func (h *Handler) handleListVoices(w http.ResponseWriter, r *http.Request) {
	profiles := h.voices.List()
	h.respondJSON(w, http.StatusOK, profiles)
}

// respondJSON sends a JSON response.
func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
