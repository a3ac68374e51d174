package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skanda444/VoiceGenie-AI/internal/model/voice"
	chatService "github.com/skanda444/VoiceGenie-AI/internal/service/chat"
)

// Handler serves the session REST surface.
type Handler struct {
	chatSvc *chatService.Service
	voices  voice.Store
}

// New creates a chat handler.
func New(chatSvc *chatService.Service, voices voice.Store) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		voices:  voices,
	}
}

// RegisterRoutes registers session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Get("/session/{sessionID}/state", h.handleGetState)
	r.Get("/session/{sessionID}/messages", h.handleListMessages)
	r.Post("/session/{sessionID}/messages", h.handleSubmitMessage)
	r.Put("/session/{sessionID}/speech", h.handleSetSpeech)
	r.Post("/session/{sessionID}/speech/stop", h.handleStopNarration)
}

// handleCreateSession opens a fresh conversation.
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		VoiceID string `json:"voiceId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// An omitted voiceId lets the engine assign its configured default.
	if payload.VoiceID != "" {
		if _, ok := h.voices.FindByID(payload.VoiceID); !ok {
			respondError(w, http.StatusBadRequest, "voice profile not found")
			return
		}
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.VoiceID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

// handleGetSession returns the session record.
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// handleGetState returns the current interaction state.
func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	state, err := h.chatSvc.Snapshot(r.Context(), sessionID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// handleListMessages returns the full transcript in order.
func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	messages, err := h.chatSvc.Transcript(r.Context(), sessionID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, messages)
}

// handleSubmitMessage runs one user turn and returns the reply message.
func (h *Handler) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Text string `json:"text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.chatSvc.Submit(r.Context(), sessionID, payload.Text)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, reply)
}

// handleSetSpeech toggles narration of future replies.
func (h *Handler) handleSetSpeech(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Enabled *bool `json:"enabled"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.Enabled == nil {
		respondError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	state, err := h.chatSvc.SetSpeechEnabled(r.Context(), sessionID, *payload.Enabled)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// handleStopNarration cuts off any in-progress narration.
func (h *Handler) handleStopNarration(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.chatSvc.StopNarration(r.Context(), sessionID); err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// statusForError maps service errors onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatService.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, chatService.ErrBusy):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
