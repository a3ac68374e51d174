package events

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skanda444/VoiceGenie-AI/internal/model/chat"
	chatService "github.com/skanda444/VoiceGenie-AI/internal/service/chat"
	"github.com/skanda444/VoiceGenie-AI/pkg/utils"
)

// Handler streams a session's event feed over Server-Sent Events.
type Handler struct {
	chatSvc *chatService.Service
}

// New creates an events handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{
		chatSvc: chatSvc,
	}
}

// RegisterRoutes registers the event feed route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/session/{sessionID}/events", h.handleEvents)
}

// handleEvents serves one event feed connection. The stream opens with the
// current state snapshot so the client paints correctly before the next
// change, then relays messages, state updates and notices as they happen.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, cancel, err := h.chatSvc.Subscribe(sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	defer cancel()

	utils.SetupSSEHeaders(w)

	state, err := h.chatSvc.Snapshot(r.Context(), sessionID)
	if err == nil {
		utils.SendSSEEvent(w, flusher, string(chat.EventState), state)
	}

	ctx := r.Context()
	log.Printf("[events] stream opened session=%s", sessionID)

	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[events] stream closed session=%s", sessionID)
			return
		case t := <-ticker.C:
			utils.SendSSEChunk(w, flusher, map[string]any{
				"event": "heartbeat",
				"time":  t.UTC().Format(time.RFC3339),
			})
		case ev, open := <-events:
			if !open {
				return
			}
			sendEvent(w, flusher, ev)
		}
	}
}

func sendEvent(w http.ResponseWriter, flusher http.Flusher, ev chat.Event) {
	switch ev.Kind {
	case chat.EventMessage:
		utils.SendSSEEvent(w, flusher, string(chat.EventMessage), ev.Message)
	case chat.EventState:
		utils.SendSSEEvent(w, flusher, string(chat.EventState), ev.State)
	case chat.EventNotice:
		utils.SendSSEEvent(w, flusher, string(chat.EventNotice), map[string]string{"text": ev.Notice})
	}
}
