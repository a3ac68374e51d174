package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/skanda444/VoiceGenie-AI/internal/config"
	"github.com/skanda444/VoiceGenie-AI/internal/handler/chat"
	"github.com/skanda444/VoiceGenie-AI/internal/handler/events"
	"github.com/skanda444/VoiceGenie-AI/internal/handler/voice"
	middlewarePkg "github.com/skanda444/VoiceGenie-AI/internal/middleware"
	voiceModel "github.com/skanda444/VoiceGenie-AI/internal/model/voice"
	chatService "github.com/skanda444/VoiceGenie-AI/internal/service/chat"
	voiceService "github.com/skanda444/VoiceGenie-AI/internal/service/voice"
	"github.com/skanda444/VoiceGenie-AI/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(voices voiceModel.Store, chatSvc *chatService.Service, registry *voiceService.Registry, voiceCfg config.VoiceConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	// Create handlers
	chatHandler := chat.New(chatSvc, voices)
	voiceHandler := voice.New(voices)
	eventsHandler := events.New(chatSvc)
	wsHandler := voice.NewWebSocketHandler(chatSvc, registry, voices, voiceCfg)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", handleHealth)

		// Register session routes
		chatHandler.RegisterRoutes(api)

		// Register the event feed
		eventsHandler.RegisterRoutes(api)

		// Register the voice catalog and the voice channel
		voiceHandler.RegisterRoutes(api)
		api.Route("/voice", func(vr chi.Router) {
			wsHandler.RegisterWebSocketRoutes(vr)
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "voicegenie",
	})
}
