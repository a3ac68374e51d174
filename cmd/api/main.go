package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/skanda444/VoiceGenie-AI/internal/config"
	"github.com/skanda444/VoiceGenie-AI/internal/handler"
	voiceModel "github.com/skanda444/VoiceGenie-AI/internal/model/voice"
	chatservice "github.com/skanda444/VoiceGenie-AI/internal/service/chat"
	"github.com/skanda444/VoiceGenie-AI/internal/service/completion"
	voiceservice "github.com/skanda444/VoiceGenie-AI/internal/service/voice"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	voiceStore := voiceModel.NewMemoryStore(voiceModel.Seed())
	if _, ok := voiceStore.FindByID(cfg.Voice.DefaultProfile); !ok {
		log.Printf("VOICE_DEFAULT_PROFILE %q is not in the catalog, using %q", cfg.Voice.DefaultProfile, voiceModel.DefaultProfileID)
		cfg.Voice.DefaultProfile = voiceModel.DefaultProfileID
	}

	// The completion client is built even without a key: it answers every
	// prompt with its apology reply until one is configured.
	completer := completion.NewClient(cfg.Completion)
	if cfg.Completion.Configured() {
		log.Println("completion client initialized")
	} else {
		log.Println("OPENAI_API_KEY not set, replies will report the missing key")
	}

	registry := voiceservice.NewRegistry()
	chatSvc := chatservice.NewService(completer, registry, cfg.Voice.SpeechDefault, cfg.Voice.DefaultProfile)
	registry.SetListener(chatSvc.NarrationChanged)

	if cfg.Voice.OpenAIEnabled() {
		log.Printf("narration engine: %s", config.EngineOpenAI)
	} else {
		if cfg.Voice.Engine == config.EngineOpenAI {
			log.Println("VOICE_ENGINE=openai but no API key is set, falling back to the browser engine")
		}
		log.Printf("narration engine: %s", config.EngineBrowser)
	}

	router := handler.NewRouter(voiceStore, chatSvc, registry, cfg.Voice)

	startServer(ctx, cfg.Server, router)
	registry.CloseAll()
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("VoiceGenie backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
