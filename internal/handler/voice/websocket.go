package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/skanda444/VoiceGenie-AI/internal/config"
	"github.com/skanda444/VoiceGenie-AI/internal/model/chat"
	voicemodel "github.com/skanda444/VoiceGenie-AI/internal/model/voice"
	chatservice "github.com/skanda444/VoiceGenie-AI/internal/service/chat"
	voiceservice "github.com/skanda444/VoiceGenie-AI/internal/service/voice"
)

// WebSocketHandler runs the per-session voice channel: conversation events
// flow out, typed or transcribed input flows in, and narration crosses in
// whichever direction the configured engine requires.
type WebSocketHandler struct {
	chatSvc  *chatservice.Service
	registry *voiceservice.Registry
	voices   voicemodel.Store
	cfg      config.VoiceConfig
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates the voice channel handler.
func NewWebSocketHandler(chatSvc *chatservice.Service, registry *voiceservice.Registry, voices voicemodel.Store, cfg config.VoiceConfig) *WebSocketHandler {
	return &WebSocketHandler{
		chatSvc:  chatSvc,
		registry: registry,
		voices:   voices,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes registers the voice channel route.
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundEnvelope struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

type outboundEnvelope struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// SubmitMessage carries typed input for one conversation turn.
type SubmitMessage struct {
	Text string `json:"text"`
}

// TranscriptMessage carries speech-recognition output. Interim transcripts
// are a display concern of the client; only the final one is submitted.
type TranscriptMessage struct {
	Text       string  `json:"text"`
	IsFinal    bool    `json:"isFinal"`
	Confidence float64 `json:"confidence,omitempty"`
}

// SpeechMessage toggles narration of future replies.
type SpeechMessage struct {
	Enabled *bool `json:"enabled"`
}

// NarrationMessage reports a browser-engine utterance lifecycle event.
type NarrationMessage struct {
	UtteranceID string `json:"utteranceId"`
	Event       string `json:"event"`
	Detail      string `json:"detail,omitempty"`
}

// bridge is one client's voice channel. gorilla/websocket allows a single
// concurrent writer, and the read loop, the event pump, the ping loop and
// the synthesis engine all write, so every send goes through the mutex.
type bridge struct {
	sessionID string

	mu   sync.Mutex
	conn *websocket.Conn
}

func (b *bridge) send(msgType string, data interface{}) error {
	msg := outboundEnvelope{
		Type:      msgType,
		SessionID: b.sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn.WriteJSON(msg)
}

func (b *bridge) sendOrLog(msgType string, data interface{}) {
	if err := b.send(msgType, data); err != nil {
		log.Printf("[voice-ws] write %s failed session=%s: %v", msgType, b.sessionID, err)
	}
}

func (b *bridge) sendError(message string) {
	b.sendOrLog("error", map[string]string{"message": message})
}

func (b *bridge) ping() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn.WriteMessage(websocket.PingMessage, nil)
}

// browserEngine narrates through the connected client: each utterance is
// handed to the browser's own speech synthesis, which reports lifecycle
// events back as narration messages.
type browserEngine struct {
	bridge *bridge
}

func (e *browserEngine) Speak(utt voicemodel.Utterance) error {
	return e.bridge.send("speak", utt)
}

func (e *browserEngine) Cancel() {
	e.bridge.sendOrLog("cancel", nil)
}

// bridgeSink delivers server-rendered audio down the voice channel.
type bridgeSink struct {
	bridge *bridge
}

func (s *bridgeSink) DeliverAudio(utteranceID string, audio []byte, format string) error {
	return s.bridge.send("audio", map[string]interface{}{
		"utteranceId": utteranceID,
		"audioData":   base64.StdEncoding.EncodeToString(audio),
		"format":      format,
	})
}

// handleWebSocket serves one voice channel connection.
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	profile, ok := h.voices.FindByID(session.VoiceID)
	if !ok {
		http.Error(w, "voice profile not found", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[voice-ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[voice-ws] new connection session=%s profile=%s", sessionID, profile.ID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	b := &bridge{sessionID: sessionID, conn: conn}
	go h.pingLoop(ctx, b)

	events, cancelSub, err := h.chatSvc.Subscribe(sessionID)
	if err != nil {
		b.sendError(err.Error())
		return
	}
	defer cancelSub()
	go pumpEvents(b, events)

	ctrl := h.registry.Attach(sessionID, profile, h.newEngine(b))
	defer h.registry.Detach(sessionID, ctrl)

	state, err := h.chatSvc.Snapshot(ctx, sessionID)
	if err != nil {
		b.sendError(err.Error())
		return
	}
	b.sendOrLog("ready", map[string]interface{}{
		"session": session,
		"voice":   profile,
		"state":   state,
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg inboundEnvelope
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[voice-ws] read error: %v", err)
				}
				return
			}

			conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			if msg.SessionID != "" && msg.SessionID != sessionID {
				b.sendError("session mismatch")
				continue
			}

			h.handleMessage(ctx, b, &msg)
		}
	}
}

// newEngine picks the synthesis engine for a connection. With OpenAI
// narration configured the server renders audio and streams it down the
// channel; otherwise the browser's own speech synthesis narrates.
func (h *WebSocketHandler) newEngine(b *bridge) voiceservice.Synthesizer {
	if h.cfg.OpenAIEnabled() {
		notify := func(utteranceID string, kind voicemodel.NotificationKind, detail string) {
			h.registry.Notify(b.sessionID, utteranceID, kind, detail)
		}
		return voiceservice.NewOpenAISynthesizer(h.cfg, &bridgeSink{bridge: b}, notify)
	}
	return &browserEngine{bridge: b}
}

// pumpEvents relays the session's event feed onto the voice channel until
// the subscription is canceled.
func pumpEvents(b *bridge, events <-chan chat.Event) {
	for ev := range events {
		switch ev.Kind {
		case chat.EventMessage:
			b.sendOrLog("message", ev.Message)
		case chat.EventState:
			b.sendOrLog("state", ev.State)
		case chat.EventNotice:
			b.sendOrLog("notice", map[string]string{"text": ev.Notice})
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, b *bridge, msg *inboundEnvelope) {
	switch msg.Type {
	case "submit":
		h.handleSubmit(ctx, b, msg.Data)
	case "transcript":
		h.handleTranscript(ctx, b, msg.Data)
	case "speech":
		h.handleSpeechToggle(ctx, b, msg.Data)
	case "stop":
		h.handleStop(ctx, b)
	case "narration":
		h.handleNarration(b, msg.Data)
	default:
		b.sendError("unsupported message type: " + msg.Type)
	}
}

// handleSubmit runs one conversation turn.
func (h *WebSocketHandler) handleSubmit(ctx context.Context, b *bridge, raw json.RawMessage) {
	var payload SubmitMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		b.sendError("invalid submit payload")
		return
	}

	h.submitText(ctx, b, payload.Text)
}

// submitText resolves a turn asynchronously so the read loop keeps serving
// stop and narration messages while the completion round trip is in flight.
// Results arrive through the event feed.
func (h *WebSocketHandler) submitText(ctx context.Context, b *bridge, text string) {
	go func() {
		if _, err := h.chatSvc.Submit(ctx, b.sessionID, text); err != nil {
			log.Printf("[voice-ws] submit failed session=%s: %v", b.sessionID, err)
			b.sendError(err.Error())
		}
	}()
}

// handleTranscript feeds recognized speech into the conversation, down the
// same submission path as typed text.
func (h *WebSocketHandler) handleTranscript(ctx context.Context, b *bridge, raw json.RawMessage) {
	var payload TranscriptMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		b.sendError("invalid transcript payload")
		return
	}
	if !payload.IsFinal || payload.Text == "" {
		return
	}

	h.submitText(ctx, b, payload.Text)
}

func (h *WebSocketHandler) handleSpeechToggle(ctx context.Context, b *bridge, raw json.RawMessage) {
	var payload SpeechMessage
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Enabled == nil {
		b.sendError("invalid speech payload")
		return
	}

	if _, err := h.chatSvc.SetSpeechEnabled(ctx, b.sessionID, *payload.Enabled); err != nil {
		b.sendError(err.Error())
	}
}

func (h *WebSocketHandler) handleStop(ctx context.Context, b *bridge) {
	if err := h.chatSvc.StopNarration(ctx, b.sessionID); err != nil {
		b.sendError(err.Error())
	}
}

// handleNarration applies the browser engine's utterance lifecycle reports.
func (h *WebSocketHandler) handleNarration(b *bridge, raw json.RawMessage) {
	var payload NarrationMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		b.sendError("invalid narration payload")
		return
	}

	kind := voicemodel.NotificationKind(payload.Event)
	switch kind {
	case voicemodel.NotifyStart, voicemodel.NotifyEnd, voicemodel.NotifyError:
	default:
		b.sendError("unsupported narration event: " + payload.Event)
		return
	}

	h.registry.Notify(b.sessionID, payload.UtteranceID, kind, payload.Detail)
}

// pingLoop periodically pings the client.
func (h *WebSocketHandler) pingLoop(ctx context.Context, b *bridge) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.ping(); err != nil {
				return
			}
		}
	}
}
