package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	modelchat "github.com/skanda444/VoiceGenie-AI/internal/model/chat"
	"github.com/skanda444/VoiceGenie-AI/internal/model/voice"
	chatservice "github.com/skanda444/VoiceGenie-AI/internal/service/chat"
)

type stubCompleter struct {
	mu    sync.Mutex
	reply string
	block chan struct{}
}

func (c *stubCompleter) Complete(_ context.Context, _ string) (string, error) {
	c.mu.Lock()
	block := c.block
	reply := c.reply
	c.mu.Unlock()
	if block != nil {
		<-block
	}
	return reply, nil
}

type stubNarrator struct{}

func (stubNarrator) Speak(string, string) {}
func (stubNarrator) Stop(string)          {}

func setupRouter(completer chatservice.Completer) *chi.Mux {
	chatSvc := chatservice.NewService(completer, stubNarrator{}, false, "")
	store := voice.NewMemoryStore(voice.Seed())
	handler := New(chatSvc, store)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func createSession(t *testing.T, r *chi.Mux, body string) modelchat.Session {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var session modelchat.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return session
}

func TestCreateSessionDefaultsVoice(t *testing.T) {
	r := setupRouter(&stubCompleter{reply: "hi"})

	session := createSession(t, r, `{}`)
	if session.VoiceID != voice.DefaultProfileID {
		t.Fatalf("expected default voice, got %q", session.VoiceID)
	}
	if session.ID == "" {
		t.Fatal("expected a session ID")
	}
}

func TestCreateSessionKnownVoice(t *testing.T) {
	r := setupRouter(&stubCompleter{reply: "hi"})

	session := createSession(t, r, `{"voiceId":"calm"}`)
	if session.VoiceID != "calm" {
		t.Fatalf("expected calm voice, got %q", session.VoiceID)
	}
}

func TestCreateSessionConfiguredDefaultVoice(t *testing.T) {
	chatSvc := chatservice.NewService(&stubCompleter{reply: "hi"}, stubNarrator{}, false, "calm")
	handler := New(chatSvc, voice.NewMemoryStore(voice.Seed()))

	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	session := createSession(t, r, `{}`)
	if session.VoiceID != "calm" {
		t.Fatalf("expected configured default voice calm, got %q", session.VoiceID)
	}
}

func TestCreateSessionUnknownVoice(t *testing.T) {
	r := setupRouter(&stubCompleter{reply: "hi"})

	payload := []byte(`{"voiceId":"non-existent"}`)
	req := httptest.NewRequest(http.MethodPost, "/session", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSubmitRoundTrip(t *testing.T) {
	r := setupRouter(&stubCompleter{reply: "The capital is Paris."})
	session := createSession(t, r, `{}`)

	payload := []byte(`{"text":"What is the capital of France?"}`)
	req := httptest.NewRequest(http.MethodPost, "/session/"+session.ID+"/messages", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var reply modelchat.Message
	if err := json.Unmarshal(resp.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply.Role != modelchat.RoleAI {
		t.Fatalf("expected ai reply, got role %q", reply.Role)
	}
	if reply.Content != "The capital is Paris." {
		t.Fatalf("unexpected reply content %q", reply.Content)
	}

	req = httptest.NewRequest(http.MethodGet, "/session/"+session.ID+"/messages", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var messages []modelchat.Message
	if err := json.Unmarshal(resp.Body.Bytes(), &messages); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != modelchat.RoleUser || messages[1].Role != modelchat.RoleAI {
		t.Fatalf("unexpected roles %q, %q", messages[0].Role, messages[1].Role)
	}
}

func TestSubmitEmptyTextRejected(t *testing.T) {
	r := setupRouter(&stubCompleter{reply: "hi"})
	session := createSession(t, r, `{}`)

	payload := []byte(`{"text":"   "}`)
	req := httptest.NewRequest(http.MethodPost, "/session/"+session.ID+"/messages", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/session/"+session.ID+"/state", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var state modelchat.State
	if err := json.Unmarshal(resp.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.TransientError != chatservice.ValidationMessage {
		t.Fatalf("expected validation notice, got %q", state.TransientError)
	}
}

func TestSubmitUnknownSession(t *testing.T) {
	r := setupRouter(&stubCompleter{reply: "hi"})

	payload := []byte(`{"text":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/session/no-such-session/messages", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestSubmitWhilePendingConflicts(t *testing.T) {
	completer := &stubCompleter{reply: "slow reply", block: make(chan struct{})}
	r := setupRouter(completer)
	session := createSession(t, r, `{}`)

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		payload := []byte(`{"text":"first"}`)
		req := httptest.NewRequest(http.MethodPost, "/session/"+session.ID+"/messages", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}()

	// Wait until the first submission is mid-flight.
	deadline := time.Now().Add(2 * time.Second)
	for {
		req := httptest.NewRequest(http.MethodGet, "/session/"+session.ID+"/state", nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)

		var state modelchat.State
		if err := json.Unmarshal(resp.Body.Bytes(), &state); err != nil {
			t.Fatalf("decode state: %v", err)
		}
		if state.Awaiting {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("first submission never reached the awaiting state")
		}
		time.Sleep(time.Millisecond)
	}

	payload := []byte(`{"text":"second"}`)
	req := httptest.NewRequest(http.MethodPost, "/session/"+session.ID+"/messages", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}

	close(completer.block)
	<-firstDone
}

func TestSpeechToggle(t *testing.T) {
	r := setupRouter(&stubCompleter{reply: "hi"})
	session := createSession(t, r, `{}`)

	payload := []byte(`{"enabled":true}`)
	req := httptest.NewRequest(http.MethodPut, "/session/"+session.ID+"/speech", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var state modelchat.State
	if err := json.Unmarshal(resp.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if !state.SpeechEnabled {
		t.Fatal("expected speech to be enabled")
	}
}

func TestSpeechToggleMissingFlag(t *testing.T) {
	r := setupRouter(&stubCompleter{reply: "hi"})
	session := createSession(t, r, `{}`)

	req := httptest.NewRequest(http.MethodPut, "/session/"+session.ID+"/speech", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestStopNarration(t *testing.T) {
	r := setupRouter(&stubCompleter{reply: "hi"})
	session := createSession(t, r, `{}`)

	req := httptest.NewRequest(http.MethodPost, "/session/"+session.ID+"/speech/stop", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestGetSessionUnknown(t *testing.T) {
	r := setupRouter(&stubCompleter{reply: "hi"})

	req := httptest.NewRequest(http.MethodGet, "/session/missing", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
