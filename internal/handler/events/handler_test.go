package events

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skanda444/VoiceGenie-AI/internal/model/chat"
	chatservice "github.com/skanda444/VoiceGenie-AI/internal/service/chat"
)

type stubCompleter struct {
	reply string
}

func (c *stubCompleter) Complete(_ context.Context, _ string) (string, error) {
	return c.reply, nil
}

type stubNarrator struct{}

func (stubNarrator) Speak(string, string) {}
func (stubNarrator) Stop(string)          {}

func TestEventsStreamRelaysConversation(t *testing.T) {
	chatSvc := chatservice.NewService(&stubCompleter{reply: "All good."}, stubNarrator{}, false, "")
	session, err := chatSvc.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	handler := New(chatSvc)
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/session/"+session.ID+"/events", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	// Events are buffered per subscriber, so submitting after the opening
	// state event cannot outrun the stream.
	scanner := bufio.NewScanner(resp.Body)
	var current string
	var submitted, sawUser, sawAI bool
	for scanner.Scan() && !(sawUser && sawAI) {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data := strings.TrimPrefix(line, "data: ")
			switch current {
			case "state":
				if !submitted {
					submitted = true
					if _, err := chatSvc.Submit(context.Background(), session.ID, "Hello stream"); err != nil {
						t.Fatalf("Submit err: %v", err)
					}
				}
			case "message":
				var msg chat.Message
				if err := json.Unmarshal([]byte(data), &msg); err != nil {
					t.Fatalf("decode message: %v", err)
				}
				switch msg.Role {
				case chat.RoleUser:
					if msg.Content != "Hello stream" {
						t.Fatalf("unexpected user message %q", msg.Content)
					}
					sawUser = true
				case chat.RoleAI:
					if msg.Content != "All good." {
						t.Fatalf("unexpected reply %q", msg.Content)
					}
					sawAI = true
				}
			}
		}
	}
	if !sawUser || !sawAI {
		t.Fatalf("stream missed events: user=%v ai=%v", sawUser, sawAI)
	}
}

func TestEventsUnknownSession(t *testing.T) {
	chatSvc := chatservice.NewService(&stubCompleter{reply: "x"}, stubNarrator{}, false, "")
	handler := New(chatSvc)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/session/missing/events", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
