package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skanda444/VoiceGenie-AI/internal/model/chat"
)

type envelope struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	server := flag.String("server", "http://localhost:8080", "backend base URL")
	text := flag.String("text", "", "message text to submit")
	voiceID := flag.String("voice", "", "narration profile ID, empty for the server default")
	sessionID := flag.String("session", "", "existing session ID, empty to create one")
	speech := flag.Bool("speech", false, "enable narration before submitting")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	linger := flag.Duration("linger", 3*time.Second, "how long to keep listening after the reply")

	flag.Parse()

	if strings.TrimSpace(*text) == "" {
		flag.Usage()
		log.Fatal("provide the message text with -text")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	id := *sessionID
	if id == "" {
		created, err := createSession(ctx, *server, *voiceID)
		if err != nil {
			log.Fatalf("create session failed: %v", err)
		}
		id = created
		log.Printf("session created: %s", id)
	}

	wsURL := "ws" + strings.TrimPrefix(*server, "http") + "/api/voice/ws/" + id
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		log.Fatalf("dial %s failed: %v", wsURL, err)
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	conn.SetReadDeadline(deadline)

	var ready envelope
	if err := conn.ReadJSON(&ready); err != nil {
		log.Fatalf("read ready failed: %v", err)
	}
	log.Printf("<- %s %s", ready.Type, ready.Data)

	if *speech {
		if err := send(conn, "speech", map[string]bool{"enabled": true}); err != nil {
			log.Fatalf("enable narration failed: %v", err)
		}
		log.Print("-> speech enabled")
	}

	if err := send(conn, "submit", map[string]string{"text": *text}); err != nil {
		log.Fatalf("submit failed: %v", err)
	}
	log.Printf("-> submit %q", *text)

	listen(conn, deadline, *linger)
}

func createSession(ctx context.Context, server, voiceID string) (string, error) {
	payload, err := json.Marshal(map[string]string{"voiceId": voiceID})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server+"/api/session", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var session struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", err
	}
	return session.ID, nil
}

func send(conn *websocket.Conn, msgType string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return conn.WriteJSON(envelope{Type: msgType, Data: payload, Timestamp: time.Now().Unix()})
}

// listen prints envelopes until the deadline, trimming it down once the
// reply has arrived so narration traffic still shows up.
func listen(conn *websocket.Conn, deadline time.Time, linger time.Duration) {
	for {
		conn.SetReadDeadline(deadline)

		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			log.Printf("listener done: %v", err)
			return
		}
		log.Printf("<- %s %s", env.Type, env.Data)

		if env.Type != "message" {
			continue
		}
		var msg chat.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			continue
		}
		log.Printf("   [%s] %s: %s", msg.Clock(), msg.Role, msg.Content)
		if msg.Role == chat.RoleAI {
			if lingered := time.Now().Add(linger); lingered.Before(deadline) {
				deadline = lingered
			}
		}
	}
}
