package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skanda444/VoiceGenie-AI/internal/model/chat"
	"github.com/skanda444/VoiceGenie-AI/internal/model/voice"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyInput      = errors.New("message text is required")
	ErrBusy            = errors.New("a reply is still pending for this session")
)

// Transient notices surfaced to the user and cleared on a timer.
const (
	// ValidationMessage is shown when an empty submission is rejected.
	ValidationMessage = "Please enter a message"
	// FailureMessage is shown when a submission fails outright instead of
	// resolving to reply text.
	FailureMessage = "Failed to get response. Please try again."
)

// Completer resolves one user utterance to reply text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Narrator reads reply text aloud on behalf of a session.
type Narrator interface {
	Speak(sessionID, text string)
	Stop(sessionID string)
}

// session is the engine-internal record for one conversation.
type session struct {
	info           chat.Session
	messages       []chat.Message
	lastMessageID  int64
	awaiting       bool
	narrating      bool
	speechEnabled  bool
	transientError string
	noticeSeq      uint64
	subs           map[int]chan chat.Event
	nextSub        int
}

// Service drives every live conversation: the append-only message store,
// the submit state machine and the per-session event feed.
type Service struct {
	mu        sync.RWMutex
	sessions  map[string]*session
	completer Completer
	narrator  Narrator

	speechDefault bool
	defaultVoice  string

	// Timings are fixed in production; tests shorten them.
	validationTTL  time.Duration
	failureTTL     time.Duration
	narrationDelay time.Duration
}

// NewService bootstraps the in-memory conversation engine. defaultVoice is
// the profile assigned to sessions created without one; empty falls back to
// the catalog default.
func NewService(completer Completer, narrator Narrator, speechDefault bool, defaultVoice string) *Service {
	if defaultVoice == "" {
		defaultVoice = voice.DefaultProfileID
	}
	return &Service{
		sessions:       make(map[string]*session),
		completer:      completer,
		narrator:       narrator,
		speechDefault:  speechDefault,
		defaultVoice:   defaultVoice,
		validationTTL:  3 * time.Second,
		failureTTL:     5 * time.Second,
		narrationDelay: 100 * time.Millisecond,
	}
}

// CreateSession provisions an anonymous conversation bound to a narration
// profile. An empty voiceID selects the service's default profile.
func (s *Service) CreateSession(_ context.Context, voiceID string) (chat.Session, error) {
	if voiceID == "" {
		voiceID = s.defaultVoice
	}

	info := chat.Session{
		ID:        uuid.NewString(),
		VoiceID:   voiceID,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[info.ID] = &session{
		info:          info,
		messages:      make([]chat.Message, 0, 16),
		speechEnabled: s.speechDefault,
		subs:          make(map[int]chan chat.Event),
	}
	s.mu.Unlock()

	log.Printf("[chat] session created id=%s voice=%s", info.ID, voiceID)
	return info, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return sess.info, nil
}

// Transcript returns the conversation so far, in insertion order.
func (s *Service) Transcript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(sess.messages))
	copy(copied, sess.messages)
	return copied, nil
}

// Snapshot reports the session's observable flags.
func (s *Service) Snapshot(_ context.Context, sessionID string) (chat.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return chat.State{}, ErrSessionNotFound
	}
	return stateOf(sess), nil
}

// Submit runs one conversation turn: the user text is appended immediately,
// the completer resolves it to reply text, and the reply is appended as the
// "ai" message. The returned message is the reply.
//
// Empty input never touches the store; it surfaces a transient validation
// notice and ErrEmptyInput. While a reply is pending the session rejects
// further submissions with ErrBusy. The message store itself never enforces
// that exclusion.
func (s *Service) Submit(ctx context.Context, sessionID, input string) (chat.Message, error) {
	trimmed := strings.TrimSpace(input)

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return chat.Message{}, ErrSessionNotFound
	}
	if trimmed == "" {
		s.raiseNoticeLocked(sess, ValidationMessage, s.validationTTL)
		s.mu.Unlock()
		return chat.Message{}, ErrEmptyInput
	}
	if sess.awaiting {
		s.mu.Unlock()
		return chat.Message{}, ErrBusy
	}

	s.clearNoticeLocked(sess)
	sess.awaiting = true
	userMsg := s.appendLocked(sess, chat.RoleUser, trimmed)
	s.publishLocked(sess, messageEvent(userMsg))
	s.publishLocked(sess, stateEvent(sess))
	s.mu.Unlock()

	// The conversation stays readable and controllable while the round
	// trip is in flight; only further submissions are held off.
	reply, err := s.completer.Complete(ctx, trimmed)

	s.mu.Lock()
	sess.awaiting = false
	if err != nil {
		// Completer implementations fold their failures into reply
		// text, so this path only fires for genuinely unexpected
		// errors.
		log.Printf("[chat] completion failed session=%s: %v", sessionID, err)
		s.raiseNoticeLocked(sess, FailureMessage, s.failureTTL)
		s.publishLocked(sess, stateEvent(sess))
		s.mu.Unlock()
		return chat.Message{}, fmt.Errorf("complete: %w", err)
	}

	aiMsg := s.appendLocked(sess, chat.RoleAI, reply)
	narrate := sess.speechEnabled
	s.publishLocked(sess, messageEvent(aiMsg))
	s.publishLocked(sess, stateEvent(sess))
	s.mu.Unlock()

	if narrate {
		s.scheduleNarration(sessionID, reply)
	}
	return aiMsg, nil
}

// scheduleNarration starts narration after a short pause so the reply is
// painted before speech begins. The speech toggle is consulted again when
// the pause elapses.
func (s *Service) scheduleNarration(sessionID, text string) {
	time.AfterFunc(s.narrationDelay, func() {
		s.mu.RLock()
		sess, ok := s.sessions[sessionID]
		enabled := ok && sess.speechEnabled
		s.mu.RUnlock()
		if enabled {
			s.narrator.Speak(sessionID, text)
		}
	})
}

// SetSpeechEnabled flips the narration toggle. Disabling it does not stop
// narration already in progress.
func (s *Service) SetSpeechEnabled(_ context.Context, sessionID string, enabled bool) (chat.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return chat.State{}, ErrSessionNotFound
	}
	if sess.speechEnabled != enabled {
		sess.speechEnabled = enabled
		s.publishLocked(sess, stateEvent(sess))
	}
	return stateOf(sess), nil
}

// StopNarration silences the session immediately.
func (s *Service) StopNarration(_ context.Context, sessionID string) error {
	s.mu.RLock()
	_, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	// Called without the lock held: the narrator reports the resulting
	// state change back through NarrationChanged.
	s.narrator.Stop(sessionID)
	return nil
}

// NarrationChanged folds the narration controller's state into the session
// snapshot and event feed.
func (s *Service) NarrationChanged(sessionID string, narrating bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.narrating == narrating {
		return
	}
	sess.narrating = narrating
	s.publishLocked(sess, stateEvent(sess))
}

// Subscribe attaches a listener to the session's event feed. The returned
// cancel function detaches it; events that arrive while the listener's
// buffer is full are dropped, never blocking the engine.
func (s *Service) Subscribe(sessionID string) (<-chan chat.Event, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil, ErrSessionNotFound
	}

	id := sess.nextSub
	sess.nextSub++
	ch := make(chan chat.Event, 16)
	sess.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := sess.subs[id]; ok {
			delete(sess.subs, id)
			close(ch)
		}
	}
	return ch, cancel, nil
}

// appendLocked is the store's only mutation: messages are immutable once
// appended and the sequence only grows. IDs derive from the creation time,
// bumped when two appends land on the same millisecond.
func (s *Service) appendLocked(sess *session, role chat.Role, content string) chat.Message {
	now := time.Now().UTC()
	id := now.UnixMilli()
	if id <= sess.lastMessageID {
		id = sess.lastMessageID + 1
	}
	sess.lastMessageID = id

	msg := chat.Message{
		ID:        id,
		SessionID: sess.info.ID,
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}
	sess.messages = append(sess.messages, msg)
	return msg
}

// raiseNoticeLocked surfaces a transient notice and schedules its removal.
// A later notice supersedes the pending removal of an earlier one.
func (s *Service) raiseNoticeLocked(sess *session, text string, ttl time.Duration) {
	sess.transientError = text
	sess.noticeSeq++
	seq := sess.noticeSeq
	sessionID := sess.info.ID

	s.publishLocked(sess, chat.Event{Kind: chat.EventNotice, Notice: text})
	s.publishLocked(sess, stateEvent(sess))

	time.AfterFunc(ttl, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		sess, ok := s.sessions[sessionID]
		if !ok || sess.noticeSeq != seq {
			return
		}
		sess.transientError = ""
		s.publishLocked(sess, stateEvent(sess))
	})
}

func (s *Service) clearNoticeLocked(sess *session) {
	sess.noticeSeq++
	sess.transientError = ""
}

// publishLocked fans an event out to the session's subscribers without ever
// blocking on a slow one.
func (s *Service) publishLocked(sess *session, ev chat.Event) {
	for _, ch := range sess.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func stateOf(sess *session) chat.State {
	return chat.State{
		Awaiting:       sess.awaiting,
		Narrating:      sess.narrating,
		SpeechEnabled:  sess.speechEnabled,
		TransientError: sess.transientError,
		Messages:       len(sess.messages),
	}
}

func messageEvent(msg chat.Message) chat.Event {
	return chat.Event{Kind: chat.EventMessage, Message: &msg}
}

func stateEvent(sess *session) chat.Event {
	state := stateOf(sess)
	return chat.Event{Kind: chat.EventState, State: &state}
}
