package voice

import (
	"log"
	"sync"

	"github.com/skanda444/VoiceGenie-AI/internal/model/voice"
)

// Registry tracks which synthesis engine serves each session. It is the
// conversation engine's narrator: a session with no attached engine has no
// speech capability, so narration requests for it are dropped.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Controller
	listener func(sessionID string, narrating bool)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Controller)}
}

// SetListener registers the observer for narration state changes. Wire it
// before any session attaches.
func (r *Registry) SetListener(fn func(sessionID string, narrating bool)) {
	r.mu.Lock()
	r.listener = fn
	r.mu.Unlock()
}

func (r *Registry) emit(sessionID string, narrating bool) {
	r.mu.RLock()
	listener := r.listener
	r.mu.RUnlock()
	if listener != nil {
		listener(sessionID, narrating)
	}
}

// Attach binds an engine to a session and returns its controller. An engine
// attached earlier is silenced and replaced: a reconnecting tab supersedes
// its previous channel.
func (r *Registry) Attach(sessionID string, profile voice.Profile, engine Synthesizer) *Controller {
	ctrl := NewController(profile, engine, func(narrating bool) {
		r.emit(sessionID, narrating)
	})

	r.mu.Lock()
	old := r.sessions[sessionID]
	r.sessions[sessionID] = ctrl
	r.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	log.Printf("[voice] engine attached session=%s profile=%s", sessionID, profile.ID)
	return ctrl
}

// Detach removes a session's controller, but only if it still is the one
// returned by the matching Attach; a newer attachment stays in place.
func (r *Registry) Detach(sessionID string, ctrl *Controller) {
	r.mu.Lock()
	current, ok := r.sessions[sessionID]
	if ok && current == ctrl {
		delete(r.sessions, sessionID)
	} else {
		ok = false
	}
	r.mu.Unlock()

	if ok {
		ctrl.Stop()
		log.Printf("[voice] engine detached session=%s", sessionID)
	}
}

// Speak narrates text for a session. Without an attached engine this is a
// no-op.
func (r *Registry) Speak(sessionID, text string) {
	ctrl, ok := r.controller(sessionID)
	if !ok {
		log.Printf("[voice] no engine for session=%s, narration skipped", sessionID)
		return
	}
	ctrl.Speak(text)
}

// Stop silences a session immediately.
func (r *Registry) Stop(sessionID string) {
	if ctrl, ok := r.controller(sessionID); ok {
		ctrl.Stop()
	}
}

// Notify routes an engine lifecycle report to the session's controller.
// Reports for a session with no attachment are dropped.
func (r *Registry) Notify(sessionID, utteranceID string, kind voice.NotificationKind, detail string) {
	if ctrl, ok := r.controller(sessionID); ok {
		ctrl.Notify(utteranceID, kind, detail)
	}
}

// CloseAll silences and detaches every session, for shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	ctrls := make([]*Controller, 0, len(r.sessions))
	for id, ctrl := range r.sessions {
		ctrls = append(ctrls, ctrl)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, ctrl := range ctrls {
		ctrl.Stop()
	}
}

func (r *Registry) controller(sessionID string) (*Controller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctrl, ok := r.sessions[sessionID]
	return ctrl, ok
}
