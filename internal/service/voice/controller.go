package voice

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/skanda444/VoiceGenie-AI/internal/analysis/narration"
	"github.com/skanda444/VoiceGenie-AI/internal/model/voice"
)

// Synthesizer is the speech capability serving one session: the browser's
// engine reached over the voice channel, or the server-side OpenAI engine.
// Progress notifications flow back through Controller.Notify.
type Synthesizer interface {
	Speak(utt voice.Utterance) error
	Cancel()
}

// Controller tracks one session's narration lifecycle. It is Silent until
// the engine confirms an utterance started and Speaking until the engine
// reports the utterance ended or failed; starting a new utterance cancels
// whatever is in flight.
type Controller struct {
	mu       sync.Mutex
	engine   Synthesizer
	profile  voice.Profile
	current  string
	speaking bool
	onChange func(narrating bool)
}

// NewController binds a synthesis engine to a narration profile. onChange
// observes Speaking/Silent transitions and may be nil.
func NewController(profile voice.Profile, engine Synthesizer, onChange func(narrating bool)) *Controller {
	return &Controller{profile: profile, engine: engine, onChange: onChange}
}

// Speak starts narrating text, canceling any utterance in progress.
// Last-write-wins: there is no queue. The text is normalized for speech
// first; narration of decoration-only text is skipped.
func (c *Controller) Speak(text string) {
	text = narration.Normalize(text)
	if text == "" {
		return
	}

	c.mu.Lock()
	if c.engine == nil {
		c.mu.Unlock()
		return
	}
	if c.current != "" {
		c.engine.Cancel()
	}
	utt := voice.Utterance{
		ID:     uuid.NewString(),
		Text:   text,
		Rate:   c.profile.Rate,
		Pitch:  c.profile.Pitch,
		Volume: c.profile.Volume,
	}
	c.current = utt.ID
	err := c.engine.Speak(utt)
	c.mu.Unlock()

	if err != nil {
		log.Printf("[voice] speak failed utterance=%s: %v", utt.ID, err)
		c.Notify(utt.ID, voice.NotifyError, err.Error())
	}
}

// Notify applies an engine lifecycle report. Reports about anything other
// than the current utterance are stale (a canceled or superseded one) and
// are dropped. An error ends the utterance exactly like a normal end; it is
// logged but never surfaced as a distinct user-visible state.
func (c *Controller) Notify(utteranceID string, kind voice.NotificationKind, detail string) {
	c.mu.Lock()
	if utteranceID == "" || utteranceID != c.current {
		c.mu.Unlock()
		return
	}

	changed := false
	narrating := false
	switch kind {
	case voice.NotifyStart:
		if !c.speaking {
			c.speaking = true
			changed = true
			narrating = true
		}
	case voice.NotifyEnd, voice.NotifyError:
		if kind == voice.NotifyError && detail != "" {
			log.Printf("[voice] utterance %s failed: %s", utteranceID, detail)
		}
		c.current = ""
		if c.speaking {
			c.speaking = false
			changed = true
		}
	}
	onChange := c.onChange
	c.mu.Unlock()

	if changed && onChange != nil {
		onChange(narrating)
	}
}

// Stop cancels any in-flight utterance and forces Silent immediately,
// without waiting for the engine's own end report.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.engine != nil {
		c.engine.Cancel()
	}
	c.current = ""
	changed := c.speaking
	c.speaking = false
	onChange := c.onChange
	c.mu.Unlock()

	if changed && onChange != nil {
		onChange(false)
	}
}

// Narrating reports whether an utterance is audibly in progress.
func (c *Controller) Narrating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speaking
}
