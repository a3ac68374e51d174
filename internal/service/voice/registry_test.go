package voice

import (
	"sync"
	"testing"

	"github.com/skanda444/VoiceGenie-AI/internal/model/voice"
)

type listenerRecorder struct {
	mu     sync.Mutex
	events []struct {
		sessionID string
		narrating bool
	}
}

func (l *listenerRecorder) record(sessionID string, narrating bool) {
	l.mu.Lock()
	l.events = append(l.events, struct {
		sessionID string
		narrating bool
	}{sessionID, narrating})
	l.mu.Unlock()
}

func (l *listenerRecorder) last() (string, bool, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == 0 {
		return "", false, false
	}
	ev := l.events[len(l.events)-1]
	return ev.sessionID, ev.narrating, true
}

func TestRegistrySpeakWithoutAttachmentIsNoop(t *testing.T) {
	reg := NewRegistry()
	reg.Speak("ghost-session", "anyone there?")
	reg.Stop("ghost-session")
}

func TestRegistryRoutesNarrationToAttachedEngine(t *testing.T) {
	reg := NewRegistry()
	rec := &listenerRecorder{}
	reg.SetListener(rec.record)

	engine := &fakeEngine{}
	ctrl := reg.Attach("sess-1", testProfile(), engine)

	reg.Speak("sess-1", "hello out loud")
	spoken := engine.spoken()
	if len(spoken) != 1 {
		t.Fatalf("expected one utterance, got %d", len(spoken))
	}

	ctrl.Notify(spoken[0].ID, voice.NotifyStart, "")
	if sessionID, narrating, ok := rec.last(); !ok || sessionID != "sess-1" || !narrating {
		t.Fatalf("expected narrating notification for sess-1, got %v %v %v", sessionID, narrating, ok)
	}

	ctrl.Notify(spoken[0].ID, voice.NotifyEnd, "")
	if _, narrating, _ := rec.last(); narrating {
		t.Fatal("expected silent notification after end")
	}
}

func TestRegistryAttachReplacesPreviousEngine(t *testing.T) {
	reg := NewRegistry()
	rec := &listenerRecorder{}
	reg.SetListener(rec.record)

	oldEngine := &fakeEngine{}
	oldCtrl := reg.Attach("sess-1", testProfile(), oldEngine)
	reg.Speak("sess-1", "from the old channel")
	oldCtrl.Notify(oldEngine.spoken()[0].ID, voice.NotifyStart, "")

	newEngine := &fakeEngine{}
	reg.Attach("sess-1", testProfile(), newEngine)

	if got := oldEngine.cancelCount(); got == 0 {
		t.Fatal("expected the replaced engine to be canceled")
	}
	if _, narrating, ok := rec.last(); !ok || narrating {
		t.Fatal("expected the session to be reported silent after replacement")
	}

	reg.Speak("sess-1", "from the new channel")
	if len(newEngine.spoken()) != 1 {
		t.Fatal("expected narration to reach the new engine")
	}
	if len(oldEngine.spoken()) != 1 {
		t.Fatal("expected no further narration on the old engine")
	}
}

func TestRegistryNotifyReachesAttachedController(t *testing.T) {
	reg := NewRegistry()
	rec := &listenerRecorder{}
	reg.SetListener(rec.record)

	engine := &fakeEngine{}
	reg.Attach("sess-1", testProfile(), engine)
	reg.Speak("sess-1", "routed report")

	reg.Notify("sess-1", engine.spoken()[0].ID, voice.NotifyStart, "")
	if _, narrating, ok := rec.last(); !ok || !narrating {
		t.Fatal("expected the routed start report to mark the session narrating")
	}

	// Reports for unattached sessions are dropped.
	reg.Notify("sess-ghost", "utt-1", voice.NotifyStart, "")
}

func TestRegistryDetachRemovesOnlyMatchingController(t *testing.T) {
	reg := NewRegistry()

	firstEngine := &fakeEngine{}
	firstCtrl := reg.Attach("sess-1", testProfile(), firstEngine)

	secondEngine := &fakeEngine{}
	secondCtrl := reg.Attach("sess-1", testProfile(), secondEngine)

	// The first channel closing must not tear down its replacement.
	reg.Detach("sess-1", firstCtrl)
	reg.Speak("sess-1", "still attached")
	if len(secondEngine.spoken()) != 1 {
		t.Fatal("expected the second engine to remain attached")
	}

	reg.Detach("sess-1", secondCtrl)
	reg.Speak("sess-1", "nobody home")
	if len(secondEngine.spoken()) != 1 {
		t.Fatal("expected no narration after detach")
	}
}

func TestRegistryCloseAllSilencesSessions(t *testing.T) {
	reg := NewRegistry()

	engineA := &fakeEngine{}
	engineB := &fakeEngine{}
	reg.Attach("sess-a", testProfile(), engineA)
	reg.Attach("sess-b", testProfile(), engineB)

	reg.CloseAll()

	reg.Speak("sess-a", "gone")
	reg.Speak("sess-b", "gone")
	if len(engineA.spoken()) != 0 || len(engineB.spoken()) != 0 {
		t.Fatal("expected no narration after CloseAll")
	}
}
