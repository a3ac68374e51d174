package voice

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/skanda444/VoiceGenie-AI/internal/config"
	"github.com/skanda444/VoiceGenie-AI/internal/model/voice"
)

// AudioSink receives rendered audio for delivery to the listening client.
type AudioSink interface {
	DeliverAudio(utteranceID string, audio []byte, format string) error
}

// NotifyFunc reports utterance lifecycle events back to a controller.
type NotifyFunc func(utteranceID string, kind voice.NotificationKind, detail string)

// OpenAISynthesizer narrates server-side through the OpenAI speech API and
// hands the rendered audio to an AudioSink. At most one synthesis runs at a
// time; Cancel aborts the one in flight.
type OpenAISynthesizer struct {
	api    *openai.Client
	cfg    config.VoiceConfig
	sink   AudioSink
	notify NotifyFunc

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewOpenAISynthesizer builds the server-side engine. sink and notify must
// be non-nil.
func NewOpenAISynthesizer(cfg config.VoiceConfig, sink AudioSink, notify NotifyFunc) *OpenAISynthesizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAISynthesizer{
		api:    openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		sink:   sink,
		notify: notify,
	}
}

// Speak renders the utterance asynchronously. Progress is reported through
// the notify callback; a canceled synthesis reports nothing at all.
func (s *OpenAISynthesizer) Speak(utt voice.Utterance) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go s.synthesize(ctx, utt)
	return nil
}

// Cancel aborts the in-flight synthesis, if any.
func (s *OpenAISynthesizer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *OpenAISynthesizer) synthesize(ctx context.Context, utt voice.Utterance) {
	resp, err := s.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.cfg.TTSModel),
		Input:          utt.Text,
		Voice:          openai.SpeechVoice(s.cfg.TTSVoice),
		ResponseFormat: openai.SpeechResponseFormat(s.cfg.TTSFormat),
		Speed:          utt.Rate,
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.notify(utt.ID, voice.NotifyError, err.Error())
		return
	}

	audio, err := io.ReadAll(resp)
	resp.Close()
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.notify(utt.ID, voice.NotifyError, fmt.Sprintf("read audio: %v", err))
		return
	}
	if ctx.Err() != nil {
		return
	}

	log.Printf("[voice] synthesized utterance=%s bytes=%d", utt.ID, len(audio))
	s.notify(utt.ID, voice.NotifyStart, "")
	if err := s.sink.DeliverAudio(utt.ID, audio, s.cfg.TTSFormat); err != nil {
		s.notify(utt.ID, voice.NotifyError, fmt.Sprintf("deliver audio: %v", err))
		return
	}
	s.notify(utt.ID, voice.NotifyEnd, "")
}
