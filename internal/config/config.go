package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Voice engine selection values.
const (
	EngineBrowser = "browser"
	EngineOpenAI  = "openai"
)

// Config aggregates every runtime setting of the service.
type Config struct {
	Server     ServerConfig
	Completion CompletionConfig
	Voice      VoiceConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	completion, err := loadCompletionConfig()
	if err != nil {
		return nil, err
	}

	voice, err := loadVoiceConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Completion: completion, Voice: voice}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// CompletionConfig describes the completion endpoint. The model, sampling
// temperature and output cap are fixed per process; every request uses them.
type CompletionConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
}

// Configured reports whether a credential is present. The completion client
// is built regardless; without a key it answers with a canned reply.
func (c CompletionConfig) Configured() bool {
	return c.APIKey != ""
}

func loadCompletionConfig() (CompletionConfig, error) {
	maxTokens := 150
	if override, err := parseOptionalIntEnv("OPENAI_MAX_TOKENS"); err != nil {
		return CompletionConfig{}, err
	} else if override != nil {
		maxTokens = *override
	}

	temperature := float32(0.7)
	if override, err := parseOptionalFloat32Env("OPENAI_TEMPERATURE"); err != nil {
		return CompletionConfig{}, err
	} else if override != nil {
		temperature = *override
	}

	return CompletionConfig{
		APIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Model:       getEnvOrDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		BaseURL:     getEnvOrDefault("OPENAI_BASE_URL", ""),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}, nil
}

// VoiceConfig describes narration: which synthesis engine serves sessions
// and, for the openai engine, how speech is generated.
type VoiceConfig struct {
	Engine         string
	APIKey         string
	BaseURL        string
	TTSModel       string
	TTSVoice       string
	TTSFormat      string
	DefaultProfile string
	SpeechDefault  bool
}

// OpenAIEnabled reports whether the server-side synthesis engine can run.
func (c VoiceConfig) OpenAIEnabled() bool {
	return c.Engine == EngineOpenAI && c.APIKey != ""
}

func loadVoiceConfig() (VoiceConfig, error) {
	engine := getEnvOrDefault("VOICE_ENGINE", EngineBrowser)
	if engine != EngineBrowser && engine != EngineOpenAI {
		return VoiceConfig{}, fmt.Errorf("invalid VOICE_ENGINE value %q: want %q or %q", engine, EngineBrowser, EngineOpenAI)
	}

	speechDefault, err := parseBoolEnv("VOICE_SPEECH_DEFAULT", true)
	if err != nil {
		return VoiceConfig{}, err
	}

	apiKey := strings.TrimSpace(os.Getenv("VOICE_API_KEY"))
	if apiKey == "" {
		// Reuse the completion credential when no dedicated one is set.
		apiKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}

	return VoiceConfig{
		Engine:         engine,
		APIKey:         apiKey,
		BaseURL:        getEnvOrDefault("VOICE_BASE_URL", ""),
		TTSModel:       getEnvOrDefault("VOICE_TTS_MODEL", "tts-1"),
		TTSVoice:       getEnvOrDefault("VOICE_TTS_VOICE", "alloy"),
		TTSFormat:      getEnvOrDefault("VOICE_TTS_FORMAT", "mp3"),
		DefaultProfile: getEnvOrDefault("VOICE_DEFAULT_PROFILE", "standard"),
		SpeechDefault:  speechDefault,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalFloat32Env(key string) (*float32, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	result := float32(val)
	return &result, nil
}
