package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the estimate gateway service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Speech-to-text provider selection: "deepgram" or "openai"
	STTProvider string `envconfig:"STT_PROVIDER" default:"deepgram"`

	// Deepgram prerecorded API configuration
	DeepgramAPIKey string `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramModel  string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`

	// OpenAI Whisper configuration
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY" default:""`

	// Optional language hint passed to the transcription service (en, es, ...)
	TranscriptionLanguage string `envconfig:"TRANSCRIPTION_LANGUAGE" default:"en"`
	TranscriptionTimeout  int    `envconfig:"TRANSCRIPTION_TIMEOUT" default:"60"` // seconds

	// Audio capture configuration
	SampleRate      int `envconfig:"SAMPLE_RATE" default:"16000"`        // PCM16 mono from the browser recorder
	AudioBufferSize int `envconfig:"AUDIO_BUFFER_SIZE" default:"65536"`  // Ring buffer size in bytes
	AudioChunkSize  int `envconfig:"AUDIO_CHUNK_SIZE" default:"3200"`    // Assembled chunk size (100ms at 16kHz)

	// Persistence
	SQLitePath string `envconfig:"SQLITE_PATH" default:"./data/estimates.db"`

	// Outbound email (transactional SMTP relay)
	SMTPHost     string `envconfig:"SMTP_HOST" default:""`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME" default:""`
	SMTPPassword string `envconfig:"SMTP_PASSWORD" default:""`
	EmailFrom    string `envconfig:"EMAIL_FROM" default:"estimates@fieldquote.app"`

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"` // milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables, first attempting to
// load a .env file if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without touching .env (useful for containerized deployments).
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate enforces the cross-field rules envconfig tags cannot express:
// the selected STT provider must have its API key set.
func (c *Config) validate() error {
	switch c.STTProvider {
	case "deepgram":
		if c.DeepgramAPIKey == "" {
			return fmt.Errorf("DEEPGRAM_API_KEY is required when STT_PROVIDER=deepgram")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when STT_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unknown STT_PROVIDER %q (want deepgram or openai)", c.STTProvider)
	}

	if c.SampleRate <= 0 {
		return fmt.Errorf("SAMPLE_RATE must be positive, got %d", c.SampleRate)
	}
	if c.AudioChunkSize <= 0 || c.AudioBufferSize <= c.AudioChunkSize {
		return fmt.Errorf("AUDIO_BUFFER_SIZE (%d) must exceed AUDIO_CHUNK_SIZE (%d)", c.AudioBufferSize, c.AudioChunkSize)
	}
	return nil
}
