package config

import (
	"os"
	"testing"
)

func withDeepgramEnv(t *testing.T) {
	t.Helper()
	os.Setenv("DEEPGRAM_API_KEY", "test-deepgram-key")
	t.Cleanup(func() { os.Unsetenv("DEEPGRAM_API_KEY") })
}

func TestLoad(t *testing.T) {
	withDeepgramEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DeepgramAPIKey != "test-deepgram-key" {
		t.Errorf("Expected DeepgramAPIKey 'test-deepgram-key', got '%s'", cfg.DeepgramAPIKey)
	}
	if cfg.STTProvider != "deepgram" {
		t.Errorf("Expected default STTProvider 'deepgram', got '%s'", cfg.STTProvider)
	}
}

func TestLoad_MissingProviderKey(t *testing.T) {
	os.Unsetenv("DEEPGRAM_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")

	if _, err := Load(); err == nil {
		t.Error("Expected error when the selected provider has no API key")
	}
}

func TestLoad_OpenAIProvider(t *testing.T) {
	os.Setenv("STT_PROVIDER", "openai")
	os.Setenv("OPENAI_API_KEY", "test-openai-key")
	defer os.Unsetenv("STT_PROVIDER")
	defer os.Unsetenv("OPENAI_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.OpenAIAPIKey != "test-openai-key" {
		t.Errorf("Expected OpenAIAPIKey 'test-openai-key', got '%s'", cfg.OpenAIAPIKey)
	}
}

func TestLoad_UnknownProvider(t *testing.T) {
	os.Setenv("STT_PROVIDER", "whispernet")
	defer os.Unsetenv("STT_PROVIDER")

	if _, err := Load(); err == nil {
		t.Error("Expected error for unknown STT provider")
	}
}

func TestLoad_Defaults(t *testing.T) {
	withDeepgramEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
	}
	if cfg.DeepgramModel != "nova-2" {
		t.Errorf("Expected default DeepgramModel 'nova-2', got '%s'", cfg.DeepgramModel)
	}
	if cfg.TranscriptionLanguage != "en" {
		t.Errorf("Expected default TranscriptionLanguage 'en', got '%s'", cfg.TranscriptionLanguage)
	}
	if cfg.TranscriptionTimeout != 60 {
		t.Errorf("Expected default TranscriptionTimeout 60, got %d", cfg.TranscriptionTimeout)
	}
	if cfg.SampleRate != 16000 {
		t.Errorf("Expected default SampleRate 16000, got %d", cfg.SampleRate)
	}
	if cfg.AudioBufferSize != 65536 {
		t.Errorf("Expected default AudioBufferSize 65536, got %d", cfg.AudioBufferSize)
	}
	if cfg.AudioChunkSize != 3200 {
		t.Errorf("Expected default AudioChunkSize 3200, got %d", cfg.AudioChunkSize)
	}
	if cfg.SQLitePath != "./data/estimates.db" {
		t.Errorf("Expected default SQLitePath './data/estimates.db', got '%s'", cfg.SQLitePath)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("Expected default SMTPPort 587, got %d", cfg.SMTPPort)
	}
}

func TestLoad_InvalidAudioSizes(t *testing.T) {
	withDeepgramEnv(t)
	os.Setenv("AUDIO_BUFFER_SIZE", "100")
	os.Setenv("AUDIO_CHUNK_SIZE", "200")
	defer os.Unsetenv("AUDIO_BUFFER_SIZE")
	defer os.Unsetenv("AUDIO_CHUNK_SIZE")

	if _, err := Load(); err == nil {
		t.Error("Expected error when buffer size does not exceed chunk size")
	}
}

func TestLoadFromEnv(t *testing.T) {
	withDeepgramEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}
	if cfg.DeepgramAPIKey != "test-deepgram-key" {
		t.Errorf("Expected DeepgramAPIKey 'test-deepgram-key', got '%s'", cfg.DeepgramAPIKey)
	}
}

func TestConfig_ResilienceDefaults(t *testing.T) {
	withDeepgramEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.CircuitBreakerMaxFailures != 5 {
		t.Errorf("Expected default CircuitBreakerMaxFailures 5, got %d", cfg.CircuitBreakerMaxFailures)
	}
	if cfg.CircuitBreakerResetTimeout != 30 {
		t.Errorf("Expected default CircuitBreakerResetTimeout 30, got %d", cfg.CircuitBreakerResetTimeout)
	}
	if cfg.RetryMaxAttempts != 3 {
		t.Errorf("Expected default RetryMaxAttempts 3, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.RetryInitialBackoff != 100 {
		t.Errorf("Expected default RetryInitialBackoff 100, got %d", cfg.RetryInitialBackoff)
	}
}

func TestConfig_ObservabilityDefaults(t *testing.T) {
	withDeepgramEnv(t)
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.LogPretty {
		t.Error("Expected default LogPretty false, got true")
	}
	if !cfg.MetricsEnabled {
		t.Error("Expected default MetricsEnabled true, got false")
	}
}
