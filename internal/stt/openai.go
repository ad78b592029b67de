package stt

import (
	"bytes"
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fieldquote/estimate-gateway/internal/config"
	"github.com/fieldquote/estimate-gateway/internal/observability"
	"github.com/fieldquote/estimate-gateway/internal/resilience"
)

// OpenAI transcribes recordings through the Whisper endpoint.
type OpenAI struct {
	client   *openai.Client
	language string
	breaker  *resilience.CircuitBreaker
	retry    *resilience.RetryConfig
}

// NewOpenAI creates a Whisper client from configuration.
func NewOpenAI(cfg *config.Config) *OpenAI {
	return &OpenAI{
		client:   openai.NewClient(cfg.OpenAIAPIKey),
		language: cfg.TranscriptionLanguage,
		breaker: resilience.NewCircuitBreaker(
			"openai",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
		retry: &resilience.RetryConfig{
			MaxAttempts:    cfg.RetryMaxAttempts,
			InitialBackoff: time.Duration(cfg.RetryInitialBackoff) * time.Millisecond,
			MaxBackoff:     5 * time.Second,
			Multiplier:     2.0,
			Jitter:         true,
		},
	}
}

func (o *OpenAI) Name() string { return "openai" }

// Transcribe uploads the recording as a multipart file and returns the
// transcript text. Whisper does not report confidence for this request
// shape, so Confidence stays zero.
func (o *OpenAI) Transcribe(ctx context.Context, audio []byte, format string) (*Result, error) {
	if len(audio) == 0 {
		return nil, ErrNoAudio
	}

	var result *Result
	err := o.breaker.Call(func() error {
		return resilience.Retry(ctx, func() error {
			// Fresh reader per attempt; a retried request must not see an
			// exhausted body.
			req := openai.AudioRequest{
				Model:    openai.Whisper1,
				FilePath: "recording." + format,
				Reader:   bytes.NewReader(audio),
				Language: o.language,
			}
			resp, err := o.client.CreateTranscription(ctx, req)
			if err != nil {
				return fmt.Errorf("openai transcription: %w", err)
			}
			result = &Result{Text: resp.Text}
			return nil
		}, o.retry, resilience.IsRetryableNetworkError)
	})

	observability.UpdateCircuitBreakerState("openai", int(o.breaker.State()))
	if err != nil {
		return nil, err
	}
	return result, nil
}
