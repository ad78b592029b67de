package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fieldquote/estimate-gateway/internal/config"
	"github.com/fieldquote/estimate-gateway/internal/observability"
	"github.com/fieldquote/estimate-gateway/internal/resilience"
)

const deepgramListenURL = "https://api.deepgram.com/v1/listen"

// Deepgram transcribes recordings through Deepgram's prerecorded REST API.
type Deepgram struct {
	apiKey     string
	apiURL     string
	model      string
	language   string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	retry      *resilience.RetryConfig
}

// NewDeepgram creates a Deepgram batch client from configuration.
func NewDeepgram(cfg *config.Config) *Deepgram {
	return &Deepgram{
		apiKey:   cfg.DeepgramAPIKey,
		apiURL:   deepgramListenURL,
		model:    cfg.DeepgramModel,
		language: cfg.TranscriptionLanguage,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        1,
				MaxIdleConnsPerHost: 1,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
		breaker: resilience.NewCircuitBreaker(
			"deepgram",
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

func (d *Deepgram) Name() string { return "deepgram" }

type deepgramResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe posts the whole recording and parses the best alternative.
func (d *Deepgram) Transcribe(ctx context.Context, audio []byte, format string) (*Result, error) {
	if len(audio) == 0 {
		return nil, ErrNoAudio
	}

	var result *Result
	err := d.breaker.Call(func() error {
		return resilience.Retry(ctx, func() error {
			r, err := d.doRequest(ctx, audio, format)
			if err != nil {
				return err
			}
			result = r
			return nil
		}, d.retry, resilience.IsRetryableNetworkError)
	})

	observability.UpdateCircuitBreakerState("deepgram", int(d.breaker.State()))
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (d *Deepgram) doRequest(ctx context.Context, audio []byte, format string) (*Result, error) {
	params := url.Values{}
	params.Set("model", d.model)
	params.Set("punctuate", "true")
	if d.language != "" {
		params.Set("language", d.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.apiURL+"?"+params.Encode(), bytes.NewReader(audio))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", contentTypeFor(format))

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deepgram API error %d: %s", resp.StatusCode, string(body))
	}

	var dgResp deepgramResponse
	if err := json.Unmarshal(body, &dgResp); err != nil {
		return nil, fmt.Errorf("deepgram response parse error: %w", err)
	}

	result := &Result{Duration: dgResp.Metadata.Duration}
	if len(dgResp.Results.Channels) > 0 && len(dgResp.Results.Channels[0].Alternatives) > 0 {
		alt := dgResp.Results.Channels[0].Alternatives[0]
		result.Text = alt.Transcript
		result.Confidence = alt.Confidence
	}
	return result, nil
}

func contentTypeFor(format string) string {
	switch format {
	case "wav":
		return "audio/wav"
	case "flac":
		return "audio/flac"
	case "mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}
