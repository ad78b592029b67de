// Package stt sends recorded audio to a speech-to-text collaborator and
// returns plain text.
package stt

import (
	"context"
	"errors"
	"fmt"

	"github.com/fieldquote/estimate-gateway/internal/config"
)

// Result is one finished transcription.
type Result struct {
	// Text is the transcribed text
	Text string

	// Confidence is the confidence score (0.0 to 1.0) if the provider
	// reports one
	Confidence float64

	// Duration is the audio duration in seconds if the provider reports it
	Duration float64
}

// Transcriber is the interface for batch speech-to-text clients. The audio
// payload is one complete recording; there is no streaming session.
type Transcriber interface {
	// Name identifies the provider for logs and metrics
	Name() string

	// Transcribe sends the audio payload and blocks until text comes back
	// or ctx is cancelled. format names the container ("wav", "flac", ...).
	// An empty payload fails with ErrNoAudio before any network call.
	Transcribe(ctx context.Context, audio []byte, format string) (*Result, error)
}

// ErrNoAudio is returned when there is nothing to transcribe. The guard
// runs before the request is built; empty recordings never reach the
// network.
var ErrNoAudio = errors.New("no audio to transcribe")

// New builds the Transcriber selected by configuration.
func New(cfg *config.Config) (Transcriber, error) {
	switch cfg.STTProvider {
	case "deepgram":
		return NewDeepgram(cfg), nil
	case "openai":
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("unknown STT provider %q", cfg.STTProvider)
	}
}
