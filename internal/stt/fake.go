package stt

import (
	"context"
	"sync"
)

// Fake is a Transcriber test double returning canned text or a canned
// error. It counts calls so tests can assert the network collaborator was
// or was not reached.
type Fake struct {
	Text string
	Err  error

	mu    sync.Mutex
	calls int
}

// NewFake returns a fake that yields text, or err when err is non-nil.
func NewFake(text string, err error) *Fake {
	return &Fake{Text: text, Err: err}
}

func (f *Fake) Name() string { return "fake" }

// Transcribe applies the same empty-payload guard as the real clients.
func (f *Fake) Transcribe(ctx context.Context, audio []byte, format string) (*Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if len(audio) == 0 {
		return nil, ErrNoAudio
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Result{Text: f.Text, Confidence: 0.95}, nil
}

// Calls returns how many times Transcribe was invoked.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
