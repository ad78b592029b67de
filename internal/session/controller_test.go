package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldquote/estimate-gateway/internal/audio"
	"github.com/fieldquote/estimate-gateway/internal/draft"
	"github.com/fieldquote/estimate-gateway/internal/extract"
	"github.com/fieldquote/estimate-gateway/internal/stt"
)

type stubSource struct {
	startErr error
	chunks   []audio.Chunk
	stopErr  error

	startCalls int
	stopCalls  int
}

func (s *stubSource) Start() error {
	s.startCalls++
	return s.startErr
}

func (s *stubSource) Stop() ([]audio.Chunk, error) {
	s.stopCalls++
	return s.chunks, s.stopErr
}

func pcmChunks(n int) []audio.Chunk {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 7)
	}
	return []audio.Chunk{{Data: data, CapturedAt: time.Now()}}
}

func newTestController(source AudioSource, transcriber stt.Transcriber) (*Controller, *draft.Store) {
	drafts := draft.NewStore()
	c := NewController(source, transcriber, drafts, Config{SampleRate: 16000, TranscribeWindow: 5 * time.Second}, zerolog.Nop())
	return c, drafts
}

func waitOutcome(t *testing.T, ch <-chan Outcome) Outcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for session outcome")
		return Outcome{}
	}
}

func TestController_SuccessfulPipeline(t *testing.T) {
	fake := stt.NewFake("Paint the fence. $45. 10 pieces of lumber.", nil)
	c, drafts := newTestController(&stubSource{chunks: pcmChunks(3200)}, fake)

	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if c.State() != StateRecording {
		t.Fatalf("Expected recording state, got %v", c.State())
	}

	ch, err := c.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	outcome := waitOutcome(t, ch)

	if outcome.Failed() {
		t.Fatalf("Expected success, got %v (%v)", outcome.Err, outcome.Kind)
	}
	if outcome.NoItems {
		t.Error("Expected items to be found")
	}
	if len(outcome.Extraction.Items) != 2 {
		t.Errorf("Expected 2 extracted items, got %d", len(outcome.Extraction.Items))
	}
	if c.State() != StateIdle {
		t.Errorf("Expected idle state after success, got %v", c.State())
	}

	d := drafts.Snapshot()
	if d.Description != "Paint the fence. $45. 10 pieces of lumber." {
		t.Errorf("Draft description not merged: %q", d.Description)
	}
	if len(d.Items) != 2 {
		t.Errorf("Draft items not merged: %+v", d.Items)
	}
	if fake.Calls() != 1 {
		t.Errorf("Expected 1 transcription call, got %d", fake.Calls())
	}
}

func TestController_StartWhileActiveRefused(t *testing.T) {
	c, _ := newTestController(&stubSource{chunks: pcmChunks(320)}, stt.NewFake("x", nil))

	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := c.Start(); !errors.Is(err, ErrSessionActive) {
		t.Errorf("Expected ErrSessionActive, got %v", err)
	}
}

func TestController_DeviceUnavailableStaysIdle(t *testing.T) {
	source := &stubSource{startErr: audio.ErrDeviceUnavailable}
	c, drafts := newTestController(source, stt.NewFake("x", nil))

	err := c.Start()
	if err == nil {
		t.Fatal("Expected Start to fail")
	}
	if !errors.Is(err, audio.ErrDeviceUnavailable) {
		t.Errorf("Expected device unavailable error, got %v", err)
	}
	if c.State() != StateIdle {
		t.Errorf("Expected idle state after device failure, got %v", c.State())
	}
	if c.LastErrorKind() != ErrorDeviceUnavailable {
		t.Errorf("Expected ErrorDeviceUnavailable, got %v", c.LastErrorKind())
	}
	if d := drafts.Snapshot(); d.Description != "" {
		t.Errorf("Draft should be untouched, got description %q", d.Description)
	}
}

func TestController_StopWithoutAudio(t *testing.T) {
	fake := stt.NewFake("should never be called", nil)
	c, drafts := newTestController(&stubSource{}, fake)

	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	ch, err := c.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	outcome := waitOutcome(t, ch)

	if !outcome.Failed() {
		t.Fatal("Expected failure outcome")
	}
	if outcome.Kind != ErrorNoAudioRecorded {
		t.Errorf("Expected ErrorNoAudioRecorded, got %v", outcome.Kind)
	}
	if c.State() != StateError {
		t.Errorf("Expected error state, got %v", c.State())
	}
	if fake.Calls() != 0 {
		t.Errorf("Transcriber must not be invoked with zero chunks, got %d calls", fake.Calls())
	}
	if d := drafts.Snapshot(); d.Description != "" || len(d.Items) != 0 {
		t.Errorf("Draft should be untouched, got %+v", d)
	}
}

func TestController_TranscriptionFailureLeavesDraftUntouched(t *testing.T) {
	fake := stt.NewFake("", errors.New("upstream 500"))
	c, drafts := newTestController(&stubSource{chunks: pcmChunks(3200)}, fake)

	drafts.SetDescription("typed before recording")

	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	ch, err := c.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	outcome := waitOutcome(t, ch)

	if outcome.Kind != ErrorTranscriptionFailed {
		t.Errorf("Expected ErrorTranscriptionFailed, got %v", outcome.Kind)
	}
	if c.State() != StateError {
		t.Errorf("Expected error state, got %v", c.State())
	}
	if d := drafts.Snapshot(); d.Description != "typed before recording" {
		t.Errorf("Draft modified on failed pipeline: %q", d.Description)
	}
}

func TestController_NoItemsIsSuccess(t *testing.T) {
	fake := stt.NewFake("we discussed the schedule for next week", nil)
	c, drafts := newTestController(&stubSource{chunks: pcmChunks(3200)}, fake)

	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	ch, _ := c.Stop(context.Background())
	outcome := waitOutcome(t, ch)

	if outcome.Failed() {
		t.Fatalf("Zero items must not be an error, got %v", outcome.Err)
	}
	if !outcome.NoItems {
		t.Error("Expected NoItems flag set")
	}
	if c.State() != StateIdle {
		t.Errorf("Expected idle state, got %v", c.State())
	}
	if d := drafts.Snapshot(); d.Description != "we discussed the schedule for next week" {
		t.Errorf("Draft should still receive the description, got %q", d.Description)
	}
}

func TestController_StopWhileIdle(t *testing.T) {
	c, _ := newTestController(&stubSource{}, stt.NewFake("x", nil))

	if _, err := c.Stop(context.Background()); !errors.Is(err, ErrNotRecording) {
		t.Errorf("Expected ErrNotRecording, got %v", err)
	}
}

func TestController_NewSessionAfterError(t *testing.T) {
	fake := stt.NewFake("$20 for caulk", nil)
	source := &stubSource{}
	c, _ := newTestController(source, fake)

	// First session fails with no audio.
	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	ch, _ := c.Stop(context.Background())
	if outcome := waitOutcome(t, ch); outcome.Kind != ErrorNoAudioRecorded {
		t.Fatalf("Expected no-audio failure, got %v", outcome.Kind)
	}

	// A new explicit Start clears the error and runs cleanly.
	source.chunks = pcmChunks(3200)
	if err := c.Start(); err != nil {
		t.Fatalf("Start after error failed: %v", err)
	}
	if c.LastErrorKind() != ErrorNone {
		t.Errorf("Expected error kind cleared on new session, got %v", c.LastErrorKind())
	}
	ch, _ = c.Stop(context.Background())
	if outcome := waitOutcome(t, ch); outcome.Failed() {
		t.Errorf("Expected clean second session, got %v", outcome.Err)
	}
}

func TestController_AttachedClientRidesIntoMerge(t *testing.T) {
	fake := stt.NewFake("$30 for paint", nil)
	c, drafts := newTestController(&stubSource{chunks: pcmChunks(3200)}, fake)

	drafts.SetClient(draft.ClientInfo{Name: "Ann"})

	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	c.AttachClient(extract.ClientInfo{Phone: "555-1234"})

	ch, _ := c.Stop(context.Background())
	if outcome := waitOutcome(t, ch); outcome.Failed() {
		t.Fatalf("Pipeline failed: %v", outcome.Err)
	}

	d := drafts.Snapshot()
	if d.Client.Name != "Ann" {
		t.Errorf("Existing client name lost: %+v", d.Client)
	}
	if d.Client.Phone != "555-1234" {
		t.Errorf("Attached phone not merged: %+v", d.Client)
	}
}
