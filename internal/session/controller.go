// Package session orchestrates one recording attempt: capture →
// transcription → extraction → draft merge, as a state machine whose
// transitions the UI observes instead of blocking on the pipeline.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fieldquote/estimate-gateway/internal/audio"
	"github.com/fieldquote/estimate-gateway/internal/draft"
	"github.com/fieldquote/estimate-gateway/internal/extract"
	"github.com/fieldquote/estimate-gateway/internal/observability"
	"github.com/fieldquote/estimate-gateway/internal/stt"
)

// AudioSource is the capture dependency. audio.Capture satisfies it; tests
// substitute stubs.
type AudioSource interface {
	Start() error
	Stop() ([]audio.Chunk, error)
}

// Outcome is the single completion value for one recording attempt,
// delivered on the channel Stop returns. Success, failure, and the
// zero-items case all arrive through it; there is no side-channel
// callback.
type Outcome struct {
	SessionID  string
	Extraction extract.Result

	// NoItems is set when transcription succeeded but extraction found no
	// line items. Not an error: the draft still receives the description
	// and the user adds items by hand.
	NoItems bool

	Kind ErrorKind
	Err  error
}

// Failed reports whether the session ended in the error state.
func (o Outcome) Failed() bool { return o.Err != nil }

// Config carries the knobs the controller needs from service config.
type Config struct {
	SampleRate       int
	TranscribeWindow time.Duration
}

// Controller runs at most one recording pipeline at a time for one draft.
type Controller struct {
	source AudioSource
	stt    stt.Transcriber
	drafts *draft.Store
	cfg    Config
	logger zerolog.Logger

	mu        sync.Mutex
	state     State
	sessionID string
	startedAt time.Time
	errKind   ErrorKind
	client    extract.ClientInfo
	metrics   *observability.SessionMetrics
}

// ErrSessionActive is returned by Start while a pipeline is in flight.
var ErrSessionActive = errors.New("a recording session is already in flight")

// ErrNotRecording is returned by Stop when no recording is open.
var ErrNotRecording = errors.New("no recording in progress")

// NewController wires a controller. All collaborators are injected so
// tests can substitute fakes.
func NewController(source AudioSource, transcriber stt.Transcriber, drafts *draft.Store, cfg Config, logger zerolog.Logger) *Controller {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.TranscribeWindow <= 0 {
		cfg.TranscribeWindow = 60 * time.Second
	}
	return &Controller{
		source: source,
		stt:    transcriber,
		drafts: drafts,
		cfg:    cfg,
		logger: logger,
		state:  StateIdle,
	}
}

// State returns the controller's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastErrorKind returns the kind of the most recent failure, ErrorNone
// after a clean session.
func (c *Controller) LastErrorKind() ErrorKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errKind
}

// AttachClient stores contact fields supplied by the caller for the active
// session; they ride along into the next merge untouched.
func (c *Controller) AttachClient(info extract.ClientInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = info
}

// Start opens a new recording session. From the error state it begins a
// fresh session, clearing the previous failure. A capture failure surfaces
// as ErrorDeviceUnavailable and the controller stays idle.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateRecording || c.state == StateProcessing {
		return ErrSessionActive
	}

	c.errKind = ErrorNone
	c.client = extract.ClientInfo{}
	c.sessionID = uuid.New().String()
	c.startedAt = time.Now()

	if err := c.source.Start(); err != nil {
		c.errKind = ErrorDeviceUnavailable
		observability.RecordError("device_unavailable", "session")
		c.logger.Warn().Err(err).Str("session_id", c.sessionID).Msg("microphone unavailable")
		return fmt.Errorf("starting capture: %w", err)
	}

	c.state = StateRecording
	c.metrics = observability.NewSessionMetrics(c.sessionID)
	c.logger.Info().Str("session_id", c.sessionID).Msg("recording started")
	return nil
}

// Stop closes the recording and runs transcription, extraction, and the
// draft merge in the background. The returned channel delivers exactly one
// Outcome; the caller observes completion there rather than blocking.
// ctx cancellation abandons an in-flight transcription call.
func (c *Controller) Stop(ctx context.Context) (<-chan Outcome, error) {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return nil, ErrNotRecording
	}
	c.state = StateProcessing
	sessionID := c.sessionID
	client := c.client
	metrics := c.metrics
	c.mu.Unlock()

	chunks, err := c.source.Stop()
	if err != nil {
		// The device is released by Capture even on error; the audio we
		// did get is still usable.
		c.logger.Warn().Err(err).Str("session_id", sessionID).Msg("capture stop reported an error")
	}

	done := make(chan Outcome, 1)
	go func() {
		done <- c.process(ctx, sessionID, chunks, client, metrics)
	}()
	return done, nil
}

func (c *Controller) process(ctx context.Context, sessionID string, chunks []audio.Chunk, client extract.ClientInfo, metrics *observability.SessionMetrics) Outcome {
	if len(chunks) == 0 {
		// Guard, not an optimization: empty recordings must never reach
		// the network collaborator.
		return c.fail(sessionID, metrics, ErrorNoAudioRecorded, errors.New("no audio captured before stop"))
	}

	pcm := audio.Concat(chunks)
	metrics.RecordAudioBytes(int64(len(pcm)))
	if audio.LikelySilent(pcm, 0) {
		metrics.RecordSilentRecording()
		c.logger.Warn().Str("session_id", sessionID).Msg("recording energy suggests silence")
	}

	payload, err := audio.EncodeWAV(pcm, c.cfg.SampleRate, 1)
	if err != nil {
		return c.fail(sessionID, metrics, ErrorNoAudioRecorded, fmt.Errorf("framing recording: %w", err))
	}

	tctx, cancel := context.WithTimeout(ctx, c.cfg.TranscribeWindow)
	defer cancel()

	metrics.RecordSTTStart()
	res, err := c.stt.Transcribe(tctx, payload, "wav")
	metrics.RecordSTTEnd(c.stt.Name(), err == nil)
	if err != nil {
		if errors.Is(err, stt.ErrNoAudio) {
			return c.fail(sessionID, metrics, ErrorNoAudioRecorded, err)
		}
		return c.fail(sessionID, metrics, ErrorTranscriptionFailed, err)
	}

	result := extract.Extract(res.Text)
	result.Client = client
	metrics.RecordExtraction(len(result.Items))

	// The merge is all-or-nothing: it only runs once the whole chain has
	// succeeded, so a failed pipeline leaves the draft untouched.
	c.drafts.Merge(result)

	noItems := len(result.Items) == 0
	outcome := "merged"
	if noItems {
		outcome = "no_items"
	}
	metrics.RecordEnd(outcome)

	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()

	c.logger.Info().
		Str("session_id", sessionID).
		Int("items", len(result.Items)).
		Bool("no_items", noItems).
		Msg("recording session merged")

	return Outcome{
		SessionID:  sessionID,
		Extraction: result,
		NoItems:    noItems,
	}
}

func (c *Controller) fail(sessionID string, metrics *observability.SessionMetrics, kind ErrorKind, err error) Outcome {
	c.mu.Lock()
	c.state = StateError
	c.errKind = kind
	c.mu.Unlock()

	metrics.RecordEnd(kind.String())
	observability.RecordError(kind.String(), "session")
	c.logger.Error().Err(err).
		Str("session_id", sessionID).
		Str("kind", kind.String()).
		Msg("recording session failed")

	return Outcome{SessionID: sessionID, Kind: kind, Err: err}
}
