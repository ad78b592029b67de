// Package audio owns microphone capture: buffering raw PCM from a device
// session and assembling it into ordered, timestamped chunks.
package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Chunk is one slice of captured audio. Chunks are never mutated after
// capture, only concatenated for the transcription payload.
type Chunk struct {
	Data       []byte
	CapturedAt time.Time
}

// Capture owns one device session. It buffers incoming PCM through a ring
// buffer (the device callback must not block) and assembles fixed-size
// chunks in arrival order. The device handle is released on every exit
// path: Stop, Close, or an error partway through.
type Capture struct {
	dev       Device
	buf       *RingBuffer
	chunkSize int
	logger    zerolog.Logger

	mu        sync.Mutex
	recording bool
	chunks    []Chunk
	dropped   int64

	notify    chan struct{}
	stopDrain chan struct{}
	drainDone chan struct{}
}

// NewCapture wires a capture session around dev. bufferSize is the ring
// buffer capacity in bytes; chunkSize is the assembled chunk size.
func NewCapture(dev Device, bufferSize, chunkSize int, logger zerolog.Logger) *Capture {
	return &Capture{
		dev:       dev,
		buf:       NewRingBuffer(bufferSize),
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Start acquires the device and begins buffering. A device that cannot be
// opened surfaces as ErrDeviceUnavailable and leaves the session idle.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.recording {
		return fmt.Errorf("capture already recording")
	}

	c.chunks = nil
	c.dropped = 0
	c.buf.Clear()
	c.notify = make(chan struct{}, 1)
	c.stopDrain = make(chan struct{})
	c.drainDone = make(chan struct{})

	if err := c.dev.Start(c.onData); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	c.recording = true

	go c.drainLoop()
	return nil
}

// onData runs on the device's delivery goroutine. It only copies into the
// ring buffer and signals the drain loop.
func (c *Capture) onData(pcm []byte) {
	written := c.buf.Write(pcm)
	if written < len(pcm) {
		c.mu.Lock()
		c.dropped += int64(len(pcm) - written)
		c.mu.Unlock()
	}
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// drainLoop assembles buffered bytes into chunks until stopped, then
// flushes whatever remains.
func (c *Capture) drainLoop() {
	defer close(c.drainDone)
	for {
		select {
		case <-c.notify:
			c.drain(false)
		case <-c.stopDrain:
			c.drain(true)
			return
		}
	}
}

func (c *Capture) drain(flush bool) {
	for c.buf.Available() >= c.chunkSize {
		data := make([]byte, c.chunkSize)
		n := c.buf.Read(data)
		c.append(data[:n])
	}
	if flush {
		if avail := c.buf.Available(); avail > 0 {
			data := make([]byte, avail)
			n := c.buf.Read(data)
			c.append(data[:n])
		}
	}
}

func (c *Capture) append(data []byte) {
	if len(data) == 0 {
		return
	}
	c.mu.Lock()
	c.chunks = append(c.chunks, Chunk{Data: data, CapturedAt: time.Now()})
	c.mu.Unlock()
}

// Stop releases the device, flushes buffered audio, and returns the
// accumulated chunk sequence. Calling Stop while not recording is a no-op
// that returns whatever was already captured.
func (c *Capture) Stop() ([]Chunk, error) {
	c.mu.Lock()
	if !c.recording {
		chunks := append([]Chunk(nil), c.chunks...)
		c.mu.Unlock()
		c.logger.Debug().Msg("capture stop called while not recording")
		return chunks, nil
	}
	c.recording = false
	c.mu.Unlock()

	// Release the device before draining so no new bytes arrive mid-flush.
	devErr := c.dev.Stop()

	close(c.stopDrain)
	<-c.drainDone

	c.mu.Lock()
	chunks := append([]Chunk(nil), c.chunks...)
	dropped := c.dropped
	c.mu.Unlock()

	if dropped > 0 {
		c.logger.Warn().Int64("bytes", dropped).Msg("capture ring buffer overflowed, audio dropped")
	}
	if devErr != nil {
		return chunks, fmt.Errorf("stopping device: %w", devErr)
	}
	return chunks, nil
}

// Close tears the session down, releasing the device if it is still held.
// Safe to call on an already stopped capture.
func (c *Capture) Close() {
	if _, err := c.Stop(); err != nil {
		c.logger.Warn().Err(err).Msg("capture teardown")
	}
}

// Recording reports whether the device is currently held.
func (c *Capture) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

// Concat joins chunk payloads into one contiguous PCM buffer.
func Concat(chunks []Chunk) []byte {
	total := 0
	for _, ch := range chunks {
		total += len(ch.Data)
	}
	out := make([]byte, 0, total)
	for _, ch := range chunks {
		out = append(out, ch.Data...)
	}
	return out
}
