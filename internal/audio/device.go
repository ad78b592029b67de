package audio

import (
	"errors"
	"sync"
)

// DataFunc receives raw PCM bytes from a device as they arrive.
type DataFunc func(pcm []byte)

// Device is one microphone source. Start begins delivering audio to the
// callback from a background goroutine; Stop ends delivery and releases
// whatever handle the device holds. Stop must be safe to call more than
// once.
type Device interface {
	Start(cb DataFunc) error
	Stop() error
}

// ErrDeviceUnavailable is returned when no input device exists or access
// to it was denied.
var ErrDeviceUnavailable = errors.New("audio device unavailable")

// PushDevice is a Device fed by an external transport rather than local
// hardware: the WebSocket handler pushes decoded media frames into it as
// the browser's recorder delivers them.
type PushDevice struct {
	mu      sync.Mutex
	cb      DataFunc
	started bool
}

// NewPushDevice returns an idle push device.
func NewPushDevice() *PushDevice {
	return &PushDevice{}
}

// Start arms the device; pushed frames are forwarded to cb from here on.
func (p *PushDevice) Start(cb DataFunc) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return errors.New("push device already started")
	}
	p.cb = cb
	p.started = true
	return nil
}

// Stop disarms the device. Frames pushed after Stop are dropped.
func (p *PushDevice) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cb = nil
	p.started = false
	return nil
}

// Push hands one frame of PCM to the capture callback. Frames arriving
// while the device is stopped are silently dropped; the browser may still
// be flushing its recorder when the session has already ended.
func (p *PushDevice) Push(pcm []byte) {
	p.mu.Lock()
	cb := p.cb
	p.mu.Unlock()

	if cb != nil {
		cb(pcm)
	}
}
