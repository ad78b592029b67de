package audio

import (
	"sync"
)

// FakeDevice is an in-process Device for tests. It delivers its canned PCM
// to the callback synchronously on Start, split into frames, and records
// whether it was released.
type FakeDevice struct {
	PCM       []byte
	FrameSize int
	StartErr  error

	mu       sync.Mutex
	started  bool
	stopped  int
}

// Start delivers the canned audio immediately unless StartErr is set.
func (f *FakeDevice) Start(cb DataFunc) error {
	if f.StartErr != nil {
		return f.StartErr
	}

	f.mu.Lock()
	f.started = true
	f.mu.Unlock()

	frame := f.FrameSize
	if frame <= 0 {
		frame = 1024
	}
	for pos := 0; pos < len(f.PCM); pos += frame {
		end := pos + frame
		if end > len(f.PCM) {
			end = len(f.PCM)
		}
		chunk := make([]byte, end-pos)
		copy(chunk, f.PCM[pos:end])
		cb(chunk)
	}
	return nil
}

// Stop marks the device released. Counted so tests can assert the handle is
// released exactly as expected on every exit path.
func (f *FakeDevice) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = false
	f.stopped++
	return nil
}

// Held reports whether the device handle is currently open.
func (f *FakeDevice) Held() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

// StopCalls returns how many times Stop was invoked.
func (f *FakeDevice) StopCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}
