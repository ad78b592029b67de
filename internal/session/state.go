package session

import "fmt"

// State is the recording session's position in its lifecycle.
//
// Transitions:
//
//	idle → recording → processing → idle   (success)
//	                              → error  (terminal for the session)
type State int

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ErrorKind tags a pipeline failure so the UI can render a specific
// message per kind. Every kind is scoped to the one session that failed;
// nothing here is fatal to the process.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota

	// ErrorDeviceUnavailable: microphone denied or missing. Recoverable by
	// retrying after permissions are fixed.
	ErrorDeviceUnavailable

	// ErrorNoAudioRecorded: stop before any audio arrived. Recoverable,
	// just re-record.
	ErrorNoAudioRecorded

	// ErrorTranscriptionFailed: network or remote failure. Recoverable,
	// retry or re-record.
	ErrorTranscriptionFailed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case ErrorDeviceUnavailable:
		return "device_unavailable"
	case ErrorNoAudioRecorded:
		return "no_audio_recorded"
	case ErrorTranscriptionFailed:
		return "transcription_failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}
