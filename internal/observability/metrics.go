package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recording session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "estimate_gateway_active_sessions",
		Help: "Number of recording sessions currently open",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "estimate_gateway_sessions_total",
		Help: "Total number of recording sessions started",
	})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "estimate_gateway_session_duration_seconds",
		Help:    "Duration of recording sessions from start to terminal state",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
	})

	sessionOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estimate_gateway_session_outcomes_total",
		Help: "Recording session outcomes by result",
	}, []string{"outcome"}) // merged, no_items, device_unavailable, no_audio, transcription_failed

	// Transcription metrics
	sttRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estimate_gateway_stt_requests_total",
		Help: "Total number of transcription requests",
	}, []string{"provider", "status"})

	sttLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "estimate_gateway_stt_latency_seconds",
		Help:    "Transcription round-trip latency in seconds",
		Buckets: []float64{0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	})

	// Extraction metrics
	extractedItems = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "estimate_gateway_extracted_items",
		Help:    "Line items extracted per transcription",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
	})

	// Persistence and delivery metrics
	estimatesSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estimate_gateway_estimates_saved_total",
		Help: "Estimates written to the store",
	}, []string{"status"})

	emailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estimate_gateway_emails_total",
		Help: "Estimate emails dispatched",
	}, []string{"status"})

	pdfExports = promauto.NewCounter(prometheus.CounterOpts{
		Name: "estimate_gateway_pdf_exports_total",
		Help: "PDF documents rendered",
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "estimate_gateway_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "estimate_gateway_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	// Audio metrics
	audioBytesCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "estimate_gateway_audio_bytes_total",
		Help: "Total audio bytes captured",
	})

	silentRecordings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "estimate_gateway_silent_recordings_total",
		Help: "Recordings whose energy suggested no speech",
	})
)

// SessionMetrics tracks one recording session's timings.
type SessionMetrics struct {
	sessionID    string
	startTime    time.Time
	sttStartTime time.Time
	mu           sync.Mutex
}

// NewSessionMetrics starts tracking a session and bumps the gauges.
func NewSessionMetrics(sessionID string) *SessionMetrics {
	activeSessions.Inc()
	totalSessions.Inc()
	return &SessionMetrics{
		sessionID: sessionID,
		startTime: time.Now(),
	}
}

// RecordEnd closes out the session with its terminal outcome.
func (m *SessionMetrics) RecordEnd(outcome string) {
	activeSessions.Dec()
	sessionDuration.Observe(time.Since(m.startTime).Seconds())
	sessionOutcomes.WithLabelValues(outcome).Inc()
}

// RecordSTTStart marks the beginning of the transcription round trip.
func (m *SessionMetrics) RecordSTTStart() {
	m.mu.Lock()
	m.sttStartTime = time.Now()
	m.mu.Unlock()
}

// RecordSTTEnd records the transcription result and latency.
func (m *SessionMetrics) RecordSTTEnd(provider string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.sttStartTime.IsZero() {
		sttLatency.Observe(time.Since(m.sttStartTime).Seconds())
	}

	status := "success"
	if !success {
		status = "error"
	}
	sttRequests.WithLabelValues(provider, status).Inc()
}

// RecordExtraction records how many items one transcription produced.
func (m *SessionMetrics) RecordExtraction(itemCount int) {
	extractedItems.Observe(float64(itemCount))
}

// RecordAudioBytes counts captured audio volume.
func (m *SessionMetrics) RecordAudioBytes(n int64) {
	audioBytesCaptured.Add(float64(n))
}

// RecordSilentRecording notes a capture that looked like silence.
func (m *SessionMetrics) RecordSilentRecording() {
	silentRecordings.Inc()
}

// RecordError records an error by type and component.
func RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordEstimateSaved counts a persisted estimate by status.
func RecordEstimateSaved(status string) {
	estimatesSaved.WithLabelValues(status).Inc()
}

// RecordEmail counts an email dispatch attempt.
func RecordEmail(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	emailsSent.WithLabelValues(status).Inc()
}

// RecordPDFExport counts a rendered PDF.
func RecordPDFExport() {
	pdfExports.Inc()
}

// UpdateCircuitBreakerState publishes a breaker's position.
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}
