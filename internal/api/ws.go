// Package api exposes the recording WebSocket and the REST surface for
// drafts, estimates, and the business profile.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/fieldquote/estimate-gateway/internal/audio"
	"github.com/fieldquote/estimate-gateway/internal/config"
	"github.com/fieldquote/estimate-gateway/internal/draft"
	"github.com/fieldquote/estimate-gateway/internal/extract"
	"github.com/fieldquote/estimate-gateway/internal/observability"
	"github.com/fieldquote/estimate-gateway/internal/session"
	"github.com/fieldquote/estimate-gateway/internal/stt"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The gateway sits behind the app's own reverse proxy; origin
		// enforcement happens there.
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// RecordingMessage is one frame from the recorder client.
type RecordingMessage struct {
	Event  string           `json:"event"`
	Media  *RecordingMedia  `json:"media,omitempty"`
	Client *RecordingClient `json:"client,omitempty"`
}

// RecordingMedia carries one base64-encoded PCM16 payload.
type RecordingMedia struct {
	Payload string `json:"payload"`
}

// RecordingClient carries client contact details captured in the app UI.
type RecordingClient struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// recordingReply is one frame sent back to the recorder client.
type recordingReply struct {
	Event     string      `json:"event"`
	SessionID string      `json:"session_id,omitempty"`
	Kind      string      `json:"kind,omitempty"`
	Message   string      `json:"message,omitempty"`
	NoItems   bool        `json:"no_items,omitempty"`
	Draft     *draftReply `json:"draft,omitempty"`
}

type draftReply struct {
	Description string           `json:"description"`
	Items       []draft.LineItem `json:"items"`
	Client      draft.ClientInfo `json:"client"`
	Notes       string           `json:"notes"`
}

// RecordingHandler owns one WebSocket connection per recorder and the
// session controller behind it.
type RecordingHandler struct {
	cfg         *config.Config
	transcriber stt.Transcriber
	drafts      *draft.Store
	logger      zerolog.Logger
}

// NewRecordingHandler wires the recording endpoint.
func NewRecordingHandler(cfg *config.Config, transcriber stt.Transcriber, drafts *draft.Store, logger zerolog.Logger) *RecordingHandler {
	return &RecordingHandler{cfg: cfg, transcriber: transcriber, drafts: drafts, logger: logger}
}

// HandleWS upgrades the connection and runs the recording protocol:
// start, media frames, optional client frame, stop. The connection
// stays open so the user can record again into the same draft.
func (h *RecordingHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// One correlation ID per connection; every session on it logs under
	// the same tag.
	logger := h.logger.With().Str("correlation_id", observability.NewCorrelationID()).Logger()

	device := audio.NewPushDevice()
	capture := audio.NewCapture(device, h.cfg.AudioBufferSize, h.cfg.AudioChunkSize, logger)
	defer capture.Close()

	controller := session.NewController(capture, h.transcriber, h.drafts, session.Config{
		SampleRate:       h.cfg.SampleRate,
		TranscribeWindow: time.Duration(h.cfg.TranscriptionTimeout) * time.Second,
	}, logger)

	logger.Info().Str("remote", r.RemoteAddr).Msg("recorder connected")

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		var msg RecordingMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			h.logger.Error().Err(err).Msg("failed to parse recorder message")
			continue
		}

		switch msg.Event {
		case "start":
			if err := controller.Start(); err != nil {
				h.writeError(conn, controller.LastErrorKind().String(), err)
				continue
			}
			h.write(conn, recordingReply{Event: "started"})

		case "media":
			if msg.Media == nil || msg.Media.Payload == "" {
				continue
			}
			pcm, err := base64.StdEncoding.DecodeString(msg.Media.Payload)
			if err != nil {
				h.logger.Warn().Err(err).Msg("failed to decode media payload")
				continue
			}
			device.Push(pcm)

		case "client":
			if msg.Client != nil {
				controller.AttachClient(extract.ClientInfo{
					Name:    msg.Client.Name,
					Phone:   msg.Client.Phone,
					Email:   msg.Client.Email,
					Address: msg.Client.Address,
				})
			}

		case "stop":
			done, err := controller.Stop(r.Context())
			if err != nil {
				h.writeError(conn, "", err)
				continue
			}
			h.write(conn, recordingReply{Event: "processing"})
			// One recording at a time per connection; waiting here is
			// the natural backpressure.
			outcome := h.wait(r.Context(), done)
			h.writeOutcome(conn, outcome)

		default:
			h.logger.Warn().Str("event", msg.Event).Msg("unknown recorder event")
		}
	}
}

func (h *RecordingHandler) wait(ctx context.Context, done <-chan session.Outcome) session.Outcome {
	select {
	case outcome := <-done:
		return outcome
	case <-ctx.Done():
		return session.Outcome{Kind: session.ErrorTranscriptionFailed, Err: ctx.Err()}
	}
}

func (h *RecordingHandler) writeOutcome(conn *websocket.Conn, outcome session.Outcome) {
	if outcome.Failed() {
		h.write(conn, recordingReply{
			Event:     "error",
			SessionID: outcome.SessionID,
			Kind:      outcome.Kind.String(),
			Message:   outcome.Err.Error(),
		})
		return
	}

	d := h.drafts.Snapshot()
	h.write(conn, recordingReply{
		Event:     "result",
		SessionID: outcome.SessionID,
		NoItems:   outcome.NoItems,
		Draft: &draftReply{
			Description: d.Description,
			Items:       d.Items,
			Client:      d.Client,
			Notes:       d.Notes,
		},
	})
}

func (h *RecordingHandler) writeError(conn *websocket.Conn, kind string, err error) {
	h.write(conn, recordingReply{Event: "error", Kind: kind, Message: err.Error()})
}

func (h *RecordingHandler) write(conn *websocket.Conn, reply recordingReply) {
	if err := conn.WriteJSON(reply); err != nil {
		h.logger.Warn().Err(err).Msg("failed to write websocket reply")
	}
}
