package bridge

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/audio"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/flow"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/metrics"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/pipeline"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/playback"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/vad"
)

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  65536,
	WriteBufferSize: 65536,
	CheckOrigin: func(r *http.Request) bool {
		// The vendor connects from its own media gateways.
		return true
	},
}

// Recorder archives per-turn call audio. A nil recorder disables
// capture without touching the audio path.
type Recorder interface {
	CaptureCaller(sessionID string, pcm16 []byte)
	CaptureBot(sessionID string, pcm16 []byte)
	EndSession(sessionID string)
}

// NameResolver maps a call SID to the customer's name for the opening
// question. Resolution failing is fine; the greeting falls back to the
// vendor's custom parameters.
type NameResolver interface {
	CustomerName(callSid string) (string, bool)
}

// Handler terminates vendor media streams: it decodes inbound events,
// runs caller audio through the speech detector and plays synthesized
// responses back, all per session.
type Handler struct {
	Sessions  *Registry
	Detectors *vad.Registry
	Tokens    *playback.Controller
	Machine   *flow.Machine

	// NewClassifier builds the per-session speech scorer.
	NewClassifier func() vad.Classifier

	Utterances  *pipeline.Queue[[]byte]
	Transcripts *pipeline.Queue[string]
	Speaks      *pipeline.Queue[pipeline.SpeakRequest]

	// Names resolves greeting names from the dialer's records; nil
	// falls back to the start event's custom parameters.
	Names NameResolver

	// Audio archives caller and bot turns; nil disables recording.
	Audio Recorder

	// OnSessionEnd runs once per torn-down session, with its final
	// flow state. Used for persistence and recording upload.
	OnSessionEnd func(streamSid, callSid string, fs *flow.Session)

	// FrameInterval overrides outbound pacing; zero means 20ms.
	FrameInterval time.Duration

	Log *zap.Logger
}

// ServeStream upgrades the request and runs the read loop until the
// vendor disconnects or the call ends.
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("stream upgrade failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	var streamSid string
	for {
		mt, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if mt != websocket.TextMessage {
			continue
		}
		ev, err := DecodeEvent(raw)
		if err != nil {
			h.Log.Warn("bad vendor event", zap.Error(err))
			continue
		}
		if done := h.handleEvent(conn, ev, &streamSid); done {
			break
		}
	}
	if streamSid != "" {
		h.teardown(streamSid)
	}
}

// handleEvent dispatches one decoded event. It returns true when the
// stream is over and the loop should exit.
func (h *Handler) handleEvent(conn wireConn, ev *Event, streamSid *string) bool {
	switch ev.Type {
	case EventConnected:
		h.Log.Info("vendor connected")

	case EventStart:
		*streamSid = ev.Start.StreamSid
		h.handleStart(conn, ev.Start)

	case EventMedia:
		h.handleMedia(*streamSid, ev.Media)

	case EventStop:
		h.Log.Info("stream stopped",
			zap.String("session", *streamSid),
			zap.String("call", ev.Stop.CallSid),
			zap.String("reason", ev.Stop.Reason))
		return true

	case EventDTMF:
		h.Log.Info("dtmf received",
			zap.String("session", *streamSid),
			zap.String("digit", ev.DTMF.Digit))

	case EventMark:
		if sess := h.Sessions.Get(*streamSid); sess != nil && sess.HangupArmed(ev.Mark.Name) {
			h.Log.Info("closing mark played, hanging up",
				zap.String("session", *streamSid))
			return true
		}

	case EventClear:
		// The vendor flushed its buffer; whatever we were playing is
		// no longer being heard.
		h.Tokens.Invalidate(*streamSid)
	}
	return false
}

func (h *Handler) handleStart(conn wireConn, start *StartData) {
	sess := NewSession(start.StreamSid, start.CallSid, conn)
	name := start.CustomParameters["customer_name"]
	if h.Names != nil {
		if n, ok := h.Names.CustomerName(start.CallSid); ok {
			name = n
		}
	}
	sess.Flow = flow.NewSession(start.StreamSid, name)
	h.Sessions.Add(sess)

	streamSid := start.StreamSid
	h.Detectors.Attach(streamSid, h.NewClassifier(), vad.Events{
		OnSpeechStart: func() {
			h.Tokens.Invalidate(streamSid)
			metrics.BargeInsTotal.Inc()
			if err := sess.SendClear(); err != nil {
				h.Log.Warn("clear send failed",
					zap.String("session", streamSid),
					zap.Error(err))
			}
		},
		OnSpeechEnd: func(utterance []byte) {
			if utterance == nil {
				metrics.UtterancesTotal.WithLabelValues("discarded").Inc()
				return
			}
			metrics.UtterancesTotal.WithLabelValues("kept").Inc()
			if h.Audio != nil {
				h.Audio.CaptureCaller(streamSid, utterance)
			}
			h.Utterances.Put(streamSid, utterance)
		},
	})

	h.Log.Info("stream started",
		zap.String("session", streamSid),
		zap.String("call", start.CallSid),
		zap.String("customer", name))

	if text := h.Machine.FirstQuestion(sess.Flow); text != "" {
		h.Speaks.Put(streamSid, pipeline.SpeakRequest{Text: text})
	}
}

func (h *Handler) handleMedia(streamSid string, media *MediaData) {
	sess := h.Sessions.Get(streamSid)
	det := h.Detectors.Get(streamSid)
	if sess == nil || det == nil {
		metrics.FramesDroppedTotal.WithLabelValues("no_session").Inc()
		return
	}
	mulaw, err := base64.StdEncoding.DecodeString(media.Payload)
	if err != nil {
		metrics.FramesDroppedTotal.WithLabelValues("base64").Inc()
		h.Log.Warn("undecodable media payload",
			zap.String("session", streamSid),
			zap.Error(err))
		return
	}
	if err := audio.ValidateMulawFrame(mulaw); err != nil {
		metrics.FramesDroppedTotal.WithLabelValues("size").Inc()
		h.Log.Warn("malformed media frame dropped",
			zap.String("session", streamSid),
			zap.Error(err))
		return
	}
	pcm16, err := audio.Upsample8kTo16k(audio.DecodeMulaw(mulaw))
	if err != nil {
		metrics.FramesDroppedTotal.WithLabelValues("alignment").Inc()
		return
	}
	if err := audio.ValidatePCM16Frame(pcm16); err != nil {
		metrics.FramesDroppedTotal.WithLabelValues("size").Inc()
		return
	}
	if err := det.ProcessFrame(pcm16); err != nil {
		metrics.FramesDroppedTotal.WithLabelValues("detector").Inc()
		h.Log.Warn("detector rejected frame",
			zap.String("session", streamSid),
			zap.Error(err))
	}
}

// teardown releases everything a session owns. Safe to call twice;
// the registry removal is the gate.
func (h *Handler) teardown(streamSid string) {
	sess := h.Sessions.Remove(streamSid)
	if sess == nil {
		return
	}
	h.Detectors.Remove(streamSid)
	h.Tokens.Release(streamSid)
	h.Utterances.Drop(streamSid)
	h.Transcripts.Drop(streamSid)
	h.Speaks.Drop(streamSid)
	if h.Audio != nil {
		h.Audio.EndSession(streamSid)
	}
	if h.OnSessionEnd != nil {
		h.OnSessionEnd(streamSid, sess.CallSid, sess.Flow)
	}
	_ = sess.Close()
	h.Log.Info("session torn down", zap.String("session", streamSid))
}
