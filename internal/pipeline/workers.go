package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/asr"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/flow"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/metrics"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/tts"
)

// SpeakRequest asks the TTS stage to voice one bot line.
type SpeakRequest struct {
	Text    string
	EndCall bool
}

// SessionResolver finds the flow state for a session; the bridge owns
// the registry.
type SessionResolver interface {
	FlowSession(sessionID string) (*flow.Session, bool)
}

// AudioSink receives synthesized PCM16@16kHz for delivery. The bridge
// implements it with token issuing, encoding and paced sending.
type AudioSink interface {
	Play(sessionID string, pcm16 []byte, endCall bool)
}

// ASRWorker consumes buffered utterances and enqueues transcripts.
// A failed or empty transcription still flows downstream so the flow
// machine can count it as an unclear answer.
type ASRWorker struct {
	In          *Queue[[]byte]
	Out         *Queue[string]
	Transcriber asr.Transcriber
	Timeout     time.Duration
	Log         *zap.Logger
}

// Run dispatches each utterance to its session's lane, so one caller's
// slow transcription never delays another caller. Returns after the
// queue closes and every lane has drained.
func (w *ASRWorker) Run() {
	work := newLanes()
	defer work.Wait()
	for {
		item, ok := w.In.Get()
		if !ok {
			return
		}
		work.Do(item.SessionID, func() { w.transcribe(item) })
	}
}

func (w *ASRWorker) transcribe(item Item[[]byte]) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout())
	text, err := w.Transcriber.Transcribe(ctx, item.Payload)
	cancel()
	status := "success"
	if err != nil {
		status = "error"
		w.Log.Warn("transcription failed",
			zap.String("session", item.SessionID),
			zap.Error(err))
		text = ""
	}
	metrics.CollaboratorDuration.WithLabelValues("asr", status).Observe(time.Since(start).Seconds())
	w.Out.Put(item.SessionID, text)
}

func (w *ASRWorker) timeout() time.Duration {
	if w.Timeout > 0 {
		return w.Timeout
	}
	return 15 * time.Second
}

// FlowWorker advances the conversation one transcript at a time. Each
// session's transitions run on its own lane in arrival order, so flow
// state for a session is strictly sequential while sessions stay
// independent.
type FlowWorker struct {
	In       *Queue[string]
	Out      *Queue[SpeakRequest]
	Machine  *flow.Machine
	Sessions SessionResolver
	// OnDecision runs after each transition, for persistence.
	OnDecision func(sessionID string, s *flow.Session, d flow.Decision)
	Log        *zap.Logger
}

func (w *FlowWorker) Run() {
	work := newLanes()
	defer work.Wait()
	for {
		item, ok := w.In.Get()
		if !ok {
			return
		}
		work.Do(item.SessionID, func() { w.advance(item) })
	}
}

func (w *FlowWorker) advance(item Item[string]) {
	s, ok := w.Sessions.FlowSession(item.SessionID)
	if !ok {
		// Session torn down while the transcript was in flight;
		// the result is discarded.
		w.Log.Debug("transcript for dead session dropped",
			zap.String("session", item.SessionID))
		return
	}

	d := w.Machine.Advance(context.Background(), s, item.Payload)
	w.Log.Info("flow transition",
		zap.String("session", item.SessionID),
		zap.String("outcome", d.Outcome.String()),
		zap.Int("question", s.CurrentQuestion),
		zap.Int("retries", s.RetryCount))

	if w.OnDecision != nil {
		w.OnDecision(item.SessionID, s, d)
	}
	if d.BotText != "" {
		w.Out.Put(item.SessionID, SpeakRequest{Text: d.BotText, EndCall: d.EndCall})
	}
}

// TTSWorker synthesizes bot lines and hands the audio to the sink.
type TTSWorker struct {
	In    *Queue[SpeakRequest]
	Synth tts.Synthesizer
	Sink  AudioSink

	// Retry is the transcript queue. A failed non-closing synthesis
	// feeds an empty transcript back so the flow machine re-asks the
	// question through its unclear-answer path.
	Retry *Queue[string]

	Timeout time.Duration
	Log     *zap.Logger
}

func (w *TTSWorker) Run() {
	work := newLanes()
	defer work.Wait()
	for {
		item, ok := w.In.Get()
		if !ok {
			return
		}
		work.Do(item.SessionID, func() { w.speak(item) })
	}
}

func (w *TTSWorker) speak(item Item[SpeakRequest]) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout())
	pcm, err := w.Synth.Synthesize(ctx, item.Payload.Text)
	cancel()
	status := "success"
	if err != nil {
		status = "error"
		w.Log.Warn("synthesis failed",
			zap.String("session", item.SessionID),
			zap.Error(err))
	}
	metrics.CollaboratorDuration.WithLabelValues("tts", status).Observe(time.Since(start).Seconds())

	if err != nil && !item.Payload.EndCall {
		// The caller heard nothing; route the turn back through the
		// flow machine rather than leaving the line silent.
		if w.Retry != nil {
			w.Retry.Put(item.SessionID, "")
		}
		return
	}

	// A call that must end still ends even when synthesis failed;
	// the sink hangs up after whatever audio there is.
	if len(pcm) > 0 || item.Payload.EndCall {
		w.Sink.Play(item.SessionID, pcm, item.Payload.EndCall)
	}
}

func (w *TTSWorker) timeout() time.Duration {
	if w.Timeout > 0 {
		return w.Timeout
	}
	return 30 * time.Second
}
