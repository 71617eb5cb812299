package bridge

import (
	"encoding/base64"
	"time"

	"go.uber.org/zap"

	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/audio"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/playback"
)

// markEndOfTurn is echoed by the vendor when a response has fully
// played; the echo of markHangup ends the call.
const (
	markEndOfTurn = "end-of-response"
	markHangup    = "end-of-call"
)

// Play implements pipeline.AudioSink. It authorizes a fresh playback
// token for the session and streams the synthesized audio at the wire
// frame rate on its own goroutine.
func (h *Handler) Play(sessionID string, pcm16 []byte, endCall bool) {
	sess := h.Sessions.Get(sessionID)
	if sess == nil {
		h.Log.Debug("audio for dead session dropped", zap.String("session", sessionID))
		return
	}
	if h.Audio != nil {
		h.Audio.CaptureBot(sessionID, pcm16)
	}
	tok := h.Tokens.IssueToken(sessionID)
	go h.stream(sess, tok, pcm16, endCall)
}

// stream paces 20ms frames onto the wire, rechecking the playback
// token before every frame so a barge-in stops the bot within at most
// one extra frame.
func (h *Handler) stream(sess *Session, tok playback.Token, pcm16 []byte, endCall bool) {
	ticker := time.NewTicker(h.frameInterval())
	defer ticker.Stop()

	interrupted := false
	for off := 0; off < len(pcm16); off += audio.PCM16FrameSize {
		if !h.Tokens.IsValid(sess.StreamSid, tok) {
			interrupted = true
			break
		}
		end := off + audio.PCM16FrameSize
		if end > len(pcm16) {
			end = len(pcm16)
		}
		payload, err := encodeWireFrame(pcm16[off:end])
		if err != nil {
			h.Log.Warn("outbound frame encode failed",
				zap.String("session", sess.StreamSid),
				zap.Error(err))
			break
		}
		if err := sess.SendMedia(payload); err != nil {
			h.Log.Warn("media send failed",
				zap.String("session", sess.StreamSid),
				zap.Error(err))
			return
		}
		<-ticker.C
	}

	// A barged-in response sends no mark; the new utterance is already
	// on its way through the pipeline.
	if interrupted && !endCall {
		return
	}
	mark := markEndOfTurn
	if endCall {
		mark = markHangup
		sess.ArmHangup(mark)
	}
	if err := sess.SendMark(mark); err != nil {
		h.Log.Warn("mark send failed",
			zap.String("session", sess.StreamSid),
			zap.Error(err))
		if endCall {
			h.teardown(sess.StreamSid)
		}
	}
}

// encodeWireFrame converts one PCM16@16kHz frame to the vendor's
// base64 mu-law@8kHz encoding. Short tail frames are padded with
// mu-law silence to the full wire frame size.
func encodeWireFrame(pcm16 []byte) (string, error) {
	if len(pcm16) < audio.PCM16FrameSize {
		padded := make([]byte, audio.PCM16FrameSize)
		copy(padded, pcm16)
		pcm16 = padded
	}
	pcm8k, err := audio.Downsample16kTo8k(pcm16)
	if err != nil {
		return "", err
	}
	mulaw, err := audio.EncodeMulaw(pcm8k)
	if err != nil {
		return "", err
	}
	mulaw = audio.PadMulawFrame(mulaw)
	return base64.StdEncoding.EncodeToString(mulaw), nil
}

func (h *Handler) frameInterval() time.Duration {
	if h.FrameInterval > 0 {
		return h.FrameInterval
	}
	return 20 * time.Millisecond
}
