package bridge

import (
	"encoding/base64"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/audio"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/playback"
)

func newSenderHandler() *Handler {
	return &Handler{
		Sessions:      NewRegistry(),
		Tokens:        playback.NewController(),
		FrameInterval: time.Millisecond,
		Log:           zap.NewNop(),
	}
}

func TestStreamSendsAllFramesThenMark(t *testing.T) {
	h := newSenderHandler()
	conn := &fakeConn{}
	sess := NewSession("ST1", "CA1", conn)
	h.Sessions.Add(sess)

	tok := h.Tokens.IssueToken("ST1")
	pcm := make([]byte, 3*audio.PCM16FrameSize)
	h.stream(sess, tok, pcm, false)

	writes := conn.snapshot()
	if len(writes) != 4 {
		t.Fatalf("writes = %d, want 3 media + 1 mark", len(writes))
	}
	for i := 0; i < 3; i++ {
		ev, ok := writes[i].(outMedia)
		if !ok {
			t.Fatalf("write %d is %T", i, writes[i])
		}
		if ev.SequenceNumber != int64(i) {
			t.Fatalf("frame %d sequence = %d", i, ev.SequenceNumber)
		}
		raw, err := base64.StdEncoding.DecodeString(ev.Media.Payload)
		if err != nil {
			t.Fatalf("frame %d payload: %v", i, err)
		}
		if len(raw) != audio.MulawFrameSize {
			t.Fatalf("frame %d wire size = %d", i, len(raw))
		}
	}
	mark, ok := writes[3].(outMark)
	if !ok || mark.Mark.Name != markEndOfTurn {
		t.Fatalf("final write = %+v", writes[3])
	}
	if mark.SequenceNumber != 3 {
		t.Fatalf("mark sequence = %d", mark.SequenceNumber)
	}
}

func TestStreamStopsAfterInvalidation(t *testing.T) {
	h := newSenderHandler()
	conn := &fakeConn{}
	sess := NewSession("ST1", "CA1", conn)
	h.Sessions.Add(sess)

	// Barge in while the first frame is on the wire. The sender checks
	// the token before every frame, so nothing follows it.
	conn.onWrite = func(v any) {
		if _, ok := v.(outMedia); ok {
			h.Tokens.Invalidate("ST1")
		}
	}
	tok := h.Tokens.IssueToken("ST1")
	h.stream(sess, tok, make([]byte, 10*audio.PCM16FrameSize), false)

	writes := conn.snapshot()
	if len(writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(writes))
	}
	if _, ok := writes[0].(outMedia); !ok {
		t.Fatalf("write is %T, want media with no trailing mark", writes[0])
	}
}

func TestStreamEndCallArmsHangupMark(t *testing.T) {
	h := newSenderHandler()
	conn := &fakeConn{}
	sess := NewSession("ST1", "CA1", conn)
	h.Sessions.Add(sess)

	tok := h.Tokens.IssueToken("ST1")
	h.stream(sess, tok, make([]byte, audio.PCM16FrameSize), true)

	writes := conn.snapshot()
	mark, ok := writes[len(writes)-1].(outMark)
	if !ok || mark.Mark.Name != markHangup {
		t.Fatalf("final write = %+v", writes[len(writes)-1])
	}
	if !sess.HangupArmed(markHangup) {
		t.Fatal("hangup not armed after closing audio")
	}
}

func TestEncodeWireFramePadsShortTail(t *testing.T) {
	payload, err := encodeWireFrame(make([]byte, audio.PCM16FrameSize/2))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	if len(raw) != audio.MulawFrameSize {
		t.Fatalf("wire size = %d, want %d", len(raw), audio.MulawFrameSize)
	}
	for i := audio.MulawFrameSize / 2; i < len(raw); i++ {
		if raw[i] != audio.MulawSilence {
			t.Fatalf("pad byte %d = %#x, want mu-law silence", i, raw[i])
		}
	}
}

func TestPlayIgnoresDeadSession(t *testing.T) {
	h := newSenderHandler()
	h.Play("missing", make([]byte, audio.PCM16FrameSize), false)
}
