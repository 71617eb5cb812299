package bridge

import (
	"sync"

	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/flow"
	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/metrics"
)

// wireConn is the slice of the WebSocket connection the session needs.
// *websocket.Conn satisfies it.
type wireConn interface {
	WriteJSON(v any) error
	Close() error
}

// Session is one live vendor stream. It owns all writes to the
// connection; gorilla conns allow one concurrent writer, so every send
// goes through the write mutex.
type Session struct {
	StreamSid string
	CallSid   string
	Flow      *flow.Session

	conn    wireConn
	writeMu sync.Mutex

	seqMu sync.Mutex
	seq   int64

	// hangupMark, when set, names the mark whose echo ends the call.
	hangupMu   sync.Mutex
	hangupMark string
}

func NewSession(streamSid, callSid string, conn wireConn) *Session {
	return &Session{StreamSid: streamSid, CallSid: callSid, conn: conn}
}

// NextSequence returns the next outbound sequence number. Numbering is
// zero-based: the first frame of a stream carries 0.
func (s *Session) NextSequence() int64 {
	s.seqMu.Lock()
	n := s.seq
	s.seq++
	s.seqMu.Unlock()
	return n
}

// SendMedia sends one base64 mu-law frame to the vendor.
func (s *Session) SendMedia(payload string) error {
	ev := outMedia{
		Event:          EventMedia,
		StreamSid:      s.StreamSid,
		SequenceNumber: s.NextSequence(),
		Media:          outMediaPayload{Payload: payload},
	}
	return s.writeJSON(ev)
}

// SendMark queues a named mark behind the audio already sent.
func (s *Session) SendMark(name string) error {
	ev := outMark{
		Event:          EventMark,
		StreamSid:      s.StreamSid,
		SequenceNumber: s.NextSequence(),
		Mark:           outMarkName{Name: name},
	}
	return s.writeJSON(ev)
}

// SendClear tells the vendor to drop any buffered outbound audio.
// Sent on barge-in so the caller stops hearing the bot immediately.
func (s *Session) SendClear() error {
	return s.writeJSON(outClear{Event: EventClear, StreamSid: s.StreamSid})
}

func (s *Session) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// ArmHangup records the mark name whose echo should end the call.
func (s *Session) ArmHangup(markName string) {
	s.hangupMu.Lock()
	s.hangupMark = markName
	s.hangupMu.Unlock()
}

// HangupArmed reports whether the given echoed mark ends the call.
func (s *Session) HangupArmed(markName string) bool {
	s.hangupMu.Lock()
	defer s.hangupMu.Unlock()
	return s.hangupMark != "" && s.hangupMark == markName
}

// Close shuts the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// Registry maps stream SIDs to live sessions. It also serves the
// pipeline as its session resolver.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers a new session.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	r.sessions[s.StreamSid] = s
	r.mu.Unlock()
	metrics.SessionsActive.Inc()
}

// Get returns the session for streamSid, or nil.
func (r *Registry) Get(streamSid string) *Session {
	r.mu.Lock()
	s := r.sessions[streamSid]
	r.mu.Unlock()
	return s
}

// Remove drops a torn-down session. It is a no-op when the session was
// already removed, so stop events and read-loop exits may both call it.
func (r *Registry) Remove(streamSid string) *Session {
	r.mu.Lock()
	s := r.sessions[streamSid]
	delete(r.sessions, streamSid)
	r.mu.Unlock()
	if s != nil {
		metrics.SessionsActive.Dec()
	}
	return s
}

// FlowSession implements pipeline.SessionResolver.
func (r *Registry) FlowSession(sessionID string) (*flow.Session, bool) {
	s := r.Get(sessionID)
	if s == nil || s.Flow == nil {
		return nil, false
	}
	return s.Flow, true
}
