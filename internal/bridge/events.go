// Package bridge speaks the telephony vendor's media-stream protocol
// over WebSocket and connects it to the audio pipeline.
package bridge

import (
	"encoding/json"
	"fmt"
)

// Inbound event types. The set is closed; DecodeEvent rejects anything
// else instead of passing it through.
const (
	EventConnected = "connected"
	EventStart     = "start"
	EventMedia     = "media"
	EventStop      = "stop"
	EventDTMF      = "dtmf"
	EventMark      = "mark"
	EventClear     = "clear"
)

// StartData carries the call metadata delivered with the start event.
type StartData struct {
	CallSid          string            `json:"callSid"`
	StreamSid        string            `json:"streamSid"`
	AccountSid       string            `json:"accountSid,omitempty"`
	Tracks           string            `json:"tracks,omitempty"`
	CustomParameters map[string]string `json:"customParameters,omitempty"`
	MediaFormat      map[string]any    `json:"mediaFormat,omitempty"`
}

// MediaData is one inbound chunk of base64 mu-law audio.
type MediaData struct {
	Payload   string `json:"payload"`
	Chunk     int    `json:"chunk,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// StopData reports why the vendor ended the stream.
type StopData struct {
	CallSid    string `json:"callSid"`
	Reason     string `json:"reason,omitempty"`
	AccountSid string `json:"accountSid,omitempty"`
}

// DTMFData is a keypad press relayed mid-call.
type DTMFData struct {
	CallSid   string `json:"callSid,omitempty"`
	StreamSid string `json:"streamSid,omitempty"`
	Digit     string `json:"digit"`
	Track     string `json:"track,omitempty"`
}

// MarkData echoes a previously sent mark name once the vendor has
// played all audio queued before it.
type MarkData struct {
	CallSid   string `json:"callSid,omitempty"`
	StreamSid string `json:"streamSid,omitempty"`
	Name      string `json:"name"`
}

// Event is the decoded inbound envelope. Exactly one of the pointer
// fields is set, matching Type.
type Event struct {
	Type           string     `json:"event"`
	SequenceNumber int64      `json:"sequenceNumber,omitempty"`
	StreamSid      string     `json:"streamSid,omitempty"`
	Start          *StartData `json:"start,omitempty"`
	Media          *MediaData `json:"media,omitempty"`
	Stop           *StopData  `json:"stop,omitempty"`
	DTMF           *DTMFData  `json:"dtmf,omitempty"`
	Mark           *MarkData  `json:"mark,omitempty"`
}

// DecodeEvent parses one inbound frame and validates that the payload
// section required for its type is present.
func DecodeEvent(raw []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("decode vendor event: %w", err)
	}
	switch ev.Type {
	case EventConnected, EventClear:
	case EventStart:
		if ev.Start == nil {
			return nil, fmt.Errorf("start event without start data")
		}
	case EventMedia:
		if ev.Media == nil {
			return nil, fmt.Errorf("media event without media data")
		}
	case EventStop:
		if ev.Stop == nil {
			return nil, fmt.Errorf("stop event without stop data")
		}
	case EventDTMF:
		if ev.DTMF == nil {
			return nil, fmt.Errorf("dtmf event without dtmf data")
		}
	case EventMark:
		if ev.Mark == nil {
			return nil, fmt.Errorf("mark event without mark data")
		}
	default:
		return nil, fmt.Errorf("unknown vendor event %q", ev.Type)
	}
	return &ev, nil
}

// outMedia is the outbound audio frame envelope.
type outMedia struct {
	Event          string          `json:"event"`
	StreamSid      string          `json:"streamSid"`
	SequenceNumber int64           `json:"sequenceNumber"`
	Media          outMediaPayload `json:"media"`
}

type outMediaPayload struct {
	Payload string `json:"payload"`
}

// outMark asks the vendor to echo name once queued audio has played.
type outMark struct {
	Event          string      `json:"event"`
	StreamSid      string      `json:"streamSid"`
	SequenceNumber int64       `json:"sequenceNumber"`
	Mark           outMarkName `json:"mark"`
}

type outMarkName struct {
	Name string `json:"name"`
}

// outClear flushes the vendor's outbound audio buffer.
type outClear struct {
	Event     string `json:"event"`
	StreamSid string `json:"streamSid"`
}
