// Package dialer places outbound survey calls and bridges the callee
// into the media stream endpoint.
package dialer

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// Config carries the REST credentials and the public stream endpoint.
type Config struct {
	AccountSID    string
	AuthToken     string
	FromNumber    string
	StreamBaseURL string // wss base the vendor connects back to
}

// callAPI is the slice of the Twilio REST client the dialer uses.
type callAPI interface {
	CreateCall(params *twilioApi.CreateCallParams) (*twilioApi.ApiV2010Call, error)
}

// Service originates calls through the Twilio voice API.
type Service struct {
	api        callAPI
	from       string
	streamBase string
	log        *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Service {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &Service{
		api:        client.Api,
		from:       cfg.FromNumber,
		streamBase: strings.TrimRight(cfg.StreamBaseURL, "/"),
		log:        log,
	}
}

// StartCall dials the customer and returns the call SID. The TwiML
// connects the answered call to the media stream, carrying the
// customer's name as a stream parameter for the greeting.
func (s *Service) StartCall(to, customerName string) (string, error) {
	params := &twilioApi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetTwiml(s.connectTwiml(customerName))

	call, err := s.api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("create call to %s: %w", to, err)
	}
	if call.Sid == nil {
		return "", fmt.Errorf("create call to %s: no call sid returned", to)
	}
	s.log.Info("outbound call placed",
		zap.String("call", *call.Sid),
		zap.String("to", to))
	return *call.Sid, nil
}

func (s *Service) connectTwiml(customerName string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Connect>
    <Stream url="%s/vendor-stream">
      <Parameter name="customer_name" value="%s"/>
    </Stream>
  </Connect>
</Response>`, s.streamBase, xmlEscape(customerName))
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
