package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPSynthesizer streams audio from a self-hosted TTS endpoint that
// accepts {"text": ...} and responds with raw PCM16@16kHz or a WAV
// file carrying the same.
type HTTPSynthesizer struct {
	HTTP *http.Client
	URL  string
}

func NewHTTPSynthesizer(url string) *HTTPSynthesizer {
	return &HTTPSynthesizer{
		HTTP: &http.Client{Timeout: 30 * time.Second},
		URL:  url,
	}
}

func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if s.URL == "" {
		return nil, fmt.Errorf("tts: endpoint missing")
	}
	if text == "" {
		return nil, nil
	}

	body, _ := json.Marshal(map[string]string{"text": text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tts: status=%d body=%s", resp.StatusCode, string(b))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts: read body: %w", err)
	}
	return StripWAVHeader(audio), nil
}

// StripWAVHeader drops a RIFF container if present, returning the raw
// sample data. Non-WAV input is returned unchanged.
func StripWAVHeader(b []byte) []byte {
	if len(b) < 44 || !bytes.HasPrefix(b, []byte("RIFF")) {
		return b
	}
	// Walk the chunks; the data chunk is usually at offset 36 but
	// encoders may insert LIST/fact chunks first.
	off := 12
	for off+8 <= len(b) {
		id := string(b[off : off+4])
		size := int(uint32(b[off+4]) | uint32(b[off+5])<<8 | uint32(b[off+6])<<16 | uint32(b[off+7])<<24)
		if id == "data" {
			end := off + 8 + size
			if end > len(b) {
				end = len(b)
			}
			return b[off+8 : end]
		}
		off += 8 + size
	}
	return b
}
