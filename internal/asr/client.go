// Package asr posts utterance audio to an HTTP transcription backend.
package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/DRONA-VOCAB/LTFS-Conversational-Flow-sub001/internal/audio"
)

// Transcriber converts an utterance to text. Empty text with nil
// error means the backend heard nothing usable.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm16 []byte) (string, error)
}

// HTTPClient posts WAV files to a transcription endpoint that answers
// {"transcription": "..."}.
type HTTPClient struct {
	HTTP       *http.Client
	URL        string
	SampleRate int
}

func NewHTTPClient(url string) *HTTPClient {
	return &HTTPClient{
		HTTP:       &http.Client{Timeout: 15 * time.Second},
		URL:        url,
		SampleRate: audio.PipelineSampleRate,
	}
}

type transcribeResponse struct {
	Transcription string `json:"transcription"`
}

func (c *HTTPClient) Transcribe(ctx context.Context, pcm16 []byte) (string, error) {
	if c.URL == "" {
		return "", fmt.Errorf("asr: endpoint missing")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(audio.WrapWAV(pcm16, c.SampleRate)); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("asr: status=%d body=%s", resp.StatusCode, string(b))
	}

	var tr transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", err
	}
	return strings.TrimSpace(tr.Transcription), nil
}
