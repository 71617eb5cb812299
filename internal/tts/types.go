// Package tts turns bot text into PCM16 audio at the pipeline rate.
package tts

import "context"

// Synthesizer produces PCM16LE mono audio at 16kHz for the given
// text. Implementations must respect ctx cancellation.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
