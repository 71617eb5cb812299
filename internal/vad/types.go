// Package vad turns per-frame speech probabilities into utterance
// boundary events using hysteresis and timeout rules.
package vad

// Classifier scores one audio frame with a speech probability in [0,1].
// The real neural model lives behind this interface; the engine only
// consumes the score.
type Classifier interface {
	Score(frame []byte) float64
}

// Config holds the thresholds for the decision engine.
type Config struct {
	SampleRate      int     // 16000
	FrameDurationMs int     // 20
	OnThreshold     float64 // frame prob above this counts as speech
	OffThreshold    float64 // frame prob below this counts as silence
	TriggerRatio    float64 // window speech ratio to start an utterance
	ReleaseRatio    float64 // window speech ratio below which silence accrues

	DecisionWindowMs  int // rolling decision window
	PreSpeechMs       int // audio prepended to the utterance on start
	TrailingSilenceMs int // sustained silence that ends the utterance
	MinUtteranceMs    int // shorter utterances are discarded
	MaxUtteranceMs    int // hard cap, end is forced past this
}

// DefaultTelephony returns the tuning used for 8kHz telephony callers
// upsampled to the 16kHz pipeline rate.
func DefaultTelephony() Config {
	return Config{
		SampleRate:        16000,
		FrameDurationMs:   20,
		OnThreshold:       0.85,
		OffThreshold:      0.50,
		TriggerRatio:      0.90,
		ReleaseRatio:      0.25,
		DecisionWindowMs:  480,
		PreSpeechMs:       400,
		TrailingSilenceMs: 700,
		MinUtteranceMs:    1200,
		MaxUtteranceMs:    20000,
	}
}

// FrameBytes returns the expected PCM16 frame size for this config.
func (c Config) FrameBytes() int {
	return c.SampleRate / 1000 * c.FrameDurationMs * 2
}

// Events allows the host to react to utterance boundaries.
type Events struct {
	// OnSpeechStart fires once when an utterance begins. Hosts use it
	// to invalidate playback (barge-in).
	OnSpeechStart func()
	// OnSpeechEnd fires once per started utterance. utterance is the
	// accumulated PCM16 audio including pre-speech; it is nil when the
	// utterance was shorter than MinUtteranceMs and was discarded.
	OnSpeechEnd func(utterance []byte)
}
