package vad

import "fmt"

// Detector is the per-session hysteresis state machine. It is not
// safe for concurrent use; the bridge feeds each session's frames
// from a single goroutine in arrival order.
type Detector struct {
	cfg Config
	cls Classifier
	ev  Events

	decisions    []bool   // rolling speech/non-speech window
	preSpeech    [][]byte // pre-speech ring, newest last
	utterance    []byte
	silenceRun   int // consecutive silent frames in a released window
	triggered    bool
	maxBytes     int
	minBytes     int
	windowFrames int
	preFrames    int
	silentFrames int
}

// NewDetector builds a detector for one session.
func NewDetector(cfg Config, cls Classifier, ev Events) *Detector {
	bytesPerMs := cfg.SampleRate / 1000 * 2
	return &Detector{
		cfg:          cfg,
		cls:          cls,
		ev:           ev,
		maxBytes:     cfg.MaxUtteranceMs * bytesPerMs,
		minBytes:     cfg.MinUtteranceMs * bytesPerMs,
		windowFrames: cfg.DecisionWindowMs / cfg.FrameDurationMs,
		preFrames:    cfg.PreSpeechMs / cfg.FrameDurationMs,
		silentFrames: cfg.TrailingSilenceMs / cfg.FrameDurationMs,
	}
}

// Triggered reports whether a caller utterance is in progress.
func (d *Detector) Triggered() bool { return d.triggered }

// ProcessFrame feeds one fixed-size PCM16 frame. Frames of any other
// size are rejected without touching detector state.
func (d *Detector) ProcessFrame(frame []byte) error {
	if len(frame) != d.cfg.FrameBytes() {
		return fmt.Errorf("vad: frame size %d, want %d", len(frame), d.cfg.FrameBytes())
	}

	prob := d.cls.Score(frame)
	// Uncertain scores between the thresholds count as noise.
	isSpeech := prob > d.OnThreshold()

	d.decisions = append(d.decisions, isSpeech)
	if len(d.decisions) > d.windowFrames {
		d.decisions = d.decisions[len(d.decisions)-d.windowFrames:]
	}
	ratio := d.speechRatio()

	// Pre-speech ring fills regardless of state so the utterance can
	// include the onset audio from before the trigger fired.
	cp := make([]byte, len(frame))
	copy(cp, frame)
	d.preSpeech = append(d.preSpeech, cp)
	if len(d.preSpeech) > d.preFrames {
		d.preSpeech = d.preSpeech[len(d.preSpeech)-d.preFrames:]
	}

	if !d.triggered {
		if ratio >= d.cfg.TriggerRatio {
			d.start()
		}
		return nil
	}

	d.utterance = append(d.utterance, cp...)

	if len(d.utterance) >= d.maxBytes {
		d.finish()
		return nil
	}

	// Only frames below the off threshold count as silence. Uncertain
	// scores in the hysteresis band keep the utterance open even after
	// the window ratio decays.
	if prob < d.cfg.OffThreshold && ratio < d.cfg.ReleaseRatio {
		d.silenceRun++
		if d.silenceRun >= d.silentFrames {
			d.finish()
		}
	} else {
		d.silenceRun = 0
	}
	return nil
}

// OnThreshold exposes the configured speech threshold.
func (d *Detector) OnThreshold() float64 { return d.cfg.OnThreshold }

// Reset drops all buffered state, ending any in-progress utterance
// without emitting events. Used on session teardown.
func (d *Detector) Reset() {
	d.decisions = d.decisions[:0]
	d.preSpeech = d.preSpeech[:0]
	d.utterance = nil
	d.silenceRun = 0
	d.triggered = false
}

func (d *Detector) speechRatio() float64 {
	if len(d.decisions) == 0 {
		return 0
	}
	var t int
	for _, b := range d.decisions {
		if b {
			t++
		}
	}
	return float64(t) / float64(len(d.decisions))
}

func (d *Detector) start() {
	d.triggered = true
	d.silenceRun = 0
	// The newest pre-speech entry is the current frame, so the whole
	// ring seeds the utterance.
	for _, f := range d.preSpeech {
		d.utterance = append(d.utterance, f...)
	}
	if d.ev.OnSpeechStart != nil {
		d.ev.OnSpeechStart()
	}
}

func (d *Detector) finish() {
	buf := d.utterance
	if len(buf) < d.minBytes {
		buf = nil
	}
	if d.ev.OnSpeechEnd != nil {
		d.ev.OnSpeechEnd(buf)
	}
	d.utterance = nil
	d.preSpeech = d.preSpeech[:0]
	d.decisions = d.decisions[:0]
	d.silenceRun = 0
	d.triggered = false
}
