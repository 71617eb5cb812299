package vad

import (
	"encoding/binary"
	"math"
)

// EnergyClassifier is the default Classifier: an RMS noise gate with a
// linear energy-to-probability mapping. It stands in for the neural
// model when none is wired.
type EnergyClassifier struct {
	// NoiseGate is the normalized RMS below which the frame scores 0.
	NoiseGate float64
	// FullScale is the normalized RMS at which the frame scores 1.
	FullScale float64
}

// NewEnergyClassifier returns a classifier tuned to block steady
// fan/AC noise while scoring normal speech near 1.
func NewEnergyClassifier() *EnergyClassifier {
	return &EnergyClassifier{NoiseGate: 0.01, FullScale: 0.125}
}

func (e *EnergyClassifier) Score(frame []byte) float64 {
	if len(frame) < 2 {
		return 0
	}
	var sum float64
	n := len(frame) / 2
	for i := 0; i < n; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(frame[i*2:]))) / 32768.0
		sum += s * s
	}
	rms := math.Sqrt(sum / float64(n))
	if rms < e.NoiseGate {
		return 0
	}
	p := rms / e.FullScale
	if p > 1 {
		p = 1
	}
	return p
}
