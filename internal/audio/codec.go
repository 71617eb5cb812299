// Package audio implements the G.711 mu-law codec, sample-rate
// conversion and framing used on the telephony wire.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrInvalidFrameSize marks a frame whose length does not match the
// fixed size for its format. Callers drop such frames at the boundary.
var ErrInvalidFrameSize = errors.New("audio: invalid frame size")

const (
	// WireSampleRate is the telephony wire rate (G.711 mu-law).
	WireSampleRate = 8000
	// PipelineSampleRate is the rate the VAD and ASR operate at.
	PipelineSampleRate = 16000
	// FrameDurationMs is the wire frame duration.
	FrameDurationMs = 20

	// PCM16FrameSize is the size of a 20ms PCM16 frame at 16kHz.
	PCM16FrameSize = PipelineSampleRate / 1000 * FrameDurationMs * 2 // 640
	// MulawFrameSize is the size of a 20ms mu-law frame at 8kHz.
	MulawFrameSize = WireSampleRate / 1000 * FrameDurationMs // 160

	// MulawSilence is the mu-law code for zero amplitude, used to pad
	// short trailing frames.
	MulawSilence = 0xFF
)

const (
	mulawBias = 0x84
	mulawClip = 32635
)

// MulawToLinear expands one mu-law byte to a 16-bit linear sample.
func MulawToLinear(u byte) int16 {
	u = ^u
	sign := u & 0x80
	exp := (u >> 4) & 0x07
	mant := u & 0x0F
	value := (int(mant) << 3) + mulawBias
	value <<= uint(exp)
	value -= mulawBias
	if sign != 0 {
		return int16(-value)
	}
	return int16(value)
}

// LinearToMulaw compands one 16-bit linear sample to a mu-law byte.
func LinearToMulaw(sample int16) byte {
	sign := byte(0)
	s := int(sample)
	if s < 0 {
		s = -s
		sign = 0x80
	}
	if s > mulawClip {
		s = mulawClip
	}
	s += mulawBias

	exp := byte(7)
	for mask := 0x4000; (s&mask) == 0 && exp > 0; mask >>= 1 {
		exp--
	}
	mant := byte((s >> (uint(exp) + 3)) & 0x0F)
	return ^(sign | (exp << 4) | mant)
}

// DecodeMulaw expands mu-law bytes into little-endian PCM16 bytes.
func DecodeMulaw(mulaw []byte) []byte {
	pcm := make([]byte, len(mulaw)*2)
	for i, b := range mulaw {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(MulawToLinear(b)))
	}
	return pcm
}

// EncodeMulaw compands little-endian PCM16 bytes into mu-law bytes.
// The input must hold whole samples.
func EncodeMulaw(pcm []byte) ([]byte, error) {
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("audio: pcm length %d is not sample aligned", len(pcm))
	}
	out := make([]byte, len(pcm)/2)
	for i := range out {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		out[i] = LinearToMulaw(s)
	}
	return out, nil
}

// Downsample16kTo8k halves the sample rate of little-endian PCM16 by
// averaging adjacent sample pairs.
func Downsample16kTo8k(pcm []byte) ([]byte, error) {
	if len(pcm)%4 != 0 {
		return nil, fmt.Errorf("audio: pcm length %d is not pair aligned", len(pcm))
	}
	out := make([]byte, len(pcm)/2)
	for i := 0; i < len(pcm)/4; i++ {
		a := int(int16(binary.LittleEndian.Uint16(pcm[i*4:])))
		b := int(int16(binary.LittleEndian.Uint16(pcm[i*4+2:])))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16((a+b)/2)))
	}
	return out, nil
}

// Upsample8kTo16k doubles the sample rate of little-endian PCM16 by
// linear interpolation between neighbouring samples.
func Upsample8kTo16k(pcm []byte) ([]byte, error) {
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("audio: pcm length %d is not sample aligned", len(pcm))
	}
	n := len(pcm) / 2
	out := make([]byte, len(pcm)*2)
	for i := 0; i < n; i++ {
		cur := int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
		next := cur
		if i+1 < n {
			next = int(int16(binary.LittleEndian.Uint16(pcm[(i+1)*2:])))
		}
		binary.LittleEndian.PutUint16(out[i*4:], uint16(int16(cur)))
		binary.LittleEndian.PutUint16(out[i*4+2:], uint16(int16((cur+next)/2)))
	}
	return out, nil
}

// PadMulawFrame pads a short mu-law frame to MulawFrameSize with
// mu-law silence. Full frames are returned unchanged.
func PadMulawFrame(frame []byte) []byte {
	if len(frame) >= MulawFrameSize {
		return frame
	}
	padded := make([]byte, MulawFrameSize)
	copy(padded, frame)
	for i := len(frame); i < MulawFrameSize; i++ {
		padded[i] = MulawSilence
	}
	return padded
}

// ValidatePCM16Frame checks that b is exactly one 20ms PCM16 frame at
// the pipeline rate.
func ValidatePCM16Frame(b []byte) error {
	if len(b) != PCM16FrameSize {
		return fmt.Errorf("%w: %d bytes, want %d PCM16", ErrInvalidFrameSize, len(b), PCM16FrameSize)
	}
	return nil
}

// ValidateMulawFrame checks that b is exactly one 20ms mu-law frame at
// the wire rate.
func ValidateMulawFrame(b []byte) error {
	if len(b) != MulawFrameSize {
		return fmt.Errorf("%w: %d bytes, want %d mu-law", ErrInvalidFrameSize, len(b), MulawFrameSize)
	}
	return nil
}
