package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func sinePCM16(samples int, freq float64, rate int) []byte {
	b := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := int16(12000 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	}
	return b
}

func TestMulawRoundTrip_QuantizationBound(t *testing.T) {
	pcm := sinePCM16(320, 440, WireSampleRate)
	mulaw, err := EncodeMulaw(pcm)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back := DecodeMulaw(mulaw)
	if len(back) != len(pcm) {
		t.Fatalf("round trip length %d, want %d", len(back), len(pcm))
	}
	for i := 0; i < len(pcm); i += 2 {
		orig := int(int16(binary.LittleEndian.Uint16(pcm[i:])))
		got := int(int16(binary.LittleEndian.Uint16(back[i:])))
		diff := orig - got
		if diff < 0 {
			diff = -diff
		}
		// mu-law step size grows with amplitude; 12000 peak sits in a
		// segment with step well under 1024.
		if diff > 1024 {
			t.Fatalf("sample %d: orig=%d got=%d diff=%d", i/2, orig, got, diff)
		}
	}
}

func TestMulawSilenceDecodesToZero(t *testing.T) {
	if got := MulawToLinear(MulawSilence); got != 0 {
		t.Fatalf("silence decodes to %d, want 0", got)
	}
	if got := LinearToMulaw(0); got != MulawSilence {
		t.Fatalf("zero encodes to %#x, want %#x", got, MulawSilence)
	}
}

func TestEncodeMulaw_RejectsOddLength(t *testing.T) {
	if _, err := EncodeMulaw(make([]byte, 3)); err == nil {
		t.Fatalf("expected error for odd pcm length")
	}
}

func TestDownsample16kTo8k(t *testing.T) {
	pcm := sinePCM16(320, 440, PipelineSampleRate)
	out, err := Downsample16kTo8k(pcm)
	if err != nil {
		t.Fatalf("downsample: %v", err)
	}
	if len(out) != len(pcm)/2 {
		t.Fatalf("downsample length %d, want %d", len(out), len(pcm)/2)
	}
}

func TestUpsample8kTo16k(t *testing.T) {
	pcm := sinePCM16(160, 440, WireSampleRate)
	out, err := Upsample8kTo16k(pcm)
	if err != nil {
		t.Fatalf("upsample: %v", err)
	}
	if len(out) != len(pcm)*2 {
		t.Fatalf("upsample length %d, want %d", len(out), len(pcm)*2)
	}
	// First output sample is the first input sample.
	if binary.LittleEndian.Uint16(out) != binary.LittleEndian.Uint16(pcm) {
		t.Fatalf("first sample changed")
	}
}

func TestValidatePCM16Frame(t *testing.T) {
	if err := ValidatePCM16Frame(make([]byte, PCM16FrameSize)); err != nil {
		t.Fatalf("exact frame rejected: %v", err)
	}
	if err := ValidatePCM16Frame(make([]byte, PCM16FrameSize-1)); err == nil {
		t.Fatalf("short frame accepted")
	}
	if err := ValidatePCM16Frame(make([]byte, PCM16FrameSize+1)); err == nil {
		t.Fatalf("long frame accepted")
	}
}

func TestFrameSizeErrorsWrapSentinel(t *testing.T) {
	err := ValidatePCM16Frame(make([]byte, PCM16FrameSize/2))
	if !errors.Is(err, ErrInvalidFrameSize) {
		t.Fatalf("PCM16 size error = %v, want ErrInvalidFrameSize", err)
	}
	err = ValidateMulawFrame(make([]byte, MulawFrameSize-1))
	if !errors.Is(err, ErrInvalidFrameSize) {
		t.Fatalf("mu-law size error = %v, want ErrInvalidFrameSize", err)
	}
	if err := ValidateMulawFrame(make([]byte, MulawFrameSize)); err != nil {
		t.Fatalf("exact mu-law frame rejected: %v", err)
	}
}

func TestPadMulawFrame(t *testing.T) {
	short := bytes.Repeat([]byte{0x12}, 100)
	padded := PadMulawFrame(short)
	if len(padded) != MulawFrameSize {
		t.Fatalf("padded length %d, want %d", len(padded), MulawFrameSize)
	}
	for i := 100; i < MulawFrameSize; i++ {
		if padded[i] != MulawSilence {
			t.Fatalf("pad byte %d = %#x, want %#x", i, padded[i], MulawSilence)
		}
	}
	full := make([]byte, MulawFrameSize)
	if got := PadMulawFrame(full); len(got) != MulawFrameSize {
		t.Fatalf("full frame resized")
	}
}

func TestWrapWAV_Header(t *testing.T) {
	pcm := sinePCM16(160, 440, WireSampleRate)
	wav := WrapWAV(pcm, WireSampleRate)
	if !bytes.HasPrefix(wav, []byte("RIFF")) {
		t.Fatalf("missing RIFF magic")
	}
	if !bytes.Equal(wav[8:12], []byte("WAVE")) {
		t.Fatalf("missing WAVE magic")
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != WireSampleRate {
		t.Fatalf("sample rate %d, want %d", got, WireSampleRate)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != uint32(len(pcm)) {
		t.Fatalf("data size %d, want %d", got, len(pcm))
	}
	if len(wav) != 44+len(pcm) {
		t.Fatalf("total size %d, want %d", len(wav), 44+len(pcm))
	}
}
