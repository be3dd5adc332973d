// ABOUTME: PCM codec utilities for the live companion wire format
// ABOUTME: Converts float32 samples to base64 16-bit PCM and back
package pcm

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// The wire format is 16-bit signed little-endian PCM, base64-encoded
// for transport inside JSON frames.
const scale = 32768

// ErrMisaligned reports a payload whose byte length does not divide
// evenly into 16-bit frames for the requested channel count.
var ErrMisaligned = errors.New("pcm: payload not aligned to sample boundary")

// Buffer holds decoded audio, one sample slice per channel.
type Buffer struct {
	Channels   [][]float32
	SampleRate int
}

// FrameCount returns the number of frames per channel.
func (b Buffer) FrameCount() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playback length of the buffer.
func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.FrameCount()) / float64(b.SampleRate) * float64(time.Second))
}

// Encode quantizes float samples in [-1, 1] to 16-bit PCM and returns
// the base64 transport payload. Out-of-range and NaN samples are
// clamped rather than wrapped.
func Encode(samples []float32) string {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := float64(s) * scale
		switch {
		case math.IsNaN(v):
			v = 0
		case v > math.MaxInt16:
			v = math.MaxInt16
		case v < math.MinInt16:
			v = math.MinInt16
		}
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(v)))
	}
	return base64.StdEncoding.EncodeToString(data)
}

// DecodePayload reverses the transport encoding only, yielding the raw
// PCM byte sequence. Sample interpretation is left to ToBuffer.
func DecodePayload(payload string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("pcm: decode payload: %w", err)
	}
	return data, nil
}

// ToBuffer reinterprets raw bytes as interleaved 16-bit signed samples
// and de-interleaves them into one float channel per output channel.
func ToBuffer(data []byte, sampleRate, channels int) (Buffer, error) {
	if channels <= 0 {
		return Buffer{}, fmt.Errorf("pcm: invalid channel count %d", channels)
	}
	if len(data)%(2*channels) != 0 {
		return Buffer{}, fmt.Errorf("%w: %d bytes for %d channels", ErrMisaligned, len(data), channels)
	}

	frames := len(data) / (2 * channels)
	buf := Buffer{
		Channels:   make([][]float32, channels),
		SampleRate: sampleRate,
	}
	for ch := range buf.Channels {
		buf.Channels[ch] = make([]float32, frames)
	}

	for frame := 0; frame < frames; frame++ {
		for ch := 0; ch < channels; ch++ {
			offset := (frame*channels + ch) * 2
			sample := int16(binary.LittleEndian.Uint16(data[offset:]))
			buf.Channels[ch][frame] = float32(sample) / scale
		}
	}
	return buf, nil
}

// Interleave packs a buffer back into interleaved 16-bit little-endian
// bytes for playback devices that consume raw PCM.
func Interleave(buf Buffer) []byte {
	channels := len(buf.Channels)
	frames := buf.FrameCount()
	data := make([]byte, frames*channels*2)
	for frame := 0; frame < frames; frame++ {
		for ch := 0; ch < channels; ch++ {
			v := float64(buf.Channels[ch][frame]) * scale
			if v > math.MaxInt16 {
				v = math.MaxInt16
			} else if v < math.MinInt16 {
				v = math.MinInt16
			}
			offset := (frame*channels + ch) * 2
			binary.LittleEndian.PutUint16(data[offset:], uint16(int16(v)))
		}
	}
	return data
}
