// Package track holds decoded PCM audio for one loaded track.
//
// A [Track] is immutable after construction: the engine reads its sample
// data from the render callback while the control side reads the same
// data for waveform display, with no synchronization between them. That
// only works because nothing mutates the slices after load. Callers that
// hand slices to New or Mono give up ownership.
package track

import (
	"fmt"
	"math"
)

// Track is decoded mono or stereo PCM plus its sample rate and duration.
// Right aliases Left when the source material is mono.
type Track struct {
	left, right []float32
	sampleRate  uint32
	duration    float64
}

// New builds a stereo Track from separate channel slices.
// Both channels must have the same length and the rate must be nonzero.
func New(left, right []float32, sampleRate uint32) (*Track, error) {
	if sampleRate == 0 {
		return nil, fmt.Errorf("sample rate must be > 0: %d", sampleRate)
	}
	if len(left) != len(right) {
		return nil, fmt.Errorf("channel lengths differ: left %d, right %d", len(left), len(right))
	}
	return &Track{
		left:       left,
		right:      right,
		sampleRate: sampleRate,
		duration:   float64(len(left)) / float64(sampleRate),
	}, nil
}

// Mono builds a Track whose right channel aliases the left.
func Mono(samples []float32, sampleRate uint32) (*Track, error) {
	return New(samples, samples, sampleRate)
}

// FromInterleaved deinterleaves [L R L R ...] (or copies a mono stream)
// into a new Track. channels must be 1 or 2 and data must contain a whole
// number of frames.
func FromInterleaved(data []float32, channels int, sampleRate uint32) (*Track, error) {
	switch channels {
	case 1:
		out := make([]float32, len(data))
		copy(out, data)
		return Mono(out, sampleRate)
	case 2:
		if len(data)%2 != 0 {
			return nil, fmt.Errorf("interleaved stereo length must be even: %d", len(data))
		}
		n := len(data) / 2
		left := make([]float32, n)
		right := make([]float32, n)
		for i := range n {
			left[i] = data[2*i]
			right[i] = data[2*i+1]
		}
		return New(left, right, sampleRate)
	default:
		return nil, fmt.Errorf("channel count must be 1 or 2: %d", channels)
	}
}

// Len returns the per-channel sample count.
func (t *Track) Len() int {
	return len(t.left)
}

// SampleRate returns the sample rate in Hz.
func (t *Track) SampleRate() uint32 {
	return t.sampleRate
}

// Duration returns the track length in seconds.
func (t *Track) Duration() float64 {
	return t.duration
}

// Left returns the left channel samples. The slice must not be modified.
func (t *Track) Left() []float32 {
	return t.left
}

// Right returns the right channel samples. The slice must not be modified.
func (t *Track) Right() []float32 {
	return t.right
}

// Stereo reports whether left and right are distinct channels.
func (t *Track) Stereo() bool {
	return len(t.left) > 0 && &t.left[0] != &t.right[0]
}

// MixMono writes the channel average into dst as float64 for the analysis
// path, reusing dst when it has sufficient capacity.
func (t *Track) MixMono(dst []float64) []float64 {
	dst = fitLength(dst, len(t.left))
	if !t.Stereo() {
		for i, v := range t.left {
			dst[i] = float64(v)
		}
		return dst
	}
	for i := range t.left {
		dst[i] = (float64(t.left[i]) + float64(t.right[i])) * 0.5
	}
	return dst
}

// MixMonoRange is MixMono restricted to samples [start, start+length),
// clamped to the track bounds.
func (t *Track) MixMonoRange(dst []float64, start, length int) []float64 {
	if start < 0 {
		start = 0
	}
	end := min(start+length, len(t.left))
	if end < start {
		end = start
	}
	dst = fitLength(dst, end-start)
	if !t.Stereo() {
		for i := start; i < end; i++ {
			dst[i-start] = float64(t.left[i])
		}
		return dst
	}
	for i := start; i < end; i++ {
		dst[i-start] = (float64(t.left[i]) + float64(t.right[i])) * 0.5
	}
	return dst
}

// SampleIndex converts a position in seconds to a sample index, clamped
// to [0, Len].
func (t *Track) SampleIndex(seconds float64) int {
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	idx := int(seconds * float64(t.sampleRate))
	return min(idx, len(t.left))
}

func fitLength(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}
