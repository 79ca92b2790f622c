// Package testutil provides deterministic signal fixtures and tolerance
// assertions shared by the package tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicSine32 is DeterministicSine with float32 output for
// fixtures that feed the playback path.
func DeterministicSine32(freqHz, sampleRate, amplitude float64, length int) []float32 {
	out := make([]float32, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = float32(amplitude * math.Sin(step*float64(i)))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for
// reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// ClickTrack generates a click track at the given tempo: short decaying
// tone bursts at every beat, silence between. Clicks carry energy well
// above the bass bands so onset detectors see sharp attacks.
func ClickTrack(bpm, sampleRate, seconds float64) []float64 {
	length := int(seconds * sampleRate)
	out := make([]float64, length)
	beatStep := 60.0 / bpm * sampleRate
	clickLen := int(0.01 * sampleRate)

	for beat := 0.0; int(beat) < length; beat += beatStep {
		start := int(beat)
		for i := range clickLen {
			idx := start + i
			if idx >= length {
				break
			}
			decay := 1 - float64(i)/float64(clickLen)
			out[idx] = decay * math.Sin(2*math.Pi*3000*float64(i)/sampleRate)
		}
	}
	return out
}

// ClickTrack32 is ClickTrack with float32 output for fixtures that feed
// the playback path.
func ClickTrack32(bpm, sampleRate, seconds float64) []float32 {
	return ToFloat32(ClickTrack(bpm, sampleRate, seconds))
}

// Chord32 sums equal-amplitude sines at the given frequencies, for key
// estimation fixtures. Amplitudes scale so the sum stays within [-1, 1].
func Chord32(freqs []float64, sampleRate float64, length int) []float32 {
	out := make([]float32, length)
	if len(freqs) == 0 {
		return out
	}
	amp := 1.0 / float64(len(freqs))
	for _, f := range freqs {
		step := 2 * math.Pi * f / sampleRate
		for i := range out {
			out[i] += float32(amp * math.Sin(step*float64(i)))
		}
	}
	return out
}

// ToFloat32 converts fixtures built with the float64 generators.
func ToFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
