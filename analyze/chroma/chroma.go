// Package chroma estimates the musical key of a track from a 12-bin
// pitch-class energy profile of its opening seconds.
package chroma

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"gopkg.in/music-theory.v0/key"

	"github.com/cwbudde/algo-deck/dsp/spectrum"
	"github.com/cwbudde/algo-deck/dsp/window"
)

const (
	analysisSeconds = 3
	fftSize         = 4096
	subBandCount    = 128

	// Energy outside this range is ignored: below sits rumble, above
	// sit mostly overtones that smear the profile.
	minFreqHz = 80.0
	maxFreqHz = 4000.0

	// The root must carry this multiple of the minor-third bin's energy
	// before the mode flips to minor.
	minorRatio = 1.2
)

// PitchClass is a chromatic pitch class, C through B.
type PitchClass int

// Pitch classes in semitone order from C.
const (
	PitchC PitchClass = iota
	PitchCSharp
	PitchD
	PitchDSharp
	PitchE
	PitchF
	PitchFSharp
	PitchG
	PitchGSharp
	PitchA
	PitchASharp
	PitchB
)

var pitchNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (p PitchClass) String() string {
	if p < 0 || int(p) >= len(pitchNames) {
		return fmt.Sprintf("PitchClass(%d)", int(p))
	}

	return pitchNames[p]
}

// Mode is the major/minor tonality of a key.
type Mode int

const (
	ModeMajor Mode = iota
	ModeMinor
)

func (m Mode) String() string {
	if m == ModeMinor {
		return "Minor"
	}

	return "Major"
}

// Key is an estimated musical key.
type Key struct {
	Root PitchClass
	Mode Mode
}

// DefaultKey is reported when a track carries no usable signal.
var DefaultKey = Key{Root: PitchA, Mode: ModeMinor}

// String formats the key the way DJ software labels it, e.g. "A Minor".
func (k Key) String() string {
	return k.Root.String() + " " + k.Mode.String()
}

// MusicTheory converts the estimate into a music-theory key, giving
// callers access to relative keys and accidentals for harmonic mixing.
func (k Key) MusicTheory() key.Key {
	return key.Of(k.String())
}

// Vector is a chroma profile: energy per pitch class, normalized so the
// strongest class is 1 when any signal is present.
type Vector [12]float64

// Estimator computes chroma profiles and key estimates. The FFT plan and
// analysis window are allocated once in NewEstimator.
//
// Not safe for concurrent use.
type Estimator struct {
	sampleRate float64

	plan *algofft.Plan[complex128]
	win  []float64

	timeFrame []complex128
	freqFrame []complex128
	mags      []float64
}

// NewEstimator creates a key estimator for tracks at the given sample
// rate.
func NewEstimator(sampleRate uint32) (*Estimator, error) {
	if sampleRate == 0 {
		return nil, fmt.Errorf("key estimator sample rate must be > 0: %d", sampleRate)
	}

	win, err := window.Hann(fftSize)
	if err != nil {
		return nil, fmt.Errorf("key estimator window: %w", err)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("key estimator fft plan: %w", err)
	}

	return &Estimator{
		sampleRate: float64(sampleRate),
		plan:       plan,
		win:        win,
		timeFrame:  make([]complex128, fftSize),
		freqFrame:  make([]complex128, fftSize),
		mags:       make([]float64, subBandCount),
	}, nil
}

// SampleRate returns the sample rate in Hz.
func (e *Estimator) SampleRate() float64 { return e.sampleRate }

// Key estimates the musical key from mono samples. Only the first three
// seconds are inspected. Empty or silent input reports DefaultKey.
func (e *Estimator) Key(samples []float64) (Key, error) {
	v, err := e.Chroma(samples)
	if err != nil {
		return DefaultKey, err
	}

	root := 0
	for p := 1; p < len(v); p++ {
		if v[p] > v[root] {
			root = p
		}
	}

	if v[root] <= 0 {
		return DefaultKey, nil
	}

	mode := ModeMajor
	if v[root] > minorRatio*v[(root+3)%12] {
		mode = ModeMinor
	}

	return Key{Root: PitchClass(root), Mode: mode}, nil
}

// Chroma returns the normalized pitch-class energy profile of the first
// three seconds of samples. Profiles of silent input stay all zero.
//
// The spectrum is taken over the first 128 bins of a 4096-point
// transform, so the profile reflects the low and mid registers where
// the tonal center lives.
func (e *Estimator) Chroma(samples []float64) (Vector, error) {
	var v Vector

	if limit := analysisSeconds * int(e.sampleRate); len(samples) > limit {
		samples = samples[:limit]
	}

	n := min(len(samples), fftSize)
	if n < 2 {
		return v, nil
	}

	win := e.win
	if n < fftSize {
		short, err := window.Hann(n)
		if err != nil {
			return v, fmt.Errorf("key estimator short window: %w", err)
		}

		win = short
	}

	clear(e.timeFrame)

	for i := range n {
		e.timeFrame[i] = complex(samples[i]*win[i], 0)
	}

	err := e.plan.Forward(e.freqFrame, e.timeFrame)
	if err != nil {
		return v, fmt.Errorf("key estimator forward FFT failed: %w", err)
	}

	spectrum.MagnitudeInto(e.mags, e.freqFrame[:subBandCount])

	for k, mag := range e.mags {
		freq := spectrum.BinFrequency(k, fftSize, e.sampleRate)
		if freq < minFreqHz || freq > maxFreqHz {
			continue
		}

		// A4 = 440 Hz is MIDI note 69; round to the nearest semitone.
		midi := 12*math.Log2(freq/440) + 69
		v[int(midi+0.5)%12] += mag
	}

	peak := 0.0
	for _, energy := range v {
		peak = max(peak, energy)
	}

	if peak > 0 {
		for p := range v {
			v[p] /= peak
		}
	}

	return v, nil
}
