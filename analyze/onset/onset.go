// Package onset derives onset-strength envelopes from PCM audio using
// band-weighted spectral flux.
package onset

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-deck/dsp/spectrum"
	"github.com/cwbudde/algo-deck/dsp/window"
)

// STFT geometry shared by the analysis paths. One envelope value covers
// HopLength input samples.
const (
	FrameLength = 2048
	HopLength   = 512
)

const bandCount = 6

// fluxBands split the spectrum into perceptual regions. The bass bands
// weigh heaviest because kick drums dominate rhythmic salience.
var fluxBands = [bandCount]struct {
	low    float64
	high   float64
	weight float64
}{
	{low: 20, high: 60, weight: 0.8},
	{low: 60, high: 250, weight: 1.5},
	{low: 250, high: 500, weight: 1.2},
	{low: 500, high: 2000, weight: 1.0},
	{low: 2000, high: 4000, weight: 0.7},
	{low: 4000, high: 8000, weight: 0.5},
}

// Detector computes band-weighted spectral-flux envelopes from mono PCM.
// All frame scratch is allocated once in NewDetector, so Envelope can be
// called repeatedly without per-call churn.
//
// Not safe for concurrent use.
type Detector struct {
	sampleRate float64

	plan *algofft.Plan[complex128]
	win  []float64

	timeFrame []complex128
	freqFrame []complex128
	mags      []float64

	binLow  [bandCount]int
	binHigh [bandCount]int

	prevEnergy [bandCount]float64
	currEnergy [bandCount]float64
}

// NewDetector creates a flux detector for the given sample rate.
func NewDetector(sampleRate uint32) (*Detector, error) {
	if sampleRate == 0 {
		return nil, fmt.Errorf("onset detector sample rate must be > 0: %d", sampleRate)
	}

	win, err := window.Hann(FrameLength, window.WithPeriodic())
	if err != nil {
		return nil, fmt.Errorf("onset detector window: %w", err)
	}

	plan, err := algofft.NewPlan64(FrameLength)
	if err != nil {
		return nil, fmt.Errorf("onset detector fft plan: %w", err)
	}

	d := &Detector{
		sampleRate: float64(sampleRate),
		plan:       plan,
		win:        win,
		timeFrame:  make([]complex128, FrameLength),
		freqFrame:  make([]complex128, FrameLength),
		mags:       make([]float64, FrameLength/2+1),
	}

	// Bin k has center frequency k*sampleRate/FrameLength. A band covers
	// the bins whose centers land in [low, high).
	binCount := FrameLength/2 + 1
	for i, b := range fluxBands {
		lo := int(math.Ceil(b.low * FrameLength / d.sampleRate))
		hi := int(math.Ceil(b.high * FrameLength / d.sampleRate))
		d.binLow[i] = min(max(lo, 0), binCount)
		d.binHigh[i] = min(max(hi, d.binLow[i]), binCount)
	}

	return d, nil
}

// SampleRate returns the sample rate in Hz.
func (d *Detector) SampleRate() float64 { return d.sampleRate }

// EnvelopeRate returns the rate of the onset-strength series in Hz: one
// envelope value per hop of input samples.
func (d *Detector) EnvelopeRate() float64 { return d.sampleRate / HopLength }

// Envelope returns one onset-strength value per frame hop: the weighted
// sum across bands of the positive change in band magnitude since the
// previous frame. Negative changes are clamped to zero, so only energy
// increases register.
//
// The result has floor((len(samples)-FrameLength)/HopLength) entries and
// is nil when fewer than two frames fit.
func (d *Detector) Envelope(samples []float64) ([]float64, error) {
	numFrames := 0
	if len(samples) >= FrameLength {
		numFrames = (len(samples)-FrameLength)/HopLength + 1
	}

	if numFrames < 2 {
		return nil, nil
	}

	out := make([]float64, numFrames-1)

	err := d.bandEnergies(samples[:FrameLength], &d.prevEnergy)
	if err != nil {
		return nil, err
	}

	for f := 1; f < numFrames; f++ {
		start := f * HopLength

		err := d.bandEnergies(samples[start:start+FrameLength], &d.currEnergy)
		if err != nil {
			return nil, err
		}

		flux := 0.0
		for b := range bandCount {
			rise := d.currEnergy[b] - d.prevEnergy[b]
			if rise > 0 {
				flux += fluxBands[b].weight * rise
			}
		}

		out[f-1] = flux
		d.prevEnergy = d.currEnergy
	}

	return out, nil
}

func (d *Detector) bandEnergies(frame []float64, dst *[bandCount]float64) error {
	for i, s := range frame {
		d.timeFrame[i] = complex(s*d.win[i], 0)
	}

	err := d.plan.Forward(d.freqFrame, d.timeFrame)
	if err != nil {
		return fmt.Errorf("onset detector forward FFT failed: %w", err)
	}

	spectrum.MagnitudeInto(d.mags, d.freqFrame[:len(d.mags)])

	for b := range bandCount {
		sum := 0.0
		for k := d.binLow[b]; k < d.binHigh[b]; k++ {
			sum += d.mags[k]
		}

		dst[b] = sum
	}

	return nil
}
