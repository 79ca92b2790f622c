package mix

import (
	"math"

	"github.com/cwbudde/algo-deck/dsp/interp"
)

// Pitch ratio bounds: one octave down to one octave up.
const (
	MinPitchRatio = 0.5
	MaxPitchRatio = 2.0
)

// MaxPitchSemitones bounds semitone-based pitch control to one octave
// in either direction.
const MaxPitchSemitones = 12

// Ratios this close to unity bypass the resampler entirely.
const pitchBypassEpsilon = 0.001

// PitchShifter shifts pitch without touching tempo by resampling each
// block through a fractional read cursor and keeping the block length.
// The cursor restarts at every block, so shifts repeat the block-tail
// treatment at each boundary: reads past the final sample hold it, and
// reads past the end of the block go silent.
type PitchShifter struct {
	ratio   float32
	scratch []float32
}

// NewPitchShifter creates a pitch shifter at unity ratio with scratch
// space for blocks up to blockSize samples. Larger blocks grow the
// scratch on first use.
func NewPitchShifter(blockSize int) *PitchShifter {
	if blockSize < 0 {
		blockSize = 0
	}
	return &PitchShifter{
		ratio:   1,
		scratch: make([]float32, blockSize),
	}
}

// SetRatio sets the pitch ratio, clamped to [MinPitchRatio,
// MaxPitchRatio]. A ratio of 2 shifts up one octave.
func (p *PitchShifter) SetRatio(ratio float32) {
	p.ratio = clamp32(ratio, MinPitchRatio, MaxPitchRatio)
}

// Ratio returns the current pitch ratio.
func (p *PitchShifter) Ratio() float32 {
	return p.ratio
}

// SetSemitones sets the pitch shift in semitones, clamped to
// +/-MaxPitchSemitones.
func (p *PitchShifter) SetSemitones(semitones int) {
	if semitones > MaxPitchSemitones {
		semitones = MaxPitchSemitones
	}
	if semitones < -MaxPitchSemitones {
		semitones = -MaxPitchSemitones
	}
	p.SetRatio(SemitonesToRatio(semitones))
}

// Process resamples a mono block in place. Ratios within
// pitchBypassEpsilon of unity leave the block untouched.
func (p *PitchShifter) Process(block []float32) {
	if p.bypassed() {
		return
	}
	p.resample(block)
}

// ProcessStereo resamples both channels in place with the same ratio.
func (p *PitchShifter) ProcessStereo(left, right []float32) {
	if p.bypassed() {
		return
	}
	p.resample(left)
	p.resample(right)
}

func (p *PitchShifter) bypassed() bool {
	return math.Abs(float64(p.ratio)-1) < pitchBypassEpsilon
}

func (p *PitchShifter) resample(block []float32) {
	if cap(p.scratch) < len(block) {
		p.scratch = make([]float32, len(block))
	}
	out := p.scratch[:len(block)]
	ratio := p.ratio

	for i := range block {
		pos := float32(i) * ratio
		idx := int(pos)
		frac := pos - float32(idx)

		switch {
		case idx+1 < len(block):
			out[i] = interp.Linear(block[idx], block[idx+1], frac)
		case idx < len(block):
			out[i] = block[idx]
		default:
			out[i] = 0
		}
	}

	copy(block, out)
}

// SemitonesToRatio converts a semitone offset to a frequency ratio:
// 2^(semitones/12).
func SemitonesToRatio(semitones int) float32 {
	return float32(math.Exp2(float64(semitones) / 12))
}

// RatioToSemitones converts a frequency ratio to the nearest whole
// semitone offset.
func RatioToSemitones(ratio float32) int {
	return int(math.Round(math.Log2(float64(ratio)) * 12))
}
