package mix

import "github.com/cwbudde/algo-deck/dsp/buffer"

// Per-band smoothing coefficients. A larger alpha keeps more of the
// previous output, so the low band smooths hardest and the high band
// tracks the input closest.
const (
	lowAlpha  = 0.95
	midAlpha  = 0.90
	highAlpha = 0.85
)

// MaxBandGainDB bounds each equalizer band to +/-12 dB of boost or cut.
const MaxBandGainDB = 12.0

// bandStage is one equalizer band: a linear gain feeding a one-pole
// leaky integrator. The integrator state carries across blocks.
type bandStage struct {
	gain  float32
	state float32
}

func (b *bandStage) process(block []float32, alpha float32) {
	gain := b.gain
	state := b.state

	for i, s := range block {
		s *= gain
		state = state*alpha + s*(1-alpha)
		block[i] = state
	}

	b.state = state
}

// Equalizer is a three-band tone control built from cascaded one-pole
// stages. Each band boosts or cuts up to MaxBandGainDB; a flat
// equalizer still colors the signal slightly because every stage
// smooths what passes through it.
type Equalizer struct {
	low  bandStage
	mid  bandStage
	high bandStage

	lowDB  float32
	midDB  float32
	highDB float32
}

// NewEqualizer creates an equalizer with all bands flat at 0 dB.
func NewEqualizer() *Equalizer {
	return &Equalizer{
		low:  bandStage{gain: 1},
		mid:  bandStage{gain: 1},
		high: bandStage{gain: 1},
	}
}

// Process runs block through the three bands in place, low band first.
func (e *Equalizer) Process(block []float32) {
	if len(block) == 0 {
		return
	}

	e.low.process(block, lowAlpha)
	e.mid.process(block, midAlpha)
	e.high.process(block, highAlpha)
}

// SetLowGain sets the low band gain in decibels, clamped to
// +/-MaxBandGainDB.
func (e *Equalizer) SetLowGain(db float32) {
	db = clamp32(db, -MaxBandGainDB, MaxBandGainDB)
	e.lowDB = db
	e.low.gain = buffer.DBToLinear(db)
}

// LowGain returns the low band gain in decibels.
func (e *Equalizer) LowGain() float32 {
	return e.lowDB
}

// SetMidGain sets the mid band gain in decibels, clamped to
// +/-MaxBandGainDB.
func (e *Equalizer) SetMidGain(db float32) {
	db = clamp32(db, -MaxBandGainDB, MaxBandGainDB)
	e.midDB = db
	e.mid.gain = buffer.DBToLinear(db)
}

// MidGain returns the mid band gain in decibels.
func (e *Equalizer) MidGain() float32 {
	return e.midDB
}

// SetHighGain sets the high band gain in decibels, clamped to
// +/-MaxBandGainDB.
func (e *Equalizer) SetHighGain(db float32) {
	db = clamp32(db, -MaxBandGainDB, MaxBandGainDB)
	e.highDB = db
	e.high.gain = buffer.DBToLinear(db)
}

// HighGain returns the high band gain in decibels.
func (e *Equalizer) HighGain() float32 {
	return e.highDB
}

// Reset returns every band to 0 dB. Filter state is not cleared; it
// decays through subsequent blocks.
func (e *Equalizer) Reset() {
	e.SetLowGain(0)
	e.SetMidGain(0)
	e.SetHighGain(0)
}
