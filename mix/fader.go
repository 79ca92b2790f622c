// Package mix implements the per-deck processing chain and its stages:
// input gain, stereo fader, pitch shift, three-band equalizer, and
// master volume.
package mix

// Fader balances the two output channels with a quadratic crossfade
// curve. The curve approximates constant power without trigonometry:
// with t = (position+1)/2, the left gain is 1-t*t and the right gain
// is t*t.
type Fader struct {
	position float32
}

// NewFader creates a centered fader.
func NewFader() *Fader {
	return &Fader{}
}

// SetPosition moves the fader. Positions clamp to [-1, 1]: -1 is full
// left, 0 center, 1 full right.
func (f *Fader) SetPosition(position float32) {
	f.position = clamp32(position, -1, 1)
}

// Position returns the current fader position.
func (f *Fader) Position() float32 {
	return f.position
}

// LeftGain returns the gain the curve assigns to the left channel at
// the current position.
func (f *Fader) LeftGain() float32 {
	t := (f.position + 1) * 0.5
	return 1 - t*t
}

// RightGain returns the gain the curve assigns to the right channel at
// the current position.
func (f *Fader) RightGain() float32 {
	t := (f.position + 1) * 0.5
	return t * t
}

// Process scales both channels in place. A fader at exactly zero
// passes both channels untouched rather than applying the 0.75/0.25
// center gains; deck level calibration assumes that unity step.
func (f *Fader) Process(left, right []float32) {
	if f.position == 0 {
		return
	}

	leftGain := f.LeftGain()
	rightGain := f.RightGain()

	n := min(len(left), len(right))
	for i := range n {
		left[i] *= leftGain
		right[i] *= rightGain
	}
}

// Reset recenters the fader.
func (f *Fader) Reset() {
	f.position = 0
}

func clamp32(v, lo, hi float32) float32 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
