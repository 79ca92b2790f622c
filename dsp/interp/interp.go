// Package interp provides the fractional-position sample reads used by
// the variable-rate playback path and the offline rate converter.
//
// Tempo change in the deck is a variable-rate resample: the render loop
// walks a fractional read cursor through the track buffer and blends
// adjacent samples with Linear, the response the rest of the gain
// staging was tuned against. Offline rate conversion reads through
// Hermite instead.
package interp

import "math"

// Linear blends x0 toward x1 by frac in [0, 1].
func Linear(x0, x1, frac float32) float32 {
	return x0*(1-frac) + x1*frac
}

// At reads buf at a fractional position with linear interpolation.
// Positions at or beyond len(buf)-1 return the last sample; negative
// positions return the first. An empty buf reads as 0.
func At(buf []float32, pos float64) float32 {
	if len(buf) == 0 {
		return 0
	}
	if pos <= 0 {
		return buf[0]
	}
	last := len(buf) - 1
	if pos >= float64(last) {
		return buf[last]
	}
	idx := int(pos)
	frac := float32(pos - float64(idx))
	return Linear(buf[idx], buf[idx+1], frac)
}

// Split decomposes a fractional cursor into its integer index and
// fractional remainder.
func Split(pos float64) (idx int, frac float32) {
	f := math.Floor(pos)
	return int(f), float32(pos - f)
}

// Hermite interpolates between x0 and x1 by frac in [0, 1] using the
// 4-point, third-order Hermite segment through the neighbors xm1 and
// x2. The curve passes through x0 at frac 0 and x1 at frac 1 and
// reproduces straight-line data exactly.
func Hermite(xm1, x0, x1, x2, frac float32) float32 {
	c := (x1 - xm1) * 0.5
	v := x0 - x1
	w := c + v
	a := w + v + (x2-x0)*0.5
	b := w + a
	return ((a*frac-b)*frac+c)*frac + x0
}

// HermiteAt reads buf at a fractional position with 4-point Hermite
// interpolation, replicating the end samples for the outer taps.
// Positions at or beyond len(buf)-1 return the last sample; negative
// positions return the first. An empty buf reads as 0.
func HermiteAt(buf []float32, pos float64) float32 {
	if len(buf) == 0 {
		return 0
	}
	if pos <= 0 {
		return buf[0]
	}
	last := len(buf) - 1
	if pos >= float64(last) {
		return buf[last]
	}
	idx := int(pos)
	frac := float32(pos - float64(idx))
	xm1 := buf[max(idx-1, 0)]
	x2 := buf[min(idx+2, last)]
	return Hermite(xm1, buf[idx], buf[idx+1], x2, frac)
}
