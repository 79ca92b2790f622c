package buffer

import "math"

// DBToLinear converts decibels to linear gain: 10^(dB/20).
func DBToLinear(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}

// LinearToDB converts linear gain to decibels, flooring at -100 dB for
// non-positive input.
func LinearToDB(linear float32) float32 {
	if linear <= 0 {
		return -100
	}
	return float32(20 * math.Log10(float64(linear)))
}

// SoftClip bounds a sample to [-1, 1]. Values already in range pass
// unchanged; values outside collapse to the unit bound with the sign
// preserved.
func SoftClip(sample float32) float32 {
	abs := sample
	if abs < 0 {
		abs = -abs
	}
	if abs < 1 {
		return sample
	}
	return sample / abs
}

// Crossfade blends a into b by pos (0 = all a, 1 = all b) writing
// min(len(a), len(b), len(dst)) samples into dst.
func Crossfade(dst, a, b []float32, pos float32) {
	pos = min(max(pos, 0), 1)
	n := min(len(a), len(b), len(dst))
	for i := range n {
		dst[i] = a[i]*(1-pos) + b[i]*pos
	}
}

// RMS returns the root-mean-square level of block, 0 for empty input.
func RMS(block []float32) float32 {
	if len(block) == 0 {
		return 0
	}
	var sum float64
	for _, s := range block {
		sum += float64(s) * float64(s)
	}
	return float32(math.Sqrt(sum / float64(len(block))))
}

// Peak returns the maximum absolute sample value in block.
func Peak(block []float32) float32 {
	var peak float32
	for _, s := range block {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}
