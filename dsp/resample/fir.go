package resample

import "math"

// convertFIR runs the polyphase filter over one channel. The output is
// aligned to the input timeline by the filter's group delay, and the
// signal is treated as silence beyond both ends.
func convertFIR(input []float32, up, down int, s settings) []float32 {
	n := len(input)
	nOut := outputLen(n, up, down)
	out := make([]float32, nOut)
	if nOut == 0 {
		return out
	}

	phases, nTaps := designPolyphase(up, down, s)

	work := make([]float64, n)
	for i, v := range input {
		work[i] = float64(v)
	}

	// Output sample m sits at position m*down+delay on the up-sampled
	// grid; its phase selects the taps that land on real input samples.
	delay := (nTaps - 1) / 2
	for m := range nOut {
		j := m*down + delay
		taps := phases[j%up]
		i0 := j / up

		var y float64
		for r, c := range taps {
			idx := i0 - r
			if idx < 0 || idx >= n {
				continue
			}
			y += c * work[idx]
		}
		out[m] = float32(y)
	}
	return out
}

// designPolyphase builds the Kaiser-windowed lowpass prototype for an
// up/down conversion and splits it into the up polyphase branches. The
// prototype is normalized so passthrough gain is unity.
func designPolyphase(up, down int, s settings) (phases [][]float64, nTaps int) {
	nTaps = s.tapsPerPhase * up
	fc := (0.5 / float64(max(up, down))) * s.cutoffScale

	taps := make([]float64, nTaps)
	center := 0.5 * float64(nTaps-1)
	var sum float64
	for i := range nTaps {
		t := float64(i) - center
		h := 2 * fc * sinc(2*fc*t) * kaiserWindow(i, nTaps, s.kaiserBeta)
		taps[i] = h
		sum += h
	}
	scale := float64(up) / sum
	for i := range taps {
		taps[i] *= scale
	}

	phases = make([][]float64, up)
	for p := range up {
		branch := make([]float64, 0, (nTaps-p+up-1)/up)
		for i := p; i < nTaps; i += up {
			branch = append(branch, taps[i])
		}
		phases[p] = branch
	}
	return phases, nTaps
}

// approximateRatio reduces v to a fraction num/den with den capped at
// maxDen, walking the continued-fraction convergents.
func approximateRatio(v float64, maxDen int) (num, den int) {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1, 1
	}

	a0 := math.Floor(v)
	p0, q0 := 1.0, 0.0
	p1, q1 := a0, 1.0
	x := v
	for {
		frac := x - math.Floor(x)
		if frac == 0 {
			break
		}
		x = 1 / frac
		a := math.Floor(x)
		p2 := a*p1 + p0
		q2 := a*q1 + q0
		if q2 > float64(maxDen) {
			break
		}
		p0, q0 = p1, q1
		p1, q1 = p2, q2
	}

	num = int(math.Round(p1))
	den = int(math.Round(q1))
	if num <= 0 || den <= 0 {
		return 1, 1
	}
	g := gcd(num, den)
	return num / g, den / g
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}
	pix := math.Pi * x
	return math.Sin(pix) / pix
}

func kaiserWindow(i, n int, beta float64) float64 {
	if n <= 1 || beta == 0 {
		return 1
	}
	t := 2*float64(i)/float64(n-1) - 1
	a := math.Sqrt(math.Max(0, 1-t*t))
	return besselI0(beta*a) / besselI0(beta)
}

// besselI0 is the zeroth-order modified Bessel function by power
// series.
func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0
	x2 := (x * x) / 4
	for k := 1; k < 64; k++ {
		term *= x2 / float64(k*k)
		sum += term
		if term < 1e-16*sum {
			break
		}
	}
	return sum
}
