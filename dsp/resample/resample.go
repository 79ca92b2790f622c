package resample

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-deck/dsp/interp"
	"github.com/cwbudde/algo-deck/track"
)

// ErrInvalidRate is returned when either side of a conversion has a
// zero sample rate.
var ErrInvalidRate = errors.New("invalid sample rate")

// Quality selects the conversion path.
type Quality int

const (
	// QualityBest converts through a Kaiser-windowed polyphase FIR.
	QualityBest Quality = iota
	// QualityFast converts through 4-point Hermite reads with no
	// anti-aliasing filter.
	QualityFast
)

type settings struct {
	quality      Quality
	tapsPerPhase int
	cutoffScale  float64
	kaiserBeta   float64
	maxDen       int
}

// Option adjusts conversion settings.
type Option func(*settings)

// WithQuality selects the conversion path. Default is QualityBest.
func WithQuality(q Quality) Option {
	return func(s *settings) { s.quality = q }
}

// WithTapsPerPhase overrides the FIR length per polyphase branch.
// Non-positive values are ignored.
func WithTapsPerPhase(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.tapsPerPhase = n
		}
	}
}

// WithKaiserBeta overrides the Kaiser window shape parameter. Negative
// values are ignored.
func WithKaiserBeta(beta float64) Option {
	return func(s *settings) {
		if beta >= 0 {
			s.kaiserBeta = beta
		}
	}
}

func defaultSettings() settings {
	return settings{
		quality:      QualityBest,
		tapsPerPhase: 32,
		cutoffScale:  0.92,
		kaiserBeta:   7.5,
		maxDen:       4096,
	}
}

// Convert resamples one channel from inRate to outRate. Matching rates
// return the input slice unchanged; otherwise a new slice of length
// round(len(samples) * outRate / inRate) is returned.
func Convert(samples []float32, inRate, outRate uint32, opts ...Option) ([]float32, error) {
	if inRate == 0 || outRate == 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrInvalidRate, inRate, outRate)
	}
	if inRate == outRate {
		return samples, nil
	}
	s := defaultSettings()
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}

	up, down := rateRatio(inRate, outRate, s.maxDen)
	if s.quality == QualityFast {
		return convertCubic(samples, up, down), nil
	}
	return convertFIR(samples, up, down, s), nil
}

// ConvertTrack resamples a whole track to outRate, preserving the
// mono/stereo shape. A track already at outRate is returned as is.
func ConvertTrack(t *track.Track, outRate uint32, opts ...Option) (*track.Track, error) {
	if t == nil {
		return nil, errors.New("nil track")
	}
	if t.SampleRate() == outRate {
		return t, nil
	}

	outLeft, err := Convert(t.Left(), t.SampleRate(), outRate, opts...)
	if err != nil {
		return nil, err
	}
	if !t.Stereo() {
		return track.Mono(outLeft, outRate)
	}
	outRight, err := Convert(t.Right(), t.SampleRate(), outRate, opts...)
	if err != nil {
		return nil, err
	}
	return track.New(outLeft, outRight, outRate)
}

// rateRatio reduces outRate/inRate to a rational factor, approximating
// by continued fractions when the exact denominator would exceed
// maxDen.
func rateRatio(inRate, outRate uint32, maxDen int) (up, down int) {
	g := gcd(int(outRate), int(inRate))
	up, down = int(outRate)/g, int(inRate)/g
	if down <= maxDen {
		return up, down
	}
	return approximateRatio(float64(outRate)/float64(inRate), maxDen)
}

// outputLen is the rounded output sample count for n input samples
// converted by up/down.
func outputLen(n, up, down int) int {
	if n <= 0 {
		return 0
	}
	return (n*up + down/2) / down
}

func convertCubic(input []float32, up, down int) []float32 {
	nOut := outputLen(len(input), up, down)
	out := make([]float32, nOut)
	step := float64(down) / float64(up)
	for m := range nOut {
		out[m] = interp.HermiteAt(input, float64(m)*step)
	}
	return out
}
