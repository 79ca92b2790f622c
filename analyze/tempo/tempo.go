// Package tempo estimates track BPM from onset-strength envelopes via
// autocorrelation, octave folding, and cross-section consensus voting.
package tempo

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-deck/analyze/onset"
	"github.com/cwbudde/algo-deck/track"
)

// DefaultBPM is returned whenever a track is too short or too quiet for
// a meaningful estimate. It is a fallback value, not an error.
const DefaultBPM = 120.0

const (
	minBPM = 60.0
	maxBPM = 200.0

	// Candidates fold into one octave band before voting, correcting
	// half-time and double-time confusion.
	octaveLow  = 80.0
	octaveHigh = 160.0

	sectionSeconds    = 10.0
	minSectionSeconds = 5.0
	minTrackSeconds   = 2.0

	// Autocorrelation peaks below this multiple of the lag-range mean
	// are noise, not beat periods.
	peakFloorRatio = 1.2

	// Candidates closer than this many BPM reinforce each other during
	// the consensus vote.
	consensusTolerance = 2.0
)

// genreBoosts bias peak scores toward musically common tempo ranges.
var genreBoosts = [...]struct {
	low   float64
	high  float64
	boost float64
}{
	{low: 115, high: 135, boost: 1.30},
	{low: 155, high: 185, boost: 1.20},
	{low: 85, high: 105, boost: 1.15},
}

// Estimator derives a single BPM value for a track by sampling up to
// five sections, extracting beat-period candidates from each, and
// letting the candidates vote.
//
// Not safe for concurrent use.
type Estimator struct {
	sampleRate float64
	det        *onset.Detector

	section  []float64
	autocorr []float64
	cands    []float64
}

// NewEstimator creates a tempo estimator for tracks at the given sample
// rate.
func NewEstimator(sampleRate uint32) (*Estimator, error) {
	if sampleRate == 0 {
		return nil, fmt.Errorf("tempo estimator sample rate must be > 0: %d", sampleRate)
	}

	det, err := onset.NewDetector(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("tempo estimator onset detector: %w", err)
	}

	return &Estimator{
		sampleRate: float64(sampleRate),
		det:        det,
		section:    make([]float64, 0, int(sectionSeconds*float64(sampleRate))),
	}, nil
}

// SampleRate returns the sample rate in Hz.
func (e *Estimator) SampleRate() float64 { return e.sampleRate }

// Estimate returns the track tempo in BPM, rounded to one decimal.
// Tracks shorter than two seconds, and tracks where no section yields a
// usable beat period, report DefaultBPM.
func (e *Estimator) Estimate(t *track.Track) (float64, error) {
	if t == nil {
		return DefaultBPM, nil
	}

	if float64(t.SampleRate()) != e.sampleRate {
		return 0, fmt.Errorf("track sample rate %d does not match estimator rate %.0f",
			t.SampleRate(), e.sampleRate)
	}

	if t.Duration() < minTrackSeconds {
		return DefaultBPM, nil
	}

	sectionLen := int(sectionSeconds * e.sampleRate)
	minLen := int(minSectionSeconds * e.sampleRate)

	starts := [...]int{
		0,
		t.Len() / 4,
		t.Len() / 2,
		3 * t.Len() / 4,
		max(t.Len()-sectionLen, 0),
	}

	e.cands = e.cands[:0]

	for _, start := range starts {
		length := min(sectionLen, t.Len()-start)
		if length < minLen {
			continue
		}

		e.section = t.MixMonoRange(e.section, start, length)

		env, err := e.det.Envelope(e.section)
		if err != nil {
			return 0, fmt.Errorf("tempo section at sample %d: %w", start, err)
		}

		for _, bpm := range e.sectionCandidates(env) {
			e.cands = append(e.cands, FoldToOctave(bpm))
		}
	}

	if len(e.cands) == 0 {
		return DefaultBPM, nil
	}

	return math.Round(Consensus(e.cands)*10) / 10, nil
}

// sectionCandidates autocorrelates one onset envelope over the lag range
// for 60-200 BPM and returns the BPM of every retained peak. A lag is a
// peak when it is a strict local maximum; its score is the correlation
// value times the genre boost, and scores under peakFloorRatio times the
// lag-range mean are discarded.
func (e *Estimator) sectionCandidates(env []float64) []float64 {
	envRate := e.det.EnvelopeRate()

	minLag := int(math.Ceil(60 * envRate / maxBPM))
	maxLag := int(math.Floor(60 * envRate / minBPM))
	minLag = max(minLag, 1)
	maxLag = min(maxLag, len(env)-1)

	if maxLag-minLag < 2 {
		return nil
	}

	if cap(e.autocorr) < maxLag+1 {
		e.autocorr = make([]float64, maxLag+1)
	}

	ac := e.autocorr[:maxLag+1]

	mean := 0.0

	for lag := minLag; lag <= maxLag; lag++ {
		sum := 0.0
		n := len(env) - lag

		for i := 0; i < n; i++ {
			sum += env[i] * env[i+lag]
		}

		ac[lag] = sum / float64(n)
		mean += ac[lag]
	}

	mean /= float64(maxLag - minLag + 1)

	var cands []float64

	for lag := minLag + 1; lag < maxLag; lag++ {
		if ac[lag] <= ac[lag-1] || ac[lag] <= ac[lag+1] {
			continue
		}

		bpm := 60 * envRate / float64(lag)
		if ac[lag]*genreBoost(bpm) < peakFloorRatio*mean {
			continue
		}

		cands = append(cands, bpm)
	}

	return cands
}

func genreBoost(bpm float64) float64 {
	for _, g := range genreBoosts {
		if bpm >= g.low && bpm <= g.high {
			return g.boost
		}
	}

	return 1.0
}

// FoldToOctave halves or doubles bpm until it lands in [80, 160]. Values
// already inside the band pass through unchanged; non-positive or
// non-finite input reports DefaultBPM.
func FoldToOctave(bpm float64) float64 {
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		return DefaultBPM
	}

	for bpm < octaveLow {
		bpm *= 2
	}

	for bpm > octaveHigh {
		bpm /= 2
	}

	return bpm
}

// Consensus scores every candidate by its summed similarity to all other
// candidates and returns the highest scorer. Candidates within
// consensusTolerance BPM reinforce each other linearly with closeness,
// so a tight cluster outvotes scattered loners. Empty input reports
// DefaultBPM; ties keep the earliest candidate.
func Consensus(cands []float64) float64 {
	if len(cands) == 0 {
		return DefaultBPM
	}

	best := cands[0]
	bestScore := -1.0

	for i, c := range cands {
		score := 0.0

		for j, other := range cands {
			if i == j {
				continue
			}

			if d := math.Abs(c - other); d < consensusTolerance {
				score += consensusTolerance - d
			}
		}

		if score > bestScore {
			best = c
			bestScore = score
		}
	}

	return best
}
