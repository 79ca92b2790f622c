// Package analyze produces the per-track analysis consumed by the UI
// and deck layers: tempo, musical key, and a beat grid.
package analyze

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-deck/analyze/chroma"
	"github.com/cwbudde/algo-deck/analyze/tempo"
	"github.com/cwbudde/algo-deck/track"
)

// Tracks shorter than this keep an empty beat grid; their BPM and key
// are fallback values, not measurements.
const minGridSeconds = 2.0

// Result is the immutable analysis of one track.
type Result struct {
	// BPM in [60, 200], or tempo.DefaultBPM when the track was too
	// short or too quiet to measure.
	BPM float64

	// Key is the estimated musical key, chroma.DefaultKey as fallback.
	Key chroma.Key

	// BeatGrid holds strictly increasing beat timestamps in seconds
	// starting at zero. Empty for degenerate tracks.
	BeatGrid []float64
}

// Track analyzes one track. It allocates freely and may take seconds on
// long material, so it must run outside the render path. The track's
// sample buffers are only read, never written, which keeps concurrent
// playback of other material safe.
func Track(t *track.Track) (*Result, error) {
	if t == nil {
		return nil, errors.New("analyze: nil track")
	}

	te, err := tempo.NewEstimator(t.SampleRate())
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	ke, err := chroma.NewEstimator(t.SampleRate())
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	bpm, err := te.Estimate(t)
	if err != nil {
		return nil, fmt.Errorf("analyze tempo: %w", err)
	}

	opening := t.MixMonoRange(nil, 0, 3*int(t.SampleRate()))

	k, err := ke.Key(opening)
	if err != nil {
		return nil, fmt.Errorf("analyze key: %w", err)
	}

	return &Result{
		BPM:      bpm,
		Key:      k,
		BeatGrid: BeatGrid(bpm, t.Duration()),
	}, nil
}

// BeatGrid lays out beat timestamps at the given tempo, starting at time
// zero and ending strictly before duration. Durations under two seconds
// and non-positive tempi produce no grid.
func BeatGrid(bpm, duration float64) []float64 {
	if bpm <= 0 || math.IsNaN(bpm) || math.IsNaN(duration) || duration < minGridSeconds {
		return nil
	}

	period := 60 / bpm
	grid := make([]float64, 0, int(math.Ceil(duration/period)))

	for i := 0; ; i++ {
		ts := float64(i) * period
		if ts >= duration {
			break
		}

		grid = append(grid, ts)
	}

	return grid
}
