package tempo

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-deck/internal/testutil"
	"github.com/cwbudde/algo-deck/track"
)

func TestNewEstimatorRejectsZeroRate(t *testing.T) {
	if _, err := NewEstimator(0); err == nil {
		t.Fatal("NewEstimator(0) error = nil, want error")
	}
}

func TestFoldToOctave(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{80, 80},
		{120, 120},
		{160, 160},
		{100.5, 100.5},
		{65, 130},
		{260, 130},
		{40, 80},
		{320, 160},
		{500, 125},
	}

	for _, tc := range cases {
		if got := FoldToOctave(tc.in); math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("FoldToOctave(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFoldToOctaveDegenerateInput(t *testing.T) {
	for _, in := range []float64{0, -5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := FoldToOctave(in); got != DefaultBPM {
			t.Fatalf("FoldToOctave(%v) = %v, want %v", in, got, DefaultBPM)
		}
	}
}

func TestConsensusPrefersCluster(t *testing.T) {
	got := Consensus([]float64{125, 128, 128, 127, 128})
	if math.Abs(got-128) > 0.1 {
		t.Fatalf("Consensus = %v, want 128 +/- 0.1", got)
	}
}

func TestConsensusDegenerateInputs(t *testing.T) {
	if got := Consensus(nil); got != DefaultBPM {
		t.Fatalf("Consensus(nil) = %v, want %v", got, DefaultBPM)
	}

	if got := Consensus([]float64{95}); got != 95 {
		t.Fatalf("Consensus single = %v, want 95", got)
	}
}

func TestConsensusTieKeepsEarliest(t *testing.T) {
	// Two isolated candidates score zero each, so the first one wins.
	if got := Consensus([]float64{100, 150}); got != 100 {
		t.Fatalf("Consensus = %v, want 100", got)
	}
}

func TestEstimateNilTrack(t *testing.T) {
	e, err := NewEstimator(48000)
	if err != nil {
		t.Fatalf("NewEstimator error: %v", err)
	}

	got, err := e.Estimate(nil)
	if err != nil {
		t.Fatalf("Estimate error: %v", err)
	}

	if got != DefaultBPM {
		t.Fatalf("Estimate(nil) = %v, want %v", got, DefaultBPM)
	}
}

func TestEstimateShortTrackFallsBack(t *testing.T) {
	e, err := NewEstimator(48000)
	if err != nil {
		t.Fatalf("NewEstimator error: %v", err)
	}

	tr, err := track.Mono(make([]float32, 48000), 48000)
	if err != nil {
		t.Fatalf("Mono error: %v", err)
	}

	got, err := e.Estimate(tr)
	if err != nil {
		t.Fatalf("Estimate error: %v", err)
	}

	if got != 120.0 {
		t.Fatalf("Estimate(1 s track) = %v, want exactly 120.0", got)
	}
}

func TestEstimateSampleRateMismatch(t *testing.T) {
	e, err := NewEstimator(48000)
	if err != nil {
		t.Fatalf("NewEstimator error: %v", err)
	}

	tr, err := track.Mono(make([]float32, 44100*4), 44100)
	if err != nil {
		t.Fatalf("Mono error: %v", err)
	}

	if _, err := e.Estimate(tr); err == nil {
		t.Fatal("Estimate with mismatched rate error = nil, want error")
	}
}

func TestEstimateSilenceFallsBack(t *testing.T) {
	e, err := NewEstimator(48000)
	if err != nil {
		t.Fatalf("NewEstimator error: %v", err)
	}

	tr, err := track.Mono(make([]float32, 30*48000), 48000)
	if err != nil {
		t.Fatalf("Mono error: %v", err)
	}

	got, err := e.Estimate(tr)
	if err != nil {
		t.Fatalf("Estimate error: %v", err)
	}

	if got != DefaultBPM {
		t.Fatalf("Estimate(silence) = %v, want %v", got, DefaultBPM)
	}
}

func estimateClickTrack(t *testing.T, bpm float64) float64 {
	t.Helper()

	e, err := NewEstimator(48000)
	if err != nil {
		t.Fatalf("NewEstimator error: %v", err)
	}

	tr, err := track.Mono(testutil.ClickTrack32(bpm, 48000, 30), 48000)
	if err != nil {
		t.Fatalf("Mono error: %v", err)
	}

	got, err := e.Estimate(tr)
	if err != nil {
		t.Fatalf("Estimate error: %v", err)
	}

	return got
}

func TestEstimateClickTrack120(t *testing.T) {
	got := estimateClickTrack(t, 120)
	if got < 115 || got > 125 {
		t.Fatalf("Estimate(120 BPM clicks) = %v, want within [115, 125]", got)
	}
}

func TestEstimateClickTrack150(t *testing.T) {
	got := estimateClickTrack(t, 150)
	if got < 144 || got > 156 {
		t.Fatalf("Estimate(150 BPM clicks) = %v, want within [144, 156]", got)
	}
}

func TestEstimateFoldsSlowTempo(t *testing.T) {
	// 70 BPM clicks sit below the octave band, so the estimate should
	// come back doubled to about 140.
	got := estimateClickTrack(t, 70)
	if got < 134 || got > 146 {
		t.Fatalf("Estimate(70 BPM clicks) = %v, want within [134, 146]", got)
	}
}

func TestEstimateReusableAcrossTracks(t *testing.T) {
	e, err := NewEstimator(48000)
	if err != nil {
		t.Fatalf("NewEstimator error: %v", err)
	}

	for _, bpm := range []float64{120, 128} {
		tr, err := track.Mono(testutil.ClickTrack32(bpm, 48000, 30), 48000)
		if err != nil {
			t.Fatalf("Mono error: %v", err)
		}

		got, err := e.Estimate(tr)
		if err != nil {
			t.Fatalf("Estimate error: %v", err)
		}

		if math.Abs(got-bpm) > 6 {
			t.Fatalf("Estimate(%v BPM clicks) = %v, want within 6 BPM", bpm, got)
		}
	}
}
