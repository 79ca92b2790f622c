package mix

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-deck/dsp/buffer"
)

func TestEqualizerDefaultsFlat(t *testing.T) {
	eq := NewEqualizer()
	if got := eq.LowGain(); got != 0 {
		t.Fatalf("LowGain() = %v, want 0", got)
	}
	if got := eq.MidGain(); got != 0 {
		t.Fatalf("MidGain() = %v, want 0", got)
	}
	if got := eq.HighGain(); got != 0 {
		t.Fatalf("HighGain() = %v, want 0", got)
	}
}

func TestEqualizerGainSettersAndClamps(t *testing.T) {
	cases := []struct {
		name string
		in   float32
		want float32
	}{
		{"boost", 6, 6},
		{"cut", -6, -6},
		{"max", 12, 12},
		{"min", -12, -12},
		{"above max", 20, 12},
		{"below min", -20, -12},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eq := NewEqualizer()

			eq.SetLowGain(tc.in)
			if got := eq.LowGain(); got != tc.want {
				t.Fatalf("LowGain() = %v, want %v", got, tc.want)
			}
			eq.SetMidGain(tc.in)
			if got := eq.MidGain(); got != tc.want {
				t.Fatalf("MidGain() = %v, want %v", got, tc.want)
			}
			eq.SetHighGain(tc.in)
			if got := eq.HighGain(); got != tc.want {
				t.Fatalf("HighGain() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEqualizerEmptyBlock(t *testing.T) {
	eq := NewEqualizer()
	eq.Process(nil)
	eq.Process([]float32{})
}

// A flat equalizer is not bit-transparent, but steady input must settle
// back to its own level once the smoothing stages converge.
func TestEqualizerFlatConvergesToInput(t *testing.T) {
	eq := NewEqualizer()

	block := make([]float32, 512)
	for i := range block {
		block[i] = 0.5
	}
	eq.Process(block)

	if got := block[len(block)-1]; math.Abs(float64(got)-0.5) > 1e-3 {
		t.Fatalf("final sample = %v, want near 0.5", got)
	}
	if got := block[0]; got == 0.5 {
		t.Fatalf("first sample = %v, want smoothed away from 0.5", got)
	}
}

func TestEqualizerBoostAndCutSteadyState(t *testing.T) {
	cases := []struct {
		name string
		db   float32
	}{
		{"boost 6 dB", 6},
		{"cut 6 dB", -6},
		{"boost 12 dB", 12},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eq := NewEqualizer()
			eq.SetLowGain(tc.db)

			block := make([]float32, 512)
			for i := range block {
				block[i] = 0.25
			}
			eq.Process(block)

			want := 0.25 * float64(buffer.DBToLinear(tc.db))
			if got := block[len(block)-1]; math.Abs(float64(got)-want) > 1e-3 {
				t.Fatalf("final sample = %v, want near %v", got, want)
			}
		})
	}
}

// Splitting a signal across two calls must produce the same output as
// one call over the whole signal.
func TestEqualizerStateCarriesAcrossBlocks(t *testing.T) {
	whole := NewEqualizer()
	split := NewEqualizer()
	whole.SetLowGain(6)
	split.SetLowGain(6)

	signal := make([]float32, 512)
	for i := range signal {
		signal[i] = float32(math.Sin(2 * math.Pi * float64(i) / 64))
	}

	wholeOut := make([]float32, len(signal))
	copy(wholeOut, signal)
	whole.Process(wholeOut)

	splitOut := make([]float32, len(signal))
	copy(splitOut, signal)
	split.Process(splitOut[:256])
	split.Process(splitOut[256:])

	for i := range wholeOut {
		if wholeOut[i] != splitOut[i] {
			t.Fatalf("sample %d = %v split vs %v whole", i, splitOut[i], wholeOut[i])
		}
	}
}

func TestEqualizerResetFlattensGainsOnly(t *testing.T) {
	eq := NewEqualizer()
	eq.SetLowGain(12)
	eq.SetMidGain(-12)
	eq.SetHighGain(6)

	loud := make([]float32, 64)
	for i := range loud {
		loud[i] = 1
	}
	eq.Process(loud)

	eq.Reset()
	if eq.LowGain() != 0 || eq.MidGain() != 0 || eq.HighGain() != 0 {
		t.Fatalf("gains after Reset = (%v, %v, %v), want all 0",
			eq.LowGain(), eq.MidGain(), eq.HighGain())
	}

	silence := []float32{0}
	eq.Process(silence)
	if silence[0] == 0 {
		t.Fatal("first sample after Reset = 0, want residual filter state to bleed through")
	}
}
