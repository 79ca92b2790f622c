package chroma

import (
	"testing"

	"gopkg.in/music-theory.v0/key"

	"github.com/cwbudde/algo-deck/internal/testutil"
)

func TestNewEstimatorRejectsZeroRate(t *testing.T) {
	if _, err := NewEstimator(0); err == nil {
		t.Fatal("NewEstimator(0) error = nil, want error")
	}
}

func TestKeyString(t *testing.T) {
	cases := []struct {
		k    Key
		want string
	}{
		{Key{Root: PitchA, Mode: ModeMinor}, "A Minor"},
		{Key{Root: PitchC, Mode: ModeMajor}, "C Major"},
		{Key{Root: PitchFSharp, Mode: ModeMinor}, "F# Minor"},
	}

	for _, tc := range cases {
		if got := tc.k.String(); got != tc.want {
			t.Fatalf("Key.String() = %q, want %q", got, tc.want)
		}
	}
}

func TestKeyEmptyInput(t *testing.T) {
	e, err := NewEstimator(48000)
	if err != nil {
		t.Fatalf("NewEstimator error: %v", err)
	}

	got, err := e.Key(nil)
	if err != nil {
		t.Fatalf("Key error: %v", err)
	}

	if got != DefaultKey {
		t.Fatalf("Key(nil) = %v, want %v", got, DefaultKey)
	}
}

func TestKeySilenceReportsDefault(t *testing.T) {
	e, err := NewEstimator(48000)
	if err != nil {
		t.Fatalf("NewEstimator error: %v", err)
	}

	got, err := e.Key(make([]float64, 3*48000))
	if err != nil {
		t.Fatalf("Key error: %v", err)
	}

	if got.String() != "A Minor" {
		t.Fatalf("Key(silence) = %q, want \"A Minor\"", got.String())
	}
}

func TestChromaSilenceStaysZero(t *testing.T) {
	e, err := NewEstimator(48000)
	if err != nil {
		t.Fatalf("NewEstimator error: %v", err)
	}

	v, err := e.Chroma(make([]float64, 48000))
	if err != nil {
		t.Fatalf("Chroma error: %v", err)
	}

	testutil.RequireAllZero(t, v[:])
}

func TestChromaSingleToneMapsToPitchClass(t *testing.T) {
	e, err := NewEstimator(48000)
	if err != nil {
		t.Fatalf("NewEstimator error: %v", err)
	}

	v, err := e.Chroma(testutil.DeterministicSine(440, 48000, 0.8, 48000))
	if err != nil {
		t.Fatalf("Chroma error: %v", err)
	}

	root := 0
	for p := 1; p < len(v); p++ {
		if v[p] > v[root] {
			root = p
		}
	}

	if PitchClass(root) != PitchA {
		t.Fatalf("chroma argmax = %v, want %v", PitchClass(root), PitchA)
	}

	if v[root] != 1 {
		t.Fatalf("chroma peak = %v, want normalized to 1", v[root])
	}
}

func TestKeySingleToneReportsMinor(t *testing.T) {
	e, err := NewEstimator(48000)
	if err != nil {
		t.Fatalf("NewEstimator error: %v", err)
	}

	// A lone tone leaves its minor-third bin near empty, which the mode
	// heuristic reads as minor.
	got, err := e.Key(testutil.DeterministicSine(220, 48000, 0.8, 3*48000))
	if err != nil {
		t.Fatalf("Key error: %v", err)
	}

	want := Key{Root: PitchA, Mode: ModeMinor}
	if got != want {
		t.Fatalf("Key(220 Hz tone) = %v, want %v", got, want)
	}
}

func TestKeyStrongMinorThirdReportsMajor(t *testing.T) {
	e, err := NewEstimator(48000)
	if err != nil {
		t.Fatalf("NewEstimator error: %v", err)
	}

	// A at 220 Hz with a nearly equal C at 261.63 Hz: the minor-third
	// bin holds more than 83% of the root energy, so the heuristic
	// reports major.
	sig := make([]float64, 3*48000)
	a := testutil.DeterministicSine(220, 48000, 0.5, len(sig))
	c := testutil.DeterministicSine(261.63, 48000, 0.47, len(sig))

	for i := range sig {
		sig[i] = a[i] + c[i]
	}

	got, err := e.Key(sig)
	if err != nil {
		t.Fatalf("Key error: %v", err)
	}

	want := Key{Root: PitchA, Mode: ModeMajor}
	if got != want {
		t.Fatalf("Key(A plus strong C) = %v, want %v", got, want)
	}
}

func TestChromaIgnoresSubBassDominance(t *testing.T) {
	e, err := NewEstimator(48000)
	if err != nil {
		t.Fatalf("NewEstimator error: %v", err)
	}

	// A loud 50 Hz rumble sits below the 80 Hz floor; the quiet 440 Hz
	// tone must still decide the profile.
	sig := make([]float64, 48000)
	rumble := testutil.DeterministicSine(50, 48000, 1.0, len(sig))
	tone := testutil.DeterministicSine(440, 48000, 0.3, len(sig))

	for i := range sig {
		sig[i] = rumble[i] + tone[i]
	}

	v, err := e.Chroma(sig)
	if err != nil {
		t.Fatalf("Chroma error: %v", err)
	}

	root := 0
	for p := 1; p < len(v); p++ {
		if v[p] > v[root] {
			root = p
		}
	}

	if PitchClass(root) != PitchA {
		t.Fatalf("chroma argmax = %v, want %v despite sub-bass", PitchClass(root), PitchA)
	}
}

func TestKeyMusicTheoryBridge(t *testing.T) {
	got := Key{Root: PitchA, Mode: ModeMinor}.MusicTheory()
	want := key.Of("A Minor")

	if got != want {
		t.Fatalf("MusicTheory() = %+v, want %+v", got, want)
	}
}
