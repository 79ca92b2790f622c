package record

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-deck/decode"
	"github.com/cwbudde/algo-deck/dsp/buffer"
	"github.com/cwbudde/algo-deck/internal/testutil"
)

func TestNewRejectsUnsupportedRates(t *testing.T) {
	cases := []struct {
		name    string
		rate    uint32
		wantErr bool
	}{
		{"narrowband", 8000, false},
		{"fullband", 48000, false},
		{"cd rate", 44100, true},
		{"zero", 0, true},
		{"arbitrary", 96000, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var sink bytes.Buffer
			_, err := New(&sink, tc.rate)
			if tc.wantErr && err == nil {
				t.Fatalf("New accepted rate %d", tc.rate)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("New(%d) failed: %v", tc.rate, err)
			}
		})
	}
}

func TestNewRejectsNonPositiveBitrate(t *testing.T) {
	var sink bytes.Buffer
	if _, err := New(&sink, 48000, WithBitrate(0)); err == nil {
		t.Fatal("New accepted a zero bitrate")
	}
}

func TestFrameLengthAt48k(t *testing.T) {
	r := newTestRecorder(t)
	if got := r.FrameLength(); got != 960 {
		t.Fatalf("FrameLength() = %d, want 960", got)
	}
	if got := r.SampleRate(); got != 48000 {
		t.Fatalf("SampleRate() = %d, want 48000", got)
	}
}

func TestRecorderPacketFraming(t *testing.T) {
	r := newTestRecorder(t)

	block := make([]float32, 1000)
	if err := r.WriteBlock(block, block); err != nil {
		t.Fatalf("WriteBlock failed: %v", err)
	}
	if got := r.PacketsWritten(); got != 1 {
		t.Fatalf("PacketsWritten() after 1000 samples = %d, want 1", got)
	}

	more := make([]float32, 920)
	if err := r.WriteBlock(more, more); err != nil {
		t.Fatalf("WriteBlock failed: %v", err)
	}
	if got := r.PacketsWritten(); got != 2 {
		t.Fatalf("PacketsWritten() after 1920 samples = %d, want 2", got)
	}

	if got := r.Duration(); math.Abs(got-1920.0/48000) > 1e-9 {
		t.Fatalf("Duration() = %v, want %v", got, 1920.0/48000)
	}
}

func TestRecorderMismatchedChannelLengths(t *testing.T) {
	r := newTestRecorder(t)

	left := make([]float32, 1000)
	right := make([]float32, 500)
	if err := r.WriteBlock(left, right); err != nil {
		t.Fatalf("WriteBlock failed: %v", err)
	}

	if got := r.Duration(); math.Abs(got-500.0/48000) > 1e-9 {
		t.Fatalf("Duration() = %v, want the shorter channel to bound the block", got)
	}
}

func TestRecorderClosePadsPartialFrame(t *testing.T) {
	r := newTestRecorder(t)

	block := make([]float32, 100)
	if err := r.WriteBlock(block, block); err != nil {
		t.Fatalf("WriteBlock failed: %v", err)
	}
	if got := r.PacketsWritten(); got != 0 {
		t.Fatalf("PacketsWritten() before Close = %d, want 0", got)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if got := r.PacketsWritten(); got != 1 {
		t.Fatalf("PacketsWritten() after Close = %d, want padded final packet", got)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestRecorderRejectsWritesAfterClose(t *testing.T) {
	r := newTestRecorder(t)
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	block := make([]float32, 960)
	if err := r.WriteBlock(block, block); !errors.Is(err, ErrClosed) {
		t.Fatalf("WriteBlock after Close = %v, want ErrClosed", err)
	}
}

// Recording a signal and decoding the result must reproduce the format
// and roughly the energy of the source. Opus is lossy, so samples are
// not compared directly.
func TestRecorderRoundTripThroughDecoder(t *testing.T) {
	const rate = 48000
	left := testutil.DeterministicSine32(440, rate, 0.5, rate)
	right := testutil.DeterministicSine32(440, rate, 0.5, rate)

	var sink bytes.Buffer
	r, err := New(&sink, rate)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := r.WriteBlock(left, right); err != nil {
		t.Fatalf("WriteBlock failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if got := r.PacketsWritten(); got != 50 {
		t.Fatalf("PacketsWritten() = %d, want 50 for one second", got)
	}

	tr, err := decode.Opus(bytes.NewReader(sink.Bytes()))
	if err != nil {
		t.Fatalf("decode recorded stream: %v", err)
	}

	if got := tr.SampleRate(); got != rate {
		t.Fatalf("decoded SampleRate() = %d, want %d", got, rate)
	}
	if !tr.Stereo() {
		t.Fatal("decoded track is mono, want stereo")
	}
	if got := tr.Len(); got > rate || got < rate-4800 {
		t.Fatalf("decoded Len() = %d, want within a codec delay of %d", got, rate)
	}

	sourceRMS := buffer.RMS(left)
	decodedRMS := buffer.RMS(tr.Left())
	if math.Abs(float64(decodedRMS-sourceRMS)) > 0.05 {
		t.Fatalf("decoded RMS = %v, want near source RMS %v", decodedRMS, sourceRMS)
	}
}

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	var sink bytes.Buffer
	r, err := New(&sink, 48000)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r
}
