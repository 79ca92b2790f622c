package control

import (
	"testing"

	"github.com/cwbudde/algo-deck/track"
)

func TestNewRingRejectsNonPositiveCapacity(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := NewRing[int](n); err == nil {
			t.Fatalf("NewRing(%d) error = nil, want error", n)
		}
	}
}

func TestNewRingRoundsToPowerOfTwo(t *testing.T) {
	cases := []struct {
		capacity int
		want     int
	}{
		{1, 1},
		{2, 2},
		{3, 4},
		{5, 8},
		{64, 64},
		{100, 128},
	}

	for _, tc := range cases {
		r, err := NewRing[int](tc.capacity)
		if err != nil {
			t.Fatalf("NewRing(%d) error: %v", tc.capacity, err)
		}

		if r.Cap() != tc.want {
			t.Fatalf("NewRing(%d).Cap() = %d, want %d", tc.capacity, r.Cap(), tc.want)
		}
	}
}

func TestRingFIFO(t *testing.T) {
	r, err := NewRing[int](8)
	if err != nil {
		t.Fatalf("NewRing error: %v", err)
	}

	for i := range 5 {
		if !r.Push(i) {
			t.Fatalf("Push(%d) = false, want true", i)
		}
	}

	if r.Len() != 5 {
		t.Fatalf("Len = %d, want 5", r.Len())
	}

	for i := range 5 {
		v, ok := r.TryPop()
		if !ok {
			t.Fatalf("TryPop %d = not ok, want value", i)
		}

		if v != i {
			t.Fatalf("TryPop = %d, want %d", v, i)
		}
	}

	if _, ok := r.TryPop(); ok {
		t.Fatal("TryPop on empty ring = ok, want not ok")
	}
}

func TestRingRejectsWhenFull(t *testing.T) {
	r, err := NewRing[int](4)
	if err != nil {
		t.Fatalf("NewRing error: %v", err)
	}

	for i := range 4 {
		if !r.Push(i) {
			t.Fatalf("Push(%d) = false, want true", i)
		}
	}

	if r.Push(99) {
		t.Fatal("Push on full ring = true, want false")
	}

	// Popping one frees exactly one slot.
	if _, ok := r.TryPop(); !ok {
		t.Fatal("TryPop = not ok, want value")
	}

	if !r.Push(4) {
		t.Fatal("Push after pop = false, want true")
	}

	if r.Push(5) {
		t.Fatal("Push on refilled ring = true, want false")
	}
}

func TestRingWraparound(t *testing.T) {
	r, err := NewRing[int](4)
	if err != nil {
		t.Fatalf("NewRing error: %v", err)
	}

	// Cycle several times the capacity so head and tail wrap the buffer.
	next := 0
	expect := 0

	for round := range 10 {
		for range 3 {
			if !r.Push(next) {
				t.Fatalf("round %d: Push(%d) = false", round, next)
			}
			next++
		}

		for range 3 {
			v, ok := r.TryPop()
			if !ok {
				t.Fatalf("round %d: TryPop = not ok", round)
			}

			if v != expect {
				t.Fatalf("round %d: TryPop = %d, want %d", round, v, expect)
			}
			expect++
		}
	}
}

func TestRingSingleProducerSingleConsumer(t *testing.T) {
	r, err := NewRing[int](16)
	if err != nil {
		t.Fatalf("NewRing error: %v", err)
	}

	const total = 10000

	done := make(chan []int)

	go func() {
		got := make([]int, 0, total)
		for len(got) < total {
			if v, ok := r.TryPop(); ok {
				got = append(got, v)
			}
		}
		done <- got
	}()

	for i := 0; i < total; {
		if r.Push(i) {
			i++
		}
	}

	got := <-done
	for i, v := range got {
		if v != i {
			t.Fatalf("consumer saw %d at position %d, want strict FIFO", v, i)
		}
	}
}

func TestMessageConstructors(t *testing.T) {
	tr, err := track.Mono(make([]float32, 10), 48000)
	if err != nil {
		t.Fatalf("Mono error: %v", err)
	}

	cases := []struct {
		got  Message
		want Message
	}{
		{SetBuffer(tr), Message{Kind: KindSetBuffer, Track: tr}},
		{Play(), Message{Kind: KindPlay}},
		{PlayAt(12.5), Message{Kind: KindPlay, Value: 12.5, HasValue: true}},
		{Pause(), Message{Kind: KindPause}},
		{Stop(), Message{Kind: KindStop}},
		{Seek(3.25), Message{Kind: KindSeek, Value: 3.25}},
		{SetTempo(1.2), Message{Kind: KindSetTempo, Value: 1.2}},
		{SetGain(0.5), Message{Kind: KindSetGain, Value: 0.5}},
		{SetPan(-0.3), Message{Kind: KindSetPan, Value: -0.3}},
	}

	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("message = %+v, want %+v", tc.got, tc.want)
		}
	}
}
