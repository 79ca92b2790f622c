//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cwbudde/algo-deck/analyze"
	"github.com/cwbudde/algo-deck/deck"
	"github.com/cwbudde/algo-deck/track"
)

// The bridge owns a two-deck mixer. WASM runs single-threaded, so the
// control and render sides of the deck contract share the one
// goroutine and the browser drives both: an AudioWorklet pulls render,
// a timer pulls pump.
var (
	mixer *deck.Mixer
	decks [2]*deck.Deck

	lastPosition [2]float64
	endedCount   [2]int

	funcs []js.Func
)

func main() {
	api := js.Global().Get("Object").New()

	api.Set("init", export(func(args []js.Value) any {
		sampleRate := 48000
		if len(args) > 0 {
			sampleRate = args[0].Int()
		}
		for i := range decks {
			d, err := deck.New(uint32(sampleRate))
			if err != nil {
				return err.Error()
			}
			idx := i
			d.OnPosition(func(seconds float64) { lastPosition[idx] = seconds })
			d.OnEnded(func() { endedCount[idx]++ })
			decks[i] = d
		}
		m, err := deck.NewMixer(decks[0], decks[1])
		if err != nil {
			return err.Error()
		}
		mixer = m
		return js.Null()
	}))

	api.Set("loadTrack", export(func(args []js.Value) any {
		d, ok := deckArg(args)
		if !ok || len(args) < 4 {
			return "loadTrack needs deck, left, right, sampleRate"
		}
		left := copyChannel(args[1])
		rate := uint32(args[3].Int())

		var t *track.Track
		var err error
		if args[2].IsNull() || args[2].IsUndefined() {
			t, err = track.Mono(left, rate)
		} else {
			t, err = track.New(left, copyChannel(args[2]), rate)
		}
		if err != nil {
			return err.Error()
		}
		if err := d.LoadTrack(t); err != nil {
			return err.Error()
		}
		return js.Null()
	}))

	api.Set("play", export(deckOp(func(d *deck.Deck, _ []js.Value) error { return d.Play() })))
	api.Set("pause", export(deckOp(func(d *deck.Deck, _ []js.Value) error { return d.Pause() })))
	api.Set("stop", export(deckOp(func(d *deck.Deck, _ []js.Value) error { return d.Stop() })))

	api.Set("playAt", export(deckOp(func(d *deck.Deck, rest []js.Value) error {
		return d.PlayAt(rest[0].Float())
	})))
	api.Set("seek", export(deckOp(func(d *deck.Deck, rest []js.Value) error {
		return d.Seek(rest[0].Float())
	})))
	api.Set("setTempoPercent", export(deckOp(func(d *deck.Deck, rest []js.Value) error {
		return d.SetTempoPercent(rest[0].Float())
	})))
	api.Set("setGain", export(deckOp(func(d *deck.Deck, rest []js.Value) error {
		return d.SetGain(rest[0].Float())
	})))
	api.Set("setPan", export(deckOp(func(d *deck.Deck, rest []js.Value) error {
		return d.SetPan(rest[0].Float())
	})))
	api.Set("setTrim", export(deckOp(func(d *deck.Deck, rest []js.Value) error {
		return d.SetTrim(float32(rest[0].Float()))
	})))
	api.Set("setPitch", export(deckOp(func(d *deck.Deck, rest []js.Value) error {
		return d.SetPitch(rest[0].Int())
	})))
	api.Set("setEQ", export(deckOp(func(d *deck.Deck, rest []js.Value) error {
		return d.SetEQ(float32(rest[0].Float()), float32(rest[1].Float()), float32(rest[2].Float()))
	})))

	api.Set("setFader", export(func(args []js.Value) any {
		if mixer == nil || len(args) < 1 {
			return js.Null()
		}
		if err := mixer.SetCrossfade(float32(args[0].Float())); err != nil {
			return err.Error()
		}
		return js.Null()
	}))

	api.Set("setMaster", export(func(args []js.Value) any {
		if mixer == nil || len(args) < 1 {
			return js.Null()
		}
		if err := mixer.SetMaster(float32(args[0].Float())); err != nil {
			return err.Error()
		}
		return js.Null()
	}))

	api.Set("render", export(func(args []js.Value) any {
		if mixer == nil || len(args) < 1 {
			return js.Global().Get("Float32Array").New(0)
		}
		n := args[0].Int()
		left := make([]float32, n)
		right := make([]float32, n)
		mixer.Render(left, right)

		arr := js.Global().Get("Float32Array").New(2 * n)
		for i := range n {
			arr.SetIndex(2*i, left[i])
			arr.SetIndex(2*i+1, right[i])
		}
		return arr
	}))

	api.Set("pump", export(func([]js.Value) any {
		if mixer == nil {
			return js.Null()
		}
		mixer.Pump()
		state := js.Global().Get("Object").New()
		state.Set("positionA", lastPosition[0])
		state.Set("positionB", lastPosition[1])
		state.Set("endedA", endedCount[0])
		state.Set("endedB", endedCount[1])
		return state
	}))

	api.Set("state", export(deckValue(func(d *deck.Deck) any { return d.State().String() })))
	api.Set("position", export(deckValue(func(d *deck.Deck) any { return d.Position() })))
	api.Set("underruns", export(deckValue(func(d *deck.Deck) any { return int(d.Underruns()) })))

	api.Set("noteUnderrun", export(deckOp(func(d *deck.Deck, _ []js.Value) error {
		d.NoteUnderrun()
		return nil
	})))

	api.Set("stats", export(deckValue(func(d *deck.Deck) any {
		out, err := d.StatsJSON()
		if err != nil {
			return err.Error()
		}
		return string(out)
	})))

	api.Set("analyze", export(func(args []js.Value) any {
		if len(args) < 2 {
			return "analyze needs samples and a sample rate"
		}
		t, err := track.Mono(copyChannel(args[0]), uint32(args[1].Int()))
		if err != nil {
			return err.Error()
		}
		res, err := analyze.Track(t)
		if err != nil {
			return err.Error()
		}

		grid := js.Global().Get("Float32Array").New(len(res.BeatGrid))
		for i, ts := range res.BeatGrid {
			grid.SetIndex(i, ts)
		}
		obj := js.Global().Get("Object").New()
		obj.Set("bpm", res.BPM)
		obj.Set("key", res.Key.String())
		obj.Set("beatGrid", grid)
		return obj
	}))

	js.Global().Set("DJDeck", api)
	select {}
}

func deckArg(args []js.Value) (*deck.Deck, bool) {
	if mixer == nil || len(args) < 1 {
		return nil, false
	}
	idx := args[0].Int()
	if idx < 0 || idx >= len(decks) {
		return nil, false
	}
	return decks[idx], true
}

// deckOp adapts a deck control call taking the arguments after the deck
// index; errors surface as strings.
func deckOp(fn func(*deck.Deck, []js.Value) error) func([]js.Value) any {
	return func(args []js.Value) any {
		d, ok := deckArg(args)
		if !ok {
			return js.Null()
		}
		if err := fn(d, args[1:]); err != nil {
			return err.Error()
		}
		return js.Null()
	}
}

func deckValue(fn func(*deck.Deck) any) func([]js.Value) any {
	return func(args []js.Value) any {
		d, ok := deckArg(args)
		if !ok {
			return js.Null()
		}
		return fn(d)
	}
}

func copyChannel(arr js.Value) []float32 {
	out := make([]float32, arr.Length())
	for i := range out {
		out[i] = float32(arr.Index(i).Float())
	}
	return out
}

func export(fn func([]js.Value) any) js.Func {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return fn(args)
	})
	funcs = append(funcs, f)
	return f
}
