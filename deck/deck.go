// Package deck is the UI-facing control surface. A Deck couples one
// playback engine with its insert chain behind queue-backed control
// methods; a Mixer blends two decks through a crossfader into the host
// output.
//
// Control methods, subscriptions, Pump and Run belong to one control
// goroutine; Render belongs to the host audio callback. The two sides
// meet only through the lock-free queues.
package deck

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/algo-deck/analyze"
	"github.com/cwbudde/algo-deck/engine"
	"github.com/cwbudde/algo-deck/engine/control"
	"github.com/cwbudde/algo-deck/mix"
	"github.com/cwbudde/algo-deck/track"
)

// ErrQueueFull is returned when a control method cannot hand its change
// to the render side because the queue is saturated. The change is
// dropped, never retried.
var ErrQueueFull = errors.New("control queue full")

// Tempo percent bounds: half speed to one-and-a-half speed.
const (
	MinTempoPercent = -50.0
	MaxTempoPercent = 50.0
)

const insertQueueCapacity = 32

// Deck is one playback channel: engine, insert chain, and event
// subscriptions.
type Deck struct {
	eng     *engine.Engine
	proc    *mix.Processor
	inserts *control.Ring[func()]

	onPosition func(seconds float64)
	onEnded    func()
}

// New creates a deck rendering at the given sample rate. Engine options
// pass through.
func New(sampleRate uint32, opts ...engine.Option) (*Deck, error) {
	eng, err := engine.New(sampleRate, opts...)
	if err != nil {
		return nil, err
	}
	proc, err := mix.NewProcessor(sampleRate)
	if err != nil {
		return nil, err
	}
	inserts, err := control.NewRing[func()](insertQueueCapacity)
	if err != nil {
		return nil, err
	}
	return &Deck{eng: eng, proc: proc, inserts: inserts}, nil
}

// SampleRate returns the deck's output rate in Hz.
func (d *Deck) SampleRate() float64 {
	return d.eng.SampleRate()
}

// LoadTrack replaces the deck's track. The engine resets position and
// playback parameters; insert chain settings persist like hardware
// knobs. A nil track unloads the deck.
func (d *Deck) LoadTrack(t *track.Track) error {
	if t != nil && float64(t.SampleRate()) != d.eng.SampleRate() {
		return fmt.Errorf("track sample rate %d does not match deck rate %.0f", t.SampleRate(), d.eng.SampleRate())
	}
	return d.enqueue(control.SetBuffer(t))
}

// Play starts or resumes playback at the current position.
func (d *Deck) Play() error {
	return d.enqueue(control.Play())
}

// PlayAt starts playback from the given position in seconds.
func (d *Deck) PlayAt(seconds float64) error {
	return d.enqueue(control.PlayAt(seconds))
}

// Pause suspends playback, keeping the position.
func (d *Deck) Pause() error {
	return d.enqueue(control.Pause())
}

// Stop halts playback and rewinds to the start.
func (d *Deck) Stop() error {
	return d.enqueue(control.Stop())
}

// Seek moves the playback position without changing state.
func (d *Deck) Seek(seconds float64) error {
	return d.enqueue(control.Seek(seconds))
}

// SetTempoPercent adjusts playback speed as a percentage offset in
// [MinTempoPercent, MaxTempoPercent]: +10 plays 10% faster. Values
// outside the range are rejected.
func (d *Deck) SetTempoPercent(percent float64) error {
	if math.IsNaN(percent) || percent < MinTempoPercent || percent > MaxTempoPercent {
		return fmt.Errorf("tempo percent must be in [%.0f, %.0f]: %v", MinTempoPercent, MaxTempoPercent, percent)
	}
	return d.enqueue(control.SetTempo(1 + percent/100))
}

// SetGain sets the deck's playback gain in [0, 2].
func (d *Deck) SetGain(gain float64) error {
	return d.enqueue(control.SetGain(gain))
}

// SetPan positions the deck in the stereo field, -1 left through +1
// right.
func (d *Deck) SetPan(pan float64) error {
	return d.enqueue(control.SetPan(pan))
}

// SetTrim sets the insert chain's input gain in [0, 2].
func (d *Deck) SetTrim(gain float32) error {
	proc := d.proc
	return d.enqueueInsert(func() { proc.SetInputGain(gain) })
}

// SetEQ sets all three equalizer bands in decibels, each clamped to
// +/-12 dB.
func (d *Deck) SetEQ(lowDB, midDB, highDB float32) error {
	proc := d.proc
	return d.enqueueInsert(func() {
		proc.SetLowGain(lowDB)
		proc.SetMidGain(midDB)
		proc.SetHighGain(highDB)
	})
}

// SetPitch sets the pitch shift in semitones, clamped to one octave
// either way. Pitch is independent of tempo.
func (d *Deck) SetPitch(semitones int) error {
	proc := d.proc
	return d.enqueueInsert(func() { proc.SetPitchSemitones(semitones) })
}

// State returns the playback state as of the last rendered block.
func (d *Deck) State() engine.State {
	return d.eng.State()
}

// Position returns the playback position in seconds as of the last
// rendered block.
func (d *Deck) Position() float64 {
	return d.eng.Position()
}

// Underruns returns the number of missed host deadlines recorded so
// far.
func (d *Deck) Underruns() uint64 {
	return d.eng.Underruns()
}

// Stats returns the insert chain's processing snapshot.
func (d *Deck) Stats() mix.Stats {
	return d.proc.Stats()
}

// StatsJSON returns the processing snapshot serialized as JSON.
func (d *Deck) StatsJSON() ([]byte, error) {
	return d.proc.StatsJSON()
}

// NoteUnderrun records a missed host deadline. Call it from the host
// audio layer when a callback was not served in time.
func (d *Deck) NoteUnderrun() {
	d.eng.NoteUnderrun()
}

// OnPosition subscribes to throttled position reports, roughly ten per
// second of played audio. Reports may be dropped under load.
func (d *Deck) OnPosition(fn func(seconds float64)) {
	d.onPosition = fn
}

// OnEnded subscribes to end-of-track completions. Completions are
// never dropped.
func (d *Deck) OnEnded(fn func()) {
	d.onEnded = fn
}

// Render produces one stereo block for the host audio callback:
// pending insert changes apply first, then the engine renders, then
// the insert chain processes in place.
func (d *Deck) Render(left, right []float32) {
	for {
		apply, ok := d.inserts.TryPop()
		if !ok {
			break
		}
		apply()
	}
	d.eng.Render(left, right)
	d.proc.Process(left, right)
}

// Pump delivers pending engine events to the subscriptions.
func (d *Deck) Pump() {
	for {
		seconds, ok := d.eng.PollPosition()
		if !ok {
			break
		}
		if d.onPosition != nil {
			d.onPosition(seconds)
		}
	}
	for range d.eng.TakeEnded() {
		if d.onEnded != nil {
			d.onEnded()
		}
	}
}

// Run pumps events at the engine's position-report cadence until ctx is
// done.
func (d *Deck) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(d.eng.PositionInterval() * float64(time.Second)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Pump()
		}
	}
}

// Analyze runs the offline analyzers on a track. It never touches the
// live engine, so it is safe to run while the deck plays.
func (d *Deck) Analyze(t *track.Track) (*analyze.Result, error) {
	return analyze.Track(t)
}

func (d *Deck) enqueue(m control.Message) error {
	if !d.eng.Enqueue(m) {
		return ErrQueueFull
	}
	return nil
}

func (d *Deck) enqueueInsert(apply func()) error {
	if !d.inserts.Push(apply) {
		return ErrQueueFull
	}
	return nil
}
