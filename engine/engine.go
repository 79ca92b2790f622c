// Package engine implements the real-time playback engine for one deck.
//
// The engine splits strictly into two sides. The control side enqueues
// [control.Message] values and polls observability state; the render
// side is a single Render call driven by the host audio callback, which
// drains pending messages and synthesizes one block without allocating,
// locking, or blocking. All playback state is owned by the render side;
// the control side only proposes changes.
package engine

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-deck/engine/control"
	"github.com/cwbudde/algo-deck/track"
)

// State is the playback state machine position.
type State uint8

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Parameter ranges enforced when messages are applied.
const (
	MinTempoRatio = 0.5
	MaxTempoRatio = 2.0
	MaxGain       = 2.0
)

const (
	defaultMessageCapacity  = 64
	defaultPositionCapacity = 16
	defaultPositionInterval = 0.1
)

type settings struct {
	messageCapacity  int
	positionInterval float64
}

// Option configures an Engine at construction.
type Option func(*settings)

// WithMessageCapacity sets how many control messages may queue between
// render callbacks before Enqueue starts rejecting.
func WithMessageCapacity(n int) Option {
	return func(s *settings) { s.messageCapacity = n }
}

// WithPositionInterval sets the spacing of position reports in seconds
// of played audio.
func WithPositionInterval(seconds float64) Option {
	return func(s *settings) { s.positionInterval = seconds }
}

// Engine renders one deck's audio and applies control messages between
// blocks. Create one per deck; the zero value is not usable.
type Engine struct {
	sampleRate float64

	in        *control.Ring[control.Message]
	positions *control.Ring[float64]

	// Render-owned playback state. Only the render side touches these.
	track      *track.Track
	state      State
	readPos    float64
	tempoRatio float64
	gain       float64
	pan        float64
	panLeft    float64
	panRight   float64

	posInterval float64
	posElapsed  float64

	// Published for the control side.
	sharedState    atomic.Uint32
	sharedPosition atomic.Uint64
	pendingEnded   atomic.Uint32
	frames         atomic.Uint64
	underruns      atomic.Uint64
}

// New creates an engine for the given output sample rate.
func New(sampleRate uint32, opts ...Option) (*Engine, error) {
	if sampleRate == 0 {
		return nil, fmt.Errorf("engine sample rate must be > 0: %d", sampleRate)
	}

	cfg := settings{
		messageCapacity:  defaultMessageCapacity,
		positionInterval: defaultPositionInterval,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.positionInterval <= 0 {
		return nil, fmt.Errorf("position interval must be > 0: %f", cfg.positionInterval)
	}

	in, err := control.NewRing[control.Message](cfg.messageCapacity)
	if err != nil {
		return nil, fmt.Errorf("engine message queue: %w", err)
	}

	positions, err := control.NewRing[float64](defaultPositionCapacity)
	if err != nil {
		return nil, fmt.Errorf("engine position queue: %w", err)
	}

	return &Engine{
		sampleRate:  float64(sampleRate),
		in:          in,
		positions:   positions,
		tempoRatio:  1,
		gain:        1,
		panLeft:     1,
		panRight:    1,
		posInterval: cfg.positionInterval * float64(sampleRate),
	}, nil
}

// SampleRate returns the output sample rate in Hz.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// PositionInterval returns the spacing of position reports in seconds
// of played audio.
func (e *Engine) PositionInterval() float64 {
	return e.posInterval / e.sampleRate
}

// Enqueue hands a message to the render side, reporting false when the
// queue is saturated. A rejected message is dropped, never retried.
func (e *Engine) Enqueue(m control.Message) bool {
	return e.in.Push(m)
}

// State returns the playback state as of the last rendered block.
func (e *Engine) State() State {
	return State(e.sharedState.Load())
}

// Position returns the playback position in seconds as of the last
// rendered block.
func (e *Engine) Position() float64 {
	return math.Float64frombits(e.sharedPosition.Load())
}

// PollPosition returns the next throttled position report in seconds.
// Reports are dropped, not queued, when the control side falls behind.
func (e *Engine) PollPosition() (float64, bool) {
	return e.positions.TryPop()
}

// TakeEnded returns how many end-of-track completions occurred since the
// previous call. Completions are never dropped.
func (e *Engine) TakeEnded() int {
	return int(e.pendingEnded.Swap(0))
}

// FramesRendered returns the total output frames produced so far.
func (e *Engine) FramesRendered() uint64 {
	return e.frames.Load()
}

// NoteUnderrun records one missed host deadline. Host adapters call this
// when they detect a late callback; the engine cannot observe it itself.
func (e *Engine) NoteUnderrun() {
	e.underruns.Add(1)
}

// Underruns returns the number of recorded missed deadlines.
func (e *Engine) Underruns() uint64 {
	return e.underruns.Load()
}
