package deck

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-deck/dsp/buffer"
	"github.com/cwbudde/algo-deck/engine/control"
	"github.com/cwbudde/algo-deck/mix"
)

// Mixer blends two decks through a crossfader into one stereo output.
// Deck sums pass through the master gain and a soft clipper, so pushing
// both decks hot saturates instead of wrapping.
//
// Like Deck, control methods run on the control goroutine and Render on
// the host audio callback.
type Mixer struct {
	a, b   *Deck
	cross  *mix.Fader
	master float32
	pool   *buffer.Pool
	ctl    *control.Ring[func()]

	// Control-side copies of render-owned values, kept so the getters
	// never read across the goroutine boundary.
	crossShadow  float32
	masterShadow float32
}

// NewMixer pairs two decks. Both must render at the same sample rate.
func NewMixer(a, b *Deck) (*Mixer, error) {
	if a == nil || b == nil {
		return nil, errors.New("mixer requires two decks")
	}
	if a.SampleRate() != b.SampleRate() {
		return nil, fmt.Errorf("deck sample rates differ: %.0f vs %.0f", a.SampleRate(), b.SampleRate())
	}
	pool, err := buffer.NewPool(buffer.MaxBlock)
	if err != nil {
		return nil, err
	}
	ctl, err := control.NewRing[func()](insertQueueCapacity)
	if err != nil {
		return nil, err
	}
	return &Mixer{
		a:            a,
		b:            b,
		cross:        mix.NewFader(),
		master:       1,
		masterShadow: 1,
		pool:         pool,
		ctl:          ctl,
	}, nil
}

// DeckA returns the left-hand deck.
func (m *Mixer) DeckA() *Deck {
	return m.a
}

// DeckB returns the right-hand deck.
func (m *Mixer) DeckB() *Deck {
	return m.b
}

// SampleRate returns the mixer's output rate in Hz.
func (m *Mixer) SampleRate() float64 {
	return m.a.SampleRate()
}

// SetCrossfade positions the deck blend: -1 plays only deck A, +1 only
// deck B. Values outside [-1, 1] clamp.
func (m *Mixer) SetCrossfade(position float32) error {
	position = min(max(position, -1), 1)
	cross := m.cross
	if !m.ctl.Push(func() { cross.SetPosition(position) }) {
		return ErrQueueFull
	}
	m.crossShadow = position
	return nil
}

// Crossfade returns the last requested crossfader position.
func (m *Mixer) Crossfade() float32 {
	return m.crossShadow
}

// SetMaster sets the master gain in [0, 2].
func (m *Mixer) SetMaster(gain float32) error {
	gain = min(max(gain, mix.MinGain), mix.MaxGain)
	if !m.ctl.Push(func() { m.master = gain }) {
		return ErrQueueFull
	}
	m.masterShadow = gain
	return nil
}

// Master returns the last requested master gain.
func (m *Mixer) Master() float32 {
	return m.masterShadow
}

// Pump delivers pending events from both decks to their subscriptions.
func (m *Mixer) Pump() {
	m.a.Pump()
	m.b.Pump()
}

// Render produces one blended stereo block for the host audio callback.
// Oversize blocks render in chunks of the scratch pool's capacity.
func (m *Mixer) Render(left, right []float32) {
	for {
		apply, ok := m.ctl.TryPop()
		if !ok {
			break
		}
		apply()
	}

	n := min(len(left), len(right))
	step := m.pool.Capacity()
	for start := 0; start < n; start += step {
		end := min(start+step, n)
		m.renderChunk(left[start:end], right[start:end])
	}
}

func (m *Mixer) renderChunk(left, right []float32) {
	n := len(left)
	aL, aR := m.pool.Get(n), m.pool.Get(n)
	bL, bR := m.pool.Get(n), m.pool.Get(n)

	m.a.Render(aL, aR)
	m.b.Render(bL, bR)

	// Centered crossfader passes both decks at unity, matching the
	// insert fader's center step.
	aGain, bGain := float32(1), float32(1)
	if m.cross.Position() != 0 {
		aGain, bGain = m.cross.LeftGain(), m.cross.RightGain()
	}

	for i := range n {
		left[i] = buffer.SoftClip((aL[i]*aGain + bL[i]*bGain) * m.master)
		right[i] = buffer.SoftClip((aR[i]*aGain + bR[i]*bGain) * m.master)
	}

	m.pool.Put(aL)
	m.pool.Put(aR)
	m.pool.Put(bL)
	m.pool.Put(bR)
}
