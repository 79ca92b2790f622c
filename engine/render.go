package engine

import (
	"math"

	"github.com/cwbudde/algo-deck/dsp/interp"
	"github.com/cwbudde/algo-deck/engine/control"
)

// Render fills one stereo output block. It is the body of the host audio
// callback: pending messages are drained first, then len(left) frames
// are synthesized. Render never allocates, locks, or blocks, and any
// internal fault degrades to silence rather than propagating.
//
// Both slices must have the same length; on mismatch the overlap is
// rendered and the remainder of the longer slice is untouched.
func (e *Engine) Render(left, right []float32) {
	e.drain()

	n := min(len(left), len(right))
	left, right = left[:n], right[:n]

	if e.state != StatePlaying || e.track == nil {
		clear(left)
		clear(right)
		e.publish()

		return
	}

	srcL := e.track.Left()
	srcR := e.track.Right()
	end := len(srcL) - 1

	gain := float32(e.gain)
	panL := float32(e.panLeft)
	panR := float32(e.panRight)

	ended := false

	for i := range n {
		pos := e.readPos + float64(i)*e.tempoRatio

		idx := int(pos)
		if idx >= end {
			for j := i; j < n; j++ {
				left[j] = 0
				right[j] = 0
			}

			ended = true

			break
		}

		frac := float32(pos - float64(idx))

		left[i] = interp.Linear(srcL[idx], srcL[idx+1], frac) * gain * panL
		right[i] = interp.Linear(srcR[idx], srcR[idx+1], frac) * gain * panR
	}

	if ended {
		e.state = StateStopped
		e.readPos = 0
		e.posElapsed = 0
		e.pendingEnded.Add(1)
	} else {
		e.readPos += float64(n) * e.tempoRatio

		e.posElapsed += float64(n)
		if e.posElapsed >= e.posInterval {
			e.posElapsed = 0
			e.positions.Push(e.readPos / e.sampleRate)
		}
	}

	e.frames.Add(uint64(n))
	e.publish()
}

// drain applies every queued message in FIFO order. Each message takes
// full effect before the next; the block rendered afterwards sees only
// the final state.
func (e *Engine) drain() {
	for {
		m, ok := e.in.TryPop()
		if !ok {
			return
		}

		e.apply(m)
	}
}

func (e *Engine) apply(m control.Message) {
	switch m.Kind {
	case control.KindSetBuffer:
		e.track = m.Track
		e.state = StateStopped
		e.readPos = 0
		e.posElapsed = 0
		e.tempoRatio = 1
		e.gain = 1
		e.setPan(0)

	case control.KindPlay:
		if e.track == nil {
			return
		}

		if m.HasValue {
			e.readPos = e.clampPosition(math.Floor(m.Value * e.sampleRate))
		}

		e.state = StatePlaying

	case control.KindPause:
		if e.state == StatePlaying {
			e.state = StatePaused
		}

	case control.KindStop:
		e.state = StateStopped
		e.readPos = 0
		e.posElapsed = 0

	case control.KindSeek:
		e.readPos = e.clampPosition(math.Floor(m.Value * e.sampleRate))

	case control.KindSetTempo:
		if !math.IsNaN(m.Value) {
			e.tempoRatio = clamp(m.Value, MinTempoRatio, MaxTempoRatio)
		}

	case control.KindSetGain:
		if !math.IsNaN(m.Value) {
			e.gain = clamp(m.Value, 0, MaxGain)
		}

	case control.KindSetPan:
		if !math.IsNaN(m.Value) {
			e.setPan(clamp(m.Value, -1, 1))
		}
	}
}

// setPan precomputes the per-channel pan gains. Downstream mixing is
// calibrated against this exact curve: the angle spans a quarter pi,
// and a centered pan passes both channels at unity rather than meeting
// the curve at cos(0).
func (e *Engine) setPan(pan float64) {
	e.pan = pan

	if pan == 0 {
		e.panLeft = 1
		e.panRight = 1

		return
	}

	angle := pan * math.Pi / 4
	e.panLeft = math.Cos(angle)
	e.panRight = math.Sin(angle)
}

func (e *Engine) clampPosition(samples float64) float64 {
	if e.track == nil || math.IsNaN(samples) || samples < 0 {
		return 0
	}

	return min(samples, float64(e.track.Len()))
}

func (e *Engine) publish() {
	e.sharedState.Store(uint32(e.state))
	e.sharedPosition.Store(math.Float64bits(e.readPos / e.sampleRate))
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
