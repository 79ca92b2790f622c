// Package control carries the message-passing contract between the
// control context and the real-time render context.
//
// The control side may allocate and block; the render side may do
// neither. Everything that crosses the boundary is therefore a plain
// value moved through a preallocated [Ring]: no interfaces, no
// per-message allocation, no locks.
package control

import "github.com/cwbudde/algo-deck/track"

// MessageKind tags the command a Message carries.
type MessageKind uint8

const (
	// KindSetBuffer swaps the loaded track.
	KindSetBuffer MessageKind = iota + 1
	// KindPlay starts or resumes playback, optionally at a position.
	KindPlay
	// KindPause halts playback without losing the position.
	KindPause
	// KindStop halts playback and rewinds to the start.
	KindStop
	// KindSeek moves the play position.
	KindSeek
	// KindSetTempo updates the playback-rate ratio.
	KindSetTempo
	// KindSetGain updates the output gain.
	KindSetGain
	// KindSetPan updates the stereo pan.
	KindSetPan
)

// Message is one control command. Messages are immutable after
// construction and consumed exactly once by the render side.
type Message struct {
	Kind MessageKind

	// Value carries the position in seconds for Play and Seek, the
	// ratio for SetTempo, the gain for SetGain, or the pan for SetPan.
	Value float64

	// HasValue marks Play messages that carry an explicit position.
	HasValue bool

	// Track is the replacement buffer for SetBuffer.
	Track *track.Track
}

// SetBuffer builds the message that loads a track.
func SetBuffer(t *track.Track) Message {
	return Message{Kind: KindSetBuffer, Track: t}
}

// Play builds the message that resumes from the stored position.
func Play() Message {
	return Message{Kind: KindPlay}
}

// PlayAt builds the message that starts playback at seconds.
func PlayAt(seconds float64) Message {
	return Message{Kind: KindPlay, Value: seconds, HasValue: true}
}

// Pause builds the pause message.
func Pause() Message {
	return Message{Kind: KindPause}
}

// Stop builds the stop message.
func Stop() Message {
	return Message{Kind: KindStop}
}

// Seek builds the message that moves the position to seconds.
func Seek(seconds float64) Message {
	return Message{Kind: KindSeek, Value: seconds}
}

// SetTempo builds the message that sets the playback-rate ratio.
func SetTempo(ratio float64) Message {
	return Message{Kind: KindSetTempo, Value: ratio}
}

// SetGain builds the message that sets the output gain.
func SetGain(gain float64) Message {
	return Message{Kind: KindSetGain, Value: gain}
}

// SetPan builds the message that sets the stereo pan.
func SetPan(pan float64) Message {
	return Message{Kind: KindSetPan, Value: pan}
}
