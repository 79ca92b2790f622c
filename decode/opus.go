package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/pion/webrtc/v4/pkg/media/oggreader"
	"gopkg.in/hraban/opus.v2"

	"github.com/cwbudde/algo-deck/track"
)

// OpusSampleRate is the rate every Opus stream decodes at, independent
// of the rate the audio was captured at.
const OpusSampleRate = 48000

// A packet may carry at most 120 ms of audio, 5760 samples per channel
// at 48 kHz.
const maxOpusFrame = 5760

// Opus decodes an Ogg-encapsulated Opus stream into a 48 kHz track.
// Pages are expected to carry one packet each, the layout written by
// this module's recorder.
func Opus(r io.Reader) (*track.Track, error) {
	ogg, head, err := oggreader.NewWith(r)
	if err != nil {
		return nil, &Error{Format: "opus", Cause: err}
	}

	channels := int(head.Channels)
	if channels != 1 && channels != 2 {
		return nil, &Error{Format: "opus", Cause: fmt.Errorf("channel count must be 1 or 2: %d", channels)}
	}

	dec, err := opus.NewDecoder(OpusSampleRate, channels)
	if err != nil {
		return nil, &Error{Format: "opus", Cause: err}
	}

	frame := make([]float32, maxOpusFrame*channels)
	var samples []float32

	for {
		payload, _, err := ogg.ParseNextPage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &Error{Format: "opus", Cause: err}
		}
		if skippablePacket(payload) {
			continue
		}

		n, err := dec.DecodeFloat32(payload, frame)
		if err != nil {
			return nil, &Error{Format: "opus", Cause: err}
		}
		samples = append(samples, frame[:n*channels]...)
	}

	if skip := int(head.PreSkip) * channels; skip > 0 {
		samples = samples[min(skip, len(samples)):]
	}

	t, err := track.FromInterleaved(samples, channels, OpusSampleRate)
	if err != nil {
		return nil, &Error{Format: "opus", Cause: err}
	}
	return t, nil
}

// skippablePacket reports header packets (OpusHead, OpusTags) and empty
// pages, which carry no audio.
func skippablePacket(payload []byte) bool {
	if len(payload) == 0 {
		return true
	}
	return len(payload) >= 8 && (string(payload[:8]) == "OpusHead" || string(payload[:8]) == "OpusTags")
}
