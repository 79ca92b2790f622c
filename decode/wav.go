package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-deck/track"
)

// WAV decodes a RIFF/WAVE stream into a track at the file's own sample
// rate. PCM at 8, 16, 24 and 32 bits with one or two channels is
// supported.
func WAV(r io.ReadSeeker) (*track.Track, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, &Error{Format: "wav", Cause: errors.New("missing or malformed RIFF header")}
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, &Error{Format: "wav", Cause: err}
	}

	bitDepth := int(dec.BitDepth)
	if buf.SourceBitDepth != 0 {
		bitDepth = buf.SourceBitDepth
	}

	samples, err := floatSamples(buf.Data, bitDepth)
	if err != nil {
		return nil, &Error{Format: "wav", Cause: err}
	}

	t, err := track.FromInterleaved(samples, buf.Format.NumChannels, uint32(buf.Format.SampleRate))
	if err != nil {
		return nil, &Error{Format: "wav", Cause: err}
	}
	return t, nil
}

// floatSamples rescales integer PCM to [-1, 1). WAV stores 8-bit audio
// unsigned around 128; deeper formats are signed two's complement.
func floatSamples(data []int, bitDepth int) ([]float32, error) {
	out := make([]float32, len(data))

	switch bitDepth {
	case 8:
		for i, v := range data {
			out[i] = (float32(v) - 128) / 128
		}
	case 16, 24, 32:
		scale := float32(int64(1) << (bitDepth - 1))
		for i, v := range data {
			out[i] = float32(v) / scale
		}
	default:
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	return out, nil
}
