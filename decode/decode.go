// Package decode turns audio files into track values the deck can
// load. WAV files decode at their native sample rate; Opus streams
// decode at the 48 kHz rate the codec operates at.
package decode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-deck/track"
)

// ErrUnsupportedFormat marks a file whose extension maps to no known
// decoder.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Error wraps a decode failure with the format that produced it.
type Error struct {
	Format string
	Cause  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Format, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// File opens path and decodes it by extension: .wav and .wave through
// the WAV decoder, .opus, .ogg and .oga through the Opus decoder.
func File(path string) (*track.Track, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav", ".wave", ".opus", ".ogg", ".oga":
	default:
		return nil, &Error{Format: strings.TrimPrefix(ext, "."), Cause: ErrUnsupportedFormat}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch ext {
	case ".wav", ".wave":
		return WAV(f)
	default:
		return Opus(f)
	}
}
