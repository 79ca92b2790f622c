// Package record captures rendered stereo audio into an Opus-in-Ogg
// stream. The recorder buffers incoming blocks into 20 ms codec
// frames, encodes them, and hands the packets to an Ogg page writer
// through RTP framing. It lives on the control side of the deck; the
// render path never blocks on it.
package record

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
	"gopkg.in/hraban/opus.v2"
)

// DefaultBitrate is the Opus target bitrate used when no option
// overrides it.
const DefaultBitrate = 128000

// Opus frames span 20 ms regardless of sample rate.
const frameSeconds = 0.02

// Upper bound on one encoded packet, comfortably above what 20 ms can
// produce at any bitrate the encoder accepts.
const maxPacketBytes = 4000

const (
	opusPayloadType = 111
	rtpSSRC         = 0xD1DEC4
)

const channels = 2

// ErrClosed is returned when writing to a recorder after Close.
var ErrClosed = errors.New("recorder is closed")

type settings struct {
	bitrate int
}

// Option configures a Recorder at construction.
type Option func(*settings)

// WithBitrate sets the Opus target bitrate in bits per second.
func WithBitrate(bps int) Option {
	return func(s *settings) { s.bitrate = bps }
}

// Recorder encodes stereo float32 blocks to Opus and writes Ogg pages.
// Not safe for concurrent use.
type Recorder struct {
	enc *opus.Encoder
	ogg *oggwriter.OggWriter

	sampleRate uint32
	frameLen   int

	pcm    []int16
	fill   int
	packet []byte

	seq       uint16
	timestamp uint32

	packets uint64
	samples uint64
	closed  bool
}

// New creates a recorder writing Ogg pages to w. The sample rate must
// be one the Opus codec accepts: 8000, 12000, 16000, 24000 or 48000.
func New(w io.Writer, sampleRate uint32, opts ...Option) (*Recorder, error) {
	switch sampleRate {
	case 8000, 12000, 16000, 24000, 48000:
	default:
		return nil, fmt.Errorf("sample rate %d not supported by opus, want 8000, 12000, 16000, 24000 or 48000", sampleRate)
	}

	cfg := settings{bitrate: DefaultBitrate}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.bitrate <= 0 {
		return nil, fmt.Errorf("bitrate must be > 0: %d", cfg.bitrate)
	}

	enc, err := opus.NewEncoder(int(sampleRate), channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("create opus encoder: %w", err)
	}
	if err := enc.SetBitrate(cfg.bitrate); err != nil {
		return nil, fmt.Errorf("set opus bitrate: %w", err)
	}

	ogg, err := oggwriter.NewWith(w, sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("create ogg writer: %w", err)
	}

	frameLen := int(frameSeconds * float64(sampleRate))
	return &Recorder{
		enc:        enc,
		ogg:        ogg,
		sampleRate: sampleRate,
		frameLen:   frameLen,
		pcm:        make([]int16, frameLen*channels),
		packet:     make([]byte, maxPacketBytes),
	}, nil
}

// SampleRate returns the rate the recorder encodes at.
func (r *Recorder) SampleRate() uint32 {
	return r.sampleRate
}

// FrameLength returns the samples per channel in one codec frame.
func (r *Recorder) FrameLength() int {
	return r.frameLen
}

// WriteBlock consumes one rendered stereo block, encoding every codec
// frame it completes. Channel lengths may differ; the shorter one
// bounds the block.
func (r *Recorder) WriteBlock(left, right []float32) error {
	if r.closed {
		return ErrClosed
	}

	n := min(len(left), len(right))
	for i := range n {
		r.pcm[r.fill*channels] = pcm16(left[i])
		r.pcm[r.fill*channels+1] = pcm16(right[i])
		r.fill++
		if r.fill == r.frameLen {
			if err := r.flushFrame(); err != nil {
				return err
			}
		}
	}

	r.samples += uint64(n)
	return nil
}

// Close zero-pads and encodes any partial frame, then finalizes the
// Ogg stream. Closing twice is a no-op.
func (r *Recorder) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	if r.fill > 0 {
		for i := r.fill * channels; i < len(r.pcm); i++ {
			r.pcm[i] = 0
		}
		if err := r.flushFrame(); err != nil {
			r.ogg.Close()
			return err
		}
	}
	return r.ogg.Close()
}

// PacketsWritten returns the number of encoded Opus packets so far.
func (r *Recorder) PacketsWritten() uint64 {
	return r.packets
}

// Duration returns the seconds of audio consumed by WriteBlock,
// excluding Close padding.
func (r *Recorder) Duration() float64 {
	return float64(r.samples) / float64(r.sampleRate)
}

func (r *Recorder) flushFrame() error {
	n, err := r.enc.Encode(r.pcm, r.packet)
	if err != nil {
		return fmt.Errorf("encode opus frame: %w", err)
	}

	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    opusPayloadType,
			SequenceNumber: r.seq,
			Timestamp:      r.timestamp,
			SSRC:           rtpSSRC,
		},
		Payload: r.packet[:n],
	}
	if err := r.ogg.WriteRTP(pkt); err != nil {
		return fmt.Errorf("write ogg page: %w", err)
	}

	r.seq++
	r.timestamp += uint32(r.frameLen)
	r.packets++
	r.fill = 0
	return nil
}

// pcm16 converts a float sample to 16-bit PCM with hard clipping.
func pcm16(v float32) int16 {
	switch {
	case v >= 1:
		return math.MaxInt16
	case v <= -1:
		return math.MinInt16
	default:
		return int16(v * 32767)
	}
}
