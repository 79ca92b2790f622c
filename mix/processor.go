package mix

import (
	"encoding/json"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-deck/dsp/buffer"
)

// Version identifies the stats snapshot schema.
const Version = "1.0.0"

// Gain bounds for input gain and master volume. 2.0 is roughly +6 dB of
// boost.
const (
	MinGain = 0.0
	MaxGain = 2.0
)

// Sample rates the processor accepts, spanning telephony to studio
// capture devices.
const (
	MinSampleRate = 8000
	MaxSampleRate = 192000
)

// Processor chains the per-deck insert stages over stereo blocks in a
// fixed order: input gain, fader, pitch shift, per-channel equalizer,
// master volume.
//
// Process and the parameter setters must run on the same goroutine;
// the deck layer routes control-side parameter changes onto the render
// goroutine. Stats and its counters may be read from any goroutine.
type Processor struct {
	sampleRate uint32

	fader *Fader
	pitch *PitchShifter
	eqL   *Equalizer
	eqR   *Equalizer

	inputGain    float32
	masterVolume float32

	frames   atomic.Uint64
	peakBits atomic.Uint32
}

// NewProcessor creates a processor with every stage at its neutral
// setting. Sample rates outside [MinSampleRate, MaxSampleRate] are
// rejected.
func NewProcessor(sampleRate uint32) (*Processor, error) {
	if sampleRate < MinSampleRate || sampleRate > MaxSampleRate {
		return nil, fmt.Errorf("sample rate %d outside supported range [%d, %d]", sampleRate, MinSampleRate, MaxSampleRate)
	}

	return &Processor{
		sampleRate:   sampleRate,
		fader:        NewFader(),
		pitch:        NewPitchShifter(buffer.MaxBlock),
		eqL:          NewEqualizer(),
		eqR:          NewEqualizer(),
		inputGain:    1,
		masterVolume: 1,
	}, nil
}

// SampleRate returns the configured sample rate.
func (p *Processor) SampleRate() uint32 {
	return p.sampleRate
}

// Process runs one stereo block through the chain in place. The block
// length is the shorter of the two channels; empty blocks and blocks
// longer than buffer.MaxBlock pass unprocessed.
func (p *Processor) Process(left, right []float32) {
	n := min(len(left), len(right))
	if n == 0 || n > buffer.MaxBlock {
		return
	}
	left, right = left[:n], right[:n]

	gain := p.inputGain
	for i := range n {
		left[i] *= gain
		right[i] *= gain
	}

	p.fader.Process(left, right)
	p.pitch.ProcessStereo(left, right)
	p.eqL.Process(left)
	p.eqR.Process(right)

	master := p.masterVolume
	var peak float32
	for i := range n {
		l := left[i] * master
		r := right[i] * master
		left[i] = l
		right[i] = r
		peak = max(peak, abs32(l), abs32(r))
	}

	p.peakBits.Store(math.Float32bits(peak))
	p.frames.Add(1)
}

// SetInputGain sets the pre-chain gain, clamped to [MinGain, MaxGain].
func (p *Processor) SetInputGain(gain float32) {
	p.inputGain = clamp32(gain, MinGain, MaxGain)
}

// InputGain returns the pre-chain gain.
func (p *Processor) InputGain() float32 {
	return p.inputGain
}

// SetMasterVolume sets the post-chain gain, clamped to [MinGain,
// MaxGain].
func (p *Processor) SetMasterVolume(volume float32) {
	p.masterVolume = clamp32(volume, MinGain, MaxGain)
}

// MasterVolume returns the post-chain gain.
func (p *Processor) MasterVolume() float32 {
	return p.masterVolume
}

// SetFaderPosition moves the stereo fader, -1 full left through +1
// full right.
func (p *Processor) SetFaderPosition(position float32) {
	p.fader.SetPosition(position)
}

// FaderPosition returns the fader position.
func (p *Processor) FaderPosition() float32 {
	return p.fader.Position()
}

// SetPitchRatio sets the pitch shift as a frequency ratio.
func (p *Processor) SetPitchRatio(ratio float32) {
	p.pitch.SetRatio(ratio)
}

// PitchRatio returns the pitch shift ratio.
func (p *Processor) PitchRatio() float32 {
	return p.pitch.Ratio()
}

// SetPitchSemitones sets the pitch shift in whole semitones, clamped
// to one octave either way.
func (p *Processor) SetPitchSemitones(semitones int) {
	p.pitch.SetSemitones(semitones)
}

// SetLowGain sets the low equalizer band on both channels, in
// decibels.
func (p *Processor) SetLowGain(db float32) {
	p.eqL.SetLowGain(db)
	p.eqR.SetLowGain(db)
}

// LowGain returns the low equalizer band gain in decibels.
func (p *Processor) LowGain() float32 {
	return p.eqL.LowGain()
}

// SetMidGain sets the mid equalizer band on both channels, in
// decibels.
func (p *Processor) SetMidGain(db float32) {
	p.eqL.SetMidGain(db)
	p.eqR.SetMidGain(db)
}

// MidGain returns the mid equalizer band gain in decibels.
func (p *Processor) MidGain() float32 {
	return p.eqL.MidGain()
}

// SetHighGain sets the high equalizer band on both channels, in
// decibels.
func (p *Processor) SetHighGain(db float32) {
	p.eqL.SetHighGain(db)
	p.eqR.SetHighGain(db)
}

// HighGain returns the high equalizer band gain in decibels.
func (p *Processor) HighGain() float32 {
	return p.eqL.HighGain()
}

// Reset returns every stage to neutral: unit gains, centered fader,
// unity pitch, flat equalizers. Counters keep their values.
func (p *Processor) Reset() {
	p.inputGain = 1
	p.masterVolume = 1
	p.fader.Reset()
	p.pitch.SetRatio(1)
	p.eqL.Reset()
	p.eqR.Reset()
}

// FramesProcessed returns the number of blocks processed so far.
func (p *Processor) FramesProcessed() uint64 {
	return p.frames.Load()
}

// PeakLevel returns the peak absolute sample of the last processed
// block.
func (p *Processor) PeakLevel() float32 {
	return math.Float32frombits(p.peakBits.Load())
}

// Stats is a snapshot of processing state for display and diagnostics.
type Stats struct {
	Version         string  `json:"version"`
	FramesProcessed uint64  `json:"frames_processed"`
	PeakLevel       float64 `json:"peak_level"`
	PeakDB          float64 `json:"peak_db"`
	SampleRate      uint32  `json:"sample_rate"`
	MaxBlock        int     `json:"max_block"`
}

// Stats returns the current snapshot. Peak level is rounded to three
// decimals and peak dB to one, with silence flooring at -100 dB.
func (p *Processor) Stats() Stats {
	peak := p.PeakLevel()
	return Stats{
		Version:         Version,
		FramesProcessed: p.frames.Load(),
		PeakLevel:       math.Round(float64(peak)*1000) / 1000,
		PeakDB:          math.Round(float64(buffer.LinearToDB(peak))*10) / 10,
		SampleRate:      p.sampleRate,
		MaxBlock:        buffer.MaxBlock,
	}
}

// StatsJSON returns the snapshot encoded as JSON.
func (p *Processor) StatsJSON() ([]byte, error) {
	return json.Marshal(p.Stats())
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
