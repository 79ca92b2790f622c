package main

import (
	"context"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/oto/v2"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/cwbudde/algo-deck/deck"
	"github.com/cwbudde/algo-deck/decode"
	"github.com/cwbudde/algo-deck/dsp/buffer"
)

func runPlay(args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	tempo := fs.Float64("tempo", 0, "tempo offset in percent, -50 to 50")
	gain := fs.Float64("gain", 1, "deck gain, 0 to 2")
	pan := fs.Float64("pan", 0, "stereo position, -1 to 1")
	from := fs.Float64("from", 0, "start position in seconds")
	pitch := fs.Int("pitch", 0, "pitch shift in semitones, -12 to 12")
	low := fs.Float64("low", 0, "low band EQ in dB, -12 to 12")
	mid := fs.Float64("mid", 0, "mid band EQ in dB, -12 to 12")
	high := fs.Float64("high", 0, "high band EQ in dB, -12 to 12")
	stats := fs.Bool("stats", false, "print the processing stats as JSON on exit")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: djdeck play [flags] file\n\nFlags:\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("exactly one input file required")
	}
	file := fs.Arg(0)

	t, err := decode.File(file)
	if err != nil {
		return err
	}
	d, err := deck.New(t.SampleRate())
	if err != nil {
		return err
	}
	if err := errors.Join(
		d.LoadTrack(t),
		d.SetGain(*gain),
		d.SetPan(*pan),
		d.SetEQ(float32(*low), float32(*mid), float32(*high)),
		d.SetPitch(*pitch),
	); err != nil {
		return err
	}
	if *tempo != 0 {
		if err := d.SetTempoPercent(*tempo); err != nil {
			return err
		}
	}
	if *from > 0 {
		err = d.PlayAt(*from)
	} else {
		err = d.Play()
	}
	if err != nil {
		return err
	}

	progress := mpb.New(mpb.WithOutput(os.Stderr), mpb.WithWidth(64))
	total := int64(t.Duration() * 10)
	bar := progress.AddBar(total,
		mpb.PrependDecorators(decor.Name("playing ")),
		mpb.AppendDecorators(decor.Percentage()),
	)

	ended := make(chan struct{})
	d.OnEnded(func() { close(ended) })
	d.OnPosition(func(seconds float64) { bar.SetCurrent(int64(seconds * 10)) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	otoCtx, ready, err := oto.NewContext(int(t.SampleRate()), 2, 2)
	if err != nil {
		return err
	}
	<-ready
	player := otoCtx.NewPlayer(newDeckReader(d))
	player.Play()
	<-ended
	bar.SetCurrent(total)
	progress.Wait()

	// Let the device drain its buffered tail before tearing down.
	time.Sleep(200 * time.Millisecond)
	if err := player.Close(); err != nil {
		return err
	}

	if *stats {
		out, err := d.StatsJSON()
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}
	log.Printf("played %s (%.1fs)", file, t.Duration())
	return nil
}

// deckReader adapts the deck's block renderer to the byte pull the
// audio device makes: interleaved stereo int16 little-endian.
type deckReader struct {
	d     *deck.Deck
	left  []float32
	right []float32
}

func newDeckReader(d *deck.Deck) *deckReader {
	return &deckReader{
		d:     d,
		left:  make([]float32, buffer.MaxBlock),
		right: make([]float32, buffer.MaxBlock),
	}
}

func (r *deckReader) Read(p []byte) (int, error) {
	const frameBytes = 4
	frames := min(len(p)/frameBytes, buffer.MaxBlock)
	if frames == 0 {
		return 0, nil
	}
	left := r.left[:frames]
	right := r.right[:frames]
	r.d.Render(left, right)
	for i := range frames {
		putSample16(p[i*frameBytes:], left[i])
		putSample16(p[i*frameBytes+2:], right[i])
	}
	return frames * frameBytes, nil
}

func putSample16(p []byte, v float32) {
	v = min(max(v, -1), 1)
	binary.LittleEndian.PutUint16(p, uint16(int16(v*32767)))
}
