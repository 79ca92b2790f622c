package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/cwbudde/algo-deck/deck"
	"github.com/cwbudde/algo-deck/decode"
	"github.com/cwbudde/algo-deck/dsp/resample"
	"github.com/cwbudde/algo-deck/record"
	"github.com/cwbudde/algo-deck/track"
)

// Opus frames are 20 ms, so rendering in 960-sample blocks at 48 kHz
// maps each block to exactly one packet.
const (
	mixRate  = 48000
	mixBlock = 960
)

func runRecord(args []string) error {
	fs := flag.NewFlagSet("record", flag.ExitOnError)
	out := fs.String("o", "mix.ogg", "output Ogg file")
	duration := fs.Float64("duration", 0, "length to record in seconds, 0 for the longer track")
	cross := fs.Float64("crossfade", 0, "static crossfader position, -1 (deck A) to 1 (deck B)")
	sweep := fs.Bool("sweep", false, "sweep the crossfader from deck A to deck B, overriding -crossfade")
	bitrate := fs.Int("bitrate", record.DefaultBitrate, "Opus bitrate in bits per second")
	tempoA := fs.Float64("tempo-a", 0, "deck A tempo offset in percent")
	tempoB := fs.Float64("tempo-b", 0, "deck B tempo offset in percent")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: djdeck record [flags] fileA fileB\n\nFlags:\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	if fs.NArg() != 2 {
		fs.Usage()
		return errors.New("exactly two input files required")
	}

	trackA, err := loadAtMixRate(fs.Arg(0))
	if err != nil {
		return err
	}
	trackB, err := loadAtMixRate(fs.Arg(1))
	if err != nil {
		return err
	}

	a, err := deck.New(mixRate)
	if err != nil {
		return err
	}
	b, err := deck.New(mixRate)
	if err != nil {
		return err
	}
	m, err := deck.NewMixer(a, b)
	if err != nil {
		return err
	}
	if err := errors.Join(
		a.LoadTrack(trackA), a.Play(),
		b.LoadTrack(trackB), b.Play(),
		m.SetCrossfade(float32(*cross)),
	); err != nil {
		return err
	}
	if *tempoA != 0 {
		if err := a.SetTempoPercent(*tempoA); err != nil {
			return err
		}
	}
	if *tempoB != 0 {
		if err := b.SetTempoPercent(*tempoB); err != nil {
			return err
		}
	}

	dur := *duration
	if dur <= 0 {
		dur = max(trackA.Duration()/(1+*tempoA/100), trackB.Duration()/(1+*tempoB/100))
	}
	totalBlocks := int(math.Ceil(dur * mixRate / mixBlock))
	if totalBlocks == 0 {
		return errors.New("nothing to record")
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()
	rec, err := record.New(f, mixRate, record.WithBitrate(*bitrate))
	if err != nil {
		return err
	}

	progress := mpb.New(mpb.WithOutput(os.Stderr), mpb.WithWidth(64))
	bar := progress.AddBar(int64(totalBlocks),
		mpb.PrependDecorators(decor.Name("recording ")),
		mpb.AppendDecorators(decor.Percentage()),
	)

	left := make([]float32, mixBlock)
	right := make([]float32, mixBlock)
	for blk := range totalBlocks {
		if *sweep && totalBlocks > 1 {
			pos := -1 + 2*float64(blk)/float64(totalBlocks-1)
			if err := m.SetCrossfade(float32(pos)); err != nil {
				return err
			}
		}
		m.Render(left, right)
		if err := rec.WriteBlock(left, right); err != nil {
			return err
		}
		bar.Increment()
	}
	progress.Wait()

	if err := rec.Close(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("wrote %s: %.1fs, %d packets", *out, rec.Duration(), rec.PacketsWritten())
	return nil
}

// loadAtMixRate decodes a file and converts it to the recorder's fixed
// 48 kHz rate when needed.
func loadAtMixRate(path string) (*track.Track, error) {
	t, err := decode.File(path)
	if err != nil {
		return nil, err
	}
	return resample.ConvertTrack(t, mixRate)
}
