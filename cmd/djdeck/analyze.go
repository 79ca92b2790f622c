package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/cwbudde/algo-deck/analyze"
	"github.com/cwbudde/algo-deck/decode"
)

type analysis struct {
	File     string    `json:"file"`
	Duration float64   `json:"duration_seconds"`
	Rate     uint32    `json:"sample_rate"`
	BPM      float64   `json:"bpm"`
	Key      string    `json:"key"`
	Beats    int       `json:"beats"`
	BeatGrid []float64 `json:"-"`
}

func runAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "emit one JSON object per file instead of a table")
	beats := fs.Int("beats", 0, "also print the first N beat timestamps per file")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: djdeck analyze [flags] file...\n\nFlags:\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	files := fs.Args()
	if len(files) == 0 {
		fs.Usage()
		return errors.New("no input files")
	}

	progress := mpb.New(mpb.WithOutput(os.Stderr), mpb.WithWidth(64))
	bar := progress.AddBar(int64(len(files)),
		mpb.PrependDecorators(
			decor.Name("analyzing "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)

	var rows []analysis
	for _, file := range files {
		row, err := analyzeFile(file)
		bar.Increment()
		if err != nil {
			log.Printf("warning: %s: %v", file, err)
			continue
		}
		rows = append(rows, row)
	}
	progress.Wait()

	if len(rows) == 0 {
		return errors.New("no files analyzed")
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		for _, row := range rows {
			if err := enc.Encode(row); err != nil {
				return err
			}
		}
		return nil
	}

	printAnalysisTable(rows)
	if *beats > 0 {
		printBeats(rows, *beats)
	}
	return nil
}

func analyzeFile(path string) (analysis, error) {
	t, err := decode.File(path)
	if err != nil {
		return analysis{}, err
	}
	res, err := analyze.Track(t)
	if err != nil {
		return analysis{}, err
	}
	return analysis{
		File:     path,
		Duration: t.Duration(),
		Rate:     t.SampleRate(),
		BPM:      res.BPM,
		Key:      res.Key.String(),
		Beats:    len(res.BeatGrid),
		BeatGrid: res.BeatGrid,
	}, nil
}

func printAnalysisTable(rows []analysis) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "File\tDuration\tRate\tBPM\tKey\tBeats\n")
	fmt.Fprintf(tw, "----\t--------\t----\t---\t---\t-----\n")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%.1fs\t%d\t%.1f\t%s\t%d\n",
			r.File, r.Duration, r.Rate, r.BPM, r.Key, r.Beats)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}

func printBeats(rows []analysis, n int) {
	for _, r := range rows {
		grid := r.BeatGrid[:min(n, len(r.BeatGrid))]
		fmt.Printf("%s:", r.File)
		for _, ts := range grid {
			fmt.Printf(" %.3f", ts)
		}
		fmt.Println()
	}
}
