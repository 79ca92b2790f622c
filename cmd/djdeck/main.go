// Command djdeck analyzes, plays and mixes DJ tracks from the command
// line.
//
// Usage:
//
//	djdeck analyze [flags] file...
//	djdeck play [flags] file
//	djdeck record [flags] fileA fileB
//
// analyze prints BPM, key and beat grid info for each file. play
// renders one file through a deck to the default audio device. record
// mixes two decks offline into an Opus-in-Ogg file, optionally
// sweeping the crossfader from deck A to deck B.
//
// Examples:
//
//	djdeck analyze track.wav other.opus
//	djdeck analyze -json *.wav
//	djdeck play -tempo 4 -low -6 track.wav
//	djdeck record -sweep -o mix.ogg a.wav b.wav
package main

import (
	"fmt"
	"log"
	"os"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("djdeck: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "analyze":
		err = runAnalyze(os.Args[2:])
	case "play":
		err = runPlay(os.Args[2:])
	case "record":
		err = runRecord(os.Args[2:])
	case "help", "-h", "-help", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: djdeck <command> [flags] [args]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  analyze  print BPM, key and beat grid info for audio files\n")
	fmt.Fprintf(os.Stderr, "  play     play a file through a deck on the default audio device\n")
	fmt.Fprintf(os.Stderr, "  record   mix two decks offline into an Opus-in-Ogg file\n\n")
	fmt.Fprintf(os.Stderr, "Run \"djdeck <command> -h\" for command flags.\n\n")
	fmt.Fprintf(os.Stderr, "Examples:\n")
	fmt.Fprintf(os.Stderr, "  djdeck analyze track.wav other.opus\n")
	fmt.Fprintf(os.Stderr, "  djdeck play -tempo 4 -low -6 track.wav\n")
	fmt.Fprintf(os.Stderr, "  djdeck record -sweep -o mix.ogg a.wav b.wav\n")
}
