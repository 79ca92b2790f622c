package resample_test

import (
	"fmt"

	"github.com/cwbudde/algo-deck/dsp/resample"
	"github.com/cwbudde/algo-deck/track"
)

func ExampleConvertTrack() {
	src, _ := track.Mono(make([]float32, 44100), 44100)

	out, _ := resample.ConvertTrack(src, 48000)
	fmt.Println(out.SampleRate(), out.Len())
	// Output: 48000 48000
}
