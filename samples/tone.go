package samples

import (
	"math"
	"time"
)

// Tone synthesizes a mono sine wave. The simulator and diagnostics use
// it where no sample files exist.
func Tone(freq float64, d time.Duration, rate int) *Sample {
	frames := int(float64(rate) * d.Seconds())
	if frames < 1 {
		frames = 1
	}
	pcm := make([]int16, frames)
	for i := range pcm {
		pcm[i] = int16(28000 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return &Sample{Rate: rate, Channels: 1, PCM: pcm}
}
