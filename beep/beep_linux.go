//go:build linux

package beep

import (
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

var (
	attachSamples []int16
	detachSamples []int16
	errorSamples  []int16
	soundOnce     sync.Once
)

func initSound() {
	attachSamples = tickSamples(attachFreq, 0.2, attachVolume, attachDecay)
	detachSamples = tickSamples(detachFreq, 0.2, detachVolume, detachDecay)
	errorSamples = doubleBeepSamples(errorFreq, 0.08, 0.05, errorVolume, errorDecay)
}

func play(samples []int16) {
	if len(samples) == 0 {
		return
	}
	c, err := pulse.NewClient()
	if err != nil {
		return
	}
	defer c.Close()

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})
	stream, err := c.NewPlayback(reader,
		pulse.PlaybackStereo,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm), uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		return
	}
	stream.Start()
	stream.Drain()
	stream.Stop()
	stream.Close()
}

func Init() {
	soundOnce.Do(initSound)
}

func PlayAttach() {
	if disabled {
		return
	}
	soundOnce.Do(initSound)
	go play(attachSamples)
}

func PlayDetach() {
	if disabled {
		return
	}
	soundOnce.Do(initSound)
	go play(detachSamples)
}

func PlayError() {
	if disabled {
		return
	}
	soundOnce.Do(initSound)
	go play(errorSamples)
}
