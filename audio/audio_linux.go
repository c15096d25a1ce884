//go:build linux

package audio

import (
	"fmt"

	"github.com/jfreymuth/pulse"
)

type pulseSink struct {
	client *pulse.Client
	stream *pulse.PlaybackStream
}

func newSink() (sink, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	return &pulseSink{client: c}, nil
}

func (p *pulseSink) start(pull func(out []int16)) error {
	reader := pulse.Int16Reader(func(out []int16) (int, error) {
		pull(out)
		return len(out), nil
	})
	stream, err := p.client.NewPlayback(reader,
		pulse.PlaybackStereo,
		pulse.PlaybackSampleRate(MixRate),
		pulse.PlaybackLatency(0.05),
	)
	if err != nil {
		return fmt.Errorf("pulse playback: %w", err)
	}
	p.stream = stream
	stream.Start()
	return nil
}

func (p *pulseSink) stop() {
	if p.stream != nil {
		p.stream.Stop()
		p.stream.Close()
	}
	p.client.Close()
}

// Outputs lists playback devices for diagnostics.
func Outputs() ([]DeviceInfo, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	defer c.Close()
	sinks, err := c.ListSinks()
	if err != nil {
		return nil, fmt.Errorf("pulse list sinks: %w", err)
	}
	var devices []DeviceInfo
	for _, s := range sinks {
		devices = append(devices, DeviceInfo{
			ID:   s.ID(),
			Name: s.Name(),
		})
	}
	return devices, nil
}
