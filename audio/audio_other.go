//go:build !linux

package audio

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/gen2brain/malgo"
)

type malgoSink struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	buf    []int16
}

func newSink() (sink, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}
	return &malgoSink{ctx: ctx}, nil
}

func (m *malgoSink) start(pull func(out []int16)) error {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = MixChannels
	deviceConfig.SampleRate = MixRate

	callbacks := malgo.DeviceCallbacks{
		// The device calls sequentially, so buf needs no lock.
		Data: func(out, _ []byte, frameCount uint32) {
			n := int(frameCount) * MixChannels
			if cap(m.buf) < n {
				m.buf = make([]int16, n)
			}
			buf := m.buf[:n]
			pull(buf)
			for i, s := range buf {
				binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
			}
		},
	}

	dev, err := malgo.InitDevice(m.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return err
	}
	m.device = dev
	return dev.Start()
}

func (m *malgoSink) stop() {
	if m.device != nil {
		m.device.Stop()
		m.device.Uninit()
	}
	m.ctx.Uninit()
	m.ctx.Free()
}

// Outputs lists playback devices for diagnostics.
func Outputs() ([]DeviceInfo, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		ctx.Uninit()
		ctx.Free()
	}()
	devices, err := ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	var result []DeviceInfo
	for _, d := range devices {
		result = append(result, DeviceInfo{
			ID:   hex.EncodeToString(d.ID.Pointer()[:]),
			Name: d.Name(),
		})
	}
	return result, nil
}
