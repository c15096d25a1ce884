// Package samples loads cue sound files into memory. Samples are
// decoded once at session start so the poll loop never touches disk.
package samples

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
)

// Sample is a decoded sound, 16-bit interleaved PCM.
type Sample struct {
	Path     string
	Rate     int
	Channels int
	PCM      []int16
}

// Frames returns the number of sample frames.
func (s *Sample) Frames() int {
	if s.Channels == 0 {
		return 0
	}
	return len(s.PCM) / s.Channels
}

// Load decodes a sound file by extension. Supported: .wav, .flac, .mp3.
func Load(path string) (*Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s *Sample
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		s, err = decodeWAV(f)
	case ".flac":
		s, err = decodeFLAC(f)
	case ".mp3":
		s, err = decodeMP3(f)
	default:
		return nil, fmt.Errorf("%s: unsupported sample format", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(s.PCM) == 0 {
		return nil, fmt.Errorf("%s: empty sample", path)
	}
	s.Path = path
	return s, nil
}

func decodeWAV(f *os.File) (*Sample, error) {
	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	if buf.Format == nil || buf.Format.NumChannels == 0 {
		return nil, fmt.Errorf("missing format chunk")
	}
	pcm := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		pcm[i] = to16(v, int(d.BitDepth))
	}
	return &Sample{
		Rate:     buf.Format.SampleRate,
		Channels: buf.Format.NumChannels,
		PCM:      pcm,
	}, nil
}

func decodeFLAC(f *os.File) (*Sample, error) {
	stream, err := flac.New(f)
	if err != nil {
		return nil, err
	}
	info := stream.Info
	channels := int(info.NChannels)
	bits := int(info.BitsPerSample)
	var pcm []int16
	for {
		fr, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		n := len(fr.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			for ch := 0; ch < channels; ch++ {
				pcm = append(pcm, to16(int(fr.Subframes[ch].Samples[i]), bits))
			}
		}
	}
	return &Sample{
		Rate:     int(info.SampleRate),
		Channels: channels,
		PCM:      pcm,
	}, nil
}

func decodeMP3(f *os.File) (*Sample, error) {
	d, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}
	// go-mp3 always emits 16-bit stereo.
	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, err
	}
	pcm := make([]int16, len(raw)/2)
	for i := range pcm {
		pcm[i] = int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
	}
	return &Sample{
		Rate:     d.SampleRate(),
		Channels: 2,
		PCM:      pcm,
	}, nil
}

// to16 rescales a decoded sample to 16 bits. 8-bit WAV is unsigned, the
// rest are signed at their stated depth.
func to16(v, bits int) int16 {
	switch {
	case bits == 8:
		return int16((v - 128) << 8)
	case bits < 16:
		return int16(v << (16 - bits))
	case bits > 16:
		return int16(v >> (bits - 16))
	}
	return int16(v)
}
