package samples

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

func writeWAV(t *testing.T, path string, rate, channels int, pcm []int16) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	data := make([]int, len(pcm))
	for i, v := range pcm {
		data[i] = int(v)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

func writeFLAC(t *testing.T, path string, rate int, pcm []int16) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	info := &meta.StreamInfo{
		BlockSizeMin:  16,
		BlockSizeMax:  65535,
		SampleRate:    uint32(rate),
		NChannels:     1,
		BitsPerSample: 16,
	}
	enc, err := flac.NewEncoder(f, info)
	if err != nil {
		t.Fatal(err)
	}
	samples := make([]int32, len(pcm))
	for i, v := range pcm {
		samples[i] = int32(v)
	}
	fr := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(pcm)),
			SampleRate:    uint32(rate),
			Channels:      frame.ChannelsMono,
			BitsPerSample: 16,
		},
		Subframes: []*frame.Subframe{{
			SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
			Samples:   samples,
			NSamples:  len(pcm),
		}},
	}
	if err := enc.WriteFrame(fr); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadWAV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cue.wav")
	pcm := []int16{0, 1000, -1000, 32767, -32768, 0, 512, -512}
	writeWAV(t, path, 44100, 2, pcm)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Rate != 44100 || s.Channels != 2 {
		t.Errorf("format: got %d Hz %d ch", s.Rate, s.Channels)
	}
	if s.Frames() != 4 {
		t.Errorf("frames: got %d, want 4", s.Frames())
	}
	for i, v := range pcm {
		if s.PCM[i] != v {
			t.Fatalf("sample %d: got %d, want %d", i, s.PCM[i], v)
		}
	}
}

func TestLoadFLAC(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cue.flac")
	pcm := []int16{100, -100, 2000, -2000, 30000, -30000, 0, 7}
	writeFLAC(t, path, 48000, pcm)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Rate != 48000 || s.Channels != 1 {
		t.Errorf("format: got %d Hz %d ch", s.Rate, s.Channels)
	}
	for i, v := range pcm {
		if s.PCM[i] != v {
			t.Fatalf("sample %d: got %d, want %d", i, s.PCM[i], v)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.wav")); err == nil {
		t.Error("expected an error for a missing file")
	}
	odd := filepath.Join(dir, "cue.ogg")
	if err := os.WriteFile(odd, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(odd); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("got %v, want unsupported format", err)
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wav")
	writeWAV(t, a, 22050, 1, []int16{1, 2, 3, 4})

	b, err := LoadAll([]string{a, a, ""})
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if b.Len() != 1 {
		t.Errorf("bank size: got %d, want 1", b.Len())
	}
	if b.Get(a) == nil {
		t.Error("loaded sample not found")
	}
	if b.Get(filepath.Join(dir, "other.wav")) != nil {
		t.Error("unknown path should return nil")
	}

	if _, err := LoadAll([]string{a, filepath.Join(dir, "gone.wav")}); err == nil {
		t.Error("expected an error when one file is missing")
	}
}
