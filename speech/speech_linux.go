//go:build linux

package speech

import (
	"fmt"
	"os/exec"
)

// spdSynth shells out to spd-say, which hands text to the
// speech-dispatcher daemon and returns immediately.
type spdSynth struct {
	path string
}

func New() (Synthesizer, error) {
	path, err := exec.LookPath("spd-say")
	if err != nil {
		return nil, fmt.Errorf("spd-say not found, install speech-dispatcher: %w", err)
	}
	return &spdSynth{path: path}, nil
}

func (s *spdSynth) Name() string { return "speech-dispatcher" }

func (s *spdSynth) Available() bool { return true }

func (s *spdSynth) Speak(text string, interrupt bool) error {
	if interrupt {
		if err := exec.Command(s.path, "-C").Run(); err != nil {
			return fmt.Errorf("spd-say cancel: %w", err)
		}
	}
	if err := exec.Command(s.path, "--", text).Run(); err != nil {
		return fmt.Errorf("spd-say: %w", err)
	}
	return nil
}

func (s *spdSynth) Close() error { return nil }
