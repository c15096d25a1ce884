//go:build darwin

package speech

import (
	"fmt"
	"os/exec"
	"sync"
)

// saySynth shells out to the macOS say command. say blocks while
// speaking, so each utterance runs detached and interrupt kills the
// previous one.
type saySynth struct {
	path string

	mu  sync.Mutex
	cmd *exec.Cmd
}

func New() (Synthesizer, error) {
	path, err := exec.LookPath("say")
	if err != nil {
		return nil, fmt.Errorf("say not found: %w", err)
	}
	return &saySynth{path: path}, nil
}

func (s *saySynth) Name() string { return "say" }

func (s *saySynth) Available() bool { return true }

func (s *saySynth) Speak(text string, interrupt bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// The per-utterance goroutine reaps the killed process.
	if interrupt && s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd = nil
	}
	cmd := exec.Command(s.path, text)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("say: %w", err)
	}
	s.cmd = cmd
	go cmd.Wait()
	return nil
}

func (s *saySynth) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	return nil
}
