//go:build !windows

// Package shutdown delivers the signals that should end a session
// cleanly, so queued cues stop and logs get flushed.
package shutdown

import (
	"os"
	"os/signal"
	"syscall"
)

func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
}
