// Package process attaches to a running game and reads its memory.
// Everything here is strictly read-only: earshot never writes to the
// target and never injects input into it.
package process

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrNotResolved marks a pointer chain that could not be walked to a
	// live address this tick. The watch keeps its cached value.
	ErrNotResolved = errors.New("pointer chain not resolved")

	// ErrProcessGone is returned once the target process has exited.
	ErrProcessGone = errors.New("process has exited")

	// ErrShortRead is returned when the target returned fewer bytes than
	// asked for; partial values are never decoded.
	ErrShortRead = errors.New("short memory read")

	ErrUnsupported = errors.New("process attach not supported on this platform")
)

// Info describes a running process during selection.
type Info struct {
	PID  int
	Name string
	Exe  string
}

// Handle is a read-only view into an attached process. Implementations
// live in the platform files; FakeProcess backs tests and sim mode.
type Handle interface {
	// ReadAt fills buf from the target's address space. A failed or
	// partial read is an error; callers never see half a value.
	ReadAt(addr uintptr, buf []byte) error

	// Base is the load address of the target's main module.
	Base() uintptr

	// PointerSize is 4 or 8 depending on the target binary, not on us.
	PointerSize() int

	// Alive reports whether the target is still running. The engine polls
	// this once per tick and treats false as connection loss, not as a
	// session error.
	Alive() bool

	PID() int
	Name() string
	Close() error
}

// WaitFor polls the process list until a process matching name appears,
// then attaches to it. The match is case-insensitive against the process
// name and the executable's base name, with or without ".exe".
func WaitFor(ctx context.Context, name string, interval time.Duration) (Handle, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		procs, err := List()
		if err == nil {
			for _, p := range procs {
				if !matches(p, name) {
					continue
				}
				h, err := Open(p.PID)
				if err == nil {
					return h, nil
				}
				// Likely a permissions problem; keep trying in case the
				// matching process is replaced by one we can open.
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func matches(p Info, name string) bool {
	want := strings.ToLower(strings.TrimSuffix(name, ".exe"))
	for _, have := range []string{p.Name, filepath.Base(p.Exe)} {
		have = strings.ToLower(strings.TrimSuffix(have, ".exe"))
		if have == want {
			return true
		}
	}
	return false
}

func readPointer(h Handle, addr uintptr) (uintptr, error) {
	buf := make([]byte, 8)
	ps := h.PointerSize()
	if err := h.ReadAt(addr, buf[:ps]); err != nil {
		return 0, err
	}
	var p uint64
	for i := ps - 1; i >= 0; i-- {
		p = p<<8 | uint64(buf[i])
	}
	return uintptr(p), nil
}

// Resolve walks a pointer chain to a live address: start at base plus the
// first offset, then for each further offset read a pointer-sized value
// at the current address and add the offset. Any unreadable step yields
// ErrNotResolved; resolution failure is an expected per-tick condition,
// not a fault.
func Resolve(h Handle, chain Chain) (uintptr, error) {
	if len(chain) == 0 {
		return 0, fmt.Errorf("%w: empty chain", ErrNotResolved)
	}

	addr := h.Base() + uintptr(chain[0])
	for i, offset := range chain[1:] {
		p, err := readPointer(h, addr)
		if err != nil {
			// Keep the cause wrapped: a dead process must stay
			// recognizable as ErrProcessGone through a failed step.
			return 0, fmt.Errorf("%w: step %d at %#x: %w", ErrNotResolved, i+1, addr, err)
		}
		if p == 0 {
			return 0, fmt.Errorf("%w: nil pointer at step %d", ErrNotResolved, i+1)
		}
		addr = p + uintptr(offset)
	}
	return addr, nil
}

// Chain is an ordered pointer walk. Offsets are signed: games frequently
// index backwards from a struct pointer.
type Chain []int64

func (c Chain) String() string {
	parts := make([]string, len(c))
	for i, off := range c {
		parts[i] = fmt.Sprintf("%#x", off)
	}
	return strings.Join(parts, " -> ")
}
