package process

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// FakeProcess is an in-memory stand-in for an attached game. Tests and
// sim mode poke values into it between ticks; the engine reads it through
// the same Handle interface as a live process.
type FakeProcess struct {
	mu    sync.Mutex
	mem   map[uintptr][]byte
	base  uintptr
	ptr   int
	alive bool
	name  string
}

func NewFake(base uintptr) *FakeProcess {
	return &FakeProcess{
		mem:   make(map[uintptr][]byte),
		base:  base,
		ptr:   8,
		alive: true,
		name:  "fake",
	}
}

// Poke writes raw bytes at an absolute address.
func (f *FakeProcess) Poke(addr uintptr, b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mem[addr] = append([]byte(nil), b...)
}

// PokeUint writes a little-endian integer of the given byte width.
func (f *FakeProcess) PokeUint(addr uintptr, v uint64, width int) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	f.Poke(addr, b[:width])
}

// PokePointer plants a pointer-sized value, for building chains.
func (f *FakeProcess) PokePointer(addr, target uintptr) {
	f.PokeUint(addr, uint64(target), f.ptr)
}

// PokeText writes a NUL-terminated UTF-8 string.
func (f *FakeProcess) PokeText(addr uintptr, s string) {
	f.Poke(addr, append([]byte(s), 0))
}

// Clear removes whatever was poked at addr, making reads there fail.
func (f *FakeProcess) Clear(addr uintptr) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.mem, addr)
}

// SetAlive flips the connection flag the engine polls.
func (f *FakeProcess) SetAlive(alive bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alive = alive
}

func (f *FakeProcess) SetPointerSize(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ptr = n
}

func (f *FakeProcess) ReadAt(addr uintptr, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.alive {
		return ErrProcessGone
	}

	// Serve the read from any poked region that covers it.
	for start, region := range f.mem {
		if addr < start || addr >= start+uintptr(len(region)) {
			continue
		}
		off := int(addr - start)
		n := copy(buf, region[off:])
		if n < len(buf) {
			return fmt.Errorf("%w: %d of %d bytes at %#x", ErrShortRead, n, len(buf), addr)
		}
		return nil
	}
	return fmt.Errorf("unmapped read of %d bytes at %#x", len(buf), addr)
}

func (f *FakeProcess) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive
}

func (f *FakeProcess) Base() uintptr    { return f.base }
func (f *FakeProcess) PointerSize() int { return f.ptr }
func (f *FakeProcess) PID() int         { return 0 }
func (f *FakeProcess) Name() string     { return f.name }
func (f *FakeProcess) Close() error     { return nil }
