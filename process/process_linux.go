//go:build linux

package process

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// List scans /proc for running processes. Entries we cannot inspect
// (other users' processes without CAP_SYS_PTRACE) still appear; the
// failure surfaces at Open, where doctor can explain ptrace_scope.
func List() ([]Info, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("scanning /proc: %w", err)
	}

	var procs []Info
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		comm, err := os.ReadFile(filepath.Join("/proc", e.Name(), "comm"))
		if err != nil {
			continue
		}
		exe, _ := os.Readlink(filepath.Join("/proc", e.Name(), "exe"))
		procs = append(procs, Info{
			PID:  pid,
			Name: strings.TrimSpace(string(comm)),
			Exe:  exe,
		})
	}
	return procs, nil
}

type linuxHandle struct {
	pid  int
	name string
	base uintptr
	ptr  int
}

// Open attaches to pid. Reads go through process_vm_readv, which needs
// the same ptrace permissions as a debugger (see doctor for the
// ptrace_scope advice).
func Open(pid int) (Handle, error) {
	comm, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return nil, fmt.Errorf("open pid %d: %w", pid, err)
	}

	h := &linuxHandle{pid: pid, name: strings.TrimSpace(string(comm))}

	exe := fmt.Sprintf("/proc/%d/exe", pid)
	h.ptr = elfPointerSize(exe)

	h.base, err = mainModuleBase(pid)
	if err != nil {
		return nil, fmt.Errorf("open pid %d: %w", pid, err)
	}

	// Probe one byte so permission problems surface at attach time, not
	// on the first poll tick.
	probe := make([]byte, 1)
	if err := h.ReadAt(h.base, probe); err != nil {
		return nil, fmt.Errorf("open pid %d: memory not readable: %w", pid, err)
	}
	return h, nil
}

// mainModuleBase finds the load address of the executable's first mapping
// in /proc/pid/maps.
func mainModuleBase(pid int) (uintptr, error) {
	exePath, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", pid))
	if err != nil {
		return 0, fmt.Errorf("readlink exe: %w", err)
	}

	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return 0, fmt.Errorf("open maps: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var first uintptr
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		if first == 0 {
			if start, ok := parseMapStart(fields[0]); ok {
				first = start
			}
		}
		if fields[5] == exePath {
			if start, ok := parseMapStart(fields[0]); ok {
				return start, nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("reading maps: %w", err)
	}
	if first != 0 {
		// Deleted or replaced executable path; fall back to the lowest
		// mapping, which is where the main module loads in practice.
		return first, nil
	}
	return 0, fmt.Errorf("no mappings found")
}

func parseMapStart(addrRange string) (uintptr, bool) {
	dash := strings.IndexByte(addrRange, '-')
	if dash < 0 {
		return 0, false
	}
	start, err := strconv.ParseUint(addrRange[:dash], 16, 64)
	if err != nil {
		return 0, false
	}
	return uintptr(start), true
}

// elfPointerSize reads the ELF class byte of the target binary: 1 means a
// 32-bit target with 4-byte pointers, anything else defaults to 8.
func elfPointerSize(exePath string) int {
	f, err := os.Open(exePath)
	if err != nil {
		return 8
	}
	defer f.Close()

	hdr := make([]byte, 5)
	if _, err := f.Read(hdr); err != nil {
		return 8
	}
	if hdr[0] == 0x7f && hdr[1] == 'E' && hdr[2] == 'L' && hdr[3] == 'F' && hdr[4] == 1 {
		return 4
	}
	return 8
}

func (h *linuxHandle) ReadAt(addr uintptr, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	local := []unix.Iovec{{Base: &buf[0], Len: uint64(len(buf))}}
	remote := []unix.RemoteIovec{{Base: addr, Len: len(buf)}}

	n, err := unix.ProcessVMReadv(h.pid, local, remote, 0)
	if err != nil {
		if err == unix.ESRCH {
			return ErrProcessGone
		}
		return fmt.Errorf("read %d bytes at %#x: %w", len(buf), addr, err)
	}
	if n != len(buf) {
		return fmt.Errorf("%w: %d of %d bytes at %#x", ErrShortRead, n, len(buf), addr)
	}
	return nil
}

func (h *linuxHandle) Alive() bool {
	// Signal 0 probes existence without touching the process. EPERM still
	// means it exists.
	err := unix.Kill(h.pid, 0)
	return err == nil || err == unix.EPERM
}

func (h *linuxHandle) Base() uintptr    { return h.base }
func (h *linuxHandle) PointerSize() int { return h.ptr }
func (h *linuxHandle) PID() int         { return h.pid }
func (h *linuxHandle) Name() string     { return h.name }
func (h *linuxHandle) Close() error     { return nil }
