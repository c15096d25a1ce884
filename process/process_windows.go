//go:build windows

package process

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// List walks a Toolhelp32 snapshot of running processes.
func List() ([]Info, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, fmt.Errorf("process snapshot: %w", err)
	}
	defer windows.CloseHandle(snap)

	var procs []Info
	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	if err := windows.Process32First(snap, &entry); err != nil {
		return nil, fmt.Errorf("process snapshot walk: %w", err)
	}
	for {
		name := windows.UTF16ToString(entry.ExeFile[:])
		procs = append(procs, Info{
			PID:  int(entry.ProcessID),
			Name: name,
			Exe:  name,
		})
		if err := windows.Process32Next(snap, &entry); err != nil {
			break
		}
	}
	return procs, nil
}

type windowsHandle struct {
	proc windows.Handle
	pid  int
	name string
	base uintptr
	ptr  int
}

// Open attaches with the minimum rights needed for read-only inspection.
func Open(pid int) (Handle, error) {
	const access = windows.PROCESS_VM_READ | windows.PROCESS_QUERY_INFORMATION
	proc, err := windows.OpenProcess(access, false, uint32(pid))
	if err != nil {
		return nil, fmt.Errorf("open pid %d: %w", pid, err)
	}

	h := &windowsHandle{proc: proc, pid: pid, ptr: 8}

	var wow64 bool
	if err := windows.IsWow64Process(proc, &wow64); err == nil && wow64 {
		// 32-bit target under WOW64: its pointers are 4 bytes.
		h.ptr = 4
	}

	h.base, h.name, err = mainModule(pid)
	if err != nil {
		windows.CloseHandle(proc)
		return nil, fmt.Errorf("open pid %d: %w", pid, err)
	}
	return h, nil
}

// mainModule reads the first module entry of the target, which is the
// executable itself; its base address anchors every pointer chain.
func mainModule(pid int) (uintptr, string, error) {
	snap, err := windows.CreateToolhelp32Snapshot(
		windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, uint32(pid))
	if err != nil {
		return 0, "", fmt.Errorf("module snapshot: %w", err)
	}
	defer windows.CloseHandle(snap)

	var entry windows.ModuleEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	if err := windows.Module32First(snap, &entry); err != nil {
		return 0, "", fmt.Errorf("module walk: %w", err)
	}
	return uintptr(entry.ModBaseAddr), windows.UTF16ToString(entry.Module[:]), nil
}

func (h *windowsHandle) ReadAt(addr uintptr, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	var read uintptr
	err := windows.ReadProcessMemory(h.proc, addr, &buf[0], uintptr(len(buf)), &read)
	if err != nil {
		if !h.Alive() {
			return ErrProcessGone
		}
		return fmt.Errorf("read %d bytes at %#x: %w", len(buf), addr, err)
	}
	if read != uintptr(len(buf)) {
		return fmt.Errorf("%w: %d of %d bytes at %#x", ErrShortRead, read, len(buf), addr)
	}
	return nil
}

func (h *windowsHandle) Alive() bool {
	var code uint32
	if err := windows.GetExitCodeProcess(h.proc, &code); err != nil {
		return false
	}
	return code == 259 // STILL_ACTIVE
}

func (h *windowsHandle) Base() uintptr    { return h.base }
func (h *windowsHandle) PointerSize() int { return h.ptr }
func (h *windowsHandle) PID() int         { return h.pid }
func (h *windowsHandle) Name() string     { return h.name }

func (h *windowsHandle) Close() error {
	return windows.CloseHandle(h.proc)
}
