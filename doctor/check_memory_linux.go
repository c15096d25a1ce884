//go:build linux

package doctor

import (
	"fmt"
	"os"
	"strings"
)

// memoryPrereq verifies the system will let us read another process.
// Yama ptrace scope above 0 blocks process_vm_readv on processes that
// are not our children, which is exactly how we attach.
func memoryPrereq() bool {
	b, err := os.ReadFile("/proc/sys/kernel/yama/ptrace_scope")
	if err != nil {
		// No yama module; nothing is restricting us.
		return true
	}
	scope := strings.TrimSpace(string(b))
	if scope == "0" || os.Geteuid() == 0 {
		return true
	}

	fmt.Printf("  FAIL: kernel.yama.ptrace_scope is %s; cross-process reads are blocked\n", scope)
	fmt.Println("  Fix with: sudo sysctl kernel.yama.ptrace_scope=0")
	return false
}
