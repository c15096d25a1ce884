//go:build !windows

package doctor

import "os/exec"

// resetTerminal undoes raw mode a hotkey check or prompt may have left
// behind.
func resetTerminal() {
	exec.Command("stty", "sane").Run()
}
