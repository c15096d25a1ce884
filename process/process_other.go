//go:build !linux && !windows

package process

// Darwin needs task_for_pid entitlements that a plain binary does not
// have, so live attach is linux/windows only. Sim mode and the fake
// still work everywhere.

func List() ([]Info, error) {
	return nil, ErrUnsupported
}

func Open(pid int) (Handle, error) {
	return nil, ErrUnsupported
}
