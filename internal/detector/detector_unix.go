//go:build !windows

package detector

import (
	"errors"
	"fmt"
	"syscall"
)

type osTable struct{}

// Alive probes the pid with signal 0. EPERM still means the process
// exists, just owned by someone else.
func (osTable) Alive(pid int) (bool, error) {
	if pid <= 0 {
		return false, nil
	}
	err := syscall.Kill(pid, 0)
	if err == nil || errors.Is(err, syscall.EPERM) {
		return true, nil
	}
	if errors.Is(err, syscall.ESRCH) {
		return false, nil
	}
	return false, err
}

// Kill force-kills the pid. A process that is already gone counts as
// killed.
func (osTable) Kill(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	err := syscall.Kill(pid, syscall.SIGKILL)
	if err != nil && errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}
