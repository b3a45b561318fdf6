//go:build windows

package detector

import (
	"fmt"
	"syscall"
)

type osTable struct{}

// Alive reports whether the pid can be opened for query; being able to
// open it means the process exists.
func (osTable) Alive(pid int) (bool, error) {
	if pid <= 0 {
		return false, nil
	}
	h, err := syscall.OpenProcess(syscall.PROCESS_QUERY_INFORMATION, false, uint32(pid))
	if err != nil {
		return false, nil
	}
	defer func() { _ = syscall.CloseHandle(h) }()
	return true, nil
}

// Kill force-kills the pid. A process that is already gone counts as
// killed.
func (osTable) Kill(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	h, err := syscall.OpenProcess(syscall.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return nil
	}
	defer func() { _ = syscall.CloseHandle(h) }()
	return syscall.TerminateProcess(h, 1)
}
