//go:build windows

package executor

import "github.com/mbellec/scriptforge/internal/logger"

// ForPlatform returns the script executor of the host platform.
func ForPlatform(out logger.FileConfig) Executor {
	e := NewAutoHotkey()
	e.Output = out
	return e
}
