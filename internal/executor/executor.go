package executor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mbellec/scriptforge/internal/logger"
)

// Result of launching one script. PID is the authoritative process id;
// Message is a display string which, by convention, also embeds the id
// after a literal "PID: " marker so callers holding only the message
// can recover it with ParsePID.
type Result struct {
	PID     int
	Message string
}

// Executor launches a script file as an OS process and returns
// immediately; the script runs unattended.
type Executor interface {
	ExecuteScript(path string) (Result, error)
}

// ParsePID extracts the trailing numeric token after the last literal
// "PID: " marker in a launch message.
func ParsePID(message string) (int, bool) {
	const marker = "PID: "
	i := strings.LastIndex(message, marker)
	if i < 0 {
		return 0, false
	}
	rest := message[i+len(marker):]
	j := 0
	for j < len(rest) && rest[j] >= '0' && rest[j] <= '9' {
		j++
	}
	if j == 0 {
		return 0, false
	}
	pid, err := strconv.Atoi(rest[:j])
	if err != nil {
		return 0, false
	}
	return pid, true
}

// launch starts interpreter with the script path appended to args and
// reaps the child in the background so its pid leaves the process
// table as soon as the script exits. When out carries a directory the
// script's stdout/stderr are captured to rotated per-script files.
func launch(interpreter string, args []string, path string, out logger.FileConfig) (int, error) {
	cmd := exec.Command(interpreter, append(args, path)...)
	stdout, stderr := out.ScriptWriters(strings.TrimSuffix(filepath.Base(path), ".ahk"))
	if stdout != nil {
		cmd.Stdout = stdout
	}
	if stderr != nil {
		cmd.Stderr = stderr
	}
	closeAll := func() {
		for _, c := range []io.Closer{stdout, stderr} {
			if c != nil {
				_ = c.Close()
			}
		}
	}
	if err := cmd.Start(); err != nil {
		closeAll()
		return 0, err
	}
	go func() {
		_ = cmd.Wait()
		closeAll()
	}()
	return cmd.Process.Pid, nil
}

// AutoHotkey runs .ahk scripts through the AutoHotkey interpreter
// (Windows deployments).
type AutoHotkey struct {
	ExePath string
	Output  logger.FileConfig
}

var autoHotkeyPaths = []string{
	`C:\Program Files\AutoHotkey\AutoHotkey.exe`,
	`C:\Program Files (x86)\AutoHotkey\AutoHotkey.exe`,
	"/usr/bin/autohotkey",
	"/usr/local/bin/autohotkey",
}

// NewAutoHotkey resolves the interpreter from PATH, then from the
// standard install locations. An empty ExePath means it was not found
// and ExecuteScript will fail.
func NewAutoHotkey() *AutoHotkey {
	for _, name := range []string{"AutoHotkey.exe", "autohotkey"} {
		if p, err := exec.LookPath(name); err == nil {
			return &AutoHotkey{ExePath: p}
		}
	}
	for _, p := range autoHotkeyPaths {
		if _, err := os.Stat(p); err == nil {
			return &AutoHotkey{ExePath: p}
		}
	}
	return &AutoHotkey{}
}

func (a *AutoHotkey) ExecuteScript(path string) (Result, error) {
	if a.ExePath == "" {
		return Result{}, errors.New("autohotkey introuvable")
	}
	pid, err := launch(a.ExePath, nil, path, a.Output)
	if err != nil {
		return Result{}, fmt.Errorf("lancement autohotkey: %w", err)
	}
	return Result{PID: pid, Message: fmt.Sprintf("Script lancé avec AutoHotkey (PID: %d)", pid)}, nil
}

// AutoKey runs scripts through autokey-run (Linux deployments).
type AutoKey struct {
	ExePath string
	Output  logger.FileConfig
}

func NewAutoKey() *AutoKey {
	if p, err := exec.LookPath("autokey-run"); err == nil {
		return &AutoKey{ExePath: p}
	}
	return &AutoKey{}
}

func (a *AutoKey) ExecuteScript(path string) (Result, error) {
	if a.ExePath == "" {
		return Result{}, errors.New("autokey introuvable")
	}
	pid, err := launch(a.ExePath, nil, path, a.Output)
	if err != nil {
		return Result{}, fmt.Errorf("lancement autokey: %w", err)
	}
	return Result{PID: pid, Message: fmt.Sprintf("Script lancé avec AutoKey (PID: %d)", pid)}, nil
}

// Command runs scripts through an arbitrary interpreter, for
// deployments overriding the platform default.
type Command struct {
	Name   string
	Args   []string
	Output logger.FileConfig
}

func (c Command) ExecuteScript(path string) (Result, error) {
	if c.Name == "" {
		return Result{}, errors.New("exécuteur non configuré")
	}
	pid, err := launch(c.Name, c.Args, path, c.Output)
	if err != nil {
		return Result{}, fmt.Errorf("lancement %s: %w", filepath.Base(c.Name), err)
	}
	name := strings.TrimSuffix(filepath.Base(c.Name), filepath.Ext(c.Name))
	return Result{PID: pid, Message: fmt.Sprintf("Script lancé avec %s (PID: %d)", name, pid)}, nil
}
