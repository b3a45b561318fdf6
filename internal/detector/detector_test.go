package detector

import (
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"
)

func requireUnix(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
}

func TestAliveSelf(t *testing.T) {
	alive, err := OS().Alive(os.Getpid())
	if err != nil {
		t.Fatalf("alive: %v", err)
	}
	if !alive {
		t.Fatal("own pid reported dead")
	}
}

func TestAliveInvalidPID(t *testing.T) {
	for _, pid := range []int{0, -1} {
		alive, err := OS().Alive(pid)
		if err != nil {
			t.Fatalf("alive(%d): %v", pid, err)
		}
		if alive {
			t.Fatalf("pid %d reported alive", pid)
		}
	}
}

func TestAliveAfterExit(t *testing.T) {
	requireUnix(t)
	cmd := exec.Command("true")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	alive, err := OS().Alive(pid)
	if err != nil {
		t.Fatalf("alive: %v", err)
	}
	if alive {
		t.Fatalf("exited pid %d still reported alive", pid)
	}
}

func TestKill(t *testing.T) {
	requireUnix(t)
	cmd := exec.Command("sleep", "10")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	pid := cmd.Process.Pid
	if err := OS().Kill(pid); err != nil {
		t.Fatalf("kill: %v", err)
	}
	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("process did not die after kill")
	}
	alive, err := OS().Alive(pid)
	if err != nil {
		t.Fatalf("alive: %v", err)
	}
	if alive {
		t.Fatal("pid alive after kill")
	}
}

func TestKillInvalidPID(t *testing.T) {
	if err := OS().Kill(0); err == nil {
		t.Fatal("expected error for pid 0")
	}
}
