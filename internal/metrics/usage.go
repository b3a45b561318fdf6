package metrics

import (
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// ScriptUsage holds a point-in-time resource sample for one tracked script.
type ScriptUsage struct {
	Name       string    `json:"name"`
	PID        int       `json:"pid"`
	CPUPercent float64   `json:"cpu_percent"`
	MemoryMB   float64   `json:"memory_mb"`
	SampledAt  time.Time `json:"sampled_at"`
}

// SampleUsage collects CPU and memory usage for the given name->pid map.
// Scripts whose process cannot be inspected are skipped with a debug log;
// successful samples also refresh the Prometheus usage gauges.
func SampleUsage(running map[string]int) []ScriptUsage {
	now := time.Now().UTC()
	out := make([]ScriptUsage, 0, len(running))
	for name, pid := range running {
		if pid <= 0 {
			continue
		}
		proc, err := process.NewProcess(int32(pid))
		if err != nil {
			slog.Debug("failed to open process for usage sampling", "name", name, "pid", pid, "error", err)
			continue
		}
		cpuPercent, err := proc.CPUPercent()
		if err != nil {
			slog.Debug("failed to read cpu percent", "name", name, "pid", pid, "error", err)
			cpuPercent = 0
		}
		memInfo, err := proc.MemoryInfo()
		if err != nil {
			slog.Debug("failed to read memory info", "name", name, "pid", pid, "error", err)
			continue
		}
		u := ScriptUsage{
			Name:       name,
			PID:        pid,
			CPUPercent: cpuPercent,
			MemoryMB:   float64(memInfo.RSS) / 1024 / 1024,
			SampledAt:  now,
		}
		SetUsage(u.Name, u.CPUPercent, u.MemoryMB)
		out = append(out, u)
	}
	return out
}
