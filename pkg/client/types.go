package client

import "time"

// Result mirrors the structured outcome records served by the daemon.
// Every operation reports success or failure here instead of a raw
// transport error, with a human-readable French message.
type Result struct {
	Success bool   `json:"success"`
	Action  string `json:"action"`
	Name    string `json:"name,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// ScriptInfo is one catalog entry as served by GET /scripts.
type ScriptInfo struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	Created     time.Time `json:"created"`
}

// ScriptUsage is a point-in-time resource sample for one tracked script.
type ScriptUsage struct {
	Name       string    `json:"name"`
	PID        int       `json:"pid"`
	CPUPercent float64   `json:"cpu_percent"`
	MemoryMB   float64   `json:"memory_mb"`
	SampledAt  time.Time `json:"sampled_at"`
}

// RunningInfo reports the tracked running scripts and, when requested,
// their usage samples.
type RunningInfo struct {
	Running map[string]int `json:"running"`
	Usage   []ScriptUsage  `json:"usage,omitempty"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}
