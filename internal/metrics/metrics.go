package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	commandsClassified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scriptforge",
			Subsystem: "commands",
			Name:      "classified_total",
			Help:      "Number of free-text commands classified, by script kind.",
		}, []string{"kind"},
	)
	scriptsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scriptforge",
			Subsystem: "scripts",
			Name:      "generated_total",
			Help:      "Number of script files generated, by kind.",
		}, []string{"kind"},
	)
	scriptLaunches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scriptforge",
			Subsystem: "scripts",
			Name:      "launches_total",
			Help:      "Number of successful script launches.",
		}, []string{"name"},
	)
	scriptStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scriptforge",
			Subsystem: "scripts",
			Name:      "stops_total",
			Help:      "Number of scripts stopped on request.",
		}, []string{"name"},
	)
	scriptsReaped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scriptforge",
			Subsystem: "scripts",
			Name:      "reaped_total",
			Help:      "Number of tracking entries removed because the process exited on its own.",
		}, []string{"name"},
	)
	runningScripts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "scriptforge",
			Subsystem: "scripts",
			Name:      "running",
			Help:      "Current number of tracked running scripts.",
		},
	)
	scriptCPUPercent = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "scriptforge",
			Subsystem: "scripts",
			Name:      "cpu_percent",
			Help:      "CPU usage percentage of tracked scripts.",
		}, []string{"name"},
	)
	scriptMemoryMB = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "scriptforge",
			Subsystem: "scripts",
			Name:      "memory_mb",
			Help:      "Resident memory in MB of tracked scripts.",
		}, []string{"name"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{commandsClassified, scriptsGenerated, scriptLaunches, scriptStops, scriptsReaped, runningScripts, scriptCPUPercent, scriptMemoryMB}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncClassified(kind string) {
	if regOK.Load() {
		commandsClassified.WithLabelValues(kind).Inc()
	}
}
func IncGenerated(kind string) {
	if regOK.Load() {
		scriptsGenerated.WithLabelValues(kind).Inc()
	}
}
func IncLaunch(name string) {
	if regOK.Load() {
		scriptLaunches.WithLabelValues(name).Inc()
	}
}
func IncStop(name string) {
	if regOK.Load() {
		scriptStops.WithLabelValues(name).Inc()
	}
}
func IncReaped(name string) {
	if regOK.Load() {
		scriptsReaped.WithLabelValues(name).Inc()
	}
}
func SetRunningScripts(n int) {
	if regOK.Load() {
		runningScripts.Set(float64(n))
	}
}
func SetUsage(name string, cpuPercent, memoryMB float64) {
	if regOK.Load() {
		scriptCPUPercent.WithLabelValues(name).Set(cpuPercent)
		scriptMemoryMB.WithLabelValues(name).Set(memoryMB)
	}
}
func ClearUsage(name string) {
	if regOK.Load() {
		scriptCPUPercent.DeleteLabelValues(name)
		scriptMemoryMB.DeleteLabelValues(name)
	}
}
