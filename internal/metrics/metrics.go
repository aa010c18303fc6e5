// Package metrics exposes prometheus counters for tool writes and entity
// resolution outcomes. Recording is best-effort and never blocks callers.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	toolWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opsbot_tool_writes_total",
			Help: "Total tool write attempts by outcome",
		},
		[]string{"tool", "outcome"},
	)

	entityResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opsbot_entity_resolutions_total",
			Help: "Total entity resolution attempts by strategy and outcome",
		},
		[]string{"entity_type", "strategy", "outcome"},
	)

	registerOnce sync.Once
	enabled      bool
)

// Init registers the collectors. Must be called once at startup; recording
// before Init is a no-op so unit tests don't need a registry.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(toolWrites, entityResolutions)
		enabled = true
	})
}

// RecordToolWrite counts one tool write attempt.
func RecordToolWrite(tool, outcome string) {
	if !enabled {
		return
	}
	toolWrites.WithLabelValues(tool, outcome).Inc()
}

// RecordResolution counts one entity resolution attempt.
func RecordResolution(entityType, strategy, outcome string) {
	if !enabled {
		return
	}
	entityResolutions.WithLabelValues(entityType, strategy, outcome).Inc()
}
