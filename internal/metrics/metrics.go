// Package metrics exposes the server's prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the sync counters. Registered against a dedicated
// registry so tests can build isolated instances.
type Metrics struct {
	Registry *prometheus.Registry

	SyncCalls   prometheus.Counter
	SyncErrors  prometheus.Counter
	UpUpdates   prometheus.Counter
	DownUpdates prometheus.Counter
}

// New builds a metrics set with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		SyncCalls: factory.NewCounter(prometheus.CounterOpts{
			Name: "wordbase_sync_calls_total",
			Help: "Completed sync calls.",
		}),
		SyncErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "wordbase_sync_errors_total",
			Help: "Sync calls aborted by an error.",
		}),
		UpUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "wordbase_sync_up_updates_total",
			Help: "Client-submitted entry updates received.",
		}),
		DownUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "wordbase_sync_down_updates_total",
			Help: "Entry updates delivered to clients.",
		}),
	}
}
