// Package metrics exposes Prometheus counters for quest generation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QuestsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questgen_quests_generated_total",
			Help: "Total number of quests generated by kind.",
		},
		[]string{"kind"},
	)

	CandidatesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questgen_candidates_rejected_total",
			Help: "Quest kinds passed over by the selector, by kind and reason.",
		},
		[]string{"kind", "reason"},
	)

	GenerationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "questgen_generation_failures_total",
		Help: "Generation runs that produced no quest.",
	})

	QuestsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questgen_quests_loaded_total",
			Help: "Stored quests loaded, by outcome.",
		},
		[]string{"outcome"},
	)

	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "questgen_active_connections",
		Help: "Open simulator WebSocket connections.",
	})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
