// Package metrics holds the Prometheus collectors for races and
// completion.
//
// Collectors are registered on a caller-supplied registry rather than the
// global default so several races (and tests) can coexist in one process.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the set of semirace collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	RacesTotal       *prometheus.CounterVec
	RaceDuration     *prometheus.HistogramVec
	RunnerStopsTotal *prometheus.CounterVec
	WinsTotal        *prometheus.CounterVec
	CompletionRules  prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RacesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "semirace_races_total",
			Help: "Races run, by mode and outcome",
		}, []string{"mode", "outcome"}),
		RaceDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "semirace_race_duration_seconds",
			Help:    "Wall time of a race from start to the last runner returning",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10, 60},
		}, []string{"mode"}),
		RunnerStopsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "semirace_runner_stops_total",
			Help: "Runner invocations that returned, by runner and stop reason",
		}, []string{"runner", "reason"}),
		WinsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "semirace_wins_total",
			Help: "Races won, by runner",
		}, []string{"runner"}),
		CompletionRules: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "semirace_completion_rules",
			Help:    "Rule count of rewriting systems certified confluent",
			Buckets: []float64{1, 10, 100, 1000, 10000},
		}),
	}
}

// ObserveRace records a finished race.
func (m *Metrics) ObserveRace(mode, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.RacesTotal.WithLabelValues(mode, outcome).Inc()
	m.RaceDuration.WithLabelValues(mode).Observe(seconds)
}

// ObserveStop records one runner invocation returning.
func (m *Metrics) ObserveStop(runner, reason string) {
	if m == nil {
		return
	}
	m.RunnerStopsTotal.WithLabelValues(runner, reason).Inc()
}

// ObserveWin records the winner of a race.
func (m *Metrics) ObserveWin(runner string) {
	if m == nil {
		return
	}
	m.WinsTotal.WithLabelValues(runner).Inc()
}

// ObserveCompletion records the size of a certified rule set.
func (m *Metrics) ObserveCompletion(rules int) {
	if m == nil {
		return
	}
	m.CompletionRules.Observe(float64(rules))
}
