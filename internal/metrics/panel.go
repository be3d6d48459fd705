// Package metrics exports panel lifecycle counters to Prometheus.
package metrics

import (
	"net/http"

	"panelseq/internal/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	panelState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "panelseq",
		Subsystem: "panel",
		Name:      "state",
		Help:      "Lifecycle state of the panel: 0 off, 1 prepared, 2 enabled",
	}, []string{"panel"})

	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "panelseq",
		Subsystem: "panel",
		Name:      "transitions_total",
		Help:      "Lifecycle calls that were not no-ops, by result (ok, error, degraded)",
	}, []string{"panel", "op", "result"})

	prepareFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "panelseq",
		Subsystem: "panel",
		Name:      "prepare_failures_total",
		Help:      "Failed prepare calls by error code",
	}, []string{"panel", "code"})

	teardownErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "panelseq",
		Subsystem: "panel",
		Name:      "teardown_errors_total",
		Help:      "Best-effort calls that completed with recorded errors",
	}, []string{"panel", "op"})
)

var stateValues = map[string]float64{
	"off":      0,
	"prepared": 1,
	"enabled":  2,
}

// Record updates all panel metrics from one transition.
func Record(e events.TransitionEvent) {
	if v, ok := stateValues[e.To]; ok {
		panelState.WithLabelValues(e.Panel).Set(v)
	}
	result := e.Result()
	transitionsTotal.WithLabelValues(e.Panel, e.Op, result).Inc()

	switch {
	case e.Failed && e.Op == "prepare":
		prepareFailuresTotal.WithLabelValues(e.Panel, e.Code).Inc()
	case result == "degraded":
		teardownErrorsTotal.WithLabelValues(e.Panel, e.Op).Inc()
	}
}

// Attach feeds Record from bus. Returns the unsubscribe function.
func Attach(bus *events.Bus) func() {
	return bus.Subscribe(func(e events.TransitionEvent) {
		Record(e)
	})
}

// Handler serves the default registry in the text exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DeletePanel drops every series labelled with panel.
func DeletePanel(panel string) {
	labels := prometheus.Labels{"panel": panel}
	panelState.DeletePartialMatch(labels)
	transitionsTotal.DeletePartialMatch(labels)
	prepareFailuresTotal.DeletePartialMatch(labels)
	teardownErrorsTotal.DeletePartialMatch(labels)
}
