// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// This package adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and SummaryVec collectors.
//   - Mapping the load labels (source, mode, status) onto Prometheus labels.
//   - Pushing collected metrics to a Prometheus Pushgateway instance instead
//     of exposing an HTTP scrape endpoint, which suits a short-lived
//     ingestion process that exits between loads.
//
// The package intentionally contains all Prometheus-specific dependencies so
// that the rest of the project remains decoupled from Prometheus and can swap
// to alternative backends (e.g. Datadog) without changes to the storage
// engine.
package prompush

import (
	"fmt"

	"chartfold/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	loadCounter  *prometheus.CounterVec // "chartfold_load_total"
	loadDuration *prometheus.SummaryVec // "chartfold_load_duration_seconds"
	rowCounter   *prometheus.CounterVec // "chartfold_rows_total"
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name.
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "chartfold"
	}

	reg := prometheus.NewRegistry()

	loadCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartfold_load_total",
			Help: "Total number of source loads, partitioned by source, mode, and status.",
		},
		[]string{"source", "mode", "status"},
	)
	loadDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "chartfold_load_duration_seconds",
			Help:       "Duration of source loads in seconds, partitioned by source and mode.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"source", "mode"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartfold_rows_total",
			Help: "Row-level diff counts per table and kind (new, existing, removed).",
		},
		[]string{"source", "table", "kind"},
	)

	if err := reg.Register(loadCounter); err != nil {
		return nil, fmt.Errorf("prompush: register load counter: %w", err)
	}
	if err := reg.Register(loadDuration); err != nil {
		return nil, fmt.Errorf("prompush: register load summary: %w", err)
	}
	if err := reg.Register(rowCounter); err != nil {
		return nil, fmt.Errorf("prompush: register row counter: %w", err)
	}

	return &Backend{
		gatewayURL:   gatewayURL,
		jobName:      jobName,
		reg:          reg,
		loadCounter:  loadCounter,
		loadDuration: loadDuration,
		rowCounter:   rowCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "chartfold_load_total":
		if b.loadCounter == nil {
			return
		}
		b.loadCounter.WithLabelValues(labels["source"], labels["mode"], labels["status"]).Add(delta)

	case "chartfold_rows_total":
		if b.rowCounter == nil {
			return
		}
		b.rowCounter.WithLabelValues(labels["source"], labels["table"], labels["kind"]).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "chartfold_load_duration_seconds" || b.loadDuration == nil {
		return
	}
	b.loadDuration.WithLabelValues(labels["source"], labels["mode"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
