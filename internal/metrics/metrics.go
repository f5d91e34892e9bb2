// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the ingestion engine.
//
// The package is intentionally minimal and opinionated:
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data (histograms).
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//   - It mirrors the storage abstraction pattern used elsewhere in the
//     project (store.Driver), keeping concrete metric systems isolated in
//     subpackages.
//
// The primary use case is instrumentation of loads (outcome, duration, and
// per-table row diffs) without coupling the storage engine to a specific
// metrics system such as Prometheus or Datadog.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
// It is intentionally generic so we can plug in Prometheus, Datadog, etc.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordLoad is a convenience for the common pattern: measure latency +
// outcome per source load. Skipped loads (fingerprint match) count under
// their own status so dashboards can tell "nothing to do" from "did work".
func RecordLoad(source, mode string, skipped bool, err error, d time.Duration) {
	status := "success"
	switch {
	case err != nil:
		status = "failure"
	case skipped:
		status = "skipped"
	}

	lbls := Labels{
		"source": source,
		"mode":   mode,
		"status": status,
	}

	backend.IncCounter("chartfold_load_total", 1, lbls)
	backend.ObserveHistogram("chartfold_load_duration_seconds", d.Seconds(), Labels{
		"source": source,
		"mode":   mode,
	})
}

// RecordRows increments a row-level counter for one table of a load.
//
// Kinds mirror the per-table diff stats:
//   - "new"
//   - "existing"
//   - "removed"
func RecordRows(source, table, kind string, delta int) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("chartfold_rows_total", float64(delta), Labels{
		"source": source,
		"table":  table,
		"kind":   kind,
	})
}
