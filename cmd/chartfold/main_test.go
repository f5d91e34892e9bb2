package main

import "testing"

/*
TestResolveMetricsBackend verifies the flag → env → default order: an
explicit flag always wins, the environment fills an empty flag, and the
default is "none".
*/
func TestResolveMetricsBackend(t *testing.T) {
	t.Setenv("METRICS_BACKEND", "")
	if got := resolveMetricsBackend(""); got != "none" {
		t.Fatalf("resolveMetricsBackend(\"\") = %q; want none", got)
	}
	if got := resolveMetricsBackend("datadog"); got != "datadog" {
		t.Fatalf("resolveMetricsBackend(datadog) = %q; want datadog", got)
	}

	t.Setenv("METRICS_BACKEND", "pushgateway")
	if got := resolveMetricsBackend(""); got != "pushgateway" {
		t.Fatalf("env fallback = %q; want pushgateway", got)
	}
	if got := resolveMetricsBackend("none"); got != "none" {
		t.Fatalf("explicit none = %q; want none over env", got)
	}
}
