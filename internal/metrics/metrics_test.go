package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	callsCounters   []counterCall
	callsHistograms []histCall
	flushCount      int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsCounters = append(f.callsCounters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsHistograms = append(f.callsHistograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func TestRecordLoad_StatusMapping(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	// Success case.
	RecordLoad("epic_anderson", "additive", false, nil, 2*time.Second)

	// Skipped case (fingerprint match).
	RecordLoad("epic_anderson", "additive", true, nil, 5*time.Millisecond)

	// Failure case. Failure wins even when the skip flag is set.
	err := errors.New("boom")
	RecordLoad("meditech_anderson", "replace", true, err, 1500*time.Millisecond)

	if len(fb.callsCounters) != 3 {
		t.Fatalf("expected 3 counter calls, got %d", len(fb.callsCounters))
	}
	if len(fb.callsHistograms) != 3 {
		t.Fatalf("expected 3 histogram calls, got %d", len(fb.callsHistograms))
	}

	wantStatus := []string{"success", "skipped", "failure"}
	for i, want := range wantStatus {
		cc := fb.callsCounters[i]
		if cc.name != "chartfold_load_total" || cc.delta != 1 {
			t.Fatalf("counter[%d] = %#v; want name=chartfold_load_total, delta=1", i, cc)
		}
		if got := cc.labels["status"]; got != want {
			t.Fatalf("counter[%d].labels[status]=%q; want %q", i, got, want)
		}
	}

	cc0 := fb.callsCounters[0]
	if cc0.labels["source"] != "epic_anderson" || cc0.labels["mode"] != "additive" {
		t.Fatalf("counter[0] labels = %v; want source=epic_anderson, mode=additive", cc0.labels)
	}

	h0 := fb.callsHistograms[0]
	if h0.name != "chartfold_load_duration_seconds" {
		t.Fatalf("hist[0].name=%q; want chartfold_load_duration_seconds", h0.name)
	}
	if h0.value < 2.0-0.001 || h0.value > 2.0+0.001 {
		t.Fatalf("hist[0].value=%v; want ~2.0", h0.value)
	}
	if _, ok := h0.labels["status"]; ok {
		t.Fatalf("duration labels carry status: %v", h0.labels)
	}

	h2 := fb.callsHistograms[2]
	if h2.value < 1.5-0.001 || h2.value > 1.5+0.001 {
		t.Fatalf("hist[2].value=%v; want ~1.5", h2.value)
	}
}

func TestRecordRows(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	RecordRows("epic_anderson", "lab_results", "new", 3)
	RecordRows("epic_anderson", "lab_results", "existing", 0) // should be ignored
	RecordRows("epic_anderson", "conditions", "removed", 1)

	if len(fb.callsCounters) != 2 {
		t.Fatalf("expected 2 counter calls, got %d", len(fb.callsCounters))
	}

	c0 := fb.callsCounters[0]
	if c0.name != "chartfold_rows_total" || c0.delta != 3 {
		t.Fatalf("counter[0] = %#v; want name=chartfold_rows_total, delta=3", c0)
	}
	if c0.labels["table"] != "lab_results" || c0.labels["kind"] != "new" {
		t.Fatalf("counter[0] labels = %v; want table=lab_results, kind=new", c0.labels)
	}

	c1 := fb.callsCounters[1]
	if c1.labels["table"] != "conditions" || c1.labels["kind"] != "removed" {
		t.Fatalf("counter[1] labels = %v; want table=conditions, kind=removed", c1.labels)
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	SetBackend(fb)

	if backend != fb {
		t.Fatal("SetBackend did not replace global backend")
	}

	if err := Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("expected flushCount=1, got %d", fb.flushCount)
	}

	// SetBackend(nil) should not nil out the backend.
	SetBackend(nil)
	if backend != fb {
		t.Fatal("SetBackend(nil) should not change backend")
	}
}
