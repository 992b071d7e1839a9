package metrics

import (
	"strings"
	"testing"
)

func TestRenderExposesCounters(t *testing.T) {
	IncRunStarted()
	IncRunCompleted()
	IncBureauLookup()
	ObserveRunDurationMs(123)

	out := Render()
	for _, want := range []string{
		"pipeline_runs_started_total",
		"pipeline_runs_completed_total",
		"pipeline_runs_failed_total",
		"bureau_lookups_total",
		"bureau_unavailable_total",
		"pipeline_run_duration_ms_bucket",
		"pipeline_run_duration_ms_sum",
		"pipeline_run_duration_ms_count",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "# TYPE pipeline_run_duration_ms histogram") {
		t.Fatalf("missing histogram type line:\n%s", out)
	}
}

func TestHistogramObserve(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("count = %d", snap.count)
	}
	if snap.sum != 555 {
		t.Fatalf("sum = %v", snap.sum)
	}
	if snap.counts[0] != 1 || snap.counts[1] != 1 {
		t.Fatalf("bucket counts = %v", snap.counts)
	}
}
