package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAggregateOperation("op", "success", time.Millisecond)
	m.IncAggregateConflict("op")
	m.IncEnrollment("enrolled")
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("nil WritePrometheus: %v", err)
	}
}

func TestMetricsWritePrometheus(t *testing.T) {
	m := New()
	m.ObserveAggregateOperation("Learning.Enrollment.Enroll", "success", 3*time.Millisecond)
	m.ObserveAggregateOperation("Learning.Enrollment.Enroll", "success", 7*time.Millisecond)
	m.IncAggregateConflict("Catalog.Course.PublishCourse")
	m.IncEnrollment("already_enrolled")

	if got := m.aggregateOps.Value("Learning.Enrollment.Enroll", "success"); got != 2 {
		t.Fatalf("aggregate ops: want=2 got=%v", got)
	}
	if got := m.aggregateLatency.Count("Learning.Enrollment.Enroll", "success"); got != 2 {
		t.Fatalf("aggregate latency count: want=2 got=%d", got)
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`lms_aggregate_operations_total{op="Learning.Enrollment.Enroll",status="success"} 2.000000`,
		`lms_aggregate_operation_duration_seconds_bucket{op="Learning.Enrollment.Enroll",status="success",le="0.005"} 1`,
		`lms_aggregate_operation_duration_seconds_bucket{op="Learning.Enrollment.Enroll",status="success",le="+Inf"} 2`,
		`lms_aggregate_conflicts_total{op="Catalog.Course.PublishCourse"} 1.000000`,
		`lms_enrollment_changes_total{result="already_enrolled"} 1.000000`,
		"# TYPE lms_redis_up gauge",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"view"}, []string{`a"b`})
	if got != `{view="a\"b"}` {
		t.Fatalf("labelString: got %s", got)
	}
	if got := withLe("", "1"); got != `{le="1"}` {
		t.Fatalf("withLe empty: got %s", got)
	}
}
