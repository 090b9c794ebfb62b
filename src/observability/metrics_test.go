package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFunctions(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.OrdersClosed.WithLabelValues("STOP_LOSS"))
	RecordOrderClosed("STOP_LOSS")
	RecordOrderClosed("STOP_LOSS")
	if got := testutil.ToFloat64(DefaultMetrics.OrdersClosed.WithLabelValues("STOP_LOSS")); got != before+2 {
		t.Fatalf("expected %v closed orders, got %v", before+2, got)
	}

	RecordTickProcessed("EURUSD", 0.002, 1741082400)
	if got := testutil.ToFloat64(DefaultMetrics.LastTickSeconds.WithLabelValues("EURUSD")); got != 1741082400 {
		t.Fatalf("expected last tick timestamp, got %v", got)
	}

	UpdateActivationCandidates("EURUSD", 3)
	UpdateActivationCandidates("EURUSD", 1)
	if got := testutil.ToFloat64(DefaultMetrics.ActivationCandidates.WithLabelValues("EURUSD")); got != 1 {
		t.Fatalf("expected gauge to hold the last value, got %v", got)
	}
}
