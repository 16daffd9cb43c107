package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOutcome(t *testing.T) {
	if got := Outcome(nil); got != OutcomeSuccess {
		t.Errorf("Outcome(nil) = %q, want %q", got, OutcomeSuccess)
	}
	if got := Outcome(errors.New("boom")); got != OutcomeFailure {
		t.Errorf("Outcome(err) = %q, want %q", got, OutcomeFailure)
	}
}

func TestUploadsCounter(t *testing.T) {
	before := testutil.ToFloat64(UploadsTotal.WithLabelValues(OutcomeFailure))
	UploadsTotal.WithLabelValues(OutcomeFailure).Inc()

	if got := testutil.ToFloat64(UploadsTotal.WithLabelValues(OutcomeFailure)); got != before+1 {
		t.Errorf("uploads_total{outcome=failure} = %v, want %v", got, before+1)
	}
}
