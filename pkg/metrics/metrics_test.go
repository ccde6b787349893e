package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRowSelectionsCounter(t *testing.T) {
	before := testutil.ToFloat64(RowSelections.WithLabelValues("view"))
	RowSelections.WithLabelValues("view").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RowSelections.WithLabelValues("view")))
}

func TestThroughputTracker(t *testing.T) {
	tracker := NewThroughputTracker("test")
	tracker.Increment(500)
	time.Sleep(5 * time.Millisecond)

	rate := tracker.GetAndReset()
	assert.Greater(t, rate, 0.0)
	assert.Equal(t, rate, testutil.ToFloat64(IngestThroughput.WithLabelValues("test")))
}

func TestLatencyTrackerPercentile(t *testing.T) {
	tracker := NewLatencyTracker(3)
	for _, d := range []time.Duration{40, 10, 30, 20} {
		tracker.Record(d)
	}

	// Oldest value (40) has been evicted.
	assert.Equal(t, time.Duration(10), tracker.GetPercentile(0))
	assert.Equal(t, time.Duration(30), tracker.GetPercentile(100))
	assert.Equal(t, time.Duration(20), tracker.GetPercentile(50))
}

func TestTimer(t *testing.T) {
	timer := NewTimer("sort")
	assert.Equal(t, "sort", timer.Name())
	assert.GreaterOrEqual(t, timer.Stop(), time.Duration(0))
}

func TestTimerObserveNanos(t *testing.T) {
	before := testutil.CollectAndCount(SortDuration)
	d := NewTimer("sort").ObserveNanos(SortDuration.WithLabelValues("timer-test"))
	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.Equal(t, before+1, testutil.CollectAndCount(SortDuration))
}

func TestLatencyTrackerEmpty(t *testing.T) {
	tracker := NewLatencyTracker(0)
	assert.Equal(t, time.Duration(0), tracker.GetPercentile(99))
	tracker.Record(7)
	tracker.Record(9)
	assert.Equal(t, time.Duration(9), tracker.GetPercentile(50))
}
