// Package metrics exposes Prometheus series for column construction, sorting,
// row selection, execution and ingestion.
//
// # Basic Usage
//
//	// Record a frozen buffer
//	metrics.ColumnsFrozen.WithLabelValues("real").Inc()
//
//	// Time a sort
//	timer := metrics.NewTimer("sort")
//	perm, err := col.Sort(sorting.Ascending)
//	timer.ObserveNanos(metrics.SortDuration.WithLabelValues("real"))
//
//	// Track ingestion throughput
//	tracker := metrics.NewThroughputTracker("zstd")
//	tracker.Increment(int64(rows))
//	rowsPerSec := tracker.GetAndReset()
//
// All series are registered with the default registry through promauto.
package metrics

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ColumnsFrozen counts buffers frozen into columns.
	// Labels: type (column type name)
	ColumnsFrozen = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colframe_columns_frozen_total",
			Help: "Total number of buffers frozen into columns",
		},
		[]string{"type"},
	)

	// SortDuration tracks the time spent computing sort permutations in nanoseconds.
	// Labels: type (column type name)
	SortDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "colframe_sort_duration_nanoseconds",
			Help: "Sort permutation latency in nanoseconds",
			Buckets: []float64{
				1000, // 1μs - Tiny columns
				1e4,  // 10μs
				1e5,  // 100μs
				1e6,  // 1ms - Around 10K rows
				1e7,  // 10ms
				1e8,  // 100ms - Millions of rows
				1e9,  // 1s
			},
		},
		[]string{"type"},
	)

	// RowSelections counts row selections by the strategy chosen.
	// Labels: mode (view/copy)
	RowSelections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colframe_row_selections_total",
			Help: "Total number of row selections, by view or copy",
		},
		[]string{"mode"},
	)

	// ExecutionUnits counts units of work handled by execution pools.
	// Labels: status (success/error/aborted/panic)
	ExecutionUnits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colframe_execution_units_total",
			Help: "Total number of submitted units of work by outcome",
		},
		[]string{"status"},
	)

	// IngestedBytes counts decompressed chunk bytes fed into buffers.
	// Labels: codec (compression algorithm)
	IngestedBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colframe_ingested_bytes_total",
			Help: "Total number of decompressed bytes ingested into buffers",
		},
		[]string{"codec"},
	)

	// IngestThroughput tracks ingestion speed in rows per second.
	IngestThroughput = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "colframe_ingest_rows_per_second",
			Help: "Current ingestion throughput in rows per second",
		},
		[]string{"codec"},
	)
)

// Timer measures the time since it was created.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer starts a timer. name identifies it in logs.
func NewTimer(name string) *Timer {
	return &Timer{start: time.Now(), name: name}
}

// Name returns the timer name.
func (t *Timer) Name() string { return t.name }

// Stop returns the time elapsed since NewTimer. It can be called repeatedly.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ObserveNanos records the elapsed time in nanoseconds on o and returns it.
func (t *Timer) ObserveNanos(o prometheus.Observer) time.Duration {
	d := t.Stop()
	o.Observe(float64(d.Nanoseconds()))
	return d
}

// ThroughputTracker measures rows per second between resets and publishes
// the rate on IngestThroughput. It is safe for concurrent use.
type ThroughputTracker struct {
	rows  atomic.Int64
	since atomic.Int64 // unix nanos of the last reset
	gauge prometheus.Gauge
}

// NewThroughputTracker creates a tracker publishing under the codec label.
func NewThroughputTracker(codec string) *ThroughputTracker {
	t := &ThroughputTracker{gauge: IngestThroughput.WithLabelValues(codec)}
	t.since.Store(time.Now().UnixNano())
	return t
}

// Increment adds n rows.
func (t *ThroughputTracker) Increment(n int64) {
	t.rows.Add(n)
}

// GetAndReset returns the rate since the previous reset, sets the gauge to
// it and starts a new period.
func (t *ThroughputTracker) GetAndReset() float64 {
	now := time.Now().UnixNano()
	elapsed := time.Duration(now - t.since.Swap(now)).Seconds()
	rows := t.rows.Swap(0)
	if elapsed <= 0 {
		return 0
	}
	rate := float64(rows) / elapsed
	t.gauge.Set(rate)
	return rate
}

// LatencyTracker keeps the most recent latencies in a ring for percentile
// reports. It is safe for concurrent use.
type LatencyTracker struct {
	mu     sync.Mutex
	ring   []time.Duration
	next   int
	filled bool
}

// NewLatencyTracker keeps up to size latencies. size below 1 keeps one.
func NewLatencyTracker(size int) *LatencyTracker {
	return &LatencyTracker{ring: make([]time.Duration, max(size, 1))}
}

// Record adds d, evicting the oldest value when the ring is full.
func (l *LatencyTracker) Record(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ring[l.next] = d
	l.next++
	if l.next == len(l.ring) {
		l.next = 0
		l.filled = true
	}
}

// GetPercentile returns the p-th percentile (0-100) of the kept latencies,
// or zero when nothing was recorded.
func (l *LatencyTracker) GetPercentile(p float64) time.Duration {
	l.mu.Lock()
	n := l.next
	if l.filled {
		n = len(l.ring)
	}
	values := slices.Clone(l.ring[:n])
	l.mu.Unlock()

	if len(values) == 0 {
		return 0
	}
	slices.Sort(values)
	i := min(int(float64(len(values))*p/100), len(values)-1)
	return values[max(i, 0)]
}
