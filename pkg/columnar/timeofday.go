package columnar

import (
	"math"
	"slices"
	"time"

	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/mapping"
	"github.com/ajitpratap0/colframe/pkg/sorting"
)

// Time-of-day values are nanoseconds since midnight.
const (
	MaxTimeNanos int64 = 24*int64(time.Hour) - 1
	// MissingTime marks a missing time of day.
	MissingTime int64 = math.MaxInt64
)

func checkTimeNanos(nanos int64) error {
	if nanos < 0 || nanos > MaxTimeNanos {
		return errors.Newf(errors.ErrorTypeValidation, "time of day %d ns outside [0, %d]", nanos, MaxTimeNanos)
	}
	return nil
}

func timeValue(nanos int64) any {
	if nanos == MissingTime {
		return nil
	}
	return time.Duration(nanos)
}

func sortTimes(t *ColumnType, nanos []int64, order sorting.Order) []int {
	start := time.Now()
	perm := sorting.Int64s(nanos, order, MissingTime)
	observeSort(t, len(nanos), order, start)
	return perm
}

// TimeColumn stores nanoseconds of day.
type TimeColumn struct {
	base
	nanos []int64
}

// NewTimeColumn creates a time column from a copy of nanos. MissingTime marks
// missing rows.
func NewTimeColumn(nanos []int64) (*TimeColumn, error) {
	for _, n := range nanos {
		if n == MissingTime {
			continue
		}
		if err := checkTimeNanos(n); err != nil {
			return nil, err
		}
	}
	return newTimeColumn(slices.Clone(nanos)), nil
}

func newTimeColumn(nanos []int64) *TimeColumn {
	return &TimeColumn{base: base{ctype: TypeTime, size: len(nanos)}, nanos: nanos}
}

func (c *TimeColumn) FillObjects(dst []any, row int) error {
	return c.FillObjectsInterleaved(dst, row, 0, 1)
}

func (c *TimeColumn) FillObjectsInterleaved(dst []any, row, offset, stride int) error {
	n, err := c.span(len(dst), row, offset, stride)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		dst[offset+i*stride] = timeValue(c.nanos[row+i])
	}
	return nil
}

// FillNanos copies nanoseconds of day starting at row. Missing rows hold
// MissingTime.
func (c *TimeColumn) FillNanos(dst []int64, row int) error {
	n, err := c.span(len(dst), row, 0, 1)
	if err != nil {
		return err
	}
	copy(dst[:n], c.nanos[row:row+n])
	return nil
}

func (c *TimeColumn) Sort(order sorting.Order) ([]int, error) {
	return sortTimes(c.ctype, c.nanos, order), nil
}

func (c *TimeColumn) Rows(rows []int, preferView bool) Column {
	if mapping.IsIdentity(rows, c.size) {
		return c
	}
	if useView(preferView, len(rows)) {
		return &MappedTimeColumn{base: base{ctype: c.ctype, size: len(rows)}, nanos: c.nanos, mapping: slices.Clone(rows)}
	}
	return newTimeColumn(mapping.ApplyInt64(c.nanos, rows, MissingTime))
}

func (c *TimeColumn) StripData() Column { return newTimeColumn([]int64{}) }

func (c *TimeColumn) MemoryUsage() int64 { return int64(len(c.nanos)) * 8 }

// MappedTimeColumn is a row view over time storage.
type MappedTimeColumn struct {
	base
	nanos   []int64
	mapping []int
}

func (c *MappedTimeColumn) at(row int) int64 {
	m := c.mapping[row]
	if m < 0 || m >= len(c.nanos) {
		return MissingTime
	}
	return c.nanos[m]
}

func (c *MappedTimeColumn) FillObjects(dst []any, row int) error {
	return c.FillObjectsInterleaved(dst, row, 0, 1)
}

func (c *MappedTimeColumn) FillObjectsInterleaved(dst []any, row, offset, stride int) error {
	n, err := c.span(len(dst), row, offset, stride)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		dst[offset+i*stride] = timeValue(c.at(row + i))
	}
	return nil
}

// FillNanos copies nanoseconds of day starting at row.
func (c *MappedTimeColumn) FillNanos(dst []int64, row int) error {
	n, err := c.span(len(dst), row, 0, 1)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		dst[i] = c.at(row + i)
	}
	return nil
}

func (c *MappedTimeColumn) Sort(order sorting.Order) ([]int, error) {
	return sortTimes(c.ctype, mapping.ApplyInt64(c.nanos, c.mapping, MissingTime), order), nil
}

func (c *MappedTimeColumn) Rows(rows []int, preferView bool) Column {
	if mapping.IsIdentity(rows, c.size) {
		return c
	}
	merged := mapping.Merge(rows, c.mapping)
	if useView(preferView, len(rows)) {
		return &MappedTimeColumn{base: base{ctype: c.ctype, size: len(merged)}, nanos: c.nanos, mapping: merged}
	}
	return newTimeColumn(mapping.ApplyInt64(c.nanos, merged, MissingTime))
}

func (c *MappedTimeColumn) StripData() Column { return newTimeColumn([]int64{}) }

func (c *MappedTimeColumn) MemoryUsage() int64 { return int64(len(c.mapping)) * 8 }

// SparseTimeColumn stores a default time of day and the rows that differ.
type SparseTimeColumn struct {
	base
	store sparseStore[int64]
}

// NonDefaults returns the number of rows that differ from the default.
func (c *SparseTimeColumn) NonDefaults() int { return c.store.nonDefaults() }

// DefaultNanos returns the default value, MissingTime when it is missing.
func (c *SparseTimeColumn) DefaultNanos() int64 { return c.store.def }

func (c *SparseTimeColumn) FillObjects(dst []any, row int) error {
	return c.FillObjectsInterleaved(dst, row, 0, 1)
}

func (c *SparseTimeColumn) FillObjectsInterleaved(dst []any, row, offset, stride int) error {
	n, err := c.span(len(dst), row, offset, stride)
	if err != nil {
		return err
	}
	c.store.each(row, n, func(k int, v int64) { dst[offset+k*stride] = timeValue(v) })
	return nil
}

// FillNanos copies nanoseconds of day starting at row.
func (c *SparseTimeColumn) FillNanos(dst []int64, row int) error {
	n, err := c.span(len(dst), row, 0, 1)
	if err != nil {
		return err
	}
	c.store.each(row, n, func(k int, v int64) { dst[k] = v })
	return nil
}

func (c *SparseTimeColumn) Sort(order sorting.Order) ([]int, error) {
	return sortTimes(c.ctype, c.store.dense(), order), nil
}

// Rows materialises every selection other than the identity into a dense
// column.
func (c *SparseTimeColumn) Rows(rows []int, preferView bool) Column {
	if mapping.IsIdentity(rows, c.size) {
		return c
	}
	useView(false, len(rows))
	return newTimeColumn(c.store.gather(rows, MissingTime))
}

func (c *SparseTimeColumn) StripData() Column { return newTimeColumn([]int64{}) }

func (c *SparseTimeColumn) MemoryUsage() int64 {
	return int64(len(c.store.rows))*8 + int64(len(c.store.values))*8
}
