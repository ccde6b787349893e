package columnar

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/mapping"
	"github.com/ajitpratap0/colframe/pkg/sorting"
)

// Date-time values are seconds since the Unix epoch plus an optional
// nanosecond-of-second part.
const (
	MinEpochSeconds int64 = -31557014167219200
	MaxEpochSeconds int64 = 31556889864403199
	// MissingSeconds marks a missing date-time.
	MissingSeconds int64 = math.MaxInt64
	MaxNanosOfSecond     = 999_999_999
)

func checkEpoch(seconds int64, nanos int) error {
	if seconds < MinEpochSeconds || seconds > MaxEpochSeconds {
		return errors.Newf(errors.ErrorTypeValidation, "seconds %d outside [%d, %d]", seconds, MinEpochSeconds, MaxEpochSeconds)
	}
	if nanos < 0 || nanos > MaxNanosOfSecond {
		return errors.Newf(errors.ErrorTypeValidation, "nanoseconds %d outside [0, %d]", nanos, MaxNanosOfSecond)
	}
	return nil
}

func instantValue(seconds int64, nanos int32) any {
	if seconds == MissingSeconds {
		return nil
	}
	return time.Unix(seconds, int64(nanos)).UTC()
}

func compareInstants(s1 int64, n1 int32, s2 int64, n2 int32) int {
	if c := cmp.Compare(s1, s2); c != 0 {
		return c
	}
	return cmp.Compare(n1, n2)
}

func sortInstants(t *ColumnType, seconds []int64, nanos []int32, order sorting.Order) []int {
	start := time.Now()
	nano := func(i int) int32 {
		if nanos == nil {
			return 0
		}
		return nanos[i]
	}
	perm := sorting.Permutation(len(seconds), sorting.Ordered(
		func(a, b int) int { return compareInstants(seconds[a], nano(a), seconds[b], nano(b)) },
		func(i int) bool { return seconds[i] == MissingSeconds },
		order,
	))
	observeSort(t, len(seconds), order, start)
	return perm
}

// DateTimeColumn stores seconds and, for sub-second precision, nanoseconds.
type DateTimeColumn struct {
	base
	seconds []int64
	nanos   []int32 // nil for second precision
}

// NewDateTimeColumn creates a date-time column from copies of the given arrays.
// nanos may be nil; otherwise it must have the same length as seconds.
func NewDateTimeColumn(seconds []int64, nanos []int32) (*DateTimeColumn, error) {
	if nanos != nil && len(nanos) != len(seconds) {
		return nil, errors.Newf(errors.ErrorTypeValidation, "%d nanosecond values for %d rows", len(nanos), len(seconds))
	}
	for i, s := range seconds {
		if s == MissingSeconds {
			continue
		}
		n := 0
		if nanos != nil {
			n = int(nanos[i])
		}
		if err := checkEpoch(s, n); err != nil {
			return nil, err
		}
	}
	return newDateTimeColumn(slices.Clone(seconds), slices.Clone(nanos)), nil
}

func newDateTimeColumn(seconds []int64, nanos []int32) *DateTimeColumn {
	return &DateTimeColumn{base: base{ctype: TypeDateTime, size: len(seconds)}, seconds: seconds, nanos: nanos}
}

// HasSubSecondPrecision reports whether nanoseconds are stored.
func (c *DateTimeColumn) HasSubSecondPrecision() bool { return c.nanos != nil }

func (c *DateTimeColumn) FillObjects(dst []any, row int) error {
	return c.FillObjectsInterleaved(dst, row, 0, 1)
}

func (c *DateTimeColumn) FillObjectsInterleaved(dst []any, row, offset, stride int) error {
	n, err := c.span(len(dst), row, offset, stride)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		var ns int32
		if c.nanos != nil {
			ns = c.nanos[row+i]
		}
		dst[offset+i*stride] = instantValue(c.seconds[row+i], ns)
	}
	return nil
}

// FillSeconds copies epoch seconds starting at row. Missing rows hold
// MissingSeconds.
func (c *DateTimeColumn) FillSeconds(dst []int64, row int) error {
	n, err := c.span(len(dst), row, 0, 1)
	if err != nil {
		return err
	}
	copy(dst[:n], c.seconds[row:row+n])
	return nil
}

// FillNanos copies nanoseconds starting at row, zeros for second precision.
func (c *DateTimeColumn) FillNanos(dst []int32, row int) error {
	n, err := c.span(len(dst), row, 0, 1)
	if err != nil {
		return err
	}
	if c.nanos == nil {
		clear(dst[:n])
		return nil
	}
	copy(dst[:n], c.nanos[row:row+n])
	return nil
}

func (c *DateTimeColumn) Sort(order sorting.Order) ([]int, error) {
	return sortInstants(c.ctype, c.seconds, c.nanos, order), nil
}

func (c *DateTimeColumn) Rows(rows []int, preferView bool) Column {
	if mapping.IsIdentity(rows, c.size) {
		return c
	}
	if useView(preferView, len(rows)) {
		return &MappedDateTimeColumn{
			base:    base{ctype: c.ctype, size: len(rows)},
			seconds: c.seconds,
			nanos:   c.nanos,
			mapping: slices.Clone(rows),
		}
	}
	return c.materialise(rows)
}

func (c *DateTimeColumn) materialise(rows []int) *DateTimeColumn {
	var nanos []int32
	if c.nanos != nil {
		nanos = mapping.Apply(c.nanos, rows, 0)
	}
	return newDateTimeColumn(mapping.ApplyInt64(c.seconds, rows, MissingSeconds), nanos)
}

func (c *DateTimeColumn) StripData() Column {
	if c.nanos != nil {
		return newDateTimeColumn([]int64{}, []int32{})
	}
	return newDateTimeColumn([]int64{}, nil)
}

func (c *DateTimeColumn) MemoryUsage() int64 {
	return int64(len(c.seconds))*8 + int64(len(c.nanos))*4
}

// MappedDateTimeColumn is a row view over date-time storage.
type MappedDateTimeColumn struct {
	base
	seconds []int64
	nanos   []int32
	mapping []int
}

func (c *MappedDateTimeColumn) at(row int) (int64, int32) {
	m := c.mapping[row]
	if m < 0 || m >= len(c.seconds) {
		return MissingSeconds, 0
	}
	if c.nanos == nil {
		return c.seconds[m], 0
	}
	return c.seconds[m], c.nanos[m]
}

// HasSubSecondPrecision reports whether nanoseconds are stored.
func (c *MappedDateTimeColumn) HasSubSecondPrecision() bool { return c.nanos != nil }

func (c *MappedDateTimeColumn) FillObjects(dst []any, row int) error {
	return c.FillObjectsInterleaved(dst, row, 0, 1)
}

func (c *MappedDateTimeColumn) FillObjectsInterleaved(dst []any, row, offset, stride int) error {
	n, err := c.span(len(dst), row, offset, stride)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		dst[offset+i*stride] = instantValue(c.at(row + i))
	}
	return nil
}

// FillSeconds copies epoch seconds starting at row.
func (c *MappedDateTimeColumn) FillSeconds(dst []int64, row int) error {
	n, err := c.span(len(dst), row, 0, 1)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		dst[i], _ = c.at(row + i)
	}
	return nil
}

// FillNanos copies nanoseconds starting at row.
func (c *MappedDateTimeColumn) FillNanos(dst []int32, row int) error {
	n, err := c.span(len(dst), row, 0, 1)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		_, dst[i] = c.at(row + i)
	}
	return nil
}

func (c *MappedDateTimeColumn) Sort(order sorting.Order) ([]int, error) {
	seconds := mapping.ApplyInt64(c.seconds, c.mapping, MissingSeconds)
	var nanos []int32
	if c.nanos != nil {
		nanos = mapping.Apply(c.nanos, c.mapping, 0)
	}
	return sortInstants(c.ctype, seconds, nanos, order), nil
}

func (c *MappedDateTimeColumn) Rows(rows []int, preferView bool) Column {
	if mapping.IsIdentity(rows, c.size) {
		return c
	}
	merged := mapping.Merge(rows, c.mapping)
	if useView(preferView, len(rows)) {
		return &MappedDateTimeColumn{
			base:    base{ctype: c.ctype, size: len(merged)},
			seconds: c.seconds,
			nanos:   c.nanos,
			mapping: merged,
		}
	}
	dense := &DateTimeColumn{seconds: c.seconds, nanos: c.nanos}
	return dense.materialise(merged)
}

func (c *MappedDateTimeColumn) StripData() Column {
	if c.nanos != nil {
		return newDateTimeColumn([]int64{}, []int32{})
	}
	return newDateTimeColumn([]int64{}, nil)
}

func (c *MappedDateTimeColumn) MemoryUsage() int64 { return int64(len(c.mapping)) * 8 }

// instant is the sparse element of a date-time column.
type instant struct {
	seconds int64
	nanos   int32
}

var missingInstant = instant{seconds: MissingSeconds}

// SparseDateTimeColumn stores a default instant and the rows that differ.
type SparseDateTimeColumn struct {
	base
	store     sparseStore[instant]
	subSecond bool
}

// HasSubSecondPrecision reports whether nanoseconds are kept.
func (c *SparseDateTimeColumn) HasSubSecondPrecision() bool { return c.subSecond }

// NonDefaults returns the number of rows that differ from the default.
func (c *SparseDateTimeColumn) NonDefaults() int { return c.store.nonDefaults() }

func (c *SparseDateTimeColumn) FillObjects(dst []any, row int) error {
	return c.FillObjectsInterleaved(dst, row, 0, 1)
}

func (c *SparseDateTimeColumn) FillObjectsInterleaved(dst []any, row, offset, stride int) error {
	n, err := c.span(len(dst), row, offset, stride)
	if err != nil {
		return err
	}
	c.store.each(row, n, func(k int, v instant) {
		dst[offset+k*stride] = instantValue(v.seconds, v.nanos)
	})
	return nil
}

// FillSeconds copies epoch seconds starting at row.
func (c *SparseDateTimeColumn) FillSeconds(dst []int64, row int) error {
	n, err := c.span(len(dst), row, 0, 1)
	if err != nil {
		return err
	}
	c.store.each(row, n, func(k int, v instant) { dst[k] = v.seconds })
	return nil
}

// FillNanos copies nanoseconds starting at row.
func (c *SparseDateTimeColumn) FillNanos(dst []int32, row int) error {
	n, err := c.span(len(dst), row, 0, 1)
	if err != nil {
		return err
	}
	c.store.each(row, n, func(k int, v instant) { dst[k] = v.nanos })
	return nil
}

func (c *SparseDateTimeColumn) split(values []instant) ([]int64, []int32) {
	seconds := make([]int64, len(values))
	var nanos []int32
	if c.subSecond {
		nanos = make([]int32, len(values))
	}
	for i, v := range values {
		seconds[i] = v.seconds
		if nanos != nil {
			nanos[i] = v.nanos
		}
	}
	return seconds, nanos
}

func (c *SparseDateTimeColumn) Sort(order sorting.Order) ([]int, error) {
	seconds, nanos := c.split(c.store.dense())
	return sortInstants(c.ctype, seconds, nanos, order), nil
}

// Rows materialises every selection other than the identity into a dense
// column.
func (c *SparseDateTimeColumn) Rows(rows []int, preferView bool) Column {
	if mapping.IsIdentity(rows, c.size) {
		return c
	}
	useView(false, len(rows))
	return newDateTimeColumn(c.split(c.store.gather(rows, missingInstant)))
}

func (c *SparseDateTimeColumn) StripData() Column {
	return newDateTimeColumn(c.split(nil))
}

func (c *SparseDateTimeColumn) MemoryUsage() int64 {
	return int64(len(c.store.rows))*8 + int64(len(c.store.values))*16
}
