package columnar

import (
	"time"
)

// DateTimeBuffer builds date-time columns with second or nanosecond
// precision. Unwritten rows are missing.
type DateTimeBuffer struct {
	freezer
	seconds  []int64
	nanos    []int32
	position int
}

// NewDateTimeBuffer creates a buffer of the given size. With subSecond false
// nanoseconds are validated but not stored.
func NewDateTimeBuffer(size int, subSecond bool) (*DateTimeBuffer, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	b := &DateTimeBuffer{seconds: make([]int64, size)}
	for i := range b.seconds {
		b.seconds[i] = MissingSeconds
	}
	if subSecond {
		b.nanos = make([]int32, size)
	}
	return b, nil
}

func (b *DateTimeBuffer) Size() int { return len(b.seconds) }

// Position returns the row the next SetNext call writes.
func (b *DateTimeBuffer) Position() int { return b.position }

// SetEpoch writes seconds since the epoch plus nanoseconds at row.
func (b *DateTimeBuffer) SetEpoch(row int, seconds int64, nanos int) error {
	if err := b.open(); err != nil {
		return err
	}
	if err := checkRow(row, len(b.seconds)); err != nil {
		return err
	}
	if err := checkEpoch(seconds, nanos); err != nil {
		return err
	}
	b.seconds[row] = seconds
	if b.nanos != nil {
		b.nanos[row] = int32(nanos)
	}
	return nil
}

// Set writes t at row.
func (b *DateTimeBuffer) Set(row int, t time.Time) error {
	return b.SetEpoch(row, t.Unix(), t.Nanosecond())
}

// SetMissing marks row missing.
func (b *DateTimeBuffer) SetMissing(row int) error {
	if err := b.open(); err != nil {
		return err
	}
	if err := checkRow(row, len(b.seconds)); err != nil {
		return err
	}
	b.seconds[row] = MissingSeconds
	if b.nanos != nil {
		b.nanos[row] = 0
	}
	return nil
}

// SetNext writes t at the current position and advances it.
func (b *DateTimeBuffer) SetNext(t time.Time) error {
	return b.advance(b.Set(b.position, t))
}

// SetNextEpoch writes an epoch value at the current position and advances it.
func (b *DateTimeBuffer) SetNextEpoch(seconds int64, nanos int) error {
	return b.advance(b.SetEpoch(b.position, seconds, nanos))
}

// SetNextMissing marks the current position missing and advances it.
func (b *DateTimeBuffer) SetNextMissing() error {
	return b.advance(b.SetMissing(b.position))
}

func (b *DateTimeBuffer) advance(err error) error {
	if err == nil {
		b.position++
	}
	return err
}

func (b *DateTimeBuffer) ToColumn() Column {
	return b.freeze(func() Column { return newDateTimeColumn(b.seconds, b.nanos) })
}

// SparseDateTimeBuffer builds a sparse date-time column. Rows must be written
// in strictly increasing order; unwritten rows take the default.
type SparseDateTimeBuffer struct {
	freezer
	builder   *sparseBuilder[instant]
	subSecond bool
}

// NewSparseDateTimeBuffer creates a sparse buffer whose default is def.
func NewSparseDateTimeBuffer(size int, def time.Time, subSecond bool) (*SparseDateTimeBuffer, error) {
	if err := checkEpoch(def.Unix(), def.Nanosecond()); err != nil {
		return nil, err
	}
	return newSparseDateTimeBuffer(size, toInstant(def.Unix(), def.Nanosecond(), subSecond), subSecond)
}

// NewSparseDateTimeBufferMissingDefault creates a sparse buffer whose default
// is the missing value.
func NewSparseDateTimeBufferMissingDefault(size int, subSecond bool) (*SparseDateTimeBuffer, error) {
	return newSparseDateTimeBuffer(size, missingInstant, subSecond)
}

func newSparseDateTimeBuffer(size int, def instant, subSecond bool) (*SparseDateTimeBuffer, error) {
	builder, err := newSparseBuilder(size, def)
	if err != nil {
		return nil, err
	}
	return &SparseDateTimeBuffer{builder: builder, subSecond: subSecond}, nil
}

func toInstant(seconds int64, nanos int, subSecond bool) instant {
	if !subSecond {
		nanos = 0
	}
	return instant{seconds: seconds, nanos: int32(nanos)}
}

func (b *SparseDateTimeBuffer) Size() int { return b.builder.size }

// NonDefaults returns the number of stored rows that differ from the default.
func (b *SparseDateTimeBuffer) NonDefaults() int { return b.builder.nonDefaults() }

// SetNextEpochAt writes an epoch value at row.
func (b *SparseDateTimeBuffer) SetNextEpochAt(row int, seconds int64, nanos int) error {
	if err := b.open(); err != nil {
		return err
	}
	if err := b.builder.check(row); err != nil {
		return err
	}
	if err := checkEpoch(seconds, nanos); err != nil {
		return err
	}
	b.builder.set(row, toInstant(seconds, nanos, b.subSecond))
	return nil
}

// SetNextAt writes t at row.
func (b *SparseDateTimeBuffer) SetNextAt(row int, t time.Time) error {
	return b.SetNextEpochAt(row, t.Unix(), t.Nanosecond())
}

// SetNextMissingAt marks row missing.
func (b *SparseDateTimeBuffer) SetNextMissingAt(row int) error {
	if err := b.open(); err != nil {
		return err
	}
	if err := b.builder.check(row); err != nil {
		return err
	}
	b.builder.set(row, missingInstant)
	return nil
}

// SetNext writes t at the row after the last written one.
func (b *SparseDateTimeBuffer) SetNext(t time.Time) error {
	return b.SetNextAt(b.builder.next(), t)
}

func (b *SparseDateTimeBuffer) ToColumn() Column {
	return b.freeze(func() Column {
		store := b.builder.freeze()
		return &SparseDateTimeColumn{base: base{ctype: TypeDateTime, size: store.size}, store: store, subSecond: b.subSecond}
	})
}

// TimeBuffer builds time-of-day columns. Unwritten rows are missing.
type TimeBuffer struct {
	freezer
	nanos    []int64
	position int
}

// NewTimeBuffer creates a buffer of the given size.
func NewTimeBuffer(size int) (*TimeBuffer, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	b := &TimeBuffer{nanos: make([]int64, size)}
	for i := range b.nanos {
		b.nanos[i] = MissingTime
	}
	return b, nil
}

func (b *TimeBuffer) Size() int { return len(b.nanos) }

// Position returns the row the next SetNext call writes.
func (b *TimeBuffer) Position() int { return b.position }

// SetNanos writes nanoseconds since midnight at row.
func (b *TimeBuffer) SetNanos(row int, nanos int64) error {
	if err := b.open(); err != nil {
		return err
	}
	if err := checkRow(row, len(b.nanos)); err != nil {
		return err
	}
	if err := checkTimeNanos(nanos); err != nil {
		return err
	}
	b.nanos[row] = nanos
	return nil
}

// Set writes the time elapsed since midnight at row.
func (b *TimeBuffer) Set(row int, d time.Duration) error {
	return b.SetNanos(row, int64(d))
}

// SetMissing marks row missing.
func (b *TimeBuffer) SetMissing(row int) error {
	if err := b.open(); err != nil {
		return err
	}
	if err := checkRow(row, len(b.nanos)); err != nil {
		return err
	}
	b.nanos[row] = MissingTime
	return nil
}

// SetNext writes d at the current position and advances it.
func (b *TimeBuffer) SetNext(d time.Duration) error {
	return b.advance(b.Set(b.position, d))
}

// SetNextNanos writes nanos at the current position and advances it.
func (b *TimeBuffer) SetNextNanos(nanos int64) error {
	return b.advance(b.SetNanos(b.position, nanos))
}

// SetNextMissing marks the current position missing and advances it.
func (b *TimeBuffer) SetNextMissing() error {
	return b.advance(b.SetMissing(b.position))
}

func (b *TimeBuffer) advance(err error) error {
	if err == nil {
		b.position++
	}
	return err
}

func (b *TimeBuffer) ToColumn() Column {
	return b.freeze(func() Column { return newTimeColumn(b.nanos) })
}

// SparseTimeBuffer builds a sparse time-of-day column. Rows must be written in
// strictly increasing order; unwritten rows take the default.
type SparseTimeBuffer struct {
	freezer
	builder *sparseBuilder[int64]
}

// NewSparseTimeBuffer creates a sparse buffer whose default is defaultNanos,
// which may be MissingTime.
func NewSparseTimeBuffer(size int, defaultNanos int64) (*SparseTimeBuffer, error) {
	if defaultNanos != MissingTime {
		if err := checkTimeNanos(defaultNanos); err != nil {
			return nil, err
		}
	}
	builder, err := newSparseBuilder(size, defaultNanos)
	if err != nil {
		return nil, err
	}
	return &SparseTimeBuffer{builder: builder}, nil
}

func (b *SparseTimeBuffer) Size() int { return b.builder.size }

// NonDefaults returns the number of stored rows that differ from the default.
func (b *SparseTimeBuffer) NonDefaults() int { return b.builder.nonDefaults() }

// SetNextAt writes nanoseconds since midnight at row.
func (b *SparseTimeBuffer) SetNextAt(row int, nanos int64) error {
	if err := b.open(); err != nil {
		return err
	}
	if err := b.builder.check(row); err != nil {
		return err
	}
	if err := checkTimeNanos(nanos); err != nil {
		return err
	}
	b.builder.set(row, nanos)
	return nil
}

// SetNextMissingAt marks row missing.
func (b *SparseTimeBuffer) SetNextMissingAt(row int) error {
	if err := b.open(); err != nil {
		return err
	}
	if err := b.builder.check(row); err != nil {
		return err
	}
	b.builder.set(row, MissingTime)
	return nil
}

// SetNext writes nanos at the row after the last written one.
func (b *SparseTimeBuffer) SetNext(nanos int64) error {
	return b.SetNextAt(b.builder.next(), nanos)
}

func (b *SparseTimeBuffer) ToColumn() Column {
	return b.freeze(func() Column {
		store := b.builder.freeze()
		return &SparseTimeColumn{base: base{ctype: TypeTime, size: store.size}, store: store}
	})
}
