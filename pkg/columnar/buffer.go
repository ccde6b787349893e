package columnar

import (
	"math"

	"go.uber.org/zap"

	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/logger"
	"github.com/ajitpratap0/colframe/pkg/metrics"
)

// Buffer is the common surface of every buffer. Buffers are not safe for
// concurrent use.
type Buffer interface {
	// Size returns the number of rows of the column being built.
	Size() int
	// ToColumn freezes the buffer. Every later mutation fails with an error of
	// type errors.ErrorTypeState; later calls return the same column.
	ToColumn() Column
}

// freezer implements the one-way open to frozen transition.
type freezer struct {
	column Column
}

func (f *freezer) open() error {
	if f.column != nil {
		return errors.New(errors.ErrorTypeState, "buffer is frozen")
	}
	return nil
}

// IsFrozen reports whether ToColumn has been called.
func (f *freezer) IsFrozen() bool { return f.column != nil }

// freeze runs build once and caches the result.
func (f *freezer) freeze(build func() Column) Column {
	if f.column == nil {
		f.column = build()
		metrics.ColumnsFrozen.WithLabelValues(f.column.Type().String()).Inc()
		logger.Debug("froze buffer",
			zap.Stringer("type", f.column.Type()),
			zap.Int("rows", f.column.Size()))
	}
	return f.column
}

func checkSize(size int) error {
	if size < 0 {
		return errors.Newf(errors.ErrorTypeValidation, "illegal buffer size %d", size)
	}
	return nil
}

func checkRow(row, size int) error {
	if row < 0 || row >= size {
		return errors.Newf(errors.ErrorTypeBounds, "row %d out of bounds for size %d", row, size)
	}
	return nil
}

// NumericBuffer builds real and integer columns. Unwritten rows are missing.
type NumericBuffer struct {
	freezer
	ctype    *ColumnType
	data     []float64
	position int
}

// NewRealBuffer creates a buffer for a real column of the given size.
func NewRealBuffer(size int) (*NumericBuffer, error) {
	return newNumericBuffer(TypeReal, size)
}

// NewIntegerBuffer creates a buffer for an integer column. Written values are
// rounded half to even.
func NewIntegerBuffer(size int) (*NumericBuffer, error) {
	return newNumericBuffer(TypeInteger, size)
}

func newNumericBuffer(t *ColumnType, size int) (*NumericBuffer, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	data := make([]float64, size)
	for i := range data {
		data[i] = math.NaN()
	}
	return &NumericBuffer{ctype: t, data: data}, nil
}

func (b *NumericBuffer) Size() int { return len(b.data) }

// Position returns the row the next SetNext writes.
func (b *NumericBuffer) Position() int { return b.position }

func (b *NumericBuffer) normalise(v float64) float64 {
	if b.ctype == TypeInteger {
		return math.RoundToEven(v)
	}
	return v
}

// Set writes v at row. NaN marks the row missing.
func (b *NumericBuffer) Set(row int, v float64) error {
	if err := b.open(); err != nil {
		return err
	}
	if err := checkRow(row, len(b.data)); err != nil {
		return err
	}
	b.data[row] = b.normalise(v)
	return nil
}

// SetNext writes v at the current position and advances it.
func (b *NumericBuffer) SetNext(v float64) error {
	if err := b.Set(b.position, v); err != nil {
		return err
	}
	b.position++
	return nil
}

// Get returns the value at row.
func (b *NumericBuffer) Get(row int) (float64, error) {
	if err := checkRow(row, len(b.data)); err != nil {
		return 0, err
	}
	return b.data[row], nil
}

func (b *NumericBuffer) ToColumn() Column {
	return b.freeze(func() Column { return newDoubleColumn(b.ctype, b.data) })
}
