package columnar

import (
	"slices"

	"github.com/ajitpratap0/colframe/pkg/errors"
)

// sparseStore holds a default value and the rows that differ from it.
// rows is strictly increasing.
type sparseStore[T any] struct {
	size   int
	def    T
	rows   []int
	values []T
}

func (s *sparseStore[T]) at(row int) T {
	if i, found := slices.BinarySearch(s.rows, row); found {
		return s.values[i]
	}
	return s.def
}

// each calls fn(k, value) for the n rows starting at row, walking the
// overrides with a cursor instead of searching every row.
func (s *sparseStore[T]) each(row, n int, fn func(k int, v T)) {
	cursor, _ := slices.BinarySearch(s.rows, row)
	for k := 0; k < n; k++ {
		r := row + k
		if cursor < len(s.rows) && s.rows[cursor] == r {
			fn(k, s.values[cursor])
			cursor++
		} else {
			fn(k, s.def)
		}
	}
}

// gather returns the values of the selected rows, missing for rows outside
// the store.
func (s *sparseStore[T]) gather(rows []int, missing T) []T {
	out := make([]T, len(rows))
	for i, r := range rows {
		if r < 0 || r >= s.size {
			out[i] = missing
		} else {
			out[i] = s.at(r)
		}
	}
	return out
}

// dense expands the store into one value per row.
func (s *sparseStore[T]) dense() []T {
	out := make([]T, s.size)
	s.each(0, s.size, func(k int, v T) { out[k] = v })
	return out
}

func (s *sparseStore[T]) nonDefaults() int { return len(s.rows) }

// sparseBuilder accumulates overrides for a sparse buffer. Writes must target
// strictly increasing rows; writes equal to the default advance the row
// cursor without being stored.
type sparseBuilder[T comparable] struct {
	sparseStore[T]
	last int
}

// minSparseCapacity is the override capacity allocated on first growth.
const minSparseCapacity = 16

func newSparseBuilder[T comparable](size int, def T) (*sparseBuilder[T], error) {
	if size < 0 {
		return nil, errors.Newf(errors.ErrorTypeValidation, "illegal buffer size %d", size)
	}
	return &sparseBuilder[T]{
		sparseStore: sparseStore[T]{size: size, def: def},
		last:        -1,
	}, nil
}

// check validates a write at row without mutating the builder.
func (b *sparseBuilder[T]) check(row int) error {
	if row < 0 || row >= b.size {
		return errors.Newf(errors.ErrorTypeBounds, "row %d out of bounds for size %d", row, b.size)
	}
	if row <= b.last {
		return errors.Newf(errors.ErrorTypeValidation, "row %d must be greater than the last written row %d", row, b.last).
			WithDetail("row", row).
			WithDetail("last", b.last)
	}
	return nil
}

// set records v at row. The caller has already run check.
func (b *sparseBuilder[T]) set(row int, v T) {
	b.last = row
	if v == b.def {
		return
	}
	if len(b.rows) == cap(b.rows) {
		grow := max(minSparseCapacity, cap(b.rows))
		b.rows = slices.Grow(b.rows, grow)
		b.values = slices.Grow(b.values, grow)
	}
	b.rows = append(b.rows, row)
	b.values = append(b.values, v)
}

// next returns the row a sequential write lands on.
func (b *sparseBuilder[T]) next() int { return b.last + 1 }

// freeze returns the accumulated store, trimmed to its length.
func (b *sparseBuilder[T]) freeze() sparseStore[T] {
	return sparseStore[T]{
		size:   b.size,
		def:    b.def,
		rows:   slices.Clip(b.rows),
		values: slices.Clip(b.values),
	}
}
