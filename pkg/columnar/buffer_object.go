package columnar

import (
	"github.com/ajitpratap0/colframe/pkg/errors"
)

// ObjectBuffer builds object columns of element type T. Unwritten rows are
// missing.
type ObjectBuffer[T any] struct {
	freezer
	ctype    *ColumnType
	data     []any
	position int
}

// NewObjectBuffer creates a buffer for an object column of type t.
func NewObjectBuffer[T any](t *ColumnType, size int) (*ObjectBuffer[T], error) {
	if t.category != Object {
		return nil, errors.Newf(errors.ErrorTypeValidation, "%s is not an object type", t)
	}
	if err := checkSize(size); err != nil {
		return nil, err
	}
	return &ObjectBuffer[T]{ctype: t, data: make([]any, size)}, nil
}

// NewTextBuffer creates a buffer for a text column.
func NewTextBuffer(size int) (*ObjectBuffer[string], error) {
	return NewObjectBuffer[string](TypeText, size)
}

// NewTextSetBuffer creates a buffer for a text-set column.
func NewTextSetBuffer(size int) (*ObjectBuffer[TextSet], error) {
	return NewObjectBuffer[TextSet](TypeTextSet, size)
}

// NewTextListBuffer creates a buffer for a text-list column.
func NewTextListBuffer(size int) (*ObjectBuffer[TextList], error) {
	return NewObjectBuffer[TextList](TypeTextList, size)
}

func (b *ObjectBuffer[T]) Size() int { return len(b.data) }

// Position returns the row the next SetNext call writes.
func (b *ObjectBuffer[T]) Position() int { return b.position }

// Set writes v at row.
func (b *ObjectBuffer[T]) Set(row int, v T) error {
	return b.store(row, v)
}

// SetMissing marks row missing.
func (b *ObjectBuffer[T]) SetMissing(row int) error {
	return b.store(row, nil)
}

func (b *ObjectBuffer[T]) store(row int, v any) error {
	if err := b.open(); err != nil {
		return err
	}
	if err := checkRow(row, len(b.data)); err != nil {
		return err
	}
	b.data[row] = v
	return nil
}

// SetNext writes v at the current position and advances it.
func (b *ObjectBuffer[T]) SetNext(v T) error {
	if err := b.Set(b.position, v); err != nil {
		return err
	}
	b.position++
	return nil
}

// SetNextMissing marks the current position missing and advances it.
func (b *ObjectBuffer[T]) SetNextMissing() error {
	if err := b.SetMissing(b.position); err != nil {
		return err
	}
	b.position++
	return nil
}

// Get returns the value at row; ok is false for missing rows.
func (b *ObjectBuffer[T]) Get(row int) (v T, ok bool, err error) {
	if err := checkRow(row, len(b.data)); err != nil {
		return v, false, err
	}
	v, ok = b.data[row].(T)
	return v, ok, nil
}

func (b *ObjectBuffer[T]) ToColumn() Column {
	return b.freeze(func() Column { return newObjectColumn(b.ctype, b.data) })
}
