package columnar

import (
	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/intformats"
)

// categories assigns dictionary indices to distinct values in first-seen
// order, starting at 1.
type categories[T comparable] struct {
	values []T
	lookup map[T]int
	limit  int
}

func newCategories[T comparable](limit int) categories[T] {
	return categories[T]{lookup: make(map[T]int), limit: limit}
}

// index returns the index of v, adding it when absent. ok is false when v is
// new and the limit is reached.
func (c *categories[T]) index(v T) (int, bool) {
	if i, found := c.lookup[v]; found {
		return i, true
	}
	if len(c.values) >= c.limit {
		return 0, false
	}
	c.values = append(c.values, v)
	i := len(c.values)
	c.lookup[v] = i
	return i, true
}

func (c *categories[T]) dictionary() *Dictionary {
	values := make([]any, len(c.values))
	for i, v := range c.values {
		values[i] = v
	}
	dict, err := NewDictionary(values)
	if err != nil {
		// values are distinct comparable keys of lookup
		panic(err)
	}
	return dict
}

func (c *categories[T]) get(index int) (T, bool) {
	var zero T
	if index <= 0 || index > len(c.values) {
		return zero, false
	}
	return c.values[index-1], true
}

func capacityError(format intformats.Format, v any) *errors.Error {
	return errors.Newf(errors.ErrorTypeValidation, "format %s cannot hold another category %v", format, v).
		WithDetail("format", format.String()).
		WithDetail("max_categories", format.MaxValue())
}

// CategoricalBuffer builds a dictionary-encoded column, storing indices in a
// requested packing format. Unwritten rows are missing.
type CategoricalBuffer[T comparable] struct {
	freezer
	ctype      *ColumnType
	indices    *intformats.PackedInts
	categories categories[T]
	position   int
}

// NewCategoricalBuffer creates a buffer of the given categorical type whose
// dictionary may grow to format.MaxValue() values.
func NewCategoricalBuffer[T comparable](t *ColumnType, size int, format intformats.Format) (*CategoricalBuffer[T], error) {
	if t.category != Categorical {
		return nil, errors.Newf(errors.ErrorTypeValidation, "%s is not a categorical type", t)
	}
	if err := checkSize(size); err != nil {
		return nil, err
	}
	indices, err := intformats.NewPackedInts(format, size)
	if err != nil {
		return nil, err
	}
	return &CategoricalBuffer[T]{
		ctype:      t,
		indices:    indices,
		categories: newCategories[T](format.MaxValue()),
	}, nil
}

// NewNominalBuffer creates a buffer for a nominal string column.
func NewNominalBuffer(size int, format intformats.Format) (*CategoricalBuffer[string], error) {
	return NewCategoricalBuffer[string](TypeNominal, size, format)
}

func (b *CategoricalBuffer[T]) Size() int { return b.indices.Len() }

// Position returns the row the next SetNext call writes.
func (b *CategoricalBuffer[T]) Position() int { return b.position }

// Format returns the narrowest format that fits the current dictionary.
func (b *CategoricalBuffer[T]) Format() intformats.Format {
	f, _ := intformats.FindMinimal(len(b.categories.values))
	return f
}

// RequestedFormat returns the storage format chosen at construction.
func (b *CategoricalBuffer[T]) RequestedFormat() intformats.Format { return b.indices.Format() }

// DictionarySize returns the number of distinct values written so far.
func (b *CategoricalBuffer[T]) DictionarySize() int { return len(b.categories.values) }

// Set writes v at row. It fails when v would exceed the capacity of the
// requested format.
func (b *CategoricalBuffer[T]) Set(row int, v T) error {
	ok, err := b.SetSave(row, v)
	if err != nil {
		return err
	}
	if !ok {
		return capacityError(b.indices.Format(), v)
	}
	return nil
}

// SetSave writes v at row and reports false, leaving the buffer unchanged,
// when v would exceed the capacity of the requested format.
func (b *CategoricalBuffer[T]) SetSave(row int, v T) (bool, error) {
	if err := b.open(); err != nil {
		return false, err
	}
	if err := checkRow(row, b.indices.Len()); err != nil {
		return false, err
	}
	index, ok := b.categories.index(v)
	if !ok {
		return false, nil
	}
	b.indices.Set(row, index)
	return true, nil
}

// SetMissing marks row missing.
func (b *CategoricalBuffer[T]) SetMissing(row int) error {
	if err := b.open(); err != nil {
		return err
	}
	if err := checkRow(row, b.indices.Len()); err != nil {
		return err
	}
	b.indices.Set(row, 0)
	return nil
}

// SetNext writes v at the current position and advances it.
func (b *CategoricalBuffer[T]) SetNext(v T) error {
	if err := b.Set(b.position, v); err != nil {
		return err
	}
	b.position++
	return nil
}

// SetNextMissing marks the current position missing and advances it.
func (b *CategoricalBuffer[T]) SetNextMissing() error {
	if err := b.SetMissing(b.position); err != nil {
		return err
	}
	b.position++
	return nil
}

// Get returns the value at row; ok is false for missing rows.
func (b *CategoricalBuffer[T]) Get(row int) (v T, ok bool, err error) {
	if err := checkRow(row, b.indices.Len()); err != nil {
		return v, false, err
	}
	v, ok = b.categories.get(b.indices.Get(row))
	return v, ok, nil
}

// ToColumn freezes the buffer, repacking indices into the narrowest format.
func (b *CategoricalBuffer[T]) ToColumn() Column {
	return b.freeze(func() Column {
		indices := b.indices
		if f := b.Format(); f != indices.Format() {
			indices = indices.Repack(f)
		}
		return newCategoricalColumn(b.ctype, indices, b.categories.dictionary())
	})
}

// SparseCategoricalBuffer builds a sparse categorical column. Rows must be
// written in strictly increasing order; unwritten rows take the default.
type SparseCategoricalBuffer[T comparable] struct {
	freezer
	ctype      *ColumnType
	builder    *sparseBuilder[int]
	categories categories[T]
}

// NewSparseCategoricalBuffer creates a sparse buffer whose default is def.
func NewSparseCategoricalBuffer[T comparable](t *ColumnType, size int, def T) (*SparseCategoricalBuffer[T], error) {
	b, err := newSparseCategoricalBuffer[T](t, size)
	if err != nil {
		return nil, err
	}
	index, _ := b.categories.index(def)
	b.builder.def = index
	return b, nil
}

// NewSparseCategoricalBufferMissingDefault creates a sparse buffer whose
// default is the missing value.
func NewSparseCategoricalBufferMissingDefault[T comparable](t *ColumnType, size int) (*SparseCategoricalBuffer[T], error) {
	return newSparseCategoricalBuffer[T](t, size)
}

func newSparseCategoricalBuffer[T comparable](t *ColumnType, size int) (*SparseCategoricalBuffer[T], error) {
	if t.category != Categorical {
		return nil, errors.Newf(errors.ErrorTypeValidation, "%s is not a categorical type", t)
	}
	builder, err := newSparseBuilder(size, 0)
	if err != nil {
		return nil, err
	}
	return &SparseCategoricalBuffer[T]{
		ctype:      t,
		builder:    builder,
		categories: newCategories[T](intformats.SignedInt32.MaxValue()),
	}, nil
}

func (b *SparseCategoricalBuffer[T]) Size() int { return b.builder.size }

// NonDefaults returns the number of stored rows that differ from the default.
func (b *SparseCategoricalBuffer[T]) NonDefaults() int { return b.builder.nonDefaults() }

// DictionarySize returns the number of distinct values including the default.
func (b *SparseCategoricalBuffer[T]) DictionarySize() int { return len(b.categories.values) }

// SetNextAt writes v at row.
func (b *SparseCategoricalBuffer[T]) SetNextAt(row int, v T) error {
	if err := b.open(); err != nil {
		return err
	}
	if err := b.builder.check(row); err != nil {
		return err
	}
	index, ok := b.categories.index(v)
	if !ok {
		return capacityError(intformats.SignedInt32, v)
	}
	b.builder.set(row, index)
	return nil
}

// SetNextMissingAt marks row missing.
func (b *SparseCategoricalBuffer[T]) SetNextMissingAt(row int) error {
	if err := b.open(); err != nil {
		return err
	}
	if err := b.builder.check(row); err != nil {
		return err
	}
	b.builder.set(row, 0)
	return nil
}

// SetNext writes v at the row after the last written one.
func (b *SparseCategoricalBuffer[T]) SetNext(v T) error {
	return b.SetNextAt(b.builder.next(), v)
}

func (b *SparseCategoricalBuffer[T]) ToColumn() Column {
	return b.freeze(func() Column {
		return newSparseCategoricalColumn(b.ctype, b.builder.freeze(), b.categories.dictionary())
	})
}
