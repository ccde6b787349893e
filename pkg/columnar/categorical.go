package columnar

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/intformats"
	"github.com/ajitpratap0/colframe/pkg/mapping"
	"github.com/ajitpratap0/colframe/pkg/sorting"
)

// indexed is implemented by every categorical variant. eachIndex reports the
// logical dictionary index of the n rows starting at row.
type indexed interface {
	eachIndex(row, n int, fn func(k, index int))
}

func fillIndexNumeric(b *base, src indexed, dst []float64, row, offset, stride int) error {
	n, err := b.span(len(dst), row, offset, stride)
	if err != nil {
		return err
	}
	src.eachIndex(row, n, func(k, index int) {
		if index == 0 {
			dst[offset+k*stride] = math.NaN()
		} else {
			dst[offset+k*stride] = float64(index)
		}
	})
	return nil
}

func fillIndexObjects(b *base, src indexed, dict *Dictionary, dst []any, row, offset, stride int) error {
	n, err := b.span(len(dst), row, offset, stride)
	if err != nil {
		return err
	}
	src.eachIndex(row, n, func(k, index int) {
		dst[offset+k*stride] = dict.Get(index)
	})
	return nil
}

func fillIndexRaw(b *base, src indexed, dst []int, row int) error {
	n, err := b.span(len(dst), row, 0, 1)
	if err != nil {
		return err
	}
	src.eachIndex(row, n, func(k, index int) { dst[k] = index })
	return nil
}

// logicalIndices returns the dictionary index of every row.
func logicalIndices(b *base, src indexed) []int {
	out := make([]int, b.size)
	src.eachIndex(0, b.size, func(k, index int) { out[k] = index })
	return out
}

// sortIndexed orders rows by the dictionary values their indices denote,
// using the type comparator, or by index when the type has none. Index 0 and
// indices outside the dictionary sort last.
func sortIndexed(b *base, src indexed, dict *Dictionary, order sorting.Order) []int {
	start := time.Now()
	ranks := dict.rank(b.ctype.compare)
	keys := logicalIndices(b, src)
	for i, index := range keys {
		if index <= 0 || index >= len(ranks) {
			keys[i] = -1
		} else {
			keys[i] = ranks[index]
		}
	}
	perm := sorting.Permutation(b.size, sorting.Ordered(
		func(x, y int) int { return cmp.Compare(keys[x], keys[y]) },
		func(i int) bool { return keys[i] < 0 },
		order,
	))
	observeSort(b.ctype, b.size, order, start)
	return perm
}

// packIndices stores logical indices in the narrowest format for dict.
func packIndices(indices []int, dict *Dictionary) *intformats.PackedInts {
	format, err := intformats.FindMinimal(dict.Size())
	if err != nil {
		format = intformats.SignedInt32
	}
	packed, _ := intformats.NewPackedInts(format, len(indices))
	for i, index := range indices {
		packed.Set(i, index)
	}
	return packed
}

func emptyCategorical(t *ColumnType, dict *Dictionary) *CategoricalColumn {
	return newCategoricalColumn(t, packIndices(nil, dict), dict)
}

// CategoricalColumn stores dictionary indices packed into the narrowest
// integer format that fits the dictionary.
type CategoricalColumn struct {
	base
	indices *intformats.PackedInts
	dict    *Dictionary
}

// NewCategoricalColumn creates a categorical column from dictionary indices.
// Every index must lie in [0, dict.Size()].
func NewCategoricalColumn(t *ColumnType, indices []int, dict *Dictionary) (*CategoricalColumn, error) {
	if t.category != Categorical {
		return nil, errors.Newf(errors.ErrorTypeValidation, "%s is not a categorical type", t)
	}
	for i, index := range indices {
		if index < 0 || index > dict.Size() {
			return nil, errors.Newf(errors.ErrorTypeValidation, "index %d at row %d is outside the dictionary", index, i).
				WithDetail("dictionary_size", dict.Size())
		}
	}
	return newCategoricalColumn(t, packIndices(indices, dict), dict), nil
}

func newCategoricalColumn(t *ColumnType, indices *intformats.PackedInts, dict *Dictionary) *CategoricalColumn {
	return &CategoricalColumn{base: base{ctype: t, size: indices.Len()}, indices: indices, dict: dict}
}

func (c *CategoricalColumn) eachIndex(row, n int, fn func(k, index int)) {
	for k := 0; k < n; k++ {
		fn(k, c.indices.Get(row+k))
	}
}

// Format returns the packing format of the stored indices.
func (c *CategoricalColumn) Format() intformats.Format { return c.indices.Format() }

func (c *CategoricalColumn) FillNumeric(dst []float64, row int) error {
	return fillIndexNumeric(&c.base, c, dst, row, 0, 1)
}

func (c *CategoricalColumn) FillNumericInterleaved(dst []float64, row, offset, stride int) error {
	return fillIndexNumeric(&c.base, c, dst, row, offset, stride)
}

func (c *CategoricalColumn) FillObjects(dst []any, row int) error {
	return fillIndexObjects(&c.base, c, c.dict, dst, row, 0, 1)
}

func (c *CategoricalColumn) FillObjectsInterleaved(dst []any, row, offset, stride int) error {
	return fillIndexObjects(&c.base, c, c.dict, dst, row, offset, stride)
}

// FillIndices copies raw dictionary indices starting at row.
func (c *CategoricalColumn) FillIndices(dst []int, row int) error {
	n, err := c.span(len(dst), row, 0, 1)
	if err != nil {
		return err
	}
	c.indices.Fill(dst[:n], row)
	return nil
}

func (c *CategoricalColumn) Dictionary() (*Dictionary, error) { return c.dict, nil }

func (c *CategoricalColumn) Sort(order sorting.Order) ([]int, error) {
	return sortIndexed(&c.base, c, c.dict, order), nil
}

func (c *CategoricalColumn) Rows(rows []int, preferView bool) Column {
	if mapping.IsIdentity(rows, c.size) {
		return c
	}
	if useView(preferView, len(rows)) {
		return &MappedCategoricalColumn{
			base:    base{ctype: c.ctype, size: len(rows)},
			indices: c.indices,
			mapping: slices.Clone(rows),
			dict:    c.dict,
		}
	}
	return newCategoricalColumn(c.ctype, mapping.ApplyPacked(c.indices, rows), c.dict)
}

func (c *CategoricalColumn) StripData() Column { return emptyCategorical(c.ctype, c.dict) }

func (c *CategoricalColumn) MemoryUsage() int64 { return c.indices.MemoryUsage() }

// MappedCategoricalColumn is a row view over packed indices.
type MappedCategoricalColumn struct {
	base
	indices *intformats.PackedInts
	mapping []int
	dict    *Dictionary
}

func (c *MappedCategoricalColumn) eachIndex(row, n int, fn func(k, index int)) {
	size := c.indices.Len()
	for k := 0; k < n; k++ {
		m := c.mapping[row+k]
		if m < 0 || m >= size {
			fn(k, 0)
		} else {
			fn(k, c.indices.Get(m))
		}
	}
}

func (c *MappedCategoricalColumn) FillNumeric(dst []float64, row int) error {
	return fillIndexNumeric(&c.base, c, dst, row, 0, 1)
}

func (c *MappedCategoricalColumn) FillNumericInterleaved(dst []float64, row, offset, stride int) error {
	return fillIndexNumeric(&c.base, c, dst, row, offset, stride)
}

func (c *MappedCategoricalColumn) FillObjects(dst []any, row int) error {
	return fillIndexObjects(&c.base, c, c.dict, dst, row, 0, 1)
}

func (c *MappedCategoricalColumn) FillObjectsInterleaved(dst []any, row, offset, stride int) error {
	return fillIndexObjects(&c.base, c, c.dict, dst, row, offset, stride)
}

// FillIndices copies dictionary indices starting at row.
func (c *MappedCategoricalColumn) FillIndices(dst []int, row int) error {
	return fillIndexRaw(&c.base, c, dst, row)
}

func (c *MappedCategoricalColumn) Dictionary() (*Dictionary, error) { return c.dict, nil }

func (c *MappedCategoricalColumn) Sort(order sorting.Order) ([]int, error) {
	return sortIndexed(&c.base, c, c.dict, order), nil
}

func (c *MappedCategoricalColumn) Rows(rows []int, preferView bool) Column {
	if mapping.IsIdentity(rows, c.size) {
		return c
	}
	merged := mapping.Merge(rows, c.mapping)
	if useView(preferView, len(rows)) {
		return &MappedCategoricalColumn{
			base:    base{ctype: c.ctype, size: len(merged)},
			indices: c.indices,
			mapping: merged,
			dict:    c.dict,
		}
	}
	return newCategoricalColumn(c.ctype, mapping.ApplyPacked(c.indices, merged), c.dict)
}

func (c *MappedCategoricalColumn) StripData() Column { return emptyCategorical(c.ctype, c.dict) }

func (c *MappedCategoricalColumn) MemoryUsage() int64 { return int64(len(c.mapping)) * 8 }

// RemappedCategoricalColumn reads stored indices through a translation table
// into a different dictionary. The stored indices are never rewritten.
type RemappedCategoricalColumn struct {
	base
	indices *intformats.PackedInts
	remap   []int
	dict    *Dictionary
}

func (c *RemappedCategoricalColumn) eachIndex(row, n int, fn func(k, index int)) {
	for k := 0; k < n; k++ {
		fn(k, translate(c.remap, c.indices.Get(row+k)))
	}
}

func translate(remap []int, index int) int {
	if index < 0 || index >= len(remap) {
		return 0
	}
	return remap[index]
}

func (c *RemappedCategoricalColumn) FillNumeric(dst []float64, row int) error {
	return fillIndexNumeric(&c.base, c, dst, row, 0, 1)
}

func (c *RemappedCategoricalColumn) FillNumericInterleaved(dst []float64, row, offset, stride int) error {
	return fillIndexNumeric(&c.base, c, dst, row, offset, stride)
}

func (c *RemappedCategoricalColumn) FillObjects(dst []any, row int) error {
	return fillIndexObjects(&c.base, c, c.dict, dst, row, 0, 1)
}

func (c *RemappedCategoricalColumn) FillObjectsInterleaved(dst []any, row, offset, stride int) error {
	return fillIndexObjects(&c.base, c, c.dict, dst, row, offset, stride)
}

// FillIndices copies indices into the current dictionary starting at row.
func (c *RemappedCategoricalColumn) FillIndices(dst []int, row int) error {
	return fillIndexRaw(&c.base, c, dst, row)
}

func (c *RemappedCategoricalColumn) Dictionary() (*Dictionary, error) { return c.dict, nil }

func (c *RemappedCategoricalColumn) Sort(order sorting.Order) ([]int, error) {
	return sortIndexed(&c.base, c, c.dict, order), nil
}

func (c *RemappedCategoricalColumn) Rows(rows []int, preferView bool) Column {
	if mapping.IsIdentity(rows, c.size) {
		return c
	}
	if useView(preferView, len(rows)) {
		return &RemappedMappedCategoricalColumn{
			base:    base{ctype: c.ctype, size: len(rows)},
			indices: c.indices,
			mapping: slices.Clone(rows),
			remap:   c.remap,
			dict:    c.dict,
		}
	}
	return &RemappedCategoricalColumn{
		base:    base{ctype: c.ctype, size: len(rows)},
		indices: mapping.ApplyPacked(c.indices, rows),
		remap:   c.remap,
		dict:    c.dict,
	}
}

func (c *RemappedCategoricalColumn) StripData() Column { return emptyCategorical(c.ctype, c.dict) }

func (c *RemappedCategoricalColumn) MemoryUsage() int64 {
	return c.indices.MemoryUsage() + int64(len(c.remap))*8
}

// RemappedMappedCategoricalColumn combines a row view with a dictionary
// translation table.
type RemappedMappedCategoricalColumn struct {
	base
	indices *intformats.PackedInts
	mapping []int
	remap   []int
	dict    *Dictionary
}

func (c *RemappedMappedCategoricalColumn) eachIndex(row, n int, fn func(k, index int)) {
	size := c.indices.Len()
	for k := 0; k < n; k++ {
		m := c.mapping[row+k]
		if m < 0 || m >= size {
			fn(k, 0)
		} else {
			fn(k, translate(c.remap, c.indices.Get(m)))
		}
	}
}

func (c *RemappedMappedCategoricalColumn) FillNumeric(dst []float64, row int) error {
	return fillIndexNumeric(&c.base, c, dst, row, 0, 1)
}

func (c *RemappedMappedCategoricalColumn) FillNumericInterleaved(dst []float64, row, offset, stride int) error {
	return fillIndexNumeric(&c.base, c, dst, row, offset, stride)
}

func (c *RemappedMappedCategoricalColumn) FillObjects(dst []any, row int) error {
	return fillIndexObjects(&c.base, c, c.dict, dst, row, 0, 1)
}

func (c *RemappedMappedCategoricalColumn) FillObjectsInterleaved(dst []any, row, offset, stride int) error {
	return fillIndexObjects(&c.base, c, c.dict, dst, row, offset, stride)
}

// FillIndices copies indices into the current dictionary starting at row.
func (c *RemappedMappedCategoricalColumn) FillIndices(dst []int, row int) error {
	return fillIndexRaw(&c.base, c, dst, row)
}

func (c *RemappedMappedCategoricalColumn) Dictionary() (*Dictionary, error) { return c.dict, nil }

func (c *RemappedMappedCategoricalColumn) Sort(order sorting.Order) ([]int, error) {
	return sortIndexed(&c.base, c, c.dict, order), nil
}

func (c *RemappedMappedCategoricalColumn) Rows(rows []int, preferView bool) Column {
	if mapping.IsIdentity(rows, c.size) {
		return c
	}
	merged := mapping.Merge(rows, c.mapping)
	if useView(preferView, len(rows)) {
		return &RemappedMappedCategoricalColumn{
			base:    base{ctype: c.ctype, size: len(merged)},
			indices: c.indices,
			mapping: merged,
			remap:   c.remap,
			dict:    c.dict,
		}
	}
	return &RemappedCategoricalColumn{
		base:    base{ctype: c.ctype, size: len(merged)},
		indices: mapping.ApplyPacked(c.indices, merged),
		remap:   c.remap,
		dict:    c.dict,
	}
}

func (c *RemappedMappedCategoricalColumn) StripData() Column {
	return emptyCategorical(c.ctype, c.dict)
}

func (c *RemappedMappedCategoricalColumn) MemoryUsage() int64 {
	return int64(len(c.mapping))*8 + int64(len(c.remap))*8
}

// SparseCategoricalColumn stores a default index and the rows that differ.
type SparseCategoricalColumn struct {
	base
	store sparseStore[int]
	dict  *Dictionary
}

func newSparseCategoricalColumn(t *ColumnType, store sparseStore[int], dict *Dictionary) *SparseCategoricalColumn {
	return &SparseCategoricalColumn{base: base{ctype: t, size: store.size}, store: store, dict: dict}
}

func (c *SparseCategoricalColumn) eachIndex(row, n int, fn func(k, index int)) {
	c.store.each(row, n, fn)
}

// DefaultIndex returns the dictionary index of the default value.
func (c *SparseCategoricalColumn) DefaultIndex() int { return c.store.def }

// NonDefaults returns the number of rows that differ from the default.
func (c *SparseCategoricalColumn) NonDefaults() int { return c.store.nonDefaults() }

func (c *SparseCategoricalColumn) FillNumeric(dst []float64, row int) error {
	return fillIndexNumeric(&c.base, c, dst, row, 0, 1)
}

func (c *SparseCategoricalColumn) FillNumericInterleaved(dst []float64, row, offset, stride int) error {
	return fillIndexNumeric(&c.base, c, dst, row, offset, stride)
}

func (c *SparseCategoricalColumn) FillObjects(dst []any, row int) error {
	return fillIndexObjects(&c.base, c, c.dict, dst, row, 0, 1)
}

func (c *SparseCategoricalColumn) FillObjectsInterleaved(dst []any, row, offset, stride int) error {
	return fillIndexObjects(&c.base, c, c.dict, dst, row, offset, stride)
}

// FillIndices copies dictionary indices starting at row.
func (c *SparseCategoricalColumn) FillIndices(dst []int, row int) error {
	return fillIndexRaw(&c.base, c, dst, row)
}

func (c *SparseCategoricalColumn) Dictionary() (*Dictionary, error) { return c.dict, nil }

func (c *SparseCategoricalColumn) Sort(order sorting.Order) ([]int, error) {
	return sortIndexed(&c.base, c, c.dict, order), nil
}

// Rows materialises every selection other than the identity: a sparse view
// would lose the row ordering its lookups depend on.
func (c *SparseCategoricalColumn) Rows(rows []int, preferView bool) Column {
	if mapping.IsIdentity(rows, c.size) {
		return c
	}
	useView(false, len(rows))
	return newCategoricalColumn(c.ctype, packIndices(c.store.gather(rows, 0), c.dict), c.dict)
}

func (c *SparseCategoricalColumn) StripData() Column { return emptyCategorical(c.ctype, c.dict) }

func (c *SparseCategoricalColumn) MemoryUsage() int64 {
	return int64(len(c.store.rows))*8 + int64(len(c.store.values))*8
}
