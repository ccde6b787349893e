package columnar

import (
	"github.com/ajitpratap0/colframe/pkg/errors"
)

// ChangeDictionary returns col reading its values through dict. Every value of
// the current dictionary must be present in dict. Stored indices are kept and
// translated on read.
func ChangeDictionary(col Column, dict *Dictionary) (Column, error) {
	old, err := col.Dictionary()
	if err != nil {
		return nil, err
	}
	remap, err := old.remapTo(dict)
	if err != nil {
		return nil, err
	}
	t := col.Type()

	switch c := col.(type) {
	case *CategoricalColumn:
		return &RemappedCategoricalColumn{base: c.base, indices: c.indices, remap: remap, dict: dict}, nil
	case *MappedCategoricalColumn:
		return &RemappedMappedCategoricalColumn{base: c.base, indices: c.indices, mapping: c.mapping, remap: remap, dict: dict}, nil
	case *RemappedCategoricalColumn:
		return &RemappedCategoricalColumn{base: c.base, indices: c.indices, remap: compose(c.remap, remap), dict: dict}, nil
	case *RemappedMappedCategoricalColumn:
		return &RemappedMappedCategoricalColumn{
			base: c.base, indices: c.indices, mapping: c.mapping, remap: compose(c.remap, remap), dict: dict,
		}, nil
	case *SparseCategoricalColumn:
		store := sparseStore[int]{
			size:   c.store.size,
			def:    translate(remap, c.store.def),
			rows:   c.store.rows,
			values: make([]int, len(c.store.values)),
		}
		for i, v := range c.store.values {
			store.values[i] = translate(remap, v)
		}
		return newSparseCategoricalColumn(t, store, dict), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeCapability, "cannot change the dictionary of %T", col)
	}
}

// compose chains two translation tables: first applied, then second.
func compose(first, second []int) []int {
	out := make([]int, len(first))
	for i, v := range first {
		out[i] = translate(second, v)
	}
	return out
}

// MergeDictionary returns col reading its values through a dictionary that
// starts with the values of other, followed by the values of col's dictionary
// missing from other, in their original order.
func MergeDictionary(col Column, other *Dictionary) (Column, error) {
	old, err := col.Dictionary()
	if err != nil {
		return nil, err
	}
	values := other.Values()
	old.ForEach(func(_ int, v any) {
		if other.IndexOf(v) == NoEntry {
			values = append(values, v)
		}
	})
	merged, err := NewDictionary(values)
	if err != nil {
		return nil, err
	}
	return ChangeDictionary(col, merged)
}

// CompactDictionary returns a dense copy of col whose dictionary keeps only
// the values that occur, in their original order.
func CompactDictionary(col Column) (Column, error) {
	old, err := col.Dictionary()
	if err != nil {
		return nil, err
	}
	src, ok := col.(indexed)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeCapability, "cannot compact the dictionary of %T", col)
	}
	b := &base{ctype: col.Type(), size: col.Size()}
	indices := logicalIndices(b, src)

	used := make([]bool, old.Size()+1)
	for _, index := range indices {
		if index > 0 && index < len(used) {
			used[index] = true
		}
	}
	remap := make([]int, len(used))
	values := make([]any, 0, old.Size())
	for i := 1; i < len(used); i++ {
		if used[i] {
			values = append(values, old.Get(i))
			remap[i] = len(values)
		}
	}
	dict, err := NewDictionary(values)
	if err != nil {
		return nil, err
	}
	for i, index := range indices {
		indices[i] = translate(remap, index)
	}
	return newCategoricalColumn(col.Type(), packIndices(indices, dict), dict), nil
}
