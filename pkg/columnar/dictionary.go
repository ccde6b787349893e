package columnar

import (
	"reflect"
	"slices"

	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/sorting"
)

// NoEntry marks an absent polarity in a boolean dictionary and a value that
// is not in a dictionary.
const NoEntry = -1

// Dictionary maps the indices stored by categorical columns to their values.
// Index 0 always denotes the missing value; real values use 1..Size().
// Dictionaries are immutable and shared freely between columns.
type Dictionary struct {
	values []any // values[0] is nil
	lookup map[any]int

	boolean  bool
	positive int
}

// NewDictionary creates a dictionary with the given values at indices 1..n.
// Values must be unique, non-nil and comparable.
func NewDictionary(values []any) (*Dictionary, error) {
	d := &Dictionary{
		values:   make([]any, 1, len(values)+1),
		lookup:   make(map[any]int, len(values)),
		positive: NoEntry,
	}
	for _, v := range values {
		if v == nil {
			return nil, errors.New(errors.ErrorTypeValidation, "dictionary values must not be nil")
		}
		if !reflect.TypeOf(v).Comparable() {
			return nil, errors.Newf(errors.ErrorTypeValidation, "dictionary value of type %T is not comparable", v)
		}
		if _, dup := d.lookup[v]; dup {
			return nil, errors.Newf(errors.ErrorTypeValidation, "duplicate dictionary value %v", v)
		}
		d.lookup[v] = len(d.values)
		d.values = append(d.values, v)
	}
	return d, nil
}

// emptyDictionary holds no values.
func emptyDictionary() *Dictionary {
	d, _ := NewDictionary(nil)
	return d
}

// Size returns the number of real values.
func (d *Dictionary) Size() int { return len(d.values) - 1 }

// Get returns the value at index, or nil for 0 and out-of-range indices.
func (d *Dictionary) Get(index int) any {
	if index <= 0 || index >= len(d.values) {
		return nil
	}
	return d.values[index]
}

// IndexOf returns the index of v, 0 for nil, or NoEntry when v is absent.
func (d *Dictionary) IndexOf(v any) int {
	if v == nil {
		return 0
	}
	if !reflect.TypeOf(v).Comparable() {
		return NoEntry
	}
	if i, ok := d.lookup[v]; ok {
		return i
	}
	return NoEntry
}

// Values returns a copy of the real values in index order.
func (d *Dictionary) Values() []any {
	return slices.Clone(d.values[1:])
}

// ForEach calls fn for every real value in index order.
func (d *Dictionary) ForEach(fn func(index int, value any)) {
	for i := 1; i < len(d.values); i++ {
		fn(i, d.values[i])
	}
}

// Equal reports whether both dictionaries hold the same values at the same
// indices.
func (d *Dictionary) Equal(other *Dictionary) bool {
	if d == other {
		return true
	}
	if other == nil || len(d.values) != len(other.values) || d.boolean != other.boolean || d.positive != other.positive {
		return false
	}
	for i := 1; i < len(d.values); i++ {
		if d.values[i] != other.values[i] {
			return false
		}
	}
	return true
}

// ToBoolean returns a boolean view of a dictionary with at most two values.
// positive names the value treated as true; pass nil when only a negative
// value exists.
func (d *Dictionary) ToBoolean(positive any) (*Dictionary, error) {
	if d.Size() > 2 {
		return nil, errors.Newf(errors.ErrorTypeValidation, "boolean dictionary needs at most 2 values, has %d", d.Size())
	}
	pos := NoEntry
	if positive != nil {
		pos = d.IndexOf(positive)
		if pos == NoEntry {
			return nil, errors.Newf(errors.ErrorTypeValidation, "positive value %v is not in the dictionary", positive)
		}
	} else if d.Size() == 2 {
		return nil, errors.New(errors.ErrorTypeValidation, "a dictionary with 2 values needs a positive value")
	}
	return &Dictionary{
		values:   d.values,
		lookup:   d.lookup,
		boolean:  true,
		positive: pos,
	}, nil
}

// IsBoolean reports whether the dictionary was created by ToBoolean.
func (d *Dictionary) IsBoolean() bool { return d.boolean }

// PositiveIndex returns the index of the positive value, or NoEntry.
func (d *Dictionary) PositiveIndex() int {
	if !d.boolean {
		return NoEntry
	}
	return d.positive
}

// NegativeIndex returns the index of the negative value, or NoEntry.
func (d *Dictionary) NegativeIndex() int {
	if !d.boolean {
		return NoEntry
	}
	for i := 1; i < len(d.values); i++ {
		if i != d.positive {
			return i
		}
	}
	return NoEntry
}

// remapTo returns the index translation from d into target. Every value of d
// must exist in target.
func (d *Dictionary) remapTo(target *Dictionary) ([]int, error) {
	remap := make([]int, len(d.values))
	for i := 1; i < len(d.values); i++ {
		j := target.IndexOf(d.values[i])
		if j == NoEntry {
			return nil, errors.Newf(errors.ErrorTypeValidation, "value %v is missing from the new dictionary", d.values[i])
		}
		remap[i] = j
	}
	return remap, nil
}

// rank assigns each index a sort key consistent with compare. Values that
// compare equal share a rank. Index 0 keeps rank 0 and is handled by callers.
func (d *Dictionary) rank(compare Comparator) []int {
	ranks := make([]int, len(d.values))
	if compare == nil {
		for i := range ranks {
			ranks[i] = i
		}
		return ranks
	}
	order := sorting.Func(d.values[1:], compare, sorting.Ascending, nil)
	for i := range order {
		order[i]++
	}
	r := 0
	for i, idx := range order {
		if i == 0 || compare(d.values[order[i-1]], d.values[idx]) != 0 {
			r++
		}
		ranks[idx] = r
	}
	return ranks
}

func (d *Dictionary) memoryUsage() int64 {
	return int64(len(d.values)) * 16
}
