// Package mapping applies and composes row index mappings.
//
// A mapping is an []int where entry i names the source row for result row i.
// Entries outside the source range are not errors: they produce the domain's
// missing value, which lets mappings describe supersets and deleted rows.
package mapping

import (
	"math"

	"github.com/ajitpratap0/colframe/pkg/intformats"
)

// Apply returns data reordered by mapping, with missing for out-of-range entries.
func Apply[T any](data []T, mapping []int, missing T) []T {
	result := make([]T, len(mapping))
	n := len(data)
	for i, m := range mapping {
		if m >= 0 && m < n {
			result[i] = data[m]
		} else {
			result[i] = missing
		}
	}
	return result
}

// ApplyFloat64 applies mapping to doubles, using NaN for missing rows.
func ApplyFloat64(data []float64, mapping []int) []float64 {
	return Apply(data, mapping, math.NaN())
}

// ApplyInt64 applies mapping to longs, using the given sentinel for missing rows.
func ApplyInt64(data []int64, mapping []int, missing int64) []int64 {
	return Apply(data, mapping, missing)
}

// ApplyObjects applies mapping to boxed values, using nil for missing rows.
func ApplyObjects(data []any, mapping []int) []any {
	return Apply(data, mapping, nil)
}

// ApplyPacked applies mapping to packed dictionary indices. Missing rows get
// index 0. The result keeps the source format.
func ApplyPacked(data *intformats.PackedInts, mapping []int) *intformats.PackedInts {
	result, _ := intformats.NewPackedInts(data.Format(), len(mapping))
	n := data.Len()
	for i, m := range mapping {
		if m >= 0 && m < n {
			result.Set(i, data.Get(m))
		}
	}
	return result
}

// Merge composes two mappings so that applying the result equals applying
// second and then first: result[i] = second[first[i]], or -1 when first[i] is
// outside second.
func Merge(first, second []int) []int {
	result := make([]int, len(first))
	n := len(second)
	for i, f := range first {
		if f >= 0 && f < n {
			result[i] = second[f]
		} else {
			result[i] = -1
		}
	}
	return result
}

// Identity returns the mapping 0..n-1.
func Identity(n int) []int {
	m := make([]int, n)
	for i := range m {
		m[i] = i
	}
	return m
}

// IsIdentity reports whether m selects every row of an n-row source in order.
func IsIdentity(m []int, n int) bool {
	if len(m) != n {
		return false
	}
	for i, v := range m {
		if v != i {
			return false
		}
	}
	return true
}
