// Package sorting computes stable sort permutations.
//
// None of the functions reorder their input. They return an index array p such
// that data[p[0]], data[p[1]], ... is sorted, which columns then apply as a row
// mapping. Missing values (NaN, sentinels, nil) are ordered last for both
// ascending and descending order: descending reverses the comparison of present
// values only, it never mirrors the resulting permutation.
package sorting

import (
	"cmp"

	"golang.org/x/exp/constraints"

	"github.com/ajitpratap0/colframe/pkg/pool"
)

// Order is the requested sort direction.
type Order int

const (
	Ascending Order = iota
	Descending
)

func (o Order) String() string {
	if o == Descending {
		return "descending"
	}
	return "ascending"
}

// insertionThreshold is the run length below which merge sort hands over to
// insertion sort.
const insertionThreshold = 32

// Permutation returns the stable permutation of 0..n-1 ordered by compare,
// which receives row indices.
func Permutation(n int, compare func(a, b int) int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	if n < 2 {
		return perm
	}
	if n < insertionThreshold {
		insertionSort(perm, 0, n, compare)
		return perm
	}

	scratch := pool.GetInts(n)
	defer pool.PutInts(scratch)
	copy(scratch, perm)
	mergeSort(scratch, perm, 0, n, compare)
	return perm
}

// mergeSort sorts dst[lo:hi]. src and dst must hold the same elements in that
// range on entry; the roles swap at every level so no copy-back is needed.
func mergeSort(src, dst []int, lo, hi int, compare func(a, b int) int) {
	if hi-lo < insertionThreshold {
		insertionSort(dst, lo, hi, compare)
		return
	}
	mid := int(uint(lo+hi) >> 1)
	mergeSort(dst, src, lo, mid, compare)
	mergeSort(dst, src, mid, hi, compare)

	// Halves already in order.
	if compare(src[mid-1], src[mid]) <= 0 {
		copy(dst[lo:hi], src[lo:hi])
		return
	}

	p, q := lo, mid
	for i := lo; i < hi; i++ {
		if q >= hi || (p < mid && compare(src[p], src[q]) <= 0) {
			dst[i] = src[p]
			p++
		} else {
			dst[i] = src[q]
			q++
		}
	}
}

func insertionSort(data []int, lo, hi int, compare func(a, b int) int) {
	for i := lo + 1; i < hi; i++ {
		for j := i; j > lo && compare(data[j-1], data[j]) > 0; j-- {
			data[j-1], data[j] = data[j], data[j-1]
		}
	}
}

// Ordered wraps compare with missing-last handling and the requested direction.
// isMissing may be nil when the domain has no missing value.
func Ordered(compare func(a, b int) int, isMissing func(i int) bool, order Order) func(a, b int) int {
	return func(a, b int) int {
		if isMissing != nil {
			ma, mb := isMissing(a), isMissing(b)
			switch {
			case ma && mb:
				return 0
			case ma:
				return 1
			case mb:
				return -1
			}
		}
		if order == Descending {
			return compare(b, a)
		}
		return compare(a, b)
	}
}

// Float64s returns the permutation sorting data, NaN last.
func Float64s(data []float64, order Order) []int {
	return Numbers(data, order)
}

// Int64s returns the permutation sorting data, with missing ordered last.
func Int64s(data []int64, order Order, missing int64) []int {
	return Permutation(len(data), Ordered(
		func(a, b int) int { return cmp.Compare(data[a], data[b]) },
		func(i int) bool { return data[i] == missing },
		order,
	))
}

// Numbers returns the permutation sorting plain numbers. For floating point
// types NaN is treated as missing.
func Numbers[T constraints.Integer | constraints.Float](data []T, order Order) []int {
	return Permutation(len(data), Ordered(
		func(a, b int) int { return cmp.Compare(data[a], data[b]) },
		func(i int) bool { return data[i] != data[i] },
		order,
	))
}

// Func returns the permutation sorting data with compare. isMissing may be nil.
// A panic raised by compare propagates to the caller unchanged.
func Func[T any](data []T, compare func(a, b T) int, order Order, isMissing func(T) bool) []int {
	var missing func(i int) bool
	if isMissing != nil {
		missing = func(i int) bool { return isMissing(data[i]) }
	}
	return Permutation(len(data), Ordered(
		func(a, b int) int { return compare(data[a], data[b]) },
		missing,
		order,
	))
}
