// Package columnar implements immutable typed columns and the buffers that
// build them.
//
// # Overview
//
// A Column is a fixed-size sequence of values of one ColumnType. The type's
// Category decides what can be read from it:
//
//   - Numeric columns (real, integer) are numeric-readable; NaN is missing.
//   - Categorical columns (nominal, custom dictionary types) store indices
//     into a Dictionary and are both numeric-readable (the index, NaN for
//     missing) and object-readable (the dictionary value, nil for missing).
//   - Object columns (text, text sets and lists, date-time, time of day,
//     custom objects) are object-readable; nil is missing.
//
// Numeric and categorical columns are always sortable, object columns when
// their type has a comparator.
//
// # Encodings
//
// Every domain has a dense variant and a mapped variant, a view that reads the
// dense storage through a row mapping. Categorical, date-time and time columns
// also have sparse variants storing a default plus the rows that differ.
// Categorical columns can read their indices through a translation table into
// another dictionary (ChangeDictionary, MergeDictionary) without rewriting the
// packed indices.
//
// Categorical indices are packed into 2, 4, 8, 16 or 32 bits, whichever is
// the narrowest format fitting the dictionary.
//
// # Buffers
//
// Buffers are mutable, single-writer builders. ToColumn freezes a buffer into
// its column; afterwards every mutator fails with errors.ErrorTypeState and
// ToColumn returns the same column again:
//
//	buf, _ := columnar.NewRealBuffer(5)
//	_ = buf.SetNext(1.0)
//	_ = buf.SetNext(math.NaN())
//	_ = buf.SetNext(3.0)
//	col := buf.ToColumn() // rows 3 and 4 are NaN
//
//	values := make([]float64, col.Size())
//	_ = col.FillNumeric(values, 0)
//
// Sparse buffers take writes in strictly increasing row order:
//
//	sparse, _ := columnar.NewSparseTimeBuffer(100, 100)
//	_ = sparse.SetNextAt(20, 213)
//	_ = sparse.SetNextAt(87, 0)
//	col = sparse.ToColumn()
//
// # Sorting and row selection
//
// Sort returns a permutation rather than a sorted copy. Rows applies a
// permutation or any other row selection; indices outside the column yield
// missing values:
//
//	perm, _ := col.Sort(sorting.Descending)
//	sorted := col.Rows(perm, true)
//
// With preferView set, selections of at least ViewPolicy.MinViewSize rows are
// returned as views. Selecting from a view composes the mappings, so views
// never stack. Sparse columns always copy.
package columnar
