// Package colframe provides immutable, typed, fixed-size columns for tabular
// data, together with the buffers that build them.
//
// A column has a type, a category and a set of capabilities. Values are read
// in bulk into caller arrays, either contiguously or interleaved, so that a
// row-major table can be filled from several columns without intermediate
// copies. Rows can be selected by index as lazy views or as compact copies,
// sorted stably with missing values last, and categorical dictionaries can be
// replaced, merged and compacted.
//
// # Architecture
//
// Columns are built once and never change:
//
//  1. A buffer of fixed size receives values by row or sequentially, or in
//     raw chunks of native-endian arrays.
//  2. Freezing the buffer yields the column. The buffer rejects every
//     mutation afterwards.
//  3. Columns share storage freely. Selecting rows may wrap the parent
//     column instead of copying, depending on the view policy.
//
// # Quick Start
//
//	buf, err := columnar.NewRealBuffer(3)
//	if err != nil {
//		return err
//	}
//	_ = buf.SetNext(2.5)
//	_ = buf.SetNext(math.NaN()) // missing
//	_ = buf.SetNext(-1)
//	col := buf.ToColumn()
//
//	perm, _ := col.Sort(sorting.Ascending)
//	sorted := col.Rows(perm, true)
//
//	out := make([]float64, sorted.Size())
//	_ = sorted.FillNumeric(out, 0) // [-1 2.5 NaN]
//
// # Key Packages
//
//	pkg/columnar      - Column types, variants and buffers
//	pkg/intformats    - Packed integer formats for categorical indices
//	pkg/sorting       - Stable permutations with missing values last
//	pkg/mapping       - Row index mappings
//	pkg/execution     - Work pools running column construction concurrently
//	pkg/ingest        - Compressed chunk streams feeding buffers
//	pkg/compression   - Frame codecs (snappy, s2, lz4, zstd, gzip)
//	pkg/arrowconv     - Conversion to and from Apache Arrow arrays
//	pkg/config        - YAML configuration with environment substitution
//	pkg/errors        - Structured, typed errors
//	pkg/logger        - Structured logging
//	pkg/metrics       - Prometheus series
//	pkg/observability - OpenTelemetry tracing
//
// # Command Line
//
//	colframe encode prices.txt --layout real
//	colframe ingest prices.frames --layout real --rows 100000
//	colframe bench --rows 1000000 --columns 8
package colframe
