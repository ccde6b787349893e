package columnar

import (
	"math"
	"slices"
	"time"

	"github.com/ajitpratap0/colframe/pkg/mapping"
	"github.com/ajitpratap0/colframe/pkg/sorting"
)

// DoubleColumn stores real or integer values as float64, NaN marking missing.
type DoubleColumn struct {
	base
	data []float64
}

// NewDoubleColumn creates a real column from a copy of data.
func NewDoubleColumn(data []float64) *DoubleColumn {
	return newDoubleColumn(TypeReal, slices.Clone(data))
}

// NewIntegerColumn creates an integer column from a copy of data, rounding
// every value half to even.
func NewIntegerColumn(data []float64) *DoubleColumn {
	rounded := make([]float64, len(data))
	for i, v := range data {
		rounded[i] = math.RoundToEven(v)
	}
	return newDoubleColumn(TypeInteger, rounded)
}

func newDoubleColumn(t *ColumnType, data []float64) *DoubleColumn {
	return &DoubleColumn{base: base{ctype: t, size: len(data)}, data: data}
}

func (c *DoubleColumn) FillNumeric(dst []float64, row int) error {
	return c.FillNumericInterleaved(dst, row, 0, 1)
}

func (c *DoubleColumn) FillNumericInterleaved(dst []float64, row, offset, stride int) error {
	n, err := c.span(len(dst), row, offset, stride)
	if err != nil {
		return err
	}
	if stride == 1 {
		copy(dst[offset:offset+n], c.data[row:row+n])
		return nil
	}
	for i := 0; i < n; i++ {
		dst[offset+i*stride] = c.data[row+i]
	}
	return nil
}

func (c *DoubleColumn) Sort(order sorting.Order) ([]int, error) {
	start := time.Now()
	perm := sorting.Float64s(c.data, order)
	observeSort(c.ctype, c.size, order, start)
	return perm, nil
}

func (c *DoubleColumn) Rows(rows []int, preferView bool) Column {
	if mapping.IsIdentity(rows, c.size) {
		return c
	}
	if useView(preferView, len(rows)) {
		return newMappedDoubleColumn(c.ctype, c.data, slices.Clone(rows))
	}
	return newDoubleColumn(c.ctype, mapping.ApplyFloat64(c.data, rows))
}

func (c *DoubleColumn) StripData() Column {
	return newDoubleColumn(c.ctype, nil)
}

func (c *DoubleColumn) MemoryUsage() int64 {
	return int64(len(c.data)) * 8
}

// MappedDoubleColumn is a row view over the storage of a DoubleColumn.
type MappedDoubleColumn struct {
	base
	data    []float64
	mapping []int
}

func newMappedDoubleColumn(t *ColumnType, data []float64, m []int) *MappedDoubleColumn {
	return &MappedDoubleColumn{base: base{ctype: t, size: len(m)}, data: data, mapping: m}
}

func (c *MappedDoubleColumn) at(row int) float64 {
	m := c.mapping[row]
	if m < 0 || m >= len(c.data) {
		return math.NaN()
	}
	return c.data[m]
}

func (c *MappedDoubleColumn) FillNumeric(dst []float64, row int) error {
	return c.FillNumericInterleaved(dst, row, 0, 1)
}

func (c *MappedDoubleColumn) FillNumericInterleaved(dst []float64, row, offset, stride int) error {
	n, err := c.span(len(dst), row, offset, stride)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		dst[offset+i*stride] = c.at(row + i)
	}
	return nil
}

func (c *MappedDoubleColumn) Sort(order sorting.Order) ([]int, error) {
	start := time.Now()
	perm := sorting.Float64s(mapping.ApplyFloat64(c.data, c.mapping), order)
	observeSort(c.ctype, c.size, order, start)
	return perm, nil
}

func (c *MappedDoubleColumn) Rows(rows []int, preferView bool) Column {
	if mapping.IsIdentity(rows, c.size) {
		return c
	}
	merged := mapping.Merge(rows, c.mapping)
	if useView(preferView, len(rows)) {
		return newMappedDoubleColumn(c.ctype, c.data, merged)
	}
	return newDoubleColumn(c.ctype, mapping.ApplyFloat64(c.data, merged))
}

func (c *MappedDoubleColumn) StripData() Column {
	return newDoubleColumn(c.ctype, nil)
}

func (c *MappedDoubleColumn) MemoryUsage() int64 {
	return int64(len(c.mapping)) * 8
}
