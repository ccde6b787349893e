package columnar

import (
	"slices"
	"time"

	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/mapping"
	"github.com/ajitpratap0/colframe/pkg/sorting"
)

func isNil(v any) bool { return v == nil }

func sortObjects(t *ColumnType, values []any, order sorting.Order) []int {
	start := time.Now()
	perm := sorting.Func(values, t.compare, order, isNil)
	observeSort(t, len(values), order, start)
	return perm
}

// ObjectColumn stores arbitrary values, nil marking missing.
type ObjectColumn struct {
	base
	data []any
}

// NewObjectColumn creates an object column of type t from a copy of data.
func NewObjectColumn(t *ColumnType, data []any) (*ObjectColumn, error) {
	if t.category != Object {
		return nil, errors.Newf(errors.ErrorTypeValidation, "%s is not an object type", t)
	}
	return newObjectColumn(t, slices.Clone(data)), nil
}

func newObjectColumn(t *ColumnType, data []any) *ObjectColumn {
	return &ObjectColumn{base: base{ctype: t, size: len(data)}, data: data}
}

func (c *ObjectColumn) FillObjects(dst []any, row int) error {
	return c.FillObjectsInterleaved(dst, row, 0, 1)
}

func (c *ObjectColumn) FillObjectsInterleaved(dst []any, row, offset, stride int) error {
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

func (c *ObjectColumn) Sort(order sorting.Order) ([]int, error) {
	if c.ctype.compare == nil {
		return nil, c.unsupported(Sortable)
	}
	return sortObjects(c.ctype, c.data, order), nil
}

func (c *ObjectColumn) Rows(rows []int, preferView bool) Column {
	if mapping.IsIdentity(rows, c.size) {
		return c
	}
	if useView(preferView, len(rows)) {
		return &MappedObjectColumn{base: base{ctype: c.ctype, size: len(rows)}, data: c.data, mapping: slices.Clone(rows)}
	}
	return newObjectColumn(c.ctype, mapping.ApplyObjects(c.data, rows))
}

func (c *ObjectColumn) StripData() Column { return newObjectColumn(c.ctype, []any{}) }

func (c *ObjectColumn) MemoryUsage() int64 { return int64(len(c.data)) * 16 }

// MappedObjectColumn is a row view over object storage.
type MappedObjectColumn struct {
	base
	data    []any
	mapping []int
}

func (c *MappedObjectColumn) FillObjects(dst []any, row int) error {
	return c.FillObjectsInterleaved(dst, row, 0, 1)
}

func (c *MappedObjectColumn) FillObjectsInterleaved(dst []any, row, offset, stride int) error {
	n, err := c.span(len(dst), row, offset, stride)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		m := c.mapping[row+i]
		if m < 0 || m >= len(c.data) {
			dst[offset+i*stride] = nil
		} else {
			dst[offset+i*stride] = c.data[m]
		}
	}
	return nil
}

func (c *MappedObjectColumn) Sort(order sorting.Order) ([]int, error) {
	if c.ctype.compare == nil {
		return nil, c.unsupported(Sortable)
	}
	return sortObjects(c.ctype, mapping.ApplyObjects(c.data, c.mapping), order), nil
}

func (c *MappedObjectColumn) Rows(rows []int, preferView bool) Column {
	if mapping.IsIdentity(rows, c.size) {
		return c
	}
	merged := mapping.Merge(rows, c.mapping)
	if useView(preferView, len(rows)) {
		return &MappedObjectColumn{base: base{ctype: c.ctype, size: len(merged)}, data: c.data, mapping: merged}
	}
	return newObjectColumn(c.ctype, mapping.ApplyObjects(c.data, merged))
}

func (c *MappedObjectColumn) StripData() Column { return newObjectColumn(c.ctype, []any{}) }

func (c *MappedObjectColumn) MemoryUsage() int64 { return int64(len(c.mapping)) * 8 }
