package columnar

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/logger"
	"github.com/ajitpratap0/colframe/pkg/metrics"
	"github.com/ajitpratap0/colframe/pkg/sorting"
)

// Column is an immutable, fixed-size sequence of typed values.
//
// Reads copy a run of rows into caller-provided arrays. The interleaved forms
// write row r to dst[offset+(r-row)*stride] and stop at the end of the column or
// of dst, whichever comes first. Calls that the column's capabilities do not
// allow return an error of type errors.ErrorTypeCapability.
type Column interface {
	// Size returns the number of rows.
	Size() int
	// Type returns the column type.
	Type() *ColumnType
	// Category is shorthand for Type().Category().
	Category() Category
	// Has reports whether the column supports the capability.
	Has(c Capability) bool

	FillNumeric(dst []float64, row int) error
	FillNumericInterleaved(dst []float64, row, offset, stride int) error
	FillObjects(dst []any, row int) error
	FillObjectsInterleaved(dst []any, row, offset, stride int) error

	// Dictionary returns the dictionary of a categorical column.
	Dictionary() (*Dictionary, error)

	// Sort returns the stable permutation ordering the rows. Missing values
	// are placed last for both orders.
	Sort(order sorting.Order) ([]int, error)

	// Rows selects rows by index. Indices outside [0, Size()) produce missing
	// values. preferView allows the result to share storage with the receiver.
	// Selecting every row in order returns the receiver.
	Rows(rows []int, preferView bool) Column

	// StripData returns an empty column of the same type and dictionary.
	StripData() Column

	// MemoryUsage estimates the bytes held by the column's own arrays.
	MemoryUsage() int64
}

// base carries the fields and default behaviour shared by every variant.
// Variants override the methods their category supports.
type base struct {
	ctype *ColumnType
	size  int
}

func (b *base) Size() int          { return b.size }
func (b *base) Type() *ColumnType  { return b.ctype }
func (b *base) Category() Category { return b.ctype.category }

func (b *base) Has(c Capability) bool {
	return hasCapability(b.ctype, c)
}

func hasCapability(t *ColumnType, c Capability) bool {
	switch c {
	case NumericReadable:
		return t.category != Object
	case ObjectReadable:
		return t.category != Numeric
	case Sortable:
		return t.category != Object || t.compare != nil
	default:
		return false
	}
}

func (b *base) unsupported(c Capability) *errors.Error {
	return errors.Newf(errors.ErrorTypeCapability, "%s column is not %s", b.ctype, c).
		WithDetail("type", b.ctype.String()).
		WithDetail("capability", c.String())
}

func (b *base) FillNumeric([]float64, int) error {
	return b.unsupported(NumericReadable)
}

func (b *base) FillNumericInterleaved([]float64, int, int, int) error {
	return b.unsupported(NumericReadable)
}

func (b *base) FillObjects([]any, int) error {
	return b.unsupported(ObjectReadable)
}

func (b *base) FillObjectsInterleaved([]any, int, int, int) error {
	return b.unsupported(ObjectReadable)
}

func (b *base) Dictionary() (*Dictionary, error) {
	return nil, errors.Newf(errors.ErrorTypeCapability, "%s column has no dictionary", b.ctype).
		WithDetail("type", b.ctype.String())
}

func (b *base) Sort(sorting.Order) ([]int, error) {
	return nil, b.unsupported(Sortable)
}

// span validates a fill request and returns the number of rows to copy.
func (b *base) span(dstLen, row, offset, stride int) (int, error) {
	if stride < 1 {
		return 0, errors.Newf(errors.ErrorTypeValidation, "illegal stride %d", stride)
	}
	if offset < 0 {
		return 0, errors.Newf(errors.ErrorTypeValidation, "illegal offset %d", offset)
	}
	if row < 0 || row > b.size {
		return 0, errors.Newf(errors.ErrorTypeBounds, "row %d out of bounds for size %d", row, b.size)
	}
	slots := 0
	if dstLen > offset {
		slots = (dstLen - offset + stride - 1) / stride
	}
	return min(slots, b.size-row), nil
}

// ViewPolicy decides when Rows may return a view instead of a copy.
type ViewPolicy struct {
	// MinViewSize is the smallest selection returned as a view when the
	// caller prefers one. Smaller selections are always copied.
	MinViewSize int `yaml:"min_view_size" json:"min_view_size"`
}

// DefaultViewPolicy is the policy in effect until SetViewPolicy is called.
var DefaultViewPolicy = ViewPolicy{MinViewSize: 1024}

var viewPolicy atomic.Pointer[ViewPolicy]

func init() {
	p := DefaultViewPolicy
	viewPolicy.Store(&p)
}

// SetViewPolicy installs p for all subsequent row selections.
func SetViewPolicy(p ViewPolicy) error {
	if p.MinViewSize < 0 {
		return errors.Newf(errors.ErrorTypeValidation, "negative minimum view size %d", p.MinViewSize)
	}
	viewPolicy.Store(&p)
	return nil
}

// CurrentViewPolicy returns the active policy.
func CurrentViewPolicy() ViewPolicy {
	return *viewPolicy.Load()
}

// useView applies the active policy to a selection of n rows.
func useView(preferView bool, n int) bool {
	view := preferView && n >= viewPolicy.Load().MinViewSize
	if view {
		metrics.RowSelections.WithLabelValues("view").Inc()
	} else {
		metrics.RowSelections.WithLabelValues("copy").Inc()
	}
	return view
}

// largeSort is the size from which sorts are logged.
const largeSort = 1 << 20

func observeSort(t *ColumnType, n int, order sorting.Order, start time.Time) {
	elapsed := time.Since(start)
	metrics.SortDuration.WithLabelValues(t.String()).Observe(float64(elapsed.Nanoseconds()))
	if n >= largeSort {
		logger.Debug("sorted column",
			zap.String("type", t.String()),
			zap.Int("rows", n),
			zap.Stringer("order", order),
			zap.Duration("duration", elapsed))
	}
}
