package arrowconv

import (
	"math"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colframe/pkg/columnar"
	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/intformats"
)

// convert runs ToArrow with a checked allocator and releases the array when
// the test ends.
func convert(t *testing.T, col columnar.Column) arrow.Array {
	t.Helper()
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	arr, err := ToArrow(col, mem)
	require.NoError(t, err)
	t.Cleanup(func() {
		arr.Release()
		mem.AssertSize(t, 0)
	})
	return arr
}

func readObjects(t *testing.T, col columnar.Column) []any {
	t.Helper()
	out := make([]any, col.Size())
	require.NoError(t, col.FillObjects(out, 0))
	return out
}

func TestRealRoundTrip(t *testing.T) {
	col := columnar.NewDoubleColumn([]float64{1.5, math.NaN(), -3})
	arr := convert(t, col)

	floats, ok := arr.(*array.Float64)
	require.True(t, ok)
	assert.Equal(t, 3, floats.Len())
	assert.Equal(t, 1, floats.NullN())
	assert.True(t, floats.IsNull(1))
	assert.Equal(t, -3.0, floats.Value(2))

	back, err := FromArrow(arr)
	require.NoError(t, err)
	assert.Equal(t, columnar.TypeReal, back.Type())
	got := make([]float64, 3)
	require.NoError(t, back.FillNumeric(got, 0))
	assert.Equal(t, 1.5, got[0])
	assert.True(t, math.IsNaN(got[1]))
	assert.Equal(t, -3.0, got[2])
}

func TestIntegerRoundTrip(t *testing.T) {
	col := columnar.NewIntegerColumn([]float64{7, math.NaN(), -2})
	arr := convert(t, col)

	ints, ok := arr.(*array.Int64)
	require.True(t, ok)
	assert.Equal(t, int64(7), ints.Value(0))
	assert.True(t, ints.IsNull(1))
	assert.Equal(t, int64(-2), ints.Value(2))

	back, err := FromArrow(arr)
	require.NoError(t, err)
	assert.Equal(t, columnar.TypeInteger, back.Type())
}

func TestNominalRoundTrip(t *testing.T) {
	buf, err := columnar.NewNominalBuffer(5, intformats.UnsignedInt8)
	require.NoError(t, err)
	for _, v := range []string{"red", "green", "", "red", "blue"} {
		if v == "" {
			require.NoError(t, buf.SetNextMissing())
		} else {
			require.NoError(t, buf.SetNext(v))
		}
	}
	col := buf.ToColumn()
	arr := convert(t, col)

	dict, ok := arr.(*array.Dictionary)
	require.True(t, ok)
	assert.True(t, arrow.TypeEqual(NominalType, dict.DataType()))
	assert.Equal(t, 1, dict.NullN())
	values := dict.Dictionary().(*array.String)
	assert.Equal(t, "red", values.Value(dict.GetValueIndex(0)))
	assert.Equal(t, "blue", values.Value(dict.GetValueIndex(4)))

	back, err := FromArrow(arr)
	require.NoError(t, err)
	assert.Equal(t, columnar.TypeNominal, back.Type())
	assert.Equal(t, []any{"red", "green", nil, "red", "blue"}, readObjects(t, back))
}

func TestDateTimeRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		subSecond bool
		unit      arrow.TimeUnit
		values    []time.Time
	}{
		{"seconds", false, arrow.Second, []time.Time{time.Unix(0, 0), time.Unix(1700000000, 0)}},
		{"nanos", true, arrow.Nanosecond, []time.Time{time.Unix(0, 5), time.Unix(1700000000, 999)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := columnar.NewDateTimeBuffer(3, tt.subSecond)
			require.NoError(t, err)
			require.NoError(t, buf.SetNext(tt.values[0]))
			require.NoError(t, buf.SetNextMissing())
			require.NoError(t, buf.SetNext(tt.values[1]))
			arr := convert(t, buf.ToColumn())

			ts, ok := arr.(*array.Timestamp)
			require.True(t, ok)
			assert.Equal(t, tt.unit, ts.DataType().(*arrow.TimestampType).Unit)
			assert.True(t, ts.IsNull(1))

			back, err := FromArrow(arr)
			require.NoError(t, err)
			assert.Equal(t, []any{tt.values[0].UTC(), nil, tt.values[1].UTC()}, readObjects(t, back))
		})
	}
}

func TestDateTimeOutsideNanosecondRange(t *testing.T) {
	col, err := columnar.NewDateTimeColumn([]int64{math.MaxInt64 / int64(time.Second)}, []int32{0})
	require.NoError(t, err)
	_, err = ToArrow(col, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestTimeRoundTrip(t *testing.T) {
	col, err := columnar.NewTimeColumn([]int64{int64(time.Hour), columnar.MissingTime})
	require.NoError(t, err)
	arr := convert(t, col)

	times, ok := arr.(*array.Time64)
	require.True(t, ok)
	assert.Equal(t, arrow.Time64(time.Hour), times.Value(0))
	assert.True(t, times.IsNull(1))

	back, err := FromArrow(arr)
	require.NoError(t, err)
	assert.Equal(t, []any{time.Hour, nil}, readObjects(t, back))
}

func TestTime64Microseconds(t *testing.T) {
	b := array.NewTime64Builder(memory.DefaultAllocator, &arrow.Time64Type{Unit: arrow.Microsecond})
	defer b.Release()
	b.Append(arrow.Time64(1500))
	arr := b.NewArray()
	defer arr.Release()

	col, err := FromArrow(arr)
	require.NoError(t, err)
	assert.Equal(t, []any{1500 * time.Microsecond}, readObjects(t, col))
}

func TestTextRoundTrip(t *testing.T) {
	buf, err := columnar.NewTextBuffer(2)
	require.NoError(t, err)
	require.NoError(t, buf.Set(0, "hello"))
	arr := convert(t, buf.ToColumn())

	strs, ok := arr.(*array.String)
	require.True(t, ok)
	assert.Equal(t, "hello", strs.Value(0))
	assert.True(t, strs.IsNull(1))

	back, err := FromArrow(arr)
	require.NoError(t, err)
	assert.Equal(t, columnar.TypeText, back.Type())
	assert.Equal(t, []any{"hello", nil}, readObjects(t, back))
}

func TestTextListRoundTrip(t *testing.T) {
	buf, err := columnar.NewTextSetBuffer(3)
	require.NoError(t, err)
	require.NoError(t, buf.Set(0, columnar.NewTextSet("b", "a")))
	require.NoError(t, buf.Set(2, columnar.NewTextSet()))
	arr := convert(t, buf.ToColumn())

	lists, ok := arr.(*array.List)
	require.True(t, ok)
	assert.True(t, lists.IsNull(1))

	// Sets come back as lists in set order.
	back, err := FromArrow(arr)
	require.NoError(t, err)
	assert.Equal(t, columnar.TypeTextList, back.Type())
	assert.Equal(t, []any{columnar.TextList{"a", "b"}, nil, columnar.TextList{}}, readObjects(t, back))
}

func TestUnsupportedTypes(t *testing.T) {
	custom := columnar.NewObjectType("point", nil)
	col, err := columnar.NewObjectColumn(custom, []any{struct{ X int }{1}})
	require.NoError(t, err)
	_, err = ToArrow(col, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCapability))

	b := array.NewBooleanBuilder(memory.DefaultAllocator)
	defer b.Release()
	b.Append(true)
	arr := b.NewArray()
	defer arr.Release()
	_, err = FromArrow(arr)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCapability))
}
