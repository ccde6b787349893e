// Package arrowconv converts columns to and from Apache Arrow arrays.
//
// Missing values become nulls and nulls become missing values:
//
//	real, integer   Float64, Int64
//	nominal         Dictionary<Int32, String>
//	date-time       Timestamp[s or ns, UTC]
//	time            Time64[ns]
//	text            String
//	text set, list  List<String>
//
// Arrays returned by ToArrow are owned by the caller, who must Release them.
package arrowconv

import (
	"fmt"
	"math"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/colframe/pkg/columnar"
	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/intformats"
)

// NominalType is the Arrow type nominal columns convert to.
var NominalType = &arrow.DictionaryType{
	IndexType: arrow.PrimitiveTypes.Int32,
	ValueType: arrow.BinaryTypes.String,
}

// raw accessors outside the column contract
type (
	indexFiller interface {
		FillIndices(dst []int, row int) error
	}
	instantFiller interface {
		FillSeconds(dst []int64, row int) error
		FillNanos(dst []int32, row int) error
		HasSubSecondPrecision() bool
	}
	timeFiller interface {
		FillNanos(dst []int64, row int) error
	}
)

// ToArrow converts col into a newly allocated Arrow array. A nil mem means
// the default allocator.
func ToArrow(col columnar.Column, mem memory.Allocator) (arrow.Array, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	switch col.Type().ID() {
	case columnar.Real:
		return realToArrow(col, mem)
	case columnar.Integer:
		return integerToArrow(col, mem)
	case columnar.DateTime:
		return dateTimeToArrow(col, mem)
	case columnar.Time:
		return timeToArrow(col, mem)
	case columnar.Text:
		return textToArrow(col, mem)
	case columnar.TextSetID, columnar.TextListID:
		return listToArrow(col, mem)
	}
	if col.Category() == columnar.Categorical {
		return categoricalToArrow(col, mem)
	}
	return nil, errors.Newf(errors.ErrorTypeCapability, "no Arrow type for %s columns", col.Type())
}

func numbers(col columnar.Column) ([]float64, error) {
	values := make([]float64, col.Size())
	if err := col.FillNumeric(values, 0); err != nil {
		return nil, err
	}
	return values, nil
}

func objects(col columnar.Column) ([]any, error) {
	values := make([]any, col.Size())
	if err := col.FillObjects(values, 0); err != nil {
		return nil, err
	}
	return values, nil
}

func realToArrow(col columnar.Column, mem memory.Allocator) (arrow.Array, error) {
	values, err := numbers(col)
	if err != nil {
		return nil, err
	}
	b := array.NewFloat64Builder(mem)
	defer b.Release()
	b.Reserve(len(values))
	for _, v := range values {
		if math.IsNaN(v) {
			b.AppendNull()
		} else {
			b.Append(v)
		}
	}
	return b.NewFloat64Array(), nil
}

func integerToArrow(col columnar.Column, mem memory.Allocator) (arrow.Array, error) {
	values, err := numbers(col)
	if err != nil {
		return nil, err
	}
	b := array.NewInt64Builder(mem)
	defer b.Release()
	b.Reserve(len(values))
	for _, v := range values {
		if math.IsNaN(v) {
			b.AppendNull()
		} else {
			b.Append(int64(v))
		}
	}
	return b.NewInt64Array(), nil
}

func categoricalToArrow(col columnar.Column, mem memory.Allocator) (arrow.Array, error) {
	dict, err := col.Dictionary()
	if err != nil {
		return nil, err
	}
	filler, ok := col.(indexFiller)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeCapability, "%T does not expose dictionary indices", col)
	}
	indices := make([]int, col.Size())
	if err := filler.FillIndices(indices, 0); err != nil {
		return nil, err
	}

	vb := array.NewStringBuilder(mem)
	defer vb.Release()
	dict.ForEach(func(_ int, value any) {
		if s, ok := value.(string); ok {
			vb.Append(s)
		} else {
			vb.Append(fmt.Sprint(value))
		}
	})
	dictValues := vb.NewStringArray()
	defer dictValues.Release()

	ib := array.NewInt32Builder(mem)
	defer ib.Release()
	ib.Reserve(len(indices))
	for _, index := range indices {
		if index == 0 {
			ib.AppendNull()
		} else {
			ib.Append(int32(index - 1))
		}
	}
	arrowIndices := ib.NewInt32Array()
	defer arrowIndices.Release()

	return array.NewDictionaryArray(NominalType, arrowIndices, dictValues), nil
}

// Nanosecond timestamps cover about 1677 to 2262.
const (
	minNanoSeconds = math.MinInt64 / int64(time.Second)
	maxNanoSeconds = math.MaxInt64/int64(time.Second) - 1
)

func dateTimeToArrow(col columnar.Column, mem memory.Allocator) (arrow.Array, error) {
	filler, ok := col.(instantFiller)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeCapability, "%T does not expose epoch seconds", col)
	}
	seconds := make([]int64, col.Size())
	nanos := make([]int32, col.Size())
	if err := filler.FillSeconds(seconds, 0); err != nil {
		return nil, err
	}
	if err := filler.FillNanos(nanos, 0); err != nil {
		return nil, err
	}

	unit := arrow.Second
	if filler.HasSubSecondPrecision() {
		unit = arrow.Nanosecond
	}
	b := array.NewTimestampBuilder(mem, &arrow.TimestampType{Unit: unit, TimeZone: "UTC"})
	defer b.Release()
	b.Reserve(len(seconds))
	for i, s := range seconds {
		switch {
		case s == columnar.MissingSeconds:
			b.AppendNull()
		case unit == arrow.Second:
			b.Append(arrow.Timestamp(s))
		case s < minNanoSeconds || s > maxNanoSeconds:
			return nil, errors.Newf(errors.ErrorTypeData, "date-time at row %d does not fit a nanosecond timestamp", i).
				WithDetail("seconds", s)
		default:
			b.Append(arrow.Timestamp(s*int64(time.Second) + int64(nanos[i])))
		}
	}
	return b.NewTimestampArray(), nil
}

func timeToArrow(col columnar.Column, mem memory.Allocator) (arrow.Array, error) {
	filler, ok := col.(timeFiller)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeCapability, "%T does not expose nanoseconds of day", col)
	}
	nanos := make([]int64, col.Size())
	if err := filler.FillNanos(nanos, 0); err != nil {
		return nil, err
	}
	b := array.NewTime64Builder(mem, &arrow.Time64Type{Unit: arrow.Nanosecond})
	defer b.Release()
	b.Reserve(len(nanos))
	for _, n := range nanos {
		if n == columnar.MissingTime {
			b.AppendNull()
		} else {
			b.Append(arrow.Time64(n))
		}
	}
	return b.NewTime64Array(), nil
}

func textToArrow(col columnar.Column, mem memory.Allocator) (arrow.Array, error) {
	values, err := objects(col)
	if err != nil {
		return nil, err
	}
	b := array.NewStringBuilder(mem)
	defer b.Release()
	b.Reserve(len(values))
	for _, v := range values {
		if v == nil {
			b.AppendNull()
		} else {
			b.Append(v.(string))
		}
	}
	return b.NewStringArray(), nil
}

func listToArrow(col columnar.Column, mem memory.Allocator) (arrow.Array, error) {
	values, err := objects(col)
	if err != nil {
		return nil, err
	}
	b := array.NewListBuilder(mem, arrow.BinaryTypes.String)
	defer b.Release()
	vb := b.ValueBuilder().(*array.StringBuilder)
	for _, v := range values {
		var items []string
		switch v := v.(type) {
		case nil:
			b.AppendNull()
			continue
		case columnar.TextSet:
			items = v
		case columnar.TextList:
			items = v
		}
		b.Append(true)
		for _, item := range items {
			vb.Append(item)
		}
	}
	return b.NewListArray(), nil
}

// FromArrow builds a column from arr. The column is always a fresh dense
// column; arr can be released afterwards.
func FromArrow(arr arrow.Array) (columnar.Column, error) {
	switch a := arr.(type) {
	case *array.Float64:
		return fromNumbers(a, columnar.NewRealBuffer, a.Value)
	case *array.Float32:
		return fromNumbers(a, columnar.NewRealBuffer, func(i int) float64 { return float64(a.Value(i)) })
	case *array.Int64:
		return fromNumbers(a, columnar.NewIntegerBuffer, func(i int) float64 { return float64(a.Value(i)) })
	case *array.Int32:
		return fromNumbers(a, columnar.NewIntegerBuffer, func(i int) float64 { return float64(a.Value(i)) })
	case *array.Dictionary:
		return fromDictionary(a)
	case *array.Timestamp:
		return fromTimestamps(a)
	case *array.Time64:
		return fromTimes(a)
	case *array.String:
		return fromStrings(a)
	case *array.List:
		return fromLists(a)
	}
	return nil, errors.Newf(errors.ErrorTypeCapability, "no column type for Arrow %s", arr.DataType())
}

func fromNumbers(arr arrow.Array, newBuffer func(int) (*columnar.NumericBuffer, error), value func(int) float64) (columnar.Column, error) {
	b, err := newBuffer(arr.Len())
	if err != nil {
		return nil, err
	}
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}
		if err := b.Set(i, value(i)); err != nil {
			return nil, err
		}
	}
	return b.ToColumn(), nil
}

func fromDictionary(arr *array.Dictionary) (columnar.Column, error) {
	values, ok := arr.Dictionary().(*array.String)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeCapability, "dictionary of %s is not nominal", arr.Dictionary().DataType())
	}
	format, err := intformats.FindMinimal(values.Len())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "dictionary too large")
	}
	b, err := columnar.NewNominalBuffer(arr.Len(), format)
	if err != nil {
		return nil, err
	}
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}
		if err := b.Set(i, values.Value(arr.GetValueIndex(i))); err != nil {
			return nil, err
		}
	}
	return b.ToColumn(), nil
}

func fromTimestamps(arr *array.Timestamp) (columnar.Column, error) {
	unit := arr.DataType().(*arrow.TimestampType).Unit
	b, err := columnar.NewDateTimeBuffer(arr.Len(), unit != arrow.Second)
	if err != nil {
		return nil, err
	}
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}
		if err := b.Set(i, arr.Value(i).ToTime(unit)); err != nil {
			return nil, err
		}
	}
	return b.ToColumn(), nil
}

func fromTimes(arr *array.Time64) (columnar.Column, error) {
	multiplier := int64(arr.DataType().(*arrow.Time64Type).Unit.Multiplier())
	b, err := columnar.NewTimeBuffer(arr.Len())
	if err != nil {
		return nil, err
	}
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}
		if err := b.SetNanos(i, int64(arr.Value(i))*multiplier); err != nil {
			return nil, err
		}
	}
	return b.ToColumn(), nil
}

func fromStrings(arr *array.String) (columnar.Column, error) {
	b, err := columnar.NewTextBuffer(arr.Len())
	if err != nil {
		return nil, err
	}
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}
		if err := b.Set(i, arr.Value(i)); err != nil {
			return nil, err
		}
	}
	return b.ToColumn(), nil
}

func fromLists(arr *array.List) (columnar.Column, error) {
	items, ok := arr.ListValues().(*array.String)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeCapability, "list of %s has no column type", arr.ListValues().DataType())
	}
	b, err := columnar.NewTextListBuffer(arr.Len())
	if err != nil {
		return nil, err
	}
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}
		start, end := arr.ValueOffsets(i)
		list := make(columnar.TextList, 0, end-start)
		for j := start; j < end; j++ {
			list = append(list, items.Value(int(j)))
		}
		if err := b.Set(i, list); err != nil {
			return nil, err
		}
	}
	return b.ToColumn(), nil
}
