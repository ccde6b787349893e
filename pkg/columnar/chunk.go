package columnar

import (
	"encoding/binary"
	"math"

	"github.com/ajitpratap0/colframe/pkg/errors"
)

// Chunks are raw arrays in the platform's native byte order. A chunk is
// written at the buffer position; elements past the end of the buffer and a
// trailing partial element are ignored. The whole chunk is validated before
// any element is written, so a rejected chunk leaves the buffer unchanged.

// MaxSafeInteger is the largest integer a float64 represents exactly.
const MaxSafeInteger = 1 << 53

// decodeChunk decodes at most limit elements of the given width.
func decodeChunk[T any](chunk []byte, width, limit int, decode func([]byte) T, check func(v T) error) ([]T, error) {
	n := min(len(chunk)/width, max(limit, 0))
	out := make([]T, n)
	for i := range out {
		v := decode(chunk[i*width:])
		if check != nil {
			if err := check(v); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeValidation, "chunk rejected").
					WithDetail("element", i)
			}
		}
		out[i] = v
	}
	return out, nil
}

func readFloat64(b []byte) float64 { return math.Float64frombits(binary.NativeEndian.Uint64(b)) }
func readInt64(b []byte) int64     { return int64(binary.NativeEndian.Uint64(b)) }
func readInt32(b []byte) int32     { return int32(binary.NativeEndian.Uint32(b)) }

func (b *NumericBuffer) put(values []float64) int {
	for i, v := range values {
		b.data[b.position+i] = b.normalise(v)
	}
	b.position += len(values)
	return len(values)
}

// PutFloat64s writes a chunk of float64 values and returns the number of
// elements consumed.
func (b *NumericBuffer) PutFloat64s(chunk []byte) (int, error) {
	if err := b.open(); err != nil {
		return 0, err
	}
	values, err := decodeChunk(chunk, 8, len(b.data)-b.position, readFloat64, nil)
	if err != nil {
		return 0, err
	}
	return b.put(values), nil
}

func (b *NumericBuffer) checkInteger(v int64) error {
	if b.ctype == TypeInteger && (v > MaxSafeInteger || v < -MaxSafeInteger) {
		return errors.Newf(errors.ErrorTypeValidation, "integer %d is not exactly representable", v)
	}
	return nil
}

// PutInt64s writes a chunk of int64 values and returns the number of elements
// consumed. Integer buffers reject values beyond MaxSafeInteger.
func (b *NumericBuffer) PutInt64s(chunk []byte) (int, error) {
	if err := b.open(); err != nil {
		return 0, err
	}
	values, err := decodeChunk(chunk, 8, len(b.data)-b.position, readInt64, b.checkInteger)
	if err != nil {
		return 0, err
	}
	floats := make([]float64, len(values))
	for i, v := range values {
		floats[i] = float64(v)
	}
	return b.put(floats), nil
}

// PutInt32s writes a chunk of int32 values and returns the number of elements
// consumed.
func (b *NumericBuffer) PutInt32s(chunk []byte) (int, error) {
	if err := b.open(); err != nil {
		return 0, err
	}
	values, err := decodeChunk(chunk, 4, len(b.data)-b.position, readInt32, nil)
	if err != nil {
		return 0, err
	}
	floats := make([]float64, len(values))
	for i, v := range values {
		floats[i] = float64(v)
	}
	return b.put(floats), nil
}

// PutSeconds writes a chunk of int64 epoch seconds and returns the number of
// elements consumed. MissingSeconds marks missing rows; nanoseconds of the
// written rows are reset to zero.
func (b *DateTimeBuffer) PutSeconds(chunk []byte) (int, error) {
	if err := b.open(); err != nil {
		return 0, err
	}
	values, err := decodeChunk(chunk, 8, len(b.seconds)-b.position, readInt64, func(s int64) error {
		if s == MissingSeconds {
			return nil
		}
		return checkEpoch(s, 0)
	})
	if err != nil {
		return 0, err
	}
	for i, s := range values {
		b.seconds[b.position+i] = s
		if b.nanos != nil {
			b.nanos[b.position+i] = 0
		}
	}
	b.position += len(values)
	return len(values), nil
}

// PutNanos writes a chunk of int64 nanoseconds of day and returns the number
// of elements consumed. MissingTime marks missing rows.
func (b *TimeBuffer) PutNanos(chunk []byte) (int, error) {
	if err := b.open(); err != nil {
		return 0, err
	}
	values, err := decodeChunk(chunk, 8, len(b.nanos)-b.position, readInt64, func(n int64) error {
		if n == MissingTime {
			return nil
		}
		return checkTimeNanos(n)
	})
	if err != nil {
		return 0, err
	}
	copy(b.nanos[b.position:], values)
	b.position += len(values)
	return len(values), nil
}
