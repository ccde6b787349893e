// Package intformats packs unsigned dictionary indices into the narrowest
// integer width that fits a dictionary.
//
// Sub-byte formats store several slots per byte, least significant bits first:
// for 2-bit packing slot 0 occupies bits 0-1 of byte 0, slot 3 occupies bits 6-7.
// Writes mask the value to the slot width, so out-of-range values wrap modulo
// 2^K instead of failing.
package intformats

import (
	"fmt"
	"math"

	"github.com/ajitpratap0/colframe/pkg/errors"
)

// Format identifies a packed integer width.
type Format int

const (
	UnsignedInt2 Format = iota
	UnsignedInt4
	UnsignedInt8
	UnsignedInt16
	SignedInt32
)

// Formats lists every format from narrowest to widest.
var Formats = []Format{UnsignedInt2, UnsignedInt4, UnsignedInt8, UnsignedInt16, SignedInt32}

// MaxValue returns the largest value representable in the format.
func (f Format) MaxValue() int {
	switch f {
	case UnsignedInt2:
		return 3
	case UnsignedInt4:
		return 15
	case UnsignedInt8:
		return math.MaxUint8
	case UnsignedInt16:
		return math.MaxUint16
	default:
		return math.MaxInt32
	}
}

// Bits returns the slot width in bits.
func (f Format) Bits() int {
	switch f {
	case UnsignedInt2:
		return 2
	case UnsignedInt4:
		return 4
	case UnsignedInt8:
		return 8
	case UnsignedInt16:
		return 16
	default:
		return 32
	}
}

func (f Format) String() string {
	switch f {
	case UnsignedInt2:
		return "uint2"
	case UnsignedInt4:
		return "uint4"
	case UnsignedInt8:
		return "uint8"
	case UnsignedInt16:
		return "uint16"
	case SignedInt32:
		return "int32"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FindMinimal returns the narrowest format able to hold maxValue.
func FindMinimal(maxValue int) (Format, error) {
	if maxValue < 0 {
		return 0, errors.Newf(errors.ErrorTypeValidation, "negative maximum value %d", maxValue)
	}
	for _, f := range Formats {
		if maxValue <= f.MaxValue() {
			return f, nil
		}
	}
	return 0, errors.Newf(errors.ErrorTypeValidation, "value %d exceeds every integer format", maxValue)
}

// ReadUInt2 reads the 2-bit slot at index.
func ReadUInt2(data []byte, index int) int {
	shift := uint(index&3) << 1
	return int(data[index>>2]>>shift) & 3
}

// WriteUInt2 writes value mod 4 into the 2-bit slot at index.
func WriteUInt2(data []byte, index int, value int) {
	shift := uint(index&3) << 1
	i := index >> 2
	data[i] = data[i]&^(3<<shift) | byte(value&3)<<shift
}

// ReadUInt4 reads the 4-bit slot at index.
func ReadUInt4(data []byte, index int) int {
	shift := uint(index&1) << 2
	return int(data[index>>1]>>shift) & 15
}

// WriteUInt4 writes value mod 16 into the 4-bit slot at index.
func WriteUInt4(data []byte, index int, value int) {
	shift := uint(index&1) << 2
	i := index >> 1
	data[i] = data[i]&^(15<<shift) | byte(value&15)<<shift
}

// BytesFor returns the number of bytes needed to hold n 2-bit or 4-bit slots.
func BytesFor(f Format, n int) int {
	switch f {
	case UnsignedInt2:
		return (n + 3) / 4
	case UnsignedInt4:
		return (n + 1) / 2
	default:
		return n * f.Bits() / 8
	}
}
