package intformats

import (
	"github.com/ajitpratap0/colframe/pkg/errors"
)

// PackedInts is a fixed-length array of unsigned integers stored in a single
// Format. Only the backing array matching the format is allocated.
type PackedInts struct {
	format Format
	size   int
	bytes  []byte   // UnsignedInt2, UnsignedInt4, UnsignedInt8
	shorts []uint16 // UnsignedInt16
	ints   []int32  // SignedInt32
}

// NewPackedInts allocates zeroed storage for size values in the given format.
func NewPackedInts(format Format, size int) (*PackedInts, error) {
	if size < 0 {
		return nil, errors.Newf(errors.ErrorTypeValidation, "illegal size %d", size)
	}
	p := &PackedInts{format: format, size: size}
	switch format {
	case UnsignedInt2, UnsignedInt4, UnsignedInt8:
		p.bytes = make([]byte, BytesFor(format, size))
	case UnsignedInt16:
		p.shorts = make([]uint16, size)
	case SignedInt32:
		p.ints = make([]int32, size)
	default:
		return nil, errors.Newf(errors.ErrorTypeValidation, "unknown format %s", format)
	}
	return p, nil
}

// WrapBytes wraps existing packed bytes without copying.
func WrapBytes(format Format, data []byte, size int) (*PackedInts, error) {
	if format != UnsignedInt2 && format != UnsignedInt4 && format != UnsignedInt8 {
		return nil, errors.Newf(errors.ErrorTypeValidation, "format %s is not byte backed", format)
	}
	if size < 0 || BytesFor(format, size) > len(data) {
		return nil, errors.Newf(errors.ErrorTypeValidation, "%d bytes cannot hold %d %s values", len(data), size, format)
	}
	return &PackedInts{format: format, size: size, bytes: data}, nil
}

// Format returns the storage format.
func (p *PackedInts) Format() Format { return p.format }

// Len returns the number of logical values.
func (p *PackedInts) Len() int { return p.size }

// Get returns the value at index i.
func (p *PackedInts) Get(i int) int {
	switch p.format {
	case UnsignedInt2:
		return ReadUInt2(p.bytes, i)
	case UnsignedInt4:
		return ReadUInt4(p.bytes, i)
	case UnsignedInt8:
		return int(p.bytes[i])
	case UnsignedInt16:
		return int(p.shorts[i])
	default:
		return int(p.ints[i])
	}
}

// Set stores v at index i, truncated to the format width.
func (p *PackedInts) Set(i int, v int) {
	switch p.format {
	case UnsignedInt2:
		WriteUInt2(p.bytes, i, v)
	case UnsignedInt4:
		WriteUInt4(p.bytes, i, v)
	case UnsignedInt8:
		p.bytes[i] = byte(v)
	case UnsignedInt16:
		p.shorts[i] = uint16(v)
	default:
		p.ints[i] = int32(v)
	}
}

// Fill copies values starting at row into dst.
func (p *PackedInts) Fill(dst []int, row int) {
	n := min(len(dst), p.size-row)
	switch p.format {
	case UnsignedInt8:
		for i := 0; i < n; i++ {
			dst[i] = int(p.bytes[row+i])
		}
	case UnsignedInt16:
		for i := 0; i < n; i++ {
			dst[i] = int(p.shorts[row+i])
		}
	case SignedInt32:
		for i := 0; i < n; i++ {
			dst[i] = int(p.ints[row+i])
		}
	default:
		for i := 0; i < n; i++ {
			dst[i] = p.Get(row + i)
		}
	}
}

// Repack copies the values into a new array of the target format. Values that
// do not fit the target are truncated exactly as Set would truncate them.
func (p *PackedInts) Repack(target Format) *PackedInts {
	if target == p.format {
		return p.Clone()
	}
	out, _ := NewPackedInts(target, p.size)
	for i := 0; i < p.size; i++ {
		out.Set(i, p.Get(i))
	}
	return out
}

// Clone returns a deep copy.
func (p *PackedInts) Clone() *PackedInts {
	c := &PackedInts{format: p.format, size: p.size}
	if p.bytes != nil {
		c.bytes = append([]byte(nil), p.bytes...)
	}
	if p.shorts != nil {
		c.shorts = append([]uint16(nil), p.shorts...)
	}
	if p.ints != nil {
		c.ints = append([]int32(nil), p.ints...)
	}
	return c
}

// Bytes exposes the byte backing array for 2/4/8-bit formats, nil otherwise.
func (p *PackedInts) Bytes() []byte { return p.bytes }

// MemoryUsage returns the size of the backing array in bytes.
func (p *PackedInts) MemoryUsage() int64 {
	return int64(len(p.bytes)) + int64(len(p.shorts))*2 + int64(len(p.ints))*4
}
