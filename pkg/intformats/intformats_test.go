package intformats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colframe/pkg/errors"
)

func TestUInt2RoundTrip(t *testing.T) {
	data := make([]byte, 4)
	for v := -8; v < 16; v++ {
		for i := 0; i < 16; i++ {
			WriteUInt2(data, i, v)
			assert.Equal(t, v&3, ReadUInt2(data, i), "value %d at slot %d", v, i)
		}
	}
}

func TestUInt4RoundTrip(t *testing.T) {
	data := make([]byte, 8)
	for v := -32; v < 64; v++ {
		for i := 0; i < 16; i++ {
			WriteUInt4(data, i, v)
			assert.Equal(t, v&15, ReadUInt4(data, i), "value %d at slot %d", v, i)
		}
	}
}

func TestUInt2LayoutIsLSBFirst(t *testing.T) {
	data := make([]byte, 1)
	WriteUInt2(data, 0, 1)
	WriteUInt2(data, 3, 2)
	assert.Equal(t, byte(0b10_00_00_01), data[0])

	nibbles := make([]byte, 1)
	WriteUInt4(nibbles, 1, 0xA)
	assert.Equal(t, byte(0xA0), nibbles[0])
}

func TestWritesDoNotDisturbNeighbours(t *testing.T) {
	data := make([]byte, 2)
	for i := 0; i < 8; i++ {
		WriteUInt2(data, i, i)
	}
	WriteUInt2(data, 4, 3)
	expected := []int{0, 1, 2, 3, 3, 1, 2, 3}
	for i, want := range expected {
		assert.Equal(t, want, ReadUInt2(data, i))
	}
}

func TestFindMinimal(t *testing.T) {
	tests := []struct {
		max  int
		want Format
	}{
		{0, UnsignedInt2},
		{3, UnsignedInt2},
		{4, UnsignedInt4},
		{15, UnsignedInt4},
		{16, UnsignedInt8},
		{255, UnsignedInt8},
		{256, UnsignedInt16},
		{65535, UnsignedInt16},
		{65536, SignedInt32},
	}
	for _, tt := range tests {
		got, err := FindMinimal(tt.max)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "max %d", tt.max)
	}

	_, err := FindMinimal(-1)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestPackedIntsFormats(t *testing.T) {
	for _, f := range Formats {
		t.Run(f.String(), func(t *testing.T) {
			p, err := NewPackedInts(f, 37)
			require.NoError(t, err)
			assert.Equal(t, 37, p.Len())
			assert.Equal(t, f, p.Format())

			for i := 0; i < p.Len(); i++ {
				p.Set(i, i%(f.MaxValue()+1))
			}
			for i := 0; i < p.Len(); i++ {
				assert.Equal(t, i%(f.MaxValue()+1), p.Get(i))
			}

			dst := make([]int, 10)
			p.Fill(dst, 30)
			for i := 0; i < 7; i++ {
				assert.Equal(t, (30+i)%(f.MaxValue()+1), dst[i])
			}
		})
	}
}

func TestPackedIntsTruncation(t *testing.T) {
	p, err := NewPackedInts(UnsignedInt8, 2)
	require.NoError(t, err)
	p.Set(0, 256+7)
	assert.Equal(t, 7, p.Get(0))

	s, err := NewPackedInts(UnsignedInt16, 1)
	require.NoError(t, err)
	s.Set(0, 65536+9)
	assert.Equal(t, 9, s.Get(0))
}

func TestRepack(t *testing.T) {
	p, err := NewPackedInts(SignedInt32, 9)
	require.NoError(t, err)
	for i := 0; i < 9; i++ {
		p.Set(i, i%4)
	}
	narrow := p.Repack(UnsignedInt2)
	assert.Equal(t, UnsignedInt2, narrow.Format())
	assert.Equal(t, 3, len(narrow.Bytes()))
	for i := 0; i < 9; i++ {
		assert.Equal(t, i%4, narrow.Get(i))
	}
	assert.Equal(t, int64(3), narrow.MemoryUsage())
}

func TestWrapBytes(t *testing.T) {
	_, err := WrapBytes(UnsignedInt4, []byte{0x21}, 3)
	assert.Error(t, err)

	p, err := WrapBytes(UnsignedInt4, []byte{0x21}, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Get(0))
	assert.Equal(t, 2, p.Get(1))

	_, err = WrapBytes(UnsignedInt16, []byte{0, 0}, 1)
	assert.Error(t, err)
}
