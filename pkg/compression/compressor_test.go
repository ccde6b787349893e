package compression

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colframe/pkg/errors"
)

// chunkOf encodes values the way ingestion chunks are laid out.
func chunkOf(values []float64) []byte {
	out := make([]byte, 8*len(values))
	for i, v := range values {
		binary.NativeEndian.PutUint64(out[8*i:], math.Float64bits(v))
	}
	return out
}

func sampleChunk() []byte {
	rng := rand.New(rand.NewSource(7))
	values := make([]float64, 4096)
	for i := range values {
		// Few distinct values so every codec actually shrinks the chunk.
		values[i] = float64(rng.Intn(16))
	}
	return chunkOf(values)
}

func TestRoundTrip(t *testing.T) {
	data := sampleChunk()
	for _, algorithm := range Algorithms {
		for _, level := range []Level{Fastest, Default, Better, Best} {
			t.Run(string(algorithm), func(t *testing.T) {
				comp, err := NewCompressor(&Config{Algorithm: algorithm, Level: level})
				require.NoError(t, err)
				assert.Equal(t, algorithm, comp.Algorithm())
				assert.Equal(t, level, comp.Level())

				compressed, err := comp.Compress(data)
				require.NoError(t, err)
				if algorithm != None {
					assert.Less(t, len(compressed), len(data))
				}

				decompressed, err := comp.Decompress(compressed)
				require.NoError(t, err)
				assert.Equal(t, data, decompressed)
			})
		}
	}
}

func TestEmptyChunk(t *testing.T) {
	for _, algorithm := range Algorithms {
		comp, err := NewCompressor(&Config{Algorithm: algorithm})
		require.NoError(t, err)
		compressed, err := comp.Compress(nil)
		require.NoError(t, err)
		decompressed, err := comp.Decompress(compressed)
		require.NoError(t, err, algorithm)
		assert.Empty(t, decompressed, algorithm)
	}
}

func TestDefaults(t *testing.T) {
	comp, err := NewCompressor(nil)
	require.NoError(t, err)
	assert.Equal(t, Zstd, comp.Algorithm())
	assert.Equal(t, Default, comp.Level())

	comp, err = NewCompressor(&Config{Algorithm: "LZ4"})
	require.NoError(t, err)
	assert.Equal(t, LZ4, comp.Algorithm())
	assert.Equal(t, Default, comp.Level())
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		name    string
		want    Algorithm
		wantErr bool
	}{
		{"", None, false},
		{"none", None, false},
		{"Snappy", Snappy, false},
		{"ZSTD", Zstd, false},
		{"s2", S2, false},
		{"brotli", "", true},
		{"deflate", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAlgorithm(tt.name)
		if tt.wantErr {
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig), tt.name)
			continue
		}
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got)
	}
}

func TestConfigValidation(t *testing.T) {
	_, err := NewCompressor(&Config{Algorithm: "rar"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = NewCompressor(&Config{Algorithm: Zstd, Level: 12})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = NewCompressor(&Config{Algorithm: Zstd, MaxDecodedSize: -1})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestDecodedSizeLimit(t *testing.T) {
	data := bytes.Repeat([]byte{1, 2, 3, 4}, 1024)
	for _, algorithm := range Algorithms {
		t.Run(string(algorithm), func(t *testing.T) {
			producer, err := NewCompressor(&Config{Algorithm: algorithm})
			require.NoError(t, err)
			compressed, err := producer.Compress(data)
			require.NoError(t, err)

			consumer, err := NewCompressor(&Config{Algorithm: algorithm, MaxDecodedSize: 1024})
			require.NoError(t, err)
			_, err = consumer.Decompress(compressed)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeData))
		})
	}
}

func TestCorruptInput(t *testing.T) {
	garbage := []byte{0xff, 0xfe, 0xfd, 0xfc, 0xfb, 0xfa, 0xf9, 0xf8}
	for _, algorithm := range []Algorithm{Snappy, S2, LZ4, Zstd, Gzip} {
		comp, err := NewCompressor(&Config{Algorithm: algorithm})
		require.NoError(t, err)
		_, err = comp.Decompress(garbage)
		require.Error(t, err, algorithm)
		assert.True(t, errors.IsType(err, errors.ErrorTypeData), algorithm)
	}
}

func TestCompressorPool(t *testing.T) {
	data := sampleChunk()
	pool := NewCompressorPool(&Config{Algorithm: S2, Level: Better})
	assert.Equal(t, S2, pool.Algorithm())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			compressed, err := pool.Compress(data)
			if !assert.NoError(t, err) {
				return
			}
			decompressed, err := pool.Decompress(compressed)
			if assert.NoError(t, err) {
				assert.Equal(t, data, decompressed)
			}
		}()
	}
	wg.Wait()
}

func TestCompressorPoolBadConfig(t *testing.T) {
	pool := NewCompressorPool(&Config{Algorithm: "rar"})
	_, err := pool.Compress([]byte("x"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func BenchmarkDecompress(b *testing.B) {
	data := sampleChunk()
	for _, algorithm := range Algorithms {
		comp, err := NewCompressor(&Config{Algorithm: algorithm})
		require.NoError(b, err)
		compressed, err := comp.Compress(data)
		require.NoError(b, err)

		b.Run(string(algorithm), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := comp.Decompress(compressed); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
