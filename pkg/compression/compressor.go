// Package compression provides the codecs used for compressed ingestion
// chunks.
//
// Every codec works on whole chunks held in memory. A chunk is compressed
// once by a producer and decompressed once before its bytes are copied into
// a buffer, so no streaming interface is offered.
//
// # Algorithm Selection
//
//   - Snappy/S2: fastest decode, moderate ratio
//   - LZ4: fast, frame format
//   - Zstd: best ratio, good speed
//   - Gzip: interchange with other tools
//
// # Basic Usage
//
//	comp, err := compression.NewCompressor(&compression.Config{
//	    Algorithm: compression.Zstd,
//	    Level:     compression.Better,
//	})
//	compressed, err := comp.Compress(chunk)
//	original, err := comp.Decompress(compressed)
//
// Decompress refuses to produce more than Config.MaxDecodedSize bytes, so a
// corrupt or hostile length cannot make the reader allocate without bound.
package compression

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/colframe/pkg/errors"
)

// Algorithm names a chunk codec.
type Algorithm string

const (
	// None stores chunks as is
	None Algorithm = "none"
	// Snappy represents snappy block compression
	Snappy Algorithm = "snappy"
	// S2 represents s2 block compression (Snappy compatible decoding)
	S2 Algorithm = "s2"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
)

// Algorithms lists every supported codec.
var Algorithms = []Algorithm{None, Snappy, S2, LZ4, Zstd, Gzip}

// ParseAlgorithm resolves a codec name, case-insensitively. The empty name is
// None.
func ParseAlgorithm(name string) (Algorithm, error) {
	if name == "" {
		return None, nil
	}
	a := Algorithm(strings.ToLower(name))
	for _, known := range Algorithms {
		if a == known {
			return a, nil
		}
	}
	return "", errors.Newf(errors.ErrorTypeConfig, "unknown compression algorithm %q", name).
		WithDetail("supported", Algorithms)
}

// Level controls the trade-off between speed and ratio. Codecs without levels
// ignore it.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

// DefaultMaxDecodedSize bounds a single decompressed chunk.
const DefaultMaxDecodedSize = 256 << 20

// Compressor compresses and decompresses whole chunks. Implementations are
// safe for concurrent use.
type Compressor interface {
	// Compress returns the compressed form of data. data is not modified.
	Compress(data []byte) ([]byte, error)

	// Decompress returns the original bytes of a chunk produced by Compress.
	Decompress(data []byte) ([]byte, error)

	// Algorithm returns the codec used.
	Algorithm() Algorithm

	// Level returns the configured level.
	Level() Level
}

// Config represents compressor configuration.
type Config struct {
	Algorithm      Algorithm `yaml:"algorithm" json:"algorithm"`
	Level          Level     `yaml:"level" json:"level"`
	MaxDecodedSize int       `yaml:"max_decoded_size" json:"max_decoded_size"` // 0 = DefaultMaxDecodedSize
}

// DefaultConfig returns the configuration used when none is given: zstd at
// the default level.
func DefaultConfig() *Config {
	return &Config{
		Algorithm:      Zstd,
		Level:          Default,
		MaxDecodedSize: DefaultMaxDecodedSize,
	}
}

// Validate checks the algorithm and the limits.
func (c *Config) Validate() error {
	if _, err := ParseAlgorithm(string(c.Algorithm)); err != nil {
		return err
	}
	if c.Level < 0 || c.Level > Best {
		return errors.Newf(errors.ErrorTypeConfig, "compression level %d out of range [0, %d]", c.Level, Best)
	}
	if c.MaxDecodedSize < 0 {
		return errors.Newf(errors.ErrorTypeConfig, "max decoded size must be non-negative, got %d", c.MaxDecodedSize)
	}
	return nil
}

// NewCompressor creates a compressor for config. A nil config means
// DefaultConfig.
func NewCompressor(config *Config) (Compressor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	algorithm, _ := ParseAlgorithm(string(config.Algorithm))
	base := baseCompressor{algorithm: algorithm, level: config.Level, limit: config.MaxDecodedSize}
	if base.level == 0 {
		base.level = Default
	}
	if base.limit == 0 {
		base.limit = DefaultMaxDecodedSize
	}

	switch algorithm {
	case None:
		return &noneCompressor{base}, nil
	case Snappy:
		return &snappyCompressor{base}, nil
	case S2:
		return &s2Compressor{base}, nil
	case LZ4:
		return &lz4Compressor{baseCompressor: base, compressionLevel: mapLZ4Level(base.level)}, nil
	case Zstd:
		return newZstdCompressor(base)
	default:
		return &gzipCompressor{baseCompressor: base, gzipLevel: mapGzipLevel(base.level)}, nil
	}
}

// CompressorPool hands out compressors built from one configuration.
//
// Example:
//
//	pool := compression.NewCompressorPool(cfg)
//	out, err := pool.Decompress(frame)
type CompressorPool struct {
	config *Config
	pool   sync.Pool
}

// NewCompressorPool creates a pool for config. The configuration is validated
// on first use.
func NewCompressorPool(config *Config) *CompressorPool {
	if config == nil {
		config = DefaultConfig()
	}
	cp := &CompressorPool{config: config}
	cp.pool.New = func() interface{} {
		c, err := NewCompressor(cp.config)
		if err != nil {
			return err
		}
		return c
	}
	return cp
}

// Algorithm returns the codec of pooled compressors.
func (cp *CompressorPool) Algorithm() Algorithm { return cp.config.Algorithm }

// Get takes a compressor from the pool.
func (cp *CompressorPool) Get() (Compressor, error) {
	switch v := cp.pool.Get().(type) {
	case Compressor:
		return v, nil
	case error:
		return nil, v
	default:
		return nil, errors.New(errors.ErrorTypeInternal, "compressor pool returned an unexpected value")
	}
}

// Put returns a compressor to the pool.
func (cp *CompressorPool) Put(c Compressor) {
	if c != nil {
		cp.pool.Put(c)
	}
}

// Compress compresses data with a pooled compressor.
func (cp *CompressorPool) Compress(data []byte) ([]byte, error) {
	c, err := cp.Get()
	if err != nil {
		return nil, err
	}
	defer cp.Put(c)
	return c.Compress(data)
}

// Decompress decompresses data with a pooled compressor.
func (cp *CompressorPool) Decompress(data []byte) ([]byte, error) {
	c, err := cp.Get()
	if err != nil {
		return nil, err
	}
	defer cp.Put(c)
	return c.Decompress(data)
}

type baseCompressor struct {
	algorithm Algorithm
	level     Level
	limit     int
}

func (bc *baseCompressor) Algorithm() Algorithm { return bc.algorithm }

func (bc *baseCompressor) Level() Level { return bc.level }

func (bc *baseCompressor) corrupt(err error) error {
	return errors.Wrap(err, errors.ErrorTypeData, fmt.Sprintf("corrupt %s chunk", bc.algorithm))
}

func (bc *baseCompressor) tooLarge(n int) error {
	return errors.Newf(errors.ErrorTypeData, "%s chunk decodes to %d bytes, limit is %d", bc.algorithm, n, bc.limit)
}

// readLimited drains r, failing once more than limit bytes appear.
func (bc *baseCompressor) readLimited(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	n, err := buf.ReadFrom(io.LimitReader(r, int64(bc.limit)+1))
	if err != nil {
		return nil, bc.corrupt(err)
	}
	if n > int64(bc.limit) {
		return nil, bc.tooLarge(int(n))
	}
	return buf.Bytes(), nil
}

type noneCompressor struct {
	baseCompressor
}

func (nc *noneCompressor) Compress(data []byte) ([]byte, error) {
	return bytes.Clone(data), nil
}

func (nc *noneCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) > nc.limit {
		return nil, nc.tooLarge(len(data))
	}
	return bytes.Clone(data), nil
}

type snappyCompressor struct {
	baseCompressor
}

func (sc *snappyCompressor) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (sc *snappyCompressor) Decompress(data []byte) ([]byte, error) {
	n, err := snappy.DecodedLen(data)
	if err != nil {
		return nil, sc.corrupt(err)
	}
	if n > sc.limit {
		return nil, sc.tooLarge(n)
	}
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, sc.corrupt(err)
	}
	return out, nil
}

type s2Compressor struct {
	baseCompressor
}

func (sc *s2Compressor) Compress(data []byte) ([]byte, error) {
	if sc.level >= Best {
		return s2.EncodeBest(nil, data), nil
	}
	if sc.level >= Better {
		return s2.EncodeBetter(nil, data), nil
	}
	return s2.Encode(nil, data), nil
}

func (sc *s2Compressor) Decompress(data []byte) ([]byte, error) {
	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, sc.corrupt(err)
	}
	if n > sc.limit {
		return nil, sc.tooLarge(n)
	}
	out, err := s2.Decode(nil, data)
	if err != nil {
		return nil, sc.corrupt(err)
	}
	return out, nil
}

type lz4Compressor struct {
	baseCompressor
	compressionLevel lz4.CompressionLevel
}

func (lc *lz4Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if err := w.Apply(lz4.CompressionLevelOption(lc.compressionLevel)); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to configure lz4 writer")
	}
	if _, err := w.Write(data); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "lz4 compression failed")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "lz4 compression failed")
	}
	return buf.Bytes(), nil
}

func (lc *lz4Compressor) Decompress(data []byte) ([]byte, error) {
	return lc.readLimited(lz4.NewReader(bytes.NewReader(data)))
}

type zstdCompressor struct {
	baseCompressor
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// newZstdCompressor builds one encoder and one decoder; EncodeAll and
// DecodeAll are safe for concurrent use.
func newZstdCompressor(base baseCompressor) (*zstdCompressor, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(mapZstdLevel(base.level)))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create zstd encoder")
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderMaxMemory(uint64(base.limit)),
		zstd.WithDecoderConcurrency(0),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create zstd decoder")
	}
	return &zstdCompressor{baseCompressor: base, encoder: enc, decoder: dec}, nil
}

func (zc *zstdCompressor) Compress(data []byte) ([]byte, error) {
	return zc.encoder.EncodeAll(data, nil), nil
}

func (zc *zstdCompressor) Decompress(data []byte) ([]byte, error) {
	// EncodeAll writes nothing for an empty chunk.
	if len(data) == 0 {
		return []byte{}, nil
	}
	out, err := zc.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, zc.corrupt(err)
	}
	if len(out) > zc.limit {
		return nil, zc.tooLarge(len(out))
	}
	return out, nil
}

type gzipCompressor struct {
	baseCompressor
	gzipLevel int
}

func (gc *gzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gc.gzipLevel)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create gzip writer")
	}
	if _, err := w.Write(data); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "gzip compression failed")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "gzip compression failed")
	}
	return buf.Bytes(), nil
}

func (gc *gzipCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, gc.corrupt(err)
	}
	defer r.Close()
	return gc.readLimited(r)
}

// Level mapping functions

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Better:
		return lz4.Level5
	case Best:
		return lz4.Level9
	default:
		return lz4.Level1
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}
