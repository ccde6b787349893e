// Package ingest streams raw value chunks into column buffers.
//
// A chunk stream is a sequence of frames. Each frame is a 4 byte little
// endian length followed by that many bytes of a compressed chunk; the
// decompressed chunk is a raw array in native byte order as accepted by the
// buffer Put methods. A stream ends cleanly at a frame boundary.
//
//	w := ingest.NewWriter(file, comp)
//	_ = w.WriteFloat64s(values)
//
//	buf, _ := columnar.NewRealBuffer(n)
//	stats, err := ingest.Fill(ctx, ingest.NewChunkReader(file, comp), ingest.Float64s(buf))
//	col := buf.ToColumn()
package ingest

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/ajitpratap0/colframe/pkg/compression"
	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/pool"
)

// FrameHeaderSize is the size of the length prefix of a frame.
const FrameHeaderSize = 4

// DefaultMaxFrameSize bounds the compressed size of one frame.
const DefaultMaxFrameSize = 64 << 20

// Writer frames and compresses chunks.
type Writer struct {
	w            io.Writer
	comp         compression.Compressor
	header       [FrameHeaderSize]byte
	bytesWritten int64
	framesOut    int64
}

// NewWriter creates a writer compressing every chunk with comp.
func NewWriter(w io.Writer, comp compression.Compressor) *Writer {
	return &Writer{w: w, comp: comp}
}

// WriteChunk compresses chunk and writes it as one frame.
func (w *Writer) WriteChunk(chunk []byte) error {
	compressed, err := w.comp.Compress(chunk)
	if err != nil {
		return err
	}
	if uint64(len(compressed)) > math.MaxUint32 {
		return errors.Newf(errors.ErrorTypeValidation, "compressed chunk of %d bytes does not fit a frame", len(compressed))
	}
	binary.LittleEndian.PutUint32(w.header[:], uint32(len(compressed)))
	if _, err := w.w.Write(w.header[:]); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write frame header")
	}
	if _, err := w.w.Write(compressed); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write frame")
	}
	w.bytesWritten += int64(FrameHeaderSize + len(compressed))
	w.framesOut++
	return nil
}

// WriteFloat64s writes values as one float64 chunk.
func (w *Writer) WriteFloat64s(values []float64) error {
	return writeEncoded(w, values, 8, func(b []byte, v float64) {
		binary.NativeEndian.PutUint64(b, math.Float64bits(v))
	})
}

// WriteInt64s writes values as one int64 chunk. Epoch seconds and
// nanoseconds of day use the same layout.
func (w *Writer) WriteInt64s(values []int64) error {
	return writeEncoded(w, values, 8, func(b []byte, v int64) {
		binary.NativeEndian.PutUint64(b, uint64(v))
	})
}

// WriteInt32s writes values as one int32 chunk.
func (w *Writer) WriteInt32s(values []int32) error {
	return writeEncoded(w, values, 4, func(b []byte, v int32) {
		binary.NativeEndian.PutUint32(b, uint32(v))
	})
}

func writeEncoded[T any](w *Writer, values []T, width int, encode func([]byte, T)) error {
	chunk := pool.GetBytes(len(values) * width)
	defer pool.PutBytes(chunk)
	for i, v := range values {
		encode(chunk[i*width:], v)
	}
	return w.WriteChunk(chunk)
}

// BytesWritten returns the number of bytes written, headers included.
func (w *Writer) BytesWritten() int64 { return w.bytesWritten }

// FramesWritten returns the number of frames written.
func (w *Writer) FramesWritten() int64 { return w.framesOut }

// ChunkReader reads and decompresses frames.
type ChunkReader struct {
	r            io.Reader
	comp         compression.Compressor
	maxFrameSize int
	header       [FrameHeaderSize]byte
	bytesRead    int64
	framesIn     int64
}

// NewChunkReader creates a reader decompressing every frame with comp.
func NewChunkReader(r io.Reader, comp compression.Compressor) *ChunkReader {
	return &ChunkReader{r: r, comp: comp, maxFrameSize: DefaultMaxFrameSize}
}

// WithMaxFrameSize changes the largest accepted compressed frame.
func (cr *ChunkReader) WithMaxFrameSize(n int) *ChunkReader {
	cr.maxFrameSize = n
	return cr
}

// Codec returns the codec frames are decompressed with.
func (cr *ChunkReader) Codec() compression.Algorithm { return cr.comp.Algorithm() }

// Next returns the next decompressed chunk, or io.EOF after the last frame.
// A stream ending inside a frame is a data error.
func (cr *ChunkReader) Next() ([]byte, error) {
	n, err := io.ReadFull(cr.r, cr.header[:])
	switch {
	case err == io.EOF:
		return nil, io.EOF
	case err == io.ErrUnexpectedEOF:
		return nil, errors.Newf(errors.ErrorTypeData, "truncated frame header: %d of %d bytes", n, FrameHeaderSize).
			WithDetail("frame", cr.framesIn)
	case err != nil:
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to read frame header")
	}

	size := int(binary.LittleEndian.Uint32(cr.header[:]))
	if size > cr.maxFrameSize {
		return nil, errors.Newf(errors.ErrorTypeData, "frame of %d bytes exceeds limit %d", size, cr.maxFrameSize).
			WithDetail("frame", cr.framesIn)
	}

	compressed := pool.GetBytes(size)
	defer pool.PutBytes(compressed)
	if _, err := io.ReadFull(cr.r, compressed); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.Newf(errors.ErrorTypeData, "truncated frame: expected %d bytes", size).
				WithDetail("frame", cr.framesIn)
		}
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to read frame")
	}

	chunk, err := cr.comp.Decompress(compressed)
	if err != nil {
		return nil, err
	}
	cr.bytesRead += int64(FrameHeaderSize + size)
	cr.framesIn++
	return chunk, nil
}

// BytesRead returns the number of framed bytes consumed, headers included.
func (cr *ChunkReader) BytesRead() int64 { return cr.bytesRead }

// FramesRead returns the number of frames decoded.
func (cr *ChunkReader) FramesRead() int64 { return cr.framesIn }
