package ingest

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/ajitpratap0/colframe/pkg/columnar"
	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/logger"
	"github.com/ajitpratap0/colframe/pkg/metrics"
	"github.com/ajitpratap0/colframe/pkg/observability"
)

// Sink receives decompressed chunks. Put returns the number of elements it
// consumed.
type Sink interface {
	Put(chunk []byte) (int, error)
	// Remaining is the number of rows still writable.
	Remaining() int
}

type bufferSink struct {
	put      func([]byte) (int, error)
	size     func() int
	position func() int
}

func (s bufferSink) Put(chunk []byte) (int, error) { return s.put(chunk) }
func (s bufferSink) Remaining() int                { return s.size() - s.position() }

// Float64s is a sink writing float64 chunks into b.
func Float64s(b *columnar.NumericBuffer) Sink {
	return bufferSink{put: b.PutFloat64s, size: b.Size, position: b.Position}
}

// Int64s is a sink writing int64 chunks into b.
func Int64s(b *columnar.NumericBuffer) Sink {
	return bufferSink{put: b.PutInt64s, size: b.Size, position: b.Position}
}

// Int32s is a sink writing int32 chunks into b.
func Int32s(b *columnar.NumericBuffer) Sink {
	return bufferSink{put: b.PutInt32s, size: b.Size, position: b.Position}
}

// Seconds is a sink writing epoch second chunks into b.
func Seconds(b *columnar.DateTimeBuffer) Sink {
	return bufferSink{put: b.PutSeconds, size: b.Size, position: b.Position}
}

// Nanos is a sink writing nanosecond of day chunks into b.
func Nanos(b *columnar.TimeBuffer) Sink {
	return bufferSink{put: b.PutNanos, size: b.Size, position: b.Position}
}

// Stats describes one Fill.
type Stats struct {
	Frames          int64 `json:"frames"`
	CompressedBytes int64 `json:"compressed_bytes"`
	DecodedBytes    int64 `json:"decoded_bytes"`
	Rows            int64 `json:"rows"`
}

// Fill reads chunks from r into sink until the stream ends or the sink is
// full. Frames left after the sink is full are not read. ctx is checked
// between frames.
func Fill(ctx context.Context, r *ChunkReader, sink Sink) (Stats, error) {
	codec := string(r.Codec())
	ctx, span := observability.NewSpan(ctx, "ingest.fill")
	span.SetAttribute("codec", codec)

	log := logger.WithContext(ctx)
	tracker := metrics.NewThroughputTracker(codec)
	startBytes, startFrames := r.BytesRead(), r.FramesRead()
	var stats Stats

	err := func() error {
		for sink.Remaining() > 0 {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, errors.ErrorTypeAborted, "ingestion cancelled")
			}
			chunk, err := r.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			n, err := sink.Put(chunk)
			if err != nil {
				// The buffer's error type is kept: validation for bad values,
				// state for a frozen buffer.
				log.Debug("chunk rejected", zap.Int64("frame", r.FramesRead()-1))
				return err
			}
			stats.DecodedBytes += int64(len(chunk))
			stats.Rows += int64(n)
			tracker.Increment(int64(n))
			metrics.IngestedBytes.WithLabelValues(codec).Add(float64(len(chunk)))
		}
		return nil
	}()

	stats.Frames = r.FramesRead() - startFrames
	stats.CompressedBytes = r.BytesRead() - startBytes
	tracker.GetAndReset()

	span.SetAttribute("rows", stats.Rows)
	span.SetAttribute("frames", stats.Frames)
	span.Finish(err)

	log.Debug("chunk stream ingested",
		zap.String("codec", codec),
		zap.Int64("frames", stats.Frames),
		zap.Int64("rows", stats.Rows),
		zap.Int64("decoded_bytes", stats.DecodedBytes),
		zap.Error(err))
	return stats, err
}
