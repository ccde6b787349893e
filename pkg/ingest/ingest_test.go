package ingest

import (
	"bytes"
	"context"
	"io"
	"math"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colframe/pkg/columnar"
	"github.com/ajitpratap0/colframe/pkg/compression"
	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/execution"
	"github.com/ajitpratap0/colframe/pkg/mmap"
	"github.com/ajitpratap0/colframe/pkg/testutil"
)

func codec(t *testing.T, algorithm compression.Algorithm) compression.Compressor {
	t.Helper()
	comp, err := compression.NewCompressor(&compression.Config{Algorithm: algorithm})
	require.NoError(t, err)
	return comp
}

// stream writes every chunk as one frame and returns the framed bytes.
func stream(t *testing.T, comp compression.Compressor, chunks ...[]float64) []byte {
	t.Helper()
	var out bytes.Buffer
	w := NewWriter(&out, comp)
	for _, c := range chunks {
		require.NoError(t, w.WriteFloat64s(c))
	}
	assert.Equal(t, int64(len(chunks)), w.FramesWritten())
	assert.Equal(t, int64(out.Len()), w.BytesWritten())
	return out.Bytes()
}

func numbers(t *testing.T, col columnar.Column) []float64 {
	t.Helper()
	out := make([]float64, col.Size())
	require.NoError(t, col.FillNumeric(out, 0))
	return out
}

func TestFillAcrossCodecs(t *testing.T) {
	for _, algorithm := range compression.Algorithms {
		t.Run(string(algorithm), func(t *testing.T) {
			comp := codec(t, algorithm)
			data := stream(t, comp, []float64{1, 2, 3}, []float64{4.5, math.NaN()}, nil, []float64{6})

			buf, err := columnar.NewRealBuffer(6)
			require.NoError(t, err)
			r := NewChunkReader(bytes.NewReader(data), comp)
			stats, err := Fill(context.Background(), r, Float64s(buf))
			require.NoError(t, err)

			assert.Equal(t, int64(4), stats.Frames)
			assert.Equal(t, int64(6), stats.Rows)
			assert.Equal(t, int64(6*8), stats.DecodedBytes)
			assert.Equal(t, int64(len(data)), stats.CompressedBytes)
			assert.Equal(t, algorithm, r.Codec())

			got := numbers(t, buf.ToColumn())
			assert.Equal(t, []float64{1, 2, 3, 4.5}, got[:4])
			assert.True(t, math.IsNaN(got[4]))
			assert.Equal(t, 6.0, got[5])
		})
	}
}

func TestFillStopsWhenBufferIsFull(t *testing.T) {
	comp := codec(t, compression.Snappy)
	data := stream(t, comp, []float64{1, 2}, []float64{3, 4}, []float64{5, 6})

	buf, err := columnar.NewRealBuffer(3)
	require.NoError(t, err)
	r := NewChunkReader(bytes.NewReader(data), comp)
	stats, err := Fill(context.Background(), r, Float64s(buf))
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.Frames)
	assert.Equal(t, int64(3), stats.Rows)
	assert.Equal(t, []float64{1, 2, 3}, numbers(t, buf.ToColumn()))

	// The third frame is still in the stream.
	chunk, err := r.Next()
	require.NoError(t, err)
	assert.Len(t, chunk, 16)
	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestShortStreamLeavesRowsMissing(t *testing.T) {
	comp := codec(t, compression.None)
	data := stream(t, comp, []float64{7})

	col, stats, err := Build(context.Background(), ColumnSpec{Name: "x", Layout: Real, Rows: 3},
		NewChunkReader(bytes.NewReader(data), comp))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Rows)

	got := numbers(t, col)
	assert.Equal(t, 7.0, got[0])
	assert.True(t, math.IsNaN(got[1]))
	assert.True(t, math.IsNaN(got[2]))
}

func TestTruncatedStreams(t *testing.T) {
	comp := codec(t, compression.Zstd)
	data := stream(t, comp, []float64{1, 2, 3})

	tests := []struct {
		name string
		data []byte
	}{
		{"partial header", append(bytes.Clone(data), 0x01, 0x00)},
		{"partial frame", data[:len(data)-1]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := columnar.NewRealBuffer(10)
			require.NoError(t, err)
			_, err = Fill(context.Background(), NewChunkReader(bytes.NewReader(tt.data), comp), Float64s(buf))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeData))
		})
	}
}

func TestFrameSizeLimit(t *testing.T) {
	comp := codec(t, compression.None)
	data := stream(t, comp, make([]float64, 100))

	r := NewChunkReader(bytes.NewReader(data), comp).WithMaxFrameSize(64)
	_, err := r.Next()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestCorruptFrame(t *testing.T) {
	data := stream(t, codec(t, compression.None), []float64{1, 2, 3})

	// Frames that are not valid lz4 fail to decode.
	r := NewChunkReader(bytes.NewReader(data), codec(t, compression.LZ4))
	_, err := r.Next()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestRejectedChunkKeepsBufferUnchanged(t *testing.T) {
	comp := codec(t, compression.S2)
	var out bytes.Buffer
	w := NewWriter(&out, comp)
	require.NoError(t, w.WriteInt64s([]int64{1, 2}))
	require.NoError(t, w.WriteInt64s([]int64{3, columnar.MaxSafeInteger + 1, 5}))

	buf, err := columnar.NewIntegerBuffer(5)
	require.NoError(t, err)
	stats, err := Fill(context.Background(), NewChunkReader(&out, comp), Int64s(buf))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Equal(t, int64(2), stats.Rows)
	assert.Equal(t, 2, buf.Position())
}

func TestFillFrozenBuffer(t *testing.T) {
	comp := codec(t, compression.None)
	data := stream(t, comp, []float64{1})

	buf, err := columnar.NewRealBuffer(1)
	require.NoError(t, err)
	buf.ToColumn()
	// A frozen buffer still reports free rows; the write itself fails.
	_, err = Fill(context.Background(), NewChunkReader(bytes.NewReader(data), comp), Float64s(buf))
	assert.True(t, errors.IsType(err, errors.ErrorTypeState))
}

func TestFillCancelled(t *testing.T) {
	comp := codec(t, compression.None)
	data := stream(t, comp, []float64{1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	buf, err := columnar.NewRealBuffer(1)
	require.NoError(t, err)
	_, err = Fill(ctx, NewChunkReader(bytes.NewReader(data), comp), Float64s(buf))
	assert.True(t, errors.IsAborted(err))
	assert.Equal(t, 0, buf.Position())
}

func TestBuildTemporalLayouts(t *testing.T) {
	comp := codec(t, compression.Gzip)
	var out bytes.Buffer
	w := NewWriter(&out, comp)
	require.NoError(t, w.WriteInt64s([]int64{0, columnar.MissingSeconds, 86400}))
	require.NoError(t, w.WriteInt64s([]int64{int64(90 * time.Minute), columnar.MissingTime}))
	r := NewChunkReader(&out, comp)

	dates, _, err := Build(context.Background(), ColumnSpec{Layout: DateTime, Rows: 3}, r)
	require.NoError(t, err)
	assert.Equal(t, columnar.TypeDateTime, dates.Type())
	values := make([]any, 3)
	require.NoError(t, dates.FillObjects(values, 0))
	assert.Equal(t, []any{time.Unix(0, 0).UTC(), nil, time.Unix(86400, 0).UTC()}, values)

	times, _, err := Build(context.Background(), ColumnSpec{Layout: Time, Rows: 2}, r)
	require.NoError(t, err)
	values = make([]any, 2)
	require.NoError(t, times.FillObjects(values, 0))
	assert.Equal(t, []any{90 * time.Minute, nil}, values)
}

func TestBuildInt32Layout(t *testing.T) {
	comp := codec(t, compression.LZ4)
	var out bytes.Buffer
	require.NoError(t, NewWriter(&out, comp).WriteInt32s([]int32{-1, math.MaxInt32}))

	col, _, err := Build(context.Background(), ColumnSpec{Layout: Integer32, Rows: 2}, NewChunkReader(&out, comp))
	require.NoError(t, err)
	assert.Equal(t, columnar.TypeInteger, col.Type())
	assert.Equal(t, []float64{-1, math.MaxInt32}, numbers(t, col))
}

func TestBuildRejectsBadSpec(t *testing.T) {
	r := NewChunkReader(bytes.NewReader(nil), codec(t, compression.None))
	_, _, err := Build(context.Background(), ColumnSpec{Layout: "decimal", Rows: 1}, r)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, _, err = Build(context.Background(), ColumnSpec{Layout: Real, Rows: -1}, r)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout("DateTime")
	require.NoError(t, err)
	assert.Equal(t, DateTime, l)

	_, err = ParseLayout("decimal")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func jobFor(t *testing.T, name string, values []float64) Job {
	cfg := &compression.Config{Algorithm: compression.Zstd}
	path := testutil.TempFile(t, name+".frames", stream(t, codec(t, compression.Zstd), values))
	return Job{
		Spec:  ColumnSpec{Name: name, Layout: Real, Rows: len(values)},
		Codec: cfg,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

func TestBuildAll(t *testing.T) {
	pool := execution.NewPool(context.Background(), execution.Config{Workers: 3})
	defer pool.Close()

	var jobs []Job
	for i := 0; i < 8; i++ {
		jobs = append(jobs, jobFor(t, string(rune('a'+i)), []float64{float64(i), float64(i * 10)}))
	}
	results, err := BuildAll(testutil.TestContext(t), pool, jobs)
	require.NoError(t, err)
	require.Len(t, results, 8)
	for i, res := range results {
		assert.Equal(t, string(rune('a'+i)), res.Name)
		assert.Equal(t, []float64{float64(i), float64(i * 10)}, numbers(t, res.Column))
		assert.Equal(t, int64(2), res.Stats.Rows)
	}
}

func TestBuildAllFailure(t *testing.T) {
	failing := jobFor(t, "bad", []float64{1})
	failing.Open = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader([]byte{9, 0, 0, 0, 1})), nil
	}
	jobs := []Job{jobFor(t, "ok", []float64{1}), failing}

	_, err := BuildAll(context.Background(), execution.Inline{}, jobs)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestBuildAllOnInactiveContext(t *testing.T) {
	pool := execution.NewPool(context.Background(), execution.Config{Workers: 1})
	pool.Close()

	opened := false
	job := jobFor(t, "x", []float64{1})
	job.Open = func() (io.ReadCloser, error) {
		opened = true
		return nil, io.EOF
	}
	_, err := BuildAll(context.Background(), pool, []Job{job})
	assert.True(t, errors.IsAborted(err))
	assert.False(t, opened)
}

func TestBuildAllFromMappedFiles(t *testing.T) {
	columns := map[string][]float64{"p": {1.5, 2.5, 3.5}, "q": {-1}}
	var jobs []Job
	for _, name := range []string{"p", "q"} {
		values := columns[name]
		path := testutil.TempFile(t, name+".frames", stream(t, codec(t, compression.S2), values))
		jobs = append(jobs, Job{
			Spec:  ColumnSpec{Name: name, Layout: Real, Rows: len(values)},
			Codec: &compression.Config{Algorithm: compression.S2},
			Open: func() (io.ReadCloser, error) {
				return mmap.Open(path)
			},
			MaxFrameSize: 1 << 10,
		})
	}

	results, err := BuildAll(context.Background(), execution.Inline{}, jobs)
	require.NoError(t, err)
	assert.Equal(t, columns["p"], numbers(t, results[0].Column))
	assert.Equal(t, columns["q"], numbers(t, results[1].Column))
}
