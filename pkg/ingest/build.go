package ingest

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/colframe/pkg/columnar"
	"github.com/ajitpratap0/colframe/pkg/compression"
	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/execution"
	"github.com/ajitpratap0/colframe/pkg/logger"
)

// Layout names the element layout of a chunk stream and the column it builds.
type Layout string

const (
	// Real streams float64 values into a real column.
	Real Layout = "real"
	// Integer streams int64 values into an integer column.
	Integer Layout = "integer"
	// Integer32 streams int32 values into an integer column.
	Integer32 Layout = "integer32"
	// DateTime streams int64 epoch seconds into a date-time column.
	DateTime Layout = "datetime"
	// Time streams int64 nanoseconds of day into a time column.
	Time Layout = "time"
)

// Layouts lists every supported layout.
var Layouts = []Layout{Real, Integer, Integer32, DateTime, Time}

// ParseLayout resolves a layout name, case-insensitively.
func ParseLayout(name string) (Layout, error) {
	l := Layout(strings.ToLower(name))
	for _, known := range Layouts {
		if l == known {
			return l, nil
		}
	}
	return "", errors.Newf(errors.ErrorTypeConfig, "unknown chunk layout %q", name).
		WithDetail("supported", Layouts)
}

// ColumnSpec describes the column built from one chunk stream.
type ColumnSpec struct {
	Name   string `yaml:"name" json:"name"`
	Layout Layout `yaml:"layout" json:"layout"`
	Rows   int    `yaml:"rows" json:"rows"`
}

// Build creates the buffer for spec, fills it from r and freezes it. Rows
// the stream does not cover stay missing.
func Build(ctx context.Context, spec ColumnSpec, r *ChunkReader) (columnar.Column, Stats, error) {
	var (
		buffer columnar.Buffer
		sink   Sink
	)
	switch spec.Layout {
	case Real, Integer, Integer32:
		var (
			b   *columnar.NumericBuffer
			err error
		)
		if spec.Layout == Real {
			b, err = columnar.NewRealBuffer(spec.Rows)
		} else {
			b, err = columnar.NewIntegerBuffer(spec.Rows)
		}
		if err != nil {
			return nil, Stats{}, err
		}
		buffer = b
		switch spec.Layout {
		case Real:
			sink = Float64s(b)
		case Integer:
			sink = Int64s(b)
		default:
			sink = Int32s(b)
		}
	case DateTime:
		b, err := columnar.NewDateTimeBuffer(spec.Rows, false)
		if err != nil {
			return nil, Stats{}, err
		}
		buffer, sink = b, Seconds(b)
	case Time:
		b, err := columnar.NewTimeBuffer(spec.Rows)
		if err != nil {
			return nil, Stats{}, err
		}
		buffer, sink = b, Nanos(b)
	default:
		return nil, Stats{}, errors.Newf(errors.ErrorTypeValidation, "unknown chunk layout %q", spec.Layout)
	}

	stats, err := Fill(ctx, r, sink)
	if err != nil {
		return nil, stats, err
	}
	return buffer.ToColumn(), stats, nil
}

// Job is one column to build from a chunk stream.
type Job struct {
	Spec  ColumnSpec
	Codec *compression.Config
	// Open returns the framed stream. It is called on the worker and the
	// stream is closed when the job ends.
	Open func() (io.ReadCloser, error)
	// MaxFrameSize bounds each frame; zero keeps DefaultMaxFrameSize.
	MaxFrameSize int
}

// Result is a built column.
type Result struct {
	Name   string
	Column columnar.Column
	Stats  Stats
}

// BuildAll builds every job on execCtx and returns the results in job order.
// Activity of execCtx is checked before each job starts; the first failure
// stops jobs that have not started yet and is returned unchanged.
func BuildAll(ctx context.Context, execCtx execution.Context, jobs []Job) ([]Result, error) {
	works := make([]func(context.Context) (Result, error), len(jobs))
	for i, job := range jobs {
		works[i] = func(workCtx context.Context) (Result, error) {
			return runJob(workCtx, job)
		}
	}
	results, err := execution.CallAll(ctx, execCtx, works)
	if err != nil {
		logger.Warn("bulk column build failed", zap.Int("jobs", len(jobs)), zap.Error(err))
		return nil, err
	}
	return results, nil
}

func runJob(ctx context.Context, job Job) (Result, error) {
	comp, err := compression.NewCompressor(job.Codec)
	if err != nil {
		return Result{}, err
	}
	stream, err := job.Open()
	if err != nil {
		return Result{}, errors.Wrap(err, errors.ErrorTypeInternal, "failed to open chunk stream").
			WithDetail("column", job.Spec.Name)
	}
	defer stream.Close()

	r := NewChunkReader(stream, comp)
	if job.MaxFrameSize > 0 {
		r = r.WithMaxFrameSize(job.MaxFrameSize)
	}
	col, stats, err := Build(logger.ContextWithColumn(ctx, job.Spec.Name), job.Spec, r)
	if err != nil {
		return Result{}, err
	}
	return Result{Name: job.Spec.Name, Column: col, Stats: stats}, nil
}
