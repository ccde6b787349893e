package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colframe/pkg/arrowconv"
	"github.com/ajitpratap0/colframe/pkg/columnar"
	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/execution"
	"github.com/ajitpratap0/colframe/pkg/ingest"
	"github.com/ajitpratap0/colframe/pkg/json"
	"github.com/ajitpratap0/colframe/pkg/logger"
	"github.com/ajitpratap0/colframe/pkg/mmap"
)

func newEncodeCommand() *cobra.Command {
	var layoutName, output string
	var chunkRows int

	cmd := &cobra.Command{
		Use:   "encode INPUT",
		Short: "Encode a text file of values into a framed chunk stream",
		Long: `Encode reads one value per line and writes them as compressed frames
using the configured codec. Empty lines and "NA" are missing values, except
in integer layouts which have no missing value.

Real values are decimal numbers. Integer values are whole numbers. DateTime
values are RFC 3339 timestamps or Unix seconds. Time values are durations
since midnight such as 13h45m or nanoseconds.

Example:
  colframe encode prices.txt --layout real --output prices.frames`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := ingest.ParseLayout(layoutName)
			if err != nil {
				return err
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".frames"
			}
			return encodeFile(args[0], output, layout, chunkRows)
		},
	}
	cmd.Flags().StringVarP(&layoutName, "layout", "l", string(ingest.Real), "Chunk layout (real, integer, integer32, datetime, time)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default INPUT with a .frames extension)")
	cmd.Flags().IntVar(&chunkRows, "chunk-rows", 4096, "Values per frame")
	return cmd
}

func encodeFile(input, output string, layout ingest.Layout, chunkRows int) error {
	if chunkRows <= 0 {
		return errors.New(errors.ErrorTypeValidation, "chunk-rows must be positive")
	}
	comp, err := cfg.Codec()
	if err != nil {
		return err
	}
	in, err := os.Open(input) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to open input").WithDetail("path", input)
	}
	defer in.Close()
	out, err := os.Create(output) //nolint:gosec
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to create output").WithDetail("path", output)
	}
	defer out.Close()

	bw := bufio.NewWriter(out)
	w := ingest.NewWriter(bw, comp)
	enc, err := newEncoder(w, layout, chunkRows)
	if err != nil {
		return err
	}

	rows := 0
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		rows++
		if err := enc.add(strings.TrimSpace(scanner.Text())); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "invalid value").
				WithDetail("path", input).
				WithDetail("line", rows)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to read input")
	}
	if err := enc.flush(); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write output")
	}

	logger.Info("encoded chunk stream",
		zap.String("output", output),
		zap.String("layout", string(layout)),
		zap.String("codec", string(comp.Algorithm())),
		zap.Int("rows", rows),
		zap.Int64("frames", w.FramesWritten()),
		zap.Int64("bytes", w.BytesWritten()))
	fmt.Printf("%s: %d rows in %d frames (%d bytes)\n", output, rows, w.FramesWritten(), w.BytesWritten())
	return nil
}

// encoder collects parsed values and writes a frame every chunkRows values.
type encoder struct {
	add   func(string) error
	flush func() error
}

func newEncoder(w *ingest.Writer, layout ingest.Layout, chunkRows int) (*encoder, error) {
	switch layout {
	case ingest.Real:
		return chunked(chunkRows, parseReal, w.WriteFloat64s), nil
	case ingest.Integer:
		return chunked(chunkRows, parseInteger, w.WriteInt64s), nil
	case ingest.Integer32:
		return chunked(chunkRows, parseInteger32, w.WriteInt32s), nil
	case ingest.DateTime:
		return chunked(chunkRows, parseSeconds, w.WriteInt64s), nil
	case ingest.Time:
		return chunked(chunkRows, parseTimeOfDay, w.WriteInt64s), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeValidation, "unknown chunk layout %q", layout)
	}
}

func chunked[T any](chunkRows int, parse func(string) (T, error), write func([]T) error) *encoder {
	pending := make([]T, 0, chunkRows)
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		err := write(pending)
		pending = pending[:0]
		return err
	}
	add := func(s string) error {
		v, err := parse(s)
		if err != nil {
			return err
		}
		pending = append(pending, v)
		if len(pending) == chunkRows {
			return flush()
		}
		return nil
	}
	return &encoder{add: add, flush: flush}
}

func isMissing(s string) bool { return s == "" || strings.EqualFold(s, "NA") }

func parseReal(s string) (float64, error) {
	if isMissing(s) {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseInteger(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func parseInteger32(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	return int32(v), err
}

func parseSeconds(s string) (int64, error) {
	if isMissing(s) {
		return columnar.MissingSeconds, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Unix(), nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func parseTimeOfDay(s string) (int64, error) {
	if isMissing(s) {
		return columnar.MissingTime, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return int64(d), nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func newIngestCommand() *cobra.Command {
	var layoutName, formatName string
	var rows int
	var toArrow, mapped bool

	cmd := &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Build columns from framed chunk streams and describe them",
		Long: `Ingest decodes every file into a column of the given layout and prints a
JSON descriptor per column, as an array or as JSON lines. Files are built concurrently on the configured
execution pool. Rows not covered by a stream are missing.

Example:
  colframe ingest prices.frames volumes.frames --layout real --rows 100000`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := ingest.ParseLayout(layoutName)
			if err != nil {
				return err
			}
			format, err := json.ParseFormat(formatName)
			if err != nil {
				return err
			}
			return ingestFiles(cmd, args, layout, rows, format, toArrow, mapped)
		},
	}
	cmd.Flags().StringVarP(&layoutName, "layout", "l", string(ingest.Real), "Chunk layout (real, integer, integer32, datetime, time)")
	cmd.Flags().IntVarP(&rows, "rows", "n", 0, "Column size in rows (required)")
	cmd.Flags().BoolVar(&toArrow, "arrow", false, "Also convert each column to Arrow and report its data type and null count")
	cmd.Flags().StringVarP(&formatName, "format", "f", string(json.Array), "Output format (json, jsonl)")
	cmd.Flags().BoolVar(&mapped, "mmap", false, "Memory-map input files instead of reading them")
	_ = cmd.MarkFlagRequired("rows")
	return cmd
}

// ingestReport is the JSON document printed per column.
type ingestReport struct {
	Name       string              `json:"name"`
	Column     columnar.Descriptor `json:"column"`
	Frames     int64               `json:"frames"`
	Compressed int64               `json:"compressed_bytes"`
	Decoded    int64               `json:"decoded_bytes"`
	Rows       int64               `json:"rows_written"`
	ArrowType  string              `json:"arrow_type,omitempty"`
	ArrowNulls *int                `json:"arrow_nulls,omitempty"`
}

func ingestFiles(cmd *cobra.Command, paths []string, layout ingest.Layout, rows int, format json.Format, toArrow, mapped bool) error {
	pool := execution.NewPool(cmd.Context(), cfg.Execution)
	defer pool.Close()

	jobs := make([]ingest.Job, len(paths))
	for i, path := range paths {
		jobs[i] = ingest.Job{
			Spec: ingest.ColumnSpec{
				Name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
				Layout: layout,
				Rows:   rows,
			},
			Codec:        &cfg.Ingest.Compression,
			MaxFrameSize: cfg.Ingest.MaxFrameSize,
			Open: func() (io.ReadCloser, error) {
				if mapped {
					return mmap.Open(path)
				}
				return os.Open(path) //nolint:gosec // G304: path comes from the command line
			},
		}
	}

	results, err := ingest.BuildAll(cmd.Context(), pool, jobs)
	if err != nil {
		return err
	}

	out := json.NewStreamWriter(cmd.OutOrStdout(), format)
	for _, res := range results {
		report := ingestReport{
			Name:       res.Name,
			Column:     columnar.Describe(res.Column),
			Frames:     res.Stats.Frames,
			Compressed: res.Stats.CompressedBytes,
			Decoded:    res.Stats.DecodedBytes,
			Rows:       res.Stats.Rows,
		}
		if toArrow {
			arr, err := arrowconv.ToArrow(res.Column, memory.DefaultAllocator)
			if err != nil {
				return err
			}
			report.ArrowType = arr.DataType().String()
			nulls := arr.NullN()
			report.ArrowNulls = &nulls
			arr.Release()
		}
		if err := out.Encode(report); err != nil {
			return err
		}
	}
	return out.Close()
}
