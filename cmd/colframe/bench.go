package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colframe/pkg/columnar"
	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/execution"
	"github.com/ajitpratap0/colframe/pkg/intformats"
	"github.com/ajitpratap0/colframe/pkg/json"
	"github.com/ajitpratap0/colframe/pkg/logger"
	"github.com/ajitpratap0/colframe/pkg/metrics"
	"github.com/ajitpratap0/colframe/pkg/observability"
	"github.com/ajitpratap0/colframe/pkg/sorting"
)

// benchOptions are the flags of the bench command.
type benchOptions struct {
	Rows       int           `json:"rows"`
	Columns    int           `json:"columns"`
	Categories int           `json:"categories"`
	Iterations int           `json:"iterations"`
	Seed       int64         `json:"seed"`
	Hold       time.Duration `json:"-"`
	Output     string        `json:"-"`
}

// benchReport is the JSON document written by the bench command.
type benchReport struct {
	Options   benchOptions            `json:"options"`
	Workers   int                     `json:"workers"`
	Build     time.Duration           `json:"build_ns"`
	Phases    map[string]phaseLatency `json:"phases"`
	Columns   []columnar.Descriptor   `json:"columns"`
	Resources *resourceUsage          `json:"resources,omitempty"`
}

type phaseLatency struct {
	P50 time.Duration `json:"p50_ns"`
	P95 time.Duration `json:"p95_ns"`
	P99 time.Duration `json:"p99_ns"`
}

// resourceUsage is the process footprint after the run.
type resourceUsage struct {
	RSSBytes        uint64  `json:"rss_bytes"`
	VMSBytes        uint64  `json:"vms_bytes"`
	CPUPercent      float64 `json:"cpu_percent"`
	Threads         int32   `json:"threads"`
	SystemMemory    uint64  `json:"system_memory_bytes"`
	SystemUsedRatio float64 `json:"system_used_percent"`
}

func newBenchCommand() *cobra.Command {
	opts := benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark column construction, sorting and row selection",
		Long: `Bench builds random real and nominal columns on the execution pool, then
sorts them and selects their rows by the sort permutation, both as views and
as copies. Latency percentiles and the process footprint are written as JSON.

When metrics are enabled in the configuration, Prometheus series are served
while the benchmark runs and for --hold afterwards.

Example:
  colframe bench --rows 1000000 --columns 8 --output bench.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd.Context(), opts)
		},
	}
	cmd.Flags().IntVar(&opts.Rows, "rows", 100_000, "Rows per column")
	cmd.Flags().IntVar(&opts.Columns, "columns", 4, "Number of columns of each kind")
	cmd.Flags().IntVar(&opts.Categories, "categories", 64, "Distinct values of nominal columns")
	cmd.Flags().IntVar(&opts.Iterations, "iterations", 5, "Repetitions of every timed phase")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 1, "Random seed")
	cmd.Flags().DurationVar(&opts.Hold, "hold", 0, "Keep serving metrics for this long after the run")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Write the report to this file instead of stdout")
	return cmd
}

func runBench(ctx context.Context, opts benchOptions) error {
	if opts.Rows <= 0 || opts.Columns <= 0 || opts.Iterations <= 0 {
		return errors.New(errors.ErrorTypeValidation, "rows, columns and iterations must be positive")
	}
	if opts.Categories <= 0 {
		return errors.New(errors.ErrorTypeValidation, "categories must be positive")
	}

	stop := serveMetrics()
	defer stop(opts.Hold)

	ctx, span := observability.NewSpan(ctx, "colframe.bench")
	span.SetAttribute("rows", opts.Rows)
	span.SetAttribute("columns", opts.Columns)

	report, err := benchmark(ctx, opts)
	span.Finish(err)
	if err != nil {
		return err
	}

	if usage, err := currentResourceUsage(); err != nil {
		logger.Warn("failed to read resource usage", zap.Error(err))
	} else {
		report.Resources = usage
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to render report")
	}
	if opts.Output == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(opts.Output, data, 0o644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write report").WithDetail("path", opts.Output)
	}
	logger.Info("benchmark report written", zap.String("path", opts.Output))
	return nil
}

func benchmark(ctx context.Context, opts benchOptions) (*benchReport, error) {
	pool := execution.NewPool(ctx, cfg.Execution)
	defer pool.Close()

	works := make([]func(context.Context) (columnar.Column, error), 0, 2*opts.Columns)
	for i := 0; i < opts.Columns; i++ {
		seed := opts.Seed + int64(i)
		works = append(works,
			func(context.Context) (columnar.Column, error) { return randomReal(opts.Rows, seed) },
			func(context.Context) (columnar.Column, error) {
				return randomNominal(opts.Rows, opts.Categories, seed)
			})
	}

	timer := metrics.NewTimer("build")
	cols, err := execution.CallAll(ctx, pool, works)
	if err != nil {
		return nil, err
	}
	build := timer.Stop()
	logger.Info("benchmark columns built", zap.Int("columns", len(cols)), zap.Duration("elapsed", build))

	phases := map[string]*metrics.LatencyTracker{
		"sort":      metrics.NewLatencyTracker(opts.Iterations * len(cols)),
		"rows_view": metrics.NewLatencyTracker(opts.Iterations * len(cols)),
		"rows_copy": metrics.NewLatencyTracker(opts.Iterations * len(cols)),
	}
	report := &benchReport{
		Options: opts,
		Workers: cfg.Execution.Workers,
		Build:   build,
		Phases:  make(map[string]phaseLatency, len(phases)),
	}

	for _, col := range cols {
		for i := 0; i < opts.Iterations; i++ {
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeAborted, "benchmark cancelled")
			}
			start := time.Now()
			perm, err := col.Sort(sorting.Order(i % 2))
			if err != nil {
				return nil, err
			}
			phases["sort"].Record(time.Since(start))

			start = time.Now()
			col.Rows(perm, true)
			phases["rows_view"].Record(time.Since(start))

			start = time.Now()
			col.Rows(perm, false)
			phases["rows_copy"].Record(time.Since(start))
		}
		report.Columns = append(report.Columns, columnar.Describe(col))
	}

	for name, tracker := range phases {
		report.Phases[name] = phaseLatency{
			P50: tracker.GetPercentile(50),
			P95: tracker.GetPercentile(95),
			P99: tracker.GetPercentile(99),
		}
	}
	return report, nil
}

func randomReal(rows int, seed int64) (columnar.Column, error) {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // benchmark data
	buf, err := columnar.NewRealBuffer(rows)
	if err != nil {
		return nil, err
	}
	for i := 0; i < rows; i++ {
		if err := buf.SetNext(rng.NormFloat64() * 1000); err != nil {
			return nil, err
		}
	}
	return buf.ToColumn(), nil
}

func randomNominal(rows, categories int, seed int64) (columnar.Column, error) {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // benchmark data
	format, err := intformats.FindMinimal(categories)
	if err != nil {
		return nil, err
	}
	buf, err := columnar.NewNominalBuffer(rows, format)
	if err != nil {
		return nil, err
	}
	values := make([]string, categories)
	for i := range values {
		values[i] = "category-" + strconv.Itoa(i)
	}
	for i := 0; i < rows; i++ {
		if err := buf.SetNext(values[rng.Intn(categories)]); err != nil {
			return nil, err
		}
	}
	return buf.ToColumn(), nil
}

// serveMetrics starts the Prometheus endpoint when enabled and returns the
// function stopping it after an optional hold.
func serveMetrics() func(hold time.Duration) {
	if !cfg.Metrics.Enabled {
		return func(time.Duration) {}
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	server := &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("address", cfg.Metrics.Address), zap.String("path", cfg.Metrics.Path))

	return func(hold time.Duration) {
		if hold > 0 {
			logger.Info("holding metrics endpoint", zap.Duration("hold", hold))
			time.Sleep(hold)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("failed to stop metrics server", zap.Error(err))
		}
	}
}

func currentResourceUsage() (*resourceUsage, error) {
	proc, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec
	if err != nil {
		return nil, err
	}
	usage := &resourceUsage{}

	memInfo, err := proc.MemoryInfo()
	if err != nil {
		return nil, err
	}
	usage.RSSBytes = memInfo.RSS
	usage.VMSBytes = memInfo.VMS

	usage.CPUPercent, _ = proc.CPUPercent()
	usage.Threads, _ = proc.NumThreads()

	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return nil, err
	}
	usage.SystemMemory = vmStat.Total
	usage.SystemUsedRatio = vmStat.UsedPercent
	return usage, nil
}
