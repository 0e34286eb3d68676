package sealitebench

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sealite/sealite"
	"github.com/sealite/sealite/internal/log"
	"github.com/sealite/sealite/internal/sqlitedrv"
	"github.com/sealite/sealite/internal/styled"
	"github.com/sealite/sealite/internal/util/numutil"
	"github.com/sealite/sealite/internal/version"
)

// benchmarkResult stores the outcome of a benchmark.
type benchmarkResult struct {
	Name        string
	Duration    time.Duration
	TotalReads  uint64
	TotalWrites uint64
}

// targetResults are the results of every benchmark on one target.
type targetResults struct {
	Target  benchTarget
	Results []benchmarkResult
}

type benchFunc func(ctx context.Context, db *sealite.DB, target benchTarget) (benchmarkResult, error)

// bencher runs the benchmarks on database files under dir.
type bencher struct {
	dir    string
	conf   benchmarksConfig
	out    io.Writer
	logger log.Logger
}

// Run executes the benchmarks for the plaintext and encrypted targets and
// prints the results.
func Run(ctx context.Context) error {
	conf := mustParseConfig(os.Args)
	level, _ := conf.slogLevel()
	logger := log.NewLoggerWithLevel(os.Stderr, level)

	fmt.Println(version.BenchVersion())

	dir := conf.Dir
	if dir == "" {
		tmpDir, err := os.MkdirTemp("", "sealitebench_*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmpDir)
		dir = tmpDir
	}
	fmt.Println("Benchmark databases in", dir)

	if !sqlitedrv.EncryptionSupported {
		styled.WarningColor().Printf(
			"The %s engine cannot encrypt, only the plaintext target runs\n", sqlitedrv.EngineName,
		)
	}

	b := &bencher{
		dir:    dir,
		conf:   conf.benchmarks(),
		out:    os.Stdout,
		logger: logger,
	}

	all := []targetResults{}
	for _, target := range benchTargets() {
		fmt.Printf("\n--- Benchmarks for %s ---\n", target.Name)
		results, err := b.runTarget(ctx, target)
		if err != nil {
			return fmt.Errorf("error benchmarking %s: %w", target.Name, err)
		}
		fmt.Println(renderResults(results))
		all = append(all, targetResults{Target: target, Results: results})
	}

	fmt.Println("\n--- Summary ---")
	fmt.Println(renderSummary(all))
	return nil
}

// runTarget executes all benchmarks on a fresh database of the target.
//
// It recreates the schema before each benchmark.
func (b *bencher) runTarget(ctx context.Context, target benchTarget) ([]benchmarkResult, error) {
	path := b.targetPath(target)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	db, err := b.openTarget(ctx, target)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	benchs := []benchFunc{
		b.runBenchmarkSimple,
		b.runBenchmarkLarge,
		b.runBenchmarkMany,
		b.runBenchmarkReopen,
		b.runBenchmarkPooled,
	}

	var results []benchmarkResult

	for _, bench := range benchs {
		if err := recreateSchema(ctx, db); err != nil {
			return nil, err
		}

		res, err := bench(ctx, db, target)
		if err != nil {
			return nil, err
		}
		b.logger.InfoNs(log.NsBench, "benchmark finished", log.KV{
			"target":   target.Name,
			"name":     res.Name,
			"duration": res.Duration.String(),
		})
		results = append(results, res)
	}

	return results, nil
}

// openTarget opens a new handle on the database file of the target.
func (b *bencher) openTarget(ctx context.Context, target benchTarget) (*sealite.DB, error) {
	opts, err := target.Options()
	if err != nil {
		return nil, err
	}
	opts = append(opts, sealite.WithLogger(b.logger))

	return sealite.OpenContext(ctx, b.targetPath(target), opts...)
}

func (b *bencher) targetPath(target benchTarget) string {
	slug := strings.NewReplacer(" ", "_", ",", "").Replace(target.Name)
	return filepath.Join(b.dir, slug, "bench.db")
}

func renderResults(results []benchmarkResult) string {
	tw := styled.NewTableWriter()
	tw.AppendHeader(table.Row{"Name", "Reads", "Writes", "Duration"})

	for _, r := range results {
		tw.AppendRow(table.Row{
			r.Name,
			numutil.IntWithCommas(r.TotalReads),
			numutil.IntWithCommas(r.TotalWrites),
			r.Duration.Round(time.Millisecond),
		})
	}

	return tw.Render()
}

// renderSummary puts the duration of every benchmark side by side, with the
// slowdown against the first target.
func renderSummary(all []targetResults) string {
	tw := styled.NewTableWriter()
	if len(all) == 0 {
		return tw.Render()
	}

	header := table.Row{"Benchmark"}
	for _, tr := range all {
		header = append(header, tr.Target.Name)
	}
	tw.AppendHeader(header)

	baseline := all[0].Results
	for i, base := range baseline {
		row := table.Row{base.Name}
		for j, tr := range all {
			if i >= len(tr.Results) {
				row = append(row, "-")
				continue
			}

			cell := tr.Results[i].Duration.Round(time.Millisecond).String()
			if j > 0 && base.Duration > 0 {
				ratio := float64(tr.Results[i].Duration) / float64(base.Duration)
				cell = fmt.Sprintf("%s (x%.2f)", cell, ratio)
			}
			row = append(row, cell)
		}
		tw.AppendRow(row)
	}

	return tw.Render()
}
