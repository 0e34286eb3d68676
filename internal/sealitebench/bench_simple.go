package sealitebench

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sealite/sealite"
	"github.com/sealite/sealite/internal/sealitebench/benchbar"
)

type benchmarkSimpleConfig struct {
	insertXUsers     int
	insertGoroutines int
}

// runBenchmarkSimple inserts X users, one statement each, and then reads all
// of them in a single query.
func (b *bencher) runBenchmarkSimple(
	ctx context.Context, db *sealite.DB, _ benchTarget,
) (benchmarkResult, error) {
	conf := b.conf.benchmarkSimpleConfig
	start := time.Now()
	var totalReads, totalWrites uint64

	wg := sync.WaitGroup{}
	wgch := make(chan bool, conf.insertGoroutines)
	errChan := make(chan error, conf.insertXUsers)
	bar := benchbar.New(b.out,
		fmt.Sprintf("Inserting %d users", conf.insertXUsers), conf.insertXUsers,
	)

	for idx := range conf.insertXUsers {
		wg.Add(1)
		wgch <- true

		go func() {
			defer func() {
				wg.Done()
				<-wgch
			}()

			res, err := sealite.Execute(ctx, db,
				"INSERT INTO users (created, email, active) VALUES (?, ?, ?)",
				time.Now().Unix(), fmt.Sprintf("user%d@example.com", idx), 1,
			)
			if err != nil {
				errChan <- err
				return
			}

			bar.Inc()
			atomic.AddUint64(&totalWrites, uint64(res.RowsAffected))
		}()
	}

	wg.Wait()
	close(wgch)
	close(errChan)

	for e := range errChan {
		if e != nil {
			return benchmarkResult{}, fmt.Errorf("error when inserting: %w", e)
		}
	}

	bar.Finish()
	bar = benchbar.New(b.out, "Reading users", 1)

	cursor, err := sealite.ExecuteCursor[benchUser](ctx, db,
		"SELECT id, created, email, active FROM users ORDER BY id",
	)
	if err != nil {
		return benchmarkResult{}, fmt.Errorf("error when querying: %w", err)
	}

	for _, err := range cursor.All() {
		if err != nil {
			return benchmarkResult{}, fmt.Errorf("error when scanning: %w", err)
		}
		totalReads++
	}

	bar.Inc()
	bar.Finish()
	return benchmarkResult{
		Name:        "Simple",
		Duration:    time.Since(start),
		TotalReads:  totalReads,
		TotalWrites: totalWrites,
	}, nil
}
