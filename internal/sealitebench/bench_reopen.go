package sealitebench

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sealite/sealite"
	"github.com/sealite/sealite/internal/log"
	"github.com/sealite/sealite/internal/pooler"
	"github.com/sealite/sealite/internal/sealitebench/benchbar"
)

type benchmarkReopenConfig struct {
	reopenXTimes    int
	poolGoroutines  int
	poolMaxHandles  int
	poolIdleHandles int
}

// runBenchmarkReopen opens the database X times, reads from it and closes
// it. Keyed handles run the key derivation on every open.
func (b *bencher) runBenchmarkReopen(
	ctx context.Context, _ *sealite.DB, target benchTarget,
) (benchmarkResult, error) {
	conf := b.conf.benchmarkReopenConfig
	start := time.Now()
	var totalReads uint64

	bar := benchbar.New(b.out,
		fmt.Sprintf("Reopening %d times", conf.reopenXTimes), conf.reopenXTimes,
	)

	for range conf.reopenXTimes {
		db, err := b.openTarget(ctx, target)
		if err != nil {
			return benchmarkResult{}, err
		}

		_, err = sealite.ExecuteValue[int](ctx, db, "SELECT COUNT(*) FROM users")
		if closeErr := db.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return benchmarkResult{}, fmt.Errorf("error when reading: %w", err)
		}

		totalReads++
		bar.Inc()
	}
	bar.Finish()

	return benchmarkResult{
		Name:       "Reopen",
		Duration:   time.Since(start),
		TotalReads: totalReads,
	}, nil
}

// runBenchmarkPooled does the same reads as runBenchmarkReopen, from a few
// goroutines taking handles from a pool, so each handle is keyed once.
func (b *bencher) runBenchmarkPooled(
	ctx context.Context, _ *sealite.DB, target benchTarget,
) (benchmarkResult, error) {
	conf := b.conf.benchmarkReopenConfig
	start := time.Now()
	var totalReads uint64

	pool, err := pooler.NewPool(pooler.Config[*sealite.DB]{
		MaxItems: conf.poolMaxHandles,
		MaxIdle:  conf.poolIdleHandles,
		NewFunc: func(ctx context.Context) (*sealite.DB, error) {
			return b.openTarget(ctx, target)
		},
		CloseFunc: func(db *sealite.DB) error {
			return db.Close()
		},
	})
	if err != nil {
		return benchmarkResult{}, err
	}
	defer pool.Close()

	wg := sync.WaitGroup{}
	wgch := make(chan bool, conf.poolGoroutines)
	errChan := make(chan error, conf.reopenXTimes)
	bar := benchbar.New(b.out,
		fmt.Sprintf("Reading %d times from a pool of %d handles", conf.reopenXTimes, conf.poolMaxHandles),
		conf.reopenXTimes,
	)

	for range conf.reopenXTimes {
		wg.Add(1)
		wgch <- true

		go func() {
			defer func() {
				wg.Done()
				<-wgch
			}()

			err := pool.With(ctx, func(db *sealite.DB) error {
				_, err := sealite.ExecuteValue[int](ctx, db, "SELECT COUNT(*) FROM users")
				return err
			})
			if err != nil {
				errChan <- err
				return
			}

			atomic.AddUint64(&totalReads, 1)
			bar.Inc()
		}()
	}

	wg.Wait()
	close(wgch)
	close(errChan)

	for e := range errChan {
		if e != nil {
			return benchmarkResult{}, fmt.Errorf("error when reading: %w", e)
		}
	}
	bar.Finish()

	stats := pool.Stats()
	b.logger.InfoNs(log.NsBench, "pool drained", log.KV{
		"target":  target.Name,
		"created": stats.Created,
		"idle":    stats.Idle,
	})

	return benchmarkResult{
		Name:       "Reopen (pooled)",
		Duration:   time.Since(start),
		TotalReads: totalReads,
	}, nil
}
