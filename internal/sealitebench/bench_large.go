package sealitebench

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sealite/sealite"
	"github.com/sealite/sealite/internal/sealitebench/benchbar"
)

type benchmarkLargeConfig struct {
	insertXBlobs     int
	insertYBytes     int
	insertGoroutines int
}

// runBenchmarkLarge inserts X blobs of Y bytes each and then reads all of
// them back, checking their size. Every page of a blob goes through the
// cipher.
func (b *bencher) runBenchmarkLarge(
	ctx context.Context, db *sealite.DB, _ benchTarget,
) (benchmarkResult, error) {
	conf := b.conf.benchmarkLargeConfig
	start := time.Now()
	var totalReads, totalWrites uint64

	wg := sync.WaitGroup{}
	wgch := make(chan bool, conf.insertGoroutines)
	errChan := make(chan error, conf.insertXBlobs)
	bar := benchbar.New(b.out,
		fmt.Sprintf("Inserting %d blobs of %d bytes", conf.insertXBlobs, conf.insertYBytes),
		conf.insertXBlobs,
	)

	data := bytes.Repeat([]byte{0xA5}, conf.insertYBytes)
	for range conf.insertXBlobs {
		wg.Add(1)
		wgch <- true

		go func() {
			defer func() {
				wg.Done()
				<-wgch
			}()

			res, err := sealite.Execute(ctx, db,
				"INSERT INTO blobs (created, data) VALUES (?, ?)",
				time.Now().Unix(), data,
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

	cursor, err := sealite.ExecuteCursor[[]byte](ctx, db, "SELECT data FROM blobs ORDER BY id")
	if err != nil {
		return benchmarkResult{}, fmt.Errorf("error when querying: %w", err)
	}

	for blob, err := range cursor.All() {
		if err != nil {
			return benchmarkResult{}, fmt.Errorf("error when scanning: %w", err)
		}
		if len(blob) != conf.insertYBytes {
			return benchmarkResult{}, fmt.Errorf("read a blob of %d bytes, want %d", len(blob), conf.insertYBytes)
		}
		totalReads++
	}

	return benchmarkResult{
		Name:        "Large",
		Duration:    time.Since(start),
		TotalReads:  totalReads,
		TotalWrites: totalWrites,
	}, nil
}
