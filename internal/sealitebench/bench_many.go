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

type benchmarkManyConfig struct {
	insertXUsers     int
	queryUsersYTimes int
	queryGoroutines  int
}

// runBenchmarkMany inserts X users in a single transaction and then query all
// users Y times. This simulates a read-heavy workload.
func (b *bencher) runBenchmarkMany(
	ctx context.Context, db *sealite.DB, _ benchTarget,
) (benchmarkResult, error) {
	conf := b.conf.benchmarkManyConfig
	start := time.Now()
	var totalReads, totalWrites uint64

	bar := benchbar.New(b.out,
		fmt.Sprintf("Inserting %d users", conf.insertXUsers), conf.insertXUsers,
	)

	err := db.WithTx(ctx, func(tx *sealite.Tx) error {
		stmt, err := sealite.Prepare[any](ctx, tx,
			"INSERT INTO users (created, email, active) VALUES (?, ?, ?)",
		)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for idx := range conf.insertXUsers {
			res, err := stmt.Execute(ctx,
				time.Now().Unix(), fmt.Sprintf("user%d@example.com", idx), 1,
			)
			if err != nil {
				return err
			}
			bar.Inc()
			totalWrites += uint64(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return benchmarkResult{}, fmt.Errorf("error when inserting: %w", err)
	}
	bar.Finish()

	wgQuery := sync.WaitGroup{}
	chQuery := make(chan bool, conf.queryGoroutines)
	errQuery := make(chan error, conf.queryUsersYTimes)
	bar = benchbar.New(b.out,
		fmt.Sprintf("Querying all users %d times", conf.queryUsersYTimes),
		conf.queryUsersYTimes,
	)

	for range conf.queryUsersYTimes {
		wgQuery.Add(1)
		chQuery <- true
		go func() {
			defer func() {
				wgQuery.Done()
				<-chQuery
			}()

			users, err := sealite.ExecuteRows[benchUser](ctx, db,
				"SELECT id, created, email, active FROM users ORDER BY id",
			)
			if err != nil {
				errQuery <- err
				return
			}

			atomic.AddUint64(&totalReads, uint64(len(users)))
			bar.Inc()
		}()
	}

	wgQuery.Wait()
	close(chQuery)
	close(errQuery)

	for e := range errQuery {
		if e != nil {
			return benchmarkResult{}, e
		}
	}
	bar.Finish()

	return benchmarkResult{
		Name:        "Many",
		Duration:    time.Since(start),
		TotalReads:  totalReads,
		TotalWrites: totalWrites,
	}, nil
}
