// Package stats keeps per-minute and total counters of the statements run
// through a database handle.
package stats

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// retention is how long per-minute counters are kept.
const retention = 24 * time.Hour

// Stat holds counters for different statement kinds.
type Stat struct {
	All      int64 `json:"all"`
	Read     int64 `json:"read"`
	Write    int64 `json:"write"`
	Begin    int64 `json:"begin"`
	Commit   int64 `json:"commit"`
	Rollback int64 `json:"rollback"`
}

// MinuteStat links a specific minute (RFC3339, UTC) with its counters.
type MinuteStat struct {
	Minute string `json:"minute"`
	Stat
}

// Snapshot is a point in time copy of the counters.
type Snapshot struct {
	StartedAt time.Time     `json:"startedAt"`
	Uptime    time.Duration `json:"uptime"`
	Totals    Stat          `json:"totals"`
	// Minutes is sorted newest first.
	Minutes []MinuteStat `json:"minutes"`
}

// DBStats manages per-minute and total stats. A background cleanup removes
// stats older than 24h at a fixed interval.
type DBStats struct {
	mu sync.Mutex

	startedAt  time.Time
	stats      map[string]Stat
	totalStats Stat

	stopCleanupChan chan bool
	closeOnce       sync.Once
}

// NewDBStats creates a DBStats instance and starts a background cleanup.
// The cleanup runs every 10s to remove data older than 24 hours.
func NewDBStats() *DBStats {
	db := &DBStats{
		startedAt:       time.Now(),
		stats:           make(map[string]Stat),
		stopCleanupChan: make(chan bool),
	}
	go db.runCleanupWorker()
	return db
}

// Close stops the background cleanup worker. It is safe to call more than
// once.
func (db *DBStats) Close() {
	db.closeOnce.Do(func() {
		close(db.stopCleanupChan)
	})
}

// runCleanupWorker periodically removes stats older than 24 hours.
func (db *DBStats) runCleanupWorker() {
	ticker := time.NewTicker(time.Second * 10)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			db.mu.Lock()
			db.cleanupOldStats(time.Now())
			db.mu.Unlock()
		case <-db.stopCleanupChan:
			return
		}
	}
}

// timeKey returns the minute of t in RFC3339 (UTC).
func timeKey(t time.Time) string {
	return t.UTC().Truncate(time.Minute).Format(time.RFC3339)
}

// addToStats updates the stats for the current minute and totals.
func (db *DBStats) addToStats(updateFunc func(*Stat)) {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := timeKey(time.Now())
	current := db.stats[key]
	updateFunc(&current)
	db.stats[key] = current

	updateFunc(&db.totalStats)
}

// cleanupOldStats removes entries older than the retention window.
func (db *DBStats) cleanupOldStats(now time.Time) {
	cutoff := now.UTC().Add(-retention)
	for minuteStr := range db.stats {
		parsed, err := time.Parse(time.RFC3339, minuteStr)
		if err != nil {
			continue
		}
		if parsed.Before(cutoff) {
			delete(db.stats, minuteStr)
		}
	}
}

// Snapshot returns a copy of the current counters.
func (db *DBStats) Snapshot() Snapshot {
	db.mu.Lock()
	defer db.mu.Unlock()

	minutes := make([]MinuteStat, 0, len(db.stats))
	for minuteStr, st := range db.stats {
		minutes = append(minutes, MinuteStat{Minute: minuteStr, Stat: st})
	}

	// RFC3339 in UTC sorts lexically.
	sort.Slice(minutes, func(i, j int) bool {
		return minutes[i].Minute > minutes[j].Minute
	})

	return Snapshot{
		StartedAt: db.startedAt,
		Uptime:    time.Since(db.startedAt),
		Totals:    db.totalStats,
		Minutes:   minutes,
	}
}

// MarshalJSON encodes the current snapshot.
func (db *DBStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(db.Snapshot())
}

// IncReads increments the count for read statements.
func (db *DBStats) IncReads() {
	db.addToStats(func(s *Stat) {
		s.Read++
		s.All++
	})
}

// IncWrites increments the count for write statements.
func (db *DBStats) IncWrites() {
	db.addToStats(func(s *Stat) {
		s.Write++
		s.All++
	})
}

// IncBegins increments the count for begun transactions.
func (db *DBStats) IncBegins() {
	db.addToStats(func(s *Stat) {
		s.Begin++
		s.All++
	})
}

// IncCommits increments the count for committed transactions.
func (db *DBStats) IncCommits() {
	db.addToStats(func(s *Stat) {
		s.Commit++
		s.All++
	})
}

// IncRollbacks increments the count for rolled back transactions.
func (db *DBStats) IncRollbacks() {
	db.addToStats(func(s *Stat) {
		s.Rollback++
		s.All++
	})
}
