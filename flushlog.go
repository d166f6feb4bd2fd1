package reactive

import (
	"sync"
	"time"
)

// ObserverRun records one observer execution within a flush.
type ObserverRun struct {
	Observer uint64
	Name     string
	Err      error
	Duration time.Duration
}

// FlushRecord records one tick: which observers ran, how long the pass
// took, and the aggregated error, if any.
type FlushRecord struct {
	Tick  Tick
	Start time.Time
	End   time.Time
	Runs  []ObserverRun
	Err   error
}

// FlushLog is a bounded history of flush records for observability.
type FlushLog struct {
	mu      sync.RWMutex
	records []*FlushRecord
	limit   int
}

func newFlushLog(limit int) *FlushLog {
	return &FlushLog{
		records: []*FlushRecord{},
		limit:   limit,
	}
}

func (l *FlushLog) add(rec *FlushRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, rec)
	if len(l.records) > l.limit {
		l.records = l.records[len(l.records)-l.limit:]
	}
}

// Len returns the number of retained records.
func (l *FlushLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Last returns the most recent record, or nil if none exist.
func (l *FlushLog) Last() *FlushRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.records) == 0 {
		return nil
	}
	return l.records[len(l.records)-1]
}

// Records returns a copy of the retained records, oldest first.
func (l *FlushLog) Records() []*FlushRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*FlushRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Filter returns all records matching the predicate, oldest first.
func (l *FlushLog) Filter(predicate func(*FlushRecord) bool) []*FlushRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []*FlushRecord
	for _, rec := range l.records {
		if predicate(rec) {
			result = append(result, rec)
		}
	}
	return result
}
