// Package stats keeps per-minute activity counters for a connection.
package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/nsqlite/litebind/sqlitec"
)

// retention is how long per-minute counters are kept.
const retention = 24 * time.Hour

// Counters holds the counters of one minute, or the totals.
type Counters struct {
	Statements int64
	Reads      int64
	Writes     int64
	Inserts    int64
	Updates    int64
	Deletes    int64
	Commits    int64
	Rollbacks  int64
}

// RowsChanged returns the number of rows inserted, updated or deleted.
func (c Counters) RowsChanged() int64 {
	return c.Inserts + c.Updates + c.Deletes
}

// Minute links a minute (RFC3339, UTC) with its counters.
type Minute struct {
	Minute string
	Counters
}

// Snapshot is a copy of the stats at one point in time.
type Snapshot struct {
	StartedAt time.Time
	Uptime    time.Duration
	// Totals covers the whole lifetime, including pruned minutes.
	Totals Counters
	// Minutes is sorted from the most recent minute to the oldest.
	Minutes []Minute
}

// ConnStats collects counters for a connection. It is safe for concurrent
// use.
type ConnStats struct {
	mu        sync.Mutex
	now       func() time.Time
	startedAt time.Time
	totals    Counters
	minutes   map[time.Time]*Counters
}

// New creates an empty ConnStats.
func New() *ConnStats {
	return newWithClock(time.Now)
}

func newWithClock(now func() time.Time) *ConnStats {
	return &ConnStats{
		now:       now,
		startedAt: now(),
		minutes:   map[time.Time]*Counters{},
	}
}

// Attach installs update, commit and rollback hooks on conn that feed the
// counters. It replaces any hooks installed before.
func (s *ConnStats) Attach(conn *sqlitec.Conn) error {
	if err := conn.SetUpdateHandler(func(op sqlitec.UpdateOp, _, _ string, _ int64) {
		s.AddRowChange(op)
	}); err != nil {
		return err
	}
	if err := conn.SetCommitHandler(func() bool {
		s.add(func(c *Counters) { c.Commits++ })
		return false
	}); err != nil {
		return err
	}
	return conn.SetRollbackHandler(func() {
		s.add(func(c *Counters) { c.Rollbacks++ })
	})
}

// IncStatement counts an executed statement.
func (s *ConnStats) IncStatement(read bool) {
	s.add(func(c *Counters) {
		c.Statements++
		if read {
			c.Reads++
		} else {
			c.Writes++
		}
	})
}

// AddRowChange counts a row changed by op.
func (s *ConnStats) AddRowChange(op sqlitec.UpdateOp) {
	s.add(func(c *Counters) {
		switch op {
		case sqlitec.OpInsert:
			c.Inserts++
		case sqlitec.OpUpdate:
			c.Updates++
		case sqlitec.OpDelete:
			c.Deletes++
		}
	})
}

func (s *ConnStats) add(update func(*Counters)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	key := now.Truncate(time.Minute)
	c, ok := s.minutes[key]
	if !ok {
		c = &Counters{}
		s.minutes[key] = c
		s.prune(now)
	}
	update(c)
	update(&s.totals)
}

// prune drops minutes older than the retention window.
func (s *ConnStats) prune(now time.Time) {
	limit := now.Add(-retention)
	for key := range s.minutes {
		if key.Before(limit) {
			delete(s.minutes, key)
		}
	}
}

// Snapshot returns a copy of the current counters.
func (s *ConnStats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		StartedAt: s.startedAt,
		Uptime:    s.now().Sub(s.startedAt).Round(time.Second),
		Totals:    s.totals,
		Minutes:   make([]Minute, 0, len(s.minutes)),
	}

	keys := make([]time.Time, 0, len(s.minutes))
	for key := range s.minutes {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[j].Before(keys[i])
	})

	for _, key := range keys {
		c := *s.minutes[key]
		snap.Minutes = append(snap.Minutes, Minute{
			Minute:   key.Format(time.RFC3339),
			Counters: c,
		})
	}

	return snap
}
