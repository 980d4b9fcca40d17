package relay

import "sync/atomic"

// Stats counts stream sessions by outcome.
type Stats struct {
	Sessions  int64 `json:"sessions"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Aborted   int64 `json:"aborted"`
	Events    int64 `json:"events"`
	Dropped   int64 `json:"dropped_lines"`
}

type counters struct {
	sessions  atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	aborted   atomic.Int64
	events    atomic.Int64
	dropped   atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Sessions:  c.sessions.Load(),
		Completed: c.completed.Load(),
		Failed:    c.failed.Load(),
		Aborted:   c.aborted.Load(),
		Events:    c.events.Load(),
		Dropped:   c.dropped.Load(),
	}
}
