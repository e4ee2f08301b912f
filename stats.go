package gomatch

import "sync/atomic"

// Stats counts matchmaking activity. It is owned by whoever creates it and
// passed to the components that update it; there is no package-level
// instance.
type Stats struct {
	joins        atomic.Uint64
	failedJoins  atomic.Uint64
	batches      atomic.Uint64
	participants atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Joins        uint64
	FailedJoins  uint64
	Batches      uint64
	Participants uint64
}

// RecordJoin counts a successful join and, if it released one, the batch.
func (s *Stats) RecordJoin(released int) {
	s.joins.Add(1)
	if released > 0 {
		s.batches.Add(1)
		s.participants.Add(uint64(released))
	}
}

// RecordFailure counts a join that returned an error.
func (s *Stats) RecordFailure() {
	s.failedJoins.Add(1)
}

// Snapshot returns the current counter values. Counters are read one at a
// time, so a snapshot taken during activity may be slightly inconsistent.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Joins:        s.joins.Load(),
		FailedJoins:  s.failedJoins.Load(),
		Batches:      s.batches.Load(),
		Participants: s.participants.Load(),
	}
}

// Reset sets all counters back to zero.
func (s *Stats) Reset() {
	s.joins.Store(0)
	s.failedJoins.Store(0)
	s.batches.Store(0)
	s.participants.Store(0)
}

// Waiting returns how many successful joins have not been released yet.
func (s StatsSnapshot) Waiting() uint64 {
	return s.Joins - s.Participants
}
