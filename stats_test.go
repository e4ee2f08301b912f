package gomatch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsRecordAndReset(t *testing.T) {
	var stats Stats
	stats.RecordJoin(0)
	stats.RecordJoin(0)
	stats.RecordJoin(3)
	stats.RecordFailure()

	snap := stats.Snapshot()
	assert.Equal(t, StatsSnapshot{Joins: 3, FailedJoins: 1, Batches: 1, Participants: 3}, snap)
	assert.Equal(t, uint64(0), snap.Waiting())

	stats.Reset()
	assert.Equal(t, StatsSnapshot{}, stats.Snapshot())
}

func TestStatsInstancesAreIndependent(t *testing.T) {
	var a, b Stats
	a.RecordJoin(0)
	assert.Equal(t, uint64(1), a.Snapshot().Joins)
	assert.Equal(t, uint64(0), b.Snapshot().Joins)
}

func TestStatsConcurrentUpdates(t *testing.T) {
	var stats Stats
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				stats.RecordJoin(0)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(1000), stats.Snapshot().Joins)
}
