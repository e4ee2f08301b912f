package gomatch

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ExampleQueue() {
	q, _ := NewQueue[ParticipantID](3)
	for id := range Participants(1, 4) {
		if batch, _ := q.Join(id); batch != nil {
			fmt.Println("batch", batch)
		}
	}
	fmt.Println("waiting", q.Len())

	// Output:
	// batch [1 2 3]
	// waiting 1
}

func TestQueueRejectsZeroBatchSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		q, err := NewQueue[ParticipantID](size)
		assert.Nil(t, q)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	}
}

func TestQueueBelowThreshold(t *testing.T) {
	q, err := NewQueue[ParticipantID](8)
	require.NoError(t, err)

	for id := range Participants(1, 7) {
		batch, err := q.Join(id)
		require.NoError(t, err)
		assert.Nil(t, batch, "join %d should not release", id)
	}
	assert.Equal(t, 7, q.Len())
}

func TestQueueSequentialBatches(t *testing.T) {
	q, err := NewQueue[ParticipantID](3)
	require.NoError(t, err)

	var batches []Batch[ParticipantID]
	for id := range Participants(1, 10) {
		batch, err := q.Join(id)
		require.NoError(t, err)
		if batch != nil {
			batches = append(batches, batch)
		}
	}

	assert.Equal(t, []Batch[ParticipantID]{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}, batches)
	assert.Equal(t, 1, q.Len())
}

func TestQueueBatchSizeOne(t *testing.T) {
	q, err := NewQueue[string](1)
	require.NoError(t, err)
	assert.Equal(t, 1, q.BatchSize())

	batch, err := q.Join("solo")
	require.NoError(t, err)
	assert.Equal(t, Batch[string]{"solo"}, batch)
	assert.Equal(t, 0, q.Len())
}

func TestQueueReleasedBatchIsDetached(t *testing.T) {
	q, err := NewQueue[int](2)
	require.NoError(t, err)

	_, _ = q.Join(1)
	first, _ := q.Join(2)
	first[0] = 100

	_, _ = q.Join(3)
	second, _ := q.Join(4)
	assert.Equal(t, Batch[int]{3, 4}, second)
	assert.Equal(t, Batch[int]{100, 2}, first)
}

func TestQueueConcurrentFullBatch(t *testing.T) {
	const batchSize = 8
	q, err := NewQueue[ParticipantID](batchSize)
	require.NoError(t, err)

	var mu sync.Mutex
	var batches []Batch[ParticipantID]
	start := make(chan struct{})
	var wg sync.WaitGroup
	for id := range Participants(1, batchSize) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			batch, err := q.Join(id)
			assert.NoError(t, err)
			if batch != nil {
				mu.Lock()
				batches = append(batches, batch)
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Len(t, batches, 1)
	got := append([]ParticipantID(nil), batches[0]...)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	assert.Equal(t, []ParticipantID{1, 2, 3, 4, 5, 6, 7, 8}, got)
	assert.Equal(t, 0, q.Len())
}

// stress runs workers*perWorker joins against j and checks that every id
// ends up in exactly one batch or still waiting.
func stress(t *testing.T, j Joiner[ParticipantID], batchSize, workers, perWorker int) {
	t.Helper()

	var mu sync.Mutex
	var batches []Batch[ParticipantID]
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func(first ParticipantID) {
			defer wg.Done()
			for id := range Participants(first, perWorker) {
				batch, err := j.Join(id)
				if !assert.NoError(t, err) {
					return
				}
				if batch != nil {
					mu.Lock()
					batches = append(batches, batch)
					mu.Unlock()
				}
			}
		}(ParticipantID(w*perWorker + 1))
	}
	wg.Wait()

	total := workers * perWorker
	require.Len(t, batches, total/batchSize)

	seen := make(map[ParticipantID]int, total)
	for _, b := range batches {
		require.Len(t, b, batchSize)
		for _, id := range b {
			seen[id]++
		}
	}
	assert.Equal(t, total%batchSize, j.Len())
	assert.Equal(t, total-total%batchSize, len(seen), "released ids must be distinct")
	for id, n := range seen {
		assert.Equal(t, 1, n, "id %d released %d times", id, n)
	}
}

func TestQueueStress(t *testing.T) {
	for _, tc := range []struct{ batchSize, workers, perWorker int }{
		{batchSize: 4, workers: 16, perWorker: 250},
		{batchSize: 7, workers: 9, perWorker: 113},
		{batchSize: 1, workers: 4, perWorker: 50},
	} {
		t.Run(fmt.Sprintf("B=%d/N=%d/M=%d", tc.batchSize, tc.workers, tc.perWorker), func(t *testing.T) {
			q, err := NewQueue[ParticipantID](tc.batchSize)
			require.NoError(t, err)
			stress(t, q, tc.batchSize, tc.workers, tc.perWorker)
		})
	}
}

func TestMatcherStress(t *testing.T) {
	log.Println("============== TestMatcherStress ================")
	m, err := NewMatcher[ParticipantID](5)
	require.NoError(t, err)
	defer m.Stop()
	stress(t, m, 5, 12, 101)
}

func TestQueuePoisonedAfterPanic(t *testing.T) {
	q, err := NewQueue[ParticipantID](3)
	require.NoError(t, err)
	_, err = q.Join(1)
	require.NoError(t, err)

	assert.PanicsWithValue(t, "boom", func() {
		q.g.do(func() {
			q.waiting = append(q.waiting, 2)
			panic("boom")
		})
	})
	assert.True(t, q.Poisoned())

	batch, err := q.Join(3)
	assert.Nil(t, batch)
	assert.ErrorIs(t, err, ErrLockPoisoned)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 0, q.Len())
}
