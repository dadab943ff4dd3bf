// internal/historian/historian_test.go
package historian

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yellowcard/yellowcard/internal/cache"
)

type fakeSink struct {
	mu        sync.Mutex
	batches   [][]cache.GameActionRecord
	abandoned []uuid.UUID
	fail      bool
}

func (f *fakeSink) InsertActions(_ context.Context, recs []cache.GameActionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("db down")
	}
	f.batches = append(f.batches, recs)
	return nil
}

func (f *fakeSink) MarkAbandoned(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abandoned = append(f.abandoned, id)
	return nil
}

// chanSource feeds records from a channel and reports empty after the timeout.
type chanSource chan cache.GameActionRecord

func (c chanSource) Pop(ctx context.Context, timeout time.Duration) (cache.GameActionRecord, error) {
	select {
	case rec := <-c:
		return rec, nil
	case <-ctx.Done():
		return cache.GameActionRecord{}, ctx.Err()
	case <-time.After(timeout):
		return cache.GameActionRecord{}, cache.ErrQueueEmpty
	}
}

func record(gameID uuid.UUID, idx int, typ string) cache.GameActionRecord {
	return cache.GameActionRecord{GameID: gameID, ActionIndex: idx, ActionType: typ}
}

func TestAddFlushesWhenBatchIsFull(t *testing.T) {
	sink := &fakeSink{}
	s := New(nil, sink, Options{BatchSize: 3})
	gameID := uuid.New()

	s.Add(context.Background(), record(gameID, 1, "game_start"))
	s.Add(context.Background(), record(gameID, 2, "game_turn"))
	assert.Equal(t, 2, s.Pending())
	assert.Empty(t, sink.batches)

	s.Add(context.Background(), record(gameID, 3, "demand_played"))
	assert.Zero(t, s.Pending())
	require.Len(t, sink.batches, 1)
	assert.Len(t, sink.batches[0], 3)
}

func TestFailedFlushKeepsRecords(t *testing.T) {
	sink := &fakeSink{fail: true}
	s := New(nil, sink, Options{BatchSize: 10})
	gameID := uuid.New()

	s.Add(context.Background(), record(gameID, 1, "game_start"))
	s.Flush(context.Background())
	assert.Equal(t, 1, s.Pending())

	sink.fail = false
	s.Flush(context.Background())
	assert.Zero(t, s.Pending())
	require.Len(t, sink.batches, 1)
}

func TestSweepInactive(t *testing.T) {
	sink := &fakeSink{}
	s := New(nil, sink, Options{Inactivity: time.Minute})
	idle, finished := uuid.New(), uuid.New()

	s.Add(context.Background(), record(idle, 1, "game_start"))
	s.Add(context.Background(), record(finished, 1, "game_start"))
	s.Add(context.Background(), record(finished, 2, "game_end"))

	s.SweepInactive(context.Background(), time.Now())
	assert.Empty(t, sink.abandoned, "nothing is idle yet")

	s.SweepInactive(context.Background(), time.Now().Add(2*time.Minute))
	assert.Equal(t, []uuid.UUID{idle}, sink.abandoned)

	s.SweepInactive(context.Background(), time.Now().Add(4*time.Minute))
	assert.Len(t, sink.abandoned, 1, "a game is only marked once")
}

func TestRunDrainsAndFlushesOnShutdown(t *testing.T) {
	sink := &fakeSink{}
	src := make(chanSource, 4)
	s := New(src, sink, Options{BatchSize: 100, FlushDelay: time.Hour, PopTimeout: 10 * time.Millisecond})
	gameID := uuid.New()
	for i := 1; i <= 4; i++ {
		src <- record(gameID, i, "game_turn")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return len(src) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	sink.mu.Lock()
	defer sink.mu.Unlock()
	total := 0
	for _, b := range sink.batches {
		total += len(b)
	}
	assert.Equal(t, 4, total)
}
