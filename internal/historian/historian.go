// Package historian drains the game action queue into Postgres.
package historian

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
	"github.com/yellowcard/yellowcard/internal/cache"
)

// Source yields queued action records. cache.Queue satisfies it.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (cache.GameActionRecord, error)
}

// Sink persists records. database.ActionStore satisfies it.
type Sink interface {
	InsertActions(ctx context.Context, recs []cache.GameActionRecord) error
	MarkAbandoned(ctx context.Context, gameID uuid.UUID) error
}

// Options tune batching and abandonment.
type Options struct {
	BatchSize  int
	FlushDelay time.Duration
	Inactivity time.Duration // duration until a game is marked "abandoned"
	PopTimeout time.Duration
}

// Service encapsulates the queue and DB logic for capturing game actions
// and marking games abandoned when a certain inactivity threshold is reached.
type Service struct {
	source Source
	sink   Sink
	opts   Options
	log    *logrus.Entry

	lastActivity sync.Map // map[uuid.UUID]time.Time for tracking last activity per game

	batchMu deadlock.Mutex
	batch   []cache.GameActionRecord
}

// New builds a Service. Zero options fall back to defaults.
func New(source Source, sink Sink, opts Options) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = 500 * time.Millisecond
	}
	if opts.Inactivity <= 0 {
		opts.Inactivity = 10 * time.Minute
	}
	if opts.PopTimeout <= 0 {
		opts.PopTimeout = 3 * time.Second
	}
	return &Service{
		source: source,
		sink:   sink,
		opts:   opts,
		log:    logrus.WithField("component", "historian"),
		batch:  make([]cache.GameActionRecord, 0, opts.BatchSize),
	}
}

// Run reads the queue until ctx is done, then flushes what is left.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.flushLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.inactivityLoop(ctx)
	}()

	s.log.Info("historian started")
	s.readLoop(ctx)
	wg.Wait()

	// final flush, ctx is already cancelled
	s.Flush(context.Background())
	s.log.Info("historian stopped")
}

// readLoop continuously pops records from the queue.
func (s *Service) readLoop(ctx context.Context) {
	for ctx.Err() == nil {
		rec, err := s.source.Pop(ctx, s.opts.PopTimeout)
		switch {
		case errors.Is(err, cache.ErrQueueEmpty):
			continue
		case err != nil:
			if ctx.Err() == nil {
				s.log.WithError(err).Error("pop failed")
				time.Sleep(time.Second)
			}
			continue
		}
		s.Add(ctx, rec)
	}
}

func (s *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.FlushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

// inactivityLoop periodically marks games with no recent actions as abandoned.
func (s *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.SweepInactive(ctx, now)
		}
	}
}

// Add tracks the record's game and appends it to the batch, flushing when full.
func (s *Service) Add(ctx context.Context, rec cache.GameActionRecord) {
	if rec.ActionType == "game_end" {
		s.lastActivity.Delete(rec.GameID)
	} else {
		s.lastActivity.Store(rec.GameID, time.Now())
	}

	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.opts.BatchSize
	s.batchMu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

// Flush writes the current batch in one transaction. A failed batch is put back for the next flush.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	batchCopy := make([]cache.GameActionRecord, len(s.batch))
	copy(batchCopy, s.batch)
	s.batch = s.batch[:0]
	s.batchMu.Unlock()

	if err := s.sink.InsertActions(ctx, batchCopy); err != nil {
		s.log.WithError(err).Errorf("failed to flush %d actions", len(batchCopy))
		s.batchMu.Lock()
		s.batch = append(batchCopy, s.batch...)
		s.batchMu.Unlock()
		return
	}
	s.log.Debugf("Flushed %d actions to DB.", len(batchCopy))
}

// Pending returns the number of records waiting for a flush.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}

// SweepInactive marks every game idle for longer than Inactivity as abandoned.
func (s *Service) SweepInactive(ctx context.Context, now time.Time) {
	s.lastActivity.Range(func(key, val interface{}) bool {
		gameID, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= s.opts.Inactivity {
			return true
		}
		if err := s.sink.MarkAbandoned(ctx, gameID); err != nil {
			s.log.WithError(err).Warnf("failed to mark game %v abandoned", gameID)
			return true
		}
		s.log.Infof("Marked game %v as 'abandoned' due to inactivity.", gameID)
		s.lastActivity.Delete(gameID)
		return true
	})
}
