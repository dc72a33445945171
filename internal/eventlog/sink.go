package eventlog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Sink records trigger fires and timer lifecycle events without blocking
// the reactor or timer manager: Record* enqueues onto a bounded channel and
// returns immediately, same shape as the teacher's AsyncUploader — a job
// is dropped (with a warning) rather than blocking the caller when the
// queue is full, since losing a history row is harmless to the reactor.
type Sink struct {
	db       *DB
	ch       chan job
	log      zerolog.Logger
	stopped  atomic.Bool
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type jobKind int

const (
	jobTriggerFire jobKind = iota
	jobTimerEvent
)

type job struct {
	kind jobKind

	triggerID   string
	triggerName string
	character   string

	timerEventKind string
	liveTimerID    string
	name           string

	at time.Time
}

// NewSink creates a Sink with the given queue depth.
func NewSink(db *DB, bufferSize int, log zerolog.Logger) *Sink {
	return &Sink{
		db:  db,
		ch:  make(chan job, bufferSize),
		log: log.With().Str("component", "eventlog-sink").Logger(),
	}
}

// Start launches worker goroutines that drain the queue.
func (s *Sink) Start(workers int) {
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	s.log.Info().Int("workers", workers).Int("buffer", cap(s.ch)).Msg("eventlog sink started")
}

// Stop signals workers to drain the remaining queue and waits for them.
func (s *Sink) Stop() {
	s.stopped.Store(true)
	s.stopOnce.Do(func() { close(s.ch) })
	s.wg.Wait()
}

// RecordTriggerFire enqueues a trigger-fire row. Non-blocking.
func (s *Sink) RecordTriggerFire(triggerID, triggerName, character string, at time.Time) {
	s.enqueue(job{kind: jobTriggerFire, triggerID: triggerID, triggerName: triggerName, character: character, at: at})
}

// RecordTimerEvent enqueues a timer lifecycle row. Non-blocking.
func (s *Sink) RecordTimerEvent(kind, liveTimerID, triggerID, name string, at time.Time) {
	s.enqueue(job{kind: jobTimerEvent, timerEventKind: kind, liveTimerID: liveTimerID, triggerID: triggerID, name: name, at: at})
}

func (s *Sink) enqueue(j job) {
	if s.stopped.Load() {
		return
	}
	select {
	case s.ch <- j:
	default:
		s.log.Warn().Msg("eventlog queue full, dropping event")
	}
}

func (s *Sink) worker() {
	defer s.wg.Done()
	for j := range s.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		s.insert(ctx, j)
		cancel()
	}
}

func (s *Sink) insert(ctx context.Context, j job) {
	var err error
	switch j.kind {
	case jobTriggerFire:
		_, err = s.db.Pool.Exec(ctx,
			`INSERT INTO trigger_fires (trigger_id, trigger_name, character, matched_at) VALUES ($1, $2, $3, $4)`,
			j.triggerID, j.triggerName, j.character, j.at,
		)
	case jobTimerEvent:
		_, err = s.db.Pool.Exec(ctx,
			`INSERT INTO timer_events (kind, live_timer_id, trigger_id, name, occurred_at) VALUES ($1, $2, $3, $4, $5)`,
			j.timerEventKind, j.liveTimerID, j.triggerID, j.name, j.at,
		)
	}
	if err != nil {
		s.log.Error().Err(err).Msg("eventlog insert failed")
	}
}
