package eventlog

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// No workers are started in these tests, so jobs are never drained onto a
// real pool — they only exercise the enqueue/drop bookkeeping.

func TestRecordTriggerFireEnqueues(t *testing.T) {
	s := NewSink(nil, 4, zerolog.Nop())
	s.RecordTriggerFire("t1", "Slain", "Fippy", time.Now())

	if len(s.ch) != 1 {
		t.Fatalf("expected 1 queued job, got %d", len(s.ch))
	}
}

func TestRecordDropsWhenQueueFull(t *testing.T) {
	s := NewSink(nil, 2, zerolog.Nop())
	s.RecordTriggerFire("t1", "Slain", "Fippy", time.Now())
	s.RecordTriggerFire("t2", "Slain", "Fippy", time.Now())
	s.RecordTriggerFire("t3", "Slain", "Fippy", time.Now())

	if len(s.ch) != 2 {
		t.Fatalf("expected queue capped at 2, got %d", len(s.ch))
	}
}

func TestRecordAfterStopIsNoOp(t *testing.T) {
	s := NewSink(nil, 4, zerolog.Nop())
	s.stopped.Store(true)
	s.RecordTimerEvent("added", "lt1", "t1", "Enrage", time.Now())

	if len(s.ch) != 0 {
		t.Fatalf("expected no enqueue after Stop, got %d", len(s.ch))
	}
}
