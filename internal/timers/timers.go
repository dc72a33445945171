// Package timers implements the live timer manager and per-timer reaper
// (spec §4.7): StartTimer/StartStopwatch policy application, the
// subscription snapshot+broadcast used by the introspection API, and the
// Wait* timer effects.
package timers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tinkeringguild/logquest-go/internal/matcher"
	"github.com/tinkeringguild/logquest-go/internal/triggers"
)

// UpdateKind discriminates a StateUpdate.
type UpdateKind string

const (
	TimerAdded   UpdateKind = "added"
	TimerKilled  UpdateKind = "killed"
	TimerUpdated UpdateKind = "updated"
)

// StateUpdate is broadcast to every subscriber whenever a live timer's
// lifecycle changes.
type StateUpdate struct {
	Kind UpdateKind
	Live *LiveTimer
}

// LiveTimer is a running instance of a Timer or Stopwatch, named by the
// template rendered against the match that started it.
type LiveTimer struct {
	ID        string
	TriggerID string
	Name      string
	Timer     *triggers.Timer     // nil for a stopwatch
	Stopwatch *triggers.Stopwatch // nil for a timer
	StartTime time.Time
	Duration  time.Duration // zero for a stopwatch: it never naturally expires
	Hidden    bool
	Match     *matcher.MatchContext
}

type liveEntry struct {
	live    *LiveTimer
	reset   chan struct{}
	done    chan struct{}
	changed chan struct{} // closed and replaced whenever live.StartTime moves
}

const stateUpdateChannelSize = 50

// Manager owns the live timer map and the per-subscriber fan-out of
// StateUpdate events (the broadcast channel of spec §5, implemented the way
// the teacher's event bus does it: a mutex-guarded map of buffered
// channels, dropping an update for any subscriber that isn't keeping up
// rather than blocking the publisher).
type Manager struct {
	ctx context.Context

	mu          sync.Mutex
	live        map[string]*liveEntry
	subscribers map[uint64]chan StateUpdate
	nextSubID   uint64
}

// New returns a manager whose background reapers stop when ctx is done
// (ctx is normally shutdown.Coordinator's context).
func New(ctx context.Context) *Manager {
	return &Manager{
		ctx:         ctx,
		live:        make(map[string]*liveEntry),
		subscribers: make(map[uint64]chan StateUpdate),
	}
}

// StartTimer starts a new live timer for t, applying its start policy:
// DoNothingIfRunning compares the rendered name against every live timer,
// while the Replace* policies only remove timers of the same trigger.
func (m *Manager) StartTimer(t *triggers.Timer, match *matcher.MatchContext) error {
	live := &LiveTimer{
		ID:        uuid.NewString(),
		TriggerID: t.TriggerID,
		Name:      t.NameTmpl.Render(match),
		Timer:     t,
		StartTime: time.Now(),
		Duration:  t.Duration,
		Match:     match,
	}
	return m.start(live, t.StartPolicy)
}

// StartStopwatch starts a new live stopwatch, which never expires on its
// own and can only be ended by an explicit ClearTimer.
func (m *Manager) StartStopwatch(sw *triggers.Stopwatch, match *matcher.MatchContext) error {
	live := &LiveTimer{
		ID:        uuid.NewString(),
		TriggerID: sw.TriggerID,
		Name:      sw.NameTmpl.Render(match),
		Stopwatch: sw,
		StartTime: time.Now(),
		Match:     match,
	}
	return m.start(live, sw.StartPolicy)
}

func (m *Manager) start(live *LiveTimer, policy triggers.TimerStartPolicy) error {
	m.mu.Lock()

	switch p := policy.(type) {
	case triggers.AlwaysStart:
		// nothing to do
	case triggers.DoNothingIfRunning:
		if m.runningWithNameLocked(live.Name) {
			m.mu.Unlock()
			return nil
		}
	case triggers.ReplaceAllOfTrigger:
		m.killTriggerLocked(live.TriggerID, "")
	case triggers.ReplaceByName:
		replacedName := p.NameTmpl.Render(live.Match)
		m.killTriggerLocked(live.TriggerID, replacedName)
	}

	entry := &liveEntry{
		live:    live,
		reset:   make(chan struct{}, 1),
		done:    make(chan struct{}),
		changed: make(chan struct{}),
	}
	m.live[live.ID] = entry
	m.mu.Unlock()

	go m.reap(live.ID, entry)
	m.broadcast(StateUpdate{Kind: TimerAdded, Live: live})
	return nil
}

func (m *Manager) runningWithNameLocked(name string) bool {
	for _, e := range m.live {
		if e.live.Name == name {
			return true
		}
	}
	return false
}

// killTriggerLocked removes every live timer belonging to triggerID,
// additionally filtered by name when name is non-empty. Must be called with
// mu held.
func (m *Manager) killTriggerLocked(triggerID, name string) {
	var toKill []*liveEntry
	for _, e := range m.live {
		if e.live.TriggerID != triggerID {
			continue
		}
		if name != "" && e.live.Name != name {
			continue
		}
		toKill = append(toKill, e)
	}
	for _, e := range toKill {
		delete(m.live, e.live.ID)
		close(e.reset)
		close(e.done)
	}
}

// reap is the per-timer lifetime goroutine: it sleeps for the remaining
// duration, and either fires elapsed(), is reset (restart), or is told to
// stop because the timer was killed out from under it.
func (m *Manager) reap(id string, entry *liveEntry) {
	duration := entry.live.Duration
	for {
		if duration <= 0 {
			// Stopwatch: nothing to sleep for; just wait to be reset, killed,
			// or shut down.
			select {
			case <-m.ctx.Done():
				return
			case _, ok := <-entry.reset:
				if !ok {
					return
				}
				continue
			}
		}

		timer := time.NewTimer(duration)
		select {
		case <-m.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			m.elapsed(id)
			return
		case _, ok := <-entry.reset:
			timer.Stop()
			if !ok {
				return
			}
			continue
		}
	}
}

func (m *Manager) elapsed(id string) {
	m.mu.Lock()
	entry, ok := m.live[id]
	if ok {
		delete(m.live, id)
	}
	m.mu.Unlock()
	if ok {
		close(entry.done)
		m.broadcast(StateUpdate{Kind: TimerKilled, Live: entry.live})
	}
}

// ClearTimer kills a live timer immediately, regardless of remaining time.
func (m *Manager) ClearTimer(liveTimerID string) error {
	m.mu.Lock()
	entry, ok := m.live[liveTimerID]
	if ok {
		delete(m.live, liveTimerID)
	}
	m.mu.Unlock()
	if !ok {
		return nil
	}
	close(entry.reset)
	close(entry.done)
	m.broadcast(StateUpdate{Kind: TimerKilled, Live: entry.live})
	return nil
}

// HideTimer marks a live timer hidden from display without affecting its
// lifetime.
func (m *Manager) HideTimer(liveTimerID string) error {
	m.mu.Lock()
	entry, ok := m.live[liveTimerID]
	if ok {
		entry.live.Hidden = true
	}
	m.mu.Unlock()
	if ok {
		m.broadcast(StateUpdate{Kind: TimerUpdated, Live: entry.live})
	}
	return nil
}

// RestartTimer resets a live timer's clock back to full duration.
func (m *Manager) RestartTimer(liveTimerID string) error {
	m.mu.Lock()
	entry, ok := m.live[liveTimerID]
	if ok {
		entry.live.StartTime = time.Now()
		close(entry.changed)
		entry.changed = make(chan struct{})
	}
	m.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case entry.reset <- struct{}{}:
	default:
	}
	m.broadcast(StateUpdate{Kind: TimerUpdated, Live: entry.live})
	return nil
}

// WaitUntilSecondsRemain blocks until liveTimerID has at most seconds left,
// ctx is cancelled, or the timer is killed first. RestartTimer moving the
// timer's end time re-arms the wait rather than letting it resolve against a
// stale deadline.
func (m *Manager) WaitUntilSecondsRemain(ctx context.Context, liveTimerID string, seconds uint32) error {
	for {
		m.mu.Lock()
		entry, ok := m.live[liveTimerID]
		if !ok {
			m.mu.Unlock()
			return nil
		}
		deadline := entry.live.StartTime.Add(entry.live.Duration - time.Duration(seconds)*time.Second)
		changed := entry.changed
		done := entry.done
		m.mu.Unlock()

		wait := time.Until(deadline)
		if wait <= 0 {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-done:
			timer.Stop()
			return nil
		case <-timer.C:
			return nil
		case <-changed:
			timer.Stop()
			continue
		}
	}
}

// WaitUntilFinished blocks until liveTimerID is killed or elapses.
func (m *Manager) WaitUntilFinished(ctx context.Context, liveTimerID string) error {
	m.mu.Lock()
	entry, ok := m.live[liveTimerID]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-entry.done:
		return nil
	}
}

// Subscribe atomically snapshots every live timer and returns a channel
// that receives every subsequent StateUpdate, plus a cancel func to stop
// receiving. Mirrors the teacher's EventBus.Subscribe: a slow subscriber
// has updates dropped rather than blocking the manager.
func (m *Manager) Subscribe() ([]*LiveTimer, <-chan StateUpdate, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make([]*LiveTimer, 0, len(m.live))
	for _, e := range m.live {
		snapshot = append(snapshot, e.live)
	}

	id := m.nextSubID
	m.nextSubID++
	ch := make(chan StateUpdate, stateUpdateChannelSize)
	m.subscribers[id] = ch

	cancel := func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
	return snapshot, ch, cancel
}

func (m *Manager) broadcast(update StateUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subscribers {
		select {
		case ch <- update:
		default:
		}
	}
}

// Count returns the number of live timers, for metrics.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// SubscriberCount returns the number of active Subscribe() receivers, for
// metrics (ReactorStats.TimerSubscriberCount).
func (m *Manager) SubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}
