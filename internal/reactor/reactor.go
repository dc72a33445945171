// Package reactor implements the per-line event loop (spec §4.5): breadth
// first traversal of the trigger forest, active-tag gating, and
// enqueue-then-continue-matching effect dispatch.
package reactor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tinkeringguild/logquest-go/internal/effects"
	"github.com/tinkeringguild/logquest-go/internal/index"
	"github.com/tinkeringguild/logquest-go/internal/logs"
	"github.com/tinkeringguild/logquest-go/internal/matcher"
	"github.com/tinkeringguild/logquest-go/internal/triggers"
)

// Reactor owns the active tag set and drives effect firing in response to
// matched lines. It implements effects.Tags and effects.LineWaiter so the
// effect engine can be wired directly back to it.
type Reactor struct {
	ctx      context.Context
	idx      *index.Index
	engine   *effects.Engine
	pipeline *logs.Pipeline
	log      zerolog.Logger

	mu          sync.Mutex
	activeTags  map[string]struct{}
	tagWaiters  []*tagWaiter
	lineWaiters []*lineWaiter

	// OnFire, if set, is called once per matched trigger (not once per
	// effect) before its effects are dispatched. Optional observer hook for
	// the event log / mqtt publisher collaborators; nil is a no-op.
	OnFire func(triggerID, triggerName string, at time.Time)
}

type tagWaiter struct {
	tag  string
	done chan struct{}
}

type lineWaiter struct {
	matcher       *matcher.DialectMatcher
	characterName string
	result        chan *matcher.MatchContext
}

// New wires a Reactor to its dependencies and registers it as engine's
// Tags/Waiter implementation.
func New(ctx context.Context, idx *index.Index, engine *effects.Engine, pipeline *logs.Pipeline, log zerolog.Logger) *Reactor {
	r := &Reactor{
		ctx:        ctx,
		idx:        idx,
		engine:     engine,
		pipeline:   pipeline,
		log:        log.With().Str("component", "reactor").Logger(),
		activeTags: make(map[string]struct{}),
	}
	engine.Tags = r
	engine.Waiter = r
	return r
}

// Run starts the log pipeline and the reactor's own dispatch loop.
func (r *Reactor) Run() {
	r.pipeline.Start()
	go r.loop()
}

func (r *Reactor) loop() {
	for {
		select {
		case <-r.ctx.Done():
			return
		case le, ok := <-r.pipeline.Lines():
			if !ok {
				return
			}
			r.reactToLine(le)
		}
	}
}

// reactToLine breadth-first-traverses the trigger forest from top_level,
// skipping disabled triggers and ones whose tags are all inactive, firing
// every matched trigger's effects as a detached goroutine so matching
// continues without waiting on effect execution (spec §4.5: "enqueue...
// then keep matching").
func (r *Reactor) reactToLine(le logs.LineEvent) {
	queue := []string{triggers.TopLevelGroupID}
	for len(queue) > 0 {
		groupID := queue[0]
		queue = queue[1:]

		group := r.idx.Group(groupID)
		if group == nil {
			continue
		}
		for _, child := range group.Children {
			switch {
			case child.TriggerID != nil:
				r.tryTrigger(*child.TriggerID, le)
			case child.GroupID != nil:
				queue = append(queue, *child.GroupID)
			}
		}
	}

	r.checkLineWaiters(le)
}

func (r *Reactor) tryTrigger(triggerID string, le logs.LineEvent) {
	trig := r.idx.Trigger(triggerID)
	if trig == nil || !trig.Enabled {
		return
	}
	if !r.reachable(trig) {
		return
	}
	mc, ok := trig.Filter.Check(le.Line.Content, le.Character.Name)
	if !ok {
		return
	}

	if r.OnFire != nil {
		r.OnFire(trig.ID, trig.Name, time.Now())
	}

	for _, effect := range trig.Effects {
		effect := effect
		fc := effects.FireContext{Ctx: r.ctx, Match: mc, TriggerID: trig.ID}
		go func() {
			if err := r.engine.Fire(fc, effect); err != nil {
				r.log.Warn().Err(err).Str("trigger_id", trig.ID).Str("effect_kind", string(effect.Kind())).Msg("effect failed")
			}
		}()
	}
}

// reachable reports whether trig should be considered for matching: an
// untagged trigger is always reachable; a tagged one needs at least one of
// its tags currently active (spec §4.5).
func (r *Reactor) reachable(trig *triggers.Trigger) bool {
	names := r.idx.TagNamesContainingTrigger(trig.ID)
	if len(names) == 0 {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if _, active := r.activeTags[name]; active {
			return true
		}
	}
	return false
}

// Add implements effects.Tags (the AddTag effect).
func (r *Reactor) Add(tag string) {
	r.mu.Lock()
	if _, already := r.activeTags[tag]; already {
		r.mu.Unlock()
		return
	}
	r.activeTags[tag] = struct{}{}
	var woken []*tagWaiter
	remaining := r.tagWaiters[:0]
	for _, w := range r.tagWaiters {
		if w.tag == tag {
			woken = append(woken, w)
		} else {
			remaining = append(remaining, w)
		}
	}
	r.tagWaiters = remaining
	r.mu.Unlock()

	for _, w := range woken {
		close(w.done)
	}
}

// Remove implements effects.Tags (the RemoveTag effect).
func (r *Reactor) Remove(tag string) {
	r.mu.Lock()
	delete(r.activeTags, tag)
	r.mu.Unlock()
}

// WaitUntil implements effects.Tags (the WaitUntilTagged effect).
func (r *Reactor) WaitUntil(ctx context.Context, tag string) error {
	r.mu.Lock()
	if _, active := r.activeTags[tag]; active {
		r.mu.Unlock()
		return nil
	}
	w := &tagWaiter{tag: tag, done: make(chan struct{})}
	r.tagWaiters = append(r.tagWaiters, w)
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return nil
	}
}

// WaitForMatch implements effects.LineWaiter (the WaitUntilFilterMatches
// effect): registers interest in m and blocks until a subsequent line
// satisfies it, ctx is cancelled, or timeout elapses.
func (r *Reactor) WaitForMatch(ctx context.Context, m *matcher.DialectMatcher, characterName string, timeout *time.Duration) (*matcher.MatchContext, error) {
	w := &lineWaiter{matcher: m, characterName: characterName, result: make(chan *matcher.MatchContext, 1)}
	r.mu.Lock()
	r.lineWaiters = append(r.lineWaiters, w)
	r.mu.Unlock()
	defer r.removeLineWaiter(w)

	if timeout != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case mc := <-w.result:
		return mc, nil
	}
}

func (r *Reactor) checkLineWaiters(le logs.LineEvent) {
	r.mu.Lock()
	waiters := make([]*lineWaiter, len(r.lineWaiters))
	copy(waiters, r.lineWaiters)
	r.mu.Unlock()

	for _, w := range waiters {
		if w.characterName != "" && w.characterName != le.Character.Name {
			continue
		}
		if mc, ok := w.matcher.Check(le.Line.Content, le.Character.Name); ok {
			select {
			case w.result <- mc:
			default:
			}
		}
	}
}

func (r *Reactor) removeLineWaiter(target *lineWaiter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, w := range r.lineWaiters {
		if w == target {
			r.lineWaiters = append(r.lineWaiters[:i], r.lineWaiters[i+1:]...)
			return
		}
	}
}

// ActiveTagCount returns the number of currently-active tags, for metrics.
func (r *Reactor) ActiveTagCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.activeTags)
}

// TriggerCount returns the number of triggers in the index, for metrics.
func (r *Reactor) TriggerCount() int {
	return r.idx.Count()
}
