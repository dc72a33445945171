package logs

import (
	"context"
	"sync"
)

// ActiveCharacterDetector tracks which character's log file most recently
// changed, treating that as the signal that it's the character currently
// being played (spec §4.1). Created/Updated events make that file active;
// a Deleted event for the currently-active file clears it.
type ActiveCharacterDetector struct {
	mu      sync.Mutex
	current *Character
	lastPath string

	subscribers map[uint64]chan struct{}
	nextSubID   uint64
}

// StartActiveCharacterDetector consumes events until ctx is done.
func StartActiveCharacterDetector(ctx context.Context, events <-chan FileEvent) *ActiveCharacterDetector {
	d := &ActiveCharacterDetector{subscribers: make(map[uint64]chan struct{})}
	go d.run(ctx, events)
	return d
}

func (d *ActiveCharacterDetector) run(ctx context.Context, events <-chan FileEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			d.handle(event)
		}
	}
}

func (d *ActiveCharacterDetector) handle(event FileEvent) {
	switch event.Kind {
	case FileCreated, FileUpdated:
		d.mu.Lock()
		if d.lastPath == event.Path {
			d.mu.Unlock()
			return
		}
		character, ok := characterFromPath(event.Path)
		if !ok {
			d.mu.Unlock()
			return
		}
		d.lastPath = event.Path
		d.current = &character
		d.mu.Unlock()
		d.notify()

	case FileDeleted:
		d.mu.Lock()
		if d.lastPath != event.Path {
			d.mu.Unlock()
			return
		}
		d.lastPath = ""
		d.current = nil
		d.mu.Unlock()
		d.notify()
	}
}

// Current returns the active character, or nil if none.
func (d *ActiveCharacterDetector) Current() *Character {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Subscribe returns a channel signalled (non-blocking, buffer 1 — a watch
// channel, not a queue) every time Current changes, plus a cancel func.
func (d *ActiveCharacterDetector) Subscribe() (<-chan struct{}, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextSubID
	d.nextSubID++
	ch := make(chan struct{}, 1)
	d.subscribers[id] = ch

	cancel := func() {
		d.mu.Lock()
		delete(d.subscribers, id)
		d.mu.Unlock()
	}
	return ch, cancel
}

func (d *ActiveCharacterDetector) notify() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ch := range d.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
