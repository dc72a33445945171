package logs

import (
	"context"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// filesystemEventQueueSize bounds each subscriber's buffer; a slow
// subscriber has events dropped rather than blocking the watcher, the same
// lossy-broadcast policy as the teacher's EventBus.
const filesystemEventQueueSize = 500

// Watcher turns fsnotify events for logsDir's eqlog_* files into FileEvent
// broadcasts. Non-eqlog files and subdirectory churn are filtered out here
// so every downstream consumer only ever sees log-file traffic.
type Watcher struct {
	logsDir string
	log     zerolog.Logger
	fsw     *fsnotify.Watcher

	mu          sync.Mutex
	subscribers map[uint64]chan FileEvent
	nextSubID   uint64
}

// NewWatcher opens an fsnotify watch on logsDir. Call Start to begin
// broadcasting events.
func NewWatcher(logsDir string, log zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(logsDir); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{
		logsDir:     logsDir,
		log:         log.With().Str("component", "logs.watcher").Logger(),
		fsw:         fsw,
		subscribers: make(map[uint64]chan FileEvent),
	}, nil
}

// Start runs the dispatch loop until ctx is done, then closes the
// underlying fsnotify watcher.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		defer w.fsw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				w.handle(event)
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				w.log.Error().Err(err).Msg("fsnotify error")
			}
		}
	}()
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !strings.HasSuffix(strings.ToLower(event.Name), ".txt") {
		return
	}
	if _, ok := characterFromPath(event.Name); !ok {
		return
	}

	var kind FileEventKind
	switch {
	case event.Op&fsnotify.Remove != 0 || event.Op&fsnotify.Rename != 0:
		kind = FileDeleted
	case event.Op&fsnotify.Create != 0:
		kind = FileCreated
	case event.Op&fsnotify.Write != 0:
		kind = FileUpdated
	default:
		return
	}

	w.broadcast(FileEvent{Kind: kind, Path: event.Name})
}

// Subscribe returns a channel that receives every FileEvent from now on,
// plus a cancel func to stop receiving.
func (w *Watcher) Subscribe() (<-chan FileEvent, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextSubID
	w.nextSubID++
	ch := make(chan FileEvent, filesystemEventQueueSize)
	w.subscribers[id] = ch

	cancel := func() {
		w.mu.Lock()
		delete(w.subscribers, id)
		w.mu.Unlock()
	}
	return ch, cancel
}

func (w *Watcher) broadcast(event FileEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.subscribers {
		select {
		case ch <- event:
		default:
			w.log.Warn().Str("path", event.Path).Msg("subscriber lagging, dropping file event")
		}
	}
}
