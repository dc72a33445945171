package logs

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"sync/atomic"
)

// LineStream tails one log file starting at a cursor, parsing complete
// lines as they're written and blocking at EOF until woken by a file-change
// event for the same path (spec §4.1's "suspend on EOF, resume on
// filesystem notification" behavior).
type LineStream struct {
	ctx    context.Context
	cancel context.CancelFunc
	path   string
	lines  chan Line
	wake   chan struct{}

	position atomic.Int64
}

// StartLineStream opens cursor.Path, seeks to cursor.Position, and begins
// tailing. fileEvents should be a Watcher subscription; the stream itself
// filters it down to events for its own path and exits if that file is
// deleted.
func StartLineStream(ctx context.Context, cursor Cursor, fileEvents <-chan FileEvent) *LineStream {
	lsCtx, cancel := context.WithCancel(ctx)
	ls := &LineStream{
		ctx:    lsCtx,
		cancel: cancel,
		path:   cursor.Path,
		lines:  make(chan Line, 64),
		wake:   make(chan struct{}, 1),
	}
	ls.position.Store(cursor.Position)

	go ls.watchForWakes(fileEvents)
	go ls.run()
	return ls
}

// Lines is the parsed-line output; it's closed when the stream stops.
func (ls *LineStream) Lines() <-chan Line { return ls.lines }

// Cursor returns the current read position, safe to call concurrently.
func (ls *LineStream) Cursor() Cursor {
	return Cursor{Path: ls.path, Position: ls.position.Load()}
}

// Stop ends tailing and closes the underlying file.
func (ls *LineStream) Stop() { ls.cancel() }

func (ls *LineStream) watchForWakes(fileEvents <-chan FileEvent) {
	for {
		select {
		case <-ls.ctx.Done():
			return
		case event, ok := <-fileEvents:
			if !ok {
				return
			}
			if event.Path != ls.path {
				continue
			}
			switch event.Kind {
			case FileCreated, FileUpdated:
				select {
				case ls.wake <- struct{}{}:
				default:
				}
			case FileDeleted:
				ls.cancel()
				return
			}
		}
	}
}

func (ls *LineStream) run() {
	defer close(ls.lines)

	file, err := os.Open(ls.path)
	if err != nil {
		return
	}
	defer file.Close()

	if _, err := file.Seek(ls.position.Load(), io.SeekStart); err != nil {
		return
	}

	var pending []byte
	buf := make([]byte, 4096)
	for {
		n, err := file.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			if !ls.drain(&pending) {
				return
			}
		}
		if err != nil {
			select {
			case <-ls.ctx.Done():
				return
			case <-ls.wake:
				continue
			}
		}
	}
}

// drain extracts and emits every complete line currently in pending,
// returning false if the stream should stop (context cancelled mid-send).
func (ls *LineStream) drain(pending *[]byte) bool {
	for {
		idx := bytes.IndexByte(*pending, '\n')
		if idx < 0 {
			return true
		}
		raw := string((*pending)[:idx])
		consumed := int64(idx + 1)
		*pending = (*pending)[idx+1:]

		raw = strings.TrimSuffix(raw, "\r")
		ls.position.Add(consumed)

		line, ok := ParseLine(raw)
		if !ok {
			continue
		}
		select {
		case ls.lines <- line:
		case <-ls.ctx.Done():
			return false
		}
	}
}
