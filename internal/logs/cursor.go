package logs

import (
	"os"
	"path/filepath"
	"sync"
)

// Cursor records a byte offset into a log file: where the next read should
// resume.
type Cursor struct {
	Path     string
	Position int64
}

// cursorCacheEntry is either a known file size (from the initial directory
// scan) or "stale", meaning a LineStream has already claimed the cursor and
// the cached size can no longer be trusted.
type cursorCacheEntry struct {
	size  int64
	stale bool
}

// CursorCache avoids re-reading a whole log file from byte 0 every time a
// character becomes active again: the first time a path is requested, the
// cache hands back a cursor positioned at the directory scan's size (skip
// everything already on disk); subsequent requests for the same path fall
// back to the live file size, since the cached value is stale once a reader
// is already in flight.
type CursorCache struct {
	mu      sync.Mutex
	entries map[string]cursorCacheEntry
}

// ScanCursorCache walks logsDir and records each eqlog_* file's current
// size, so the first LineStream for that file starts at its end rather
// than replaying the character's entire history.
func ScanCursorCache(logsDir string) (*CursorCache, error) {
	entries := make(map[string]cursorCacheEntry)

	dirEntries, err := os.ReadDir(logsDir)
	if err != nil {
		return nil, err
	}
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		path := filepath.Join(logsDir, de.Name())
		if _, ok := characterFromPath(path); !ok {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries[path] = cursorCacheEntry{size: info.Size()}
	}
	return &CursorCache{entries: entries}, nil
}

// GetCursorAndMarkStale returns a cursor for path: the cached scan-time size
// on first call, or the file's live size afterward (marking the entry stale
// so a later call doesn't reuse a now-meaningless cached size).
func (c *CursorCache) GetCursorAndMarkStale(path string) (Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[path]
	c.entries[path] = cursorCacheEntry{stale: true}

	if ok && !entry.stale {
		return Cursor{Path: path, Position: entry.size}, nil
	}
	size, err := fileSize(path)
	if err != nil {
		return Cursor{}, err
	}
	return Cursor{Path: path, Position: size}, nil
}

// ResetCursorPosition re-caches path's current size, e.g. after a LineStream
// for it stops and the file might later be reopened from scratch.
func (c *CursorCache) ResetCursorPosition(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	size, err := fileSize(path)
	if err != nil {
		delete(c.entries, path)
		return
	}
	c.entries[path] = cursorCacheEntry{size: size}
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
