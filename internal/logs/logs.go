// Package logs implements the ingestion pipeline (spec §4.1): a filesystem
// watcher over the EverQuest Logs directory, active-character detection
// from eqlog_* filenames, a per-file cursor cache, and a cursor-based line
// stream that tails the active character's log file.
package logs

import (
	"regexp"
	"strings"
)

// logFilenamePattern matches "eqlog_<Character>_<Server>.txt", capturing the
// character and server names. Same shape as the original's LOG_FILE_PATTERN.
var logFilenamePattern = regexp.MustCompile(`(?:\A|[\\/])eqlog_([^_]+)_([^.]+)\.txt$`)

// Character identifies a player whose log file is currently being watched.
type Character struct {
	Name        string
	Server      string
	LogFilePath string
}

// characterFromPath derives a Character from an eqlog_* path. Returns false
// if path doesn't match the expected filename shape.
func characterFromPath(path string) (Character, bool) {
	m := logFilenamePattern.FindStringSubmatch(path)
	if m == nil {
		return Character{}, false
	}
	return Character{Name: m[1], Server: m[2], LogFilePath: path}, true
}

// Line is one parsed EverQuest log line: "[Thu Jul 18 17:35:14 2024] You
// gain experience!!" splits into a datetime prefix and content.
type Line struct {
	Content     string
	RawDatetime string
}

// ParseLine splits a raw log line into its bracketed datetime and content.
// Deliberately avoids a regexp here: this runs on the hot path for every
// line of every watched file.
func ParseLine(raw string) (Line, bool) {
	if !strings.HasPrefix(raw, "[") {
		return Line{}, false
	}
	end := strings.IndexByte(raw, ']')
	if end < 0 || end+2 > len(raw) {
		return Line{}, false
	}
	return Line{
		RawDatetime: raw[1:end],
		Content:     raw[end+2:],
	}, true
}

// FileEventKind discriminates a FileEvent.
type FileEventKind string

const (
	FileCreated FileEventKind = "created"
	FileUpdated FileEventKind = "updated"
	FileDeleted FileEventKind = "deleted"
)

// FileEvent is a filesystem change to one log file, broadcast to every
// subscriber (the active-character detector and whichever LineStream is
// currently tailing that path).
type FileEvent struct {
	Kind FileEventKind
	Path string
}
