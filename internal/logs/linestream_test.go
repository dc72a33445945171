package logs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLineStreamEmitsLinesAlreadyOnDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eqlog_Fippy_erollisi.txt")
	require.NoError(t, os.WriteFile(path, []byte("[Thu Jul 18 17:35:14 2024] hello\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan FileEvent)

	stream := StartLineStream(ctx, Cursor{Path: path, Position: 0}, events)
	select {
	case line := <-stream.Lines():
		require.Equal(t, "hello", line.Content)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for line")
	}
}

func TestLineStreamResumesAfterWakeEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eqlog_Fippy_erollisi.txt")
	require.NoError(t, os.WriteFile(path, []byte("[Thu Jul 18 17:35:14 2024] first\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan FileEvent, 1)

	stream := StartLineStream(ctx, Cursor{Path: path, Position: 0}, events)
	select {
	case line := <-stream.Lines():
		require.Equal(t, "first", line.Content)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first line")
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("[Thu Jul 18 17:36:00 2024] second\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	events <- FileEvent{Kind: FileUpdated, Path: path}

	select {
	case line := <-stream.Lines():
		require.Equal(t, "second", line.Content)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for second line")
	}
}

func TestLineStreamStopsOnDeleteEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eqlog_Fippy_erollisi.txt")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan FileEvent, 1)

	stream := StartLineStream(ctx, Cursor{Path: path, Position: 0}, events)
	events <- FileEvent{Kind: FileDeleted, Path: path}

	select {
	case _, ok := <-stream.Lines():
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for stream to close")
	}
}
