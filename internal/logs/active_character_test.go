package logs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestActiveCharacterDetectorTracksLatestUpdatedFile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan FileEvent, 4)

	d := StartActiveCharacterDetector(ctx, events)
	changes, unsub := d.Subscribe()
	defer unsub()

	require.Nil(t, d.Current())

	events <- FileEvent{Kind: FileUpdated, Path: "/Logs/eqlog_Fippy_erollisi.txt"}
	waitForSignal(t, changes)
	require.Equal(t, "Fippy", d.Current().Name)

	events <- FileEvent{Kind: FileUpdated, Path: "/Logs/eqlog_Other_erollisi.txt"}
	waitForSignal(t, changes)
	require.Equal(t, "Other", d.Current().Name)
}

func TestActiveCharacterDetectorClearsOnDelete(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan FileEvent, 4)

	d := StartActiveCharacterDetector(ctx, events)
	changes, unsub := d.Subscribe()
	defer unsub()

	events <- FileEvent{Kind: FileCreated, Path: "/Logs/eqlog_Fippy_erollisi.txt"}
	waitForSignal(t, changes)
	require.NotNil(t, d.Current())

	events <- FileEvent{Kind: FileDeleted, Path: "/Logs/eqlog_Fippy_erollisi.txt"}
	waitForSignal(t, changes)
	require.Nil(t, d.Current())
}

func waitForSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for active character change signal")
	}
}
