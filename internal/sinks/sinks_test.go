package sinks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeOverlay struct {
	text string
	at   time.Time
}

func (f *fakeOverlay) PublishOverlayMessage(text string, at time.Time) {
	f.text, f.at = text, at
}

func TestOverlayPublishesWhenConfigured(t *testing.T) {
	fake := &fakeOverlay{}
	s := New(Options{Overlay: fake, Log: zerolog.Nop()})
	if err := s.Overlay("Slain!"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.text != "Slain!" {
		t.Fatalf("expected overlay publisher to receive message, got %q", fake.text)
	}
}

func TestOverlayWithoutPublisherStillSucceeds(t *testing.T) {
	s := New(Options{Log: zerolog.Nop()})
	if err := s.Overlay("Slain!"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCopyToClipboardNeverErrors(t *testing.T) {
	s := New(Options{Log: zerolog.Nop()})
	if err := s.CopyToClipboard("some text"); err != nil {
		t.Fatalf("expected warn-and-succeed, got error: %v", err)
	}
}

func TestSpeakWithoutCommandConfiguredSucceeds(t *testing.T) {
	s := New(Options{Log: zerolog.Nop()})
	if err := s.Speak(context.Background(), "hello", false, false); err != nil {
		t.Fatalf("expected warn-and-succeed, got error: %v", err)
	}
}

func TestSpeakBlocksUntilUtteranceCompletes(t *testing.T) {
	s := New(Options{Log: zerolog.Nop(), SpeakCommand: []string{"sh", "-c", "sleep 0.05"}})
	start := time.Now()
	if err := s.Speak(context.Background(), "hello", false, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("expected blocking Speak to wait for the command, returned after %v", elapsed)
	}
}

func TestSpeakNonBlockingReturnsBeforeCommandFinishes(t *testing.T) {
	s := New(Options{Log: zerolog.Nop(), SpeakCommand: []string{"sh", "-c", "sleep 0.2"}})
	start := time.Now()
	if err := s.Speak(context.Background(), "hello", false, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("expected non-blocking Speak to return immediately, took %v", elapsed)
	}
}

func TestPlayAudioFileWithoutCommandConfiguredSucceedsForExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slain.mp3")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := New(Options{Log: zerolog.Nop()})
	if err := s.PlayAudioFile(path); err != nil {
		t.Fatalf("expected warn-and-succeed, got error: %v", err)
	}
}

func TestPlayAudioFileMissingReturnsTypedError(t *testing.T) {
	s := New(Options{Log: zerolog.Nop()})
	err := s.PlayAudioFile(filepath.Join(t.TempDir(), "missing.mp3"))
	if !errors.Is(err, ErrPlayAudioFileNotFound) {
		t.Fatalf("expected ErrPlayAudioFileNotFound, got %v", err)
	}
}

func TestStopSpeakingWithNothingRunningSucceeds(t *testing.T) {
	s := New(Options{Log: zerolog.Nop()})
	if err := s.StopSpeaking(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDefaultCommandsKnownPlatforms(t *testing.T) {
	if got := DefaultSpeakCommand("linux"); len(got) == 0 {
		t.Fatal("expected a default speak command for linux")
	}
	if got := DefaultAudioCommand("darwin"); len(got) == 0 {
		t.Fatal("expected a default audio command for darwin")
	}
	if got := DefaultSpeakCommand("plan9"); got != nil {
		t.Fatalf("expected nil for unknown platform, got %v", got)
	}
}
