// Package sinks implements effects.Sinks, the concrete boundary between the
// effect engine and the desktop-shell collaborators spec.md keeps out of
// scope: overlay rendering, the clipboard driver, the platform TTS driver,
// and the audio backend (§1 "Explicitly out of scope", §6 "Effect
// outputs"). Each collaborator is best-effort: when it is unavailable the
// sink warns and reports success, matching the spec's CopyToClipboard rule
// ("unavailable collaborator ⇒ warn, succeed") generalized to every sink
// here, since this process never has a desktop shell attached.
package sinks

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"
)

// ErrPlayAudioFileNotFound is returned by PlayAudioFile when the rendered
// path does not resolve to a regular, readable file (spec §4.6:
// "render path; if not a regular file, return PlayAudioFileError").
var ErrPlayAudioFileNotFound = errors.New("sinks: audio file not found")

// OverlayPublisher is the fire-and-forget string bus OverlayMessage
// publishes to (spec §6: "overlay message bus (fire-and-forget string)").
// internal/mqttpublish.Publisher satisfies this.
type OverlayPublisher interface {
	PublishOverlayMessage(text string, at time.Time)
}

// PathResolver resolves a PlayAudioFile effect's rendered, sound-pack
// relative path to a local filesystem path. internal/audioarchive.Resolver
// satisfies this.
type PathResolver interface {
	Resolve(ctx context.Context, relPath string) (string, error)
}

// Sinks is the production effects.Sinks implementation. Every field besides
// log is optional; a nil/zero collaborator degrades to a logged no-op
// rather than an error, per spec.
type Sinks struct {
	log zerolog.Logger

	overlay  OverlayPublisher // nil: overlay messages are only logged
	resolver PathResolver     // nil: PlayAudioFile treats its argument as already-local

	speakCommand []string // e.g. []string{"espeak"}; empty: Speak is a no-op
	audioCommand []string // e.g. []string{"aplay"}; empty: PlayAudioFile is a no-op

	mu       sync.Mutex
	speaking *exec.Cmd // the currently running speak process, for StopSpeaking
}

// Options configures New. SpeakCommand/AudioCommand are argv prefixes the
// rendered text/file path is appended to (e.g. {"espeak"}, {"aplay"});
// leave either nil to disable that collaborator.
type Options struct {
	Overlay      OverlayPublisher
	Resolver     PathResolver
	SpeakCommand []string
	AudioCommand []string
	Log          zerolog.Logger
}

// New builds a Sinks from opts.
func New(opts Options) *Sinks {
	return &Sinks{
		log:          opts.Log.With().Str("component", "sinks").Logger(),
		overlay:      opts.Overlay,
		resolver:     opts.Resolver,
		speakCommand: opts.SpeakCommand,
		audioCommand: opts.AudioCommand,
	}
}

// Overlay publishes text to the configured overlay collaborator, or just
// logs it when none is configured.
func (s *Sinks) Overlay(message string) error {
	s.log.Info().Str("message", message).Msg("overlay message")
	if s.overlay != nil {
		s.overlay.PublishOverlayMessage(message, time.Now())
	}
	return nil
}

// CopyToClipboard writes text to the system clipboard via atotto/clipboard.
// An unavailable clipboard driver (no X11/Wayland selection owner, no
// pbcopy/clip.exe, headless CI, ...) warns and still reports success, per
// spec.
func (s *Sinks) CopyToClipboard(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		s.log.Warn().Err(err).Msg("clipboard unavailable, could not copy text")
	}
	return nil
}

// Speak shells out to the configured TTS command with text as its final
// argument. When interrupt is set, any speech currently in progress is
// killed first. When nonBlocking is false, Speak awaits the utterance's
// completion before returning, so a Speak inside a Sequence effect serializes
// with whatever follows it (spec §4.6). An unconfigured TTS collaborator
// warns and succeeds.
func (s *Sinks) Speak(ctx context.Context, text string, interrupt, nonBlocking bool) error {
	if len(s.speakCommand) == 0 {
		s.log.Warn().Str("text", text).Msg("no TTS command configured, dropping Speak effect")
		return nil
	}
	if interrupt {
		if err := s.StopSpeaking(); err != nil {
			return err
		}
	}

	args := append(append([]string{}, s.speakCommand[1:]...), text)
	cmd := exec.CommandContext(ctx, s.speakCommand[0], args...)
	cmd.Stdout = nil
	cmd.Stderr = os.Stderr

	s.mu.Lock()
	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		s.log.Warn().Err(err).Msg("TTS command failed to start")
		return nil
	}
	s.speaking = cmd
	s.mu.Unlock()

	wait := func() {
		if err := cmd.Wait(); err != nil {
			s.log.Warn().Err(err).Msg("TTS command exited with error")
		}
		s.mu.Lock()
		if s.speaking == cmd {
			s.speaking = nil
		}
		s.mu.Unlock()
	}

	if nonBlocking {
		go wait()
		return nil
	}
	wait()
	return nil
}

// StopSpeaking kills any speech currently in progress.
func (s *Sinks) StopSpeaking() error {
	s.mu.Lock()
	cmd := s.speaking
	s.speaking = nil
	s.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		s.log.Warn().Err(err).Msg("could not stop in-progress speech")
	}
	return nil
}

// PlayAudioFile resolves path (via the configured PathResolver, if any)
// then shells out to the configured audio player. Returns
// ErrPlayAudioFileNotFound when the resolved path is not a regular file
// (spec §4.6); an unconfigured audio player otherwise warns and succeeds.
func (s *Sinks) PlayAudioFile(path string) error {
	resolved := path
	if s.resolver != nil {
		r, err := s.resolver.Resolve(context.Background(), path)
		if err != nil {
			return ErrPlayAudioFileNotFound
		}
		resolved = r
	}
	info, err := os.Stat(resolved)
	if err != nil || !info.Mode().IsRegular() {
		return ErrPlayAudioFileNotFound
	}

	if len(s.audioCommand) == 0 {
		s.log.Warn().Str("path", resolved).Msg("no audio player configured, dropping PlayAudioFile effect")
		return nil
	}
	args := append(append([]string{}, s.audioCommand[1:]...), resolved)
	cmd := exec.CommandContext(context.Background(), s.audioCommand[0], args...)
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		s.log.Warn().Err(err).Str("path", resolved).Msg("audio player failed to start")
		return nil
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			s.log.Warn().Err(err).Str("path", resolved).Msg("audio player exited with error")
		}
	}()
	return nil
}

// DefaultSpeakCommand returns a reasonable per-platform TTS argv, or nil if
// none is known for runtime.GOOS.
func DefaultSpeakCommand(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"say"}
	case "linux":
		return []string{"espeak"}
	default:
		return nil
	}
}

// DefaultAudioCommand returns a reasonable per-platform audio-file player
// argv, or nil if none is known for runtime.GOOS.
func DefaultAudioCommand(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"afplay"}
	case "linux":
		return []string{"paplay"}
	default:
		return nil
	}
}
