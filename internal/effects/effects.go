// Package effects implements the execution engine for the Effect sum type
// defined in internal/triggers (spec §4.6). Side effects that touch the
// outside world (overlay windows, TTS, clipboard, audio playback, live
// timers, tags) are injected as interfaces so the engine itself stays a
// pure dispatcher; internal/sinks, internal/timers and internal/reactor
// supply the concrete implementations, and ExecRunner in this package runs
// system commands.
package effects

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/tinkeringguild/logquest-go/internal/matcher"
	"github.com/tinkeringguild/logquest-go/internal/triggers"
)

var (
	// ErrRequiresTimerContext is returned for a timer-only effect fired
	// outside of a live timer's own effect list (spec §4.6).
	ErrRequiresTimerContext = errors.New("effects: requires a timer context")
	// ErrCommandNotApproved is returned for RunSystemCommand carrying an
	// UnapprovedCommand (spec §4.8).
	ErrCommandNotApproved = errors.New("effects: command template is not signature-approved")
)

// TimerContext identifies the live timer whose own effect list is currently
// firing, letting ClearTimer/HideTimer/RestartTimer/the Wait* effects
// operate on "the timer I belong to" without needing a name.
type TimerContext struct {
	LiveTimerID string
}

// FireContext carries everything one effect invocation needs: the match
// that triggered it (possibly nil positional/named lookups if fired from a
// timer tick rather than a line match), cancellation, and an optional
// timer context.
type FireContext struct {
	Ctx          context.Context
	Match        *matcher.MatchContext
	TriggerID    string
	TimerContext *TimerContext
}

// Sinks is every effect with an observable side effect outside the process.
type Sinks interface {
	Overlay(message string) error
	CopyToClipboard(text string) error
	Speak(ctx context.Context, text string, interrupt, nonBlocking bool) error
	StopSpeaking() error
	PlayAudioFile(path string) error
}

// Timers is the subset of the timer manager (internal/timers) the effect
// engine needs to drive StartTimer/StartStopwatch and the timer-only
// effects.
type Timers interface {
	StartTimer(t *triggers.Timer, match *matcher.MatchContext) error
	StartStopwatch(sw *triggers.Stopwatch, match *matcher.MatchContext) error
	ClearTimer(liveTimerID string) error
	HideTimer(liveTimerID string) error
	RestartTimer(liveTimerID string) error
	WaitUntilSecondsRemain(ctx context.Context, liveTimerID string, seconds uint32) error
	WaitUntilFinished(ctx context.Context, liveTimerID string) error
}

// Tags is the active-tag set the reactor consults on every trigger
// traversal (spec §4.5).
type Tags interface {
	Add(tag string)
	Remove(tag string)
	WaitUntil(ctx context.Context, tag string) error
}

// LineWaiter lets WaitUntilFilterMatches block until a later log line
// satisfies a context-substituted filter, or its timeout elapses.
type LineWaiter interface {
	WaitForMatch(ctx context.Context, m *matcher.DialectMatcher, characterName string, timeout *time.Duration) (*matcher.MatchContext, error)
}

// CommandRunner executes an approved system command (spec §4.8). Given its
// own interface so tests can substitute a fake without touching os/exec.
type CommandRunner interface {
	Run(ctx context.Context, spec *triggers.CommandSpec, match *matcher.MatchContext, nonBlocking bool) error
}

// Engine dispatches Fire across the full Effect sum type.
type Engine struct {
	Sinks  Sinks
	Timers Timers
	Tags   Tags
	Waiter LineWaiter
	Runner CommandRunner
}

// Fire executes one effect, recursing into Sequence/Parallel children.
func (e *Engine) Fire(fc FireContext, effect triggers.Effect) error {
	switch eff := effect.(type) {
	case *triggers.DoNothingEffect:
		return nil

	case *triggers.PauseEffect:
		return e.pause(fc.Ctx, eff.Duration)

	case *triggers.SequenceEffect:
		for _, child := range eff.Children {
			if err := e.Fire(fc, child); err != nil {
				return fmt.Errorf("sequence: %w", err)
			}
		}
		return nil

	case *triggers.ParallelEffect:
		return e.fireParallel(fc, eff.Children)

	case *triggers.PlayAudioFileEffect:
		if eff.PathTmpl == nil {
			return nil
		}
		return e.Sinks.PlayAudioFile(eff.PathTmpl.Render(fc.Match))

	case *triggers.CopyToClipboardEffect:
		return e.Sinks.CopyToClipboard(eff.Tmpl.Render(fc.Match))

	case *triggers.OverlayMessageEffect:
		return e.Sinks.Overlay(eff.Tmpl.Render(fc.Match))

	case *triggers.SpeakEffect:
		text := eff.Tmpl.Render(fc.Match)
		if eff.NonBlocking {
			go func() {
				_ = e.Sinks.Speak(context.Background(), text, eff.Interrupt, true)
			}()
			return nil
		}
		return e.Sinks.Speak(fc.Ctx, text, eff.Interrupt, false)

	case *triggers.StopSpeakingEffect:
		return e.Sinks.StopSpeaking()

	case *triggers.StartTimerEffect:
		return e.Timers.StartTimer(eff.Timer, fc.Match)

	case *triggers.StartStopwatchEffect:
		return e.Timers.StartStopwatch(eff.Stopwatch, fc.Match)

	case *triggers.RunSystemCommandEffect:
		return e.runSystemCommand(fc, eff)

	case *triggers.ClearTimerEffect:
		tc, err := e.requireTimerContext(fc)
		if err != nil {
			return err
		}
		return e.Timers.ClearTimer(tc.LiveTimerID)

	case *triggers.HideTimerEffect:
		tc, err := e.requireTimerContext(fc)
		if err != nil {
			return err
		}
		return e.Timers.HideTimer(tc.LiveTimerID)

	case *triggers.RestartTimerEffect:
		tc, err := e.requireTimerContext(fc)
		if err != nil {
			return err
		}
		return e.Timers.RestartTimer(tc.LiveTimerID)

	case *triggers.AddTagEffect:
		e.Tags.Add(eff.Tag)
		return nil

	case *triggers.RemoveTagEffect:
		e.Tags.Remove(eff.Tag)
		return nil

	case *triggers.WaitUntilTaggedEffect:
		return e.Tags.WaitUntil(fc.Ctx, eff.Tag)

	case *triggers.WaitUntilSecondsRemainEffect:
		tc, err := e.requireTimerContext(fc)
		if err != nil {
			return err
		}
		return e.Timers.WaitUntilSecondsRemain(fc.Ctx, tc.LiveTimerID, eff.Seconds)

	case *triggers.WaitUntilFilterMatchesEffect:
		if _, err := e.requireTimerContext(fc); err != nil {
			return err
		}
		return e.waitUntilFilterMatches(fc, eff)

	case *triggers.WaitUntilFinishedEffect:
		tc, err := e.requireTimerContext(fc)
		if err != nil {
			return err
		}
		return e.Timers.WaitUntilFinished(fc.Ctx, tc.LiveTimerID)

	default:
		return fmt.Errorf("effects: unhandled effect kind %s", effect.Kind())
	}
}

func (e *Engine) requireTimerContext(fc FireContext) (*TimerContext, error) {
	if fc.TimerContext == nil {
		return nil, fmt.Errorf("%w (%s)", ErrRequiresTimerContext, fc.TriggerID)
	}
	return fc.TimerContext, nil
}

func (e *Engine) pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// fireParallel spawns every child concurrently and aggregates all errors,
// rather than stopping at the first one (spec §4.6 Parallel semantics).
func (e *Engine) fireParallel(fc FireContext, children []triggers.Effect) error {
	errCh := make(chan error, len(children))
	for _, child := range children {
		child := child
		go func() {
			errCh <- e.Fire(fc, child)
		}()
	}
	var errs []error
	for range children {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) runSystemCommand(fc FireContext, eff *triggers.RunSystemCommandEffect) error {
	approved, ok := eff.Command.(*triggers.ApprovedCommand)
	if !ok {
		return fmt.Errorf("%w (trigger %s)", ErrCommandNotApproved, fc.TriggerID)
	}
	if eff.NonBlocking {
		go func() {
			_ = e.Runner.Run(context.Background(), approved.CmdSpec, fc.Match, true)
		}()
		return nil
	}
	return e.Runner.Run(fc.Ctx, approved.CmdSpec, fc.Match, false)
}

func (e *Engine) waitUntilFilterMatches(fc FireContext, eff *triggers.WaitUntilFilterMatchesEffect) error {
	compiled, err := eff.Filter.CompileWithContext(fc.Match)
	if err != nil {
		return fmt.Errorf("wait until filter matches: %w", err)
	}
	ctx := fc.Ctx
	var cancel context.CancelFunc
	if eff.Timeout != nil {
		ctx, cancel = context.WithTimeout(ctx, *eff.Timeout)
		defer cancel()
	}
	characterName := ""
	if fc.Match != nil {
		characterName = fc.Match.CharacterName
	}
	_, err = e.Waiter.WaitForMatch(ctx, compiled, characterName, eff.Timeout)
	return err
}

// ExecRunner is the os/exec-backed CommandRunner used in production; tests
// substitute a fake CommandRunner instead of exercising real processes.
type ExecRunner struct{}

// Run renders every param and (optional) stdin template, then executes the
// command, feeding rendered stdin if present.
func (ExecRunner) Run(ctx context.Context, spec *triggers.CommandSpec, match *matcher.MatchContext, nonBlocking bool) error {
	args := make([]string, 0, len(spec.Params))
	for _, p := range spec.Params {
		args = append(args, p.Render(match))
	}
	cmd := exec.CommandContext(ctx, spec.Command, args...)
	if spec.Stdin != nil {
		cmd.Stdin = strings.NewReader(spec.Stdin.Render(match))
	}
	if nonBlocking {
		return cmd.Start()
	}
	return cmd.Run()
}
