package effects

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tinkeringguild/logquest-go/internal/matcher"
	"github.com/tinkeringguild/logquest-go/internal/triggers"
)

type fakeSinks struct {
	overlaid   []string
	spoken     []string
	speakDelay time.Duration
}

func (f *fakeSinks) Overlay(msg string) error     { f.overlaid = append(f.overlaid, msg); return nil }
func (f *fakeSinks) CopyToClipboard(string) error { return nil }
func (f *fakeSinks) Speak(_ context.Context, msg string, _, _ bool) error {
	if f.speakDelay > 0 {
		time.Sleep(f.speakDelay)
	}
	f.spoken = append(f.spoken, msg)
	return nil
}
func (f *fakeSinks) StopSpeaking() error               { return nil }
func (f *fakeSinks) PlayAudioFile(string) error         { return nil }

type fakeTimers struct {
	cleared []string
}

func (f *fakeTimers) StartTimer(*triggers.Timer, *matcher.MatchContext) error         { return nil }
func (f *fakeTimers) StartStopwatch(*triggers.Stopwatch, *matcher.MatchContext) error { return nil }
func (f *fakeTimers) ClearTimer(id string) error                                      { f.cleared = append(f.cleared, id); return nil }
func (f *fakeTimers) HideTimer(string) error                                          { return nil }
func (f *fakeTimers) RestartTimer(string) error                                       { return nil }
func (f *fakeTimers) WaitUntilSecondsRemain(context.Context, string, uint32) error     { return nil }
func (f *fakeTimers) WaitUntilFinished(context.Context, string) error                  { return nil }

type fakeTags struct{ added []string }

func (f *fakeTags) Add(tag string)    { f.added = append(f.added, tag) }
func (f *fakeTags) Remove(string)     {}
func (f *fakeTags) WaitUntil(context.Context, string) error { return nil }

func newTestEngine() (*Engine, *fakeSinks, *fakeTimers, *fakeTags) {
	sinks := &fakeSinks{}
	timers := &fakeTimers{}
	tags := &fakeTags{}
	return &Engine{Sinks: sinks, Timers: timers, Tags: tags}, sinks, timers, tags
}

func TestFireOverlayMessageRendersTemplate(t *testing.T) {
	e, sinks, _, _ := newTestEngine()
	mc := matcher.NewMatchContext("Fippy")
	first := "42"
	mc.Positional = []*string{&first, &first}

	eff := triggers.NewOverlayMessage("e1", matcher.NewTemplateString("hit for ${1} by ${C}"))
	err := e.Fire(FireContext{Ctx: context.Background(), Match: mc, TriggerID: "t1"}, eff)
	require.NoError(t, err)
	require.Equal(t, []string{"hit for 42 by Fippy"}, sinks.overlaid)
}

func TestFireSequenceHaltsOnFirstError(t *testing.T) {
	e, _, _, _ := newTestEngine()
	seq := triggers.NewSequence("seq", []triggers.Effect{
		triggers.NewClearTimer("c1"), // requires timer context -> errors
		triggers.NewStopSpeaking("c2"),
	})
	err := e.Fire(FireContext{Ctx: context.Background(), TriggerID: "t1"}, seq)
	require.ErrorIs(t, err, ErrRequiresTimerContext)
}

func TestFireSpeakBlocksUntilSinkReturns(t *testing.T) {
	e, sinks, _, _ := newTestEngine()
	sinks.speakDelay = 50 * time.Millisecond
	eff := triggers.NewSpeak("e1", matcher.NewTemplateString("hello"), false, false)

	start := time.Now()
	err := e.Fire(FireContext{Ctx: context.Background(), TriggerID: "t1"}, eff)
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), sinks.speakDelay)
	require.Equal(t, []string{"hello"}, sinks.spoken)
}

func TestFireSpeakNonBlockingReturnsImmediately(t *testing.T) {
	e, sinks, _, _ := newTestEngine()
	sinks.speakDelay = 100 * time.Millisecond
	eff := triggers.NewSpeak("e1", matcher.NewTemplateString("hello"), false, true)

	start := time.Now()
	err := e.Fire(FireContext{Ctx: context.Background(), TriggerID: "t1"}, eff)
	require.NoError(t, err)
	require.Less(t, time.Since(start), sinks.speakDelay)
}

func TestFireClearTimerRequiresTimerContext(t *testing.T) {
	e, _, timers, _ := newTestEngine()
	eff := triggers.NewClearTimer("c1")

	err := e.Fire(FireContext{Ctx: context.Background(), TriggerID: "t1"}, eff)
	require.ErrorIs(t, err, ErrRequiresTimerContext)

	err = e.Fire(FireContext{
		Ctx:          context.Background(),
		TriggerID:    "t1",
		TimerContext: &TimerContext{LiveTimerID: "lt-1"},
	}, eff)
	require.NoError(t, err)
	require.Equal(t, []string{"lt-1"}, timers.cleared)
}

func TestFireParallelAggregatesErrors(t *testing.T) {
	e, _, _, _ := newTestEngine()
	par := triggers.NewParallel("p1", []triggers.Effect{
		triggers.NewClearTimer("c1"),
		triggers.NewHideTimer("c2"),
	})
	err := e.Fire(FireContext{Ctx: context.Background(), TriggerID: "t1"}, par)
	require.Error(t, err)
}

func TestFireAddTagDelegatesToTagController(t *testing.T) {
	e, _, _, tags := newTestEngine()
	eff := triggers.NewAddTag("e1", "combat")
	err := e.Fire(FireContext{Ctx: context.Background(), TriggerID: "t1"}, eff)
	require.NoError(t, err)
	require.Equal(t, []string{"combat"}, tags.added)
}

func TestFireRunSystemCommandRejectsUnapproved(t *testing.T) {
	e, _, _, _ := newTestEngine()
	eff := triggers.NewRunSystemCommand("e1", &triggers.UnapprovedCommand{
		CmdSpec: &triggers.CommandSpec{Command: "echo"},
	}, false)
	err := e.Fire(FireContext{Ctx: context.Background(), TriggerID: "t1"}, eff)
	require.ErrorIs(t, err, ErrCommandNotApproved)
}

func TestFirePauseRespectsContextCancellation(t *testing.T) {
	e, _, _, _ := newTestEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.Fire(FireContext{Ctx: ctx, TriggerID: "t1"}, triggers.NewPause("e1", time.Hour))
	require.ErrorIs(t, err, context.Canceled)
}
