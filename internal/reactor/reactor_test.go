package reactor

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tinkeringguild/logquest-go/internal/effects"
	"github.com/tinkeringguild/logquest-go/internal/index"
	"github.com/tinkeringguild/logquest-go/internal/logs"
	"github.com/tinkeringguild/logquest-go/internal/matcher"
	"github.com/tinkeringguild/logquest-go/internal/triggers"
)

type fakeSinks struct{ overlaid []string }

func (f *fakeSinks) Overlay(msg string) error     { f.overlaid = append(f.overlaid, msg); return nil }
func (f *fakeSinks) CopyToClipboard(string) error { return nil }
func (f *fakeSinks) Speak(context.Context, string, bool, bool) error { return nil }
func (f *fakeSinks) StopSpeaking() error          { return nil }
func (f *fakeSinks) PlayAudioFile(string) error   { return nil }

type fakeTimers struct{}

func (f *fakeTimers) StartTimer(*triggers.Timer, *matcher.MatchContext) error         { return nil }
func (f *fakeTimers) StartStopwatch(*triggers.Stopwatch, *matcher.MatchContext) error { return nil }
func (f *fakeTimers) ClearTimer(string) error                                         { return nil }
func (f *fakeTimers) HideTimer(string) error                                          { return nil }
func (f *fakeTimers) RestartTimer(string) error                                       { return nil }
func (f *fakeTimers) WaitUntilSecondsRemain(context.Context, string, uint32) error     { return nil }
func (f *fakeTimers) WaitUntilFinished(context.Context, string) error                  { return nil }

// newTestReactor builds a Reactor without a real log pipeline: these tests
// drive reactToLine directly rather than through Run, since Run's only job
// is pumping pipeline.Lines() into reactToLine.
func newTestReactor(t *testing.T, idx *index.Index) (*Reactor, *fakeSinks) {
	t.Helper()
	sinks := &fakeSinks{}
	engine := &effects.Engine{Sinks: sinks, Timers: &fakeTimers{}}
	r := New(context.Background(), idx, engine, nil, zerolog.Nop())
	return r, sinks
}

func newSubstringTrigger(id, pattern string) *triggers.Trigger {
	return &triggers.Trigger{
		ID:      id,
		Name:    id,
		Enabled: true,
		Filter:  &matcher.Filter{Matchers: []matcher.Matcher{&matcher.SubstringMatcher{IDValue: id + "-m", Pattern: pattern}}},
	}
}

func TestReactToLineFiresMatchedTriggerEffect(t *testing.T) {
	idx := index.New()
	trig := newSubstringTrigger("t1", "has been slain")
	trig.Effects = []triggers.Effect{triggers.NewOverlayMessage("e1", matcher.NewTemplateString("slain!"))}
	_, err := idx.CreateTrigger(trig, triggers.TopLevelGroupID, 0)
	require.NoError(t, err)

	r, sinks := newTestReactor(t, idx)
	r.reactToLine(logs.LineEvent{
		Line:      logs.Line{Content: "Fippy has been slain by a bat"},
		Character: logs.Character{Name: "Fippy"},
	})

	require.Eventually(t, func() bool { return len(sinks.overlaid) == 1 }, time.Second, time.Millisecond)
	require.Equal(t, "slain!", sinks.overlaid[0])
}

func TestReactToLineSkipsDisabledTrigger(t *testing.T) {
	idx := index.New()
	trig := newSubstringTrigger("t1", "has been slain")
	trig.Enabled = false
	trig.Effects = []triggers.Effect{triggers.NewOverlayMessage("e1", matcher.NewTemplateString("slain!"))}
	_, err := idx.CreateTrigger(trig, triggers.TopLevelGroupID, 0)
	require.NoError(t, err)

	r, sinks := newTestReactor(t, idx)
	r.reactToLine(logs.LineEvent{
		Line:      logs.Line{Content: "Fippy has been slain by a bat"},
		Character: logs.Character{Name: "Fippy"},
	})

	time.Sleep(20 * time.Millisecond)
	require.Empty(t, sinks.overlaid)
}

func TestReactToLineSkipsUnreachableTaggedTrigger(t *testing.T) {
	idx := index.New()
	trig := newSubstringTrigger("t1", "has been slain")
	trig.Effects = []triggers.Effect{triggers.NewOverlayMessage("e1", matcher.NewTemplateString("slain!"))}
	_, err := idx.CreateTrigger(trig, triggers.TopLevelGroupID, 0)
	require.NoError(t, err)
	_, _, err = idx.CreateTriggerTag("tag-a", "Raiding")
	require.NoError(t, err)
	_, err = idx.TagTrigger("tag-a", "t1")
	require.NoError(t, err)

	r, sinks := newTestReactor(t, idx)
	r.reactToLine(logs.LineEvent{
		Line:      logs.Line{Content: "Fippy has been slain by a bat"},
		Character: logs.Character{Name: "Fippy"},
	})
	time.Sleep(20 * time.Millisecond)
	require.Empty(t, sinks.overlaid)

	r.Add("Raiding")
	r.reactToLine(logs.LineEvent{
		Line:      logs.Line{Content: "Fippy has been slain by a bat"},
		Character: logs.Character{Name: "Fippy"},
	})
	require.Eventually(t, func() bool { return len(sinks.overlaid) == 1 }, time.Second, time.Millisecond)
}

func TestAddWakesWaitUntilTagged(t *testing.T) {
	idx := index.New()
	r, _ := newTestReactor(t, idx)

	done := make(chan error, 1)
	go func() { done <- r.WaitUntil(context.Background(), "ENDING") }()

	time.Sleep(10 * time.Millisecond)
	r.Add("ENDING")

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitUntil did not return after Add")
	}
}

func TestWaitForMatchDeliveredByLaterLine(t *testing.T) {
	idx := index.New()
	r, _ := newTestReactor(t, idx)

	m, err := matcher.NewDialectMatcher("w1", "You have been promoted")
	require.NoError(t, err)

	result := make(chan error, 1)
	go func() {
		_, err := r.WaitForMatch(context.Background(), m, "", nil)
		result <- err
	}()

	time.Sleep(10 * time.Millisecond)
	r.reactToLine(logs.LineEvent{
		Line:      logs.Line{Content: "You have been promoted to Raid Leader"},
		Character: logs.Character{Name: "Fippy"},
	})

	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitForMatch did not return after matching line")
	}
}
