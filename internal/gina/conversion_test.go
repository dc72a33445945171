package gina

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tinkeringguild/logquest-go/internal/index"
	"github.com/tinkeringguild/logquest-go/internal/matcher"
	"github.com/tinkeringguild/logquest-go/internal/triggers"
)

func ptr[T any](v T) *T { return &v }

func TestConvertFilterWholeLineByDefault(t *testing.T) {
	src := &Trigger{Name: ptr("Slain"), TriggerText: ptr("You have been slain")}
	filter, err := convertFilter(src, "Slain")
	require.NoError(t, err)
	require.Len(t, filter.Matchers, 1)
	_, ok := filter.Matchers[0].(*matcher.WholeLineMatcher)
	require.True(t, ok)
}

func TestConvertFilterDialectWhenRegexEnabled(t *testing.T) {
	src := &Trigger{Name: ptr("Slain"), TriggerText: ptr("You have slain {S}!"), EnableRegex: ptr(true)}
	filter, err := convertFilter(src, "Slain")
	require.NoError(t, err)
	_, ok := filter.Matchers[0].(*matcher.DialectMatcher)
	require.True(t, ok)
}

func TestConvertFilterRejectsEmptyText(t *testing.T) {
	src := &Trigger{Name: ptr("Empty"), TriggerText: ptr("")}
	_, err := convertFilter(src, "Empty")
	require.Error(t, err)
}

func TestConvertTriggerBuildsOverlayAndTimerEffects(t *testing.T) {
	src := &Trigger{
		Name:                     ptr("Slain"),
		TriggerText:              ptr("You have been slain"),
		UseText:                  ptr(true),
		DisplayText:              ptr("Nice kill"),
		TimerType:                ptr("Timer"),
		TimerName:                ptr("Slain Timer"),
		TimerMillisecondDuration: ptr(uint32(30000)),
	}
	trig, err := convertTrigger(src, time.Unix(0, 0))
	require.NoError(t, err)
	require.Len(t, trig.Effects, 2)

	_, isOverlay := trig.Effects[0].(*triggers.OverlayMessageEffect)
	require.True(t, isOverlay)

	startTimer, isTimer := trig.Effects[1].(*triggers.StartTimerEffect)
	require.True(t, isTimer)
	require.Equal(t, 30*time.Second, startTimer.Timer.Duration)
	require.False(t, startTimer.Timer.Repeats)
	_, isAlwaysStart := startTimer.Timer.StartPolicy.(triggers.AlwaysStart)
	require.True(t, isAlwaysStart)
}

func TestConvertTriggerRepeatingTimer(t *testing.T) {
	src := &Trigger{
		Name:          ptr("Enrage"),
		TriggerText:   ptr("enrage"),
		TimerType:     ptr("RepeatingTimer"),
		TimerDuration: ptr(uint32(10)),
	}
	trig, err := convertTrigger(src, time.Unix(0, 0))
	require.NoError(t, err)
	startTimer := trig.Effects[0].(*triggers.StartTimerEffect)
	require.True(t, startTimer.Timer.Repeats)
	require.Equal(t, 10*time.Second, startTimer.Timer.Duration)
}

func TestConvertTriggerMissingDurationIsError(t *testing.T) {
	src := &Trigger{Name: ptr("Broken"), TriggerText: ptr("x"), TimerType: ptr("Timer")}
	_, err := convertTrigger(src, time.Unix(0, 0))
	require.Error(t, err)
}

func TestTimerStartPolicyRestartWithRestartByNameIsError(t *testing.T) {
	_, err := timerStartPolicy(&Trigger{
		TimerStartBehavior:      ptr("RestartTimer"),
		RestartBasedOnTimerName: ptr(true),
	}, "T")
	require.Error(t, err)
}

func TestTimerStartPolicyStartNewTimerWithRestartByNameReplacesByName(t *testing.T) {
	policy, err := timerStartPolicy(&Trigger{
		TimerStartBehavior:      ptr("StartNewTimer"),
		RestartBasedOnTimerName: ptr(true),
	}, "My Timer")
	require.NoError(t, err)
	replace, ok := policy.(triggers.ReplaceByName)
	require.True(t, ok)
	require.Equal(t, "My Timer", replace.NameTmpl.Tmpl)
}

func TestTimerStartPolicyRestartAlone(t *testing.T) {
	policy, err := timerStartPolicy(&Trigger{TimerStartBehavior: ptr("RestartTimer")}, "T")
	require.NoError(t, err)
	_, ok := policy.(triggers.ReplaceAllOfTrigger)
	require.True(t, ok)
}

func TestEarlyEndersToTerminatorCombinesPatternsWithOr(t *testing.T) {
	enders := []EarlyEnder{
		{EarlyEndText: ptr("done"), EnableRegex: ptr(false)},
		{EarlyEndText: ptr("over{S}"), EnableRegex: ptr(true)},
	}
	effect, err := earlyEndersToTerminator(enders, &effectIDs{})
	require.NoError(t, err)
	seq, ok := effect.(*triggers.SequenceEffect)
	require.True(t, ok)
	require.Len(t, seq.Children, 2)
	wait, ok := seq.Children[0].(*triggers.WaitUntilFilterMatchesEffect)
	require.True(t, ok)
	require.Contains(t, wait.Filter.RawDialectPattern, "|")
}

func TestConvertStopwatchTimer(t *testing.T) {
	src := &Trigger{
		Name:        ptr("Mob Spawned"),
		TriggerText: ptr("spawned"),
		TimerType:   ptr("Stopwatch"),
		TimerName:   ptr("Spawn Clock"),
	}
	trig, err := convertTrigger(src, time.Unix(0, 0))
	require.NoError(t, err)
	sw, ok := trig.Effects[0].(*triggers.StartStopwatchEffect)
	require.True(t, ok)
	require.Equal(t, "Spawn Clock", sw.Stopwatch.NameTmpl.Tmpl)
}

func TestConvertAndImportIntoIndex(t *testing.T) {
	src := &Triggers{
		TriggerGroups: []TriggerGroup{
			{
				Name: ptr("Raid Alerts"),
				Triggers: []Trigger{
					{Name: ptr("Slain"), TriggerText: ptr("you have been slain")},
				},
			},
		},
	}

	converted, err := Convert(src, time.Unix(0, 0))
	require.NoError(t, err)
	require.Len(t, converted, 1)

	idx := index.New()
	deltas, err := Import(idx, triggers.TopLevelGroupID, converted)
	require.NoError(t, err)
	require.NotEmpty(t, deltas)
	require.Equal(t, 1, idx.Count())
}
