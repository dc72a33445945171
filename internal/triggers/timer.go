package triggers

import (
	"time"

	"github.com/tinkeringguild/logquest-go/internal/matcher"
)

// TimerStartPolicy governs what happens when a trigger fires StartTimer (or
// StartStopwatch) while other live timers already exist (spec §3/§4.7).
type TimerStartPolicy interface {
	isTimerStartPolicy()
}

type AlwaysStart struct{}

func (AlwaysStart) isTimerStartPolicy() {}

type DoNothingIfRunning struct{}

func (DoNothingIfRunning) isTimerStartPolicy() {}

type ReplaceAllOfTrigger struct{}

func (ReplaceAllOfTrigger) isTimerStartPolicy() {}

type ReplaceByName struct {
	NameTmpl *matcher.TemplateString
}

func (ReplaceByName) isTimerStartPolicy() {}

// Timer is the static configuration for a StartTimer effect: spawn a
// countdown with this duration, optionally repeating, governed by a start
// policy, and carrying its own effect list (spec §3). The live timer
// manager in internal/timers does not read Repeats: every live timer ends
// the first time its duration elapses.
type Timer struct {
	TriggerID   string
	NameTmpl    *matcher.TemplateString
	Tags        []string
	Duration    time.Duration
	Repeats     bool
	StartPolicy TimerStartPolicy
	Effects     []Effect
}

// Stopwatch is the static configuration for a StartStopwatch effect: an
// open-ended, counting-up timer lifetime with no natural expiry.
type Stopwatch struct {
	TriggerID   string
	NameTmpl    *matcher.TemplateString
	Tags        []string
	StartPolicy TimerStartPolicy
}
