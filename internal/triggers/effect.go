// Package triggers holds the domain model from spec §3: triggers, trigger
// groups, tags, the effect sum type, timers, and command templates.
package triggers

import (
	"time"

	"github.com/tinkeringguild/logquest-go/internal/matcher"
)

// EffectKind discriminates the Effect sum type (spec §3).
type EffectKind string

const (
	KindDoNothing             EffectKind = "DoNothing"
	KindPause                 EffectKind = "Pause"
	KindParallel              EffectKind = "Parallel"
	KindSequence              EffectKind = "Sequence"
	KindPlayAudioFile         EffectKind = "PlayAudioFile"
	KindCopyToClipboard       EffectKind = "CopyToClipboard"
	KindOverlayMessage        EffectKind = "OverlayMessage"
	KindSpeak                 EffectKind = "Speak"
	KindStopSpeaking          EffectKind = "StopSpeaking"
	KindStartTimer            EffectKind = "StartTimer"
	KindStartStopwatch        EffectKind = "StartStopwatch"
	KindRunSystemCommand      EffectKind = "RunSystemCommand"
	KindClearTimer            EffectKind = "ClearTimer"
	KindHideTimer             EffectKind = "HideTimer"
	KindRestartTimer          EffectKind = "RestartTimer"
	KindAddTag                EffectKind = "AddTag"
	KindRemoveTag             EffectKind = "RemoveTag"
	KindWaitUntilTagged       EffectKind = "WaitUntilTagged"
	KindWaitUntilSecondsLeft  EffectKind = "WaitUntilSecondsRemain"
	KindWaitUntilFilterMatch  EffectKind = "WaitUntilFilterMatches"
	KindWaitUntilFinished     EffectKind = "WaitUntilFinished"
)

// Effect is the sum type of every action a trigger (or a timer bound to a
// trigger) can perform. Behavior lives in internal/effects; this package
// only describes the static shape.
type Effect interface {
	ID() string
	Kind() EffectKind
}

type effectBase struct{ IDValue string }

func (e effectBase) ID() string { return e.IDValue }

type DoNothingEffect struct{ effectBase }

func (DoNothingEffect) Kind() EffectKind { return KindDoNothing }

type PauseEffect struct {
	effectBase
	Duration time.Duration
}

func (PauseEffect) Kind() EffectKind { return KindPause }

type ParallelEffect struct {
	effectBase
	Children []Effect
}

func (ParallelEffect) Kind() EffectKind { return KindParallel }

type SequenceEffect struct {
	effectBase
	Children []Effect
}

func (SequenceEffect) Kind() EffectKind { return KindSequence }

type PlayAudioFileEffect struct {
	effectBase
	PathTmpl *matcher.TemplateString // nil when the path is unresolved (spec §4.9 import rule)
}

func (PlayAudioFileEffect) Kind() EffectKind { return KindPlayAudioFile }

type CopyToClipboardEffect struct {
	effectBase
	Tmpl *matcher.TemplateString
}

func (CopyToClipboardEffect) Kind() EffectKind { return KindCopyToClipboard }

type OverlayMessageEffect struct {
	effectBase
	Tmpl *matcher.TemplateString
}

func (OverlayMessageEffect) Kind() EffectKind { return KindOverlayMessage }

type SpeakEffect struct {
	effectBase
	Tmpl        *matcher.TemplateString
	Interrupt   bool
	NonBlocking bool
}

func (SpeakEffect) Kind() EffectKind { return KindSpeak }

type StopSpeakingEffect struct{ effectBase }

func (StopSpeakingEffect) Kind() EffectKind { return KindStopSpeaking }

type StartTimerEffect struct {
	effectBase
	Timer *Timer
}

func (StartTimerEffect) Kind() EffectKind { return KindStartTimer }

type StartStopwatchEffect struct {
	effectBase
	Stopwatch *Stopwatch
}

func (StartStopwatchEffect) Kind() EffectKind { return KindStartStopwatch }

type RunSystemCommandEffect struct {
	effectBase
	Command    CommandTemplate
	NonBlocking bool
}

func (RunSystemCommandEffect) Kind() EffectKind { return KindRunSystemCommand }

// Timer-only effects. The effect engine rejects these unless the firing
// context carries a non-empty timer_context (spec §4.6).

type ClearTimerEffect struct{ effectBase }

func (ClearTimerEffect) Kind() EffectKind { return KindClearTimer }

type HideTimerEffect struct{ effectBase }

func (HideTimerEffect) Kind() EffectKind { return KindHideTimer }

type RestartTimerEffect struct{ effectBase }

func (RestartTimerEffect) Kind() EffectKind { return KindRestartTimer }

type AddTagEffect struct {
	effectBase
	Tag string
}

func (AddTagEffect) Kind() EffectKind { return KindAddTag }

type RemoveTagEffect struct {
	effectBase
	Tag string
}

func (RemoveTagEffect) Kind() EffectKind { return KindRemoveTag }

type WaitUntilTaggedEffect struct {
	effectBase
	Tag string
}

func (WaitUntilTaggedEffect) Kind() EffectKind { return KindWaitUntilTagged }

type WaitUntilSecondsRemainEffect struct {
	effectBase
	Seconds uint32
}

func (WaitUntilSecondsRemainEffect) Kind() EffectKind { return KindWaitUntilSecondsLeft }

type WaitUntilFilterMatchesEffect struct {
	effectBase
	Filter  *matcher.FilterWithContext
	Timeout *time.Duration
}

func (WaitUntilFilterMatchesEffect) Kind() EffectKind { return KindWaitUntilFilterMatch }

type WaitUntilFinishedEffect struct{ effectBase }

func (WaitUntilFinishedEffect) Kind() EffectKind { return KindWaitUntilFinished }

// Constructors. effectBase is unexported so every effect literal must be
// built through one of these rather than a field-keyed struct literal from
// outside the package (the importer and trigger index both construct
// effects this way).

func NewDoNothing(id string) *DoNothingEffect { return &DoNothingEffect{effectBase{id}} }

func NewPause(id string, d time.Duration) *PauseEffect {
	return &PauseEffect{effectBase{id}, d}
}

func NewParallel(id string, children []Effect) *ParallelEffect {
	return &ParallelEffect{effectBase{id}, children}
}

func NewSequence(id string, children []Effect) *SequenceEffect {
	return &SequenceEffect{effectBase{id}, children}
}

func NewPlayAudioFile(id string, pathTmpl *matcher.TemplateString) *PlayAudioFileEffect {
	return &PlayAudioFileEffect{effectBase{id}, pathTmpl}
}

func NewCopyToClipboard(id string, tmpl *matcher.TemplateString) *CopyToClipboardEffect {
	return &CopyToClipboardEffect{effectBase{id}, tmpl}
}

func NewOverlayMessage(id string, tmpl *matcher.TemplateString) *OverlayMessageEffect {
	return &OverlayMessageEffect{effectBase{id}, tmpl}
}

func NewSpeak(id string, tmpl *matcher.TemplateString, interrupt, nonBlocking bool) *SpeakEffect {
	return &SpeakEffect{effectBase{id}, tmpl, interrupt, nonBlocking}
}

func NewStopSpeaking(id string) *StopSpeakingEffect { return &StopSpeakingEffect{effectBase{id}} }

func NewStartTimer(id string, timer *Timer) *StartTimerEffect {
	return &StartTimerEffect{effectBase{id}, timer}
}

func NewStartStopwatch(id string, sw *Stopwatch) *StartStopwatchEffect {
	return &StartStopwatchEffect{effectBase{id}, sw}
}

func NewRunSystemCommand(id string, cmd CommandTemplate, nonBlocking bool) *RunSystemCommandEffect {
	return &RunSystemCommandEffect{effectBase{id}, cmd, nonBlocking}
}

func NewClearTimer(id string) *ClearTimerEffect   { return &ClearTimerEffect{effectBase{id}} }
func NewHideTimer(id string) *HideTimerEffect     { return &HideTimerEffect{effectBase{id}} }
func NewRestartTimer(id string) *RestartTimerEffect { return &RestartTimerEffect{effectBase{id}} }

func NewAddTag(id, tag string) *AddTagEffect    { return &AddTagEffect{effectBase{id}, tag} }
func NewRemoveTag(id, tag string) *RemoveTagEffect { return &RemoveTagEffect{effectBase{id}, tag} }

func NewWaitUntilTagged(id, tag string) *WaitUntilTaggedEffect {
	return &WaitUntilTaggedEffect{effectBase{id}, tag}
}

func NewWaitUntilSecondsRemain(id string, seconds uint32) *WaitUntilSecondsRemainEffect {
	return &WaitUntilSecondsRemainEffect{effectBase{id}, seconds}
}

func NewWaitUntilFilterMatches(id string, filter *matcher.FilterWithContext, timeout *time.Duration) *WaitUntilFilterMatchesEffect {
	return &WaitUntilFilterMatchesEffect{effectBase{id}, filter, timeout}
}

func NewWaitUntilFinished(id string) *WaitUntilFinishedEffect {
	return &WaitUntilFinishedEffect{effectBase{id}}
}
