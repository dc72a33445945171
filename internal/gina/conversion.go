package gina

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/tinkeringguild/logquest-go/internal/matcher"
	"github.com/tinkeringguild/logquest-go/internal/triggers"
)

// ConversionError names one trigger (by its GINA name) that could not be
// translated into the domain model.
type ConversionError struct {
	msg string
}

func (e *ConversionError) Error() string { return "gina: " + e.msg }

func newConversionError(format string, args ...any) error {
	return &ConversionError{msg: fmt.Sprintf(format, args...)}
}

// tagEnding is the runtime tag name a StartTimer effect adds while the
// timer's "ending" window has opened (spec §4.9's TimerEndingTime rule).
const tagEnding = "ENDING"

// effectIDs hands out stable ids for synthesized effects. It's a plain
// counter, not a replacement for the real id generator used elsewhere in
// the domain model — trigger/effect ids generated here are never
// re-derived from GINA content (GINA has none to offer).
type effectIDs struct{ n int }

func (g *effectIDs) next() string {
	g.n++
	return fmt.Sprintf("gina-%d", g.n)
}

// Convert translates a parsed GINA export into a forest of detached
// TriggerGroups, ready for Import into an Index. importTime stamps every
// created Trigger/TriggerGroup that GINA didn't itself timestamp.
func Convert(src *Triggers, importTime time.Time) ([]*ConvertedGroup, error) {
	groups := make([]*ConvertedGroup, 0, len(src.TriggerGroups))
	for _, tg := range src.TriggerGroups {
		converted, err := convertGroup(&tg, importTime)
		if err != nil {
			return nil, err
		}
		groups = append(groups, converted)
	}
	return groups, nil
}

// ConvertedGroup is a TriggerGroup plus its nested subgroups and triggers,
// still detached from any Index. Import inserts the whole tree.
type ConvertedGroup struct {
	Group     *triggers.TriggerGroup
	Subgroups []*ConvertedGroup
	Triggers  []*triggers.Trigger
}

func convertGroup(src *TriggerGroup, importTime time.Time) (*ConvertedGroup, error) {
	// GINA's EnableByDefault is treated as a shallow enable affecting only
	// this group's immediate trigger children, not nested subgroups.
	enableChildren := boolOr(src.EnableByDefault, false)

	// TriggerGroup carries no comment field in the domain model; GINA's
	// group-level Comments has no home and is dropped on import.
	result := &ConvertedGroup{
		Group: &triggers.TriggerGroup{
			ID:        uuid.NewString(),
			Name:      stringOr(src.Name, untitled("Trigger Group")),
			CreatedAt: importTime,
			UpdatedAt: importTime,
		},
	}

	for _, nested := range src.TriggerGroups {
		converted, err := convertGroup(&nested, importTime)
		if err != nil {
			return nil, err
		}
		result.Subgroups = append(result.Subgroups, converted)
	}

	for _, t := range src.Triggers {
		trig, err := convertTrigger(&t, importTime)
		if err != nil {
			return nil, err
		}
		if enableChildren {
			trig.Enabled = true
		}
		result.Triggers = append(result.Triggers, trig)
	}

	return result, nil
}

// convertTrigger implements spec §4.9's field-by-field translation.
func convertTrigger(src *Trigger, importTime time.Time) (*triggers.Trigger, error) {
	triggerID := uuid.NewString()
	name := stringOr(src.Name, untitled("Trigger"))

	filter, err := convertFilter(src, name)
	if err != nil {
		return nil, err
	}

	updatedAt := importTime
	if modified, ok := src.modifiedTime(); ok {
		updatedAt = modified
	}

	ids := &effectIDs{}
	var effects []triggers.Effect

	if eff := effectFromOptions(src.UseText, src.DisplayText, func(tmpl *matcher.TemplateString) triggers.Effect {
		return triggers.NewOverlayMessage(ids.next(), tmpl)
	}); eff != nil {
		effects = append(effects, eff)
	}
	if eff := effectFromOptions(src.CopyToClipboard, src.ClipboardText, func(tmpl *matcher.TemplateString) triggers.Effect {
		return triggers.NewCopyToClipboard(ids.next(), tmpl)
	}); eff != nil {
		effects = append(effects, eff)
	}
	if eff := effectFromOptions(src.UseTextToVoice, src.TextToVoiceText, func(tmpl *matcher.TemplateString) triggers.Effect {
		return triggers.NewSpeak(ids.next(), tmpl, boolOr(src.InterruptSpeech, false), false)
	}); eff != nil {
		effects = append(effects, eff)
	}
	if boolOr(src.PlayMediaFile, false) {
		effects = append(effects, triggers.NewPlayAudioFile(ids.next(), nil))
	}

	timerEffect, err := convertTimer(src, triggerID, name, ids)
	if err != nil {
		return nil, err
	}
	if timerEffect != nil {
		effects = append(effects, timerEffect)
	}

	return &triggers.Trigger{
		ID:        triggerID,
		Name:      name,
		Comment:   src.Comments,
		Enabled:   true,
		Filter:    filter,
		Effects:   effects,
		CreatedAt: importTime,
		UpdatedAt: updatedAt,
	}, nil
}

func convertFilter(src *Trigger, triggerName string) (*matcher.Filter, error) {
	text := src.TriggerText
	if text == nil || *text == "" {
		return nil, newConversionError("trigger %q has no pattern text", triggerName)
	}
	id := uuid.NewString()
	if boolOr(src.EnableRegex, false) {
		m, err := matcher.NewDialectMatcher(id, *text)
		if err != nil {
			return nil, newConversionError("trigger %q has an invalid pattern: %v", triggerName, err)
		}
		return &matcher.Filter{Matchers: []matcher.Matcher{m}}, nil
	}
	return &matcher.Filter{Matchers: []matcher.Matcher{
		&matcher.WholeLineMatcher{IDValue: id, Pattern: *text},
	}}, nil
}

// convertTimer implements the TimerType / duration / start-behavior / early
// ender / ending / ended translation rules.
func convertTimer(src *Trigger, triggerID, triggerName string, ids *effectIDs) (triggers.Effect, error) {
	timerName := stringOr(src.TimerName, untitled("Timer"))
	timerType := src.TimerType

	if timerType == nil || *timerType == "NoTimer" {
		return nil, nil
	}

	if *timerType == "Stopwatch" {
		sw := &triggers.Stopwatch{
			TriggerID:   triggerID,
			NameTmpl:    matcher.NewTemplateString(timerName),
			StartPolicy: triggers.AlwaysStart{},
		}
		return triggers.NewStartStopwatch(ids.next(), sw), nil
	}

	duration, err := timerDuration(src, timerName)
	if err != nil {
		return nil, err
	}

	startPolicy, err := timerStartPolicy(src, timerName)
	if err != nil {
		return nil, err
	}

	var effects []triggers.Effect

	if terminator, err := earlyEndersToTerminator(src.EarlyEnders, ids); err != nil {
		return nil, err
	} else if terminator != nil {
		effects = append(effects, terminator)
	}

	if src.TimerEndingTime != nil && *src.TimerEndingTime > 0 && boolOr(src.UseTimerEnding, false) {
		seq := []triggers.Effect{
			triggers.NewWaitUntilSecondsRemain(ids.next(), *src.TimerEndingTime),
			triggers.NewAddTag(ids.next(), tagEnding),
		}
		if singularized := singularizeTimerTriggerEffects(src.TimerEndingTrigger, ids); singularized != nil {
			seq = append(seq, singularized)
		}
		effects = append(effects, triggers.NewSequence(ids.next(), seq))
	}

	if boolOr(src.UseTimerEnded, false) && src.TimerEndedTrigger != nil {
		if singularized := singularizeTimerTriggerEffects(src.TimerEndedTrigger, ids); singularized != nil {
			effects = append(effects, triggers.NewSequence(ids.next(), []triggers.Effect{
				triggers.NewWaitUntilFinished(ids.next()),
				singularized,
			}))
		}
	}

	timer := &triggers.Timer{
		TriggerID:   triggerID,
		NameTmpl:    matcher.NewTemplateString(timerName),
		Duration:    duration,
		Repeats:     *timerType == "RepeatingTimer",
		StartPolicy: startPolicy,
		Effects:     effects,
	}
	return triggers.NewStartTimer(ids.next(), timer), nil
}

func timerDuration(src *Trigger, timerName string) (time.Duration, error) {
	if src.TimerMillisecondDuration != nil {
		return time.Duration(*src.TimerMillisecondDuration) * time.Millisecond, nil
	}
	if src.TimerDuration != nil {
		return time.Duration(*src.TimerDuration) * time.Second, nil
	}
	return 0, newConversionError("timer %q has no duration", timerName)
}

// timerStartPolicy implements the (timer_start_behavior, restart_based_on_timer_name)
// decision table. The (RestartTimer, restart_by_name=true) cell is ambiguous
// in GINA's own schema (no known export exercises it); rather than silently
// guessing ReplaceByName or ReplaceAllOfTrigger, conversion fails loudly so
// an import can't quietly misfile a timer's restart semantics.
func timerStartPolicy(src *Trigger, timerName string) (triggers.TimerStartPolicy, error) {
	restartByName := boolOr(src.RestartBasedOnTimerName, false)
	switch {
	case src.TimerStartBehavior == nil:
		return triggers.AlwaysStart{}, nil
	case *src.TimerStartBehavior == "IgnoreIfRunning":
		return triggers.DoNothingIfRunning{}, nil
	case *src.TimerStartBehavior == "StartNewTimer" && restartByName:
		return triggers.ReplaceByName{NameTmpl: matcher.NewTemplateString(timerName)}, nil
	case *src.TimerStartBehavior == "StartNewTimer":
		return triggers.AlwaysStart{}, nil
	case *src.TimerStartBehavior == "RestartTimer" && restartByName:
		return nil, newConversionError("timer %q combines RestartTimer with RestartBasedOnTimerName, which GINA never legitimately exports", timerName)
	case *src.TimerStartBehavior == "RestartTimer":
		return triggers.ReplaceAllOfTrigger{}, nil
	default:
		return nil, newConversionError("timer %q has an unrecognized start behavior %q", timerName, *src.TimerStartBehavior)
	}
}

func earlyEndersToTerminator(enders []EarlyEnder, ids *effectIDs) (triggers.Effect, error) {
	if len(enders) == 0 {
		return nil, nil
	}
	var parts []string
	for _, e := range enders {
		part, err := earlyEnderPattern(e)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	combined := parts[0]
	for _, p := range parts[1:] {
		combined += "|" + p
	}

	filter := &matcher.FilterWithContext{RawDialectPattern: combined, MatcherID: uuid.NewString()}
	return triggers.NewSequence(ids.next(), []triggers.Effect{
		triggers.NewWaitUntilFilterMatches(ids.next(), filter, nil),
		triggers.NewClearTimer(ids.next()),
	}), nil
}

func earlyEnderPattern(e EarlyEnder) (string, error) {
	if e.EarlyEndText == nil {
		return "", newConversionError("an early ender is missing its pattern text")
	}
	if boolOr(e.EnableRegex, false) {
		return "(?:" + *e.EarlyEndText + ")", nil
	}
	return "(?:^" + regexp.QuoteMeta(*e.EarlyEndText) + "$)", nil
}

// singularizeTimerTriggerEffects converts a TimerEndingTrigger/TimerEndedTrigger
// into Parallel(effects) when it carries more than one effect, the bare
// effect when it carries exactly one, or nil when it carries none.
func singularizeTimerTriggerEffects(tt *TimerTrigger, ids *effectIDs) triggers.Effect {
	if tt == nil {
		return nil
	}
	var effects []triggers.Effect

	if boolOr(tt.UseText, false) && stringOr(tt.DisplayText, "") != "" {
		effects = append(effects, triggers.NewOverlayMessage(ids.next(), matcher.NewTemplateString(*tt.DisplayText)))
	}

	if boolOr(tt.UseTextToVoice, false) && stringOr(tt.TextToVoiceText, "") != "" {
		speak := triggers.NewSpeak(ids.next(), matcher.NewTemplateString(*tt.TextToVoiceText), false, false)
		if boolOr(tt.InterruptSpeech, false) {
			effects = append(effects, triggers.NewSequence(ids.next(), []triggers.Effect{
				triggers.NewStopSpeaking(ids.next()),
				speak,
			}))
		} else {
			effects = append(effects, speak)
		}
	}

	if boolOr(tt.PlayMediaFile, false) {
		effects = append(effects, triggers.NewPlayAudioFile(ids.next(), nil))
	}

	switch len(effects) {
	case 0:
		return nil
	case 1:
		return effects[0]
	default:
		return triggers.NewParallel(ids.next(), effects)
	}
}

func effectFromOptions(condition *bool, text *string, converter func(*matcher.TemplateString) triggers.Effect) triggers.Effect {
	if !boolOr(condition, false) {
		return nil
	}
	if text == nil || *text == "" {
		return nil
	}
	return converter(matcher.NewTemplateString(*text))
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func stringOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}

func untitled(what string) string {
	return fmt.Sprintf("Untitled %s [%s]", what, uuid.NewString()[:8])
}
