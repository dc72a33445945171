package triggers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tinkeringguild/logquest-go/internal/matcher"
)

// effectEnvelope is the on-disk shape of any Effect: a kind discriminant
// plus whichever kind-specific fields that variant carries. One shape
// covers all 21 variants since no variant uses more than a handful of
// these fields at once.
type effectEnvelope struct {
	Kind        EffectKind                 `json:"kind"`
	ID          string                     `json:"id"`
	DurationMS  *int64                     `json:"duration_ms,omitempty"`
	Children    []json.RawMessage          `json:"children,omitempty"`
	PathTmpl    *matcher.TemplateString    `json:"path_template,omitempty"`
	Tmpl        *matcher.TemplateString    `json:"template,omitempty"`
	Interrupt   *bool                      `json:"interrupt,omitempty"`
	Timer       *Timer                     `json:"timer,omitempty"`
	Stopwatch   *Stopwatch                 `json:"stopwatch,omitempty"`
	Command     json.RawMessage            `json:"command,omitempty"`
	NonBlocking *bool                      `json:"non_blocking,omitempty"`
	Tag         *string                    `json:"tag,omitempty"`
	Seconds     *uint32                    `json:"seconds,omitempty"`
	Filter      *matcher.FilterWithContext `json:"filter,omitempty"`
	TimeoutMS   *int64                     `json:"timeout_ms,omitempty"`
}

func durationPtr(d time.Duration) *int64 { ms := int64(d / time.Millisecond); return &ms }

// MarshalEffect encodes e as a kind-tagged JSON object (spec §6's
// "indented JSON" persistence format).
func MarshalEffect(e Effect) ([]byte, error) {
	env := effectEnvelope{Kind: e.Kind(), ID: e.ID()}
	switch v := e.(type) {
	case *DoNothingEffect, *StopSpeakingEffect, *ClearTimerEffect, *HideTimerEffect,
		*RestartTimerEffect, *WaitUntilFinishedEffect:
		// no extra fields
		_ = v
	case *PauseEffect:
		env.DurationMS = durationPtr(v.Duration)
	case *ParallelEffect:
		if err := encodeChildren(&env, v.Children); err != nil {
			return nil, err
		}
	case *SequenceEffect:
		if err := encodeChildren(&env, v.Children); err != nil {
			return nil, err
		}
	case *PlayAudioFileEffect:
		env.PathTmpl = v.PathTmpl
	case *CopyToClipboardEffect:
		env.Tmpl = v.Tmpl
	case *OverlayMessageEffect:
		env.Tmpl = v.Tmpl
	case *SpeakEffect:
		env.Tmpl = v.Tmpl
		env.Interrupt = &v.Interrupt
		env.NonBlocking = &v.NonBlocking
	case *StartTimerEffect:
		env.Timer = v.Timer
	case *StartStopwatchEffect:
		env.Stopwatch = v.Stopwatch
	case *RunSystemCommandEffect:
		cmd, err := MarshalCommandTemplate(v.Command)
		if err != nil {
			return nil, err
		}
		env.Command = cmd
		env.NonBlocking = &v.NonBlocking
	case *AddTagEffect:
		env.Tag = &v.Tag
	case *RemoveTagEffect:
		env.Tag = &v.Tag
	case *WaitUntilTaggedEffect:
		env.Tag = &v.Tag
	case *WaitUntilSecondsRemainEffect:
		env.Seconds = &v.Seconds
	case *WaitUntilFilterMatchesEffect:
		env.Filter = v.Filter
		if v.Timeout != nil {
			env.TimeoutMS = durationPtr(*v.Timeout)
		}
	default:
		return nil, fmt.Errorf("triggers: unknown effect type %T", e)
	}
	return json.Marshal(env)
}

func encodeChildren(env *effectEnvelope, children []Effect) error {
	raw := make([]json.RawMessage, len(children))
	for i, c := range children {
		encoded, err := MarshalEffect(c)
		if err != nil {
			return err
		}
		raw[i] = encoded
	}
	env.Children = raw
	return nil
}

// MarshalEffects encodes a list of effects in order.
func MarshalEffects(effects []Effect) ([]byte, error) {
	raw := make([]json.RawMessage, len(effects))
	for i, e := range effects {
		encoded, err := MarshalEffect(e)
		if err != nil {
			return nil, err
		}
		raw[i] = encoded
	}
	return json.Marshal(raw)
}

// UnmarshalEffect decodes a kind-tagged JSON object back into the concrete
// Effect variant it names.
func UnmarshalEffect(data []byte) (Effect, error) {
	var env effectEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	durationOf := func() time.Duration {
		if env.DurationMS == nil {
			return 0
		}
		return time.Duration(*env.DurationMS) * time.Millisecond
	}

	switch env.Kind {
	case KindDoNothing:
		return NewDoNothing(env.ID), nil
	case KindPause:
		return NewPause(env.ID, durationOf()), nil
	case KindParallel:
		children, err := decodeChildren(env.Children)
		if err != nil {
			return nil, err
		}
		return NewParallel(env.ID, children), nil
	case KindSequence:
		children, err := decodeChildren(env.Children)
		if err != nil {
			return nil, err
		}
		return NewSequence(env.ID, children), nil
	case KindPlayAudioFile:
		return NewPlayAudioFile(env.ID, env.PathTmpl), nil
	case KindCopyToClipboard:
		return NewCopyToClipboard(env.ID, env.Tmpl), nil
	case KindOverlayMessage:
		return NewOverlayMessage(env.ID, env.Tmpl), nil
	case KindSpeak:
		interrupt := env.Interrupt != nil && *env.Interrupt
		nonBlocking := env.NonBlocking != nil && *env.NonBlocking
		return NewSpeak(env.ID, env.Tmpl, interrupt, nonBlocking), nil
	case KindStopSpeaking:
		return NewStopSpeaking(env.ID), nil
	case KindStartTimer:
		return NewStartTimer(env.ID, env.Timer), nil
	case KindStartStopwatch:
		return NewStartStopwatch(env.ID, env.Stopwatch), nil
	case KindRunSystemCommand:
		cmd, err := UnmarshalCommandTemplate(env.Command)
		if err != nil {
			return nil, err
		}
		nonBlocking := env.NonBlocking != nil && *env.NonBlocking
		return NewRunSystemCommand(env.ID, cmd, nonBlocking), nil
	case KindClearTimer:
		return NewClearTimer(env.ID), nil
	case KindHideTimer:
		return NewHideTimer(env.ID), nil
	case KindRestartTimer:
		return NewRestartTimer(env.ID), nil
	case KindAddTag:
		return NewAddTag(env.ID, tagOf(env.Tag)), nil
	case KindRemoveTag:
		return NewRemoveTag(env.ID, tagOf(env.Tag)), nil
	case KindWaitUntilTagged:
		return NewWaitUntilTagged(env.ID, tagOf(env.Tag)), nil
	case KindWaitUntilSecondsLeft:
		var seconds uint32
		if env.Seconds != nil {
			seconds = *env.Seconds
		}
		return NewWaitUntilSecondsRemain(env.ID, seconds), nil
	case KindWaitUntilFilterMatch:
		var timeout *time.Duration
		if env.TimeoutMS != nil {
			d := time.Duration(*env.TimeoutMS) * time.Millisecond
			timeout = &d
		}
		return NewWaitUntilFilterMatches(env.ID, env.Filter, timeout), nil
	case KindWaitUntilFinished:
		return NewWaitUntilFinished(env.ID), nil
	default:
		return nil, fmt.Errorf("triggers: unknown effect kind %q", env.Kind)
	}
}

func tagOf(tag *string) string {
	if tag == nil {
		return ""
	}
	return *tag
}

func decodeChildren(raw []json.RawMessage) ([]Effect, error) {
	children := make([]Effect, len(raw))
	for i, r := range raw {
		e, err := UnmarshalEffect(r)
		if err != nil {
			return nil, err
		}
		children[i] = e
	}
	return children, nil
}

// UnmarshalEffects decodes a JSON array produced by MarshalEffects.
func UnmarshalEffects(data []byte) ([]Effect, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return decodeChildren(raw)
}

type commandTemplateKind string

const (
	commandApproved   commandTemplateKind = "Approved"
	commandUnapproved commandTemplateKind = "Unapproved"
)

type commandTemplateEnvelope struct {
	Kind      commandTemplateKind `json:"kind"`
	Signature []byte              `json:"signature,omitempty"`
	Command   string              `json:"command"`
	Params    []*matcher.TemplateString `json:"params,omitempty"`
	Stdin     *matcher.TemplateString   `json:"stdin,omitempty"`
}

// MarshalCommandTemplate encodes a CommandTemplate, including its
// signature when present (spec §4.8 — the signature travels with the
// Triggers file so a later load on a different machine fails
// verification and demands re-approval).
func MarshalCommandTemplate(c CommandTemplate) ([]byte, error) {
	spec := c.Spec()
	env := commandTemplateEnvelope{Command: spec.Command, Params: spec.Params, Stdin: spec.Stdin}
	switch v := c.(type) {
	case *ApprovedCommand:
		env.Kind = commandApproved
		env.Signature = v.Signature
	case *UnapprovedCommand:
		env.Kind = commandUnapproved
	default:
		return nil, fmt.Errorf("triggers: unknown command template type %T", c)
	}
	return json.Marshal(env)
}

// UnmarshalCommandTemplate decodes a CommandTemplate. It does not itself
// re-verify the signature against the local machine identity — that is
// internal/store's job at load time, since only it knows whether to
// downgrade a stale signature to UnapprovedCommand.
func UnmarshalCommandTemplate(data []byte) (CommandTemplate, error) {
	var env commandTemplateEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	spec := &CommandSpec{Command: env.Command, Params: env.Params, Stdin: env.Stdin}
	switch env.Kind {
	case commandApproved:
		return &ApprovedCommand{Signature: env.Signature, CmdSpec: spec}, nil
	case commandUnapproved:
		return &UnapprovedCommand{CmdSpec: spec}, nil
	default:
		return nil, fmt.Errorf("triggers: unknown command template kind %q", env.Kind)
	}
}

type timerStartPolicyKind string

const (
	policyAlwaysStart         timerStartPolicyKind = "AlwaysStart"
	policyDoNothingIfRunning  timerStartPolicyKind = "DoNothingIfRunning"
	policyReplaceAllOfTrigger timerStartPolicyKind = "ReplaceAllOfTrigger"
	policyReplaceByName       timerStartPolicyKind = "ReplaceByName"
)

type timerStartPolicyEnvelope struct {
	Kind     timerStartPolicyKind    `json:"kind"`
	NameTmpl *matcher.TemplateString `json:"name_template,omitempty"`
}

// MarshalTimerStartPolicy encodes a TimerStartPolicy.
func MarshalTimerStartPolicy(p TimerStartPolicy) ([]byte, error) {
	env := timerStartPolicyEnvelope{}
	switch v := p.(type) {
	case AlwaysStart:
		env.Kind = policyAlwaysStart
	case DoNothingIfRunning:
		env.Kind = policyDoNothingIfRunning
	case ReplaceAllOfTrigger:
		env.Kind = policyReplaceAllOfTrigger
	case ReplaceByName:
		env.Kind = policyReplaceByName
		env.NameTmpl = v.NameTmpl
	default:
		return nil, fmt.Errorf("triggers: unknown timer start policy type %T", p)
	}
	return json.Marshal(env)
}

// UnmarshalTimerStartPolicy decodes a TimerStartPolicy.
func UnmarshalTimerStartPolicy(data []byte) (TimerStartPolicy, error) {
	var env timerStartPolicyEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case policyAlwaysStart:
		return AlwaysStart{}, nil
	case policyDoNothingIfRunning:
		return DoNothingIfRunning{}, nil
	case policyReplaceAllOfTrigger:
		return ReplaceAllOfTrigger{}, nil
	case policyReplaceByName:
		return ReplaceByName{NameTmpl: env.NameTmpl}, nil
	default:
		return nil, fmt.Errorf("triggers: unknown timer start policy kind %q", env.Kind)
	}
}

// MarshalJSON lets Trigger participate in ordinary json.Marshal calls
// (e.g. as a map value) despite Effects and StartPolicy-bearing fields
// being interface-typed.
func (t *Trigger) MarshalJSON() ([]byte, error) {
	effects, err := MarshalEffects(t.Effects)
	if err != nil {
		return nil, err
	}
	return json.Marshal(triggerJSON{
		ID: t.ID, ParentID: t.ParentID, Name: t.Name, Comment: t.Comment,
		Enabled: t.Enabled, Filter: t.Filter, Effects: effects,
		CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt,
	})
}

func (t *Trigger) UnmarshalJSON(data []byte) error {
	var tj triggerJSON
	if err := json.Unmarshal(data, &tj); err != nil {
		return err
	}
	effects, err := UnmarshalEffects(tj.Effects)
	if err != nil {
		return err
	}
	*t = Trigger{
		ID: tj.ID, ParentID: tj.ParentID, Name: tj.Name, Comment: tj.Comment,
		Enabled: tj.Enabled, Filter: tj.Filter, Effects: effects,
		CreatedAt: tj.CreatedAt, UpdatedAt: tj.UpdatedAt,
	}
	return nil
}

type triggerJSON struct {
	ID        string          `json:"id"`
	ParentID  *string         `json:"parent_id,omitempty"`
	Name      string          `json:"name"`
	Comment   *string         `json:"comment,omitempty"`
	Enabled   bool            `json:"enabled"`
	Filter    *matcher.Filter `json:"filter"`
	Effects   json.RawMessage `json:"effects"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type timerJSON struct {
	TriggerID   string                  `json:"trigger_id"`
	NameTmpl    *matcher.TemplateString `json:"name_template"`
	Tags        []string                `json:"tags,omitempty"`
	DurationMS  int64                   `json:"duration_ms"`
	Repeats     bool                    `json:"repeats"`
	StartPolicy json.RawMessage         `json:"start_policy"`
	Effects     json.RawMessage         `json:"effects"`
}

// MarshalJSON handles Timer's two interface-typed fields (StartPolicy,
// Effects) explicitly since the default encoder can't distinguish
// TimerStartPolicy's empty-struct variants from one another.
func (t *Timer) MarshalJSON() ([]byte, error) {
	policy, err := MarshalTimerStartPolicy(t.StartPolicy)
	if err != nil {
		return nil, err
	}
	effects, err := MarshalEffects(t.Effects)
	if err != nil {
		return nil, err
	}
	return json.Marshal(timerJSON{
		TriggerID: t.TriggerID, NameTmpl: t.NameTmpl, Tags: t.Tags,
		DurationMS: int64(t.Duration / time.Millisecond), Repeats: t.Repeats,
		StartPolicy: policy, Effects: effects,
	})
}

func (t *Timer) UnmarshalJSON(data []byte) error {
	var tj timerJSON
	if err := json.Unmarshal(data, &tj); err != nil {
		return err
	}
	policy, err := UnmarshalTimerStartPolicy(tj.StartPolicy)
	if err != nil {
		return err
	}
	effects, err := UnmarshalEffects(tj.Effects)
	if err != nil {
		return err
	}
	*t = Timer{
		TriggerID: tj.TriggerID, NameTmpl: tj.NameTmpl, Tags: tj.Tags,
		Duration: time.Duration(tj.DurationMS) * time.Millisecond, Repeats: tj.Repeats,
		StartPolicy: policy, Effects: effects,
	}
	return nil
}

type stopwatchJSON struct {
	TriggerID   string                  `json:"trigger_id"`
	NameTmpl    *matcher.TemplateString `json:"name_template"`
	Tags        []string                `json:"tags,omitempty"`
	StartPolicy json.RawMessage         `json:"start_policy"`
}

func (s *Stopwatch) MarshalJSON() ([]byte, error) {
	policy, err := MarshalTimerStartPolicy(s.StartPolicy)
	if err != nil {
		return nil, err
	}
	return json.Marshal(stopwatchJSON{
		TriggerID: s.TriggerID, NameTmpl: s.NameTmpl, Tags: s.Tags, StartPolicy: policy,
	})
}

func (s *Stopwatch) UnmarshalJSON(data []byte) error {
	var sj stopwatchJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return err
	}
	policy, err := UnmarshalTimerStartPolicy(sj.StartPolicy)
	if err != nil {
		return err
	}
	*s = Stopwatch{TriggerID: sj.TriggerID, NameTmpl: sj.NameTmpl, Tags: sj.Tags, StartPolicy: policy}
	return nil
}
