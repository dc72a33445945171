package matcher

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON emits just the template text; ParamNames is derived and
// rebuilt by UnmarshalJSON via NewTemplateString so it never drifts from
// the text actually on disk.
func (t *TemplateString) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Tmpl)
}

func (t *TemplateString) UnmarshalJSON(data []byte) error {
	var tmpl string
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return err
	}
	*t = *NewTemplateString(tmpl)
	return nil
}

type matcherKind string

const (
	matcherWholeLine matcherKind = "WholeLine"
	matcherSubstring matcherKind = "Substring"
	matcherRegex     matcherKind = "Regex"
	matcherDialect   matcherKind = "Dialect"
)

type matcherEnvelope struct {
	Kind    matcherKind `json:"kind"`
	ID      string      `json:"id"`
	Pattern string      `json:"pattern"`
}

// MarshalMatcher encodes m as an externally-kind-tagged JSON object. Every
// variant reduces to an id plus a single pattern string, so one envelope
// shape covers all four.
func MarshalMatcher(m Matcher) ([]byte, error) {
	env := matcherEnvelope{ID: m.ID()}
	switch v := m.(type) {
	case *WholeLineMatcher:
		env.Kind, env.Pattern = matcherWholeLine, v.Pattern
	case *SubstringMatcher:
		env.Kind, env.Pattern = matcherSubstring, v.Pattern
	case *RegexMatcher:
		env.Kind, env.Pattern = matcherRegex, v.Source
	case *DialectMatcher:
		env.Kind, env.Pattern = matcherDialect, v.Source()
	default:
		return nil, fmt.Errorf("matcher: unknown matcher type %T", m)
	}
	return json.Marshal(env)
}

// UnmarshalMatcher decodes a matcherEnvelope back into the concrete
// Matcher variant it names.
func UnmarshalMatcher(data []byte) (Matcher, error) {
	var env matcherEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case matcherWholeLine:
		return &WholeLineMatcher{IDValue: env.ID, Pattern: env.Pattern}, nil
	case matcherSubstring:
		return &SubstringMatcher{IDValue: env.ID, Pattern: env.Pattern}, nil
	case matcherRegex:
		return NewRegexMatcher(env.ID, env.Pattern)
	case matcherDialect:
		return NewDialectMatcher(env.ID, env.Pattern)
	default:
		return nil, fmt.Errorf("matcher: unknown matcher kind %q", env.Kind)
	}
}

// MarshalJSON encodes Filter as an ordered array of tagged matcher objects.
func (f *Filter) MarshalJSON() ([]byte, error) {
	raw := make([]json.RawMessage, len(f.Matchers))
	for i, m := range f.Matchers {
		encoded, err := MarshalMatcher(m)
		if err != nil {
			return nil, err
		}
		raw[i] = encoded
	}
	return json.Marshal(raw)
}

func (f *Filter) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	matchers := make([]Matcher, len(raw))
	for i, r := range raw {
		m, err := UnmarshalMatcher(r)
		if err != nil {
			return err
		}
		matchers[i] = m
	}
	f.Matchers = matchers
	return nil
}
