package matcher

import "regexp"

// Filter is an ordered sequence of Matcher; Check returns the first match's
// context, or none. Order is significant and stable (spec §3/§4.3).
type Filter struct {
	Matchers []Matcher
}

// Check runs each matcher in order and returns the first match.
func (f *Filter) Check(line, characterName string) (*MatchContext, bool) {
	for _, m := range f.Matchers {
		if ctx, ok := m.Check(line, characterName); ok {
			return ctx, true
		}
	}
	return nil, false
}

var escaper = regexp.MustCompile(`[.*+?()|[\]{}^$\\]`)

func regexEscape(s string) string {
	return escaper.ReplaceAllStringFunc(s, func(m string) string { return `\` + m })
}

// FilterWithContext is a filter whose pattern text references the
// originating match's captures via ${...} syntax. It is stored as a raw
// string (not compiled) until a timer fires and supplies the context to
// substitute against (spec §4.2 "with-context compilation").
type FilterWithContext struct {
	RawDialectPattern string
	MatcherID         string
}

// CompileWithContext escape-substitutes every ${...} reference in the raw
// pattern using ctx, then compiles the result as a dialect pattern. This
// produces a concrete, single-use DialectMatcher — it is never reused
// across different originating matches.
func (f *FilterWithContext) CompileWithContext(ctx *MatchContext) (*DialectMatcher, error) {
	substituted := templateVarsRE.ReplaceAllStringFunc(f.RawDialectPattern, func(m string) string {
		sub := templateVarsRE.FindStringSubmatch(m)
		return regexEscape(ctx.Get(sub[1]))
	})
	return NewDialectMatcher(f.MatcherID, substituted)
}
