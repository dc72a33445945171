package matcher

import (
	"regexp"
	"strings"

	"github.com/tinkeringguild/logquest-go/internal/pattern"
)

// Matcher is the sum type from spec §3: WholeLine, Substring, Regex, and
// Dialect variants, each carrying a stable identity for diffing. Every
// variant knows how to check a line and character name and, on success,
// produce a MatchContext.
type Matcher interface {
	ID() string
	Check(line, characterName string) (*MatchContext, bool)
}

// WholeLineMatcher matches when the line equals Pattern exactly.
type WholeLineMatcher struct {
	IDValue string
	Pattern string
}

func (m *WholeLineMatcher) ID() string { return m.IDValue }

func (m *WholeLineMatcher) Check(line, characterName string) (*MatchContext, bool) {
	if line != m.Pattern {
		return nil, false
	}
	return NewMatchContext(characterName), true
}

// SubstringMatcher matches when Pattern appears anywhere within the line.
type SubstringMatcher struct {
	IDValue string
	Pattern string
}

func (m *SubstringMatcher) ID() string { return m.IDValue }

func (m *SubstringMatcher) Check(line, characterName string) (*MatchContext, bool) {
	if !strings.Contains(line, m.Pattern) {
		return nil, false
	}
	return NewMatchContext(characterName), true
}

// RegexMatcher runs an ordinary (non-dialect) regular expression.
type RegexMatcher struct {
	IDValue string
	Source  string
	re      *regexp.Regexp
}

// NewRegexMatcher compiles an ordinary regex matcher.
func NewRegexMatcher(id, source string) (*RegexMatcher, error) {
	re, err := regexp.Compile(source)
	if err != nil {
		return nil, err
	}
	return &RegexMatcher{IDValue: id, Source: source, re: re}, nil
}

func (m *RegexMatcher) ID() string { return m.IDValue }

func (m *RegexMatcher) Check(line, characterName string) (*MatchContext, bool) {
	match := m.re.FindStringSubmatchIndex(line)
	if match == nil {
		return nil, false
	}
	names := m.re.SubexpNames()
	ctx := NewMatchContext(characterName)
	n := len(match) / 2
	ctx.Positional = make([]*string, n)
	for i := 0; i < n; i++ {
		if match[2*i] == -1 {
			continue
		}
		s := line[match[2*i]:match[2*i+1]]
		ctx.Positional[i] = &s
		if i < len(names) && names[i] != "" {
			ctx.Named[strings.ToUpper(names[i])] = s
		}
	}
	return ctx, true
}

// DialectMatcher runs the augmented regex dialect (see internal/pattern).
type DialectMatcher struct {
	IDValue  string
	compiled *pattern.Compiled
}

// NewDialectMatcher compiles a dialect pattern matcher.
func NewDialectMatcher(id, dialectPattern string) (*DialectMatcher, error) {
	c, err := pattern.Compile(dialectPattern)
	if err != nil {
		return nil, err
	}
	return &DialectMatcher{IDValue: id, compiled: c}, nil
}

// Source returns the original dialect pattern text.
func (m *DialectMatcher) Source() string { return m.compiled.Source() }

func (m *DialectMatcher) ID() string { return m.IDValue }

func (m *DialectMatcher) Check(line, characterName string) (*MatchContext, bool) {
	res, ok := m.compiled.Evaluate(line, characterName)
	if !ok {
		return nil, false
	}
	return &MatchContext{
		Positional:    res.Positional,
		Named:         res.Named,
		CharacterName: characterName,
	}, true
}
