package matcher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterReturnsFirstMatch(t *testing.T) {
	m1 := &SubstringMatcher{IDValue: "a", Pattern: "zzz"}
	m2 := &WholeLineMatcher{IDValue: "b", Pattern: "hello"}
	f := &Filter{Matchers: []Matcher{m1, m2}}

	ctx, ok := f.Check("hello", "Bob")
	require.True(t, ok)
	require.Equal(t, "Bob", ctx.CharacterName)
}

func TestFilterNoMatch(t *testing.T) {
	f := &Filter{Matchers: []Matcher{&WholeLineMatcher{IDValue: "a", Pattern: "x"}}}
	_, ok := f.Check("y", "Bob")
	require.False(t, ok)
}

func TestTemplateRenderResolvesNamedPositionalAndCharacter(t *testing.T) {
	ctx := NewMatchContext("Yelinak")
	ctx.Named["S1"] = "King Tormax"
	full := "full match"
	ctx.Positional = []*string{&full}

	tmpl := NewTemplateString("${C} saw ${S1} at ${0}; ${MISSING}")
	got := tmpl.Render(ctx)
	require.Equal(t, "Yelinak saw King Tormax at full match; ", got)
}

func TestFilterWithContextSubstitutesAndEscapes(t *testing.T) {
	ctx := NewMatchContext("Bob")
	ctx.Named["S1"] = "a.b"

	fwc := &FilterWithContext{RawDialectPattern: `^ends: \Q${S1}\E$`, MatcherID: "x"}
	// Use a simpler unescaped form for this test since \Q isn't part of the grammar.
	fwc.RawDialectPattern = `^value is ${S1}$`
	dm, err := fwc.CompileWithContext(ctx)
	require.NoError(t, err)

	_, ok := dm.Check("value is a.b", "Bob")
	require.True(t, ok)
	// Regex-escaping means a literal "a.b" does not match "aXb".
	_, ok = dm.Check("value is aXb", "Bob")
	require.False(t, ok)
}
