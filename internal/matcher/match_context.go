// Package matcher implements the Matcher/Filter sum type, the MatchContext
// symbol table a successful match produces, and TemplateString rendering.
package matcher

import "strings"

// MatchContext is the symbol table produced by one successful match: the
// positional capture groups (index 0 is the full match), the named captures
// keyed by upper-cased name, and the active character's name.
type MatchContext struct {
	Positional    []*string
	Named         map[string]string
	CharacterName string
}

// NewMatchContext returns an empty context for the given character.
func NewMatchContext(characterName string) *MatchContext {
	return &MatchContext{
		Positional:    []*string{},
		Named:         map[string]string{},
		CharacterName: characterName,
	}
}

// Get resolves a template reference: "C" for the character name, a decimal
// string for a positional index, or anything else as an upper-cased named
// lookup. Returns "" (not found) when unresolved, matching spec §3's
// "unresolved references expand to empty."
func (c *MatchContext) Get(ref string) string {
	if c == nil {
		return ""
	}
	if ref == "C" {
		return c.CharacterName
	}
	if n, ok := parsePositionalIndex(ref); ok {
		if n >= 0 && n < len(c.Positional) && c.Positional[n] != nil {
			return *c.Positional[n]
		}
		return ""
	}
	if v, ok := c.Named[strings.ToUpper(ref)]; ok {
		return v
	}
	return ""
}

func parsePositionalIndex(ref string) (int, bool) {
	if ref == "" {
		return 0, false
	}
	n := 0
	for _, r := range ref {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
