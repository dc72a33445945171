// Package pattern implements the augmented regular-expression dialect used
// by trigger patterns: ordinary regex extended with typed placeholders
// ({C}, {S}, {S1}, {N}, {N op K}) and cross-placeholder unification.
package pattern

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// reservedPrefix names every synthetic capture group this package injects.
// No user-authored named group may collide with it (users write their own
// names without this prefix by construction, since it's never documented
// to them — it exists only in the compiled output).
const reservedPrefix = "lqv"

// placeholderRE finds every {X}, {X123}, or {N op K} token in a dialect
// pattern. Group 1: the type letter. Group 2: the optional numeric suffix.
// Group 3: the optional comparison operator. Group 4: the optional operand.
var placeholderRE = regexp.MustCompile(`\{\s*([CcSN])(\d*)\s*(?:(<=|>=|=|<|>)\s*(-?\d+))?\s*\}`)

// Predicate is a post-match numeric constraint extracted from an {N op K}
// placeholder.
type Predicate struct {
	group string
	op    string
	k     int64
}

func (p Predicate) eval(raw string) bool {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false
	}
	switch p.op {
	case "=":
		return n == p.k
	case "<":
		return n < p.k
	case ">":
		return n > p.k
	case "<=":
		return n <= p.k
	case ">=":
		return n >= p.k
	default:
		return false
	}
}

// Compiled is a dialect pattern compiled to a Go regexp plus the metadata
// needed to reproduce the spec's projections and unification.
type Compiled struct {
	re *regexp.Regexp

	// namedProjections maps a synthetic group name to its upper-cased
	// dialect key ("S1" -> "S1", lowercase c -> "C").
	namedProjections map[string]string

	// userGroupIndex holds, in left-to-right order, the subexpression
	// index of every capture group the *user* wrote (i.e. not one this
	// package synthesized for a placeholder). positional[i] in a Result
	// refers to userGroupIndex[i-1] (index 0 is always the whole match).
	userGroupIndex []int

	predicates []Predicate

	requiresCharacterName bool
	source                string
}

// Source returns the original dialect pattern text the Compiled was built from.
func (c *Compiled) Source() string { return c.source }

// Compile translates a dialect pattern into a Compiled matcher.
func Compile(dialectPattern string) (*Compiled, error) {
	var b strings.Builder
	namedProjections := make(map[string]string)
	var predicates []Predicate
	requiresCharacterName := false

	last := 0
	count := 0
	matches := placeholderRE.FindAllStringSubmatchIndex(dialectPattern, -1)
	for _, m := range matches {
		b.WriteString(dialectPattern[last:m[0]])

		letter := dialectPattern[m[2]:m[3]]
		suffix := ""
		if m[4] != -1 {
			suffix = dialectPattern[m[4]:m[5]]
		}
		var op, operand string
		if m[6] != -1 {
			op = dialectPattern[m[6]:m[7]]
			operand = dialectPattern[m[8]:m[9]]
		}

		count++
		groupName := fmt.Sprintf("%s%d", reservedPrefix, count)

		var key string
		var groupBody string
		switch letter {
		case "C", "c":
			key = "C"
			groupBody = `[A-Za-z]{3,15}`
			requiresCharacterName = true
		case "S":
			key = "S" + suffix
			groupBody = `\S+(?:[ \t]+\S+)*`
		case "N":
			key = "N" + suffix
			groupBody = `-?\d+`
		default:
			return nil, fmt.Errorf("pattern: unrecognized placeholder type %q", letter)
		}

		namedProjections[groupName] = key
		fmt.Fprintf(&b, "(?P<%s>%s)", groupName, groupBody)

		if op != "" {
			k, err := strconv.ParseInt(operand, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("pattern: invalid numeric operand %q: %w", operand, err)
			}
			predicates = append(predicates, Predicate{group: groupName, op: op, k: k})
		}

		last = m[1]
	}
	b.WriteString(dialectPattern[last:])

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("pattern: compile failed: %w", err)
	}

	names := re.SubexpNames()
	var userGroupIndex []int
	for i := 1; i < len(names); i++ {
		if !strings.HasPrefix(names[i], reservedPrefix) {
			userGroupIndex = append(userGroupIndex, i)
		}
	}

	return &Compiled{
		re:                    re,
		namedProjections:      namedProjections,
		userGroupIndex:        userGroupIndex,
		predicates:            predicates,
		requiresCharacterName: requiresCharacterName,
		source:                dialectPattern,
	}, nil
}

// Result is the raw evaluation output: positional[0] is always the full
// match text; positional[i] for i>0 refers to the i-th user-authored
// capture group (synthetic placeholder groups are never exposed
// positionally). Named holds every placeholder's uppercased key mapped to
// its captured string, plus any named groups the user wrote themselves.
type Result struct {
	Positional []*string
	Named      map[string]string
}

// Evaluate runs the compiled pattern against haystack. characterName is
// compared against any {C}/{c} placeholder's capture; pass "" when no
// active character is known (a pattern containing {C} then never matches).
func (c *Compiled) Evaluate(haystack, characterName string) (*Result, bool) {
	match := c.re.FindStringSubmatchIndex(haystack)
	if match == nil {
		return nil, false
	}
	names := c.re.SubexpNames()

	named := make(map[string]string)
	for i := 1; i < len(names); i++ {
		if match[2*i] == -1 {
			continue
		}
		captured := haystack[match[2*i]:match[2*i+1]]

		key, isPlaceholder := c.namedProjections[names[i]]
		if !isPlaceholder {
			if names[i] == "" {
				continue
			}
			key = strings.ToUpper(names[i])
		}

		if existing, ok := named[key]; ok && existing != captured {
			return nil, false
		}
		named[key] = captured
	}

	for _, p := range c.predicates {
		idx := c.re.SubexpIndex(p.group)
		if idx == -1 || match[2*idx] == -1 {
			return nil, false
		}
		if !p.eval(haystack[match[2*idx]:match[2*idx+1]]) {
			return nil, false
		}
	}

	if c.requiresCharacterName {
		if v, ok := named["C"]; ok && v != characterName {
			return nil, false
		}
	}

	positional := make([]*string, len(c.userGroupIndex)+1)
	full := haystack[match[0]:match[1]]
	positional[0] = &full
	for i, subIdx := range c.userGroupIndex {
		if match[2*subIdx] == -1 {
			continue
		}
		s := haystack[match[2*subIdx]:match[2*subIdx+1]]
		positional[i+1] = &s
	}

	return &Result{Positional: positional, Named: named}, true
}
