package cli

import (
	"fmt"

	"github.com/tinkeringguild/logquest-go/internal/matcher"
)

// CheckPatternCmd compiles a dialect pattern standalone — without a
// trigger, a log file, or the reactor — and reports whether it compiled
// and, if a sample line is given, what it captures. A debug affordance for
// authoring pattern rules (spec §3's placeholder/unification dialect).
type CheckPatternCmd struct {
	Pattern   string `arg:"" help:"Dialect pattern text, e.g. \"{C} has been slain by {S}\"."`
	Line      string `optional:"" help:"A sample log line to test the pattern against."`
	Character string `default:"" help:"Character name substituted for {C} when testing --line."`
}

func (c *CheckPatternCmd) Run(g *Globals) error {
	m, err := matcher.NewDialectMatcher("check-pattern", c.Pattern)
	if err != nil {
		return fmt.Errorf("pattern did not compile: %w", err)
	}
	fmt.Printf("compiled OK, regex: %s\n", m.Source())

	if c.Line == "" {
		return nil
	}

	mc, ok := m.Check(c.Line, c.Character)
	if !ok {
		fmt.Println("no match")
		return nil
	}

	fmt.Println("match:")
	for i, v := range mc.Positional {
		if v == nil {
			continue
		}
		fmt.Printf("  [%d] = %q\n", i, *v)
	}
	for name, v := range mc.Named {
		fmt.Printf("  %s = %q\n", name, v)
	}
	return nil
}
