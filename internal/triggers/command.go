package triggers

import (
	"strings"

	"github.com/tinkeringguild/logquest-go/internal/matcher"
)

// CommandSpec is the shared shape of an approved or unapproved system
// command template (spec §3/§4.8).
type CommandSpec struct {
	Command string
	Params  []*matcher.TemplateString
	Stdin   *matcher.TemplateString
}

// FormatForSecurityCheck builds the canonical string a signature is taken
// over: "<command>\n\n<param-lines>\n\n<stdin>"; an absent stdin leaves the
// last section empty, so the string then ends in "\n\n". Signing operates
// on the raw template text, not on any rendered/match-specific value, since
// approval is a property of the
// trigger's definition, not of any one firing.
func (c *CommandSpec) FormatForSecurityCheck() string {
	var params []string
	for _, p := range c.Params {
		params = append(params, p.Tmpl)
	}
	stdin := ""
	if c.Stdin != nil {
		stdin = c.Stdin.Tmpl
	}
	parts := []string{c.Command, strings.Join(params, "\n")}
	if stdin != "" {
		parts = append(parts, stdin)
	} else {
		parts = append(parts, "")
	}
	return strings.Join(parts, "\n\n")
}

// CommandTemplate is the sum type distinguishing a signature-verified
// template from one that has never been approved.
type CommandTemplate interface {
	isCommandTemplate()
	Spec() *CommandSpec
}

// ApprovedCommand carries a signature verified against a machine identity
// (internal/security). Only an ApprovedCommand may ever be executed.
type ApprovedCommand struct {
	Signature []byte
	CmdSpec   *CommandSpec
}

func (c *ApprovedCommand) isCommandTemplate()  {}
func (c *ApprovedCommand) Spec() *CommandSpec { return c.CmdSpec }

// UnapprovedCommand has never been signed; the effect engine rejects it
// with a security-fail error and never executes it (spec §4.8).
type UnapprovedCommand struct {
	CmdSpec *CommandSpec
}

func (c *UnapprovedCommand) isCommandTemplate()  {}
func (c *UnapprovedCommand) Spec() *CommandSpec { return c.CmdSpec }
