// Package cli implements cmd/logquest's subcommands with alecthomas/kong:
// start (run the reactor), tail (print parsed log lines), convert-gina
// (run the foreign-format importer standalone), and check-pattern (compile
// a dialect pattern standalone). cmd/logquest itself stays a thin
// collaborator — flag parsing, the root logger, and the shutdown
// coordinator only — mirroring spec.md §1's framing of CLI argument
// parsing as an out-of-scope collaborator the core calls into.
package cli

import (
	"github.com/rs/zerolog"

	"github.com/tinkeringguild/logquest-go/internal/shutdown"
)

// CLI is the root command structure.
type CLI struct {
	Start        StartCmd        `cmd:"" default:"withargs" help:"Run the reactor against a logs directory."`
	Tail         TailCmd         `cmd:"" help:"Print parsed log lines from a file, following it live."`
	ConvertGina  ConvertGinaCmd  `cmd:"" name:"convert-gina" help:"Convert a GINA export and print the resulting triggers as JSON."`
	CheckPattern CheckPatternCmd `cmd:"" name:"check-pattern" help:"Compile a dialect pattern and report its matcher projections."`
}

// Globals holds state shared by every subcommand.
type Globals struct {
	Log      zerolog.Logger
	Shutdown *shutdown.Coordinator
}
