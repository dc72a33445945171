// Command logquest runs the EverQuest log reactor as a standalone service:
// it tails a directory of eqlog files, matches lines against a persisted
// trigger forest, and fires their effects, exposing a read-only HTTP
// introspection surface alongside it. See internal/cli for the available
// subcommands.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/tinkeringguild/logquest-go/internal/cli"
	"github.com/tinkeringguild/logquest-go/internal/shutdown"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	var c cli.CLI
	kctx := kong.Parse(&c,
		kong.Name("logquest"),
		kong.Description("EverQuest log-triggered reactor and trigger engine."),
		kong.UsageOnError(),
	)

	coordinator := shutdown.New()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("signal received, shutting down")
		coordinator.Shutdown()
	}()

	globals := &cli.Globals{Log: log, Shutdown: coordinator}

	if err := kctx.Run(globals); err != nil {
		log.Error().Err(err).Msg("logquest exited with error")
		os.Exit(1)
	}
}
