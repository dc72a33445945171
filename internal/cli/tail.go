package cli

import (
	"fmt"
	"path/filepath"

	"github.com/tinkeringguild/logquest-go/internal/logs"
)

// TailCmd prints every parsed log line from a single eqlog file from the
// start, then follows it live — a debug affordance for inspecting pattern
// rules against real log output without running the full reactor.
type TailCmd struct {
	Path string `arg:"" help:"Path to an eqlog_<character>_<server>.txt file." type:"existingfile"`
}

func (c *TailCmd) Run(g *Globals) error {
	ctx := g.Shutdown.Context()

	watcher, err := logs.NewWatcher(filepath.Dir(c.Path), g.Log)
	if err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(c.Path), err)
	}
	events, unsubscribe := watcher.Subscribe()
	defer unsubscribe()
	watcher.Start(ctx)

	stream := logs.StartLineStream(ctx, logs.Cursor{Path: c.Path, Position: 0}, events)
	defer stream.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-stream.Lines():
			if !ok {
				return nil
			}
			fmt.Println(line.Content)
		}
	}
}
