package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tinkeringguild/logquest-go/internal/gina"
	"github.com/tinkeringguild/logquest-go/internal/index"
	"github.com/tinkeringguild/logquest-go/internal/triggers"
)

// ConvertGinaCmd runs the foreign-format importer standalone against a
// GINA export (raw XML or a ShareData.xml-bearing ZIP) and prints the
// resulting triggers as JSON, without touching a persisted Triggers.json
// or running the reactor — a debug affordance for inspecting how an
// import will translate before committing to it.
type ConvertGinaCmd struct {
	Path string `arg:"" help:"Path to a GINA .xml or .gtp export." type:"existingfile"`
}

// convertedDocument carries the groups and triggers parts of the shape
// internal/store writes (without its version stamp and tags), so
// convert-gina's output can be inspected the same way a saved Triggers.json
// would be.
type convertedDocument struct {
	Groups   []*triggers.TriggerGroup `json:"groups"`
	Triggers []*triggers.Trigger      `json:"triggers"`
}

func (c *ConvertGinaCmd) Run(g *Globals) error {
	src, err := gina.LoadFromFile(c.Path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", c.Path, err)
	}

	converted, err := gina.Convert(src, time.Now())
	if err != nil {
		return fmt.Errorf("converting %s: %w", c.Path, err)
	}

	idx := index.New()
	if _, err := gina.Import(idx, triggers.TopLevelGroupID, converted); err != nil {
		return fmt.Errorf("importing converted triggers: %w", err)
	}

	doc := convertedDocument{Groups: idx.AllGroups(), Triggers: idx.AllTriggers()}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding converted triggers: %w", err)
	}
	_, err = os.Stdout.Write(append(data, '\n'))
	return err
}
