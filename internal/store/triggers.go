package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tinkeringguild/logquest-go/internal/index"
	"github.com/tinkeringguild/logquest-go/internal/triggers"
)

// CommandVerifier checks a RunSystemCommand template's signature against
// this machine's identity. internal/security.Signer satisfies this.
type CommandVerifier interface {
	Verify(data, signature string) bool
}

// CurrentTriggersVersion is stamped into every Triggers.json this package
// writes. A future format change bumps this and LoadTriggers gains a
// migration branch; there is only one version so far.
const CurrentTriggersVersion = 1

type triggersDocument struct {
	Version  int                      `json:"version"`
	Groups   []*triggers.TriggerGroup `json:"groups"`
	Triggers []*triggers.Trigger      `json:"triggers"`
	Tags     []*triggers.TriggerTag   `json:"tags"`
}

// UnapprovedCommandRef names one RunSystemCommand effect that LoadTriggers
// downgraded to UnapprovedCommand because its signature didn't verify
// against this machine's identity (spec §4.8 — the Triggers file was
// authored, or last approved, elsewhere).
type UnapprovedCommandRef struct {
	TriggerID string
	EffectID  string
}

// LoadTriggers reads Triggers.json from path and rebuilds an Index from
// it. A missing file yields a fresh, empty Index. Every RunSystemCommand
// effect carrying an ApprovedCommand has its signature re-checked against
// this machine's identity; a mismatch (moved/shared file) downgrades it to
// UnapprovedCommand and is reported back so the caller can prompt for
// re-approval.
func LoadTriggers(path string, verifier CommandVerifier) (*index.Index, []UnapprovedCommandRef, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return index.New(), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var doc triggersDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("store: failed to parse %s: %w", path, err)
	}
	if doc.Version != CurrentTriggersVersion {
		return nil, nil, fmt.Errorf("store: %s has unsupported version %d", path, doc.Version)
	}

	var unapproved []UnapprovedCommandRef
	for _, t := range doc.Triggers {
		downgradeUnverifiedCommands(t.ID, t.Effects, verifier, &unapproved)
	}

	idx, err := index.FromParts(doc.Groups, doc.Triggers, doc.Tags)
	if err != nil {
		return nil, nil, err
	}
	return idx, unapproved, nil
}

func downgradeUnverifiedCommands(triggerID string, effects []triggers.Effect, verifier CommandVerifier, out *[]UnapprovedCommandRef) {
	for _, eff := range effects {
		switch v := eff.(type) {
		case *triggers.RunSystemCommandEffect:
			approved, ok := v.Command.(*triggers.ApprovedCommand)
			if !ok {
				continue
			}
			spec := approved.CmdSpec
			if verifier.Verify(spec.FormatForSecurityCheck(), string(approved.Signature)) {
				continue
			}
			v.Command = &triggers.UnapprovedCommand{CmdSpec: spec}
			*out = append(*out, UnapprovedCommandRef{TriggerID: triggerID, EffectID: v.ID()})
		case *triggers.StartTimerEffect:
			if v.Timer != nil {
				downgradeUnverifiedCommands(triggerID, v.Timer.Effects, verifier, out)
			}
		case *triggers.SequenceEffect:
			downgradeUnverifiedCommands(triggerID, v.Children, verifier, out)
		case *triggers.ParallelEffect:
			downgradeUnverifiedCommands(triggerID, v.Children, verifier, out)
		}
	}
}

// SaveTriggers writes idx to path as indented, version-stamped JSON.
func SaveTriggers(path string, idx *index.Index) error {
	doc := triggersDocument{
		Version:  CurrentTriggersVersion,
		Groups:   idx.AllGroups(),
		Triggers: idx.AllTriggers(),
		Tags:     idx.AllTags(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
