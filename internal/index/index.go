// Package index implements the in-memory trigger forest plus its tag index
// and mutation API (spec §4.4).
package index

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tinkeringguild/logquest-go/internal/matcher"
	"github.com/tinkeringguild/logquest-go/internal/triggers"
)

// Errors returned by mutations, matched with errors.Is. A mutation that
// returns an error leaves the index byte-for-byte unchanged (spec §8
// invariant 5) — every method below validates all of its inputs before
// touching any map.
var (
	ErrTriggerNotFound      = errors.New("index: trigger not found")
	ErrTriggerGroupNotFound = errors.New("index: trigger group not found")
	ErrTriggerTagNotFound   = errors.New("index: trigger tag not found")
	ErrEffectNotFound       = errors.New("index: effect not found")
	ErrIncorrectEffectType  = errors.New("index: effect does not carry a template")
)

// DeltaKind identifies what changed, for downstream notification (the
// introspection API / optional event log).
type DeltaKind string

const (
	DeltaTriggerCreated      DeltaKind = "trigger_created"
	DeltaTriggerUpdated      DeltaKind = "trigger_updated"
	DeltaTriggerGroupCreated DeltaKind = "trigger_group_created"
	DeltaTriggerTagCreated   DeltaKind = "trigger_tag_created"
	DeltaTriggerTagDeleted   DeltaKind = "trigger_tag_deleted"
	DeltaTriggerTagged       DeltaKind = "trigger_tagged"
	DeltaTriggerUntagged     DeltaKind = "trigger_untagged"
)

// Delta describes one atomic change a mutation produced.
type Delta struct {
	Kind DeltaKind
	ID   string
}

// Index is the exclusive in-memory owner of the trigger forest (spec §3
// "the trigger index exclusively owns Trigger and TriggerGroup values").
// All access goes through its methods, which serialize writers behind mu;
// readers (the reactor's per-line dispatch) take the same short lock and get
// back pointers to the stored values, not copies (spec §5 "readers hold a
// short read borrow").
type Index struct {
	mu       sync.Mutex
	triggers map[string]*triggers.Trigger
	groups   map[string]*triggers.TriggerGroup
	tags     map[string]*triggers.TriggerTag
}

// New returns an empty index seeded with the well-known top-level group.
func New() *Index {
	idx := &Index{
		triggers: make(map[string]*triggers.Trigger),
		groups:   make(map[string]*triggers.TriggerGroup),
		tags:     make(map[string]*triggers.TriggerTag),
	}
	idx.groups[triggers.TopLevelGroupID] = &triggers.TriggerGroup{
		ID:        triggers.TopLevelGroupID,
		Name:      "Top Level",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	return idx
}

func clampPosition(position, length int) int {
	if position < 0 {
		return 0
	}
	if position > length {
		return length
	}
	return position
}

func insertAt[T any](slice []T, position int, value T) []T {
	position = clampPosition(position, len(slice))
	slice = append(slice, value)
	copy(slice[position+1:], slice[position:])
	slice[position] = value
	return slice
}

// CreateTrigger adds a new trigger as a child of parentGroupID at
// parentPosition (clamped to the sibling count).
func (idx *Index) CreateTrigger(t *triggers.Trigger, parentGroupID string, parentPosition int) ([]Delta, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	group, ok := idx.groups[parentGroupID]
	if !ok {
		return nil, fmt.Errorf("%w: group %q", ErrTriggerGroupNotFound, parentGroupID)
	}
	if _, exists := idx.triggers[t.ID]; exists {
		return nil, fmt.Errorf("index: trigger %q already exists", t.ID)
	}

	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	idx.triggers[t.ID] = t

	id := t.ID
	group.Children = insertAt(group.Children, parentPosition, triggers.ChildRef{TriggerID: &id})
	group.UpdatedAt = now

	return []Delta{{Kind: DeltaTriggerCreated, ID: t.ID}}, nil
}

// SaveTrigger replaces an existing trigger's filter/effects/metadata wholesale.
func (idx *Index) SaveTrigger(t *triggers.Trigger) ([]Delta, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	existing, ok := idx.triggers[t.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTriggerNotFound, t.ID)
	}

	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now()
	idx.triggers[t.ID] = t

	return []Delta{{Kind: DeltaTriggerUpdated, ID: t.ID}}, nil
}

// SetTriggerName renames a trigger.
func (idx *Index) SetTriggerName(id, name string) ([]Delta, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	t, ok := idx.triggers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTriggerNotFound, id)
	}
	t.Name = name
	t.UpdatedAt = time.Now()
	return []Delta{{Kind: DeltaTriggerUpdated, ID: id}}, nil
}

// findEffect searches a trigger's effect tree (including inside
// Sequence/Parallel) for the effect with the given id.
func findEffect(effects []triggers.Effect, id string) triggers.Effect {
	for _, e := range effects {
		if e.ID() == id {
			return e
		}
		switch v := e.(type) {
		case *triggers.SequenceEffect:
			if found := findEffect(v.Children, id); found != nil {
				return found
			}
		case *triggers.ParallelEffect:
			if found := findEffect(v.Children, id); found != nil {
				return found
			}
		}
	}
	return nil
}

// SetEffectTemplate implements EffectTemplateChanged for every
// template-carrying effect variant (OverlayMessage, CopyToClipboard, Speak,
// PlayAudioFile).
func (idx *Index) SetEffectTemplate(triggerID, effectID, tmpl string) ([]Delta, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	t, ok := idx.triggers[triggerID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTriggerNotFound, triggerID)
	}
	eff := findEffect(t.Effects, effectID)
	if eff == nil {
		return nil, fmt.Errorf("%w: %q", ErrEffectNotFound, effectID)
	}

	rendered := matcher.NewTemplateString(tmpl)
	switch v := eff.(type) {
	case *triggers.OverlayMessageEffect:
		v.Tmpl = rendered
	case *triggers.CopyToClipboardEffect:
		v.Tmpl = rendered
	case *triggers.SpeakEffect:
		v.Tmpl = rendered
	case *triggers.PlayAudioFileEffect:
		v.PathTmpl = rendered
	default:
		return nil, fmt.Errorf("%w: effect %q is %s", ErrIncorrectEffectType, effectID, eff.Kind())
	}

	t.UpdatedAt = time.Now()
	return []Delta{{Kind: DeltaTriggerUpdated, ID: triggerID}}, nil
}

// SetEffectSpeakInterrupt implements EffectSpeakInterrupt.
func (idx *Index) SetEffectSpeakInterrupt(triggerID, effectID string, interrupt bool) ([]Delta, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	t, ok := idx.triggers[triggerID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTriggerNotFound, triggerID)
	}
	eff := findEffect(t.Effects, effectID)
	if eff == nil {
		return nil, fmt.Errorf("%w: %q", ErrEffectNotFound, effectID)
	}
	speak, ok := eff.(*triggers.SpeakEffect)
	if !ok {
		return nil, fmt.Errorf("%w: effect %q is %s", ErrIncorrectEffectType, effectID, eff.Kind())
	}
	speak.Interrupt = interrupt
	t.UpdatedAt = time.Now()
	return []Delta{{Kind: DeltaTriggerUpdated, ID: triggerID}}, nil
}

// CreateTriggerGroup adds a new subgroup under parentGroupID.
func (idx *Index) CreateTriggerGroup(g *triggers.TriggerGroup, parentGroupID string, parentPosition int) ([]Delta, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	parent, ok := idx.groups[parentGroupID]
	if !ok {
		return nil, fmt.Errorf("%w: group %q", ErrTriggerGroupNotFound, parentGroupID)
	}

	now := time.Now()
	g.CreatedAt, g.UpdatedAt = now, now
	idx.groups[g.ID] = g

	id := g.ID
	parent.Children = insertAt(parent.Children, parentPosition, triggers.ChildRef{GroupID: &id})
	parent.UpdatedAt = now

	return []Delta{{Kind: DeltaTriggerGroupCreated, ID: g.ID}}, nil
}

// CreateTriggerTag adds a new, empty tag.
func (idx *Index) CreateTriggerTag(id, name string) (*triggers.TriggerTag, []Delta, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.tags[id]; exists {
		return nil, nil, fmt.Errorf("index: trigger tag %q already exists", id)
	}
	tag := triggers.NewTriggerTag(id, name)
	idx.tags[id] = tag
	return tag, []Delta{{Kind: DeltaTriggerTagCreated, ID: id}}, nil
}

// DeleteTriggerTag removes a tag entirely.
func (idx *Index) DeleteTriggerTag(id string) ([]Delta, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.tags[id]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrTriggerTagNotFound, id)
	}
	delete(idx.tags, id)
	return []Delta{{Kind: DeltaTriggerTagDeleted, ID: id}}, nil
}

// TagTrigger adds triggerID to tagID's membership set.
func (idx *Index) TagTrigger(tagID, triggerID string) ([]Delta, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tag, ok := idx.tags[tagID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTriggerTagNotFound, tagID)
	}
	if _, ok := idx.triggers[triggerID]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrTriggerNotFound, triggerID)
	}
	tag.Triggers[triggerID] = struct{}{}
	return []Delta{{Kind: DeltaTriggerTagged, ID: triggerID}}, nil
}

// UntagTrigger removes triggerID from tagID's membership set.
func (idx *Index) UntagTrigger(tagID, triggerID string) ([]Delta, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tag, ok := idx.tags[tagID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTriggerTagNotFound, tagID)
	}
	delete(tag.Triggers, triggerID)
	return []Delta{{Kind: DeltaTriggerUntagged, ID: triggerID}}, nil
}

// DistinctTriggersTaggedByAnyOf returns the union of triggers belonging to
// any of the given tags.
func (idx *Index) DistinctTriggersTaggedByAnyOf(tagIDs []string) []*triggers.Trigger {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	seen := make(map[string]struct{})
	var result []*triggers.Trigger
	for _, tagID := range tagIDs {
		tag, ok := idx.tags[tagID]
		if !ok {
			continue
		}
		for triggerID := range tag.Triggers {
			if _, dup := seen[triggerID]; dup {
				continue
			}
			if t, ok := idx.triggers[triggerID]; ok {
				seen[triggerID] = struct{}{}
				result = append(result, t)
			}
		}
	}
	return result
}

// Group returns a trigger group by id, or nil.
func (idx *Index) Group(id string) *triggers.TriggerGroup {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.groups[id]
}

// TagNamesContainingTrigger returns the names of every tag that includes
// triggerID. An empty result means the trigger is untagged and therefore
// always reachable during reactor dispatch (spec §4.5); the reactor
// compares these names against its runtime active-tag set (as mutated by
// the AddTag/RemoveTag effects) to decide reachability.
func (idx *Index) TagNamesContainingTrigger(triggerID string) []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var names []string
	for _, tag := range idx.tags {
		if _, ok := tag.Triggers[triggerID]; ok {
			names = append(names, tag.Name)
		}
	}
	return names
}

// Trigger returns a trigger by id, or nil.
func (idx *Index) Trigger(id string) *triggers.Trigger {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.triggers[id]
}

// AllTriggers returns every trigger in the index, order unspecified.
func (idx *Index) AllTriggers() []*triggers.Trigger {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	out := make([]*triggers.Trigger, 0, len(idx.triggers))
	for _, t := range idx.triggers {
		out = append(out, t)
	}
	return out
}

// Count returns the number of triggers currently indexed (for metrics).
func (idx *Index) Count() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.triggers)
}

// AllGroups returns every trigger group in the index, order unspecified.
func (idx *Index) AllGroups() []*triggers.TriggerGroup {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	out := make([]*triggers.TriggerGroup, 0, len(idx.groups))
	for _, g := range idx.groups {
		out = append(out, g)
	}
	return out
}

// AllTags returns every trigger tag in the index, order unspecified.
func (idx *Index) AllTags() []*triggers.TriggerTag {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	out := make([]*triggers.TriggerTag, 0, len(idx.tags))
	for _, t := range idx.tags {
		out = append(out, t)
	}
	return out
}

// FromParts rebuilds an Index directly from a previously-saved forest
// (internal/store's load path), bypassing the position-based mutation API
// since the caller already holds a consistent graph to restore verbatim.
// The top_level group is required to be present in groups, matching what
// New and every subsequent mutation maintain.
func FromParts(groups []*triggers.TriggerGroup, trigs []*triggers.Trigger, tags []*triggers.TriggerTag) (*Index, error) {
	idx := &Index{
		triggers: make(map[string]*triggers.Trigger, len(trigs)),
		groups:   make(map[string]*triggers.TriggerGroup, len(groups)),
		tags:     make(map[string]*triggers.TriggerTag, len(tags)),
	}
	for _, g := range groups {
		idx.groups[g.ID] = g
	}
	if _, ok := idx.groups[triggers.TopLevelGroupID]; !ok {
		return nil, fmt.Errorf("index: snapshot is missing the %q group", triggers.TopLevelGroupID)
	}
	for _, t := range trigs {
		idx.triggers[t.ID] = t
	}
	for _, tag := range tags {
		idx.tags[tag.ID] = tag
	}
	return idx, nil
}

// ApproveCommand re-signs an unapproved RunSystemCommand effect's template
// with this machine's key, replacing it with an ApprovedCommand (spec
// §4.8 — the user-intervention path after a signature check fails,
// typically because the Triggers file was authored on a different
// machine). sign is normally (*security.Signer).Sign, injected to avoid this
// package depending on machine-identity concerns directly.
func (idx *Index) ApproveCommand(triggerID, effectID string, sign func(string) string) ([]Delta, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	t, ok := idx.triggers[triggerID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTriggerNotFound, triggerID)
	}
	eff := findEffect(t.Effects, effectID)
	if eff == nil {
		return nil, fmt.Errorf("%w: %q", ErrEffectNotFound, effectID)
	}
	cmdEffect, ok := eff.(*triggers.RunSystemCommandEffect)
	if !ok {
		return nil, fmt.Errorf("%w: effect %q is %s", ErrIncorrectEffectType, effectID, eff.Kind())
	}

	spec := cmdEffect.Command.Spec()
	signature := sign(spec.FormatForSecurityCheck())
	cmdEffect.Command = &triggers.ApprovedCommand{Signature: []byte(signature), CmdSpec: spec}

	t.UpdatedAt = time.Now()
	return []Delta{{Kind: DeltaTriggerUpdated, ID: triggerID}}, nil
}
