package gina

import (
	"github.com/tinkeringguild/logquest-go/internal/index"
)

// Import inserts every ConvertedGroup (and its nested subgroups/triggers)
// as a new child of parentGroupID, appended after any existing children.
// It returns every Delta the insertions produced, in insertion order.
func Import(idx *index.Index, parentGroupID string, groups []*ConvertedGroup) ([]index.Delta, error) {
	var deltas []index.Delta
	for _, g := range groups {
		produced, err := importGroup(idx, parentGroupID, g)
		if err != nil {
			return deltas, err
		}
		deltas = append(deltas, produced...)
	}
	return deltas, nil
}

// appendPosition is large enough that CreateTriggerGroup/CreateTrigger
// always clamp it to "insert at the end," regardless of current sibling
// count — the import order (subgroups first, then triggers) is what
// establishes the final ordering, not the exact number passed here.
const appendPosition = 1 << 30

func importGroup(idx *index.Index, parentGroupID string, g *ConvertedGroup) ([]index.Delta, error) {
	var deltas []index.Delta

	created, err := idx.CreateTriggerGroup(g.Group, parentGroupID, appendPosition)
	if err != nil {
		return nil, err
	}
	deltas = append(deltas, created...)

	for _, sub := range g.Subgroups {
		produced, err := importGroup(idx, g.Group.ID, sub)
		if err != nil {
			return deltas, err
		}
		deltas = append(deltas, produced...)
	}

	for _, trig := range g.Triggers {
		produced, err := idx.CreateTrigger(trig, g.Group.ID, appendPosition)
		if err != nil {
			return deltas, err
		}
		deltas = append(deltas, produced...)
	}

	return deltas, nil
}
