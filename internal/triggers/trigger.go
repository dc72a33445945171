package triggers

import (
	"time"

	"github.com/tinkeringguild/logquest-go/internal/matcher"
)

// Trigger is a filter plus an ordered effect list that fires on each line
// match (spec §3).
type Trigger struct {
	ID        string
	ParentID  *string
	Name      string
	Comment   *string
	Enabled   bool
	Filter    *matcher.Filter
	Effects   []Effect
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChildRef is one entry of a TriggerGroup's ordered children: either a
// reference to a Trigger or to a nested TriggerGroup, never both.
type ChildRef struct {
	TriggerID *string
	GroupID   *string
}

// TriggerGroup is a named container of triggers and subgroups forming a
// forest rooted at the well-known "top_level" group (spec §3).
type TriggerGroup struct {
	ID        string
	ParentID  *string
	Name      string
	Children  []ChildRef
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TopLevelGroupID is the id of the forest's synthetic root group.
const TopLevelGroupID = "top_level"

// TriggerTag labels which triggers participate in matching while active
// (spec §3).
type TriggerTag struct {
	ID       string
	Name     string
	Triggers map[string]struct{}
}

// NewTriggerTag returns an empty tag ready to have triggers added.
func NewTriggerTag(id, name string) *TriggerTag {
	return &TriggerTag{ID: id, Name: name, Triggers: map[string]struct{}{}}
}
