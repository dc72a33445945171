package index

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinkeringguild/logquest-go/internal/matcher"
	"github.com/tinkeringguild/logquest-go/internal/triggers"
)

func newTestTrigger(id string) *triggers.Trigger {
	return &triggers.Trigger{
		ID:      id,
		Name:    id,
		Enabled: true,
		Filter:  &matcher.Filter{},
	}
}

func TestCreateTriggerClampsOutOfRangePosition(t *testing.T) {
	idx := New()

	_, err := idx.CreateTrigger(newTestTrigger("t1"), triggers.TopLevelGroupID, 0)
	require.NoError(t, err)
	_, err = idx.CreateTrigger(newTestTrigger("t2"), triggers.TopLevelGroupID, 9999)
	require.NoError(t, err)

	top := idx.groups[triggers.TopLevelGroupID]
	require.Len(t, top.Children, 2)
	require.Equal(t, "t1", *top.Children[0].TriggerID)
	require.Equal(t, "t2", *top.Children[1].TriggerID)
}

func TestCreateTriggerUnknownGroupLeavesIndexUnchanged(t *testing.T) {
	idx := New()
	countBefore := idx.Count()

	_, err := idx.CreateTrigger(newTestTrigger("t1"), "no-such-group", 0)
	require.ErrorIs(t, err, ErrTriggerGroupNotFound)
	require.Equal(t, countBefore, idx.Count())
}

func TestSetTriggerNameNotFound(t *testing.T) {
	idx := New()
	_, err := idx.SetTriggerName("missing", "new name")
	require.ErrorIs(t, err, ErrTriggerNotFound)
}

func TestSetEffectTemplateUpdatesOverlayMessage(t *testing.T) {
	idx := New()
	trig := newTestTrigger("t1")
	trig.Effects = []triggers.Effect{
		triggers.NewOverlayMessage("e1", matcher.NewTemplateString("old")),
	}
	_, err := idx.CreateTrigger(trig, triggers.TopLevelGroupID, 0)
	require.NoError(t, err)

	_, err = idx.SetEffectTemplate("t1", "e1", "new ${1}")
	require.NoError(t, err)

	eff := trig.Effects[0].(*triggers.OverlayMessageEffect)
	require.Equal(t, "new ${1}", eff.Tmpl.Tmpl)
}

func TestSetEffectTemplateFindsNestedEffectInsideSequence(t *testing.T) {
	idx := New()
	inner := triggers.NewCopyToClipboard("inner", matcher.NewTemplateString("old"))
	trig := newTestTrigger("t1")
	trig.Effects = []triggers.Effect{
		triggers.NewSequence("seq", []triggers.Effect{inner}),
	}
	_, err := idx.CreateTrigger(trig, triggers.TopLevelGroupID, 0)
	require.NoError(t, err)

	_, err = idx.SetEffectTemplate("t1", "inner", "updated")
	require.NoError(t, err)
	require.Equal(t, "updated", inner.Tmpl.Tmpl)
}

func TestSetEffectTemplateIncorrectEffectType(t *testing.T) {
	idx := New()
	trig := newTestTrigger("t1")
	trig.Effects = []triggers.Effect{triggers.NewDoNothing("e1")}
	_, err := idx.CreateTrigger(trig, triggers.TopLevelGroupID, 0)
	require.NoError(t, err)

	_, err = idx.SetEffectTemplate("t1", "e1", "x")
	require.ErrorIs(t, err, ErrIncorrectEffectType)
}

func TestTagTriggerAndDistinctTriggersTaggedByAnyOf(t *testing.T) {
	idx := New()
	require.NoError(t, must2(idx.CreateTrigger(newTestTrigger("t1"), triggers.TopLevelGroupID, 0)))
	require.NoError(t, must2(idx.CreateTrigger(newTestTrigger("t2"), triggers.TopLevelGroupID, 0)))

	_, _, err := idx.CreateTriggerTag("tag-a", "A")
	require.NoError(t, err)
	_, _, err = idx.CreateTriggerTag("tag-b", "B")
	require.NoError(t, err)

	_, err = idx.TagTrigger("tag-a", "t1")
	require.NoError(t, err)
	_, err = idx.TagTrigger("tag-b", "t2")
	require.NoError(t, err)
	_, err = idx.TagTrigger("tag-b", "t1")
	require.NoError(t, err)

	result := idx.DistinctTriggersTaggedByAnyOf([]string{"tag-a", "tag-b"})
	require.Len(t, result, 2)

	_, err = idx.UntagTrigger("tag-b", "t1")
	require.NoError(t, err)
	result = idx.DistinctTriggersTaggedByAnyOf([]string{"tag-b"})
	require.Len(t, result, 1)
	require.Equal(t, "t2", result[0].ID)
}

func TestTagNamesContainingTriggerEmptyForUntaggedTrigger(t *testing.T) {
	idx := New()
	require.NoError(t, must2(idx.CreateTrigger(newTestTrigger("t1"), triggers.TopLevelGroupID, 0)))
	require.Empty(t, idx.TagNamesContainingTrigger("t1"))
}

func TestTagNamesContainingTriggerReturnsOwningTagNames(t *testing.T) {
	idx := New()
	require.NoError(t, must2(idx.CreateTrigger(newTestTrigger("t1"), triggers.TopLevelGroupID, 0)))
	_, _, err := idx.CreateTriggerTag("tag-a", "Raiding")
	require.NoError(t, err)
	_, err = idx.TagTrigger("tag-a", "t1")
	require.NoError(t, err)

	require.Equal(t, []string{"Raiding"}, idx.TagNamesContainingTrigger("t1"))
}

func TestFromPartsRequiresTopLevelGroup(t *testing.T) {
	_, err := FromParts(nil, nil, nil)
	require.Error(t, err)
}

func TestFromPartsRoundTripsForestShape(t *testing.T) {
	idx := New()
	_, err := idx.CreateTrigger(newTestTrigger("t1"), triggers.TopLevelGroupID, 0)
	require.NoError(t, err)
	_, _, err = idx.CreateTriggerTag("tag-a", "Raiding")
	require.NoError(t, err)
	_, err = idx.TagTrigger("tag-a", "t1")
	require.NoError(t, err)

	restored, err := FromParts(idx.AllGroups(), idx.AllTriggers(), idx.AllTags())
	require.NoError(t, err)
	require.Equal(t, 1, restored.Count())
	require.Equal(t, []string{"Raiding"}, restored.TagNamesContainingTrigger("t1"))
}

func TestApproveCommandReplacesUnapprovedWithApproved(t *testing.T) {
	idx := New()
	cmd := &triggers.UnapprovedCommand{CmdSpec: &triggers.CommandSpec{Command: "echo"}}
	trig := newTestTrigger("t1")
	trig.Effects = []triggers.Effect{triggers.NewRunSystemCommand("e1", cmd, false)}
	_, err := idx.CreateTrigger(trig, triggers.TopLevelGroupID, 0)
	require.NoError(t, err)

	_, err = idx.ApproveCommand("t1", "e1", func(data string) string { return "sig-for-" + data })
	require.NoError(t, err)

	eff := trig.Effects[0].(*triggers.RunSystemCommandEffect)
	approved, ok := eff.Command.(*triggers.ApprovedCommand)
	require.True(t, ok)
	require.Equal(t, "sig-for-echo\n\n\n\n", string(approved.Signature))
}

func TestDeleteTriggerTagNotFound(t *testing.T) {
	idx := New()
	_, err := idx.DeleteTriggerTag("missing")
	require.True(t, errors.Is(err, ErrTriggerTagNotFound))
}

func must2(deltas []Delta, err error) error {
	_ = deltas
	return err
}
