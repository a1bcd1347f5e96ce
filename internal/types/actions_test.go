package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeModifyDeepMerge(t *testing.T) {
	a := NewAction(UUIDRef("r-1"))
	a.MergeModify("long_name", "first")
	a.MergeModify("attributes", map[string]any{"Release": []string{"R1"}})
	a.MergeModify("attributes", map[string]any{"Capability": "navigate"})
	a.MergeModify("long_name", "second")

	assert.Equal(t, "second", a.Modify["long_name"])
	assert.Equal(t, map[string]any{
		"Release":    []string{"R1"},
		"Capability": "navigate",
	}, a.Modify["attributes"])
}

func TestMergeFrom(t *testing.T) {
	a := NewAction(UUIDRef("r-1"))
	a.MergeExtend(SlotRequirements, UUIDRef("r-2"))
	a.MergeDelete(SlotFolders, UUIDRef("f-1"))

	b := NewAction(UUIDRef("r-1"))
	b.MergeExtend(SlotRequirements, UUIDRef("r-3"))
	b.MergeModify("text", "updated")
	b.MergeDelete(SlotFolders, UUIDRef("f-2"))

	a.MergeFrom(b)
	assert.Equal(t, []Element{UUIDRef("r-2"), UUIDRef("r-3")}, a.Extend[SlotRequirements])
	assert.Equal(t, "updated", a.Modify["text"])
	assert.Equal(t, []Reference{UUIDRef("f-1"), UUIDRef("f-2")}, a.Delete[SlotFolders])
}

func TestRemoveDeletePrunesEmptyFragments(t *testing.T) {
	a := NewAction(UUIDRef("f-1"))
	a.MergeDelete(SlotRequirements, UUIDRef("r-1"), UUIDRef("r-2"))

	assert.True(t, a.RemoveDelete(SlotRequirements, "r-1"))
	assert.Equal(t, []Reference{UUIDRef("r-2")}, a.Delete[SlotRequirements])

	assert.False(t, a.RemoveDelete(SlotRequirements, "r-1"))
	assert.True(t, a.RemoveDelete(SlotRequirements, "r-2"))
	assert.Nil(t, a.Delete)
	assert.True(t, a.Void())
}

func TestPruneVoid(t *testing.T) {
	kept := NewAction(UUIDRef("r-1"))
	kept.MergeModify("long_name", "x")
	void := NewAction(UUIDRef("r-2"))

	actions := PruneVoid([]*ChangeAction{void, kept, NewAction(UUIDRef("r-3"))})
	require.Len(t, actions, 1)
	assert.Equal(t, kept, actions[0])
}

func TestReferenceHelpers(t *testing.T) {
	assert.True(t, PromiseRef("RequirementType SYSREQ").IsPromise())
	assert.False(t, UUIDRef("r-1").IsPromise())
	assert.True(t, Reference{}.IsZero())
	assert.False(t, UUIDRef("r-1").IsZero())
}
