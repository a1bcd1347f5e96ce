package apply

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/reqsync/internal/changeset"
	"github.com/steveyegge/reqsync/internal/config"
	"github.com/steveyegge/reqsync/internal/model"
	"github.com/steveyegge/reqsync/internal/types"
)

func counterIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%04d", n)
	}
}

func demoConfig() config.TrackerConfig {
	return config.TrackerConfig{Name: "demo", UUID: "mod-1", ExternalID: "demo-1"}
}

func fullSnapshot() *types.TrackerSnapshot {
	return &types.TrackerSnapshot{
		ID:        "demo-1",
		DataTypes: map[string][]string{"Release": {"R1", "R2"}},
		RequirementTypes: map[string]types.RequirementTypeSpec{
			"SYSREQ": {
				LongName: "System Requirement",
				Attributes: map[string]types.AttributeDefinitionSpec{
					"Release":    {Kind: types.KindEnum, MultiValues: []string{}},
					"Capability": {Kind: types.KindString},
					"Priority":   {Kind: types.KindInteger},
				},
			},
		},
		Items: []*types.WorkItemSpec{
			{
				ID: "F-1", LongName: "Functional",
				Children: []*types.WorkItemSpec{{
					ID: "REQ-1", LongName: "First", Text: "Shall navigate", Type: "SYSREQ",
					Attributes: map[string]any{
						"Capability": "navigate",
						"Priority":   3,
						"Release":    []any{"R1", "R2"},
					},
				}},
			},
			{ID: "REQ-2", LongName: "Second", Text: "Shall report", Type: "SYSREQ"},
		},
	}
}

// Planning against a freshly applied plan must be a no-op: apply is the
// inverse direction of calculate.
func TestApplyThenReplanIsEmpty(t *testing.T) {
	m := &model.Model{Modules: []*model.Module{{UUID: "mod-1", LongName: "Demo"}}}
	snap := fullSnapshot()

	actions, err := changeset.Calculate(m, demoConfig(), snap, changeset.Options{})
	require.NoError(t, err)
	require.NotEmpty(t, actions)

	require.NoError(t, Apply(m, actions, Options{NewID: counterIDs()}))

	mod := m.Modules[0]
	require.NotNil(t, mod.TypeFolder)
	assert.Equal(t, types.TypeFolderName, mod.TypeFolder.LongName)
	require.Len(t, mod.Folders, 1)
	require.Len(t, mod.Folders[0].Requirements, 1)
	require.Len(t, mod.Requirements, 1)

	again, err := changeset.Calculate(m, demoConfig(), snap, changeset.Options{})
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestApplyResolvesPromises(t *testing.T) {
	m := &model.Model{Modules: []*model.Module{{UUID: "mod-1", LongName: "Demo"}}}
	snap := fullSnapshot()

	actions, err := changeset.Calculate(m, demoConfig(), snap, changeset.Options{})
	require.NoError(t, err)
	require.NoError(t, Apply(m, actions, Options{NewID: counterIDs()}))

	mod := m.Modules[0]
	req := mod.Folders[0].Requirements[0]
	require.NotNil(t, req.Type)
	assert.Equal(t, "SYSREQ", req.Type.Identifier)

	finder := model.NewFinder(mod)
	releaseDef := finder.AttributeDefinitionByIdentifier("Release SYSREQ", true)
	require.NotNil(t, releaseDef)
	require.NotNil(t, releaseDef.DataType)
	assert.Equal(t, "Release", releaseDef.DataType.LongName)
	assert.True(t, releaseDef.MultiValued)

	stored := req.AttributeByDefinition(releaseDef)
	require.NotNil(t, stored)
	assert.Equal(t, []string{"R1", "R2"}, stored.ValueNames())

	priorityDef := finder.AttributeDefinitionByIdentifier("Priority SYSREQ", false)
	require.NotNil(t, priorityDef)
	priority := req.AttributeByDefinition(priorityDef)
	require.NotNil(t, priority)
	assert.Equal(t, int64(3), priority.Value)
}

func TestApplyRelocation(t *testing.T) {
	m := &model.Model{Modules: []*model.Module{{UUID: "mod-1", LongName: "Demo"}}}
	snap := fullSnapshot()

	actions, err := changeset.Calculate(m, demoConfig(), snap, changeset.Options{})
	require.NoError(t, err)
	require.NoError(t, Apply(m, actions, Options{NewID: counterIDs()}))

	// Move REQ-1 out of the folder to the module root.
	folder := snap.Items[0]
	moved := folder.Children[0]
	folder.Children = nil
	folder.Attributes = map[string]any{"Type": "Folder"}
	snap.Items = append(snap.Items, moved)

	actions, err = changeset.Calculate(m, demoConfig(), snap, changeset.Options{})
	require.NoError(t, err)
	require.NoError(t, Apply(m, actions, Options{NewID: counterIDs()}))

	mod := m.Modules[0]
	assert.Empty(t, mod.Folders[0].Requirements)
	require.Len(t, mod.Requirements, 2)
	var found *model.Requirement
	for _, r := range mod.Requirements {
		if r.Identifier == "REQ-1" {
			found = r
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "mod-1", found.Parent)

	again, err := changeset.Calculate(m, demoConfig(), snap, changeset.Options{})
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestApplyDanglingPromiseFails(t *testing.T) {
	m := &model.Model{Modules: []*model.Module{{UUID: "mod-1", LongName: "Demo"}}}
	action := types.NewAction(types.UUIDRef("mod-1"))
	action.MergeExtend(types.SlotRequirements, types.WorkItemPayload{
		Identifier: "REQ-1",
		LongName:   "First",
		Type:       &types.Reference{Promise: "RequirementType NEVER"},
	})

	err := Apply(m, []*types.ChangeAction{action}, Options{NewID: counterIDs()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RequirementType NEVER")
}
