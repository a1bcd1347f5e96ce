package changeset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/reqsync/internal/config"
	"github.com/steveyegge/reqsync/internal/model"
	"github.com/steveyegge/reqsync/internal/types"
)

func demoConfig() config.TrackerConfig {
	return config.TrackerConfig{Name: "demo", UUID: "mod-1", ExternalID: "demo-1"}
}

func demoSnapshot() *types.TrackerSnapshot {
	return &types.TrackerSnapshot{
		ID:        "demo-1",
		DataTypes: map[string][]string{"Release": {"R1", "R2"}},
		RequirementTypes: map[string]types.RequirementTypeSpec{
			"SYSREQ": {
				LongName: "System Requirement",
				Attributes: map[string]types.AttributeDefinitionSpec{
					"Release":    {Kind: types.KindEnum},
					"Capability": {Kind: types.KindString},
				},
			},
		},
	}
}

// demoModel builds a live module whose type system matches
// demoSnapshot exactly.
func demoModel() *model.Model {
	r1 := &model.EnumValue{UUID: "v-r1", LongName: "R1"}
	r2 := &model.EnumValue{UUID: "v-r2", LongName: "R2"}
	release := &model.DataTypeDefinition{
		UUID: "dt-1", LongName: "Release", Values: []*model.EnumValue{r1, r2},
	}
	releaseDef := &model.AttributeDefinition{
		UUID: "ad-rel", Identifier: "Release SYSREQ", LongName: "Release",
		Kind: types.KindEnum, DataType: release,
	}
	capabilityDef := &model.AttributeDefinition{
		UUID: "ad-cap", Identifier: "Capability SYSREQ", LongName: "Capability",
		Kind: types.KindString,
	}
	sysreq := &model.RequirementType{
		UUID: "rt-1", Identifier: "SYSREQ", LongName: "System Requirement",
		AttributeDefinitions: []*model.AttributeDefinition{releaseDef, capabilityDef},
	}
	return &model.Model{Modules: []*model.Module{{
		UUID:     "mod-1",
		LongName: "Demo",
		TypeFolder: &model.RequirementTypeFolder{
			UUID: "tf-1", Identifier: types.TypeFolderCacheKey, LongName: types.TypeFolderName,
			DataTypeDefinitions: []*model.DataTypeDefinition{release},
			RequirementTypes:    []*model.RequirementType{sysreq},
		},
	}}}
}

func liveRequirement(m *model.Model) *model.Requirement {
	mod := m.Modules[0]
	sysreq := mod.TypeFolder.RequirementTypes[0]
	releaseDef := sysreq.AttributeDefinitions[0]
	capabilityDef := sysreq.AttributeDefinitions[1]
	r1 := mod.TypeFolder.DataTypeDefinitions[0].Values[0]

	req := &model.Requirement{
		UUID: "r-1", Identifier: "REQ-1", LongName: "First", Text: "Shall navigate",
		Type:   sysreq,
		Parent: mod.UUID,
		Attributes: []*model.AttributeValue{
			{UUID: "av-cap", Definition: capabilityDef, Value: "navigate"},
			{UUID: "av-rel", Definition: releaseDef, Values: []*model.EnumValue{r1}},
		},
	}
	mod.Requirements = append(mod.Requirements, req)
	return req
}

func TestNewTrackerChangeConfigErrors(t *testing.T) {
	m := demoModel()
	snap := demoSnapshot()

	_, err := NewTrackerChange(m, config.TrackerConfig{Name: "demo"}, snap, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTrackerConfig))

	_, err = NewTrackerChange(m, config.TrackerConfig{UUID: "nope"}, snap, Options{})
	require.Error(t, err)
	var missing *MissingModuleError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "nope", missing.UUID)
}

func TestCalculateCreatesEverythingFromEmptyModule(t *testing.T) {
	m := &model.Model{Modules: []*model.Module{{UUID: "mod-1", LongName: "Demo"}}}
	snap := demoSnapshot()
	snap.Items = []*types.WorkItemSpec{{
		ID: "REQ-1", LongName: "First", Text: "Shall navigate", Type: "SYSREQ",
		Attributes: map[string]any{
			"Capability": "navigate",
			"Release":    []any{"R1"},
		},
	}}

	actions, err := Calculate(m, demoConfig(), snap, Options{})
	require.NoError(t, err)

	// Bootstrapping an empty module yields one top-level action that
	// carries the types folder and the item tree together.
	require.Len(t, actions, 1)
	base := actions[0]
	assert.Equal(t, types.UUIDRef("mod-1"), base.Parent)
	require.Len(t, base.Extend[types.SlotTypeFolders], 1)
	tf, ok := base.Extend[types.SlotTypeFolders][0].(types.TypeFolderPayload)
	require.True(t, ok)
	assert.Equal(t, types.TypeFolderName, tf.LongName)
	assert.Equal(t, types.TypeFolderCacheKey, tf.Identifier)
	require.Len(t, tf.DataTypeDefinitions, 1)
	assert.Equal(t, "EnumerationDataTypeDefinition Release", tf.DataTypeDefinitions[0].PromiseID)
	require.Len(t, tf.DataTypeDefinitions[0].Values, 2)
	assert.Equal(t, "EnumValue Release R1", tf.DataTypeDefinitions[0].Values[0].PromiseID)
	require.Len(t, tf.RequirementTypes, 1)
	sysreq := tf.RequirementTypes[0]
	assert.Equal(t, "RequirementType SYSREQ", sysreq.PromiseID)
	require.Len(t, sysreq.AttributeDefinitions, 2)

	// The item creation promises the type and attribute definitions.
	require.Len(t, base.Extend[types.SlotRequirements], 1)
	item, ok := base.Extend[types.SlotRequirements][0].(types.WorkItemPayload)
	require.True(t, ok)
	assert.Equal(t, "REQ-1", item.Identifier)
	require.NotNil(t, item.Type)
	assert.Equal(t, "RequirementType SYSREQ", item.Type.Promise)

	require.Len(t, item.Attributes, 2)
	capability, release := item.Attributes[0], item.Attributes[1]
	assert.Equal(t, "AttributeDefinition Capability SYSREQ", capability.Definition.Promise)
	assert.Equal(t, "navigate", capability.Value)
	assert.Equal(t, "AttributeDefinitionEnumeration Release SYSREQ", release.Definition.Promise)
	require.Len(t, release.Values, 1)
	assert.Equal(t, "EnumValue Release R1", release.Values[0].Promise)
}

func TestCalculateUpToDateIsEmpty(t *testing.T) {
	m := demoModel()
	liveRequirement(m)
	snap := demoSnapshot()
	snap.Items = []*types.WorkItemSpec{{
		ID: "REQ-1", LongName: "First", Text: "Shall navigate", Type: "SYSREQ",
		Attributes: map[string]any{
			"Capability": "navigate",
			"Release":    []any{"R1"},
		},
	}}

	actions, err := Calculate(m, demoConfig(), snap, Options{})
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestCalculateLongNameModifyOnly(t *testing.T) {
	m := demoModel()
	liveRequirement(m)
	snap := demoSnapshot()
	snap.Items = []*types.WorkItemSpec{{
		ID: "REQ-1", LongName: "Renamed", Text: "Shall navigate", Type: "SYSREQ",
		Attributes: map[string]any{
			"Capability": "navigate",
			"Release":    []any{"R1"},
		},
	}}

	actions, err := Calculate(m, demoConfig(), snap, Options{})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	action := actions[0]
	assert.Equal(t, types.UUIDRef("r-1"), action.Parent)
	assert.Equal(t, map[string]any{"long_name": "Renamed"}, action.Modify)
	assert.Empty(t, action.Extend)
	assert.Empty(t, action.Delete)
}

// addLiveFolder puts an untyped folder F-1 with one requirement REQ-2
// under the module root.
func addLiveFolder(m *model.Model) *model.Folder {
	mod := m.Modules[0]
	folder := &model.Folder{Requirement: model.Requirement{
		UUID: "f-1", Identifier: "F-1", LongName: "Folder 1", Parent: mod.UUID,
	}}
	folder.Requirements = []*model.Requirement{{
		UUID: "r-2", Identifier: "REQ-2", LongName: "Second", Parent: folder.UUID,
	}}
	mod.Folders = append(mod.Folders, folder)
	return folder
}

func TestCalculateFolderChildDeletion(t *testing.T) {
	m := demoModel()
	addLiveFolder(m)
	snap := demoSnapshot()
	snap.Items = []*types.WorkItemSpec{{
		ID: "F-1", LongName: "Folder 1",
		Attributes: map[string]any{"Type": "Folder"},
	}}

	actions, err := Calculate(m, demoConfig(), snap, Options{})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	action := actions[0]
	assert.Equal(t, types.UUIDRef("f-1"), action.Parent)
	assert.Equal(t, []types.Reference{types.UUIDRef("r-2")}, action.Delete[types.SlotRequirements])
	assert.Empty(t, action.Extend)
	assert.Empty(t, action.Modify)
}

func TestCalculateRelocationRetractsDeletion(t *testing.T) {
	folderFirst := []*types.WorkItemSpec{
		{ID: "F-1", LongName: "Folder 1", Attributes: map[string]any{"Type": "Folder"}},
		{ID: "REQ-2", LongName: "Second"},
	}
	itemFirst := []*types.WorkItemSpec{
		{ID: "REQ-2", LongName: "Second"},
		{ID: "F-1", LongName: "Folder 1", Attributes: map[string]any{"Type": "Folder"}},
	}

	for name, items := range map[string][]*types.WorkItemSpec{
		"folder visited first": folderFirst,
		"item visited first":   itemFirst,
	} {
		t.Run(name, func(t *testing.T) {
			m := demoModel()
			addLiveFolder(m)
			snap := demoSnapshot()
			snap.Items = items

			actions, err := Calculate(m, demoConfig(), snap, Options{})
			require.NoError(t, err)
			require.Len(t, actions, 1)

			// The item relocates to the module root; the deletion that
			// its old folder proposed is retracted, never both.
			base := actions[0]
			assert.Equal(t, types.UUIDRef("mod-1"), base.Parent)
			require.Len(t, base.Extend[types.SlotRequirements], 1)
			assert.Equal(t, types.UUIDRef("r-2"), base.Extend[types.SlotRequirements][0])
			for _, action := range actions {
				assert.Empty(t, action.Delete)
			}
		})
	}
}

func TestCalculateModuleLevelDeletion(t *testing.T) {
	m := demoModel()
	liveRequirement(m)
	snap := demoSnapshot()

	actions, err := Calculate(m, demoConfig(), snap, Options{})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	base := actions[0]
	assert.Equal(t, types.UUIDRef("mod-1"), base.Parent)
	assert.Equal(t, []types.Reference{types.UUIDRef("r-1")}, base.Delete[types.SlotRequirements])
}

func TestCalculateInvalidValueAbortsModule(t *testing.T) {
	m := demoModel()
	liveRequirement(m)
	snap := demoSnapshot()
	snap.Items = []*types.WorkItemSpec{{
		ID: "REQ-1", LongName: "First", Text: "Shall navigate", Type: "SYSREQ",
		Attributes: map[string]any{
			"Capability": 7, // not a string
			"Release":    []any{"R1"},
		},
	}}

	actions, err := Calculate(m, demoConfig(), snap, Options{})
	require.Error(t, err)
	var invalid *InvalidFieldValueError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "Capability", invalid.Attribute)
	assert.Nil(t, actions)
}

func TestCalculateUnknownTypeWarns(t *testing.T) {
	m := &model.Model{Modules: []*model.Module{{UUID: "mod-1", LongName: "Demo"}}}
	snap := demoSnapshot()
	snap.Items = []*types.WorkItemSpec{{
		ID: "REQ-9", LongName: "Odd", Type: "NOSUCH",
		Attributes: map[string]any{"Capability": "x"},
	}}

	var warnings []string
	actions, err := Calculate(m, demoConfig(), snap, Options{
		OnWarning: func(msg string) { warnings = append(warnings, msg) },
	})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "NOSUCH")

	// The item is still created, typed by promise, with no attributes.
	base := actions[len(actions)-1]
	require.Len(t, base.Extend[types.SlotRequirements], 1)
	item := base.Extend[types.SlotRequirements][0].(types.WorkItemPayload)
	assert.Empty(t, item.Attributes)
	require.NotNil(t, item.Type)
	assert.Equal(t, "RequirementType NOSUCH", item.Type.Promise)
}
