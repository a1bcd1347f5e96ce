package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFlexIDAcceptsIntAndString(t *testing.T) {
	var item WorkItemSpec
	require.NoError(t, yaml.Unmarshal([]byte("id: 1\nlong_name: One\n"), &item))
	assert.Equal(t, FlexID("1"), item.ID)

	require.NoError(t, yaml.Unmarshal([]byte("id: REQ-1\nlong_name: One\n"), &item))
	assert.Equal(t, FlexID("REQ-1"), item.ID)

	err := yaml.Unmarshal([]byte("id: [1]\nlong_name: One\n"), &item)
	assert.Error(t, err)
}

func TestIsFolder(t *testing.T) {
	leaf := &WorkItemSpec{ID: "REQ-1"}
	assert.False(t, leaf.IsFolder())

	withChildren := &WorkItemSpec{ID: "F-1", Children: []*WorkItemSpec{leaf}}
	assert.True(t, withChildren.IsFolder())

	hinted := &WorkItemSpec{ID: "F-2", Attributes: map[string]any{"Type": "Folder"}}
	assert.True(t, hinted.IsFolder())

	otherType := &WorkItemSpec{ID: "REQ-2", Attributes: map[string]any{"Type": "Requirement"}}
	assert.False(t, otherType.IsFolder())
}

func TestMultiValued(t *testing.T) {
	assert.False(t, AttributeDefinitionSpec{Kind: KindEnum}.MultiValued())
	assert.True(t, AttributeDefinitionSpec{Kind: KindEnum, MultiValues: []string{}}.MultiValued())
}

func TestSnapshotSortedAccessors(t *testing.T) {
	snap := &TrackerSnapshot{
		ID:        "demo-1",
		DataTypes: map[string][]string{"Release": nil, "Band": nil},
		RequirementTypes: map[string]RequirementTypeSpec{
			"SYSREQ": {},
			"SWREQ":  {},
			"HWREQ":  {},
		},
	}
	assert.Equal(t, []string{"Band", "Release"}, snap.DataTypeNames())
	assert.Equal(t, []string{"HWREQ", "SWREQ", "SYSREQ"}, snap.RequirementTypeIDs())
}
