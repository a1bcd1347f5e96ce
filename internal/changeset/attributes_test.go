package changeset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/reqsync/internal/types"
)

func validatorChange() *TrackerChange {
	return &TrackerChange{snapshot: &types.TrackerSnapshot{
		ID:        "demo-1",
		DataTypes: map[string][]string{"Release": {"R1", "R2"}},
		RequirementTypes: map[string]types.RequirementTypeSpec{
			"SYSREQ": {
				LongName: "System Requirement",
				Attributes: map[string]types.AttributeDefinitionSpec{
					"Title":   {Kind: types.KindString},
					"Count":   {Kind: types.KindInteger},
					"Ratio":   {Kind: types.KindFloat},
					"Done":    {Kind: types.KindBoolean},
					"Due":     {Kind: types.KindDate},
					"Release": {Kind: types.KindEnum, MultiValues: []string{}},
				},
			},
		},
	}}
}

func TestCheckAttributeValue(t *testing.T) {
	due := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		attribute string
		raw       any
		wantKey   string
		want      any
		wantErr   bool
	}{
		{"string ok", "Title", "hello", "value", "hello", false},
		{"string rejects number", "Title", 7, "", nil, true},
		{"integer canonicalizes int", "Count", 5, "value", int64(5), false},
		{"integer accepts int64", "Count", int64(9), "value", int64(9), false},
		{"integer rejects string", "Count", "5", "", nil, true},
		{"float ok", "Ratio", 1.5, "value", 1.5, false},
		{"float rejects bool", "Ratio", true, "", nil, true},
		{"boolean ok", "Done", true, "value", true, false},
		{"date ok", "Due", due, "value", due, false},
		{"date rejects string", "Due", "2026-03-14", "", nil, true},
		{"enum list ok", "Release", []any{"R1", "R2"}, "values", []string{"R1", "R2"}, false},
		{"enum rejects scalar", "Release", "R1", "", nil, true},
		{"enum rejects unknown literal", "Release", []any{"R9"}, "", nil, true},
		{"enum keeps partial match", "Release", []any{"R1", "R9"}, "values", []string{"R1", "R9"}, false},
		{"undeclared attribute", "Nope", "x", "", nil, true},
		{"nil value rejected", "Title", nil, "", nil, true},
	}

	tc := validatorChange()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder, err := tc.checkAttributeValue(tt.attribute, tt.raw, "SYSREQ")
			if tt.wantErr {
				require.Error(t, err)
				var invalid *InvalidFieldValueError
				require.ErrorAs(t, err, &invalid)
				assert.Equal(t, tt.attribute, invalid.Attribute)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, builder.Key)
			assert.Equal(t, tt.want, builder.Value)
		})
	}
}

func TestCheckAttributeValueUnknownRequirementType(t *testing.T) {
	tc := validatorChange()
	_, err := tc.checkAttributeValue("Title", "x", "NOSUCH")
	var invalid *InvalidFieldValueError
	require.ErrorAs(t, err, &invalid)
}

func TestBlacklisted(t *testing.T) {
	assert.True(t, blacklisted("Type", "Folder"))
	assert.True(t, blacklisted("Type", []any{"Folder"}))
	assert.True(t, blacklisted("Type", []any{}))
	assert.False(t, blacklisted("Type", "Requirement"))
	assert.False(t, blacklisted("Kind", "Folder"))
	assert.False(t, blacklisted("Type", nil))
	assert.False(t, blacklisted("Type", []any{"Folder", "Other"}))
}
