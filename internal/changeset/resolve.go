package changeset

import "github.com/steveyegge/reqsync/internal/types"

// Reference resolution: each lookup yields a concrete reference when
// the entity exists in the live model, and otherwise a promise whose
// label matches exactly the PromiseID a corresponding create payload
// for the same entity declares. Resolution never creates or reserves
// anything.

// resolveRequirementType resolves the requirement type with the given
// external identifier.
func (tc *TrackerChange) resolveRequirementType(id string) types.Reference {
	if rt := tc.finder.RequirementTypeByIdentifier(id); rt != nil {
		return types.UUIDRef(rt.UUID)
	}
	return types.PromiseRef(types.RequirementTypePromise(id))
}

// resolveDataType resolves the enumeration data type definition with
// the given name.
func (tc *TrackerChange) resolveDataType(name string) types.Reference {
	if d := tc.finder.DataTypeByLongName(name); d != nil {
		return types.UUIDRef(d.UUID)
	}
	return types.PromiseRef(types.DataTypePromise(name))
}

// resolveEnumValue resolves the literal named value under the data type
// definition named dataType.
func (tc *TrackerChange) resolveEnumValue(dataType, value string) types.Reference {
	if v := tc.finder.EnumValueByLongName(dataType, value); v != nil {
		return types.UUIDRef(v.UUID)
	}
	return types.PromiseRef(types.EnumValuePromise(dataType, value))
}

// resolveAttributeDefinition resolves the attribute definition of the
// given kind under the given requirement type.
func (tc *TrackerChange) resolveAttributeDefinition(kind types.AttributeKind, name, reqTypeID string) types.Reference {
	id := types.AttributeDefinitionID(name, reqTypeID)
	if d := tc.finder.AttributeDefinitionByIdentifier(id, kind == types.KindEnum); d != nil {
		return types.UUIDRef(d.UUID)
	}
	return types.PromiseRef(types.AttributeDefinitionPromise(kind, name, reqTypeID))
}
