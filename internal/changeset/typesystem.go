package changeset

import (
	"github.com/steveyegge/reqsync/internal/model"
	"github.com/steveyegge/reqsync/internal/types"
)

// Type-system reconciliation runs before the item walk so that enum
// literals, data type definitions, requirement types and attribute
// definitions created in this batch can be promise-referenced by the
// item actions that follow. Data type definition actions are emitted
// before requirement type actions for the same reason: Enum attribute
// definitions reference data type definitions by promise.

// typeFolderCreateAction builds the single create action used when the
// live module has no types folder at all: one nested payload carrying
// every data type definition and requirement type from the snapshot.
func (tc *TrackerChange) typeFolderCreateAction() *types.ChangeAction {
	payload := types.TypeFolderPayload{
		LongName:   types.TypeFolderName,
		Identifier: types.TypeFolderCacheKey,
	}
	for _, name := range tc.snapshot.DataTypeNames() {
		payload.DataTypeDefinitions = append(payload.DataTypeDefinitions,
			tc.dataTypeCreatePayload(name, tc.snapshot.DataTypes[name]))
	}
	for _, id := range tc.snapshot.RequirementTypeIDs() {
		payload.RequirementTypes = append(payload.RequirementTypes,
			tc.requirementTypeCreatePayload(id, tc.snapshot.RequirementTypes[id]))
	}

	action := types.NewAction(types.UUIDRef(tc.module.UUID))
	action.MergeExtend(types.SlotTypeFolders, payload)
	return action
}

// dataTypeCreatePayload builds the creation payload for an enumeration
// data type definition with its literal values.
func (tc *TrackerChange) dataTypeCreatePayload(name string, values []string) types.DataTypePayload {
	payload := types.DataTypePayload{
		LongName:  name,
		PromiseID: types.DataTypePromise(name),
	}
	for _, value := range values {
		payload.Values = append(payload.Values, types.EnumValuePayload{
			LongName:  value,
			PromiseID: types.EnumValuePromise(name, value),
		})
	}
	return payload
}

// requirementTypeCreatePayload builds the creation payload for a
// requirement type with its attribute definitions.
func (tc *TrackerChange) requirementTypeCreatePayload(id string, spec types.RequirementTypeSpec) types.RequirementTypePayload {
	payload := types.RequirementTypePayload{
		Identifier: id,
		LongName:   spec.LongName,
		PromiseID:  types.RequirementTypePromise(id),
	}
	for _, name := range spec.AttributeNames() {
		payload.AttributeDefinitions = append(payload.AttributeDefinitions,
			tc.attributeDefinitionCreatePayload(name, spec.Attributes[name], id))
	}
	return payload
}

// attributeDefinitionCreatePayload builds the creation payload for one
// attribute definition. Enum definitions reference their data type
// definition, which shares the attribute's name, concretely or by
// promise.
func (tc *TrackerChange) attributeDefinitionCreatePayload(name string, spec types.AttributeDefinitionSpec, reqTypeID string) types.AttributeDefinitionPayload {
	payload := types.AttributeDefinitionPayload{
		LongName:   name,
		Identifier: types.AttributeDefinitionID(name, reqTypeID),
		Kind:       spec.Kind,
		PromiseID:  types.AttributeDefinitionPromise(spec.Kind, name, reqTypeID),
	}
	if spec.Kind == types.KindEnum {
		ref := tc.resolveDataType(name)
		payload.DataType = &ref
		payload.MultiValued = spec.MultiValued()
	}
	return payload
}

// dataTypeActions diffs the snapshot's data type definitions against
// the live types folder. Creations and deletions are merged into one
// action on the folder; per-definition modifications follow it.
func (tc *TrackerChange) dataTypeActions() []*types.ChangeAction {
	base := types.NewAction(types.UUIDRef(tc.typeFolder.UUID))

	for _, live := range tc.typeFolder.DataTypeDefinitions {
		if _, ok := tc.snapshot.DataTypes[live.LongName]; !ok {
			base.MergeDelete(types.SlotDataTypeDefinitions, types.UUIDRef(live.UUID))
		}
	}

	var mods []*types.ChangeAction
	for _, name := range tc.snapshot.DataTypeNames() {
		values := tc.snapshot.DataTypes[name]
		live := tc.finder.DataTypeByLongName(name)
		if live == nil {
			base.MergeExtend(types.SlotDataTypeDefinitions, tc.dataTypeCreatePayload(name, values))
			continue
		}
		if action := tc.dataTypeModAction(live, name, values); action != nil {
			mods = append(mods, action)
		}
	}

	var actions []*types.ChangeAction
	if !base.Void() {
		actions = append(actions, base)
	}
	return append(actions, mods...)
}

// dataTypeModAction computes the literal-set difference for one data
// type definition: snapshot-only literals extend the values slot,
// live-only literals are deleted from it, and a name mismatch is a
// modification. Nil means the definition is unchanged.
func (tc *TrackerChange) dataTypeModAction(live *model.DataTypeDefinition, name string, values []string) *types.ChangeAction {
	action := types.NewAction(types.UUIDRef(live.UUID))
	if live.LongName != name {
		action.MergeModify("long_name", name)
	}

	declared := make(map[string]bool, len(values))
	for _, value := range values {
		declared[value] = true
		if live.ValueByLongName(value) == nil {
			action.MergeExtend(types.SlotValues, types.EnumValuePayload{
				LongName:  value,
				PromiseID: types.EnumValuePromise(live.LongName, value),
			})
		}
	}
	for _, v := range live.Values {
		if !declared[v.LongName] {
			action.MergeDelete(types.SlotValues, types.UUIDRef(v.UUID))
		}
	}

	if action.Void() {
		return nil
	}
	return action
}

// requirementTypeActions diffs the snapshot's requirement types against
// the live types folder, symmetric to dataTypeActions.
func (tc *TrackerChange) requirementTypeActions() []*types.ChangeAction {
	base := types.NewAction(types.UUIDRef(tc.typeFolder.UUID))

	for _, live := range tc.typeFolder.RequirementTypes {
		if _, ok := tc.snapshot.RequirementTypes[live.Identifier]; !ok {
			base.MergeDelete(types.SlotRequirementTypes, types.UUIDRef(live.UUID))
		}
	}

	var mods []*types.ChangeAction
	for _, id := range tc.snapshot.RequirementTypeIDs() {
		spec := tc.snapshot.RequirementTypes[id]
		live := tc.finder.RequirementTypeByIdentifier(id)
		if live == nil {
			base.MergeExtend(types.SlotRequirementTypes, tc.requirementTypeCreatePayload(id, spec))
			continue
		}
		mods = append(mods, tc.requirementTypeModActions(live, spec)...)
	}

	var actions []*types.ChangeAction
	if !base.Void() {
		actions = append(actions, base)
	}
	return append(actions, mods...)
}

// requirementTypeModActions diffs one live requirement type against its
// snapshot spec: simple fields, then a nested reconciliation of its
// attribute definitions.
func (tc *TrackerChange) requirementTypeModActions(live *model.RequirementType, spec types.RequirementTypeSpec) []*types.ChangeAction {
	base := types.NewAction(types.UUIDRef(live.UUID))
	if live.LongName != spec.LongName {
		base.MergeModify("long_name", spec.LongName)
	}

	for _, def := range live.AttributeDefinitions {
		if _, ok := spec.Attributes[def.LongName]; !ok {
			base.MergeDelete(types.SlotAttributeDefinitions, types.UUIDRef(def.UUID))
		}
	}

	var mods []*types.ChangeAction
	for _, name := range spec.AttributeNames() {
		defSpec := spec.Attributes[name]
		liveDef := live.AttributeDefinitionByLongName(name)
		if liveDef == nil {
			base.MergeExtend(types.SlotAttributeDefinitions,
				tc.attributeDefinitionCreatePayload(name, defSpec, live.Identifier))
			continue
		}
		if action := tc.attributeDefinitionModAction(liveDef, name, defSpec); action != nil {
			mods = append(mods, action)
		}
	}

	var actions []*types.ChangeAction
	if !base.Void() {
		actions = append(actions, base)
	}
	return append(actions, mods...)
}

// attributeDefinitionModAction diffs one live attribute definition
// against its spec. For Enum kinds the referenced data type name and
// the multi-valued flag are compared as well. Nil means unchanged.
func (tc *TrackerChange) attributeDefinitionModAction(live *model.AttributeDefinition, name string, spec types.AttributeDefinitionSpec) *types.ChangeAction {
	action := types.NewAction(types.UUIDRef(live.UUID))
	if live.LongName != name {
		action.MergeModify("long_name", name)
	}
	if spec.Kind == types.KindEnum {
		if live.DataType == nil || live.DataType.LongName != name {
			action.MergeModify("data_type", name)
		}
		if live.MultiValued != spec.MultiValued() {
			action.MergeModify("multi_valued", spec.MultiValued())
		}
	}
	if action.Void() {
		return nil
	}
	return action
}
