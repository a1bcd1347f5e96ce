package changeset

import (
	"github.com/steveyegge/reqsync/internal/model"
	"github.com/steveyegge/reqsync/internal/types"
)

// parentPending is passed as the expected parent when reconciling a
// found child under a parent that is itself being created in this
// batch. No live entity has an empty parent, so the relocation check
// always fires.
const parentPending = ""

// blacklisted reports whether an attribute pair is the reserved
// ("Type", "Folder") marker, which only hints folder-ness and is never
// materialized as a stored attribute. A list is blacklisted when all of
// its entries are; an empty list therefore is.
func blacklisted(name string, value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return name == "Type" && v == "Folder"
	case []string:
		for _, e := range v {
			if !blacklisted(name, e) {
				return false
			}
		}
		return true
	case []any:
		for _, e := range v {
			if !blacklisted(name, e) {
				return false
			}
		}
		return true
	}
	return false
}

// itemCreateActions builds the creation payload for a snapshot item
// that has no live counterpart, recursing into children. Children that
// do exist live are referenced concretely (they are relocating under
// the new parent) and their modifications are returned as trailing
// actions.
func (tc *TrackerChange) itemCreateActions(item *types.WorkItemSpec) (*types.WorkItemPayload, []*types.ChangeAction, error) {
	reqTypeID := item.Type
	folderHint := false
	var attributes []types.AttributeValuePayload

	for _, name := range item.AttributeNames() {
		value := item.Attributes[name]
		if blacklisted(name, value) {
			if name == "Type" && value == "Folder" {
				folderHint = true
			}
			continue
		}
		if reqTypeID == "" {
			tc.warnf("item %s has attributes but no requirement type, skipping attributes", item.ID)
			break
		}
		reqType, ok := tc.snapshot.RequirementTypes[reqTypeID]
		if !ok {
			tc.warnf("faulty item %s in snapshot: unknown requirement type %q", item.ID, reqTypeID)
			break
		}
		if _, declared := reqType.Attributes[name]; !declared {
			continue
		}
		payload, err := tc.attributeValueCreate(name, value, reqTypeID)
		if err != nil {
			return nil, nil, err
		}
		attributes = append(attributes, payload)
	}

	payload := &types.WorkItemPayload{
		LongName:   item.LongName,
		Identifier: string(item.ID),
		Text:       item.Text,
		Attributes: attributes,
	}
	if reqTypeID != "" {
		ref := tc.resolveRequirementType(reqTypeID)
		payload.Type = &ref
	}

	var childActions []*types.ChangeAction
	if len(item.Children) > 0 || folderHint {
		for _, child := range item.Children {
			live := tc.finder.WorkItemByIdentifier(string(child.ID))
			var element types.Element
			if live == nil {
				childPayload, acts, err := tc.itemCreateActions(child)
				if err != nil {
					return nil, nil, err
				}
				element = *childPayload
				childActions = append(childActions, acts...)
			} else {
				acts, err := tc.itemModActions(live, child, parentPending)
				if err != nil {
					return nil, nil, err
				}
				element = types.UUIDRef(live.ItemUUID())
				childActions = append(childActions, acts...)
			}
			if child.IsFolder() {
				payload.Folders = append(payload.Folders, element)
			} else {
				payload.Requirements = append(payload.Requirements, element)
			}
		}
	}
	return payload, childActions, nil
}

// itemModActions diffs a live work item against its snapshot node and
// returns the item's modification action (if any) followed by its
// descendants' actions. parentUUID is the parent driving the current
// recursion; a mismatch with the live parent marks the item relocated
// and retracts any deletion already queued for it.
func (tc *TrackerChange) itemModActions(live model.Item, item *types.WorkItemSpec, parentUUID string) ([]*types.ChangeAction, error) {
	base := types.NewAction(types.UUIDRef(live.ItemUUID()))

	var attrCreations []types.Element
	attrMods := make(map[string]any)
	for _, name := range item.AttributeNames() {
		value := item.Attributes[name]
		if value != nil && blacklisted(name, value) {
			continue
		}
		payload, modValue, modified, err := tc.attributeValueMod(live, name, value)
		if err != nil {
			return nil, err
		}
		switch {
		case payload != nil:
			attrCreations = append(attrCreations, *payload)
		case modified:
			attrMods[name] = modValue
		}
	}
	for _, attr := range live.ItemAttributes() {
		if _, ok := item.Attributes[attr.Definition.LongName]; !ok {
			base.MergeDelete(types.SlotAttributes, types.UUIDRef(attr.UUID))
		}
	}

	if item.LongName != live.ItemLongName() {
		base.MergeModify("long_name", item.LongName)
	}
	if item.Text != live.ItemText() {
		base.MergeModify("text", item.Text)
	}

	liveTypeID := ""
	if t := live.ItemType(); t != nil {
		liveTypeID = t.Identifier
	}
	if item.Type != liveTypeID {
		if item.Type != "" {
			if _, ok := tc.snapshot.RequirementTypes[item.Type]; !ok {
				tc.warnf("faulty item %s in snapshot: unknown requirement type %q", item.ID, item.Type)
			}
		}
		base.MergeModify("type", item.Type)
	}
	if len(attrMods) > 0 {
		base.MergeModify("attributes", attrMods)
	}
	base.MergeExtend(types.SlotAttributes, attrCreations...)

	if live.ItemParent() != parentUUID {
		tc.locationChanged[live.ItemIdentifier()] = true
		tc.ledger.Retract(live.ItemUUID())
	}

	var childActions []*types.ChangeAction
	if folder, ok := live.(*model.Folder); ok {
		childFolderIDs := make(map[string]bool)
		childReqIDs := make(map[string]bool)
		for _, child := range item.Children {
			cid := string(child.ID)
			slot := types.SlotRequirements
			if child.IsFolder() {
				slot = types.SlotFolders
				childFolderIDs[cid] = true
			} else {
				childReqIDs[cid] = true
			}

			clive := tc.finder.WorkItemByIdentifier(cid)
			if clive == nil {
				childPayload, acts, err := tc.itemCreateActions(child)
				if err != nil {
					return nil, err
				}
				base.MergeExtend(slot, *childPayload)
				childActions = append(childActions, acts...)
				continue
			}
			acts, err := tc.itemModActions(clive, child, folder.UUID)
			if err != nil {
				return nil, err
			}
			if clive.ItemParent() != folder.UUID {
				base.MergeExtend(slot, types.UUIDRef(clive.ItemUUID()))
			}
			childActions = append(childActions, acts...)
		}

		tc.proposeChildDeletions(base, folder, types.SlotFolders, childFolderIDs)
		tc.proposeChildDeletions(base, folder, types.SlotRequirements, childReqIDs)
	}

	var actions []*types.ChangeAction
	if !base.Void() {
		actions = append(actions, base)
	}
	return append(actions, childActions...), nil
}

// proposeChildDeletions queues deletions for the folder's live children
// behind slot that were neither visited in this recursion nor proven
// relocated, recording each in the ledger so a later relocation can
// still retract it.
func (tc *TrackerChange) proposeChildDeletions(action *types.ChangeAction, folder *model.Folder, slot string, keep map[string]bool) {
	for _, child := range folder.Items(slot) {
		if keep[child.ItemIdentifier()] || tc.locationChanged[child.ItemIdentifier()] {
			continue
		}
		action.MergeDelete(slot, types.UUIDRef(child.ItemUUID()))
		tc.ledger.Propose(child.ItemUUID(), action, slot)
	}
}
