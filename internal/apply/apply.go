// Package apply executes change action lists against the persisted
// model. Creation payloads become model entities with freshly minted
// uuids, promise references are matched to the payloads declaring them,
// and relocations detach an entity from its old parent before attaching
// it to the new one.
package apply

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/steveyegge/reqsync/internal/model"
	"github.com/steveyegge/reqsync/internal/types"
)

// Options configures an Applier.
type Options struct {
	// NewID mints entity uuids. Nil selects random uuids; tests inject
	// a counter for stable output.
	NewID func() string
}

// Applier applies action lists to one model. It keeps a uuid index over
// every entity and a registry of promise labels declared by the
// creation payloads it has instantiated so far.
type Applier struct {
	model *model.Model
	newID func() string

	index    map[string]any
	promises map[string]any
	fixups   []fixup
}

// fixup is a deferred reference resolution: a promise that was not
// registered yet when the referencing entity was instantiated.
type fixup struct {
	ref    types.Reference
	assign func(any) error
}

// NewApplier indexes the model and returns an Applier.
func NewApplier(m *model.Model, opts Options) *Applier {
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	ap := &Applier{
		model:    m,
		newID:    newID,
		index:    make(map[string]any),
		promises: make(map[string]any),
	}
	for _, mod := range m.Modules {
		ap.indexModule(mod)
	}
	return ap
}

// Apply executes the actions in order. Every promise must be resolvable
// by a payload somewhere in the same list; a dangling promise fails the
// whole application.
func (ap *Applier) Apply(actions []*types.ChangeAction) error {
	for _, action := range actions {
		if err := ap.applyAction(action); err != nil {
			return err
		}
	}
	for _, f := range ap.fixups {
		target, ok := ap.lookup(f.ref)
		if !ok {
			return fmt.Errorf("unresolved promise %q", f.ref.Promise)
		}
		if err := f.assign(target); err != nil {
			return err
		}
	}
	ap.fixups = nil
	return nil
}

// Apply executes actions against m in a single call.
func Apply(m *model.Model, actions []*types.ChangeAction, opts Options) error {
	return NewApplier(m, opts).Apply(actions)
}

func (ap *Applier) indexModule(mod *model.Module) {
	ap.index[mod.UUID] = mod
	if tf := mod.TypeFolder; tf != nil {
		ap.index[tf.UUID] = tf
		for _, d := range tf.DataTypeDefinitions {
			ap.index[d.UUID] = d
			for _, v := range d.Values {
				ap.index[v.UUID] = v
			}
		}
		for _, rt := range tf.RequirementTypes {
			ap.index[rt.UUID] = rt
			for _, d := range rt.AttributeDefinitions {
				ap.index[d.UUID] = d
			}
		}
	}
	for _, r := range mod.Requirements {
		ap.indexRequirement(r)
	}
	for _, f := range mod.Folders {
		ap.indexFolder(f)
	}
}

func (ap *Applier) indexRequirement(r *model.Requirement) {
	ap.index[r.UUID] = r
	for _, a := range r.Attributes {
		ap.index[a.UUID] = a
	}
}

func (ap *Applier) indexFolder(f *model.Folder) {
	ap.index[f.UUID] = f
	for _, a := range f.Attributes {
		ap.index[a.UUID] = a
	}
	for _, r := range f.Requirements {
		ap.indexRequirement(r)
	}
	for _, c := range f.Folders {
		ap.indexFolder(c)
	}
}

func (ap *Applier) register(promiseID string, entity any) {
	if promiseID != "" {
		ap.promises[promiseID] = entity
	}
}

func (ap *Applier) lookup(ref types.Reference) (any, bool) {
	if ref.UUID != "" {
		e, ok := ap.index[ref.UUID]
		return e, ok
	}
	e, ok := ap.promises[ref.Promise]
	return e, ok
}

// resolve assigns the referenced entity now if it is known, and defers
// the assignment otherwise.
func (ap *Applier) resolve(ref types.Reference, assign func(any) error) error {
	if target, ok := ap.lookup(ref); ok {
		return assign(target)
	}
	if !ref.IsPromise() {
		return fmt.Errorf("unknown entity uuid %s", ref.UUID)
	}
	ap.fixups = append(ap.fixups, fixup{ref: ref, assign: assign})
	return nil
}

func (ap *Applier) applyAction(action *types.ChangeAction) error {
	parent, ok := ap.lookup(action.Parent)
	if !ok {
		return fmt.Errorf("action parent %s%s not found", action.Parent.UUID, action.Parent.Promise)
	}
	for _, slot := range sortedKeys(action.Extend) {
		for _, el := range action.Extend[slot] {
			if err := ap.extend(parent, slot, el); err != nil {
				return err
			}
		}
	}
	for _, key := range sortedKeys(action.Modify) {
		if err := ap.modify(parent, key, action.Modify[key]); err != nil {
			return err
		}
	}
	for _, slot := range sortedKeys(action.Delete) {
		for _, ref := range action.Delete[slot] {
			if err := ap.remove(parent, slot, ref.UUID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ap *Applier) extend(parent any, slot string, el types.Element) error {
	switch slot {
	case types.SlotTypeFolders:
		mod, ok := parent.(*model.Module)
		if !ok {
			return slotParentError(slot, parent)
		}
		payload, ok := el.(types.TypeFolderPayload)
		if !ok {
			return slotElementError(slot, el)
		}
		tf, err := ap.newTypeFolder(payload)
		if err != nil {
			return err
		}
		mod.TypeFolder = tf
		return nil

	case types.SlotDataTypeDefinitions:
		tf, ok := parent.(*model.RequirementTypeFolder)
		if !ok {
			return slotParentError(slot, parent)
		}
		payload, ok := el.(types.DataTypePayload)
		if !ok {
			return slotElementError(slot, el)
		}
		tf.DataTypeDefinitions = append(tf.DataTypeDefinitions, ap.newDataType(payload))
		return nil

	case types.SlotRequirementTypes:
		tf, ok := parent.(*model.RequirementTypeFolder)
		if !ok {
			return slotParentError(slot, parent)
		}
		payload, ok := el.(types.RequirementTypePayload)
		if !ok {
			return slotElementError(slot, el)
		}
		rt, err := ap.newRequirementType(payload)
		if err != nil {
			return err
		}
		tf.RequirementTypes = append(tf.RequirementTypes, rt)
		return nil

	case types.SlotValues:
		d, ok := parent.(*model.DataTypeDefinition)
		if !ok {
			return slotParentError(slot, parent)
		}
		payload, ok := el.(types.EnumValuePayload)
		if !ok {
			return slotElementError(slot, el)
		}
		d.Values = append(d.Values, ap.newEnumValue(payload))
		return nil

	case types.SlotAttributeDefinitions:
		rt, ok := parent.(*model.RequirementType)
		if !ok {
			return slotParentError(slot, parent)
		}
		payload, ok := el.(types.AttributeDefinitionPayload)
		if !ok {
			return slotElementError(slot, el)
		}
		def, err := ap.newAttributeDefinition(payload)
		if err != nil {
			return err
		}
		rt.AttributeDefinitions = append(rt.AttributeDefinitions, def)
		return nil

	case types.SlotAttributes:
		req := requirementOf(parent)
		if req == nil {
			return slotParentError(slot, parent)
		}
		payload, ok := el.(types.AttributeValuePayload)
		if !ok {
			return slotElementError(slot, el)
		}
		value, err := ap.newAttributeValue(payload)
		if err != nil {
			return err
		}
		req.Attributes = append(req.Attributes, value)
		return nil

	case types.SlotRequirements, types.SlotFolders:
		return ap.extendItems(parent, slot, el)
	}
	return fmt.Errorf("unknown slot %q", slot)
}

// extendItems handles the two work item slots, where an element is
// either a creation payload or a concrete reference to an existing item
// relocating under this parent.
func (ap *Applier) extendItems(parent any, slot string, el types.Element) error {
	parentUUID, ok := containerUUID(parent)
	if !ok {
		return slotParentError(slot, parent)
	}

	switch v := el.(type) {
	case types.WorkItemPayload:
		item, err := ap.newWorkItem(v, parentUUID, slot == types.SlotFolders)
		if err != nil {
			return err
		}
		return attachItem(parent, item)

	case types.Reference:
		entity, ok := ap.index[v.UUID]
		if !ok {
			return fmt.Errorf("cannot relocate unknown item %s", v.UUID)
		}
		item, ok := entity.(model.Item)
		if !ok {
			return fmt.Errorf("entity %s is not a work item", v.UUID)
		}
		if err := ap.detachItem(item); err != nil {
			return err
		}
		setItemParent(item, parentUUID)
		return attachItem(parent, item)
	}
	return slotElementError(slot, el)
}

// slotParentError reports a parent entity of the wrong kind for a slot.
func slotParentError(slot string, parent any) error {
	return fmt.Errorf("slot %q: invalid parent type %T", slot, parent)
}

// slotElementError reports an extend element of the wrong kind for a slot.
func slotElementError(slot string, el types.Element) error {
	return fmt.Errorf("slot %q: invalid element type %T", slot, el)
}

// modifyTargetError reports a modify target of the wrong kind for a key.
func modifyTargetError(key string, parent any) error {
	return fmt.Errorf("modify %q: invalid target type %T", key, parent)
}

func (ap *Applier) newEnumValue(p types.EnumValuePayload) *model.EnumValue {
	v := &model.EnumValue{UUID: ap.newID(), LongName: p.LongName}
	ap.index[v.UUID] = v
	ap.register(p.PromiseID, v)
	return v
}

func (ap *Applier) newDataType(p types.DataTypePayload) *model.DataTypeDefinition {
	d := &model.DataTypeDefinition{UUID: ap.newID(), LongName: p.LongName}
	ap.index[d.UUID] = d
	ap.register(p.PromiseID, d)
	for _, vp := range p.Values {
		d.Values = append(d.Values, ap.newEnumValue(vp))
	}
	return d
}

func (ap *Applier) newAttributeDefinition(p types.AttributeDefinitionPayload) (*model.AttributeDefinition, error) {
	d := &model.AttributeDefinition{
		UUID:        ap.newID(),
		Identifier:  p.Identifier,
		LongName:    p.LongName,
		Kind:        p.Kind,
		MultiValued: p.MultiValued,
	}
	ap.index[d.UUID] = d
	ap.register(p.PromiseID, d)
	if p.DataType != nil {
		err := ap.resolve(*p.DataType, func(e any) error {
			dt, ok := e.(*model.DataTypeDefinition)
			if !ok {
				return fmt.Errorf("attribute definition %s: reference is not a data type", d.Identifier)
			}
			d.DataType = dt
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (ap *Applier) newRequirementType(p types.RequirementTypePayload) (*model.RequirementType, error) {
	rt := &model.RequirementType{
		UUID:       ap.newID(),
		Identifier: p.Identifier,
		LongName:   p.LongName,
	}
	ap.index[rt.UUID] = rt
	ap.register(p.PromiseID, rt)
	for _, dp := range p.AttributeDefinitions {
		def, err := ap.newAttributeDefinition(dp)
		if err != nil {
			return nil, err
		}
		rt.AttributeDefinitions = append(rt.AttributeDefinitions, def)
	}
	return rt, nil
}

func (ap *Applier) newTypeFolder(p types.TypeFolderPayload) (*model.RequirementTypeFolder, error) {
	tf := &model.RequirementTypeFolder{
		UUID:       ap.newID(),
		Identifier: p.Identifier,
		LongName:   p.LongName,
	}
	ap.index[tf.UUID] = tf
	for _, dp := range p.DataTypeDefinitions {
		tf.DataTypeDefinitions = append(tf.DataTypeDefinitions, ap.newDataType(dp))
	}
	for _, rp := range p.RequirementTypes {
		rt, err := ap.newRequirementType(rp)
		if err != nil {
			return nil, err
		}
		tf.RequirementTypes = append(tf.RequirementTypes, rt)
	}
	return tf, nil
}

func (ap *Applier) newAttributeValue(p types.AttributeValuePayload) (*model.AttributeValue, error) {
	a := &model.AttributeValue{UUID: ap.newID(), Value: p.Value}
	ap.index[a.UUID] = a
	err := ap.resolve(p.Definition, func(e any) error {
		def, ok := e.(*model.AttributeDefinition)
		if !ok {
			return fmt.Errorf("attribute value reference is not a definition")
		}
		a.Definition = def
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(p.Values) > 0 {
		a.Values = make([]*model.EnumValue, len(p.Values))
		for i, ref := range p.Values {
			err := ap.resolve(ref, func(e any) error {
				v, ok := e.(*model.EnumValue)
				if !ok {
					return fmt.Errorf("attribute value reference is not an enum literal")
				}
				a.Values[i] = v
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return a, nil
}

func (ap *Applier) newWorkItem(p types.WorkItemPayload, parentUUID string, folder bool) (model.Item, error) {
	var item model.Item
	var f *model.Folder
	if folder {
		f = &model.Folder{}
		item = f
	} else {
		item = &model.Requirement{}
	}
	req := requirementOf(item)
	req.UUID = ap.newID()
	req.Identifier = p.Identifier
	req.LongName = p.LongName
	req.Text = p.Text
	req.Parent = parentUUID
	ap.index[req.UUID] = item

	if p.Type != nil {
		err := ap.resolve(*p.Type, func(e any) error {
			rt, ok := e.(*model.RequirementType)
			if !ok {
				return fmt.Errorf("item %s: type reference is not a requirement type", p.Identifier)
			}
			req.Type = rt
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	for _, av := range p.Attributes {
		value, err := ap.newAttributeValue(av)
		if err != nil {
			return nil, err
		}
		req.Attributes = append(req.Attributes, value)
	}

	if f == nil {
		return item, nil
	}
	for _, el := range p.Folders {
		if err := ap.extendItems(f, types.SlotFolders, el); err != nil {
			return nil, err
		}
	}
	for _, el := range p.Requirements {
		if err := ap.extendItems(f, types.SlotRequirements, el); err != nil {
			return nil, err
		}
	}
	return item, nil
}

func (ap *Applier) modify(parent any, key string, value any) error {
	switch key {
	case "long_name":
		name, ok := value.(string)
		if !ok {
			return fmt.Errorf("long_name must be a string")
		}
		return setLongName(parent, name)

	case "text":
		req := requirementOf(parent)
		if req == nil {
			return modifyTargetError(key, parent)
		}
		text, ok := value.(string)
		if !ok {
			return fmt.Errorf("text must be a string")
		}
		req.Text = text
		return nil

	case "type":
		req := requirementOf(parent)
		if req == nil {
			return modifyTargetError(key, parent)
		}
		id, ok := value.(string)
		if !ok {
			return fmt.Errorf("type must be a requirement type identifier")
		}
		if id == "" {
			req.Type = nil
			return nil
		}
		rt := ap.requirementTypeByIdentifier(id)
		if rt == nil {
			return fmt.Errorf("item %s: unknown requirement type %q", req.Identifier, id)
		}
		req.Type = rt
		return nil

	case "data_type":
		def, ok := parent.(*model.AttributeDefinition)
		if !ok {
			return modifyTargetError(key, parent)
		}
		name, ok := value.(string)
		if !ok {
			return fmt.Errorf("data_type must be a data type name")
		}
		dt := ap.dataTypeByLongName(name)
		if dt == nil {
			return fmt.Errorf("attribute definition %s: unknown data type %q", def.Identifier, name)
		}
		def.DataType = dt
		return nil

	case "multi_valued":
		def, ok := parent.(*model.AttributeDefinition)
		if !ok {
			return modifyTargetError(key, parent)
		}
		multi, ok := value.(bool)
		if !ok {
			return fmt.Errorf("multi_valued must be a bool")
		}
		def.MultiValued = multi
		return nil

	case "attributes":
		req := requirementOf(parent)
		if req == nil {
			return modifyTargetError(key, parent)
		}
		mods, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("attributes must be a mapping")
		}
		return ap.modifyAttributes(req, mods)
	}
	return fmt.Errorf("unknown modify key %q", key)
}

// modifyAttributes rewrites stored attribute values in place. Enum
// attributes receive a new literal list resolved against the data type
// definition sharing the attribute's name; everything else receives the
// scalar as is.
func (ap *Applier) modifyAttributes(req *model.Requirement, mods map[string]any) error {
	for _, name := range sortedKeys(mods) {
		var stored *model.AttributeValue
		for _, a := range req.Attributes {
			if a.Definition != nil && a.Definition.LongName == name {
				stored = a
				break
			}
		}
		if stored == nil {
			return fmt.Errorf("item %s has no stored attribute %q", req.Identifier, name)
		}
		if stored.Definition.Enum() {
			names, ok := mods[name].([]string)
			if !ok {
				return fmt.Errorf("attribute %q: enum modification must be a literal list", name)
			}
			dt := stored.Definition.DataType
			if dt == nil {
				dt = ap.dataTypeByLongName(name)
			}
			if dt == nil {
				return fmt.Errorf("attribute %q has no data type", name)
			}
			values := make([]*model.EnumValue, 0, len(names))
			for _, n := range names {
				v := dt.ValueByLongName(n)
				if v == nil {
					return fmt.Errorf("attribute %q: data type %q has no literal %q", name, dt.LongName, n)
				}
				values = append(values, v)
			}
			stored.Values = values
			continue
		}
		stored.Value = mods[name]
	}
	return nil
}

func (ap *Applier) remove(parent any, slot string, uuid string) error {
	switch slot {
	case types.SlotFolders, types.SlotRequirements:
		switch c := parent.(type) {
		case *model.Module:
			if slot == types.SlotFolders {
				c.Folders = removeFolder(c.Folders, uuid)
			} else {
				c.Requirements = removeRequirement(c.Requirements, uuid)
			}
			return nil
		case *model.Folder:
			if slot == types.SlotFolders {
				c.Folders = removeFolder(c.Folders, uuid)
			} else {
				c.Requirements = removeRequirement(c.Requirements, uuid)
			}
			return nil
		}
		return slotParentError(slot, parent)

	case types.SlotAttributes:
		req := requirementOf(parent)
		if req == nil {
			return slotParentError(slot, parent)
		}
		for i, a := range req.Attributes {
			if a.UUID == uuid {
				req.Attributes = append(req.Attributes[:i], req.Attributes[i+1:]...)
				return nil
			}
		}
		return nil

	case types.SlotValues:
		d, ok := parent.(*model.DataTypeDefinition)
		if !ok {
			return slotParentError(slot, parent)
		}
		for i, v := range d.Values {
			if v.UUID == uuid {
				d.Values = append(d.Values[:i], d.Values[i+1:]...)
				return nil
			}
		}
		return nil

	case types.SlotDataTypeDefinitions:
		tf, ok := parent.(*model.RequirementTypeFolder)
		if !ok {
			return slotParentError(slot, parent)
		}
		for i, d := range tf.DataTypeDefinitions {
			if d.UUID == uuid {
				tf.DataTypeDefinitions = append(tf.DataTypeDefinitions[:i], tf.DataTypeDefinitions[i+1:]...)
				return nil
			}
		}
		return nil

	case types.SlotRequirementTypes:
		tf, ok := parent.(*model.RequirementTypeFolder)
		if !ok {
			return slotParentError(slot, parent)
		}
		for i, rt := range tf.RequirementTypes {
			if rt.UUID == uuid {
				tf.RequirementTypes = append(tf.RequirementTypes[:i], tf.RequirementTypes[i+1:]...)
				return nil
			}
		}
		return nil

	case types.SlotAttributeDefinitions:
		rt, ok := parent.(*model.RequirementType)
		if !ok {
			return slotParentError(slot, parent)
		}
		for i, d := range rt.AttributeDefinitions {
			if d.UUID == uuid {
				rt.AttributeDefinitions = append(rt.AttributeDefinitions[:i], rt.AttributeDefinitions[i+1:]...)
				return nil
			}
		}
		return nil
	}
	return fmt.Errorf("unknown slot %q", slot)
}

// detachItem removes an item from its current parent's slot ahead of a
// relocation.
func (ap *Applier) detachItem(item model.Item) error {
	parent, ok := ap.index[item.ItemParent()]
	if !ok {
		return fmt.Errorf("item %s: parent %s not found", item.ItemIdentifier(), item.ItemParent())
	}
	slot := types.SlotRequirements
	if item.IsFolder() {
		slot = types.SlotFolders
	}
	return ap.remove(parent, slot, item.ItemUUID())
}

func (ap *Applier) requirementTypeByIdentifier(id string) *model.RequirementType {
	for _, mod := range ap.model.Modules {
		if mod.TypeFolder == nil {
			continue
		}
		for _, rt := range mod.TypeFolder.RequirementTypes {
			if rt.Identifier == id {
				return rt
			}
		}
	}
	// A type created in this batch may not be attached yet.
	if e, ok := ap.promises[types.RequirementTypePromise(id)]; ok {
		if rt, ok := e.(*model.RequirementType); ok {
			return rt
		}
	}
	return nil
}

func (ap *Applier) dataTypeByLongName(name string) *model.DataTypeDefinition {
	for _, mod := range ap.model.Modules {
		if mod.TypeFolder == nil {
			continue
		}
		for _, d := range mod.TypeFolder.DataTypeDefinitions {
			if d.LongName == name {
				return d
			}
		}
	}
	if e, ok := ap.promises[types.DataTypePromise(name)]; ok {
		if d, ok := e.(*model.DataTypeDefinition); ok {
			return d
		}
	}
	return nil
}

// requirementOf returns the requirement core of an item entity, which
// for folders is the embedded Requirement.
func requirementOf(parent any) *model.Requirement {
	switch v := parent.(type) {
	case *model.Requirement:
		return v
	case *model.Folder:
		return &v.Requirement
	}
	return nil
}

func containerUUID(parent any) (string, bool) {
	switch v := parent.(type) {
	case *model.Module:
		return v.UUID, true
	case *model.Folder:
		return v.UUID, true
	}
	return "", false
}

func attachItem(parent any, item model.Item) error {
	switch c := parent.(type) {
	case *model.Module:
		if f, ok := item.(*model.Folder); ok {
			c.Folders = append(c.Folders, f)
		} else {
			c.Requirements = append(c.Requirements, item.(*model.Requirement))
		}
		return nil
	case *model.Folder:
		if f, ok := item.(*model.Folder); ok {
			c.Folders = append(c.Folders, f)
		} else {
			c.Requirements = append(c.Requirements, item.(*model.Requirement))
		}
		return nil
	}
	return fmt.Errorf("cannot attach item to %T", parent)
}

func setItemParent(item model.Item, parentUUID string) {
	switch v := item.(type) {
	case *model.Requirement:
		v.Parent = parentUUID
	case *model.Folder:
		v.Parent = parentUUID
	}
}

func setLongName(parent any, name string) error {
	switch v := parent.(type) {
	case *model.Module:
		v.LongName = name
	case *model.RequirementTypeFolder:
		v.LongName = name
	case *model.DataTypeDefinition:
		v.LongName = name
	case *model.EnumValue:
		v.LongName = name
	case *model.RequirementType:
		v.LongName = name
	case *model.AttributeDefinition:
		v.LongName = name
	case *model.Requirement:
		v.LongName = name
	case *model.Folder:
		v.LongName = name
	default:
		return fmt.Errorf("cannot set long_name on %T", parent)
	}
	return nil
}

func removeFolder(folders []*model.Folder, uuid string) []*model.Folder {
	for i, f := range folders {
		if f.UUID == uuid {
			return append(folders[:i], folders[i+1:]...)
		}
	}
	return folders
}

func removeRequirement(reqs []*model.Requirement, uuid string) []*model.Requirement {
	for i, r := range reqs {
		if r.UUID == uuid {
			return append(reqs[:i], reqs[i+1:]...)
		}
	}
	return reqs
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
