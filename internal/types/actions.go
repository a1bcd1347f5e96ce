package types

// Slot names used in extend/delete fragments of a ChangeAction. Each
// slot addresses one ordered collection on the parent entity.
const (
	SlotRequirements         = "requirements"
	SlotFolders              = "folders"
	SlotTypeFolders          = "requirement_types_folders"
	SlotDataTypeDefinitions  = "data_type_definitions"
	SlotRequirementTypes     = "requirement_types"
	SlotAttributeDefinitions = "attribute_definitions"
	SlotAttributes           = "attributes"
	SlotValues               = "values"
)

// Element is anything that can appear in an extend slot: a Reference to
// an existing (or relocated) entity, or a creation payload for a new one.
type Element interface {
	element()
}

// Reference points at an entity, either concretely by UUID or forward
// by promise label. A promised entity is created elsewhere in the same
// action batch; the applier matches the label against the creating
// payload's PromiseID.
type Reference struct {
	UUID    string `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Promise string `json:"promise,omitempty" yaml:"promise,omitempty"`
}

func (Reference) element() {}

// UUIDRef returns a concrete reference to an existing entity.
func UUIDRef(id string) Reference { return Reference{UUID: id} }

// PromiseRef returns a forward reference to a co-batch creation.
func PromiseRef(label string) Reference { return Reference{Promise: label} }

// IsPromise reports whether the reference is a forward promise.
func (r Reference) IsPromise() bool { return r.Promise != "" }

// IsZero reports whether the reference points at nothing.
func (r Reference) IsZero() bool { return r.UUID == "" && r.Promise == "" }

// EnumValuePayload creates one enumeration literal under a data type
// definition.
type EnumValuePayload struct {
	LongName  string `json:"long_name" yaml:"long_name"`
	PromiseID string `json:"promise_id" yaml:"promise_id"`
}

func (EnumValuePayload) element() {}

// DataTypePayload creates an enumeration data type definition with its
// literals.
type DataTypePayload struct {
	LongName  string             `json:"long_name" yaml:"long_name"`
	Values    []EnumValuePayload `json:"values" yaml:"values"`
	PromiseID string             `json:"promise_id" yaml:"promise_id"`
}

func (DataTypePayload) element() {}

// AttributeDefinitionPayload creates an attribute definition under a
// requirement type. DataType and MultiValued are only set for Enum
// definitions.
type AttributeDefinitionPayload struct {
	LongName    string        `json:"long_name" yaml:"long_name"`
	Identifier  string        `json:"identifier" yaml:"identifier"`
	Kind        AttributeKind `json:"kind" yaml:"kind"`
	DataType    *Reference    `json:"data_type,omitempty" yaml:"data_type,omitempty"`
	MultiValued bool          `json:"multi_valued,omitempty" yaml:"multi_valued,omitempty"`
	PromiseID   string        `json:"promise_id" yaml:"promise_id"`
}

func (AttributeDefinitionPayload) element() {}

// RequirementTypePayload creates a requirement type with its attribute
// definitions.
type RequirementTypePayload struct {
	Identifier           string                       `json:"identifier" yaml:"identifier"`
	LongName             string                       `json:"long_name" yaml:"long_name"`
	AttributeDefinitions []AttributeDefinitionPayload `json:"attribute_definitions,omitempty" yaml:"attribute_definitions,omitempty"`
	PromiseID            string                       `json:"promise_id" yaml:"promise_id"`
}

func (RequirementTypePayload) element() {}

// TypeFolderPayload creates the whole requirement types folder in one
// nested payload, used when the live module has no type folder yet.
type TypeFolderPayload struct {
	LongName            string                   `json:"long_name" yaml:"long_name"`
	Identifier          string                   `json:"identifier" yaml:"identifier"`
	DataTypeDefinitions []DataTypePayload        `json:"data_type_definitions" yaml:"data_type_definitions"`
	RequirementTypes    []RequirementTypePayload `json:"requirement_types" yaml:"requirement_types"`
}

func (TypeFolderPayload) element() {}

// AttributeValuePayload creates an attribute value on a requirement or
// folder. Exactly one of Value and Values is set: Values carries the
// enumeration references for Enum attributes, Value the scalar for
// everything else.
type AttributeValuePayload struct {
	Kind       AttributeKind `json:"kind" yaml:"kind"`
	Definition Reference     `json:"definition" yaml:"definition"`
	Value      any           `json:"value,omitempty" yaml:"value,omitempty"`
	Values     []Reference   `json:"values,omitempty" yaml:"values,omitempty"`
}

func (AttributeValuePayload) element() {}

// WorkItemPayload creates a requirement or folder, possibly with nested
// children. Requirements and Folders hold WorkItemPayload creations for
// new children and Reference values for existing children relocated
// under this new parent.
type WorkItemPayload struct {
	LongName     string                  `json:"long_name" yaml:"long_name"`
	Identifier   string                  `json:"identifier" yaml:"identifier"`
	Text         string                  `json:"text,omitempty" yaml:"text,omitempty"`
	Type         *Reference              `json:"type,omitempty" yaml:"type,omitempty"`
	Attributes   []AttributeValuePayload `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Requirements []Element               `json:"requirements,omitempty" yaml:"requirements,omitempty"`
	Folders      []Element               `json:"folders,omitempty" yaml:"folders,omitempty"`
}

func (WorkItemPayload) element() {}

// ChangeAction is one declarative change against the entity addressed
// by Parent: extend its slots with new or relocated children, modify
// its fields, and delete children from its slots. An action carrying
// none of the three fragments is void and must not appear in the final
// list.
type ChangeAction struct {
	Parent Reference              `json:"parent" yaml:"parent"`
	Extend map[string][]Element   `json:"extend,omitempty" yaml:"extend,omitempty"`
	Modify map[string]any         `json:"modify,omitempty" yaml:"modify,omitempty"`
	Delete map[string][]Reference `json:"delete,omitempty" yaml:"delete,omitempty"`
}

// NewAction returns an empty action addressing parent.
func NewAction(parent Reference) *ChangeAction {
	return &ChangeAction{Parent: parent}
}

// Void reports whether the action carries no change.
func (a *ChangeAction) Void() bool {
	return len(a.Extend) == 0 && len(a.Modify) == 0 && len(a.Delete) == 0
}

// MergeExtend appends elements to the given extend slot, creating the
// fragment maps on demand.
func (a *ChangeAction) MergeExtend(slot string, els ...Element) {
	if len(els) == 0 {
		return
	}
	if a.Extend == nil {
		a.Extend = make(map[string][]Element)
	}
	a.Extend[slot] = append(a.Extend[slot], els...)
}

// MergeDelete appends references to the given delete slot.
func (a *ChangeAction) MergeDelete(slot string, refs ...Reference) {
	if len(refs) == 0 {
		return
	}
	if a.Delete == nil {
		a.Delete = make(map[string][]Reference)
	}
	a.Delete[slot] = append(a.Delete[slot], refs...)
}

// MergeModify records a field modification. A mapping value merges
// recursively into an existing mapping under the same key; any other
// value overwrites.
func (a *ChangeAction) MergeModify(key string, value any) {
	if a.Modify == nil {
		a.Modify = make(map[string]any)
	}
	next, nextOK := value.(map[string]any)
	prev, prevOK := a.Modify[key].(map[string]any)
	if nextOK && prevOK && len(next) > 0 {
		deepUpdate(prev, next)
		return
	}
	a.Modify[key] = value
}

// MergeFrom deep-merges every fragment of other into a. Both actions
// must address the same parent.
func (a *ChangeAction) MergeFrom(other *ChangeAction) {
	if other == nil {
		return
	}
	for slot, els := range other.Extend {
		a.MergeExtend(slot, els...)
	}
	for key, value := range other.Modify {
		a.MergeModify(key, value)
	}
	for slot, refs := range other.Delete {
		a.MergeDelete(slot, refs...)
	}
}

// RemoveDelete drops one reference from a delete slot, pruning the slot
// and the delete fragment when they become empty. It reports whether
// the reference was present.
func (a *ChangeAction) RemoveDelete(slot, uuid string) bool {
	refs, ok := a.Delete[slot]
	if !ok {
		return false
	}
	for i, ref := range refs {
		if ref.UUID == uuid {
			refs = append(refs[:i], refs[i+1:]...)
			if len(refs) == 0 {
				delete(a.Delete, slot)
			} else {
				a.Delete[slot] = refs
			}
			if len(a.Delete) == 0 {
				a.Delete = nil
			}
			return true
		}
	}
	return false
}

// deepUpdate merges overrides into source in place. Non-empty mapping
// values merge recursively; anything else overwrites.
func deepUpdate(source, overrides map[string]any) {
	for key, value := range overrides {
		if next, ok := value.(map[string]any); ok && len(next) > 0 {
			prev, ok := source[key].(map[string]any)
			if !ok {
				prev = make(map[string]any)
			}
			deepUpdate(prev, next)
			source[key] = prev
			continue
		}
		source[key] = value
	}
}

// PruneVoid returns actions with every void action removed, preserving
// order. Actions become void when the deletion ledger retracts their
// last pending deletion.
func PruneVoid(actions []*ChangeAction) []*ChangeAction {
	kept := actions[:0]
	for _, action := range actions {
		if !action.Void() {
			kept = append(kept, action)
		}
	}
	return kept
}
