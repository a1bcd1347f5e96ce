// Package model holds the persisted requirements graph that snapshots
// are reconciled against. The graph is a strict tree: every folder,
// requirement and type definition has exactly one owning parent, and
// cross-references (requirement type, attribute definition, enum
// values) point into the module's single types folder.
package model

import "github.com/steveyegge/reqsync/internal/types"

// Model is the root of the persisted graph, owning one module per
// synchronized tracker.
type Model struct {
	Modules []*Module
}

// ModuleByUUID returns the module with the given identity, or nil.
func (m *Model) ModuleByUUID(uuid string) *Module {
	for _, mod := range m.Modules {
		if mod.UUID == uuid {
			return mod
		}
	}
	return nil
}

// Module is the root container for one tracker's requirements.
type Module struct {
	UUID       string
	Identifier string // external correlation identifier, if any
	LongName   string

	TypeFolder   *RequirementTypeFolder
	Folders      []*Folder
	Requirements []*Requirement
}

// RequirementTypeFolder owns the module's data type definitions and
// requirement types.
type RequirementTypeFolder struct {
	UUID       string
	Identifier string
	LongName   string

	DataTypeDefinitions []*DataTypeDefinition
	RequirementTypes    []*RequirementType
}

// DataTypeDefinition is an enumeration type: a named, ordered set of
// literal values.
type DataTypeDefinition struct {
	UUID     string
	LongName string
	Values   []*EnumValue
}

// ValueByLongName returns the literal with the given name, or nil.
func (d *DataTypeDefinition) ValueByLongName(name string) *EnumValue {
	for _, v := range d.Values {
		if v.LongName == name {
			return v
		}
	}
	return nil
}

// EnumValue is one literal of a DataTypeDefinition.
type EnumValue struct {
	UUID     string
	LongName string
}

// RequirementType declares the attribute definitions available to
// requirements of this type.
type RequirementType struct {
	UUID       string
	Identifier string
	LongName   string

	AttributeDefinitions []*AttributeDefinition
}

// AttributeDefinitionByLongName returns the definition with the given
// long name, or nil.
func (r *RequirementType) AttributeDefinitionByLongName(name string) *AttributeDefinition {
	for _, d := range r.AttributeDefinitions {
		if d.LongName == name {
			return d
		}
	}
	return nil
}

// AttributeDefinition declares one typed attribute on a requirement
// type. DataType and MultiValued are only set for Enum definitions.
type AttributeDefinition struct {
	UUID        string
	Identifier  string
	LongName    string
	Kind        types.AttributeKind
	DataType    *DataTypeDefinition
	MultiValued bool
}

// Enum reports whether the definition is an enumeration definition.
func (d *AttributeDefinition) Enum() bool { return d.Kind == types.KindEnum }

// AttributeValue is a stored value on a requirement or folder. Values
// holds enum literal references for Enum definitions, Value the scalar
// for everything else.
type AttributeValue struct {
	UUID       string
	Definition *AttributeDefinition
	Value      any
	Values     []*EnumValue
}

// ValueNames returns the long names of the referenced enum literals.
func (a *AttributeValue) ValueNames() []string {
	names := make([]string, 0, len(a.Values))
	for _, v := range a.Values {
		names = append(names, v.LongName)
	}
	return names
}

// Item is a live work item: a *Requirement or a *Folder.
type Item interface {
	ItemUUID() string
	ItemIdentifier() string
	ItemLongName() string
	ItemText() string
	ItemType() *RequirementType
	ItemAttributes() []*AttributeValue
	// ItemParent is the UUID of the owning folder or module.
	ItemParent() string
	IsFolder() bool
}

// Requirement is a leaf work item.
type Requirement struct {
	UUID       string
	Identifier string
	LongName   string
	Text       string
	Type       *RequirementType
	Attributes []*AttributeValue

	// Parent is the UUID of the owning folder or module, maintained
	// by the store's link pass and by the applier.
	Parent string
}

func (r *Requirement) ItemUUID() string                  { return r.UUID }
func (r *Requirement) ItemIdentifier() string            { return r.Identifier }
func (r *Requirement) ItemLongName() string              { return r.LongName }
func (r *Requirement) ItemText() string                  { return r.Text }
func (r *Requirement) ItemType() *RequirementType        { return r.Type }
func (r *Requirement) ItemAttributes() []*AttributeValue { return r.Attributes }
func (r *Requirement) ItemParent() string                { return r.Parent }
func (r *Requirement) IsFolder() bool                    { return false }

// AttributeByDefinition returns the stored value for the given
// definition, or nil.
func (r *Requirement) AttributeByDefinition(def *AttributeDefinition) *AttributeValue {
	for _, a := range r.Attributes {
		if a.Definition == def {
			return a
		}
	}
	return nil
}

// Folder is a work item that owns child folders and requirements.
type Folder struct {
	Requirement

	Folders      []*Folder
	Requirements []*Requirement
}

func (f *Folder) IsFolder() bool { return true }

// Items returns the folder's children behind the given slot name,
// "folders" or "requirements", as Items in stored order.
func (f *Folder) Items(slot string) []Item {
	if slot == "folders" {
		items := make([]Item, 0, len(f.Folders))
		for _, c := range f.Folders {
			items = append(items, c)
		}
		return items
	}
	items := make([]Item, 0, len(f.Requirements))
	for _, c := range f.Requirements {
		items = append(items, c)
	}
	return items
}

// Items returns the module's top-level children behind the given slot.
func (m *Module) Items(slot string) []Item {
	if slot == "folders" {
		items := make([]Item, 0, len(m.Folders))
		for _, c := range m.Folders {
			items = append(items, c)
		}
		return items
	}
	items := make([]Item, 0, len(m.Requirements))
	for _, c := range m.Requirements {
		items = append(items, c)
	}
	return items
}
