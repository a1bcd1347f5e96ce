package model

// Finder answers the name- and identifier-scoped lookups the changeset
// engine needs against one module. All lookups are read-only walks over
// the module tree; nil means "not found" and never reserves anything.
type Finder struct {
	Module *Module
}

// NewFinder returns a Finder over the given module.
func NewFinder(mod *Module) *Finder {
	return &Finder{Module: mod}
}

// WorkItemByIdentifier finds a requirement or folder anywhere in the
// module by its stable external identifier. Identifiers are unique
// module-wide, not per parent.
func (f *Finder) WorkItemByIdentifier(id string) Item {
	if f.Module == nil {
		return nil
	}
	for _, r := range f.Module.Requirements {
		if r.Identifier == id {
			return r
		}
	}
	for _, folder := range f.Module.Folders {
		if item := findInFolder(folder, id); item != nil {
			return item
		}
	}
	return nil
}

func findInFolder(folder *Folder, id string) Item {
	if folder.Identifier == id {
		return folder
	}
	for _, r := range folder.Requirements {
		if r.Identifier == id {
			return r
		}
	}
	for _, child := range folder.Folders {
		if item := findInFolder(child, id); item != nil {
			return item
		}
	}
	return nil
}

// TypeFolder returns the module's requirement types folder, or nil if
// the module has never been synchronized.
func (f *Finder) TypeFolder() *RequirementTypeFolder {
	if f.Module == nil {
		return nil
	}
	return f.Module.TypeFolder
}

// DataTypeByLongName finds an enumeration data type definition under
// the types folder by name.
func (f *Finder) DataTypeByLongName(name string) *DataTypeDefinition {
	tf := f.TypeFolder()
	if tf == nil {
		return nil
	}
	for _, d := range tf.DataTypeDefinitions {
		if d.LongName == name {
			return d
		}
	}
	return nil
}

// RequirementTypeByIdentifier finds a requirement type under the types
// folder by its external identifier.
func (f *Finder) RequirementTypeByIdentifier(id string) *RequirementType {
	tf := f.TypeFolder()
	if tf == nil {
		return nil
	}
	for _, rt := range tf.RequirementTypes {
		if rt.Identifier == id {
			return rt
		}
	}
	return nil
}

// AttributeDefinitionByIdentifier finds an attribute definition by its
// qualified identifier ("<name> <reqtype-id>"). Enum selects between
// the enumeration and scalar definition kinds, which share identifier
// space but are distinct entities.
func (f *Finder) AttributeDefinitionByIdentifier(id string, enum bool) *AttributeDefinition {
	tf := f.TypeFolder()
	if tf == nil {
		return nil
	}
	for _, rt := range tf.RequirementTypes {
		for _, d := range rt.AttributeDefinitions {
			if d.Identifier == id && d.Enum() == enum {
				return d
			}
		}
	}
	return nil
}

// EnumValueByLongName finds the literal named value under the data type
// definition named dataType.
func (f *Finder) EnumValueByLongName(dataType, value string) *EnumValue {
	d := f.DataTypeByLongName(dataType)
	if d == nil {
		return nil
	}
	return d.ValueByLongName(value)
}
