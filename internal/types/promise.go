package types

import "fmt"

// Reserved identifiers for entities that have no counterpart in the
// external tracker. The module and its types folder are addressed by
// fixed cache keys so repeated runs derive the same labels.
const (
	ModuleCacheKey     = "-1"
	TypeFolderCacheKey = "-2"

	// TypeFolderName is the long name given to a created types folder.
	TypeFolderName = "Types"
)

// Definition kind tags used in attribute definition promise labels. An
// Enum attribute definition is a distinct entity kind from the scalar
// ones, so the two must never collide in label space.
const (
	DefKindAttribute     = "AttributeDefinition"
	DefKindEnumAttribute = "AttributeDefinitionEnumeration"
	DefKindDataType      = "EnumerationDataTypeDefinition"
)

// DefinitionKind returns the entity kind tag for an attribute
// definition of the given attribute kind.
func DefinitionKind(kind AttributeKind) string {
	if kind == KindEnum {
		return DefKindEnumAttribute
	}
	return DefKindAttribute
}

// Promise labels are derived deterministically from an entity's kind
// and scoping keys. Any two components computing the label for "the
// same" not-yet-created entity agree without coordination, and the
// creating payload declares the identical label as its PromiseID.

// DataTypePromise labels the enumeration data type definition with the
// given name.
func DataTypePromise(name string) string {
	return fmt.Sprintf("%s %s", DefKindDataType, name)
}

// EnumValuePromise labels the literal value under the data type
// definition of the given name.
func EnumValuePromise(dataType, value string) string {
	return fmt.Sprintf("EnumValue %s %s", dataType, value)
}

// RequirementTypePromise labels the requirement type with the given
// external identifier.
func RequirementTypePromise(identifier string) string {
	return fmt.Sprintf("RequirementType %s", identifier)
}

// AttributeDefinitionID is the stable identifier of an attribute
// definition: its name qualified by the owning requirement type.
func AttributeDefinitionID(name, reqTypeID string) string {
	return fmt.Sprintf("%s %s", name, reqTypeID)
}

// AttributeDefinitionPromise labels the attribute definition of the
// given kind, name and owning requirement type.
func AttributeDefinitionPromise(kind AttributeKind, name, reqTypeID string) string {
	return fmt.Sprintf("%s %s", DefinitionKind(kind), AttributeDefinitionID(name, reqTypeID))
}
