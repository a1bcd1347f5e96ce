// Package types defines the core data structures for reqsync: the
// tracker snapshot supplied by an external requirements-management tool,
// and the declarative change actions the changeset engine produces.
package types

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// AttributeKind identifies the declared type of an attribute definition.
type AttributeKind string

const (
	KindString  AttributeKind = "String"
	KindEnum    AttributeKind = "Enum"
	KindDate    AttributeKind = "Date"
	KindInteger AttributeKind = "Integer"
	KindFloat   AttributeKind = "Float"
	KindBoolean AttributeKind = "Boolean"
)

// Valid reports whether k is one of the declared attribute kinds.
func (k AttributeKind) Valid() bool {
	switch k {
	case KindString, KindEnum, KindDate, KindInteger, KindFloat, KindBoolean:
		return true
	}
	return false
}

// FlexID is an external identifier that tools emit as either a YAML
// string or a bare integer. It always unmarshals to its string form.
type FlexID string

// UnmarshalYAML accepts both `id: 1` and `id: "REQ-1"`.
func (f *FlexID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("identifier must be a scalar, got %v", node.Kind)
	}
	*f = FlexID(node.Value)
	return nil
}

// AttributeDefinitionSpec declares one attribute on a requirement type
// in the snapshot. MultiValues is only meaningful for Enum attributes;
// its presence marks the definition as multi-valued.
type AttributeDefinitionSpec struct {
	Kind        AttributeKind `yaml:"type" json:"type"`
	MultiValues []string      `yaml:"multi_values,omitempty" json:"multi_values,omitempty"`
}

// MultiValued reports whether the Enum definition allows multiple values.
func (a AttributeDefinitionSpec) MultiValued() bool {
	return a.MultiValues != nil
}

// RequirementTypeSpec is the snapshot's view of one requirement type.
type RequirementTypeSpec struct {
	LongName   string                             `yaml:"long_name" json:"long_name"`
	Attributes map[string]AttributeDefinitionSpec `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

// AttributeNames returns the declared attribute names in sorted order.
// Snapshot maps carry no ordering, so sorted iteration keeps the
// resulting action list deterministic.
func (r RequirementTypeSpec) AttributeNames() []string {
	names := make([]string, 0, len(r.Attributes))
	for name := range r.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WorkItemSpec is one node of the snapshot's item tree. Folder-ness is
// decided once at ingestion: a node with children, or with the reserved
// ("Type", "Folder") marker attribute, is a folder.
type WorkItemSpec struct {
	ID         FlexID          `yaml:"id" json:"id"`
	LongName   string          `yaml:"long_name" json:"long_name"`
	Text       string          `yaml:"text,omitempty" json:"text,omitempty"`
	Type       string          `yaml:"type,omitempty" json:"type,omitempty"`
	Attributes map[string]any  `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Children   []*WorkItemSpec `yaml:"children,omitempty" json:"children,omitempty"`
}

// IsFolder reports whether the node is a folder rather than a leaf
// requirement.
func (w *WorkItemSpec) IsFolder() bool {
	if len(w.Children) > 0 {
		return true
	}
	if v, ok := w.Attributes["Type"]; ok && v == "Folder" {
		return true
	}
	return false
}

// AttributeNames returns the node's attribute names in sorted order.
func (w *WorkItemSpec) AttributeNames() []string {
	names := make([]string, 0, len(w.Attributes))
	for name := range w.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TrackerSnapshot is the externally supplied desired state for one
// module: the enumeration data types, the requirement types, and the
// item tree.
type TrackerSnapshot struct {
	ID               string                         `yaml:"id" json:"id"`
	DataTypes        map[string][]string            `yaml:"data_types,omitempty" json:"data_types,omitempty"`
	RequirementTypes map[string]RequirementTypeSpec `yaml:"requirement_types,omitempty" json:"requirement_types,omitempty"`
	Items            []*WorkItemSpec                `yaml:"items,omitempty" json:"items,omitempty"`
}

// DataTypeNames returns the snapshot's data type definition names in
// sorted order.
func (s *TrackerSnapshot) DataTypeNames() []string {
	names := make([]string, 0, len(s.DataTypes))
	for name := range s.DataTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RequirementTypeIDs returns the snapshot's requirement type
// identifiers in sorted order.
func (s *TrackerSnapshot) RequirementTypeIDs() []string {
	ids := make([]string, 0, len(s.RequirementTypes))
	for id := range s.RequirementTypes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
