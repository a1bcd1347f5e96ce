// Package snapshot loads tracker snapshots from YAML files. A snapshot
// file holds either a single snapshot document or a list of them, one
// per module.
package snapshot

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/reqsync/internal/types"
)

// Load reads one snapshot file. Both of the accepted layouts are
// normalized to a list.
func Load(path string) ([]*types.TrackerSnapshot, error) {
	data, err := os.ReadFile(path) // #nosec G304 - snapshot path from config
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return Parse(data)
}

// Parse decodes snapshot YAML and validates every snapshot in it.
func Parse(data []byte) ([]*types.TrackerSnapshot, error) {
	var snapshots []*types.TrackerSnapshot
	if err := yaml.Unmarshal(data, &snapshots); err != nil {
		var single types.TrackerSnapshot
		if err2 := yaml.Unmarshal(data, &single); err2 != nil {
			// Most snapshot files are single documents, so the
			// single-doc decode error is the one worth reporting.
			return nil, fmt.Errorf("failed to parse snapshot: %w", err2)
		}
		snapshots = []*types.TrackerSnapshot{&single}
	}
	for _, snap := range snapshots {
		if err := Validate(snap); err != nil {
			return nil, err
		}
	}
	return snapshots, nil
}

// Validate checks the structural rules a snapshot must satisfy before
// reconciliation: a non-empty identity, known attribute kinds, enum
// definitions backed by a data type of the same name, and module-wide
// unique item identifiers.
func Validate(snap *types.TrackerSnapshot) error {
	if snap.ID == "" {
		return fmt.Errorf("snapshot is missing its id")
	}
	for _, id := range snap.RequirementTypeIDs() {
		spec := snap.RequirementTypes[id]
		for _, name := range spec.AttributeNames() {
			def := spec.Attributes[name]
			if !def.Kind.Valid() {
				return fmt.Errorf("snapshot %s: requirement type %q attribute %q has unknown kind %q",
					snap.ID, id, name, def.Kind)
			}
			if def.Kind == types.KindEnum {
				if _, ok := snap.DataTypes[name]; !ok {
					return fmt.Errorf("snapshot %s: enum attribute %q has no data type of that name",
						snap.ID, name)
				}
			}
		}
	}

	seen := make(map[string]bool)
	var walk func(items []*types.WorkItemSpec) error
	walk = func(items []*types.WorkItemSpec) error {
		for _, item := range items {
			id := string(item.ID)
			if id == "" {
				return fmt.Errorf("snapshot %s: item %q has no id", snap.ID, item.LongName)
			}
			if seen[id] {
				return fmt.Errorf("snapshot %s: duplicate item id %q", snap.ID, id)
			}
			seen[id] = true
			if err := walk(item.Children); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(snap.Items)
}
