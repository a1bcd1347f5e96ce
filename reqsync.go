// Package reqsync provides a minimal public API for embedding the
// changeset engine in other tools.
//
// Most integrations should use the reqsync CLI. This package exports
// only the essential types and functions needed to compute and apply
// changesets programmatically: load a model and a snapshot, calculate
// the actions, apply them back.
package reqsync

import (
	"github.com/steveyegge/reqsync/internal/apply"
	"github.com/steveyegge/reqsync/internal/changeset"
	"github.com/steveyegge/reqsync/internal/config"
	"github.com/steveyegge/reqsync/internal/model"
	"github.com/steveyegge/reqsync/internal/snapshot"
	"github.com/steveyegge/reqsync/internal/types"
)

// Core types for working with snapshots and actions
type (
	TrackerSnapshot = types.TrackerSnapshot
	WorkItemSpec    = types.WorkItemSpec
	ChangeAction    = types.ChangeAction
	Reference       = types.Reference
	AttributeKind   = types.AttributeKind

	Model         = model.Model
	Module        = model.Module
	TrackerConfig = config.TrackerConfig

	// Options carries the reconciliation hooks, currently OnWarning.
	Options = changeset.Options
)

// Attribute kind constants
const (
	KindString  = types.KindString
	KindEnum    = types.KindEnum
	KindDate    = types.KindDate
	KindInteger = types.KindInteger
	KindFloat   = types.KindFloat
	KindBoolean = types.KindBoolean
)

// LoadModel reads a persisted model file. A missing file yields an
// empty model.
func LoadModel(path string) (*Model, error) {
	return model.Load(path)
}

// SaveModel writes the model file atomically.
func SaveModel(path string, m *Model) error {
	return model.Save(path, m)
}

// LoadSnapshots reads and validates a snapshot file.
func LoadSnapshots(path string) ([]*TrackerSnapshot, error) {
	return snapshot.Load(path)
}

// Calculate computes the change actions reconciling the configured
// module with the snapshot.
func Calculate(m *Model, cfg TrackerConfig, snap *TrackerSnapshot, opts Options) ([]*ChangeAction, error) {
	return changeset.Calculate(m, cfg, snap, opts)
}

// Apply executes the actions against the model in memory.
func Apply(m *Model, actions []*ChangeAction) error {
	return apply.Apply(m, actions, apply.Options{})
}
