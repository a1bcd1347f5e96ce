// Package tracker orchestrates reconciliation runs: it loads the
// persisted model, pairs each configured module with its snapshot,
// computes changesets and optionally applies them back to the model
// file.
package tracker

import (
	"fmt"

	"github.com/steveyegge/reqsync/internal/apply"
	"github.com/steveyegge/reqsync/internal/changeset"
	"github.com/steveyegge/reqsync/internal/config"
	"github.com/steveyegge/reqsync/internal/model"
	"github.com/steveyegge/reqsync/internal/snapshot"
	"github.com/steveyegge/reqsync/internal/types"
)

// Engine drives reconciliation for every module in one config.
type Engine struct {
	Config *config.Config
	Model  *model.Model

	// Callbacks for UI feedback (optional).
	OnMessage func(msg string)
	OnWarning func(msg string)
}

// NewEngine loads the model named by the config and returns an engine
// over it.
func NewEngine(cfg *config.Config) (*Engine, error) {
	m, err := model.Load(cfg.Model.Path)
	if err != nil {
		return nil, err
	}
	return &Engine{Config: cfg, Model: m}, nil
}

// ModulePlan is the computed changeset for one module.
type ModulePlan struct {
	Config   config.TrackerConfig
	Snapshot *types.TrackerSnapshot
	Actions  []*types.ChangeAction
}

// Counts tallies the plan's creations (extended elements), field
// modifications and deletion references across all actions.
func (p *ModulePlan) Counts() (creates, modifies, deletes int) {
	for _, action := range p.Actions {
		for _, els := range action.Extend {
			creates += len(els)
		}
		modifies += len(action.Modify)
		for _, refs := range action.Delete {
			deletes += len(refs)
		}
	}
	return creates, modifies, deletes
}

// Plan computes the changeset for one configured module.
func (e *Engine) Plan(mc config.TrackerConfig) (*ModulePlan, error) {
	snap, err := e.snapshotFor(mc)
	if err != nil {
		return nil, err
	}
	actions, err := changeset.Calculate(e.Model, mc, snap, changeset.Options{
		OnWarning: e.warnFor(mc),
	})
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", mc.DisplayName(), err)
	}
	return &ModulePlan{Config: mc, Snapshot: snap, Actions: actions}, nil
}

// PlanAll computes changesets for every configured module. A module
// that fails is reported through OnWarning and skipped so one broken
// snapshot does not block the rest.
func (e *Engine) PlanAll() []*ModulePlan {
	plans := make([]*ModulePlan, 0, len(e.Config.Modules))
	for _, mc := range e.Config.Modules {
		plan, err := e.Plan(mc)
		if err != nil {
			e.warn(err.Error())
			continue
		}
		plans = append(plans, plan)
	}
	return plans
}

// Apply executes the plans against the in-memory model and writes the
// model file back.
func (e *Engine) Apply(plans []*ModulePlan) error {
	ap := apply.NewApplier(e.Model, apply.Options{})
	for _, plan := range plans {
		if err := ap.Apply(plan.Actions); err != nil {
			return fmt.Errorf("module %s: %w", plan.Config.DisplayName(), err)
		}
		e.message(fmt.Sprintf("applied %d actions to module %s",
			len(plan.Actions), plan.Config.DisplayName()))
	}
	return model.Save(e.Config.Model.Path, e.Model)
}

// snapshotFor loads the module's snapshot file and selects the snapshot
// belonging to it: by external id when the file holds several, or the
// single document otherwise.
func (e *Engine) snapshotFor(mc config.TrackerConfig) (*types.TrackerSnapshot, error) {
	if mc.Snapshot == "" {
		return nil, fmt.Errorf("module %s: no snapshot file configured", mc.DisplayName())
	}
	snaps, err := snapshot.Load(mc.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", mc.DisplayName(), err)
	}
	if len(snaps) == 1 && mc.ExternalID == "" {
		return snaps[0], nil
	}
	for _, snap := range snaps {
		if snap.ID == mc.ExternalID {
			return snap, nil
		}
	}
	return nil, fmt.Errorf("module %s: snapshot file %s has no snapshot with id %q",
		mc.DisplayName(), mc.Snapshot, mc.ExternalID)
}

func (e *Engine) warnFor(mc config.TrackerConfig) func(string) {
	return func(msg string) {
		e.warn(fmt.Sprintf("module %s: %s", mc.DisplayName(), msg))
	}
}

func (e *Engine) warn(msg string) {
	if e.OnWarning != nil {
		e.OnWarning(msg)
	}
}

func (e *Engine) message(msg string) {
	if e.OnMessage != nil {
		e.OnMessage(msg)
	}
}
