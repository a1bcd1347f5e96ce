// Package changeset computes the actions needed to reconcile a live
// module with an external tracker snapshot. The result is a flat,
// ordered list of change actions: type-system actions first, then work
// item actions, with the module's own action last so that module-scoped
// deletions trail every creation and relocation that could retract
// them.
package changeset

import (
	"fmt"

	"github.com/steveyegge/reqsync/internal/config"
	"github.com/steveyegge/reqsync/internal/model"
	"github.com/steveyegge/reqsync/internal/types"
)

// Options carries the optional hooks of a reconciliation run.
type Options struct {
	// OnWarning receives non-fatal findings about the snapshot, such
	// as items referencing undeclared requirement types. Nil means
	// warnings are discarded.
	OnWarning func(message string)
}

// TrackerChange computes the change actions for one module against one
// snapshot. A TrackerChange is single-use: construct it, call
// Calculate once, discard it.
type TrackerChange struct {
	snapshot   *types.TrackerSnapshot
	cfg        config.TrackerConfig
	finder     *model.Finder
	module     *model.Module
	typeFolder *model.RequirementTypeFolder

	// locationChanged marks item identifiers proven relocated during
	// the walk so trailing deletion sweeps skip them.
	locationChanged map[string]bool
	ledger          *DeletionLedger

	warn func(string)
}

// NewTrackerChange resolves the configured module in the live model and
// prepares a reconciliation. It fails with ErrInvalidTrackerConfig when
// the config names no module uuid and with MissingModuleError when the
// uuid does not resolve.
func NewTrackerChange(m *model.Model, cfg config.TrackerConfig, snapshot *types.TrackerSnapshot, opts Options) (*TrackerChange, error) {
	if cfg.UUID == "" {
		return nil, fmt.Errorf("%s: %w", cfg.Name, ErrInvalidTrackerConfig)
	}
	module := m.ModuleByUUID(cfg.UUID)
	if module == nil {
		return nil, &MissingModuleError{UUID: cfg.UUID}
	}

	tc := &TrackerChange{
		snapshot:        snapshot,
		cfg:             cfg,
		module:          module,
		typeFolder:      module.TypeFolder,
		locationChanged: make(map[string]bool),
		ledger:          NewDeletionLedger(),
		warn:            opts.OnWarning,
	}
	tc.finder = model.NewFinder(module)
	return tc, nil
}

func (tc *TrackerChange) warnf(format string, args ...any) {
	if tc.warn != nil {
		tc.warn(fmt.Sprintf(format, args...))
	}
}

// Calculate runs the reconciliation and returns the ordered action
// list. An invalid attribute value aborts the whole module: no partial
// list is returned.
func (tc *TrackerChange) Calculate() ([]*types.ChangeAction, error) {
	var actions []*types.ChangeAction
	var base *types.ChangeAction
	if tc.typeFolder == nil {
		// On a bare module the type folder creation doubles as the
		// module action: item extends and deletions merge into it, so
		// the whole bootstrap lands in a single top-level action.
		base = tc.typeFolderCreateAction()
	} else {
		actions = append(actions, tc.dataTypeActions()...)
		actions = append(actions, tc.requirementTypeActions()...)
		base = types.NewAction(types.UUIDRef(tc.module.UUID))
	}
	visited := make(map[string]bool)

	for _, item := range tc.snapshot.Items {
		id := string(item.ID)
		visited[id] = true
		slot := types.SlotRequirements
		if item.IsFolder() {
			slot = types.SlotFolders
		}

		live := tc.finder.WorkItemByIdentifier(id)
		if live == nil {
			payload, acts, err := tc.itemCreateActions(item)
			if err != nil {
				return nil, err
			}
			base.MergeExtend(slot, *payload)
			actions = append(actions, acts...)
			continue
		}

		acts, err := tc.itemModActions(live, item, tc.module.UUID)
		if err != nil {
			return nil, err
		}
		if live.ItemParent() != tc.module.UUID {
			base.MergeExtend(slot, types.UUIDRef(live.ItemUUID()))
		}
		actions = append(actions, acts...)
	}

	tc.proposeModuleDeletions(base, types.SlotFolders, visited)
	tc.proposeModuleDeletions(base, types.SlotRequirements, visited)

	actions = append(actions, base)
	return types.PruneVoid(actions), nil
}

// proposeModuleDeletions sweeps the module's direct children behind
// slot, queueing deletions for those neither present in the snapshot
// nor relocated elsewhere in this batch.
func (tc *TrackerChange) proposeModuleDeletions(base *types.ChangeAction, slot string, visited map[string]bool) {
	for _, child := range tc.module.Items(slot) {
		if visited[child.ItemIdentifier()] || tc.locationChanged[child.ItemIdentifier()] {
			continue
		}
		base.MergeDelete(slot, types.UUIDRef(child.ItemUUID()))
		tc.ledger.Propose(child.ItemUUID(), base, slot)
	}
}

// Calculate reconciles one module with one snapshot in a single call.
func Calculate(m *model.Model, cfg config.TrackerConfig, snapshot *types.TrackerSnapshot, opts Options) ([]*types.ChangeAction, error) {
	tc, err := NewTrackerChange(m, cfg, snapshot, opts)
	if err != nil {
		return nil, err
	}
	return tc.Calculate()
}
