package changeset

import "github.com/steveyegge/reqsync/internal/types"

// DeletionLedger indexes pending deletion proposals by entity uuid so a
// deletion queued at one scope can be retracted when later traversal
// proves the entity was relocated rather than removed. The ledger keeps
// the invariant that no entity is both deleted and relocated within the
// same batch.
type DeletionLedger struct {
	pending map[string]pendingDeletion
}

type pendingDeletion struct {
	action *types.ChangeAction
	slot   string
}

// NewDeletionLedger returns an empty ledger.
func NewDeletionLedger() *DeletionLedger {
	return &DeletionLedger{pending: make(map[string]pendingDeletion)}
}

// Propose records that action currently proposes deleting the entity
// from the given slot of its parent.
func (l *DeletionLedger) Propose(uuid string, action *types.ChangeAction, slot string) {
	l.pending[uuid] = pendingDeletion{action: action, slot: slot}
}

// Retract removes the entity's pending deletion, pruning empty slots
// and fragments from the recorded action. A retraction for an entity
// that was never proposed is a no-op.
func (l *DeletionLedger) Retract(uuid string) {
	p, ok := l.pending[uuid]
	if !ok {
		return
	}
	p.action.RemoveDelete(p.slot, uuid)
	delete(l.pending, uuid)
}

// Proposed reports whether the entity currently has a pending deletion.
func (l *DeletionLedger) Proposed(uuid string) bool {
	_, ok := l.pending[uuid]
	return ok
}
