package changeset

import (
	"errors"
	"fmt"
)

// ErrInvalidTrackerConfig is returned when a tracker config lacks the
// target module's uuid. The module's reconciliation is aborted and no
// partial action list is produced.
var ErrInvalidTrackerConfig = errors.New("tracker config is missing the target module uuid")

// MissingModuleError is returned when the configured module uuid does
// not resolve in the live model.
type MissingModuleError struct {
	UUID string
}

func (e *MissingModuleError) Error() string {
	return fmt.Sprintf("no module with uuid %s in the model", e.UUID)
}

// InvalidFieldValueError reports a snapshot attribute value that failed
// type or membership validation. It aborts the whole module's
// reconciliation.
type InvalidFieldValueError struct {
	Attribute string
	Value     any
	Reason    string
}

func (e *InvalidFieldValueError) Error() string {
	return fmt.Sprintf("broken snapshot: invalid value %v for attribute %q: %s",
		e.Value, e.Attribute, e.Reason)
}
