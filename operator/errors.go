package operator

import (
	"errors"
	"fmt"

	"github.com/zerfoo/zerfoo/hook"
)

// BadStateError is raised synchronously to the caller on an illegal
// lifecycle transition (§4.4, §6).
type BadStateError struct {
	Current string
	Attempt string
}

func (e *BadStateError) Error() string {
	return fmt.Sprintf("operator: bad state transition %q from %q", e.Attempt, e.Current)
}

// RequiredByDependentsError is raised when detaching a hook that other
// attached hooks still require (Invariant 3).
type RequiredByDependentsError struct {
	Hook       hook.Hook
	Dependents []hook.Hook
}

func (e *RequiredByDependentsError) Error() string {
	return fmt.Sprintf("operator: hook required by %d dependents", len(e.Dependents))
}

// TooManyPushersError is raised when a worker pushes into an epoch slot
// array that is already full (Invariant 5).
type TooManyPushersError struct {
	Epoch  int
	Worker int
}

func (e *TooManyPushersError) Error() string {
	return fmt.Sprintf("operator: too many pushers for epoch %d (worker %d)", e.Epoch, e.Worker)
}

// UnknownHookError is raised when querying bookkeeping (invocation index,
// invocation target) for a hook that is not attached.
type UnknownHookError struct {
	Hook hook.Hook
}

func (e *UnknownHookError) Error() string {
	return "operator: unknown hook"
}

// ErrUnassignedNetwork is raised while the authoritative network is unset:
// by PullProgress, and by PushProgress when an epoch merge is due.
var ErrUnassignedNetwork = errors.New("operator: unassigned network")

var errInvalidWorkerCount = errors.New("operator: worker_count must be > 0")

var errNilWorkerKind = errors.New("operator: worker kind is required")

// ValidationError wraps a hook validation failure from package hook,
// returned by AttachLocalHook/AttachGlobalHook before any state change.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("operator: hook validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
