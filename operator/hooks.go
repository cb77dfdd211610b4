package operator

import "github.com/zerfoo/zerfoo/hook"

// AttachLocalHook attaches h to the local (per-worker) tier, validating it
// and recursively attaching its required hooks. Attaching a hook already
// present (by identity or FunctionallyEquals) is a no-op that returns the
// existing hook (Invariant 2 / S2).
func (op *Operator) AttachLocalHook(h hook.Hook) (hook.Hook, error) {
	resolved, _, err := op.local.attach(h, true)

	return resolved, err
}

// DetachLocalHook detaches h from the local tier. It fails with
// *RequiredByDependentsError if another attached local hook still requires
// it (Invariant 3).
func (op *Operator) DetachLocalHook(h hook.Hook) error {
	return op.local.detach(h)
}

// AttachGlobalHook attaches h to the global (operator-wide) tier.
func (op *Operator) AttachGlobalHook(h hook.Hook) (hook.Hook, error) {
	resolved, _, err := op.global.attach(h, true)

	return resolved, err
}

// DetachGlobalHook detaches h from the global tier.
func (op *Operator) DetachGlobalHook(h hook.Hook) error {
	return op.global.detach(h)
}

// MarkHookDead records that worker no longer wants the local hook h
// invoked. Once every worker has marked h dead, h is automatically
// detached from the local tier (S5).
func (op *Operator) MarkHookDead(h hook.Hook, worker int) error {
	resolved := op.local.findAttached(h)
	if resolved == nil {
		return &UnknownHookError{Hook: h}
	}

	allDead := op.liveness.markDead(resolved, worker, op.workerCount)
	if !allDead {
		return nil
	}

	op.liveness.forget(resolved)

	return op.local.detach(resolved)
}

// GetLocalHookInvocationIndex returns h's position in the local tier's
// invocation order.
func (op *Operator) GetLocalHookInvocationIndex(h hook.Hook) (int, error) {
	idx, ok := op.local.invocationIndexOf(h)
	if !ok {
		return 0, &UnknownHookError{Hook: h}
	}

	return idx, nil
}

// GetLocalHookInvocationTarget returns h's background-bucket target in the
// local tier (0 for foreground hooks).
func (op *Operator) GetLocalHookInvocationTarget(h hook.Hook) (uint64, error) {
	tgt, ok := op.local.invocationTargetOf(h)
	if !ok {
		return 0, &UnknownHookError{Hook: h}
	}

	return tgt, nil
}

// GetGlobalHookInvocationIndex returns h's position in the global tier's
// invocation order.
func (op *Operator) GetGlobalHookInvocationIndex(h hook.Hook) (int, error) {
	idx, ok := op.global.invocationIndexOf(h)
	if !ok {
		return 0, &UnknownHookError{Hook: h}
	}

	return idx, nil
}

// GetGlobalHookInvocationTarget returns h's background-bucket target in
// the global tier.
func (op *Operator) GetGlobalHookInvocationTarget(h hook.Hook) (uint64, error) {
	tgt, ok := op.global.invocationTargetOf(h)
	if !ok {
		return 0, &UnknownHookError{Hook: h}
	}

	return tgt, nil
}

// LocalHooks returns a snapshot of the hooks currently attached to the
// local tier, in attach order.
func (op *Operator) LocalHooks() []hook.Hook {
	return op.local.snapshot()
}

// GlobalHooks returns a snapshot of the hooks currently attached to the
// global tier, in attach order.
func (op *Operator) GlobalHooks() []hook.Hook {
	return op.global.snapshot()
}
