package operator

import (
	"context"

	"github.com/zerfoo/zerfoo/hook"
	"github.com/zerfoo/zerfoo/registry"
)

// PopulateWorkerRegistry refreshes w.Registry's reserved keys ("network",
// "optimiser", "iterator", "epoch", "iteration") and links it to the
// operator's shared registry under "shared", ahead of local hook
// invocation for w.
func (op *Operator) PopulateWorkerRegistry(w *Worker) {
	_ = w.Registry.Set("network", w.LocalNetwork)
	_ = w.Registry.Set("optimiser", w.LocalOptimiser)
	_ = w.Registry.Set("iterator", w.LocalIterator)
	_ = w.Registry.Set("epoch", w.LocalEpochNumber)
	_ = w.Registry.Set("iteration", w.LocalIterationNumber)
	_ = w.Registry.Set("shared", op.sharedReg)
}

// populateOperatorRegistry refreshes the operator-level registry's reserved
// keys ("network", "optimiser", "iterator", "trainer", "epoch",
// "iteration", "shared") ahead of global hook invocation.
func (op *Operator) populateOperatorRegistry() {
	_ = op.reg.Set("network", op.Network())
	_ = op.reg.Set("optimiser", op.trainer.OriginalOptimiser())
	_ = op.reg.Set("iterator", op.trainer.OriginalIterator())
	_ = op.reg.Set("trainer", op.trainer)
	_ = op.reg.Set("epoch", op.EpochNumber())
	_ = op.reg.Set("iteration", op.HighestIterationNumber())
	_ = op.reg.Set("shared", op.sharedReg)
}

// EmitLocalTimeScaleEvent ejects and invokes every local hook due at scale
// ts for worker w, honoring background invocation via the task pool.
func (op *Operator) EmitLocalTimeScaleEvent(ctx context.Context, w *Worker, ts hook.TimeScale) error {
	op.PopulateWorkerRegistry(w)

	due := op.local.eject(ts, w.Index, op.liveness)

	resolver := registry.NewResolver(w.Registry)

	return op.dispatch(ctx, op.local, due, w.Registry, resolver, w.Index)
}

// emitGlobalTimeScaleEvent ejects and invokes every global hook due at
// scale ts.
func (op *Operator) emitGlobalTimeScaleEvent(ctx context.Context, ts hook.TimeScale) error {
	op.populateOperatorRegistry()

	due := op.global.eject(ts, -1, nil)

	resolver := registry.NewResolver(op.reg)

	return op.dispatch(ctx, op.global, due, op.reg, resolver, -1)
}

// dispatch invokes the due hooks in invocation-index order. Foreground
// hooks (invocation target 0) run synchronously and in order; a
// foreground hook's failure is logged and dispatch proceeds to the next
// hook rather than aborting (§7: hook invocation errors do not propagate
// through the operator). Background hooks are submitted to the task pool
// bucketed by invocation target, so hooks sharing a target run strictly
// serially relative to each other while distinct targets may run
// concurrently (the documented upgrade over a single shared background
// queue, §9).
func (op *Operator) dispatch(ctx context.Context, t *tier, due []hook.Hook, reg *registry.Registry, resolver *registry.RegistryResolver, worker int) error {
	for _, h := range due {
		h.SetOperator(op)

		if !h.InvokeInBackground() {
			if err := h.Invoke(ctx, reg, resolver); err != nil {
				op.logger.Printf("foreground hook invocation failed (worker %d): %v", worker, err)
			}

			continue
		}

		target, _ := t.invocationTargetOf(h)
		hCopy := h

		op.taskPool.Submit(target, func() {
			if err := hCopy.Invoke(ctx, reg, resolver); err != nil {
				op.logger.Printf("background hook invocation failed (worker %d): %v", worker, err)
			}
		})
	}

	return nil
}
