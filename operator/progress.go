package operator

import (
	"context"
	"fmt"

	"github.com/zerfoo/zerfoo/hook"
)

// PushProgress reports a worker's latest local state to the operator,
// checking both the epoch barrier and the iteration barrier (§4.5). It is
// the only path by which epochNumber/highestIterationNumber and the
// authoritative network advance.
func (op *Operator) PushProgress(ctx context.Context, w *Worker) error {
	if err := op.pushEpoch(ctx, w); err != nil {
		return err
	}

	op.pushIteration(ctx, w)

	return nil
}

// pushEpoch implements the epoch barrier: each worker that starts a new
// epoch (local_epoch_number > operator epoch_number, and it is the
// worker's first iteration of that epoch) contributes a deep copy of its
// local network into a per-epoch slot array. Once every worker has
// contributed, the configured NetworkMerger runs and the slot array for
// that epoch is deleted immediately after the merge call (the §9 open
// question on null-out timing is resolved literally: any hook needing the
// pre-merge snapshots must capture them itself before the merge, via its
// own required registry entries, not after).
func (op *Operator) pushEpoch(ctx context.Context, w *Worker) error {
	currentEpoch := op.EpochNumber()
	if !(w.LocalEpochNumber > currentEpoch && w.LocalIterationNumber == 1) {
		return nil
	}

	op.pushedEpochMu.Lock()

	epoch := w.LocalEpochNumber

	if op.mergedEpochs[epoch] {
		op.pushedEpochMu.Unlock()

		return nil
	}

	slots, ok := op.pushedEpochNetworks[epoch]
	if !ok {
		slots = make([]Network, op.workerCount)
		op.pushedEpochNetworks[epoch] = slots
	}

	if w.Index < 0 || w.Index >= len(slots) {
		op.pushedEpochMu.Unlock()

		return &TooManyPushersError{Epoch: epoch, Worker: w.Index}
	}

	if slots[w.Index] != nil {
		op.pushedEpochMu.Unlock()

		return &TooManyPushersError{Epoch: epoch, Worker: w.Index}
	}

	slots[w.Index] = w.LocalNetwork.DeepCopy()

	full := true

	for _, n := range slots {
		if n == nil {
			full = false

			break
		}
	}

	if !full {
		op.pushedEpochMu.Unlock()

		return nil
	}

	pushed := make([]Network, len(slots))
	copy(pushed, slots)

	op.mergedEpochs[epoch] = true
	delete(op.pushedEpochNetworks, epoch)

	op.pushedEpochMu.Unlock()

	authoritative := op.Network()
	if authoritative == nil {
		return ErrUnassignedNetwork
	}

	if err := op.merger.Merge(ctx, authoritative, pushed, op.handler); err != nil {
		return fmt.Errorf("operator: epoch %d merge failed: %w", epoch, err)
	}

	op.countersMu.Lock()
	op.epochNumber = epoch
	op.countersMu.Unlock()

	return op.emitGlobalTimeScaleEvent(ctx, hook.Epoch)
}

// pushIteration implements the iteration barrier: pushed_local_iteration_numbers
// is keyed per-epoch (§3), each epoch's slot array holding the last
// iteration number reported by each worker index. Once every slot for w's
// epoch equals w's just-reported iteration number, the barrier is met: if
// w's epoch is still the current one, highestIterationNumber advances
// (§4.5 guards this against a worker still finishing a stale epoch), and
// an Iteration time-scale event fires globally.
func (op *Operator) pushIteration(ctx context.Context, w *Worker) {
	op.pushedIterMu.Lock()

	epoch := w.LocalEpochNumber

	slots, ok := op.pushedLocalIterationNumbers[epoch]
	if !ok {
		slots = make([]int, op.workerCount)
		op.pushedLocalIterationNumbers[epoch] = slots
	}

	if w.Index >= 0 && w.Index < len(slots) {
		slots[w.Index] = w.LocalIterationNumber
	}

	barrierMet := true

	for _, v := range slots {
		if v != w.LocalIterationNumber {
			barrierMet = false

			break
		}
	}

	if barrierMet {
		delete(op.pushedLocalIterationNumbers, epoch)
	}

	op.pushedIterMu.Unlock()

	if !barrierMet {
		return
	}

	op.countersMu.Lock()
	if w.LocalEpochNumber == op.epochNumber && w.LocalIterationNumber > op.highestIterationNumber {
		op.highestIterationNumber = w.LocalIterationNumber
	}
	op.countersMu.Unlock()

	if err := op.emitGlobalTimeScaleEvent(ctx, hook.Iteration); err != nil {
		op.logger.Printf("iteration event dispatch failed: %v", err)
	}
}

// PullProgress refreshes w's local state from the authoritative network. As
// an optimization, when worker_count == 1 the worker's existing local
// network is reused in place rather than deep-copied, since there is no
// other worker it could be shared with.
func (op *Operator) PullProgress(w *Worker) error {
	authoritative := op.Network()
	if authoritative == nil {
		return ErrUnassignedNetwork
	}

	if op.workerCount == 1 && w.LocalNetwork != nil {
		return nil
	}

	w.LocalNetwork = authoritative.DeepCopy()

	return nil
}
