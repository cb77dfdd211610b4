package operator

import (
	"context"

	"github.com/zerfoo/zerfoo/registry"
)

// PrepareWorkers creates exactly worker_count workers via the trainer's
// abstract factory, deep-copies the trainer's optimiser and shallow-copies
// its iterator into each, assigns stable indices, and resets
// pushed_local_iteration_numbers. It is idempotent: a second call is a
// no-op (§4.4).
func (op *Operator) PrepareWorkers() {
	op.prepareMu.Lock()
	defer op.prepareMu.Unlock()

	if op.prepared {
		return
	}

	workers := make([]*Worker, 0, op.workerCount)

	for i := 0; i < op.workerCount; i++ {
		w, err := op.trainer.NewWorker(i)
		if err != nil {
			op.logger.Printf("prepare worker %d failed: %v", i, err)

			continue
		}

		w.Index = i
		w.LocalOptimiser = op.trainer.OriginalOptimiser().DeepCopy()
		w.LocalIterator = op.trainer.OriginalIterator().ShallowCopy()
		w.Registry = registry.New("worker")

		workers = append(workers, w)
	}

	op.workers = workers

	op.pushedIterMu.Lock()
	op.pushedLocalIterationNumbers = make(map[int][]int)
	op.pushedIterMu.Unlock()

	op.prepared = true
}

// Start transitions None/Stopped -> Running, preparing workers if needed
// and calling StartWorker on each. The caller returns immediately; the
// transition runs on its own goroutine. Use WaitForStateChanged to block
// until it completes.
func (op *Operator) Start() error {
	return op.signal("started",
		func(cur State) bool { return cur == StateNone || cur == StateStopped },
		StateRunning,
		op.trainer.StartWorker,
	)
}

// StartOnce transitions None/Stopped -> Running, calling RunWorkerOnce on
// each worker instead of StartWorker.
func (op *Operator) StartOnce() error {
	return op.signal("started",
		func(cur State) bool { return cur == StateNone || cur == StateStopped },
		StateRunning,
		op.trainer.RunWorkerOnce,
	)
}

// SignalPause transitions Running -> Paused.
func (op *Operator) SignalPause() error {
	return op.signal("paused",
		func(cur State) bool { return cur == StateRunning },
		StatePaused,
		op.trainer.PauseWorker,
	)
}

// SignalResume transitions Paused -> Running.
func (op *Operator) SignalResume() error {
	return op.signal("resumed",
		func(cur State) bool { return cur == StatePaused },
		StateRunning,
		op.trainer.ResumeWorker,
	)
}

// SignalStop transitions {Running, Paused} -> Stopped. It pauses then
// stops each worker (§4.4).
func (op *Operator) SignalStop() error {
	return op.signal("stopped",
		func(cur State) bool { return cur == StateRunning || cur == StatePaused },
		StateStopped,
		func(ctx context.Context, w *Worker) error {
			if err := op.trainer.PauseWorker(ctx, w); err != nil {
				op.logger.Printf("worker %d pause-before-stop failed: %v", w.Index, err)
			}

			return op.trainer.StopWorker(ctx, w)
		},
	)
}

// WaitForStateChanged blocks until any in-flight transition completes.
func (op *Operator) WaitForStateChanged() {
	op.stateMu.Lock()
	defer op.stateMu.Unlock()

	for op.transitioning {
		op.stateCond.Wait()
	}
}

// CurrentState returns the operator's current lifecycle state.
func (op *Operator) CurrentState() State {
	op.stateMu.Lock()
	defer op.stateMu.Unlock()

	return op.state
}

func (op *Operator) signal(attempt string, valid func(State) bool, next State, perWorker func(context.Context, *Worker) error) error {
	op.stateMu.Lock()

	cur := op.state
	if !valid(cur) {
		op.stateMu.Unlock()

		return &BadStateError{Current: cur.String(), Attempt: attempt}
	}

	op.transitioning = true

	op.stateMu.Unlock()

	go func() {
		ctx := context.Background()

		op.PrepareWorkers()

		for _, w := range op.workers {
			if w == nil {
				continue
			}

			if err := perWorker(ctx, w); err != nil {
				op.logger.Printf("worker %d %s failed: %v", w.Index, attempt, err)
			}
		}

		op.stateMu.Lock()
		op.state = next
		op.transitioning = false
		op.stateCond.Broadcast()
		op.stateMu.Unlock()
	}()

	return nil
}
