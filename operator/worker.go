package operator

import (
	"context"

	"github.com/zerfoo/zerfoo/registry"
)

// Worker is the unit of parallel training: it owns a local network copy, a
// local optimiser, a local data iterator, and its own epoch/iteration
// counters. Workers are identified by a stable index in [0, worker_count).
type Worker struct {
	Index int

	LocalNetwork         Network
	LocalOptimiser       Optimiser
	LocalIterator        DataIterator
	LocalEpochNumber     int
	LocalIterationNumber int

	// Registry is the worker's own registry tree, populated by
	// PopulateWorkerRegistry before local hook invocation.
	Registry *registry.Registry
}

// WorkerKind is the abstract factory and lifecycle strategy for workers —
// the only open extension point in the operator core (§9 design notes).
// Concrete training applications implement it to supply how a worker is
// constructed and how it is told to start, run once, pause, resume, and
// stop.
type WorkerKind interface {
	// NewWorker constructs a fresh worker shell for the given index.
	// The operator fills in LocalOptimiser, LocalIterator, and Registry
	// immediately afterward during PrepareWorkers.
	NewWorker(index int) (*Worker, error)

	// OriginalOptimiser and OriginalIterator return the canonical,
	// un-copied collaborators PrepareWorkers deep/shallow-copies from,
	// and that populate the operator-level registry's "optimiser" and
	// "iterator" reserved keys.
	OriginalOptimiser() Optimiser
	OriginalIterator() DataIterator

	StartWorker(ctx context.Context, w *Worker) error
	RunWorkerOnce(ctx context.Context, w *Worker) error
	PauseWorker(ctx context.Context, w *Worker) error
	ResumeWorker(ctx context.Context, w *Worker) error
	StopWorker(ctx context.Context, w *Worker) error
}
