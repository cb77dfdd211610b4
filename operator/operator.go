// Package operator implements the training operator core: the
// fan-out/fan-in coordinator that drives parallel data-parallel training
// across a fixed pool of workers, merges their parameters at epoch
// boundaries, and dispatches user-extensible hooks at well-defined points
// in the training timeline.
package operator

import (
	"context"
	"log"
	"sync"

	"github.com/zerfoo/zerfoo/hook"
	"github.com/zerfoo/zerfoo/registry"
)

// State is the operator's lifecycle state (§4.4).
type State int

const (
	// StateNone is the initial state before the first Start/StartOnce.
	StateNone State = iota
	// StateRunning is the state while workers are actively ticking.
	StateRunning
	// StatePaused is the state after SignalPause.
	StatePaused
	// StateStopped is the terminal state after SignalStop.
	StateStopped
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Operator coordinates fixed-size worker pools, epoch/iteration barriers,
// parameter merging, and hook scheduling (§3, §4.4–§4.6).
//
// Lock acquisition order, when more than one of these is held at once,
// is always state -> network -> pushedEpoch -> pushedIter, per §5 and §9;
// in practice the operator never nests these locks at all (each guarded
// section releases its lock before acquiring the next), which trivially
// satisfies the ordering constraint while avoiding any risk of deadlock.
type Operator struct {
	workerCount int
	trainer     WorkerKind
	merger      NetworkMerger
	handler     ComputationHandler
	logger      *log.Logger

	stateMu       sync.Mutex
	stateCond     *sync.Cond
	state         State
	transitioning bool

	prepareMu sync.Mutex
	prepared  bool
	workers   []*Worker

	networkMu sync.RWMutex
	network   Network

	pushedEpochMu       sync.Mutex
	pushedEpochNetworks map[int][]Network
	mergedEpochs        map[int]bool

	pushedIterMu                sync.Mutex
	pushedLocalIterationNumbers map[int][]int

	countersMu             sync.RWMutex
	epochNumber            int
	highestIterationNumber int

	reg       *registry.Registry
	sharedReg *registry.Registry

	local    *tier
	global   *tier
	liveness *localLiveness

	taskPool *TaskPool
}

// New constructs an Operator. worker_count must be > 0; trainer is the
// worker-kind strategy (§9's only open extension point) and is required.
func New(cfg Config, trainer WorkerKind) (*Operator, error) {
	if cfg.WorkerCount <= 0 {
		return nil, &ValidationError{Err: errInvalidWorkerCount}
	}

	if trainer == nil {
		return nil, &ValidationError{Err: errNilWorkerKind}
	}

	cfg = cfg.withDefaults()

	reg := registry.New("operator")
	shared := reg.NewChild("shared", "shared")

	op := &Operator{
		workerCount:                 cfg.WorkerCount,
		trainer:                     trainer,
		merger:                      cfg.NetworkMerger,
		handler:                     cfg.Handler,
		logger:                      cfg.Logger,
		pushedEpochNetworks:         make(map[int][]Network),
		mergedEpochs:                make(map[int]bool),
		pushedLocalIterationNumbers: make(map[int][]int),
		reg:                         reg,
		sharedReg:                   shared,
		local:                       newTier(),
		global:                      newTier(),
		liveness:                    newLocalLiveness(),
		taskPool:                    NewTaskPool(cfg.WorkerCount),
	}
	op.stateCond = sync.NewCond(&op.stateMu)

	return op, nil
}

// SetNetwork assigns the authoritative network. It must be called before
// the first PullProgress; the operator never constructs a network itself
// (the tensor backend / network topology is an out-of-scope collaborator,
// §1).
func (op *Operator) SetNetwork(n Network) {
	op.networkMu.Lock()
	defer op.networkMu.Unlock()

	op.network = n
}

// Network returns the current authoritative network, or nil if unset.
func (op *Operator) Network() Network {
	op.networkMu.RLock()
	defer op.networkMu.RUnlock()

	return op.network
}

// EpochNumber implements hook.OperatorView.
func (op *Operator) EpochNumber() int {
	op.countersMu.RLock()
	defer op.countersMu.RUnlock()

	return op.epochNumber
}

// HighestIterationNumber implements hook.OperatorView.
func (op *Operator) HighestIterationNumber() int {
	op.countersMu.RLock()
	defer op.countersMu.RUnlock()

	return op.highestIterationNumber
}

// Workers returns the prepared worker set, or nil before PrepareWorkers.
func (op *Operator) Workers() []*Worker {
	op.prepareMu.Lock()
	defer op.prepareMu.Unlock()

	out := make([]*Worker, len(op.workers))
	copy(out, op.workers)

	return out
}

var _ hook.OperatorView = (*Operator)(nil)
