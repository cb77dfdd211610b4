// Package hook defines the scheduled-callback contract used by the
// training operator: time scales, time steps, and the Hook interface
// itself. It has no dependency on the operator package so that hooks and
// the scheduler that drives them can be defined without an import cycle —
// the operator implements OperatorView and hands it to a hook just before
// invoking it.
package hook

import (
	"context"
	"errors"

	"github.com/zerfoo/zerfoo/registry"
)

// TimeScale names a point in the training timeline a hook can be
// scheduled against.
type TimeScale int

const (
	// Start fires once when the operator transitions into Running.
	Start TimeScale = iota
	// Iteration fires when all workers have reported the same iteration
	// number.
	Iteration
	// Epoch fires when the authoritative network has just been merged
	// from all workers' pushed networks.
	Epoch
	// Stop fires once when the operator transitions into Stopped.
	Stop
)

// String implements fmt.Stringer for readable test failures and logs.
func (ts TimeScale) String() string {
	switch ts {
	case Start:
		return "Start"
	case Iteration:
		return "Iteration"
	case Epoch:
		return "Epoch"
	case Stop:
		return "Stop"
	default:
		return "Unknown"
	}
}

// Forever is the LiveTime value meaning a hook never expires.
const Forever = -1

// TimeStep is a (scale, interval, live_time) schedule: how many ticks of
// scale between firings, and how many firings before the hook expires.
type TimeStep struct {
	Scale    TimeScale
	Interval int
	LiveTime int
}

// LocalTimeStep is a per-hook live copy of a TimeStep, tracking the
// countdown to the next firing and the remaining number of firings.
type LocalTimeStep struct {
	TimeStep
	localInterval int
	localLiveTime int
}

// NewLocalTimeStep initializes a local copy of ts with full countdowns.
func NewLocalTimeStep(ts TimeStep) *LocalTimeStep {
	return &LocalTimeStep{
		TimeStep:      ts,
		localInterval: ts.Interval,
		localLiveTime: ts.LiveTime,
	}
}

// Tick advances the local countdown by one tick of the schedule's scale.
// It reports whether the hook should fire this tick, and whether the
// schedule has now expired (in which case it will never fire again).
func (l *LocalTimeStep) Tick() (fire bool, expired bool) {
	if l.localLiveTime == 0 {
		return false, true
	}

	l.localInterval--
	if l.localInterval == 0 {
		fire = true

		if l.localLiveTime > 0 {
			l.localLiveTime--
		}

		l.localInterval = l.Interval
	}

	return fire, l.localLiveTime == 0 && fire
}

// OperatorView is the read-only surface of the operator a hook needs
// during invocation. It is deliberately small and non-generic: hooks read
// progress counters off the registry populated for them (§4.5) rather than
// reaching back into operator internals, except for the two counters named
// here which have no natural registry home of their own.
type OperatorView interface {
	EpochNumber() int
	HighestIterationNumber() int
}

// Hook is the capability set every scheduled callback implements:
// TimeStep, InvokeInBackground, RequiredHooks, RequiredRegistryEntries,
// FunctionallyEquals, SetOperator, Invoke.
//
// FunctionallyEquals MUST be reflexive and symmetric. The scheduler uses it
// conservatively for deduplication (first match wins); transitivity is not
// required.
type Hook interface {
	TimeStep() TimeStep
	InvokeInBackground() bool
	RequiredHooks() []Hook
	RequiredRegistryEntries() []string
	FunctionallyEquals(other Hook) bool
	// SetOperator is called by the scheduler immediately before Invoke.
	// A hook is never invoked for two operators concurrently, so this is
	// safe without additional synchronization on the hook itself.
	SetOperator(op OperatorView)
	Invoke(ctx context.Context, reg *registry.Registry, resolver *registry.RegistryResolver) error
}

// ErrNilTimeStep is returned by Validate when a hook's TimeStep is
// unschedulable: an interval of zero or less, or a LiveTime below Forever.
var ErrNilTimeStep = errors.New("hook: invalid time step")

// ErrCyclicRequiredHooks is returned by Validate when a hook's
// required-hooks graph, considered in isolation of attachment, contains a
// cycle.
var ErrCyclicRequiredHooks = errors.New("hook: cyclic required hooks")

// ErrUnserializableRegistryEntry is returned by Validate when a
// background hook declares an empty registry entry key, which can never
// be resolved into a snapshot.
var ErrUnserializableRegistryEntry = errors.New("hook: unserializable required registry entry")

// Validate performs the structural checks the spec assigns to hook
// attachment: a well-formed TimeStep, no cycle in the required-hooks
// subgraph reachable from h, and (for background hooks) non-empty
// required-registry-entry keys.
func Validate(h Hook) error {
	ts := h.TimeStep()
	if ts.Interval <= 0 {
		return ErrNilTimeStep
	}

	if ts.LiveTime < Forever {
		return ErrNilTimeStep
	}

	if err := detectCycle(h, make(map[Hook]int)); err != nil {
		return err
	}

	if h.InvokeInBackground() {
		for _, key := range h.RequiredRegistryEntries() {
			if key == "" {
				return ErrUnserializableRegistryEntry
			}
		}
	}

	return nil
}

const (
	stateVisiting = 1
	stateDone     = 2
)

func detectCycle(h Hook, state map[Hook]int) error {
	switch state[h] {
	case stateVisiting:
		return ErrCyclicRequiredHooks
	case stateDone:
		return nil
	}

	state[h] = stateVisiting

	for _, r := range h.RequiredHooks() {
		if err := detectCycle(r, state); err != nil {
			return err
		}
	}

	state[h] = stateDone

	return nil
}
