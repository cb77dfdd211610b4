package operator

import (
	"context"

	"github.com/zerfoo/zerfoo/registry"
)

// Network is the opaque, deep-copyable collaborator the operator trains.
// Its parameters are exposed through a Registry so that the scheduler,
// hooks, and the network merger can all address them uniformly by match
// identifier (e.g. "layers.*.*") without the operator core knowing
// anything about tensors, layers, or shapes.
type Network interface {
	// DeepCopy returns an independent copy suitable for handing to a
	// worker or for recording into pushed_epoch_networks.
	DeepCopy() Network
	// Registry exposes the network's parameters as a registry tree.
	Registry() *registry.Registry
}

// DataIterator is the opaque, shallow-copyable per-worker data source.
type DataIterator interface {
	// ShallowCopy returns a copy sharing the underlying dataset but with
	// independent cursor state, suitable for handing to a worker.
	ShallowCopy() DataIterator
}

// Optimiser is the opaque, deep-copyable per-worker optimiser state.
type Optimiser interface {
	DeepCopy() Optimiser
}

// ComputationHandler is the opaque collaborator the network merger uses to
// combine per-worker parameter values. It is consumed, never inspected, by
// operator logic.
type ComputationHandler interface {
	// Average combines N matched values (all resolved from the same
	// match path across N networks) into one. len(values) > 0.
	Average(values []any) (any, error)
}

// NetworkMerger reduces an array of N per-worker networks into the
// authoritative one. The default implementation averages every parameter
// selected by a registry match pattern (default "layers.*.*"). Mergers
// must be pure with respect to everything outside the authoritative
// network's parameters and all-or-nothing: a failure must leave the
// authoritative network untouched (§7, Collaborator errors).
type NetworkMerger interface {
	Merge(ctx context.Context, authoritative Network, pushed []Network, handler ComputationHandler) error
}

// DefaultNetworkMerger implements NetworkMerger by averaging every
// parameter matching pattern across the authoritative network and all
// pushed networks, assuming all registries share identical structure.
type DefaultNetworkMerger struct {
	// Pattern is the match identifier selecting mergeable parameters.
	// Defaults to "layers.*.*" when empty.
	Pattern string
}

// NewDefaultNetworkMerger returns the default average-merge strategy over
// "layers.*.*".
func NewDefaultNetworkMerger() *DefaultNetworkMerger {
	return &DefaultNetworkMerger{Pattern: "layers.*.*"}
}

// Merge implements NetworkMerger. It resolves Pattern against the
// authoritative network, then for each matched path resolves the same
// literal path against every pushed network, averages the N+1 values
// (including the authoritative one) via handler, and writes the result
// back onto the authoritative registry. A resolution failure on any
// pushed network aborts before any write, so the authoritative network is
// left untouched on error.
func (m *DefaultNetworkMerger) Merge(_ context.Context, authoritative Network, pushed []Network, handler ComputationHandler) error {
	pattern := m.Pattern
	if pattern == "" {
		pattern = "layers.*.*"
	}

	authResolver := registry.NewResolver(authoritative.Registry())

	matches, err := authResolver.Resolve(pattern)
	if err != nil {
		return err
	}

	type plannedWrite struct {
		match  registry.Match
		merged any
	}

	writes := make([]plannedWrite, 0, len(matches))

	for _, match := range matches {
		values := make([]any, 0, len(pushed)+1)

		authVal, _ := match.Value()
		values = append(values, authVal)

		for _, net := range pushed {
			netResolver := registry.NewResolver(net.Registry())

			v, err := netResolver.ResolveSingle(match.Path)
			if err != nil {
				return err
			}

			values = append(values, v)
		}

		merged, err := handler.Average(values)
		if err != nil {
			return err
		}

		writes = append(writes, plannedWrite{match: match, merged: merged})
	}

	for _, w := range writes {
		if err := w.match.Registry.Set(w.match.Key, w.merged); err != nil {
			return err
		}
	}

	return nil
}
