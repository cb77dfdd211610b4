package operator

import (
	"context"
	"sync"

	"github.com/zerfoo/zerfoo/hook"
	"github.com/zerfoo/zerfoo/registry"
)

// fakeNetwork is a trivial Network double holding a single named float32
// parameter addressable as "layers.0.weight" so DefaultNetworkMerger has
// something to resolve and average.
type fakeNetwork struct {
	reg *registry.Registry
}

func newFakeNetwork(weight float32) *fakeNetwork {
	n := &fakeNetwork{reg: registry.New("network")}

	layers := n.reg.NewChild("layers")
	layer := layers.NewChild("0", "layer")
	_ = layer.Set("weight", weight)

	return n
}

func (n *fakeNetwork) DeepCopy() Network {
	return newFakeNetwork(n.Weight())
}

func (n *fakeNetwork) Registry() *registry.Registry {
	return n.reg
}

// Weight reads the current "layers.0.weight" value straight out of the
// registry, so it reflects writes NetworkMerger makes directly against
// the registry rather than a separately tracked field.
func (n *fakeNetwork) Weight() float32 {
	layersVal, _ := n.reg.Get("layers")

	layers, _ := layersVal.(*registry.Registry)
	if layers == nil {
		return 0
	}

	layerVal, _ := layers.Get("0")

	layer, _ := layerVal.(*registry.Registry)
	if layer == nil {
		return 0
	}

	weightVal, _ := layer.Get("weight")

	w, _ := weightVal.(float32)

	return w
}

type fakeOptimiser struct {
	step int
}

func (o *fakeOptimiser) DeepCopy() Optimiser {
	return &fakeOptimiser{step: o.step}
}

type fakeIterator struct {
	pos int
}

func (it *fakeIterator) ShallowCopy() DataIterator {
	cp := *it

	return &cp
}

// fakeWorkerKind is a WorkerKind double whose per-worker lifecycle calls
// are purely observational (recorded into a slice under a mutex) so tests
// can assert ordering and counts without any real training loop.
type fakeWorkerKind struct {
	mu          sync.Mutex
	calls       []string
	optimiser   Optimiser
	iterator    DataIterator
	newWorkerFn func(index int) (*Worker, error)
}

func newFakeWorkerKind() *fakeWorkerKind {
	return &fakeWorkerKind{
		optimiser: &fakeOptimiser{},
		iterator:  &fakeIterator{},
	}
}

func (f *fakeWorkerKind) record(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, s)
}

func (f *fakeWorkerKind) NewWorker(index int) (*Worker, error) {
	if f.newWorkerFn != nil {
		return f.newWorkerFn(index)
	}

	return &Worker{LocalNetwork: newFakeNetwork(0)}, nil
}

func (f *fakeWorkerKind) OriginalOptimiser() Optimiser   { return f.optimiser }
func (f *fakeWorkerKind) OriginalIterator() DataIterator { return f.iterator }

func (f *fakeWorkerKind) StartWorker(context.Context, *Worker) error {
	f.record("start")

	return nil
}

func (f *fakeWorkerKind) RunWorkerOnce(context.Context, *Worker) error {
	f.record("run_once")

	return nil
}

func (f *fakeWorkerKind) PauseWorker(context.Context, *Worker) error {
	f.record("pause")

	return nil
}

func (f *fakeWorkerKind) ResumeWorker(context.Context, *Worker) error {
	f.record("resume")

	return nil
}

func (f *fakeWorkerKind) StopWorker(context.Context, *Worker) error {
	f.record("stop")

	return nil
}

// fakeHook is a minimal hook.Hook double for exercising attach/detach,
// invocation ordering, and dispatch.
type fakeHook struct {
	name       string
	ts         hook.TimeStep
	background bool
	required   []hook.Hook
	entries    []string
	equalsFn   func(other hook.Hook) bool

	mu       sync.Mutex
	invoked  int
	invokeFn func(ctx context.Context, reg *registry.Registry, resolver *registry.RegistryResolver) error
}

func (f *fakeHook) TimeStep() hook.TimeStep          { return f.ts }
func (f *fakeHook) InvokeInBackground() bool         { return f.background }
func (f *fakeHook) RequiredHooks() []hook.Hook       { return f.required }
func (f *fakeHook) RequiredRegistryEntries() []string { return f.entries }
func (f *fakeHook) SetOperator(hook.OperatorView)    {}

func (f *fakeHook) FunctionallyEquals(other hook.Hook) bool {
	if f.equalsFn != nil {
		return f.equalsFn(other)
	}

	o, ok := other.(*fakeHook)

	return ok && o.name == f.name
}

func (f *fakeHook) Invoke(ctx context.Context, reg *registry.Registry, resolver *registry.RegistryResolver) error {
	f.mu.Lock()
	f.invoked++
	f.mu.Unlock()

	if f.invokeFn != nil {
		return f.invokeFn(ctx, reg, resolver)
	}

	return nil
}

func (f *fakeHook) invokeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.invoked
}

func newFakeHook(name string, scale hook.TimeScale) *fakeHook {
	return &fakeHook{
		name: name,
		ts:   hook.TimeStep{Scale: scale, Interval: 1, LiveTime: hook.Forever},
	}
}
