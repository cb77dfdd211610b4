package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/zerfoo/zerfoo/compute"
	"github.com/zerfoo/zerfoo/graph"
	"github.com/zerfoo/zerfoo/hook"
	"github.com/zerfoo/zerfoo/operator"
	"github.com/zerfoo/zerfoo/registry"
	"github.com/zerfoo/zerfoo/tensor"
	"github.com/zerfoo/zerfoo/training"
	"github.com/zerfoo/zerfoo/training/loss"
	"github.com/zerfoo/zerfoo/training/optimizer"
)

// syntheticDataset is the shared "true" linear function workers draw noisy
// samples from. It has no mutable state, so it is safe to share across
// worker iterator copies.
type syntheticDataset struct {
	trueWeights []float32
	trueBias    float32
}

func newSyntheticDataset(rng *rand.Rand, inputSize int) *syntheticDataset {
	weights := make([]float32, inputSize)
	for i := range weights {
		weights[i] = float32(rng.NormFloat64())
	}

	return &syntheticDataset{trueWeights: weights, trueBias: float32(rng.NormFloat64())}
}

// datasetIterator is a per-worker cursor over syntheticDataset, implementing
// operator.DataIterator.
type datasetIterator struct {
	dataset *syntheticDataset
	rng     *rand.Rand
}

func newDatasetIterator(dataset *syntheticDataset, seed int64) *datasetIterator {
	return &datasetIterator{dataset: dataset, rng: rand.New(rand.NewSource(seed))}
}

// ShallowCopy implements operator.DataIterator: shares the dataset's true
// function but gets an independently seeded cursor.
func (it *datasetIterator) ShallowCopy() operator.DataIterator {
	return newDatasetIterator(it.dataset, it.rng.Int63())
}

func (it *datasetIterator) next(inputSize int) (*tensor.TensorNumeric[float32], *tensor.TensorNumeric[float32], error) {
	features := make([]float32, inputSize)

	var sum float32

	for i := range features {
		v := float32(it.rng.NormFloat64())
		features[i] = v
		sum += v * it.dataset.trueWeights[i]
	}

	target := sum + it.dataset.trueBias + float32(it.rng.NormFloat64())*0.05

	in, err := tensor.New[float32]([]int{1, inputSize}, features)
	if err != nil {
		return nil, nil, fmt.Errorf("datasetIterator: %w", err)
	}

	out, err := tensor.New[float32]([]int{1, 1}, []float32{target})
	if err != nil {
		return nil, nil, fmt.Errorf("datasetIterator: %w", err)
	}

	return in, out, nil
}

// adamOptimiser adapts training/optimizer.AdamW to operator.Optimiser.
// AdamW keys its moment estimates by *graph.Parameter[T] pointer, and each
// worker trains its own graph with its own parameter pointers, so a fresh
// AdamW with identical hyperparameters is the correct deep copy: the moment
// maps repopulate lazily on first Step.
type adamOptimiser struct {
	engine                    compute.Engine[float32]
	lr, beta1, beta2, eps, wd float32
	opt                       *optimizer.AdamW[float32]
}

func newAdamOptimiser(engine compute.Engine[float32], lr float32) *adamOptimiser {
	beta1, beta2, eps, wd := float32(0.9), float32(0.999), float32(1e-8), float32(0)

	return &adamOptimiser{
		engine: engine,
		lr:     lr,
		beta1:  beta1,
		beta2:  beta2,
		eps:    eps,
		wd:     wd,
		opt:    optimizer.NewAdamW[float32](engine, lr, beta1, beta2, eps, wd),
	}
}

// DeepCopy implements operator.Optimiser.
func (a *adamOptimiser) DeepCopy() operator.Optimiser {
	return &adamOptimiser{
		engine: a.engine,
		lr:     a.lr,
		beta1:  a.beta1,
		beta2:  a.beta2,
		eps:    a.eps,
		wd:     a.wd,
		opt:    optimizer.NewAdamW[float32](a.engine, a.lr, a.beta1, a.beta2, a.eps, a.wd),
	}
}

// toyWorkerKind is the WorkerKind implementation driving the toy network:
// each worker runs its own forward/backward/optimiser loop against a
// shared synthetic dataset, periodically pushing/pulling progress through
// the operator so the epoch and iteration barriers fire.
type toyWorkerKind struct {
	op *operator.Operator

	engine       compute.Engine[float32]
	inputSize    int
	stepsPerEpch int
	numEpochs    int

	dataset       *syntheticDataset
	baseOptimiser *adamOptimiser
	baseIterator  *datasetIterator
	newNetwork    func() (*toyNetwork, error)

	logger *log.Logger

	mu      sync.Mutex
	paused  map[int]bool
	stopped map[int]bool
}

func newToyWorkerKind(
	engine compute.Engine[float32],
	inputSize, stepsPerEpoch, numEpochs int,
	learningRate float32,
	dataset *syntheticDataset,
	newNetwork func() (*toyNetwork, error),
	seed int64,
	logger *log.Logger,
) *toyWorkerKind {
	return &toyWorkerKind{
		engine:        engine,
		inputSize:     inputSize,
		stepsPerEpch:  stepsPerEpoch,
		numEpochs:     numEpochs,
		dataset:       dataset,
		baseOptimiser: newAdamOptimiser(engine, learningRate),
		baseIterator:  newDatasetIterator(dataset, seed),
		newNetwork:    newNetwork,
		logger:        logger,
		paused:        make(map[int]bool),
		stopped:       make(map[int]bool),
	}
}

// attachOperator gives the worker kind a back-reference to the operator
// it drives, since operator.New requires a WorkerKind before the
// *Operator itself exists.
func (k *toyWorkerKind) attachOperator(op *operator.Operator) {
	k.op = op
}

func (k *toyWorkerKind) NewWorker(index int) (*operator.Worker, error) {
	net, err := k.newNetwork()
	if err != nil {
		return nil, fmt.Errorf("toyWorkerKind: failed to build worker %d network: %w", index, err)
	}

	return &operator.Worker{Index: index, LocalNetwork: net}, nil
}

func (k *toyWorkerKind) OriginalOptimiser() operator.Optimiser { return k.baseOptimiser }
func (k *toyWorkerKind) OriginalIterator() operator.DataIterator { return k.baseIterator }

func (k *toyWorkerKind) StartWorker(ctx context.Context, w *operator.Worker) error {
	k.setStopped(w.Index, false)
	k.setPaused(w.Index, false)

	go k.runLoop(ctx, w)

	return nil
}

func (k *toyWorkerKind) RunWorkerOnce(ctx context.Context, w *operator.Worker) error {
	return k.runStep(ctx, w)
}

func (k *toyWorkerKind) PauseWorker(_ context.Context, w *operator.Worker) error {
	k.setPaused(w.Index, true)

	return nil
}

func (k *toyWorkerKind) ResumeWorker(_ context.Context, w *operator.Worker) error {
	k.setPaused(w.Index, false)

	return nil
}

func (k *toyWorkerKind) StopWorker(_ context.Context, w *operator.Worker) error {
	k.setStopped(w.Index, true)

	return nil
}

func (k *toyWorkerKind) setPaused(index int, v bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.paused[index] = v
}

func (k *toyWorkerKind) isPaused(index int) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.paused[index]
}

func (k *toyWorkerKind) setStopped(index int, v bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.stopped[index] = v
}

func (k *toyWorkerKind) isStopped(index int) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.stopped[index]
}

// runLoop drives a worker across numEpochs*stepsPerEpoch training steps,
// pushing progress after every step and pulling a freshly merged network
// at the start of every epoch after the first.
func (k *toyWorkerKind) runLoop(ctx context.Context, w *operator.Worker) {
	if err := k.op.EmitLocalTimeScaleEvent(ctx, w, hook.Start); err != nil {
		k.logger.Printf("worker %d start hooks failed: %v", w.Index, err)
	}

	for epoch := 1; epoch <= k.numEpochs; epoch++ {
		if k.isStopped(w.Index) {
			break
		}

		if epoch > 1 {
			if err := k.op.PullProgress(w); err != nil {
				k.logger.Printf("worker %d pull progress failed: %v", w.Index, err)
			}
		}

		w.LocalEpochNumber = epoch

		for step := 1; step <= k.stepsPerEpch; step++ {
			for k.isPaused(w.Index) && !k.isStopped(w.Index) {
				time.Sleep(5 * time.Millisecond)
			}

			if k.isStopped(w.Index) {
				break
			}

			w.LocalIterationNumber = step

			if err := k.runStep(ctx, w); err != nil {
				k.logger.Printf("worker %d epoch %d step %d failed: %v", w.Index, epoch, step, err)

				continue
			}

			if err := k.op.PushProgress(ctx, w); err != nil {
				k.logger.Printf("worker %d push progress failed: %v", w.Index, err)
			}
		}
	}

	if err := k.op.EmitLocalTimeScaleEvent(ctx, w, hook.Stop); err != nil {
		k.logger.Printf("worker %d stop hooks failed: %v", w.Index, err)
	}
}

func (k *toyWorkerKind) runStep(ctx context.Context, w *operator.Worker) error {
	net, ok := w.LocalNetwork.(*toyNetwork)
	if !ok {
		return fmt.Errorf("toyWorkerKind: worker %d has no toyNetwork", w.Index)
	}

	opt, ok := w.LocalOptimiser.(*adamOptimiser)
	if !ok {
		return fmt.Errorf("toyWorkerKind: worker %d has no adamOptimiser", w.Index)
	}

	iter, ok := w.LocalIterator.(*datasetIterator)
	if !ok {
		return fmt.Errorf("toyWorkerKind: worker %d has no datasetIterator", w.Index)
	}

	input, target, err := iter.next(k.inputSize)
	if err != nil {
		return err
	}

	mse := loss.NewMSE[float32](k.engine, k.engine.Ops())
	trainer := training.NewDefaultTrainer[float32](net.g, mse, opt.opt, nil)

	inputs := map[graph.Node[float32]]*tensor.TensorNumeric[float32]{
		net.g.Inputs()[0]: input,
	}

	_, err = trainer.TrainStep(ctx, net.g, opt.opt, inputs, target)

	return err
}

// loggingHook is a minimal hook.Hook that logs every time it fires; main
// attaches one as a global Epoch hook and one as a local Start hook.
type loggingHook struct {
	label  string
	scale  hook.TimeScale
	logger *log.Logger
}

func newLoggingHook(label string, scale hook.TimeScale, logger *log.Logger) *loggingHook {
	return &loggingHook{label: label, scale: scale, logger: logger}
}

func (h *loggingHook) TimeStep() hook.TimeStep {
	return hook.TimeStep{Scale: h.scale, Interval: 1, LiveTime: hook.Forever}
}

func (h *loggingHook) InvokeInBackground() bool          { return false }
func (h *loggingHook) RequiredHooks() []hook.Hook        { return nil }
func (h *loggingHook) RequiredRegistryEntries() []string { return nil }
func (h *loggingHook) SetOperator(hook.OperatorView)     {}

func (h *loggingHook) FunctionallyEquals(other hook.Hook) bool {
	o, ok := other.(*loggingHook)

	return ok && o.label == h.label
}

func (h *loggingHook) Invoke(_ context.Context, _ *registry.Registry, _ *registry.RegistryResolver) error {
	h.logger.Printf("hook %q fired", h.label)

	return nil
}
