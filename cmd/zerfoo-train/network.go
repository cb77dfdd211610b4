package main

import (
	"context"
	"fmt"

	"github.com/zerfoo/zerfoo/compute"
	"github.com/zerfoo/zerfoo/graph"
	"github.com/zerfoo/zerfoo/layers/activation"
	"github.com/zerfoo/zerfoo/layers/dense"
	"github.com/zerfoo/zerfoo/numeric"
	"github.com/zerfoo/zerfoo/operator"
	"github.com/zerfoo/zerfoo/registry"
	"github.com/zerfoo/zerfoo/tensor"
)

// toyNetwork is a small two-layer regression network (Dense -> ReLU ->
// Dense) exposed to the operator core as an operator.Network. Its
// parameters are aliased into a registry tree shaped "layers.<idx>.<name>"
// so the default "layers.*.*" NetworkMerger pattern can address them.
type toyNetwork struct {
	engine compute.Engine[float32]
	ops    numeric.Arithmetic[float32]

	inputSize  int
	hiddenSize int

	g   *graph.Graph[float32]
	fc1 *dense.Dense[float32]
	fc2 *dense.Dense[float32]

	reg *registry.Registry
}

func newToyNetwork(engine compute.Engine[float32], ops numeric.Arithmetic[float32], inputSize, hiddenSize int) (*toyNetwork, error) {
	fc1, err := dense.New[float32]("fc1", engine, ops, inputSize, hiddenSize)
	if err != nil {
		return nil, fmt.Errorf("toyNetwork: failed to build fc1: %w", err)
	}

	relu := activation.New[float32](engine, ops)

	fc2, err := dense.New[float32]("fc2", engine, ops, hiddenSize, 1)
	if err != nil {
		return nil, fmt.Errorf("toyNetwork: failed to build fc2: %w", err)
	}

	builder := graph.NewBuilder[float32](engine)
	in := builder.Input([]int{1, inputSize})
	h1 := builder.AddNode(fc1, in)
	h2 := builder.AddNode(relu, h1)
	out := builder.AddNode(fc2, h2)

	g, err := builder.Build(out)
	if err != nil {
		return nil, fmt.Errorf("toyNetwork: failed to build graph: %w", err)
	}

	n := &toyNetwork{
		engine:     engine,
		ops:        ops,
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
		g:          g,
		fc1:        fc1,
		fc2:        fc2,
	}
	n.reg = n.buildRegistry()

	return n, nil
}

// buildRegistry aliases each layer's weight/bias tensors directly, so
// in-place parameter updates made by the optimiser during training stay
// visible through the registry without any explicit resync.
func (n *toyNetwork) buildRegistry() *registry.Registry {
	reg := registry.New("network")
	layers := reg.NewChild("layers")

	l0 := layers.NewChild("0", "dense")
	_ = l0.Set("weights", n.fc1.Parameters()[0].Value)
	_ = l0.Set("bias", n.fc1.Parameters()[1].Value)

	l1 := layers.NewChild("1", "dense")
	_ = l1.Set("weights", n.fc2.Parameters()[0].Value)
	_ = l1.Set("bias", n.fc2.Parameters()[1].Value)

	return reg
}

// Registry implements operator.Network.
func (n *toyNetwork) Registry() *registry.Registry {
	return n.reg
}

// DeepCopy implements operator.Network. It rebuilds a fully independent
// network from the CURRENT registry contents rather than from n.fc1/n.fc2
// directly: a NetworkMerger writes merged parameters back by replacing the
// registry entry, not by mutating the original tensor in place, so the
// registry (not the layer's cached Parameter) is the authoritative source
// once a merge has happened.
func (n *toyNetwork) DeepCopy() operator.Network {
	weights1, err := cloneLeafTensor(n.reg, "0", "weights")
	if err != nil {
		panic(fmt.Errorf("toyNetwork: deep copy fc1 weights: %w", err))
	}

	bias1, err := cloneLeafTensor(n.reg, "0", "bias")
	if err != nil {
		panic(fmt.Errorf("toyNetwork: deep copy fc1 bias: %w", err))
	}

	weights2, err := cloneLeafTensor(n.reg, "1", "weights")
	if err != nil {
		panic(fmt.Errorf("toyNetwork: deep copy fc2 weights: %w", err))
	}

	bias2, err := cloneLeafTensor(n.reg, "1", "bias")
	if err != nil {
		panic(fmt.Errorf("toyNetwork: deep copy fc2 bias: %w", err))
	}

	weightsParam1, err := graph.NewParameter[float32]("fc1_weights", weights1, tensor.New[float32])
	if err != nil {
		panic(fmt.Errorf("toyNetwork: deep copy fc1 weights parameter: %w", err))
	}

	biasParam1, err := graph.NewParameter[float32]("fc1_bias", bias1, tensor.New[float32])
	if err != nil {
		panic(fmt.Errorf("toyNetwork: deep copy fc1 bias parameter: %w", err))
	}

	weightsParam2, err := graph.NewParameter[float32]("fc2_weights", weights2, tensor.New[float32])
	if err != nil {
		panic(fmt.Errorf("toyNetwork: deep copy fc2 weights parameter: %w", err))
	}

	biasParam2, err := graph.NewParameter[float32]("fc2_bias", bias2, tensor.New[float32])
	if err != nil {
		panic(fmt.Errorf("toyNetwork: deep copy fc2 bias parameter: %w", err))
	}

	fc1 := dense.FromParameters(n.engine, weightsParam1, biasParam1)
	fc2 := dense.FromParameters(n.engine, weightsParam2, biasParam2)
	relu := activation.New[float32](n.engine, n.ops)

	builder := graph.NewBuilder[float32](n.engine)
	in := builder.Input([]int{1, n.inputSize})
	h1 := builder.AddNode(fc1, in)
	h2 := builder.AddNode(relu, h1)
	out := builder.AddNode(fc2, h2)

	g, err := builder.Build(out)
	if err != nil {
		panic(fmt.Errorf("toyNetwork: deep copy graph build: %w", err))
	}

	cp := &toyNetwork{
		engine:     n.engine,
		ops:        n.ops,
		inputSize:  n.inputSize,
		hiddenSize: n.hiddenSize,
		g:          g,
		fc1:        fc1,
		fc2:        fc2,
	}
	cp.reg = cp.buildRegistry()

	return cp
}

// cloneLeafTensor reads "layers.<layerKey>.<paramKey>" and returns an
// independent copy of the tensor stored there.
func cloneLeafTensor(reg *registry.Registry, layerKey, paramKey string) (*tensor.TensorNumeric[float32], error) {
	layersVal, ok := reg.Get("layers")
	if !ok {
		return nil, fmt.Errorf("registry has no \"layers\" entry")
	}

	layers, ok := layersVal.(*registry.Registry)
	if !ok {
		return nil, fmt.Errorf("\"layers\" entry is not a registry")
	}

	layerVal, ok := layers.Get(layerKey)
	if !ok {
		return nil, fmt.Errorf("\"layers.%s\" entry missing", layerKey)
	}

	layer, ok := layerVal.(*registry.Registry)
	if !ok {
		return nil, fmt.Errorf("\"layers.%s\" entry is not a registry", layerKey)
	}

	paramVal, ok := layer.Get(paramKey)
	if !ok {
		return nil, fmt.Errorf("\"layers.%s.%s\" entry missing", layerKey, paramKey)
	}

	param, ok := paramVal.(*tensor.TensorNumeric[float32])
	if !ok {
		return nil, fmt.Errorf("\"layers.%s.%s\" entry is not a float32 tensor", layerKey, paramKey)
	}

	dataCopy := append([]float32(nil), param.Data()...)

	return tensor.New[float32](param.Shape(), dataCopy)
}

// tensorAverageHandler is an operator.ComputationHandler that averages
// *tensor.TensorNumeric[float32] values via the compute engine, so the
// NetworkMerger can reduce this network's tensor-valued parameters rather
// than only the scalar/[]float32 shapes operator.Float32AverageHandler
// supports.
type tensorAverageHandler struct {
	engine compute.Engine[float32]
}

func newTensorAverageHandler(engine compute.Engine[float32]) *tensorAverageHandler {
	return &tensorAverageHandler{engine: engine}
}

func (h *tensorAverageHandler) Average(values []any) (any, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("tensorAverageHandler: no values to average")
	}

	first, ok := values[0].(*tensor.TensorNumeric[float32])
	if !ok {
		return nil, fmt.Errorf("tensorAverageHandler: expected *tensor.TensorNumeric[float32], got %T", values[0])
	}

	ctx := context.Background()

	acc, err := tensor.New[float32](first.Shape(), append([]float32(nil), first.Data()...))
	if err != nil {
		return nil, fmt.Errorf("tensorAverageHandler: %w", err)
	}

	for _, v := range values[1:] {
		t, ok := v.(*tensor.TensorNumeric[float32])
		if !ok {
			return nil, fmt.Errorf("tensorAverageHandler: expected *tensor.TensorNumeric[float32], got %T", v)
		}

		if acc, err = h.engine.Add(ctx, acc, t, acc); err != nil {
			return nil, fmt.Errorf("tensorAverageHandler: accumulate failed: %w", err)
		}
	}

	if acc, err = h.engine.DivScalar(ctx, acc, float32(len(values)), acc); err != nil {
		return nil, fmt.Errorf("tensorAverageHandler: divide failed: %w", err)
	}

	return acc, nil
}
