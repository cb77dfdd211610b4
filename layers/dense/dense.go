// Package dense provides a minimal fully-connected graph node used by
// demo and command-line training programs.
package dense

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/zerfoo/zerfoo/compute"
	"github.com/zerfoo/zerfoo/graph"
	"github.com/zerfoo/zerfoo/numeric"
	"github.com/zerfoo/zerfoo/tensor"
	"github.com/zerfoo/zerfoo/types"
)

// Dense performs an affine transformation: output = input * weights + bias.
type Dense[T tensor.Numeric] struct {
	engine compute.Engine[T]

	weights *graph.Parameter[T]
	bias    *graph.Parameter[T]

	lastInput   *tensor.TensorNumeric[T]
	outputShape []int
}

// New creates a Dense layer with Xavier-initialized weights and a zeroed bias.
func New[T tensor.Numeric](name string, engine compute.Engine[T], ops numeric.Arithmetic[T], inputSize, outputSize int) (*Dense[T], error) {
	if name == "" {
		return nil, fmt.Errorf("dense: layer name cannot be empty")
	}

	limit := math.Sqrt(6.0 / float64(inputSize+outputSize))

	weightsData := make([]T, inputSize*outputSize)
	for i := range weightsData {
		// #nosec G404 - math/rand is acceptable for weight initialization
		val := (rand.Float64()*2 - 1) * limit
		weightsData[i] = ops.FromFloat64(val)
	}

	weightsTensor, err := tensor.New[T]([]int{inputSize, outputSize}, weightsData)
	if err != nil {
		return nil, fmt.Errorf("dense: failed to create weights tensor: %w", err)
	}

	weights, err := graph.NewParameter[T](name+"_weights", weightsTensor, tensor.New[T])
	if err != nil {
		return nil, fmt.Errorf("dense: failed to create weights parameter: %w", err)
	}

	biasTensor, err := tensor.New[T]([]int{1, outputSize}, nil)
	if err != nil {
		return nil, fmt.Errorf("dense: failed to create bias tensor: %w", err)
	}

	bias, err := graph.NewParameter[T](name+"_bias", biasTensor, tensor.New[T])
	if err != nil {
		return nil, fmt.Errorf("dense: failed to create bias parameter: %w", err)
	}

	return &Dense[T]{
		engine:      engine,
		weights:     weights,
		bias:        bias,
		outputShape: []int{1, outputSize},
	}, nil
}

// FromParameters builds a Dense layer around an existing weights/bias
// parameter pair, e.g. when reconstructing a deep-copied network.
func FromParameters[T tensor.Numeric](engine compute.Engine[T], weights, bias *graph.Parameter[T]) *Dense[T] {
	return &Dense[T]{
		engine:      engine,
		weights:     weights,
		bias:        bias,
		outputShape: []int{1, weights.Value.Shape()[1]},
	}
}

// Forward computes output = input * weights + bias.
func (d *Dense[T]) Forward(ctx context.Context, inputs ...*tensor.TensorNumeric[T]) (*tensor.TensorNumeric[T], error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("dense: %w, expected 1, got %d", graph.ErrInvalidInputCount, len(inputs))
	}

	d.lastInput = inputs[0]

	projected, err := d.engine.MatMul(ctx, d.lastInput, d.weights.Value, nil)
	if err != nil {
		return nil, fmt.Errorf("dense: forward matmul failed: %w", err)
	}

	output, err := d.engine.Add(ctx, projected, d.bias.Value, nil)
	if err != nil {
		return nil, fmt.Errorf("dense: forward bias add failed: %w", err)
	}

	d.outputShape = output.Shape()

	return output, nil
}

// Backward computes the weight, bias, and input gradients for the layer.
func (d *Dense[T]) Backward(
	ctx context.Context,
	_ types.BackwardMode,
	outputGradient *tensor.TensorNumeric[T],
	_ ...*tensor.TensorNumeric[T],
) ([]*tensor.TensorNumeric[T], error) {
	inputT, err := d.engine.Transpose(ctx, d.lastInput, []int{1, 0}, nil)
	if err != nil {
		return nil, fmt.Errorf("dense: backward input transpose failed: %w", err)
	}

	weightsGrad, err := d.engine.MatMul(ctx, inputT, outputGradient, nil)
	if err != nil {
		return nil, fmt.Errorf("dense: backward weights gradient failed: %w", err)
	}

	d.weights.Gradient = weightsGrad

	biasGrad, err := d.engine.Sum(ctx, outputGradient, 0, true, nil)
	if err != nil {
		return nil, fmt.Errorf("dense: backward bias gradient failed: %w", err)
	}

	d.bias.Gradient = biasGrad

	weightsT, err := d.engine.Transpose(ctx, d.weights.Value, []int{1, 0}, nil)
	if err != nil {
		return nil, fmt.Errorf("dense: backward weights transpose failed: %w", err)
	}

	inputGrad, err := d.engine.MatMul(ctx, outputGradient, weightsT, nil)
	if err != nil {
		return nil, fmt.Errorf("dense: backward input gradient failed: %w", err)
	}

	return []*tensor.TensorNumeric[T]{inputGrad}, nil
}

// Parameters returns the weights and bias parameters of the layer.
func (d *Dense[T]) Parameters() []*graph.Parameter[T] {
	return []*graph.Parameter[T]{d.weights, d.bias}
}

// OutputShape returns the output shape of the layer.
func (d *Dense[T]) OutputShape() []int {
	return d.outputShape
}

// OpType returns the operation type of the layer.
func (d *Dense[T]) OpType() string {
	return "Dense"
}

// Attributes returns nil; Dense carries no non-tensor attributes.
func (d *Dense[T]) Attributes() map[string]interface{} {
	return nil
}

// Statically assert that Dense implements the graph.Node interface.
var _ graph.Node[float32] = (*Dense[float32])(nil)
