// Package activation provides elementwise activation graph nodes.
package activation

import (
	"context"
	"fmt"

	"github.com/zerfoo/zerfoo/compute"
	"github.com/zerfoo/zerfoo/graph"
	"github.com/zerfoo/zerfoo/numeric"
	"github.com/zerfoo/zerfoo/tensor"
	"github.com/zerfoo/zerfoo/types"
)

// ReLU applies the rectified linear unit elementwise.
type ReLU[T tensor.Numeric] struct {
	engine compute.Engine[T]
	ops    numeric.Arithmetic[T]

	lastInput   *tensor.TensorNumeric[T]
	outputShape []int
}

// New creates a ReLU activation node.
func New[T tensor.Numeric](engine compute.Engine[T], ops numeric.Arithmetic[T]) *ReLU[T] {
	return &ReLU[T]{engine: engine, ops: ops}
}

// Forward applies ReLU elementwise to the single input tensor.
func (r *ReLU[T]) Forward(ctx context.Context, inputs ...*tensor.TensorNumeric[T]) (*tensor.TensorNumeric[T], error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("relu: %w, expected 1, got %d", graph.ErrInvalidInputCount, len(inputs))
	}

	r.lastInput = inputs[0]

	output, err := r.engine.UnaryOp(ctx, r.lastInput, r.ops.ReLU)
	if err != nil {
		return nil, fmt.Errorf("relu: forward failed: %w", err)
	}

	r.outputShape = output.Shape()

	return output, nil
}

// Backward scales the upstream gradient by the ReLU derivative at the
// cached input.
func (r *ReLU[T]) Backward(
	ctx context.Context,
	_ types.BackwardMode,
	outputGradient *tensor.TensorNumeric[T],
	_ ...*tensor.TensorNumeric[T],
) ([]*tensor.TensorNumeric[T], error) {
	derivative, err := r.engine.UnaryOp(ctx, r.lastInput, r.ops.ReLUGrad)
	if err != nil {
		return nil, fmt.Errorf("relu: backward derivative failed: %w", err)
	}

	inputGrad, err := r.engine.Mul(ctx, outputGradient, derivative, nil)
	if err != nil {
		return nil, fmt.Errorf("relu: backward gradient failed: %w", err)
	}

	return []*tensor.TensorNumeric[T]{inputGrad}, nil
}

// Parameters returns nil; ReLU has no trainable parameters.
func (r *ReLU[T]) Parameters() []*graph.Parameter[T] {
	return nil
}

// OutputShape returns the output shape of the node.
func (r *ReLU[T]) OutputShape() []int {
	return r.outputShape
}

// OpType returns the operation type of the node.
func (r *ReLU[T]) OpType() string {
	return "ReLU"
}

// Attributes returns nil; ReLU carries no non-tensor attributes.
func (r *ReLU[T]) Attributes() map[string]interface{} {
	return nil
}

// Statically assert that ReLU implements the graph.Node interface.
var _ graph.Node[float32] = (*ReLU[float32])(nil)
