package activation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerfoo/zerfoo/compute"
	"github.com/zerfoo/zerfoo/numeric"
	"github.com/zerfoo/zerfoo/tensor"
	"github.com/zerfoo/zerfoo/types"
)

func TestReLUForwardZeroesNegatives(t *testing.T) {
	engine := compute.NewCPUEngine[float32](numeric.Float32Ops{})
	node := New[float32](engine, numeric.Float32Ops{})

	input, err := tensor.New[float32]([]int{1, 4}, []float32{-2, -0.5, 0, 3})
	require.NoError(t, err)

	output, err := node.Forward(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0, 3}, output.Data())
}

func TestReLUBackwardZeroesGradientWhereInputNegative(t *testing.T) {
	engine := compute.NewCPUEngine[float32](numeric.Float32Ops{})
	node := New[float32](engine, numeric.Float32Ops{})

	input, err := tensor.New[float32]([]int{1, 2}, []float32{-1, 2})
	require.NoError(t, err)

	_, err = node.Forward(context.Background(), input)
	require.NoError(t, err)

	outputGrad, err := tensor.New[float32]([]int{1, 2}, []float32{5, 5})
	require.NoError(t, err)

	grads, err := node.Backward(context.Background(), types.FullBackprop, outputGrad)
	require.NoError(t, err)
	require.Len(t, grads, 1)
	assert.Equal(t, []float32{0, 5}, grads[0].Data())
}
