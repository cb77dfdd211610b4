package dense

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

func TestNewRejectsEmptyName(t *testing.T) {
	engine := compute.NewCPUEngine[float32](numeric.Float32Ops{})

	_, err := New[float32]("", engine, numeric.Float32Ops{}, 2, 3)
	assert.Error(t, err)
}

func TestForwardProducesExpectedShape(t *testing.T) {
	engine := compute.NewCPUEngine[float32](numeric.Float32Ops{})

	layer, err := New[float32]("fc1", engine, numeric.Float32Ops{}, 4, 2)
	require.NoError(t, err)

	input, err := tensor.New[float32]([]int{1, 4}, []float32{1, 2, 3, 4})
	require.NoError(t, err)

	output, err := layer.Forward(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, output.Shape())
}

func TestBackwardPopulatesParameterGradients(t *testing.T) {
	engine := compute.NewCPUEngine[float32](numeric.Float32Ops{})

	layer, err := New[float32]("fc1", engine, numeric.Float32Ops{}, 3, 2)
	require.NoError(t, err)

	input, err := tensor.New[float32]([]int{1, 3}, []float32{1, 1, 1})
	require.NoError(t, err)

	_, err = layer.Forward(context.Background(), input)
	require.NoError(t, err)

	outputGrad, err := tensor.New[float32]([]int{1, 2}, []float32{1, 1})
	require.NoError(t, err)

	grads, err := layer.Backward(context.Background(), types.FullBackprop, outputGrad)
	require.NoError(t, err)
	require.Len(t, grads, 1)
	assert.Equal(t, []int{1, 3}, grads[0].Shape())

	params := layer.Parameters()
	require.Len(t, params, 2)
	assert.Equal(t, []int{3, 2}, params[0].Gradient.Shape())
	assert.Equal(t, []int{1, 2}, params[1].Gradient.Shape())
}
