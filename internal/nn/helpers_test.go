package nn_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/born-ml/spamnet/internal/backend/cpu"
	"github.com/born-ml/spamnet/internal/nn"
	"github.com/born-ml/spamnet/internal/tensor"
)

type backendT = *cpu.CPUBackend

func matrix(t *testing.T, backend backendT, rows, cols int, data ...float32) *tensor.Tensor[float32, backendT] {
	t.Helper()
	x, err := tensor.FromSlice(data, tensor.Shape{rows, cols}, backend)
	require.NoError(t, err)
	return x
}

func labels(t *testing.T, backend backendT, data ...int32) *tensor.Tensor[int32, backendT] {
	t.Helper()
	y, err := tensor.FromSlice(data, tensor.Shape{len(data)}, backend)
	require.NoError(t, err)
	return y
}

// numericGrad estimates ∂f/∂values by central differences, perturbing the
// tensor in place and restoring it afterwards.
func numericGrad(values []float32, f func() float64) []float64 {
	orig := make([]float64, len(values))
	for i, v := range values {
		orig[i] = float64(v)
	}
	defer func() {
		for i, v := range orig {
			values[i] = float32(v)
		}
	}()

	return fd.Gradient(nil, func(x []float64) float64 {
		for i, v := range x {
			values[i] = float32(v)
		}
		return f()
	}, orig, &fd.Settings{Formula: fd.Central, Step: 1e-3})
}

func requireGradClose(t *testing.T, name string, want []float64, got []float32, tol float64) {
	t.Helper()
	require.Len(t, got, len(want), name)
	for i := range want {
		require.InDelta(t, want[i], float64(got[i]), tol, "%s[%d]", name, i)
	}
}

func lossOf(t *testing.T, model *nn.Classifier[backendT], criterion *nn.WeightedCrossEntropyLoss[backendT],
	x *tensor.Tensor[float32, backendT], y *tensor.Tensor[int32, backendT],
) func() float64 {
	t.Helper()
	return func() float64 {
		loss, err := criterion.Forward(model.Forward(x), y)
		require.NoError(t, err)
		return float64(loss)
	}
}
