package nn_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/spamnet/internal/backend/cpu"
	"github.com/born-ml/spamnet/internal/nn"
	"github.com/born-ml/spamnet/internal/tensor"
)

func TestWeightedCrossEntropy_KnownValues(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name      string
		weights   []float32
		reduction nn.Reduction
		logits    []float32
		targets   []int32
		want      float64
	}{
		{"unit weights", []float32{1, 1}, nn.ReductionMean, []float32{2, 1}, []int32{0}, 0.313262},
		{"weight scales loss", []float32{3, 1}, nn.ReductionMean, []float32{2, 1}, []int32{0}, 0.939785},
		{"weighted mean cancels single weight", []float32{3, 1}, nn.ReductionWeightedMean, []float32{2, 1}, []int32{0}, 0.313262},
		{"batch mean", []float32{1, 2}, nn.ReductionMean, []float32{2, 1, 0, 0}, []int32{0, 1}, 0.849777},
		{"batch weighted mean", []float32{1, 2}, nn.ReductionWeightedMean, []float32{2, 1, 0, 0}, []int32{0, 1}, 0.566518},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			criterion, err := nn.NewWeightedCrossEntropyLoss(tt.weights, tt.reduction, backend)
			require.NoError(t, err)

			logits := matrix(t, backend, len(tt.targets), 2, tt.logits...)
			loss, err := criterion.Forward(logits, labels(t, backend, tt.targets...))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, float64(loss), 1e-5)
		})
	}
}

func TestWeightedCrossEntropy_NonNegative(t *testing.T) {
	backend := cpu.New()
	criterion, err := nn.NewWeightedCrossEntropyLoss([]float32{0.667, 2}, nn.ReductionMean, backend)
	require.NoError(t, err)

	logits := matrix(t, backend, 4, 2,
		10, -10,
		-3, 3,
		0, 0,
		0.5, 0.49,
	)
	for _, y := range [][]int32{{0, 1, 0, 0}, {1, 0, 1, 1}, {0, 0, 0, 0}} {
		loss, err := criterion.Forward(logits, labels(t, backend, y...))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, loss, float32(0))
	}
}

func TestWeightedCrossEntropy_LargeLogitsStayFinite(t *testing.T) {
	backend := cpu.New()
	criterion, err := nn.NewWeightedCrossEntropyLoss([]float32{1, 1}, nn.ReductionMean, backend)
	require.NoError(t, err)

	logits := matrix(t, backend, 2, 2, 1000, -1000, 1000, -1000)

	loss, err := criterion.Forward(logits, labels(t, backend, 0, 0))
	require.NoError(t, err)
	assert.InDelta(t, 0, float64(loss), 1e-6)

	loss, err = criterion.Forward(logits, labels(t, backend, 1, 1))
	require.NoError(t, err)
	assert.False(t, math.IsInf(float64(loss), 0) || math.IsNaN(float64(loss)))
	assert.InDelta(t, 2000, float64(loss), 1e-2)

	grad, err := criterion.Backward(logits, labels(t, backend, 1, 1))
	require.NoError(t, err)
	for _, g := range grad.Data() {
		assert.False(t, math.IsNaN(float64(g)))
	}
}

func TestWeightedCrossEntropy_Backward(t *testing.T) {
	backend := cpu.New()

	for _, reduction := range []nn.Reduction{nn.ReductionMean, nn.ReductionWeightedMean} {
		t.Run(reduction.String(), func(t *testing.T) {
			criterion, err := nn.NewWeightedCrossEntropyLoss([]float32{0.75, 1.5}, reduction, backend)
			require.NoError(t, err)

			logits := matrix(t, backend, 3, 2, 0.3, -0.2, 1.1, 0.4, -0.5, 0.9)
			targets := labels(t, backend, 1, 0, 1)

			got, err := criterion.Backward(logits, targets)
			require.NoError(t, err)
			assert.Equal(t, tensor.Shape{3, 2}, got.Shape())

			want := numericGrad(logits.Data(), func() float64 {
				loss, err := criterion.Forward(logits, targets)
				require.NoError(t, err)
				return float64(loss)
			})
			requireGradClose(t, "logits", want, got.Data(), 1e-3)
		})
	}
}

func TestWeightedCrossEntropy_Errors(t *testing.T) {
	backend := cpu.New()

	_, err := nn.NewWeightedCrossEntropyLoss([]float32{1}, nn.ReductionMean, backend)
	assert.ErrorIs(t, err, nn.ErrInvalidWeights)
	_, err = nn.NewWeightedCrossEntropyLoss([]float32{1, 0}, nn.ReductionMean, backend)
	assert.ErrorIs(t, err, nn.ErrInvalidWeights)
	_, err = nn.NewWeightedCrossEntropyLoss([]float32{1, float32(math.Inf(1))}, nn.ReductionMean, backend)
	assert.ErrorIs(t, err, nn.ErrInvalidWeights)

	criterion, err := nn.NewWeightedCrossEntropyLoss([]float32{1, 1}, nn.ReductionMean, backend)
	require.NoError(t, err)

	logits := matrix(t, backend, 2, 2, 1, 2, 3, 4)

	_, err = criterion.Forward(logits, labels(t, backend, 0))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	_, err = criterion.Forward(matrix(t, backend, 1, 3, 1, 2, 3), labels(t, backend, 0))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	_, err = criterion.Forward(logits, labels(t, backend, 0, 2))
	assert.ErrorIs(t, err, nn.ErrInvalidTarget)

	_, err = criterion.Backward(logits, labels(t, backend, -1, 0))
	assert.ErrorIs(t, err, nn.ErrInvalidTarget)
}

func TestParseReduction(t *testing.T) {
	r, err := nn.ParseReduction("")
	require.NoError(t, err)
	assert.Equal(t, nn.ReductionMean, r)

	r, err = nn.ParseReduction("weighted_mean")
	require.NoError(t, err)
	assert.Equal(t, nn.ReductionWeightedMean, r)

	_, err = nn.ParseReduction("sum")
	assert.Error(t, err)
}

func TestSoftmax(t *testing.T) {
	probs := nn.Softmax([]float32{1, 1, 1, 1})
	for _, p := range probs {
		assert.InDelta(t, 0.25, p, 1e-6)
	}

	probs = nn.Softmax([]float32{500, 0})
	assert.InDelta(t, 1, probs[0], 1e-6)
	assert.InDelta(t, 0, probs[1], 1e-6)
}
