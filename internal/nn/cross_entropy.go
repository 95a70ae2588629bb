package nn

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/born-ml/spamnet/internal/tensor"
)

// Reduction selects how per-sample losses are combined into a scalar.
type Reduction int

const (
	// ReductionMean divides the weighted sum by the batch size N:
	//
	//	loss = (1/N) Σ_i w[y_i] * -log p_i[y_i]
	ReductionMean Reduction = iota

	// ReductionWeightedMean divides the weighted sum by Σ_i w[y_i], the
	// convention of PyTorch's CrossEntropyLoss(weight=...).
	ReductionWeightedMean
)

// String returns the config name of the reduction.
func (r Reduction) String() string {
	switch r {
	case ReductionMean:
		return "mean"
	case ReductionWeightedMean:
		return "weighted_mean"
	default:
		return fmt.Sprintf("Reduction(%d)", int(r))
	}
}

// ParseReduction maps a config name to a Reduction.
func ParseReduction(s string) (Reduction, error) {
	switch s {
	case "mean", "":
		return ReductionMean, nil
	case "weighted_mean":
		return ReductionWeightedMean, nil
	default:
		return 0, fmt.Errorf("unknown loss reduction %q (want mean or weighted_mean)", s)
	}
}

// WeightedCrossEntropyLoss computes class-weighted cross-entropy over logits.
//
// Mathematical Formulation:
//
//	log_probs = LogSoftmax(logits)          (log-sum-exp, max subtracted)
//	loss      = Σ_i w[y_i] * -log_probs[i, y_i] / denom
//	∂L/∂logits[i, j] = w[y_i] / denom * (softmax[i, j] - 1[j == y_i])
//
// where denom is N for ReductionMean and Σ_i w[y_i] for ReductionWeightedMean.
//
// Usage:
//
//	criterion, err := nn.NewWeightedCrossEntropyLoss(weights, nn.ReductionMean, backend)
//	loss, err := criterion.Forward(logits, targets)
//	grad, err := criterion.Backward(logits, targets)
type WeightedCrossEntropyLoss[B tensor.Backend] struct {
	weights   []float32
	reduction Reduction
	backend   B
}

// NewWeightedCrossEntropyLoss creates the loss with one weight per class.
// Weights must be finite and positive.
func NewWeightedCrossEntropyLoss[B tensor.Backend](weights []float32, reduction Reduction, backend B) (*WeightedCrossEntropyLoss[B], error) {
	if len(weights) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 classes, got %d", ErrInvalidWeights, len(weights))
	}
	for c, w := range weights {
		if !(w > 0) || math32.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: class %d has weight %v", ErrInvalidWeights, c, w)
		}
	}
	if reduction != ReductionMean && reduction != ReductionWeightedMean {
		return nil, fmt.Errorf("unsupported reduction %v", reduction)
	}

	return &WeightedCrossEntropyLoss[B]{
		weights:   append([]float32(nil), weights...),
		reduction: reduction,
		backend:   backend,
	}, nil
}

// Weights returns a copy of the class weights.
func (c *WeightedCrossEntropyLoss[B]) Weights() []float32 {
	return append([]float32(nil), c.weights...)
}

// Reduction returns the configured reduction.
func (c *WeightedCrossEntropyLoss[B]) Reduction() Reduction {
	return c.reduction
}

// Forward computes the scalar loss.
//
// Parameters:
//   - logits: raw scores with shape [batch_size, num_classes]
//   - targets: class indices with shape [batch_size]
func (c *WeightedCrossEntropyLoss[B]) Forward(logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) (float32, error) {
	batchSize, numClasses, err := c.check(logits, targets)
	if err != nil {
		return 0, err
	}

	logitsData := logits.Data()
	targetsData := targets.Data()

	var total float32
	for i := 0; i < batchSize; i++ {
		row := logitsData[i*numClasses : (i+1)*numClasses]
		y := targetsData[i]
		total += c.weights[y] * (logSumExp(row) - row[y])
	}

	return total / c.denominator(targetsData), nil
}

// Backward computes ∂L/∂logits with the same shape as logits.
func (c *WeightedCrossEntropyLoss[B]) Backward(logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) (*tensor.Tensor[float32, B], error) {
	batchSize, numClasses, err := c.check(logits, targets)
	if err != nil {
		return nil, err
	}

	logitsData := logits.Data()
	targetsData := targets.Data()
	denom := c.denominator(targetsData)

	grad := tensor.Zeros[float32](logits.Shape(), c.backend)
	gradData := grad.Data()

	for i := 0; i < batchSize; i++ {
		row := logitsData[i*numClasses : (i+1)*numClasses]
		y := int(targetsData[i])
		scale := c.weights[y] / denom
		lse := logSumExp(row)

		for j := 0; j < numClasses; j++ {
			p := math32.Exp(row[j] - lse)
			if j == y {
				p--
			}
			gradData[i*numClasses+j] = scale * p
		}
	}

	return grad, nil
}

func (c *WeightedCrossEntropyLoss[B]) check(logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) (int, int, error) {
	shape := logits.Shape()
	if len(shape) != 2 {
		return 0, 0, fmt.Errorf("cross entropy: %w: logits must be 2D [batch_size, num_classes], got %v",
			tensor.ErrShapeMismatch, shape)
	}
	batchSize, numClasses := shape[0], shape[1]
	if numClasses != len(c.weights) {
		return 0, 0, fmt.Errorf("cross entropy: %w: %d logit columns but %d class weights",
			tensor.ErrShapeMismatch, numClasses, len(c.weights))
	}
	if targets.NumElements() != batchSize || len(targets.Shape()) != 1 {
		return 0, 0, fmt.Errorf("cross entropy: %w: %d logit rows but targets have shape %v",
			tensor.ErrShapeMismatch, batchSize, targets.Shape())
	}
	for i, y := range targets.Data() {
		if y < 0 || int(y) >= numClasses {
			return 0, 0, fmt.Errorf("cross entropy: %w: sample %d has label %d, want [0, %d)",
				ErrInvalidTarget, i, y, numClasses)
		}
	}
	return batchSize, numClasses, nil
}

func (c *WeightedCrossEntropyLoss[B]) denominator(targets []int32) float32 {
	if c.reduction == ReductionMean {
		return float32(len(targets))
	}
	var sum float32
	for _, y := range targets {
		sum += c.weights[y]
	}
	return sum
}

// logSumExp computes log(Σ exp(z)) as max(z) + log(Σ exp(z - max(z))), which
// cannot overflow.
func logSumExp(z []float32) float32 {
	maxZ := z[0]
	for _, v := range z[1:] {
		if v > maxZ {
			maxZ = v
		}
	}

	var sumExp float32
	for _, v := range z {
		sumExp += math32.Exp(v - maxZ)
	}
	return maxZ + math32.Log(sumExp)
}

// Softmax converts a row of scores into probabilities.
func Softmax(z []float32) []float32 {
	lse := logSumExp(z)
	probs := make([]float32, len(z))
	for i, v := range z {
		probs[i] = math32.Exp(v - lse)
	}
	return probs
}
