// Package nn implements the neural network building blocks of the spam
// classifier:
//   - Parameter: trainable tensor with an accumulated gradient
//   - Linear: fully connected layer with an explicit backward pass
//   - Activation: ReLU, Sigmoid, Tanh
//   - Classifier: two-layer perceptron producing raw class scores
//   - WeightedCrossEntropyLoss and ClassWeights
//
// Gradients are derived in closed form; there is no autodiff tape. Forward
// passes are pure functions of (parameters, input), and backward passes take
// the forward values they need as arguments.
package nn

import (
	"github.com/born-ml/spamnet/internal/tensor"
)

// Module is the base interface for components with trainable parameters.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module for an input batch.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module.
	Parameters() []*Parameter[B]
}
