package nn

import (
	"fmt"

	"github.com/born-ml/spamnet/internal/tensor"
)

// Activation is an element-wise nonlinearity with a closed-form derivative.
//
// Backward receives the forward input and output so that implementations can
// express the derivative in whichever is cheaper.
type Activation[B tensor.Backend] interface {
	Name() string
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	Backward(input, output, gradOutput *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
}

// Activation names accepted by NewActivation.
const (
	ActivationReLU    = "relu"
	ActivationSigmoid = "sigmoid"
	ActivationTanh    = "tanh"
)

// NewActivation returns the activation registered under name.
func NewActivation[B tensor.Backend](name string) (Activation[B], error) {
	switch name {
	case ActivationReLU, "":
		return NewReLU[B](), nil
	case ActivationSigmoid:
		return NewSigmoid[B](), nil
	case ActivationTanh:
		return NewTanh[B](), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivation, name)
	}
}

// ReLU is a Rectified Linear Unit activation: f(x) = max(0, x).
//
// The gradient passes through where the pre-activation is strictly positive
// and is exactly zero elsewhere, including at x = 0.
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a new ReLU activation.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Name returns "relu".
func (r *ReLU[B]) Name() string { return ActivationReLU }

// Forward applies max(0, x).
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	return tensor.New[float32, B](backend.ReLU(input.Raw()), backend)
}

// Backward masks gradOutput by input > 0.
func (r *ReLU[B]) Backward(input, _, gradOutput *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	return tensor.New[float32, B](backend.ReLUBackward(gradOutput.Raw(), input.Raw()), backend)
}

// Sigmoid is the logistic activation: σ(x) = 1 / (1 + exp(-x)).
type Sigmoid[B tensor.Backend] struct{}

// NewSigmoid creates a new Sigmoid activation.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return &Sigmoid[B]{}
}

// Name returns "sigmoid".
func (s *Sigmoid[B]) Name() string { return ActivationSigmoid }

// Forward applies σ(x).
func (s *Sigmoid[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	return tensor.New[float32, B](backend.Sigmoid(input.Raw()), backend)
}

// Backward computes gradOutput * σ(x) * (1 - σ(x)).
func (s *Sigmoid[B]) Backward(_, output, gradOutput *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := output.Backend()
	return tensor.New[float32, B](backend.SigmoidBackward(gradOutput.Raw(), output.Raw()), backend)
}

// Tanh is the hyperbolic tangent activation.
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a new Tanh activation.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Name returns "tanh".
func (t *Tanh[B]) Name() string { return ActivationTanh }

// Forward applies tanh(x).
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	return tensor.New[float32, B](backend.Tanh(input.Raw()), backend)
}

// Backward computes gradOutput * (1 - tanh(x)²).
func (t *Tanh[B]) Backward(_, output, gradOutput *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := output.Backend()
	return tensor.New[float32, B](backend.TanhBackward(gradOutput.Raw(), output.Raw()), backend)
}
