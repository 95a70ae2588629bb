package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/spamnet/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [in_features, out_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output tensor with shape [batch_size, out_features]
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(5000, 64, rand.New(rand.NewSource(0)), backend)
//	output := layer.Forward(input) // [batch, 64]
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B] // [in_features, out_features]
	bias        *Parameter[B] // [out_features]
	backend     B
}

// NewLinear creates a new Linear layer with weights drawn from rng.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	weightShape := tensor.Shape{inFeatures, outFeatures}
	weight := NewParameter("weight", Xavier(inFeatures, outFeatures, weightShape, rng, backend))
	bias := NewParameter("bias", Zeros(tensor.Shape{outFeatures}, backend))

	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}
}

// Forward computes x @ W + b.
//
// Input shape: [batch_size, in_features]
// Output shape: [batch_size, out_features]
//
// Panics if the input is not 2D or has the wrong width.
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	l.checkInput("Forward", input)

	output := input.MatMul(l.weight.Tensor())
	return output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
}

// Backward propagates gradOutput through the layer.
//
// Given the forward input x and ∂L/∂y, it accumulates
//
//	∂L/∂W = xᵀ @ ∂L/∂y
//	∂L/∂b = Σ_rows ∂L/∂y
//
// into the parameter gradients and returns ∂L/∂x = ∂L/∂y @ Wᵀ.
func (l *Linear[B]) Backward(input, gradOutput *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	l.checkInput("Backward", input)
	gradShape := gradOutput.Shape()
	if len(gradShape) != 2 || gradShape[0] != input.Shape()[0] || gradShape[1] != l.outFeatures {
		panic(fmt.Sprintf("Linear.Backward: expected gradient shape [%d %d], got %v",
			input.Shape()[0], l.outFeatures, gradShape))
	}

	l.weight.AccumulateGrad(input.TMatMul(gradOutput))
	l.bias.AccumulateGrad(gradOutput.SumRows().Reshape(l.outFeatures))

	return gradOutput.MatMulT(l.weight.Tensor())
}

func (l *Linear[B]) checkInput(method string, input *tensor.Tensor[float32, B]) {
	inputShape := input.Shape()
	if len(inputShape) != 2 {
		panic(fmt.Sprintf("Linear.%s: expected 2D input [batch, features], got shape %v", method, inputShape))
	}
	if inputShape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.%s: expected input with %d features, got %d", method, l.inFeatures, inputShape[1]))
	}
}

// Parameters returns [weight, bias].
func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear[B]) Bias() *Parameter[B] {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}

// StateDict returns deep copies of the layer's parameters keyed by name.
func (l *Linear[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight": l.weight.Tensor().Raw().Clone(),
		"bias":   l.bias.Tensor().Raw().Clone(),
	}
}

// LoadStateDict copies parameters from a state dictionary.
func (l *Linear[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for _, p := range l.Parameters() {
		raw, ok := stateDict[p.Name()]
		if !ok {
			return fmt.Errorf("missing %s in state dict", p.Name())
		}
		if !raw.Shape().Equal(p.Tensor().Shape()) {
			return fmt.Errorf("%s: %w: expected %v, got %v",
				p.Name(), tensor.ErrShapeMismatch, p.Tensor().Shape(), raw.Shape())
		}
		if raw.DType() != tensor.Float32 {
			return fmt.Errorf("%s dtype mismatch: expected float32, got %v", p.Name(), raw.DType())
		}
		copy(p.Tensor().Data(), raw.AsFloat32())
	}
	return nil
}
