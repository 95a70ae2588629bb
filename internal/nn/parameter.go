package nn

import (
	"fmt"

	"github.com/born-ml/spamnet/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// Backward passes add into the gradient with AccumulateGrad; the training
// loop clears it with ZeroGrad before each batch.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
	grad   *tensor.Tensor[float32, B] // nil until the first backward pass
}

// NewParameter creates a new trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Grad returns the accumulated gradient, or nil before any backward pass.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.grad
}

// SetGrad replaces the gradient tensor.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.grad = grad
}

// AccumulateGrad adds g into the parameter's gradient.
// Panics if g's shape differs from the parameter's.
func (p *Parameter[B]) AccumulateGrad(g *tensor.Tensor[float32, B]) {
	if !g.Shape().Equal(p.tensor.Shape()) {
		panic(fmt.Sprintf("parameter %s: gradient shape %v does not match %v", p.name, g.Shape(), p.tensor.Shape()))
	}
	if p.grad == nil {
		p.grad = g.Clone()
		return
	}
	dst := p.grad.Data()
	for i, v := range g.Data() {
		dst[i] += v
	}
}

// ZeroGrad resets the accumulated gradient to zero, keeping its buffer.
func (p *Parameter[B]) ZeroGrad() {
	if p.grad == nil {
		return
	}
	data := p.grad.Data()
	for i := range data {
		data[i] = 0
	}
}
