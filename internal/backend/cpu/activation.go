package cpu

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/born-ml/spamnet/internal/parallel"
	"github.com/born-ml/spamnet/internal/tensor"
)

// ReLU applies max(0, x) element-wise. NaN propagates.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("relu", x, func(v float32) float32 {
		if v > 0 || math32.IsNaN(v) {
			return v
		}
		return 0
	})
}

// ReLUBackward passes grad through where input > 0 and zeroes it elsewhere.
func (cpu *CPUBackend) ReLUBackward(grad, input *tensor.RawTensor) *tensor.RawTensor {
	return cpu.gated("relu_backward", grad, input, func(g, x float32) float32 {
		if x > 0 {
			return g
		}
		return 0
	})
}

// Sigmoid applies 1 / (1 + exp(-x)) element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sigmoid", x, func(v float32) float32 {
		// Branch on sign so exp never overflows.
		if v >= 0 {
			return 1 / (1 + math32.Exp(-v))
		}
		e := math32.Exp(v)
		return e / (1 + e)
	})
}

// SigmoidBackward computes grad * y * (1 - y) for y = sigmoid(x).
func (cpu *CPUBackend) SigmoidBackward(grad, output *tensor.RawTensor) *tensor.RawTensor {
	return cpu.gated("sigmoid_backward", grad, output, func(g, y float32) float32 {
		return g * y * (1 - y)
	})
}

// Tanh applies tanh(x) element-wise.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("tanh", x, math32.Tanh)
}

// TanhBackward computes grad * (1 - y²) for y = tanh(x).
func (cpu *CPUBackend) TanhBackward(grad, output *tensor.RawTensor) *tensor.RawTensor {
	return cpu.gated("tanh_backward", grad, output, func(g, y float32) float32 {
		return g * (1 - y*y)
	})
}

func (cpu *CPUBackend) gated(op string, grad, ref *tensor.RawTensor, f func(g, v float32) float32) *tensor.RawTensor {
	checkFloat32(op, grad)
	checkFloat32(op, ref)
	if !grad.Shape().Equal(ref.Shape()) {
		panic(fmt.Sprintf("%s: gradient shape %v does not match %v", op, grad.Shape(), ref.Shape()))
	}

	result := cpu.alloc(op, grad.Shape(), tensor.Float32)
	g := grad.AsFloat32()
	v := ref.AsFloat32()
	dst := result.AsFloat32()
	parallel.ForRange(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = f(g[i], v[i])
		}
	}, cpu.parallel)
	return result
}
