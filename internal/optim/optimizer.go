// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Optimizers read the gradients accumulated on each nn.Parameter by the
// model's backward pass.
//
// Example usage:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.008,
//	    Momentum: 0.5,
//	}, backend)
//
//	for batch := range batches {
//	    optimizer.ZeroGrad()
//	    trace := model.Trace(batch.Features)
//	    grad, _ := criterion.Backward(trace.Logits, batch.Labels)
//	    model.Backward(trace, grad)
//	    optimizer.Step()
//	}
package optim

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas32"

	"github.com/born-ml/spamnet/internal/nn"
	"github.com/born-ml/spamnet/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: Apply gradient updates to parameters
//   - ZeroGrad: Clear gradients before next iteration
//   - GetLR: Get current learning rate (for monitoring/scheduling)
type Optimizer interface {
	// Step applies the accumulated gradients to all parameters in place.
	// Parameters without a gradient are left untouched.
	Step()

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float32 // Learning rate
}

// Optimizer names accepted by New.
const (
	NameSGD  = "sgd"
	NameAdam = "adam"
)

// New builds the optimizer registered under name.
//
// For "sgd" momentum is used as the momentum factor; "adam" ignores it and
// uses its default betas.
func New[B tensor.Backend](name string, params []*nn.Parameter[B], lr, momentum float32, backend B) (Optimizer, error) {
	switch name {
	case NameSGD, "":
		return NewSGD(params, SGDConfig{LR: lr, Momentum: momentum}, backend), nil
	case NameAdam:
		return NewAdam(params, AdamConfig{LR: lr}, backend), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q (want %s or %s)", name, NameSGD, NameAdam)
	}
}

// vec views a float32 slice as a unit-stride BLAS vector.
func vec(data []float32) blas32.Vector {
	return blas32.Vector{N: len(data), Inc: 1, Data: data}
}
