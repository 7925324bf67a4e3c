// Package optim implements gradient-based optimization algorithms.
//
// This package provides:
//   - Optimizer interface: base contract for all optimizers
//   - AliG: adaptive learning rates for interpolation with gradients
//   - Lookahead: k steps forward, 1 step back wrapper
//   - SGD, Adam: classic baselines, also usable as Lookahead inner optimizers
//
// Gradients are supplied by the caller's autodiff engine as a map from each
// parameter's RawTensor to its gradient RawTensor, once per batch:
//
//	grads := backward(loss)
//	optimizer.Step(grads)
//	optimizer.ZeroGrad()
package optim

import (
	"fmt"

	"github.com/torq-ml/torq/internal/nn"
	"github.com/torq-ml/torq/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies one gradient update to all parameters. The map should
	// contain parameter RawTensor -> gradient RawTensor entries; parameters
	// without a gradient are skipped.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate, for monitoring and
	// scheduling.
	GetLR() float32
}

// getGradient safely retrieves the gradient for a parameter.
// Returns nil if the parameter was not part of the computation graph.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Tensor().Raw()]
}

// checkGradient rejects gradients the dense update kernels cannot consume.
// The framework only produces dense float32 gradients; anything else is a
// caller bug surfaced at update time.
func checkGradient[B tensor.Backend](name string, param *nn.Parameter[B], grad *tensor.RawTensor) {
	if grad.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: gradient for %q has dtype %s, want float32", name, param.Name(), grad.DType()))
	}
	if !grad.Shape().Equal(param.Tensor().Shape()) {
		panic(fmt.Sprintf("%s: gradient shape %v does not match parameter %q shape %v",
			name, grad.Shape(), param.Name(), param.Tensor().Shape()))
	}
}
