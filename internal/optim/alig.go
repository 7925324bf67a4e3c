package optim

import (
	"fmt"

	"github.com/torq-ml/torq/internal/nn"
	"github.com/torq-ml/torq/internal/tensor"
)

// AliG implements Adaptive Learning rates for Interpolation with Gradients.
//
// Instead of a fixed learning rate, AliG derives the step size for each
// update from the current loss value and the global gradient norm:
//
//	step_size = loss / (sum_p ||grad_p||² + eps)
//
// With a configured MaxLR the step size is clamped with MaxLR as the lower
// bound. The parameter update is plain gradient descent plus an optional
// momentum term:
//
//	p -= step_size * grad
//	standard:  buf = momentum*buf - step_size*grad; p += momentum*buf
//	adjusted:  buf = momentum*buf - grad;           p += step_size*momentum*buf
//
// The loss driving the step size is supplied once per batch via SetLoss
// before calling Step.
//
// Reference: "Training Neural Networks for and by Interpolation"
// (Berrada, Zisserman & Kumar, 2020)
type AliG[B tensor.Backend] struct {
	params           []*nn.Parameter[B]
	maxLR            float32
	momentum         float32
	adjustedMomentum bool
	eps              float32
	projection       func()
	loss             float32
	stepSize         float32
	step             int
	buffers          map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
	backend          B
}

// AliGConfig holds configuration for the AliG optimizer.
type AliGConfig struct {
	MaxLR            float32 // Step size clamp value (default: 0, no clamping)
	Momentum         float32 // Momentum factor (default: 0.0, range: [0, 1))
	AdjustedMomentum bool    // Use the heavy-ball style momentum update instead of standard Nesterov
	Eps              float32 // Term added to the denominator for numerical stability (default: 1e-5)
	Projection       func()  // Optional projection enforcing parameter constraints
}

// NewAliG creates a new AliG optimizer.
//
// Returns an error when momentum is outside [0, 1) or eps is negative.
// When a projection function is configured it is invoked once at
// construction and again after every step.
func NewAliG[B tensor.Backend](params []*nn.Parameter[B], config AliGConfig, backend B) (*AliG[B], error) {
	if err := validateMomentum(config.Momentum); err != nil {
		return nil, fmt.Errorf("alig: %w", err)
	}
	if err := validateEpsilon(config.Eps); err != nil {
		return nil, fmt.Errorf("alig: %w", err)
	}
	if config.Eps == 0 {
		config.Eps = 1e-5
	}

	a := &AliG[B]{
		params:           params,
		maxLR:            config.MaxLR,
		momentum:         config.Momentum,
		adjustedMomentum: config.AdjustedMomentum,
		eps:              config.Eps,
		projection:       config.Projection,
		buffers:          make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		backend:          backend,
	}

	if a.projection != nil {
		a.projection()
	}

	return a, nil
}

// SetLoss records the loss value of the current batch. Must be called
// before Step; the recorded value drives the adaptive step size.
func (a *AliG[B]) SetLoss(loss float32) {
	a.loss = loss
}

// ComputeStepSize returns the unclamped step size for a loss value and a
// gradient map: loss / (global squared gradient norm + eps).
func (a *AliG[B]) ComputeStepSize(loss float32, grads map[*tensor.RawTensor]*tensor.RawTensor) float32 {
	var globalGradNorm float32
	for _, param := range a.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}
		for _, g := range grad.AsFloat32() {
			globalGradNorm += g * g
		}
	}
	return loss / (globalGradNorm + a.eps)
}

// Step performs a single optimization step using the loss recorded by
// SetLoss. Parameters without a gradient are skipped; malformed gradients
// panic.
func (a *AliG[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.step++

	stepSize := a.ComputeStepSize(a.loss, grads)
	// MaxLR bounds the step size from below.
	if a.maxLR > 0 && stepSize < a.maxLR {
		stepSize = a.maxLR
	}
	a.stepSize = stepSize

	for _, param := range a.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}
		checkGradient("alig", param, grad)

		buffer, exists := a.buffers[param]
		if !exists {
			buffer = tensor.Zeros[float32](param.Tensor().Shape(), a.backend)
			a.buffers[param] = buffer
		}

		paramData := param.Tensor().Data()
		gradData := grad.AsFloat32()
		bufData := buffer.Data()

		for i := range paramData {
			paramData[i] -= stepSize * gradData[i]

			if a.momentum > 0 {
				if a.adjustedMomentum {
					bufData[i] = bufData[i]*a.momentum - gradData[i]
					paramData[i] += stepSize * a.momentum * bufData[i]
				} else {
					bufData[i] = bufData[i]*a.momentum - stepSize*gradData[i]
					paramData[i] += a.momentum * bufData[i]
				}
			}
		}
	}

	if a.projection != nil {
		a.projection()
	}
}

// ZeroGrad clears gradients for all parameters.
func (a *AliG[B]) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}

// GetLR returns the step size applied by the most recent Step.
func (a *AliG[B]) GetLR() float32 {
	return a.stepSize
}

// GetStep returns the number of steps performed since construction or the
// last Reset.
func (a *AliG[B]) GetStep() int {
	return a.step
}

// Reset zeroes the step counter and all momentum buffers.
func (a *AliG[B]) Reset() {
	a.step = 0
	for _, param := range a.params {
		a.buffers[param] = tensor.Zeros[float32](param.Tensor().Shape(), a.backend)
	}
}

// MomentumBuffer returns the momentum buffer for a parameter, allocating a
// zero buffer on first access. Used by Lookahead's pullback mode.
func (a *AliG[B]) MomentumBuffer(param *nn.Parameter[B]) *tensor.Tensor[float32, B] {
	buffer, exists := a.buffers[param]
	if !exists {
		buffer = tensor.Zeros[float32](param.Tensor().Shape(), a.backend)
		a.buffers[param] = buffer
	}
	return buffer
}

// SetMomentumBuffer replaces the momentum buffer for a parameter.
func (a *AliG[B]) SetMomentumBuffer(param *nn.Parameter[B], buffer *tensor.Tensor[float32, B]) {
	a.buffers[param] = buffer
}

// StateDict returns the optimizer state for serialization.
//
// State keys: "momentum_buffer.{param_index}" -> buffer tensor, plus "step"
// holding the step counter as a single-element int32 tensor.
func (a *AliG[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for i, param := range a.params {
		buffer, exists := a.buffers[param]
		if !exists {
			continue
		}
		stateDict[fmt.Sprintf("momentum_buffer.%d", i)] = buffer.Raw()
	}

	step, err := tensor.NewRaw(tensor.Shape{1}, tensor.Int32, a.backend.Device())
	if err != nil {
		panic(fmt.Sprintf("alig: %v", err))
	}
	step.AsInt32()[0] = int32(a.step)
	stateDict["step"] = step

	return stateDict
}

// LoadStateDict restores the state exported by StateDict.
// Returns an error if a buffer shape does not match its parameter shape.
func (a *AliG[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	a.buffers = make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B])

	for i, param := range a.params {
		raw, exists := stateDict[fmt.Sprintf("momentum_buffer.%d", i)]
		if !exists {
			continue
		}
		if !raw.Shape().Equal(param.Tensor().Shape()) {
			return fmt.Errorf("momentum buffer shape mismatch for parameter %d: expected %v, got %v",
				i, param.Tensor().Shape(), raw.Shape())
		}
		a.buffers[param] = tensor.New[float32, B](raw, a.backend)
	}

	if step, exists := stateDict["step"]; exists {
		if step.DType() != tensor.Int32 || step.NumElements() != 1 {
			return fmt.Errorf("step must be a single-element int32 tensor, got %s%v",
				step.DType(), step.Shape())
		}
		a.step = int(step.AsInt32()[0])
	}

	return nil
}
