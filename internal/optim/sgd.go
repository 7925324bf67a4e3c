package optim

import (
	"fmt"

	"github.com/torq-ml/torq/internal/nn"
	"github.com/torq-ml/torq/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum.
//
// Update rule:
//
//	velocity = momentum * velocity + grad
//	param    = param - lr * velocity
type SGD[B tensor.Backend] struct {
	params     []*nn.Parameter[B]
	lr         float32
	momentum   float32
	velocities map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
	backend    B
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) (*SGD[B], error) {
	if config.LR == 0 {
		config.LR = 0.01
	}
	if config.LR < 0 {
		return nil, fmt.Errorf("sgd: learning rate must be positive, got %g", config.LR)
	}
	if err := validateMomentum(config.Momentum); err != nil {
		return nil, fmt.Errorf("sgd: %w", err)
	}

	return &SGD[B]{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		backend:    backend,
	}, nil
}

// Step performs a single optimization step.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range s.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}
		checkGradient("sgd", param, grad)

		paramData := param.Tensor().Data()
		gradData := grad.AsFloat32()

		if s.momentum > 0 {
			velocity, exists := s.velocities[param]
			if !exists {
				velocity = tensor.Zeros[float32](param.Tensor().Shape(), s.backend)
				s.velocities[param] = velocity
			}
			velData := velocity.Data()

			for i := range paramData {
				velData[i] = s.momentum*velData[i] + gradData[i]
				paramData[i] -= s.lr * velData[i]
			}
		} else {
			for i := range paramData {
				paramData[i] -= s.lr * gradData[i]
			}
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD[B]) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (s *SGD[B]) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate, for external schedulers.
func (s *SGD[B]) SetLR(lr float32) {
	s.lr = lr
}

// MomentumBuffer returns the velocity buffer for a parameter, allocating a
// zero buffer on first access. Used by Lookahead's pullback mode.
func (s *SGD[B]) MomentumBuffer(param *nn.Parameter[B]) *tensor.Tensor[float32, B] {
	velocity, exists := s.velocities[param]
	if !exists {
		velocity = tensor.Zeros[float32](param.Tensor().Shape(), s.backend)
		s.velocities[param] = velocity
	}
	return velocity
}

// SetMomentumBuffer replaces the velocity buffer for a parameter.
func (s *SGD[B]) SetMomentumBuffer(param *nn.Parameter[B], buffer *tensor.Tensor[float32, B]) {
	s.velocities[param] = buffer
}

// StateDict returns the optimizer state for serialization.
//
// State keys: "velocity.{param_index}" -> velocity tensor.
func (s *SGD[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for i, param := range s.params {
		velocity, exists := s.velocities[param]
		if !exists {
			continue
		}
		stateDict[fmt.Sprintf("velocity.%d", i)] = velocity.Raw()
	}
	return stateDict
}

// LoadStateDict restores velocity buffers exported by StateDict.
func (s *SGD[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	s.velocities = make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B])

	for i, param := range s.params {
		raw, exists := stateDict[fmt.Sprintf("velocity.%d", i)]
		if !exists {
			continue
		}
		if !raw.Shape().Equal(param.Tensor().Shape()) {
			return fmt.Errorf("velocity shape mismatch for parameter %d: expected %v, got %v",
				i, param.Tensor().Shape(), raw.Shape())
		}
		s.velocities[param] = tensor.New[float32, B](raw, s.backend)
	}

	return nil
}
