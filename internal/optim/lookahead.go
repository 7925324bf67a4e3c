package optim

import (
	"fmt"

	"github.com/torq-ml/torq/internal/nn"
	"github.com/torq-ml/torq/internal/tensor"
)

// Pullback momentum modes for Lookahead.
const (
	PullbackNone     = "none"     // Leave the inner optimizer's momentum untouched
	PullbackReset    = "reset"    // Zero the inner momentum on every interpolation
	PullbackPullback = "pullback" // Interpolate the inner momentum like the parameters
)

// momentumHolder is implemented by inner optimizers whose momentum buffers
// Lookahead can manipulate in its reset and pullback modes.
type momentumHolder[B tensor.Backend] interface {
	MomentumBuffer(param *nn.Parameter[B]) *tensor.Tensor[float32, B]
	SetMomentumBuffer(param *nn.Parameter[B], buffer *tensor.Tensor[float32, B])
}

// stateDictHolder is implemented by inner optimizers with exportable state.
type stateDictHolder interface {
	StateDict() map[string]*tensor.RawTensor
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// Lookahead implements the "k steps forward, 1 step back" wrapper.
//
// It delegates every Step to the inner optimizer; every k-th step it pulls
// the fast weights back toward a slow copy:
//
//	fast = alpha * fast + (1-alpha) * slow
//	slow = fast
//
// Reference: "Lookahead Optimizer: k steps forward, 1 step back"
// (Zhang, Lucas, Hinton & Ba, 2019)
type Lookahead[B tensor.Backend] struct {
	inner            Optimizer
	params           []*nn.Parameter[B]
	k                int
	alpha            float32
	pullbackMomentum string
	counter          int
	slowParams       map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
	slowMomentum     map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
	backupParams     map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
	holder           momentumHolder[B]
	backend          B
}

// LookaheadConfig holds configuration for the Lookahead wrapper.
type LookaheadConfig struct {
	K                int     // Number of inner steps per interpolation (default: 5)
	Alpha            float32 // Linear interpolation factor (default: 0.5, range: [0, 1])
	PullbackMomentum string  // One of PullbackNone, PullbackReset, PullbackPullback (default: none)
}

// NewLookahead wraps an inner optimizer with Lookahead slow weights.
//
// The params slice must be the same parameters the inner optimizer updates.
// Modes other than PullbackNone require the inner optimizer to expose its
// momentum buffers (SGD and AliG do; Adam does not).
func NewLookahead[B tensor.Backend](inner Optimizer, params []*nn.Parameter[B], config LookaheadConfig, backend B) (*Lookahead[B], error) {
	if config.K == 0 {
		config.K = 5
	}
	if config.Alpha == 0 {
		config.Alpha = 0.5
	}
	if config.PullbackMomentum == "" {
		config.PullbackMomentum = PullbackNone
	}

	if err := validatePositive(config.K, "k"); err != nil {
		return nil, fmt.Errorf("lookahead: %w", err)
	}
	if err := validateRange(config.Alpha, "alpha", 0.0, 1.0); err != nil {
		return nil, fmt.Errorf("lookahead: %w", err)
	}
	if err := validateOptions(config.PullbackMomentum, "pullback_momentum",
		[]string{PullbackNone, PullbackReset, PullbackPullback}); err != nil {
		return nil, fmt.Errorf("lookahead: %w", err)
	}

	l := &Lookahead[B]{
		inner:            inner,
		params:           params,
		k:                config.K,
		alpha:            config.Alpha,
		pullbackMomentum: config.PullbackMomentum,
		slowParams:       make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		slowMomentum:     make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		backupParams:     make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		backend:          backend,
	}

	if config.PullbackMomentum != PullbackNone {
		holder, ok := inner.(momentumHolder[B])
		if !ok {
			return nil, fmt.Errorf("lookahead: pullback_momentum %q requires an inner optimizer with momentum buffers",
				config.PullbackMomentum)
		}
		l.holder = holder
	}

	for _, param := range params {
		l.slowParams[param] = param.Tensor().Clone()
		if config.PullbackMomentum == PullbackPullback {
			l.slowMomentum[param] = tensor.Zeros[float32](param.Tensor().Shape(), backend)
		}
	}

	return l, nil
}

// Step delegates to the inner optimizer, then interpolates toward the slow
// weights every k-th call.
func (l *Lookahead[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	l.inner.Step(grads)

	l.counter++
	if l.counter >= l.k {
		l.counter = 0
		l.update(grads)
	}
}

// update interpolates fast and slow weights for every parameter that
// participated in the last step.
func (l *Lookahead[B]) update(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range l.params {
		if getGradient(param, grads) == nil {
			continue
		}

		fastData := param.Tensor().Data()
		slowData := l.slowParams[param].Data()

		for i := range fastData {
			fastData[i] = l.alpha*fastData[i] + (1.0-l.alpha)*slowData[i]
			slowData[i] = fastData[i]
		}

		switch l.pullbackMomentum {
		case PullbackPullback:
			bufData := l.holder.MomentumBuffer(param).Data()
			slowMomData := l.slowMomentum[param].Data()
			for i := range bufData {
				bufData[i] = l.alpha*bufData[i] + (1.0-l.alpha)*slowMomData[i]
				slowMomData[i] = bufData[i]
			}
		case PullbackReset:
			l.holder.SetMomentumBuffer(param, tensor.Zeros[float32](param.Tensor().Shape(), l.backend))
		}
	}
}

// BackupAndLoadCache stashes the fast weights and loads the slow weights
// into the parameters, typically before evaluation.
func (l *Lookahead[B]) BackupAndLoadCache() {
	for _, param := range l.params {
		l.backupParams[param] = param.Tensor().Clone()
		param.Tensor().Raw().CopyFrom(l.slowParams[param].Raw())
	}
}

// ClearAndLoadBackup restores the fast weights stashed by
// BackupAndLoadCache.
func (l *Lookahead[B]) ClearAndLoadBackup() {
	for _, param := range l.params {
		backup, exists := l.backupParams[param]
		if !exists {
			continue
		}
		param.Tensor().Raw().CopyFrom(backup.Raw())
		delete(l.backupParams, param)
	}
}

// Reset restarts the inner step counter.
func (l *Lookahead[B]) Reset() {
	l.counter = 0
}

// ZeroGrad clears gradients via the inner optimizer.
func (l *Lookahead[B]) ZeroGrad() {
	l.inner.ZeroGrad()
}

// GetLR returns the inner optimizer's learning rate.
func (l *Lookahead[B]) GetLR() float32 {
	return l.inner.GetLR()
}

// StateDict exports the inner optimizer's state. The slow weights are not
// part of the state dict; they are rebuilt from the parameters at
// construction.
func (l *Lookahead[B]) StateDict() map[string]*tensor.RawTensor {
	if h, ok := l.inner.(stateDictHolder); ok {
		return h.StateDict()
	}
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict restores the inner optimizer's state.
func (l *Lookahead[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if h, ok := l.inner.(stateDictHolder); ok {
		return h.LoadStateDict(stateDict)
	}
	return nil
}
