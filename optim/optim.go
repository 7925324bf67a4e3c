// Copyright 2026 The Torq Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/torq-ml/torq/internal/nn"
	"github.com/torq-ml/torq/internal/optim"
	"github.com/torq-ml/torq/internal/tensor"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD[B tensor.Backend] = optim.SGD[B]

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	backend := cpu.New()
//	optimizer, err := optim.NewSGD(
//	    params,
//	    optim.SGDConfig{
//	        LR:       0.01,
//	        Momentum: 0.9,
//	    },
//	    backend,
//	)
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) (*SGD[B], error) {
	return optim.NewSGD(params, config, backend)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam optimizer.
type Adam[B tensor.Backend] = optim.Adam[B]

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with bias correction.
//
// Example:
//
//	backend := cpu.New()
//	optimizer, err := optim.NewAdam(
//	    params,
//	    optim.AdamConfig{
//	        LR:      0.001,
//	        Betas:   [2]float32{0.9, 0.999},
//	        Epsilon: 1e-8,
//	    },
//	    backend,
//	)
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, backend B) (*Adam[B], error) {
	return optim.NewAdam(params, config, backend)
}

// AliG (Adaptive Learning rates for Interpolation with Gradients)

// AliG represents the AliG optimizer. AliG computes its step size from the
// current loss value instead of a fixed learning rate, so callers must pass
// the loss to SetLoss before every Step.
type AliG[B tensor.Backend] = optim.AliG[B]

// AliGConfig contains configuration for AliG optimizer.
type AliGConfig = optim.AliGConfig

// NewAliG creates a new AliG optimizer.
//
// Example:
//
//	backend := cpu.New()
//	optimizer, err := optim.NewAliG(
//	    params,
//	    optim.AliGConfig{
//	        MaxLR:    0.1,
//	        Momentum: 0.9,
//	    },
//	    backend,
//	)
//
//	// per training step:
//	optimizer.SetLoss(lossValue)
//	optimizer.Step(grads)
func NewAliG[B tensor.Backend](params []*nn.Parameter[B], config AliGConfig, backend B) (*AliG[B], error) {
	return optim.NewAliG(params, config, backend)
}

// Lookahead ("k steps forward, 1 step back")

// Pullback momentum modes for Lookahead.
const (
	PullbackNone     = optim.PullbackNone
	PullbackReset    = optim.PullbackReset
	PullbackPullback = optim.PullbackPullback
)

// Lookahead wraps another optimizer and maintains a slow copy of the
// parameters that the fast weights are interpolated toward every K steps.
type Lookahead[B tensor.Backend] = optim.Lookahead[B]

// LookaheadConfig contains configuration for the Lookahead wrapper.
type LookaheadConfig = optim.LookaheadConfig

// NewLookahead wraps inner with Lookahead over params.
//
// Example:
//
//	backend := cpu.New()
//	inner, _ := optim.NewSGD(params, optim.SGDConfig{LR: 0.01, Momentum: 0.9}, backend)
//	optimizer, err := optim.NewLookahead(
//	    inner,
//	    params,
//	    optim.LookaheadConfig{
//	        K:                5,
//	        Alpha:            0.5,
//	        PullbackMomentum: optim.PullbackNone,
//	    },
//	    backend,
//	)
func NewLookahead[B tensor.Backend](inner Optimizer, params []*nn.Parameter[B], config LookaheadConfig, backend B) (*Lookahead[B], error) {
	return optim.NewLookahead(inner, params, config, backend)
}
