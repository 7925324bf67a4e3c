// Copyright 2026 The Torq Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training neural networks.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - AliG: Adaptive Learning rates for Interpolation with Gradients
//   - Lookahead: "k steps forward, 1 step back" wrapper around any optimizer
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	import (
//	    "github.com/torq-ml/torq/optim"
//	    "github.com/torq-ml/torq/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Create optimizer
//	    optimizer, err := optim.NewSGD(
//	        params,
//	        optim.SGDConfig{
//	            LR:       0.01,
//	            Momentum: 0.9,
//	        },
//	        backend,
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // Training loop
//	    for epoch := range 10 {
//	        // Forward pass
//	        loss := criterion.Forward(preds, targets)
//
//	        // Backward pass
//	        optimizer.ZeroGrad()
//	        grads := backward(loss)
//	        optimizer.Step(grads)
//	    }
//	}
//
// # AliG
//
// AliG derives its step size from the current loss value, so it needs the
// loss before every step:
//
//	optimizer, _ := optim.NewAliG(
//	    params,
//	    optim.AliGConfig{MaxLR: 0.1, Momentum: 0.9},
//	    backend,
//	)
//
//	for batch := range dataLoader {
//	    loss := criterion.Forward(model(batch.Input), batch.Target)
//	    optimizer.SetLoss(loss.Item())
//	    optimizer.Step(backward(loss))
//	}
//
// # Lookahead
//
// Lookahead wraps any optimizer and keeps a slow copy of the parameters.
// Every K inner steps the fast weights are interpolated toward the slow
// weights and the slow weights updated:
//
//	inner, _ := optim.NewSGD(params, optim.SGDConfig{LR: 0.01, Momentum: 0.9}, backend)
//	optimizer, _ := optim.NewLookahead(
//	    inner,
//	    params,
//	    optim.LookaheadConfig{K: 5, Alpha: 0.5},
//	    backend,
//	)
//
// For evaluation, BackupAndLoadCache swaps the slow weights in and
// ClearAndLoadBackup restores the fast weights afterwards.
package optim
