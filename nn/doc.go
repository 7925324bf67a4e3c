// Copyright 2026 The Torq Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the parameter and module primitives for training.
//
// # Overview
//
// This package contains:
//   - Parameter: a named float32 tensor with a gradient slot
//   - Module: the interface for anything exposing trainable parameters
//
// Parameters are what the optim package updates and what the loss package
// produces gradients for. The gradient slot is filled by the caller's
// autodiff engine between forward and optimizer step.
//
// # Basic Usage
//
//	import (
//	    "github.com/torq-ml/torq/nn"
//	    "github.com/torq-ml/torq/tensor"
//	    "github.com/torq-ml/torq/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    w := tensor.Zeros[float32](tensor.Shape{128, 784}, backend)
//	    weight := nn.NewParameter("weight", w)
//
//	    // ... backward pass fills the gradient ...
//	    grad := weight.Grad()
//	    _ = grad
//	}
package nn
