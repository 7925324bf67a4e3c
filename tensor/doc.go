// Copyright 2026 The Torq Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for tensor operations in torq.
//
// # Overview
//
// This package defines the core types the optimizers and loss functions
// operate on:
//   - Tensor[T, B]: high-level generic tensor with type safety
//   - RawTensor: low-level dense tensor used in the gradient map contract
//   - Backend: interface for device-specific compute implementations
//   - Shape, DataType, Device: core type definitions
//
// # Basic Usage
//
//	import (
//	    "github.com/torq-ml/torq/backend/cpu"
//	    "github.com/torq-ml/torq/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y)
//	}
package tensor
