// Copyright 2026 The Torq Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package loss provides loss functions for classification and segmentation.
//
// # Overview
//
// This package contains:
//   - BCELoss, BCEFocalLoss: binary cross-entropy family with label smoothing
//   - FocalLoss, FocalCosineLoss: focal losses over logits
//   - SoftF1Loss: differentiable F-beta surrogate
//   - DiceLoss, JaccardLoss: segmentation losses (binary, multiclass, multilabel)
//   - LDAMLoss: label-distribution-aware margin loss for class imbalance
//   - BiTemperedLogisticLoss, BinaryBiTemperedLogisticLoss: robustness to
//     noisy labels via tempered logarithm and exponential
//
// Every loss is constructed from a config struct with validated fields and
// exposes a Forward method producing a loss tensor. Reductions mean and sum
// produce a scalar; ReductionNone keeps the per-element losses.
//
// # Basic Usage
//
//	import (
//	    "github.com/torq-ml/torq/loss"
//	    "github.com/torq-ml/torq/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    criterion, err := loss.NewFocalLoss(loss.FocalLossConfig{
//	        Alpha: 1.0,
//	        Gamma: 2.0,
//	    }, backend)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    l := criterion.Forward(logits, targets)
//	    fmt.Println(l.Item())
//	}
//
// # Shapes
//
// Configuration errors are reported by the constructors. Shape and dtype
// mismatches in Forward panic, matching the tensor package's behavior for
// malformed operands.
package loss
