// Copyright 2026 The Torq Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package loss

import (
	"github.com/torq-ml/torq/internal/loss"
	"github.com/torq-ml/torq/internal/tensor"
)

// Reduction selects how per-element losses are aggregated.
type Reduction = loss.Reduction

// Reduction constants.
const (
	ReductionMean Reduction = loss.ReductionMean
	ReductionSum  Reduction = loss.ReductionSum
	ReductionNone Reduction = loss.ReductionNone
)

// Segmentation modes for Dice and Jaccard losses.
const (
	ModeBinary     = loss.ModeBinary
	ModeMulticlass = loss.ModeMulticlass
	ModeMultilabel = loss.ModeMultilabel
)

// Binary cross-entropy family

// BCELoss represents binary cross-entropy over probabilities, with optional
// label smoothing that is applied only while in training mode.
type BCELoss[B tensor.Backend] = loss.BCELoss[B]

// BCELossConfig contains configuration for BCELoss.
type BCELossConfig = loss.BCELossConfig

// NewBCELoss creates a new binary cross-entropy loss.
//
// Example:
//
//	backend := cpu.New()
//	criterion, err := loss.NewBCELoss(loss.BCELossConfig{LabelSmooth: 0.1}, backend)
func NewBCELoss[B tensor.Backend](config BCELossConfig, backend B) (*BCELoss[B], error) {
	return loss.NewBCELoss(config, backend)
}

// BCEFocalLoss represents the focal modulation of binary cross-entropy.
type BCEFocalLoss[B tensor.Backend] = loss.BCEFocalLoss[B]

// BCEFocalLossConfig contains configuration for BCEFocalLoss.
type BCEFocalLossConfig = loss.BCEFocalLossConfig

// NewBCEFocalLoss creates a new focal binary cross-entropy loss.
func NewBCEFocalLoss[B tensor.Backend](config BCEFocalLossConfig, backend B) (*BCEFocalLoss[B], error) {
	return loss.NewBCEFocalLoss(config, backend)
}

// Focal losses

// FocalLoss represents the focal loss over logits for binary classification.
type FocalLoss[B tensor.Backend] = loss.FocalLoss[B]

// FocalLossConfig contains configuration for FocalLoss.
type FocalLossConfig = loss.FocalLossConfig

// NewFocalLoss creates a new focal loss.
func NewFocalLoss[B tensor.Backend](config FocalLossConfig, backend B) (*FocalLoss[B], error) {
	return loss.NewFocalLoss(config, backend)
}

// FocalCosineLoss combines cosine-embedding loss with a focal cross-entropy
// term over L2-normalized predictions.
type FocalCosineLoss[B tensor.Backend] = loss.FocalCosineLoss[B]

// FocalCosineLossConfig contains configuration for FocalCosineLoss.
type FocalCosineLossConfig = loss.FocalCosineLossConfig

// NewFocalCosineLoss creates a new focal cosine loss.
func NewFocalCosineLoss[B tensor.Backend](config FocalCosineLossConfig, backend B) (*FocalCosineLoss[B], error) {
	return loss.NewFocalCosineLoss(config, backend)
}

// Soft F1

// SoftF1Loss represents a differentiable F-beta surrogate (1 - soft F1).
type SoftF1Loss[B tensor.Backend] = loss.SoftF1Loss[B]

// SoftF1LossConfig contains configuration for SoftF1Loss.
type SoftF1LossConfig = loss.SoftF1LossConfig

// NewSoftF1Loss creates a new soft F1 loss.
func NewSoftF1Loss[B tensor.Backend](config SoftF1LossConfig, backend B) (*SoftF1Loss[B], error) {
	return loss.NewSoftF1Loss(config, backend)
}

// Segmentation losses

// SegmentationLossConfig contains the shared configuration for the Dice and
// Jaccard segmentation losses.
type SegmentationLossConfig = loss.SegmentationLossConfig

// DiceLoss represents the Dice loss for image segmentation.
type DiceLoss[B tensor.Backend] = loss.DiceLoss[B]

// NewDiceLoss creates a new Dice loss.
//
// Example:
//
//	backend := cpu.New()
//	criterion, err := loss.NewDiceLoss(loss.SegmentationLossConfig{
//	    Mode:       loss.ModeMulticlass,
//	    FromLogits: true,
//	}, backend)
func NewDiceLoss[B tensor.Backend](config SegmentationLossConfig, backend B) (*DiceLoss[B], error) {
	return loss.NewDiceLoss(config, backend)
}

// JaccardLoss represents the Jaccard (IoU) loss for image segmentation.
type JaccardLoss[B tensor.Backend] = loss.JaccardLoss[B]

// NewJaccardLoss creates a new Jaccard loss.
func NewJaccardLoss[B tensor.Backend](config SegmentationLossConfig, backend B) (*JaccardLoss[B], error) {
	return loss.NewJaccardLoss(config, backend)
}

// SoftDiceScore computes the soft Dice score between output and target,
// optionally reduced over dims.
func SoftDiceScore[B tensor.Backend](output, target *tensor.Tensor[float32, B], smooth, eps float32, dims []int) *tensor.Tensor[float32, B] {
	return loss.SoftDiceScore(output, target, smooth, eps, dims)
}

// SoftJaccardScore computes the soft Jaccard score between output and target,
// optionally reduced over dims.
func SoftJaccardScore[B tensor.Backend](output, target *tensor.Tensor[float32, B], smooth, eps float32, dims []int) *tensor.Tensor[float32, B] {
	return loss.SoftJaccardScore(output, target, smooth, eps, dims)
}

// Class-imbalance losses

// LDAMLoss represents the label-distribution-aware margin loss.
type LDAMLoss[B tensor.Backend] = loss.LDAMLoss[B]

// LDAMLossConfig contains configuration for LDAMLoss.
type LDAMLossConfig = loss.LDAMLossConfig

// NewLDAMLoss creates a new LDAM loss.
//
// Example:
//
//	backend := cpu.New()
//	criterion, err := loss.NewLDAMLoss(loss.LDAMLossConfig{
//	    NumClassList: []int{1000, 100, 10},
//	}, backend)
func NewLDAMLoss[B tensor.Backend](config LDAMLossConfig, backend B) (*LDAMLoss[B], error) {
	return loss.NewLDAMLoss(config, backend)
}

// Bi-tempered losses

// BiTemperedLogisticLoss represents the bi-tempered logistic loss for
// multiclass classification with noisy labels.
type BiTemperedLogisticLoss[B tensor.Backend] = loss.BiTemperedLogisticLoss[B]

// BiTemperedConfig contains configuration for the bi-tempered losses.
type BiTemperedConfig = loss.BiTemperedConfig

// NewBiTemperedLogisticLoss creates a new bi-tempered logistic loss.
func NewBiTemperedLogisticLoss[B tensor.Backend](config BiTemperedConfig, backend B) (*BiTemperedLogisticLoss[B], error) {
	return loss.NewBiTemperedLogisticLoss(config, backend)
}

// BinaryBiTemperedLogisticLoss represents the binary variant of the
// bi-tempered logistic loss.
type BinaryBiTemperedLogisticLoss[B tensor.Backend] = loss.BinaryBiTemperedLogisticLoss[B]

// NewBinaryBiTemperedLogisticLoss creates a new binary bi-tempered logistic loss.
func NewBinaryBiTemperedLogisticLoss[B tensor.Backend](config BiTemperedConfig, backend B) (*BinaryBiTemperedLogisticLoss[B], error) {
	return loss.NewBinaryBiTemperedLogisticLoss(config, backend)
}
