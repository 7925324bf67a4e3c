// Package loss implements classification and segmentation loss functions.
//
// This package provides:
//   - BCELoss / BCEFocalLoss: binary cross entropy over probabilities, with
//     label smoothing and a focal variant
//   - FocalLoss / FocalCosineLoss: focal losses over logits
//   - SoftF1Loss: differentiable F-beta
//   - DiceLoss / JaccardLoss: segmentation losses with binary, multiclass
//     and multilabel modes
//   - LDAMLoss: label-distribution-aware margin loss
//   - BiTemperedLogisticLoss / BinaryBiTemperedLogisticLoss: robust losses
//     built on tempered softmax and tempered logarithms
//
// All losses follow the same shape: a Config-validated constructor and a
// Forward method computing a loss tensor. Reductions produce a scalar
// (shape [1]); ReductionNone keeps the per-element losses.
package loss

import (
	"fmt"
	"math"

	"github.com/torq-ml/torq/internal/tensor"
)

// Reduction selects how per-element losses are aggregated.
type Reduction string

const (
	ReductionMean Reduction = "mean"
	ReductionSum  Reduction = "sum"
	ReductionNone Reduction = "none"
)

func validateReduction(r Reduction, allowed ...Reduction) error {
	for _, a := range allowed {
		if r == a {
			return nil
		}
	}
	return fmt.Errorf("reduction must be one of %v, got %q", allowed, r)
}

// logClamp bounds log terms the way torch's binary cross entropy does, so a
// clamped zero probability yields a large finite loss instead of +Inf.
const logClamp = -100.0

func safeLog(x float32) float32 {
	if x <= 0 {
		return logClamp
	}
	v := float32(math.Log(float64(x)))
	if v < logClamp {
		return logClamp
	}
	return v
}

func sigmoid(x float32) float32 {
	return float32(1.0 / (1.0 + math.Exp(-float64(x))))
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func pow(base, exp float32) float32 {
	return float32(math.Pow(float64(base), float64(exp)))
}

// logSoftmax computes log(softmax(z)) over a row using the log-sum-exp
// trick.
func logSoftmax(z []float32) []float32 {
	result := make([]float32, len(z))

	maxZ := z[0]
	for _, v := range z[1:] {
		if v > maxZ {
			maxZ = v
		}
	}

	var sumExp float64
	for _, v := range z {
		sumExp += math.Exp(float64(v - maxZ))
	}
	logSumExp := maxZ + float32(math.Log(sumExp))

	for i, v := range z {
		result[i] = v - logSumExp
	}
	return result
}

// softmax computes softmax(z) over a row.
func softmax(z []float32) []float32 {
	result := logSoftmax(z)
	for i, v := range result {
		result[i] = float32(math.Exp(float64(v)))
	}
	return result
}

// scalar wraps a single loss value in a shape-[1] tensor.
func scalar[B tensor.Backend](value float32, backend B) *tensor.Tensor[float32, B] {
	raw, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, backend.Device())
	if err != nil {
		panic(err)
	}
	raw.AsFloat32()[0] = value
	return tensor.New[float32, B](raw, backend)
}

// fromValues wraps per-element losses in a tensor of the given shape.
func fromValues[B tensor.Backend](values []float32, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	raw, err := tensor.NewRaw(shape, tensor.Float32, backend.Device())
	if err != nil {
		panic(err)
	}
	copy(raw.AsFloat32(), values)
	return tensor.New[float32, B](raw, backend)
}

// reduce aggregates per-element losses. ReductionNone keeps the values in a
// tensor of the given shape.
func reduce[B tensor.Backend](values []float32, shape tensor.Shape, r Reduction, backend B) *tensor.Tensor[float32, B] {
	switch r {
	case ReductionNone:
		return fromValues(values, shape, backend)
	case ReductionSum:
		var sum float32
		for _, v := range values {
			sum += v
		}
		return scalar(sum, backend)
	default: // mean
		var sum float32
		for _, v := range values {
			sum += v
		}
		return scalar(sum/float32(len(values)), backend)
	}
}
