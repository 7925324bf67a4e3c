package loss

import (
	"fmt"

	"github.com/torq-ml/torq/internal/tensor"
)

// SoftF1Loss computes a differentiable F-beta loss from soft true/false
// positive counts:
//
//	tp = sum(t*p)   fp = sum((1-t)*p)   fn = sum(t*(1-p))
//	precision = tp/(tp+fp+eps)   recall = tp/(tp+fn+eps)
//	loss = 1 - (1+b²)*precision*recall/(b²*precision + recall + eps)
type SoftF1Loss[B tensor.Backend] struct {
	beta    float32
	eps     float32
	backend B
}

// SoftF1LossConfig holds configuration for SoftF1Loss.
type SoftF1LossConfig struct {
	Beta float32 // Recall weight (default: 1.0)
	Eps  float32 // Term for numerical stability (default: 1e-6)
}

// NewSoftF1Loss creates a new soft F-beta loss.
func NewSoftF1Loss[B tensor.Backend](config SoftF1LossConfig, backend B) (*SoftF1Loss[B], error) {
	if config.Beta == 0 {
		config.Beta = 1.0
	}
	if config.Eps == 0 {
		config.Eps = 1e-6
	}

	if config.Beta < 0 {
		return nil, fmt.Errorf("soft_f1: beta must be non-negative, got %g", config.Beta)
	}
	if config.Eps < 0 {
		return nil, fmt.Errorf("soft_f1: eps must be non-negative, got %g", config.Eps)
	}

	return &SoftF1Loss[B]{beta: config.Beta, eps: config.Eps, backend: backend}, nil
}

// Forward computes the loss. Predictions are probabilities in [0, 1];
// targets are binary labels of the same shape.
func (l *SoftF1Loss[B]) Forward(yPred, yTrue *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !yPred.Shape().Equal(yTrue.Shape()) {
		panic(fmt.Sprintf("soft_f1: predictions shape %v does not match targets shape %v",
			yPred.Shape(), yTrue.Shape()))
	}

	predData := yPred.Data()
	trueData := yTrue.Data()

	var tp, fp, fn float32
	for i, p := range predData {
		t := trueData[i]
		tp += t * p
		fp += (1.0 - t) * p
		fn += t * (1.0 - p)
	}

	precision := tp / (tp + fp + l.eps)
	recall := tp / (tp + fn + l.eps)

	b2 := l.beta * l.beta
	f1 := (1.0 + b2) * precision * recall / (b2*precision + recall + l.eps)

	return scalar(1.0-f1, l.backend)
}
