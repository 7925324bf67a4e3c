package loss

import (
	"fmt"
	"math"

	"github.com/torq-ml/torq/internal/tensor"
)

// FocalLoss computes the focal loss over raw logits:
//
//	bce = BCEWithLogits(x, t)
//	pt  = exp(-bce)
//	focal = alpha*(1-pt)^gamma*bce
//
// Reference: "Focal Loss for Dense Object Detection" (Lin et al., 2017)
type FocalLoss[B tensor.Backend] struct {
	alpha   float32
	gamma   float32
	backend B
}

// FocalLossConfig holds configuration for FocalLoss.
type FocalLossConfig struct {
	Alpha float32 // Focal weight (default: 1.0)
	Gamma float32 // Focusing exponent (default: 2.0)
}

// NewFocalLoss creates a new focal loss over logits.
func NewFocalLoss[B tensor.Backend](config FocalLossConfig, backend B) (*FocalLoss[B], error) {
	if config.Alpha == 0 {
		config.Alpha = 1.0
	}
	if config.Gamma == 0 {
		config.Gamma = 2.0
	}

	if config.Alpha < 0 {
		return nil, fmt.Errorf("focal: alpha must be non-negative, got %g", config.Alpha)
	}
	if config.Gamma < 0 {
		return nil, fmt.Errorf("focal: gamma must be non-negative, got %g", config.Gamma)
	}

	return &FocalLoss[B]{alpha: config.Alpha, gamma: config.Gamma, backend: backend}, nil
}

// Forward computes the mean focal loss. Predictions are raw logits; targets
// are binary labels of the same shape.
func (l *FocalLoss[B]) Forward(yPred, yTrue *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !yPred.Shape().Equal(yTrue.Shape()) {
		panic(fmt.Sprintf("focal: predictions shape %v does not match targets shape %v",
			yPred.Shape(), yTrue.Shape()))
	}

	predData := yPred.Data()
	trueData := yTrue.Data()

	var total float32
	for i, x := range predData {
		bce := bceWithLogits(x, trueData[i])
		pt := float32(math.Exp(float64(-bce)))
		total += l.alpha * pow(1.0-pt, l.gamma) * bce
	}
	return scalar(total/float32(len(predData)), l.backend)
}

// bceWithLogits computes -log(sigmoid(x))*t - log(1-sigmoid(x))*(1-t) in the
// numerically stable form max(x,0) - x*t + log(1+exp(-|x|)).
func bceWithLogits(x, t float32) float32 {
	absX := x
	if absX < 0 {
		absX = -absX
	}
	maxX := x
	if maxX < 0 {
		maxX = 0
	}
	return maxX - x*t + float32(math.Log1p(math.Exp(-float64(absX))))
}

// FocalCosineLoss combines a cosine-embedding loss against one-hot targets
// with a focal cross entropy over L2-normalized predictions:
//
//	cosine = mean(1 - cos(row, onehot(target)))
//	focal  = mean(alpha*(1-pt)^gamma*ce(normalize(row), target))
//	loss   = cosine + focal_weight*focal
//
// Reference: "Data-Efficient Deep Learning Method for Image Classification
// Using Data Augmentation, Focal Cosine Loss, and Ensemble" (Kim, 2020)
type FocalCosineLoss[B tensor.Backend] struct {
	alpha       float32
	gamma       float32
	focalWeight float32
	backend     B
}

// FocalCosineLossConfig holds configuration for FocalCosineLoss.
type FocalCosineLossConfig struct {
	Alpha       float32 // Focal weight (default: 1.0)
	Gamma       float32 // Focusing exponent (default: 2.0)
	FocalWeight float32 // Weight of the focal term (default: 0.1)
}

// NewFocalCosineLoss creates a new focal cosine loss.
func NewFocalCosineLoss[B tensor.Backend](config FocalCosineLossConfig, backend B) (*FocalCosineLoss[B], error) {
	if config.Alpha == 0 {
		config.Alpha = 1.0
	}
	if config.Gamma == 0 {
		config.Gamma = 2.0
	}
	if config.FocalWeight == 0 {
		config.FocalWeight = 0.1
	}

	if config.Alpha < 0 {
		return nil, fmt.Errorf("focal_cosine: alpha must be non-negative, got %g", config.Alpha)
	}
	if config.Gamma < 0 {
		return nil, fmt.Errorf("focal_cosine: gamma must be non-negative, got %g", config.Gamma)
	}

	return &FocalCosineLoss[B]{
		alpha:       config.Alpha,
		gamma:       config.Gamma,
		focalWeight: config.FocalWeight,
		backend:     backend,
	}, nil
}

// Forward computes the loss. Predictions have shape [batch, classes];
// targets are class indices with shape [batch].
func (l *FocalCosineLoss[B]) Forward(yPred *tensor.Tensor[float32, B], yTrue *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	shape := yPred.Shape()
	if len(shape) != 2 {
		panic("focal_cosine: predictions must be 2D [batch, classes]")
	}
	batchSize, numClasses := shape[0], shape[1]

	targets := yTrue.Data()
	if len(targets) != batchSize {
		panic("focal_cosine: targets must have shape [batch]")
	}

	predData := yPred.Data()

	var cosineTotal, focalTotal float32
	for b := 0; b < batchSize; b++ {
		row := predData[b*numClasses : (b+1)*numClasses]
		target := int(targets[b])
		if target < 0 || target >= numClasses {
			panic("focal_cosine: target index out of bounds")
		}

		var sq float64
		for _, v := range row {
			sq += float64(v) * float64(v)
		}
		norm := float32(math.Sqrt(sq))

		// The one-hot target has unit norm, so cos = row[target]/|row|.
		cosineTotal += 1.0 - row[target]/norm

		normalized := make([]float32, numClasses)
		for i, v := range row {
			normalized[i] = v / norm
		}
		ce := -logSoftmax(normalized)[target]
		pt := float32(math.Exp(float64(-ce)))
		focalTotal += l.alpha * pow(1.0-pt, l.gamma) * ce
	}

	n := float32(batchSize)
	return scalar(cosineTotal/n+l.focalWeight*focalTotal/n, l.backend)
}
