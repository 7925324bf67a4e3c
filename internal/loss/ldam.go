package loss

import (
	"fmt"
	"math"

	"github.com/torq-ml/torq/internal/tensor"
)

// LDAMLoss computes the label-distribution-aware margin loss for
// class-imbalanced training. Each class gets a margin inversely
// proportional to n_c^(1/4):
//
//	m_c = maxMargin * (n_c^-1/4) / max_j(n_j^-1/4)
//
// The margin is subtracted from the target logit, all logits are scaled by
// s and fed through cross entropy (with optional class weights).
//
// Reference: "Learning Imbalanced Datasets with Label-Distribution-Aware
// Margin Loss" (Cao et al., 2019)
type LDAMLoss[B tensor.Backend] struct {
	margins []float32
	scale   float32
	weights []float32
	backend B
}

// LDAMLossConfig holds configuration for LDAMLoss.
type LDAMLossConfig struct {
	NumClassList []int     // Per-class sample counts (required)
	MaxMargin    float32   // Largest class margin (default: 0.5)
	Scale        float32   // Logit scale (default: 30.0)
	Weights      []float32 // Optional per-class cross entropy weights
}

// NewLDAMLoss creates a new LDAM loss from per-class sample counts.
func NewLDAMLoss[B tensor.Backend](config LDAMLossConfig, backend B) (*LDAMLoss[B], error) {
	if config.MaxMargin == 0 {
		config.MaxMargin = 0.5
	}
	if config.Scale == 0 {
		config.Scale = 30.0
	}

	if len(config.NumClassList) == 0 {
		return nil, fmt.Errorf("ldam: num_class_list must not be empty")
	}
	for _, n := range config.NumClassList {
		if n <= 0 {
			return nil, fmt.Errorf("ldam: class counts must be positive, got %d", n)
		}
	}
	if config.MaxMargin < 0 {
		return nil, fmt.Errorf("ldam: max_margin must be non-negative, got %g", config.MaxMargin)
	}
	if config.Weights != nil && len(config.Weights) != len(config.NumClassList) {
		return nil, fmt.Errorf("ldam: weights length %d does not match %d classes",
			len(config.Weights), len(config.NumClassList))
	}

	margins := make([]float32, len(config.NumClassList))
	maxM := float32(0)
	for i, n := range config.NumClassList {
		margins[i] = float32(1.0 / math.Sqrt(math.Sqrt(float64(n))))
		if margins[i] > maxM {
			maxM = margins[i]
		}
	}
	for i := range margins {
		margins[i] *= config.MaxMargin / maxM
	}

	return &LDAMLoss[B]{
		margins: margins,
		scale:   config.Scale,
		weights: config.Weights,
		backend: backend,
	}, nil
}

// Forward computes the mean margin-adjusted cross entropy. Predictions are
// logits with shape [batch, classes]; targets are class indices [batch].
func (l *LDAMLoss[B]) Forward(yPred *tensor.Tensor[float32, B], yTrue *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	shape := yPred.Shape()
	if len(shape) != 2 {
		panic("ldam: predictions must be 2D [batch, classes]")
	}
	batchSize, numClasses := shape[0], shape[1]
	if numClasses != len(l.margins) {
		panic(fmt.Sprintf("ldam: predictions have %d classes, margins were built for %d",
			numClasses, len(l.margins)))
	}

	targets := yTrue.Data()
	if len(targets) != batchSize {
		panic("ldam: targets must have shape [batch]")
	}

	predData := yPred.Data()

	var total, weightTotal float32
	adjusted := make([]float32, numClasses)
	for b := 0; b < batchSize; b++ {
		target := int(targets[b])
		if target < 0 || target >= numClasses {
			panic("ldam: target index out of bounds")
		}

		row := predData[b*numClasses : (b+1)*numClasses]
		copy(adjusted, row)
		adjusted[target] -= l.margins[target]
		for i := range adjusted {
			adjusted[i] *= l.scale
		}

		ce := -logSoftmax(adjusted)[target]
		if l.weights != nil {
			total += l.weights[target] * ce
			weightTotal += l.weights[target]
		} else {
			total += ce
			weightTotal++
		}
	}
	return scalar(total/weightTotal, l.backend)
}
