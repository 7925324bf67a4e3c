package loss

import (
	"fmt"
	"math"

	"github.com/torq-ml/torq/internal/tensor"
)

// Tempered logarithm and exponential. Both reduce to the ordinary log/exp
// at temperature 1.
//
//	log_t(u) = (u^(1-t) - 1) / (1-t)
//	exp_t(u) = relu(1 + (1-t)*u)^(1/(1-t))
func logT(u, t float32) float32 {
	if t == 1.0 {
		return float32(math.Log(float64(u)))
	}
	return (pow(u, 1.0-t) - 1.0) / (1.0 - t)
}

func expT(u, t float32) float32 {
	if t == 1.0 {
		return float32(math.Exp(float64(u)))
	}
	v := 1.0 + (1.0-t)*u
	if v < 0 {
		v = 0
	}
	return pow(v, 1.0/(1.0-t))
}

// normalizationFixedPoint computes the tempered-softmax log-partition for
// t > 1 by fixed-point iteration.
func normalizationFixedPoint(activations []float32, t float32, numIters int) float32 {
	mu := activations[0]
	for _, v := range activations[1:] {
		if v > mu {
			mu = v
		}
	}

	base := make([]float32, len(activations))
	for i, v := range activations {
		base[i] = v - mu
	}

	current := make([]float32, len(base))
	copy(current, base)
	for iter := 0; iter < numIters; iter++ {
		var partition float32
		for _, v := range current {
			partition += expT(v, t)
		}
		scale := pow(partition, 1.0-t)
		for i, v := range base {
			current[i] = v * scale
		}
	}

	var partition float32
	for _, v := range current {
		partition += expT(v, t)
	}
	return -logT(1.0/partition, t) + mu
}

// normalizationBinarySearch computes the log-partition for t < 1, where the
// tempered exponential has finite support, by bisection on the bracket
// [0, -log_t(1/effective_dim)].
func normalizationBinarySearch(activations []float32, t float32, numIters int) float32 {
	mu := activations[0]
	for _, v := range activations[1:] {
		if v > mu {
			mu = v
		}
	}

	shifted := make([]float32, len(activations))
	effectiveDim := float32(0)
	for i, v := range activations {
		shifted[i] = v - mu
		if shifted[i] > -1.0/(1.0-t) {
			effectiveDim++
		}
	}

	lower := float32(0)
	upper := -logT(1.0/effectiveDim, t)
	for iter := 0; iter < numIters; iter++ {
		mid := (upper + lower) / 2.0
		var probs float32
		for _, v := range shifted {
			probs += expT(v-mid, t)
		}
		if probs < 1.0 {
			upper = mid
		} else {
			lower = mid
		}
	}
	return (upper+lower)/2.0 + mu
}

// temperedSoftmax computes exp_t(a - normalization(a)) over a row.
func temperedSoftmax(activations []float32, t float32, numIters int) []float32 {
	if t == 1.0 {
		return softmax(activations)
	}

	var norm float32
	if t < 1.0 {
		norm = normalizationBinarySearch(activations, t, numIters)
	} else {
		norm = normalizationFixedPoint(activations, t, numIters)
	}

	probs := make([]float32, len(activations))
	for i, v := range activations {
		probs[i] = expT(v-norm, t)
	}
	return probs
}

// biTemperedRow computes the bi-tempered logistic loss for one row of
// activations against soft labels.
func biTemperedRow(activations, labels []float32, t1, t2, labelSmooth float32, numIters int) float32 {
	n := float32(len(labels))
	smoothed := labels
	if labelSmooth > 0 {
		smoothed = make([]float32, len(labels))
		for i, v := range labels {
			smoothed[i] = (1.0-labelSmooth*n/(n-1.0))*v + labelSmooth/(n-1.0)
		}
	}

	probs := temperedSoftmax(activations, t2, numIters)

	var loss float32
	for i, l := range smoothed {
		p := probs[i]
		loss += l*logT(l+1e-10, t1) - l*logT(p, t1) -
			pow(l, 2.0-t1)/(2.0-t1) + pow(p, 2.0-t1)/(2.0-t1)
	}
	return loss
}

// BiTemperedLogisticLoss is a robust replacement for softmax cross entropy
// built on two temperatures: t1 tempers the logarithm (bounding the loss of
// outliers) and t2 tempers the softmax (heavy-tailed for t2 > 1).
//
// Reference: "Robust Bi-Tempered Logistic Loss Based on Bregman
// Divergences" (Amid et al., 2019)
type BiTemperedLogisticLoss[B tensor.Backend] struct {
	t1          float32
	t2          float32
	labelSmooth float32
	ignoreIndex *int
	reduction   Reduction
	numIters    int
	backend     B
}

// BiTemperedConfig holds configuration for BiTemperedLogisticLoss and
// BinaryBiTemperedLogisticLoss.
type BiTemperedConfig struct {
	T1          float32   // Log temperature (required; 1.0 recovers the ordinary log)
	T2          float32   // Softmax temperature (required; 1.0 recovers the ordinary softmax)
	LabelSmooth float32   // Label smoothing factor (default: 0.0, range: [0, 1))
	IgnoreIndex *int      // Optional target value whose loss is masked to zero
	Reduction   Reduction // mean, sum or none (default: mean)
	NumIters    int       // Normalization iterations (default: 5)
}

// NewBiTemperedLogisticLoss creates a new bi-tempered logistic loss.
func NewBiTemperedLogisticLoss[B tensor.Backend](config BiTemperedConfig, backend B) (*BiTemperedLogisticLoss[B], error) {
	if config.Reduction == "" {
		config.Reduction = ReductionMean
	}
	if config.NumIters == 0 {
		config.NumIters = 5
	}

	if config.LabelSmooth < 0 || config.LabelSmooth >= 1 {
		return nil, fmt.Errorf("bi_tempered: label_smooth must be in [0, 1), got %g", config.LabelSmooth)
	}
	if config.T1 >= 2.0 {
		return nil, fmt.Errorf("bi_tempered: t1 must be below 2, got %g", config.T1)
	}
	if err := validateReduction(config.Reduction, ReductionMean, ReductionSum, ReductionNone); err != nil {
		return nil, fmt.Errorf("bi_tempered: %w", err)
	}

	return &BiTemperedLogisticLoss[B]{
		t1:          config.T1,
		t2:          config.T2,
		labelSmooth: config.LabelSmooth,
		ignoreIndex: config.IgnoreIndex,
		reduction:   config.Reduction,
		numIters:    config.NumIters,
		backend:     backend,
	}, nil
}

// Forward computes the loss. Predictions are activations with shape
// [batch, classes]; targets are class indices [batch]. Rows whose target
// equals IgnoreIndex contribute zero.
func (l *BiTemperedLogisticLoss[B]) Forward(yPred *tensor.Tensor[float32, B], yTrue *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	shape := yPred.Shape()
	if len(shape) != 2 {
		panic("bi_tempered: predictions must be 2D [batch, classes]")
	}
	batchSize, numClasses := shape[0], shape[1]

	targets := yTrue.Data()
	if len(targets) != batchSize {
		panic("bi_tempered: targets must have shape [batch]")
	}

	predData := yPred.Data()
	labels := make([]float32, numClasses)

	values := make([]float32, batchSize)
	for b := 0; b < batchSize; b++ {
		target := int(targets[b])
		if l.ignoreIndex != nil && target == *l.ignoreIndex {
			continue
		}
		if target < 0 || target >= numClasses {
			panic("bi_tempered: target index out of bounds")
		}

		for i := range labels {
			labels[i] = 0
		}
		labels[target] = 1.0

		row := predData[b*numClasses : (b+1)*numClasses]
		values[b] = biTemperedRow(row, labels, l.t1, l.t2, l.labelSmooth, l.numIters)
	}
	return reduce(values, tensor.Shape{batchSize}, l.reduction, l.backend)
}

// BinaryBiTemperedLogisticLoss applies the bi-tempered loss per element as
// a two-class problem over activations {-x, x} and labels {1-t, t}.
type BinaryBiTemperedLogisticLoss[B tensor.Backend] struct {
	t1          float32
	t2          float32
	labelSmooth float32
	ignoreIndex *int
	reduction   Reduction
	numIters    int
	backend     B
}

// NewBinaryBiTemperedLogisticLoss creates a new binary bi-tempered loss.
func NewBinaryBiTemperedLogisticLoss[B tensor.Backend](config BiTemperedConfig, backend B) (*BinaryBiTemperedLogisticLoss[B], error) {
	inner, err := NewBiTemperedLogisticLoss[B](config, backend)
	if err != nil {
		return nil, fmt.Errorf("binary %w", err)
	}
	return &BinaryBiTemperedLogisticLoss[B]{
		t1:          inner.t1,
		t2:          inner.t2,
		labelSmooth: inner.labelSmooth,
		ignoreIndex: inner.ignoreIndex,
		reduction:   inner.reduction,
		numIters:    inner.numIters,
		backend:     inner.backend,
	}, nil
}

// Forward computes the loss. Predictions are activations of any shape;
// targets are binary labels of the same shape. Elements whose target
// equals IgnoreIndex contribute zero.
func (l *BinaryBiTemperedLogisticLoss[B]) Forward(yPred, yTrue *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !yPred.Shape().Equal(yTrue.Shape()) {
		panic(fmt.Sprintf("binary bi_tempered: predictions shape %v does not match targets shape %v",
			yPred.Shape(), yTrue.Shape()))
	}

	predData := yPred.Data()
	trueData := yTrue.Data()

	values := make([]float32, len(predData))
	for i, x := range predData {
		t := trueData[i]
		if l.ignoreIndex != nil && t == float32(*l.ignoreIndex) {
			continue
		}
		values[i] = biTemperedRow(
			[]float32{-x, x},
			[]float32{1.0 - t, t},
			l.t1, l.t2, l.labelSmooth, l.numIters,
		)
	}
	return reduce(values, yPred.Shape(), l.reduction, l.backend)
}
