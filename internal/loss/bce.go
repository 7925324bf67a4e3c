package loss

import (
	"fmt"

	"github.com/torq-ml/torq/internal/tensor"
)

// BCELoss computes binary cross entropy over probabilities, with optional
// label smoothing applied in training mode:
//
//	t' = t*(1-ls) + ls/n       (n = size of the last dimension)
//	bce = -(t'*log(p) + (1-t')*log(1-p))
//
// Predictions are clamped to [eps, 1-eps] before the logs.
type BCELoss[B tensor.Backend] struct {
	labelSmooth float32
	eps         float32
	reduction   Reduction
	training    bool
	backend     B
}

// BCELossConfig holds configuration for BCELoss.
type BCELossConfig struct {
	LabelSmooth float32   // Label smoothing factor (default: 0.0, range: [0, 1))
	Eps         float32   // Probability clamp (default: 1e-6)
	Reduction   Reduction // mean, sum or none (default: mean)
}

// NewBCELoss creates a new binary cross entropy loss. The loss starts in
// training mode; use SetTraining(false) to disable label smoothing for
// evaluation.
func NewBCELoss[B tensor.Backend](config BCELossConfig, backend B) (*BCELoss[B], error) {
	if config.Eps == 0 {
		config.Eps = 1e-6
	}
	if config.Reduction == "" {
		config.Reduction = ReductionMean
	}

	if config.LabelSmooth < 0 || config.LabelSmooth >= 1 {
		return nil, fmt.Errorf("bce: label_smooth must be in [0, 1), got %g", config.LabelSmooth)
	}
	if config.Eps < 0 {
		return nil, fmt.Errorf("bce: eps must be non-negative, got %g", config.Eps)
	}
	if err := validateReduction(config.Reduction, ReductionMean, ReductionSum, ReductionNone); err != nil {
		return nil, fmt.Errorf("bce: %w", err)
	}

	return &BCELoss[B]{
		labelSmooth: config.LabelSmooth,
		eps:         config.Eps,
		reduction:   config.Reduction,
		training:    true,
		backend:     backend,
	}, nil
}

// SetTraining toggles training mode. Label smoothing only applies while
// training.
func (l *BCELoss[B]) SetTraining(training bool) {
	l.training = training
}

// Forward computes the loss. Predictions are probabilities in [0, 1];
// targets have the same shape.
func (l *BCELoss[B]) Forward(yPred, yTrue *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	values := l.elementwise(yPred, yTrue)
	return reduce(values, yPred.Shape(), l.reduction, l.backend)
}

// elementwise computes the unreduced per-element losses. Shared with
// BCEFocalLoss.
func (l *BCELoss[B]) elementwise(yPred, yTrue *tensor.Tensor[float32, B]) []float32 {
	if !yPred.Shape().Equal(yTrue.Shape()) {
		panic(fmt.Sprintf("bce: predictions shape %v does not match targets shape %v",
			yPred.Shape(), yTrue.Shape()))
	}

	shape := yPred.Shape()
	n := float32(shape[len(shape)-1])

	predData := yPred.Data()
	trueData := yTrue.Data()

	values := make([]float32, len(predData))
	for i := range predData {
		t := trueData[i]
		if l.training && l.labelSmooth > 0 {
			t = t*(1.0-l.labelSmooth) + l.labelSmooth/n
		}
		p := clamp(predData[i], l.eps, 1.0-l.eps)
		values[i] = -(t*safeLog(p) + (1.0-t)*safeLog(1.0-p))
	}
	return values
}

// BCEFocalLoss down-weights easy examples of the binary cross entropy:
//
//	focal = t*alpha*(1-p)^gamma*bce + (1-t)*bce
//
// where bce is the per-element BCELoss (label smoothing included) and t is
// the unsmoothed target.
type BCEFocalLoss[B tensor.Backend] struct {
	alpha     float32
	gamma     float32
	reduction Reduction
	bce       *BCELoss[B]
	backend   B
}

// BCEFocalLossConfig holds configuration for BCEFocalLoss.
type BCEFocalLossConfig struct {
	Alpha       float32   // Positive-class focal weight (default: 0.25)
	Gamma       float32   // Focusing exponent (default: 2.0)
	LabelSmooth float32   // Label smoothing for the inner BCE (default: 0.0)
	Eps         float32   // Probability clamp for the inner BCE (default: 1e-6)
	Reduction   Reduction // mean or sum (default: mean)
}

// NewBCEFocalLoss creates a new focal binary cross entropy loss.
func NewBCEFocalLoss[B tensor.Backend](config BCEFocalLossConfig, backend B) (*BCEFocalLoss[B], error) {
	if config.Alpha == 0 {
		config.Alpha = 0.25
	}
	if config.Gamma == 0 {
		config.Gamma = 2.0
	}
	if config.Reduction == "" {
		config.Reduction = ReductionMean
	}

	if config.Alpha < 0 {
		return nil, fmt.Errorf("bce_focal: alpha must be non-negative, got %g", config.Alpha)
	}
	if config.Gamma < 0 {
		return nil, fmt.Errorf("bce_focal: gamma must be non-negative, got %g", config.Gamma)
	}
	if err := validateReduction(config.Reduction, ReductionMean, ReductionSum); err != nil {
		return nil, fmt.Errorf("bce_focal: %w", err)
	}

	bce, err := NewBCELoss(BCELossConfig{
		LabelSmooth: config.LabelSmooth,
		Eps:         config.Eps,
		Reduction:   ReductionNone,
	}, backend)
	if err != nil {
		return nil, fmt.Errorf("bce_focal: %w", err)
	}

	return &BCEFocalLoss[B]{
		alpha:     config.Alpha,
		gamma:     config.Gamma,
		reduction: config.Reduction,
		bce:       bce,
		backend:   backend,
	}, nil
}

// SetTraining toggles the inner BCE's training mode.
func (l *BCEFocalLoss[B]) SetTraining(training bool) {
	l.bce.SetTraining(training)
}

// Forward computes the loss. Predictions are probabilities in [0, 1];
// targets have the same shape.
func (l *BCEFocalLoss[B]) Forward(yPred, yTrue *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	bce := l.bce.elementwise(yPred, yTrue)

	predData := yPred.Data()
	trueData := yTrue.Data()

	values := make([]float32, len(bce))
	for i, b := range bce {
		p := predData[i]
		t := trueData[i]
		values[i] = t*l.alpha*pow(1.0-p, l.gamma)*b + (1.0-t)*b
	}
	return reduce(values, yPred.Shape(), l.reduction, l.backend)
}
