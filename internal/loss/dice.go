package loss

import (
	"fmt"
	"math"

	"github.com/torq-ml/torq/internal/tensor"
)

// Segmentation modes shared by DiceLoss and JaccardLoss.
const (
	ModeBinary     = "binary"     // One channel, float targets
	ModeMulticlass = "multiclass" // C channels, integer class-index targets
	ModeMultilabel = "multilabel" // C channels, float targets per channel
)

// SegmentationLossConfig holds configuration shared by DiceLoss and
// JaccardLoss.
type SegmentationLossConfig struct {
	Mode        string  // One of ModeBinary, ModeMulticlass, ModeMultilabel
	Classes     []int   // Optional class subset contributing to the loss (not allowed in binary mode)
	LogLoss     bool    // Use -log(score) instead of 1-score
	FromLogits  bool    // Apply sigmoid (binary/multilabel) or softmax (multiclass) first
	Smooth      float32 // Smoothing added to numerator and denominator (default: 0.0)
	Eps         float32 // Denominator clamp (default: 1e-6)
	IgnoreIndex *int    // Optional target value excluded from the score
}

// segmentation carries the preparation pipeline the two losses share:
// logits activation, target one-hot encoding and ignore-index masking, then
// per-class score accumulation over the batch and spatial dims.
type segmentation[B tensor.Backend] struct {
	mode        string
	classes     []int
	logLoss     bool
	fromLogits  bool
	smooth      float32
	eps         float32
	ignoreIndex *int
	backend     B
}

func newSegmentation[B tensor.Backend](name string, config SegmentationLossConfig, backend B) (segmentation[B], error) {
	if config.Eps == 0 {
		config.Eps = 1e-6
	}

	switch config.Mode {
	case ModeBinary, ModeMulticlass, ModeMultilabel:
	default:
		return segmentation[B]{}, fmt.Errorf("%s: mode must be one of [%s %s %s], got %q",
			name, ModeBinary, ModeMulticlass, ModeMultilabel, config.Mode)
	}
	if config.Classes != nil && config.Mode == ModeBinary {
		return segmentation[B]{}, fmt.Errorf("%s: class subsetting is not supported in binary mode", name)
	}
	if config.Smooth < 0 {
		return segmentation[B]{}, fmt.Errorf("%s: smooth must be non-negative, got %g", name, config.Smooth)
	}
	if config.Eps < 0 {
		return segmentation[B]{}, fmt.Errorf("%s: eps must be non-negative, got %g", name, config.Eps)
	}

	return segmentation[B]{
		mode:        config.Mode,
		classes:     config.Classes,
		logLoss:     config.LogLoss,
		fromLogits:  config.FromLogits,
		smooth:      config.Smooth,
		eps:         config.Eps,
		ignoreIndex: config.IgnoreIndex,
		backend:     backend,
	}, nil
}

// prepare validates shapes, applies the optional activation, expands the
// targets to a per-class float mask and applies ignore-index masking.
// Predictions have shape [batch, channels, spatial]; multiclass targets are
// int32 [batch, spatial], other modes take float32 targets shaped like the
// predictions.
func (s *segmentation[B]) prepare(yPred *tensor.Tensor[float32, B], yTrue *tensor.RawTensor) (pred, truth []float32, bs, channels, spatial int) {
	shape := yPred.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("%s loss: predictions must be 3D [batch, channels, spatial], got %v", s.mode, shape))
	}
	bs, channels, spatial = shape[0], shape[1], shape[2]

	if s.mode == ModeBinary && channels != 1 {
		panic(fmt.Sprintf("binary loss: predictions must have a single channel, got %d", channels))
	}

	pred = make([]float32, bs*channels*spatial)
	copy(pred, yPred.Data())

	if s.fromLogits {
		if s.mode == ModeMulticlass {
			// Softmax over the channel dim for every (batch, spatial) column.
			col := make([]float32, channels)
			for b := 0; b < bs; b++ {
				for sp := 0; sp < spatial; sp++ {
					for c := 0; c < channels; c++ {
						col[c] = pred[(b*channels+c)*spatial+sp]
					}
					probs := softmax(col)
					for c := 0; c < channels; c++ {
						pred[(b*channels+c)*spatial+sp] = probs[c]
					}
				}
			}
		} else {
			for i, v := range pred {
				pred[i] = sigmoid(v)
			}
		}
	}

	truth = make([]float32, bs*channels*spatial)

	if s.mode == ModeMulticlass {
		if yTrue.DType() != tensor.Int32 {
			panic("multiclass loss: targets must be int32 class indices")
		}
		targets := yTrue.AsInt32()
		if len(targets) != bs*spatial {
			panic(fmt.Sprintf("multiclass loss: targets must have shape [%d, %d]", bs, spatial))
		}
		for b := 0; b < bs; b++ {
			for sp := 0; sp < spatial; sp++ {
				t := int(targets[b*spatial+sp])
				if s.ignoreIndex != nil && t == *s.ignoreIndex {
					for c := 0; c < channels; c++ {
						pred[(b*channels+c)*spatial+sp] = 0
					}
					continue
				}
				if t < 0 || t >= channels {
					panic("multiclass loss: target class out of range")
				}
				truth[(b*channels+t)*spatial+sp] = 1.0
			}
		}
		return pred, truth, bs, channels, spatial
	}

	if yTrue.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s loss: targets must be float32", s.mode))
	}
	targets := yTrue.AsFloat32()
	if len(targets) != len(truth) {
		panic(fmt.Sprintf("%s loss: targets must have the predictions' shape %v", s.mode, shape))
	}
	copy(truth, targets)

	if s.ignoreIndex != nil {
		ignore := float32(*s.ignoreIndex)
		for i, t := range truth {
			if t == ignore {
				pred[i] = 0
				truth[i] = 0
			}
		}
	}
	return pred, truth, bs, channels, spatial
}

// lossFromScores turns per-class scores into the aggregated loss: log-loss
// or 1-score, zeroing classes absent from the target, then mean over the
// (optionally subset) classes.
func (s *segmentation[B]) lossFromScores(scores, trueSums []float32) *tensor.Tensor[float32, B] {
	losses := make([]float32, len(scores))
	for c, sc := range scores {
		if s.logLoss {
			if sc < s.eps {
				sc = s.eps
			}
			losses[c] = -float32(math.Log(float64(sc)))
		} else {
			losses[c] = 1.0 - sc
		}
		// A class absent from the target contributes nothing.
		if trueSums[c] <= 0 {
			losses[c] = 0
		}
	}

	selected := losses
	if s.classes != nil {
		selected = make([]float32, len(s.classes))
		for i, c := range s.classes {
			if c < 0 || c >= len(losses) {
				panic(fmt.Sprintf("%s loss: class %d out of range", s.mode, c))
			}
			selected[i] = losses[c]
		}
	}

	var total float32
	for _, v := range selected {
		total += v
	}
	return scalar(total/float32(len(selected)), s.backend)
}

// classCounts accumulates per-class intersection, cardinality and target
// sums over the batch and spatial dims.
func classCounts(pred, truth []float32, bs, channels, spatial int) (inter, card, trueSums []float32) {
	inter = make([]float32, channels)
	card = make([]float32, channels)
	trueSums = make([]float32, channels)
	for b := 0; b < bs; b++ {
		for c := 0; c < channels; c++ {
			base := (b*channels + c) * spatial
			for sp := 0; sp < spatial; sp++ {
				p, t := pred[base+sp], truth[base+sp]
				inter[c] += p * t
				card[c] += p + t
				trueSums[c] += t
			}
		}
	}
	return inter, card, trueSums
}

// DiceLoss computes the soft dice loss for segmentation:
//
//	dice = (2*intersection + smooth) / (cardinality + smooth)
//	loss = 1 - dice        (or -log(dice) with LogLoss)
//
// per class over the batch and spatial dims, averaged over classes.
type DiceLoss[B tensor.Backend] struct {
	segmentation[B]
}

// NewDiceLoss creates a new dice loss.
func NewDiceLoss[B tensor.Backend](config SegmentationLossConfig, backend B) (*DiceLoss[B], error) {
	seg, err := newSegmentation[B]("dice", config, backend)
	if err != nil {
		return nil, err
	}
	return &DiceLoss[B]{segmentation: seg}, nil
}

// Forward computes the loss. See segmentation.prepare for the expected
// shapes per mode.
func (l *DiceLoss[B]) Forward(yPred *tensor.Tensor[float32, B], yTrue *tensor.RawTensor) *tensor.Tensor[float32, B] {
	pred, truth, bs, channels, spatial := l.prepare(yPred, yTrue)
	inter, card, trueSums := classCounts(pred, truth, bs, channels, spatial)

	scores := make([]float32, channels)
	for c := 0; c < channels; c++ {
		scores[c] = diceScore(inter[c], card[c], l.smooth, l.eps)
	}
	return l.lossFromScores(scores, trueSums)
}

func diceScore(intersection, cardinality, smooth, eps float32) float32 {
	denom := cardinality + smooth
	if denom < eps {
		denom = eps
	}
	return (2.0*intersection + smooth) / denom
}

// SoftDiceScore computes the soft dice score (2I+s)/(C+s) with sums taken
// over the given dims (nil sums over everything, yielding a scalar).
func SoftDiceScore[B tensor.Backend](output, target *tensor.Tensor[float32, B], smooth, eps float32, dims []int) *tensor.Tensor[float32, B] {
	inter, card, shape := pairSums(output, target, dims)
	scores := make([]float32, len(inter))
	for i := range inter {
		scores[i] = diceScore(inter[i], card[i], smooth, eps)
	}
	return fromValues(scores, shape, output.Backend())
}

// pairSums reduces output*target and output+target over the given dims.
func pairSums[B tensor.Backend](output, target *tensor.Tensor[float32, B], dims []int) (inter, card []float32, outShape tensor.Shape) {
	if !output.Shape().Equal(target.Shape()) {
		panic(fmt.Sprintf("score: output shape %v does not match target shape %v",
			output.Shape(), target.Shape()))
	}

	shape := output.Shape()
	outData := output.Data()
	tgtData := target.Data()

	if len(dims) == 0 {
		var i, c float32
		for k, o := range outData {
			i += o * tgtData[k]
			c += o + tgtData[k]
		}
		return []float32{i}, []float32{c}, tensor.Shape{1}
	}

	reduced := make(map[int]bool, len(dims))
	for _, d := range dims {
		if d < 0 || d >= len(shape) {
			panic(fmt.Sprintf("score: dim %d out of range for shape %v", d, shape))
		}
		reduced[d] = true
	}

	outShape = tensor.Shape{}
	for d, size := range shape {
		if !reduced[d] {
			outShape = append(outShape, size)
		}
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}

	inter = make([]float32, outShape.NumElements())
	card = make([]float32, outShape.NumElements())

	coords := make([]int, len(shape))
	for k := range outData {
		// Decompose the flat index, then re-linearize the kept dims.
		rem := k
		for d := len(shape) - 1; d >= 0; d-- {
			coords[d] = rem % shape[d]
			rem /= shape[d]
		}
		idx := 0
		for d, size := range shape {
			if !reduced[d] {
				idx = idx*size + coords[d]
			}
		}
		inter[idx] += outData[k] * tgtData[k]
		card[idx] += outData[k] + tgtData[k]
	}
	return inter, card, outShape
}
