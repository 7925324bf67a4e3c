package loss

import (
	"github.com/torq-ml/torq/internal/tensor"
)

// JaccardLoss computes the soft jaccard (intersection over union) loss for
// segmentation:
//
//	jaccard = (intersection + smooth) / (union + smooth)
//	loss = 1 - jaccard     (or -log(jaccard) with LogLoss)
//
// per class over the batch and spatial dims, averaged over classes.
type JaccardLoss[B tensor.Backend] struct {
	segmentation[B]
}

// NewJaccardLoss creates a new jaccard loss.
func NewJaccardLoss[B tensor.Backend](config SegmentationLossConfig, backend B) (*JaccardLoss[B], error) {
	seg, err := newSegmentation[B]("jaccard", config, backend)
	if err != nil {
		return nil, err
	}
	return &JaccardLoss[B]{segmentation: seg}, nil
}

// Forward computes the loss. See segmentation.prepare for the expected
// shapes per mode.
func (l *JaccardLoss[B]) Forward(yPred *tensor.Tensor[float32, B], yTrue *tensor.RawTensor) *tensor.Tensor[float32, B] {
	pred, truth, bs, channels, spatial := l.prepare(yPred, yTrue)
	inter, card, trueSums := classCounts(pred, truth, bs, channels, spatial)

	scores := make([]float32, channels)
	for c := 0; c < channels; c++ {
		scores[c] = jaccardScore(inter[c], card[c], l.smooth, l.eps)
	}
	return l.lossFromScores(scores, trueSums)
}

func jaccardScore(intersection, cardinality, smooth, eps float32) float32 {
	union := cardinality - intersection
	denom := union + smooth
	if denom < eps {
		denom = eps
	}
	return (intersection + smooth) / denom
}

// SoftJaccardScore computes the soft jaccard score (I+s)/(U+s) with sums
// taken over the given dims (nil sums over everything, yielding a scalar).
func SoftJaccardScore[B tensor.Backend](output, target *tensor.Tensor[float32, B], smooth, eps float32, dims []int) *tensor.Tensor[float32, B] {
	inter, card, shape := pairSums(output, target, dims)
	scores := make([]float32, len(inter))
	for i := range inter {
		scores[i] = jaccardScore(inter[i], card[i], smooth, eps)
	}
	return fromValues(scores, shape, output.Backend())
}
