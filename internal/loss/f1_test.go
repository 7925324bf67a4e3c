package loss_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torq-ml/torq/internal/backend/cpu"
	"github.com/torq-ml/torq/internal/loss"
	"github.com/torq-ml/torq/internal/tensor"
)

// TestSoftF1Loss_Reference checks the soft F1 loss against the reference
// value.
func TestSoftF1Loss_Reference(t *testing.T) {
	backend := cpu.New()

	criterion, err := loss.NewSoftF1Loss(loss.SoftF1LossConfig{}, backend)
	require.NoError(t, err)

	logits := arange(-1.0, 1.0, 0.2)
	probs := make([]float32, len(logits))
	for i, v := range logits {
		probs[i] = sigmoid32(v)
	}

	yPred := floats(t, probs, tensor.Shape{10}, backend)
	yTrue := floats(t, []float32{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}, tensor.Shape{10}, backend)

	got := criterion.Forward(yPred, yTrue)
	assert.InDelta(t, 0.38905364, got.Item(), 1e-5)
}

// TestSoftF1Loss_PerfectPrediction checks the loss vanishes on a perfect
// hard prediction.
func TestSoftF1Loss_PerfectPrediction(t *testing.T) {
	backend := cpu.New()

	criterion, err := loss.NewSoftF1Loss(loss.SoftF1LossConfig{}, backend)
	require.NoError(t, err)

	yPred := floats(t, []float32{0, 1, 1, 0}, tensor.Shape{4}, backend)
	yTrue := floats(t, []float32{0, 1, 1, 0}, tensor.Shape{4}, backend)

	got := criterion.Forward(yPred, yTrue)
	assert.InDelta(t, 0.0, got.Item(), 1e-5)
}

// TestSoftF1Loss_Validation checks constructor validation.
func TestSoftF1Loss_Validation(t *testing.T) {
	backend := cpu.New()

	_, err := loss.NewSoftF1Loss(loss.SoftF1LossConfig{Beta: -1}, backend)
	assert.Error(t, err)
	_, err = loss.NewSoftF1Loss(loss.SoftF1LossConfig{Eps: -1}, backend)
	assert.Error(t, err)
}
