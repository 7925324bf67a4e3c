package loss_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torq-ml/torq/internal/backend/cpu"
	"github.com/torq-ml/torq/internal/loss"
	"github.com/torq-ml/torq/internal/tensor"
)

// TestLDAMLoss_Reference checks the loss against the reference value.
func TestLDAMLoss_Reference(t *testing.T) {
	backend := cpu.New()

	criterion, err := loss.NewLDAMLoss(loss.LDAMLossConfig{
		NumClassList: []int{1, 2, 3, 4},
	}, backend)
	require.NoError(t, err)

	yPred := floats(t, []float32{
		-0.5, -0.25, 0.25, 0.5,
		0.8, -0.25, 0.25, 0.5,
	}, tensor.Shape{2, 4}, backend)
	yTrue := indices(t, []int32{3, 0}, tensor.Shape{2}, backend)

	got := criterion.Forward(yPred, yTrue)
	assert.InDelta(t, 4.5767049, got.Item(), 1e-4)
}

// TestLDAMLoss_RareClassMargin checks that rarer classes get larger
// margins: with equal logits, predicting the rare class costs more than
// the frequent one because its margin is subtracted.
func TestLDAMLoss_RareClassMargin(t *testing.T) {
	backend := cpu.New()

	criterion, err := loss.NewLDAMLoss(loss.LDAMLossConfig{
		NumClassList: []int{1, 10000},
	}, backend)
	require.NoError(t, err)

	yPred := floats(t, []float32{0.0, 0.0}, tensor.Shape{1, 2}, backend)

	rare := criterion.Forward(yPred, indices(t, []int32{0}, tensor.Shape{1}, backend)).Item()
	frequent := criterion.Forward(yPred, indices(t, []int32{1}, tensor.Shape{1}, backend)).Item()
	assert.Greater(t, rare, frequent)
}

// TestLDAMLoss_Weights checks weighted cross entropy averaging.
func TestLDAMLoss_Weights(t *testing.T) {
	backend := cpu.New()

	unweighted, err := loss.NewLDAMLoss(loss.LDAMLossConfig{
		NumClassList: []int{10, 10},
	}, backend)
	require.NoError(t, err)

	// Uniform weights must agree with the unweighted mean.
	weighted, err := loss.NewLDAMLoss(loss.LDAMLossConfig{
		NumClassList: []int{10, 10},
		Weights:      []float32{1.0, 1.0},
	}, backend)
	require.NoError(t, err)

	yPred := floats(t, []float32{0.3, -0.2, -0.1, 0.4}, tensor.Shape{2, 2}, backend)
	yTrue := indices(t, []int32{0, 1}, tensor.Shape{2}, backend)

	assert.InDelta(t, unweighted.Forward(yPred, yTrue).Item(), weighted.Forward(yPred, yTrue).Item(), 1e-6)
}

// TestLDAMLoss_Validation checks constructor validation.
func TestLDAMLoss_Validation(t *testing.T) {
	backend := cpu.New()

	_, err := loss.NewLDAMLoss(loss.LDAMLossConfig{}, backend)
	assert.Error(t, err, "empty class list")
	_, err = loss.NewLDAMLoss(loss.LDAMLossConfig{NumClassList: []int{1, 0}}, backend)
	assert.Error(t, err, "non-positive class count")
	_, err = loss.NewLDAMLoss(loss.LDAMLossConfig{NumClassList: []int{1, 2}, Weights: []float32{1}}, backend)
	assert.Error(t, err, "weight length mismatch")
}
