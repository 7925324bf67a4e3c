package loss_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/torq-ml/torq/internal/backend/cpu"
	"github.com/torq-ml/torq/internal/tensor"
)

// floats builds a float32 tensor from literal values.
func floats(t *testing.T, values []float32, shape tensor.Shape, backend *cpu.Backend) *tensor.Tensor[float32, *cpu.Backend] {
	t.Helper()
	x, err := tensor.FromSlice(values, shape, backend)
	require.NoError(t, err)
	return x
}

// indices builds an int32 class-index tensor from literal values.
func indices(t *testing.T, values []int32, shape tensor.Shape, backend *cpu.Backend) *tensor.Tensor[int32, *cpu.Backend] {
	t.Helper()
	x, err := tensor.FromSlice(values, shape, backend)
	require.NoError(t, err)
	return x
}

// arange mirrors torch.arange over float32 values.
func arange(start, stop, step float32) []float32 {
	count := int(math.Round(float64((stop - start) / step)))
	values := make([]float32, count)
	for i := range values {
		values[i] = start + float32(i)*step
	}
	return values
}

func sigmoid32(x float32) float32 {
	return float32(1.0 / (1.0 + math.Exp(-float64(x))))
}

func intPtr(i int) *int {
	return &i
}
