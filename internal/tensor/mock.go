package tensor

import (
	"fmt"
	"math"
)

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a simple backend for testing.
// It implements all operations naively for correctness verification.
type MockBackend struct{}

// NewMockBackend creates a new MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockBackend) Device() Device {
	return CPU
}

// Add performs element-wise addition with broadcasting.
func (m *MockBackend) Add(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (m *MockBackend) Sub(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (m *MockBackend) Mul(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (m *MockBackend) Div(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x / y })
}

// AddScalar adds a scalar to every element.
func (m *MockBackend) AddScalar(x *RawTensor, scalar any) *RawTensor {
	return m.scalarWise(x, scalar, func(v, s float64) float64 { return v + s })
}

// MulScalar multiplies every element by a scalar.
func (m *MockBackend) MulScalar(x *RawTensor, scalar any) *RawTensor {
	return m.scalarWise(x, scalar, func(v, s float64) float64 { return v * s })
}

// Exp computes the element-wise exponential.
func (m *MockBackend) Exp(x *RawTensor) *RawTensor {
	return m.unary(x, math.Exp)
}

// Log computes the element-wise natural logarithm.
func (m *MockBackend) Log(x *RawTensor) *RawTensor {
	return m.unary(x, math.Log)
}

// Sqrt computes the element-wise square root.
func (m *MockBackend) Sqrt(x *RawTensor) *RawTensor {
	return m.unary(x, math.Sqrt)
}

// Sum reduces the tensor to a single-element tensor holding the total sum.
func (m *MockBackend) Sum(x *RawTensor) *RawTensor {
	result, err := NewRaw(Shape{1}, x.DType(), m.Device())
	if err != nil {
		panic(err)
	}
	total := 0.0
	for i := 0; i < x.NumElements(); i++ {
		total += m.get(x, i)
	}
	m.set(result, 0, total)
	return result
}

// elementWise performs element-wise operations with broadcasting.
func (m *MockBackend) elementWise(a, b *RawTensor, op func(float64, float64) float64) *RawTensor {
	outShape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(err)
	}

	result, err := NewRaw(outShape, a.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	outStrides := outShape.ComputeStrides()
	for i := 0; i < result.NumElements(); i++ {
		aOff := broadcastOffset(i, outShape, outStrides, a.Shape())
		bOff := broadcastOffset(i, outShape, outStrides, b.Shape())
		m.set(result, i, op(m.get(a, aOff), m.get(b, bOff)))
	}
	return result
}

func (m *MockBackend) scalarWise(x *RawTensor, scalar any, op func(float64, float64) float64) *RawTensor {
	var s float64
	switch v := scalar.(type) {
	case float32:
		s = float64(v)
	case float64:
		s = v
	default:
		panic(fmt.Sprintf("unsupported scalar type %T", scalar))
	}

	result, err := NewRaw(x.Shape(), x.DType(), m.Device())
	if err != nil {
		panic(err)
	}
	for i := 0; i < x.NumElements(); i++ {
		m.set(result, i, op(m.get(x, i), s))
	}
	return result
}

func (m *MockBackend) unary(x *RawTensor, f func(float64) float64) *RawTensor {
	result, err := NewRaw(x.Shape(), x.DType(), m.Device())
	if err != nil {
		panic(err)
	}
	for i := 0; i < x.NumElements(); i++ {
		m.set(result, i, f(m.get(x, i)))
	}
	return result
}

func (m *MockBackend) get(t *RawTensor, i int) float64 {
	switch t.DType() {
	case Float32:
		return float64(t.AsFloat32()[i])
	case Float64:
		return t.AsFloat64()[i]
	default:
		panic(fmt.Sprintf("unsupported dtype %s", t.DType()))
	}
}

func (m *MockBackend) set(t *RawTensor, i int, v float64) {
	switch t.DType() {
	case Float32:
		t.AsFloat32()[i] = float32(v)
	case Float64:
		t.AsFloat64()[i] = v
	default:
		panic(fmt.Sprintf("unsupported dtype %s", t.DType()))
	}
}

// broadcastOffset maps a flat output index back to the flat source offset,
// treating broadcast dimensions as stride zero.
func broadcastOffset(i int, outShape Shape, outStrides []int, srcShape Shape) int {
	srcStrides := srcShape.ComputeStrides()
	offset := len(outShape) - len(srcShape)
	srcOff := 0
	rem := i
	for d, stride := range outStrides {
		idx := rem / stride
		rem %= stride
		s := d - offset
		if s < 0 || srcShape[s] == 1 {
			continue
		}
		srcOff += idx * srcStrides[s]
	}
	return srcOff
}
