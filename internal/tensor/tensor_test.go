package tensor

import (
	"math"
	"testing"
)

// Test helpers

func assertEqualFloat32(t *testing.T, expected, actual float32, msg string) {
	t.Helper()
	if math.Abs(float64(expected-actual)) > 1e-6 {
		t.Errorf("%s: expected %v, got %v", msg, expected, actual)
	}
}

func assertEqualShape(t *testing.T, expected, actual Shape, msg string) {
	t.Helper()
	if !expected.Equal(actual) {
		t.Errorf("%s: expected shape %v, got %v", msg, expected, actual)
	}
}

// DType Tests

func TestDataTypeSize(t *testing.T) {
	tests := []struct {
		dtype DataType
		size  int
	}{
		{Float32, 4},
		{Float64, 8},
		{Int32, 4},
	}

	for _, tt := range tests {
		if got := tt.dtype.Size(); got != tt.size {
			t.Errorf("%s.Size() = %d, want %d", tt.dtype, got, tt.size)
		}
	}
}

func TestDataTypeString(t *testing.T) {
	tests := []struct {
		dtype DataType
		str   string
	}{
		{Float32, "float32"},
		{Float64, "float64"},
		{Int32, "int32"},
	}

	for _, tt := range tests {
		if got := tt.dtype.String(); got != tt.str {
			t.Errorf("%s.String() = %q, want %q", tt.dtype, got, tt.str)
		}
	}
}

func TestInferDataType(t *testing.T) {
	if dt := inferDataType(float32(0)); dt != Float32 {
		t.Errorf("inferDataType(float32) = %v, want Float32", dt)
	}
	if dt := inferDataType(float64(0)); dt != Float64 {
		t.Errorf("inferDataType(float64) = %v, want Float64", dt)
	}
	if dt := inferDataType(int32(0)); dt != Int32 {
		t.Errorf("inferDataType(int32) = %v, want Int32", dt)
	}
}

// Shape Tests

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		n     int
	}{
		{Shape{}, 1},
		{Shape{5}, 5},
		{Shape{2, 3}, 6},
		{Shape{2, 3, 4}, 24},
	}

	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.n {
			t.Errorf("Shape%v.NumElements() = %d, want %d", tt.shape, got, tt.n)
		}
	}
}

func TestShapeValidate(t *testing.T) {
	if err := (Shape{2, 3}).Validate(); err != nil {
		t.Errorf("Shape{2, 3}.Validate() = %v, want nil", err)
	}
	if err := (Shape{2, 0}).Validate(); err == nil {
		t.Error("Shape{2, 0}.Validate() = nil, want error")
	}
	if err := (Shape{-1, 3}).Validate(); err == nil {
		t.Error("Shape{-1, 3}.Validate() = nil, want error")
	}
}

func TestShapeEqual(t *testing.T) {
	if !(Shape{2, 3}).Equal(Shape{2, 3}) {
		t.Error("Shape{2, 3} should equal Shape{2, 3}")
	}
	if (Shape{2, 3}).Equal(Shape{3, 2}) {
		t.Error("Shape{2, 3} should not equal Shape{3, 2}")
	}
	if (Shape{2, 3}).Equal(Shape{2, 3, 1}) {
		t.Error("Shape{2, 3} should not equal Shape{2, 3, 1}")
	}
}

func TestShapeClone(t *testing.T) {
	s := Shape{2, 3}
	c := s.Clone()
	c[0] = 99
	if s[0] != 2 {
		t.Error("Clone should not share memory with the original")
	}
}

func TestShapeComputeStrides(t *testing.T) {
	tests := []struct {
		shape   Shape
		strides []int
	}{
		{Shape{5}, []int{1}},
		{Shape{2, 3}, []int{3, 1}},
		{Shape{2, 3, 4}, []int{12, 4, 1}},
	}

	for _, tt := range tests {
		got := tt.shape.ComputeStrides()
		if len(got) != len(tt.strides) {
			t.Errorf("Shape%v.ComputeStrides() = %v, want %v", tt.shape, got, tt.strides)
			continue
		}
		for i := range got {
			if got[i] != tt.strides[i] {
				t.Errorf("Shape%v.ComputeStrides() = %v, want %v", tt.shape, got, tt.strides)
				break
			}
		}
	}
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b, want Shape
		needs      bool
	}{
		{Shape{2, 3}, Shape{2, 3}, Shape{2, 3}, false},
		{Shape{2, 3}, Shape{3}, Shape{2, 3}, true},
		{Shape{3, 1}, Shape{1, 4}, Shape{3, 4}, true},
		{Shape{1}, Shape{2, 3}, Shape{2, 3}, true},
	}

	for _, tt := range tests {
		got, needs, err := BroadcastShapes(tt.a, tt.b)
		if err != nil {
			t.Errorf("BroadcastShapes(%v, %v) error: %v", tt.a, tt.b, err)
			continue
		}
		assertEqualShape(t, tt.want, got, "broadcast result")
		if needs != tt.needs {
			t.Errorf("BroadcastShapes(%v, %v) needsBroadcast = %v, want %v", tt.a, tt.b, needs, tt.needs)
		}
	}
}

func TestBroadcastShapesIncompatible(t *testing.T) {
	if _, _, err := BroadcastShapes(Shape{2, 3}, Shape{2, 4}); err == nil {
		t.Error("BroadcastShapes(Shape{2, 3}, Shape{2, 4}) should fail")
	}
}

// RawTensor Tests

func TestNewRaw(t *testing.T) {
	raw, err := NewRaw(Shape{2, 3}, Float32, CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	assertEqualShape(t, Shape{2, 3}, raw.Shape(), "NewRaw shape")
	if raw.DType() != Float32 {
		t.Errorf("DType() = %v, want Float32", raw.DType())
	}
	if raw.NumElements() != 6 {
		t.Errorf("NumElements() = %d, want 6", raw.NumElements())
	}
	if raw.ByteSize() != 24 {
		t.Errorf("ByteSize() = %d, want 24", raw.ByteSize())
	}
	for _, v := range raw.AsFloat32() {
		if v != 0 {
			t.Error("NewRaw should zero-initialize")
			break
		}
	}
}

func TestNewRawInvalidShape(t *testing.T) {
	if _, err := NewRaw(Shape{2, 0}, Float32, CPU); err == nil {
		t.Error("NewRaw with zero dimension should fail")
	}
}

func TestRawTensorClone(t *testing.T) {
	raw, _ := NewRaw(Shape{3}, Float32, CPU)
	raw.AsFloat32()[0] = 1.5

	clone := raw.Clone()
	clone.AsFloat32()[0] = 99

	assertEqualFloat32(t, 1.5, raw.AsFloat32()[0], "Clone should be a deep copy")
}

func TestRawTensorCopyFrom(t *testing.T) {
	dst, _ := NewRaw(Shape{3}, Float32, CPU)
	src, _ := NewRaw(Shape{3}, Float32, CPU)
	src.AsFloat32()[1] = 2.5

	dst.CopyFrom(src)
	assertEqualFloat32(t, 2.5, dst.AsFloat32()[1], "CopyFrom should copy data")
}

func TestRawTensorCopyFromShapeMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("CopyFrom with mismatched shapes should panic")
		}
	}()

	dst, _ := NewRaw(Shape{3}, Float32, CPU)
	src, _ := NewRaw(Shape{4}, Float32, CPU)
	dst.CopyFrom(src)
}

func TestRawTensorTypedAccessPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("AsFloat32 on an int32 tensor should panic")
		}
	}()

	raw, _ := NewRaw(Shape{3}, Int32, CPU)
	raw.AsFloat32()
}

// Tensor Tests

func TestFromSlice(t *testing.T) {
	backend := NewMockBackend()
	x, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	assertEqualShape(t, Shape{2, 3}, x.Shape(), "FromSlice shape")
	assertEqualFloat32(t, 1, x.At(0, 0), "x[0,0]")
	assertEqualFloat32(t, 6, x.At(1, 2), "x[1,2]")
}

func TestFromSliceWrongLength(t *testing.T) {
	backend := NewMockBackend()
	if _, err := FromSlice([]float32{1, 2, 3}, Shape{2, 3}, backend); err == nil {
		t.Error("FromSlice with wrong element count should fail")
	}
}

func TestTensorAtSet(t *testing.T) {
	backend := NewMockBackend()
	x := Zeros[float32](Shape{2, 3}, backend)

	x.Set(7.5, 1, 2)
	assertEqualFloat32(t, 7.5, x.At(1, 2), "Set then At")
	assertEqualFloat32(t, 7.5, x.Data()[5], "Set writes row-major offset")
}

func TestTensorAtOutOfBounds(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("At with out-of-bounds index should panic")
		}
	}()

	backend := NewMockBackend()
	x := Zeros[float32](Shape{2, 3}, backend)
	x.At(2, 0)
}

func TestTensorItem(t *testing.T) {
	backend := NewMockBackend()
	x := Full[float32](Shape{1}, 3.25, backend)
	assertEqualFloat32(t, 3.25, x.Item(), "Item")
}

func TestTensorItemMultiElementPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Item on a multi-element tensor should panic")
		}
	}()

	backend := NewMockBackend()
	Zeros[float32](Shape{2}, backend).Item()
}

func TestTensorClone(t *testing.T) {
	backend := NewMockBackend()
	x := Full[float32](Shape{3}, 1.0, backend)

	y := x.Clone()
	y.Set(9, 0)

	assertEqualFloat32(t, 1.0, x.At(0), "Clone should be independent")
}

// Creation Tests

func TestZerosOnesFull(t *testing.T) {
	backend := NewMockBackend()

	z := Zeros[float32](Shape{2, 2}, backend)
	o := Ones[float32](Shape{2, 2}, backend)
	f := Full[float32](Shape{2, 2}, 2.5, backend)

	for i := range 4 {
		assertEqualFloat32(t, 0, z.Data()[i], "Zeros")
		assertEqualFloat32(t, 1, o.Data()[i], "Ones")
		assertEqualFloat32(t, 2.5, f.Data()[i], "Full")
	}
}

func TestZerosLike(t *testing.T) {
	backend := NewMockBackend()
	x := Full[float32](Shape{2, 3}, 5, backend)

	z := ZerosLike(x)
	assertEqualShape(t, x.Shape(), z.Shape(), "ZerosLike shape")
	for i := range z.Data() {
		assertEqualFloat32(t, 0, z.Data()[i], "ZerosLike values")
	}
}

// Operation Tests (via MockBackend)

func TestTensorAdd(t *testing.T) {
	backend := NewMockBackend()
	a, _ := FromSlice([]float32{1, 2, 3}, Shape{3}, backend)
	b, _ := FromSlice([]float32{10, 20, 30}, Shape{3}, backend)

	c := a.Add(b)
	want := []float32{11, 22, 33}
	for i, w := range want {
		assertEqualFloat32(t, w, c.Data()[i], "Add")
	}
}

func TestTensorAddBroadcast(t *testing.T) {
	backend := NewMockBackend()
	a, _ := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, backend)
	b, _ := FromSlice([]float32{10, 20, 30}, Shape{3}, backend)

	c := a.Add(b)
	assertEqualShape(t, Shape{2, 3}, c.Shape(), "broadcast Add shape")
	want := []float32{11, 22, 33, 14, 25, 36}
	for i, w := range want {
		assertEqualFloat32(t, w, c.Data()[i], "broadcast Add")
	}
}

func TestTensorSubMulDiv(t *testing.T) {
	backend := NewMockBackend()
	a, _ := FromSlice([]float32{4, 9, 16}, Shape{3}, backend)
	b, _ := FromSlice([]float32{2, 3, 4}, Shape{3}, backend)

	sub := a.Sub(b)
	mul := a.Mul(b)
	div := a.Div(b)

	for i, w := range []float32{2, 6, 12} {
		assertEqualFloat32(t, w, sub.Data()[i], "Sub")
	}
	for i, w := range []float32{8, 27, 64} {
		assertEqualFloat32(t, w, mul.Data()[i], "Mul")
	}
	for i, w := range []float32{2, 3, 4} {
		assertEqualFloat32(t, w, div.Data()[i], "Div")
	}
}

func TestTensorScalarOps(t *testing.T) {
	backend := NewMockBackend()
	a, _ := FromSlice([]float32{1, 2, 3}, Shape{3}, backend)

	add := a.AddScalar(1.5)
	mul := a.MulScalar(2)

	for i, w := range []float32{2.5, 3.5, 4.5} {
		assertEqualFloat32(t, w, add.Data()[i], "AddScalar")
	}
	for i, w := range []float32{2, 4, 6} {
		assertEqualFloat32(t, w, mul.Data()[i], "MulScalar")
	}
}

func TestTensorMathOps(t *testing.T) {
	backend := NewMockBackend()
	a, _ := FromSlice([]float32{1, 4, 9}, Shape{3}, backend)

	sqrt := a.Sqrt()
	for i, w := range []float32{1, 2, 3} {
		assertEqualFloat32(t, w, sqrt.Data()[i], "Sqrt")
	}

	log := a.Log()
	assertEqualFloat32(t, 0, log.Data()[0], "Log(1)")

	exp := Zeros[float32](Shape{2}, backend).Exp()
	for i := range 2 {
		assertEqualFloat32(t, 1, exp.Data()[i], "Exp(0)")
	}
}

func TestTensorSum(t *testing.T) {
	backend := NewMockBackend()
	a, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2}, backend)

	s := a.Sum()
	assertEqualShape(t, Shape{1}, s.Shape(), "Sum shape")
	assertEqualFloat32(t, 10, s.Item(), "Sum value")
}
