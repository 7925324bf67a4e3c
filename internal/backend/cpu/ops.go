package cpu

import (
	"fmt"

	"github.com/torq-ml/torq/internal/tensor"
)

// arithOp selects the concrete arithmetic for binary and scalar operations.
type arithOp int

const (
	opAdd arithOp = iota
	opSub
	opMul
	opDiv
)

func applyOp[T float32 | float64](op arithOp, a, b T) T {
	switch op {
	case opAdd:
		return a + b
	case opSub:
		return a - b
	case opMul:
		return a * b
	case opDiv:
		return a / b
	default:
		panic("unknown arithmetic op")
	}
}

// binaryOp dispatches an element-wise binary operation on dtype, with a
// same-shape fast path and a stride-walking broadcast path.
func (c *Backend) binaryOp(name string, a, b *tensor.RawTensor, op arithOp) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch: %s vs %s", name, a.DType(), b.DType()))
	}

	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result, err := tensor.NewRaw(outShape, a.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch a.DType() {
	case tensor.Float32:
		binaryInto(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), outShape, a.Shape(), b.Shape(), op)
	case tensor.Float64:
		binaryInto(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), outShape, a.Shape(), b.Shape(), op)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}

	return result
}

func binaryInto[T float32 | float64](dst, a, b []T, outShape, aShape, bShape tensor.Shape, op arithOp) {
	if aShape.Equal(bShape) {
		for i := range dst {
			dst[i] = applyOp(op, a[i], b[i])
		}
		return
	}

	// Broadcast path: map each output index back to source offsets.
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)

	for i := range dst {
		aOff, bOff := 0, 0
		rem := i
		for d, stride := range outStrides {
			idx := rem / stride
			rem %= stride
			aOff += idx * aStrides[d]
			bOff += idx * bStrides[d]
		}
		dst[i] = applyOp(op, a[aOff], b[bOff])
	}
}

// broadcastStrides computes source strides aligned to the output rank, with
// zero stride on broadcast dimensions.
func broadcastStrides(src, out tensor.Shape) []int {
	strides := make([]int, len(out))
	srcStrides := src.ComputeStrides()
	offset := len(out) - len(src)
	for d := range out {
		s := d - offset
		if s < 0 || src[s] == 1 && out[d] != 1 {
			strides[d] = 0
		} else {
			strides[d] = srcStrides[s]
		}
	}
	return strides
}

// scalarOp applies a binary operation between every element and a scalar.
func (c *Backend) scalarOp(name string, x *tensor.RawTensor, scalar any, op arithOp) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch x.DType() {
	case tensor.Float32:
		s, ok := scalar.(float32)
		if !ok {
			panic(fmt.Sprintf("%s: scalar type %T does not match dtype float32", name, scalar))
		}
		dst, src := result.AsFloat32(), x.AsFloat32()
		for i := range src {
			dst[i] = applyOp(op, src[i], s)
		}
	case tensor.Float64:
		s, ok := scalar.(float64)
		if !ok {
			panic(fmt.Sprintf("%s: scalar type %T does not match dtype float64", name, scalar))
		}
		dst, src := result.AsFloat64(), x.AsFloat64()
		for i := range src {
			dst[i] = applyOp(op, src[i], s)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	return result
}

// unaryOp applies an element-wise math function.
func (c *Backend) unaryOp(name string, x *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch x.DType() {
	case tensor.Float32:
		dst, src := result.AsFloat32(), x.AsFloat32()
		for i := range src {
			dst[i] = float32(f(float64(src[i])))
		}
	case tensor.Float64:
		dst, src := result.AsFloat64(), x.AsFloat64()
		for i := range src {
			dst[i] = f(src[i])
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	return result
}
