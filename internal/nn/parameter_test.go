package nn

import (
	"testing"

	"github.com/torq-ml/torq/internal/tensor"
)

func TestParameterBasics(t *testing.T) {
	backend := tensor.NewMockBackend()
	w := tensor.Full[float32](tensor.Shape{2, 2}, 0.5, backend)

	p := NewParameter("weight", w)

	if p.Name() != "weight" {
		t.Errorf("Name() = %q, want %q", p.Name(), "weight")
	}
	if p.Tensor() != w {
		t.Error("Tensor() should return the wrapped tensor")
	}
	if p.Grad() != nil {
		t.Error("Grad() should be nil before the first backward pass")
	}
}

func TestParameterGradLifecycle(t *testing.T) {
	backend := tensor.NewMockBackend()
	w := tensor.Zeros[float32](tensor.Shape{3}, backend)
	g := tensor.Ones[float32](tensor.Shape{3}, backend)

	p := NewParameter("bias", w)
	p.SetGrad(g)
	if p.Grad() != g {
		t.Error("SetGrad then Grad should return the gradient")
	}

	p.ZeroGrad()
	if p.Grad() != nil {
		t.Error("ZeroGrad should clear the gradient")
	}
}

func TestModuleInterface(t *testing.T) {
	backend := tensor.NewMockBackend()
	p := NewParameter("weight", tensor.Zeros[float32](tensor.Shape{2}, backend))

	var m Module[*tensor.MockBackend] = paramList[*tensor.MockBackend]{p}
	if len(m.Parameters()) != 1 || m.Parameters()[0] != p {
		t.Error("Parameters() should expose the module's parameters")
	}
}

type paramList[B tensor.Backend] []*Parameter[B]

func (l paramList[B]) Parameters() []*Parameter[B] {
	return l
}
