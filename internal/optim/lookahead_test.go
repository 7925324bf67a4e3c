package optim_test

import (
	"testing"

	"github.com/torq-ml/torq/internal/backend/cpu"
	"github.com/torq-ml/torq/internal/nn"
	"github.com/torq-ml/torq/internal/optim"
	"github.com/torq-ml/torq/internal/tensor"
)

// TestLookahead_Interpolation tests the k-step slow weight interpolation.
func TestLookahead_Interpolation(t *testing.T) {
	backend := cpu.New()

	param := newParam(t, "x", []float32{1.0}, backend)
	params := []*nn.Parameter[*cpu.Backend]{param}

	inner, err := optim.NewSGD(params, optim.SGDConfig{LR: 0.1}, backend)
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	optimizer, err := optim.NewLookahead(inner, params,
		optim.LookaheadConfig{K: 2, Alpha: 0.5},
		backend,
	)
	if err != nil {
		t.Fatalf("NewLookahead: %v", err)
	}

	step := func() {
		grads := map[*tensor.RawTensor]*tensor.RawTensor{
			param.Tensor().Raw(): newGrad(t, []float32{1.0}, backend),
		}
		optimizer.Step(grads)
	}

	// Step 1: inner only. x = 1.0 - 0.1 = 0.9
	step()
	if got := param.Tensor().Raw().AsFloat32()[0]; !floatEqual(got, 0.9, 1e-6) {
		t.Errorf("after step 1: got %f, want 0.9", got)
	}

	// Step 2: inner (x = 0.8), then interpolation toward slow = 1.0:
	// x = 0.5*0.8 + 0.5*1.0 = 0.9, slow = 0.9
	step()
	if got := param.Tensor().Raw().AsFloat32()[0]; !floatEqual(got, 0.9, 1e-6) {
		t.Errorf("after step 2: got %f, want 0.9", got)
	}

	// Steps 3-4: inner twice more (0.8, 0.7), then x = 0.5*0.7 + 0.5*0.9 = 0.8
	step()
	step()
	if got := param.Tensor().Raw().AsFloat32()[0]; !floatEqual(got, 0.8, 1e-6) {
		t.Errorf("after step 4: got %f, want 0.8", got)
	}
}

// TestLookahead_PullbackReset tests that reset mode zeroes the inner
// momentum after every interpolation.
func TestLookahead_PullbackReset(t *testing.T) {
	backend := cpu.New()

	param := newParam(t, "x", []float32{1.0}, backend)
	params := []*nn.Parameter[*cpu.Backend]{param}

	inner, err := optim.NewSGD(params, optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	optimizer, err := optim.NewLookahead(inner, params,
		optim.LookaheadConfig{K: 1, Alpha: 0.5, PullbackMomentum: optim.PullbackReset},
		backend,
	)
	if err != nil {
		t.Fatalf("NewLookahead: %v", err)
	}

	step := func() {
		grads := map[*tensor.RawTensor]*tensor.RawTensor{
			param.Tensor().Raw(): newGrad(t, []float32{1.0}, backend),
		}
		optimizer.Step(grads)
	}

	// Step 1: v = 1.0, x = 0.9; interpolate: x = 0.95, slow = 0.95; v reset to 0.
	step()
	if got := param.Tensor().Raw().AsFloat32()[0]; !floatEqual(got, 0.95, 1e-6) {
		t.Errorf("after step 1: got %f, want 0.95", got)
	}

	// Step 2: with the reset, v = 0.9*0 + 1 = 1.0 so x = 0.85, then
	// x = 0.5*0.85 + 0.5*0.95 = 0.9. Without the reset v would be 1.9.
	step()
	if got := param.Tensor().Raw().AsFloat32()[0]; !floatEqual(got, 0.9, 1e-6) {
		t.Errorf("after step 2: got %f, want 0.9", got)
	}
}

// TestLookahead_PullbackMomentum tests the momentum interpolation mode.
func TestLookahead_PullbackMomentum(t *testing.T) {
	backend := cpu.New()

	param := newParam(t, "x", []float32{1.0}, backend)
	params := []*nn.Parameter[*cpu.Backend]{param}

	inner, err := optim.NewSGD(params, optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	optimizer, err := optim.NewLookahead(inner, params,
		optim.LookaheadConfig{K: 1, Alpha: 0.5, PullbackMomentum: optim.PullbackPullback},
		backend,
	)
	if err != nil {
		t.Fatalf("NewLookahead: %v", err)
	}

	step := func() {
		grads := map[*tensor.RawTensor]*tensor.RawTensor{
			param.Tensor().Raw(): newGrad(t, []float32{1.0}, backend),
		}
		optimizer.Step(grads)
	}

	// Step 1: v = 1.0, x = 0.9; interpolate: x = 0.95, slow = 0.95,
	// v = 0.5*1.0 + 0.5*0 = 0.5, slow_mom = 0.5.
	step()
	if got := param.Tensor().Raw().AsFloat32()[0]; !floatEqual(got, 0.95, 1e-6) {
		t.Errorf("after step 1: got %f, want 0.95", got)
	}
	if got := inner.MomentumBuffer(param).Data()[0]; !floatEqual(got, 0.5, 1e-6) {
		t.Errorf("pulled-back momentum after step 1: got %f, want 0.5", got)
	}

	// Step 2: v = 0.9*0.5 + 1 = 1.45, x = 0.95 - 0.145 = 0.805;
	// interpolate: x = 0.5*0.805 + 0.5*0.95 = 0.8775.
	step()
	if got := param.Tensor().Raw().AsFloat32()[0]; !floatEqual(got, 0.8775, 1e-5) {
		t.Errorf("after step 2: got %f, want 0.8775", got)
	}
}

// TestLookahead_BackupAndLoadCache tests evaluating with slow weights.
func TestLookahead_BackupAndLoadCache(t *testing.T) {
	backend := cpu.New()

	param := newParam(t, "x", []float32{1.0}, backend)
	params := []*nn.Parameter[*cpu.Backend]{param}

	inner, err := optim.NewSGD(params, optim.SGDConfig{LR: 0.1}, backend)
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	optimizer, err := optim.NewLookahead(inner, params, optim.LookaheadConfig{}, backend)
	if err != nil {
		t.Fatalf("NewLookahead: %v", err)
	}

	// One inner step (k defaults to 5, so no interpolation yet).
	grads := map[*tensor.RawTensor]*tensor.RawTensor{
		param.Tensor().Raw(): newGrad(t, []float32{1.0}, backend),
	}
	optimizer.Step(grads)

	if got := param.Tensor().Raw().AsFloat32()[0]; !floatEqual(got, 0.9, 1e-6) {
		t.Fatalf("after step: got %f, want 0.9", got)
	}

	// Load the slow weights (still at the initial 1.0) for evaluation.
	optimizer.BackupAndLoadCache()
	if got := param.Tensor().Raw().AsFloat32()[0]; !floatEqual(got, 1.0, 1e-6) {
		t.Errorf("after BackupAndLoadCache: got %f, want 1.0", got)
	}

	// Restore the fast weights to resume training.
	optimizer.ClearAndLoadBackup()
	if got := param.Tensor().Raw().AsFloat32()[0]; !floatEqual(got, 0.9, 1e-6) {
		t.Errorf("after ClearAndLoadBackup: got %f, want 0.9", got)
	}
}

// TestLookahead_WrapsAliG tests Lookahead over AliG's adaptive steps.
func TestLookahead_WrapsAliG(t *testing.T) {
	backend := cpu.New()

	param := newParam(t, "x", []float32{2.0}, backend)
	params := []*nn.Parameter[*cpu.Backend]{param}

	inner, err := optim.NewAliG(params, optim.AliGConfig{}, backend)
	if err != nil {
		t.Fatalf("NewAliG: %v", err)
	}

	optimizer, err := optim.NewLookahead(inner, params,
		optim.LookaheadConfig{K: 1, Alpha: 0.5},
		backend,
	)
	if err != nil {
		t.Fatalf("NewLookahead: %v", err)
	}

	// step_size = 1.0 / (1.0 + 1e-5) ≈ 1.0, so inner moves x to 1.0;
	// interpolation pulls back to 0.5*1.0 + 0.5*2.0 = 1.5.
	inner.SetLoss(1.0)
	grads := map[*tensor.RawTensor]*tensor.RawTensor{
		param.Tensor().Raw(): newGrad(t, []float32{1.0}, backend),
	}
	optimizer.Step(grads)

	if got := param.Tensor().Raw().AsFloat32()[0]; !floatEqual(got, 1.5, 1e-4) {
		t.Errorf("after step: got %f, want 1.5", got)
	}
}

// TestLookahead_Validation tests configuration validation.
func TestLookahead_Validation(t *testing.T) {
	backend := cpu.New()

	param := newParam(t, "x", []float32{1.0}, backend)
	params := []*nn.Parameter[*cpu.Backend]{param}

	inner, err := optim.NewSGD(params, optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	if _, err := optim.NewLookahead(inner, params, optim.LookaheadConfig{K: -1}, backend); err == nil {
		t.Error("NewLookahead should reject negative k")
	}
	if _, err := optim.NewLookahead(inner, params, optim.LookaheadConfig{Alpha: 1.5}, backend); err == nil {
		t.Error("NewLookahead should reject alpha > 1")
	}
	if _, err := optim.NewLookahead(inner, params, optim.LookaheadConfig{PullbackMomentum: "bogus"}, backend); err == nil {
		t.Error("NewLookahead should reject unknown pullback mode")
	}

	// Adam has no accessible momentum buffer, so pullback modes must fail.
	adam, err := optim.NewAdam(params, optim.AdamConfig{}, backend)
	if err != nil {
		t.Fatalf("NewAdam: %v", err)
	}
	if _, err := optim.NewLookahead(adam, params,
		optim.LookaheadConfig{PullbackMomentum: optim.PullbackPullback}, backend); err == nil {
		t.Error("NewLookahead should reject pullback with a momentum-less inner optimizer")
	}

	// GetLR and ZeroGrad delegate to the inner optimizer.
	optimizer, err := optim.NewLookahead(inner, params, optim.LookaheadConfig{}, backend)
	if err != nil {
		t.Fatalf("NewLookahead: %v", err)
	}
	if optimizer.GetLR() != inner.GetLR() {
		t.Errorf("GetLR: got %f, want %f", optimizer.GetLR(), inner.GetLR())
	}
}

// TestLookahead_StateDictDelegation tests that state export and import go
// through the inner optimizer.
func TestLookahead_StateDictDelegation(t *testing.T) {
	backend := cpu.New()

	param := newParam(t, "x", []float32{1.0}, backend)
	params := []*nn.Parameter[*cpu.Backend]{param}

	inner, err := optim.NewSGD(params, optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}
	optimizer, err := optim.NewLookahead(inner, params, optim.LookaheadConfig{}, backend)
	if err != nil {
		t.Fatalf("NewLookahead: %v", err)
	}

	grads := map[*tensor.RawTensor]*tensor.RawTensor{
		param.Tensor().Raw(): newGrad(t, []float32{1.0}, backend),
	}
	optimizer.Step(grads)

	state := optimizer.StateDict()
	vel, ok := state["velocity.0"]
	if !ok {
		t.Fatal("StateDict should expose the inner optimizer's velocity")
	}
	if got := vel.AsFloat32()[0]; !floatEqual(got, 1.0, 1e-6) {
		t.Errorf("velocity: got %f, want 1.0", got)
	}

	if err := optimizer.LoadStateDict(state); err != nil {
		t.Errorf("LoadStateDict: %v", err)
	}
}
