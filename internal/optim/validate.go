package optim

import "fmt"

// Hyperparameter validation shared by the optimizer constructors. Each
// helper returns a descriptive error so construction fails fast instead of
// producing NaNs a thousand steps later.

func validatePositive(value int, name string) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, value)
	}
	return nil
}

func validateMomentum(momentum float32) error {
	if momentum < 0.0 || momentum >= 1.0 {
		return fmt.Errorf("momentum must be in [0, 1), got %g", momentum)
	}
	return nil
}

func validateEpsilon(eps float32) error {
	if eps < 0.0 {
		return fmt.Errorf("eps must be non-negative, got %g", eps)
	}
	return nil
}

func validateRange(value float32, name string, low, high float32) error {
	if value < low || value > high {
		return fmt.Errorf("%s must be in [%g, %g], got %g", name, low, high, value)
	}
	return nil
}

func validateOptions(value, name string, options []string) error {
	for _, opt := range options {
		if value == opt {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %v, got %q", name, options, value)
}
