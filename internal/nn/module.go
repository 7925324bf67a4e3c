package nn

import (
	"github.com/torq-ml/torq/internal/tensor"
)

// Module is anything that exposes trainable parameters. Loss functions
// implement it with an empty parameter list.
type Module[B tensor.Backend] interface {
	Parameters() []*Parameter[B]
}
