package train

import "errors"

// Common errors.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrNonFiniteLoss = errors.New("loss is not finite")
)
