package nn

import "errors"

// Common errors.
var (
	ErrDegenerateClass     = errors.New("class has no training samples")
	ErrInvalidTarget       = errors.New("target label out of range")
	ErrInvalidArchitecture = errors.New("invalid architecture")
	ErrUnknownActivation   = errors.New("unknown activation")
	ErrInvalidWeights      = errors.New("invalid class weights")
)
