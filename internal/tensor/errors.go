package tensor

import "errors"

// ErrShapeMismatch reports tensors or datasets whose dimensions disagree.
// Callers wrap it with the offending shapes.
var ErrShapeMismatch = errors.New("shape mismatch")
