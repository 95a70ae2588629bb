package tensor

// Add performs element-wise addition. other may be a [1, n] row that is
// broadcast over every row of t.
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub performs element-wise subtraction with the same broadcasting as Add.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul performs element-wise multiplication with the same broadcasting as Add.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// MulScalar multiplies every element by s.
func (t *Tensor[T, B]) MulScalar(s float32) *Tensor[T, B] {
	return New[T, B](t.backend.MulScalar(t.raw, s), t.backend)
}

// MatMul performs matrix multiplication: (M, K) @ (K, N) → (M, N).
//
// Example:
//
//	a := tensor.Zeros[float32](tensor.Shape{3, 4}, backend)
//	b := tensor.Zeros[float32](tensor.Shape{4, 5}, backend)
//	c := a.MatMul(b) // Shape: [3, 5]
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw, false, false), t.backend)
}

// TMatMul computes tᵀ @ other without materializing the transpose:
// (K, M)ᵀ @ (K, N) → (M, N).
func (t *Tensor[T, B]) TMatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw, true, false), t.backend)
}

// MatMulT computes t @ otherᵀ without materializing the transpose:
// (M, K) @ (N, K)ᵀ → (M, N).
func (t *Tensor[T, B]) MatMulT(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw, false, true), t.backend)
}

// T returns the 2D transpose (swaps rows and columns).
func (t *Tensor[T, B]) T() *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw), t.backend)
}

// SumRows reduces an [m, n] tensor to [1, n].
func (t *Tensor[T, B]) SumRows() *Tensor[T, B] {
	return New[T, B](t.backend.SumRows(t.raw), t.backend)
}

// Argmax returns the per-row index of the maximum value as an int32 tensor.
func (t *Tensor[T, B]) Argmax() *Tensor[int32, B] {
	return New[int32, B](t.backend.Argmax(t.raw), t.backend)
}

// Reshape returns a tensor sharing t's data with a different shape.
// The new shape must have the same number of elements.
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	raw, err := t.raw.View(Shape(newShape))
	if err != nil {
		panic(err)
	}
	return New[T, B](raw, t.backend)
}
