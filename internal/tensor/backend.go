package tensor

// Backend defines the operations a compute backend provides to the trainer.
//
// All operations allocate a new result and leave their inputs untouched.
// Shape violations are programmer errors and panic.
type Backend interface {
	// Element-wise binary operations. b may have the same shape as a, or
	// be a [1, n] row that is broadcast over every row of an [m, n] a.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	// MatMul computes op(a) @ op(b) for 2D tensors, where op transposes
	// its operand when the corresponding flag is set.
	//   MatMul(a, b, false, false): [M,K] @ [K,N] -> [M,N]
	//   MatMul(a, b, true, false):  [K,M]ᵀ @ [K,N] -> [M,N]
	//   MatMul(a, b, false, true):  [M,K] @ [N,K]ᵀ -> [M,N]
	MatMul(a, b *RawTensor, transA, transB bool) *RawTensor

	// Transpose swaps the two axes of a 2D tensor.
	Transpose(t *RawTensor) *RawTensor

	// MulScalar multiplies every element by s.
	MulScalar(x *RawTensor, s float32) *RawTensor

	// SumRows reduces an [m, n] tensor over its rows to [1, n].
	SumRows(x *RawTensor) *RawTensor

	// Argmax returns the per-row index of the maximum of an [m, n] float32
	// tensor as an int32 tensor of shape [m]. Ties resolve to the lowest index.
	Argmax(x *RawTensor) *RawTensor

	// Activations and their derivatives. The backward variants take the
	// upstream gradient and the value the derivative is expressed in:
	// the pre-activation for ReLU, the activation output for Sigmoid/Tanh.
	ReLU(x *RawTensor) *RawTensor
	ReLUBackward(grad, input *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	SigmoidBackward(grad, output *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor
	TanhBackward(grad, output *RawTensor) *RawTensor

	// Metadata
	Name() string
	Device() Device
}
