package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/born-ml/spamnet/internal/tensor"
)

// MatMul computes op(a) @ op(b) for 2D float32 tensors via BLAS SGEMM.
// Operands are read in place; transposition is handled by the BLAS call.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor, transA, transB bool) *tensor.RawTensor {
	checkFloat32("matmul", a)
	checkFloat32("matmul", b)
	if len(a.Shape()) != 2 || len(b.Shape()) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(a.Shape()), len(b.Shape())))
	}

	ar, ac := a.Shape().Matrix()
	br, bc := b.Shape().Matrix()

	m, k := ar, ac
	if transA {
		m, k = ac, ar
	}
	kAlt, n := br, bc
	if transB {
		kAlt, n = bc, br
	}
	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch %s @ %s", opShape(a, transA), opShape(b, transB)))
	}

	result := cpu.alloc("matmul", tensor.Shape{m, n}, tensor.Float32)

	blas32.Gemm(
		transFlag(transA), transFlag(transB),
		1,
		general(a),
		general(b),
		0,
		blas32.General{Rows: m, Cols: n, Stride: n, Data: result.AsFloat32()},
	)
	return result
}

func general(t *tensor.RawTensor) blas32.General {
	rows, cols := t.Shape().Matrix()
	return blas32.General{Rows: rows, Cols: cols, Stride: cols, Data: t.AsFloat32()}
}

func transFlag(trans bool) blas.Transpose {
	if trans {
		return blas.Trans
	}
	return blas.NoTrans
}

func opShape(t *tensor.RawTensor, trans bool) string {
	if trans {
		return fmt.Sprintf("%vᵀ", t.Shape())
	}
	return fmt.Sprint(t.Shape())
}
