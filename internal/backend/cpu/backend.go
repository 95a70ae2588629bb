// Package cpu implements the CPU backend: gonum BLAS for matrix products and
// goroutine-parallel element-wise kernels.
package cpu

import (
	"fmt"

	"github.com/born-ml/spamnet/internal/parallel"
	"github.com/born-ml/spamnet/internal/tensor"
)

var _ tensor.Backend = (*CPUBackend)(nil)

// CPUBackend implements tensor.Backend on the host CPU.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a new CPU backend with the default parallel configuration.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with an explicit parallel configuration.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with [1, n] row broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with [1, n] row broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with [1, n] row broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b, func(x, y float32) float32 { return x * y })
}

// MulScalar multiplies every element of x by s.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, s float32) *tensor.RawTensor {
	return cpu.unary("mul_scalar", x, func(v float32) float32 { return v * s })
}

// Transpose swaps the axes of a 2D tensor.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor) *tensor.RawTensor {
	checkFloat32("transpose", t)
	rows, cols := t.Shape().Matrix()

	result := cpu.alloc("transpose", tensor.Shape{cols, rows}, tensor.Float32)
	src := t.AsFloat32()
	dst := result.AsFloat32()
	parallel.ForRange(rows, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < cols; j++ {
				dst[j*rows+i] = src[i*cols+j]
			}
		}
	}, cpu.rowConfig(cols))
	return result
}

// SumRows reduces [m, n] to [1, n]. Each column is summed in row order.
func (cpu *CPUBackend) SumRows(x *tensor.RawTensor) *tensor.RawTensor {
	checkFloat32("sum_rows", x)
	rows, cols := x.Shape().Matrix()

	result := cpu.alloc("sum_rows", tensor.Shape{1, cols}, tensor.Float32)
	src := x.AsFloat32()
	dst := result.AsFloat32()
	parallel.ForRange(cols, func(start, end int) {
		for j := start; j < end; j++ {
			var sum float32
			for i := 0; i < rows; i++ {
				sum += src[i*cols+j]
			}
			dst[j] = sum
		}
	}, cpu.rowConfig(rows))
	return result
}

// Argmax returns the per-row index of the maximum value.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor) *tensor.RawTensor {
	checkFloat32("argmax", x)
	rows, cols := x.Shape().Matrix()

	result := cpu.alloc("argmax", tensor.Shape{rows}, tensor.Int32)
	src := x.AsFloat32()
	dst := result.AsInt32()
	for i := 0; i < rows; i++ {
		row := src[i*cols : (i+1)*cols]
		best := 0
		for j := 1; j < cols; j++ {
			if row[j] > row[best] {
				best = j
			}
		}
		dst[i] = int32(best) //nolint:gosec // G115: column index bounded by tensor width.
	}
	return result
}

func (cpu *CPUBackend) binary(op string, a, b *tensor.RawTensor, f func(x, y float32) float32) *tensor.RawTensor {
	checkFloat32(op, a)
	checkFloat32(op, b)

	aShape, bShape := a.Shape(), b.Shape()
	result := cpu.alloc(op, aShape, tensor.Float32)
	dst := result.AsFloat32()
	x := a.AsFloat32()
	y := b.AsFloat32()

	switch {
	case aShape.Equal(bShape):
		parallel.ForRange(len(dst), func(start, end int) {
			for i := start; i < end; i++ {
				dst[i] = f(x[i], y[i])
			}
		}, cpu.parallel)
	case len(aShape) == 2 && len(bShape) == 2 && bShape[0] == 1 && bShape[1] == aShape[1]:
		cols := aShape[1]
		parallel.ForRange(aShape[0], func(start, end int) {
			for i := start; i < end; i++ {
				base := i * cols
				for j := 0; j < cols; j++ {
					dst[base+j] = f(x[base+j], y[j])
				}
			}
		}, cpu.rowConfig(cols))
	default:
		panic(fmt.Sprintf("%s: shapes not compatible: %v vs %v", op, aShape, bShape))
	}
	return result
}

func (cpu *CPUBackend) unary(op string, x *tensor.RawTensor, f func(v float32) float32) *tensor.RawTensor {
	checkFloat32(op, x)
	result := cpu.alloc(op, x.Shape(), tensor.Float32)
	src := x.AsFloat32()
	dst := result.AsFloat32()
	parallel.ForRange(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = f(src[i])
		}
	}, cpu.parallel)
	return result
}

// rowConfig scales the minimum chunk size so that a chunk of rows carries
// roughly as much work as a chunk of scalar elements.
func (cpu *CPUBackend) rowConfig(rowWidth int) parallel.Config {
	cfg := cpu.parallel
	if rowWidth > 0 {
		cfg.MinChunkSize = max(1, cfg.MinChunkSize/rowWidth)
	}
	return cfg
}

func (cpu *CPUBackend) alloc(op string, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return result
}

func checkFloat32(op string, t *tensor.RawTensor) {
	if t.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: unsupported dtype %s (only float32 supported)", op, t.DType()))
	}
}
