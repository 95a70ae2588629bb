package optim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/spamnet/internal/backend/cpu"
	"github.com/born-ml/spamnet/internal/nn"
	"github.com/born-ml/spamnet/internal/optim"
	"github.com/born-ml/spamnet/internal/tensor"
)

type backendT = *cpu.CPUBackend

func param(t *testing.T, backend backendT, values ...float32) *nn.Parameter[backendT] {
	t.Helper()
	x, err := tensor.FromSlice(append([]float32(nil), values...), tensor.Shape{len(values)}, backend)
	require.NoError(t, err)
	return nn.NewParameter("p", x)
}

func setGrad(t *testing.T, backend backendT, p *nn.Parameter[backendT], values ...float32) {
	t.Helper()
	g, err := tensor.FromSlice(append([]float32(nil), values...), tensor.Shape{len(values)}, backend)
	require.NoError(t, err)
	p.SetGrad(g)
}

func TestSGD_FirstMomentumStepIsPlainGradientStep(t *testing.T) {
	backend := cpu.New()
	const lr = 0.008

	p := param(t, backend, 0.5, -1.25, 3)
	setGrad(t, backend, p, 0.2, -0.4, 1.5)

	want := make([]float32, 3)
	for i, theta := range p.Tensor().Data() {
		want[i] = theta - lr*p.Grad().Data()[i]
	}

	optimizer := optim.NewSGD([]*nn.Parameter[backendT]{p}, optim.SGDConfig{LR: lr, Momentum: 0.5}, backend)
	optimizer.Step()

	for i := range want {
		assert.InDelta(t, want[i], p.Tensor().Data()[i], 1e-7)
	}
}

func TestSGD_WithMomentum(t *testing.T) {
	backend := cpu.New()
	p := param(t, backend, 1)
	optimizer := optim.NewSGD([]*nn.Parameter[backendT]{p}, optim.SGDConfig{LR: 0.1, Momentum: 0.5}, backend)

	// v1 = 1, θ1 = 0.9; v2 = 0.5*1 + 1 = 1.5, θ2 = 0.9 - 0.15 = 0.75
	setGrad(t, backend, p, 1)
	optimizer.Step()
	assert.InDelta(t, 0.9, p.Tensor().Data()[0], 1e-6)

	setGrad(t, backend, p, 1)
	optimizer.Step()
	assert.InDelta(t, 0.75, p.Tensor().Data()[0], 1e-6)

	state := optimizer.StateDict()
	require.Contains(t, state, "velocity.0")
	assert.InDelta(t, 1.5, state["velocity.0"].AsFloat32()[0], 1e-6)
}

func TestSGD_WithoutMomentum(t *testing.T) {
	backend := cpu.New()
	p := param(t, backend, 1, 2)
	optimizer := optim.NewSGD([]*nn.Parameter[backendT]{p}, optim.SGDConfig{LR: 0.5}, backend)

	for range 2 {
		setGrad(t, backend, p, 1, -1)
		optimizer.Step()
	}
	assert.InDeltaSlice(t, []float32{0, 3}, p.Tensor().Data(), 1e-6)
	assert.Empty(t, optimizer.StateDict())
}

func TestSGD_SkipsParametersWithoutGradient(t *testing.T) {
	backend := cpu.New()
	p := param(t, backend, 1, 2)
	optimizer := optim.NewSGD([]*nn.Parameter[backendT]{p}, optim.SGDConfig{LR: 0.5, Momentum: 0.9}, backend)

	optimizer.Step()
	assert.Equal(t, []float32{1, 2}, p.Tensor().Data())
	assert.Empty(t, optimizer.StateDict())
}

func TestSGD_ZeroGrad(t *testing.T) {
	backend := cpu.New()
	p := param(t, backend, 1, 2)
	setGrad(t, backend, p, 3, 4)

	optimizer := optim.NewSGD([]*nn.Parameter[backendT]{p}, optim.SGDConfig{LR: 0.1}, backend)
	optimizer.ZeroGrad()
	assert.Equal(t, []float32{0, 0}, p.Grad().Data())
}

func TestSGD_GetSetLR(t *testing.T) {
	backend := cpu.New()
	optimizer := optim.NewSGD[backendT](nil, optim.SGDConfig{}, backend)
	assert.Equal(t, float32(0.01), optimizer.GetLR(), "default learning rate")

	optimizer.SetLR(0.008)
	assert.Equal(t, float32(0.008), optimizer.GetLR())
}

func TestSGD_LoadStateDict(t *testing.T) {
	backend := cpu.New()
	cfg := optim.SGDConfig{LR: 0.1, Momentum: 0.5}

	a := param(t, backend, 1)
	first := optim.NewSGD([]*nn.Parameter[backendT]{a}, cfg, backend)
	setGrad(t, backend, a, 1)
	first.Step()

	b := param(t, backend, 0.9)
	second := optim.NewSGD([]*nn.Parameter[backendT]{b}, cfg, backend)
	require.NoError(t, second.LoadStateDict(first.StateDict()))

	setGrad(t, backend, a, 1)
	setGrad(t, backend, b, 1)
	first.Step()
	second.Step()
	assert.Equal(t, a.Tensor().Data(), b.Tensor().Data())

	c := param(t, backend, 1, 2)
	third := optim.NewSGD([]*nn.Parameter[backendT]{c}, cfg, backend)
	assert.ErrorIs(t, third.LoadStateDict(first.StateDict()), tensor.ErrShapeMismatch)
}

func TestAdam_FirstStep(t *testing.T) {
	backend := cpu.New()
	p := param(t, backend, 1, 1)
	setGrad(t, backend, p, 0.5, -2)

	optimizer := optim.NewAdam([]*nn.Parameter[backendT]{p}, optim.AdamConfig{LR: 0.1}, backend)
	optimizer.Step()

	// After bias correction the first step is lr * sign(g).
	assert.InDeltaSlice(t, []float32{0.9, 1.1}, p.Tensor().Data(), 1e-5)
	assert.Equal(t, 1, optimizer.GetTimestep())
}

func TestConvergence_SimpleQuadratic(t *testing.T) {
	backend := cpu.New()

	for _, name := range []string{optim.NameSGD, optim.NameAdam} {
		t.Run(name, func(t *testing.T) {
			p := param(t, backend, 0)
			optimizer, err := optim.New(name, []*nn.Parameter[backendT]{p}, 0.1, 0.5, backend)
			require.NoError(t, err)

			// minimize (θ - 3)²
			for range 300 {
				optimizer.ZeroGrad()
				setGrad(t, backend, p, 2*(p.Tensor().Data()[0]-3))
				optimizer.Step()
			}
			assert.InDelta(t, 3, p.Tensor().Data()[0], 5e-2)
		})
	}
}

func TestNew_UnknownOptimizer(t *testing.T) {
	_, err := optim.New[backendT]("rmsprop", nil, 0.1, 0, cpu.New())
	assert.Error(t, err)
}
