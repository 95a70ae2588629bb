package train_test

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/spamnet/internal/backend/cpu"
	"github.com/born-ml/spamnet/internal/data"
	"github.com/born-ml/spamnet/internal/nn"
	"github.com/born-ml/spamnet/internal/tensor"
	"github.com/born-ml/spamnet/internal/train"
)

type backendT = *cpu.CPUBackend

func smallConfig() train.Config {
	cfg := train.DefaultConfig()
	cfg.InputDim = 3
	cfg.HiddenDim = 4
	cfg.NumEpochs = 1
	cfg.BatchSize = 2
	cfg.LogEvery = 1
	return cfg
}

func fourSamples() *data.Dataset {
	return &data.Dataset{
		Features: [][]float32{
			{0.9, 0.1, 0.0},
			{0.0, 0.2, 0.8},
			{0.7, 0.3, 0.1},
			{0.1, 0.0, 0.9},
		},
		Labels: []int32{0, 1, 0, 1},
	}
}

func TestRun_FourSamples(t *testing.T) {
	ds := fourSamples()
	out, err := train.Run(context.Background(), smallConfig(), ds, ds, nil, cpu.New(), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, 2, out.TrainBatches)
	assert.Len(t, out.History.Losses, 2, "one loss per batch")
	assert.Len(t, out.History.EpochLosses, 1)

	res := out.Result
	assert.Len(t, res.Predicted, 4)
	assert.Equal(t, []int32{0, 1, 0, 1}, res.Actual, "test loader keeps dataset order")
	assert.GreaterOrEqual(t, res.Accuracy, 0.0)
	assert.LessOrEqual(t, res.Accuracy, 1.0)
	assert.Equal(t, 4, res.Confusion.Total())

	var sum int
	for _, row := range res.Confusion.Matrix() {
		for _, n := range row {
			sum += n
		}
	}
	assert.Equal(t, 4, sum)

	assert.Equal(t, []float32{1, 1}, out.ClassWeights, "balanced labels")
	for _, loss := range out.History.Losses {
		assert.GreaterOrEqual(t, loss, float32(0))
	}
}

func TestRun_SeededRunsAreBitIdentical(t *testing.T) {
	cfg := smallConfig()
	cfg.NumEpochs = 5
	cfg.Seed = 1234

	ds := separable(40, 3)
	first, err := train.Run(context.Background(), cfg, ds, ds, nil, cpu.New(), nil)
	require.NoError(t, err)
	second, err := train.Run(context.Background(), cfg, ds, ds, nil, cpu.New(), nil)
	require.NoError(t, err)

	require.Len(t, first.History.Losses, 5*20)
	assert.Equal(t, first.History.Losses, second.History.Losses)
	assert.Equal(t, first.Result.Predicted, second.Result.Predicted)
	assert.NotEqual(t, first.RunID, second.RunID)

	cfg.Seed = 4321
	third, err := train.Run(context.Background(), cfg, ds, ds, nil, cpu.New(), nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.History.Losses, third.History.Losses)
}

// separable builds n samples where the class is decided by which of the
// first two features is larger.
func separable(n, width int) *data.Dataset {
	rng := rand.New(rand.NewSource(5))
	ds := &data.Dataset{}
	for i := range n {
		row := make([]float32, width)
		for j := range row {
			row[j] = 0.1 * rng.Float32()
		}
		label := int32(i % 2)
		row[label] += 0.8 + 0.2*rng.Float32()
		ds.Features = append(ds.Features, row)
		ds.Labels = append(ds.Labels, label)
	}
	return ds
}

func TestRun_Learns(t *testing.T) {
	cfg := smallConfig()
	cfg.HiddenDim = 8
	cfg.NumEpochs = 60
	cfg.BatchSize = 4
	cfg.LearningRate = 0.1
	cfg.LogEvery = 0

	ds := separable(40, 3)
	out, err := train.Run(context.Background(), cfg, ds, ds, nil, cpu.New(), nil)
	require.NoError(t, err)

	epochs := out.History.EpochLosses
	assert.Less(t, epochs[len(epochs)-1], epochs[0])
	assert.GreaterOrEqual(t, out.Result.Accuracy, 0.9)
}

func TestRun_DegenerateClass(t *testing.T) {
	ds := fourSamples()
	ds.Labels = []int32{0, 0, 0, 0}

	_, err := train.Run(context.Background(), smallConfig(), ds, fourSamples(), nil, cpu.New(), nil)
	assert.ErrorIs(t, err, nn.ErrDegenerateClass)
}

func TestRun_ShapeMismatch(t *testing.T) {
	cfg := smallConfig()
	cfg.InputDim = 5

	ds := fourSamples()
	_, err := train.Run(context.Background(), cfg, ds, ds, nil, cpu.New(), nil)
	assert.ErrorIs(t, err, data.ErrShapeMismatch)
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.BatchSize = 0

	ds := fourSamples()
	_, err := train.Run(context.Background(), cfg, ds, ds, nil, cpu.New(), nil)
	assert.ErrorIs(t, err, train.ErrInvalidConfig)
}

func newTrainer(t *testing.T, cfg train.Config) (*train.Trainer[backendT], *nn.Classifier[backendT]) {
	t.Helper()
	backend := cpu.New()
	model, err := nn.NewClassifier(cfg.ClassifierConfig(), backend)
	require.NoError(t, err)
	trainer, err := train.NewTrainer(cfg, model, []float32{1, 1}, backend, nil)
	require.NoError(t, err)
	return trainer, model
}

func TestTrainer_NonFiniteLoss(t *testing.T) {
	trainer, _ := newTrainer(t, smallConfig())

	ds := fourSamples()
	ds.Features[0] = []float32{float32(math.NaN()), 0, 0}
	loader, err := data.NewLoader(ds, 2, false, nil, cpu.New())
	require.NoError(t, err)

	history, err := trainer.Train(context.Background(), loader)
	assert.ErrorIs(t, err, train.ErrNonFiniteLoss)
	assert.Empty(t, history.Losses)
}

func TestTrainer_WidthMismatch(t *testing.T) {
	cfg := smallConfig()
	cfg.InputDim = 2
	trainer, _ := newTrainer(t, cfg)

	loader, err := data.NewLoader(fourSamples(), 2, false, nil, cpu.New())
	require.NoError(t, err)

	_, err = trainer.Train(context.Background(), loader)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestTrainer_Cancelled(t *testing.T) {
	trainer, _ := newTrainer(t, smallConfig())
	loader, err := data.NewLoader(fourSamples(), 2, false, nil, cpu.New())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = trainer.Train(ctx, loader)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrainer_UsesConfiguredOptimizer(t *testing.T) {
	cfg := smallConfig()
	cfg.Optimizer = "adam"
	cfg.LearningRate = 0.01
	trainer, _ := newTrainer(t, cfg)
	assert.Equal(t, float32(0.01), trainer.Optimizer().GetLR())
	assert.Equal(t, nn.ReductionMean, trainer.Criterion().Reduction())
}

func TestEvaluator_DoesNotTouchModel(t *testing.T) {
	cfg := smallConfig()
	_, model := newTrainer(t, cfg)
	before := model.StateDict()

	loader, err := data.NewLoader(fourSamples(), 3, false, nil, cpu.New())
	require.NoError(t, err)
	res, err := train.NewEvaluator(cfg, model, []string{"ham", "spam"}, nil).Evaluate(context.Background(), loader)
	require.NoError(t, err)

	assert.Len(t, res.Predicted, 4)
	assert.Equal(t, "spam", res.Report.Classes[1].Name)
	for key, raw := range model.StateDict() {
		assert.Equal(t, before[key].AsFloat32(), raw.AsFloat32(), key)
	}
	for _, p := range model.Parameters() {
		assert.Nil(t, p.Grad())
	}
}
