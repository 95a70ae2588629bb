package train

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chewxy/math32"

	"github.com/born-ml/spamnet/internal/data"
	"github.com/born-ml/spamnet/internal/nn"
	"github.com/born-ml/spamnet/internal/optim"
	"github.com/born-ml/spamnet/internal/tensor"
)

// History records the outcome of Trainer.Train.
type History struct {
	Losses      []float32     // one entry per batch, in processing order
	EpochLosses []float32     // mean batch loss per epoch
	Duration    time.Duration // wall-clock time of the whole loop
}

// Trainer runs mini-batch training of a Classifier.
//
// Batches are processed strictly one after another; within a batch the order
// is zero grad, forward, loss, backward, optimizer step.
type Trainer[B tensor.Backend] struct {
	cfg       Config
	model     *nn.Classifier[B]
	criterion *nn.WeightedCrossEntropyLoss[B]
	optimizer optim.Optimizer
	logger    *slog.Logger
}

// NewTrainer builds the loss from weights and the optimizer named in cfg.
// A nil logger discards output.
func NewTrainer[B tensor.Backend](cfg Config, model *nn.Classifier[B], weights []float32, backend B, logger *slog.Logger) (*Trainer[B], error) {
	reduction, err := nn.ParseReduction(cfg.LossReduction)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	criterion, err := nn.NewWeightedCrossEntropyLoss(weights, reduction, backend)
	if err != nil {
		return nil, err
	}
	optimizer, err := optim.New(cfg.Optimizer, model.Parameters(), cfg.LearningRate, cfg.Momentum, backend)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return &Trainer[B]{
		cfg:       cfg,
		model:     model,
		criterion: criterion,
		optimizer: optimizer,
		logger:    orDiscard(logger),
	}, nil
}

// Optimizer returns the optimizer driving the updates.
func (t *Trainer[B]) Optimizer() optim.Optimizer {
	return t.optimizer
}

// Criterion returns the loss function.
func (t *Trainer[B]) Criterion() *nn.WeightedCrossEntropyLoss[B] {
	return t.criterion
}

// Train runs cfg.NumEpochs epochs over loader, resetting it before each one.
//
// The run aborts on the first invalid batch or non-finite loss, and between
// batches when ctx is cancelled. The losses recorded so far are returned
// along with the error.
func (t *Trainer[B]) Train(ctx context.Context, loader *data.Loader[B]) (*History, error) {
	start := time.Now()
	history := &History{
		Losses: make([]float32, 0, t.cfg.NumEpochs*loader.Len()),
	}
	defer func() { history.Duration = time.Since(start) }()

	for epoch := range t.cfg.NumEpochs {
		loader.Reset()
		var epochSum float32
		var batches int

		for batch, ok := loader.Next(); ok; batch, ok = loader.Next() {
			if err := ctx.Err(); err != nil {
				return history, err
			}

			loss, err := t.step(batch)
			if err != nil {
				return history, fmt.Errorf("epoch %d batch %d: %w", epoch+1, batches+1, err)
			}
			history.Losses = append(history.Losses, loss)
			epochSum += loss
			batches++

			if t.cfg.LogEvery > 0 && batches%t.cfg.LogEvery == 0 {
				t.logger.Info("training",
					"epoch", epoch+1, "epochs", t.cfg.NumEpochs,
					"batch", batches, "batches", loader.Len(),
					"loss", loss)
			}
		}

		mean := epochSum / float32(batches)
		history.EpochLosses = append(history.EpochLosses, mean)
		t.logger.Debug("epoch done", "epoch", epoch+1, "mean_loss", mean, "lr", t.optimizer.GetLR())
	}

	return history, nil
}

func (t *Trainer[B]) step(batch *data.Batch[B]) (float32, error) {
	if err := t.checkBatch(batch); err != nil {
		return 0, err
	}

	t.optimizer.ZeroGrad()
	trace := t.model.Trace(batch.Features)

	loss, err := t.criterion.Forward(trace.Logits, batch.Labels)
	if err != nil {
		return 0, err
	}
	if math32.IsNaN(loss) || math32.IsInf(loss, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNonFiniteLoss, loss)
	}

	grad, err := t.criterion.Backward(trace.Logits, batch.Labels)
	if err != nil {
		return 0, err
	}
	t.model.Backward(trace, grad)
	t.optimizer.Step()

	return loss, nil
}

func (t *Trainer[B]) checkBatch(batch *data.Batch[B]) error {
	shape := batch.Features.Shape()
	if len(shape) != 2 || shape[1] != t.model.Config().InputDim {
		return fmt.Errorf("%w: batch features %v, model expects [N %d]",
			tensor.ErrShapeMismatch, shape, t.model.Config().InputDim)
	}
	if shape[0] != batch.Labels.NumElements() {
		return fmt.Errorf("%w: %d feature rows, %d labels", tensor.ErrShapeMismatch, shape[0], batch.Labels.NumElements())
	}
	return nil
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
