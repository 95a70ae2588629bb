package train

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"github.com/born-ml/spamnet/internal/data"
	"github.com/born-ml/spamnet/internal/nn"
	"github.com/born-ml/spamnet/internal/tensor"
)

// Outcome collects everything a run produced.
type Outcome[B tensor.Backend] struct {
	RunID        string
	ClassWeights []float32
	Model        *nn.Classifier[B]
	History      *History
	Result       *Result
	TrainBatches int
	TestBatches  int
}

// Run trains a fresh classifier on train and evaluates it on test:
// class weights from the training labels, seeded model, shuffled training
// loader, sequential test loader.
//
// Pass classNames to label report rows; nil uses class indices.
func Run[B tensor.Backend](ctx context.Context, cfg Config, train, test *data.Dataset, classNames []string, backend B, logger *slog.Logger) (*Outcome[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := train.Validate(cfg.InputDim, cfg.NumClasses); err != nil {
		return nil, fmt.Errorf("training data: %w", err)
	}
	if err := test.Validate(cfg.InputDim, cfg.NumClasses); err != nil {
		return nil, fmt.Errorf("test data: %w", err)
	}

	runID := uuid.NewString()
	logger = orDiscard(logger).With("run_id", runID)

	weights, err := nn.ClassWeights(train.Labels, cfg.NumClasses)
	if err != nil {
		return nil, fmt.Errorf("class weights: %w", err)
	}

	model, err := nn.NewClassifier(cfg.ClassifierConfig(), backend)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // reproducible shuffling, not security sensitive
	rng := rand.New(rand.NewSource(cfg.Seed))
	trainLoader, err := data.NewLoader(train, cfg.BatchSize, true, rng, backend)
	if err != nil {
		return nil, err
	}
	testLoader, err := data.NewLoader(test, cfg.BatchSize, false, nil, backend)
	if err != nil {
		return nil, err
	}

	logger.Info("starting run",
		"train_samples", train.Len(), "test_samples", test.Len(),
		"train_batches", trainLoader.Len(), "test_batches", testLoader.Len(),
		"class_weights", weights, "backend", backend.Name())

	trainer, err := NewTrainer(cfg, model, weights, backend, logger)
	if err != nil {
		return nil, err
	}
	history, err := trainer.Train(ctx, trainLoader)
	if err != nil {
		return nil, fmt.Errorf("training: %w", err)
	}
	logger.Info("training done", "batches", len(history.Losses), "duration", history.Duration)

	result, err := NewEvaluator(cfg, model, classNames, logger).Evaluate(ctx, testLoader)
	if err != nil {
		return nil, fmt.Errorf("evaluation: %w", err)
	}

	return &Outcome[B]{
		RunID:        runID,
		ClassWeights: weights,
		Model:        model,
		History:      history,
		Result:       result,
		TrainBatches: trainLoader.Len(),
		TestBatches:  testLoader.Len(),
	}, nil
}
