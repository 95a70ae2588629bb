package train

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/born-ml/spamnet/internal/data"
	"github.com/born-ml/spamnet/internal/metrics"
	"github.com/born-ml/spamnet/internal/nn"
	"github.com/born-ml/spamnet/internal/tensor"
)

// Result is the outcome of an evaluation pass.
type Result struct {
	Predicted []int32 // argmax class per sample, in loader order
	Actual    []int32 // true class per sample, in loader order
	Accuracy  float64
	Precision float64 // precision of metrics.PositiveClass
	Confusion *metrics.ConfusionMatrix
	Report    *metrics.Report
}

// Evaluator scores a trained classifier. It never updates parameters or
// gradients.
type Evaluator[B tensor.Backend] struct {
	model        *nn.Classifier[B]
	zeroDivision float64
	classNames   []string
	logger       *slog.Logger
}

// NewEvaluator creates an evaluator. classNames labels report rows and may be
// nil.
func NewEvaluator[B tensor.Backend](cfg Config, model *nn.Classifier[B], classNames []string, logger *slog.Logger) *Evaluator[B] {
	return &Evaluator[B]{
		model:        model,
		zeroDivision: cfg.ZeroDivision,
		classNames:   classNames,
		logger:       orDiscard(logger),
	}
}

// Evaluate predicts every sample of loader, from the start of an epoch, and
// compares the predictions with the labels.
func (e *Evaluator[B]) Evaluate(ctx context.Context, loader *data.Loader[B]) (*Result, error) {
	numClasses := e.model.Config().NumClasses
	result := &Result{
		Predicted: make([]int32, 0, loader.NumSamples()),
		Actual:    make([]int32, 0, loader.NumSamples()),
		Confusion: metrics.NewConfusionMatrix(numClasses),
	}

	loader.Reset()
	batches := 0
	for batch, ok := loader.Next(); ok; batch, ok = loader.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if got := batch.Features.Shape(); got[1] != e.model.Config().InputDim {
			return nil, fmt.Errorf("%w: batch features %v, model expects [N %d]",
				tensor.ErrShapeMismatch, got, e.model.Config().InputDim)
		}

		predicted := e.model.Predict(batch.Features).Data()
		actual := batch.Labels.Data()
		if err := result.Confusion.Update(predicted, actual); err != nil {
			return nil, err
		}
		result.Predicted = append(result.Predicted, predicted...)
		result.Actual = append(result.Actual, actual...)

		batches++
		e.logger.Debug("evaluating", "batch", batches, "batches", loader.Len())
	}

	result.Accuracy = result.Confusion.Accuracy()
	result.Precision = result.Confusion.Precision(metrics.PositiveClass, e.zeroDivision)
	result.Report = result.Confusion.Report(e.zeroDivision, e.classNames...)

	e.logger.Info("evaluation done",
		"samples", len(result.Actual),
		"accuracy", result.Accuracy,
		"precision", result.Precision)
	return result, nil
}
