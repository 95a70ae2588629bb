package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/born-ml/spamnet/internal/backend/cpu"
	"github.com/born-ml/spamnet/internal/train"
)

func printResults(w io.Writer, cfg train.Config, out *train.Outcome[*cpu.CPUBackend]) {
	fmt.Fprintln(w, "Parameters:")
	fmt.Fprintf(w, "\tMini batch size: %d\n", cfg.BatchSize)
	fmt.Fprintf(w, "\tNumber of batches loaded for training: %d\n", out.TrainBatches)
	fmt.Fprintf(w, "\tNumber of batches loaded for testing: %d\n\n", out.TestBatches)
	fmt.Fprintf(w, "\tActivation Function: %s\n", cfg.Activation)
	fmt.Fprintf(w, "\tLoss Function: Weighted Cross Entropy Loss (%s)\n", cfg.LossReduction)
	fmt.Fprintf(w, "\tClass Weights: %.4f\n", out.ClassWeights)
	fmt.Fprintf(w, "\tNumber of Classes (output layer): %d\n", cfg.NumClasses)
	fmt.Fprintf(w, "\tInput Features: %d\n", cfg.InputDim)
	fmt.Fprintf(w, "\tNeurons: %d\n", cfg.HiddenDim)
	fmt.Fprintf(w, "\tEpochs: %d\n", cfg.NumEpochs)
	fmt.Fprintf(w, "\tOptimizer: %s\n", cfg.Optimizer)
	fmt.Fprintf(w, "\tLearning Rate: %g\n", cfg.LearningRate)
	fmt.Fprintf(w, "\tGamma (momentum): %g\n", cfg.Momentum)

	fmt.Fprintf(w, "\nTraining Time: %s\n", out.History.Duration)
	fmt.Fprintf(w, "\nAccuracy: %.4f\n", out.Result.Accuracy)
	fmt.Fprintf(w, "Precision: %.4f\n", out.Result.Precision)
	fmt.Fprint(w, out.Result.Confusion)
	fmt.Fprintf(w, "\nClassification Report:\n%s", out.Result.Report)
}

// writeLosses dumps the loss history as batch,epoch,loss rows.
func writeLosses(path string, losses []float32, batchesPerEpoch int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create losses file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"batch", "epoch", "loss"}); err != nil {
		return err
	}
	for i, loss := range losses {
		record := []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(i/batchesPerEpoch + 1),
			strconv.FormatFloat(float64(loss), 'g', -1, 32),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
