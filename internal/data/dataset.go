// Package data holds the in-memory training data and the mini-batch loader
// that feeds it to the classifier.
package data

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/born-ml/spamnet/internal/tensor"
)

// Errors reported while validating or splitting data.
var (
	// ErrShapeMismatch aliases tensor.ErrShapeMismatch so callers can test
	// either sentinel.
	ErrShapeMismatch = tensor.ErrShapeMismatch
	ErrEmptyDataset  = errors.New("dataset is empty")
	ErrInvalidLabel  = errors.New("label out of range")
)

// Dataset is an immutable set of feature rows and their class labels.
type Dataset struct {
	Features [][]float32 // [num_samples][input_dim]
	Labels   []int32     // [num_samples], each in [0, num_classes)
}

// New creates a dataset after checking that every row has a label.
func New(features [][]float32, labels []int32) (*Dataset, error) {
	if len(features) != len(labels) {
		return nil, fmt.Errorf("%w: %d feature rows but %d labels", ErrShapeMismatch, len(features), len(labels))
	}
	return &Dataset{Features: features, Labels: labels}, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Labels)
}

// Validate checks the dataset against the model architecture: labels and rows
// pair up, every row has inputDim entries and every label is a valid class.
func (d *Dataset) Validate(inputDim, numClasses int) error {
	if d.Len() == 0 {
		return ErrEmptyDataset
	}
	if len(d.Features) != len(d.Labels) {
		return fmt.Errorf("%w: %d feature rows but %d labels", ErrShapeMismatch, len(d.Features), len(d.Labels))
	}
	for i, row := range d.Features {
		if len(row) != inputDim {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(row), inputDim)
		}
	}
	for i, y := range d.Labels {
		if y < 0 || int(y) >= numClasses {
			return fmt.Errorf("%w: sample %d has label %d, want [0, %d)", ErrInvalidLabel, i, y, numClasses)
		}
	}
	return nil
}

// InputDim returns the width of the first row, or 0 for an empty dataset.
func (d *Dataset) InputDim() int {
	if len(d.Features) == 0 {
		return 0
	}
	return len(d.Features[0])
}

// Subset returns the samples at indices, in that order. Rows are shared with
// the receiver, not copied.
func (d *Dataset) Subset(indices []int) *Dataset {
	features := make([][]float32, len(indices))
	labels := make([]int32, len(indices))
	for i, idx := range indices {
		features[i] = d.Features[idx]
		labels[i] = d.Labels[idx]
	}
	return &Dataset{Features: features, Labels: labels}
}

// Split partitions the dataset into disjoint train and test sets using a
// seeded permutation. The test set receives ceil(N * testRatio) samples; both
// sides must end up non-empty.
func (d *Dataset) Split(testRatio float64, seed int64) (train, test *Dataset, err error) {
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, fmt.Errorf("test ratio %v must be in (0, 1)", testRatio)
	}

	n := d.Len()
	nTest := int(math.Ceil(float64(n) * testRatio))
	if nTest == 0 || nTest >= n {
		return nil, nil, fmt.Errorf("%w: cannot split %d samples with test ratio %v", ErrEmptyDataset, n, testRatio)
	}

	//nolint:gosec // reproducible split, not security sensitive
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return d.Subset(perm[nTest:]), d.Subset(perm[:nTest]), nil
}
