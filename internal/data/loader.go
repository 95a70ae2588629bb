package data

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/spamnet/internal/tensor"
)

// Batch is a mini-batch materialized as tensors.
type Batch[B tensor.Backend] struct {
	Features *tensor.Tensor[float32, B] // [size, input_dim]
	Labels   *tensor.Tensor[int32, B]   // [size]
	Size     int
}

// Loader yields mini-batches of a Dataset.
//
// Each call to Reset starts a new epoch: with shuffling enabled the sample
// order is a fresh permutation drawn from rng, otherwise the original order
// is kept. Every sample appears exactly once per epoch and the last batch
// holds the remainder when the dataset size is not a multiple of the batch
// size.
//
// Example:
//
//	loader, _ := data.NewLoader(ds, 64, true, rand.New(rand.NewSource(0)), backend)
//	for epoch := range epochs {
//	    loader.Reset()
//	    for batch, ok := loader.Next(); ok; batch, ok = loader.Next() {
//	        ...
//	    }
//	}
type Loader[B tensor.Backend] struct {
	ds        *Dataset
	batchSize int
	shuffle   bool
	rng       *rand.Rand
	backend   B

	order []int
	pos   int
}

// NewLoader creates a loader. rng is required only when shuffle is true.
func NewLoader[B tensor.Backend](ds *Dataset, batchSize int, shuffle bool, rng *rand.Rand, backend B) (*Loader[B], error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if ds.Len() == 0 {
		return nil, ErrEmptyDataset
	}
	if shuffle && rng == nil {
		return nil, fmt.Errorf("shuffling loader needs a random source")
	}

	l := &Loader[B]{
		ds:        ds,
		batchSize: batchSize,
		shuffle:   shuffle,
		rng:       rng,
		backend:   backend,
	}
	l.Reset()
	return l, nil
}

// Reset rewinds the loader to the start of a new epoch.
func (l *Loader[B]) Reset() {
	if l.shuffle {
		l.order = l.rng.Perm(l.ds.Len())
	} else {
		l.order = identity(l.ds.Len())
	}
	l.pos = 0
}

func identity(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// Next returns the next batch of the epoch, or false when it is exhausted.
func (l *Loader[B]) Next() (*Batch[B], bool) {
	if l.pos >= len(l.order) {
		return nil, false
	}
	end := min(l.pos+l.batchSize, len(l.order))
	indices := l.order[l.pos:end]
	l.pos = end

	return l.materialize(indices), true
}

func (l *Loader[B]) materialize(indices []int) *Batch[B] {
	size := len(indices)
	width := len(l.ds.Features[indices[0]])

	features := tensor.Zeros[float32](tensor.Shape{size, width}, l.backend)
	labels := tensor.Zeros[int32](tensor.Shape{size}, l.backend)
	featureData := features.Data()
	labelData := labels.Data()

	for i, idx := range indices {
		row := l.ds.Features[idx]
		if len(row) != width {
			panic(fmt.Sprintf("data: ragged feature rows (%d and %d); validate the dataset first", width, len(row)))
		}
		copy(featureData[i*width:(i+1)*width], row)
		labelData[i] = l.ds.Labels[idx]
	}

	return &Batch[B]{Features: features, Labels: labels, Size: size}
}

// Len returns the number of batches per epoch.
func (l *Loader[B]) Len() int {
	return (l.ds.Len() + l.batchSize - 1) / l.batchSize
}

// NumSamples returns the number of samples per epoch.
func (l *Loader[B]) NumSamples() int {
	return l.ds.Len()
}

// BatchSize returns the configured batch size.
func (l *Loader[B]) BatchSize() int {
	return l.batchSize
}
