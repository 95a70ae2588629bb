package nn

import "fmt"

// ClassWeights computes inverse-frequency class weights:
//
//	w[c] = N / (numClasses * count(label == c))
//
// For two classes this is N / (2 * count(c)), giving the minority class
// proportionally more influence on the loss. A class with no samples would
// need an infinite weight and is reported as ErrDegenerateClass.
func ClassWeights(labels []int32, numClasses int) ([]float32, error) {
	if numClasses < 2 {
		return nil, fmt.Errorf("%w: num_classes=%d", ErrInvalidArchitecture, numClasses)
	}

	counts := make([]int, numClasses)
	for i, y := range labels {
		if y < 0 || int(y) >= numClasses {
			return nil, fmt.Errorf("%w: sample %d has label %d, want [0, %d)", ErrInvalidTarget, i, y, numClasses)
		}
		counts[y]++
	}

	weights := make([]float32, numClasses)
	for c, n := range counts {
		if n == 0 {
			return nil, fmt.Errorf("%w: class %d (of %d samples)", ErrDegenerateClass, c, len(labels))
		}
		weights[c] = float32(float64(len(labels)) / float64(numClasses*n))
	}
	return weights, nil
}
