// Package metrics scores classifier predictions against true labels.
package metrics

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned when predictions and labels cannot be compared.
var (
	ErrLabelMismatch = errors.New("predicted and actual label counts differ")
	ErrInvalidLabel  = errors.New("label out of range")
)

// PositiveClass is the class whose precision is reported as "the" precision
// of a binary classifier.
const PositiveClass = 1

// DefaultZeroDivision is the value returned by Precision, Recall and F1 when
// their denominator is zero.
const DefaultZeroDivision = 1.0

// ConfusionMatrix counts predictions indexed [actual][predicted].
type ConfusionMatrix struct {
	counts [][]int
}

// NewConfusionMatrix creates an empty numClasses × numClasses matrix.
func NewConfusionMatrix(numClasses int) *ConfusionMatrix {
	counts := make([][]int, numClasses)
	for i := range counts {
		counts[i] = make([]int, numClasses)
	}
	return &ConfusionMatrix{counts: counts}
}

// Update adds one observation per (predicted[i], actual[i]) pair.
// Nothing is recorded if any pair is invalid.
func (m *ConfusionMatrix) Update(predicted, actual []int32) error {
	if len(predicted) != len(actual) {
		return fmt.Errorf("%w: %d predictions, %d labels", ErrLabelMismatch, len(predicted), len(actual))
	}
	c := m.NumClasses()
	for i := range predicted {
		if predicted[i] < 0 || int(predicted[i]) >= c || actual[i] < 0 || int(actual[i]) >= c {
			return fmt.Errorf("%w: sample %d predicted %d actual %d, want [0, %d)",
				ErrInvalidLabel, i, predicted[i], actual[i], c)
		}
	}
	for i := range predicted {
		m.counts[actual[i]][predicted[i]]++
	}
	return nil
}

// NumClasses returns the matrix dimension.
func (m *ConfusionMatrix) NumClasses() int {
	return len(m.counts)
}

// At returns the number of samples of class actual predicted as predicted.
func (m *ConfusionMatrix) At(actual, predicted int) int {
	return m.counts[actual][predicted]
}

// Matrix returns a copy of the counts.
func (m *ConfusionMatrix) Matrix() [][]int {
	out := make([][]int, len(m.counts))
	for i, row := range m.counts {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// Total returns the number of recorded samples.
func (m *ConfusionMatrix) Total() int {
	var total int
	for _, row := range m.counts {
		for _, n := range row {
			total += n
		}
	}
	return total
}

// Support returns the number of samples whose true label is class.
func (m *ConfusionMatrix) Support(class int) int {
	var n int
	for _, v := range m.counts[class] {
		n += v
	}
	return n
}

func (m *ConfusionMatrix) predictedAs(class int) int {
	var n int
	for _, row := range m.counts {
		n += row[class]
	}
	return n
}

// Accuracy returns the fraction of samples on the diagonal, or 0 when the
// matrix is empty.
func (m *ConfusionMatrix) Accuracy() float64 {
	total := m.Total()
	if total == 0 {
		return 0
	}
	var correct int
	for i := range m.counts {
		correct += m.counts[i][i]
	}
	return float64(correct) / float64(total)
}

// Precision returns TP / (TP + FP) for class, or zeroDivision when the class
// was never predicted.
func (m *ConfusionMatrix) Precision(class int, zeroDivision float64) float64 {
	return ratio(m.counts[class][class], m.predictedAs(class), zeroDivision)
}

// Recall returns TP / (TP + FN) for class, or zeroDivision when the class has
// no samples.
func (m *ConfusionMatrix) Recall(class int, zeroDivision float64) float64 {
	return ratio(m.counts[class][class], m.Support(class), zeroDivision)
}

// F1 returns 2TP / (2TP + FP + FN), the harmonic mean of precision and
// recall, or zeroDivision when the class was neither present nor predicted.
func (m *ConfusionMatrix) F1(class int, zeroDivision float64) float64 {
	tp := m.counts[class][class]
	return ratio(2*tp, m.predictedAs(class)+m.Support(class), zeroDivision)
}

func ratio(num, den int, zeroDivision float64) float64 {
	if den == 0 {
		return zeroDivision
	}
	return float64(num) / float64(den)
}

// String renders the matrix. Binary matrices use the TN/FP/FN/TP layout:
//
//	Confusion Matrix:
//	                Predicted
//	                 0      1
//	Actual 0     TN: 850   FP: 22
//	       1     FN: 3     TP: 271
func (m *ConfusionMatrix) String() string {
	var b strings.Builder
	b.WriteString("Confusion Matrix:\n")

	if m.NumClasses() == 2 {
		b.WriteString("                Predicted\n")
		b.WriteString("                 0      1\n")
		fmt.Fprintf(&b, "Actual 0     TN: %-5d FP: %-5d\n", m.counts[0][0], m.counts[0][1])
		fmt.Fprintf(&b, "       1     FN: %-5d TP: %-5d\n", m.counts[1][0], m.counts[1][1])
		return b.String()
	}

	b.WriteString("actual\\predicted")
	for j := range m.counts {
		fmt.Fprintf(&b, " %6d", j)
	}
	b.WriteByte('\n')
	for i, row := range m.counts {
		fmt.Fprintf(&b, "%16d", i)
		for _, n := range row {
			fmt.Fprintf(&b, " %6d", n)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Accuracy is a convenience wrapper scoring a single pair of label slices.
func Accuracy(predicted, actual []int32, numClasses int) (float64, error) {
	m := NewConfusionMatrix(numClasses)
	if err := m.Update(predicted, actual); err != nil {
		return 0, err
	}
	return m.Accuracy(), nil
}

// Precision is a convenience wrapper returning the precision of class.
func Precision(predicted, actual []int32, numClasses, class int, zeroDivision float64) (float64, error) {
	m := NewConfusionMatrix(numClasses)
	if err := m.Update(predicted, actual); err != nil {
		return 0, err
	}
	return m.Precision(class, zeroDivision), nil
}
