package metrics

import (
	"fmt"
	"strconv"
	"strings"
)

// ClassScores are the per-class entries of a Report.
type ClassScores struct {
	Name      string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report is a per-class precision/recall/F1 summary with accuracy and
// macro- and support-weighted averages.
type Report struct {
	Classes     []ClassScores
	Accuracy    float64
	MacroAvg    ClassScores
	WeightedAvg ClassScores
	Total       int
}

// Report summarizes the matrix. names labels the classes in order; missing
// names default to the class index.
func (m *ConfusionMatrix) Report(zeroDivision float64, names ...string) *Report {
	c := m.NumClasses()
	r := &Report{
		Classes:     make([]ClassScores, c),
		Accuracy:    m.Accuracy(),
		Total:       m.Total(),
		MacroAvg:    ClassScores{Name: "macro avg", Support: m.Total()},
		WeightedAvg: ClassScores{Name: "weighted avg", Support: m.Total()},
	}

	for class := range c {
		name := strconv.Itoa(class)
		if class < len(names) {
			name = names[class]
		}
		s := ClassScores{
			Name:      name,
			Precision: m.Precision(class, zeroDivision),
			Recall:    m.Recall(class, zeroDivision),
			F1:        m.F1(class, zeroDivision),
			Support:   m.Support(class),
		}
		r.Classes[class] = s

		r.MacroAvg.Precision += s.Precision / float64(c)
		r.MacroAvg.Recall += s.Recall / float64(c)
		r.MacroAvg.F1 += s.F1 / float64(c)

		if r.Total > 0 {
			w := float64(s.Support) / float64(r.Total)
			r.WeightedAvg.Precision += w * s.Precision
			r.WeightedAvg.Recall += w * s.Recall
			r.WeightedAvg.F1 += w * s.F1
		}
	}
	return r
}

// String renders the report as a table with two decimals:
//
//	              precision    recall  f1-score   support
//
//	           0       0.99      0.97      0.98       872
//	           1       0.92      0.98      0.95       274
//
//	    accuracy                           0.97      1146
//	   macro avg       0.96      0.98      0.97      1146
//	weighted avg       0.97      0.97      0.97      1146
func (r *Report) String() string {
	width := len("weighted avg")
	for _, s := range r.Classes {
		width = max(width, len(s.Name))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s  %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")

	row := func(s ClassScores) {
		fmt.Fprintf(&b, "%*s  %9.2f %9.2f %9.2f %9d\n", width, s.Name, s.Precision, s.Recall, s.F1, s.Support)
	}
	for _, s := range r.Classes {
		row(s)
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "%*s  %9s %9s %9.2f %9d\n", width, "accuracy", "", "", r.Accuracy, r.Total)
	row(r.MacroAvg)
	row(r.WeightedAvg)
	return b.String()
}
