package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Corpus is a labelled text collection as read from disk.
type Corpus struct {
	Texts   []string
	Labels  []int32  // encoded labels, indexes into Classes
	Classes []string // original label values, sorted
}

// LoadCSV reads a CSV file with a header row and extracts the text and label
// columns by name. Quoted fields may span several lines.
//
// CSV Format:
//
//	text,spam
//	"Subject: naturally irresistible your corporate identity ...",1
//	"Subject: the stock trading gunslinger ...",0
func LoadCSV(path, textColumn, labelColumn string) (*Corpus, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file, textColumn, labelColumn)
}

// ReadCSV is LoadCSV for an arbitrary reader.
func ReadCSV(r io.Reader, textColumn, labelColumn string) (*Corpus, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("CSV file is empty or missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	textIdx, labelIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case textColumn:
			textIdx = i
		case labelColumn:
			labelIdx = i
		}
	}
	if textIdx < 0 || labelIdx < 0 {
		return nil, fmt.Errorf("CSV header %v lacks column %q or %q", header, textColumn, labelColumn)
	}

	var texts, rawLabels []string
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", row, err)
		}
		texts = append(texts, record[textIdx])
		rawLabels = append(rawLabels, strings.TrimSpace(record[labelIdx]))
	}
	if len(texts) == 0 {
		return nil, ErrEmptyDataset
	}

	labels, classes := EncodeLabels(rawLabels)
	return &Corpus{Texts: texts, Labels: labels, Classes: classes}, nil
}

// EncodeLabels maps each distinct label value to its rank among the sorted
// distinct values. Values that all parse as integers are ordered numerically,
// anything else lexicographically.
func EncodeLabels(values []string) (encoded []int32, classes []string) {
	seen := make(map[string]struct{})
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			classes = append(classes, v)
		}
	}

	if allIntegers(classes) {
		sort.Slice(classes, func(i, j int) bool {
			a, _ := strconv.ParseInt(classes[i], 10, 64)
			b, _ := strconv.ParseInt(classes[j], 10, 64)
			return a < b
		})
	} else {
		sort.Strings(classes)
	}

	index := make(map[string]int32, len(classes))
	for i, c := range classes {
		index[c] = int32(i) //nolint:gosec // class count is small
	}

	encoded = make([]int32, len(values))
	for i, v := range values {
		encoded[i] = index[v]
	}
	return encoded, classes
}

func allIntegers(values []string) bool {
	for _, v := range values {
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			return false
		}
	}
	return true
}
