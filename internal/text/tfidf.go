package text

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/chewxy/math32"

	"github.com/born-ml/spamnet/internal/parallel"
)

// DefaultMaxFeatures is the vocabulary cap used by the spam pipeline.
const DefaultMaxFeatures = 5000

// Errors returned by TFIDF.
var (
	ErrNotFitted       = errors.New("tfidf: vectorizer is not fitted")
	ErrEmptyVocabulary = errors.New("tfidf: empty vocabulary; documents contain no terms")
)

// TFIDF is a term-frequency / inverse-document-frequency vectorizer.
//
// Fit keeps the MaxFeatures terms with the highest corpus-wide count (ties
// broken alphabetically) and assigns them columns in alphabetical order. The
// inverse document frequency is smoothed:
//
//	idf(t) = ln((1 + n) / (1 + df(t))) + 1
//
// Transform weights raw term counts by idf and scales each row to unit L2
// norm. Rows of documents without known terms stay all-zero.
type TFIDF struct {
	tokenizer   Tokenizer
	maxFeatures int
	parallel    parallel.Config

	vocab map[string]int
	terms []string
	idf   []float32
}

// NewTFIDF creates an unfitted vectorizer. maxFeatures <= 0 keeps every term.
func NewTFIDF(tokenizer Tokenizer, maxFeatures int) *TFIDF {
	cfg := parallel.DefaultConfig()
	cfg.MinChunkSize = 64
	return &TFIDF{
		tokenizer:   tokenizer,
		maxFeatures: maxFeatures,
		parallel:    cfg,
	}
}

// SetParallel overrides how documents are spread across goroutines.
func (v *TFIDF) SetParallel(cfg parallel.Config) {
	v.parallel = cfg
}

// Fit learns the vocabulary and idf weights from docs.
func (v *TFIDF) Fit(docs []string) error {
	tokenized, err := v.tokenizeAll(docs)
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	df := make(map[string]int)
	for _, terms := range tokenized {
		seen := make(map[string]struct{}, len(terms))
		for _, term := range terms {
			counts[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				df[term]++
			}
		}
	}
	if len(counts) == 0 {
		return ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if v.maxFeatures > 0 && len(terms) > v.maxFeatures {
		terms = terms[:v.maxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v.terms = terms
	v.vocab = make(map[string]int, len(terms))
	v.idf = make([]float32, len(terms))
	for i, term := range terms {
		v.vocab[term] = i
		v.idf[i] = float32(math.Log((1+n)/(1+float64(df[term]))) + 1)
	}
	return nil
}

// Transform maps docs to rows of VocabSize() features.
func (v *TFIDF) Transform(docs []string) ([][]float32, error) {
	if v.vocab == nil {
		return nil, ErrNotFitted
	}
	tokenized, err := v.tokenizeAll(docs)
	if err != nil {
		return nil, err
	}

	rows := make([][]float32, len(docs))
	parallel.For(len(docs), func(i int) {
		rows[i] = v.row(tokenized[i])
	}, v.parallel)
	return rows, nil
}

// FitTransform is Fit followed by Transform on the same documents.
func (v *TFIDF) FitTransform(docs []string) ([][]float32, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	return v.Transform(docs)
}

func (v *TFIDF) row(terms []string) []float32 {
	row := make([]float32, len(v.terms))
	for _, term := range terms {
		if j, ok := v.vocab[term]; ok {
			row[j]++
		}
	}

	var sumSq float32
	for j, count := range row {
		if count != 0 {
			row[j] = count * v.idf[j]
			sumSq += row[j] * row[j]
		}
	}
	if sumSq > 0 {
		inv := 1 / math32.Sqrt(sumSq)
		for j := range row {
			row[j] *= inv
		}
	}
	return row
}

func (v *TFIDF) tokenizeAll(docs []string) ([][]string, error) {
	tokenized := make([][]string, len(docs))
	errs := make([]error, len(docs))
	parallel.For(len(docs), func(i int) {
		tokenized[i], errs[i] = v.tokenizer.Tokenize(docs[i])
	}, v.parallel)

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
	}
	return tokenized, nil
}

// VocabSize returns the number of features produced by Transform.
func (v *TFIDF) VocabSize() int {
	return len(v.terms)
}

// Vocabulary returns the feature names in column order.
func (v *TFIDF) Vocabulary() []string {
	return append([]string(nil), v.terms...)
}

// IDF returns the learned inverse document frequencies in column order.
func (v *TFIDF) IDF() []float32 {
	return append([]float32(nil), v.idf...)
}
