// Package text turns raw documents into the fixed-width TF-IDF feature rows
// the classifier consumes.
package text

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer splits a document into terms.
// Implementations must be safe for concurrent use.
type Tokenizer interface {
	Tokenize(doc string) ([]string, error)
	Name() string
}

// wordPattern matches runs of two or more word characters.
const wordPattern = `\b\w\w+\b`

// WordTokenizer lowercases a document and extracts every run of two or more
// word characters. Word characters follow Unicode categories, so accented
// letters and non-Latin scripts form words.
type WordTokenizer struct {
	re *regexp2.Regexp
}

// NewWordTokenizer creates the default tokenizer.
func NewWordTokenizer() *WordTokenizer {
	return &WordTokenizer{re: regexp2.MustCompile(wordPattern, regexp2.None)}
}

// Tokenize returns the lowercased terms of doc in order of appearance.
func (w *WordTokenizer) Tokenize(doc string) ([]string, error) {
	var terms []string
	m, err := w.re.FindStringMatch(strings.ToLower(doc))
	for ; m != nil && err == nil; m, err = w.re.FindNextMatch(m) {
		terms = append(terms, m.String())
	}
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	return terms, nil
}

// Name returns "word".
func (w *WordTokenizer) Name() string {
	return "word"
}

// BPETokenizer uses a tiktoken byte-pair encoding and emits each decoded
// piece as a term, lowercased and stripped of surrounding whitespace.
//
// Supported encodings: "cl100k_base" (GPT-4), "p50k_base", "r50k_base".
type BPETokenizer struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewBPETokenizer loads the named tiktoken encoding.
func NewBPETokenizer(encodingName string) (*BPETokenizer, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}
	return &BPETokenizer{encoding: encoding, name: encodingName}, nil
}

// Tokenize encodes doc and returns the non-blank pieces.
func (b *BPETokenizer) Tokenize(doc string) ([]string, error) {
	ids := b.encoding.Encode(doc, nil, nil)

	terms := make([]string, 0, len(ids))
	for _, id := range ids {
		piece := strings.ToLower(strings.TrimSpace(b.encoding.Decode([]int{id})))
		if piece != "" {
			terms = append(terms, piece)
		}
	}
	return terms, nil
}

// Name returns "bpe:" followed by the encoding name.
func (b *BPETokenizer) Name() string {
	return "bpe:" + b.name
}

// NewTokenizer builds a tokenizer by kind: "word" (default) or "bpe".
func NewTokenizer(kind, bpeEncoding string) (Tokenizer, error) {
	switch kind {
	case "word", "":
		return NewWordTokenizer(), nil
	case "bpe":
		return NewBPETokenizer(bpeEncoding)
	default:
		return nil, fmt.Errorf("unknown tokenizer %q (want word or bpe)", kind)
	}
}
