package prepare

import (
	"fmt"
	"sort"
	"strings"
)

// Vocabulary is a bijective mapping between the distinct characters of a
// corpus and dense integer indices [0, Size). Symbols are ordered by Unicode
// code point, so the same corpus always yields the same indices.
type Vocabulary struct {
	symbols []rune
	index   map[rune]int
}

// BuildVocabulary scans the corpus once and derives its character
// vocabulary. An empty corpus yields an EmptyCorpusError.
func BuildVocabulary(corpus string) (*Vocabulary, error) {
	if len(corpus) == 0 {
		return nil, &EmptyCorpusError{}
	}
	seen := make(map[rune]struct{})
	for _, r := range corpus {
		seen[r] = struct{}{}
	}
	symbols := make([]rune, 0, len(seen))
	for r := range seen {
		symbols = append(symbols, r)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })

	index := make(map[rune]int, len(symbols))
	for i, r := range symbols {
		index[r] = i
	}
	return &Vocabulary{symbols: symbols, index: index}, nil
}

// Size returns the number of distinct symbols.
func (v *Vocabulary) Size() int { return len(v.symbols) }

// Symbols returns the index-ordered symbol table as a copy.
func (v *Vocabulary) Symbols() []rune {
	return append([]rune(nil), v.symbols...)
}

// Preview returns the vocabulary's symbols joined into one string, in index
// order.
func (v *Vocabulary) Preview() string { return string(v.symbols) }

// Encode maps text to token indices. Every rune must be in the vocabulary;
// text drawn from the corpus the vocabulary was built on always is.
func (v *Vocabulary) Encode(text string) ([]int, error) {
	tokens := make([]int, 0, len(text))
	for _, r := range text {
		idx, ok := v.index[r]
		if !ok {
			return nil, fmt.Errorf("symbol %q not in vocabulary", r)
		}
		tokens = append(tokens, idx)
	}
	return tokens, nil
}

// Decode maps token indices back to text, inverting Encode exactly.
func (v *Vocabulary) Decode(tokens []int) (string, error) {
	var b strings.Builder
	for _, idx := range tokens {
		if idx < 0 || idx >= len(v.symbols) {
			return "", fmt.Errorf("token index %d outside vocabulary of size %d", idx, len(v.symbols))
		}
		b.WriteRune(v.symbols[idx])
	}
	return b.String(), nil
}
