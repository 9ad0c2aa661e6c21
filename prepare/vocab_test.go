package prepare

import (
	"errors"
	"testing"
)

func TestBuildVocabularyEmptyCorpus(t *testing.T) {
	_, err := BuildVocabulary("")
	var emptyErr *EmptyCorpusError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyCorpusError, got %v", err)
	}
}

func TestBuildVocabularySingleSymbol(t *testing.T) {
	v, err := BuildVocabulary("aaaa")
	if err != nil {
		t.Fatalf("BuildVocabulary() error = %v", err)
	}
	if v.Size() != 1 {
		t.Fatalf("vocab size = %d, want 1", v.Size())
	}
	tokens, err := v.Encode("aaaa")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(tokens) != 4 {
		t.Fatalf("token stream length = %d, want 4", len(tokens))
	}
	for _, tok := range tokens {
		if tok != 0 {
			t.Fatalf("single-symbol vocab produced token %d", tok)
		}
	}
}

func TestVocabularyDensityAndOrder(t *testing.T) {
	v, err := BuildVocabulary("the quick brown fox")
	if err != nil {
		t.Fatalf("BuildVocabulary() error = %v", err)
	}
	symbols := v.Symbols()
	if len(symbols) != v.Size() {
		t.Fatalf("symbol table size mismatch")
	}
	seen := make(map[int]bool)
	for i, r := range symbols {
		if i > 0 && symbols[i-1] >= r {
			t.Fatalf("symbols not strictly ordered by code point at %d", i)
		}
		tokens, err := v.Encode(string(r))
		if err != nil {
			t.Fatalf("Encode(%q) error = %v", r, err)
		}
		if len(tokens) != 1 || tokens[0] != i {
			t.Fatalf("symbol %q maps to %v, want [%d]", r, tokens, i)
		}
		if seen[tokens[0]] {
			t.Fatalf("duplicate index %d", tokens[0])
		}
		seen[tokens[0]] = true
	}
	// Indices are exactly {0, ..., Size-1}.
	for i := 0; i < v.Size(); i++ {
		if !seen[i] {
			t.Fatalf("index %d missing from vocabulary", i)
		}
	}
}

func TestVocabularyDeterministic(t *testing.T) {
	const corpus = "OCR text, with punctuation & unicode: héllo"
	a, err := BuildVocabulary(corpus)
	if err != nil {
		t.Fatalf("BuildVocabulary() error = %v", err)
	}
	b, err := BuildVocabulary(corpus)
	if err != nil {
		t.Fatalf("BuildVocabulary() error = %v", err)
	}
	as, bs := a.Symbols(), b.Symbols()
	if string(as) != string(bs) {
		t.Fatalf("vocabularies differ across runs: %q vs %q", string(as), string(bs))
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []string{
		"abcabc",
		"a",
		"multi\nline\ttext with spaces",
		"unicode: ñandú, 日本語, emoji \U0001f600",
	}
	for _, corpus := range cases {
		v, err := BuildVocabulary(corpus)
		if err != nil {
			t.Fatalf("BuildVocabulary(%q) error = %v", corpus, err)
		}
		tokens, err := v.Encode(corpus)
		if err != nil {
			t.Fatalf("Encode(%q) error = %v", corpus, err)
		}
		if len(tokens) != len([]rune(corpus)) {
			t.Fatalf("stream length %d != corpus length %d", len(tokens), len([]rune(corpus)))
		}
		decoded, err := v.Decode(tokens)
		if err != nil {
			t.Fatalf("Decode error = %v", err)
		}
		if decoded != corpus {
			t.Fatalf("round trip failed: %q -> %q", corpus, decoded)
		}
	}
}

func TestEncodeUnknownSymbol(t *testing.T) {
	v, err := BuildVocabulary("abc")
	if err != nil {
		t.Fatalf("BuildVocabulary() error = %v", err)
	}
	if _, err := v.Encode("abd"); err == nil {
		t.Fatalf("expected error for out-of-vocabulary symbol")
	}
}

func TestDecodeOutOfRange(t *testing.T) {
	v, err := BuildVocabulary("ab")
	if err != nil {
		t.Fatalf("BuildVocabulary() error = %v", err)
	}
	if _, err := v.Decode([]int{0, 2}); err == nil {
		t.Fatalf("expected error for index outside vocabulary")
	}
	if _, err := v.Decode([]int{-1}); err == nil {
		t.Fatalf("expected error for negative index")
	}
}
