package prepare

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestTokenWidthSelection(t *testing.T) {
	cases := []struct {
		vocabSize int
		want      int
	}{
		{1, 2},
		{256, 2},
		{1 << 16, 2},
		{1<<16 + 1, 4},
		{1 << 32, 4},
	}
	for _, c := range cases {
		got, err := tokenWidth(c.vocabSize)
		if err != nil {
			t.Fatalf("tokenWidth(%d) error = %v", c.vocabSize, err)
		}
		if got != c.want {
			t.Fatalf("tokenWidth(%d) = %d, want %d", c.vocabSize, got, c.want)
		}
	}
}

func TestTokenWidthTooLarge(t *testing.T) {
	_, err := tokenWidth(1<<32 + 1)
	var tooLarge *VocabularyTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected VocabularyTooLargeError, got %v", err)
	}
	if tooLarge.VocabSize != 1<<32+1 {
		t.Fatalf("error carries vocab size %d", tooLarge.VocabSize)
	}
}

func TestEncodeDecodeTokensUint16(t *testing.T) {
	tokens := []int{0, 1, 255, 65535}
	data := encodeTokens(tokens, 2)
	if len(data) != len(tokens)*2 {
		t.Fatalf("encoded length = %d", len(data))
	}
	// Little-endian layout, two bytes per token.
	if data[0] != 0 || data[1] != 0 || data[2] != 1 || data[3] != 0 {
		t.Fatalf("unexpected leading bytes: %v", data[:4])
	}
	if data[6] != 0xff || data[7] != 0xff {
		t.Fatalf("unexpected max-token bytes: %v", data[6:8])
	}
	back, err := DecodeTokens(data, 2)
	if err != nil {
		t.Fatalf("DecodeTokens() error = %v", err)
	}
	if !reflect.DeepEqual(back, tokens) {
		t.Fatalf("round trip = %v, want %v", back, tokens)
	}
}

func TestEncodeDecodeTokensUint32(t *testing.T) {
	tokens := []int{0, 70000, 1<<32 - 1}
	data := encodeTokens(tokens, 4)
	if len(data) != len(tokens)*4 {
		t.Fatalf("encoded length = %d", len(data))
	}
	back, err := DecodeTokens(data, 4)
	if err != nil {
		t.Fatalf("DecodeTokens() error = %v", err)
	}
	if !reflect.DeepEqual(back, tokens) {
		t.Fatalf("round trip = %v, want %v", back, tokens)
	}
}

func TestDecodeTokensErrors(t *testing.T) {
	if _, err := DecodeTokens([]byte{1, 2, 3}, 2); err == nil {
		t.Fatalf("expected error for truncated shard")
	}
	if _, err := DecodeTokens([]byte{1, 2}, 3); err == nil {
		t.Fatalf("expected error for unsupported width")
	}
}

func TestBuildMetaInverseMappings(t *testing.T) {
	vocab, err := BuildVocabulary("cba")
	if err != nil {
		t.Fatalf("BuildVocabulary() error = %v", err)
	}
	meta := buildMeta(vocab, 2, []int{0, 1}, []int{2}, 2.0/3.0, "test corpus")
	if meta.VocabSize != 3 {
		t.Fatalf("vocab size = %d", meta.VocabSize)
	}
	if !reflect.DeepEqual(meta.IndexToSymbol, []string{"a", "b", "c"}) {
		t.Fatalf("index_to_symbol = %v", meta.IndexToSymbol)
	}
	for i, sym := range meta.IndexToSymbol {
		if meta.SymbolToIndex[sym] != i {
			t.Fatalf("symbol_to_index[%q] = %d, want %d", sym, meta.SymbolToIndex[sym], i)
		}
	}
	if meta.TotalTokens != 3 || meta.TrainTokens != 2 || meta.ValTokens != 1 {
		t.Fatalf("token counts wrong: %+v", meta)
	}
}

func TestMetaJSONSurvivesNonPrintableSymbols(t *testing.T) {
	vocab, err := BuildVocabulary("a\n\x00é")
	if err != nil {
		t.Fatalf("BuildVocabulary() error = %v", err)
	}
	meta := buildMeta(vocab, 2, nil, nil, 0.9, "")
	data, err := marshalJSON(meta)
	if err != nil {
		t.Fatalf("marshalJSON() error = %v", err)
	}
	var back Meta
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(back.IndexToSymbol, meta.IndexToSymbol) {
		t.Fatalf("symbols corrupted by JSON: %q vs %q", back.IndexToSymbol, meta.IndexToSymbol)
	}
}

func TestDigestStable(t *testing.T) {
	a := digest([]byte("same bytes"))
	b := digest([]byte("same bytes"))
	if a != b {
		t.Fatalf("digest not stable: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("digest hex length = %d, want 64", len(a))
	}
	if a == digest([]byte("other bytes")) {
		t.Fatalf("distinct inputs share a digest")
	}
}

// A rename failing partway through commit must roll back the artifacts
// already moved and surface an IOWriteError.
func TestArtifactWriterCommitFailureRollsBack(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	w, err := newArtifactWriter(outDir)
	if err != nil {
		t.Fatalf("newArtifactWriter() error = %v", err)
	}
	if err := w.write("first.bin", []byte{1, 2}); err != nil {
		t.Fatalf("write first: %v", err)
	}
	if err := w.write("second.bin", []byte{3, 4}); err != nil {
		t.Fatalf("write second: %v", err)
	}
	if err := os.Remove(filepath.Join(w.staging, "second.bin")); err != nil {
		t.Fatalf("remove staged file: %v", err)
	}

	err = w.commit()
	var writeErr *IOWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("commit() = %v, want IOWriteError", err)
	}
	if writeErr.Unwrap() == nil {
		t.Fatalf("IOWriteError should wrap the rename failure")
	}

	entries, readErr := os.ReadDir(outDir)
	if readErr != nil {
		t.Fatalf("read output dir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("partial artifacts left after failed commit: %v", entries)
	}
}
