package prepare

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Artifact names are fixed; consumers locate them by name inside the
// configured output directory.
const (
	TrainFileName    = "train.bin"
	ValFileName      = "val.bin"
	MetaFileName     = "meta.json"
	SummaryFileName  = "prepare_summary.txt"
	ManifestFileName = "manifest.json"
)

// Meta is the vocabulary record persisted alongside the binary shards. It
// carries everything needed to reconstruct text from token indices.
type Meta struct {
	VocabSize       int            `json:"vocab_size"`
	IndexToSymbol   []string       `json:"index_to_symbol"`
	SymbolToIndex   map[string]int `json:"symbol_to_index"`
	TokenWidthBytes int            `json:"token_width_bytes"`
	TotalTokens     int            `json:"total_tokens"`
	TrainTokens     int            `json:"train_tokens"`
	ValTokens       int            `json:"val_tokens"`
	SplitRatio      float64        `json:"split_ratio"`
	DataSource      string         `json:"data_source,omitempty"`
}

// ManifestEntry records one artifact's size and digest.
type ManifestEntry struct {
	Name   string `json:"name"`
	Bytes  int64  `json:"bytes"`
	Digest string `json:"blake2b_256"`
}

// Manifest lists every artifact with a BLAKE2b-256 digest, so byte-identical
// reruns can be verified without diffing the shards themselves.
type Manifest struct {
	Artifacts []ManifestEntry `json:"artifacts"`
}

// tokenWidth returns the fixed byte width that holds vocabSize-1 without
// truncation: 2 bytes up to 65536 symbols (what character-level training
// readers expect), 4 bytes up to 2^32.
func tokenWidth(vocabSize int) (int, error) {
	switch {
	case vocabSize <= 1<<16:
		return 2, nil
	case vocabSize <= 1<<32:
		return 4, nil
	default:
		return 0, &VocabularyTooLargeError{VocabSize: vocabSize}
	}
}

// encodeTokens packs token indices as little-endian fixed-width integers.
func encodeTokens(tokens []int, width int) []byte {
	out := make([]byte, 0, len(tokens)*width)
	var scratch [4]byte
	for _, tok := range tokens {
		switch width {
		case 2:
			binary.LittleEndian.PutUint16(scratch[:2], uint16(tok))
			out = append(out, scratch[:2]...)
		default:
			binary.LittleEndian.PutUint32(scratch[:4], uint32(tok))
			out = append(out, scratch[:4]...)
		}
	}
	return out
}

// DecodeTokens is the inverse of the shard encoding: it reads back a flat
// little-endian array of width-byte unsigned integers.
func DecodeTokens(data []byte, width int) ([]int, error) {
	if width != 2 && width != 4 {
		return nil, fmt.Errorf("unsupported token width %d", width)
	}
	if len(data)%width != 0 {
		return nil, fmt.Errorf("shard length %d is not a multiple of token width %d", len(data), width)
	}
	tokens := make([]int, 0, len(data)/width)
	for i := 0; i < len(data); i += width {
		if width == 2 {
			tokens = append(tokens, int(binary.LittleEndian.Uint16(data[i:])))
		} else {
			tokens = append(tokens, int(binary.LittleEndian.Uint32(data[i:])))
		}
	}
	return tokens, nil
}

// artifactWriter stages artifacts in a temporary directory and moves them
// into place only once every write has succeeded, so a failed run leaves the
// output directory untouched.
type artifactWriter struct {
	outDir  string
	staging string
	names   []string
}

func newArtifactWriter(outDir string) (*artifactWriter, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, &IOWriteError{Path: outDir, Err: err}
	}
	staging, err := os.MkdirTemp(outDir, ".staging-*")
	if err != nil {
		return nil, &IOWriteError{Path: outDir, Err: err}
	}
	return &artifactWriter{outDir: outDir, staging: staging}, nil
}

func (w *artifactWriter) write(name string, data []byte) error {
	path := filepath.Join(w.staging, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &IOWriteError{Path: filepath.Join(w.outDir, name), Err: err}
	}
	w.names = append(w.names, name)
	return nil
}

func (w *artifactWriter) commit() error {
	for i, name := range w.names {
		src := filepath.Join(w.staging, name)
		dst := filepath.Join(w.outDir, name)
		if err := os.Rename(src, dst); err != nil {
			for _, moved := range w.names[:i] {
				os.Remove(filepath.Join(w.outDir, moved))
			}
			w.abort()
			return &IOWriteError{Path: dst, Err: err}
		}
	}
	return os.RemoveAll(w.staging)
}

func (w *artifactWriter) abort() {
	os.RemoveAll(w.staging)
}

func digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func buildMeta(vocab *Vocabulary, width int, train, val []int, ratio float64, source string) Meta {
	symbols := vocab.Symbols()
	itos := make([]string, len(symbols))
	stoi := make(map[string]int, len(symbols))
	for i, r := range symbols {
		itos[i] = string(r)
		stoi[string(r)] = i
	}
	return Meta{
		VocabSize:       vocab.Size(),
		IndexToSymbol:   itos,
		SymbolToIndex:   stoi,
		TokenWidthBytes: width,
		TotalTokens:     len(train) + len(val),
		TrainTokens:     len(train),
		ValTokens:       len(val),
		SplitRatio:      ratio,
		DataSource:      source,
	}
}

func summaryText(meta Meta, corpus string, vocab *Vocabulary, trainBytes, valBytes int) string {
	total := meta.TotalTokens
	trainPct, valPct := 0.0, 0.0
	if total > 0 {
		trainPct = float64(meta.TrainTokens) / float64(total) * 100
		valPct = float64(meta.ValTokens) / float64(total) * 100
	}

	var b strings.Builder
	b.WriteString("TEXT PREPARATION SUMMARY\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	if meta.DataSource != "" {
		fmt.Fprintf(&b, "Data source: %s\n", meta.DataSource)
	}
	fmt.Fprintf(&b, "Total characters: %d\n", total)
	fmt.Fprintf(&b, "Unique characters (vocab): %d\n", meta.VocabSize)
	fmt.Fprintf(&b, "Token width: uint%d\n\n", meta.TokenWidthBytes*8)

	b.WriteString("TRAIN/VAL SPLIT:\n")
	b.WriteString(strings.Repeat("-", 20) + "\n")
	fmt.Fprintf(&b, "Split ratio: %.2f\n", meta.SplitRatio)
	fmt.Fprintf(&b, "Training tokens: %d (%.1f%%)\n", meta.TrainTokens, trainPct)
	fmt.Fprintf(&b, "Validation tokens: %d (%.1f%%)\n\n", meta.ValTokens, valPct)

	b.WriteString("OUTPUT FILES:\n")
	b.WriteString(strings.Repeat("-", 15) + "\n")
	fmt.Fprintf(&b, "- %s (%d bytes, %d tokens)\n", TrainFileName, trainBytes, meta.TrainTokens)
	fmt.Fprintf(&b, "- %s (%d bytes, %d tokens)\n", ValFileName, valBytes, meta.ValTokens)
	fmt.Fprintf(&b, "- %s (vocabulary and metadata)\n", MetaFileName)
	fmt.Fprintf(&b, "- %s (artifact digests)\n", ManifestFileName)
	fmt.Fprintf(&b, "- %s (this summary)\n\n", SummaryFileName)

	b.WriteString("VOCABULARY PREVIEW:\n")
	b.WriteString(strings.Repeat("-", 20) + "\n")
	fmt.Fprintf(&b, "Characters: %q\n\n", vocab.Preview())

	b.WriteString("SAMPLE ENCODING TEST:\n")
	b.WriteString(strings.Repeat("-", 22) + "\n")
	sample := strings.TrimSpace(firstRunes(corpus, 100))
	encoded, err := vocab.Encode(sample)
	if err != nil {
		fmt.Fprintf(&b, "Encode failed: %v\n", err)
		return b.String()
	}
	decoded, err := vocab.Decode(encoded)
	if err != nil {
		fmt.Fprintf(&b, "Decode failed: %v\n", err)
		return b.String()
	}
	fmt.Fprintf(&b, "Original:  %q\n", sample)
	fmt.Fprintf(&b, "Encoded:   %v (showing first %d tokens)\n", firstTokens(encoded, 20), min(len(encoded), 20))
	fmt.Fprintf(&b, "Decoded:   %q\n", decoded)
	fmt.Fprintf(&b, "Match:     %v\n", sample == decoded)
	return b.String()
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}

func firstTokens(tokens []int, n int) []int {
	if len(tokens) > n {
		return tokens[:n]
	}
	return tokens
}

func marshalJSON(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
