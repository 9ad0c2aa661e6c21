// Package prepare turns a consolidated text corpus into character-level
// training artifacts: a deterministic vocabulary, a contiguous train/val
// split of the encoded token stream, flat binary shards, and the metadata
// needed to decode them again. Identical input and configuration always
// produce byte-identical artifacts.
package prepare

import (
	"fmt"
	"os"

	"github.com/jpruiz114/ocr-to-training-data/observability"
)

// DefaultOutputDir receives the artifacts unless overridden.
const DefaultOutputDir = "prepared_training_data"

// DefaultSplitRatio is the training share of the token stream.
const DefaultSplitRatio = 0.9

// Config controls a preparation run. The zero value plus InputPath is a
// usable configuration.
type Config struct {
	// InputPath is the consolidated UTF-8 text file.
	InputPath string
	// OutputDir receives the artifact set. Empty means DefaultOutputDir.
	OutputDir string
	// SplitRatio is the training share in (0, 1). Zero means
	// DefaultSplitRatio.
	SplitRatio float64
	// DataSource labels the corpus origin in metadata and the summary.
	DataSource string
	// Logger defaults to a nop.
	Logger observability.Logger
}

func (c Config) withDefaults() Config {
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.SplitRatio == 0 {
		c.SplitRatio = DefaultSplitRatio
	}
	if c.Logger == nil {
		c.Logger = observability.NopLogger{}
	}
	return c
}

// Result reports what a preparation run produced.
type Result struct {
	OutputDir   string
	VocabSize   int
	TotalTokens int
	TrainTokens int
	ValTokens   int
	TokenWidth  int
	TrainBytes  int
	ValBytes    int
}

// Run executes the full preparation pipeline: load corpus, build
// vocabulary, encode, split, serialize. On any error no artifacts are left
// in the output directory.
func Run(cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()

	data, err := os.ReadFile(cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", cfg.InputPath, err)
	}
	if len(data) == 0 {
		return nil, &EmptyCorpusError{Path: cfg.InputPath}
	}
	corpus := string(data)

	return Prepare(corpus, cfg)
}

// Prepare runs the pipeline on an in-memory corpus. Run is the file-based
// entry point; this one exists so callers holding the corpus already (and
// tests) can skip the read.
func Prepare(corpus string, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	if len(corpus) == 0 {
		return nil, &EmptyCorpusError{Path: cfg.InputPath}
	}

	vocab, err := BuildVocabulary(corpus)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Info("vocabulary built",
		observability.Int("corpus_chars", len([]rune(corpus))),
		observability.Int("vocab_size", vocab.Size()))

	stream, err := vocab.Encode(corpus)
	if err != nil {
		return nil, fmt.Errorf("encode corpus: %w", err)
	}

	train, val, err := SplitTokens(stream, cfg.SplitRatio)
	if err != nil {
		return nil, err
	}
	if len(train) == 0 || len(val) == 0 {
		cfg.Logger.Warn("one split side is empty",
			observability.Int("train_tokens", len(train)),
			observability.Int("val_tokens", len(val)),
			observability.Float64("ratio", cfg.SplitRatio))
	}

	width, err := tokenWidth(vocab.Size())
	if err != nil {
		return nil, err
	}

	res, err := writeArtifacts(cfg, corpus, vocab, train, val, width)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Info("preparation complete",
		observability.String("output", res.OutputDir),
		observability.Int("train_tokens", res.TrainTokens),
		observability.Int("val_tokens", res.ValTokens),
		observability.Int("vocab_size", res.VocabSize))
	return res, nil
}

func writeArtifacts(cfg Config, corpus string, vocab *Vocabulary, train, val []int, width int) (*Result, error) {
	trainData := encodeTokens(train, width)
	valData := encodeTokens(val, width)
	meta := buildMeta(vocab, width, train, val, cfg.SplitRatio, cfg.DataSource)

	metaData, err := marshalJSON(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	summary := []byte(summaryText(meta, corpus, vocab, len(trainData), len(valData)))

	manifest := Manifest{Artifacts: []ManifestEntry{
		{Name: TrainFileName, Bytes: int64(len(trainData)), Digest: digest(trainData)},
		{Name: ValFileName, Bytes: int64(len(valData)), Digest: digest(valData)},
		{Name: MetaFileName, Bytes: int64(len(metaData)), Digest: digest(metaData)},
		{Name: SummaryFileName, Bytes: int64(len(summary)), Digest: digest(summary)},
	}}
	manifestData, err := marshalJSON(manifest)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}

	w, err := newArtifactWriter(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	for _, artifact := range []struct {
		name string
		data []byte
	}{
		{TrainFileName, trainData},
		{ValFileName, valData},
		{MetaFileName, metaData},
		{SummaryFileName, summary},
		{ManifestFileName, manifestData},
	} {
		if err := w.write(artifact.name, artifact.data); err != nil {
			w.abort()
			return nil, err
		}
	}
	if err := w.commit(); err != nil {
		return nil, err
	}

	return &Result{
		OutputDir:   cfg.OutputDir,
		VocabSize:   vocab.Size(),
		TotalTokens: len(train) + len(val),
		TrainTokens: len(train),
		ValTokens:   len(val),
		TokenWidth:  width,
		TrainBytes:  len(trainData),
		ValBytes:    len(valData),
	}, nil
}
