package prepare

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "consolidated_extracted_text.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	return path
}

func readArtifact(t *testing.T, dir, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return data
}

// The "abcabc" scenario: 6 tokens, 3 symbols, 2/3 ratio splits 4/2.
func TestRunEndToEnd(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	res, err := Run(Config{
		InputPath:  writeCorpus(t, "abcabc"),
		OutputDir:  outDir,
		SplitRatio: 2.0 / 3.0,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.VocabSize != 3 || res.TotalTokens != 6 || res.TrainTokens != 4 || res.ValTokens != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.TokenWidth != 2 {
		t.Fatalf("token width = %d", res.TokenWidth)
	}

	trainData := readArtifact(t, outDir, TrainFileName)
	valData := readArtifact(t, outDir, ValFileName)
	if len(trainData) != 8 || len(valData) != 4 {
		t.Fatalf("shard sizes = %d/%d, want 8/4", len(trainData), len(valData))
	}

	train, err := DecodeTokens(trainData, res.TokenWidth)
	if err != nil {
		t.Fatalf("decode train: %v", err)
	}
	val, err := DecodeTokens(valData, res.TokenWidth)
	if err != nil {
		t.Fatalf("decode val: %v", err)
	}

	var meta Meta
	if err := json.Unmarshal(readArtifact(t, outDir, MetaFileName), &meta); err != nil {
		t.Fatalf("unmarshal meta: %v", err)
	}
	if meta.VocabSize != 3 || meta.TokenWidthBytes != 2 {
		t.Fatalf("unexpected meta: %+v", meta)
	}

	// End-to-end round trip: decode both shards via the persisted mapping
	// and concatenate to recover the original corpus.
	var b strings.Builder
	for _, tok := range append(append([]int{}, train...), val...) {
		b.WriteString(meta.IndexToSymbol[tok])
	}
	if b.String() != "abcabc" {
		t.Fatalf("decoded corpus = %q, want \"abcabc\"", b.String())
	}
}

func TestRunDeterministic(t *testing.T) {
	const corpus = "OCR output with enough variety: 0123456789, punctuation!"
	dirA := filepath.Join(t.TempDir(), "a")
	dirB := filepath.Join(t.TempDir(), "b")
	if _, err := Prepare(corpus, Config{OutputDir: dirA}); err != nil {
		t.Fatalf("first Prepare() error = %v", err)
	}
	if _, err := Prepare(corpus, Config{OutputDir: dirB}); err != nil {
		t.Fatalf("second Prepare() error = %v", err)
	}
	for _, name := range []string{TrainFileName, ValFileName, MetaFileName, ManifestFileName, SummaryFileName} {
		if !bytes.Equal(readArtifact(t, dirA, name), readArtifact(t, dirB, name)) {
			t.Fatalf("%s differs between identical runs", name)
		}
	}
}

func TestRunEmptyCorpusLeavesNoArtifacts(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	_, err := Run(Config{InputPath: writeCorpus(t, ""), OutputDir: outDir})
	var emptyErr *EmptyCorpusError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyCorpusError, got %v", err)
	}
	if _, statErr := os.Stat(outDir); !os.IsNotExist(statErr) {
		entries, _ := os.ReadDir(outDir)
		if len(entries) > 0 {
			t.Fatalf("artifacts left behind after failure: %v", entries)
		}
	}
}

func TestRunInvalidRatioLeavesNoArtifacts(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	_, err := Run(Config{InputPath: writeCorpus(t, "abc"), OutputDir: outDir, SplitRatio: 1.0})
	var ratioErr *InvalidRatioError
	if !errors.As(err, &ratioErr) {
		t.Fatalf("expected InvalidRatioError, got %v", err)
	}
	if ratioErr.Ratio != 1.0 {
		t.Fatalf("error carries ratio %v", ratioErr.Ratio)
	}
	if _, statErr := os.Stat(filepath.Join(outDir, TrainFileName)); statErr == nil {
		t.Fatalf("train.bin written despite invalid ratio")
	}
}

// A write failure after validation must surface as IOWriteError and leave
// no artifacts. Occupying the output path with a regular file makes the
// very first directory creation fail.
func TestRunWriteFailureSurfacesIOWriteError(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	if err := os.WriteFile(outDir, []byte("in the way"), 0o644); err != nil {
		t.Fatalf("occupy output path: %v", err)
	}

	_, err := Run(Config{InputPath: writeCorpus(t, "abcabc"), OutputDir: outDir})
	var writeErr *IOWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("Run() = %v, want IOWriteError", err)
	}
	if writeErr.Unwrap() == nil {
		t.Fatalf("IOWriteError should wrap the underlying failure")
	}

	info, statErr := os.Stat(outDir)
	if statErr != nil {
		t.Fatalf("stat output path: %v", statErr)
	}
	if info.IsDir() {
		t.Fatalf("output path was replaced by a directory")
	}
}

func TestRunMissingInput(t *testing.T) {
	if _, err := Run(Config{InputPath: filepath.Join(t.TempDir(), "missing.txt")}); err == nil {
		t.Fatalf("expected error for missing input file")
	}
}

// Input "a" with the default 0.9 ratio: the floor rule yields an empty
// train shard and a one-token validation shard.
func TestRunSingleCharacterCorpus(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	res, err := Run(Config{InputPath: writeCorpus(t, "a"), OutputDir: outDir})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.VocabSize != 1 || res.TotalTokens != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.TrainTokens != 0 || res.ValTokens != 1 {
		t.Fatalf("split = %d/%d, want 0/1", res.TrainTokens, res.ValTokens)
	}
	if len(readArtifact(t, outDir, TrainFileName)) != 0 {
		t.Fatalf("train shard should be empty")
	}
	if len(readArtifact(t, outDir, ValFileName)) != 2 {
		t.Fatalf("val shard should hold one uint16 token")
	}
}

func TestRunManifestMatchesArtifacts(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	if _, err := Run(Config{InputPath: writeCorpus(t, "manifest check corpus"), OutputDir: outDir}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(readArtifact(t, outDir, ManifestFileName), &manifest); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if len(manifest.Artifacts) != 4 {
		t.Fatalf("manifest lists %d artifacts", len(manifest.Artifacts))
	}
	for _, entry := range manifest.Artifacts {
		data := readArtifact(t, outDir, entry.Name)
		if int64(len(data)) != entry.Bytes {
			t.Fatalf("%s: size %d != manifest %d", entry.Name, len(data), entry.Bytes)
		}
		if digest(data) != entry.Digest {
			t.Fatalf("%s: digest mismatch", entry.Name)
		}
	}
}

func TestRunSummaryContents(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	if _, err := Run(Config{
		InputPath:  writeCorpus(t, "abcabc"),
		OutputDir:  outDir,
		SplitRatio: 2.0 / 3.0,
		DataSource: "unit test",
	}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	summary := string(readArtifact(t, outDir, SummaryFileName))
	for _, want := range []string{
		"Total characters: 6",
		"Unique characters (vocab): 3",
		"Training tokens: 4",
		"Validation tokens: 2",
		"Split ratio: 0.67",
		"Token width: uint16",
		"Data source: unit test",
		"Match:     true",
	} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestRunNoStagingLeftBehind(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	if _, err := Run(Config{InputPath: writeCorpus(t, "cleanup check"), OutputDir: outDir}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".staging-") {
			t.Fatalf("staging directory left behind: %s", e.Name())
		}
	}
	if len(entries) != 5 {
		t.Fatalf("expected exactly 5 artifacts, found %d", len(entries))
	}
}
