// Package consolidate merges the per-document transcripts produced by the
// extract stage into a single corpus file, with per-document separators and
// a summary of what went in. The consolidated file is the input to the
// prepare stage.
package consolidate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jpruiz114/ocr-to-training-data/observability"
)

const (
	// CombinedFileName is the per-document transcript each subdirectory
	// must contain to participate in consolidation.
	CombinedFileName = "complete_extracted_text.txt"
	// OutputFileName is the consolidated corpus file.
	OutputFileName = "consolidated_extracted_text.txt"

	summaryFileName = "consolidation_summary.txt"
)

// Config controls consolidation.
type Config struct {
	// Root is the extraction output directory holding one subdirectory per
	// document. Empty means "ocr_output".
	Root string
	// OutputPath overrides where the consolidated file is written. Empty
	// means Root/consolidated_extracted_text.txt.
	OutputPath string
	// Source labels where the text came from in headers and reports.
	Source string
	// Logger defaults to a nop.
	Logger observability.Logger
	// Now supplies timestamps; overridable for reproducible tests.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Root == "" {
		c.Root = "ocr_output"
	}
	if c.OutputPath == "" {
		c.OutputPath = filepath.Join(c.Root, OutputFileName)
	}
	if c.Source == "" {
		c.Source = "PDF text extraction"
	}
	if c.Logger == nil {
		c.Logger = observability.NopLogger{}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Document is one per-document transcript found under Root.
type Document struct {
	// Name is the subdirectory name; documents are consolidated in
	// ascending Name order so reruns are stable.
	Name string
	// Path is the transcript file location.
	Path string
	// Chars counts the characters contributed after trimming.
	Chars int
}

// Stats reports what a consolidation run produced.
type Stats struct {
	Documents  []Document
	TotalChars int
	OutputPath string
	// OutputBytes is the size of the consolidated file.
	OutputBytes int64
}

// FindDocuments locates every per-document transcript under root, sorted by
// directory name.
func FindDocuments(root string) ([]Document, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read extraction root %s: %w", root, err)
	}
	var docs []Document
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name(), CombinedFileName)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		docs = append(docs, Document{Name: entry.Name(), Path: path})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// Run consolidates every discovered document and writes the corpus file, the
// consolidation summary, and the markdown/HTML report.
func Run(cfg Config) (*Stats, error) {
	cfg = cfg.withDefaults()

	docs, err := FindDocuments(cfg.Root)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no %s files found under %s", CombinedFileName, cfg.Root)
	}

	stats := &Stats{OutputPath: cfg.OutputPath}
	line := strings.Repeat("=", 80)
	now := cfg.Now().Format("2006-01-02 15:04:05")

	var out strings.Builder
	fmt.Fprintf(&out, "%s\nCONSOLIDATED EXTRACTED TEXT\n%s\n", line, line)
	fmt.Fprintf(&out, "Generated: %s\n", now)
	fmt.Fprintf(&out, "Source: %s\n", cfg.Source)
	fmt.Fprintf(&out, "Total documents: %d\n%s\n\n", len(docs), line)

	for i := range docs {
		raw, err := os.ReadFile(docs[i].Path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", docs[i].Path, err)
		}
		content := strings.TrimSpace(string(raw))
		if content == "" {
			content = "[No text content found]"
		}
		docs[i].Chars = len([]rune(content))
		stats.TotalChars += docs[i].Chars

		fmt.Fprintf(&out, "%s\nDOCUMENT %d: %s\n%s\n", line, i+1, docs[i].Name, line)
		fmt.Fprintf(&out, "Source file: %s\n", docs[i].Path)
		fmt.Fprintf(&out, "Characters: %d\n%s\n\n", docs[i].Chars, line)
		out.WriteString(content)
		out.WriteString("\n\n")

		cfg.Logger.Debug("consolidated document",
			observability.String("name", docs[i].Name),
			observability.Int("chars", docs[i].Chars))
	}

	fmt.Fprintf(&out, "%s\nCONSOLIDATION COMPLETE\n%s\n", line, line)
	fmt.Fprintf(&out, "Total documents processed: %d\n", len(docs))
	fmt.Fprintf(&out, "Total characters: %d\n", stats.TotalChars)
	fmt.Fprintf(&out, "Generated: %s\n%s\n", now, line)

	if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(cfg.OutputPath, []byte(out.String()), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", cfg.OutputPath, err)
	}
	info, err := os.Stat(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", cfg.OutputPath, err)
	}
	stats.Documents = docs
	stats.OutputBytes = info.Size()

	if err := writeSummary(cfg, stats, now); err != nil {
		return nil, err
	}
	if err := writeReport(cfg, stats, now); err != nil {
		return nil, err
	}

	cfg.Logger.Info("consolidation complete",
		observability.String("output", cfg.OutputPath),
		observability.Int("documents", len(docs)),
		observability.Int("chars", stats.TotalChars),
		observability.Int64("bytes", stats.OutputBytes))
	return stats, nil
}

func writeSummary(cfg Config, stats *Stats, now string) error {
	var b strings.Builder
	b.WriteString("CONSOLIDATION SUMMARY REPORT\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", now)
	fmt.Fprintf(&b, "Output file: %s\n", cfg.OutputPath)
	fmt.Fprintf(&b, "Total documents: %d\n", len(stats.Documents))
	fmt.Fprintf(&b, "Total characters: %d\n\n", stats.TotalChars)
	b.WriteString("PROCESSED DOCUMENTS:\n")
	b.WriteString(strings.Repeat("-", 30) + "\n")
	for i, doc := range stats.Documents {
		fmt.Fprintf(&b, "%2d. %s\n", i+1, doc.Name)
		fmt.Fprintf(&b, "    File: %s\n", doc.Path)
		fmt.Fprintf(&b, "    Characters: %d\n\n", doc.Chars)
	}
	path := filepath.Join(cfg.Root, summaryFileName)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
