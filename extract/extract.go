// Package extract turns PDF documents into per-page text files plus a
// combined per-document transcript, either through a PDF's embedded text
// layer or by rasterizing pages and running them through an OCR engine. Its
// on-disk layout (page_NNN.txt, complete_extracted_text.txt,
// extraction_summary.txt per document) is what the consolidation stage
// consumes.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jpruiz114/ocr-to-training-data/observability"
	"github.com/jpruiz114/ocr-to-training-data/ocr"
	"github.com/jpruiz114/ocr-to-training-data/raster"
	"github.com/jpruiz114/ocr-to-training-data/scripting"
)

const (
	// CombinedFileName is the per-document transcript file the
	// consolidation stage looks for.
	CombinedFileName = "complete_extracted_text.txt"
	summaryFileName  = "extraction_summary.txt"
)

// PageRasterizer renders a PDF into page images. *raster.Rasterizer is the
// production implementation.
type PageRasterizer interface {
	Pages(ctx context.Context, pdfPath string) ([]raster.Page, error)
}

// Config controls extraction.
type Config struct {
	// Engine recognizes rasterized pages. Required unless every input has
	// an embedded text layer and TryEmbedded is set.
	Engine ocr.Engine
	// Rasterizer renders pages for OCR. Nil means a default raster.New.
	Rasterizer PageRasterizer
	// OutputDir is the base directory; each document gets a subdirectory.
	// Empty means "ocr_output".
	OutputDir string
	// Languages are hints passed to the engine.
	Languages []string
	// Detailed requests the engine's document OCR mode where supported.
	Detailed bool
	// TryEmbedded extracts the PDF's own text layer first and skips OCR
	// entirely when one exists.
	TryEmbedded bool
	// Transformer optionally rewrites each page's text (OCR cleanup).
	Transformer *scripting.Transformer
	// Logger and Tracer default to nops.
	Logger observability.Logger
	Tracer observability.Tracer
}

func (c Config) withDefaults() Config {
	if c.OutputDir == "" {
		c.OutputDir = "ocr_output"
	}
	if c.Rasterizer == nil {
		c.Rasterizer = raster.New(raster.Config{Logger: c.Logger})
	}
	if c.Logger == nil {
		c.Logger = observability.NopLogger{}
	}
	if c.Tracer == nil {
		c.Tracer = observability.NopTracer()
	}
	return c
}

// PageText is the extracted text of one page.
type PageText struct {
	Index      int
	Text       string
	Words      int
	Confidence float64
}

// DocumentResult summarizes a processed document.
type DocumentResult struct {
	PDFPath    string
	OutputDir  string
	Pages      []PageText
	TotalChars int
	TotalWords int
	// MeanConfidence is the average page confidence in [0, 1]; zero when
	// the engine reports none or the text layer was used.
	MeanConfidence float64
	// Embedded is true when the text came from the PDF's text layer.
	Embedded bool
	Engine   string
	Duration time.Duration
}

// Extractor runs the per-document extraction pipeline.
type Extractor struct {
	cfg Config
}

// New constructs an Extractor.
func New(cfg Config) *Extractor {
	return &Extractor{cfg: cfg.withDefaults()}
}

// ProcessPDF extracts one document and writes its artifact directory.
func (e *Extractor) ProcessPDF(ctx context.Context, pdfPath string) (*DocumentResult, error) {
	ctx, span := e.cfg.Tracer.StartSpan(ctx, "extract.pdf")
	defer span.Finish()
	span.SetTag("pdf", pdfPath)

	start := time.Now()
	res := &DocumentResult{PDFPath: pdfPath}

	var texts []string
	if e.cfg.TryEmbedded {
		pages, err := embeddedPages(pdfPath)
		if err != nil {
			e.cfg.Logger.Warn("embedded text extraction failed, falling back to OCR",
				observability.String("pdf", pdfPath),
				observability.Error("err", err))
		} else if hasText(pages) {
			texts = pages
			res.Embedded = true
			res.Engine = "embedded"
		}
	}

	if texts == nil {
		if e.cfg.Engine == nil {
			return nil, fmt.Errorf("no OCR engine configured and %s has no embedded text", pdfPath)
		}
		ocrTexts, confidences, err := e.recognize(ctx, pdfPath)
		if err != nil {
			span.SetError(err)
			return nil, err
		}
		texts = ocrTexts
		res.Engine = e.cfg.Engine.Name()
		var sum float64
		for _, c := range confidences {
			sum += c
		}
		if len(confidences) > 0 {
			res.MeanConfidence = sum / float64(len(confidences))
		}
	}

	for i, text := range texts {
		if e.cfg.Transformer != nil {
			page := &scripting.TextPage{Index: i, Document: filepath.Base(pdfPath), Text: text}
			transformed, err := e.cfg.Transformer.Transform(ctx, page)
			if err != nil {
				return nil, fmt.Errorf("transform page %d of %s: %w", i+1, pdfPath, err)
			}
			text = transformed
		}
		pt := PageText{Index: i, Text: text, Words: len(strings.Fields(text))}
		res.Pages = append(res.Pages, pt)
		res.TotalChars += len([]rune(text))
		res.TotalWords += pt.Words
	}
	res.Duration = time.Since(start)

	outDir := filepath.Join(e.cfg.OutputDir, safeName(pdfPath))
	if err := e.writeArtifacts(outDir, res); err != nil {
		span.SetError(err)
		return nil, err
	}
	res.OutputDir = outDir

	e.cfg.Logger.Info("document extracted",
		observability.String("pdf", pdfPath),
		observability.String("engine", res.Engine),
		observability.Int("pages", len(res.Pages)),
		observability.Int("chars", res.TotalChars),
		observability.Int("words", res.TotalWords))
	return res, nil
}

// ProcessDirectory extracts every PDF in dir, sorted by file name.
func (e *Extractor) ProcessDirectory(ctx context.Context, dir string) ([]*DocumentResult, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no PDF files found in %s", dir)
	}
	sort.Strings(matches)
	results := make([]*DocumentResult, 0, len(matches))
	for i, pdfPath := range matches {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		e.cfg.Logger.Info("processing document",
			observability.String("pdf", pdfPath),
			observability.Int("n", i+1),
			observability.Int("total", len(matches)))
		res, err := e.ProcessPDF(ctx, pdfPath)
		if err != nil {
			return nil, fmt.Errorf("process %s: %w", pdfPath, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (e *Extractor) recognize(ctx context.Context, pdfPath string) ([]string, []float64, error) {
	pages, err := e.cfg.Rasterizer.Pages(ctx, pdfPath)
	if err != nil {
		return nil, nil, fmt.Errorf("rasterize %s: %w", pdfPath, err)
	}
	opts := []ocr.InputOption{}
	if len(e.cfg.Languages) > 0 {
		opts = append(opts, ocr.WithLanguages(e.cfg.Languages...))
	}
	if e.cfg.Detailed {
		opts = append(opts, ocr.WithDetailed())
	}
	results, err := ocr.RecognizePages(ctx, e.cfg.Engine, filepath.Base(pdfPath), pages, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("ocr %s: %w", pdfPath, err)
	}
	texts := make([]string, len(results))
	confidences := make([]float64, len(results))
	for i, r := range results {
		texts[i] = r.PlainText
		confidences[i] = r.Confidence
	}
	return texts, confidences, nil
}

func (e *Extractor) writeArtifacts(outDir string, res *DocumentResult) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", outDir, err)
	}

	var combined strings.Builder
	for _, page := range res.Pages {
		text := page.Text
		if text == "" {
			text = "No text detected"
		}
		pagePath := filepath.Join(outDir, fmt.Sprintf("page_%03d.txt", page.Index+1))
		if err := os.WriteFile(pagePath, []byte(text), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", pagePath, err)
		}
		fmt.Fprintf(&combined, "%s\nPAGE %d\n%s\n%s\n\n", separator, page.Index+1, separator, text)
	}

	combinedPath := filepath.Join(outDir, CombinedFileName)
	if err := os.WriteFile(combinedPath, []byte(combined.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", combinedPath, err)
	}

	summaryPath := filepath.Join(outDir, summaryFileName)
	if err := os.WriteFile(summaryPath, []byte(summaryText(res)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", summaryPath, err)
	}
	return nil
}

var separator = strings.Repeat("=", 60)

func summaryText(res *DocumentResult) string {
	var b strings.Builder
	b.WriteString("PDF Text Extraction Summary\n")
	b.WriteString("===========================\n")
	fmt.Fprintf(&b, "PDF file: %s\n", res.PDFPath)
	fmt.Fprintf(&b, "Engine: %s\n", res.Engine)
	fmt.Fprintf(&b, "Embedded text layer: %v\n\n", res.Embedded)
	b.WriteString("Statistics:\n")
	fmt.Fprintf(&b, "- Pages processed: %d\n", len(res.Pages))
	fmt.Fprintf(&b, "- Total characters: %d\n", res.TotalChars)
	fmt.Fprintf(&b, "- Total words: %d\n", res.TotalWords)
	if res.MeanConfidence > 0 {
		fmt.Fprintf(&b, "- Mean confidence: %.1f%%\n", res.MeanConfidence*100)
	}
	fmt.Fprintf(&b, "- Duration: %s\n\n", res.Duration.Round(time.Millisecond))
	b.WriteString("Files generated:\n")
	fmt.Fprintf(&b, "- Combined text: %s\n", CombinedFileName)
	fmt.Fprintf(&b, "- Individual pages: page_001.txt to page_%03d.txt\n", len(res.Pages))
	fmt.Fprintf(&b, "- This summary: %s\n", summaryFileName)
	return b.String()
}

// safeName converts a PDF path into a directory name, mirroring the layout
// the consolidation stage sorts on.
func safeName(pdfPath string) string {
	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	return strings.ReplaceAll(stem, " ", "_")
}
