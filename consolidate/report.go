package consolidate

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const (
	reportMarkdownName = "consolidation_report.md"
	reportHTMLName     = "consolidation_report.html"
)

// writeReport emits the consolidation report as markdown plus an HTML
// rendering, so the run can be reviewed in a browser without tooling.
func writeReport(cfg Config, stats *Stats, now string) error {
	md := reportMarkdown(cfg, stats, now)

	mdPath := filepath.Join(cfg.Root, reportMarkdownName)
	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", mdPath, err)
	}

	renderer := goldmark.New(goldmark.WithExtensions(extension.Table))
	var html bytes.Buffer
	html.WriteString("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>Consolidation Report</title></head>\n<body>\n")
	if err := renderer.Convert([]byte(md), &html); err != nil {
		return fmt.Errorf("render report html: %w", err)
	}
	html.WriteString("</body>\n</html>\n")

	htmlPath := filepath.Join(cfg.Root, reportHTMLName)
	if err := os.WriteFile(htmlPath, html.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", htmlPath, err)
	}
	return nil
}

func reportMarkdown(cfg Config, stats *Stats, now string) string {
	var b strings.Builder
	b.WriteString("# Consolidation Report\n\n")
	fmt.Fprintf(&b, "Generated %s from **%s**.\n\n", now, cfg.Source)
	fmt.Fprintf(&b, "- Output file: `%s`\n", cfg.OutputPath)
	fmt.Fprintf(&b, "- Documents: %d\n", len(stats.Documents))
	fmt.Fprintf(&b, "- Characters: %d\n", stats.TotalChars)
	fmt.Fprintf(&b, "- Output size: %d bytes\n\n", stats.OutputBytes)
	b.WriteString("| # | Document | Characters |\n")
	b.WriteString("|---|----------|------------|\n")
	for i, doc := range stats.Documents {
		fmt.Fprintf(&b, "| %d | %s | %d |\n", i+1, doc.Name, doc.Chars)
	}
	return b.String()
}
