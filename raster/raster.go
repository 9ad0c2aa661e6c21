// Package raster converts PDF pages into encoded page images suitable for
// OCR submission. Rasterization is delegated to poppler's pdftoppm binary;
// decoded pages can be downscaled before re-encoding to keep remote OCR
// payloads small.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/image/draw"

	"github.com/jpruiz114/ocr-to-training-data/observability"
)

const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// Page is a single rasterized PDF page.
type Page struct {
	// Index is the zero-based page index within the source document.
	Index int
	// Data is the encoded image payload in Format.
	Data []byte
	// Format is FormatPNG or FormatJPEG.
	Format string
	// Width and Height are the pixel dimensions of the encoded image.
	Width  int
	Height int
	// DPI is the resolution the page was rendered at.
	DPI int
}

// Config controls rasterization.
type Config struct {
	// DPI is the render resolution. Zero means 300.
	DPI int
	// Format selects the encoded output format. Empty means FormatJPEG,
	// which keeps upload payloads small for remote engines.
	Format string
	// JPEGQuality applies when Format is FormatJPEG. Zero means 85.
	JPEGQuality int
	// MaxWidth downscales pages wider than this many pixels before
	// encoding. Zero disables scaling.
	MaxWidth int
	// Binary overrides the pdftoppm executable path.
	Binary string
	// Logger receives progress output. Nil means no logging.
	Logger observability.Logger
}

func (c Config) withDefaults() Config {
	if c.DPI <= 0 {
		c.DPI = 300
	}
	if c.Format == "" {
		c.Format = FormatJPEG
	}
	if c.JPEGQuality <= 0 {
		c.JPEGQuality = 85
	}
	if c.Binary == "" {
		c.Binary = "pdftoppm"
	}
	if c.Logger == nil {
		c.Logger = observability.NopLogger{}
	}
	return c
}

// Rasterizer renders PDF pages through pdftoppm.
type Rasterizer struct {
	cfg Config
}

// New constructs a Rasterizer with the given configuration.
func New(cfg Config) *Rasterizer {
	return &Rasterizer{cfg: cfg.withDefaults()}
}

// Available reports whether the pdftoppm binary can be found.
func (r *Rasterizer) Available() error {
	if _, err := exec.LookPath(r.cfg.Binary); err != nil {
		return fmt.Errorf("pdftoppm not found (install poppler-utils): %w", err)
	}
	return nil
}

// Pages rasterizes every page of the PDF at pdfPath.
func (r *Rasterizer) Pages(ctx context.Context, pdfPath string) ([]Page, error) {
	tmpDir, err := os.MkdirTemp("", "raster-*")
	if err != nil {
		return nil, fmt.Errorf("create raster temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", strconv.Itoa(r.cfg.DPI)}
	switch r.cfg.Format {
	case FormatJPEG:
		args = append(args, "-jpeg", "-jpegopt", fmt.Sprintf("quality=%d", r.cfg.JPEGQuality))
	default:
		args = append(args, "-png")
	}
	args = append(args, pdfPath, prefix)

	cmd := exec.CommandContext(ctx, r.cfg.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("pdftoppm %s: %s: %w", pdfPath, msg, err)
		}
		return nil, fmt.Errorf("pdftoppm %s: %w", pdfPath, err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return nil, fmt.Errorf("read raster temp dir: %w", err)
	}
	pages := make([]Page, 0, len(entries))
	for _, entry := range entries {
		idx, ok := pageNumber(entry.Name())
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(tmpDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read rendered page %s: %w", entry.Name(), err)
		}
		page, err := r.buildPage(idx-1, data)
		if err != nil {
			return nil, fmt.Errorf("page %d of %s: %w", idx, pdfPath, err)
		}
		pages = append(pages, page)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no pages for %s", pdfPath)
	}
	r.cfg.Logger.Info("rasterized pdf",
		observability.String("pdf", pdfPath),
		observability.Int("pages", len(pages)),
		observability.Int("dpi", r.cfg.DPI))
	return pages, nil
}

// pageNumber extracts the 1-based page number from a pdftoppm output
// name such as "page-03.png".
func pageNumber(name string) (int, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	i := strings.LastIndex(base, "-")
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(base[i+1:])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func (r *Rasterizer) buildPage(index int, data []byte) (Page, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Page{}, fmt.Errorf("decode image config: %w", err)
	}
	width, height := cfg.Width, cfg.Height

	if r.cfg.MaxWidth > 0 && width > r.cfg.MaxWidth {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return Page{}, fmt.Errorf("decode image: %w", err)
		}
		scaled := Downscale(img, r.cfg.MaxWidth)
		data, err = Encode(scaled, r.cfg.Format, r.cfg.JPEGQuality)
		if err != nil {
			return Page{}, err
		}
		width = scaled.Bounds().Dx()
		height = scaled.Bounds().Dy()
	}

	return Page{
		Index:  index,
		Data:   data,
		Format: r.cfg.Format,
		Width:  width,
		Height: height,
		DPI:    r.cfg.DPI,
	}, nil
}

// Downscale resizes img so its width does not exceed maxWidth, preserving
// the aspect ratio. Images already within bounds are returned unchanged.
func Downscale(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	height := b.Dy() * maxWidth / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// Encode serializes img in the given format.
func Encode(img image.Image, format string, jpegQuality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		if jpegQuality <= 0 {
			jpegQuality = 85
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	return buf.Bytes(), nil
}
