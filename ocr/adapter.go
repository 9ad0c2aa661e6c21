package ocr

import (
	"fmt"

	"github.com/jpruiz114/ocr-to-training-data/raster"
)

// InputOption mutates an OCR input generated from a rasterized page.
type InputOption func(*Input)

// WithLanguages sets language hints on the OCR input.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

// WithRegion sets the recognition region on the OCR input.
func WithRegion(region Region) InputOption {
	return func(in *Input) {
		if region.IsEmpty() {
			in.Region = nil
			return
		}
		in.Region = &region
	}
}

// WithDPI overrides the DPI value on the OCR input.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithMetadata sets provider-specific metadata for the input.
func WithMetadata(metadata map[string]string) InputOption {
	return func(in *Input) {
		if len(metadata) == 0 {
			in.Metadata = nil
			return
		}
		in.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			in.Metadata[k] = v
		}
	}
}

// InputFromPage converts a rasterized page into an OCR input. The generated
// ID is stable for a page index within a document to simplify correlation
// with downstream results.
func InputFromPage(doc string, page raster.Page, opts ...InputOption) (Input, error) {
	var format ImageFormat
	switch page.Format {
	case raster.FormatPNG:
		format = ImageFormatPNG
	case raster.FormatJPEG:
		format = ImageFormatJPEG
	default:
		return Input{}, fmt.Errorf("unsupported page image format %q", page.Format)
	}
	if len(page.Data) == 0 {
		return Input{}, fmt.Errorf("page %d of %s has no image data", page.Index, doc)
	}
	in := Input{
		ID:        fmt.Sprintf("%s-page-%03d", doc, page.Index+1),
		Image:     page.Data,
		Format:    format,
		PageIndex: page.Index,
		DPI:       page.DPI,
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in, nil
}
