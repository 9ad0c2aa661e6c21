// Package ocr defines abstraction layers for plugging OCR engines (for
// example, Tesseract or the Google Cloud Vision API) into the extraction
// pipeline. The interfaces are intentionally small and transport-agnostic so
// engines can be backed by native libraries or remote APIs without leaking
// provider-specific concerns into callers.
package ocr
