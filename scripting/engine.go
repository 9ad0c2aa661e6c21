// Package scripting lets callers post-process extracted page text with user
// scripts, for example stripping running headers or fixing recurring OCR
// confusions, without recompiling the pipeline.
package scripting

import (
	"context"
)

// Engine represents a scripting engine (e.g., JavaScript).
type Engine interface {
	// Execute executes a script in the context of the current page.
	Execute(ctx context.Context, script string) (interface{}, error)

	// RegisterPage registers the page under transformation with the engine.
	RegisterPage(page PageProxy) error
}

// PageProxy exposes one extracted page to the scripting engine. It provides
// a controlled API for scripts to inspect and rewrite OCR output.
type PageProxy interface {
	// GetIndex returns the zero-based page index.
	GetIndex() int

	// GetDocument returns the name of the source document.
	GetDocument() string

	// GetText returns the current page text.
	GetText() string

	// SetText replaces the page text.
	SetText(text string)
}

// Transformer applies a script to a sequence of pages.
type Transformer struct {
	engine Engine
	script string
}

// NewTransformer wraps an engine and a script source.
func NewTransformer(engine Engine, script string) *Transformer {
	return &Transformer{engine: engine, script: script}
}

// Transform runs the script against the page and returns the resulting text.
// Scripts mutate via page.text; a non-null string return value also replaces
// the text, which keeps one-liners convenient.
func (t *Transformer) Transform(ctx context.Context, page PageProxy) (string, error) {
	if err := t.engine.RegisterPage(page); err != nil {
		return "", err
	}
	val, err := t.engine.Execute(ctx, t.script)
	if err != nil {
		return "", err
	}
	if s, ok := val.(string); ok {
		page.SetText(s)
	}
	return page.GetText(), nil
}

// TextPage is a plain value implementation of PageProxy.
type TextPage struct {
	Index    int
	Document string
	Text     string
}

func (p *TextPage) GetIndex() int       { return p.Index }
func (p *TextPage) GetDocument() string { return p.Document }
func (p *TextPage) GetText() string     { return p.Text }
func (p *TextPage) SetText(text string) { p.Text = text }
