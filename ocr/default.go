package ocr

import (
	"context"
	"fmt"

	"github.com/jpruiz114/ocr-to-training-data/raster"
)

// RecognizePages converts rasterized pages to OCR inputs and invokes the
// provided engine. If the engine supports batch operation, it is used;
// otherwise pages are recognized sequentially.
func RecognizePages(ctx context.Context, engine Engine, doc string, pages []raster.Page, opts ...InputOption) ([]Result, error) {
	inputs := make([]Input, 0, len(pages))
	for _, page := range pages {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		in, err := InputFromPage(doc, page, opts...)
		if err != nil {
			return nil, fmt.Errorf("build input for page %d: %w", page.Index, err)
		}
		inputs = append(inputs, in)
	}
	if b, ok := engine.(BatchEngine); ok {
		return b.RecognizeBatch(ctx, inputs)
	}
	results := make([]Result, 0, len(inputs))
	for _, in := range inputs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		res, err := engine.Recognize(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("recognize %s: %w", in.ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// NoopEngine recognizes nothing. It stands in where recognition is skipped,
// for example when a document's embedded text layer is used instead.
type NoopEngine struct{}

func (NoopEngine) Name() string { return "noop" }

func (NoopEngine) Recognize(ctx context.Context, input Input) (Result, error) {
	return Result{InputID: input.ID}, nil
}
