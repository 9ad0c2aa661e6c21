// Package vision provides an OCR engine backed by the Google Cloud Vision
// API. It supports both standard text detection and the higher-quality
// document text detection mode, selected per input via ocr.WithDetailed.
//
// Authentication follows the usual Google Cloud conventions: a service
// account key via GOOGLE_APPLICATION_CREDENTIALS, application default
// credentials, or an explicit credentials file in Config.
package vision

import (
	"context"
	"fmt"
	"math"
	"strings"

	visionapi "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"github.com/jpruiz114/ocr-to-training-data/observability"
	"github.com/jpruiz114/ocr-to-training-data/ocr"
)

// maxBatchSize caps how many images go into one BatchAnnotateImages RPC.
const maxBatchSize = 16

// Config controls the Vision engine.
type Config struct {
	// CredentialsFile points at a service account JSON key. Empty means
	// application default credentials.
	CredentialsFile string
	// Endpoint overrides the Vision API endpoint, mainly for tests.
	Endpoint string
	// Logger receives per-call progress. Nil means no logging.
	Logger observability.Logger
}

// Engine implements ocr.Engine and ocr.BatchEngine against the Cloud Vision
// image annotation service.
type Engine struct {
	annotate func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)
	close    func() error
	logger   observability.Logger
}

// New dials the Vision API and returns a ready engine. Callers own the
// engine and must Close it.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	client, err := visionapi.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision client: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Engine{
		annotate: func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
			return client.BatchAnnotateImages(ctx, req)
		},
		close:  client.Close,
		logger: logger,
	}, nil
}

func (e *Engine) Name() string { return "google-vision" }

// Close releases the underlying API client.
func (e *Engine) Close() error { return e.close() }

// Verify performs a minimal annotation round-trip to confirm credentials and
// connectivity before a long batch run.
func (e *Engine) Verify(ctx context.Context) error {
	// 1x1 white PNG.
	probe := []byte{
		0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
		0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
		0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x62, 0xf8, 0xff, 0xff, 0x3f,
		0x00, 0x00, 0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00,
		0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
	}
	_, err := e.Recognize(ctx, ocr.Input{ID: "verify", Image: probe, Format: ocr.ImageFormatPNG})
	return err
}

// Recognize annotates a single image.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	results, err := e.RecognizeBatch(ctx, []ocr.Input{in})
	if err != nil {
		return ocr.Result{}, err
	}
	return results[0], nil
}

// RecognizeBatch annotates inputs in chunks of up to 16 images per RPC, the
// Vision API's per-request limit.
func (e *Engine) RecognizeBatch(ctx context.Context, inputs []ocr.Input) ([]ocr.Result, error) {
	results := make([]ocr.Result, 0, len(inputs))
	for start := 0; start < len(inputs); start += maxBatchSize {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		end := start + maxBatchSize
		if end > len(inputs) {
			end = len(inputs)
		}
		chunk := inputs[start:end]
		req := &visionpb.BatchAnnotateImagesRequest{
			Requests: make([]*visionpb.AnnotateImageRequest, 0, len(chunk)),
		}
		for i := range chunk {
			req.Requests = append(req.Requests, buildRequest(chunk[i]))
		}
		resp, err := e.annotate(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("vision batch annotate: %w", err)
		}
		if len(resp.Responses) != len(chunk) {
			return nil, fmt.Errorf("vision returned %d responses for %d inputs", len(resp.Responses), len(chunk))
		}
		for i, r := range resp.Responses {
			res, err := resultFromResponse(chunk[i], r)
			if err != nil {
				return nil, err
			}
			e.logger.Debug("vision page annotated",
				observability.String("input", chunk[i].ID),
				observability.Int("chars", len(res.PlainText)),
				observability.Float64("confidence", res.Confidence))
			results = append(results, res)
		}
	}
	return results, nil
}

func detailed(in ocr.Input) bool {
	return in.Metadata[ocr.MetadataDetailed] == "true"
}

func buildRequest(in ocr.Input) *visionpb.AnnotateImageRequest {
	featureType := visionpb.Feature_TEXT_DETECTION
	if detailed(in) {
		featureType = visionpb.Feature_DOCUMENT_TEXT_DETECTION
	}
	req := &visionpb.AnnotateImageRequest{
		Image:    &visionpb.Image{Content: in.Image},
		Features: []*visionpb.Feature{{Type: featureType}},
	}
	if len(in.Languages) > 0 {
		req.ImageContext = &visionpb.ImageContext{
			LanguageHints: append([]string(nil), in.Languages...),
		}
	}
	return req
}

func resultFromResponse(in ocr.Input, resp *visionpb.AnnotateImageResponse) (ocr.Result, error) {
	if apiErr := resp.GetError(); apiErr.GetCode() != 0 || apiErr.GetMessage() != "" {
		return ocr.Result{}, fmt.Errorf("vision annotate %s: rpc code %d: %s", in.ID, apiErr.GetCode(), apiErr.GetMessage())
	}
	res := ocr.Result{InputID: in.ID}

	if full := resp.GetFullTextAnnotation(); full != nil {
		res.PlainText = strings.TrimSpace(full.GetText())
		res.Blocks, res.Confidence = blocksFromAnnotation(full)
		res.Language = dominantLanguage(full)
		return res, nil
	}
	if annotations := resp.GetTextAnnotations(); len(annotations) > 0 {
		// The first annotation aggregates all detected text.
		res.PlainText = strings.TrimSpace(annotations[0].GetDescription())
		res.Language = annotations[0].GetLocale()
	}
	return res, nil
}

func blocksFromAnnotation(full *visionpb.TextAnnotation) ([]ocr.TextBlock, float64) {
	var blocks []ocr.TextBlock
	var confSum float64
	var wordCount int
	for _, page := range full.GetPages() {
		for _, block := range page.GetBlocks() {
			var tb ocr.TextBlock
			tb.Bounds = boundsFromPoly(block.GetBoundingBox())
			var blockConf float64
			var blockWords int
			for _, para := range block.GetParagraphs() {
				line := ocr.TextLine{Bounds: boundsFromPoly(para.GetBoundingBox())}
				var lineParts []string
				var lineConf float64
				for _, word := range para.GetWords() {
					var sb strings.Builder
					for _, sym := range word.GetSymbols() {
						sb.WriteString(sym.GetText())
					}
					conf := float64(word.GetConfidence())
					line.Words = append(line.Words, ocr.TextWord{
						Text:       sb.String(),
						Bounds:     boundsFromPoly(word.GetBoundingBox()),
						Confidence: conf,
					})
					lineParts = append(lineParts, sb.String())
					lineConf += conf
					blockConf += conf
					confSum += conf
					blockWords++
					wordCount++
				}
				line.Text = strings.Join(lineParts, " ")
				if n := len(line.Words); n > 0 {
					line.Confidence = lineConf / float64(n)
				}
				tb.Lines = append(tb.Lines, line)
			}
			var blockParts []string
			for _, l := range tb.Lines {
				blockParts = append(blockParts, l.Text)
			}
			tb.Text = strings.Join(blockParts, "\n")
			if blockWords > 0 {
				tb.Confidence = blockConf / float64(blockWords)
			}
			blocks = append(blocks, tb)
		}
	}
	if wordCount == 0 {
		return blocks, 0
	}
	return blocks, confSum / float64(wordCount)
}

func boundsFromPoly(poly *visionpb.BoundingPoly) ocr.Region {
	vertices := poly.GetVertices()
	if len(vertices) == 0 {
		return ocr.Region{}
	}
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for _, v := range vertices {
		x, y := float64(v.GetX()), float64(v.GetY())
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	return ocr.Region{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func dominantLanguage(full *visionpb.TextAnnotation) string {
	for _, page := range full.GetPages() {
		langs := page.GetProperty().GetDetectedLanguages()
		if len(langs) > 0 {
			return langs[0].GetLanguageCode()
		}
	}
	return ""
}
