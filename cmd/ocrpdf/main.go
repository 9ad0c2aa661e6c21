package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jpruiz114/ocr-to-training-data/extract"
	"github.com/jpruiz114/ocr-to-training-data/observability"
	"github.com/jpruiz114/ocr-to-training-data/ocr"
	"github.com/jpruiz114/ocr-to-training-data/ocr/tesseract"
	"github.com/jpruiz114/ocr-to-training-data/ocr/vision"
	"github.com/jpruiz114/ocr-to-training-data/raster"
	"github.com/jpruiz114/ocr-to-training-data/scripting"
)

type options struct {
	input       string
	outDir      string
	engine      string
	credentials string
	languages   []string
	detailed    bool
	dpi         int
	maxWidth    int
	embedded    bool
	scriptPath  string
	batch       bool
	testOnly    bool
	verbose     bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ocrpdf: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "ocrpdf: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: go run ./cmd/ocrpdf [flags] <pdf-or-directory>\n")
		flag.PrintDefaults()
	}
	outDir := flag.String("out", "ocr_output", "Directory for per-document extraction artifacts")
	engine := flag.String("engine", "vision", "OCR engine: vision or tesseract")
	credentials := flag.String("credentials", "", "Service account JSON key for the Vision engine (default: application default credentials)")
	langs := flag.String("langs", "en", "Comma-separated language hints for the engine")
	detailed := flag.Bool("detailed", false, "Use document-level OCR (dense text, handwriting)")
	dpi := flag.Int("dpi", 300, "Rasterization resolution")
	maxWidth := flag.Int("max-width", 0, "Downscale rendered pages wider than this many pixels (0 disables)")
	embedded := flag.Bool("embedded", false, "Use the PDF's embedded text layer when present and skip OCR")
	script := flag.String("script", "", "JavaScript file applied to each page's text before writing")
	batch := flag.Bool("batch", false, "Treat the argument as a directory and process every PDF in it")
	testOnly := flag.Bool("test", false, "Verify engine connectivity and exit")
	verbose := flag.Bool("v", false, "Log progress to stderr")
	flag.Parse()

	if flag.NArg() != 1 && !*testOnly {
		flag.Usage()
		return options{}, fmt.Errorf("missing pdf path")
	}
	if flag.NArg() == 1 {
		opts.input = flag.Arg(0)
	}
	opts.outDir = *outDir
	opts.engine = *engine
	opts.credentials = *credentials
	opts.detailed = *detailed
	opts.dpi = *dpi
	opts.maxWidth = *maxWidth
	opts.embedded = *embedded
	opts.scriptPath = *script
	opts.batch = *batch
	opts.testOnly = *testOnly
	opts.verbose = *verbose
	for _, lang := range strings.Split(*langs, ",") {
		if lang = strings.TrimSpace(lang); lang != "" {
			opts.languages = append(opts.languages, lang)
		}
	}
	return opts, nil
}

func run(opts options) error {
	ctx := context.Background()

	var logger observability.Logger = observability.NopLogger{}
	if opts.verbose {
		logger = observability.NewStdLogger(os.Stderr)
	}

	engine, cleanup, err := buildEngine(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if opts.testOnly {
		if v, ok := engine.(*vision.Engine); ok {
			if err := v.Verify(ctx); err != nil {
				return fmt.Errorf("engine check failed: %w", err)
			}
		}
		fmt.Printf("%s engine ready\n", engine.Name())
		return nil
	}

	var transformer *scripting.Transformer
	if opts.scriptPath != "" {
		src, err := os.ReadFile(opts.scriptPath)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		transformer = scripting.NewTransformer(scripting.NewEngine(), string(src))
	}

	ext := extract.New(extract.Config{
		Engine: engine,
		Rasterizer: raster.New(raster.Config{
			DPI:      opts.dpi,
			MaxWidth: opts.maxWidth,
			Logger:   logger,
		}),
		OutputDir:   opts.outDir,
		Languages:   opts.languages,
		Detailed:    opts.detailed,
		TryEmbedded: opts.embedded,
		Transformer: transformer,
		Logger:      logger,
	})

	var results []*extract.DocumentResult
	if opts.batch {
		results, err = ext.ProcessDirectory(ctx, opts.input)
	} else {
		var res *extract.DocumentResult
		res, err = ext.ProcessPDF(ctx, opts.input)
		if res != nil {
			results = append(results, res)
		}
	}
	if err != nil {
		return err
	}

	for _, res := range results {
		source := res.Engine
		if res.Embedded {
			source = "embedded text layer"
		}
		fmt.Printf("%s: %d pages, %d chars, %d words via %s -> %s\n",
			res.PDFPath, len(res.Pages), res.TotalChars, res.TotalWords, source, res.OutputDir)
	}
	return nil
}

func buildEngine(ctx context.Context, opts options, logger observability.Logger) (ocr.Engine, func(), error) {
	switch opts.engine {
	case "vision":
		eng, err := vision.New(ctx, vision.Config{
			CredentialsFile: opts.credentials,
			Logger:          logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create vision engine: %w", err)
		}
		return eng, func() { eng.Close() }, nil
	case "tesseract":
		return tesseract.New(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown engine %q (want vision or tesseract)", opts.engine)
	}
}
