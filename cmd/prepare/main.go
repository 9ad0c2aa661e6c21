package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jpruiz114/ocr-to-training-data/consolidate"
	"github.com/jpruiz114/ocr-to-training-data/observability"
	"github.com/jpruiz114/ocr-to-training-data/prepare"
)

type options struct {
	input   string
	outDir  string
	ratio   float64
	source  string
	verbose bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "prepare: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "prepare: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: go run ./cmd/prepare [flags]\n")
		flag.PrintDefaults()
	}
	input := flag.String("in", filepath.Join("ocr_output", consolidate.OutputFileName), "Consolidated corpus file")
	outDir := flag.String("out", prepare.DefaultOutputDir, "Directory for the training artifacts")
	ratio := flag.Float64("ratio", prepare.DefaultSplitRatio, "Training share of the token stream, strictly between 0 and 1")
	source := flag.String("source", "OCR extracted text", "Label for the corpus origin in metadata")
	verbose := flag.Bool("v", false, "Log progress to stderr")
	flag.Parse()

	if flag.NArg() != 0 {
		flag.Usage()
		return options{}, fmt.Errorf("unexpected argument %q", flag.Arg(0))
	}
	opts.input = *input
	opts.outDir = *outDir
	opts.ratio = *ratio
	opts.source = *source
	opts.verbose = *verbose
	return opts, nil
}

// validateRatio rejects out-of-range ratios up front. prepare.Config treats
// a zero ratio as "use the default", so an explicit -ratio 0 would otherwise
// silently run with 0.9.
func validateRatio(ratio float64) error {
	if !(ratio > 0 && ratio < 1) {
		return &prepare.InvalidRatioError{Ratio: ratio}
	}
	return nil
}

func run(opts options) error {
	if err := validateRatio(opts.ratio); err != nil {
		return err
	}
	var logger observability.Logger = observability.NopLogger{}
	if opts.verbose {
		logger = observability.NewStdLogger(os.Stderr)
	}

	res, err := prepare.Run(prepare.Config{
		InputPath:  opts.input,
		OutputDir:  opts.outDir,
		SplitRatio: opts.ratio,
		DataSource: opts.source,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	fmt.Printf("vocab: %d symbols (uint%d tokens)\n", res.VocabSize, res.TokenWidth*8)
	fmt.Printf("train: %d tokens (%d bytes)\n", res.TrainTokens, res.TrainBytes)
	fmt.Printf("val:   %d tokens (%d bytes)\n", res.ValTokens, res.ValBytes)
	fmt.Printf("artifacts written to %s\n", res.OutputDir)
	return nil
}
