package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jpruiz114/ocr-to-training-data/consolidate"
	"github.com/jpruiz114/ocr-to-training-data/observability"
)

type options struct {
	root    string
	outPath string
	source  string
	verbose bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "consolidate: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "consolidate: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: go run ./cmd/consolidate [flags]\n")
		flag.PrintDefaults()
	}
	root := flag.String("dir", "ocr_output", "Extraction output directory holding one subdirectory per document")
	out := flag.String("out", "", "Consolidated corpus path (default: <dir>/consolidated_extracted_text.txt)")
	source := flag.String("source", "", "Label for where the text came from, used in headers and reports")
	verbose := flag.Bool("v", false, "Log progress to stderr")
	flag.Parse()

	if flag.NArg() != 0 {
		flag.Usage()
		return options{}, fmt.Errorf("unexpected argument %q", flag.Arg(0))
	}
	opts.root = *root
	opts.outPath = *out
	opts.source = *source
	opts.verbose = *verbose
	return opts, nil
}

func run(opts options) error {
	var logger observability.Logger = observability.NopLogger{}
	if opts.verbose {
		logger = observability.NewStdLogger(os.Stderr)
	}

	stats, err := consolidate.Run(consolidate.Config{
		Root:       opts.root,
		OutputPath: opts.outPath,
		Source:     opts.source,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	for i, doc := range stats.Documents {
		fmt.Printf("%d. %s: %d chars\n", i+1, doc.Name, doc.Chars)
	}
	fmt.Printf("consolidated %d documents, %d chars -> %s (%d bytes)\n",
		len(stats.Documents), stats.TotalChars, stats.OutputPath, stats.OutputBytes)
	return nil
}
