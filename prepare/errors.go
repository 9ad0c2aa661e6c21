package prepare

import "fmt"

// EmptyCorpusError indicates the consolidated input held no text.
type EmptyCorpusError struct {
	// Path is the input file, empty when the corpus came from memory.
	Path string
}

func (e *EmptyCorpusError) Error() string {
	if e.Path == "" {
		return "corpus is empty"
	}
	return fmt.Sprintf("corpus %s is empty", e.Path)
}

// InvalidRatioError indicates a split ratio outside the open interval (0, 1).
type InvalidRatioError struct {
	Ratio float64
}

func (e *InvalidRatioError) Error() string {
	return fmt.Sprintf("split ratio %v must lie strictly between 0 and 1", e.Ratio)
}

// VocabularyTooLargeError indicates no supported token width can hold the
// vocabulary without truncation.
type VocabularyTooLargeError struct {
	VocabSize int
}

func (e *VocabularyTooLargeError) Error() string {
	return fmt.Sprintf("vocabulary of %d symbols exceeds the largest supported token width (uint32)", e.VocabSize)
}

// IOWriteError wraps a failed artifact write. The run aborts and no partial
// artifact set is left in the output directory.
type IOWriteError struct {
	Path string
	Err  error
}

func (e *IOWriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *IOWriteError) Unwrap() error { return e.Err }
