package main

import (
	"errors"
	"testing"

	"github.com/jpruiz114/ocr-to-training-data/prepare"
)

func TestValidateRatio(t *testing.T) {
	for _, ratio := range []float64{0.9, 2.0 / 3.0, 0.0001, 0.9999} {
		if err := validateRatio(ratio); err != nil {
			t.Fatalf("validateRatio(%v) = %v", ratio, err)
		}
	}
	for _, ratio := range []float64{0, 1, -0.1, 1.5} {
		err := validateRatio(ratio)
		var ratioErr *prepare.InvalidRatioError
		if !errors.As(err, &ratioErr) {
			t.Fatalf("validateRatio(%v) = %v, want InvalidRatioError", ratio, err)
		}
		if ratioErr.Ratio != ratio {
			t.Fatalf("error carries ratio %v, want %v", ratioErr.Ratio, ratio)
		}
	}
}
