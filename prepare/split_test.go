package prepare

import (
	"errors"
	"reflect"
	"testing"
)

func TestSplitTokensCompleteness(t *testing.T) {
	stream := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	for _, ratio := range []float64{0.1, 0.5, 0.9, 0.99} {
		train, val, err := SplitTokens(stream, ratio)
		if err != nil {
			t.Fatalf("SplitTokens(ratio=%v) error = %v", ratio, err)
		}
		if len(train)+len(val) != len(stream) {
			t.Fatalf("ratio %v: %d + %d != %d", ratio, len(train), len(val), len(stream))
		}
		joined := append(append([]int{}, train...), val...)
		if !reflect.DeepEqual(joined, stream) {
			t.Fatalf("ratio %v: concatenation does not restore the stream", ratio)
		}
	}
}

func TestSplitTokensBoundary(t *testing.T) {
	train, val, err := SplitTokens([]int{0, 1, 2, 3, 4, 5}, 2.0/3.0)
	if err != nil {
		t.Fatalf("SplitTokens() error = %v", err)
	}
	if len(train) != 4 || len(val) != 2 {
		t.Fatalf("split = %d/%d, want 4/2", len(train), len(val))
	}
}

// A single-token stream with ratio 0.9 floors to an empty train side; the
// whole stream lands in validation.
func TestSplitTokensSingleToken(t *testing.T) {
	train, val, err := SplitTokens([]int{0}, 0.9)
	if err != nil {
		t.Fatalf("SplitTokens() error = %v", err)
	}
	if len(train) != 0 {
		t.Fatalf("train length = %d, want 0", len(train))
	}
	if len(val) != 1 || val[0] != 0 {
		t.Fatalf("val = %v, want [0]", val)
	}
}

func TestSplitTokensInvalidRatio(t *testing.T) {
	for _, ratio := range []float64{0, 1, 1.5, -0.1} {
		_, _, err := SplitTokens([]int{0, 1}, ratio)
		var ratioErr *InvalidRatioError
		if !errors.As(err, &ratioErr) {
			t.Fatalf("ratio %v: expected InvalidRatioError, got %v", ratio, err)
		}
		if ratioErr.Ratio != ratio {
			t.Fatalf("error carries ratio %v, want %v", ratioErr.Ratio, ratio)
		}
	}
}

func TestSplitTokensDeterministic(t *testing.T) {
	stream := make([]int, 1001)
	for i := range stream {
		stream[i] = i % 7
	}
	t1, v1, err := SplitTokens(stream, 0.9)
	if err != nil {
		t.Fatalf("SplitTokens() error = %v", err)
	}
	t2, v2, err := SplitTokens(stream, 0.9)
	if err != nil {
		t.Fatalf("SplitTokens() error = %v", err)
	}
	if !reflect.DeepEqual(t1, t2) || !reflect.DeepEqual(v1, v2) {
		t.Fatalf("identical inputs produced different splits")
	}
	if len(t1) != 900 {
		t.Fatalf("train length = %d, want floor(1001*0.9) = 900", len(t1))
	}
}
