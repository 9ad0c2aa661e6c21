package prepare

// SplitTokens partitions the token stream into contiguous training and
// validation subsequences. The split index is floor(n * ratio), matching
// the usual 90/10 character-level preparation: for very short streams this
// floors toward validation, so a single-token stream with ratio 0.9 yields
// an empty train side and the whole stream as validation.
//
// train and val are views into stream; their concatenation is the full
// stream in original order.
func SplitTokens(stream []int, ratio float64) (train, val []int, err error) {
	if !(ratio > 0 && ratio < 1) {
		return nil, nil, &InvalidRatioError{Ratio: ratio}
	}
	cut := int(float64(len(stream)) * ratio)
	return stream[:cut], stream[cut:], nil
}
