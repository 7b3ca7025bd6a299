package rse

// SegmentValue returns the value of a contiguous run of chunk scores under
// the irrelevant-chunk penalty p: sum(scores) - p*len(scores). Including a
// chunk only pays off when its relevance exceeds the penalty.
func SegmentValue(scores []float64, p float64) float64 {
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum - p*float64(len(scores))
}

// prefixSums returns sums where sums[i] holds the total of scores[:i], so any
// range value is an O(1) lookup.
func prefixSums(scores []float64) []float64 {
	sums := make([]float64, len(scores)+1)
	for i, s := range scores {
		sums[i+1] = sums[i] + s
	}
	return sums
}

// rangeValue is SegmentValue for [start, end) computed from prefix sums.
func rangeValue(sums []float64, start, end int, p float64) float64 {
	return sums[end] - sums[start] - p*float64(end-start)
}
