package rse

import (
	"sort"
	"sync"
)

// DocumentScores carries the per-chunk relevance signal for one document.
// Scores are index-aligned with the document's chunk order. The order of
// documents passed to SelectSegments is significant: it is the tie-break
// order for the cross-document merge.
type DocumentScores struct {
	DocID  string
	Scores []float64
}

// Segment is a selected contiguous chunk range [Start, End) within one
// document, with its value under the penalty in effect.
type Segment struct {
	DocID string
	Start int
	End   int
	Value float64
}

// Length returns the number of chunks the segment spans.
func (s Segment) Length() int { return s.End - s.Start }

// SelectSegments returns the best non-overlapping segments across all
// documents under the configured budgets.
//
// Within each document the selection is exact: a weighted-interval DP over
// every qualifying range, with a second state dimension tracking chunks used
// so MaxTotalLength holds. Across documents the per-document results are
// merged greedily by value, which approximates joint optimality but does not
// guarantee it. Segments come back in descending value order; ties go to the
// earlier document in docs order, then to the lower start index, so identical
// inputs always produce identical output.
//
// An empty result is not an error: it means nothing scored above the floor.
func SelectSegments(docs []DocumentScores, params Params) ([]Segment, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.MaxTotalLength == 0 || params.MaxSegments == 0 || len(docs) == 0 {
		return nil, nil
	}

	// Per-document DPs are independent, so they fan out. Results land in an
	// index-addressed slice to keep the merge deterministic.
	perDoc := make([][]Segment, len(docs))
	var wg sync.WaitGroup
	for i, doc := range docs {
		if len(doc.Scores) == 0 {
			continue
		}
		wg.Add(1)
		go func(i int, doc DocumentScores) {
			defer wg.Done()
			perDoc[i] = selectDocumentSegments(doc, params)
		}(i, doc)
	}
	wg.Wait()

	return mergeSegments(perDoc, params), nil
}

// selectDocumentSegments finds the optimal non-overlapping set of qualifying
// ranges within a single document, under the global chunk budget.
func selectDocumentSegments(doc DocumentScores, params Params) []Segment {
	n := len(doc.Scores)
	budget := params.MaxTotalLength
	if budget > n {
		budget = n
	}
	maxSpan := params.MaxSegmentLength
	if maxSpan <= 0 || maxSpan > budget {
		maxSpan = budget
	}

	sums := prefixSums(doc.Scores)
	p := params.IrrelevantChunkPenalty

	// best[j][l] is the best total value achievable inside [0, j) spending at
	// most l chunks. pick[j][l] records the range ending at j taken to get
	// there, if any.
	type choice struct {
		taken bool
		start int
	}
	best := make([][]float64, n+1)
	pick := make([][]choice, n+1)
	for j := 0; j <= n; j++ {
		best[j] = make([]float64, budget+1)
		pick[j] = make([]choice, budget+1)
	}

	for j := 1; j <= n; j++ {
		copy(best[j], best[j-1]) // chunk j-1 left unselected
		lo := j - maxSpan
		if lo < 0 {
			lo = 0
		}
		for i := lo; i < j; i++ {
			v := rangeValue(sums, i, j, p)
			if v < params.MinSegmentValue {
				continue
			}
			d := j - i
			for l := d; l <= budget; l++ {
				if cand := best[i][l-d] + v; cand > best[j][l] {
					best[j][l] = cand
					pick[j][l] = choice{taken: true, start: i}
				}
			}
		}
	}

	// Walk back from the full document at full budget. When no range ends at
	// j, the optimum came from best[j-1][l].
	var segments []Segment
	j, l := n, budget
	for j > 0 {
		c := pick[j][l]
		if !c.taken {
			j--
			continue
		}
		segments = append(segments, Segment{
			DocID: doc.DocID,
			Start: c.start,
			End:   j,
			Value: rangeValue(sums, c.start, j, p),
		})
		l -= j - c.start
		j = c.start
	}

	// Traceback yields segments right to left.
	for a, b := 0, len(segments)-1; a < b; a, b = a+1, b-1 {
		segments[a], segments[b] = segments[b], segments[a]
	}
	return segments
}

// mergeSegments flattens per-document selections and greedily admits the
// highest-value segments first, respecting the segment count and total length
// ceilings. A segment that doesn't fit the remaining length budget is skipped
// rather than ending the merge: a shorter, lower-value one may still fit.
func mergeSegments(perDoc [][]Segment, params Params) []Segment {
	type candidate struct {
		seg      Segment
		docOrder int
	}
	var candidates []candidate
	for i, segs := range perDoc {
		for _, s := range segs {
			candidates = append(candidates, candidate{seg: s, docOrder: i})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if ca.seg.Value != cb.seg.Value {
			return ca.seg.Value > cb.seg.Value
		}
		if ca.docOrder != cb.docOrder {
			return ca.docOrder < cb.docOrder
		}
		return ca.seg.Start < cb.seg.Start
	})

	var selected []Segment
	used := 0
	for _, c := range candidates {
		if len(selected) == params.MaxSegments {
			break
		}
		if used+c.seg.Length() > params.MaxTotalLength {
			continue
		}
		selected = append(selected, c.seg)
		used += c.seg.Length()
	}
	return selected
}
