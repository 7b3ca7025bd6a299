package rse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selectorParams() Params {
	return Params{
		MaxTotalLength:         30,
		MaxSegments:            10,
		IrrelevantChunkPenalty: 0.1,
	}
}

func totalValue(segments []Segment) float64 {
	var total float64
	for _, s := range segments {
		total += s.Value
	}
	return total
}

func TestSelectSegmentsSplitsAroundLowValueChunks(t *testing.T) {
	docs := []DocumentScores{
		{DocID: "doc", Scores: []float64{0.9, 0.8, 0.1, 0.05, 0.95}},
	}
	params := Params{
		MaxTotalLength:         5,
		MaxSegments:            2,
		IrrelevantChunkPenalty: 0.1,
	}

	segments, err := SelectSegments(docs, params)
	require.NoError(t, err)
	require.Len(t, segments, 2)

	// Highest value first.
	assert.Equal(t, 0, segments[0].Start)
	assert.Equal(t, 2, segments[0].End)
	assert.InDelta(t, 1.5, segments[0].Value, 1e-9)

	assert.Equal(t, 4, segments[1].Start)
	assert.Equal(t, 5, segments[1].End)
	assert.InDelta(t, 0.85, segments[1].Value, 1e-9)
}

func TestSelectSegmentsMergesSpanWhenPenaltyIsLow(t *testing.T) {
	// Below the break-even penalty the connective chunks are cheap enough
	// that one contiguous span beats two separate segments.
	docs := []DocumentScores{
		{DocID: "doc", Scores: []float64{0.9, 0.8, 0.1, 0.05, 0.95}},
	}
	params := Params{
		MaxTotalLength:         5,
		MaxSegments:            2,
		IrrelevantChunkPenalty: 0.05,
	}

	segments, err := SelectSegments(docs, params)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, 0, segments[0].Start)
	assert.Equal(t, 5, segments[0].End)
	assert.InDelta(t, 2.55, segments[0].Value, 1e-9)
}

func TestSelectSegmentsAllNegativeScores(t *testing.T) {
	docs := []DocumentScores{
		{DocID: "doc", Scores: []float64{-0.1, -0.5, -0.2}},
	}

	segments, err := SelectSegments(docs, selectorParams())
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestSelectSegmentsSingleChunk(t *testing.T) {
	docs := []DocumentScores{
		{DocID: "doc", Scores: []float64{0.5}},
	}
	params := selectorParams()

	segments, err := SelectSegments(docs, params)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "doc", segments[0].DocID)
	assert.Equal(t, 0, segments[0].Start)
	assert.Equal(t, 1, segments[0].End)
	assert.InDelta(t, 0.4, segments[0].Value, 1e-9)

	// The same chunk falls under a higher admission floor.
	params.MinSegmentValue = 0.5
	segments, err = SelectSegments(docs, params)
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestSelectSegmentsZeroBudgets(t *testing.T) {
	docs := []DocumentScores{
		{DocID: "doc", Scores: []float64{0.9, 0.9}},
	}

	params := selectorParams()
	params.MaxTotalLength = 0
	segments, err := SelectSegments(docs, params)
	require.NoError(t, err)
	assert.Empty(t, segments)

	params = selectorParams()
	params.MaxSegments = 0
	segments, err = SelectSegments(docs, params)
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestSelectSegmentsNegativeBudgetFailsFast(t *testing.T) {
	docs := []DocumentScores{
		{DocID: "doc", Scores: []float64{0.9}},
	}

	params := selectorParams()
	params.MaxTotalLength = -1
	_, err := SelectSegments(docs, params)
	require.ErrorIs(t, err, ErrInvalidParams)

	params = selectorParams()
	params.MaxSegments = -5
	_, err = SelectSegments(docs, params)
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestSelectSegmentsSkipsEmptyDocuments(t *testing.T) {
	docs := []DocumentScores{
		{DocID: "empty", Scores: nil},
		{DocID: "doc", Scores: []float64{0.8}},
	}

	segments, err := SelectSegments(docs, selectorParams())
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "doc", segments[0].DocID)
}

func TestSelectSegmentsPicksBestAcrossDocuments(t *testing.T) {
	docs := []DocumentScores{
		{DocID: "a", Scores: []float64{0.9, 0.9}},
		{DocID: "b", Scores: []float64{0.99}},
	}
	params := selectorParams()
	params.MaxSegments = 1

	segments, err := SelectSegments(docs, params)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "a", segments[0].DocID)
	assert.InDelta(t, 1.6, segments[0].Value, 1e-9)
}

func TestSelectSegmentsMergeSkipsSegmentsThatDontFit(t *testing.T) {
	docs := []DocumentScores{
		{DocID: "a", Scores: []float64{1.0, 1.0}},
		{DocID: "b", Scores: []float64{0.95, 0.95}},
		{DocID: "c", Scores: []float64{0.5}},
	}
	params := selectorParams()
	params.MaxTotalLength = 3

	segments, err := SelectSegments(docs, params)
	require.NoError(t, err)
	require.Len(t, segments, 2)

	// a's two chunks fit, b's two no longer do, c's single chunk still does.
	assert.Equal(t, "a", segments[0].DocID)
	assert.Equal(t, "c", segments[1].DocID)
}

func TestSelectSegmentsTieBreaksByDocumentOrder(t *testing.T) {
	docs := []DocumentScores{
		{DocID: "first", Scores: []float64{0.9}},
		{DocID: "second", Scores: []float64{0.9}},
	}
	params := selectorParams()
	params.MaxSegments = 1

	segments, err := SelectSegments(docs, params)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "first", segments[0].DocID)
}

func TestSelectSegmentsRespectsMaxSegmentLength(t *testing.T) {
	scores := make([]float64, 10)
	for i := range scores {
		scores[i] = 1.0
	}
	docs := []DocumentScores{{DocID: "doc", Scores: scores}}

	params := selectorParams()
	params.MaxSegmentLength = 3

	segments, err := SelectSegments(docs, params)
	require.NoError(t, err)
	require.NotEmpty(t, segments)

	covered := 0
	for _, s := range segments {
		assert.LessOrEqual(t, s.Length(), 3)
		covered += s.Length()
	}
	// Every chunk is worth more than the penalty, so everything gets covered.
	assert.Equal(t, 10, covered)
}

func TestSelectSegmentsInvariants(t *testing.T) {
	docs := []DocumentScores{
		{DocID: "a", Scores: []float64{0.2, 0.9, -0.4, 0.6, 0.6, -0.1, 0.05, 0.8}},
		{DocID: "b", Scores: []float64{0.7, 0.1, 0.1, 0.9}},
		{DocID: "c", Scores: []float64{-0.2}},
	}
	params := Params{
		MaxSegmentLength:       4,
		MaxTotalLength:         6,
		MaxSegments:            3,
		MinSegmentValue:        0.2,
		IrrelevantChunkPenalty: 0.15,
	}

	segments, err := SelectSegments(docs, params)
	require.NoError(t, err)

	lengths := map[string]int{"a": 8, "b": 4, "c": 1}
	total := 0
	assert.LessOrEqual(t, len(segments), params.MaxSegments)
	for _, s := range segments {
		assert.Less(t, s.Start, s.End)
		assert.GreaterOrEqual(t, s.Start, 0)
		assert.LessOrEqual(t, s.End, lengths[s.DocID])
		assert.GreaterOrEqual(t, s.Value, params.MinSegmentValue)
		total += s.Length()
	}
	assert.LessOrEqual(t, total, params.MaxTotalLength)

	// No overlaps within a document.
	for i, s1 := range segments {
		for j, s2 := range segments {
			if i == j || s1.DocID != s2.DocID {
				continue
			}
			assert.True(t, s1.End <= s2.Start || s2.End <= s1.Start,
				"segments %v and %v overlap", s1, s2)
		}
	}
}

func TestSelectSegmentsIsDeterministic(t *testing.T) {
	docs := []DocumentScores{
		{DocID: "a", Scores: []float64{0.5, 0.5, 0.1, 0.5, 0.5}},
		{DocID: "b", Scores: []float64{0.5, 0.5, 0.1, 0.5, 0.5}},
	}
	params := selectorParams()
	params.MaxTotalLength = 6

	first, err := SelectSegments(docs, params)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := SelectSegments(docs, params)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestSelectSegmentsMonotonicity(t *testing.T) {
	base := []float64{0.3, 0.4, 0.05, 0.6, 0.2}
	params := selectorParams()

	before, err := SelectSegments([]DocumentScores{{DocID: "doc", Scores: base}}, params)
	require.NoError(t, err)

	for i := range base {
		bumped := append([]float64(nil), base...)
		bumped[i] += 0.5
		after, err := SelectSegments([]DocumentScores{{DocID: "doc", Scores: bumped}}, params)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, totalValue(after), totalValue(before),
			"bumping chunk %d decreased total value", i)
	}
}

func TestSelectSegmentsNoDocuments(t *testing.T) {
	segments, err := SelectSegments(nil, selectorParams())
	require.NoError(t, err)
	assert.Empty(t, segments)
}
