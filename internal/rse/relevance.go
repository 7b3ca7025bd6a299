package rse

import "math"

// defaultDecayRate matches the balanced preset.
const defaultDecayRate = 30

// referenceChunkLength is the chunk size (in characters) the length
// adjustment normalizes against.
const referenceChunkLength = 700

// RankedResult is one chunk-level hit from the search/rerank stage. Result
// slices must be in rank order, best first.
type RankedResult struct {
	DocID      string
	ChunkIndex int
	// ChunkLength is the chunk text length in characters. Only consulted when
	// length adjustment is enabled.
	ChunkLength int
}

// BuildDocumentScores converts per-query ranked results into per-chunk
// relevance scores, one array per document.
//
// A hit at rank r contributes exp(-r/decayRate); contributions sum across
// queries. Chunks that never appear in any result list score zero (the
// penalty is applied later, at valuation). Documents are kept in order of
// first appearance across the result lists (query order, then rank),
// truncated to TopKForDocumentSelection; that order is what the selector
// uses for deterministic tie-breaking.
//
// chunkCounts maps doc id to the document's chunk count; hits for documents
// missing from it, and hits with out-of-bounds chunk indices, are dropped.
func BuildDocumentScores(resultsByQuery [][]RankedResult, chunkCounts map[string]int, params Params) []DocumentScores {
	decay := params.DecayRate
	if decay == 0 {
		decay = defaultDecayRate
	}

	var order []string
	position := make(map[string]int)
	for _, results := range resultsByQuery {
		for _, r := range results {
			if _, ok := position[r.DocID]; ok {
				continue
			}
			if _, ok := chunkCounts[r.DocID]; !ok {
				continue
			}
			position[r.DocID] = len(order)
			order = append(order, r.DocID)
		}
	}
	if k := params.TopKForDocumentSelection; k > 0 && len(order) > k {
		for _, id := range order[k:] {
			delete(position, id)
		}
		order = order[:k]
	}

	docs := make([]DocumentScores, len(order))
	for i, id := range order {
		docs[i] = DocumentScores{DocID: id, Scores: make([]float64, chunkCounts[id])}
	}

	for _, results := range resultsByQuery {
		for rank, r := range results {
			i, ok := position[r.DocID]
			if !ok {
				continue
			}
			if r.ChunkIndex < 0 || r.ChunkIndex >= len(docs[i].Scores) {
				continue
			}
			v := math.Exp(-float64(rank) / decay)
			if params.ChunkLengthAdjustment && r.ChunkLength > 0 && r.ChunkLength < referenceChunkLength {
				v *= float64(r.ChunkLength) / referenceChunkLength
			}
			docs[i].Scores[r.ChunkIndex] += v
		}
	}
	return docs
}
