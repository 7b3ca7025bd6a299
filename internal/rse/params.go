// Package rse implements relevant segment extraction: turning per-chunk
// relevance scores into a budgeted set of non-overlapping, contiguous
// evidence segments. The package is pure computation over in-memory arrays
// and holds no state between calls.
package rse

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is wrapped by every parameter validation failure.
var ErrInvalidParams = errors.New("invalid rse params")

// Params controls segment extraction for one query.
type Params struct {
	// MaxSegmentLength caps the span of a single segment in chunks. It bounds
	// the range search within very long documents. Zero means no cap beyond
	// MaxTotalLength.
	MaxSegmentLength int

	// MaxTotalLength caps the total chunk count across all selected segments.
	MaxTotalLength int

	// MaxSegments caps how many segments are returned.
	MaxSegments int

	// MinSegmentValue is the admission floor: ranges valued below it are
	// never selected even if budget remains.
	MinSegmentValue float64

	// IrrelevantChunkPenalty is the per-chunk cost subtracted when valuing a
	// range, so padding a segment with low-relevance chunks costs something.
	IrrelevantChunkPenalty float64

	// DecayRate controls how fast relevance decays with search rank when
	// converting ranked results to chunk scores. Zero selects the default (30).
	DecayRate float64

	// OverallMaxLengthExtension is added to MaxTotalLength for each search
	// query beyond the first.
	OverallMaxLengthExtension int

	// TopKForDocumentSelection limits how many distinct documents are
	// considered per query. Zero means no limit.
	TopKForDocumentSelection int

	// ChunkLengthAdjustment scales chunk scores by chunk length relative to a
	// reference length, so very short chunks don't punch above their weight.
	ChunkLengthAdjustment bool
}

// Preset names accepted by PresetParams.
const (
	PresetBalanced      = "balanced"
	PresetPrecise       = "precise"
	PresetComprehensive = "comprehensive"
)

// PresetParams returns a named parameter preset. Balanced is the usual
// starting point; precise trades recall for a higher admission floor;
// comprehensive allows longer and more numerous segments.
func PresetParams(name string) (Params, error) {
	switch name {
	case PresetBalanced:
		return Params{
			MaxSegmentLength:          15,
			MaxTotalLength:            30,
			MaxSegments:               10,
			MinSegmentValue:           0.5,
			IrrelevantChunkPenalty:    0.18,
			DecayRate:                 30,
			OverallMaxLengthExtension: 5,
			TopKForDocumentSelection:  10,
			ChunkLengthAdjustment:     true,
		}, nil
	case PresetPrecise:
		return Params{
			MaxSegmentLength:          10,
			MaxTotalLength:            20,
			MaxSegments:               5,
			MinSegmentValue:           0.7,
			IrrelevantChunkPenalty:    0.2,
			DecayRate:                 20,
			OverallMaxLengthExtension: 3,
			TopKForDocumentSelection:  7,
			ChunkLengthAdjustment:     true,
		}, nil
	case PresetComprehensive:
		return Params{
			MaxSegmentLength:          30,
			MaxTotalLength:            50,
			MaxSegments:               15,
			MinSegmentValue:           0.3,
			IrrelevantChunkPenalty:    0.12,
			DecayRate:                 40,
			OverallMaxLengthExtension: 10,
			TopKForDocumentSelection:  15,
			ChunkLengthAdjustment:     true,
		}, nil
	default:
		return Params{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidParams, name)
	}
}

// Validate reports the first invalid field, wrapping ErrInvalidParams.
// Zero budgets are valid and produce an empty selection.
func (p Params) Validate() error {
	if p.MaxSegmentLength < 0 {
		return fmt.Errorf("%w: max segment length must be non-negative, got %d", ErrInvalidParams, p.MaxSegmentLength)
	}
	if p.MaxTotalLength < 0 {
		return fmt.Errorf("%w: max total length must be non-negative, got %d", ErrInvalidParams, p.MaxTotalLength)
	}
	if p.MaxSegments < 0 {
		return fmt.Errorf("%w: max segments must be non-negative, got %d", ErrInvalidParams, p.MaxSegments)
	}
	if p.MinSegmentValue < 0 {
		return fmt.Errorf("%w: min segment value must be non-negative, got %v", ErrInvalidParams, p.MinSegmentValue)
	}
	if p.IrrelevantChunkPenalty < 0 {
		return fmt.Errorf("%w: irrelevant chunk penalty must be non-negative, got %v", ErrInvalidParams, p.IrrelevantChunkPenalty)
	}
	if p.DecayRate < 0 {
		return fmt.Errorf("%w: decay rate must be non-negative, got %v", ErrInvalidParams, p.DecayRate)
	}
	if p.OverallMaxLengthExtension < 0 {
		return fmt.Errorf("%w: overall max length extension must be non-negative, got %d", ErrInvalidParams, p.OverallMaxLengthExtension)
	}
	if p.TopKForDocumentSelection < 0 {
		return fmt.Errorf("%w: top k for document selection must be non-negative, got %d", ErrInvalidParams, p.TopKForDocumentSelection)
	}
	return nil
}

// ExtendForQueries returns a copy with MaxTotalLength grown by
// OverallMaxLengthExtension for every query beyond the first.
func (p Params) ExtendForQueries(numQueries int) Params {
	if numQueries > 1 {
		p.MaxTotalLength += (numQueries - 1) * p.OverallMaxLengthExtension
	}
	return p
}
