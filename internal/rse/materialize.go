package rse

import (
	"fmt"
	"strings"
)

// ChunkStore resolves chunk text during materialization. Implementations live
// outside the core, typically backed by the pipeline's chunk database.
type ChunkStore interface {
	ChunkText(docID string, index int) (string, error)
}

// MissingChunkError reports a selected chunk index that could not be resolved
// to text. It signals an index/content consistency violation between the
// search index and the chunk store, so it is propagated, never skipped.
type MissingChunkError struct {
	DocID string
	Index int
	Err   error
}

func (e *MissingChunkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("missing chunk %d of document %q: %v", e.Index, e.DocID, e.Err)
	}
	return fmt.Sprintf("missing chunk %d of document %q", e.Index, e.DocID)
}

func (e *MissingChunkError) Unwrap() error { return e.Err }

// Evidence is a materialized segment: the selected range plus its resolved text.
type Evidence struct {
	DocID string
	Start int
	End   int
	Value float64
	Text  string
}

// HeaderFunc produces an optional provenance header prepended to a segment's
// text, e.g. a line naming the source document. An empty return adds nothing.
type HeaderFunc func(docID string) string

// Materializer resolves selected segments into evidence text with provenance.
type Materializer struct {
	store     ChunkStore
	separator string
	header    HeaderFunc
}

// NewMaterializer builds a materializer over the given chunk store. separator
// joins adjacent chunk texts within a segment.
func NewMaterializer(store ChunkStore, separator string) *Materializer {
	return &Materializer{store: store, separator: separator}
}

// WithHeader sets the per-document header func and returns the materializer.
func (m *Materializer) WithHeader(fn HeaderFunc) *Materializer {
	m.header = fn
	return m
}

// Materialize fetches chunk texts for each segment and concatenates them in
// index order. The first unresolvable chunk aborts the call with a
// *MissingChunkError; retrying is the caller's decision.
func (m *Materializer) Materialize(segments []Segment) ([]Evidence, error) {
	evidence := make([]Evidence, 0, len(segments))
	for _, seg := range segments {
		var buf strings.Builder
		if m.header != nil {
			if h := m.header(seg.DocID); h != "" {
				buf.WriteString(h)
				buf.WriteString("\n\n")
			}
		}
		for idx := seg.Start; idx < seg.End; idx++ {
			text, err := m.store.ChunkText(seg.DocID, idx)
			if err != nil {
				return nil, &MissingChunkError{DocID: seg.DocID, Index: idx, Err: err}
			}
			if idx > seg.Start {
				buf.WriteString(m.separator)
			}
			buf.WriteString(text)
		}
		evidence = append(evidence, Evidence{
			DocID: seg.DocID,
			Start: seg.Start,
			End:   seg.End,
			Value: seg.Value,
			Text:  strings.TrimSpace(buf.String()),
		})
	}
	return evidence, nil
}
