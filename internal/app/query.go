package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"segrag/internal/rse"
	"segrag/internal/store"
)

// Reranker reorders chunk-level search results for a query, best first.
// Implementations call an external cross-encoder service; a nil reranker
// keeps vector-search order.
type Reranker interface {
	Rerank(ctx context.Context, query string, results []store.SearchResult) ([]store.SearchResult, error)
}

// QueryResult ties a set of search queries to the evidence extracted for them.
type QueryResult struct {
	ID       string
	Queries  []string
	Evidence []rse.Evidence
}

// Query runs vector search for each query, converts the ranked hits into
// per-chunk relevance scores, extracts the best contiguous segments, and
// materializes them with provenance. Searches for independent queries fan
// out under a concurrency cap; the extraction itself is synchronous.
//
// An empty Evidence slice means nothing scored above the floor, not a failure.
func (a *App) Query(ctx context.Context, queries []string) (*QueryResult, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("at least one search query is required")
	}

	queryID := uuid.NewString()
	logger := a.logger.With(zap.String("query_id", queryID))
	start := time.Now()

	resultsByQuery := make([][]store.SearchResult, len(queries))
	sem := make(chan struct{}, a.cfg.MaxConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var searchErr error

	for i, q := range queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results, err := a.vectors.Search(ctx, q, a.cfg.SearchTopK, a.cfg.MinSimilarity)
			if err == nil && a.reranker != nil {
				results, err = a.reranker.Rerank(ctx, q, results)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if searchErr == nil {
					searchErr = fmt.Errorf("search failed for query %q: %w", q, err)
				}
				return
			}
			resultsByQuery[i] = results
		}(i, q)
	}
	wg.Wait()
	if searchErr != nil {
		return nil, searchErr
	}

	ranked := make([][]rse.RankedResult, len(queries))
	total := 0
	for i, results := range resultsByQuery {
		ranked[i] = make([]rse.RankedResult, 0, len(results))
		for _, r := range results {
			ranked[i] = append(ranked[i], rse.RankedResult{
				DocID:       r.DocID,
				ChunkIndex:  r.ChunkIndex,
				ChunkLength: len(r.Content),
			})
		}
		total += len(results)
	}
	logger.Debug("search complete",
		zap.Int("queries", len(queries)),
		zap.Int("total_hits", total))

	// The total length budget grows with each extra query, like the
	// search surface does.
	params := a.params.ExtendForQueries(len(queries))

	docs := rse.BuildDocumentScores(ranked, a.chunks.ChunkCounts(), params)
	segments, err := rse.SelectSegments(docs, params)
	if err != nil {
		return nil, err
	}

	evidence, err := a.materializer.Materialize(segments)
	if err != nil {
		return nil, err
	}

	logger.Info("query complete",
		zap.Int("queries", len(queries)),
		zap.Int("documents_considered", len(docs)),
		zap.Int("segments", len(evidence)),
		zap.Duration("took", time.Since(start)))

	return &QueryResult{ID: queryID, Queries: queries, Evidence: evidence}, nil
}

// segmentHeader names the source document at the top of each segment.
func (a *App) segmentHeader(docID string) string {
	title := a.chunks.DocumentTitle(docID)
	if title == "" {
		return ""
	}
	return fmt.Sprintf("Source: %s", title)
}
