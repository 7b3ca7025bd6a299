package store

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"segrag/internal/chunker"
)

const collectionName = "chunks"

// SearchResult is one chunk-level hit from the vector index.
type SearchResult struct {
	DocID      string
	ChunkIndex int
	Content    string
	Section    string
	Similarity float32
}

// VectorIndex wraps an embedded chromem collection of chunk embeddings, with
// export/import persistence. Entries carry doc_id and chunk_index metadata so
// hits map back onto chunk store indices.
type VectorIndex struct {
	db     *chromem.DB
	embed  chromem.EmbeddingFunc
	path   string
	logger *zap.Logger
}

// NewVectorIndex creates the index, importing an existing export file when
// one is present at path.
func NewVectorIndex(path string, embed chromem.EmbeddingFunc, logger *zap.Logger) (*VectorIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	v := &VectorIndex{
		db:     chromem.NewDB(),
		embed:  embed,
		path:   path,
		logger: logger,
	}

	if _, err := os.Stat(path); err == nil {
		if err := v.db.ImportFromFile(path, "", collectionName); err != nil {
			return nil, fmt.Errorf("failed to import vector index: %w", err)
		}
		logger.Info("loaded vector index", zap.String("path", path))
	} else {
		if _, err := v.db.CreateCollection(collectionName, map[string]string{}, embed); err != nil {
			return nil, fmt.Errorf("failed to create collection: %w", err)
		}
	}

	return v, nil
}

func (v *VectorIndex) collection() (*chromem.Collection, error) {
	coll := v.db.GetCollection(collectionName, v.embed)
	if coll == nil {
		return nil, fmt.Errorf("collection %q not found", collectionName)
	}
	return coll, nil
}

// AddDocument embeds and stores the document's chunks. Chunk i of the input
// is indexed as chunk i of the document.
func (v *VectorIndex) AddDocument(ctx context.Context, docID string, chunks []chunker.Chunk) error {
	coll, err := v.collection()
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for i, ch := range chunks {
		docs = append(docs, chromem.Document{
			ID:      fmt.Sprintf("%s#%d", docID, i),
			Content: ch.Text,
			Metadata: map[string]string{
				"doc_id":      docID,
				"chunk_index": strconv.Itoa(i),
				"section":     ch.Section,
			},
		})
	}

	if err := coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// RemoveDocument drops all chunks of a document from the index.
func (v *VectorIndex) RemoveDocument(ctx context.Context, docID string) error {
	coll, err := v.collection()
	if err != nil {
		return err
	}
	if err := coll.Delete(ctx, map[string]string{"doc_id": docID}, nil); err != nil {
		return fmt.Errorf("failed to delete document vectors: %w", err)
	}
	return nil
}

// Search returns up to topK chunk hits for the query text, best first,
// filtered by the similarity floor. topK is clamped to the collection size.
func (v *VectorIndex) Search(ctx context.Context, query string, topK int, minSimilarity float32) ([]SearchResult, error) {
	coll, err := v.collection()
	if err != nil {
		return nil, err
	}

	count := coll.Count()
	if count == 0 || topK <= 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	results, err := coll.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	hits := make([]SearchResult, 0, len(results))
	for _, r := range results {
		if r.Similarity < minSimilarity {
			continue
		}
		index, err := strconv.Atoi(r.Metadata["chunk_index"])
		if err != nil {
			v.logger.Warn("skipping hit with bad chunk index metadata", zap.String("id", r.ID))
			continue
		}
		hits = append(hits, SearchResult{
			DocID:      r.Metadata["doc_id"],
			ChunkIndex: index,
			Content:    r.Content,
			Section:    r.Metadata["section"],
			Similarity: r.Similarity,
		})
	}
	return hits, nil
}

// Count returns the number of indexed chunks.
func (v *VectorIndex) Count() int {
	coll, err := v.collection()
	if err != nil {
		return 0
	}
	return coll.Count()
}

// Reset drops the collection and starts fresh.
func (v *VectorIndex) Reset() error {
	if err := v.db.DeleteCollection(collectionName); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	if _, err := v.db.CreateCollection(collectionName, map[string]string{}, v.embed); err != nil {
		return fmt.Errorf("failed to recreate collection: %w", err)
	}
	return nil
}

// Save exports the index to its file.
func (v *VectorIndex) Save() error {
	if err := v.db.ExportToFile(v.path, true, "", collectionName); err != nil {
		return fmt.Errorf("failed to export vector index: %w", err)
	}
	return nil
}
