package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"segrag/internal/chunker"
	"segrag/internal/loader"
)

// IndexDocuments walks the docs directory and indexes new or changed files.
// A file's path relative to the docs dir is its document id.
func (a *App) IndexDocuments(ctx context.Context) error {
	indexed := 0

	err := filepath.Walk(a.cfg.DocsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !loader.CanProcess(path) {
			return nil
		}

		relPath, err := filepath.Rel(a.cfg.DocsDir, path)
		if err != nil {
			return err
		}

		fileInfo, exists := a.metadata.Files[relPath]
		if exists && fileInfo.LastModified.Equal(info.ModTime()) && fileInfo.Size == info.Size() {
			a.logger.Debug("skipping unchanged file", zap.String("file", relPath))
			return nil
		}

		if err := a.indexFile(ctx, path, relPath); err != nil {
			return fmt.Errorf("failed to index %s: %w", relPath, err)
		}

		a.metadata.Files[relPath] = FileInfo{
			Path:         relPath,
			LastModified: info.ModTime(),
			Size:         info.Size(),
		}
		indexed++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk docs directory: %w", err)
	}

	if indexed > 0 {
		if err := a.saveState(); err != nil {
			return err
		}
	}

	a.logger.Info("indexing complete",
		zap.Int("indexed", indexed),
		zap.Int("total_files", len(a.metadata.Files)),
		zap.Int("total_chunks", a.vectors.Count()))
	return nil
}

// indexFile chunks one file and stores its chunks under docID in both the
// chunk db and the vector index. Changed files are re-ingested under the
// same id, replacing the previous chunks.
func (a *App) indexFile(ctx context.Context, path, docID string) error {
	content, err := loader.Content(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	chunkr, err := a.chunkerFactory.GetChunker(path, a.cfg.ChunkMethod)
	if err != nil {
		return fmt.Errorf("failed to get chunker: %w", err)
	}

	chunks, err := chunkr.Chunk(content, docID)
	if err != nil {
		a.logger.Warn("chunker failed, falling back to text chunker",
			zap.String("file", docID),
			zap.String("chunker", chunkr.Name()),
			zap.Error(err))
		textChunker := chunker.NewTextChunker(chunker.Config{
			MaxChunkSize: a.cfg.ChunkSize,
			Overlap:      a.cfg.ChunkOverlap,
		})
		chunks, err = textChunker.Chunk(content, docID)
		if err != nil {
			return fmt.Errorf("text chunker failed: %w", err)
		}
	}
	if len(chunks) == 0 {
		a.logger.Warn("file produced no chunks, skipping", zap.String("file", docID))
		return nil
	}

	if a.chunks.HasDocument(docID) {
		a.chunks.RemoveDocument(docID)
		if err := a.vectors.RemoveDocument(ctx, docID); err != nil {
			return fmt.Errorf("failed to remove stale vectors: %w", err)
		}
	}

	if err := a.chunks.AddDocument(docID, documentTitle(docID), chunks); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}
	if err := a.vectors.AddDocument(ctx, docID, chunks); err != nil {
		return fmt.Errorf("failed to index vectors: %w", err)
	}

	a.logger.Info("indexed document",
		zap.String("doc_id", docID),
		zap.Int("chunks", len(chunks)))
	return nil
}

// RemoveDocument drops a document from all stores and persists the change.
func (a *App) RemoveDocument(ctx context.Context, docID string) error {
	if !a.chunks.HasDocument(docID) {
		return fmt.Errorf("unknown document: %q", docID)
	}
	a.chunks.RemoveDocument(docID)
	if err := a.vectors.RemoveDocument(ctx, docID); err != nil {
		return fmt.Errorf("failed to remove vectors: %w", err)
	}
	delete(a.metadata.Files, docID)
	return a.saveState()
}

// documentTitle derives a readable title from the document id.
func documentTitle(docID string) string {
	base := filepath.Base(docID)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
