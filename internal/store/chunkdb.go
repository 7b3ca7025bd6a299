// Package store holds the persistent pieces of the pipeline: the chunk
// database with ordered chunk texts per document, and the vector index.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"

	"segrag/internal/chunker"
)

// ErrNotFound is wrapped by lookups for unknown documents or chunk indices.
var ErrNotFound = errors.New("not found")

// ErrDocumentExists is returned when adding a document id that is already stored.
var ErrDocumentExists = errors.New("document already exists")

// StoredChunk is one chunk of a document as kept in the chunk database.
// Its index is its position in the document's chunk slice.
type StoredChunk struct {
	Text    string `json:"text"`
	Section string `json:"section,omitempty"`
}

// ChunkDB keeps ordered chunk texts per document id, persisted as a JSON
// file next to the vector index export. Chunk indices are 0-based and
// contiguous; they are assigned at add time and never change. Safe for
// concurrent use.
type ChunkDB struct {
	mu     sync.RWMutex
	docs   map[string][]StoredChunk
	titles map[string]string
	path   string
	logger *zap.Logger
}

func NewChunkDB(path string, logger *zap.Logger) *ChunkDB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChunkDB{
		docs:   make(map[string][]StoredChunk),
		titles: make(map[string]string),
		path:   path,
		logger: logger,
	}
}

type chunkDBState struct {
	Docs   map[string][]StoredChunk `json:"docs"`
	Titles map[string]string        `json:"titles"`
}

// Load restores the database from its file. A missing file is not an error.
func (db *ChunkDB) Load() error {
	f, err := os.Open(db.path)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to open chunk db: %w", err)
	}
	defer f.Close()

	var state chunkDBState
	if err := json.NewDecoder(f).Decode(&state); err != nil {
		return fmt.Errorf("failed to decode chunk db: %w", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	db.docs = state.Docs
	db.titles = state.Titles
	if db.docs == nil {
		db.docs = make(map[string][]StoredChunk)
	}
	if db.titles == nil {
		db.titles = make(map[string]string)
	}
	db.logger.Info("loaded chunk db", zap.String("path", db.path), zap.Int("documents", len(db.docs)))
	return nil
}

// Save writes the database to its file.
func (db *ChunkDB) Save() error {
	db.mu.RLock()
	state := chunkDBState{Docs: db.docs, Titles: db.titles}
	data, err := json.Marshal(state)
	db.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode chunk db: %w", err)
	}

	if err := os.WriteFile(db.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write chunk db: %w", err)
	}
	return nil
}

// AddDocument stores the document's chunks in order. Chunk i of the input
// becomes chunk index i of the document.
func (db *ChunkDB) AddDocument(docID, title string, chunks []chunker.Chunk) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.docs[docID]; ok {
		return fmt.Errorf("%w: %q", ErrDocumentExists, docID)
	}

	stored := make([]StoredChunk, len(chunks))
	for i, ch := range chunks {
		stored[i] = StoredChunk{Text: ch.Text, Section: ch.Section}
	}
	db.docs[docID] = stored
	db.titles[docID] = title
	return nil
}

// RemoveDocument drops a document and its chunks. Unknown ids are a no-op.
func (db *ChunkDB) RemoveDocument(docID string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.docs, docID)
	delete(db.titles, docID)
}

// Clear drops everything.
func (db *ChunkDB) Clear() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.docs = make(map[string][]StoredChunk)
	db.titles = make(map[string]string)
}

func (db *ChunkDB) HasDocument(docID string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.docs[docID]
	return ok
}

// ChunkText resolves one chunk to its text. Satisfies rse.ChunkStore.
func (db *ChunkDB) ChunkText(docID string, index int) (string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	chunks, ok := db.docs[docID]
	if !ok {
		return "", fmt.Errorf("%w: document %q", ErrNotFound, docID)
	}
	if index < 0 || index >= len(chunks) {
		return "", fmt.Errorf("%w: document %q chunk %d (have %d)", ErrNotFound, docID, index, len(chunks))
	}
	return chunks[index].Text, nil
}

// ChunkCount returns the number of chunks stored for a document, zero if unknown.
func (db *ChunkDB) ChunkCount(docID string) int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.docs[docID])
}

// ChunkCounts returns chunk counts for all stored documents.
func (db *ChunkDB) ChunkCounts() map[string]int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	counts := make(map[string]int, len(db.docs))
	for id, chunks := range db.docs {
		counts[id] = len(chunks)
	}
	return counts
}

// DocumentTitle returns the stored title, empty if unknown.
func (db *ChunkDB) DocumentTitle(docID string) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.titles[docID]
}

// DocIDs returns all stored document ids, sorted.
func (db *ChunkDB) DocIDs() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	ids := make([]string, 0, len(db.docs))
	for id := range db.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
