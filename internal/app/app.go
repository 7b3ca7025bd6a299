// Package app wires the retrieval pipeline together: indexing documents into
// the chunk and vector stores, answering questions via segment extraction,
// and the interactive console loop.
package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"segrag/internal/chunker"
	"segrag/internal/config"
	"segrag/internal/rse"
	"segrag/internal/store"
)

const tokenEncoding = "cl100k_base"

type App struct {
	cfg            *config.Config
	logger         *zap.Logger
	metadata       *Metadata
	chunkerFactory *chunker.Factory
	chunks         *store.ChunkDB
	vectors        *store.VectorIndex
	materializer   *rse.Materializer
	reranker       Reranker
	params         rse.Params
	encoder        *tiktoken.Tiktoken
	outputPath     string
}

// Metadata tracks which source files are already indexed, so unchanged files
// are skipped on the next run.
type Metadata struct {
	Files    map[string]FileInfo `json:"files"`
	DocsPath string              `json:"docs_path"`
}

type FileInfo struct {
	Path         string    `json:"path"`
	LastModified time.Time `json:"last_modified"`
	Size         int64     `json:"size"`
}

func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	params, err := rse.PresetParams(cfg.RSEPreset)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve rse preset: %w", err)
	}

	embed := chromem.NewEmbeddingFuncOllama(cfg.OllamaEmbedModel, cfg.OllamaURL+"/api")
	vectors, err := store.NewVectorIndex(cfg.DBFile, embed, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector index: %w", err)
	}

	chunks := store.NewChunkDB(cfg.ChunksFile, logger)

	encoder, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		logger.Warn("token encoding unavailable, using character estimate", zap.Error(err))
		encoder = nil
	}

	app := &App{
		cfg:      cfg,
		logger:   logger,
		metadata: &Metadata{Files: make(map[string]FileInfo)},
		chunkerFactory: chunker.NewFactory(chunker.Config{
			MaxChunkSize: cfg.ChunkSize,
			Overlap:      cfg.ChunkOverlap,
		}),
		chunks:  chunks,
		vectors: vectors,
		params:  params,
		encoder: encoder,
	}
	app.materializer = rse.NewMaterializer(chunks, "\n").WithHeader(app.segmentHeader)

	return app, nil
}

// SetOutputPath makes the run loop append query reports to the given file.
func (a *App) SetOutputPath(path string) {
	a.outputPath = path
}

// SetReranker installs an optional reranker applied after vector search.
func (a *App) SetReranker(r Reranker) {
	a.reranker = r
}

// Init checks the embedding backend and restores persisted state.
func (a *App) Init() error {
	if err := ensureOllamaAndModels(a.cfg); err != nil {
		return fmt.Errorf("ollama model check failed: %w", err)
	}

	_ = a.loadMetadata() // may not exist yet

	if err := a.chunks.Load(); err != nil {
		return fmt.Errorf("failed to load chunk db: %w", err)
	}

	// Invalidate everything if the docs dir moved: file paths double as
	// document ids, so stale entries would never match again.
	absDocs, err := filepath.Abs(a.cfg.DocsDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute docs dir: %w", err)
	}
	if a.metadata.DocsPath != "" && a.metadata.DocsPath != absDocs {
		a.logger.Info("docs directory changed, invalidating index",
			zap.String("old", a.metadata.DocsPath),
			zap.String("new", absDocs))
		if err := a.reset(); err != nil {
			return err
		}
	}
	a.metadata.DocsPath = absDocs

	if a.cfg.ForceReindex {
		a.logger.Info("force reindex requested, clearing index state")
		if err := a.reset(); err != nil {
			return err
		}
	}

	a.logger.Info("app initialized",
		zap.Int("known_files", len(a.metadata.Files)),
		zap.Int("indexed_chunks", a.vectors.Count()),
		zap.String("rse_preset", a.cfg.RSEPreset))
	return nil
}

func (a *App) reset() error {
	a.metadata.Files = make(map[string]FileInfo)
	a.chunks.Clear()
	if err := a.vectors.Reset(); err != nil {
		return fmt.Errorf("failed to reset vector index: %w", err)
	}
	_ = os.Remove(a.cfg.MetadataFile)
	_ = os.Remove(a.cfg.DBFile)
	_ = os.Remove(a.cfg.ChunksFile)
	return nil
}

func (a *App) loadMetadata() error {
	f, err := os.Open(a.cfg.MetadataFile)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}
	defer f.Close()

	return json.NewDecoder(f).Decode(&a.metadata)
}

func (a *App) saveMetadata() error {
	f, err := os.Create(a.cfg.MetadataFile)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(a.metadata)
}

// saveState persists metadata, chunk db and vector index together.
func (a *App) saveState() error {
	if err := a.saveMetadata(); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}
	if err := a.chunks.Save(); err != nil {
		return fmt.Errorf("failed to save chunk db: %w", err)
	}
	if err := a.vectors.Save(); err != nil {
		return fmt.Errorf("failed to save vector index: %w", err)
	}
	return nil
}

func ensureOllamaAndModels(cfg *config.Config) error {
	type ollamaPullRequest struct {
		Name   string `json:"name"`
		Stream bool   `json:"stream"`
	}

	// 1. Check that Ollama is reachable at all.
	resp, err := http.Get(cfg.OllamaURL + "/api/tags")
	if err != nil || resp.StatusCode != 200 {
		return fmt.Errorf("ollama is not running or not reachable at %s", cfg.OllamaURL)
	}
	defer resp.Body.Close()

	// 2. Pull the embedding model if it is missing.
	model := cfg.OllamaEmbedModel
	found := false
	tagsResp, err := http.Get(cfg.OllamaURL + "/api/tags")
	if err == nil && tagsResp.StatusCode == 200 {
		body, _ := io.ReadAll(tagsResp.Body)
		tagsResp.Body.Close()
		if bytes.Contains(body, []byte(model)) {
			found = true
		}
	}
	if !found {
		pullReq := ollamaPullRequest{Name: model, Stream: false}
		b, _ := json.Marshal(pullReq)
		pullResp, err := http.Post(cfg.OllamaURL+"/api/pull", "application/json", bytes.NewBuffer(b))
		if err != nil {
			return fmt.Errorf("failed to pull model %s: %v", model, err)
		}
		defer pullResp.Body.Close()
		if pullResp.StatusCode != 200 {
			return fmt.Errorf("failed to pull model %s: status %d", model, pullResp.StatusCode)
		}
	}
	return nil
}
