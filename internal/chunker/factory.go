package chunker

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Factory picks a chunker by method name or file type.
type Factory struct {
	config Config
}

func NewFactory(config Config) *Factory {
	return &Factory{config: config}
}

// GetChunker returns a chunker for the file. An explicit method wins;
// otherwise the file extension decides, defaulting to plain text.
func (f *Factory) GetChunker(filePath, method string) (Chunker, error) {
	switch strings.ToLower(method) {
	case "markdown", "md":
		return NewMarkdownChunker(f.config), nil
	case "simple", "text", "txt":
		return NewTextChunker(f.config), nil
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".md", ".markdown":
		return NewMarkdownChunker(f.config), nil
	case ".txt", ".text":
		return NewTextChunker(f.config), nil
	default:
		return NewTextChunker(f.config), nil
	}
}

// GetChunkerByMethod returns a chunker by method name only.
func (f *Factory) GetChunkerByMethod(method string) (Chunker, error) {
	switch strings.ToLower(method) {
	case "markdown", "md":
		return NewMarkdownChunker(f.config), nil
	case "simple", "text", "txt":
		return NewTextChunker(f.config), nil
	default:
		return nil, fmt.Errorf("unknown chunking method: %s", method)
	}
}
