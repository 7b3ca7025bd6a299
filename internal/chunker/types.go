package chunker

// Chunk is the smallest indexed unit of a document's text. A chunk's index
// within its document is its position in the slice a Chunker returns.
type Chunk struct {
	Text     string            // chunk text
	Source   string            // source document id
	Section  string            // section name (heading, chapter, ...)
	Metadata map[string]string // extra metadata
}

// Chunker splits document content into ordered chunks.
type Chunker interface {
	// Chunk splits content into chunks, in document order.
	Chunk(content, source string) ([]Chunk, error)

	// Name identifies the chunker for logging.
	Name() string
}

// Config holds parameters shared by all chunkers.
type Config struct {
	MaxChunkSize int // maximum chunk size in characters
	Overlap      int // overlap between adjacent split parts in characters
}
