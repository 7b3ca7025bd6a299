package chunker

import (
	"fmt"
	"strings"
)

// TextChunker splits plain text by size with overlap. It is also the
// fallback when structured chunking fails.
type TextChunker struct {
	config Config
}

func NewTextChunker(config Config) *TextChunker {
	return &TextChunker{config: config}
}

func (s *TextChunker) Name() string {
	return "simple"
}

func (s *TextChunker) Chunk(content, source string) ([]Chunk, error) {
	// Prefer paragraph boundaries when the text has them.
	if strings.Contains(content, "\n\n") {
		return s.chunkByParagraphs(content, source), nil
	}

	return s.chunkBySize(content, source), nil
}

// chunkByParagraphs packs paragraphs into chunks up to the size limit,
// carrying an overlap tail between adjacent chunks.
func (s *TextChunker) chunkByParagraphs(content, source string) []Chunk {
	paragraphs := SplitByParagraphs(content)
	var chunks []Chunk
	var currentChunk strings.Builder
	chunkNum := 1
	var prevTail string

	for _, para := range paragraphs {
		if currentChunk.Len() > 0 && currentChunk.Len()+len(para) > s.config.MaxChunkSize {
			chunkText := currentChunk.String()
			section := fmt.Sprintf("Chunk %d", chunkNum)

			chunks = append(chunks, NewChunk(chunkText, source, section, map[string]string{
				"chunk_num": fmt.Sprintf("%d", chunkNum),
				"method":    "paragraphs",
			}))

			if s.config.Overlap > 0 {
				prevTail = LastNChars(chunkText, s.config.Overlap)
			}

			currentChunk.Reset()

			if prevTail != "" {
				currentChunk.WriteString(prevTail)
				currentChunk.WriteString("\n\n")
			}

			chunkNum++
		}

		if currentChunk.Len() > 0 {
			currentChunk.WriteString("\n\n")
		}
		currentChunk.WriteString(para)
	}

	if currentChunk.Len() > 0 {
		section := fmt.Sprintf("Chunk %d", chunkNum)
		chunks = append(chunks, NewChunk(currentChunk.String(), source, section, map[string]string{
			"chunk_num": fmt.Sprintf("%d", chunkNum),
			"method":    "paragraphs",
		}))
	}

	return chunks
}

// chunkBySize splits on a fixed rune window with overlap.
func (s *TextChunker) chunkBySize(content, source string) []Chunk {
	var chunks []Chunk
	runes := []rune(content)
	chunkNum := 1

	for i := 0; i < len(runes); i += s.config.MaxChunkSize - s.config.Overlap {
		end := i + s.config.MaxChunkSize
		if end > len(runes) {
			end = len(runes)
		}

		chunkText := string(runes[i:end])
		section := fmt.Sprintf("Chunk %d", chunkNum)

		chunks = append(chunks, NewChunk(chunkText, source, section, map[string]string{
			"chunk_num": fmt.Sprintf("%d", chunkNum),
			"method":    "size",
		}))

		chunkNum++

		if end >= len(runes) {
			break
		}
	}

	return chunks
}
