package chunker

import (
	"strings"
)

// NewChunk builds a chunk with trimmed text and a non-nil metadata map.
func NewChunk(text, source, section string, metadata map[string]string) Chunk {
	if metadata == nil {
		metadata = make(map[string]string)
	}
	return Chunk{
		Text:     strings.TrimSpace(text),
		Source:   source,
		Section:  section,
		Metadata: metadata,
	}
}

// LastNChars returns the last n characters of text, for overlap.
func LastNChars(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}

// SplitByParagraphs splits text on blank lines, dropping empty paragraphs.
func SplitByParagraphs(text string) []string {
	paragraphs := strings.Split(text, "\n\n")
	var result []string
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
