package chunker

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownChunker splits markdown documents along headings, picking the
// heading level adaptively from the document's structure.
type MarkdownChunker struct {
	config Config
}

func NewMarkdownChunker(config Config) *MarkdownChunker {
	return &MarkdownChunker{config: config}
}

func (m *MarkdownChunker) Name() string {
	return "markdown"
}

// DocumentStructure summarizes the heading layout of a document.
type DocumentStructure struct {
	HeadingCounts   map[int]int // heading level -> count
	TotalParagraphs int
}

// ChunkingStrategy is the heading level the document gets split on.
type ChunkingStrategy struct {
	Level int // heading level (2-4)
}

func (m *MarkdownChunker) Chunk(content, source string) ([]Chunk, error) {
	md := goldmark.New()
	reader := text.NewReader([]byte(content))
	doc := md.Parser().Parse(reader)

	structure := m.analyzeStructure(doc)

	strategy, err := m.selectStrategy(structure)
	if err != nil {
		// No usable heading structure; the caller decides the fallback.
		return nil, fmt.Errorf("markdown chunker cannot process this content: %w", err)
	}

	chunks := m.chunkByHeadings(doc, []byte(content), source, strategy.Level)
	return chunks, nil
}

// analyzeStructure walks the AST counting headings per level and paragraphs.
func (m *MarkdownChunker) analyzeStructure(doc ast.Node) DocumentStructure {
	structure := DocumentStructure{
		HeadingCounts: make(map[int]int),
	}

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if heading, ok := n.(*ast.Heading); ok {
				structure.HeadingCounts[heading.Level]++
			}
			if _, ok := n.(*ast.Paragraph); ok {
				structure.TotalParagraphs++
			}
		}
		return ast.WalkContinue, nil
	})

	return structure
}

// selectStrategy picks the heading level to split on. Deeper levels need more
// headings before they are worth splitting by.
func (m *MarkdownChunker) selectStrategy(structure DocumentStructure) (ChunkingStrategy, error) {
	for level := 2; level <= 4; level++ {
		count := structure.HeadingCounts[level]
		minHeadings := 3
		switch level {
		case 2:
			minHeadings = 3
		case 3:
			minHeadings = 5
		default:
			minHeadings = 10
		}

		if count >= minHeadings {
			return ChunkingStrategy{Level: level}, nil
		}
	}

	return ChunkingStrategy{}, fmt.Errorf(
		"no suitable markdown structure found (headings: %v, paragraphs: %d)",
		structure.HeadingCounts, structure.TotalParagraphs,
	)
}

// chunkByHeadings splits the document at headings of the target level.
// Sub-headings stay inside the current chunk.
func (m *MarkdownChunker) chunkByHeadings(doc ast.Node, content []byte, source string, targetLevel int) []Chunk {
	var chunks []Chunk
	var currentChunk strings.Builder
	var currentSection string
	var parentSection string
	var currentLevel int

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if heading, ok := n.(*ast.Heading); ok {
				headingText := extractText(heading, content)

				if heading.Level <= targetLevel {
					if currentChunk.Len() > 0 {
						chunks = append(chunks, m.finalizeChunk(
							currentChunk.String(),
							source,
							currentSection,
							parentSection,
							currentLevel,
						)...)
						currentChunk.Reset()
					}

					currentSection = headingText
					currentLevel = heading.Level

					if heading.Level == targetLevel {
						parentSection = headingText
					}

					currentChunk.WriteString(headingText + "\n\n")
				} else {
					currentChunk.WriteString("\n" + headingText + "\n\n")
				}
			} else if textNode, ok := n.(*ast.Text); ok {
				currentChunk.Write(textNode.Segment.Value(content))
			}
		} else {
			if _, ok := n.(*ast.Paragraph); ok {
				currentChunk.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})

	if currentChunk.Len() > 0 {
		chunks = append(chunks, m.finalizeChunk(
			currentChunk.String(),
			source,
			currentSection,
			parentSection,
			currentLevel,
		)...)
	}

	return chunks
}

// finalizeChunk splits an oversized chunk and records section lineage.
func (m *MarkdownChunker) finalizeChunk(text, source, section, parentSection string, level int) []Chunk {
	text = strings.TrimSpace(text)

	if len(text) <= m.config.MaxChunkSize {
		metadata := map[string]string{
			"level": fmt.Sprintf("%d", level),
		}
		if parentSection != "" && parentSection != section {
			metadata["parent_section"] = parentSection
		}
		return []Chunk{NewChunk(text, source, section, metadata)}
	}

	return m.splitLargeChunk(text, source, section, parentSection, level)
}

// splitLargeChunk splits an oversized section at paragraph boundaries,
// overlapping parts for sub-sections so context carries across the cut.
func (m *MarkdownChunker) splitLargeChunk(text, source, section, parentSection string, level int) []Chunk {
	paragraphs := SplitByParagraphs(text)
	var chunks []Chunk
	var currentPart strings.Builder
	partNum := 1
	var prevTail string

	// Overlap only matters below the top split level.
	useOverlap := level > 2 && m.config.Overlap > 0

	for _, para := range paragraphs {
		if currentPart.Len() > 0 && currentPart.Len()+len(para) > m.config.MaxChunkSize {
			partText := currentPart.String()

			sectionWithPart := section
			if partNum > 1 {
				sectionWithPart = fmt.Sprintf("%s (part %d)", section, partNum)
			}

			metadata := map[string]string{
				"level":     fmt.Sprintf("%d", level),
				"part":      fmt.Sprintf("%d", partNum),
				"has_parts": "true",
			}
			if parentSection != "" && parentSection != section {
				metadata["parent_section"] = parentSection
			}

			chunks = append(chunks, NewChunk(partText, source, sectionWithPart, metadata))

			if useOverlap {
				prevTail = LastNChars(partText, m.config.Overlap)
			}

			currentPart.Reset()

			if useOverlap && prevTail != "" {
				currentPart.WriteString(prevTail)
				currentPart.WriteString("\n\n")
			}

			partNum++
		}

		if currentPart.Len() > 0 {
			currentPart.WriteString("\n\n")
		}
		currentPart.WriteString(para)
	}

	if currentPart.Len() > 0 {
		sectionWithPart := section
		if partNum > 1 {
			sectionWithPart = fmt.Sprintf("%s (part %d)", section, partNum)
		}

		metadata := map[string]string{
			"level": fmt.Sprintf("%d", level),
		}
		if partNum > 1 {
			metadata["part"] = fmt.Sprintf("%d", partNum)
			metadata["has_parts"] = "true"
		}
		if parentSection != "" && parentSection != section {
			metadata["parent_section"] = parentSection
		}

		chunks = append(chunks, NewChunk(currentPart.String(), source, sectionWithPart, metadata))
	}

	return chunks
}

// extractText collects the text content of an AST node's children.
func extractText(node ast.Node, source []byte) string {
	var buf strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		if textNode, ok := child.(*ast.Text); ok {
			buf.Write(textNode.Segment.Value(source))
		}
	}
	return buf.String()
}
