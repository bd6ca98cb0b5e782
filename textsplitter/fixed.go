package textsplitter

import "strings"

// FixedSizeSplitter cuts windows of ChunkSize runes, advancing by
// ChunkSize−ChunkOverlap so consecutive chunks share an overlap.
type FixedSizeSplitter struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewFixedSizeSplitter creates a fixed-size splitter.
func NewFixedSizeSplitter(chunkSize, chunkOverlap int) *FixedSizeSplitter {
	return &FixedSizeSplitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
}

// SplitText implements TextSplitter.
func (s *FixedSizeSplitter) SplitText(text string) []string {
	runes := []rune(text)
	var chunks []string
	for start := 0; start < len(runes); {
		end := start + s.ChunkSize
		sliceEnd := end
		if sliceEnd > len(runes) {
			sliceEnd = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:sliceEnd]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		// Advance from the unclamped end so the tail window is not
		// re-emitted, and never stall when overlap >= size.
		next := end - s.ChunkOverlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

var _ TextSplitter = (*FixedSizeSplitter)(nil)
