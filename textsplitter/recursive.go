package textsplitter

import (
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried in order by the recursive strategy, from the
// coarsest boundary (blank line) to the finest (single space).
var DefaultSeparators = []string{"\n\n", "\n", ". ", " "}

// RecursiveSplitter packs separator-delimited parts greedily up to
// ChunkSize. A part that is itself oversized recurses with the remaining,
// finer separators; when no separator applies the fixed-size splitter
// takes over.
type RecursiveSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// NewRecursiveSplitter creates a recursive splitter with the default
// separator cascade.
func NewRecursiveSplitter(chunkSize, chunkOverlap int) *RecursiveSplitter {
	return &RecursiveSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   DefaultSeparators,
	}
}

// SplitText implements TextSplitter.
func (s *RecursiveSplitter) SplitText(text string) []string {
	seps := s.Separators
	if seps == nil {
		seps = DefaultSeparators
	}
	return s.split(text, seps)
}

func (s *RecursiveSplitter) split(text string, separators []string) []string {
	if utf8.RuneCountInString(text) <= s.ChunkSize {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	for i, sep := range separators {
		if !strings.Contains(text, sep) {
			continue
		}

		var chunks []string
		current := ""
		for _, part := range strings.Split(text, sep) {
			candidate := part
			if current != "" {
				candidate = current + sep + part
			}
			if utf8.RuneCountInString(candidate) <= s.ChunkSize {
				current = candidate
				continue
			}

			if trimmed := strings.TrimSpace(current); trimmed != "" {
				chunks = append(chunks, trimmed)
			}
			if utf8.RuneCountInString(part) > s.ChunkSize {
				chunks = append(chunks, s.split(part, separators[i+1:])...)
				current = ""
			} else {
				current = part
			}
		}
		if trimmed := strings.TrimSpace(current); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		return chunks
	}

	fixed := FixedSizeSplitter{ChunkSize: s.ChunkSize, ChunkOverlap: s.ChunkOverlap}
	return fixed.SplitText(text)
}

var _ TextSplitter = (*RecursiveSplitter)(nil)
