package textsplitter

import "unicode/utf8"

// SentenceSplitter packs whole sentences greedily up to ChunkSize. A
// single sentence longer than ChunkSize becomes its own oversized chunk
// rather than being cut mid-sentence.
type SentenceSplitter struct {
	ChunkSize int
}

// NewSentenceSplitter creates a sentence splitter.
func NewSentenceSplitter(chunkSize int) *SentenceSplitter {
	return &SentenceSplitter{ChunkSize: chunkSize}
}

// SplitText implements TextSplitter.
func (s *SentenceSplitter) SplitText(text string) []string {
	var chunks []string
	current := ""
	for _, sentence := range SplitSentences(text) {
		candidate := sentence
		if current != "" {
			candidate = current + " " + sentence
		}
		if utf8.RuneCountInString(candidate) <= s.ChunkSize {
			current = candidate
			continue
		}
		if current != "" {
			chunks = append(chunks, current)
		}
		current = sentence
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

var _ TextSplitter = (*SentenceSplitter)(nil)
