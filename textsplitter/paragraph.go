package textsplitter

import "unicode/utf8"

// ParagraphSplitter emits one chunk per paragraph, handing oversized
// paragraphs to the sentence splitter.
type ParagraphSplitter struct {
	ChunkSize int
}

// NewParagraphSplitter creates a paragraph splitter.
func NewParagraphSplitter(chunkSize int) *ParagraphSplitter {
	return &ParagraphSplitter{ChunkSize: chunkSize}
}

// SplitText implements TextSplitter.
func (s *ParagraphSplitter) SplitText(text string) []string {
	sentenceFallback := SentenceSplitter{ChunkSize: s.ChunkSize}
	var chunks []string
	for _, para := range SplitParagraphs(text) {
		if utf8.RuneCountInString(para) <= s.ChunkSize {
			chunks = append(chunks, para)
			continue
		}
		chunks = append(chunks, sentenceFallback.SplitText(para)...)
	}
	return chunks
}

var _ TextSplitter = (*ParagraphSplitter)(nil)
