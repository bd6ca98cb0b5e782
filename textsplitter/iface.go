// Package textsplitter implements the chunking strategies that turn parsed
// document text into retrieval-sized pieces. Sizes and overlaps are counted
// in characters (runes), matching the pipeline configuration bounds.
package textsplitter

import "context"

// TextSplitter is the interface for splitting text into chunks.
type TextSplitter interface {
	SplitText(text string) []string
}

// ContextSplitter is implemented by splitters that do work requiring a
// context while splitting; the semantic strategy embeds sentences.
type ContextSplitter interface {
	SplitTextContext(ctx context.Context, text string) ([]string, error)
}

// Split runs a splitter, routing through SplitTextContext when the
// splitter supports it.
func Split(ctx context.Context, s TextSplitter, text string) ([]string, error) {
	if cs, ok := s.(ContextSplitter); ok {
		return cs.SplitTextContext(ctx, text)
	}
	return s.SplitText(text), nil
}
