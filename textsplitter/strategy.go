package textsplitter

import (
	"fmt"

	"github.com/aqua777/ragpipe/embedding"
	"github.com/aqua777/ragpipe/schema"
)

// ForConfig builds the splitter for a chunking config. The encoder is used
// only by the semantic strategy; nil selects the bundled default. An empty
// strategy means recursive.
func ForConfig(cfg schema.ChunkingConfig, encoder embedding.EmbeddingModel) (TextSplitter, error) {
	switch cfg.Strategy {
	case schema.ChunkingFixedSize:
		return NewFixedSizeSplitter(cfg.ChunkSize, cfg.ChunkOverlap), nil
	case schema.ChunkingRecursive, "":
		return NewRecursiveSplitter(cfg.ChunkSize, cfg.ChunkOverlap), nil
	case schema.ChunkingSentence:
		return NewSentenceSplitter(cfg.ChunkSize), nil
	case schema.ChunkingParagraph:
		return NewParagraphSplitter(cfg.ChunkSize), nil
	case schema.ChunkingSemantic:
		return NewSemanticSplitter(cfg.ChunkSize, encoder)
	}
	return nil, fmt.Errorf("unknown chunking strategy %q", cfg.Strategy)
}
