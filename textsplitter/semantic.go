package textsplitter

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"

	"github.com/aqua777/ragpipe/embedding"
)

// A topic break is honored only once the current group holds at least this
// share of ChunkSize, so noisy similarity dips don't produce confetti.
const semanticMinFill = 0.3

// SemanticSplitter groups sentences by embedding similarity. A new chunk
// starts where consecutive sentences diverge (similarity more than one
// standard deviation below the mean) or where the size budget runs out.
// When the encoder fails the recursive strategy takes over for the whole
// text.
type SemanticSplitter struct {
	ChunkSize int

	encoder   embedding.EmbeddingModel
	tokenizer *sentences.DefaultSentenceTokenizer
	fallback  *RecursiveSplitter
	logger    *slog.Logger
}

// SemanticOption configures a SemanticSplitter.
type SemanticOption func(*SemanticSplitter)

// WithSemanticLogger sets the logger.
func WithSemanticLogger(logger *slog.Logger) SemanticOption {
	return func(s *SemanticSplitter) {
		s.logger = logger
	}
}

// NewSemanticSplitter creates a semantic splitter. A nil encoder selects
// the bundled local default, so the strategy works offline.
func NewSemanticSplitter(chunkSize int, encoder embedding.EmbeddingModel, opts ...SemanticOption) (*SemanticSplitter, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load english sentence tokenizer: %w", err)
	}
	if encoder == nil {
		encoder = embedding.Default()
	}

	s := &SemanticSplitter{
		ChunkSize: chunkSize,
		encoder:   encoder,
		tokenizer: tokenizer,
		fallback:  NewRecursiveSplitter(chunkSize, 0),
		logger:    slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SplitText implements TextSplitter.
func (s *SemanticSplitter) SplitText(text string) []string {
	chunks, err := s.SplitTextContext(context.Background(), text)
	if err != nil {
		return s.fallback.SplitText(text)
	}
	return chunks
}

// SplitTextContext implements ContextSplitter.
func (s *SemanticSplitter) SplitTextContext(ctx context.Context, text string) ([]string, error) {
	sents := s.sentences(text)
	if len(sents) <= 1 {
		return sents, nil
	}

	vectors := make([][]float64, len(sents))
	for i, sent := range sents {
		vec, err := s.encoder.GetTextEmbedding(ctx, sent)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("sentence encoder failed, using recursive split", "error", err)
			return s.fallback.SplitText(text), nil
		}
		vectors[i] = vec
	}

	sims := make([]float64, len(sents)-1)
	for i := range sims {
		sims[i], _ = embedding.CosineSimilarity(vectors[i], vectors[i+1])
	}
	threshold := breakThreshold(sims)

	var chunks []string
	current := sents[0]
	for i := 1; i < len(sents); i++ {
		next := sents[i]
		curLen := utf8.RuneCountInString(current)

		topicBreak := sims[i-1] < threshold &&
			float64(curLen) >= semanticMinFill*float64(s.ChunkSize)
		sizeBreak := curLen+1+utf8.RuneCountInString(next) > s.ChunkSize

		if topicBreak || sizeBreak {
			chunks = append(chunks, current)
			current = next
			continue
		}
		current += " " + next
	}
	chunks = append(chunks, current)
	return chunks, nil
}

func (s *SemanticSplitter) sentences(text string) []string {
	raw := s.tokenizer.Tokenize(text)
	out := make([]string, 0, len(raw))
	for _, sent := range raw {
		if trimmed := strings.TrimSpace(sent.Text); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// breakThreshold returns mean − 1σ over the consecutive similarities.
func breakThreshold(sims []float64) float64 {
	mean := 0.0
	for _, v := range sims {
		mean += v
	}
	mean /= float64(len(sims))

	variance := 0.0
	for _, v := range sims {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(sims))

	return mean - math.Sqrt(variance)
}

var (
	_ TextSplitter    = (*SemanticSplitter)(nil)
	_ ContextSplitter = (*SemanticSplitter)(nil)
)
