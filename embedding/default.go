package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"
)

// DefaultEmbeddingDims is the dimensionality of the bundled encoder,
// matching the 384-dim sentence encoders it stands in for.
const DefaultEmbeddingDims = 384

// DefaultEmbeddingModelName identifies vectors produced by the bundled
// encoder in collection metadata.
const DefaultEmbeddingModelName = "builtin-hashed-384"

// DefaultEmbedding is the bundled sentence encoder: token unigrams and
// bigrams are feature-hashed into a fixed 384-dim space with a sign hash,
// then L2-normalized. It is deterministic, needs no network or model files,
// and is safe for concurrent use. It backs the chroma_default provider, the
// semantic chunker, and the fallback when a configured provider is
// unavailable.
type DefaultEmbedding struct{}

var (
	defaultOnce     sync.Once
	defaultInstance *DefaultEmbedding
)

// Default returns the process-wide bundled encoder.
func Default() *DefaultEmbedding {
	defaultOnce.Do(func() {
		defaultInstance = &DefaultEmbedding{}
	})
	return defaultInstance
}

// GetTextEmbedding generates an embedding for a document text.
func (d *DefaultEmbedding) GetTextEmbedding(ctx context.Context, text string) ([]float64, error) {
	return d.embed(text), nil
}

// GetQueryEmbedding generates an embedding for a query.
func (d *DefaultEmbedding) GetQueryEmbedding(ctx context.Context, query string) ([]float64, error) {
	return d.embed(query), nil
}

// GetTextEmbeddingsBatch generates embeddings for multiple texts.
func (d *DefaultEmbedding) GetTextEmbeddingsBatch(ctx context.Context, texts []string, callback ProgressCallback) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = d.embed(text)
		if callback != nil {
			callback(i+1, len(texts))
		}
	}
	return vectors, nil
}

// Info returns information about the model's capabilities.
func (d *DefaultEmbedding) Info() EmbeddingInfo {
	return EmbeddingInfo{
		ModelName:  DefaultEmbeddingModelName,
		Dimensions: DefaultEmbeddingDims,
	}
}

func (d *DefaultEmbedding) embed(text string) []float64 {
	vec := make([]float64, DefaultEmbeddingDims)
	tokens := tokenize(text)
	if len(tokens) == 0 {
		// Whitespace-only input still needs a valid unit vector.
		vec[0] = 1
		return vec
	}

	for _, token := range tokens {
		addFeature(vec, token, 1.0)
	}
	// Bigrams carry word-order signal the bag of unigrams loses.
	for i := 0; i+1 < len(tokens); i++ {
		addFeature(vec, tokens[i]+" "+tokens[i+1], 0.5)
	}

	// Non-empty token list guarantees a non-zero vector.
	_ = NormalizeInPlace(vec)
	return vec
}

// addFeature hashes the feature into a bucket and a sign so collisions
// cancel in expectation.
func addFeature(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	bucket := int(sum % uint64(len(vec)))
	if (sum>>63)&1 == 1 {
		weight = -weight
	}
	vec[bucket] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

var (
	_ EmbeddingModel          = (*DefaultEmbedding)(nil)
	_ EmbeddingModelWithInfo  = (*DefaultEmbedding)(nil)
	_ EmbeddingModelWithBatch = (*DefaultEmbedding)(nil)
)
