package embedding

import "context"

// MockEmbeddingModel is a test double. When Fn is set it computes the
// vector; otherwise Embedding and Err are returned as-is.
type MockEmbeddingModel struct {
	Embedding []float64
	Err       error
	Fn        func(text string) []float64
}

func (m *MockEmbeddingModel) GetTextEmbedding(ctx context.Context, text string) ([]float64, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Fn != nil {
		return m.Fn(text), nil
	}
	return m.Embedding, nil
}

func (m *MockEmbeddingModel) GetQueryEmbedding(ctx context.Context, query string) ([]float64, error) {
	return m.GetTextEmbedding(ctx, query)
}

var _ EmbeddingModel = (*MockEmbeddingModel)(nil)
