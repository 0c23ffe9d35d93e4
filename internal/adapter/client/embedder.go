package client

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	taskQuery    = "RETRIEVAL_QUERY"
	taskDocument = "RETRIEVAL_DOCUMENT"

	// maxEmbedBatch is the per-request content limit of the embedding API.
	maxEmbedBatch = 100
)

// Embedder turns visitor questions and profile snippets into vectors. Questions and
// documents are embedded with different task types so they land in comparable spaces.
type Embedder struct {
	client *genai.Client
	model  string // e.g., "text-embedding-004"
	dim    int32
}

// NewEmbedderFromClient reuses the shared SDK client. dim <= 0 keeps the model default.
func NewEmbedderFromClient(c *genai.Client, model string, dim int32) *Embedder {
	return &Embedder{
		client: c,
		model:  model,
		dim:    dim,
	}
}

func (e *Embedder) config(task string) *genai.EmbedContentConfig {
	cfg := &genai.EmbedContentConfig{TaskType: task}
	if e.dim > 0 {
		cfg.OutputDimensionality = genai.Ptr(e.dim)
	}
	return cfg
}

// CreateEmbedding embeds a search query.
func (e *Embedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	res, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), e.config(taskQuery))
	if err != nil {
		return nil, err
	}
	if len(res.Embeddings) == 0 {
		return nil, fmt.Errorf("embedding response was empty")
	}
	return res.Embeddings[0].Values, nil
}

// EmbedDocuments embeds texts for storage, batching requests. The result is index-aligned
// with texts.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for batch := range chunk(texts, maxEmbedBatch) {
		contents := make([]*genai.Content, len(batch))
		for i, t := range batch {
			contents[i] = genai.NewContentFromText(t, genai.RoleUser)
		}
		res, err := e.client.Models.EmbedContent(ctx, e.model, contents, e.config(taskDocument))
		if err != nil {
			return nil, err
		}
		if len(res.Embeddings) != len(batch) {
			return nil, fmt.Errorf("embedding response has %d vectors for %d texts", len(res.Embeddings), len(batch))
		}
		for _, emb := range res.Embeddings {
			out = append(out, emb.Values)
		}
	}
	return out, nil
}

func chunk[T any](items []T, size int) func(yield func([]T) bool) {
	return func(yield func([]T) bool) {
		for start := 0; start < len(items); start += size {
			if !yield(items[start:min(start+size, len(items))]) {
				return
			}
		}
	}
}
