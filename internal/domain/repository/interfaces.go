package repository

import (
	"context"
	"time"

	"twin-core/internal/domain/entity"
)

// ContextRetriever returns up to topK snippets ordered by relevance. An empty or missing
// index yields an empty slice, not an error.
type ContextRetriever interface {
	Search(ctx context.Context, query string, topK int) ([]entity.Snippet, error)
}

type AnswerGenerator interface {
	Generate(ctx context.Context, query string, bundle entity.ContextBundle, history []entity.Message) (string, error)
}

type Embedder interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, subject string) (bool, error)
}

// ResponseCache is the slice of the TTL cache the pipeline needs.
type ResponseCache interface {
	Get(key string) (string, bool)
	Set(key, value string, ttl time.Duration)
}

// InteractionLog is where the pipeline records every invocation.
type InteractionLog interface {
	Append(ctx context.Context, entry entity.InteractionLogEntry) error
}

// InteractionReader is the read side used by analytics and the dashboard endpoints.
type InteractionReader interface {
	Query(ctx context.Context, q entity.LogQuery) ([]entity.InteractionLogEntry, error)
	Session(id string) (entity.SessionAggregate, bool)
	Sessions() []entity.SessionAggregate
}

// LogArchive persists entries outside the process.
type LogArchive interface {
	Write(ctx context.Context, entry entity.InteractionLogEntry) error
	Query(ctx context.Context, q entity.LogQuery) ([]entity.InteractionLogEntry, error)
	Close() error
}
