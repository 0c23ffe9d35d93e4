package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"twin-core/internal/cache"
	"twin-core/internal/domain/entity"
	"twin-core/internal/domain/repository"
	"twin-core/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTopK     = 5
	DefaultCacheTTL = time.Hour

	FallbackMessage = "Sorry, I can't answer that right now. Please try again in a moment, or use the contact form to reach me directly."
)

type PipelineConfig struct {
	TopK            int
	CacheTTL        time.Duration
	FallbackMessage string
}

// Pipeline answers one chat message: cache probe, retrieval, generation, cache fill and
// an interaction log entry. Every call that passes input validation returns text and
// leaves exactly one log entry behind.
type Pipeline struct {
	retriever repository.ContextRetriever
	generator repository.AnswerGenerator
	cache     repository.ResponseCache
	logs      repository.InteractionLog

	topK     int
	cacheTTL time.Duration
	fallback string

	now      func() time.Time
	newID    func() string
	log      *zap.Logger
	inflight singleflight.Group
}

type PipelineOption func(*Pipeline)

func WithPipelineClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

func WithPipelineLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) { p.log = l }
}

func NewPipeline(retriever repository.ContextRetriever, generator repository.AnswerGenerator, rc repository.ResponseCache, logs repository.InteractionLog, cfg PipelineConfig, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		retriever: retriever,
		generator: generator,
		cache:     rc,
		logs:      logs,
		topK:      cfg.TopK,
		cacheTTL:  cfg.CacheTTL,
		fallback:  cfg.FallbackMessage,
		now:       time.Now,
		newID:     uuid.NewString,
		log:       zap.NewNop(),
	}
	if p.topK <= 0 {
		p.topK = DefaultTopK
	}
	if p.cacheTTL <= 0 {
		p.cacheTTL = DefaultCacheTTL
	}
	if p.fallback == "" {
		p.fallback = FallbackMessage
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// cachedAnswer is the JSON payload stored in the response cache.
type cachedAnswer struct {
	Text     string   `json:"text"`
	Category string   `json:"category"`
	Sources  []string `json:"sources,omitempty"`
}

type generation struct {
	text     string
	category string
	sources  []string
	snippets int
	err      error
}

// Respond runs the pipeline for req. Only a blank message is rejected; every other
// failure degrades into a fallback answer.
func (p *Pipeline) Respond(ctx context.Context, req entity.ChatRequest) (*entity.ChatResponse, error) {
	start := p.now()
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, fmt.Errorf("%w: message is required", entity.ErrInvalidRequest)
	}
	req.CategoryHint = strings.TrimSpace(req.CategoryHint)

	// Follow-up questions depend on the conversation so far and are never cached.
	cacheable := len(req.ConversationHistory) == 0
	var key string
	if cacheable {
		key = cache.DeriveKey(msg, req.CategoryHint)
		if resp, ok := p.fromCache(key); ok {
			metrics.PipelineRequests.WithLabelValues("cache_hit").Inc()
			p.record(ctx, req, resp, start, 0, nil)
			return resp, nil
		}
	} else {
		metrics.CacheLookups.WithLabelValues("bypass").Inc()
	}

	var g generation
	if cacheable {
		v, _, shared := p.inflight.Do(key, func() (any, error) {
			return p.generate(ctx, msg, req, key), nil
		})
		g = v.(generation)
		if shared {
			p.log.Debug("joined in-flight generation", zap.String("cache_key", key))
		}
	} else {
		g = p.generate(ctx, msg, req, "")
	}

	resp := &entity.ChatResponse{
		Text:        g.text,
		Category:    g.category,
		SourcesUsed: g.sources,
		Succeeded:   g.err == nil,
	}
	outcome := "generated"
	if g.err != nil {
		outcome = "failed"
		resp.Text = p.fallback
		resp.SourcesUsed = nil
	}
	metrics.PipelineRequests.WithLabelValues(outcome).Inc()
	metrics.PipelineDuration.WithLabelValues(outcome).Observe(p.now().Sub(start).Seconds())

	p.record(ctx, req, resp, start, g.snippets, g.err)
	return resp, nil
}

func (p *Pipeline) fromCache(key string) (*entity.ChatResponse, bool) {
	raw, ok := p.cache.Get(key)
	if !ok {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	var ans cachedAnswer
	if err := json.Unmarshal([]byte(raw), &ans); err != nil || ans.Text == "" {
		metrics.CacheLookups.WithLabelValues("corrupt").Inc()
		p.log.Warn("unreadable cache entry treated as miss", zap.String("cache_key", key), zap.Error(err))
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return &entity.ChatResponse{
		Text:        ans.Text,
		Category:    ans.Category,
		SourcesUsed: ans.Sources,
		FromCache:   true,
		Succeeded:   true,
	}, true
}

// generate runs classify, retrieve and generate. A non-empty key means the answer may be
// cached. Generation is detached from the caller's cancellation and runs to completion.
func (p *Pipeline) generate(ctx context.Context, msg string, req entity.ChatRequest, key string) generation {
	ctx = context.WithoutCancel(ctx)

	category := req.CategoryHint
	if category == "" {
		category = Classify(msg)
	}

	snippets, err := p.retriever.Search(ctx, msg, p.topK)
	if err != nil {
		metrics.RetrievalDegraded.Inc()
		p.log.Warn("retrieval degraded, answering without context", zap.Error(err))
		snippets = nil
	}
	metrics.SnippetsRetrieved.Observe(float64(len(snippets)))

	bundle := entity.ContextBundle{Category: category, Snippets: snippets}
	text, err := p.callGenerator(ctx, msg, bundle, req.ConversationHistory)
	g := generation{
		category: category,
		snippets: len(snippets),
		sources:  sourcesOf(snippets),
	}
	if err != nil {
		p.log.Error("answer generation failed", zap.String("category", category), zap.Error(err))
		g.err = err
		return g
	}
	g.text = text

	if key != "" {
		payload, err := json.Marshal(cachedAnswer{Text: text, Category: category, Sources: g.sources})
		if err == nil {
			p.cache.Set(key, string(payload), p.cacheTTL)
		}
	}
	return g
}

func (p *Pipeline) callGenerator(ctx context.Context, msg string, bundle entity.ContextBundle, history []entity.Message) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: generator panicked: %v", entity.ErrGenerationFailed, r)
		}
	}()

	text, err = p.generator.Generate(ctx, msg, bundle, history)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", entity.ErrEmptyAnswer
	}
	return text, nil
}

// record appends the interaction entry. A failed append costs analytics completeness,
// never the user's answer.
func (p *Pipeline) record(ctx context.Context, req entity.ChatRequest, resp *entity.ChatResponse, start time.Time, snippets int, genErr error) {
	entry := entity.InteractionLogEntry{
		ID:                  p.newID(),
		Timestamp:           start,
		UserMessage:         req.Message,
		AIResponse:          resp.Text,
		ResponseTimeMs:      p.now().Sub(start).Milliseconds(),
		Category:            resp.Category,
		ContextSnippetCount: snippets,
		SessionID:           req.SessionID,
		Succeeded:           genErr == nil,
		FromCache:           resp.FromCache,
	}
	if genErr != nil {
		entry.ErrorMessage = genErr.Error()
	}

	if err := p.logs.Append(context.WithoutCancel(ctx), entry); err != nil {
		metrics.LogWriteFailures.WithLabelValues("memory").Inc()
		p.log.Warn("interaction log append failed", zap.String("entry_id", entry.ID), zap.Error(err))
	}
}

func sourcesOf(snippets []entity.Snippet) []string {
	seen := make(map[string]struct{}, len(snippets))
	var out []string
	for _, s := range snippets {
		if s.Source == "" {
			continue
		}
		if _, dup := seen[s.Source]; dup {
			continue
		}
		seen[s.Source] = struct{}{}
		out = append(out, s.Source)
	}
	return out
}
