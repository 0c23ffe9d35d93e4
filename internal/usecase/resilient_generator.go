package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"twin-core/internal/domain/entity"
	"twin-core/internal/domain/repository"
	"twin-core/internal/metrics"

	"go.uber.org/zap"
)

// ResilientGenerator retries the primary model on transient errors, then tries the
// fallback model once. Each tier gets its own timeout budget.
type ResilientGenerator struct {
	primary    repository.AnswerGenerator
	fallback   repository.AnswerGenerator // optional
	maxRetries int
	baseDelay  time.Duration
	timeout    time.Duration
	log        *zap.Logger
}

func NewResilientGenerator(primary, fallback repository.AnswerGenerator, maxRetries int, timeout time.Duration, log *zap.Logger) *ResilientGenerator {
	if log == nil {
		log = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &ResilientGenerator{
		primary:    primary,
		fallback:   fallback,
		maxRetries: maxRetries,
		baseDelay:  500 * time.Millisecond,
		timeout:    timeout,
		log:        log,
	}
}

func (r *ResilientGenerator) Generate(ctx context.Context, query string, bundle entity.ContextBundle, history []entity.Message) (string, error) {
	resCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	text, err := r.executeWithRetry(resCtx, query, bundle, history)
	if err == nil {
		return text, nil
	}
	if r.fallback == nil {
		return "", err
	}

	r.log.Warn("primary generator exhausted, switching to fallback", zap.Error(err))

	fbCtx, fbCancel := context.WithTimeout(ctx, r.timeout)
	defer fbCancel()

	text, err = r.fallback.Generate(fbCtx, query, bundle, history)
	if err != nil {
		metrics.GenerationAttempts.WithLabelValues("fallback", "error").Inc()
		return "", fmt.Errorf("both primary and fallback failed: %w", err)
	}
	metrics.GenerationAttempts.WithLabelValues("fallback", "ok").Inc()
	return text, nil
}

func (r *ResilientGenerator) executeWithRetry(ctx context.Context, query string, bundle entity.ContextBundle, history []entity.Message) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		text, err := r.primary.Generate(ctx, query, bundle, history)
		if err == nil {
			metrics.GenerationAttempts.WithLabelValues("primary", "ok").Inc()
			return text, nil
		}
		metrics.GenerationAttempts.WithLabelValues("primary", "error").Inc()
		lastErr = err

		if !isRetryable(err) || attempt == r.maxRetries {
			break
		}

		select {
		case <-time.After(r.backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

// isRetryable matches deadlines and the transient provider failures the model clients
// classify by status code.
func isRetryable(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, entity.ErrProviderUnavailable)
}

func (r *ResilientGenerator) backoff(attempt int) time.Duration {
	backoff := float64(r.baseDelay) * float64(int(1)<<attempt)
	jitter := (rand.Float64() * 0.2) * backoff // 20% jitter
	return time.Duration(backoff + jitter)
}
