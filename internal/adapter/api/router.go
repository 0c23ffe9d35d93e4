package api

import (
	"twin-core/internal/domain/entity"
	"twin-core/internal/domain/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Version    string
	Env        string
	Limiter    repository.RateLimiter // nil disables rate limiting
	Log        *zap.Logger
	AccessLogs bool
}

func SetupRouter(app *fiber.App, chat *ChatHandler, analytics *AnalyticsHandler, cfg RouterConfig) {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.AccessLogs {
		app.Use(logger.New())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "healthy",
			"version": cfg.Version,
			"env":     cfg.Env,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/v1")
	if cfg.Limiter != nil {
		v1.Post("/chat", RateLimit(cfg.Limiter, cfg.Log), chat.HandleChat)
	} else {
		v1.Post("/chat", chat.HandleChat)
	}

	v1.Get("/analytics", analytics.HandleMetrics)
	v1.Get("/logs", analytics.HandleLogs)
	v1.Get("/sessions", analytics.HandleSessions)
	v1.Get("/sessions/:id", analytics.HandleSession)
	v1.Delete("/cache", analytics.HandleClearCache)
}

// RateLimit enforces the per-session question quota. The subject is the session header,
// or the client IP when there is none. Limiter errors fail open.
func RateLimit(l repository.RateLimiter, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject := c.Get(SessionHeader)
		if subject == "" {
			subject = c.IP()
		}
		allowed, err := l.Allow(c.UserContext(), subject)
		if err != nil {
			log.Warn("rate limiter unavailable, allowing request", zap.Error(err))
			return c.Next()
		}
		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": entity.ErrRateLimitExceeded.Error()})
		}
		return c.Next()
	}
}
