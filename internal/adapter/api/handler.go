package api

import (
	"errors"
	"strings"

	"twin-core/internal/domain/entity"
	"twin-core/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

const SessionHeader = "X-Session-ID"

type ChatHandler struct {
	pipeline *usecase.Pipeline
	log      *zap.Logger
}

func NewChatHandler(p *usecase.Pipeline, log *zap.Logger) *ChatHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatHandler{pipeline: p, log: log}
}

func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req entity.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	// Header values alias the request buffer and the session ID outlives the handler.
	if req.SessionID == "" {
		req.SessionID = utils.CopyString(c.Get(SessionHeader))
	}

	// The pipeline degrades every internal failure into a fallback answer, so only input
	// errors come back here.
	resp, err := h.pipeline.Respond(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		h.log.Error("chat pipeline returned an unexpected error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	c.Set("X-Twin-Cache-Hit", "false")
	if resp.FromCache {
		c.Set("X-Twin-Cache-Hit", "true")
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// CacheClearer empties the response cache.
type CacheClearer interface {
	Clear()
}

type AnalyticsHandler struct {
	analytics *usecase.Analytics
	cache     CacheClearer
}

func NewAnalyticsHandler(a *usecase.Analytics, cache CacheClearer) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: a, cache: cache}
}

func (h *AnalyticsHandler) HandleMetrics(c *fiber.Ctx) error {
	window, err := entity.ParseTimeRange(c.Query("range"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	snap, err := h.analytics.Snapshot(c.UserContext(), window)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not compute metrics"})
	}
	return c.JSON(snap)
}

func (h *AnalyticsHandler) HandleLogs(c *fiber.Ctx) error {
	window, err := entity.ParseTimeRange(c.Query("range"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must not be negative"})
	}

	entries, err := h.analytics.Export(c.UserContext(), window, entity.LogQuery{
		SessionID: c.Query("session"),
		Keyword:   strings.TrimSpace(c.Query("q")),
		Limit:     limit,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not read logs"})
	}
	return c.JSON(fiber.Map{
		"range":   window,
		"count":   len(entries),
		"entries": entries,
	})
}

func (h *AnalyticsHandler) HandleSessions(c *fiber.Ctx) error {
	sessions := h.analytics.Sessions()
	return c.JSON(fiber.Map{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

func (h *AnalyticsHandler) HandleSession(c *fiber.Ctx) error {
	agg, ok := h.analytics.Session(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": entity.ErrResourceNotFound.Error()})
	}
	return c.JSON(agg)
}

func (h *AnalyticsHandler) HandleClearCache(c *fiber.Ctx) error {
	h.cache.Clear()
	return c.SendStatus(fiber.StatusNoContent)
}
