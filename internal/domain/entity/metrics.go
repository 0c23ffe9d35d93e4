package entity

import (
	"fmt"
	"strings"
	"time"
)

type TimeRange string

const (
	RangeDay   TimeRange = "day"
	RangeWeek  TimeRange = "week"
	RangeMonth TimeRange = "month"
	RangeAll   TimeRange = "all"
)

// ParseTimeRange accepts day|week|month|all (case-insensitive). Empty means all.
func ParseTimeRange(s string) (TimeRange, error) {
	switch r := TimeRange(strings.ToLower(strings.TrimSpace(s))); r {
	case RangeDay, RangeWeek, RangeMonth, RangeAll:
		return r, nil
	case "":
		return RangeAll, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeRange, s)
	}
}

// Duration returns the window length, or zero for RangeAll.
func (r TimeRange) Duration() time.Duration {
	switch r {
	case RangeDay:
		return 24 * time.Hour
	case RangeWeek:
		return 7 * 24 * time.Hour
	case RangeMonth:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

type LatencyHistogram struct {
	Fast   int `json:"fast"`   // < 1s
	Medium int `json:"medium"` // 1-3s
	Slow   int `json:"slow"`   // > 3s
}

type QuestionCount struct {
	Question string `json:"question"`
	Count    int    `json:"count"`
}

// MetricsSnapshot is recomputed on every request and never persisted.
type MetricsSnapshot struct {
	Range                  TimeRange        `json:"range"`
	GeneratedAt            time.Time        `json:"generatedAt"`
	TotalInteractions      int              `json:"totalInteractions"`
	Successful             int              `json:"successful"`
	Failed                 int              `json:"failed"`
	SuccessRate            float64          `json:"successRate"`
	CacheHitRate           float64          `json:"cacheHitRate"`
	AverageResponseTimeMs  float64          `json:"averageResponseTimeMs"`
	P50ResponseTimeMs      int64            `json:"p50ResponseTimeMs"`
	P95ResponseTimeMs      int64            `json:"p95ResponseTimeMs"`
	P99ResponseTimeMs      int64            `json:"p99ResponseTimeMs"`
	LatencyHistogram       LatencyHistogram `json:"latencyHistogram"`
	TopQuestions           []QuestionCount  `json:"topQuestions"`
	CategoryCounts         map[string]int   `json:"categoryCounts"`
	HourlyDistribution     [24]int          `json:"hourlyDistribution"`
	UniqueSessions         int              `json:"uniqueSessions"`
	AverageContextSnippets float64          `json:"averageContextSnippets"`
}
