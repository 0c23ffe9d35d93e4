package usecase

import (
	"context"
	"math"
	"slices"
	"strings"
	"time"

	"twin-core/internal/domain/entity"
	"twin-core/internal/domain/repository"
)

const DefaultTopQuestions = 10

// ComputeMetrics summarises the entries that fall inside window, measured back from now.
// Hours are bucketed in loc (time.Local when nil). The result depends only on its inputs.
func ComputeMetrics(entries []entity.InteractionLogEntry, window entity.TimeRange, now time.Time, loc *time.Location) entity.MetricsSnapshot {
	if loc == nil {
		loc = time.Local
	}
	if window == "" {
		window = entity.RangeAll
	}
	snap := entity.MetricsSnapshot{
		Range:          window,
		GeneratedAt:    now,
		TopQuestions:   []entity.QuestionCount{},
		CategoryCounts: map[string]int{},
	}

	var cutoff time.Time
	if d := window.Duration(); d > 0 {
		cutoff = now.Add(-d)
	}

	type question struct {
		count     int
		firstSeen time.Time
	}
	questions := make(map[string]*question)
	sessions := make(map[string]struct{})
	latencies := make([]int64, 0, len(entries))
	var totalMs, totalSnippets int64
	cacheHits := 0

	for _, e := range entries {
		if !cutoff.IsZero() && e.Timestamp.Before(cutoff) {
			continue
		}
		snap.TotalInteractions++
		if e.Succeeded {
			snap.Successful++
		} else {
			snap.Failed++
		}
		if e.FromCache {
			cacheHits++
		}

		latencies = append(latencies, e.ResponseTimeMs)
		totalMs += e.ResponseTimeMs
		totalSnippets += int64(e.ContextSnippetCount)
		switch {
		case e.ResponseTimeMs < 1000:
			snap.LatencyHistogram.Fast++
		case e.ResponseTimeMs <= 3000:
			snap.LatencyHistogram.Medium++
		default:
			snap.LatencyHistogram.Slow++
		}

		if q, ok := questions[e.UserMessage]; ok {
			q.count++
			if e.Timestamp.Before(q.firstSeen) {
				q.firstSeen = e.Timestamp
			}
		} else {
			questions[e.UserMessage] = &question{count: 1, firstSeen: e.Timestamp}
		}

		category := e.Category
		if category == "" {
			category = DefaultCategory
		}
		snap.CategoryCounts[category]++
		snap.HourlyDistribution[e.Timestamp.In(loc).Hour()]++

		if e.SessionID != "" {
			sessions[e.SessionID] = struct{}{}
		}
	}

	n := snap.TotalInteractions
	if n == 0 {
		return snap
	}
	snap.SuccessRate = percent(snap.Successful, n)
	snap.CacheHitRate = percent(cacheHits, n)
	snap.AverageResponseTimeMs = float64(totalMs) / float64(n)
	snap.AverageContextSnippets = float64(totalSnippets) / float64(n)
	snap.UniqueSessions = len(sessions)

	slices.Sort(latencies)
	snap.P50ResponseTimeMs = nearestRank(latencies, 50)
	snap.P95ResponseTimeMs = nearestRank(latencies, 95)
	snap.P99ResponseTimeMs = nearestRank(latencies, 99)

	for text, q := range questions {
		snap.TopQuestions = append(snap.TopQuestions, entity.QuestionCount{Question: text, Count: q.count})
	}
	slices.SortFunc(snap.TopQuestions, func(a, b entity.QuestionCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		if c := questions[a.Question].firstSeen.Compare(questions[b.Question].firstSeen); c != 0 {
			return c
		}
		return strings.Compare(a.Question, b.Question)
	})
	if len(snap.TopQuestions) > DefaultTopQuestions {
		snap.TopQuestions = snap.TopQuestions[:DefaultTopQuestions]
	}
	return snap
}

func percent(part, total int) float64 {
	return float64(part) * 100 / float64(total)
}

// nearestRank expects sorted input.
func nearestRank(sorted []int64, p float64) int64 {
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

// Analytics is the dashboard read model over the interaction log.
type Analytics struct {
	reader repository.InteractionReader
	now    func() time.Time
	loc    *time.Location
}

func NewAnalytics(reader repository.InteractionReader, loc *time.Location) *Analytics {
	return &Analytics{reader: reader, now: time.Now, loc: loc}
}

func (a *Analytics) Snapshot(ctx context.Context, window entity.TimeRange) (entity.MetricsSnapshot, error) {
	now := a.now()
	var q entity.LogQuery
	if d := window.Duration(); d > 0 {
		q.Since = now.Add(-d)
	}
	entries, err := a.reader.Query(ctx, q)
	if err != nil {
		return entity.MetricsSnapshot{}, err
	}
	return ComputeMetrics(entries, window, now, a.loc), nil
}

// Export returns the raw entries for external dashboards, newest first.
func (a *Analytics) Export(ctx context.Context, window entity.TimeRange, q entity.LogQuery) ([]entity.InteractionLogEntry, error) {
	if d := window.Duration(); d > 0 {
		since := a.now().Add(-d)
		if q.Since.Before(since) {
			q.Since = since
		}
	}
	return a.reader.Query(ctx, q)
}

func (a *Analytics) Session(id string) (entity.SessionAggregate, bool) {
	return a.reader.Session(id)
}

// Sessions lists every known session, most recently active first.
func (a *Analytics) Sessions() []entity.SessionAggregate {
	return a.reader.Sessions()
}
