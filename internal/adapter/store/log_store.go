package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"twin-core/internal/domain/entity"

	"go.uber.org/zap"
)

const DefaultMaxLogs = 1000

type sessionState struct {
	agg  entity.SessionAggregate
	seen map[string]struct{}
}

// MemoryLogStore keeps the newest maxLogs interaction entries in a ring buffer and a
// running aggregate per session. Aggregates are streaming summaries and outlive the
// entries they were built from.
type MemoryLogStore struct {
	mu       sync.RWMutex
	buf      []entity.InteractionLogEntry
	head     int // index of the oldest entry
	n        int
	sessions map[string]*sessionState
	now      func() time.Time
	log      *zap.Logger
}

type LogStoreOption func(*MemoryLogStore)

func WithLogStoreClock(now func() time.Time) LogStoreOption {
	return func(s *MemoryLogStore) { s.now = now }
}

func WithLogStoreLogger(l *zap.Logger) LogStoreOption {
	return func(s *MemoryLogStore) { s.log = l }
}

func NewMemoryLogStore(maxLogs int, opts ...LogStoreOption) *MemoryLogStore {
	if maxLogs <= 0 {
		maxLogs = DefaultMaxLogs
	}
	s := &MemoryLogStore{
		buf:      make([]entity.InteractionLogEntry, maxLogs),
		sessions: make(map[string]*sessionState),
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append adds entry, overwriting the oldest one when the buffer is full.
func (s *MemoryLogStore) Append(_ context.Context, e entity.InteractionLogEntry) error {
	if e.ID == "" {
		return entity.ErrInvalidLogEntry
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	capacity := len(s.buf)
	if s.n < capacity {
		s.buf[(s.head+s.n)%capacity] = e
		s.n++
	} else {
		s.buf[s.head] = e
		s.head = (s.head + 1) % capacity
	}

	if e.SessionID != "" {
		s.updateSessionLocked(e)
	}
	return nil
}

func (s *MemoryLogStore) updateSessionLocked(e entity.InteractionLogEntry) {
	st, ok := s.sessions[e.SessionID]
	if !ok {
		st = &sessionState{
			agg: entity.SessionAggregate{
				SessionID: e.SessionID,
				FirstSeen: e.Timestamp,
			},
			seen: make(map[string]struct{}),
		}
		s.sessions[e.SessionID] = st
	}

	a := &st.agg
	a.QuestionCount++
	a.AverageResponseTimeMs += (float64(e.ResponseTimeMs) - a.AverageResponseTimeMs) / float64(a.QuestionCount)
	if e.Timestamp.Before(a.FirstSeen) {
		a.FirstSeen = e.Timestamp
	}
	if e.Timestamp.After(a.LastSeen) {
		a.LastSeen = e.Timestamp
	}
	if e.Category != "" {
		if _, dup := st.seen[e.Category]; !dup {
			st.seen[e.Category] = struct{}{}
			a.Categories = append(a.Categories, e.Category)
		}
	}
}

// at returns the i-th entry counting from the oldest.
func (s *MemoryLogStore) at(i int) entity.InteractionLogEntry {
	return s.buf[(s.head+i)%len(s.buf)]
}

// Query returns matching entries, newest first.
func (s *MemoryLogStore) Query(_ context.Context, q entity.LogQuery) ([]entity.InteractionLogEntry, error) {
	keyword := strings.ToLower(strings.TrimSpace(q.Keyword))

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.InteractionLogEntry, 0, min(s.n, 64))
	for i := s.n - 1; i >= 0; i-- {
		e := s.at(i)
		if !q.Since.IsZero() && e.Timestamp.Before(q.Since) {
			continue
		}
		if q.SessionID != "" && e.SessionID != q.SessionID {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(e.UserMessage), keyword) &&
			!strings.Contains(strings.ToLower(e.AIResponse), keyword) {
			continue
		}
		out = append(out, e)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// Entries exports the whole buffer, newest first.
func (s *MemoryLogStore) Entries(ctx context.Context) []entity.InteractionLogEntry {
	out, _ := s.Query(ctx, entity.LogQuery{})
	return out
}

// PurgeOlderThan removes entries with a timestamp before cutoff and reports how many
// were dropped.
func (s *MemoryLogStore) PurgeOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]entity.InteractionLogEntry, 0, s.n)
	for i := 0; i < s.n; i++ {
		if e := s.at(i); !e.Timestamp.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := s.n - len(kept)
	if removed == 0 {
		return 0, nil
	}

	clear(s.buf)
	copy(s.buf, kept)
	s.head = 0
	s.n = len(kept)
	return removed, nil
}

// StartRetention purges entries older than maxAge every interval until ctx is done.
func (s *MemoryLogStore) StartRetention(ctx context.Context, maxAge, interval time.Duration) {
	if maxAge <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, _ := s.PurgeOlderThan(ctx, s.now().Add(-maxAge))
				if n > 0 {
					s.log.Info("purged interaction logs", zap.Int("removed", n), zap.Duration("max_age", maxAge))
				}
			}
		}
	}()
}

func (s *MemoryLogStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.n
}

// Session returns a copy of the aggregate for id.
func (s *MemoryLogStore) Session(id string) (entity.SessionAggregate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[id]
	if !ok {
		return entity.SessionAggregate{}, false
	}
	agg := st.agg
	agg.Categories = slices.Clone(st.agg.Categories)
	return agg, true
}

// Sessions returns every aggregate, most recently active first.
func (s *MemoryLogStore) Sessions() []entity.SessionAggregate {
	s.mu.RLock()
	out := make([]entity.SessionAggregate, 0, len(s.sessions))
	for _, st := range s.sessions {
		agg := st.agg
		agg.Categories = slices.Clone(st.agg.Categories)
		out = append(out, agg)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b entity.SessionAggregate) int {
		if c := b.LastSeen.Compare(a.LastSeen); c != 0 {
			return c
		}
		return strings.Compare(a.SessionID, b.SessionID)
	})
	return out
}
