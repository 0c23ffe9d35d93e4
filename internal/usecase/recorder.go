package usecase

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"twin-core/internal/domain/entity"
	"twin-core/internal/domain/repository"
	"twin-core/internal/metrics"

	"go.uber.org/zap"
)

// Recorder writes interaction entries to the in-memory store synchronously and hands a
// copy to the archive through a bounded queue drained by one worker. Archive delivery is
// best effort: a full queue or a failed write drops the entry with a warning.
type Recorder struct {
	memory  repository.InteractionLog
	archive repository.LogArchive

	mu     sync.RWMutex
	closed bool
	queue  chan entity.InteractionLogEntry
	wg     sync.WaitGroup
	log    *zap.Logger
}

// NewRecorder starts the archive worker when archive is non-nil.
func NewRecorder(memory repository.InteractionLog, archive repository.LogArchive, queueSize int, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	r := &Recorder{memory: memory, archive: archive, log: log}
	if archive != nil {
		r.queue = make(chan entity.InteractionLogEntry, queueSize)
		r.wg.Add(1)
		go r.drain()
	}
	return r
}

func (r *Recorder) Append(ctx context.Context, e entity.InteractionLogEntry) error {
	if err := r.memory.Append(ctx, e); err != nil {
		return err
	}
	if r.queue == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil
	}
	select {
	case r.queue <- e:
	default:
		metrics.LogWriteFailures.WithLabelValues("archive").Inc()
		r.log.Warn("archive queue full, dropping entry", zap.String("entry_id", e.ID))
	}
	return nil
}

func (r *Recorder) drain() {
	defer r.wg.Done()
	for e := range r.queue {
		if err := r.archive.Write(context.Background(), e); err != nil {
			metrics.LogWriteFailures.WithLabelValues("archive").Inc()
			r.log.Warn("archive write failed", zap.String("entry_id", e.ID), zap.Error(err))
		}
	}
}

// Close flushes queued entries and closes the archive.
func (r *Recorder) Close() error {
	if r.queue == nil {
		return nil
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
	return r.archive.Close()
}

// Restore replays up to limit of the newest archived entries into the memory store,
// oldest first so session aggregates see them in order.
func Restore(ctx context.Context, archive repository.LogArchive, memory repository.InteractionLog, limit int) (int, error) {
	entries, err := archive.Query(ctx, entity.LogQuery{Limit: limit})
	if err != nil {
		return 0, fmt.Errorf("restore interaction log: %w", err)
	}
	slices.Reverse(entries)
	for _, e := range entries {
		if err := memory.Append(ctx, e); err != nil {
			return 0, fmt.Errorf("restore interaction log: %w", err)
		}
	}
	return len(entries), nil
}
