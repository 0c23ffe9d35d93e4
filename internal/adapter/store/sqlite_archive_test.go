package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"twin-core/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArchive(t *testing.T) *SQLiteArchive {
	t.Helper()
	a, err := NewSQLiteArchive(filepath.Join(t.TempDir(), "archive_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestArchiveWriteAndQuery(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	e := entity.InteractionLogEntry{
		ID:                  "abc",
		Timestamp:           baseTime,
		UserMessage:         "Tell me about your Python skills",
		AIResponse:          "I have extensive Python experience...",
		ResponseTimeMs:      1234,
		Category:            "technical",
		ContextSnippetCount: 2,
		SessionID:           "s1",
		Succeeded:           true,
	}
	require.NoError(t, a.Write(ctx, e))

	got, err := a.Query(ctx, entity.LogQuery{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, e, got[0])
}

func TestArchiveQueryFilters(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	for i := range 5 {
		e := logEntry(i)
		if i%2 == 0 {
			e.SessionID = "even"
		}
		require.NoError(t, a.Write(ctx, e))
	}

	got, err := a.Query(ctx, entity.LogQuery{Since: baseTime.Add(2 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "e4", got[0].ID)

	got, err = a.Query(ctx, entity.LogQuery{SessionID: "even", Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e4", got[0].ID)
	assert.Equal(t, "e2", got[1].ID)

	got, err = a.Query(ctx, entity.LogQuery{Keyword: "question 3"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "e3", got[0].ID)
}

func TestArchiveCleanup(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()
	for i := range 4 {
		require.NoError(t, a.Write(ctx, logEntry(i)))
	}

	n, err := a.Cleanup(ctx, baseTime.Add(2*time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := a.Query(ctx, entity.LogQuery{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
