package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"twin-core/internal/adapter/store"
	"twin-core/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func seedArchive(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "interactions.db")
	arch, err := store.NewSQLiteArchive(path)
	require.NoError(t, err)
	defer arch.Close()

	now := time.Now()
	rows := []entity.InteractionLogEntry{
		{ID: "1", Timestamp: now.Add(-time.Minute), UserMessage: "What stack do you use?", AIResponse: "Go and Postgres.", ResponseTimeMs: 800, Category: "technical", SessionID: "a", Succeeded: true},
		{ID: "2", Timestamp: now.Add(-2 * time.Minute), UserMessage: "What stack do you use?", AIResponse: "Go and Postgres.", ResponseTimeMs: 5, Category: "technical", SessionID: "b", Succeeded: true, FromCache: true},
		{ID: "3", Timestamp: now.Add(-3 * time.Minute), UserMessage: "Salary range?", AIResponse: "Let's talk.", ResponseTimeMs: 4000, Category: "hr", SessionID: "a"},
		{ID: "4", Timestamp: now.Add(-40 * 24 * time.Hour), UserMessage: "Old question", AIResponse: "Old answer", ResponseTimeMs: 1200, Category: "general", SessionID: "c", Succeeded: true},
	}
	for _, e := range rows {
		require.NoError(t, arch.Write(context.Background(), e))
	}
	return path
}

func TestStatsCommand(t *testing.T) {
	path := seedArchive(t)

	out, err := execute(t, "stats", "--archive", path, "--range", "week")
	require.NoError(t, err)
	assert.Contains(t, out, "INTERACTIONS")
	assert.Contains(t, out, "3")
	assert.Contains(t, out, "What stack do you use?")
	assert.Contains(t, out, "fast 2, medium 0, slow 1")
	assert.NotContains(t, out, "Old question")
}

func TestStatsCommandEmptyRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")

	out, err := execute(t, "stats", "--archive", path, "--range", "day")
	require.NoError(t, err)
	assert.Contains(t, out, "No interactions")
}

func TestStatsCommandRejectsBadInput(t *testing.T) {
	path := seedArchive(t)

	_, err := execute(t, "stats", "--archive", path, "--range", "fortnight")
	assert.ErrorIs(t, err, entity.ErrInvalidTimeRange)

	_, err = execute(t, "stats", "--archive", path, "--tz", "Nowhere/Void")
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	path := seedArchive(t)

	out, err := execute(t, "export", "--archive", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)

	var first entity.InteractionLogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "1", first.ID)

	out, err = execute(t, "export", "--archive", path, "--session", "a", "-q", "salary")
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"id":"3"`)
}

func TestExportRequiresArchive(t *testing.T) {
	t.Setenv("LOG_ARCHIVE_PATH", "")

	_, err := execute(t, "export")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_ARCHIVE_PATH")
}

func TestPruneCommand(t *testing.T) {
	path := seedArchive(t)

	out, err := execute(t, "prune", "--archive", path, "--older-than", "720h")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 1 interactions")

	out, err = execute(t, "export", "--archive", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "Old question")
}

func TestIngestDryRun(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(profile, []byte(`
name: Alex Rivera
title: Backend Engineer
summary: Builds reliable data services.
skills:
  - category: languages
    items: [Go, SQL]
faq:
  - question: Remote?
    answer: Yes.
`), 0o644))

	out, err := execute(t, "ingest", "--profile", profile, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "skills:languages")
	assert.Contains(t, out, "(dry run, nothing written)")
}
