package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"twin-core/internal/domain/entity"

	_ "modernc.org/sqlite"
)

// SQLiteArchive is the durable copy of the interaction log. The in-memory store stays the
// source of truth for serving; the archive backs restarts, the CLI and long-range exports.
type SQLiteArchive struct {
	db *sql.DB
}

func NewSQLiteArchive(dbPath string) (*SQLiteArchive, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}
	if err := migrateArchive(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive db: %w", err)
	}
	return &SQLiteArchive{db: db}, nil
}

func migrateArchive(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS interactions (
		id                    TEXT PRIMARY KEY,
		created_at            INTEGER NOT NULL,
		user_message          TEXT NOT NULL,
		ai_response           TEXT NOT NULL,
		response_time_ms      INTEGER NOT NULL,
		category              TEXT NOT NULL,
		context_snippet_count INTEGER NOT NULL,
		session_id            TEXT NOT NULL DEFAULT '',
		succeeded             INTEGER NOT NULL,
		from_cache            INTEGER NOT NULL,
		error_message         TEXT NOT NULL DEFAULT ''
	)`)
	if err != nil {
		return err
	}
	if _, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_interactions_created ON interactions(created_at)`); err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_interactions_session ON interactions(session_id)`)
	return err
}

func (a *SQLiteArchive) Write(ctx context.Context, e entity.InteractionLogEntry) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO interactions
		(id, created_at, user_message, ai_response, response_time_ms, category,
		 context_snippet_count, session_id, succeeded, from_cache, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UnixMilli(), e.UserMessage, e.AIResponse, e.ResponseTimeMs, e.Category,
		e.ContextSnippetCount, e.SessionID, e.Succeeded, e.FromCache, e.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("archive write: %w", err)
	}
	return nil
}

// Query returns archived entries newest first. Limit <= 0 means no limit.
func (a *SQLiteArchive) Query(ctx context.Context, q entity.LogQuery) ([]entity.InteractionLogEntry, error) {
	query := `SELECT id, created_at, user_message, ai_response, response_time_ms, category,
		context_snippet_count, session_id, succeeded, from_cache, error_message
		FROM interactions WHERE 1=1`
	var args []any

	if !q.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, q.Since.UnixMilli())
	}
	if q.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, q.SessionID)
	}
	if q.Keyword != "" {
		query += " AND (user_message LIKE ? OR ai_response LIKE ?)"
		like := "%" + q.Keyword + "%"
		args = append(args, like, like)
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()

	var entries []entity.InteractionLogEntry
	for rows.Next() {
		var e entity.InteractionLogEntry
		var createdAt int64
		if err := rows.Scan(
			&e.ID, &createdAt, &e.UserMessage, &e.AIResponse, &e.ResponseTimeMs, &e.Category,
			&e.ContextSnippetCount, &e.SessionID, &e.Succeeded, &e.FromCache, &e.ErrorMessage,
		); err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		e.Timestamp = time.UnixMilli(createdAt).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Cleanup deletes archived entries created before cutoff.
func (a *SQLiteArchive) Cleanup(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := a.db.ExecContext(ctx, `DELETE FROM interactions WHERE created_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("archive cleanup: %w", err)
	}
	return res.RowsAffected()
}

func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}
