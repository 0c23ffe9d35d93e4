package main

import (
	"encoding/json"
	"time"

	"twin-core/internal/adapter/store"
	"twin-core/internal/domain/entity"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var (
		archive   string
		rangeFlag string
		session   string
		keyword   string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write archived interactions as JSON lines, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := entity.ParseTimeRange(rangeFlag)
			if err != nil {
				return err
			}
			path, err := archivePath(archive)
			if err != nil {
				return err
			}

			arch, err := store.NewSQLiteArchive(path)
			if err != nil {
				return err
			}
			defer arch.Close()

			q := entity.LogQuery{SessionID: session, Keyword: keyword, Limit: limit}
			if d := window.Duration(); d > 0 {
				q.Since = time.Now().Add(-d)
			}
			entries, err := arch.Query(cmd.Context(), q)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, e := range entries {
				if err := enc.Encode(e); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&archive, "archive", "", "SQLite archive path (default: LOG_ARCHIVE_PATH)")
	cmd.Flags().StringVar(&rangeFlag, "range", "all", "time range: day, week, month, all")
	cmd.Flags().StringVar(&session, "session", "", "only this session")
	cmd.Flags().StringVarP(&keyword, "query", "q", "", "case-insensitive keyword in question or answer")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries (0 = no limit)")
	return cmd
}

func newPruneCmd() *cobra.Command {
	var (
		archive   string
		olderThan time.Duration
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete archived interactions older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := archivePath(archive)
			if err != nil {
				return err
			}
			arch, err := store.NewSQLiteArchive(path)
			if err != nil {
				return err
			}
			defer arch.Close()

			n, err := arch.Cleanup(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			cmd.Printf("Deleted %d interactions older than %s\n", n, olderThan)
			return nil
		},
	}

	cmd.Flags().StringVar(&archive, "archive", "", "SQLite archive path (default: LOG_ARCHIVE_PATH)")
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age cutoff")
	return cmd
}
