package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"twin-core/internal/adapter/store"
	"twin-core/internal/domain/entity"
	"twin-core/internal/usecase"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var (
		archive   string
		rangeFlag string
		tz        string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize archived interactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := entity.ParseTimeRange(rangeFlag)
			if err != nil {
				return err
			}
			loc, err := time.LoadLocation(tz)
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

			now := time.Now()
			var q entity.LogQuery
			if d := window.Duration(); d > 0 {
				q.Since = now.Add(-d)
			}
			entries, err := arch.Query(cmd.Context(), q)
			if err != nil {
				return err
			}

			printSnapshot(cmd.OutOrStdout(), usecase.ComputeMetrics(entries, window, now, loc))
			return nil
		},
	}

	cmd.Flags().StringVar(&archive, "archive", "", "SQLite archive path (default: LOG_ARCHIVE_PATH)")
	cmd.Flags().StringVar(&rangeFlag, "range", "week", "time range: day, week, month, all")
	cmd.Flags().StringVar(&tz, "tz", "UTC", "time zone for the hourly histogram")
	return cmd
}

func printSnapshot(out io.Writer, s entity.MetricsSnapshot) {
	if s.TotalInteractions == 0 {
		fmt.Fprintf(out, "No interactions in range %q.\n", s.Range)
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RANGE\t%s\n", s.Range)
	fmt.Fprintf(w, "INTERACTIONS\t%d\n", s.TotalInteractions)
	fmt.Fprintf(w, "SUCCESS RATE\t%.1f%%\n", s.SuccessRate)
	fmt.Fprintf(w, "CACHE HIT RATE\t%.1f%%\n", s.CacheHitRate)
	fmt.Fprintf(w, "UNIQUE SESSIONS\t%d\n", s.UniqueSessions)
	fmt.Fprintf(w, "AVG RESPONSE\t%.0fms\n", s.AverageResponseTimeMs)
	fmt.Fprintf(w, "P50 / P95 / P99\t%d / %d / %dms\n", s.P50ResponseTimeMs, s.P95ResponseTimeMs, s.P99ResponseTimeMs)
	fmt.Fprintf(w, "LATENCY\tfast %d, medium %d, slow %d\n", s.LatencyHistogram.Fast, s.LatencyHistogram.Medium, s.LatencyHistogram.Slow)
	w.Flush()

	if len(s.TopQuestions) > 0 {
		fmt.Fprintln(out)
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tCOUNT\tQUESTION")
		for i, q := range s.TopQuestions {
			fmt.Fprintf(w, "%d\t%d\t%s\n", i+1, q.Count, truncate(q.Question, 60))
		}
		w.Flush()
	}

	if len(s.CategoryCounts) > 0 {
		fmt.Fprintln(out)
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tCOUNT")
		for _, c := range sortedCategories(s.CategoryCounts) {
			fmt.Fprintf(w, "%s\t%d\n", c, s.CategoryCounts[c])
		}
		w.Flush()
	}
}

func sortedCategories(counts map[string]int) []string {
	out := make([]string, 0, len(counts))
	for c := range counts {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b string) int {
		if counts[a] != counts[b] {
			return counts[b] - counts[a]
		}
		return strings.Compare(a, b)
	})
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
