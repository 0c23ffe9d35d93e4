package main

import (
	"fmt"
	"os"

	"twin-core/internal/config"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "twinctl",
		Short:         "Operate the digital twin: ingest the profile, inspect interactions",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env.dev is optional for the CLI
			_ = config.LoadDotEnv(".env.dev")
		},
	}

	root.AddCommand(
		newIngestCmd(),
		newStatsCmd(),
		newExportCmd(),
		newPruneCmd(),
	)
	return root
}

// archivePath prefers the flag, then LOG_ARCHIVE_PATH.
func archivePath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if p := os.Getenv("LOG_ARCHIVE_PATH"); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("no archive: pass --archive or set LOG_ARCHIVE_PATH")
}
