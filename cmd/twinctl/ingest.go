package main

import (
	"fmt"
	"text/tabwriter"

	"twin-core/internal/adapter/client"
	"twin-core/internal/adapter/store"
	"twin-core/internal/config"

	"github.com/qdrant/go-client/qdrant"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newIngestCmd() *cobra.Command {
	var (
		profilePath string
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Embed the profile and upsert it into the vector store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if profilePath == "" {
				profilePath = cfg.ProfilePath
			}

			profile, err := config.LoadProfile(profilePath)
			if err != nil {
				return err
			}
			snippets := profile.Snippets()

			if dryRun {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "SOURCE\tPOINT ID\tCHARS")
				for _, sn := range snippets {
					fmt.Fprintf(w, "%s\t%s\t%d\n", sn.Source, store.PointID(sn), len(sn.Content))
				}
				if err := w.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d snippets (dry run, nothing written)\n", len(snippets))
				return nil
			}

			ctx := cmd.Context()
			genaiClient, err := client.NewGenAIClient(ctx, cfg.GenAI)
			if err != nil {
				return err
			}
			embedder := client.NewEmbedderFromClient(genaiClient, cfg.GenAI.EmbeddingModel, int32(cfg.GenAI.EmbeddingDim))

			qClient, err := qdrant.NewClient(&qdrant.Config{
				Host: cfg.Qdrant.Host,
				Port: cfg.Qdrant.Port,
			})
			if err != nil {
				return err
			}
			defer qClient.Close()

			vs := store.NewQdrantStore(qClient, cfg.Qdrant.Collection, embedder, cfg.Qdrant.MinScore, zap.NewNop())
			if err := vs.InitCollection(ctx, cfg.GenAI.EmbeddingDim); err != nil {
				return err
			}
			n, err := vs.Upsert(ctx, snippets)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Upserted %d snippets into %q\n", n, cfg.Qdrant.Collection)
			return nil
		},
	}

	cmd.Flags().StringVar(&profilePath, "profile", "", "profile YAML (default: PROFILE_PATH)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list the snippets without embedding them")
	return cmd
}
