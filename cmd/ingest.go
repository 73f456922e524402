package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docchat/docchat/internal/ingest"
	"github.com/docchat/docchat/internal/vectordb"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index the document corpus into the vector store",
	Long: `Reads every document matching the configured include globs, chunks it,
embeds the chunks, and persists the vector index under the data
directory. Re-running re-indexes from scratch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		embedder, err := createEmbedderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}

		store, err := vectordb.NewChromemStore(embedder)
		if err != nil {
			return fmt.Errorf("creating vector store: %w", err)
		}

		stats, err := ingest.Run(cmd.Context(), cfg, store)
		if err != nil {
			return err
		}

		fmt.Printf("Indexed %d chunk(s) from %d document(s) into %s\n",
			stats.Chunks, stats.Documents, cfg.DataDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
