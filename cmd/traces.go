package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/docchat/docchat/internal/db"
	"github.com/docchat/docchat/internal/trace"
)

var tracesLimit int

var tracesCmd = &cobra.Command{
	Use:   "traces",
	Short: "Browse saved query traces",
}

var tracesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent query traces, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := db.Open(filepath.Join(cfg.DataDir, "docchat.db"))
		if err != nil {
			return fmt.Errorf("opening trace index: %w", err)
		}
		defer database.Close()

		runs, err := trace.NewStore(database).List(cmd.Context(), tracesLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No traces recorded yet.")
			return nil
		}

		for _, r := range runs {
			fmt.Printf("%s  iters=%d cites=%d  %s\n", r.RunID, r.IterationCount, r.CitationCount, r.UserMessage)
		}
		return nil
	},
}

var tracesShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Print one query trace as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := db.Open(filepath.Join(cfg.DataDir, "docchat.db"))
		if err != nil {
			return fmt.Errorf("opening trace index: %w", err)
		}
		defer database.Close()

		run, err := trace.NewStore(database).Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("no trace with run ID %s", args[0])
		}

		qt, err := trace.Load(run.FilePath)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(qt, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	tracesListCmd.Flags().IntVar(&tracesLimit, "limit", 20, "maximum traces to list")
	tracesCmd.AddCommand(tracesListCmd)
	tracesCmd.AddCommand(tracesShowCmd)
	rootCmd.AddCommand(tracesCmd)
}
